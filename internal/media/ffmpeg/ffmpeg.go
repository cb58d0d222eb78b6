package ffmpeg

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/hoangt2/kielo-convo-generator/internal/fileutil"
)

// DefaultAudioBitrate is used when no bitrate is configured.
const DefaultAudioBitrate = "192k"

// Runner executes a command. The default implementation shells out via
// os/exec and folds stderr into the returned error.
type Runner func(ctx context.Context, name string, args ...string) error

// Invoker runs ffmpeg with a fixed binary and audio bitrate.
type Invoker struct {
	binary       string
	audioBitrate string
	run          Runner
}

// New returns an Invoker. Empty values fall back to "ffmpeg" and DefaultAudioBitrate.
func New(binary, audioBitrate string) *Invoker {
	binary = strings.TrimSpace(binary)
	if binary == "" {
		binary = "ffmpeg"
	}
	audioBitrate = strings.TrimSpace(audioBitrate)
	if audioBitrate == "" {
		audioBitrate = DefaultAudioBitrate
	}
	return &Invoker{binary: binary, audioBitrate: audioBitrate, run: execRunner}
}

// WithRunner replaces command execution.
func (i *Invoker) WithRunner(run Runner) *Invoker {
	if run != nil {
		i.run = run
	}
	return i
}

// Binary returns the configured ffmpeg executable.
func (i *Invoker) Binary() string { return i.binary }

// Canvas describes the output frame.
type Canvas struct {
	Width  int
	Height int
}

func (c Canvas) valid() error {
	if c.Width <= 0 || c.Height <= 0 {
		return fmt.Errorf("invalid canvas %dx%d", c.Width, c.Height)
	}
	return nil
}

// MusicMix describes how background music is layered under dialogue.
type MusicMix struct {
	Volume          float64
	FadeStart       float64
	FadeOutDuration float64
}

// SubtitleBurn describes the subtitle filter applied during burn-in.
type SubtitleBurn struct {
	Path     string
	ASS      bool
	FontName string
	FontSize int
}

// ComposeCanvasArgs scales the image to the canvas width and pads it onto
// a white canvas anchored at the top.
func ComposeCanvasArgs(image, output string, canvas Canvas) []string {
	filter := fmt.Sprintf("scale=%d:-1,pad=%d:%d:0:0:color=white", canvas.Width, canvas.Width, canvas.Height)
	return []string{"-y", "-hide_banner", "-loglevel", "error", "-i", image, "-vf", filter, "-frames:v", "1", output}
}

// StillVideoArgs encodes a looped still image against an audio track. The
// output ends with the audio.
func StillVideoArgs(image, audio, output string, canvas Canvas, audioBitrate string) []string {
	return []string{
		"-y", "-hide_banner", "-loglevel", "error",
		"-loop", "1", "-i", image,
		"-i", audio,
		"-c:v", "libx264", "-tune", "stillimage",
		"-c:a", "aac", "-b:a", audioBitrate,
		"-pix_fmt", "yuv420p",
		"-vf", fmt.Sprintf("scale=%d:%d", canvas.Width, canvas.Height),
		"-shortest",
		output,
	}
}

// MixMusicArgs loops the music track under the video audio, fading it out
// before the end. The video stream is copied.
func MixMusicArgs(video, music, output string, mix MusicMix, audioBitrate string) []string {
	filter := fmt.Sprintf(
		"[1:a]volume=%s,afade=t=out:st=%s:d=%s[bg];[0:a][bg]amix=inputs=2:duration=first:dropout_transition=0:normalize=0[aout]",
		formatFloat(mix.Volume), formatFloat(mix.FadeStart), formatFloat(mix.FadeOutDuration),
	)
	return []string{
		"-y", "-hide_banner", "-loglevel", "error",
		"-i", video,
		"-stream_loop", "-1", "-i", music,
		"-filter_complex", filter,
		"-map", "0:v", "-map", "[aout]",
		"-c:v", "copy",
		"-c:a", "aac", "-b:a", audioBitrate,
		"-shortest",
		output,
	}
}

// BurnSubtitlesArgs re-encodes the video with subtitles rendered into the
// frame. Audio is copied.
func BurnSubtitlesArgs(video, output string, burn SubtitleBurn) []string {
	return []string{
		"-y", "-hide_banner", "-loglevel", "error",
		"-i", video,
		"-vf", SubtitleFilter(burn),
		"-c:v", "libx264", "-pix_fmt", "yuv420p",
		"-c:a", "copy",
		output,
	}
}

// SubtitleFilter returns the -vf expression for burn.
func SubtitleFilter(burn SubtitleBurn) string {
	path := EscapeFilterPath(burn.Path)
	if burn.ASS {
		return fmt.Sprintf("ass='%s'", path)
	}
	var style []string
	if burn.FontName != "" {
		style = append(style, "FontName="+burn.FontName)
	}
	if burn.FontSize > 0 {
		style = append(style, "FontSize="+strconv.Itoa(burn.FontSize))
	}
	if len(style) == 0 {
		return fmt.Sprintf("subtitles='%s'", path)
	}
	return fmt.Sprintf("subtitles='%s':force_style='%s'", path, strings.Join(style, ","))
}

// EscapeFilterPath escapes a path for use inside a quoted filtergraph option.
func EscapeFilterPath(path string) string {
	path = strings.ReplaceAll(path, "\\", "/")
	path = strings.ReplaceAll(path, ":", "\\:")
	path = strings.ReplaceAll(path, "'", "'\\''")
	return path
}

// ConcatArgs joins the files listed in listFile without re-encoding.
func ConcatArgs(listFile, output string) []string {
	return []string{"-y", "-hide_banner", "-loglevel", "error", "-f", "concat", "-safe", "0", "-i", listFile, "-c", "copy", output}
}

// ConcatList renders a concat demuxer list.
func ConcatList(inputs []string) string {
	var b strings.Builder
	for _, in := range inputs {
		abs, err := filepath.Abs(in)
		if err != nil {
			abs = in
		}
		b.WriteString("file '")
		b.WriteString(strings.ReplaceAll(abs, "'", "'\\''"))
		b.WriteString("'\n")
	}
	return b.String()
}

// ToWAVArgs extracts mono 16 kHz PCM audio.
func ToWAVArgs(input, output string) []string {
	return []string{"-y", "-hide_banner", "-loglevel", "error", "-i", input, "-vn", "-ac", "1", "-ar", "16000", "-c:a", "pcm_s16le", output}
}

// ComposeCanvas writes image onto a canvas-sized PNG at output.
func (i *Invoker) ComposeCanvas(ctx context.Context, image, output string, canvas Canvas) error {
	if err := canvas.valid(); err != nil {
		return err
	}
	return i.produce(ctx, output, func(tmp string) []string {
		return ComposeCanvasArgs(image, tmp, canvas)
	})
}

// StillVideo encodes image and audio into an MP4 at output.
func (i *Invoker) StillVideo(ctx context.Context, image, audio, output string, canvas Canvas) error {
	if err := canvas.valid(); err != nil {
		return err
	}
	return i.produce(ctx, output, func(tmp string) []string {
		return StillVideoArgs(image, audio, tmp, canvas, i.audioBitrate)
	})
}

// MixMusic layers music under the audio of video.
func (i *Invoker) MixMusic(ctx context.Context, video, music, output string, mix MusicMix) error {
	if mix.FadeStart < 0 {
		mix.FadeStart = 0
	}
	return i.produce(ctx, output, func(tmp string) []string {
		return MixMusicArgs(video, music, tmp, mix, i.audioBitrate)
	})
}

// BurnSubtitles renders subtitles into video.
func (i *Invoker) BurnSubtitles(ctx context.Context, video, output string, burn SubtitleBurn) error {
	if strings.TrimSpace(burn.Path) == "" {
		return errors.New("burn subtitles: subtitle path required")
	}
	return i.produce(ctx, output, func(tmp string) []string {
		return BurnSubtitlesArgs(video, tmp, burn)
	})
}

// ConcatAudio joins audio segments in order into output.
func (i *Invoker) ConcatAudio(ctx context.Context, inputs []string, output string) error {
	if len(inputs) == 0 {
		return errors.New("concat: no inputs")
	}
	if len(inputs) == 1 {
		return fileutil.CopyFile(inputs[0], output)
	}
	listFile := output + ".concat.txt"
	if err := os.WriteFile(listFile, []byte(ConcatList(inputs)), 0o644); err != nil {
		return fmt.Errorf("concat: write list: %w", err)
	}
	defer func() { _ = os.Remove(listFile) }()
	return i.produce(ctx, output, func(tmp string) []string {
		return ConcatArgs(listFile, tmp)
	})
}

// ToWAV extracts transcription-ready audio from input.
func (i *Invoker) ToWAV(ctx context.Context, input, output string) error {
	return i.produce(ctx, output, func(tmp string) []string {
		return ToWAVArgs(input, tmp)
	})
}

func (i *Invoker) produce(ctx context.Context, output string, build func(tmp string) []string) error {
	if err := os.MkdirAll(filepath.Dir(output), 0o755); err != nil {
		return fmt.Errorf("ensure output dir: %w", err)
	}
	tmp := fileutil.TempPath(output)
	if err := i.run(ctx, i.binary, build(tmp)...); err != nil {
		_ = os.Remove(tmp)
		return fmt.Errorf("ffmpeg: %w", err)
	}
	return fileutil.Promote(tmp, output)
}

func execRunner(ctx context.Context, name string, args ...string) error {
	cmd := exec.CommandContext(ctx, name, args...) //nolint:gosec
	if output, err := cmd.CombinedOutput(); err != nil {
		return fmt.Errorf("%s: %w: %s", name, err, strings.TrimSpace(string(output)))
	}
	return nil
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
