package subtitles

import (
	"bytes"
	"fmt"
	"io"
	"math"
	"strings"

	"github.com/hoangt2/kielo-convo-generator/internal/fileutil"
)

// Format names a subtitle file format.
const (
	FormatASS = "ass"
	FormatSRT = "srt"
)

// Style controls ASS rendering.
type Style struct {
	FontName string
	FontSize int
	// Width and Height are the video dimensions.
	Width  int
	Height int
}

func (s Style) withDefaults() Style {
	if strings.TrimSpace(s.FontName) == "" {
		s.FontName = "Arial"
	}
	if s.FontSize <= 0 {
		s.FontSize = 16
	}
	if s.Width <= 0 || s.Height <= 0 {
		s.Width, s.Height = 720, 1280
	}
	return s
}

const playResY = 288

// Extension returns the file extension for format, including the dot.
func Extension(format string) string {
	if strings.EqualFold(format, FormatSRT) {
		return ".srt"
	}
	return ".ass"
}

// WriteFile renders segments in format and writes them atomically to path.
func WriteFile(path, format string, segments []Segment, style Style) error {
	var buf bytes.Buffer
	var err error
	switch strings.ToLower(format) {
	case FormatSRT:
		err = WriteSRT(&buf, segments)
	case FormatASS, "":
		err = WriteASS(&buf, segments, style)
	default:
		return fmt.Errorf("unsupported subtitle format %q", format)
	}
	if err != nil {
		return err
	}
	return fileutil.WriteFileAtomic(path, buf.Bytes(), 0o644)
}

// WriteASS renders an Advanced SubStation Alpha script.
func WriteASS(w io.Writer, segments []Segment, style Style) error {
	style = style.withDefaults()
	playResX := int(math.Round(float64(playResY) * float64(style.Width) / float64(style.Height)))

	var b strings.Builder
	b.WriteString("[Script Info]\n")
	b.WriteString("ScriptType: v4.00+\n")
	fmt.Fprintf(&b, "PlayResX: %d\n", playResX)
	fmt.Fprintf(&b, "PlayResY: %d\n", playResY)
	b.WriteString("WrapStyle: 0\n")
	b.WriteString("ScaledBorderAndShadow: yes\n\n")

	b.WriteString("[V4+ Styles]\n")
	b.WriteString("Format: Name, Fontname, Fontsize, PrimaryColour, SecondaryColour, OutlineColour, BackColour, Bold, Italic, Underline, StrikeOut, ScaleX, ScaleY, Spacing, Angle, BorderStyle, Outline, Shadow, Alignment, MarginL, MarginR, MarginV, Encoding\n")
	fmt.Fprintf(&b, "Style: Default,%s,%d,&H00FFFFFF,&H000000FF,&H00000000,&H80000000,-1,0,0,0,100,100,0,0,1,1.5,0.5,2,10,10,40,1\n\n", style.FontName, style.FontSize)

	b.WriteString("[Events]\n")
	b.WriteString("Format: Layer, Start, End, Style, Name, MarginL, MarginR, MarginV, Effect, Text\n")
	for _, seg := range segments {
		text := escapeASS(seg.Text)
		if seg.Translation != "" {
			text += `\N{\i1}` + escapeASS(seg.Translation) + `{\i0}`
		}
		fmt.Fprintf(&b, "Dialogue: 0,%s,%s,Default,,0,0,0,,%s\n", ASSTimestamp(seg.Start), ASSTimestamp(seg.End), text)
	}
	_, err := io.WriteString(w, b.String())
	return err
}

// WriteSRT renders a SubRip file. Translations become a second line.
func WriteSRT(w io.Writer, segments []Segment) error {
	var b strings.Builder
	for i, seg := range segments {
		fmt.Fprintf(&b, "%d\n%s --> %s\n%s\n", i+1, SRTTimestamp(seg.Start), SRTTimestamp(seg.End), seg.Text)
		if seg.Translation != "" {
			fmt.Fprintf(&b, "<i>%s</i>\n", seg.Translation)
		}
		b.WriteByte('\n')
	}
	_, err := io.WriteString(w, b.String())
	return err
}

// ASSTimestamp formats seconds as H:MM:SS.cc.
func ASSTimestamp(seconds float64) string {
	cs := int64(math.Round(math.Max(seconds, 0) * 100))
	h := cs / 360000
	m := (cs % 360000) / 6000
	s := (cs % 6000) / 100
	return fmt.Sprintf("%d:%02d:%02d.%02d", h, m, s, cs%100)
}

// SRTTimestamp formats seconds as HH:MM:SS,mmm.
func SRTTimestamp(seconds float64) string {
	ms := int64(math.Round(math.Max(seconds, 0) * 1000))
	h := ms / 3600000
	m := (ms % 3600000) / 60000
	s := (ms % 60000) / 1000
	return fmt.Sprintf("%02d:%02d:%02d,%03d", h, m, s, ms%1000)
}

var assEscaper = strings.NewReplacer("\r\n", `\N`, "\n", `\N`, "{", "(", "}", ")")

func escapeASS(text string) string {
	return assEscaper.Replace(strings.TrimSpace(text))
}
