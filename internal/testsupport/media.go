package testsupport

import (
	"context"
	"fmt"
	"os"
	"sync"

	"github.com/hoangt2/kielo-convo-generator/internal/media/ffmpeg"
	"github.com/hoangt2/kielo-convo-generator/internal/media/ffprobe"
)

// MediaRecorder stands in for ffmpeg. Every call is recorded and, unless
// Fail is set, a placeholder file is written at the last argument.
type MediaRecorder struct {
	mu    sync.Mutex
	Calls [][]string
	Fail  error
}

// Run implements ffmpeg.Runner.
func (r *MediaRecorder) Run(_ context.Context, name string, args ...string) error {
	r.mu.Lock()
	r.Calls = append(r.Calls, append([]string{name}, args...))
	fail := r.Fail
	r.mu.Unlock()
	if fail != nil {
		return fail
	}
	return os.WriteFile(args[len(args)-1], []byte("media"), 0o644)
}

// Invoker returns an ffmpeg.Invoker backed by the recorder.
func (r *MediaRecorder) Invoker() *ffmpeg.Invoker {
	return ffmpeg.New("ffmpeg", "").WithRunner(r.Run)
}

// CallCount returns the number of recorded invocations.
func (r *MediaRecorder) CallCount() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.Calls)
}

// Prober returns an ffprobe.Prober reporting one video and one audio stream
// of the given duration for every path.
func Prober(duration float64) *ffprobe.Prober {
	payload := fmt.Sprintf(`{
  "streams": [
    {"index": 0, "codec_type": "video", "codec_name": "h264", "width": 720, "height": 1280},
    {"index": 1, "codec_type": "audio", "codec_name": "aac", "sample_rate": "44100", "channels": 2}
  ],
  "format": {"format_name": "mov,mp4", "duration": "%.3f", "size": "1024"}
}`, duration)
	return ffprobe.NewProber("ffprobe").WithRunner(func(context.Context, string, ...string) ([]byte, error) {
		return []byte(payload), nil
	})
}
