package whisperx

import "strconv"

// Config selects the model, device and voice activity detection for one
// transcription service.
type Config struct {
	Model       string
	CUDAEnabled bool
	// VADMethod is "silero" (default) or "pyannote". Pyannote needs HFToken.
	VADMethod string
	HFToken   string
	// Tuning overrides the decoding defaults; the zero value keeps them.
	Tuning Tuning
}

// Tuning holds the decoding knobs passed to the WhisperX CLI.
type Tuning struct {
	BatchSize int
	// ChunkSize is the maximum VAD chunk in seconds. Dialogue turns are short,
	// so small chunks keep cue boundaries on speaker changes.
	ChunkSize int
	VADOnset  float64
	VADOffset float64
	BeamSize  int
}

// DefaultTuning is tuned for one-minute, two-speaker dialogue clips.
func DefaultTuning() Tuning {
	return Tuning{BatchSize: 8, ChunkSize: 10, VADOnset: 0.3, VADOffset: 0.2, BeamSize: 5}
}

func (t Tuning) withDefaults() Tuning {
	d := DefaultTuning()
	if t.BatchSize <= 0 {
		t.BatchSize = d.BatchSize
	}
	if t.ChunkSize <= 0 {
		t.ChunkSize = d.ChunkSize
	}
	if t.VADOnset <= 0 {
		t.VADOnset = d.VADOnset
	}
	if t.VADOffset <= 0 {
		t.VADOffset = d.VADOffset
	}
	if t.BeamSize <= 0 {
		t.BeamSize = d.BeamSize
	}
	return t
}

func (t Tuning) args() []string {
	return []string{
		"--batch_size", strconv.Itoa(t.BatchSize),
		"--chunk_size", strconv.Itoa(t.ChunkSize),
		"--vad_onset", strconv.FormatFloat(t.VADOnset, 'f', -1, 64),
		"--vad_offset", strconv.FormatFloat(t.VADOffset, 'f', -1, 64),
		"--beam_size", strconv.Itoa(t.BeamSize),
	}
}

const (
	DefaultModel      = "large-v3"
	CUDAIndexURL      = "https://download.pytorch.org/whl/cu128"
	PypiIndexURL      = "https://pypi.org/simple"
	CPUDevice         = "cpu"
	CUDADevice        = "cuda"
	CPUComputeType    = "float32"
	VADMethodPyannote = "pyannote"
	VADMethodSilero   = "silero"

	// UVXCommand launches WhisperX without a global install.
	UVXCommand = "uvx"
)
