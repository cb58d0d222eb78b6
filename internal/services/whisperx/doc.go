// Package whisperx runs WhisperX through uvx and reads its JSON segments.
//
// Configuration options (model, CUDA, VAD method) are passed via Config.
// Audio must already be a 16 kHz mono WAV; the finalize stage prepares it
// with ffmpeg before calling Transcribe.
package whisperx
