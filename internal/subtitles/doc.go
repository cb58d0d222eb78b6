// Package subtitles renders transcribed segments as ASS or SRT subtitle files.
//
// ASS cues carry the original line and, when present, the translation on a
// second italic line. The script resolution keeps a 288 pixel height and
// derives the width from the video aspect ratio, so font sizes keep their
// classic libass meaning on portrait video.
package subtitles
