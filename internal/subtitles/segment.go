package subtitles

import (
	"sort"
	"strings"
)

// minCueSeconds is the shortest cue kept after normalization.
const minCueSeconds = 0.3

// Segment is one timed line of speech.
type Segment struct {
	Start       float64 `json:"start"`
	End         float64 `json:"end"`
	Text        string  `json:"text"`
	Translation string  `json:"translation,omitempty"`
}

// Normalize trims text, drops empty segments, sorts by start time and gives
// every cue a positive duration that does not overlap the next cue.
func Normalize(segments []Segment) []Segment {
	out := make([]Segment, 0, len(segments))
	for _, seg := range segments {
		seg.Text = strings.Join(strings.Fields(seg.Text), " ")
		seg.Translation = strings.Join(strings.Fields(seg.Translation), " ")
		if seg.Text == "" {
			continue
		}
		if seg.Start < 0 {
			seg.Start = 0
		}
		out = append(out, seg)
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Start < out[j].Start })
	for i := range out {
		if out[i].End < out[i].Start+minCueSeconds {
			out[i].End = out[i].Start + minCueSeconds
		}
		if i+1 < len(out) && out[i].End > out[i+1].Start && out[i+1].Start > out[i].Start {
			out[i].End = out[i+1].Start
		}
	}
	return out
}

// Texts returns the original text of every segment.
func Texts(segments []Segment) []string {
	texts := make([]string, len(segments))
	for i, seg := range segments {
		texts[i] = seg.Text
	}
	return texts
}
