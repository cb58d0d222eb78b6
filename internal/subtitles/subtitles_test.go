package subtitles

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestTimestamps(t *testing.T) {
	cases := []struct {
		in       float64
		ass, srt string
	}{
		{0, "0:00:00.00", "00:00:00,000"},
		{1.234, "0:00:01.23", "00:00:01,234"},
		{3725.5, "1:02:05.50", "01:02:05,500"},
		{-2, "0:00:00.00", "00:00:00,000"},
	}
	for _, tc := range cases {
		if got := ASSTimestamp(tc.in); got != tc.ass {
			t.Errorf("ASSTimestamp(%v) = %q, want %q", tc.in, got, tc.ass)
		}
		if got := SRTTimestamp(tc.in); got != tc.srt {
			t.Errorf("SRTTimestamp(%v) = %q, want %q", tc.in, got, tc.srt)
		}
	}
}

func TestNormalizeDropsEmptyAndFixesOverlap(t *testing.T) {
	got := Normalize([]Segment{
		{Start: 2, End: 5, Text: " Moi  kaikki "},
		{Start: 0, End: 0, Text: "Hei"},
		{Start: 4, End: 6, Text: "   "},
		{Start: 3, End: 4, Text: "Kiitos"},
	})
	if len(got) != 3 {
		t.Fatalf("expected 3 segments, got %+v", got)
	}
	if got[0].Text != "Hei" || got[0].End <= got[0].Start {
		t.Fatalf("first segment = %+v", got[0])
	}
	if got[1].Text != "Moi kaikki" || got[1].End != 3 {
		t.Fatalf("overlap not trimmed: %+v", got[1])
	}
}

func TestWriteASSDualLine(t *testing.T) {
	var buf bytes.Buffer
	err := WriteASS(&buf, []Segment{{Start: 1, End: 2.5, Text: "Hei {kaikki}", Translation: "Hi everyone"}}, Style{FontName: "Arial", FontSize: 16, Width: 720, Height: 1280})
	if err != nil {
		t.Fatalf("WriteASS: %v", err)
	}
	out := buf.String()
	for _, want := range []string{
		"PlayResX: 162",
		"PlayResY: 288",
		"Style: Default,Arial,16,",
		`Dialogue: 0,0:00:01.00,0:00:02.50,Default,,0,0,0,,Hei (kaikki)\N{\i1}Hi everyone{\i0}`,
	} {
		if !strings.Contains(out, want) {
			t.Fatalf("ASS output missing %q:\n%s", want, out)
		}
	}
}

func TestWriteSRT(t *testing.T) {
	var buf bytes.Buffer
	if err := WriteSRT(&buf, []Segment{{Start: 0, End: 1, Text: "Hei", Translation: "Hi"}, {Start: 1, End: 2, Text: "Moi"}}); err != nil {
		t.Fatalf("WriteSRT: %v", err)
	}
	want := "1\n00:00:00,000 --> 00:00:01,000\nHei\n<i>Hi</i>\n\n2\n00:00:01,000 --> 00:00:02,000\nMoi\n\n"
	if buf.String() != want {
		t.Fatalf("SRT = %q", buf.String())
	}
}

func TestWriteFileFormats(t *testing.T) {
	dir := t.TempDir()
	segs := []Segment{{Start: 0, End: 1, Text: "Hei"}}
	assPath := filepath.Join(dir, "a"+Extension(FormatASS))
	if err := WriteFile(assPath, FormatASS, segs, Style{}); err != nil {
		t.Fatalf("WriteFile ass: %v", err)
	}
	data, err := os.ReadFile(assPath)
	if err != nil || !strings.HasPrefix(string(data), "[Script Info]") {
		t.Fatalf("ass file = %q, %v", data, err)
	}
	if err := WriteFile(filepath.Join(dir, "a.vtt"), "vtt", segs, Style{}); err == nil {
		t.Fatal("expected unsupported format error")
	}
}
