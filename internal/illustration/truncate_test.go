package illustration

import (
	"testing"
	"unicode/utf8"
)

func TestTruncateKeepsRunesWhole(t *testing.T) {
	got := truncate("äöäöä", 3)
	if got != "äöä..." || !utf8.ValidString(got) {
		t.Fatalf("got %q", got)
	}
	if got := truncate("sauna", 10); got != "sauna" {
		t.Fatalf("short input changed: %q", got)
	}
}
