package language

import (
	"strings"

	xlanguage "golang.org/x/text/language"
	"golang.org/x/text/language/display"
)

type entry struct {
	code2   string   // ISO 639-1 (2-letter)
	code3   string   // ISO 639-2 (3-letter)
	display string   // English name
	words   []string // Word forms accepted in config (e.g. "finnish", "suomi")
}

var languages = []entry{
	{"fi", "fin", "Finnish", []string{"finnish", "suomi"}},
	{"en", "eng", "English", []string{"english", "englanti"}},
	{"sv", "swe", "Swedish", []string{"swedish", "ruotsi"}},
	{"et", "est", "Estonian", []string{"estonian", "viro"}},
	{"ru", "rus", "Russian", []string{"russian", "venäjä"}},
	{"de", "deu", "German", []string{"german", "saksa"}},
	{"fr", "fra", "French", []string{"french", "ranska"}},
	{"es", "spa", "Spanish", []string{"spanish", "espanja"}},
	{"uk", "ukr", "Ukrainian", []string{"ukrainian"}},
	{"vi", "vie", "Vietnamese", []string{"vietnamese"}},
	{"zh", "zho", "Chinese", []string{"chinese"}},
	{"ja", "jpn", "Japanese", []string{"japanese"}},
	{"ar", "ara", "Arabic", []string{"arabic"}},
}

var (
	byCode2 map[string]*entry
	byCode3 map[string]*entry
	byWord  map[string]*entry
)

func init() {
	byCode2 = make(map[string]*entry, len(languages))
	byCode3 = make(map[string]*entry, len(languages))
	byWord = make(map[string]*entry, len(languages)*2)
	for i := range languages {
		e := &languages[i]
		byCode2[e.code2] = e
		byCode3[e.code3] = e
		for _, w := range e.words {
			byWord[w] = e
		}
	}
}

func lookup(code string) *entry {
	code = strings.ToLower(strings.TrimSpace(code))
	if code == "" {
		return nil
	}
	if e, ok := byCode2[code]; ok {
		return e
	}
	if e, ok := byCode3[code]; ok {
		return e
	}
	if e, ok := byWord[code]; ok {
		return e
	}
	return nil
}

// ToISO2 converts a recognized code or word to ISO 639-1. Unknown input is
// parsed as a BCP 47 tag; anything unparseable returns "".
func ToISO2(code string) string {
	code = strings.ToLower(strings.TrimSpace(code))
	if code == "" {
		return ""
	}
	if e := lookup(code); e != nil {
		return e.code2
	}
	tag, err := xlanguage.Parse(code)
	if err != nil {
		return ""
	}
	base, confidence := tag.Base()
	if confidence == xlanguage.No {
		return ""
	}
	if iso := base.String(); len(iso) == 2 {
		return iso
	}
	return ""
}

// DisplayName returns the English name of a language code or word. Codes
// outside the table are named through CLDR data; truly unknown input is
// returned uppercased.
func DisplayName(code string) string {
	trimmed := strings.TrimSpace(code)
	if trimmed == "" {
		return "Unknown"
	}
	if e := lookup(trimmed); e != nil {
		return e.display
	}
	if tag, err := xlanguage.Parse(trimmed); err == nil {
		if name := display.English.Languages().Name(tag); name != "" {
			return name
		}
	}
	return strings.ToUpper(trimmed)
}
