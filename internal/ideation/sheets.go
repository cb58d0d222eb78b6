package ideation

import (
	"bytes"
	"context"
	"encoding/json"
	"strings"
	"time"

	"github.com/hoangt2/kielo-convo-generator/internal/content"
)

// TimestampLayout is the registry's date column format.
const TimestampLayout = "2006-01-02 15:04:05"

// Rows renders one registry row per idea: title, summary, characters,
// the three metadata fields, the characters as JSON and the timestamp.
func Rows(set content.IdeaSet, now time.Time) [][]any {
	fields := set.Metadata.Fields(set.Mode)
	stamp := now.Format(TimestampLayout)
	rows := make([][]any, 0, len(set.Ideas))
	for _, idea := range set.Ideas {
		labels := make([]string, 0, len(idea.Characters))
		for _, c := range idea.Characters {
			labels = append(labels, c.Label())
		}
		rows = append(rows, []any{
			idea.Title,
			idea.Summary(),
			strings.Join(labels, "; "),
			fields[0],
			fields[1],
			fields[2],
			charactersJSON(idea.Characters),
			stamp,
		})
	}
	return rows
}

func charactersJSON(chars []content.Character) string {
	if chars == nil {
		chars = []content.Character{}
	}
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(chars); err != nil {
		return "[]"
	}
	return strings.TrimSpace(buf.String())
}

// SyncResult reports a Sync outcome.
type SyncResult struct {
	Appended int
	Skipped  int
}

// Sync appends the ideas in set whose titles are not already in sheet.
func Sync(ctx context.Context, registry TitleRegistry, sheet string, set content.IdeaSet, now time.Time) (SyncResult, error) {
	existing, err := registry.Existing(ctx, sheet)
	if err != nil {
		return SyncResult{}, err
	}
	known := make(map[string]struct{}, len(existing))
	for _, e := range existing {
		known[strings.ToLower(strings.TrimSpace(e.Title))] = struct{}{}
	}
	pending := content.IdeaSet{Mode: set.Mode, Metadata: set.Metadata}
	var result SyncResult
	for _, idea := range set.Ideas {
		key := strings.ToLower(strings.TrimSpace(idea.Title))
		if _, ok := known[key]; ok || key == "" {
			result.Skipped++
			continue
		}
		known[key] = struct{}{}
		pending.Ideas = append(pending.Ideas, idea)
	}
	if len(pending.Ideas) == 0 {
		return result, nil
	}
	if err := registry.AppendRows(ctx, sheet, Rows(pending, now)); err != nil {
		return result, err
	}
	result.Appended = len(pending.Ideas)
	return result, nil
}
