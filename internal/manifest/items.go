package manifest

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/hoangt2/kielo-convo-generator/internal/content"
)

// ArtifactKind names an artifact column on an item.
type ArtifactKind string

const (
	ArtifactIdeas        ArtifactKind = "ideas"
	ArtifactScript       ArtifactKind = "script"
	ArtifactIllustration ArtifactKind = "illustration"
	ArtifactAudio        ArtifactKind = "audio"
	ArtifactVideo        ArtifactKind = "video"
	ArtifactMixed        ArtifactKind = "mixed"
	ArtifactFinal        ArtifactKind = "final"
	ArtifactSubtitle     ArtifactKind = "subtitle"
)

// ArtifactKinds lists kinds in pipeline order.
var ArtifactKinds = []ArtifactKind{
	ArtifactIdeas,
	ArtifactScript,
	ArtifactIllustration,
	ArtifactAudio,
	ArtifactVideo,
	ArtifactMixed,
	ArtifactFinal,
	ArtifactSubtitle,
}

var artifactColumns = map[ArtifactKind]string{
	ArtifactIdeas:        "ideas_file",
	ArtifactScript:       "script_path",
	ArtifactIllustration: "illustration_path",
	ArtifactAudio:        "audio_path",
	ArtifactVideo:        "video_path",
	ArtifactMixed:        "mixed_path",
	ArtifactFinal:        "final_path",
	ArtifactSubtitle:     "subtitle_path",
}

// Item is the manifest row for one slug.
type Item struct {
	Slug         string
	Mode         content.Mode
	Title        string
	Artifacts    map[ArtifactKind]string
	FailedStage  string
	ErrorMessage string
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// Artifact returns the recorded path for kind, or "".
func (i *Item) Artifact(kind ArtifactKind) string {
	if i == nil || i.Artifacts == nil {
		return ""
	}
	return i.Artifacts[kind]
}

// Progress returns the last artifact kind recorded in pipeline order.
func (i *Item) Progress() ArtifactKind {
	var last ArtifactKind
	for _, kind := range ArtifactKinds {
		if i.Artifact(kind) != "" {
			last = kind
		}
	}
	return last
}

// Failed reports whether the item carries an unresolved stage failure.
func (i *Item) Failed() bool {
	return i != nil && i.FailedStage != ""
}

const itemColumns = "slug, mode, title, ideas_file, script_path, illustration_path, audio_path, video_path, mixed_path, final_path, subtitle_path, failed_stage, error_message, created_at, updated_at"

func scanItem(scanner interface{ Scan(dest ...any) error }) (*Item, error) {
	var (
		slug, mode, title                         string
		ideas, script, illustration, audio, video sql.NullString
		mixed, final, subtitle                    sql.NullString
		failedStage, errorMessage                 sql.NullString
		createdRaw, updatedRaw                    sql.NullString
	)
	if err := scanner.Scan(
		&slug, &mode, &title,
		&ideas, &script, &illustration, &audio, &video, &mixed, &final, &subtitle,
		&failedStage, &errorMessage, &createdRaw, &updatedRaw,
	); err != nil {
		return nil, err
	}
	item := &Item{
		Slug:         slug,
		Mode:         content.Mode(mode),
		Title:        title,
		Artifacts:    make(map[ArtifactKind]string),
		FailedStage:  failedStage.String,
		ErrorMessage: errorMessage.String,
		CreatedAt:    parseTime(createdRaw),
		UpdatedAt:    parseTime(updatedRaw),
	}
	for kind, value := range map[ArtifactKind]sql.NullString{
		ArtifactIdeas:        ideas,
		ArtifactScript:       script,
		ArtifactIllustration: illustration,
		ArtifactAudio:        audio,
		ArtifactVideo:        video,
		ArtifactMixed:        mixed,
		ArtifactFinal:        final,
		ArtifactSubtitle:     subtitle,
	} {
		if value.Valid && value.String != "" {
			item.Artifacts[kind] = value.String
		}
	}
	return item, nil
}

// Upsert inserts an item or refreshes its mode and title. Artifact columns
// and failure state are left untouched on update. An empty title keeps the
// stored one.
func (s *Store) Upsert(ctx context.Context, slug string, mode content.Mode, title string) error {
	slug = strings.TrimSpace(slug)
	if slug == "" {
		return errors.New("upsert: slug required")
	}
	now := formatTime(time.Now())
	_, err := s.execWithRetry(ctx,
		`INSERT INTO items (slug, mode, title, created_at, updated_at)
         VALUES (?, ?, ?, ?, ?)
         ON CONFLICT(slug) DO UPDATE SET
             mode = excluded.mode,
             title = CASE WHEN excluded.title = '' THEN items.title ELSE excluded.title END,
             updated_at = excluded.updated_at`,
		slug, string(mode), strings.TrimSpace(title), now, now,
	)
	if err != nil {
		return fmt.Errorf("upsert %s: %w", slug, err)
	}
	return nil
}

// RecordArtifact stores path under kind for slug.
func (s *Store) RecordArtifact(ctx context.Context, slug string, kind ArtifactKind, path string) error {
	column, ok := artifactColumns[kind]
	if !ok {
		return fmt.Errorf("record artifact: unknown kind %q", kind)
	}
	res, err := s.execWithRetry(ctx,
		`UPDATE items SET `+column+` = ?, updated_at = ? WHERE slug = ?`,
		nullableString(path), formatTime(time.Now()), slug,
	)
	if err != nil {
		return fmt.Errorf("record %s artifact for %s: %w", kind, slug, err)
	}
	return requireRow(res, slug)
}

// RecordFailure marks slug as failed in stage.
func (s *Store) RecordFailure(ctx context.Context, slug, stage, message string) error {
	res, err := s.execWithRetry(ctx,
		`UPDATE items SET failed_stage = ?, error_message = ?, updated_at = ? WHERE slug = ?`,
		stage, nullableString(message), formatTime(time.Now()), slug,
	)
	if err != nil {
		return fmt.Errorf("record failure for %s: %w", slug, err)
	}
	return requireRow(res, slug)
}

// ClearFailure removes the failure state from slug when it was recorded by
// stage. An empty stage clears any failure.
func (s *Store) ClearFailure(ctx context.Context, slug, stage string) error {
	query := `UPDATE items SET failed_stage = NULL, error_message = NULL, updated_at = ? WHERE slug = ? AND failed_stage IS NOT NULL`
	args := []any{formatTime(time.Now()), slug}
	if stage != "" {
		query += ` AND failed_stage = ?`
		args = append(args, stage)
	}
	if _, err := s.execWithRetry(ctx, query, args...); err != nil {
		return fmt.Errorf("clear failure for %s: %w", slug, err)
	}
	return nil
}

// Get returns the item for slug, or nil when absent.
func (s *Store) Get(ctx context.Context, slug string) (*Item, error) {
	row := s.db.QueryRowContext(ensureContext(ctx), `SELECT `+itemColumns+` FROM items WHERE slug = ?`, slug)
	item, err := scanItem(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get item: %w", err)
	}
	return item, nil
}

// List returns items ordered by creation. An empty mode lists every item.
func (s *Store) List(ctx context.Context, mode content.Mode) ([]*Item, error) {
	query := `SELECT ` + itemColumns + ` FROM items`
	var args []any
	if mode != "" {
		query += ` WHERE mode = ?`
		args = append(args, string(mode))
	}
	query += ` ORDER BY created_at, slug`

	rows, err := s.db.QueryContext(ensureContext(ctx), query, args...)
	if err != nil {
		return nil, fmt.Errorf("list items: %w", err)
	}
	defer rows.Close()

	var items []*Item
	for rows.Next() {
		item, err := scanItem(rows)
		if err != nil {
			return nil, fmt.Errorf("scan item: %w", err)
		}
		items = append(items, item)
	}
	return items, rows.Err()
}

// Remove deletes the item for slug.
func (s *Store) Remove(ctx context.Context, slug string) (bool, error) {
	res, err := s.execWithRetry(ctx, `DELETE FROM items WHERE slug = ?`, slug)
	if err != nil {
		return false, fmt.Errorf("remove %s: %w", slug, err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return affected > 0, nil
}

// Clear removes every item and stage run.
func (s *Store) Clear(ctx context.Context) (int64, error) {
	res, err := s.execWithRetry(ctx, `DELETE FROM items`)
	if err != nil {
		return 0, fmt.Errorf("clear items: %w", err)
	}
	removed, err := res.RowsAffected()
	if err != nil {
		return 0, err
	}
	if _, err := s.execWithRetry(ctx, `DELETE FROM stage_runs`); err != nil {
		return removed, fmt.Errorf("clear stage runs: %w", err)
	}
	return removed, nil
}

// ErrUnknownSlug is returned when an update targets a slug that was never upserted.
var ErrUnknownSlug = errors.New("unknown slug")

func requireRow(res sql.Result, slug string) error {
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return fmt.Errorf("%w: %s", ErrUnknownSlug, slug)
	}
	return nil
}
