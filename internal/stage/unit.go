package stage

import (
	"github.com/hoangt2/kielo-convo-generator/internal/content"
	"github.com/hoangt2/kielo-convo-generator/internal/manifest"
)

// Unit is one slug's worth of work inside a stage.
type Unit struct {
	Slug   string
	Title  string
	Mode   content.Mode
	Source string

	// Idea is set by stages whose units come from the ideas file.
	Idea *content.Idea

	Artifacts  map[manifest.ArtifactKind]string
	skipReason string
}

// NewUnit returns a unit for slug.
func NewUnit(mode content.Mode, slug, source string) *Unit {
	return &Unit{Slug: slug, Mode: mode, Source: source}
}

// SetArtifact records a produced artifact.
func (u *Unit) SetArtifact(kind manifest.ArtifactKind, path string) {
	if u.Artifacts == nil {
		u.Artifacts = make(map[manifest.ArtifactKind]string)
	}
	u.Artifacts[kind] = path
}

// Skip marks the unit as intentionally not processed.
func (u *Unit) Skip(reason string) {
	if reason == "" {
		reason = "skipped"
	}
	u.skipReason = reason
}

// Skipped reports whether Skip was called and returns its reason.
func (u *Unit) Skipped() (string, bool) {
	return u.skipReason, u.skipReason != ""
}
