package stage

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/hoangt2/kielo-convo-generator/internal/content"
	"github.com/hoangt2/kielo-convo-generator/internal/fileutil"
	"github.com/hoangt2/kielo-convo-generator/internal/manifest"
	"github.com/hoangt2/kielo-convo-generator/internal/services"
)

// ScriptUnits lists one unit per scripts/<slug>.json in dir, ordered by
// slug. A missing directory yields no units. Temp files are ignored.
func ScriptUnits(mode content.Mode, dir string) ([]*Unit, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, nil
		}
		return nil, services.Wrap(services.ErrConfiguration, "", "list scripts", fmt.Sprintf("cannot read scripts directory %s", dir), err)
	}
	names := make([]string, 0, len(entries))
	for _, entry := range entries {
		name := entry.Name()
		if entry.IsDir() || filepath.Ext(name) != ".json" || strings.Contains(name, fileutil.TempSuffix) {
			continue
		}
		names = append(names, name)
	}
	sort.Strings(names)

	units := make([]*Unit, 0, len(names))
	for _, name := range names {
		slug := strings.TrimSuffix(name, ".json")
		units = append(units, NewUnit(mode, slug, filepath.Join(dir, name)))
	}
	return units, nil
}

// LoadScript reads the unit's script and fills Title.
func LoadScript(u *Unit) (content.Script, error) {
	script, err := content.LoadScript(u.Source)
	if err != nil {
		return content.Script{}, err
	}
	if u.Title == "" {
		u.Title = script.Idea.Title
	}
	return script, nil
}

// OutputPath returns dir/<slug><ext>.
func OutputPath(dir, slug, ext string) string {
	return filepath.Join(dir, slug+ext)
}

// SkipExisting marks u skipped and returns true when output already exists
// and overwrite is off. The existing path is recorded as the artifact.
func SkipExisting(u *Unit, kind manifest.ArtifactKind, output string, overwrite bool) bool {
	if overwrite || !fileutil.NonEmpty(output) {
		return false
	}
	u.SetArtifact(kind, output)
	u.Skip(fmt.Sprintf("%s already exists", filepath.Base(output)))
	return true
}
