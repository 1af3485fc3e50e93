package migrate

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	"gopkg.in/yaml.v3"
)

// sortEntriesByWeight orders entries ascending by their resolved weight,
// the ordering SewUp's topological walk then respects wherever
// requirements leave a choice.
func sortEntriesByWeight(entries []MapEntry) {
	sort.SliceStable(entries, func(i, j int) bool {
		return entries[i].Meta.Weight.Cmp(entries[j].Meta.Weight) < 0
	})
}

// Sewer organizes a migration's discovered patches into an ordered,
// merged SQL file (spec.md §4.6, "Sewer").
type Sewer struct {
	meta Meta
	m    Map
}

// NewSewer discovers the patches under meta's source, injects each one's
// implicit parent-package dependency, resolves every requirement and
// returns a ready-to-sew Sewer.
func NewSewer(meta Meta) (*Sewer, error) {
	raw, err := NewRawMap(meta)
	if err != nil {
		return nil, err
	}

	injectParentRequirements(meta.SourceBase(), raw)

	m, err := MapFromRaw(meta, raw)
	if err != nil {
		return nil, err
	}

	return &Sewer{meta: meta, m: m}, nil
}

// injectParentRequirements adds an implicit source-base-relative
// requirement on "<parent-dir>.sql" to every patch whose containing
// directory has a sibling SQL file named after it - the "parent package".
func injectParentRequirements(sourceBase string, raw RawMap) {
	for _, entry := range raw.Patches {
		pdir := filepath.Dir(entry.Patch.Source)
		parentFile := pdir + ".sql"
		if _, err := os.Stat(parentFile); err != nil {
			continue
		}
		entry.Meta.AddRequirement("/" + RelpathToBase(sourceBase, parentFile))
		raw.Patches[entry.Patch.ID] = entry
	}
}

// SewUp returns the patch ids in a weight-ordered, dependency-respecting
// topological order: a patch never appears before any of its requirements.
func (s *Sewer) SewUp() ([]uuid.UUID, error) {
	entries := make([]MapEntry, 0, len(s.m.Patches))
	for _, e := range s.m.Patches {
		entries = append(entries, e)
	}
	sortEntriesByWeight(entries)

	awaiting := make(map[uuid.UUID]bool, len(entries))
	handled := make(map[uuid.UUID]bool, len(entries))
	order := make([]uuid.UUID, 0, len(entries))

	for _, e := range entries {
		if err := s.patchUp(awaiting, handled, &order, e.Patch.ID); err != nil {
			return nil, err
		}
	}

	return order, nil
}

func (s *Sewer) patchUp(awaiting, handled map[uuid.UUID]bool, order *[]uuid.UUID, key uuid.UUID) error {
	if handled[key] {
		return nil
	}
	if awaiting[key] {
		return s.cycleError(awaiting)
	}

	awaiting[key] = true
	for _, req := range s.m.Patches[key].Meta.Requirements {
		if err := s.patchUp(awaiting, handled, order, req); err != nil {
			return err
		}
	}
	delete(awaiting, key)

	*order = append(*order, key)
	handled[key] = true
	return nil
}

func (s *Sewer) cycleError(awaiting map[uuid.UUID]bool) error {
	var b strings.Builder
	b.WriteString("looped recursion detected:\n")
	for id := range awaiting {
		fmt.Fprintf(&b, " - %s\n", s.m.Patches[id].Patch.Source)
	}
	return newError(KindCycleDetected, b.String(), nil)
}

type sewageManifestDoc struct {
	Timestamp time.Time `yaml:"timestamp"`
	Manifest  []string  `yaml:"manifest"`
}

// Sewage renders order (the result of SewUp) as the final merged SQL
// file: a YAML manifest header (wrapped in "-- " SQL-comment lines)
// followed by every patch's trimmed content wrapped in BEGIN/END markers.
func (s *Sewer) Sewage(order []uuid.UUID) (string, error) {
	return s.SewageAt(order, time.Now())
}

// SewageAt is like Sewage but with an injectable clock for deterministic tests.
func (s *Sewer) SewageAt(order []uuid.UUID, now time.Time) (string, error) {
	base := s.meta.Base()

	manifest := make([]string, 0, len(order))
	for _, id := range order {
		manifest = append(manifest, RelpathToBase(base, s.m.Patches[id].Patch.Source))
	}

	versionYAML, err := yaml.Marshal(versionDoc{Version: CurrentFormatVersion})
	if err != nil {
		return "", newError(KindIO, s.meta.Path, err)
	}
	manifestYAML, err := yaml.Marshal(sewageManifestDoc{Timestamp: now.UTC(), Manifest: manifest})
	if err != nil {
		return "", newError(KindIO, s.meta.Path, err)
	}

	// Bordered two-block header: a version block, a "# border" separator,
	// a manifest block, and a closing border, each line SQL-commented.
	var header strings.Builder
	header.WriteString("-- ---\n")
	header.WriteString("-- ")
	header.WriteString(commentWrap(strings.TrimSpace(string(versionYAML))))
	header.WriteString("\n-- --- # border\n")
	header.WriteString("-- ")
	header.WriteString(commentWrap(strings.TrimSpace(string(manifestYAML))))
	header.WriteString("\n-- ---\n")

	var body strings.Builder
	for _, id := range order {
		entry := s.m.Patches[id]
		content, err := os.ReadFile(entry.Patch.Source)
		if err != nil {
			return "", newError(KindIO, entry.Patch.Source, err)
		}
		rel := RelpathToBase(base, entry.Patch.Source)
		fmt.Fprintf(&body, "-- BEGIN: %s\n\n", rel)
		body.WriteString(strings.TrimSpace(string(content)))
		fmt.Fprintf(&body, "\n\n-- END: %s\n\n", rel)
	}

	return header.String() + "\n" + strings.TrimSpace(body.String()), nil
}

// commentWrap inserts "-- " after every newline in s, so every line but the
// first gets the prefix; callers write the first line's "-- " themselves.
func commentWrap(s string) string {
	return strings.ReplaceAll(s, "\n", "\n-- ")
}
