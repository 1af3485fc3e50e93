package migrate

import "github.com/google/uuid"

// Map holds every discovered patch together with its fully resolved
// PatchMeta, ready for topological ordering.
type Map struct {
	Patches map[uuid.UUID]MapEntry
}

// MapEntry pairs a Patch with its resolved PatchMeta.
type MapEntry struct {
	Patch Patch
	Meta  PatchMeta
}

// MapFromRaw resolves every entry of raw against meta's source base.
func MapFromRaw(meta Meta, raw RawMap) (Map, error) {
	sourceBase := meta.SourceBase()

	m := Map{Patches: make(map[uuid.UUID]MapEntry, len(raw.Patches))}
	for id, entry := range raw.Patches {
		resolved, err := PatchMetaFromRaw(sourceBase, raw, entry.Patch, entry.Meta)
		if err != nil {
			return Map{}, err
		}
		m.Patches[id] = MapEntry{Patch: entry.Patch, Meta: resolved}
	}
	return m, nil
}
