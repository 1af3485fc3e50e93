package migrate

import "github.com/google/uuid"

// Patch is a single discovered SQL file within a migration's source tree,
// identified deterministically by the UUIDv5 of its absolute path.
type Patch struct {
	ID     uuid.UUID
	Source string
}

// NewPatch builds a Patch for a discovered file at absSourcePath.
func NewPatch(absSourcePath string) Patch {
	return Patch{ID: ToUUID(absSourcePath), Source: absSourcePath}
}
