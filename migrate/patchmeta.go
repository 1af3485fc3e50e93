package migrate

import (
	"math/big"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
)

// PatchMeta is a patch's fully resolved metadata: every requirement string
// turned into the id of another patch in the same map (spec.md §4.6,
// "Requirement resolution").
type PatchMeta struct {
	Path         string
	Requirements []uuid.UUID
	Weight       *big.Rat
}

// PatchMetaFromRaw resolves raw's requirement strings against raw against
// the full raw map, relative to sourceBase and the patch's own directory.
//
// A requirement beginning with "/" is resolved relative to sourceBase;
// otherwise it is resolved relative to the requiring patch's own directory.
func PatchMetaFromRaw(sourceBase string, rawMap RawMap, patch Patch, raw RawMeta) (PatchMeta, error) {
	patchDir := filepath.Dir(patch.Source)

	requirements := make([]uuid.UUID, 0, len(raw.Requirements))
	for _, req := range raw.Requirements {
		var reqPath string
		if strings.HasPrefix(req, "/") {
			reqPath = filepath.Join(sourceBase, req[1:])
		} else {
			reqPath = filepath.Join(patchDir, req)
		}
		reqPath = filepath.Clean(reqPath)

		if _, err := os.Stat(reqPath); err != nil {
			return PatchMeta{}, newError(KindMissingRequirement, raw.Path+" requires "+req, err)
		}

		id := ToUUID(reqPath)
		if _, ok := rawMap.Patches[id]; !ok {
			return PatchMeta{}, newError(KindUnknownRequirement, raw.Path+" requires "+req, nil)
		}
		requirements = append(requirements, id)
	}

	return PatchMeta{Path: raw.Path, Requirements: requirements, Weight: raw.Weight}, nil
}
