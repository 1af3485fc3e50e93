package migrate

import "os"

// Build runs the Sewer against meta and writes the merged migration to
// meta.Target. Unless force is set, it fails with KindAlreadyBuilt when the
// target file already exists (spec.md §7, "AlreadyBuilt").
func Build(meta Meta, force bool) error {
	if !force {
		if _, err := os.Stat(meta.Target); err == nil {
			return newError(KindAlreadyBuilt, meta.Target, nil)
		}
	}

	sewer, err := NewSewer(meta)
	if err != nil {
		return err
	}
	order, err := sewer.SewUp()
	if err != nil {
		return err
	}
	content, err := sewer.Sewage(order)
	if err != nil {
		return err
	}

	return atomicWriteFile(meta.Target, []byte(content))
}

// Seal builds (unless skipRebuild is set and the target already exists)
// then writes the seal file over the target's content. It fails with
// KindAlreadySealed if the seal file already exists.
func Seal(meta Meta, skipRebuild bool) error {
	if _, err := os.Stat(meta.SealMeta.File); err == nil {
		return newError(KindAlreadySealed, meta.SealMeta.File, nil)
	}

	if !(skipRebuild && targetExists(meta.Target)) {
		if err := Build(meta, true); err != nil {
			return err
		}
	}

	content, err := os.ReadFile(meta.Target)
	if err != nil {
		return newError(KindIO, meta.Target, err)
	}
	return meta.SealMeta.Make(content)
}

func targetExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}
