package migrate

import (
	"encoding/base64"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"
)

// SealMeta is the (file, algo) pair a Meta carries a reference to (spec.md
// §3, "Seal Meta").
type SealMeta struct {
	// File is the absolute path of the seal.yml file.
	File string
	Algo Algo
}

// Seal is the persisted, timestamped digest read back from a seal file.
type Seal struct {
	Timestamp time.Time
	Algo      Algo
	Digest    []byte
}

type sealDoc struct {
	Timestamp time.Time `yaml:"timestamp"`
	Seal      struct {
		Algo string `yaml:"algo"`
		Sign string `yaml:"sign"`
	} `yaml:"seal"`
}

// Make computes the digest of content under sm.Algo and atomically writes
// the seal file. The timestamp defaults to time.Now in UTC; pass a fixed
// clock via MakeAt for deterministic tests.
func (sm SealMeta) Make(content []byte) error {
	return sm.MakeAt(content, time.Now())
}

// MakeAt is like Make but with an injectable clock, per spec.md §9
// ("Determinism vs. timestamps").
func (sm SealMeta) MakeAt(content []byte, now time.Time) error {
	digest := sm.Algo.Hash(content)

	var doc sealDoc
	doc.Timestamp = now.UTC()
	doc.Seal.Algo = sm.Algo.String()
	doc.Seal.Sign = base64.StdEncoding.EncodeToString(digest)

	out, err := marshalTwoDocs(versionDoc{Version: CurrentFormatVersion}, doc)
	if err != nil {
		return newError(KindIO, sm.File, err)
	}
	return atomicWriteFile(sm.File, out)
}

// ReadTheSeal reads and validates the seal file, returning its digest and algorithm.
func (sm SealMeta) ReadTheSeal() (Seal, error) {
	raw, err := os.ReadFile(sm.File)
	if err != nil {
		return Seal{}, newError(KindIO, sm.File, err)
	}

	var vd versionDoc
	if err := yaml.Unmarshal(raw, &vd); err != nil {
		return Seal{}, newError(KindMissingField, sm.File, err)
	}
	if vd.Version != CurrentFormatVersion {
		return Seal{}, newError(KindUnsupportedVersion, sm.File, nil)
	}

	docs, err := splitYAMLDocs(raw)
	if err != nil || len(docs) < 2 {
		return Seal{}, newError(KindMissingSealField, sm.File, err)
	}
	var doc sealDoc
	if err := yaml.Unmarshal(docs[1], &doc); err != nil {
		return Seal{}, newError(KindMissingSealField, sm.File, err)
	}

	if doc.Timestamp.IsZero() {
		return Seal{}, newError(KindMissingSealField, sm.File+": timestamp", nil)
	}
	if doc.Seal.Algo == "" {
		return Seal{}, newError(KindMissingSealField, sm.File+": seal.algo", nil)
	}
	if doc.Seal.Sign == "" {
		return Seal{}, newError(KindMissingSealField, sm.File+": seal.sign", nil)
	}

	algo, ok := ParseAlgo(doc.Seal.Algo)
	if !ok {
		return Seal{}, newError(KindUnknownAlgorithm, doc.Seal.Algo, nil)
	}
	if algo != sm.Algo {
		return Seal{}, newError(KindUnknownAlgorithm, fmt.Sprintf("seal algo %q does not match meta algo %q", algo, sm.Algo), nil)
	}

	digest, err := base64.StdEncoding.DecodeString(doc.Seal.Sign)
	if err != nil {
		return Seal{}, newError(KindMissingSealField, sm.File+": seal.sign", err)
	}

	return Seal{Timestamp: doc.Timestamp, Algo: algo, Digest: digest}, nil
}

// atomicWriteFile writes data to a temp file in the same directory as
// path, then renames it into place - the same idempotent-write discipline
// spec.md §5 requires for build/seal to be safely re-runnable.
func atomicWriteFile(path string, data []byte) error {
	dir := filepath.Dir(path)
	tmp, err := os.CreateTemp(dir, ".tmp-seal-*")
	if err != nil {
		return newError(KindIO, path, err)
	}
	tmpName := tmp.Name()
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return newError(KindIO, path, err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return newError(KindIO, path, err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		os.Remove(tmpName)
		return newError(KindIO, path, err)
	}
	return nil
}
