package migrate

import (
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// Meta is the persisted per-migration descriptor: identity, source/target
// structure and seal reference (spec.md §3, "Migration Meta").
type Meta struct {
	FormatVersion FormatVersion
	// Path is the absolute path of the meta.yml file itself.
	Path     string
	Identity Identity
	Source   Source
	// Target is the absolute path of the merged SQL output file.
	Target   string
	SealMeta SealMeta
}

// Base returns the directory the meta file lives in.
func (m Meta) Base() string { return filepath.Dir(m.Path) }

// SourceBase returns the root directory patches are discovered under.
func (m Meta) SourceBase() string { return m.Source.Base() }

type metaDoc struct {
	Identity struct {
		UID  string `yaml:"uid"`
		Name string `yaml:"name"`
	} `yaml:"identity"`
	Structure struct {
		Source string `yaml:"source"`
		Target string `yaml:"target"`
	} `yaml:"structure"`
	Seal struct {
		File string `yaml:"file"`
		Algo string `yaml:"algo"`
	} `yaml:"seal"`
}

type versionDoc struct {
	Version FormatVersion `yaml:"version"`
}

// CreateMeta materializes a brand-new Meta, writing meta.yml to path
// immediately (mirrors `Meta::create` in the original implementation,
// which saves as part of construction).
func CreateMeta(path string, id Identity, sealMeta SealMeta, source Source, target string) (Meta, error) {
	m := Meta{
		FormatVersion: CurrentFormatVersion,
		Path:          path,
		Identity:      id,
		Source:        source,
		Target:        target,
		SealMeta:      sealMeta,
	}
	if err := m.Save(); err != nil {
		return Meta{}, err
	}
	return m, nil
}

// Save (re)writes the meta.yml file at m.Path.
func (m Meta) Save() error {
	root := m.Base()

	var doc metaDoc
	doc.Identity.UID = m.Identity.UID
	doc.Identity.Name = m.Identity.Name
	doc.Structure.Source = RelpathToBase(root, m.Source.Path)
	doc.Structure.Target = RelpathToBase(root, m.Target)
	doc.Seal.File = RelpathToBase(root, m.SealMeta.File)
	doc.Seal.Algo = m.SealMeta.Algo.String()

	content, err := marshalTwoDocs(versionDoc{Version: m.FormatVersion}, doc)
	if err != nil {
		return newError(KindIO, m.Path, err)
	}
	if err := os.WriteFile(m.Path, content, 0644); err != nil {
		return newError(KindIO, m.Path, err)
	}
	return nil
}

// OpenMeta reads and validates the meta.yml file at path.
func OpenMeta(path string) (Meta, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return Meta{}, newError(KindIO, path, err)
	}

	var vd versionDoc
	if err := yaml.Unmarshal(raw, &vd); err != nil {
		return Meta{}, newError(KindMissingField, path, err)
	}
	if vd.Version != CurrentFormatVersion {
		return Meta{}, newError(KindUnsupportedVersion, path, nil)
	}

	docs, err := splitYAMLDocs(raw)
	if err != nil || len(docs) < 2 {
		return Meta{}, newError(KindMissingField, path, err)
	}
	var doc metaDoc
	if err := yaml.Unmarshal(docs[1], &doc); err != nil {
		return Meta{}, newError(KindMissingField, path, err)
	}

	if doc.Identity.UID == "" || doc.Identity.Name == "" {
		return Meta{}, newError(KindMissingField, path+": identity", nil)
	}
	if doc.Structure.Source == "" {
		return Meta{}, newError(KindMissingField, path+": structure.source", nil)
	}
	if doc.Structure.Target == "" {
		return Meta{}, newError(KindMissingField, path+": structure.target", nil)
	}
	if doc.Seal.File == "" {
		return Meta{}, newError(KindMissingField, path+": seal.file", nil)
	}
	if doc.Seal.Algo == "" {
		return Meta{}, newError(KindMissingField, path+": seal.algo", nil)
	}

	algo, ok := ParseAlgo(doc.Seal.Algo)
	if !ok {
		return Meta{}, newError(KindUnknownAlgorithm, doc.Seal.Algo, nil)
	}

	root := filepath.Dir(path)
	sourceAbs := filepath.Clean(filepath.Join(root, doc.Structure.Source))
	source, err := NewSource(sourceAbs)
	if err != nil {
		return Meta{}, err
	}
	targetAbs := filepath.Clean(filepath.Join(root, doc.Structure.Target))
	sealFileAbs := filepath.Clean(filepath.Join(root, doc.Seal.File))

	return Meta{
		FormatVersion: vd.Version,
		Path:          path,
		Identity:      Identity{UID: doc.Identity.UID, Name: doc.Identity.Name},
		Source:        source,
		Target:        targetAbs,
		SealMeta:      SealMeta{File: sealFileAbs, Algo: algo},
	}, nil
}
