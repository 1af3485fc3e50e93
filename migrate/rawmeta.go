package migrate

import (
	"math/big"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// RawMeta holds a patch's parsed-but-unresolved header: its alphabetic
// weight seed plus the raw "require" strings exactly as written (spec.md
// §4.5, "Patch header").
type RawMeta struct {
	// Path is the patch's path relative to the migration meta's folder, with a
	// trailing ".sql" stripped.
	Path         string
	Requirements []string
	Weight       *big.Rat
}

// AddRequirement appends a requirement string, used to inject a parent
// package's implicit dependency (spec.md §4.6, "Parent package injection").
func (m *RawMeta) AddRequirement(req string) {
	m.Requirements = append(m.Requirements, req)
}

type patchHeaderDoc struct {
	Require yaml.Node `yaml:"require"`
	Weight  string    `yaml:"weight"`
}

// RawMetaFromFile reads file's SQL-comment YAML header (if any) and
// computes its RawMeta relative to base.
func RawMetaFromFile(base, file string) (RawMeta, error) {
	raw, err := os.ReadFile(file)
	if err != nil {
		return RawMeta{}, newError(KindIO, file, err)
	}

	relPath := RelpathToBase(base, file)
	relPath = strings.TrimSuffix(relPath, ".sql")

	baseWeight, err := Weight(relPath)
	if err != nil {
		return RawMeta{}, err
	}

	header := trimCommentPrefix(string(raw))
	if header == "" {
		return RawMeta{Path: relPath, Weight: baseWeight}, nil
	}

	var vd versionDoc
	if err := yaml.Unmarshal([]byte(header), &vd); err != nil {
		return RawMeta{}, newError(KindMissingField, file, err)
	}
	if vd.Version == (FormatVersion{}) {
		vd.Version = CurrentFormatVersion
	}
	if vd.Version != CurrentFormatVersion {
		return RawMeta{}, newError(KindUnsupportedVersion, file, nil)
	}

	docs, err := splitYAMLDocs([]byte(header))
	if err != nil {
		return RawMeta{}, newError(KindMissingField, file, err)
	}

	// The version document is optional (spec.md §4.5), so the content
	// document carrying "require"/"weight" isn't reliably at a fixed
	// index: a version-less header's content lands in docs[0], and a
	// trailing empty document can follow it. Scan every document and
	// take whichever field each one actually carries, mirroring the
	// original's index-independent scan (raw_meta.rs, parse_meta_v_0_1).
	var doc patchHeaderDoc
	for _, d := range docs {
		var cur patchHeaderDoc
		if err := yaml.Unmarshal(d, &cur); err != nil {
			return RawMeta{}, newError(KindMissingField, file, err)
		}
		if cur.Require.Kind != 0 {
			doc.Require = cur.Require
		}
		if cur.Weight != "" {
			doc.Weight = cur.Weight
		}
	}

	requirements, err := decodeRequirements(doc.Require)
	if err != nil {
		return RawMeta{}, newError(KindMissingField, file+": require", err)
	}

	weight := new(big.Rat).Set(baseWeight)
	if doc.Weight != "" {
		add, ok := new(big.Rat).SetString(doc.Weight)
		if !ok {
			return RawMeta{}, newError(KindInvalidWeight, doc.Weight, nil)
		}
		weight.Add(weight, add)
	}

	return RawMeta{Path: relPath, Requirements: requirements, Weight: weight}, nil
}

// decodeRequirements accepts either a bare "require: foo" scalar or a
// "require: [foo, bar]" sequence, matching the Rust original's dual
// scalar-or-list parse of the same YAML key.
func decodeRequirements(node yaml.Node) ([]string, error) {
	switch node.Kind {
	case 0:
		return nil, nil
	case yaml.ScalarNode:
		var s string
		if err := node.Decode(&s); err != nil {
			return nil, err
		}
		if s == "" {
			return nil, nil
		}
		return []string{s}, nil
	case yaml.SequenceNode:
		var list []string
		if err := node.Decode(&list); err != nil {
			return nil, err
		}
		return list, nil
	default:
		return nil, nil
	}
}
