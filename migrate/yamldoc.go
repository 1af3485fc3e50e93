package migrate

import (
	"bytes"
	"errors"
	"io"
	"strings"

	"gopkg.in/yaml.v3"
)

// marshalTwoDocs renders a and b as two "---"-separated YAML documents, the
// on-disk shape every persisted artifact in this package uses (a version
// document followed by a content document).
func marshalTwoDocs(a, b interface{}) ([]byte, error) {
	var buf bytes.Buffer
	enc := yaml.NewEncoder(&buf)
	defer enc.Close()
	if err := enc.Encode(a); err != nil {
		return nil, err
	}
	if err := enc.Encode(b); err != nil {
		return nil, err
	}
	if err := enc.Close(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// splitYAMLDocs splits raw multi-document YAML content on "---" document
// markers, returning the raw bytes of each document for independent
// unmarshalling. Callers should not assume a fixed document carries a
// given field: the version document is optional (spec.md §4.5), so a
// version-less header's content can land at index 0 instead of 1 - scan
// every returned document rather than indexing into a specific one.
func splitYAMLDocs(raw []byte) ([][]byte, error) {
	dec := yaml.NewDecoder(bytes.NewReader(raw))
	var docs [][]byte
	for {
		var node yaml.Node
		if err := dec.Decode(&node); err != nil {
			if errors.Is(err, io.EOF) {
				break
			}
			return nil, err
		}
		out, err := yaml.Marshal(&node)
		if err != nil {
			return nil, err
		}
		docs = append(docs, out)
	}
	return docs, nil
}

// trimCommentPrefix strips a leading "-- " from every line of a SQL-commented
// YAML header block (see patch header parsing in rawmeta.go), stopping at
// the first non-comment, non-blank line.
func trimCommentPrefix(content string) string {
	if !strings.HasPrefix(content, "-- ---") {
		return ""
	}
	var b strings.Builder
	for _, line := range strings.Split(content, "\n") {
		if strings.HasPrefix(line, "-- ") {
			b.WriteString(line[3:])
			b.WriteByte('\n')
		} else if len(line) > 0 {
			break
		}
	}
	return b.String()
}
