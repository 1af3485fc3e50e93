package migrate

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
	homedir "github.com/mitchellh/go-homedir"
)

// PathFromString applies shell-style "~" expansion to path. If path
// contains "~", only the substring starting at the last "~" is kept; if
// that substring begins with "~", it is substituted with the current
// user's home directory.
func PathFromString(path string) (string, error) {
	if at := strings.LastIndex(path, "~"); at >= 0 {
		path = path[at:]
	}
	if strings.HasPrefix(path, "~") {
		expanded, err := homedir.Expand(path)
		if err != nil {
			return "", newError(KindIO, path, err)
		}
		return expanded, nil
	}
	return path, nil
}

// Normalise applies PathFromString and then resolves the result to a clean
// absolute path.
func Normalise(path string) (string, error) {
	expanded, err := PathFromString(path)
	if err != nil {
		return "", err
	}
	abs, err := filepath.Abs(expanded)
	if err != nil {
		return "", newError(KindIO, path, err)
	}
	return filepath.Clean(abs), nil
}

// RelpathToBase computes the path from base to target by finding the
// longest shared prefix of path components, emitting one ".." hop per base
// component beyond the prefix, then the remaining target components. If
// base and target share no component, target is returned unchanged.
func RelpathToBase(base, target string) string {
	baseParts := splitPath(base)
	targetParts := splitPath(target)

	matching := 0
	for matching < len(baseParts) && matching < len(targetParts) && baseParts[matching] == targetParts[matching] {
		matching++
	}
	if matching == 0 {
		return target
	}

	var parts []string
	for i := matching; i < len(baseParts); i++ {
		parts = append(parts, "..")
	}
	parts = append(parts, targetParts[matching:]...)
	if len(parts) == 0 {
		return "."
	}
	return filepath.Join(parts...)
}

func splitPath(p string) []string {
	p = filepath.Clean(p)
	var parts []string
	for {
		dir, file := filepath.Split(p)
		dir = strings.TrimSuffix(dir, string(filepath.Separator))
		if file != "" {
			parts = append([]string{file}, parts...)
		}
		if dir == "" || dir == p {
			if dir != "" {
				parts = append([]string{dir}, parts...)
			}
			break
		}
		p = dir
	}
	return parts
}

// ToUUID computes the deterministic UUIDv5 identity of an absolute path,
// under the standard OID namespace. The path is rendered with Go's "%q"
// (the closest stable analogue of Rust's Debug formatting of a Path) so
// that two patches whose absolute paths print identically share an id.
func ToUUID(absPath string) uuid.UUID {
	return uuid.NewSHA1(uuid.NameSpaceOID, []byte(fmt.Sprintf("%q", absPath)))
}
