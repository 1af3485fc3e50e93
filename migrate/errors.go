// Package migrate implements the Sewer: discovery, dependency resolution,
// deterministic ordering and emission of a migration's patches, plus the
// on-disk data model (identity, meta, seal, snapshot) that backs it.
package migrate

import "fmt"

// Kind enumerates the taxonomy of errors the package can return. A test
// harness (or a CLI) can recover the Kind with errors.As against *Error.
type Kind int

const (
	// KindUnsupportedVersion is returned when a YAML document's version
	// field does not match a version this package understands.
	KindUnsupportedVersion Kind = iota
	// KindMissingField is returned when a required YAML key is absent.
	KindMissingField
	// KindInvalidIdentity is returned when Identity parsing fails.
	KindInvalidIdentity
	// KindUnknownAlgorithm is returned when a seal names an unrecognised hash algorithm.
	KindUnknownAlgorithm
	// KindMissingSealField is returned when a seal file is missing a required field.
	KindMissingSealField
	// KindMissingRequirement is returned when a declared requirement does not resolve to a file.
	KindMissingRequirement
	// KindUnknownRequirement is returned when a resolved requirement is not part of the map.
	KindUnknownRequirement
	// KindCycleDetected is returned when the Sewer's topological walk finds a cycle.
	KindCycleDetected
	// KindInvalidWeight is returned when a weight is zero or a weight override cannot be parsed.
	KindInvalidWeight
	// KindAlreadyBuilt is returned when build is attempted without force and the target exists.
	KindAlreadyBuilt
	// KindAlreadySealed is returned when seal is attempted and the seal file already exists.
	KindAlreadySealed
	// KindIO is returned for filesystem failures not already classified above.
	KindIO
	// KindConfigNotFound is returned when no config path is given or discoverable.
	KindConfigNotFound
	// KindUnknownDriver is returned when a configured or requested driver name is not registered.
	KindUnknownDriver
	// KindNotInitialized is returned when a non-zero migration is deployed to an uninitialized database.
	KindNotInitialized
	// KindDbms is returned for driver/database failures.
	KindDbms
)

func (k Kind) String() string {
	switch k {
	case KindUnsupportedVersion:
		return "UnsupportedVersion"
	case KindMissingField:
		return "MissingField"
	case KindInvalidIdentity:
		return "InvalidIdentity"
	case KindUnknownAlgorithm:
		return "UnknownAlgorithm"
	case KindMissingSealField:
		return "MissingSealField"
	case KindMissingRequirement:
		return "MissingRequirement"
	case KindUnknownRequirement:
		return "UnknownRequirement"
	case KindCycleDetected:
		return "CycleDetected"
	case KindInvalidWeight:
		return "InvalidWeight"
	case KindAlreadyBuilt:
		return "AlreadyBuilt"
	case KindAlreadySealed:
		return "AlreadySealed"
	case KindIO:
		return "Io"
	case KindConfigNotFound:
		return "ConfigNotFound"
	case KindUnknownDriver:
		return "UnknownDriver"
	case KindNotInitialized:
		return "NotInitialized"
	case KindDbms:
		return "Dbms"
	default:
		return "Unknown"
	}
}

// Error is the single error type used throughout the package. Where is a
// one-line human description of what was being parsed/processed (a field
// path, a file, an owning patch); Err, if set, wraps the underlying cause.
type Error struct {
	Kind  Kind
	Where string
	Err   error
}

func (e *Error) Error() string {
	if e.Err != nil {
		if e.Where != "" {
			return fmt.Sprintf("%s: %s: %v", e.Kind, e.Where, e.Err)
		}
		return fmt.Sprintf("%s: %v", e.Kind, e.Err)
	}
	if e.Where != "" {
		return fmt.Sprintf("%s: %s", e.Kind, e.Where)
	}
	return e.Kind.String()
}

func (e *Error) Unwrap() error { return e.Err }

func newError(kind Kind, where string, err error) *Error {
	return &Error{Kind: kind, Where: where, Err: err}
}
