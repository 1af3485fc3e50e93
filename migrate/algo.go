package migrate

import (
	"golang.org/x/crypto/blake2b"
	"golang.org/x/crypto/sha3"
)

// Algo names a content-hash algorithm usable for sealing a built migration.
type Algo int

const (
	// AlgoBlake2b is the default sealing algorithm.
	AlgoBlake2b Algo = iota
	AlgoSHA3_512
	AlgoSHA3_224
)

// DefaultAlgo is used when a seal does not otherwise specify one.
const DefaultAlgo = AlgoBlake2b

// String renders the algorithm using its on-disk tag.
func (a Algo) String() string {
	switch a {
	case AlgoBlake2b:
		return "blake2b"
	case AlgoSHA3_512:
		return "sha3-512"
	case AlgoSHA3_224:
		return "sha3-224"
	default:
		return "unknown"
	}
}

// ParseAlgo resolves the on-disk tag produced by Algo.String back into an Algo.
func ParseAlgo(s string) (Algo, bool) {
	switch s {
	case "blake2b":
		return AlgoBlake2b, true
	case "sha3-512":
		return AlgoSHA3_512, true
	case "sha3-224":
		return AlgoSHA3_224, true
	default:
		return 0, false
	}
}

// Hash returns the algorithm's native-length digest of value.
func (a Algo) Hash(value []byte) []byte {
	switch a {
	case AlgoBlake2b:
		sum := blake2b.Sum512(value)
		return sum[:]
	case AlgoSHA3_512:
		sum := sha3.Sum512(value)
		return sum[:]
	case AlgoSHA3_224:
		sum := sha3.Sum224(value)
		return sum[:]
	default:
		panic("migrate: Hash called on unknown Algo")
	}
}
