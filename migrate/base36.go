package migrate

import "math/big"

const base36Alphabet = "0123456789abcdefghijklmnopqrstuvwxyz"

var base36Big = big.NewInt(36)

// EncodeBase36 returns the minimum-length lowercase base36 representation
// of u. EncodeBase36 of zero returns "0".
func EncodeBase36(u *big.Int) string {
	if u.Sign() == 0 {
		return "0"
	}
	v := new(big.Int).Set(u)
	mod := new(big.Int)
	buf := make([]byte, 0, 26)
	for v.Sign() > 0 {
		v.DivMod(v, base36Big, mod)
		buf = append(buf, base36Alphabet[mod.Int64()])
	}
	// digits were appended least-significant first
	for i, j := 0, len(buf)-1; i < j; i, j = i+1, j-1 {
		buf[i], buf[j] = buf[j], buf[i]
	}
	return string(buf)
}

// DecodeBase36 parses s as a base36, case-sensitive-lowercase, 128-bit
// unsigned integer. It returns false if s contains characters outside the
// base36 alphabet or does not fit the u128 accounting this package uses.
func DecodeBase36(s string) (*big.Int, bool) {
	if s == "" {
		return nil, false
	}
	for i := 0; i < len(s); i++ {
		c := s[i]
		if !(c >= '0' && c <= '9' || c >= 'a' && c <= 'z') {
			return nil, false
		}
	}
	u, ok := new(big.Int).SetString(s, 36)
	if !ok || u.Sign() < 0 || u.BitLen() > 128 {
		return nil, false
	}
	return u, true
}
