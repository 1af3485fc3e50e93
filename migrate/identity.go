package migrate

import (
	"fmt"
	"math/big"
	"strings"
	"time"
)

// epochOffset is subtracted from the current Unix timestamp before
// base36-encoding a new uid. The constant (49 years, in seconds) is
// undocumented in the original implementation and may reflect an intended
// epoch near 2019; it is preserved verbatim for backward compatibility.
// See DESIGN.md, "Open Question decisions".
const epochOffset = 49 * 365 * 24 * 3600

// Identity pairs a time-seeded base36 uid with a human-chosen name.
type Identity struct {
	UID  string
	Name string
}

// NewIdentity generates a fresh Identity for name, deriving uid from the
// current time.
func NewIdentity(name string) Identity {
	return Identity{UID: generateUID(time.Now()), Name: name}
}

func generateUID(now time.Time) string {
	sec := now.Unix() - epochOffset
	u := EncodeBase36(big.NewInt(sec))
	for len(u) < 6 {
		u = "0" + u
	}
	return u
}

// ParseIdentity splits token on its first "--" into uid and name. It
// returns KindInvalidIdentity if no "--" is present.
func ParseIdentity(token string) (Identity, error) {
	ix := strings.Index(token, "--")
	if ix < 0 {
		return Identity{}, newError(KindInvalidIdentity, token, nil)
	}
	return Identity{UID: token[:ix], Name: token[ix+2:]}, nil
}

// ID decodes the Identity's uid as a 128-bit unsigned integer. The second
// return value is false if the uid is not valid base36.
func (id Identity) ID() (*big.Int, bool) {
	return DecodeBase36(id.UID)
}

// String renders the Identity as "{uid}--{name}".
func (id Identity) String() string {
	return fmt.Sprintf("%s--%s", id.UID, id.Name)
}
