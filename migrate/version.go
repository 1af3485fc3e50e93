package migrate

import "fmt"

// FormatVersion is the fractional version tag ("1/10", i.e. 0.1) stamped
// as the first YAML document of every persisted artifact (meta, seal,
// config, patch headers). Keeping it a distinct numerator/denominator pair
// rather than a float preserves the exact on-disk representation the
// original tool used and leaves room for future version bumps.
type FormatVersion struct {
	Num, Den uint64
}

// CurrentFormatVersion is the only version this package can read or write.
var CurrentFormatVersion = FormatVersion{Num: 1, Den: 10}

// String renders the version as "num/den".
func (v FormatVersion) String() string { return fmt.Sprintf("%d/%d", v.Num, v.Den) }

// MarshalYAML implements yaml.Marshaler.
func (v FormatVersion) MarshalYAML() (interface{}, error) {
	return v.String(), nil
}

// UnmarshalYAML implements yaml.Unmarshaler, accepting either the "num/den"
// string form or a bare YAML float (so "0.1" also parses as 1/10).
func (v *FormatVersion) UnmarshalYAML(unmarshal func(interface{}) error) error {
	var s string
	if err := unmarshal(&s); err == nil {
		var num, den uint64
		if n, err := fmt.Sscanf(s, "%d/%d", &num, &den); err == nil && n == 2 {
			*v = FormatVersion{Num: num, Den: den}
			return nil
		}
	}
	var f float64
	if err := unmarshal(&f); err != nil {
		return err
	}
	if f == 0.1 {
		*v = FormatVersion{Num: 1, Den: 10}
		return nil
	}
	*v = FormatVersion{Num: uint64(f * 10), Den: 10}
	return nil
}
