package migrate_test

import (
	"testing"

	"github.com/dnsl48/warden/migrate"
	"github.com/stretchr/testify/require"
)

func TestWeightPreservesLexicographicOrder(t *testing.T) {
	values := []string{"a", "aa", "ab", "b", "ba", "c"}

	for i := 1; i < len(values); i++ {
		wPrev, err := migrate.Weight(values[i-1])
		require.NoError(t, err)
		wCur, err := migrate.Weight(values[i])
		require.NoError(t, err)
		require.Equal(t, -1, wPrev.Cmp(wCur), "expected weight(%q) < weight(%q)", values[i-1], values[i])
	}
}

func TestWeightEmptyStringIsInvalid(t *testing.T) {
	_, err := migrate.Weight("")
	require.Error(t, err)

	var merr *migrate.Error
	require.ErrorAs(t, err, &merr)
	require.Equal(t, migrate.KindInvalidWeight, merr.Kind)
}

func TestWeightDeterministic(t *testing.T) {
	a, err := migrate.Weight("patches/001-init")
	require.NoError(t, err)
	b, err := migrate.Weight("patches/001-init")
	require.NoError(t, err)
	require.Equal(t, 0, a.Cmp(b))
}
