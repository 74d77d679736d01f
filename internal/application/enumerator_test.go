package application

import (
	"slices"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ahrav/go-gambit/internal/domain"
)

func collect(allowed domain.AllowedSet) []domain.Combination {
	return slices.Collect(Combinations(allowed))
}

func TestCombinations_ThreeNames(t *testing.T) {
	got := collect(domain.AllowedSet{"A", "B", "C"})

	assert.Equal(t, []domain.Combination{
		{"A", "B"},
		{"A", "C"},
		{"B", "C"},
		{"A", "B", "C"},
	}, got)
}

func TestCombinations_FourNamesOrder(t *testing.T) {
	got := collect(domain.AllowedSet{"w", "x", "y", "z"})

	want := []domain.Combination{
		{"w", "x"}, {"w", "y"}, {"w", "z"}, {"x", "y"}, {"x", "z"}, {"y", "z"},
		{"w", "x", "y"}, {"w", "x", "z"}, {"w", "y", "z"}, {"x", "y", "z"},
		{"w", "x", "y", "z"},
	}
	assert.Equal(t, want, got)
}

func TestCombinations_TooFew(t *testing.T) {
	for _, allowed := range []domain.AllowedSet{nil, {}, {"solo"}} {
		assert.Empty(t, collect(allowed))
	}
}

func TestCombinations_Properties(t *testing.T) {
	for n := 0; n <= 10; n++ {
		allowed := make(domain.AllowedSet, n)
		for i := range allowed {
			allowed[i] = string(rune('a' + i))
		}

		got := collect(allowed)
		require.Len(t, got, int(CombinationCount(n)), "n=%d", n)

		seen := make(map[string]bool, len(got))
		prevSize := 2
		for _, c := range got {
			assert.GreaterOrEqual(t, c.Size(), 2)
			assert.LessOrEqual(t, c.Size(), n)
			assert.GreaterOrEqual(t, c.Size(), prevSize, "sizes must not decrease")
			prevSize = c.Size()

			assert.False(t, seen[c.Key()], "duplicate %v", c)
			seen[c.Key()] = true

			// Members keep allow-list order.
			assert.IsIncreasing(t, []string(c))
		}
	}
}

func TestCombinations_EarlyStop(t *testing.T) {
	var got []domain.Combination
	for c := range Combinations(domain.AllowedSet{"a", "b", "c", "d"}) {
		got = append(got, c)
		if len(got) == 3 {
			break
		}
	}
	assert.Len(t, got, 3)
}

func TestCombinations_FreshSlices(t *testing.T) {
	got := collect(domain.AllowedSet{"a", "b", "c"})
	got[0][0] = "mutated"
	assert.Equal(t, domain.Combination{"a", "c"}, got[1])
}

func TestCombinationCount(t *testing.T) {
	tests := []struct {
		n    int
		want uint64
	}{
		{-1, 0},
		{0, 0},
		{1, 0},
		{2, 1},
		{3, 4},
		{4, 11},
		{10, 1013},
		{63, (1 << 63) - 64},
		{64, ^uint64(0)},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, CombinationCount(tt.n), "n=%d", tt.n)
	}
}
