package application

import (
	"iter"

	"github.com/ahrav/go-gambit/internal/domain"
)

// Combinations yields every subset of allowed with at least two members.
// Subsets are produced by increasing size and, within a size, in
// lexicographic order of their index positions, so members always keep
// their order from allowed. Each yielded Combination is a fresh slice.
// Fewer than two names yield nothing.
func Combinations(allowed domain.AllowedSet) iter.Seq[domain.Combination] {
	return func(yield func(domain.Combination) bool) {
		n := len(allowed)
		for k := 2; k <= n; k++ {
			idx := make([]int, k)
			for i := range idx {
				idx[i] = i
			}
			for {
				combo := make(domain.Combination, k)
				for i, j := range idx {
					combo[i] = allowed[j]
				}
				if !yield(combo) {
					return
				}

				// Advance the rightmost index that still has room.
				i := k - 1
				for i >= 0 && idx[i] == n-k+i {
					i--
				}
				if i < 0 {
					break
				}
				idx[i]++
				for j := i + 1; j < k; j++ {
					idx[j] = idx[j-1] + 1
				}
			}
		}
	}
}

// CombinationCount returns 2^n - n - 1, the number of subsets of size two
// or more. It returns 0 for n < 2 and saturates at the largest uint64 for
// n >= 64.
func CombinationCount(n int) uint64 {
	if n < 2 {
		return 0
	}
	if n >= 64 {
		return ^uint64(0)
	}
	return (uint64(1) << n) - uint64(n) - 1
}
