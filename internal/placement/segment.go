package placement

import (
	"fmt"

	"golang.org/x/exp/rand"
	"gonum.org/v1/gonum/stat/distuv"
)

// Segment divides total into parts non-negative integers that sum exactly to
// total, by sequential binomial splitting: the first part draws
// Binomial(total, 1/parts), the remainder is split over parts-1 the same way.
// Used to spread a placement budget across several seed groups.
func Segment(total, parts int, rng *rand.Rand) ([]int, error) {
	if total < 0 {
		return nil, fmt.Errorf("placement: segment total %d cannot be negative", total)
	}
	if parts < 1 {
		return nil, fmt.Errorf("placement: segment parts %d must be at least 1", parts)
	}

	out := make([]int, 0, parts)
	remaining := total
	for parts > 1 {
		share := 0
		if remaining > 0 {
			share = int(distuv.Binomial{
				N:   float64(remaining),
				P:   1 / float64(parts),
				Src: rng,
			}.Rand())
		}
		out = append(out, share)
		remaining -= share
		parts--
	}
	return append(out, remaining), nil
}
