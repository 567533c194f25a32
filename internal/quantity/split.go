// Package quantity works out how many objects of each distribution type a
// run has to load.
package quantity

import "github.com/roach88/osr/internal/host"

// WeightedSplit divides total between len(weights) buckets in proportion to
// weights.
//
// Each bucket first gets total*w/sum rounded half up. The surplus or
// deficit is then settled one unit at a time by a weighted draw: surplus
// units are taken only from buckets that still hold one. When every weight
// is zero all buckets weigh one. The result always sums to total.
func WeightedSplit(weights []int, total int, rnd host.Random) []int {
	out := make([]int, len(weights))
	if len(weights) == 0 || total <= 0 {
		return out
	}
	w := make([]int, len(weights))
	sum := 0
	for i, v := range weights {
		if v > 0 {
			w[i] = v
			sum += v
		}
	}
	if sum == 0 {
		for i := range w {
			w[i] = 1
		}
		sum = len(w)
	}

	assigned := 0
	for i, v := range w {
		out[i] = (2*total*v + sum) / (2 * sum)
		assigned += out[i]
	}

	for assigned != total {
		if assigned < total {
			out[draw(w, sum, rnd)]++
			assigned++
			continue
		}
		// Only buckets still holding a unit may give one back.
		held := make([]int, len(w))
		heldSum := 0
		for i, v := range w {
			if out[i] > 0 {
				held[i] = v
				heldSum += v
			}
		}
		out[draw(held, heldSum, rnd)]--
		assigned--
	}
	return out
}

func draw(w []int, sum int, rnd host.Random) int {
	roll := rnd.Intn(0, sum)
	for i, v := range w {
		roll -= v
		if roll < 0 {
			return i
		}
	}
	for i := len(w) - 1; i >= 0; i-- {
		if w[i] > 0 {
			return i
		}
	}
	return 0
}
