package adoption

import (
	"errors"
	"math"
	"math/rand"
)

// errNoConvergence is internal to the package: optimizer failures are handled
// by the fallback ladder and never propagate past the adoption model.
var errNoConvergence = errors.New("optimizer did not converge")

// deSettings bounds the differential-evolution search. Runtime is
// deterministic given Seed and bounded by PopSize*MaxGen objective calls,
// which is the only cancellation contract this package offers.
type deSettings struct {
	PopSize   int
	MaxGen    int
	Weight    float64 // differential weight F
	Crossover float64 // crossover probability CR
	Seed      int64
}

func defaultDESettings() deSettings {
	return deSettings{PopSize: 30, MaxGen: 200, Weight: 0.7, Crossover: 0.9, Seed: 1}
}

// minimizeDE runs a rand/1/bin differential evolution over the box [lo, hi].
// seedPoint, when non-nil, replaces the first population member so a known
// plausible solution is always in the gene pool. Candidates are clipped to
// the box, so the returned point always respects the bounds.
func minimizeDE(obj func([]float64) float64, lo, hi []float64, seedPoint []float64, set deSettings) ([]float64, float64, error) {
	dim := len(lo)
	rng := rand.New(rand.NewSource(set.Seed))

	pop := make([][]float64, set.PopSize)
	cost := make([]float64, set.PopSize)
	for i := range pop {
		pop[i] = make([]float64, dim)
		for d := 0; d < dim; d++ {
			pop[i][d] = lo[d] + rng.Float64()*(hi[d]-lo[d])
		}
	}
	if seedPoint != nil {
		copy(pop[0], seedPoint)
		clip(pop[0], lo, hi)
	}
	for i := range pop {
		cost[i] = obj(pop[i])
	}

	trial := make([]float64, dim)
	for gen := 0; gen < set.MaxGen; gen++ {
		for i := range pop {
			a, b, c := distinct3(rng, set.PopSize, i)
			jr := rng.Intn(dim)
			for d := 0; d < dim; d++ {
				if d == jr || rng.Float64() < set.Crossover {
					trial[d] = pop[a][d] + set.Weight*(pop[b][d]-pop[c][d])
				} else {
					trial[d] = pop[i][d]
				}
			}
			clip(trial, lo, hi)
			if tc := obj(trial); tc <= cost[i] {
				copy(pop[i], trial)
				cost[i] = tc
			}
		}
	}

	best := 0
	for i := 1; i < set.PopSize; i++ {
		if cost[i] < cost[best] {
			best = i
		}
	}
	if math.IsNaN(cost[best]) || math.IsInf(cost[best], 0) {
		return nil, cost[best], errNoConvergence
	}
	return pop[best], cost[best], nil
}

func clip(x, lo, hi []float64) {
	for d := range x {
		if x[d] < lo[d] {
			x[d] = lo[d]
		}
		if x[d] > hi[d] {
			x[d] = hi[d]
		}
	}
}

// distinct3 draws three population indices distinct from each other and from i.
func distinct3(rng *rand.Rand, n, i int) (int, int, int) {
	pick := func(excl ...int) int {
	retry:
		for {
			v := rng.Intn(n)
			for _, e := range excl {
				if v == e {
					continue retry
				}
			}
			return v
		}
	}
	a := pick(i)
	b := pick(i, a)
	c := pick(i, a, b)
	return a, b, c
}
