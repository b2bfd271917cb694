// Package residual closes the accounting loop: the incumbent is whatever the
// market leaves after disruptor and chimera volumes, floored at zero, and a
// finished trajectory is certified by structural checks that report rather
// than repair.
package residual

import (
	"fmt"
)

// Trajectory is the per-year volume accounting for one region. All series
// share the Years axis.
type Trajectory struct {
	Years     []int
	Market    []float64
	Disruptor []float64
	Chimera   []float64
	Incumbent []float64
	// TippingYear is nil when no cost parity was found in the window.
	TippingYear *int
}

// Incumbent computes the residual incumbent volume per year:
// max(market - disruptor - chimera, 0).
func Incumbent(market, disruptor, chimera []float64) ([]float64, error) {
	if len(disruptor) != len(market) || len(chimera) != len(market) {
		return nil, fmt.Errorf("series length mismatch: market %d, disruptor %d, chimera %d",
			len(market), len(disruptor), len(chimera))
	}
	out := make([]float64, len(market))
	for i := range market {
		r := market[i] - disruptor[i] - chimera[i]
		if r < 0 {
			r = 0
		}
		out[i] = r
	}
	return out, nil
}
