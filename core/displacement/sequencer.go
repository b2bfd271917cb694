// Package displacement decides which incumbent generation technology gives
// way first as disruptor generation grows. The order is a structural,
// per-region preference (grid composition), not a cost optimization, and
// reserve floors are hard constraints that survive any cost argument.
package displacement

import (
	"fmt"

	"github.com/kilianp07/parity/core/capacity"
	"github.com/kilianp07/parity/core/series"
	"github.com/kilianp07/parity/core/units"
)

// Sequencer allocates residual fossil demand across incumbents for one year
// at a time.
type Sequencer struct {
	// Order lists incumbents in displacement preference: the first entry is
	// displaced first.
	Order []capacity.Technology
	// Floors holds each incumbent's reserve floor as a fraction of its peak
	// generation, e.g. 0.10 keeps coal at >=10% of its historical peak.
	Floors map[capacity.Technology]float64
	// Peaks is each incumbent's historical peak generation.
	Peaks map[capacity.Technology]units.TerawattHours
	// AllowFullDisplacement drops the floors once the scenario explicitly
	// signals the transition is complete.
	AllowFullDisplacement bool
}

// Validate checks the sequencing setup before any allocation runs.
func (s Sequencer) Validate() error {
	if len(s.Order) == 0 {
		return fmt.Errorf("displacement order is empty")
	}
	seen := make(map[capacity.Technology]bool, len(s.Order))
	for _, tech := range s.Order {
		if seen[tech] {
			return fmt.Errorf("technology %s listed twice in displacement order", tech)
		}
		seen[tech] = true
	}
	for tech, f := range s.Floors {
		if f < 0 || f > 1 {
			return fmt.Errorf("reserve floor for %s is %v, want [0,1]", tech, f)
		}
	}
	return nil
}

// floor returns the absolute reserve floor for a technology.
func (s Sequencer) floor(tech capacity.Technology) units.TerawattHours {
	if s.AllowFullDisplacement {
		return 0
	}
	return units.TerawattHours(s.Floors[tech] * float64(s.Peaks[tech]))
}

// Allocate distributes one year's residual incumbent demand (total demand
// minus the non-displaceable baseline minus disruptor generation) across the
// incumbents. prior carries each incumbent's previous-year generation, the
// level it would hold absent displacement.
//
// Floors are filled first; the remainder tops incumbents back up in reverse
// displacement order, so the first technology in Order is squeezed toward
// its floor before the next one loses anything. Demand beyond every prior
// level lands on the most-retained incumbent.
func (s Sequencer) Allocate(residual units.TerawattHours, prior map[capacity.Technology]units.TerawattHours) map[capacity.Technology]units.TerawattHours {
	alloc := make(map[capacity.Technology]units.TerawattHours, len(s.Order))
	remaining := residual
	for _, tech := range s.Order {
		f := s.floor(tech)
		alloc[tech] = f
		remaining -= f
	}
	if remaining <= 0 {
		return alloc
	}
	for i := len(s.Order) - 1; i >= 0; i-- {
		tech := s.Order[i]
		headroom := prior[tech] - alloc[tech]
		if headroom <= 0 {
			continue
		}
		take := headroom
		if take > remaining {
			take = remaining
		}
		alloc[tech] += take
		remaining -= take
		if remaining <= 0 {
			return alloc
		}
	}
	// Demand exceeds every incumbent's prior level: the most-retained
	// technology absorbs the excess.
	alloc[s.Order[len(s.Order)-1]] += remaining
	return alloc
}

// BaselineTrend projects the non-displaceable baseline (nuclear, hydro,
// other) by ordinary linear regression. The baseline is never traded off
// against cost parity. Values are clamped to zero from below.
func BaselineTrend(hist series.TimeSeries, endYear int) (series.TimeSeries, error) {
	if hist.Len() < 2 {
		return series.TimeSeries{}, fmt.Errorf("baseline history has %d points, need at least 2", hist.Len())
	}
	return series.LinearTrend(hist, endYear)
}
