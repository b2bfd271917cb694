package displacement

import (
	"math"
	"testing"

	"github.com/kilianp07/parity/core/capacity"
	"github.com/kilianp07/parity/core/series"
	"github.com/kilianp07/parity/core/units"
)

func coalFirst() Sequencer {
	return Sequencer{
		Order:  []capacity.Technology{capacity.Coal, capacity.Gas},
		Floors: map[capacity.Technology]float64{capacity.Coal: 0.10, capacity.Gas: 0.15},
		Peaks:  map[capacity.Technology]units.TerawattHours{capacity.Coal: 1000, capacity.Gas: 600},
	}
}

func TestAllocateSqueezesFirstIncumbent(t *testing.T) {
	s := coalFirst()
	prior := map[capacity.Technology]units.TerawattHours{capacity.Coal: 800, capacity.Gas: 500}
	// Enough residual to keep gas whole but not coal.
	alloc := s.Allocate(900, prior)
	if alloc[capacity.Gas] != 500 {
		t.Errorf("gas = %v, want prior level 500", alloc[capacity.Gas])
	}
	if alloc[capacity.Coal] != 400 {
		t.Errorf("coal = %v, want remainder 400", alloc[capacity.Coal])
	}
}

func TestAllocateRespectsFloors(t *testing.T) {
	s := coalFirst()
	prior := map[capacity.Technology]units.TerawattHours{capacity.Coal: 800, capacity.Gas: 500}
	// Residual below the combined floors: floors still hold.
	alloc := s.Allocate(50, prior)
	if alloc[capacity.Coal] != 100 {
		t.Errorf("coal = %v, want floor 100 (10%% of 1000 peak)", alloc[capacity.Coal])
	}
	if alloc[capacity.Gas] != 90 {
		t.Errorf("gas = %v, want floor 90 (15%% of 600 peak)", alloc[capacity.Gas])
	}
}

func TestAllocateSpillsToSecondIncumbent(t *testing.T) {
	s := coalFirst()
	prior := map[capacity.Technology]units.TerawattHours{capacity.Coal: 800, capacity.Gas: 500}
	// 300 residual: floors take 190, spare 110 tops up gas first.
	alloc := s.Allocate(300, prior)
	if alloc[capacity.Coal] != 100 {
		t.Errorf("coal = %v, want floor 100", alloc[capacity.Coal])
	}
	if alloc[capacity.Gas] != 200 {
		t.Errorf("gas = %v, want floor 90 plus spare 110", alloc[capacity.Gas])
	}
}

func TestAllocateFullDisplacementDropsFloors(t *testing.T) {
	s := coalFirst()
	s.AllowFullDisplacement = true
	prior := map[capacity.Technology]units.TerawattHours{capacity.Coal: 800, capacity.Gas: 500}
	alloc := s.Allocate(0, prior)
	if alloc[capacity.Coal] != 0 || alloc[capacity.Gas] != 0 {
		t.Fatalf("full displacement must allow zero incumbents, got %v", alloc)
	}
}

func TestAllocateExcessDemand(t *testing.T) {
	s := coalFirst()
	prior := map[capacity.Technology]units.TerawattHours{capacity.Coal: 800, capacity.Gas: 500}
	alloc := s.Allocate(1500, prior)
	if alloc[capacity.Coal] != 800 {
		t.Errorf("coal = %v, want prior 800", alloc[capacity.Coal])
	}
	if alloc[capacity.Gas] != 700 {
		t.Errorf("gas = %v, want 500 prior plus 200 excess", alloc[capacity.Gas])
	}
}

func TestGasFirstOrdering(t *testing.T) {
	s := Sequencer{
		Order:  []capacity.Technology{capacity.Gas, capacity.Coal},
		Floors: map[capacity.Technology]float64{capacity.Coal: 0.10, capacity.Gas: 0.15},
		Peaks:  map[capacity.Technology]units.TerawattHours{capacity.Coal: 1000, capacity.Gas: 600},
	}
	prior := map[capacity.Technology]units.TerawattHours{capacity.Coal: 800, capacity.Gas: 500}
	alloc := s.Allocate(900, prior)
	if alloc[capacity.Coal] != 800 {
		t.Errorf("coal-first-retained region: coal = %v, want 800", alloc[capacity.Coal])
	}
	if alloc[capacity.Gas] != 100 {
		t.Errorf("gas = %v, want squeezed to 100", alloc[capacity.Gas])
	}
}

func TestSequencerValidate(t *testing.T) {
	s := coalFirst()
	if err := s.Validate(); err != nil {
		t.Fatalf("valid sequencer rejected: %v", err)
	}
	s.Order = append(s.Order, capacity.Coal)
	if err := s.Validate(); err == nil {
		t.Fatalf("duplicate order entry must be rejected")
	}
	s = coalFirst()
	s.Floors[capacity.Coal] = 1.5
	if err := s.Validate(); err == nil {
		t.Fatalf("floor above 1 must be rejected")
	}
}

func TestBaselineTrend(t *testing.T) {
	hist := series.MustNew([]int{2017, 2018, 2019, 2020}, []float64{400, 402, 404, 406})
	out, err := BaselineTrend(hist, 2023)
	if err != nil {
		t.Fatalf("baseline: %v", err)
	}
	v, _ := out.At(2023)
	if math.Abs(v-412) > 1e-9 {
		t.Errorf("2023 baseline = %v, want 412", v)
	}
}

func TestBaselineTrendNonNegative(t *testing.T) {
	hist := series.MustNew([]int{2018, 2019, 2020}, []float64{20, 10, 0})
	out, err := BaselineTrend(hist, 2025)
	if err != nil {
		t.Fatalf("baseline: %v", err)
	}
	for i := 0; i < out.Len(); i++ {
		if out.Value(i) < 0 {
			t.Errorf("baseline went negative at %d: %v", out.Year(i), out.Value(i))
		}
	}
}
