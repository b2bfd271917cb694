package forecast

import (
	"fmt"

	"github.com/google/uuid"

	"github.com/kilianp07/parity/core/residual"
)

// Aggregate sums completed regional results into a Global view. It is pure
// post-processing: no per-region forecast is re-run, and only absolute
// volumes are summed, never shares, so regions of different size cannot
// double count. All inputs must share the same year axis and domain.
func Aggregate(results []Result, cfg residual.ValidatorConfig) (Result, error) {
	if len(results) == 0 {
		return Result{}, fmt.Errorf("aggregate: no regional results")
	}
	base := results[0]
	n := len(base.Years)
	out := Result{
		RunID:     uuid.NewString(),
		Region:    "Global",
		Domain:    base.Domain,
		Years:     append([]int(nil), base.Years...),
		Market:    make([]float64, n),
		Disruptor: make([]float64, n),
		Chimera:   make([]float64, n),
		Incumbent: make([]float64, n),
	}
	incumbents := make(map[string][]float64)

	for _, r := range results {
		if r.Domain != base.Domain {
			return Result{}, fmt.Errorf("aggregate: mixed domains %s and %s", base.Domain, r.Domain)
		}
		if len(r.Years) != n || r.Years[0] != base.Years[0] || r.Years[n-1] != base.Years[n-1] {
			return Result{}, fmt.Errorf("aggregate: region %s year axis differs", r.Region)
		}
		for i := 0; i < n; i++ {
			out.Market[i] += r.Market[i]
			out.Disruptor[i] += r.Disruptor[i]
			out.Incumbent[i] += r.Incumbent[i]
		}
		// Energy results may carry no chimera series at all.
		if len(r.Chimera) == n {
			for i := 0; i < n; i++ {
				out.Chimera[i] += r.Chimera[i]
			}
		}
		for tech, vs := range r.Incumbents {
			if incumbents[tech] == nil {
				incumbents[tech] = make([]float64, n)
			}
			for i := 0; i < n; i++ {
				incumbents[tech][i] += vs[i]
			}
		}
		// The global tipping year is the earliest regional parity event.
		if r.TippingPointYear != nil {
			if out.TippingPointYear == nil || *r.TippingPointYear < *out.TippingPointYear {
				y := *r.TippingPointYear
				out.TippingPointYear = &y
			}
		}
	}
	if len(incumbents) > 0 {
		out.Incumbents = incumbents
	}
	if out.TippingPointYear == nil {
		out.Note = NoParityNote
	}

	tr := residual.Trajectory{
		Years:       out.Years,
		Market:      out.Market,
		Disruptor:   out.Disruptor,
		Chimera:     out.Chimera,
		Incumbent:   out.Incumbent,
		TippingYear: out.TippingPointYear,
	}
	out.Validation = exportReport(residual.Validate(tr, cfg))
	return out, nil
}
