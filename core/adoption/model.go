package adoption

import (
	"math"

	"github.com/kilianp07/parity/core/logger"
	"github.com/kilianp07/parity/core/series"
	"github.com/kilianp07/parity/core/tipping"
)

// FallbackTier records which rung of the fitting ladder produced a share
// curve. The tier is part of the result contract so a consumer can tell a
// fitted trajectory from a synthesized one.
type FallbackTier int

const (
	// TierFitted means the global optimizer converged on the observations.
	TierFitted FallbackTier = iota
	// TierSeeded means fewer than 3 observations existed, so the curve was
	// evaluated directly from seeded parameters without optimization.
	TierSeeded
	// TierSeededRetry means the optimizer failed and the seeded parameters
	// were used as fixed values.
	TierSeededRetry
	// TierLinear means even the seeded curve was unusable and the recent
	// observed trend was extrapolated linearly.
	TierLinear
	// TierConservative means no cost parity was found; a slow logistic at
	// the lower steepness bound is used, never an aggressive S-curve.
	TierConservative
)

// String returns the audit name of the tier.
func (t FallbackTier) String() string {
	switch t {
	case TierFitted:
		return "fitted"
	case TierSeeded:
		return "seeded"
	case TierSeededRetry:
		return "seeded_retry"
	case TierLinear:
		return "linear_trend"
	case TierConservative:
		return "conservative_no_parity"
	default:
		return "unknown"
	}
}

// seedSteepness anchors thin-data and retry fits.
const seedSteepness = 0.4

// minPointsFit is the observation count below which fitting is skipped.
const minPointsFit = 3

// Config bounds the logistic fit.
type Config struct {
	// Ceiling is the saturation share L in (0,1]. Lower it below 1 for
	// infrastructure-limited markets.
	Ceiling float64
	// KMin and KMax bound the steepness.
	KMin, KMax float64
	// HalfLifeYears is the chimera post-peak decay half-life.
	HalfLifeYears float64
	// Seed makes the optimizer deterministic.
	Seed int64
	// MaxIterations caps optimizer generations.
	MaxIterations int
	// PopulationSize is the optimizer population (minimum 4).
	PopulationSize int
}

// DefaultConfig returns the standard bounds.
func DefaultConfig() Config {
	return Config{
		Ceiling:        1.0,
		KMin:           0.05,
		KMax:           1.5,
		HalfLifeYears:  3,
		Seed:           1,
		MaxIterations:  200,
		PopulationSize: 30,
	}
}

// Fit is a share curve plus the provenance of how it was obtained.
type Fit struct {
	Curve   Logistic
	Tier    FallbackTier
	Tipping tipping.TippingPoint
}

// Model fits and evaluates adoption share trajectories.
type Model struct {
	cfg Config
	log logger.Logger
}

// New returns a Model with the given bounds.
func New(cfg Config, log logger.Logger) Model {
	if cfg.PopulationSize < 4 {
		cfg.PopulationSize = 4
	}
	if cfg.MaxIterations <= 0 {
		cfg.MaxIterations = 200
	}
	if cfg.HalfLifeYears <= 0 {
		cfg.HalfLifeYears = 3
	}
	return Model{cfg: cfg, log: log}
}

// FitDisruptor derives a logistic share curve from observed shares and the
// tipping point, walking the fallback ladder when the fit is ill-posed.
// observed must already exclude years with zero market volume. horizonYear
// widens the midpoint bounds for forward-looking inflections.
func (m Model) FitDisruptor(observed series.TimeSeries, tp tipping.TippingPoint, horizonYear int) Fit {
	if !tp.Found {
		return Fit{Curve: m.conservativeCurve(observed, horizonYear), Tier: TierConservative, Tipping: tp}
	}
	seeded := Logistic{Ceiling: m.cfg.Ceiling, Steepness: m.clampK(seedSteepness), Midpoint: float64(tp.Year)}
	if observed.Len() < minPointsFit {
		if m.log != nil {
			m.log.Debugf("adoption fit skipped: %d observations, using seeded curve", observed.Len())
		}
		return Fit{Curve: seeded, Tier: TierSeeded, Tipping: tp}
	}

	minYear := float64(observed.FirstYear())
	maxYear := math.Max(float64(observed.LastYear()), float64(horizonYear))
	lo := []float64{m.cfg.KMin, minYear - 5}
	hi := []float64{m.cfg.KMax, maxYear + 10}
	obj := m.sseObjective(observed)
	set := deSettings{
		PopSize:   m.cfg.PopulationSize,
		MaxGen:    m.cfg.MaxIterations,
		Weight:    0.7,
		Crossover: 0.9,
		Seed:      m.cfg.Seed,
	}
	best, _, err := minimizeDE(obj, lo, hi, []float64{seeded.Steepness, seeded.Midpoint}, set)
	if err == nil {
		return Fit{
			Curve:   Logistic{Ceiling: m.cfg.Ceiling, Steepness: best[0], Midpoint: best[1]},
			Tier:    TierFitted,
			Tipping: tp,
		}
	}
	if m.log != nil {
		m.log.Warnf("adoption fit did not converge, retrying with seeded parameters: %v", err)
	}
	if sse := obj([]float64{seeded.Steepness, seeded.Midpoint}); !math.IsNaN(sse) && !math.IsInf(sse, 0) {
		return Fit{Curve: seeded, Tier: TierSeededRetry, Tipping: tp}
	}
	return Fit{Tier: TierLinear, Tipping: tp}
}

// conservativeCurve anchors a slow logistic through the last observed share
// so the trajectory stays continuous while rising at the minimum steepness.
func (m Model) conservativeCurve(observed series.TimeSeries, horizonYear int) Logistic {
	l := Logistic{Ceiling: m.cfg.Ceiling, Steepness: m.cfg.KMin}
	if observed.Len() == 0 {
		l.Midpoint = float64(horizonYear + 10)
		return l
	}
	lastYear := float64(observed.LastYear())
	lastShare := observed.Value(observed.Len() - 1)
	switch {
	case lastShare <= 0:
		l.Midpoint = float64(horizonYear + 10)
	case lastShare >= l.Ceiling:
		l.Midpoint = lastYear
	default:
		l.Midpoint = lastYear + math.Log(l.Ceiling/lastShare-1)/l.Steepness
	}
	return l
}

func (m Model) sseObjective(observed series.TimeSeries) func([]float64) float64 {
	return func(x []float64) float64 {
		curve := Logistic{Ceiling: m.cfg.Ceiling, Steepness: x[0], Midpoint: x[1]}
		var sse float64
		for i := 0; i < observed.Len(); i++ {
			d := curve.Share(float64(observed.Year(i))) - observed.Value(i)
			sse += d * d
		}
		return sse
	}
}

func (m Model) clampK(k float64) float64 {
	if k < m.cfg.KMin {
		return m.cfg.KMin
	}
	if k > m.cfg.KMax {
		return m.cfg.KMax
	}
	return k
}

// Trajectory evaluates the fit over the given years. Observed years keep
// their observed share. Future years before a still-upcoming inflection
// follow the recent observed trend until the logistic overtakes it, which
// keeps the handoff continuous. Shares are clamped to [0,1].
func (m Model) Trajectory(fit Fit, observed series.TimeSeries, years []int) []float64 {
	lastYear, lastShare, slope := recentTrend(observed)
	out := make([]float64, len(years))
	for i, y := range years {
		if v, ok := observed.At(y); ok {
			out[i] = clamp01(v)
			continue
		}
		switch fit.Tier {
		case TierLinear:
			out[i] = clamp01(lastShare + slope*float64(y-lastYear))
		default:
			s := fit.Curve.Share(float64(y))
			if fit.Tipping.Found && observed.Len() > 0 && float64(y) < fit.Curve.Midpoint && y > lastYear {
				s = math.Max(s, clamp01(lastShare+slope*float64(y-lastYear)))
			}
			out[i] = clamp01(s)
		}
	}
	return out
}

// ChimeraTrajectory synthesizes the transitional-technology hump. Observed
// shares are used verbatim while available; the synthesized tail starts from
// the last observation so the handoff has no discontinuity.
func (m Model) ChimeraTrajectory(observed series.TimeSeries, tp tipping.TippingPoint, years []int) []float64 {
	out := make([]float64, len(years))
	if observed.Len() == 0 {
		return out
	}
	lastYear, lastShare, slope := recentTrend(observed)
	peakYear := lastYear
	if tp.Found && tp.Year > lastYear {
		peakYear = tp.Year
	}
	h := Hump{
		StartYear:  lastYear,
		StartShare: lastShare,
		PeakYear:   peakYear,
		PeakShare:  clamp01(lastShare + slope*float64(peakYear-lastYear)),
		HalfLife:   m.cfg.HalfLifeYears,
	}
	for i, y := range years {
		if v, ok := observed.At(y); ok {
			out[i] = clamp01(v)
			continue
		}
		out[i] = h.Share(float64(y))
	}
	return out
}

// recentTrend returns the last observed year and share plus the per-year
// slope over the most recent up-to-3 observations.
func recentTrend(observed series.TimeSeries) (lastYear int, lastShare, slope float64) {
	if observed.Len() == 0 {
		return 0, 0, 0
	}
	tail := observed.Tail(3)
	lastYear = tail.LastYear()
	lastShare = tail.Value(tail.Len() - 1)
	if tail.Len() >= 2 {
		dy := tail.Value(tail.Len()-1) - tail.Value(0)
		dx := float64(tail.LastYear() - tail.FirstYear())
		slope = dy / dx
	}
	return lastYear, lastShare, slope
}
