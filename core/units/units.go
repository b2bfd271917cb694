// Package units defines typed physical quantities for the energy variant.
// Capacity, generation and conversion factors each get their own type so a
// TWh/MWh mixup is a compile error rather than a silent thousandfold bug.
package units

// HoursPerYear is the number of hours in a non-leap year.
const HoursPerYear = 8760

// Gigawatts is installed capacity.
type Gigawatts float64

// TerawattHours is annual generation.
type TerawattHours float64

// MegawattHours is generation in MWh, used only at reporting boundaries.
type MegawattHours float64

// MegawattHours converts generation to MWh.
func (t TerawattHours) MegawattHours() MegawattHours {
	return MegawattHours(float64(t) * 1e6)
}

// TerawattHours converts generation back to TWh.
func (m MegawattHours) TerawattHours() TerawattHours {
	return TerawattHours(float64(m) / 1e6)
}

// Generation derives annual generation from capacity and a capacity factor:
// GW * cf * 8760 h / 1000 = TWh.
func Generation(capacity Gigawatts, capacityFactor float64) TerawattHours {
	return TerawattHours(float64(capacity) * capacityFactor * HoursPerYear / 1000)
}

// Capacity inverts Generation for a known capacity factor.
func Capacity(generation TerawattHours, capacityFactor float64) Gigawatts {
	return Gigawatts(float64(generation) / (capacityFactor * HoursPerYear / 1000))
}
