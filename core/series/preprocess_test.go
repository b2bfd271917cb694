package series

import "testing"

func TestSmoothRemovesSpike(t *testing.T) {
	s := MustNew([]int{2015, 2016, 2017, 2018, 2019, 2020, 2021}, []float64{10, 11, 12, 50, 14, 15, 16})
	out := Smooth(s, 3)
	if out.Len() != s.Len() {
		t.Fatalf("smoothing must preserve length, got %d", out.Len())
	}
	if v, _ := out.At(2018); v == 50 {
		t.Fatalf("spike survived smoothing")
	}
	if out.Value(0) != 10 || out.Value(out.Len()-1) != 16 {
		t.Fatalf("endpoints should pass through unchanged")
	}
}

func TestSmoothIdempotent(t *testing.T) {
	s := MustNew([]int{2015, 2016, 2017, 2018, 2019, 2020, 2021}, []float64{10, 11, 12, 50, 14, 15, 16})
	once := Smooth(s, 3)
	twice := Smooth(once, 3)
	for i := 0; i < once.Len(); i++ {
		if once.Value(i) != twice.Value(i) {
			t.Errorf("year %d: second pass changed %v to %v", once.Year(i), once.Value(i), twice.Value(i))
		}
	}
}

func TestSmoothThinSeriesUnchanged(t *testing.T) {
	s := MustNew([]int{2020}, []float64{5})
	out := Smooth(s, 3)
	if out.Len() != 1 || out.Value(0) != 5 {
		t.Fatalf("series with fewer than 2 points must be returned unchanged")
	}
}

func TestSmoothWiderWindow(t *testing.T) {
	s := MustNew([]int{2014, 2015, 2016, 2017, 2018, 2019, 2020}, []float64{1, 2, 3, 4, 5, 6, 7})
	out := Smooth(s, 5)
	// A monotone ramp is its own rolling median.
	for i := 0; i < s.Len(); i++ {
		if out.Value(i) != s.Value(i) {
			t.Errorf("index %d: got %v want %v", i, out.Value(i), s.Value(i))
		}
	}
}
