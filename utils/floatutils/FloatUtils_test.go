package floatutils

import "testing"

func TestClip(t *testing.T) {
	for _, test := range []struct {
		in, want float64
	}{
		{-2, -1},
		{0.5, 0.5},
		{3, 1},
	} {
		if have := Clip(test.in, -1, 1); have != test.want {
			t.Errorf("clip(%v) \n\twant(%v) \n\thave(%v)", test.in, test.want,
				have)
		}
	}
}

func TestArgmax(t *testing.T) {
	for _, test := range []struct {
		in   []float64
		want int
	}{
		{[]float64{1}, 0},
		{[]float64{1, 3, 2}, 1},
		{[]float64{2, 5, 5}, 1},
		{[]float64{-1, -2, -0.5}, 2},
	} {
		if have := Argmax(test.in); have != test.want {
			t.Errorf("argmax(%v) \n\twant(%v) \n\thave(%v)", test.in,
				test.want, have)
		}
	}
}
