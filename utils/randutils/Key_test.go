package randutils

import "testing"

func TestSplitDeterministic(t *testing.T) {
	k := NewKey(42)
	a := k.Split(4)
	b := k.Split(4)

	seen := make(map[Key]bool)
	for i := range a {
		if a[i] != b[i] {
			t.Errorf("split: key %d differs between calls: %v != %v", i,
				a[i], b[i])
		}
		if a[i] == k {
			t.Errorf("split: derived key %d equals parent key", i)
		}
		if seen[a[i]] {
			t.Errorf("split: duplicate derived key %v", a[i])
		}
		seen[a[i]] = true
	}
}

func TestUniformReproducible(t *testing.T) {
	k := NewKey(7)
	for i := 0; i < 10; i++ {
		x, y := k.Uniform(-1, 2), k.Uniform(-1, 2)
		if x != y {
			t.Fatalf("uniform: same key gave %v and %v", x, y)
		}
		if x < -1 || x >= 2 {
			t.Fatalf("uniform: sample %v outside [-1, 2)", x)
		}
		k, _ = k.Split2()
	}

	if v := k.Uniform(3, 3); v != 3 {
		t.Errorf("uniform: degenerate interval gave %v, want 3", v)
	}
}

func TestBernoulliExtremes(t *testing.T) {
	for _, k := range NewKey(1).Split(50) {
		if k.Bernoulli(0) {
			t.Fatal("bernoulli: p = 0 returned true")
		}
		if !k.Bernoulli(1) {
			t.Fatal("bernoulli: p = 1 returned false")
		}
	}
}
