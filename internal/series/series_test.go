package series

import (
	"math/rand"
	"testing"
)

// naive is the reference model: a plain newest-first slice mutated by
// unshift-style operations. The Series must be indistinguishable from it.
type naive []float64

func (n *naive) prepend(v float64) { *n = append([]float64{v}, *n...) }

func (n *naive) set(i int, v float64) {
	for i >= len(*n) {
		*n = append(*n, Empty)
	}
	(*n)[i] = v
}

func (n *naive) keep(k int) int {
	if len(*n) <= k {
		return 0
	}
	d := len(*n) - k
	*n = (*n)[:k]
	return d
}

func assertSame(t *testing.T, s *Series, ref naive) {
	t.Helper()
	if s.Len() != len(ref) {
		t.Fatalf("Len()=%d, want %d", s.Len(), len(ref))
	}
	for i := range ref {
		got, want := s.Get(i), ref[i]
		if got != want && !(IsEmpty(got) && IsEmpty(want)) {
			t.Fatalf("Get(%d)=%v, want %v", i, got, want)
		}
	}
}

func TestPrependOrdering(t *testing.T) {
	s := New(2)
	for i := 1; i <= 5; i++ {
		s.Prepend(float64(i))
	}
	// Last prepended value is index 0.
	for i := 0; i < 5; i++ {
		if got := s.Get(i); got != float64(5-i) {
			t.Errorf("Get(%d)=%v, want %v", i, got, float64(5-i))
		}
	}
	if !IsEmpty(s.Get(5)) {
		t.Errorf("Get(5) past end: got %v, want Empty", s.Get(5))
	}
	if !IsEmpty(s.Get(-1)) {
		t.Errorf("Get(-1): got %v, want Empty", s.Get(-1))
	}
}

func TestSparseSetPadsWithEmpty(t *testing.T) {
	s := New(2)
	s.Prepend(1)
	s.Set(4, 9)

	if s.Len() != 5 {
		t.Fatalf("Len()=%d, want 5", s.Len())
	}
	if s.Get(0) != 1 || s.Get(4) != 9 {
		t.Errorf("endpoints: got %v,%v want 1,9", s.Get(0), s.Get(4))
	}
	for i := 1; i <= 3; i++ {
		if !IsEmpty(s.Get(i)) {
			t.Errorf("Get(%d)=%v, want Empty padding", i, s.Get(i))
		}
	}

	// Prepending after a sparse set keeps the padded slots one index older.
	s.Prepend(7)
	if s.Get(0) != 7 || s.Get(1) != 1 || s.Get(5) != 9 {
		t.Errorf("after prepend: got %v,%v,%v want 7,1,9", s.Get(0), s.Get(1), s.Get(5))
	}
}

func TestKeepDiscardsOldest(t *testing.T) {
	s := New(2)
	for i := 1; i <= 10; i++ {
		s.Prepend(float64(i))
	}
	if d := s.Keep(3); d != 7 {
		t.Fatalf("Keep(3) discarded %d, want 7", d)
	}
	if s.Len() != 3 {
		t.Fatalf("Len()=%d, want 3", s.Len())
	}
	for i, want := range []float64{10, 9, 8} {
		if got := s.Get(i); got != want {
			t.Errorf("Get(%d)=%v, want %v", i, got, want)
		}
	}
	if d := s.Keep(5); d != 0 {
		t.Errorf("Keep(5) on shorter series discarded %d, want 0", d)
	}
}

func TestTailView(t *testing.T) {
	s := New(2)
	for i := 1; i <= 5; i++ {
		s.Prepend(float64(i))
	}
	v := s.Tail(2)
	if v.Len() != 3 {
		t.Fatalf("Tail(2).Len()=%d, want 3", v.Len())
	}
	for i, want := range []float64{3, 2, 1} {
		if got := v.Get(i); got != want {
			t.Errorf("Tail(2).Get(%d)=%v, want %v", i, got, want)
		}
	}
	if !IsEmpty(v.Get(3)) {
		t.Errorf("view past end: got %v, want Empty", v.Get(3))
	}
}

func TestRandomizedEquivalence(t *testing.T) {
	// Any interleaving of prepend/get/set/keep must match a plain
	// newest-first slice, including sparse sets and padding.
	rng := rand.New(rand.NewSource(42))
	s := New(2)
	var ref naive

	for op := 0; op < 5000; op++ {
		switch rng.Intn(10) {
		case 0, 1, 2, 3, 4:
			v := float64(rng.Intn(1000))
			s.Prepend(v)
			ref.prepend(v)
		case 5, 6:
			i := rng.Intn(len(ref) + 5)
			v := float64(rng.Intn(1000))
			s.Set(i, v)
			ref.set(i, v)
		case 7:
			k := rng.Intn(len(ref) + 1)
			if got, want := s.Keep(k), ref.keep(k); got != want {
				t.Fatalf("op %d: Keep(%d)=%d, want %d", op, k, got, want)
			}
		default:
			if len(ref) > 0 {
				i := rng.Intn(len(ref))
				got, want := s.Get(i), ref[i]
				if got != want && !(IsEmpty(got) && IsEmpty(want)) {
					t.Fatalf("op %d: Get(%d)=%v, want %v", op, i, got, want)
				}
			}
		}
	}
	assertSame(t, s, ref)
}
