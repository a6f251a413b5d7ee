// Package series provides a most-recent-first numeric sequence with O(1)
// amortized prepend. Logical index 0 is always the newest element, exactly as
// if values were repeatedly unshifted onto a plain slice, but backed by a
// growable power-of-two ring so prepending never shifts memory.
package series

import "math"

// Empty is the explicit marker stored in padding slots created by a sparse
// Set past the current length, and returned by Get for out-of-range reads.
var Empty = math.NaN()

// IsEmpty reports whether v is the Empty marker.
func IsEmpty(v float64) bool { return math.IsNaN(v) }

// Series is a most-recent-first float64 sequence.
// Not safe for concurrent use; callers serialize all operations.
type Series struct {
	buf  []float64
	mask int
	head int // ring slot of logical index 0
	n    int
}

// New creates an empty Series. capacity is rounded up to a power of two.
func New(capacity int) *Series {
	c := nextPow2(capacity)
	if c < 2 {
		c = 2
	}
	return &Series{
		buf:  make([]float64, c),
		mask: c - 1,
	}
}

// Len returns the number of elements.
func (s *Series) Len() int { return s.n }

// Prepend inserts v at logical index 0, shifting all existing elements one
// index older. O(1) amortized.
func (s *Series) Prepend(v float64) {
	if s.n == len(s.buf) {
		s.grow(s.n * 2)
	}
	s.head = (s.head - 1) & s.mask
	s.buf[s.head] = v
	s.n++
}

// Get returns the element at logical index i (0 = newest).
// Out-of-range reads return Empty.
func (s *Series) Get(i int) float64 {
	if i < 0 || i >= s.n {
		return Empty
	}
	return s.buf[(s.head+i)&s.mask]
}

// Set writes the element at logical index i. Writing past the current length
// grows the series, padding the gap with Empty: the new slots are appended at
// the old end, so element ages are preserved.
func (s *Series) Set(i int, v float64) {
	if i < 0 {
		return
	}
	for i >= s.n {
		if s.n == len(s.buf) {
			s.grow(s.n * 2)
		}
		s.buf[(s.head+s.n)&s.mask] = Empty
		s.n++
	}
	s.buf[(s.head+i)&s.mask] = v
}

// Keep retains only the n most recent elements, discarding the rest from the
// old end. Returns the number of elements discarded.
func (s *Series) Keep(n int) int {
	if n < 0 {
		n = 0
	}
	if s.n <= n {
		return 0
	}
	discarded := s.n - n
	s.n = n
	return discarded
}

// Tail returns a read-only view that skips the i most recent elements:
// index 0 of the view is index i of the receiver. The view aliases the
// receiver and is invalidated by any later mutation.
func (s *Series) Tail(i int) View {
	if i < 0 {
		i = 0
	}
	return View{s: s, off: i}
}

// Values returns the elements as a newest-first slice copy.
func (s *Series) Values() []float64 {
	out := make([]float64, s.n)
	for i := 0; i < s.n; i++ {
		out[i] = s.buf[(s.head+i)&s.mask]
	}
	return out
}

func (s *Series) grow(capacity int) {
	c := nextPow2(capacity)
	buf := make([]float64, c)
	for i := 0; i < s.n; i++ {
		buf[i] = s.buf[(s.head+i)&s.mask]
	}
	s.buf = buf
	s.mask = c - 1
	s.head = 0
}

// View is a read-only suffix of a Series.
type View struct {
	s   *Series
	off int
}

// Len returns the number of elements visible through the view.
func (v View) Len() int {
	n := v.s.Len() - v.off
	if n < 0 {
		return 0
	}
	return n
}

// Get returns the element at view index i (0 = newest visible element).
func (v View) Get(i int) float64 {
	if i < 0 || i >= v.Len() {
		return Empty
	}
	return v.s.Get(v.off + i)
}

// nextPow2 returns the smallest power of 2 >= n.
func nextPow2(n int) int {
	if n <= 0 {
		return 1
	}
	n--
	n |= n >> 1
	n |= n >> 2
	n |= n >> 4
	n |= n >> 8
	n |= n >> 16
	n |= n >> 32
	return n + 1
}
