// Package regalloc provides the register pool the code generators draw
// scratch registers from.
//
// A Pool hands out ranges of consecutive register indices with exclusive
// ownership: a range stays unavailable until checked back in. The pool does
// not know about register files or instruction encodings; generators keep
// one pool per file (vector, scalar) and convert indices to operands
// themselves.
//
// Misuse is a generator bug, not a runtime condition, so exhaustion, double
// check-in and foreign check-ins panic (see github.com/gomlx/exceptions).
package regalloc

import (
	"fmt"

	"github.com/gomlx/exceptions"
)

// Checkout is an owned range of registers. The zero value is no checkout.
type Checkout struct {
	First int
	N     int
}

// IsZero reports whether the checkout is empty.
func (c Checkout) IsZero() bool { return c.N == 0 }

// Last returns the last register index of the range.
func (c Checkout) Last() int { return c.First + c.N - 1 }

// Pool allocates register index ranges first-fit from a fixed-size file.
type Pool struct {
	name  string
	limit int
	used  []bool
	out   map[int]int // first index -> size, for every live checkout
	peak  int
}

// NewPool creates a pool of limit registers named for diagnostics ("vgpr",
// "sgpr").
func NewPool(name string, limit int) *Pool {
	if limit <= 0 {
		exceptions.Panicf("regalloc.NewPool(%q, %d): limit must be positive", name, limit)
	}
	return &Pool{
		name:  name,
		limit: limit,
		used:  make([]bool, limit),
		out:   make(map[int]int),
	}
}

// Name returns the pool name.
func (p *Pool) Name() string { return p.name }

// Limit returns the total number of registers managed.
func (p *Pool) Limit() int { return p.limit }

// CheckOut acquires n consecutive registers.
func (p *Pool) CheckOut(n int) Checkout { return p.CheckOutAligned(n, 1) }

// CheckOutAligned acquires n consecutive registers whose first index is a
// multiple of align. Wide loads and 64-bit arithmetic need even-aligned
// pairs.
func (p *Pool) CheckOutAligned(n, align int) Checkout {
	if n <= 0 || align <= 0 {
		exceptions.Panicf("%s pool: CheckOutAligned(%d, %d): arguments must be positive", p.name, n, align)
	}
	for first := 0; first+n <= p.limit; first += align {
		if p.rangeFree(first, n) {
			p.mark(first, n, true)
			p.out[first] = n
			if inUse := p.InUse(); inUse > p.peak {
				p.peak = inUse
			}
			return Checkout{First: first, N: n}
		}
	}
	exceptions.Panicf("%s pool: out of registers checking out %d (align %d): %d of %d in use",
		p.name, n, align, p.InUse(), p.limit)
	return Checkout{}
}

// CheckIn releases a checkout obtained from this pool. Releasing the zero
// checkout is a no-op, which lets callers release optional registers
// unconditionally.
func (p *Pool) CheckIn(c Checkout) {
	if c.IsZero() {
		return
	}
	n, ok := p.out[c.First]
	if !ok || n != c.N {
		exceptions.Panicf("%s pool: CheckIn(%+v) does not match any live checkout", p.name, c)
	}
	p.mark(c.First, c.N, false)
	delete(p.out, c.First)
}

// InUse returns the number of registers currently checked out.
func (p *Pool) InUse() int {
	total := 0
	for _, n := range p.out {
		total += n
	}
	return total
}

// Live returns the number of outstanding checkouts.
func (p *Pool) Live() int { return len(p.out) }

// Peak returns the high-water mark of registers in use.
func (p *Pool) Peak() int { return p.peak }

// String summarizes the pool state.
func (p *Pool) String() string {
	return fmt.Sprintf("%s pool: %d/%d in use (%d checkouts, peak %d)",
		p.name, p.InUse(), p.limit, p.Live(), p.peak)
}

func (p *Pool) rangeFree(first, n int) bool {
	for i := first; i < first+n; i++ {
		if p.used[i] {
			return false
		}
	}
	return true
}

func (p *Pool) mark(first, n int, used bool) {
	for i := first; i < first+n; i++ {
		p.used[i] = used
	}
}
