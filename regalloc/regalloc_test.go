package regalloc

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPool_CheckOutCheckIn(t *testing.T) {
	pool := NewPool("vgpr", 16)

	a := pool.CheckOut(4)
	require.Equal(t, 0, a.First)
	require.Equal(t, 4, a.N)
	b := pool.CheckOut(2)
	require.Equal(t, 4, b.First)
	require.Equal(t, 6, pool.InUse())
	require.Equal(t, 2, pool.Live())

	// Freed ranges are reused lowest-first.
	pool.CheckIn(a)
	c := pool.CheckOut(3)
	require.Equal(t, 0, c.First)

	pool.CheckIn(b)
	pool.CheckIn(c)
	require.Equal(t, 0, pool.InUse())
	require.Equal(t, 0, pool.Live())
	assert.Equal(t, 6, pool.Peak())
}

func TestPool_Alignment(t *testing.T) {
	pool := NewPool("vgpr", 16)

	odd := pool.CheckOut(1)
	require.Equal(t, 0, odd.First)

	pair := pool.CheckOutAligned(2, 2)
	require.Equal(t, 2, pair.First, "aligned checkout must skip the partially used pair")

	quad := pool.CheckOutAligned(4, 4)
	require.Equal(t, 4, quad.First)

	pool.CheckIn(odd)
	pool.CheckIn(pair)
	pool.CheckIn(quad)
}

func TestPool_Exhaustion(t *testing.T) {
	pool := NewPool("sgpr", 4)
	pool.CheckOut(3)
	require.Panics(t, func() { pool.CheckOut(2) })

	// One register is still free, fragmentation aside.
	last := pool.CheckOut(1)
	require.Equal(t, 3, last.First)
}

func TestPool_CheckInValidation(t *testing.T) {
	pool := NewPool("vgpr", 8)
	c := pool.CheckOut(2)
	pool.CheckIn(c)
	require.Panics(t, func() { pool.CheckIn(c) }, "double check-in")
	require.Panics(t, func() { pool.CheckIn(Checkout{First: 5, N: 1}) }, "foreign check-in")

	// The zero checkout is always accepted, so optional registers can be
	// released unconditionally.
	assert.NotPanics(t, func() { pool.CheckIn(Checkout{}) })
}
