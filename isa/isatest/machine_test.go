package isatest

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gcnforge/gcnforge/isa"
)

// testSRD is the scalar quad the tests bind their buffer to.
const testSRD = 4

func loadB32(dst, vaddr isa.Reg, soffset int) *isa.Inst {
	return isa.BufferLoad(isa.OpcodeBufferLoadB32, dst, vaddr, isa.SGPRn(testSRD, 4),
		isa.ImmInt(soffset), isa.MUBUF{Offen: true})
}

func storeB32(src, vaddr isa.Reg, soffset int) *isa.Inst {
	return isa.BufferStore(isa.OpcodeBufferStoreB32, src, vaddr, isa.SGPRn(testSRD, 4),
		isa.ImmInt(soffset), isa.MUBUF{Offen: true})
}

func TestNewValidatesWavefrontSize(t *testing.T) {
	assert.Panics(t, func() { New(0) })
	assert.Panics(t, func() { New(16) })
	assert.Panics(t, func() { New(128) })

	assert.Equal(t, uint64(0xffffffff), New(32).Exec)
	assert.Equal(t, ^uint64(0), New(64).Exec)
}

func TestBufferLoadStoreRoundtrip(t *testing.T) {
	m := New(32)
	buf := NewBuffer("d", 32*4)
	m.BindBuffer(testSRD, buf)
	for lane := 0; lane < 32; lane++ {
		m.SetVGPR(0, lane, uint32(lane*4))
		buf.SetU32(lane*4, uint32(lane*10))
	}

	mod := isa.NewModule("roundtrip")
	mod.Add(
		loadB32(isa.VGPR(1), isa.VGPR(0), 0),
		isa.SWaitcnt(0, -1),
		isa.VAddU32(isa.VGPR(2), isa.VGPR(1), isa.ImmInt(1)),
		storeB32(isa.VGPR(2), isa.VGPR(0), 0),
	)
	require.NoError(t, m.Run(mod))

	for lane := 0; lane < 32; lane++ {
		assert.Equal(t, uint32(lane*10), m.VGPR(1, lane), "lane %d", lane)
		assert.Equal(t, uint32(lane*10+1), buf.U32(lane*4), "lane %d", lane)
	}
}

// Accesses past the buffer's bound follow the descriptor's range check:
// loads return zero, stores vanish without faulting.
func TestBufferOutOfRangeAccess(t *testing.T) {
	m := New(32)
	buf := NewBuffer("d", 8*4)
	m.BindBuffer(testSRD, buf)
	for lane := 0; lane < 32; lane++ {
		m.SetVGPR(0, lane, uint32(lane*4))
		m.SetVGPR(1, lane, 0xdeadbeef)
		m.SetVGPR(2, lane, uint32(lane+100))
	}
	for lane := 0; lane < 8; lane++ {
		buf.SetU32(lane*4, uint32(lane+1))
	}

	mod := isa.NewModule("edge")
	mod.Add(
		loadB32(isa.VGPR(1), isa.VGPR(0), 0),
		isa.SWaitcnt(0, -1),
		storeB32(isa.VGPR(2), isa.VGPR(0), 0),
	)
	require.NoError(t, m.Run(mod))

	for lane := 0; lane < 8; lane++ {
		assert.Equal(t, uint32(lane+1), m.VGPR(1, lane), "lane %d", lane)
		assert.Equal(t, uint32(lane+100), buf.U32(lane*4), "lane %d", lane)
	}
	for lane := 8; lane < 32; lane++ {
		assert.Zero(t, m.VGPR(1, lane), "out-of-range load must return zero, lane %d", lane)
	}
}

func TestHazardOnUnretiredLoad(t *testing.T) {
	build := func(between ...isa.Item) (*Machine, *isa.Module) {
		m := New(32)
		m.BindBuffer(testSRD, NewBuffer("d", 32*4))
		mod := isa.NewModule("hazard")
		mod.Add(loadB32(isa.VGPR(1), isa.VGPR(0), 0))
		mod.Add(between...)
		mod.Add(isa.VMovB32(isa.VGPR(2), isa.VGPR(1)))
		return m, mod
	}

	t.Run("read before the wait", func(t *testing.T) {
		m, mod := build()
		err := m.Run(mod)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "touched before")
	})

	t.Run("overwrite before the wait", func(t *testing.T) {
		m, mod := build(isa.VMovB32(isa.VGPR(1), isa.ImmInt(0)))
		err := m.Run(mod)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "touched before")
	})

	t.Run("covered by the wait", func(t *testing.T) {
		m, mod := build(isa.SWaitcnt(0, -1))
		assert.NoError(t, m.Run(mod))
	})
}

// A partial wait lands only the oldest entries; the younger load's
// destination keeps its stale content.
func TestWaitRetiresOldestFirst(t *testing.T) {
	m := New(32)
	buf := NewBuffer("d", 256+32*4)
	m.BindBuffer(testSRD, buf)
	for lane := 0; lane < 32; lane++ {
		m.SetVGPR(0, lane, uint32(lane*4))
		m.SetVGPR(2, lane, 9)
		buf.SetU32(lane*4, uint32(lane+1))
		buf.SetU32(256+lane*4, uint32(lane+1000))
	}

	mod := isa.NewModule("partial")
	mod.Add(
		loadB32(isa.VGPR(1), isa.VGPR(0), 0),
		loadB32(isa.VGPR(2), isa.VGPR(0), 256),
		isa.SWaitcnt(1, -1),
		isa.VMovB32(isa.VGPR(3), isa.VGPR(1)),
	)
	require.NoError(t, m.Run(mod))

	for lane := 0; lane < 32; lane++ {
		assert.Equal(t, uint32(lane+1), m.VGPR(3, lane), "lane %d", lane)
		assert.Equal(t, uint32(9), m.VGPR(2, lane), "younger load must stay pending, lane %d", lane)
	}
}

// A load issued with no active lanes still occupies a counter slot, it just
// writes nothing back when it retires. Waits that count such entries must
// behave exactly like on hardware.
func TestInactiveLoadStillCounts(t *testing.T) {
	m := New(32)
	buf := NewBuffer("d", 32*4)
	m.BindBuffer(testSRD, buf)
	for lane := 0; lane < 32; lane++ {
		m.SetVGPR(0, lane, uint32(lane*4))
		m.SetVGPR(1, lane, 0xaaaa)
		buf.SetU32(lane*4, uint32(lane+1))
	}

	mod := isa.NewModule("masked")
	mod.Add(
		isa.SMovB32(isa.Exec, isa.ImmInt(0)),
		loadB32(isa.VGPR(1), isa.VGPR(0), 0),
		isa.SMovB32(isa.Exec, isa.HexImm(0xffffffff)),
		loadB32(isa.VGPR(2), isa.VGPR(0), 0),
		isa.SWaitcnt(1, -1),
		isa.VMovB32(isa.VGPR(3), isa.VGPR(1)),
		isa.SWaitcnt(0, -1),
	)
	require.NoError(t, m.Run(mod))

	for lane := 0; lane < 32; lane++ {
		assert.Equal(t, uint32(0xaaaa), m.VGPR(1, lane), "masked load must not write back, lane %d", lane)
		assert.Equal(t, uint32(0xaaaa), m.VGPR(3, lane), "lane %d", lane)
		assert.Equal(t, uint32(lane+1), m.VGPR(2, lane), "lane %d", lane)
	}
}

func TestBufferAtomicCmpswap(t *testing.T) {
	m := New(32)
	buf := NewBuffer("d", 32*4)
	m.BindBuffer(testSRD, buf)
	for lane := 0; lane < 32; lane++ {
		m.SetVGPR(0, lane, uint32(lane*4))
		buf.SetU32(lane*4, uint32(lane))
		m.SetVGPR(2, lane, uint32(lane+100)) // replacement
		expected := uint32(lane)
		if lane%2 == 1 {
			expected += 50 // stale comparand, the swap must not land
		}
		m.SetVGPR(3, lane, expected)
	}
	var hooked int
	m.OnAtomic = func(inst *isa.Inst) {
		hooked++
		assert.Equal(t, isa.OpcodeBufferAtomicCmpswapB32, inst.Op)
	}

	mod := isa.NewModule("cas")
	mod.Add(
		isa.BufferAtomic(isa.OpcodeBufferAtomicCmpswapB32, isa.VGPRn(2, 2), isa.VGPR(0),
			isa.SGPRn(testSRD, 4), isa.ImmInt(0), isa.MUBUF{Offen: true, GLC: true}),
		isa.SWaitcnt(0, -1),
	)
	require.NoError(t, m.Run(mod))

	assert.Equal(t, 1, hooked)
	assert.Equal(t, 1, m.Atomics())
	for lane := 0; lane < 32; lane++ {
		assert.Equal(t, uint32(lane), m.VGPR(2, lane), "return slot holds the pre-swap value, lane %d", lane)
		want := uint32(lane + 100)
		if lane%2 == 1 {
			want = uint32(lane)
		}
		assert.Equal(t, want, buf.U32(lane*4), "lane %d", lane)
	}
}

func TestBufferAtomicAddF32(t *testing.T) {
	m := New(32)
	buf := NewBuffer("d", 32*4)
	m.BindBuffer(testSRD, buf)
	for lane := 0; lane < 32; lane++ {
		m.SetVGPR(0, lane, uint32(lane*4))
		m.SetVGPRF32(1, lane, float32(lane))
		buf.SetF32(lane*4, 0.5)
	}

	mod := isa.NewModule("atomic add")
	mod.Add(
		isa.BufferAtomic(isa.OpcodeBufferAtomicAddF32, isa.VGPR(1), isa.VGPR(0),
			isa.SGPRn(testSRD, 4), isa.ImmInt(0), isa.MUBUF{Offen: true}),
		isa.SWaitcnt(0, -1),
	)
	require.NoError(t, m.Run(mod))

	assert.Equal(t, 1, m.Atomics())
	for lane := 0; lane < 32; lane++ {
		assert.Equal(t, float32(lane)+0.5, buf.F32(lane*4), "lane %d", lane)
		// Without GLC nothing returns, the operand register is untouched.
		assert.Equal(t, float32(lane), m.VGPRF32(1, lane), "lane %d", lane)
	}
}

func TestFlatAddressing(t *testing.T) {
	const base = uint64(1) << 32
	m := New(32)
	buf := NewBuffer("d", 32*4)
	m.MapFlat(base, buf)
	for lane := 0; lane < 32; lane++ {
		m.SetVGPR(0, lane, uint32(lane*4))
		m.SetVGPR(1, lane, uint32(base>>32))
		m.SetVGPRF32(3, lane, float32(lane)+0.25)
		buf.SetU32(lane*4, uint32(lane*3))
	}

	mod := isa.NewModule("flat")
	mod.Add(
		isa.FlatLoad(isa.OpcodeFlatLoadB32, isa.VGPR(2), isa.VGPRn(0, 2), false),
		isa.SWaitcnt(0, -1),
		isa.FlatStore(isa.OpcodeFlatStoreB32, isa.VGPRn(0, 2), isa.VGPR(3), false),
	)
	require.NoError(t, m.Run(mod))

	for lane := 0; lane < 32; lane++ {
		assert.Equal(t, uint32(lane*3), m.VGPR(2, lane), "lane %d", lane)
		assert.Equal(t, float32(lane)+0.25, buf.F32(lane*4), "lane %d", lane)
	}
}

func TestFlatUnmappedAddressFaults(t *testing.T) {
	m := New(32)
	m.MapFlat(1<<32, NewBuffer("d", 32*4))
	for lane := 0; lane < 32; lane++ {
		m.SetVGPR(0, lane, uint32(lane*4))
		m.SetVGPR(1, lane, 2) // points past the mapped region
	}

	mod := isa.NewModule("stray")
	mod.Add(isa.FlatLoad(isa.OpcodeFlatLoadB32, isa.VGPR(2), isa.VGPRn(0, 2), false))
	err := m.Run(mod)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unmapped")
}

func TestLocalShareRoundtrip(t *testing.T) {
	m := New(32)
	for lane := 0; lane < 32; lane++ {
		m.SetVGPR(0, lane, uint32(lane*8))
		m.SetVGPR(1, lane, uint32(lane+13))
	}

	mod := isa.NewModule("lds")
	mod.Add(
		isa.DsStore(isa.OpcodeDsStoreB32, isa.VGPR(0), isa.VGPR(1), 4),
		isa.SWaitcnt(-1, 0),
		isa.DsLoad(isa.OpcodeDsLoadB32, isa.VGPR(2), isa.VGPR(0), 4),
		isa.SWaitcnt(-1, 0),
	)
	require.NoError(t, m.Run(mod))

	lds := m.LDS()
	for lane := 0; lane < 32; lane++ {
		assert.Equal(t, uint32(lane+13), m.VGPR(2, lane), "lane %d", lane)
		assert.Equal(t, byte(lane+13), lds[lane*8+4], "lane %d", lane)
	}
}

func TestLocalShareOutOfRangeFaults(t *testing.T) {
	m := New(32)
	for lane := 0; lane < 32; lane++ {
		m.SetVGPR(0, lane, 64<<10-2)
	}

	mod := isa.NewModule("lds oob")
	mod.Add(isa.DsStore(isa.OpcodeDsStoreB32, isa.VGPR(0), isa.VGPR(1), 0))
	err := m.Run(mod)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "outside")
}

// Compare results land in the full mask with inactive lanes zeroed, the way
// the hardware writes VCC.
func TestCompareZeroesInactiveLanes(t *testing.T) {
	m := New(32)
	m.Exec = 0xf
	for lane := 0; lane < 32; lane++ {
		m.SetVGPR(0, lane, uint32(lane))
	}

	mod := isa.NewModule("compare")
	mod.Add(isa.VCmpNeU32(isa.VCC, isa.VGPR(0), isa.ImmInt(999)))
	require.NoError(t, m.Run(mod))
	assert.Equal(t, uint64(0xf), m.VCC)
}

func TestBranching(t *testing.T) {
	t.Run("backward branch loops until vcc clears", func(t *testing.T) {
		m := New(32)
		mod := isa.NewModule("loop")
		mod.Add(
			isa.NewLabel("again"),
			isa.VAddU32(isa.VGPR(1), isa.VGPR(1), isa.ImmInt(1)),
			isa.VCmpGtU32(isa.VCC, isa.ImmInt(5), isa.VGPR(1)),
			isa.SCbranchVccnz("again"),
		)
		require.NoError(t, m.Run(mod))
		assert.Zero(t, m.VCC)
		for lane := 0; lane < 32; lane++ {
			assert.Equal(t, uint32(5), m.VGPR(1, lane), "lane %d", lane)
		}
	})

	t.Run("execz skips scalar work", func(t *testing.T) {
		// Scalar ops ignore exec, only the branch keeps them out.
		m := New(32)
		mod := isa.NewModule("skip")
		mod.Add(
			isa.SMovB32(isa.Exec, isa.ImmInt(0)),
			isa.SCbranchExecz("done"),
			isa.SMovB32(isa.SGPR(10), isa.ImmInt(99)),
			isa.NewLabel("done"),
			isa.SMovB32(isa.Exec, isa.HexImm(0xffffffff)),
		)
		require.NoError(t, m.Run(mod))
		assert.Zero(t, m.SGPR(10))
		assert.Equal(t, uint64(0xffffffff), m.Exec)
	})

	t.Run("undefined label", func(t *testing.T) {
		m := New(32)
		mod := isa.NewModule("bad")
		mod.Add(isa.SBranch("nowhere"))
		err := m.Run(mod)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "undefined label")
	})
}

func TestRunawayStreamStops(t *testing.T) {
	m := New(32)
	mod := isa.NewModule("spin")
	mod.Add(
		isa.NewLabel("spin"),
		isa.SBranch("spin"),
	)
	err := m.Run(mod)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "did not terminate")
}

func TestScalarMaskWidthMismatch(t *testing.T) {
	t.Run("narrow exec write on a wide wavefront", func(t *testing.T) {
		m := New(64)
		mod := isa.NewModule("w")
		mod.Add(isa.SMovB32(isa.Exec, isa.ImmInt(0)))
		err := m.Run(mod)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "64-lane wavefront")
	})

	t.Run("wide exec write on a wide wavefront", func(t *testing.T) {
		m := New(64)
		m.SetSGPR(0, 0xffffffff)
		m.SetSGPR(1, 0x0000ffff)
		mod := isa.NewModule("w")
		mod.Add(isa.SMovB64(isa.Exec, isa.SGPRn(0, 2)))
		require.NoError(t, m.Run(mod))
		assert.Equal(t, uint64(0x0000ffff_ffffffff), m.Exec)
	})
}

func TestStoreCounterNeedsCapability(t *testing.T) {
	t.Run("rejected without the separate counter", func(t *testing.T) {
		m := New(32)
		mod := isa.NewModule("vs")
		mod.Add(isa.SWaitcntVscnt(0))
		err := m.Run(mod)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "separate store counter")
	})

	t.Run("accepted with it", func(t *testing.T) {
		m := New(32)
		m.SeparateVscnt = true
		m.BindBuffer(testSRD, NewBuffer("d", 32*4))
		mod := isa.NewModule("vs")
		mod.Add(
			storeB32(isa.VGPR(1), isa.VGPR(0), 0),
			isa.SWaitcntVscnt(0),
		)
		assert.NoError(t, m.Run(mod))
	})
}

func TestTrapAndSubroutineErrors(t *testing.T) {
	m := New(32)
	mod := isa.NewModule("trap")
	mod.Add(isa.STrap(2))
	err := m.Run(mod)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "trap")

	m = New(32)
	mod = isa.NewModule("call")
	mod.Add(isa.SSwappcB64(isa.SGPRn(10, 2), isa.SGPRn(12, 2)))
	err = m.Run(mod)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "subroutine calls are not modeled")
}

func TestModifierRejection(t *testing.T) {
	t.Run("sub-dword addressing on a plain op", func(t *testing.T) {
		m := New(32)
		mod := isa.NewModule("sdwa")
		mod.Add(isa.VAddF32(isa.VGPR(1), isa.VGPR(0), isa.VGPR(0)).
			WithSDWA(isa.SDWA{Src0Sel: isa.SelByte0}))
		err := m.Run(mod)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "not modeled")
	})

	t.Run("word selector on a byte convert", func(t *testing.T) {
		m := New(32)
		mod := isa.NewModule("sel")
		mod.Add(isa.VCvtF32Fp8(isa.VGPR(1), isa.VGPR(0)).
			WithSDWA(isa.SDWA{Src0Sel: isa.SelWord0}))
		err := m.Run(mod)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "byte selector")
	})
}

func TestFloat8ConvertInstructions(t *testing.T) {
	m := New(32)
	for lane := 0; lane < 32; lane++ {
		m.SetVGPR(0, lane, 0x0000b874) // -0.5 in byte 1, 96 in byte 0
		m.SetVGPRF32(5, lane, 240)
		m.SetVGPRF32(6, lane, -240)
		m.SetVGPR(7, lane, 0xaaaa5555)
		m.SetVGPR(8, lane, 0x12345678)
		m.SetVGPR(9, lane, 0x40) // 1.0 in the bfloat8 encoding
	}

	mod := isa.NewModule("fp8")
	mod.Add(
		isa.VCvtF32Fp8(isa.VGPR(1), isa.VGPR(0)).WithSDWA(isa.SDWA{Src0Sel: isa.SelByte0}),
		isa.VCvtF32Fp8(isa.VGPR(2), isa.VGPR(0)).WithSDWA(isa.SDWA{Src0Sel: isa.SelByte1}),
		isa.VCvtPkF32Fp8(isa.VGPRn(3, 2), isa.VGPR(0)).WithSDWA(isa.SDWA{Src0Sel: isa.SelWord0}),
		isa.VCvtPkFp8F32(isa.VGPR(7), isa.VGPR(5), isa.VGPR(6)),
		isa.VCvtPkFp8F32(isa.VGPR(8), isa.VGPR(5), isa.VGPR(6)).WithOpSel([]uint8{0, 0, 1}, nil),
		isa.VCvtF32Bf8(isa.VGPR(10), isa.VGPR(9)).WithSDWA(isa.SDWA{Src0Sel: isa.SelByte0}),
	)
	require.NoError(t, m.Run(mod))

	for lane := 0; lane < 32; lane++ {
		assert.Equal(t, float32(96), m.VGPRF32(1, lane), "lane %d", lane)
		assert.Equal(t, float32(-0.5), m.VGPRF32(2, lane), "lane %d", lane)
		assert.Equal(t, float32(96), m.VGPRF32(3, lane), "lane %d", lane)
		assert.Equal(t, float32(-0.5), m.VGPRF32(4, lane), "lane %d", lane)
		assert.Equal(t, uint32(0xaaaaff7f), m.VGPR(7, lane), "low word replaced, lane %d", lane)
		assert.Equal(t, uint32(0xff7f5678), m.VGPR(8, lane), "high word replaced, lane %d", lane)
		assert.Equal(t, float32(1), m.VGPRF32(10, lane), "lane %d", lane)
	}
}

func TestFloat8Codec(t *testing.T) {
	cases := []struct {
		v    float32
		code uint8
	}{
		{0, 0x00},
		{0.5, 0x38},
		{-0.5, 0xb8},
		{52, 0x6d},
		{96, 0x74},
		{240, 0x7f},
		{-240, 0xff},
		{1.0 / 1024, 0x01}, // smallest subnormal
	}
	for _, c := range cases {
		assert.Equal(t, c.code, fp8Encode(c.v, false), "encode %v", c.v)
		assert.Equal(t, c.v, fp8Decode(c.code, false), "decode %#x", c.code)
	}

	// Ties round to the even mantissa, magnitudes past the range saturate
	// and there is no negative zero.
	assert.Equal(t, uint8(0x74), fp8Encode(100, false))
	assert.Equal(t, uint8(0x7f), fp8Encode(1e6, false))
	assert.Equal(t, uint8(0xff), fp8Encode(float32(math.Inf(-1)), false))
	assert.Equal(t, uint8(0x00), fp8Encode(float32(math.Copysign(0, -1)), false))

	// The single NaN code replaces the infinity encodings.
	assert.Equal(t, uint8(0x80), fp8Encode(float32(math.NaN()), false))
	assert.True(t, math.IsNaN(float64(fp8Decode(0x80, false))))

	// The five-exponent variant trades mantissa bits for range.
	assert.Equal(t, uint8(0x40), fp8Encode(1, true))
	assert.Equal(t, float32(1), fp8Decode(0x40, true))
	assert.Equal(t, uint8(0x7f), fp8Encode(57344, true))
	assert.Equal(t, float32(57344), fp8Decode(0x7f, true))
	assert.Equal(t, uint8(0x7f), fp8Encode(60000, true))
}
