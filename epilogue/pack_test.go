package epilogue

import (
	"math"
	"testing"

	"github.com/gcnforge/gcnforge/isa"
	"github.com/gomlx/gopjrt/dtypes"
	"github.com/gomlx/gopjrt/dtypes/bfloat16"
	"github.com/stretchr/testify/assert"
	"github.com/x448/float16"
)

func TestEmitInt8PackRoundsAndSaturates(t *testing.T) {
	cfg := testConfig(32)
	cfg.DestType = dtypes.Int8
	r := newRig(t, cfg)
	plan := r.plan(1, 4)

	// Round-to-nearest-even first, then saturate to the byte range.
	vals := []float32{300.25, -200.5, 2.5, 3.5}
	for vi, v := range vals {
		for lane := 0; lane < r.lanes; lane++ {
			r.m.SetVGPRF32(rigSum+vi, lane, v)
		}
	}

	args := r.args()
	args.Cvt.Fp8Max = isa.VGPR(rigCvt)
	args.Cvt.Fp8Min = isa.VGPR(rigCvt + 1)
	for lane := 0; lane < r.lanes; lane++ {
		r.m.SetVGPR(rigCvt, lane, 127)
		r.m.SetVGPR(rigCvt+1, lane, uint32(0xffffff80)) // -128
	}
	r.run(plan, args)

	// 300.25 -> 127, -200.5 -> -128, 2.5 -> 2, 3.5 -> 4.
	for lane := 0; lane < r.lanes; lane++ {
		assert.Equal(t, uint32(0x0402807f), r.bufD.U32(off(lane, 0, 0)), "lane %d", lane)
	}
}

func TestEmitBFloat16PackRoundsToNearestEven(t *testing.T) {
	cfg := testConfig(32)
	cfg.DestType = dtypes.BFloat16
	r := newRig(t, cfg)
	plan := r.plan(1, 2)

	tieToEven := math.Float32frombits(0x3f808000) // exactly halfway, even mantissa below
	tieUp := math.Float32frombits(0x3f818000)     // exactly halfway, odd mantissa below
	for lane := 0; lane < r.lanes; lane++ {
		r.m.SetVGPRF32(rigSum, lane, tieToEven)
		r.m.SetVGPRF32(rigSum+1, lane, tieUp)
	}
	const nanLane = 5
	r.m.SetVGPR(rigSum, nanLane, 0x7fc00123) // quiet NaN with a payload

	args := r.args()
	args.Cvt.Bf16Temp = isa.VGPR(rigCvt)
	args.Cvt.Bf16Mask = isa.VGPR(rigCvt + 1)
	args.Cvt.F32Nan = isa.VGPR(rigCvt + 2)
	args.Cvt.Bf16Inc = isa.VGPR(rigCvt + 3)
	for lane := 0; lane < r.lanes; lane++ {
		r.m.SetVGPR(rigCvt+1, lane, 0xffff0000)
		r.m.SetVGPR(rigCvt+2, lane, 0x7fff0000)
		r.m.SetVGPR(rigCvt+3, lane, 0x7fff)
	}
	r.run(plan, args)

	for lane := 0; lane < r.lanes; lane++ {
		want := uint32(0x3f82_3f80)
		if lane == nanLane {
			want = 0x3f82_7fff // NaN narrows to the quiet-NaN pattern
		}
		assert.Equal(t, want, r.bufD.U32(off(lane, 0, 0)), "lane %d", lane)
	}
}

func TestEmitHalfPackWithMixedBeta(t *testing.T) {
	cfg := testConfig(32)
	cfg.DestType = dtypes.Float16
	cfg.HighPrecisionAccumulate = true
	cfg.Caps.HasFmaMixF32 = true
	r := newRig(t, cfg)
	plan := withData(r.plan(1, 2))

	cLo := float16.Fromfloat32(4.5)
	cHi := float16.Fromfloat32(-1.25)
	acc := []float32{1.5, 2.25}
	for lane := 0; lane < r.lanes; lane++ {
		r.bufC.SetU32(off(lane, 0, 0), uint32(cHi.Bits())<<16|uint32(cLo.Bits()))
		r.m.SetVGPRF32(rigSum, lane, acc[0])
		r.m.SetVGPRF32(rigSum+1, lane, acc[1])
	}
	r.m.SetSGPR(rigBeta, f32bits(0.5))

	args := r.args()
	args.Beta = true
	r.run(plan, args)

	// The blend runs in float32 through the mixed-precision fused
	// multiply-add, then narrows both values into one register.
	wantLo := float16.Fromfloat32(acc[0] + 0.5*cLo.Float32())
	wantHi := float16.Fromfloat32(acc[1] + 0.5*cHi.Float32())
	want := uint32(wantHi.Bits())<<16 | uint32(wantLo.Bits())
	for lane := 0; lane < r.lanes; lane++ {
		assert.Equal(t, want, r.bufD.U32(off(lane, 0, 0)), "lane %d", lane)
	}
}

func TestEmitBFloat16BetaBlendsStoredPairs(t *testing.T) {
	cfg := testConfig(32)
	cfg.DestType = dtypes.BFloat16
	r := newRig(t, cfg)
	plan := withData(r.plan(1, 2))

	// C values and blend results are exactly representable, so the blend
	// round-trips bit-exact through the rounding pack.
	cLo := bfloat16.FromFloat32(4.5)
	cHi := bfloat16.FromFloat32(-1.25)
	acc := []float32{1.5, 2.25}
	for lane := 0; lane < r.lanes; lane++ {
		r.bufC.SetU32(off(lane, 0, 0), uint32(cHi.Bits())<<16|uint32(cLo.Bits()))
		r.m.SetVGPRF32(rigSum, lane, acc[0])
		r.m.SetVGPRF32(rigSum+1, lane, acc[1])
	}
	r.m.SetSGPR(rigBeta, f32bits(0.5))

	args := r.args()
	args.Beta = true
	args.Cvt.Bf16Temp = isa.VGPR(rigCvt)
	args.Cvt.Bf16Mask = isa.VGPR(rigCvt + 1)
	args.Cvt.F32Nan = isa.VGPR(rigCvt + 2)
	args.Cvt.Bf16Inc = isa.VGPR(rigCvt + 3)
	for lane := 0; lane < r.lanes; lane++ {
		r.m.SetVGPR(rigCvt+1, lane, 0xffff0000)
		r.m.SetVGPR(rigCvt+2, lane, 0x7fff0000)
		r.m.SetVGPR(rigCvt+3, lane, 0x7fff)
	}
	r.run(plan, args)

	wantLo := bfloat16.FromFloat32(acc[0] + 0.5*cLo.Float32())
	wantHi := bfloat16.FromFloat32(acc[1] + 0.5*cHi.Float32())
	want := uint32(wantHi.Bits())<<16 | uint32(wantLo.Bits())
	for lane := 0; lane < r.lanes; lane++ {
		assert.Equal(t, want, r.bufD.U32(off(lane, 0, 0)), "lane %d", lane)
	}
}

// float8Cvt seeds the clamp and class registers of the 8-bit float pack for
// the e4m3 format and returns the argument block.
func (r *rig) float8Cvt(args *BatchArgs) {
	args.Cvt.Fp8NanInf = isa.VGPR(rigCvt)
	args.Cvt.Fp8Max = isa.VGPR(rigCvt + 1)
	args.Cvt.Fp8Min = isa.VGPR(rigCvt + 2)
	for lane := 0; lane < r.lanes; lane++ {
		r.m.SetVGPR(rigCvt, lane, 0x207)        // NaN and Inf class bits
		r.m.SetVGPR(rigCvt+1, lane, 0x43700000) // +240
		r.m.SetVGPR(rigCvt+2, lane, 0xc3700000) // -240
	}
}

func TestEmitFloat8PackClampsAndKeepsNaN(t *testing.T) {
	cfg := testConfig(32)
	cfg.DestType = dtypes.F8E4M3FNUZ
	r := newRig(t, cfg)
	plan := r.plan(1, 2)

	// Lane 0 holds exactly representable values, lane 1 saturates both
	// ways, lane 2 narrows a NaN and a zero.
	seed := [][2]float32{
		{96, -0.5},
		{300, -300},
		{float32(math.NaN()), 0},
	}
	for lane, vals := range seed {
		r.m.SetVGPRF32(rigSum, lane, vals[0])
		r.m.SetVGPRF32(rigSum+1, lane, vals[1])
	}

	args := r.args()
	r.float8Cvt(&args)
	r.run(plan, args)

	want := [][2]byte{
		{0x74, 0xb8}, // 96, -0.5
		{0x7f, 0xff}, // clamped to +240/-240, the largest finite encodings
		{0x80, 0x00}, // NaN, +0
	}
	for lane, bytes := range want {
		base := off(lane, 0, 0)
		assert.Equal(t, bytes[0], r.bufD.Data[base], "lane %d byte 0", lane)
		assert.Equal(t, bytes[1], r.bufD.Data[base+1], "lane %d byte 1", lane)
	}
}

func TestEmitFloat8BetaDecodesStoredBytes(t *testing.T) {
	cfg := testConfig(32)
	cfg.DestType = dtypes.F8E4M3FNUZ
	r := newRig(t, cfg)
	plan := withData(r.plan(1, 2))

	// C holds 96 and -0.5 in e4m3; picked so beta*C + acc is exactly
	// representable again.
	for lane := 0; lane < r.lanes; lane++ {
		r.bufC.Data[off(lane, 0, 0)] = 0x74
		r.bufC.Data[off(lane, 0, 0)+1] = 0xb8
		r.m.SetVGPRF32(rigSum, lane, 4)
		r.m.SetVGPRF32(rigSum+1, lane, 0.25)
	}
	r.m.SetSGPR(rigBeta, f32bits(0.5))

	args := r.args()
	args.Beta = true
	r.float8Cvt(&args)
	r.run(plan, args)

	for lane := 0; lane < r.lanes; lane++ {
		base := off(lane, 0, 0)
		assert.Equal(t, byte(0x6d), r.bufD.Data[base], "4 + 0.5*96 = 52, lane %d", lane)
		assert.Equal(t, byte(0x00), r.bufD.Data[base+1], "0.25 + 0.5*-0.5 = 0, lane %d", lane)
	}
}
