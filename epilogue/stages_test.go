package epilogue

import (
	"testing"

	"github.com/gcnforge/gcnforge/isa"
	"github.com/gcnforge/gcnforge/isa/isatest"
	"github.com/gcnforge/gcnforge/kernel"
	"github.com/gomlx/gopjrt/dtypes"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/x448/float16"
)

func TestEmitScaleAlphaVector(t *testing.T) {
	for _, tc := range []struct {
		name    string
		present bool
		factor  float32
	}{
		{"vector present", true, 3},
		{"zero length vector defaults to one", false, 1},
	} {
		t.Run(tc.name, func(t *testing.T) {
			cfg := testConfig(32)
			cfg.UseScaleAlphaVec = true
			r := newRig(t, cfg)
			plan := r.plan(2, 2)
			for i := range plan.Elements {
				plan.Elements[i].DataScaleAlpha = rigAux + 2*i
			}
			r.seedAcc(plan)
			r.m.SetSGPR(rigAlpha, f32bits(2))

			// The scale tensor is seeded either way; the guard decides
			// from the descriptor's record count whether the loaded
			// values apply or degrade to 1.0.
			for i := 0; i < 2; i++ {
				for vi := 0; vi < 2; vi++ {
					for lane := 0; lane < r.lanes; lane++ {
						r.bufScale.SetF32(off(lane, i, vi), 3)
					}
				}
			}
			if tc.present {
				r.m.SetSGPR(rigSrdScale+2, uint32(r.lanes*laneBytes))
			}

			args := r.args()
			args.ApplyAlpha = true
			r.run(plan, args)

			for lane := 0; lane < r.lanes; lane++ {
				for i := 0; i < 2; i++ {
					for vi := 0; vi < 2; vi++ {
						want := 2 * tc.factor * r.accVal(i, vi, lane)
						assert.Equal(t, want, r.bufD.F32(off(lane, i, vi)),
							"element %d value %d lane %d", i, vi, lane)
					}
				}
			}
		})
	}
}

func TestEmitBiasReadFromLocalShare(t *testing.T) {
	cfg := testConfig(32)
	cfg.Bias = kernel.BiasRead
	r := newRig(t, cfg)
	plan := r.plan(1, 2)
	plan.Elements[0].DataBias = rigAux
	plan.Elements[0].Addr.(*planAddr).ldsV = rigLDS
	r.seedAcc(plan)
	r.m.SetSGPR(rigAlpha, f32bits(2))

	lds := &isatest.Buffer{Name: "lds", Data: r.m.LDS()}
	biasVal := func(lane, vi int) float32 { return float32(lane) + float32(vi)/4 + 0.25 }
	for lane := 0; lane < r.lanes; lane++ {
		for vi := 0; vi < 2; vi++ {
			lds.SetF32(lane*8+4*vi, biasVal(lane, vi))
		}
	}

	args := r.args()
	args.ApplyAlpha = true
	latch := false
	args.BiasLDSBarrierDone = &latch

	mod := r.run(plan, args)
	assert.True(t, latch, "barrier latch flips on first use")
	assert.Equal(t, 1, countOp(mod, isa.OpcodeSBarrier), "bias tile published once")
	for lane := 0; lane < r.lanes; lane++ {
		for vi := 0; vi < 2; vi++ {
			want := 2*r.accVal(0, vi, lane) + biasVal(lane, vi)
			assert.Equal(t, want, r.bufD.F32(off(lane, 0, vi)), "value %d lane %d", vi, lane)
		}
	}

	// Later batches find the latch flipped and skip the barrier.
	args.BatchIdx = 1
	plan.FirstBatch = false
	mod = r.run(plan, args)
	assert.Zero(t, countOp(mod, isa.OpcodeSBarrier))
}

func TestEmitAuxiliaryStoreBeforeActivation(t *testing.T) {
	cfg := testConfig(32)
	cfg.UseE = true
	cfg.DataTypeE = dtypes.Float32
	cfg.Activation = kernel.ActivationRelu
	r := newRig(t, cfg)
	r.deps.Activation = reluAct{}
	plan := r.plan(2, 2)
	r.seedAcc(plan)
	// Odd lanes hold negative values, so the activation output differs
	// from the auxiliary store.
	for i, e := range plan.Elements {
		for vi := 0; vi < 2; vi++ {
			for lane := 1; lane < r.lanes; lane += 2 {
				r.m.SetVGPRF32(e.SumIdx+vi, lane, -r.accVal(i, vi, lane))
			}
		}
	}
	r.m.SetSGPR(rigAlpha, f32bits(2))

	args := r.args()
	args.ApplyAlpha = true
	mod := r.run(plan, args)

	stats := mod.Stats()
	assert.Equal(t, 0, stats.VMemLoads)
	assert.Equal(t, 4, stats.VMemStores, "one auxiliary and one output store per element")
	for lane := 0; lane < r.lanes; lane++ {
		for i := 0; i < 2; i++ {
			for vi := 0; vi < 2; vi++ {
				pre := 2 * r.accVal(i, vi, lane)
				if lane%2 == 1 {
					pre = -pre
				}
				post := pre
				if post < 0 {
					post = 0
				}
				assert.Equal(t, pre, r.bufE.F32(off(lane, i, vi)),
					"auxiliary tensor keeps pre-activation values, element %d value %d lane %d", i, vi, lane)
				assert.Equal(t, post, r.bufD.F32(off(lane, i, vi)),
					"output is activated, element %d value %d lane %d", i, vi, lane)
			}
		}
	}
}

func TestEmitGradientActivationMasksByInput(t *testing.T) {
	cfg := testConfig(32)
	cfg.Gradient = true
	cfg.UseE = true
	cfg.DataTypeE = dtypes.Float32
	cfg.Activation = kernel.ActivationRelu
	r := newRig(t, cfg)
	r.deps.Activation = reluAct{}
	plan := r.plan(2, 2)
	for i := range plan.Elements {
		plan.Elements[i].DataE = rigAux + 2*i
	}
	r.seedAcc(plan)
	r.m.SetSGPR(rigAlpha, f32bits(2))

	// The stored activation inputs straddle zero, never hitting it.
	eVal := func(i, vi, lane int) float32 { return float32(lane) - 15.5 + float32(vi) }
	for i := 0; i < 2; i++ {
		for vi := 0; vi < 2; vi++ {
			for lane := 0; lane < r.lanes; lane++ {
				r.bufE.SetF32(off(lane, i, vi), eVal(i, vi, lane))
			}
		}
	}

	args := r.args()
	args.ApplyAlpha = true
	mod := r.run(plan, args)

	assert.Equal(t, 2, mod.Stats().VMemLoads, "one activation-input load per element")
	for lane := 0; lane < r.lanes; lane++ {
		for i := 0; i < 2; i++ {
			for vi := 0; vi < 2; vi++ {
				want := float32(0)
				if eVal(i, vi, lane) > 0 {
					want = 2 * r.accVal(i, vi, lane)
				}
				assert.Equal(t, want, r.bufD.F32(off(lane, i, vi)),
					"element %d value %d lane %d", i, vi, lane)
			}
		}
	}
}

func TestEmitScaleDAppliesOutputScale(t *testing.T) {
	cfg := testConfig(32)
	cfg.UseScaleD = true
	r := newRig(t, cfg)
	plan := r.plan(1, 2)
	r.seedAcc(plan)
	r.m.SetSGPR(rigAlpha, f32bits(2))
	r.m.SetSGPR(rigScaleD, f32bits(3))

	args := r.args()
	args.ApplyAlpha = true
	r.run(plan, args)

	for lane := 0; lane < r.lanes; lane++ {
		for vi := 0; vi < 2; vi++ {
			assert.Equal(t, 6*r.accVal(0, vi, lane), r.bufD.F32(off(lane, 0, vi)),
				"value %d lane %d", vi, lane)
		}
	}
}

func TestEmitBiasGradientPartials(t *testing.T) {
	t.Run("direct store", func(t *testing.T) {
		cfg := testConfig(32)
		cfg.Gradient = true
		cfg.Bias = kernel.BiasWriteReduced
		r := newRig(t, cfg)
		plan := r.plan(2, 2)
		r.seedAcc(plan)
		r.m.SetSGPR(rigAlpha, f32bits(2))

		args := r.args()
		args.ApplyAlpha = true
		mod := r.run(plan, args)

		assert.Equal(t, 4, mod.Stats().VMemStores, "one partials and one output store per element")
		for lane := 0; lane < r.lanes; lane++ {
			for i := 0; i < 2; i++ {
				for vi := 0; vi < 2; vi++ {
					want := 2 * r.accVal(i, vi, lane)
					assert.Equal(t, want, r.bufBias.F32(off(lane, i, vi)),
						"partials, element %d value %d lane %d", i, vi, lane)
					assert.Equal(t, want, r.bufD.F32(off(lane, i, vi)),
						"output, element %d value %d lane %d", i, vi, lane)
				}
			}
		}
	})

	t.Run("staged in the local share", func(t *testing.T) {
		cfg := testConfig(32)
		cfg.Gradient = true
		cfg.Bias = kernel.BiasWriteReduced
		cfg.WorkGroupReduction = true
		r := newRig(t, cfg)
		plan := r.plan(1, 2)
		plan.Elements[0].Addr.(*planAddr).ldsV = rigLDS
		r.seedAcc(plan)
		r.m.SetSGPR(rigAlpha, f32bits(2))

		args := r.args()
		args.ApplyAlpha = true
		mod := r.run(plan, args)

		stats := mod.Stats()
		assert.Equal(t, 1, stats.VMemStores, "only the output goes to global memory")
		assert.Equal(t, 1, stats.LDSOps)
		assert.Zero(t, r.deps.Board.PendingLGKM(), "staged partials drained before batch exit")
		lds := &isatest.Buffer{Name: "lds", Data: r.m.LDS()}
		for lane := 0; lane < r.lanes; lane++ {
			for vi := 0; vi < 2; vi++ {
				assert.Equal(t, 2*r.accVal(0, vi, lane), lds.F32(lane*8+4*vi),
					"value %d lane %d", vi, lane)
			}
		}
	})
}

func TestEmitStoreRemapStagesRows(t *testing.T) {
	cfg := testConfig(32)
	cfg.StoreRemapVectorWidth = 2
	r := newRig(t, cfg)
	r.deps.Remap = &ldsRemap{addrV: rigLDS, rowPitch: 256}
	plan := r.plan(2, 2)
	plan.Elements[1].Addr.(*planAddr).rowInc = 1
	r.seedAcc(plan)
	r.m.SetSGPR(rigAlpha, f32bits(2))

	args := r.args()
	args.ApplyAlpha = true
	mod := r.run(plan, args)

	stats := mod.Stats()
	assert.Equal(t, 0, stats.VMemStores, "stores detour through the local share")
	assert.Equal(t, 2, stats.LDSOps)
	assert.Zero(t, r.deps.Board.PendingLGKM(), "staging drained before batch exit")

	lds := &isatest.Buffer{Name: "lds", Data: r.m.LDS()}
	for lane := 0; lane < r.lanes; lane++ {
		for vi := 0; vi < 2; vi++ {
			assert.Equal(t, 2*r.accVal(0, vi, lane), lds.F32(lane*8+4*vi),
				"row 0 value %d lane %d", vi, lane)
			assert.Equal(t, 2*r.accVal(1, vi, lane), lds.F32(256+lane*8+4*vi),
				"row 1 value %d lane %d", vi, lane)
		}
		// The second element advanced the global output address to the
		// next row for the flush that follows the batch.
		assert.Equal(t, uint32(lane*laneBytes), r.m.VGPR(rigAddr, lane))
		assert.Equal(t, uint32(lane*laneBytes+slotBytes+64*laneBytes), r.m.VGPR(rigAddr+2, lane))
	}
}

func TestEmitActivationCallConvention(t *testing.T) {
	cfg := testConfig(32)
	cfg.Activation = kernel.ActivationGelu
	cfg.ActivationFuncCall = true
	cfg.Bias = kernel.BiasRead
	r := newRig(t, cfg)
	plan := r.plan(1, 2)
	plan.Elements[0].DataBias = rigAux
	plan.Elements[0].Addr.(*planAddr).ldsV = rigLDS

	args := r.args()
	args.ActPC = ActivationPCState{
		FuncPtr:  isa.SGPRn(50, 2),
		ReturnPC: isa.SGPRn(52, 2),
		CopyBase: isa.VGPRn(rigCvt, 2),
	}

	// The wavefront model does not follow subroutine calls, so this checks
	// the emitted convention instead of executing it.
	mod, err := Emit(r.cfg, plan, args, r.deps)
	require.NoError(t, err)
	assert.Equal(t, 1, countOp(mod, isa.OpcodeSSwappcB64))
	assert.Equal(t, 2, countOp(mod, isa.OpcodeVAddF32),
		"bias adds double as the input staging copies")
	assert.Equal(t, 2, countOp(mod, isa.OpcodeVMovB32),
		"moves only collect the results")
	assert.Zero(t, r.deps.VGPR.InUse())
	assert.Zero(t, r.deps.SGPR.InUse())
}

// pkAdd bumps both packed half values by 0.25, standing in for an
// activation that works on storage-precision registers.
type pkAdd struct{}

func (pkAdd) Emit(kind kernel.ActivationKind, dt dtypes.DType, gradient bool, value, tmp isa.Reg) *isa.Module {
	m := isa.NewModule("packed bump")
	m.Add(isa.VPkAddF16(value, isa.HexImm(0x3400_3400), value))
	return m
}

func TestEmitActivationAfterPack(t *testing.T) {
	cfg := testConfig(32)
	cfg.DestType = dtypes.Float16
	cfg.HighPrecisionAccumulate = true
	cfg.Activation = kernel.ActivationRelu
	cfg.InsertActivationAfterPack = true
	r := newRig(t, cfg)
	r.deps.Activation = pkAdd{}
	plan := r.plan(1, 2)
	for lane := 0; lane < r.lanes; lane++ {
		r.m.SetVGPRF32(rigSum, lane, 1.5)
		r.m.SetVGPRF32(rigSum+1, lane, -2.25)
	}

	r.run(plan, r.args())

	wantLo := float16.Fromfloat32(1.75)
	wantHi := float16.Fromfloat32(-2)
	want := uint32(wantHi.Bits())<<16 | uint32(wantLo.Bits())
	for lane := 0; lane < r.lanes; lane++ {
		assert.Equal(t, want, r.bufD.U32(off(lane, 0, 0)),
			"activation ran on the packed halves, lane %d", lane)
	}
}

func TestEmitInterleavedAlphaMatchesBatched(t *testing.T) {
	cfg := testConfig(32)
	cfg.InterleaveAlpha = true
	r := newRig(t, cfg)
	plan := r.plan(2, 2)
	r.seedAcc(plan)
	r.m.SetSGPR(rigAlpha, f32bits(2))

	args := r.args()
	args.ApplyAlpha = true
	r.run(plan, args)

	for lane := 0; lane < r.lanes; lane++ {
		for i := 0; i < 2; i++ {
			for vi := 0; vi < 2; vi++ {
				assert.Equal(t, 2*r.accVal(i, vi, lane), r.bufD.F32(off(lane, i, vi)),
					"element %d value %d lane %d", i, vi, lane)
			}
		}
	}
}
