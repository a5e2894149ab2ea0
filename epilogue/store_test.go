package epilogue

import (
	"testing"

	"github.com/gcnforge/gcnforge/isa"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Flat addressing has no out-of-range clamp, so edge batches drop lanes via
// the execution mask around both the loads and the stores.
func TestEmitFlatEdgeStores(t *testing.T) {
	cfg := testConfig(64)
	cfg.BufferStore = false
	r := newFlatRig(t, cfg)
	const inBounds = 40
	plan := edged(withData(r.plan(2, 2)), inBounds)
	r.seedAcc(plan)
	r.seedC(plan)
	r.seedD(plan)
	r.m.SetSGPR(rigAlpha, f32bits(2))
	r.m.SetSGPR(rigBeta, f32bits(0.5))

	args := r.args()
	args.ApplyAlpha = true
	args.Beta = true
	args.Edge = true
	mod := r.run(plan, args)

	stats := mod.Stats()
	assert.Equal(t, 2, stats.VMemLoads)
	assert.Equal(t, 2, stats.VMemStores)
	assert.Equal(t, ^uint64(0), r.m.Exec, "all lanes restored")
	for lane := 0; lane < r.lanes; lane++ {
		for i := 0; i < 2; i++ {
			for vi := 0; vi < 2; vi++ {
				want := r.dVal(i, vi, lane)
				if lane < inBounds {
					want = 2*r.accVal(i, vi, lane) + 0.5*r.cVal(i, vi, lane)
				}
				assert.Equal(t, want, r.bufD.F32(off(lane, i, vi)),
					"element %d value %d lane %d", i, vi, lane)
			}
		}
	}
}

func TestEmitForcedExpectedValue(t *testing.T) {
	cfg := testConfig(32)
	cfg.Debug.ForceExpectedValue = true
	cfg.Debug.ExpectedValue = 42
	r := newRig(t, cfg)
	plan := r.plan(1, 2)
	r.seedAcc(plan)
	r.m.SetSGPR(rigAlpha, f32bits(2))

	args := r.args()
	args.ApplyAlpha = true
	r.run(plan, args)

	for lane := 0; lane < r.lanes; lane++ {
		for vi := 0; vi < 2; vi++ {
			assert.Equal(t, float32(42), r.bufD.F32(off(lane, 0, vi)), "value %d lane %d", vi, lane)
		}
	}
}

func TestEmitCheckValueC(t *testing.T) {
	setup := func(t *testing.T) (*rig, *BatchPlan, BatchArgs) {
		cfg := testConfig(32)
		cfg.Debug.CheckValueC = true
		cfg.Debug.CheckValueCExpected = 2.5
		r := newRig(t, cfg)
		plan := withData(r.plan(2, 2))
		r.seedAcc(plan)
		for i := 0; i < 2; i++ {
			for vi := 0; vi < 2; vi++ {
				for lane := 0; lane < r.lanes; lane++ {
					r.bufC.SetF32(off(lane, i, vi), 2.5)
				}
			}
		}
		r.m.SetSGPR(rigAlpha, f32bits(2))
		r.m.SetSGPR(rigBeta, f32bits(0.5))
		args := r.args()
		args.ApplyAlpha = true
		args.Beta = true
		return r, plan, args
	}

	t.Run("expected values pass", func(t *testing.T) {
		r, plan, args := setup(t)
		r.run(plan, args)
		for lane := 0; lane < r.lanes; lane++ {
			for i := 0; i < 2; i++ {
				for vi := 0; vi < 2; vi++ {
					assert.Equal(t, 2*r.accVal(i, vi, lane)+1.25, r.bufD.F32(off(lane, i, vi)),
						"element %d value %d lane %d", i, vi, lane)
				}
			}
		}
	})

	t.Run("one stray value traps", func(t *testing.T) {
		r, plan, args := setup(t)
		r.bufC.SetF32(off(7, 1, 0), 3)
		mod, err := Emit(r.cfg, plan, args, r.deps)
		require.NoError(t, err)
		err = r.m.Run(mod)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "trap")
	})
}

func TestEmitStoreReadBackCheck(t *testing.T) {
	cfg := testConfig(32)
	cfg.Debug.CheckStoreC = true
	r := newRig(t, cfg)
	plan := withData(r.plan(2, 2))
	r.seedAcc(plan)
	r.m.SetSGPR(rigAlpha, f32bits(2))

	args := r.args()
	args.ApplyAlpha = true
	mod := r.run(plan, args)

	assert.Equal(t, 2, mod.Stats().VMemLoads, "one read-back load per element")
	assert.Zero(t, r.deps.Board.PendingStores(), "stores drained before the read-back")
	for lane := 0; lane < r.lanes; lane++ {
		for i := 0; i < 2; i++ {
			for vi := 0; vi < 2; vi++ {
				assert.Equal(t, 2*r.accVal(i, vi, lane), r.bufD.F32(off(lane, i, vi)),
					"element %d value %d lane %d", i, vi, lane)
			}
		}
	}
}

func TestEmitConservativeWaits(t *testing.T) {
	cfg := testConfig(32)
	cfg.Debug.ConservativeWaitCnt = 2
	r := newRig(t, cfg)
	plan := r.plan(2, 2)
	r.seedAcc(plan)
	r.m.SetSGPR(rigAlpha, f32bits(2))

	args := r.args()
	args.ApplyAlpha = true
	mod := r.run(plan, args)

	// One barrier after each store, two more around the batch exit.
	assert.Equal(t, 4, countOp(mod, isa.OpcodeSBarrier))
	assert.Zero(t, r.deps.Board.PendingStores())
	for lane := 0; lane < r.lanes; lane++ {
		for i := 0; i < 2; i++ {
			for vi := 0; vi < 2; vi++ {
				assert.Equal(t, 2*r.accVal(i, vi, lane), r.bufD.F32(off(lane, i, vi)),
					"element %d value %d lane %d", i, vi, lane)
			}
		}
	}
}

func TestEmitForceSerialDrainsEveryOp(t *testing.T) {
	cfg := testConfig(32)
	cfg.Debug.ForceSerial = true
	r := newRig(t, cfg)
	plan := withData(r.plan(2, 2))
	r.seedAcc(plan)
	r.seedC(plan)
	r.m.SetSGPR(rigAlpha, f32bits(2))
	r.m.SetSGPR(rigBeta, f32bits(0.5))

	args := r.args()
	args.ApplyAlpha = true
	args.Beta = true
	mod := r.run(plan, args)

	assert.GreaterOrEqual(t, mod.Stats().Waits, 4, "every load and store is followed by a full drain")
	assert.Zero(t, r.deps.Board.PendingStores())
	for lane := 0; lane < r.lanes; lane++ {
		for i := 0; i < 2; i++ {
			for vi := 0; vi < 2; vi++ {
				assert.Equal(t, 2*r.accVal(i, vi, lane)+0.5*r.cVal(i, vi, lane),
					r.bufD.F32(off(lane, i, vi)), "element %d value %d lane %d", i, vi, lane)
			}
		}
	}
}
