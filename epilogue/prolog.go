package epilogue

import (
	"fmt"

	"github.com/gcnforge/gcnforge/isa"
	"github.com/gcnforge/gcnforge/kernel"
	"github.com/gomlx/exceptions"
	"k8s.io/klog/v2"
)

// prolog emits everything ahead of the arithmetic pipeline: pacing, the
// accumulator and alpha templates, per-element address setup and edge
// clamping, and the auxiliary tensor loads with per-staging-block
// deduplication. It also records the per-element load snapshots the
// interleaved store waits are computed from.
func (w *writer) prolog() {
	cfg, args, plan := w.cfg, w.args, w.plan

	if n := w.deps.Board.PendingVM(); n != 0 {
		exceptions.Panicf("batch #%d starts with %d loads outstanding", args.BatchIdx, n)
	}
	if n := w.deps.Board.PendingLGKM(); n != 0 {
		exceptions.Panicf("batch #%d starts with %d local ops outstanding", args.BatchIdx, n)
	}

	m := isa.NewModule("prolog")
	w.root.Add(m)

	// Pacing spaces this batch's stores against the previous batch's; the
	// first batch has no predecessor to pace against.
	if cfg.StoreSyncOpt > 0 && !plan.FirstBatch {
		m.Add(isa.SSleep(cfg.StoreSyncOpt - 1).Commentf("store pacing"))
		m.Add(isa.SBarrier().Commentf("store pacing"))
	}
	if cfg.Debug.ConservativeWaitCnt >= 1 {
		w.deps.Board.WaitAll(m, "conservative batch entry")
	}

	// Which auxiliary tensors this batch reads. Scale and bias vectors
	// are only consumed on the final accumulation pass. The atomic fast
	// path reads nothing: the hardware add is the whole accumulation.
	loadC := args.Beta || (args.Atomic && !w.useAtomicAdd)
	loadE := cfg.Gradient && cfg.UseE && cfg.Activation != kernel.ActivationNone && cfg.GlobalSplitU == 1
	loadScaleAlpha := cfg.UseScaleAlphaVec && cfg.GlobalSplitU == 1
	loadBias := cfg.Bias == kernel.BiasRead && cfg.GlobalSplitU == 1

	applyAlpha := args.ApplyAlpha && !w.deferredAccum
	alphaBeforeLoads := applyAlpha && len(w.alphaMuls) > 0
	interleaveAlpha := applyAlpha && cfg.InterleaveAlpha && !alphaBeforeLoads
	alphaAfterLoads := applyAlpha && !alphaBeforeLoads && !interleaveAlpha

	if len(w.accReads) > 0 || alphaBeforeLoads {
		pre := isa.NewModule("accumulator staging")
		for i := range plan.Elements {
			elem := &plan.Elements[i]
			if len(w.accReads) > 0 {
				w.takeAccReads(pre, elem)
			}
			if alphaBeforeLoads {
				w.takeAlphaMuls(pre, elem)
			}
		}
		m.Add(pre)
	}

	if !w.oob.IsZero() {
		m.Add(isa.VMovB32(w.oobReg(), isa.HexImm(0x80000000)).
			Commentf("out-of-bounds address sentinel"))
	}
	if loadBias && args.BiasLDSBarrierDone != nil && !*args.BiasLDSBarrierDone {
		// The staged bias tile was written to the local data share by
		// other waves; publish it exactly once across all batches.
		*args.BiasLDSBarrierDone = true
		m.Add(isa.SWaitcnt(-1, 0).Commentf("bias tile staged"))
		m.Add(isa.SBarrier().Commentf("bias tile visible to all lanes"))
	}

	// Grouped scheduling collects the input loads into their own block
	// appended after all address math, so the loads issue back to back.
	// The deduplication bookkeeping and the per-element snapshots are the
	// same either way: grouping moves the loads, not their order.
	var loadSink *isa.Module
	if w.groupedLoads() {
		loadSink = isa.NewModule("grouped input loads")
	}

	loadedC := make(map[int]bool)
	loadedE := make(map[int]bool)
	loadedBias := make(map[int]bool)
	loadedScaleAlpha := make(map[int]bool)
	lanesMasked := false

	for i := range plan.Elements {
		elem := &plan.Elements[i]
		em := isa.NewModule(fmt.Sprintf("element %v", elem.Element))
		m.Add(em)

		em.Add(elem.Addr.AddressSetup())
		if args.Edge {
			em.Add(elem.Addr.EdgeProtect())
		}
		// Flat loads have no address clamping, so out-of-bounds lanes
		// must be switched off instead. Never grouped: the mask belongs
		// to one element at a time.
		if args.Edge && !cfg.BufferStore && (loadC || loadE) {
			w.execMov(em, isa.Exec, w.maskReg(elem), "mask off out-of-bounds lanes")
			lanesMasked = true
		}

		// The address rebase travels with its load so the pair stays
		// adjacent when the loads are grouped.
		lm := em
		if loadSink != nil {
			lm = loadSink
		}
		if loadC && !loadedC[elem.Data] {
			loadedC[elem.Data] = true
			if args.Atomic {
				// The swap base is read through the output tensor
				// itself; a stale value only costs a retry.
				lm.Add(elem.Addr.LdChange(TensorD, w.oobReg()))
				w.globalLoad(lm, w.cLoadRegs(elem), elem, TensorD, args.AddrD,
					w.gwvw*kernel.ByteSize(cfg.DestType), false, "load current output for compare-and-swap")
			} else {
				lm.Add(elem.Addr.LdChange(TensorC, w.oobReg()))
				w.globalLoad(lm, w.cLoadRegs(elem), elem, TensorC, args.AddrC,
					w.gwvw*kernel.ByteSize(cfg.DestType), false, "load previous output for beta")
			}
		}
		if loadE && !loadedE[elem.DataE] {
			loadedE[elem.DataE] = true
			lm.Add(elem.Addr.LdChange(TensorE, w.oobReg()))
			w.globalLoad(lm, w.eRegs(elem), elem, TensorE, args.AddrE,
				w.gwvw*kernel.ByteSize(cfg.DataTypeE), false, "load activation input")
		}
		if loadBias && !loadedBias[elem.DataBias] {
			loadedBias[elem.DataBias] = true
			w.localLoad(lm, w.biasRegs(elem), elem, TensorBias,
				w.gwvw*cfg.ComputeType.Size(), "load staged bias")
		}
		if loadScaleAlpha && !loadedScaleAlpha[elem.DataScaleAlpha] {
			loadedScaleAlpha[elem.DataScaleAlpha] = true
			lm.Add(elem.Addr.LdChange(TensorScaleAlphaVec, w.oobReg()))
			w.globalLoad(lm, w.scaleAlphaRegs(elem), elem, TensorScaleAlphaVec, args.AddrScaleAlpha,
				w.gwvw*cfg.ComputeType.Size(), false, "load alpha scale vector")
		}

		w.snapshots[i] = loadSnapshot{vm: w.vmLoads, lgkm: w.lgkmLoads}

		if interleaveAlpha {
			w.applyAlphaElem(em, elem)
		}
	}

	if loadSink != nil {
		m.Add(loadSink)
	}
	if lanesMasked {
		w.execMov(m, isa.Exec, isa.ImmInt(-1), "restore lanes")
	}
	if alphaAfterLoads {
		am := isa.NewModule("apply alpha")
		for i := range plan.Elements {
			w.applyAlphaElem(am, &plan.Elements[i])
		}
		m.Add(am)
	}

	if klog.V(2).Enabled() {
		klog.Infof("batch #%d prolog: %d global loads, %d local loads (C=%v E=%v bias=%v scaleAlpha=%v)",
			args.BatchIdx, w.vmLoads, w.lgkmLoads, loadC, loadE, loadBias, loadScaleAlpha)
	}
}

// eRegs is the staging block of the activation auxiliary tensor values.
func (w *writer) eRegs(elem *ElementPlan) isa.Reg {
	if elem.DataE < 0 {
		exceptions.Panicf("element %v has no auxiliary tensor staging registers", elem.Element)
	}
	return isa.VGPRn(elem.DataE, kernel.RegCount(w.cfg.DataTypeE, w.gwvw))
}

// biasRegs is the staging block of the element's bias values, in compute
// precision.
func (w *writer) biasRegs(elem *ElementPlan) isa.Reg {
	if elem.DataBias < 0 {
		exceptions.Panicf("element %v has no bias staging registers", elem.Element)
	}
	return isa.VGPRn(elem.DataBias, kernel.RegCount(w.cfg.ComputeType, w.gwvw))
}

// scaleAlphaRegs is the staging block of the element's alpha scale values.
func (w *writer) scaleAlphaRegs(elem *ElementPlan) isa.Reg {
	if elem.DataScaleAlpha < 0 {
		exceptions.Panicf("element %v has no scale vector staging registers", elem.Element)
	}
	return isa.VGPRn(elem.DataScaleAlpha, kernel.RegCount(w.cfg.ComputeType, w.gwvw))
}
