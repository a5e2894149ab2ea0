package epilogue

import (
	"fmt"
	"math"

	"github.com/gcnforge/gcnforge/isa"
	"github.com/gomlx/exceptions"
	"github.com/gomlx/gopjrt/dtypes"
)

// groupedStores reports whether the batch's stores collect into one block
// after the element loop. Grouping defers stores past the lane restore, so
// it cannot cover stores that rely on the execution mask for edge clipping.
func (w *writer) groupedStores() bool {
	return w.cfg.GroupLoadStore && (w.cfg.BufferStore || !w.args.Edge)
}

// groupedLoads reports whether the prolog's input loads collect into one
// block after the address math. Same edge restriction as groupedStores: flat
// edge loads depend on the per-element execution mask.
func (w *writer) groupedLoads() bool {
	return w.cfg.GroupLoadStore && (w.cfg.BufferStore || !w.args.Edge)
}

// emitNonAtomic runs the arithmetic pipeline and the plain stores, element
// by element. Wait placement depends on the mode: one batched wait covering
// every load up front, or per-element minimal waits computed from the load
// snapshots when interleaving is on.
func (w *writer) emitNonAtomic() {
	cfg, args, plan := w.cfg, w.args, w.plan
	m := isa.NewModule("apply and store")
	w.root.Add(m)

	if !w.interleaved {
		vmRem, lgkmRem := -1, -1
		if w.vmLoads > 0 {
			vmRem = 0
		}
		if w.lgkmLoads > 0 {
			lgkmRem = 0
		}
		if vmRem >= 0 || lgkmRem >= 0 {
			w.deps.Board.WaitCombined(m, vmRem, lgkmRem, "auxiliary tensor loads")
		}
	}

	lanesMasked := false
	rowOffset := 0
	for i := range plan.Elements {
		elem := &plan.Elements[i]
		em := isa.NewModule(fmt.Sprintf("apply %v", elem.Element))
		m.Add(em)
		if !w.groupedStores() {
			w.storeSink = em
		}

		if cfg.StoreRemapVectorWidth > 0 && elem.Addr.RowInc() > 0 {
			rowOffset += elem.Addr.RowInc()
			em.Add(elem.Addr.IncrementToNextRow(TensorD))
		}
		if w.interleaved {
			vmRem, lgkmRem := -1, -1
			if w.vmLoads > 0 {
				vmRem = w.vmLoads - w.snapshots[i].vm
			}
			if w.lgkmLoads > 0 {
				lgkmRem = w.lgkmLoads - w.snapshots[i].lgkm
			}
			if vmRem >= 0 || lgkmRem >= 0 {
				w.deps.Board.WaitCombined(em, vmRem, lgkmRem, "element loads")
			}
		}
		if args.Edge && !cfg.BufferStore {
			w.execMov(em, isa.Exec, w.maskReg(elem), "mask off out-of-bounds lanes")
			lanesMasked = true
		}
		if cfg.Debug.CheckValueC && args.Beta {
			w.checkValueC(em, elem)
		}

		w.arithElem(em, elem)

		if cfg.Debug.ForceExpectedValue {
			w.forceExpectedValue(em, elem)
		}
		if cfg.Debug.ConservativeWaitCnt >= 1 {
			w.deps.Board.WaitAll(w.storeSink, "conservative pre-store")
		}
		if cfg.StoreRemapVectorWidth > 0 {
			w.addRemapWrite(elem, rowOffset)
		} else {
			w.storeSink.Add(elem.Addr.LdChange(TensorD, w.oobReg()))
			w.globalStore(w.storeSink, w.storeRegs(elem), elem, TensorD, args.AddrD,
				w.bytesPerStore(), false, "store output")
		}
		if cfg.Debug.ConservativeWaitCnt >= 2 {
			w.storeSink.Add(isa.SBarrier().Commentf("conservative store spacing"))
		}
	}
	if w.groupedStores() {
		m.Add(w.storeSink)
	}
	if lanesMasked {
		w.execMov(m, isa.Exec, isa.ImmInt(-1), "restore lanes")
	}
	if cfg.Debug.CheckStoreC {
		w.checkStoreC(m)
	}
}

// addRemapWrite delegates the element's store to the remapper's local
// staging tile, keeping the scoreboard in sync with whatever it emitted.
func (w *writer) addRemapWrite(elem *ElementPlan, rowOffset int) {
	mod := w.deps.Remap.LocalWrite(elem, w.storeRegs(elem), rowOffset)
	w.storeSink.Add(mod)
	for _, inst := range mod.Instructions() {
		if inst.Op.IsLDSStore() {
			w.deps.Board.IssueLGKM(1)
		}
	}
}

// forceExpectedValue overwrites the outgoing values with a fixed constant,
// so a mismatch downstream isolates the write path from the accumulation.
func (w *writer) forceExpectedValue(m *isa.Module, elem *ElementPlan) {
	if w.cfg.DestType != dtypes.Float32 {
		exceptions.Panicf("forced expected value supports float32 output only, have %s", w.cfg.DestType)
	}
	block := w.storeRegs(elem)
	for r := 0; r < block.N; r++ {
		m.Add(isa.VMovB32(isa.VGPR(block.Idx+r), isa.ImmF32(w.cfg.Debug.ExpectedValue)).
			Commentf("debug: force stored value"))
	}
}

// checkValueC traps if any loaded previous-output value differs bitwise
// from the expected constant.
func (w *writer) checkValueC(m *isa.Module, elem *ElementPlan) {
	if w.cfg.DestType != dtypes.Float32 {
		exceptions.Panicf("previous-output value check supports float32 only, have %s", w.cfg.DestType)
	}
	fail := w.deps.Labels.Get("check_value_c_fail")
	pass := w.deps.Labels.Get("check_value_c_pass")
	expected := math.Float32bits(w.cfg.Debug.CheckValueCExpected)
	block := w.cLoadRegs(elem)
	for r := 0; r < block.N; r++ {
		m.Add(isa.VCmpNeU32(isa.VCC, isa.VGPR(block.Idx+r), isa.HexImm(expected)).
			Commentf("debug: compare loaded value"))
		m.Add(isa.SCbranchVccnz(fail))
	}
	m.Add(isa.SBranch(pass))
	m.Add(isa.NewLabel(fail))
	m.Add(isa.STrap(2).Commentf("debug: unexpected previous-output value"))
	m.Add(isa.NewLabel(pass))
}

// checkStoreC drains the stores, reads every element back from the output
// tensor and traps on any bitwise difference.
func (w *writer) checkStoreC(m *isa.Module) {
	cm := isa.NewModule("store read-back check")
	m.Add(cm)
	w.deps.Board.WaitStores(cm, 0, "stores landed for read-back")

	fail := w.deps.Labels.Get("check_store_fail")
	pass := w.deps.Labels.Get("check_store_pass")
	for i := range w.plan.Elements {
		elem := &w.plan.Elements[i]
		if elem.Data < 0 {
			exceptions.Panicf("store read-back needs data staging registers for element %v", elem.Element)
		}
		cm.Add(elem.Addr.LdChange(TensorD, w.oobReg()))
		w.globalLoad(cm, w.cLoadRegs(elem), elem, TensorD, w.args.AddrD,
			w.bytesPerStore(), true, "read back stored values")
	}
	w.deps.Board.WaitVM(cm, 0, "read-back values")
	for i := range w.plan.Elements {
		elem := &w.plan.Elements[i]
		stored := w.storeRegs(elem)
		loaded := w.cLoadRegs(elem)
		for r := 0; r < stored.N; r++ {
			cm.Add(isa.VCmpNeU32(isa.VCC, isa.VGPR(stored.Idx+r), isa.VGPR(loaded.Idx+r)).
				Commentf("debug: compare stored vs read-back"))
			cm.Add(isa.SCbranchVccnz(fail))
		}
	}
	cm.Add(isa.SBranch(pass))
	cm.Add(isa.NewLabel(fail))
	cm.Add(isa.STrap(2).Commentf("debug: store read-back mismatch"))
	cm.Add(isa.NewLabel(pass))
}
