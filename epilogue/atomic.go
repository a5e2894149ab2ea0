package epilogue

import (
	"github.com/gcnforge/gcnforge/isa"
	"github.com/gcnforge/gcnforge/kernel"
	"github.com/gomlx/exceptions"
	"github.com/gomlx/gopjrt/dtypes"
)

// emitAtomicAdd accumulates each element into the output with hardware
// float atomic adds, one per sub-vector value. The add itself is the whole
// accumulation, so there is nothing to verify and nothing to wait on; edge
// elements just mask their lanes first.
func (w *writer) emitAtomicAdd() {
	m := isa.NewModule("atomic add")
	w.root.Add(m)
	m.AddComment("issue atomic adds")
	for i := range w.plan.Elements {
		elem := &w.plan.Elements[i]
		if w.args.Edge {
			w.execMov(m, isa.Exec, w.maskReg(elem), "in-bounds lanes -> exec")
		}
		m.Add(elem.Addr.LdChange(TensorD, w.oobReg()))
		for vi := 0; vi < w.gwvw; vi++ {
			sum, _ := w.sumValue(elem, vi)
			m.Add(isa.BufferAtomic(isa.OpcodeBufferAtomicAddF32, sum,
				elem.Addr.AddrReg(TensorD), w.args.AddrD, isa.ImmInt(0),
				isa.MUBUF{Offen: true, Offset: elem.Addr.GlobalOffset(TensorD) + vi*4}).
				Commentf("accumulate value %d of %v", vi, elem.Element))
			w.deps.Board.IssueStore(1)
			w.storesIssued++
			if w.cfg.Debug.ForceSerial {
				w.deps.Board.WaitAll(m, "serialized memory op")
			}
		}
	}
	if w.args.Edge {
		w.execMov(m, isa.Exec, isa.ImmInt(-1), "restore full exec")
	}
}

// casState names the phases of the compare-and-swap accumulation protocol.
// The generated program loops at runtime; the generator walks the states
// once, visiting casCheckSuccess twice (after the first attempt and inside
// the retry loop) and emitting both arms of each runtime branch.
type casState int

const (
	casInit casState = iota
	casFirstAttempt
	casCheckSuccess
	casRetryLoop
	casAfterLoop
	casDone
)

// casContext carries the cross-state pieces: the target module, the loop
// labels and whether emission has entered the loop body yet.
type casContext struct {
	m         *isa.Module
	loopLabel string
	doneLabel string
	inLoop    bool
}

// emitCASAdd accumulates each element with an optimistic compare-and-swap
// retry loop: desired = loaded + contribution, swap against the loaded
// value, and for every lane whose swap returned something else (a racing
// writer got there first) recompute from the returned value and try again.
// Each iteration only narrows the per-element retry masks, so the loop
// converges once every racer has landed.
func (w *writer) emitCASAdd() {
	cas := &casContext{
		m:         isa.NewModule("atomic compare-and-swap"),
		loopLabel: w.deps.Labels.Get("atomic_cas_retry"),
		doneLabel: w.deps.Labels.Get("atomic_cas_done"),
	}
	w.root.Add(cas.m)
	for st := casInit; st != casDone; {
		st = w.casStep(st, cas)
	}
}

// casStep emits one protocol state and returns its successor.
func (w *writer) casStep(st casState, cas *casContext) casState {
	switch st {
	case casInit:
		// Atomics sequence against the earlier read of the same
		// location, so the staged output values must have landed.
		w.deps.Board.WaitVM(cas.m, 0, "previous output values (swap base)")
		return casFirstAttempt

	case casFirstAttempt:
		// Addresses still point at the output tensor from the prolog's
		// swap-base loads.
		cas.m.AddComment("first compare-and-swap attempts")
		for i := range w.plan.Elements {
			elem := &w.plan.Elements[i]
			if w.args.Edge {
				w.execMov(cas.m, isa.Exec, w.maskReg(elem), "in-bounds lanes -> exec")
			}
			w.casCompute(cas.m, elem)
			w.casSwap(cas.m, elem, "attempt write")
		}
		return casCheckSuccess

	case casCheckSuccess:
		w.deps.Board.WaitVM(cas.m, 0, "compare-and-swap results")
		cas.m.AddComment("check write success, update retry masks")
		for i := range w.plan.Elements {
			w.casCheckElem(cas, &w.plan.Elements[i])
		}
		cas.m.AddComment("or retry masks to check for exit")
		w.execMov(cas.m, w.tmpS(0), isa.ImmInt(0), "empty retry mask")
		for i := range w.plan.Elements {
			mask := w.maskReg(&w.plan.Elements[i])
			w.laneOr(cas.m, w.tmpS(0), mask, w.tmpS(0), "accumulate retry lanes")
		}
		w.execMov(cas.m, isa.Exec, w.tmpS(0), "retry lanes -> exec")
		if !cas.inLoop {
			cas.m.Add(isa.SCbranchExecz(cas.doneLabel).
				Commentf("every write landed, skip the retry loop"))
			return casRetryLoop
		}
		cas.m.Add(isa.SCbranchExecnz(cas.loopLabel).
			Commentf("some lanes lost again, go around"))
		return casAfterLoop

	case casRetryLoop:
		cas.inLoop = true
		cas.m.Add(isa.NewLabel(cas.loopLabel))
		cas.m.AddComment("rebase retrying lanes and issue writes again")
		for i := range w.plan.Elements {
			elem := &w.plan.Elements[i]
			w.execMov(cas.m, isa.Exec, w.maskReg(elem), "retrying lanes -> exec")
			ret, old := w.casReturnRegs(elem), w.cLoadRegs(elem)
			for r := 0; r < old.N; r++ {
				cas.m.Add(isa.VMovB32(isa.VGPR(old.Idx+r), isa.VGPR(ret.Idx+r)).
					Commentf("racer's value is the new swap base"))
			}
			w.casCompute(cas.m, elem)
			w.casSwap(cas.m, elem, "try again")
		}
		return casCheckSuccess

	case casAfterLoop:
		cas.m.Add(isa.NewLabel(cas.doneLabel))
		w.execMov(cas.m, isa.Exec, isa.ImmInt(-1), "restore full exec")
		return casDone
	}
	exceptions.Panicf("compare-and-swap emission reached unknown state %d", st)
	panic("unreachable")
}

// casCheckElem compares what the swap returned against the base it swapped
// against; lanes that saw a different value lost to a racing writer and go
// into the element's retry mask.
func (w *writer) casCheckElem(cas *casContext, elem *ElementPlan) {
	mask := w.maskReg(elem)
	if cas.inLoop {
		w.execMov(cas.m, isa.Exec, mask, "retrying lanes -> exec")
	} else if w.args.Edge {
		w.execMov(cas.m, isa.Exec, mask, "in-bounds lanes -> exec")
	}

	// Lanes outside exec compare as 0, so the result is already confined
	// to the lanes that attempted a swap this round.
	cmpDst := mask
	narrow := cas.inLoop || w.args.Edge
	if narrow {
		cmpDst = w.tmpS(0)
	}
	ret, old := w.casReturnRegs(elem), w.cLoadRegs(elem)
	if old.N == 2 {
		cas.m.Add(isa.VCmpNeU64(cmpDst, ret, old).
			Commentf("returned value != swap base (racer won)"))
	} else {
		cas.m.Add(isa.VCmpNeU32(cmpDst, ret, old).
			Commentf("returned value != swap base (racer won)"))
	}
	if narrow {
		w.laneAnd(cas.m, mask, cmpDst, mask, "narrow the retry mask")
	}
}

// casAddEmitters computes desired = base + contribution in the width the
// memory holds, one entry per supported storage type.
var casAddEmitters = map[dtypes.DType]func(w *writer, m *isa.Module, elem *ElementPlan){}

func init() {
	casAddEmitters[dtypes.Float32] = casAddF32
	casAddEmitters[dtypes.Float64] = casAddF64
	casAddEmitters[dtypes.Float16] = casAddHalfPacked
	casAddEmitters[dtypes.Int32] = casAddI32
}

func (w *writer) casCompute(m *isa.Module, elem *ElementPlan) {
	emit, ok := casAddEmitters[w.cfg.DestType]
	if !ok {
		exceptions.Panicf("no compare-and-swap accumulation for storage type %s", w.cfg.DestType)
	}
	emit(w, m, elem)
}

func casAddF32(w *writer, m *isa.Module, elem *ElementPlan) {
	desired, base := w.casDesiredRegs(elem), w.cLoadRegs(elem)
	for vi := 0; vi < w.gwvw; vi++ {
		sum, _ := w.sumValue(elem, vi)
		m.Add(isa.VAddF32(isa.VGPR(desired.Idx+vi), isa.VGPR(base.Idx+vi), sum).
			Commentf("desired value %d", vi))
	}
}

func casAddF64(w *writer, m *isa.Module, elem *ElementPlan) {
	desired, base := w.casDesiredRegs(elem), w.cLoadRegs(elem)
	for vi := 0; vi < w.gwvw; vi++ {
		sum, _ := w.sumValue(elem, vi)
		m.Add(isa.VAddF64(isa.VGPRn(desired.Idx+2*vi, 2), isa.VGPRn(base.Idx+2*vi, 2), sum).
			Commentf("desired value %d", vi))
	}
}

func casAddHalfPacked(w *writer, m *isa.Module, elem *ElementPlan) {
	desired, base := w.casDesiredRegs(elem), w.cLoadRegs(elem)
	for r := 0; r < desired.N; r++ {
		m.Add(isa.VPkAddF16(isa.VGPR(desired.Idx+r), isa.VGPR(base.Idx+r), isa.VGPR(elem.SumIdx+r)).
			Commentf("desired value pair %d", r))
	}
}

func casAddI32(w *writer, m *isa.Module, elem *ElementPlan) {
	desired, base := w.casDesiredRegs(elem), w.cLoadRegs(elem)
	for vi := 0; vi < w.gwvw; vi++ {
		sum, _ := w.sumValue(elem, vi)
		m.Add(isa.VAddU32(isa.VGPR(desired.Idx+vi), isa.VGPR(base.Idx+vi), sum).
			Commentf("desired value %d", vi))
	}
}

// casSwap issues the compare-and-swap of one element: swap in the desired
// values if memory still holds the base the add started from. The returned
// previous content counts as a load on the scoreboard.
func (w *writer) casSwap(m *isa.Module, elem *ElementPlan, comment string) {
	opN := kernel.RegCount(w.cfg.DestType, w.gwvw)
	pair := isa.VGPRn(elem.Data, 2*opN)
	if w.cfg.BufferStore {
		op := isa.OpcodeBufferAtomicCmpswapB32
		if opN == 2 {
			op = isa.OpcodeBufferAtomicCmpswapB64
		}
		m.Add(isa.BufferAtomic(op, pair, elem.Addr.AddrReg(TensorD), w.args.AddrD, isa.ImmInt(0),
			isa.MUBUF{Offen: true, Offset: elem.Addr.GlobalOffset(TensorD), GLC: true}).
			Commentf("%s %v", comment, elem.Element))
	} else {
		op := isa.OpcodeFlatAtomicCmpswapB32
		if opN == 2 {
			op = isa.OpcodeFlatAtomicCmpswapB64
		}
		m.Add(isa.FlatAtomic(op, w.casReturnRegs(elem), elem.Addr.AddrReg(TensorD), pair, true).
			Commentf("%s %v", comment, elem.Element))
	}
	w.deps.Board.IssueVM(1)
	if w.cfg.Debug.ForceSerial {
		w.deps.Board.WaitAll(m, "serialized memory op")
	}
}

// casDesiredRegs is the staging block the desired (swapped-in) values are
// built in: the first half of the element's data block, which buffer swaps
// also receive the returned previous content into.
func (w *writer) casDesiredRegs(elem *ElementPlan) isa.Reg {
	return isa.VGPRn(elem.Data, kernel.RegCount(w.cfg.DestType, w.gwvw))
}

// casReturnRegs is where the swap's returned previous content lands. Buffer
// swaps overwrite the desired-value slot; flat swaps name a separate return
// register, the third slot of the element's staging block. Per element: the
// whole batch's swaps are in flight together, so a shared return slot would
// be clobbered before the success checks read it.
func (w *writer) casReturnRegs(elem *ElementPlan) isa.Reg {
	if w.cfg.BufferStore {
		return w.casDesiredRegs(elem)
	}
	n := kernel.RegCount(w.cfg.DestType, w.gwvw)
	return isa.VGPRn(elem.Data+2*n, n)
}

// laneOr emits a lane-mask-wide scalar or.
func (w *writer) laneOr(m *isa.Module, dst, src0, src1 isa.Operand, comment string) {
	if w.laneSGPRs == 2 {
		m.Add(isa.SOrB64(dst, src0, src1).Commentf("%s", comment))
	} else {
		m.Add(isa.SOrB32(dst, src0, src1).Commentf("%s", comment))
	}
}

// laneAnd emits a lane-mask-wide scalar and.
func (w *writer) laneAnd(m *isa.Module, dst, src0, src1 isa.Operand, comment string) {
	if w.laneSGPRs == 2 {
		m.Add(isa.SAndB64(dst, src0, src1).Commentf("%s", comment))
	} else {
		m.Add(isa.SAndB32(dst, src0, src1).Commentf("%s", comment))
	}
}
