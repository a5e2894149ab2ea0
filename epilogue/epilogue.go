// Package epilogue generates the write-back tail of a GEMM kernel: the
// instruction batches that move accumulated tile values out of registers and
// into the output tensor.
//
// A batch covers a group of output positions (see BatchPlan). For each batch
// Emit produces the loads of whatever auxiliary tensors the configuration
// needs (previous output for beta blending, bias, scale vectors, the
// activation auxiliary tensor), the arithmetic pipeline (alpha and beta
// scaling, bias, activation, output scaling, narrowing to the storage type)
// and the final stores, either plain or atomic when independent workgroups
// accumulate into the same output elements.
//
// The package does not assign registers and does not lay out tensors. Both
// belong to the kernel writer, which hands the batch a finished register
// plan (ElementPlan), scalar inputs (BatchArgs) and shared collaborators
// (Deps). Emission only checks scratch registers out of the pools and
// returns every one of them before it is done, so batches compose without
// the writer re-planning between them.
//
// All register bookkeeping violations, malformed plans and unsupported type
// combinations are programming errors of the caller and panic (recovered
// into an error by Emit); genuinely data-dependent conditions never panic.
package epilogue

import (
	"fmt"
	"strings"

	"github.com/gcnforge/gcnforge/internal/xslices"
	"github.com/gcnforge/gcnforge/isa"
	"github.com/gcnforge/gcnforge/kernel"
	"github.com/gcnforge/gcnforge/regalloc"
	"github.com/gomlx/exceptions"
	"github.com/gomlx/gopjrt/dtypes"
	"github.com/pkg/errors"
	"k8s.io/klog/v2"
)

// Emit generates the complete instruction stream of one write batch.
//
// It validates cfg, then runs the batch writer under a panic catcher: plan
// and argument inconsistencies surface as errors rather than crashing the
// kernel writer loop.
func Emit(cfg *kernel.Config, plan *BatchPlan, args BatchArgs, deps Deps) (mod *isa.Module, err error) {
	if err = cfg.Validate(); err != nil {
		return nil, errors.WithMessagef(err, "emitting write batch #%d", args.BatchIdx)
	}
	err = exceptions.TryCatch[error](func() {
		w := newWriter(cfg, plan, &args, &deps)
		mod = w.emit()
	})
	if err != nil {
		return nil, errors.WithMessagef(err, "emitting write batch #%d", args.BatchIdx)
	}
	return mod, nil
}

// loadSnapshot records, per element, how many loads had been issued once the
// element's own loads were in flight. The interleaved wait before the
// element's arithmetic is derived from it: outstanding minus snapshot.
type loadSnapshot struct {
	vm   int
	lgkm int
}

// writer holds the state of one batch emission.
type writer struct {
	cfg  *kernel.Config
	plan *BatchPlan
	args *BatchArgs
	deps *Deps

	root *isa.Module
	// storeSink receives store instructions. Normally the element module
	// currently being filled, so each store issues right after its
	// element's arithmetic; under grouped stores a separate module
	// appended after the element loop, so the whole batch's stores issue
	// back to back.
	storeSink *isa.Module

	// Derived once from cfg and args.
	gwvw          int
	laneSGPRs     int
	regsPerValue  int
	useAtomicAdd  bool
	interleaved   bool
	deferredAccum bool

	// Scratch, checked out in emit and returned in epilog. The baselines
	// record pool occupancy before the batch takes anything, so the epilog
	// can verify the batch released all of it.
	tmpVGPR      regalloc.Checkout
	tmpSGPR      regalloc.Checkout
	oob          regalloc.Checkout
	vgprBaseline int
	sgprBaseline int

	// Load and store accounting for wait placement.
	vmLoads      int
	lgkmLoads    int
	storesIssued int
	snapshots    []loadSnapshot

	// scaleGuarded marks scale staging blocks whose zero-length guard
	// select already ran.
	scaleGuarded map[int]bool

	// Pre-generated template consumption cursors.
	accReads  []*isa.Inst
	alphaMuls []*isa.Inst
	accNext   int
	alphaNext int
}

func newWriter(cfg *kernel.Config, plan *BatchPlan, args *BatchArgs, deps *Deps) *writer {
	w := &writer{
		cfg:  cfg,
		plan: plan,
		args: args,
		deps: deps,

		gwvw:         plan.GWVW,
		laneSGPRs:    cfg.LaneSGPRCount(),
		regsPerValue: kernel.RegCount(cfg.ComputeType, 1),

		snapshots:    make([]loadSnapshot, len(plan.Elements)),
		scaleGuarded: make(map[int]bool),
	}
	w.useAtomicAdd = args.Atomic && cfg.Caps.HasAtomicAddF32 && cfg.BufferStore &&
		cfg.DestType == dtypes.Float32 && cfg.ComputeType == dtypes.Float32 &&
		cfg.Accum == kernel.AccumSingleBuffer
	w.interleaved = cfg.InterleaveStoreVmcnt && !args.Edge && !args.Atomic
	w.deferredAccum = cfg.Accum == kernel.AccumMultipleBuffer
	if args.AccVGPRRead != nil {
		w.accReads = args.AccVGPRRead.Instructions()
	}
	if args.MulAlpha != nil {
		w.alphaMuls = args.MulAlpha.Instructions()
	}
	return w
}

func (w *writer) emit() *isa.Module {
	w.checkPlan()
	w.root = isa.NewModule(fmt.Sprintf("write batch #%d", w.args.BatchIdx))
	w.storeSink = w.root
	if w.groupedStores() {
		w.storeSink = isa.NewModule("grouped stores")
	}
	w.addBatchHeader()
	w.checkOutScratch()

	w.prolog()
	switch {
	case w.args.Atomic && w.useAtomicAdd:
		w.emitAtomicAdd()
	case w.args.Atomic:
		w.emitCASAdd()
	default:
		w.emitNonAtomic()
	}
	w.epilog()

	if klog.V(1).Enabled() {
		klog.Infof("write batch #%d (beta=%v edge=%v atomic=%v): %v; %v",
			w.args.BatchIdx, w.args.Beta, w.args.Edge, w.args.Atomic,
			w.root.Stats(), w.deps.Board)
	}
	return w.root
}

// checkPlan rejects plans and arguments the writer cannot emit. Everything
// here is a caller bug, not a runtime condition.
func (w *writer) checkPlan() {
	plan, args, cfg := w.plan, w.args, w.cfg
	if len(plan.Elements) == 0 {
		exceptions.Panicf("write batch #%d has no elements", args.BatchIdx)
	}
	if plan.GWVW < 1 {
		exceptions.Panicf("write batch #%d: vector width %d, must be >= 1", args.BatchIdx, plan.GWVW)
	}
	if w.deps.VGPR == nil || w.deps.SGPR == nil || w.deps.Board == nil || w.deps.Labels == nil {
		exceptions.Panicf("write batch #%d: incomplete collaborators (VGPR/SGPR/Board/Labels are required)", args.BatchIdx)
	}
	if args.Edge {
		for i := range plan.Elements {
			if plan.Elements[i].Mask < 0 {
				exceptions.Panicf("edge batch #%d: element %v has no lane mask", args.BatchIdx, plan.Elements[i].Element)
			}
		}
	}
	if args.Beta && args.Atomic {
		exceptions.Panicf("batch #%d: beta blending is undefined under atomic accumulation, the output already holds the running total",
			args.BatchIdx)
	}
	if args.Beta || (args.Atomic && !w.useAtomicAdd) {
		for i := range plan.Elements {
			if plan.Elements[i].Data < 0 {
				exceptions.Panicf("batch #%d: element %v has no data staging registers", args.BatchIdx, plan.Elements[i].Element)
			}
		}
	}
	if args.Atomic {
		if args.AtomicWidth < 1 || args.AtomicWidth > plan.GWVW || plan.GWVW%args.AtomicWidth != 0 {
			exceptions.Panicf("batch #%d: atomic width %d does not divide vector width %d",
				args.BatchIdx, args.AtomicWidth, plan.GWVW)
		}
		if kernel.ByteSize(cfg.DestType) == 2 && args.AtomicWidth < 2 && !w.useAtomicAdd {
			exceptions.Panicf("batch #%d: 16-bit atomics need atomic width >= 2 (compare-and-swap is 32-bit)",
				args.BatchIdx)
		}
		if cfg.Gradient || cfg.UseE || cfg.Bias != kernel.BiasNone {
			exceptions.Panicf("batch #%d: atomic write-back cannot combine with bias, gradient or the auxiliary tensor",
				args.BatchIdx)
		}
		if w.deferredAccum {
			exceptions.Panicf("batch #%d: atomic write-back and workspace accumulation are mutually exclusive",
				args.BatchIdx)
		}
		if cfg.ComputeType != cfg.DestType {
			exceptions.Panicf("batch #%d: atomic accumulation adds compute values into stored values, types must match (%s into %s)",
				args.BatchIdx, cfg.ComputeType, cfg.DestType)
		}
	}
	if args.Atomic && !w.useAtomicAdd {
		// The compare-and-swap protocol swaps each element's sub-vector
		// whole and tracks per-element retry masks.
		if args.AtomicWidth != plan.GWVW {
			exceptions.Panicf("batch #%d: compare-and-swap covers whole sub-vectors, atomic width %d != vector width %d",
				args.BatchIdx, args.AtomicWidth, plan.GWVW)
		}
		if n := kernel.RegCount(cfg.DestType, plan.GWVW); n > 2 {
			exceptions.Panicf("batch #%d: compare-and-swap is at most 64 bits wide, %s x%d spans %d registers",
				args.BatchIdx, cfg.DestType, plan.GWVW, n)
		}
		for i := range plan.Elements {
			if plan.Elements[i].Mask < 0 {
				exceptions.Panicf("batch #%d: compare-and-swap element %v has no retry mask registers",
					args.BatchIdx, plan.Elements[i].Element)
			}
		}
	}
	if cfg.StoreRemapVectorWidth > 0 {
		if w.deps.Remap == nil {
			exceptions.Panicf("batch #%d: store remap configured with no remapper", args.BatchIdx)
		}
		if args.Atomic {
			exceptions.Panicf("batch #%d: store remap cannot combine with atomic write-back", args.BatchIdx)
		}
	}
	if cfg.Debug.CheckStoreC && w.deferredAccum {
		exceptions.Panicf("batch #%d: store read-back check does not cover workspace stores", args.BatchIdx)
	}
	if cfg.UseScaleAlphaVec && cfg.ComputeType == dtypes.Int32 && args.Beta {
		exceptions.Panicf("batch #%d: column scaling converts integer accumulators to float, which the integer beta blend cannot follow",
			args.BatchIdx)
	}
	if cfg.Activation != kernel.ActivationNone && !cfg.ActivationFuncCall && w.deps.Activation == nil {
		exceptions.Panicf("batch #%d: inline activation %v configured with no activation emitter",
			args.BatchIdx, cfg.Activation)
	}
	if cfg.Activation != kernel.ActivationNone && cfg.ActivationFuncCall && args.ActPC.IsZero() {
		exceptions.Panicf("batch #%d: activation function call configured with no calling-convention registers",
			args.BatchIdx)
	}
	if len(w.accReads) > 0 && w.regsPerValue != 1 {
		exceptions.Panicf("batch #%d: accumulator read templates assume one register per value, compute type %v has %d",
			args.BatchIdx, cfg.ComputeType, w.regsPerValue)
	}
}

// addBatchHeader writes the decorated comment naming the batch and listing
// its elements, a few per line.
func (w *writer) addBatchHeader() {
	mode := "plain"
	if w.args.Atomic {
		mode = "atomic"
	}
	w.root.AddCommentHeader("write batch #%d: %s, beta=%v edge=%v (d1,d0,vc1,vc0)",
		w.args.BatchIdx, mode, w.args.Beta, w.args.Edge)
	const perLine = 4
	for start := 0; start < len(w.plan.Elements); start += perLine {
		end := min(start+perLine, len(w.plan.Elements))
		parts := xslices.Map(w.plan.Elements[start:end], func(ep ElementPlan) string {
			e := ep.Element
			if w.args.Atomic {
				return fmt.Sprintf("(%d,%d,%d,%d:vw%d:vaw%d)", e.D1, e.D0, e.VC1, e.VC0, w.gwvw, w.args.AtomicWidth)
			}
			return fmt.Sprintf("(%d,%d,%d,%d:vw%d)", e.D1, e.D0, e.VC1, e.VC0, w.gwvw)
		})
		w.root.AddComment("  %s", strings.Join(parts, "; "))
	}
}

// checkOutScratch acquires the batch-lifetime scratch registers. They are
// returned in epilog; everything shorter-lived is checked out at its use
// site.
func (w *writer) checkOutScratch() {
	w.vgprBaseline = w.deps.VGPR.InUse()
	w.sgprBaseline = w.deps.SGPR.InUse()

	n := 2
	if w.cfg.ComputeType == dtypes.Complex128 {
		n = 4
	}
	w.tmpVGPR = w.deps.VGPR.CheckOutAligned(n, 2)
	w.tmpSGPR = w.deps.SGPR.CheckOutAligned(4*w.laneSGPRs, 2)
	if w.cfg.BufferStore && w.args.Edge {
		w.oob = w.deps.VGPR.CheckOut(1)
	}
}

func (w *writer) tmpV(i int) isa.Reg { return isa.VGPR(w.tmpVGPR.First + i) }

// tmpS returns the i-th lane-mask-sized scalar scratch block.
func (w *writer) tmpS(i int) isa.Reg {
	return isa.SGPRn(w.tmpSGPR.First+i*w.laneSGPRs, w.laneSGPRs)
}

func (w *writer) oobReg() isa.Reg {
	if w.oob.IsZero() {
		return isa.Reg{}
	}
	return isa.VGPR(w.oob.First)
}

// execMov emits a lane-mask-wide scalar move into dst.
func (w *writer) execMov(m *isa.Module, dst, src isa.Operand, comment string) {
	if w.laneSGPRs == 2 {
		m.Add(isa.SMovB64(dst, src).Commentf("%s", comment))
	} else {
		m.Add(isa.SMovB32(dst, src).Commentf("%s", comment))
	}
}

// maskReg returns the edge lane mask of elem.
func (w *writer) maskReg(elem *ElementPlan) isa.Reg {
	return isa.SGPRn(elem.Mask, w.laneSGPRs)
}

// sumValue locates sub-vector value vi of elem in the accumulator block:
// the register, and whether the value lives in its high half.
func (w *writer) sumValue(elem *ElementPlan, vi int) (reg isa.Reg, hi bool) {
	if w.halfPackedAcc() {
		return isa.VGPR(elem.SumIdx + vi/2), vi%2 == 1
	}
	if w.regsPerValue == 1 {
		return isa.VGPR(elem.SumIdx + vi), false
	}
	return isa.VGPRn(elem.SumIdx+vi*w.regsPerValue, w.regsPerValue), false
}

// halfPackedAcc reports whether accumulators pack two values per register:
// 16-bit compute without high-precision accumulation. Wave matrix
// instructions leave one value per register instead, in the low half.
func (w *writer) halfPackedAcc() bool {
	return w.cfg.ComputeType.Size() == 2 && !w.cfg.HighPrecisionAccumulate &&
		!(w.cfg.EnableMatrixInstruction && w.cfg.Caps.HasWMMA)
}

// insertActivationAfterPack reports whether the activation moves after the
// convert-and-pack stage, running on storage-precision values. Forward
// passes only; the gates differ between the call and inline conventions.
func (w *writer) insertActivationAfterPack() bool {
	cfg := w.cfg
	if cfg.Activation == kernel.ActivationNone || cfg.Gradient {
		return false
	}
	if kernel.ByteSize(cfg.DestType) < 2 {
		return false
	}
	if cfg.ActivationFuncCall {
		return cfg.ActivationComputeType == cfg.DestType &&
			cfg.ActivationComputeType != cfg.ComputeType &&
			!(cfg.UseScaleD && cfg.UseScaleAlphaVec)
	}
	return cfg.InsertActivationAfterPack && !cfg.UseScaleAlphaVec
}

// accRegsPerElement is how many accumulator registers one element spans.
func (w *writer) accRegsPerElement() int {
	if w.halfPackedAcc() {
		return (w.gwvw + 1) / 2
	}
	return w.gwvw * w.regsPerValue
}

// takeAccReads consumes one accumulator-read template per value of the
// element, pointing each at its destination register, and appends a hazard
// gap after the group.
func (w *writer) takeAccReads(m *isa.Module, elem *ElementPlan) {
	n := w.accRegsPerElement()
	if w.accNext+n > len(w.accReads) {
		exceptions.Panicf("accumulator read templates exhausted: need %d more, have %d",
			n, len(w.accReads)-w.accNext)
	}
	for i := 0; i < n; i++ {
		inst := w.accReads[w.accNext].ReplaceHolder("AccDst", isa.VGPR(elem.SumIdx+i))
		w.accNext++
		m.Add(inst)
	}
	if !w.cfg.MIArchVgpr {
		m.Add(isa.SNop(1).Commentf("accumulator read hazard gap"))
	}
}

// takeAlphaMuls consumes one alpha-multiply template per accumulator
// register of the element.
func (w *writer) takeAlphaMuls(m *isa.Module, elem *ElementPlan) {
	n := w.accRegsPerElement()
	if w.alphaNext+n > len(w.alphaMuls) {
		exceptions.Panicf("alpha multiply templates exhausted: need %d more, have %d",
			n, len(w.alphaMuls)-w.alphaNext)
	}
	for i := 0; i < n; i++ {
		inst := w.alphaMuls[w.alphaNext].ReplaceHolder("Value", isa.VGPR(elem.SumIdx+i))
		w.alphaNext++
		m.Add(inst)
	}
}

// bytesPerStore is the width of one output sub-vector as stored: storage
// precision normally, compute precision when partials go to a workspace.
func (w *writer) bytesPerStore() int {
	if w.deferredAccum {
		return w.gwvw * w.cfg.ComputeType.Size()
	}
	return w.gwvw * kernel.ByteSize(w.cfg.DestType)
}

// cLoadRegs is where the previous output content of elem lands: the staging
// block itself, or its second half in atomic batches (the first half holds
// the values to swap in).
func (w *writer) cLoadRegs(elem *ElementPlan) isa.Reg {
	n := kernel.RegCount(w.cfg.DestType, w.gwvw)
	base := elem.Data
	if w.args.Atomic {
		base += n
	}
	return isa.VGPRn(base, n)
}
