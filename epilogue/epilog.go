package epilogue

import (
	"github.com/gcnforge/gcnforge/isa"
	"github.com/gomlx/exceptions"
	"k8s.io/klog/v2"
)

// epilog closes the batch: drains the local staging writes the kernel
// writer's follow-up code consumes, returns the batch scratch and verifies
// the shared state is back where the next batch expects it.
func (w *writer) epilog() {
	m := isa.NewModule("epilog")
	w.root.Add(m)

	// Bias-reduction and store-remap staging is read back by code emitted
	// after the batch; it must be in the local data share by then, and the
	// next batch asserts clean counters.
	if w.deps.Board.PendingLGKM() > 0 {
		w.deps.Board.WaitLGKM(m, 0, "staged local writes")
	}

	if w.cfg.Debug.ConservativeWaitCnt >= 2 {
		m.Add(isa.SBarrier().Commentf("conservative batch exit"))
		w.deps.Board.WaitAll(m, "conservative batch exit")
		m.Add(isa.SBarrier().Commentf("conservative batch exit"))
	}

	w.deps.VGPR.CheckIn(w.tmpVGPR)
	w.deps.SGPR.CheckIn(w.tmpSGPR)
	w.deps.VGPR.CheckIn(w.oob)

	if n := w.deps.Board.PendingVM(); n != 0 {
		exceptions.Panicf("batch #%d ends with %d loads outstanding", w.args.BatchIdx, n)
	}
	if got := w.deps.VGPR.InUse(); got != w.vgprBaseline {
		exceptions.Panicf("batch #%d leaked vector registers: %d in use at entry, %d at exit",
			w.args.BatchIdx, w.vgprBaseline, got)
	}
	if got := w.deps.SGPR.InUse(); got != w.sgprBaseline {
		exceptions.Panicf("batch #%d leaked scalar registers: %d in use at entry, %d at exit",
			w.args.BatchIdx, w.sgprBaseline, got)
	}

	if klog.V(2).Enabled() {
		klog.Infof("batch #%d epilog: %d stores issued; %v; %v",
			w.args.BatchIdx, w.storesIssued, w.deps.VGPR, w.deps.SGPR)
	}
}
