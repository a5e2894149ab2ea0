package epilogue

import (
	"github.com/gcnforge/gcnforge/isa"
	"github.com/gcnforge/gcnforge/kernel"
	"github.com/gomlx/exceptions"
	"github.com/gomlx/gopjrt/dtypes"
)

// activationElem emits the activation stage in whichever convention the
// configuration selects: nothing, inline bodies from the collaborator, or a
// call through the pre-resolved function pointer. packed means the values
// already sit in storage precision in the store block (post-pack
// placement).
//
// Gradient mode is different in kind: the derivative is evaluated at the
// saved pre-activation values and multiplied into the accumulators.
func (w *writer) activationElem(m *isa.Module, elem *ElementPlan, dt dtypes.DType, packed bool) {
	if w.cfg.Activation == kernel.ActivationNone {
		return
	}
	if w.cfg.Gradient {
		w.gradientActivationElem(m, elem)
		return
	}
	if w.cfg.ActivationFuncCall {
		w.activationCallElem(m, elem, packed)
		return
	}
	am := isa.NewModule("activation")
	for _, reg := range w.activationValueRegs(elem, dt, packed) {
		am.Add(w.deps.Activation.Emit(w.cfg.Activation, dt, false, reg, w.tmpV(0)))
	}
	m.Add(am)
}

// activationValueRegs lists the registers activation math runs over. For
// 16-bit types each register carries two packed values and the emitter is
// expected to use the packed instruction forms.
func (w *writer) activationValueRegs(elem *ElementPlan, dt dtypes.DType, packed bool) []isa.Reg {
	if packed {
		block := w.storeRegs(elem)
		regs := make([]isa.Reg, block.N)
		for r := range regs {
			regs[r] = isa.VGPR(block.Idx + r)
		}
		return regs
	}
	if w.halfPackedAcc() {
		regs := make([]isa.Reg, w.accRegsPerElement())
		for r := range regs {
			regs[r] = isa.VGPR(elem.SumIdx + r)
		}
		return regs
	}
	regs := make([]isa.Reg, w.gwvw)
	for vi := range regs {
		regs[vi], _ = w.sumValue(elem, vi)
	}
	return regs
}

// activationCallElem copies the values into the calling convention's
// working block, calls through the function pointer, and copies the results
// back. When a bias read is pending the copy-in doubles as the bias add.
func (w *writer) activationCallElem(m *isa.Module, elem *ElementPlan, packed bool) {
	act := w.args.ActPC
	regs := w.activationValueRegs(elem, w.pipelineValueType(), packed)

	cm := isa.NewModule("activation call")
	copyBase := act.CopyBase.Idx
	off := 0
	for _, reg := range regs {
		n := max(reg.N, 1)
		for k := 0; k < n; k++ {
			dst := isa.VGPR(copyBase + off)
			src := isa.VGPR(reg.Idx + k)
			if w.biasMergesIntoActCopy() && !packed {
				w.addBiasIntoCopy(cm, elem, dst, src, off)
			} else {
				cm.Add(isa.VMovB32(dst, src).Commentf("stage activation input"))
			}
			off++
		}
	}
	cm.Add(isa.SSwappcB64(act.ReturnPC, act.FuncPtr).Commentf("call activation"))
	off = 0
	for _, reg := range regs {
		n := max(reg.N, 1)
		for k := 0; k < n; k++ {
			cm.Add(isa.VMovB32(isa.VGPR(reg.Idx+k), isa.VGPR(copyBase+off)).Commentf("collect activation output"))
			off++
		}
	}
	m.Add(cm)
}

// addBiasIntoCopy emits the fused bias-add-and-copy of one register.
func (w *writer) addBiasIntoCopy(m *isa.Module, elem *ElementPlan, dst, src isa.Reg, regOff int) {
	bias := isa.VGPR(w.biasRegs(elem).Idx + regOff)
	switch vt := w.pipelineValueType(); vt {
	case dtypes.Float32:
		m.Add(isa.VAddF32(dst, bias, src).Commentf("+= bias, staged for activation"))
	case dtypes.Float16:
		m.Add(isa.VPkAddF16(dst, bias, src).Commentf("+= bias (packed), staged for activation"))
	case dtypes.Int32:
		m.Add(isa.VAddU32(dst, bias, src).Commentf("+= bias, staged for activation"))
	default:
		exceptions.Panicf("no fused bias copy for value type %s", vt)
	}
}

// gradientActivationElem evaluates the activation derivative at the decoded
// auxiliary tensor values and multiplies it into the accumulators.
func (w *writer) gradientActivationElem(m *isa.Module, elem *ElementPlan) {
	actType := w.cfg.ActivationComputeType
	eBase := w.eRegs(elem).Idx
	eRegN := kernel.RegCount(actType, 1)

	gm := isa.NewModule("activation gradient")
	if w.cfg.ActivationFuncCall {
		act := w.args.ActPC
		copyBase := act.CopyBase.Idx
		for r := 0; r < w.gwvw*eRegN; r++ {
			gm.Add(isa.VMovB32(isa.VGPR(copyBase+r), isa.VGPR(eBase+r)).Commentf("stage derivative input"))
		}
		gm.Add(isa.SSwappcB64(act.ReturnPC, act.FuncPtr).Commentf("call activation derivative"))
		for r := 0; r < w.gwvw*eRegN; r++ {
			gm.Add(isa.VMovB32(isa.VGPR(eBase+r), isa.VGPR(copyBase+r)).Commentf("collect derivative"))
		}
	} else {
		for vi := 0; vi < w.gwvw; vi++ {
			val := isa.VGPRn(eBase+vi*eRegN, eRegN)
			gm.Add(w.deps.Activation.Emit(w.cfg.Activation, actType, true, val, w.tmpV(0)))
		}
	}

	for vi := 0; vi < w.gwvw; vi++ {
		sum, _ := w.sumValue(elem, vi)
		grad := isa.VGPRn(eBase+vi*eRegN, eRegN)
		switch vt := w.pipelineValueType(); vt {
		case dtypes.Float32:
			gm.Add(isa.VMulF32(sum, sum, grad).Commentf("*= activation gradient"))
		case dtypes.Float64:
			gm.Add(isa.VMulF64(sum, sum, grad).Commentf("*= activation gradient"))
		default:
			exceptions.Panicf("no gradient multiply for value type %s", vt)
		}
	}
	m.Add(gm)
}
