package epilogue

import (
	"github.com/gcnforge/gcnforge/isa"
	"github.com/gcnforge/gcnforge/kernel"
	"github.com/gomlx/exceptions"
	"github.com/gomlx/gopjrt/dtypes"
)

// Load and stage gates, shared between the prolog (what to load) and the
// arithmetic pipeline (what to apply). Scale and bias vectors only apply on
// the final accumulation pass.

func (w *writer) wantsScaleAlpha() bool {
	return w.cfg.UseScaleAlphaVec && w.cfg.GlobalSplitU == 1
}

func (w *writer) wantsBiasRead() bool {
	return w.cfg.Bias == kernel.BiasRead && w.cfg.GlobalSplitU == 1
}

func (w *writer) wantsELoad() bool {
	return w.cfg.Gradient && w.cfg.UseE && w.cfg.Activation != kernel.ActivationNone &&
		w.cfg.GlobalSplitU == 1
}

func (w *writer) wantsEStore() bool {
	return w.cfg.UseE && !w.cfg.Gradient && w.cfg.GlobalSplitU == 1
}

func (w *writer) wantsBiasReduction() bool {
	return w.cfg.Gradient && w.cfg.Bias == kernel.BiasWriteReduced
}

func (w *writer) wantsScaleD() bool {
	return w.cfg.UseScaleD && w.cfg.GlobalSplitU == 1
}

// intToFloat reports whether integer accumulators convert to float before
// the float-only stages run.
func (w *writer) intToFloat() bool {
	return w.cfg.ComputeType == dtypes.Int32 && w.cfg.ActivationComputeType == dtypes.Float32 &&
		w.cfg.Activation != kernel.ActivationNone
}

// pipelineValueType is the precision the mid-pipeline stages (bias,
// activation, output scale) see the values in.
func (w *writer) pipelineValueType() dtypes.DType {
	if w.intToFloat() || (w.wantsScaleAlpha() && w.cfg.ComputeType == dtypes.Int32) {
		return dtypes.Float32
	}
	return w.cfg.ComputeType
}

// biasMergesIntoActCopy: the called activation copies its inputs anyway, so
// the bias add produces the copy instead of a separate add+move pair.
func (w *writer) biasMergesIntoActCopy() bool {
	return w.cfg.ActivationFuncCall && !w.cfg.Gradient && w.wantsBiasRead() &&
		w.cfg.Activation != kernel.ActivationNone && !w.insertActivationAfterPack()
}

// arithElem runs the whole per-element value pipeline, leaving the packed
// storage-precision result in the element's store registers.
func (w *writer) arithElem(m *isa.Module, elem *ElementPlan) {
	if w.deferredAccum {
		// Raw compute-precision partials go to the workspace; the
		// reduction kernel applies everything else.
		return
	}
	if w.wantsScaleAlpha() {
		w.applyScaleAlphaElem(m, elem)
	}
	if w.args.Beta {
		w.accumulateBetaElem(m, elem)
	}
	if w.intToFloat() && !w.wantsScaleAlpha() {
		for vi := 0; vi < w.gwvw; vi++ {
			sum, _ := w.sumValue(elem, vi)
			m.Add(isa.VCvtF32I32(sum, sum).Commentf("int accumulator to float"))
		}
	}
	if w.wantsBiasRead() && !w.biasMergesIntoActCopy() {
		w.addBiasElem(m, elem)
	}
	if w.wantsEStore() {
		w.storeEElem(m, elem)
	}
	if w.wantsELoad() {
		w.decodeEElem(m, elem)
	}

	if w.insertActivationAfterPack() {
		w.packDElem(m, elem)
		w.activationElem(m, elem, w.cfg.DestType, true)
		return
	}
	w.activationElem(m, elem, w.pipelineValueType(), false)
	if w.wantsScaleD() {
		w.applyScaleDElem(m, elem)
	}
	if w.wantsBiasReduction() {
		w.storeBiasReductionElem(m, elem)
	}
	w.packDElem(m, elem)
}

// applyScaleAlphaElem multiplies each value by its per-column scale. A
// zero-length scale vector degrades to a multiply by 1.0, decided by the
// descriptor's record count; the guard select runs once per staging block.
func (w *writer) applyScaleAlphaElem(m *isa.Module, elem *ElementPlan) {
	scale := w.scaleAlphaRegs(elem)
	vt := w.pipelineValueType()

	if w.cfg.BufferStore && !w.scaleGuarded[elem.DataScaleAlpha] {
		w.scaleGuarded[elem.DataScaleAlpha] = true
		guard := w.tmpS(0)
		m.Add(isa.VCmpGtU32(guard, w.args.AddrScaleAlpha.Sub(2, 1), isa.ImmInt(0)).
			Commentf("scale vector present?"))
		one := isa.Operand(isa.ImmF32(1.0))
		if vt == dtypes.Float16 {
			one = isa.HexImm(0x3c003c00)
		}
		for r := 0; r < scale.N; r++ {
			reg := isa.VGPR(scale.Idx + r)
			m.Add(isa.VCndmaskB32(reg, one, reg, guard).Commentf("default scale to 1.0"))
		}
	}

	if w.cfg.ComputeType == dtypes.Int32 {
		for vi := 0; vi < w.gwvw; vi++ {
			sum, _ := w.sumValue(elem, vi)
			m.Add(isa.VCvtF32I32(sum, sum).Commentf("int accumulator to float"))
		}
	}
	switch vt {
	case dtypes.Float32:
		for vi := 0; vi < w.gwvw; vi++ {
			sum, _ := w.sumValue(elem, vi)
			m.Add(isa.VMulF32(sum, sum, isa.VGPR(scale.Idx+vi)).Commentf("*= column scale"))
		}
	case dtypes.Float16:
		for r := 0; r < w.accRegsPerElement(); r++ {
			reg := isa.VGPR(elem.SumIdx + r)
			m.Add(isa.VPkMulF16(reg, reg, isa.VGPR(scale.Idx+r)).Commentf("*= column scale (packed)"))
		}
	default:
		exceptions.Panicf("no column scaling for value type %s", vt)
	}
}

// addBiasElem adds the staged bias values in the pipeline precision.
func (w *writer) addBiasElem(m *isa.Module, elem *ElementPlan) {
	bias := w.biasRegs(elem)
	switch vt := w.pipelineValueType(); vt {
	case dtypes.Float32:
		for vi := 0; vi < w.gwvw; vi++ {
			sum, _ := w.sumValue(elem, vi)
			m.Add(isa.VAddF32(sum, isa.VGPR(bias.Idx+vi), sum).Commentf("+= bias"))
		}
	case dtypes.Float64:
		for vi := 0; vi < w.gwvw; vi++ {
			sum, _ := w.sumValue(elem, vi)
			m.Add(isa.VAddF64(sum, isa.VGPRn(bias.Idx+2*vi, 2), sum).Commentf("+= bias"))
		}
	case dtypes.Int32:
		for vi := 0; vi < w.gwvw; vi++ {
			sum, _ := w.sumValue(elem, vi)
			m.Add(isa.VAddU32(sum, isa.VGPR(bias.Idx+vi), sum).Commentf("+= bias"))
		}
	case dtypes.Float16:
		for r := 0; r < w.accRegsPerElement(); r++ {
			reg := isa.VGPR(elem.SumIdx + r)
			m.Add(isa.VPkAddF16(reg, isa.VGPR(bias.Idx+r), reg).Commentf("+= bias (packed)"))
		}
	default:
		exceptions.Panicf("no bias add for value type %s", vt)
	}
}

// storeEElem writes the pre-activation values to the auxiliary tensor,
// narrowed to its storage type when that differs from the pipeline type.
func (w *writer) storeEElem(m *isa.Module, elem *ElementPlan) {
	src := isa.VGPRn(elem.SumIdx, kernel.RegCount(w.cfg.DataTypeE, w.gwvw))
	if w.cfg.DataTypeE != w.pipelineValueType() {
		w.packInto(m, elem, w.cfg.DataTypeE, w.eRegs(elem))
		src = w.eRegs(elem)
	}
	m.Add(elem.Addr.LdChange(TensorE, w.oobReg()))
	w.globalStore(m, src, elem, TensorE, w.args.AddrE,
		w.gwvw*kernel.ByteSize(w.cfg.DataTypeE), false, "store pre-activation values")
}

// decodeEElem widens the loaded activation inputs to the activation
// precision in place, walking backwards so unpacked values never clobber
// not-yet-decoded ones.
func (w *writer) decodeEElem(m *isa.Module, elem *ElementPlan) {
	base := w.eRegs(elem).Idx
	switch w.cfg.DataTypeE {
	case dtypes.Float32:
		// Already in activation precision.
	case dtypes.Float16:
		for vi := w.gwvw - 1; vi >= 0; vi-- {
			src := isa.VGPR(base + vi/2)
			dst := isa.VGPR(base + vi)
			if vi%2 == 1 {
				m.Add(isa.VLshrrevB32(dst, isa.ImmInt(16), src).Commentf("activation input high half"))
				m.Add(isa.VCvtF32F16(dst, dst))
			} else {
				m.Add(isa.VCvtF32F16(dst, src).Commentf("activation input low half"))
			}
		}
	case dtypes.BFloat16:
		for vi := w.gwvw - 1; vi >= 0; vi-- {
			src := isa.VGPR(base + vi/2)
			dst := isa.VGPR(base + vi)
			if vi%2 == 1 {
				m.Add(isa.VAndB32(dst, isa.HexImm(0xffff0000), src).Commentf("activation input high bfloat"))
			} else {
				m.Add(isa.VLshlrevB32(dst, isa.ImmInt(16), src).Commentf("activation input low bfloat"))
			}
		}
	case dtypes.F8E4M3FNUZ, dtypes.F8E5M2FNUZ:
		bf8 := w.cfg.DataTypeE == dtypes.F8E5M2FNUZ
		vi := w.gwvw
		if vi%2 == 1 {
			vi--
			src := isa.VGPR(base + vi/4)
			dst := isa.VGPR(base + vi)
			cvt := isa.VCvtF32Fp8(dst, src)
			if bf8 {
				cvt = isa.VCvtF32Bf8(dst, src)
			}
			m.Add(cvt.WithSDWA(isa.SDWA{Src0Sel: byteSel(vi % 4)}).Commentf("decode activation input byte %d (tail)", vi%4))
			m.Add(isa.SNop(1).Commentf("convert read gap"))
		}
		for vi -= 2; vi >= 0; vi -= 2 {
			src := isa.VGPR(base + vi/4)
			dst := isa.VGPRn(base+vi, 2)
			cvt := isa.VCvtPkF32Fp8(dst, src)
			if bf8 {
				cvt = isa.VCvtPkF32Bf8(dst, src)
			}
			word := isa.SelWord0
			if (vi%4)/2 == 1 {
				word = isa.SelWord1
			}
			m.Add(cvt.WithSDWA(isa.SDWA{Src0Sel: word}).Commentf("decode activation input bytes %d:%d", vi%4, vi%4+1))
			m.Add(isa.SNop(1).Commentf("convert read gap"))
		}
	default:
		exceptions.Panicf("no activation input decode from %s", w.cfg.DataTypeE)
	}
}

// applyScaleDElem multiplies each value by the scalar output scale.
func (w *writer) applyScaleDElem(m *isa.Module, elem *ElementPlan) {
	switch vt := w.pipelineValueType(); vt {
	case dtypes.Float32:
		for vi := 0; vi < w.gwvw; vi++ {
			sum, _ := w.sumValue(elem, vi)
			m.Add(isa.VMulF32(sum, w.args.ScaleD, sum).Commentf("*= output scale"))
		}
	case dtypes.Float64:
		for vi := 0; vi < w.gwvw; vi++ {
			sum, _ := w.sumValue(elem, vi)
			m.Add(isa.VMulF64(sum, w.args.ScaleD, sum).Commentf("*= output scale"))
		}
	case dtypes.Int32:
		for vi := 0; vi < w.gwvw; vi++ {
			sum, _ := w.sumValue(elem, vi)
			m.Add(isa.VMulLoU32(sum, w.args.ScaleD, sum).Commentf("*= output scale"))
		}
	case dtypes.Float16:
		for r := 0; r < w.accRegsPerElement(); r++ {
			reg := isa.VGPR(elem.SumIdx + r)
			m.Add(isa.VPkMulF16(reg, w.args.ScaleD, reg).Commentf("*= output scale (packed)"))
		}
	default:
		exceptions.Panicf("no output scaling for value type %s", vt)
	}
}

// storeBiasReductionElem writes the element's bias-gradient partials, either
// to the workgroup staging tile in the local data share or straight to the
// reduction workspace.
func (w *writer) storeBiasReductionElem(m *isa.Module, elem *ElementPlan) {
	vt := w.pipelineValueType()
	src := isa.VGPRn(elem.SumIdx, kernel.RegCount(vt, w.gwvw))
	byteCount := w.gwvw * vt.Size()
	if w.cfg.WorkGroupReduction {
		w.localStore(m, src, elem, TensorBias, byteCount, "stage bias-gradient partials")
		return
	}
	m.Add(elem.Addr.LdChange(TensorBias, w.oobReg()))
	w.globalStore(m, src, elem, TensorBias, w.args.AddrBias, byteCount, false,
		"store bias-gradient partials")
}
