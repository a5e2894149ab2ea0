package epilogue

import (
	"github.com/gcnforge/gcnforge/isa"
	"github.com/gomlx/exceptions"
	"github.com/gomlx/gopjrt/dtypes"
)

// betaEmitters blends the loaded previous output into one element's
// accumulators: sum += beta * decode(C). Keyed by the storage type of the
// output tensor; decoding from storage to compute precision is part of each
// emitter.
var betaEmitters = map[dtypes.DType]func(w *writer, m *isa.Module, elem *ElementPlan){}

func init() {
	betaEmitters[dtypes.Float32] = betaFloat32
	betaEmitters[dtypes.Float64] = betaFloat64
	betaEmitters[dtypes.Float16] = betaFloat16
	betaEmitters[dtypes.BFloat16] = betaBFloat16
	betaEmitters[dtypes.Int32] = betaInt32
	betaEmitters[dtypes.Int8] = betaInt8
	betaEmitters[dtypes.F8E4M3FNUZ] = betaFloat8
	betaEmitters[dtypes.F8E5M2FNUZ] = betaFloat8
	betaEmitters[dtypes.Complex64] = betaComplex64
	betaEmitters[dtypes.Complex128] = betaComplex128
}

func (w *writer) accumulateBetaElem(m *isa.Module, elem *ElementPlan) {
	emit, ok := betaEmitters[w.cfg.DestType]
	if !ok {
		exceptions.Panicf("no beta blend for storage type %s", w.cfg.DestType)
	}
	emit(w, m, elem)
}

func byteSel(i int) isa.SelectBit { return isa.SelByte0 + isa.SelectBit(i) }

func betaFloat32(w *writer, m *isa.Module, elem *ElementPlan) {
	base := w.cLoadRegs(elem).Idx
	for vi := 0; vi < w.gwvw; vi++ {
		sum, _ := w.sumValue(elem, vi)
		m.Add(isa.VMacF32(sum, w.args.BetaReg, isa.VGPR(base+vi)).Commentf("+= beta * C"))
	}
}

func betaFloat64(w *writer, m *isa.Module, elem *ElementPlan) {
	base := w.cLoadRegs(elem).Idx
	for vi := 0; vi < w.gwvw; vi++ {
		sum, _ := w.sumValue(elem, vi)
		data := isa.VGPRn(base+2*vi, 2)
		m.Add(isa.VFmaF64(sum, w.args.BetaReg, data, sum).Commentf("+= beta * C"))
	}
}

// betaFloat16 has three shapes: packed halves stay packed (beta replicated
// into both halves of its scalar); high-precision accumulation blends each
// half with a mixed-precision fused multiply-add where the target has one,
// and decodes to a full float first where it does not.
func betaFloat16(w *writer, m *isa.Module, elem *ElementPlan) {
	base := w.cLoadRegs(elem).Idx
	t0 := w.tmpV(0)
	if w.halfPackedAcc() {
		for i := 0; i < w.accRegsPerElement(); i++ {
			reg := isa.VGPR(elem.SumIdx + i)
			m.Add(isa.VPkMulF16(t0, w.args.BetaReg, isa.VGPR(base+i)).Commentf("beta * C (packed halves)"))
			m.Add(isa.VPkAddF16(reg, t0, reg).Commentf("accumulate"))
		}
		return
	}
	if w.cfg.MixCap() {
		for vi := 0; vi < w.gwvw; vi++ {
			sum, _ := w.sumValue(elem, vi)
			data := isa.VGPR(base + vi/2)
			mix := isa.VFmaMixF32(sum, w.args.BetaReg, data, sum)
			if !w.cfg.Caps.HasFmaMixF32 {
				mix = isa.VMadMixF32(sum, w.args.BetaReg, data, sum)
			}
			// op_sel_hi marks C as half precision; op_sel picks its half.
			m.Add(mix.WithOpSel([]uint8{0, uint8(vi % 2), 0}, []uint8{0, 1, 0}).
				Commentf("+= beta * C half %d", vi%2))
		}
		return
	}
	for vi := 0; vi < w.gwvw; vi++ {
		sum, _ := w.sumValue(elem, vi)
		data := isa.VGPR(base + vi/2)
		if vi%2 == 0 {
			m.Add(isa.VCvtF32F16(t0, data).Commentf("decode C low half"))
		} else {
			m.Add(isa.VLshrrevB32(t0, isa.ImmInt(16), data).Commentf("C high half"))
			m.Add(isa.VCvtF32F16(t0, t0))
		}
		m.Add(isa.VMacF32(sum, w.args.BetaReg, t0).Commentf("+= beta * C"))
	}
}

func betaBFloat16(w *writer, m *isa.Module, elem *ElementPlan) {
	base := w.cLoadRegs(elem).Idx
	t0 := w.tmpV(0)
	for vi := 0; vi < w.gwvw; vi++ {
		sum, _ := w.sumValue(elem, vi)
		data := isa.VGPR(base + vi/2)
		if vi%2 == 0 {
			m.Add(isa.VLshlrevB32(t0, isa.ImmInt(16), data).Commentf("decode C low bfloat"))
		} else {
			m.Add(isa.VAndB32(t0, isa.HexImm(0xffff0000), data).Commentf("decode C high bfloat"))
		}
		m.Add(isa.VMacF32(sum, w.args.BetaReg, t0).Commentf("+= beta * C"))
	}
}

func betaInt32(w *writer, m *isa.Module, elem *ElementPlan) {
	base := w.cLoadRegs(elem).Idx
	t0 := w.tmpV(0)
	for vi := 0; vi < w.gwvw; vi++ {
		sum, _ := w.sumValue(elem, vi)
		m.Add(isa.VMulLoU32(t0, w.args.BetaReg, isa.VGPR(base+vi)).Commentf("beta * C"))
		m.Add(isa.VAddU32(sum, t0, sum).Commentf("accumulate"))
	}
}

func betaInt8(w *writer, m *isa.Module, elem *ElementPlan) {
	base := w.cLoadRegs(elem).Idx
	t0 := w.tmpV(0)
	for vi := 0; vi < w.gwvw; vi++ {
		sum, _ := w.sumValue(elem, vi)
		data := isa.VGPR(base + vi/4)
		if vi%4 == 3 {
			// Top byte sign-extends by the shift alone.
			m.Add(isa.VAshrrevI32(t0, isa.ImmInt(24), data).Commentf("sign-extend C byte 3"))
		} else {
			m.Add(isa.VBfeI32(t0, data, isa.ImmInt(8*(vi%4)), isa.ImmInt(8)).Commentf("sign-extend C byte %d", vi%4))
		}
		m.Add(isa.VMulLoU32(t0, w.args.BetaReg, t0).Commentf("beta * C"))
		m.Add(isa.VAddU32(sum, t0, sum).Commentf("accumulate"))
	}
}

func betaFloat8(w *writer, m *isa.Module, elem *ElementPlan) {
	base := w.cLoadRegs(elem).Idx
	t0 := w.tmpV(0)
	for vi := 0; vi < w.gwvw; vi++ {
		sum, _ := w.sumValue(elem, vi)
		data := isa.VGPR(base + vi/4)
		var cvt *isa.Inst
		if w.cfg.DestType == dtypes.F8E5M2FNUZ {
			cvt = isa.VCvtF32Bf8(t0, data)
		} else {
			cvt = isa.VCvtF32Fp8(t0, data)
		}
		m.Add(cvt.WithSDWA(isa.SDWA{Src0Sel: byteSel(vi % 4)}).Commentf("decode C byte %d", vi%4))
		m.Add(isa.SNop(1).Commentf("convert read gap"))
		m.Add(isa.VMacF32(sum, w.args.BetaReg, t0).Commentf("+= beta * C"))
	}
}

func betaComplex64(w *writer, m *isa.Module, elem *ElementPlan) {
	base := w.cLoadRegs(elem).Idx
	bRe := w.args.BetaReg.Sub(0, 1)
	bIm := w.args.BetaReg.Sub(1, 1)
	t0 := w.tmpV(0)
	for vi := 0; vi < w.gwvw; vi++ {
		sum, _ := w.sumValue(elem, vi)
		sRe := sum.Sub(0, 1)
		sIm := sum.Sub(1, 1)
		dRe := isa.VGPR(base + 2*vi)
		dIm := isa.VGPR(base + 2*vi + 1)
		m.Add(isa.VMacF32(sRe, bRe, dRe).Commentf("+= beta.r * C.r"))
		m.Add(isa.VMulF32(t0, bIm, dIm).Commentf("beta.i * C.i"))
		m.Add(isa.VSubF32(sRe, sRe, t0))
		m.Add(isa.VMacF32(sIm, bRe, dIm).Commentf("+= beta.r * C.i"))
		m.Add(isa.VMacF32(sIm, bIm, dRe).Commentf("+= beta.i * C.r"))
	}
}

func betaComplex128(w *writer, m *isa.Module, elem *ElementPlan) {
	base := w.cLoadRegs(elem).Idx
	bRe := w.args.BetaReg.Sub(0, 2)
	bIm := w.args.BetaReg.Sub(2, 2)
	t0 := isa.VGPRn(w.tmpVGPR.First, 2)
	for vi := 0; vi < w.gwvw; vi++ {
		sum, _ := w.sumValue(elem, vi)
		sRe := sum.Sub(0, 2)
		sIm := sum.Sub(2, 2)
		dRe := isa.VGPRn(base+4*vi, 2)
		dIm := isa.VGPRn(base+4*vi+2, 2)
		m.Add(isa.VFmaF64(sRe, bRe, dRe, sRe).Commentf("+= beta.r * C.r"))
		m.Add(isa.VMulF64(t0, bIm, dIm).Commentf("beta.i * C.i"))
		m.Add(isa.VSubF64(sRe, sRe, t0))
		m.Add(isa.VFmaF64(sIm, bRe, dIm, sIm).Commentf("+= beta.r * C.i"))
		m.Add(isa.VFmaF64(sIm, bIm, dRe, sIm).Commentf("+= beta.i * C.r"))
	}
}
