package epilogue

import (
	"github.com/gcnforge/gcnforge/isa"
	"github.com/gcnforge/gcnforge/kernel"
	"github.com/gomlx/exceptions"
	"github.com/gomlx/gopjrt/dtypes"
)

// packEmitters narrows one element's pipeline-precision values to a storage
// type, packed into the dst block. Emitters stage through the scratch
// registers and never modify the source values, so the auxiliary tensor can
// be packed mid-pipeline. dst may alias the accumulator block; every
// sequence writes a destination register only after consuming the sources
// that share it.
var packEmitters = map[dtypes.DType]func(w *writer, m *isa.Module, elem *ElementPlan, dt dtypes.DType, dst isa.Reg){}

func init() {
	packEmitters[dtypes.Float32] = packIdentity
	packEmitters[dtypes.Float64] = packIdentity
	packEmitters[dtypes.Complex64] = packIdentity
	packEmitters[dtypes.Complex128] = packIdentity
	packEmitters[dtypes.Float16] = packFloat16
	packEmitters[dtypes.BFloat16] = packBFloat16
	packEmitters[dtypes.Int32] = packInt32
	packEmitters[dtypes.Int8] = packInt8
	packEmitters[dtypes.F8E4M3FNUZ] = packFloat8
	packEmitters[dtypes.F8E5M2FNUZ] = packFloat8
}

// storeRegs is the block the packed output values end up in, overlaying the
// start of the accumulator block. Deferred accumulation stores the raw
// compute-precision block instead.
func (w *writer) storeRegs(elem *ElementPlan) isa.Reg {
	if w.deferredAccum {
		return isa.VGPRn(elem.SumIdx, kernel.RegCount(w.cfg.ComputeType, w.gwvw))
	}
	return isa.VGPRn(elem.SumIdx, kernel.RegCount(w.cfg.DestType, w.gwvw))
}

func (w *writer) packDElem(m *isa.Module, elem *ElementPlan) {
	w.packInto(m, elem, w.cfg.DestType, w.storeRegs(elem))
}

func (w *writer) packInto(m *isa.Module, elem *ElementPlan, dt dtypes.DType, dst isa.Reg) {
	emit, ok := packEmitters[dt]
	if !ok {
		exceptions.Panicf("no pack sequence for storage type %s", dt)
	}
	emit(w, m, elem, dt, dst)
}

func packIdentity(w *writer, m *isa.Module, elem *ElementPlan, dt dtypes.DType, dst isa.Reg) {
	if dst.Idx == elem.SumIdx {
		return
	}
	for r := 0; r < dst.N; r++ {
		m.Add(isa.VMovB32(isa.VGPR(dst.Idx+r), isa.VGPR(elem.SumIdx+r)).Commentf("move to store block"))
	}
}

func packFloat16(w *writer, m *isa.Module, elem *ElementPlan, dt dtypes.DType, dst isa.Reg) {
	if w.halfPackedAcc() {
		packIdentity(w, m, elem, dt, dst)
		return
	}
	// Matrix-instruction half accumulators hold one value per register in
	// the low half; packing is purely a neighbor merge.
	if w.cfg.ComputeType == dtypes.Float16 && w.cfg.EnableMatrixInstruction && w.cfg.Caps.HasWMMA {
		for vi := 0; vi+1 < w.gwvw; vi += 2 {
			m.Add(isa.VPackB32F16(isa.VGPR(dst.Idx+vi/2),
				isa.VGPR(elem.SumIdx+vi), isa.VGPR(elem.SumIdx+vi+1)).
				Commentf("pack neighbor halves"))
		}
		if w.gwvw%2 == 1 {
			last := w.gwvw - 1
			m.Add(isa.VMovB32(isa.VGPR(dst.Idx+last/2), isa.VGPR(elem.SumIdx+last)))
		}
		return
	}
	t0, t1 := w.tmpV(0), w.tmpV(1)
	for vi := 0; vi+1 < w.gwvw; vi += 2 {
		s0, _ := w.sumValue(elem, vi)
		s1, _ := w.sumValue(elem, vi+1)
		m.Add(isa.VCvtF16F32(t0, s0).Commentf("narrow to half"))
		m.Add(isa.VCvtF16F32(t1, s1))
		m.Add(isa.VPackB32F16(isa.VGPR(dst.Idx+vi/2), t0, t1).Commentf("pack halves"))
	}
	if w.gwvw%2 == 1 {
		s, _ := w.sumValue(elem, w.gwvw-1)
		m.Add(isa.VCvtF16F32(isa.VGPR(dst.Idx+(w.gwvw-1)/2), s).Commentf("narrow to half (tail)"))
	}
}

// packBFloat16 rounds to nearest even by hand: add half of the dropped
// mantissa plus its LSB, keeping NaNs NaN through a class-mask select.
func packBFloat16(w *writer, m *isa.Module, elem *ElementPlan, dt dtypes.DType, dst isa.Reg) {
	cvt := w.args.Cvt
	if cvt.Bf16Temp.IsZero() || cvt.Bf16Mask.IsZero() || cvt.F32Nan.IsZero() || cvt.Bf16Inc.IsZero() {
		exceptions.Panicf("bfloat16 pack needs the rounding scratch registers")
	}
	guard := w.tmpS(0)
	for vi := 0; vi < w.gwvw; vi++ {
		s, _ := w.sumValue(elem, vi)
		dstReg := isa.VGPR(dst.Idx + vi/2)
		m.Add(isa.VCmpClassF32(guard, s, isa.ImmInt(3)).Commentf("NaN?"))
		m.Add(isa.VBfeU32(cvt.Bf16Temp, s, isa.ImmInt(16), isa.ImmInt(1)).Commentf("dropped-mantissa LSB"))
		m.Add(isa.VAdd3U32(cvt.Bf16Temp, s, cvt.Bf16Temp, cvt.Bf16Inc).Commentf("round to nearest even"))
		m.Add(isa.VCndmaskB32(cvt.Bf16Temp, cvt.Bf16Temp, cvt.F32Nan, guard).Commentf("NaN passthrough"))
		if vi%2 == 0 {
			m.Add(isa.VLshrrevB32(dstReg, isa.ImmInt(16), cvt.Bf16Temp).Commentf("place low bfloat"))
		} else {
			m.Add(isa.VAndOrB32(dstReg, cvt.Bf16Temp, cvt.Bf16Mask, dstReg).Commentf("merge high bfloat"))
		}
	}
}

func packInt32(w *writer, m *isa.Module, elem *ElementPlan, dt dtypes.DType, dst isa.Reg) {
	if w.pipelineValueType() != dtypes.Float32 {
		packIdentity(w, m, elem, dt, dst)
		return
	}
	// Values went through float stages; bring them back.
	for vi := 0; vi < w.gwvw; vi++ {
		s, _ := w.sumValue(elem, vi)
		dstReg := isa.VGPR(dst.Idx + vi)
		m.Add(isa.VRndneF32(dstReg, s).Commentf("round to nearest even"))
		m.Add(isa.VCvtI32F32(dstReg, dstReg).Commentf("back to int"))
	}
}

func packInt8(w *writer, m *isa.Module, elem *ElementPlan, dt dtypes.DType, dst isa.Reg) {
	cvt := w.args.Cvt
	if cvt.Fp8Max.IsZero() || cvt.Fp8Min.IsZero() {
		exceptions.Panicf("int8 pack needs the clamp bound registers")
	}
	fromFloat := w.pipelineValueType() == dtypes.Float32
	t0 := w.tmpV(0)
	for vi := 0; vi < w.gwvw; vi++ {
		s, _ := w.sumValue(elem, vi)
		dstReg := isa.VGPR(dst.Idx + vi/4)
		if fromFloat {
			m.Add(isa.VRndneF32(t0, s).Commentf("round to nearest even"))
			m.Add(isa.VCvtI32F32(t0, t0).Commentf("to int"))
			m.Add(isa.VMed3I32(t0, t0, cvt.Fp8Min, cvt.Fp8Max).Commentf("saturate to byte range"))
		} else {
			m.Add(isa.VMed3I32(t0, s, cvt.Fp8Min, cvt.Fp8Max).Commentf("saturate to byte range"))
		}
		switch b := vi % 4; b {
		case 0:
			m.Add(isa.VAndB32(dstReg, isa.HexImm(0xff), t0).Commentf("place byte 0"))
		default:
			m.Add(isa.VAndB32(t0, isa.HexImm(0xff), t0))
			m.Add(isa.VLshlrevB32(t0, isa.ImmInt(8*b), t0))
			m.Add(isa.VOrB32(dstReg, t0, dstReg).Commentf("merge byte %d", b))
		}
	}
}

// packFloat8 clamps to the finite range of the 8-bit float, passes NaN and
// infinity through raw (the convert hardware encodes them), and packs two
// bytes per convert.
func packFloat8(w *writer, m *isa.Module, elem *ElementPlan, dt dtypes.DType, dst isa.Reg) {
	cvt := w.args.Cvt
	if cvt.Fp8NanInf.IsZero() || cvt.Fp8Max.IsZero() || cvt.Fp8Min.IsZero() {
		exceptions.Panicf("8-bit float pack needs the clamp and class scratch registers")
	}
	if w.gwvw%2 == 1 {
		exceptions.Panicf("8-bit float packing needs an even vector width, got %d", w.gwvw)
	}
	guard := w.tmpS(0)
	t0, t1 := w.tmpV(0), w.tmpV(1)
	clampOne := func(t isa.Reg, s isa.Reg) {
		m.Add(isa.VCmpClassF32(guard, s, cvt.Fp8NanInf).Commentf("NaN or Inf?"))
		m.Add(isa.VMed3F32(t, s, cvt.Fp8Max, cvt.Fp8Min).Commentf("clamp to finite range"))
		m.Add(isa.VCndmaskB32(t, t, s, guard).Commentf("NaN/Inf passthrough"))
	}
	for vi := 0; vi < w.gwvw; vi += 2 {
		s0, _ := w.sumValue(elem, vi)
		s1, _ := w.sumValue(elem, vi+1)
		clampOne(t0, s0)
		clampOne(t1, s1)
		dstReg := isa.VGPR(dst.Idx + vi/4)
		word := (vi / 2) % 2
		var pk *isa.Inst
		if dt == dtypes.F8E5M2FNUZ {
			pk = isa.VCvtPkBf8F32(dstReg, t0, t1)
		} else {
			pk = isa.VCvtPkFp8F32(dstReg, t0, t1)
		}
		if word == 1 {
			pk = pk.WithOpSel([]uint8{0, 0, 1}, nil)
		}
		m.Add(pk.Commentf("pack byte pair %d", vi/2))
	}
}
