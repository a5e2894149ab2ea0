package epilogue

import (
	"github.com/gcnforge/gcnforge/isa"
	"github.com/gomlx/exceptions"
	"github.com/gomlx/gopjrt/dtypes"
)

// alphaEmitters scales one element's accumulators by alpha, keyed by the
// compute type. Populated in init; a missing entry means the type
// combination is not emittable and panics at the call site.
var alphaEmitters = map[dtypes.DType]func(w *writer, m *isa.Module, elem *ElementPlan){}

func init() {
	alphaEmitters[dtypes.Float32] = alphaFloat32
	alphaEmitters[dtypes.Float64] = alphaFloat64
	alphaEmitters[dtypes.Float16] = alphaHalfPacked
	alphaEmitters[dtypes.Int32] = alphaInt32
	alphaEmitters[dtypes.Complex64] = alphaComplex64
	alphaEmitters[dtypes.Complex128] = alphaComplex128
}

// applyAlphaElem emits the alpha scaling of every sub-vector value of elem,
// in place in the accumulator registers.
func (w *writer) applyAlphaElem(m *isa.Module, elem *ElementPlan) {
	emit, ok := alphaEmitters[w.cfg.ComputeType]
	if !ok {
		exceptions.Panicf("no alpha scaling for compute type %s", w.cfg.ComputeType)
	}
	emit(w, m, elem)
}

func alphaFloat32(w *writer, m *isa.Module, elem *ElementPlan) {
	for vi := 0; vi < w.gwvw; vi++ {
		sum, _ := w.sumValue(elem, vi)
		m.Add(isa.VMulF32(sum, w.args.Alpha, sum).Commentf("*= alpha"))
	}
}

func alphaFloat64(w *writer, m *isa.Module, elem *ElementPlan) {
	for vi := 0; vi < w.gwvw; vi++ {
		sum, _ := w.sumValue(elem, vi)
		m.Add(isa.VMulF64(sum, w.args.Alpha, sum).Commentf("*= alpha"))
	}
}

// alphaHalfPacked works a register at a time: without high-precision
// accumulation two half values share each register and the packed multiply
// covers both. Alpha must be replicated into both halves of its scalar.
func alphaHalfPacked(w *writer, m *isa.Module, elem *ElementPlan) {
	for i := 0; i < w.accRegsPerElement(); i++ {
		reg := isa.VGPR(elem.SumIdx + i)
		m.Add(isa.VPkMulF16(reg, w.args.Alpha, reg).Commentf("*= alpha (packed halves)"))
	}
}

func alphaInt32(w *writer, m *isa.Module, elem *ElementPlan) {
	for vi := 0; vi < w.gwvw; vi++ {
		sum, _ := w.sumValue(elem, vi)
		m.Add(isa.VMulLoU32(sum, w.args.Alpha, sum).Commentf("*= alpha"))
	}
}

func alphaComplex64(w *writer, m *isa.Module, elem *ElementPlan) {
	aRe := w.args.Alpha.Sub(0, 1)
	aIm := w.args.Alpha.Sub(1, 1)
	t0, t1 := w.tmpV(0), w.tmpV(1)
	for vi := 0; vi < w.gwvw; vi++ {
		sum, _ := w.sumValue(elem, vi)
		sRe := sum.Sub(0, 1)
		sIm := sum.Sub(1, 1)
		m.Add(isa.VMulF32(t0, aRe, sRe).Commentf("alpha.r * sum.r"))
		m.Add(isa.VMulF32(t1, aIm, sIm).Commentf("alpha.i * sum.i"))
		m.Add(isa.VSubF32(t0, t0, t1).Commentf("new real part"))
		m.Add(isa.VMulF32(t1, aRe, sIm).Commentf("alpha.r * sum.i"))
		m.Add(isa.VMacF32(t1, aIm, sRe).Commentf("+= alpha.i * sum.r"))
		m.Add(isa.VMovB32(sRe, t0))
		m.Add(isa.VMovB32(sIm, t1))
	}
}

func alphaComplex128(w *writer, m *isa.Module, elem *ElementPlan) {
	aRe := w.args.Alpha.Sub(0, 2)
	aIm := w.args.Alpha.Sub(2, 2)
	t0 := isa.VGPRn(w.tmpVGPR.First, 2)
	t1 := isa.VGPRn(w.tmpVGPR.First+2, 2)
	for vi := 0; vi < w.gwvw; vi++ {
		sum, _ := w.sumValue(elem, vi)
		sRe := sum.Sub(0, 2)
		sIm := sum.Sub(2, 2)
		m.Add(isa.VMulF64(t0, aRe, sRe).Commentf("alpha.r * sum.r"))
		m.Add(isa.VMulF64(t1, aIm, sIm).Commentf("alpha.i * sum.i"))
		m.Add(isa.VSubF64(t0, t0, t1).Commentf("new real part"))
		m.Add(isa.VMulF64(t1, aRe, sIm).Commentf("alpha.r * sum.i"))
		m.Add(isa.VFmaF64(t1, aIm, sRe, t1).Commentf("+= alpha.i * sum.r"))
		m.Add(isa.VMovB32(sRe.Sub(0, 1), t0.Sub(0, 1)))
		m.Add(isa.VMovB32(sRe.Sub(1, 1), t0.Sub(1, 1)))
		m.Add(isa.VMovB32(sIm.Sub(0, 1), t1.Sub(0, 1)))
		m.Add(isa.VMovB32(sIm.Sub(1, 1), t1.Sub(1, 1)))
	}
}
