package isatest

import (
	"math"

	"github.com/gcnforge/gcnforge/isa"
	"github.com/pkg/errors"
	"github.com/x448/float16"
)

// stepVector executes one VALU instruction over the active lanes.
func (m *Machine) stepVector(inst *isa.Inst) error {
	if err := m.checkModifiers(inst); err != nil {
		return err
	}
	switch inst.Op {
	case isa.OpcodeVMovB32, isa.OpcodeVAccvgprReadB32:
		return m.lanewise1(inst, func(a uint32) uint32 { return a })

	case isa.OpcodeVCndmaskB32:
		return m.cndmask(inst)

	case isa.OpcodeVCmpGtU32:
		return m.compare32(inst, func(a, b uint32) bool { return a > b })
	case isa.OpcodeVCmpNeU32:
		return m.compare32(inst, func(a, b uint32) bool { return a != b })
	case isa.OpcodeVCmpNeU64:
		return m.compare64(inst, func(a, b uint64) bool { return a != b })
	case isa.OpcodeVCmpClassF32:
		return m.compare32(inst, func(a, mask uint32) bool {
			return mask>>classifyF32(a)&1 != 0
		})

	case isa.OpcodeVAddF32:
		return m.lanewiseF32(inst, func(a, b float32) float32 { return a + b })
	case isa.OpcodeVSubF32:
		return m.lanewiseF32(inst, func(a, b float32) float32 { return a - b })
	case isa.OpcodeVMulF32:
		return m.lanewiseF32(inst, func(a, b float32) float32 { return a * b })

	case isa.OpcodeVAddF64:
		return m.lanewiseF64(inst, func(a, b float64) float64 { return a + b })
	case isa.OpcodeVSubF64:
		return m.lanewiseF64(inst, func(a, b float64) float64 { return a - b })
	case isa.OpcodeVMulF64:
		return m.lanewiseF64(inst, func(a, b float64) float64 { return a * b })

	case isa.OpcodeVAddU32:
		return m.lanewise2(inst, func(a, b uint32) uint32 { return a + b })
	case isa.OpcodeVMulLoU32:
		return m.lanewise2(inst, func(a, b uint32) uint32 {
			return uint32(uint64(a) * uint64(b))
		})
	case isa.OpcodeVAndB32:
		return m.lanewise2(inst, func(a, b uint32) uint32 { return a & b })
	case isa.OpcodeVOrB32:
		return m.lanewise2(inst, func(a, b uint32) uint32 { return a | b })
	case isa.OpcodeVLshlrevB32:
		return m.lanewise2(inst, func(shift, a uint32) uint32 { return a << (shift & 31) })
	case isa.OpcodeVLshrrevB32:
		return m.lanewise2(inst, func(shift, a uint32) uint32 { return a >> (shift & 31) })
	case isa.OpcodeVAshrrevI32:
		return m.lanewise2(inst, func(shift, a uint32) uint32 {
			return uint32(int32(a) >> (shift & 31))
		})
	case isa.OpcodeVPackB32F16:
		return m.lanewise2(inst, func(a, b uint32) uint32 { return a&0xffff | b<<16 })

	case isa.OpcodeVAddCoU32, isa.OpcodeVAddcCoU32:
		return m.addCarry(inst)

	case isa.OpcodeVAdd3U32:
		return m.lanewise3(inst, func(a, b, c uint32) uint32 { return a + b + c })
	case isa.OpcodeVAndOrB32:
		return m.lanewise3(inst, func(a, b, c uint32) uint32 { return a&b | c })
	case isa.OpcodeVBfeI32:
		return m.lanewise3(inst, bfe(true))
	case isa.OpcodeVBfeU32:
		return m.lanewise3(inst, bfe(false))
	case isa.OpcodeVMed3F32:
		return m.lanewise3(inst, func(a, b, c uint32) uint32 {
			return math.Float32bits(med3F32(
				math.Float32frombits(a), math.Float32frombits(b), math.Float32frombits(c)))
		})
	case isa.OpcodeVMed3I32:
		return m.lanewise3(inst, func(a, b, c uint32) uint32 {
			return uint32(med3I32(int32(a), int32(b), int32(c)))
		})

	case isa.OpcodeVMacF32:
		return m.macF32(inst)
	case isa.OpcodeVFmaF64:
		return m.fmaF64(inst)
	case isa.OpcodeVFmaMixF32, isa.OpcodeVMadMixF32:
		return m.fmaMix(inst)
	case isa.OpcodeVPkAddF16:
		return m.packedF16(inst, func(a, b float32) float32 { return a + b })
	case isa.OpcodeVPkMulF16:
		return m.packedF16(inst, func(a, b float32) float32 { return a * b })

	case isa.OpcodeVRndneF32:
		return m.lanewise1(inst, func(a uint32) uint32 {
			return math.Float32bits(float32(math.RoundToEven(float64(math.Float32frombits(a)))))
		})
	case isa.OpcodeVCvtF16F32:
		return m.lanewise1(inst, func(a uint32) uint32 {
			return uint32(float16.Fromfloat32(math.Float32frombits(a)).Bits())
		})
	case isa.OpcodeVCvtF32F16:
		return m.lanewise1(inst, func(a uint32) uint32 {
			return math.Float32bits(float16.Frombits(uint16(a)).Float32())
		})
	case isa.OpcodeVCvtF32I32:
		return m.lanewise1(inst, func(a uint32) uint32 {
			return math.Float32bits(float32(int32(a)))
		})
	case isa.OpcodeVCvtI32F32:
		return m.lanewise1(inst, func(a uint32) uint32 {
			return uint32(cvtI32(math.Float32frombits(a)))
		})

	case isa.OpcodeVCvtF32Fp8, isa.OpcodeVCvtF32Bf8:
		return m.cvtFromFP8(inst)
	case isa.OpcodeVCvtPkF32Fp8, isa.OpcodeVCvtPkF32Bf8:
		return m.cvtPkFromFP8(inst)
	case isa.OpcodeVCvtPkFp8F32, isa.OpcodeVCvtPkBf8F32:
		return m.cvtPkToFP8(inst)
	}
	return errors.Errorf("vector opcode %s not modeled", inst.Op)
}

// checkModifiers rejects sub-dword and packed-math modifiers on opcodes the
// model does not interpret them for, so a stream never silently computes
// the unmodified semantics.
func (m *Machine) checkModifiers(inst *isa.Inst) error {
	switch inst.Op {
	case isa.OpcodeVCvtF32Fp8, isa.OpcodeVCvtF32Bf8,
		isa.OpcodeVCvtPkF32Fp8, isa.OpcodeVCvtPkF32Bf8:
		return nil // SDWA source selection handled in the op
	case isa.OpcodeVCvtPkFp8F32, isa.OpcodeVCvtPkBf8F32,
		isa.OpcodeVFmaMixF32, isa.OpcodeVMadMixF32:
		return nil // op_sel handled in the op
	}
	if inst.SDWA != nil {
		return errors.Errorf("sub-dword addressing on %s not modeled", inst.Op)
	}
	if inst.VOP3P != nil {
		return errors.Errorf("op_sel on %s not modeled", inst.Op)
	}
	return nil
}

// vectorRead32 evaluates one lane of a 32-bit vector source.
func (m *Machine) vectorRead32(op isa.Operand, lane int) (uint32, error) {
	switch v := op.(type) {
	case isa.Reg:
		switch v.File {
		case isa.RegFileVGPR:
			if err := m.checkVGPR(v, 1); err != nil {
				return 0, err
			}
			return m.vgpr[v.Idx][lane], nil
		case isa.RegFileSGPR:
			if err := m.checkSGPR(v, 1); err != nil {
				return 0, err
			}
			return m.sgpr[v.Idx], nil
		case isa.RegFileAccVGPR:
			if v.Idx < 0 || v.Idx >= numAcc {
				return 0, errors.Errorf("%s outside the accumulator file", v.OperandAsm())
			}
			return m.acc[v.Idx][lane], nil
		}
		return 0, errors.Errorf("vector op cannot read %s", v.OperandAsm())
	case isa.ImmInt:
		return uint32(int32(v)), nil
	case isa.HexImm:
		return uint32(v), nil
	case isa.ImmF32:
		return math.Float32bits(float32(v)), nil
	}
	return 0, errors.Errorf("operand %s not valid as vector source", op.OperandAsm())
}

func (m *Machine) vectorRead64(op isa.Operand, lane int) (uint64, error) {
	switch v := op.(type) {
	case isa.Reg:
		switch v.File {
		case isa.RegFileVGPR:
			if err := m.checkVGPR(v, 2); err != nil {
				return 0, err
			}
			return uint64(m.vgpr[v.Idx][lane]) | uint64(m.vgpr[v.Idx+1][lane])<<32, nil
		case isa.RegFileSGPR:
			if err := m.checkSGPR(v, 2); err != nil {
				return 0, err
			}
			return uint64(m.sgpr[v.Idx]) | uint64(m.sgpr[v.Idx+1])<<32, nil
		}
		return 0, errors.Errorf("vector op cannot read %s as 64-bit", v.OperandAsm())
	case isa.ImmInt:
		return uint64(int64(v)), nil
	case isa.ImmF64:
		return math.Float64bits(float64(v)), nil
	}
	return 0, errors.Errorf("operand %s not valid as 64-bit vector source", op.OperandAsm())
}

func (m *Machine) vectorDst(op isa.Operand, need int) (isa.Reg, error) {
	reg, ok := op.(isa.Reg)
	if !ok {
		return isa.Reg{}, errors.Errorf("vector destination %s is not a register", op.OperandAsm())
	}
	if err := m.checkVGPR(reg, need); err != nil {
		return isa.Reg{}, err
	}
	return reg, nil
}

func (m *Machine) lanewise1(inst *isa.Inst, fn func(a uint32) uint32) error {
	dst, err := m.vectorDst(inst.Dst, 1)
	if err != nil {
		return err
	}
	for lane := 0; lane < m.Lanes; lane++ {
		if m.Exec&(1<<lane) == 0 {
			continue
		}
		a, err := m.vectorRead32(inst.Srcs[0], lane)
		if err != nil {
			return err
		}
		m.vgpr[dst.Idx][lane] = fn(a)
	}
	return nil
}

func (m *Machine) lanewise2(inst *isa.Inst, fn func(a, b uint32) uint32) error {
	dst, err := m.vectorDst(inst.Dst, 1)
	if err != nil {
		return err
	}
	for lane := 0; lane < m.Lanes; lane++ {
		if m.Exec&(1<<lane) == 0 {
			continue
		}
		a, err := m.vectorRead32(inst.Srcs[0], lane)
		if err != nil {
			return err
		}
		b, err := m.vectorRead32(inst.Srcs[1], lane)
		if err != nil {
			return err
		}
		m.vgpr[dst.Idx][lane] = fn(a, b)
	}
	return nil
}

func (m *Machine) lanewise3(inst *isa.Inst, fn func(a, b, c uint32) uint32) error {
	dst, err := m.vectorDst(inst.Dst, 1)
	if err != nil {
		return err
	}
	for lane := 0; lane < m.Lanes; lane++ {
		if m.Exec&(1<<lane) == 0 {
			continue
		}
		a, err := m.vectorRead32(inst.Srcs[0], lane)
		if err != nil {
			return err
		}
		b, err := m.vectorRead32(inst.Srcs[1], lane)
		if err != nil {
			return err
		}
		c, err := m.vectorRead32(inst.Srcs[2], lane)
		if err != nil {
			return err
		}
		m.vgpr[dst.Idx][lane] = fn(a, b, c)
	}
	return nil
}

func (m *Machine) lanewiseF32(inst *isa.Inst, fn func(a, b float32) float32) error {
	return m.lanewise2(inst, func(a, b uint32) uint32 {
		return math.Float32bits(fn(math.Float32frombits(a), math.Float32frombits(b)))
	})
}

func (m *Machine) lanewiseF64(inst *isa.Inst, fn func(a, b float64) float64) error {
	dst, err := m.vectorDst(inst.Dst, 2)
	if err != nil {
		return err
	}
	for lane := 0; lane < m.Lanes; lane++ {
		if m.Exec&(1<<lane) == 0 {
			continue
		}
		a, err := m.vectorRead64(inst.Srcs[0], lane)
		if err != nil {
			return err
		}
		b, err := m.vectorRead64(inst.Srcs[1], lane)
		if err != nil {
			return err
		}
		bits := math.Float64bits(fn(math.Float64frombits(a), math.Float64frombits(b)))
		m.vgpr[dst.Idx][lane] = uint32(bits)
		m.vgpr[dst.Idx+1][lane] = uint32(bits >> 32)
	}
	return nil
}

func (m *Machine) cndmask(inst *isa.Inst) error {
	dst, err := m.vectorDst(inst.Dst, 1)
	if err != nil {
		return err
	}
	cond, err := m.readMask(inst.Srcs[2])
	if err != nil {
		return err
	}
	for lane := 0; lane < m.Lanes; lane++ {
		if m.Exec&(1<<lane) == 0 {
			continue
		}
		src := inst.Srcs[0]
		if cond&(1<<lane) != 0 {
			src = inst.Srcs[1]
		}
		v, err := m.vectorRead32(src, lane)
		if err != nil {
			return err
		}
		m.vgpr[dst.Idx][lane] = v
	}
	return nil
}

// compare32 evaluates a 32-bit lane compare. Inactive lanes contribute a
// zero bit, matching how the hardware writes the full mask.
func (m *Machine) compare32(inst *isa.Inst, fn func(a, b uint32) bool) error {
	var mask uint64
	for lane := 0; lane < m.Lanes; lane++ {
		if m.Exec&(1<<lane) == 0 {
			continue
		}
		a, err := m.vectorRead32(inst.Srcs[0], lane)
		if err != nil {
			return err
		}
		b, err := m.vectorRead32(inst.Srcs[1], lane)
		if err != nil {
			return err
		}
		if fn(a, b) {
			mask |= 1 << lane
		}
	}
	return m.writeMask(inst.Dst, mask)
}

func (m *Machine) compare64(inst *isa.Inst, fn func(a, b uint64) bool) error {
	var mask uint64
	for lane := 0; lane < m.Lanes; lane++ {
		if m.Exec&(1<<lane) == 0 {
			continue
		}
		a, err := m.vectorRead64(inst.Srcs[0], lane)
		if err != nil {
			return err
		}
		b, err := m.vectorRead64(inst.Srcs[1], lane)
		if err != nil {
			return err
		}
		if fn(a, b) {
			mask |= 1 << lane
		}
	}
	return m.writeMask(inst.Dst, mask)
}

func (m *Machine) addCarry(inst *isa.Inst) error {
	dst, err := m.vectorDst(inst.Dst, 1)
	if err != nil {
		return err
	}
	var carryIn uint64
	if inst.Op == isa.OpcodeVAddcCoU32 {
		carryIn, err = m.readMask(inst.Srcs[2])
		if err != nil {
			return err
		}
	}
	var carryOut uint64
	for lane := 0; lane < m.Lanes; lane++ {
		if m.Exec&(1<<lane) == 0 {
			continue
		}
		a, err := m.vectorRead32(inst.Srcs[0], lane)
		if err != nil {
			return err
		}
		b, err := m.vectorRead32(inst.Srcs[1], lane)
		if err != nil {
			return err
		}
		sum := uint64(a) + uint64(b) + carryIn>>lane&1
		m.vgpr[dst.Idx][lane] = uint32(sum)
		if sum>>32 != 0 {
			carryOut |= 1 << lane
		}
	}
	return m.writeMask(inst.Dst2, carryOut)
}

func (m *Machine) macF32(inst *isa.Inst) error {
	dst, err := m.vectorDst(inst.Dst, 1)
	if err != nil {
		return err
	}
	for lane := 0; lane < m.Lanes; lane++ {
		if m.Exec&(1<<lane) == 0 {
			continue
		}
		a, err := m.vectorRead32(inst.Srcs[0], lane)
		if err != nil {
			return err
		}
		b, err := m.vectorRead32(inst.Srcs[1], lane)
		if err != nil {
			return err
		}
		acc := math.Float32frombits(m.vgpr[dst.Idx][lane])
		acc += math.Float32frombits(a) * math.Float32frombits(b)
		m.vgpr[dst.Idx][lane] = math.Float32bits(acc)
	}
	return nil
}

func (m *Machine) fmaF64(inst *isa.Inst) error {
	dst, err := m.vectorDst(inst.Dst, 2)
	if err != nil {
		return err
	}
	for lane := 0; lane < m.Lanes; lane++ {
		if m.Exec&(1<<lane) == 0 {
			continue
		}
		var vals [3]float64
		for i := 0; i < 3; i++ {
			bits, err := m.vectorRead64(inst.Srcs[i], lane)
			if err != nil {
				return err
			}
			vals[i] = math.Float64frombits(bits)
		}
		bits := math.Float64bits(math.FMA(vals[0], vals[1], vals[2]))
		m.vgpr[dst.Idx][lane] = uint32(bits)
		m.vgpr[dst.Idx+1][lane] = uint32(bits >> 32)
	}
	return nil
}

// fmaMix computes an f32 fused multiply-add where op_sel_hi flags a source
// as half precision and op_sel picks which half of its register to read.
func (m *Machine) fmaMix(inst *isa.Inst) error {
	dst, err := m.vectorDst(inst.Dst, 1)
	if err != nil {
		return err
	}
	for lane := 0; lane < m.Lanes; lane++ {
		if m.Exec&(1<<lane) == 0 {
			continue
		}
		var vals [3]float64
		for i := 0; i < 3; i++ {
			bits, err := m.vectorRead32(inst.Srcs[i], lane)
			if err != nil {
				return err
			}
			vals[i] = float64(mixSource(bits, i, inst.VOP3P))
		}
		m.vgpr[dst.Idx][lane] = math.Float32bits(float32(math.FMA(vals[0], vals[1], vals[2])))
	}
	return nil
}

func mixSource(bits uint32, i int, mods *isa.VOP3P) float32 {
	if mods == nil || i >= len(mods.OpSelHi) || mods.OpSelHi[i] == 0 {
		return math.Float32frombits(bits)
	}
	half := uint16(bits)
	if i < len(mods.OpSel) && mods.OpSel[i] == 1 {
		half = uint16(bits >> 16)
	}
	return float16.Frombits(half).Float32()
}

// packedF16 applies fn to the low halves and the high halves independently.
func (m *Machine) packedF16(inst *isa.Inst, fn func(a, b float32) float32) error {
	return m.lanewise2(inst, func(a, b uint32) uint32 {
		lo := fn(float16.Frombits(uint16(a)).Float32(), float16.Frombits(uint16(b)).Float32())
		hi := fn(float16.Frombits(uint16(a>>16)).Float32(), float16.Frombits(uint16(b>>16)).Float32())
		return uint32(float16.Fromfloat32(lo).Bits()) |
			uint32(float16.Fromfloat32(hi).Bits())<<16
	})
}

func (m *Machine) cvtFromFP8(inst *isa.Inst) error {
	sel := isa.SelByte0
	if inst.SDWA != nil {
		sel = inst.SDWA.Src0Sel
	}
	if sel.Width() != 8 {
		return errors.Errorf("%s needs a byte selector, got %s", inst.Op, sel)
	}
	bf8 := inst.Op == isa.OpcodeVCvtF32Bf8
	return m.lanewise1(inst, func(a uint32) uint32 {
		return math.Float32bits(fp8Decode(uint8(a>>sel.ByteOffset()), bf8))
	})
}

func (m *Machine) cvtPkFromFP8(inst *isa.Inst) error {
	sel := isa.SelWord0
	if inst.SDWA != nil && inst.SDWA.Src0Sel != isa.SelNone {
		sel = inst.SDWA.Src0Sel
	}
	if sel.Width() != 16 {
		return errors.Errorf("%s needs a word selector, got %s", inst.Op, sel)
	}
	dst, err := m.vectorDst(inst.Dst, 2)
	if err != nil {
		return err
	}
	bf8 := inst.Op == isa.OpcodeVCvtPkF32Bf8
	for lane := 0; lane < m.Lanes; lane++ {
		if m.Exec&(1<<lane) == 0 {
			continue
		}
		a, err := m.vectorRead32(inst.Srcs[0], lane)
		if err != nil {
			return err
		}
		word := a >> sel.ByteOffset()
		m.vgpr[dst.Idx][lane] = math.Float32bits(fp8Decode(uint8(word), bf8))
		m.vgpr[dst.Idx+1][lane] = math.Float32bits(fp8Decode(uint8(word>>8), bf8))
	}
	return nil
}

// cvtPkToFP8 narrows two floats into a byte pair, written to the word of
// the destination selected by op_sel; the other word is preserved.
func (m *Machine) cvtPkToFP8(inst *isa.Inst) error {
	dst, err := m.vectorDst(inst.Dst, 1)
	if err != nil {
		return err
	}
	highWord := inst.VOP3P != nil && len(inst.VOP3P.OpSel) > 2 && inst.VOP3P.OpSel[2] == 1
	bf8 := inst.Op == isa.OpcodeVCvtPkBf8F32
	for lane := 0; lane < m.Lanes; lane++ {
		if m.Exec&(1<<lane) == 0 {
			continue
		}
		a, err := m.vectorRead32(inst.Srcs[0], lane)
		if err != nil {
			return err
		}
		b, err := m.vectorRead32(inst.Srcs[1], lane)
		if err != nil {
			return err
		}
		pair := uint32(fp8Encode(math.Float32frombits(a), bf8)) |
			uint32(fp8Encode(math.Float32frombits(b), bf8))<<8
		old := m.vgpr[dst.Idx][lane]
		if highWord {
			m.vgpr[dst.Idx][lane] = old&0x0000ffff | pair<<16
		} else {
			m.vgpr[dst.Idx][lane] = old&0xffff0000 | pair
		}
	}
	return nil
}

func bfe(signed bool) func(a, offset, width uint32) uint32 {
	return func(a, offset, width uint32) uint32 {
		offset &= 31
		width &= 31
		if width == 0 {
			return 0
		}
		field := a >> offset & (1<<width - 1)
		if signed && field>>(width-1)&1 != 0 {
			field |= ^uint32(0) << width
		}
		return field
	}
}

// minF32 and maxF32 follow the hardware's IEEE minNum/maxNum: a NaN input
// yields the other operand.
func minF32(a, b float32) float32 {
	switch {
	case a != a:
		return b
	case b != b:
		return a
	case a < b:
		return a
	}
	return b
}

func maxF32(a, b float32) float32 {
	switch {
	case a != a:
		return b
	case b != b:
		return a
	case a > b:
		return a
	}
	return b
}

func med3F32(a, b, c float32) float32 {
	return maxF32(minF32(a, b), minF32(maxF32(a, b), c))
}

func med3I32(a, b, c int32) int32 {
	return max(min(a, b), min(max(a, b), c))
}

// cvtI32 truncates toward zero with saturation; NaN converts to zero.
func cvtI32(f float32) int32 {
	switch {
	case f != f:
		return 0
	case f >= math.MaxInt32:
		return math.MaxInt32
	case f <= math.MinInt32:
		return math.MinInt32
	}
	return int32(f)
}

// classifyF32 returns the IEEE class bit index of the value: 0 signaling
// NaN, 1 quiet NaN, 2 negative infinity, 3 negative normal, 4 negative
// denormal, 5 negative zero, 6 positive zero, 7 positive denormal, 8
// positive normal, 9 positive infinity.
func classifyF32(bits uint32) uint32 {
	exp := bits >> 23 & 0xff
	mant := bits & 0x7fffff
	neg := bits>>31 != 0
	switch {
	case exp == 0xff && mant != 0:
		if mant&0x400000 != 0 {
			return 1
		}
		return 0
	case exp == 0xff:
		if neg {
			return 2
		}
		return 9
	case exp == 0 && mant == 0:
		if neg {
			return 5
		}
		return 6
	case exp == 0:
		if neg {
			return 4
		}
		return 7
	}
	if neg {
		return 3
	}
	return 8
}
