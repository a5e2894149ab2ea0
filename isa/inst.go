package isa

import (
	"fmt"
	"strings"
)

func sprintf(format string, args ...any) string {
	if len(args) == 0 {
		return format
	}
	return fmt.Sprintf(format, args...)
}

// Inst is a single instruction. Build one with the per-opcode constructors
// below; the fields stay exported so tests and the stream interpreter can
// dissect instructions without re-parsing text.
type Inst struct {
	Op Opcode

	// Dst is the primary destination (nil for stores, branches, waits).
	Dst Operand
	// Dst2 is the secondary destination, used by carry-producing adds.
	Dst2 Operand
	// Srcs are the source operands in hardware order.
	Srcs []Operand

	SDWA  *SDWA
	VOP3P *VOP3P
	MUBUF *MUBUF
	DS    *DSMod
	Wait  *WaitCnt

	Comment string
}

// Commentf attaches a comment and returns the instruction for chaining.
func (i *Inst) Commentf(format string, args ...any) *Inst {
	i.Comment = sprintf(format, args...)
	return i
}

// WithSDWA attaches sub-dword addressing modifiers.
func (i *Inst) WithSDWA(s SDWA) *Inst {
	i.SDWA = &s
	return i
}

// WithOpSel attaches packed-math operand selection.
func (i *Inst) WithOpSel(opSel, opSelHi []uint8) *Inst {
	i.VOP3P = &VOP3P{OpSel: opSel, OpSelHi: opSelHi}
	return i
}

// ReplaceHolder returns a copy of the instruction with every Holder operand
// of the given name substituted by reg.
func (i *Inst) ReplaceHolder(name string, reg Reg) *Inst {
	out := *i
	if h, ok := i.Dst.(Holder); ok && string(h) == name {
		out.Dst = reg
	}
	if h, ok := i.Dst2.(Holder); ok && string(h) == name {
		out.Dst2 = reg
	}
	out.Srcs = make([]Operand, len(i.Srcs))
	for n, src := range i.Srcs {
		if h, ok := src.(Holder); ok && string(h) == name {
			out.Srcs[n] = reg
			continue
		}
		out.Srcs[n] = src
	}
	return &out
}

// Asm renders the instruction as one line of assembly text.
func (i *Inst) Asm() string {
	var sb strings.Builder
	sb.WriteString(i.Op.String())

	switch i.Op {
	case OpcodeSWaitcnt:
		sb.WriteByte(' ')
		sb.WriteString(i.Wait.asm())
	case OpcodeSWaitcntVscnt:
		sb.WriteString(sprintf(" null, %d", i.Wait.VSCnt))
	default:
		operands := make([]string, 0, 2+len(i.Srcs))
		if i.Dst != nil {
			operands = append(operands, i.Dst.OperandAsm())
		}
		if i.Dst2 != nil {
			operands = append(operands, i.Dst2.OperandAsm())
		}
		for _, src := range i.Srcs {
			operands = append(operands, src.OperandAsm())
		}
		if len(operands) > 0 {
			sb.WriteByte(' ')
			sb.WriteString(strings.Join(operands, ", "))
		}
	}

	for _, mod := range []interface{ asm() string }{i.SDWA, i.VOP3P, i.MUBUF, i.DS} {
		if text := modText(mod); text != "" {
			sb.WriteByte(' ')
			sb.WriteString(text)
		}
	}
	if i.Comment != "" {
		sb.WriteString(" // ")
		sb.WriteString(i.Comment)
	}
	return sb.String()
}

func modText(mod interface{ asm() string }) string {
	switch m := mod.(type) {
	case *SDWA:
		if m == nil {
			return ""
		}
	case *VOP3P:
		if m == nil {
			return ""
		}
	case *MUBUF:
		if m == nil {
			return ""
		}
	case *DSMod:
		if m == nil {
			return ""
		}
	}
	return mod.asm()
}

func newInst(op Opcode, dst Operand, srcs ...Operand) *Inst {
	return &Inst{Op: op, Dst: dst, Srcs: srcs}
}

// Scalar moves and masks.

func SMovB32(dst, src Operand) *Inst { return newInst(OpcodeSMovB32, dst, src) }
func SMovB64(dst, src Operand) *Inst { return newInst(OpcodeSMovB64, dst, src) }

func SAndB32(dst, src0, src1 Operand) *Inst { return newInst(OpcodeSAndB32, dst, src0, src1) }
func SAndB64(dst, src0, src1 Operand) *Inst { return newInst(OpcodeSAndB64, dst, src0, src1) }
func SOrB32(dst, src0, src1 Operand) *Inst  { return newInst(OpcodeSOrB32, dst, src0, src1) }
func SOrB64(dst, src0, src1 Operand) *Inst  { return newInst(OpcodeSOrB64, dst, src0, src1) }

// Waits, sync and control transfer.

// SWaitcnt blocks until the vector-memory counter is at most vm and the
// LDS/constant counter at most lgkm; -1 leaves a counter unconstrained.
func SWaitcnt(vm, lgkm int) *Inst {
	return &Inst{Op: OpcodeSWaitcnt, Wait: &WaitCnt{VMCnt: vm, LGKMCnt: lgkm, VSCnt: -1}}
}

// SWaitcntVscnt blocks until the separate store counter is at most vs, on
// targets that split stores from loads.
func SWaitcntVscnt(vs int) *Inst {
	return &Inst{Op: OpcodeSWaitcntVscnt, Wait: &WaitCnt{VMCnt: -1, LGKMCnt: -1, VSCnt: vs}}
}

func SBarrier() *Inst        { return newInst(OpcodeSBarrier, nil) }
func SSleep(cycles int) *Inst { return newInst(OpcodeSSleep, nil, ImmInt(cycles)) }
func SNop(cycles int) *Inst  { return newInst(OpcodeSNop, nil, ImmInt(cycles)) }
func STrap(id int) *Inst     { return newInst(OpcodeSTrap, nil, ImmInt(id)) }

// SSwappcB64 jumps to the address in src, storing the return address in dst.
func SSwappcB64(dst, src Reg) *Inst { return newInst(OpcodeSSwappcB64, dst, src) }

func SBranch(label string) *Inst         { return newInst(OpcodeSBranch, nil, LabelRef(label)) }
func SCbranchExecz(label string) *Inst   { return newInst(OpcodeSCbranchExecz, nil, LabelRef(label)) }
func SCbranchExecnz(label string) *Inst  { return newInst(OpcodeSCbranchExecnz, nil, LabelRef(label)) }
func SCbranchVccnz(label string) *Inst   { return newInst(OpcodeSCbranchVccnz, nil, LabelRef(label)) }

// Vector moves, selects, compares.

func VMovB32(dst, src Operand) *Inst { return newInst(OpcodeVMovB32, dst, src) }

// VAccvgprReadB32 copies a matrix-instruction accumulator register into an
// ordinary vector register.
func VAccvgprReadB32(dst, src Operand) *Inst {
	return newInst(OpcodeVAccvgprReadB32, dst, src)
}

// VCndmaskB32 selects srcTrue where the condition mask is set, srcFalse
// elsewhere.
func VCndmaskB32(dst, srcFalse, srcTrue, cond Operand) *Inst {
	return newInst(OpcodeVCndmaskB32, dst, srcFalse, srcTrue, cond)
}

func VCmpGtU32(dst, src0, src1 Operand) *Inst { return newInst(OpcodeVCmpGtU32, dst, src0, src1) }
func VCmpNeU32(dst, src0, src1 Operand) *Inst { return newInst(OpcodeVCmpNeU32, dst, src0, src1) }
func VCmpNeU64(dst, src0, src1 Operand) *Inst { return newInst(OpcodeVCmpNeU64, dst, src0, src1) }

// VCmpClassF32 tests src against the IEEE class mask (mask bit 0: signaling
// NaN, bit 1: quiet NaN, ...).
func VCmpClassF32(dst, src, classMask Operand) *Inst {
	return newInst(OpcodeVCmpClassF32, dst, src, classMask)
}

// Vector arithmetic.

func VAddF32(dst, src0, src1 Operand) *Inst { return newInst(OpcodeVAddF32, dst, src0, src1) }
func VAddF64(dst, src0, src1 Operand) *Inst { return newInst(OpcodeVAddF64, dst, src0, src1) }
func VAddU32(dst, src0, src1 Operand) *Inst { return newInst(OpcodeVAddU32, dst, src0, src1) }

// VAddCoU32 adds with carry-out written to the scalar mask carryOut.
func VAddCoU32(dst, carryOut, src0, src1 Operand) *Inst {
	return &Inst{Op: OpcodeVAddCoU32, Dst: dst, Dst2: carryOut, Srcs: []Operand{src0, src1}}
}

// VAddcCoU32 adds with both carry-in and carry-out.
func VAddcCoU32(dst, carryOut, src0, src1, carryIn Operand) *Inst {
	return &Inst{Op: OpcodeVAddcCoU32, Dst: dst, Dst2: carryOut, Srcs: []Operand{src0, src1, carryIn}}
}

func VAdd3U32(dst, src0, src1, src2 Operand) *Inst {
	return newInst(OpcodeVAdd3U32, dst, src0, src1, src2)
}

func VSubF32(dst, src0, src1 Operand) *Inst  { return newInst(OpcodeVSubF32, dst, src0, src1) }
func VSubF64(dst, src0, src1 Operand) *Inst  { return newInst(OpcodeVSubF64, dst, src0, src1) }
func VMulF32(dst, src0, src1 Operand) *Inst  { return newInst(OpcodeVMulF32, dst, src0, src1) }
func VMulF64(dst, src0, src1 Operand) *Inst  { return newInst(OpcodeVMulF64, dst, src0, src1) }
func VMulLoU32(dst, src0, src1 Operand) *Inst { return newInst(OpcodeVMulLoU32, dst, src0, src1) }

// VMacF32 computes dst += src0*src1.
func VMacF32(dst, src0, src1 Operand) *Inst { return newInst(OpcodeVMacF32, dst, src0, src1) }

// VFmaF64 computes dst = src0*src1 + src2 over register pairs.
func VFmaF64(dst, src0, src1, src2 Operand) *Inst {
	return newInst(OpcodeVFmaF64, dst, src0, src1, src2)
}

// VFmaMixF32 computes dst = src0*src1 + src2 where each source may be the
// half-precision lane selected by the attached op_sel modifier.
func VFmaMixF32(dst, src0, src1, src2 Operand) *Inst {
	return newInst(OpcodeVFmaMixF32, dst, src0, src1, src2)
}

// VMadMixF32 is the older-target spelling of VFmaMixF32.
func VMadMixF32(dst, src0, src1, src2 Operand) *Inst {
	return newInst(OpcodeVMadMixF32, dst, src0, src1, src2)
}

func VPkAddF16(dst, src0, src1 Operand) *Inst { return newInst(OpcodeVPkAddF16, dst, src0, src1) }
func VPkMulF16(dst, src0, src1 Operand) *Inst { return newInst(OpcodeVPkMulF16, dst, src0, src1) }

// Vector bit manipulation.

func VAndB32(dst, src0, src1 Operand) *Inst { return newInst(OpcodeVAndB32, dst, src0, src1) }
func VOrB32(dst, src0, src1 Operand) *Inst  { return newInst(OpcodeVOrB32, dst, src0, src1) }

// VAndOrB32 computes dst = (src0 & src1) | src2.
func VAndOrB32(dst, src0, src1, src2 Operand) *Inst {
	return newInst(OpcodeVAndOrB32, dst, src0, src1, src2)
}

// VLshlrevB32 computes dst = src << shift. The hardware takes the shift
// amount first.
func VLshlrevB32(dst, shift, src Operand) *Inst {
	return newInst(OpcodeVLshlrevB32, dst, shift, src)
}

// VLshrrevB32 computes dst = src >> shift (logical).
func VLshrrevB32(dst, shift, src Operand) *Inst {
	return newInst(OpcodeVLshrrevB32, dst, shift, src)
}

// VAshrrevI32 computes dst = src >> shift (arithmetic).
func VAshrrevI32(dst, shift, src Operand) *Inst {
	return newInst(OpcodeVAshrrevI32, dst, shift, src)
}

// VBfeI32 extracts a signed bitfield: dst = signExtend(src[offset+width-1 : offset]).
func VBfeI32(dst, src, offset, width Operand) *Inst {
	return newInst(OpcodeVBfeI32, dst, src, offset, width)
}

// VBfeU32 extracts an unsigned bitfield.
func VBfeU32(dst, src, offset, width Operand) *Inst {
	return newInst(OpcodeVBfeU32, dst, src, offset, width)
}

// VMed3F32 returns the median of three floats, the canonical clamp idiom.
func VMed3F32(dst, src0, src1, src2 Operand) *Inst {
	return newInst(OpcodeVMed3F32, dst, src0, src1, src2)
}

// VMed3I32 returns the median of three signed ints.
func VMed3I32(dst, src0, src1, src2 Operand) *Inst {
	return newInst(OpcodeVMed3I32, dst, src0, src1, src2)
}

// VRndneF32 rounds to the nearest even integer, still as a float.
func VRndneF32(dst, src Operand) *Inst { return newInst(OpcodeVRndneF32, dst, src) }

// Converts and packs.

func VCvtF16F32(dst, src Operand) *Inst { return newInst(OpcodeVCvtF16F32, dst, src) }
func VCvtF32F16(dst, src Operand) *Inst { return newInst(OpcodeVCvtF32F16, dst, src) }
func VCvtF32I32(dst, src Operand) *Inst { return newInst(OpcodeVCvtF32I32, dst, src) }
func VCvtI32F32(dst, src Operand) *Inst { return newInst(OpcodeVCvtI32F32, dst, src) }
func VCvtF32Fp8(dst, src Operand) *Inst { return newInst(OpcodeVCvtF32Fp8, dst, src) }
func VCvtF32Bf8(dst, src Operand) *Inst { return newInst(OpcodeVCvtF32Bf8, dst, src) }

// VCvtPkF32Fp8 widens the byte pair selected by the SDWA word selector into
// two consecutive floats.
func VCvtPkF32Fp8(dst, src Operand) *Inst { return newInst(OpcodeVCvtPkF32Fp8, dst, src) }

// VCvtPkF32Bf8 is VCvtPkF32Fp8 for the bfloat8 encoding.
func VCvtPkF32Bf8(dst, src Operand) *Inst { return newInst(OpcodeVCvtPkF32Bf8, dst, src) }

// VCvtPkFp8F32 narrows two floats into a packed byte pair in the destination
// word selected by the attached op_sel modifier.
func VCvtPkFp8F32(dst, src0, src1 Operand) *Inst {
	return newInst(OpcodeVCvtPkFp8F32, dst, src0, src1)
}

// VCvtPkBf8F32 is VCvtPkFp8F32 for the bfloat8 encoding.
func VCvtPkBf8F32(dst, src0, src1 Operand) *Inst {
	return newInst(OpcodeVCvtPkBf8F32, dst, src0, src1)
}

// VPackB32F16 packs the low halves of two half-precision sources into one
// dword.
func VPackB32F16(dst, src0, src1 Operand) *Inst {
	return newInst(OpcodeVPackB32F16, dst, src0, src1)
}

// Memory.

// BufferLoad reads through a buffer descriptor: dst <- [srd + vaddr + soffset].
func BufferLoad(op Opcode, dst, vaddr, srd Reg, soffset Operand, mods MUBUF) *Inst {
	return &Inst{Op: op, Dst: dst, Srcs: []Operand{vaddr, srd, soffset}, MUBUF: &mods}
}

// BufferStore writes through a buffer descriptor.
func BufferStore(op Opcode, src, vaddr, srd Reg, soffset Operand, mods MUBUF) *Inst {
	return &Inst{Op: op, Srcs: []Operand{src, vaddr, srd, soffset}, MUBUF: &mods}
}

// BufferAtomic performs a read-modify-write through a buffer descriptor.
// data supplies the operand registers and, when mods.GLC is set, receives
// the pre-operation memory value.
func BufferAtomic(op Opcode, data, vaddr, srd Reg, soffset Operand, mods MUBUF) *Inst {
	return &Inst{Op: op, Dst: data, Srcs: []Operand{vaddr, srd, soffset}, MUBUF: &mods}
}

// FlatLoad reads through a 64-bit pointer held in a register pair.
func FlatLoad(op Opcode, dst, addr Reg, glc bool) *Inst {
	inst := &Inst{Op: op, Dst: dst, Srcs: []Operand{addr}}
	if glc {
		inst.MUBUF = &MUBUF{GLC: true}
	}
	return inst
}

// FlatStore writes through a 64-bit pointer held in a register pair.
func FlatStore(op Opcode, addr, src Reg, glc bool) *Inst {
	inst := &Inst{Op: op, Srcs: []Operand{addr, src}}
	if glc {
		inst.MUBUF = &MUBUF{GLC: true}
	}
	return inst
}

// FlatAtomic performs a read-modify-write through a 64-bit pointer; ret
// receives the pre-operation value when glc is set.
func FlatAtomic(op Opcode, ret, addr, data Reg, glc bool) *Inst {
	return &Inst{Op: op, Dst: ret, Srcs: []Operand{addr, data}, MUBUF: &MUBUF{GLC: glc}}
}

// DsLoad reads from the local data share.
func DsLoad(op Opcode, dst, addr Reg, offset int) *Inst {
	return &Inst{Op: op, Dst: dst, Srcs: []Operand{addr}, DS: &DSMod{Offset: offset}}
}

// DsStore writes to the local data share.
func DsStore(op Opcode, addr, src Reg, offset int) *Inst {
	return &Inst{Op: op, Srcs: []Operand{addr, src}, DS: &DSMod{Offset: offset}}
}
