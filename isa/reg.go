package isa

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/gomlx/exceptions"
)

// RegFile identifies the register file a Reg lives in.
type RegFile uint8

const (
	// RegFileVGPR is the per-lane vector register file.
	RegFileVGPR RegFile = iota

	// RegFileSGPR is the scalar register file, shared by the wavefront.
	RegFileSGPR

	// RegFileAccVGPR is the matrix-accumulator register file of MI targets.
	RegFileAccVGPR

	// RegFileExec is the execution (lane) mask.
	RegFileExec

	// RegFileVCC is the vector condition code mask.
	RegFileVCC
)

// String returns the register file prefix used in rendered text.
func (f RegFile) String() string {
	switch f {
	case RegFileVGPR:
		return "v"
	case RegFileSGPR:
		return "s"
	case RegFileAccVGPR:
		return "acc"
	case RegFileExec:
		return "exec"
	case RegFileVCC:
		return "vcc"
	}
	return fmt.Sprintf("RegFile(%d)", f)
}

// Operand is anything an instruction can take as a source or destination:
// registers, immediates, label references or template holders.
type Operand interface {
	// OperandAsm renders the operand as assembly text.
	OperandAsm() string
}

// Reg is a contiguous range of registers (N >= 1) in one register file.
// Multi-register operands (64-bit values, buffer descriptors) are expressed
// as ranges over their first register.
type Reg struct {
	File RegFile
	Idx  int
	N    int
}

// VGPR returns a single vector register.
func VGPR(idx int) Reg { return Reg{File: RegFileVGPR, Idx: idx, N: 1} }

// VGPRn returns a range of n consecutive vector registers starting at idx.
func VGPRn(idx, n int) Reg { return Reg{File: RegFileVGPR, Idx: idx, N: n} }

// SGPR returns a single scalar register.
func SGPR(idx int) Reg { return Reg{File: RegFileSGPR, Idx: idx, N: 1} }

// SGPRn returns a range of n consecutive scalar registers starting at idx.
func SGPRn(idx, n int) Reg { return Reg{File: RegFileSGPR, Idx: idx, N: n} }

// AccVGPR returns a single accumulator register.
func AccVGPR(idx int) Reg { return Reg{File: RegFileAccVGPR, Idx: idx, N: 1} }

// Exec is the execution mask pseudo-register. Its width follows the
// wavefront size; instruction selection (B32 vs B64 forms) carries that
// information, the operand itself stays symbolic.
var Exec = Reg{File: RegFileExec, N: 1}

// VCC is the vector condition code pseudo-register.
var VCC = Reg{File: RegFileVCC, N: 1}

// Sub returns the sub-range [off, off+n) of r.
func (r Reg) Sub(off, n int) Reg {
	if off < 0 || n < 1 || off+n > r.N {
		exceptions.Panicf("isa.Reg.Sub(%d, %d) out of range for %s", off, n, r.OperandAsm())
	}
	return Reg{File: r.File, Idx: r.Idx + off, N: n}
}

// IsZero reports whether r is the zero value, used for "no register" slots.
func (r Reg) IsZero() bool { return r == Reg{} }

// OperandAsm renders the register or register range.
func (r Reg) OperandAsm() string {
	switch r.File {
	case RegFileExec, RegFileVCC:
		return r.File.String()
	}
	if r.N <= 1 {
		return fmt.Sprintf("%s%d", r.File, r.Idx)
	}
	return fmt.Sprintf("%s[%d:%d]", r.File, r.Idx, r.Idx+r.N-1)
}

// ImmInt is a signed integer immediate.
type ImmInt int64

// OperandAsm renders the immediate in decimal.
func (i ImmInt) OperandAsm() string { return strconv.FormatInt(int64(i), 10) }

// HexImm is an immediate rendered in hexadecimal, used for bit patterns.
type HexImm uint32

// OperandAsm renders the immediate in hex.
func (h HexImm) OperandAsm() string { return fmt.Sprintf("0x%x", uint32(h)) }

// ImmF32 is a 32-bit float immediate.
type ImmF32 float32

// OperandAsm renders the immediate with a decimal point, so 1 reads "1.0".
func (f ImmF32) OperandAsm() string { return formatFloatImm(float64(f)) }

// ImmF64 is a 64-bit float immediate.
type ImmF64 float64

// OperandAsm renders the immediate with a decimal point.
func (f ImmF64) OperandAsm() string { return formatFloatImm(float64(f)) }

func formatFloatImm(v float64) string {
	s := strconv.FormatFloat(v, 'g', -1, 64)
	if !strings.ContainsAny(s, ".eE") {
		s += ".0"
	}
	return s
}

// LabelRef references a label by name from a branch instruction.
type LabelRef string

// OperandAsm renders the reference.
func (l LabelRef) OperandAsm() string { return "label_" + string(l) }

// Holder is a named placeholder operand in a template instruction, patched
// by ReplaceHolder before the instruction reaches a real stream.
type Holder string

// OperandAsm renders the placeholder; it should never appear in final text.
func (h Holder) OperandAsm() string { return "__" + string(h) + "__" }
