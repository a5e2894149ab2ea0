package isa

import (
	"fmt"
	"strings"
)

// SelectBit picks a sub-dword lane of a 32-bit register for SDWA-style
// operand access.
type SelectBit uint8

const (
	SelNone SelectBit = iota
	SelByte0
	SelByte1
	SelByte2
	SelByte3
	SelWord0
	SelWord1
)

// String renders the selector the way disassemblers spell it.
func (s SelectBit) String() string {
	switch s {
	case SelByte0:
		return "BYTE_0"
	case SelByte1:
		return "BYTE_1"
	case SelByte2:
		return "BYTE_2"
	case SelByte3:
		return "BYTE_3"
	case SelWord0:
		return "WORD_0"
	case SelWord1:
		return "WORD_1"
	}
	return "DWORD"
}

// ByteOffset returns the selected lane's offset in bits.
func (s SelectBit) ByteOffset() int {
	switch s {
	case SelByte1, SelWord1:
		return s.width()
	case SelByte2:
		return 16
	case SelByte3:
		return 24
	}
	return 0
}

// Width returns the selected lane's width in bits (32 for SelNone).
func (s SelectBit) Width() int { return s.width() }

func (s SelectBit) width() int {
	switch s {
	case SelByte0, SelByte1, SelByte2, SelByte3:
		return 8
	case SelWord0, SelWord1:
		return 16
	}
	return 32
}

// SDWA carries sub-dword addressing modifiers for an instruction.
type SDWA struct {
	Src0Sel SelectBit
	Src1Sel SelectBit
	DstSel  SelectBit
}

func (s *SDWA) asm() string {
	var parts []string
	if s.DstSel != SelNone {
		parts = append(parts, "dst_sel:"+s.DstSel.String())
	}
	if s.Src0Sel != SelNone {
		parts = append(parts, "src0_sel:"+s.Src0Sel.String())
	}
	if s.Src1Sel != SelNone {
		parts = append(parts, "src1_sel:"+s.Src1Sel.String())
	}
	return strings.Join(parts, " ")
}

// VOP3P carries packed-math operand selection. OpSel picks the low (0) or
// high (1) half of each 32-bit source for the low half of the operation;
// OpSelHi does the same for the high half. Nil means default selection.
type VOP3P struct {
	OpSel   []uint8
	OpSelHi []uint8
}

func (v *VOP3P) asm() string {
	var parts []string
	if len(v.OpSel) > 0 {
		parts = append(parts, "op_sel:"+selList(v.OpSel))
	}
	if len(v.OpSelHi) > 0 {
		parts = append(parts, "op_sel_hi:"+selList(v.OpSelHi))
	}
	return strings.Join(parts, " ")
}

func selList(sel []uint8) string {
	strs := make([]string, len(sel))
	for i, s := range sel {
		strs[i] = fmt.Sprintf("%d", s)
	}
	return "[" + strings.Join(strs, ",") + "]"
}

// MUBUF carries buffer-instruction addressing modifiers.
type MUBUF struct {
	// Offen adds the vector address register to the descriptor base.
	Offen bool
	// Offset is the immediate byte offset.
	Offset int
	// GLC requests a coherent (cache-bypassing) access; atomics set it to
	// get the pre-op value back.
	GLC bool
}

func (m *MUBUF) asm() string {
	var parts []string
	if m.Offen {
		parts = append(parts, "offen")
	}
	if m.Offset != 0 {
		parts = append(parts, fmt.Sprintf("offset:%d", m.Offset))
	}
	if m.GLC {
		parts = append(parts, "glc")
	}
	return strings.Join(parts, " ")
}

// DSMod carries local-data-share addressing modifiers.
type DSMod struct {
	Offset int
}

func (d *DSMod) asm() string {
	if d.Offset == 0 {
		return ""
	}
	return fmt.Sprintf("offset:%d", d.Offset)
}

// WaitCnt is the set of counter bounds carried by a wait instruction.
// A field of -1 leaves that counter unconstrained.
type WaitCnt struct {
	VMCnt   int
	LGKMCnt int
	VSCnt   int
}

func (w *WaitCnt) asm() string {
	var parts []string
	if w.VMCnt >= 0 {
		parts = append(parts, fmt.Sprintf("vmcnt(%d)", w.VMCnt))
	}
	if w.LGKMCnt >= 0 {
		parts = append(parts, fmt.Sprintf("lgkmcnt(%d)", w.LGKMCnt))
	}
	if len(parts) == 0 {
		return "0"
	}
	return strings.Join(parts, " ")
}
