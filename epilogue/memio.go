package epilogue

import (
	"github.com/gcnforge/gcnforge/isa"
	"github.com/gomlx/exceptions"
)

// Memory opcode selection by transfer width. The batch moves whole
// sub-vectors, so widths are gwvw*bytesPerElement and must land on a
// machine-supported size; anything else is a register-plan bug.

func bufferLoadOp(byteCount int) isa.Opcode {
	switch byteCount {
	case 2:
		return isa.OpcodeBufferLoadU16
	case 4:
		return isa.OpcodeBufferLoadB32
	case 8:
		return isa.OpcodeBufferLoadB64
	case 16:
		return isa.OpcodeBufferLoadB128
	}
	exceptions.Panicf("no buffer load moves %d bytes", byteCount)
	panic("unreachable")
}

func bufferStoreOp(byteCount int) isa.Opcode {
	switch byteCount {
	case 2:
		return isa.OpcodeBufferStoreB16
	case 4:
		return isa.OpcodeBufferStoreB32
	case 8:
		return isa.OpcodeBufferStoreB64
	case 16:
		return isa.OpcodeBufferStoreB128
	}
	exceptions.Panicf("no buffer store moves %d bytes", byteCount)
	panic("unreachable")
}

func flatLoadOp(byteCount int) isa.Opcode {
	switch byteCount {
	case 2:
		return isa.OpcodeFlatLoadU16
	case 4:
		return isa.OpcodeFlatLoadB32
	case 8:
		return isa.OpcodeFlatLoadB64
	case 16:
		return isa.OpcodeFlatLoadB128
	}
	exceptions.Panicf("no flat load moves %d bytes", byteCount)
	panic("unreachable")
}

func flatStoreOp(byteCount int) isa.Opcode {
	switch byteCount {
	case 2:
		return isa.OpcodeFlatStoreB16
	case 4:
		return isa.OpcodeFlatStoreB32
	case 8:
		return isa.OpcodeFlatStoreB64
	case 16:
		return isa.OpcodeFlatStoreB128
	}
	exceptions.Panicf("no flat store moves %d bytes", byteCount)
	panic("unreachable")
}

func dsLoadOp(byteCount int) isa.Opcode {
	switch byteCount {
	case 2:
		return isa.OpcodeDsLoadU16
	case 4:
		return isa.OpcodeDsLoadB32
	case 8:
		return isa.OpcodeDsLoadB64
	case 16:
		return isa.OpcodeDsLoadB128
	}
	exceptions.Panicf("no ds load moves %d bytes", byteCount)
	panic("unreachable")
}

func dsStoreOp(byteCount int) isa.Opcode {
	switch byteCount {
	case 2:
		return isa.OpcodeDsStoreB16
	case 4:
		return isa.OpcodeDsStoreB32
	case 8:
		return isa.OpcodeDsStoreB64
	case 16:
		return isa.OpcodeDsStoreB128
	}
	exceptions.Panicf("no ds store moves %d bytes", byteCount)
	panic("unreachable")
}

// globalLoad emits one global read of byteCount bytes from tensor t into
// dst, routed through the addressing mode of the kernel, and reports it to
// the scoreboard. srd is the buffer descriptor (buffer addressing) or the
// zero Reg (flat addressing, where the element address pair is absolute).
func (w *writer) globalLoad(m *isa.Module, dst isa.Reg, elem *ElementPlan, t Tensor, srd isa.Reg, byteCount int, glc bool, comment string) {
	addr := elem.Addr.AddrReg(t)
	if addr.IsZero() {
		exceptions.Panicf("element %s has no address register for tensor %s",
			elem.Element, t)
	}
	offset := elem.Addr.GlobalOffset(t)
	if w.cfg.BufferStore {
		m.Add(isa.BufferLoad(bufferLoadOp(byteCount), dst, addr, srd, isa.ImmInt(0),
			isa.MUBUF{Offen: true, Offset: offset, GLC: glc}).Commentf("%s", comment))
	} else {
		m.Add(isa.FlatLoad(flatLoadOp(byteCount), dst, addr, glc).Commentf("%s", comment))
	}
	w.deps.Board.IssueVM(1)
	w.vmLoads++
	if w.cfg.Debug.ForceSerial {
		w.deps.Board.WaitAll(m, "serialized memory")
	}
}

// globalStore emits one global write of byteCount bytes from src to tensor
// t and reports it to the scoreboard.
func (w *writer) globalStore(m *isa.Module, src isa.Reg, elem *ElementPlan, t Tensor, srd isa.Reg, byteCount int, glc bool, comment string) {
	addr := elem.Addr.AddrReg(t)
	if addr.IsZero() {
		exceptions.Panicf("element %s has no address register for tensor %s",
			elem.Element, t)
	}
	offset := elem.Addr.GlobalOffset(t)
	if w.cfg.BufferStore {
		m.Add(isa.BufferStore(bufferStoreOp(byteCount), src, addr, srd, isa.ImmInt(0),
			isa.MUBUF{Offen: true, Offset: offset, GLC: glc}).Commentf("%s", comment))
	} else {
		m.Add(isa.FlatStore(flatStoreOp(byteCount), addr, src, glc).Commentf("%s", comment))
	}
	w.deps.Board.IssueStore(1)
	w.storesIssued++
	if w.cfg.Debug.ForceSerial {
		w.deps.Board.WaitAll(m, "serialized memory")
	}
}

// localStore emits one local-data-share write of byteCount bytes and
// reports it to the scoreboard.
func (w *writer) localStore(m *isa.Module, src isa.Reg, elem *ElementPlan, t Tensor, byteCount int, comment string) {
	addr := elem.Addr.AddrReg(t)
	if addr.IsZero() {
		exceptions.Panicf("element %s has no local address register for tensor %s",
			elem.Element, t)
	}
	m.Add(isa.DsStore(dsStoreOp(byteCount), addr, src, elem.Addr.GlobalOffset(t)).Commentf("%s", comment))
	w.deps.Board.IssueLGKM(1)
	if w.cfg.Debug.ForceSerial {
		w.deps.Board.WaitAll(m, "serialized memory")
	}
}

// localLoad emits one local-data-share read of byteCount bytes and reports
// it to the scoreboard.
func (w *writer) localLoad(m *isa.Module, dst isa.Reg, elem *ElementPlan, t Tensor, byteCount int, comment string) {
	addr := elem.Addr.AddrReg(t)
	if addr.IsZero() {
		exceptions.Panicf("element %s has no local address register for tensor %s",
			elem.Element, t)
	}
	m.Add(isa.DsLoad(dsLoadOp(byteCount), dst, addr, elem.Addr.GlobalOffset(t)).Commentf("%s", comment))
	w.deps.Board.IssueLGKM(1)
	w.lgkmLoads++
	if w.cfg.Debug.ForceSerial {
		w.deps.Board.WaitAll(m, "serialized memory")
	}
}
