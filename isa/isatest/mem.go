package isatest

import (
	"encoding/binary"
	"fmt"
	"math"

	"github.com/gcnforge/gcnforge/isa"
	"github.com/pkg/errors"
)

// opBytes returns the access width in bytes and destination registers of a
// memory opcode.
func opBytes(op isa.Opcode) (bytes, regs int) {
	switch op {
	case isa.OpcodeBufferLoadU16, isa.OpcodeBufferStoreB16,
		isa.OpcodeFlatLoadU16, isa.OpcodeFlatStoreB16,
		isa.OpcodeDsLoadU16, isa.OpcodeDsStoreB16:
		return 2, 1
	case isa.OpcodeBufferLoadB32, isa.OpcodeBufferStoreB32,
		isa.OpcodeFlatLoadB32, isa.OpcodeFlatStoreB32,
		isa.OpcodeDsLoadB32, isa.OpcodeDsStoreB32:
		return 4, 1
	case isa.OpcodeBufferLoadB64, isa.OpcodeBufferStoreB64,
		isa.OpcodeFlatLoadB64, isa.OpcodeFlatStoreB64,
		isa.OpcodeDsLoadB64, isa.OpcodeDsStoreB64:
		return 8, 2
	case isa.OpcodeBufferLoadB128, isa.OpcodeBufferStoreB128,
		isa.OpcodeFlatLoadB128, isa.OpcodeFlatStoreB128,
		isa.OpcodeDsLoadB128, isa.OpcodeDsStoreB128:
		return 16, 4
	}
	return 0, 0
}

func (m *Machine) stepMemory(inst *isa.Inst) error {
	switch inst.Op {
	case isa.OpcodeBufferLoadU16, isa.OpcodeBufferLoadB32,
		isa.OpcodeBufferLoadB64, isa.OpcodeBufferLoadB128:
		return m.bufferLoad(inst)
	case isa.OpcodeBufferStoreB16, isa.OpcodeBufferStoreB32,
		isa.OpcodeBufferStoreB64, isa.OpcodeBufferStoreB128:
		return m.bufferStore(inst)
	case isa.OpcodeBufferAtomicAddF32:
		return m.bufferAtomicAdd(inst)
	case isa.OpcodeBufferAtomicCmpswapB32, isa.OpcodeBufferAtomicCmpswapB64:
		return m.bufferCmpswap(inst)
	case isa.OpcodeFlatLoadU16, isa.OpcodeFlatLoadB32,
		isa.OpcodeFlatLoadB64, isa.OpcodeFlatLoadB128:
		return m.flatLoad(inst)
	case isa.OpcodeFlatStoreB16, isa.OpcodeFlatStoreB32,
		isa.OpcodeFlatStoreB64, isa.OpcodeFlatStoreB128:
		return m.flatStore(inst)
	case isa.OpcodeFlatAtomicCmpswapB32, isa.OpcodeFlatAtomicCmpswapB64:
		return m.flatCmpswap(inst)
	case isa.OpcodeDsLoadU16, isa.OpcodeDsLoadB32,
		isa.OpcodeDsLoadB64, isa.OpcodeDsLoadB128:
		return m.dsLoad(inst)
	case isa.OpcodeDsStoreB16, isa.OpcodeDsStoreB32,
		isa.OpcodeDsStoreB64, isa.OpcodeDsStoreB128:
		return m.dsStore(inst)
	}
	return errors.Errorf("memory opcode %s not modeled", inst.Op)
}

// pushLoadVM enqueues a vector-memory load: the values are captured now,
// the destination registers change only when a wait retires the entry.
func (m *Machine) pushLoadVM(dst isa.Reg, data [][]uint32, what string) {
	m.pendingVM = append(m.pendingVM, pending{dst: dst, data: data, mask: m.laneMask(m.Exec), what: what})
}

func (m *Machine) pushLoadLGKM(dst isa.Reg, data [][]uint32, what string) {
	m.pendingLGKM = append(m.pendingLGKM, pending{dst: dst, data: data, mask: m.laneMask(m.Exec), what: what})
}

// pushStoreVM accounts for an issued store or non-returning atomic on the
// store-side counter.
func (m *Machine) pushStoreVM(what string) {
	if m.SeparateVscnt {
		m.pendingVS++
		return
	}
	m.pendingVM = append(m.pendingVM, pending{what: what})
}

func newLaneData(regs, lanes int) [][]uint32 {
	data := make([][]uint32, regs)
	for i := range data {
		data[i] = make([]uint32, lanes)
	}
	return data
}

// bufferSetup resolves the descriptor, the bound buffer and the per-lane
// byte offsets of a buffer instruction. srcAt gives the position of vaddr
// within Srcs (loads and atomics lead with it, stores put the data first).
func (m *Machine) bufferSetup(inst *isa.Inst, srcAt int) (*Buffer, []uint64, error) {
	vaddr, ok := inst.Srcs[srcAt].(isa.Reg)
	if !ok || vaddr.File != isa.RegFileVGPR {
		return nil, nil, errors.Errorf("buffer address %s is not a vector register",
			inst.Srcs[srcAt].OperandAsm())
	}
	srd, ok := inst.Srcs[srcAt+1].(isa.Reg)
	if !ok || srd.File != isa.RegFileSGPR || srd.N != 4 {
		return nil, nil, errors.Errorf("buffer descriptor %s must span four scalar registers",
			inst.Srcs[srcAt+1].OperandAsm())
	}
	buf := m.buffers[srd.Idx]
	if buf == nil {
		return nil, nil, errors.Errorf("no buffer bound to descriptor s[%d:%d]", srd.Idx, srd.Idx+3)
	}
	soffset, err := m.scalarRead32(inst.Srcs[srcAt+2])
	if err != nil {
		return nil, nil, err
	}
	mods := inst.MUBUF
	if mods == nil {
		mods = &isa.MUBUF{}
	}
	offsets := make([]uint64, m.Lanes)
	for lane := 0; lane < m.Lanes; lane++ {
		off := uint64(soffset) + uint64(mods.Offset)
		if mods.Offen {
			off += uint64(m.vgpr[vaddr.Idx][lane])
		}
		offsets[lane] = off
	}
	return buf, offsets, nil
}

func (m *Machine) bufferLoad(inst *isa.Inst) error {
	bytes, regs := opBytes(inst.Op)
	dst, err := m.vectorDst(inst.Dst, regs)
	if err != nil {
		return err
	}
	buf, offsets, err := m.bufferSetup(inst, 0)
	if err != nil {
		return err
	}
	data := newLaneData(regs, m.Lanes)
	for lane := 0; lane < m.Lanes; lane++ {
		if m.Exec&(1<<lane) == 0 {
			continue
		}
		// Out-of-range reads return zero, the descriptor's range check.
		if offsets[lane]+uint64(bytes) > uint64(len(buf.Data)) {
			continue
		}
		src := buf.Data[offsets[lane]:]
		if bytes == 2 {
			data[0][lane] = uint32(binary.LittleEndian.Uint16(src))
			continue
		}
		for r := 0; r < regs; r++ {
			data[r][lane] = binary.LittleEndian.Uint32(src[4*r:])
		}
	}
	m.pushLoadVM(dst, data, fmt.Sprintf("%s into %s", inst.Op, dst.OperandAsm()))
	return nil
}

func (m *Machine) bufferStore(inst *isa.Inst) error {
	bytes, regs := opBytes(inst.Op)
	src, ok := inst.Srcs[0].(isa.Reg)
	if !ok {
		return errors.Errorf("store data %s is not a register", inst.Srcs[0].OperandAsm())
	}
	if err := m.checkVGPR(src, regs); err != nil {
		return err
	}
	buf, offsets, err := m.bufferSetup(inst, 1)
	if err != nil {
		return err
	}
	for lane := 0; lane < m.Lanes; lane++ {
		if m.Exec&(1<<lane) == 0 {
			continue
		}
		// Out-of-range writes are dropped.
		if offsets[lane]+uint64(bytes) > uint64(len(buf.Data)) {
			continue
		}
		dst := buf.Data[offsets[lane]:]
		if bytes == 2 {
			binary.LittleEndian.PutUint16(dst, uint16(m.vgpr[src.Idx][lane]))
			continue
		}
		for r := 0; r < regs; r++ {
			binary.LittleEndian.PutUint32(dst[4*r:], m.vgpr[src.Idx+r][lane])
		}
	}
	m.pushStoreVM(inst.Op.String())
	return nil
}

func (m *Machine) bufferAtomicAdd(inst *isa.Inst) error {
	data, err := m.vectorDst(inst.Dst, 1)
	if err != nil {
		return err
	}
	buf, offsets, err := m.bufferSetup(inst, 0)
	if err != nil {
		return err
	}
	m.beginAtomic(inst)
	returned := newLaneData(1, m.Lanes)
	for lane := 0; lane < m.Lanes; lane++ {
		if m.Exec&(1<<lane) == 0 {
			continue
		}
		if offsets[lane]+4 > uint64(len(buf.Data)) {
			continue
		}
		off := int(offsets[lane])
		old := buf.U32(off)
		returned[0][lane] = old
		sum := math.Float32frombits(old) + math.Float32frombits(m.vgpr[data.Idx][lane])
		buf.SetU32(off, math.Float32bits(sum))
	}
	m.finishAtomic(inst, data.Sub(0, 1), returned)
	return nil
}

func (m *Machine) bufferCmpswap(inst *isa.Inst) error {
	opN := 1
	if inst.Op == isa.OpcodeBufferAtomicCmpswapB64 {
		opN = 2
	}
	data, err := m.vectorDst(inst.Dst, 2*opN)
	if err != nil {
		return err
	}
	buf, offsets, err := m.bufferSetup(inst, 0)
	if err != nil {
		return err
	}
	m.beginAtomic(inst)
	returned := newLaneData(opN, m.Lanes)
	for lane := 0; lane < m.Lanes; lane++ {
		if m.Exec&(1<<lane) == 0 {
			continue
		}
		if offsets[lane]+uint64(4*opN) > uint64(len(buf.Data)) {
			continue
		}
		m.cmpswapLane(buf.Data[offsets[lane]:], data, opN, lane, returned)
	}
	m.finishAtomic(inst, data.Sub(0, opN), returned)
	return nil
}

// cmpswapLane performs one lane's compare-and-swap. The data block holds
// the replacement value in its first half and the expected value in its
// second; the pre-operation memory value lands in returned.
func (m *Machine) cmpswapLane(mem []byte, data isa.Reg, opN, lane int, returned [][]uint32) {
	match := true
	for r := 0; r < opN; r++ {
		old := binary.LittleEndian.Uint32(mem[4*r:])
		returned[r][lane] = old
		if old != m.vgpr[data.Idx+opN+r][lane] {
			match = false
		}
	}
	if !match {
		return
	}
	for r := 0; r < opN; r++ {
		binary.LittleEndian.PutUint32(mem[4*r:], m.vgpr[data.Idx+r][lane])
	}
}

// beginAtomic runs the test hook before the memory update, so tests can
// interleave a racing writer at the exact point it matters.
func (m *Machine) beginAtomic(inst *isa.Inst) {
	m.atomics++
	if m.OnAtomic != nil {
		m.OnAtomic(inst)
	}
}

// finishAtomic books the counter side of an atomic: with GLC the pre-op
// values travel back like a load, without it the operation counts as a
// store.
func (m *Machine) finishAtomic(inst *isa.Inst, ret isa.Reg, returned [][]uint32) {
	if inst.MUBUF != nil && inst.MUBUF.GLC {
		m.pushLoadVM(ret, returned, fmt.Sprintf("%s return into %s", inst.Op, ret.OperandAsm()))
		return
	}
	m.pushStoreVM(inst.Op.String())
}

// flatOffsets resolves the 64-bit lane addresses of a flat instruction to
// a single mapped region. The epilogue keeps one tensor behind each flat
// pointer, so lanes never straddle regions. A nil buffer with no error
// means no lane is active; the instruction still counts against its
// counter, it just touches no memory.
func (m *Machine) flatOffsets(addr isa.Reg, bytes int) (*Buffer, []uint64, error) {
	if err := m.checkVGPR(addr, 2); err != nil {
		return nil, nil, err
	}
	var buf *Buffer
	offsets := make([]uint64, m.Lanes)
	for lane := 0; lane < m.Lanes; lane++ {
		if m.Exec&(1<<lane) == 0 {
			continue
		}
		va := uint64(m.vgpr[addr.Idx][lane]) | uint64(m.vgpr[addr.Idx+1][lane])<<32
		region, off, ok := m.findFlat(va, bytes)
		if !ok {
			return nil, nil, errors.Errorf("flat access to unmapped address %#x (lane %d)", va, lane)
		}
		if buf == nil {
			buf = region
		} else if buf != region {
			return nil, nil, errors.Errorf("flat access straddles regions %q and %q", buf.Name, region.Name)
		}
		offsets[lane] = off
	}
	return buf, offsets, nil
}

func (m *Machine) findFlat(va uint64, bytes int) (*Buffer, uint64, bool) {
	for _, region := range m.flat {
		if va >= region.base && va+uint64(bytes) <= region.base+uint64(len(region.buf.Data)) {
			return region.buf, va - region.base, true
		}
	}
	return nil, 0, false
}

func (m *Machine) flatLoad(inst *isa.Inst) error {
	bytes, regs := opBytes(inst.Op)
	dst, err := m.vectorDst(inst.Dst, regs)
	if err != nil {
		return err
	}
	addr, ok := inst.Srcs[0].(isa.Reg)
	if !ok {
		return errors.Errorf("flat address %s is not a register", inst.Srcs[0].OperandAsm())
	}
	buf, offsets, err := m.flatOffsets(addr, bytes)
	if err != nil {
		return err
	}
	data := newLaneData(regs, m.Lanes)
	for lane := 0; buf != nil && lane < m.Lanes; lane++ {
		if m.Exec&(1<<lane) == 0 {
			continue
		}
		src := buf.Data[offsets[lane]:]
		if bytes == 2 {
			data[0][lane] = uint32(binary.LittleEndian.Uint16(src))
			continue
		}
		for r := 0; r < regs; r++ {
			data[r][lane] = binary.LittleEndian.Uint32(src[4*r:])
		}
	}
	m.pushLoadVM(dst, data, fmt.Sprintf("%s into %s", inst.Op, dst.OperandAsm()))
	return nil
}

func (m *Machine) flatStore(inst *isa.Inst) error {
	bytes, regs := opBytes(inst.Op)
	addr, ok := inst.Srcs[0].(isa.Reg)
	if !ok {
		return errors.Errorf("flat address %s is not a register", inst.Srcs[0].OperandAsm())
	}
	src, ok := inst.Srcs[1].(isa.Reg)
	if !ok {
		return errors.Errorf("store data %s is not a register", inst.Srcs[1].OperandAsm())
	}
	if err := m.checkVGPR(src, regs); err != nil {
		return err
	}
	buf, offsets, err := m.flatOffsets(addr, bytes)
	if err != nil {
		return err
	}
	for lane := 0; buf != nil && lane < m.Lanes; lane++ {
		if m.Exec&(1<<lane) == 0 {
			continue
		}
		dst := buf.Data[offsets[lane]:]
		if bytes == 2 {
			binary.LittleEndian.PutUint16(dst, uint16(m.vgpr[src.Idx][lane]))
			continue
		}
		for r := 0; r < regs; r++ {
			binary.LittleEndian.PutUint32(dst[4*r:], m.vgpr[src.Idx+r][lane])
		}
	}
	m.pushStoreVM(inst.Op.String())
	return nil
}

func (m *Machine) flatCmpswap(inst *isa.Inst) error {
	opN := 1
	if inst.Op == isa.OpcodeFlatAtomicCmpswapB64 {
		opN = 2
	}
	ret, err := m.vectorDst(inst.Dst, opN)
	if err != nil {
		return err
	}
	addr, ok := inst.Srcs[0].(isa.Reg)
	if !ok {
		return errors.Errorf("flat address %s is not a register", inst.Srcs[0].OperandAsm())
	}
	data, ok := inst.Srcs[1].(isa.Reg)
	if !ok {
		return errors.Errorf("atomic data %s is not a register", inst.Srcs[1].OperandAsm())
	}
	if err := m.checkVGPR(data, 2*opN); err != nil {
		return err
	}
	buf, offsets, err := m.flatOffsets(addr, 4*opN)
	if err != nil {
		return err
	}
	m.beginAtomic(inst)
	returned := newLaneData(opN, m.Lanes)
	for lane := 0; buf != nil && lane < m.Lanes; lane++ {
		if m.Exec&(1<<lane) == 0 {
			continue
		}
		m.cmpswapLane(buf.Data[offsets[lane]:], data, opN, lane, returned)
	}
	m.finishAtomic(inst, ret, returned)
	return nil
}

// dsOffsets resolves the per-lane byte addresses of a local-data-share
// access. The generator owns the whole LDS layout, so going out of range
// is an error rather than dropped traffic.
func (m *Machine) dsOffsets(inst *isa.Inst, bytes int) ([]int, error) {
	addr, ok := inst.Srcs[0].(isa.Reg)
	if !ok {
		return nil, errors.Errorf("local address %s is not a register", inst.Srcs[0].OperandAsm())
	}
	if err := m.checkVGPR(addr, 1); err != nil {
		return nil, err
	}
	base := 0
	if inst.DS != nil {
		base = inst.DS.Offset
	}
	offsets := make([]int, m.Lanes)
	for lane := 0; lane < m.Lanes; lane++ {
		if m.Exec&(1<<lane) == 0 {
			continue
		}
		off := base + int(m.vgpr[addr.Idx][lane])
		if off < 0 || off+bytes > len(m.lds) {
			return nil, errors.Errorf("local access at %d outside the %d-byte data share", off, len(m.lds))
		}
		offsets[lane] = off
	}
	return offsets, nil
}

func (m *Machine) dsLoad(inst *isa.Inst) error {
	bytes, regs := opBytes(inst.Op)
	dst, err := m.vectorDst(inst.Dst, regs)
	if err != nil {
		return err
	}
	offsets, err := m.dsOffsets(inst, bytes)
	if err != nil {
		return err
	}
	data := newLaneData(regs, m.Lanes)
	for lane := 0; lane < m.Lanes; lane++ {
		if m.Exec&(1<<lane) == 0 {
			continue
		}
		src := m.lds[offsets[lane]:]
		if bytes == 2 {
			data[0][lane] = uint32(binary.LittleEndian.Uint16(src))
			continue
		}
		for r := 0; r < regs; r++ {
			data[r][lane] = binary.LittleEndian.Uint32(src[4*r:])
		}
	}
	m.pushLoadLGKM(dst, data, fmt.Sprintf("%s into %s", inst.Op, dst.OperandAsm()))
	return nil
}

func (m *Machine) dsStore(inst *isa.Inst) error {
	bytes, regs := opBytes(inst.Op)
	src, ok := inst.Srcs[1].(isa.Reg)
	if !ok {
		return errors.Errorf("store data %s is not a register", inst.Srcs[1].OperandAsm())
	}
	if err := m.checkVGPR(src, regs); err != nil {
		return err
	}
	offsets, err := m.dsOffsets(inst, bytes)
	if err != nil {
		return err
	}
	for lane := 0; lane < m.Lanes; lane++ {
		if m.Exec&(1<<lane) == 0 {
			continue
		}
		dst := m.lds[offsets[lane]:]
		if bytes == 2 {
			binary.LittleEndian.PutUint16(dst, uint16(m.vgpr[src.Idx][lane]))
			continue
		}
		for r := 0; r < regs; r++ {
			binary.LittleEndian.PutUint32(dst[4*r:], m.vgpr[src.Idx+r][lane])
		}
	}
	// Local stores retire through the same counter as local loads.
	m.pendingLGKM = append(m.pendingLGKM, pending{what: inst.Op.String()})
	return nil
}
