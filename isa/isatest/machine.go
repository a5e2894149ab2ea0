// Package isatest runs emitted instruction streams on a small wavefront
// machine model, so tests check the values a stream actually computes and
// stores instead of matching assembly text.
//
// The model is deliberately narrow: it executes exactly the opcode set of
// the isa package, one wavefront at a time, and errors out on anything it
// does not recognize. Memory reads complete lazily the way the hardware
// counters work: a load's destination registers keep their stale content
// until a covering s_waitcnt retires it, and touching them earlier fails
// the run. Wait-placement bugs therefore show up as deterministic test
// failures instead of values that happen to be right.
package isatest

import (
	"encoding/binary"
	"math"

	"github.com/gcnforge/gcnforge/isa"
	"github.com/gomlx/exceptions"
	"github.com/pkg/errors"
)

const (
	numVGPR = 256
	numSGPR = 106
	numAcc  = 256

	// ldsBytes is the local data share size, matching the hardware's 64KiB.
	ldsBytes = 64 << 10

	// maxSteps bounds one Run; a retry loop that never converges trips it.
	maxSteps = 1 << 20
)

// Buffer is a named chunk of global memory. Buffer-descriptor accesses
// beyond Data behave like the hardware's out-of-range handling: loads
// return zero, stores and atomics are dropped.
type Buffer struct {
	Name string
	Data []byte
}

// NewBuffer allocates a zeroed buffer of the given byte size.
func NewBuffer(name string, size int) *Buffer {
	return &Buffer{Name: name, Data: make([]byte, size)}
}

// F32 reads the float32 at byte offset off.
func (b *Buffer) F32(off int) float32 {
	return math.Float32frombits(binary.LittleEndian.Uint32(b.Data[off:]))
}

// SetF32 writes a float32 at byte offset off.
func (b *Buffer) SetF32(off int, v float32) {
	binary.LittleEndian.PutUint32(b.Data[off:], math.Float32bits(v))
}

// U32 reads the uint32 at byte offset off.
func (b *Buffer) U32(off int) uint32 { return binary.LittleEndian.Uint32(b.Data[off:]) }

// SetU32 writes a uint32 at byte offset off.
func (b *Buffer) SetU32(off int, v uint32) { binary.LittleEndian.PutUint32(b.Data[off:], v) }

// U64 reads the uint64 at byte offset off.
func (b *Buffer) U64(off int) uint64 { return binary.LittleEndian.Uint64(b.Data[off:]) }

// SetU64 writes a uint64 at byte offset off.
func (b *Buffer) SetU64(off int, v uint64) { binary.LittleEndian.PutUint64(b.Data[off:], v) }

// F64 reads the float64 at byte offset off.
func (b *Buffer) F64(off int) float64 {
	return math.Float64frombits(binary.LittleEndian.Uint64(b.Data[off:]))
}

// SetF64 writes a float64 at byte offset off.
func (b *Buffer) SetF64(off int, v float64) {
	binary.LittleEndian.PutUint64(b.Data[off:], math.Float64bits(v))
}

// pending is one in-flight memory operation. dst is the zero Reg for
// operations without a register writeback (stores, non-returning atomics).
type pending struct {
	dst  isa.Reg
	data [][]uint32 // [dst.N][lane], captured at issue
	mask uint64     // exec at issue; landing writes only these lanes
	what string
}

type flatRegion struct {
	base uint64
	buf  *Buffer
}

// Machine is a single-wavefront execution model.
type Machine struct {
	// Lanes is the wavefront size, 32 or 64. It fixes the width of the
	// exec and vcc masks and which scalar-op forms may touch them.
	Lanes int

	// SeparateVscnt mirrors the target capability: stores retire through
	// their own counter instead of vmcnt.
	SeparateVscnt bool

	// Exec and VCC are the lane masks, truncated to Lanes bits.
	Exec uint64
	VCC  uint64

	// OnAtomic, when set, runs right before each atomic's memory update.
	// Tests inject racing writers here.
	OnAtomic func(inst *isa.Inst)

	vgpr [numVGPR][]uint32
	sgpr [numSGPR]uint32
	acc  [numAcc][]uint32
	lds  []byte

	buffers map[int]*Buffer
	flat    []flatRegion

	pendingVM   []pending
	pendingLGKM []pending
	pendingVS   int

	atomics int
}

// New creates a machine with every register zero and all lanes active.
func New(lanes int) *Machine {
	if lanes != 32 && lanes != 64 {
		exceptions.Panicf("isatest.New: wavefront size must be 32 or 64, got %d", lanes)
	}
	m := &Machine{
		Lanes:   lanes,
		lds:     make([]byte, ldsBytes),
		buffers: make(map[int]*Buffer),
	}
	for i := range m.vgpr {
		m.vgpr[i] = make([]uint32, lanes)
	}
	for i := range m.acc {
		m.acc[i] = make([]uint32, lanes)
	}
	m.Exec = m.allLanes()
	return m
}

func (m *Machine) allLanes() uint64 {
	if m.Lanes == 64 {
		return ^uint64(0)
	}
	return (1 << 32) - 1
}

func (m *Machine) laneMask(v uint64) uint64 { return v & m.allLanes() }

// BindBuffer attaches buf to the buffer descriptor starting at scalar
// register srd; buffer instructions naming that descriptor access it.
func (m *Machine) BindBuffer(srd int, buf *Buffer) { m.buffers[srd] = buf }

// MapFlat makes buf reachable through flat addressing at [base, base+len).
func (m *Machine) MapFlat(base uint64, buf *Buffer) {
	m.flat = append(m.flat, flatRegion{base: base, buf: buf})
}

// LDS exposes the local data share content.
func (m *Machine) LDS() []byte { return m.lds }

// SetVGPR writes one lane of a vector register.
func (m *Machine) SetVGPR(reg, lane int, v uint32) { m.vgpr[reg][lane] = v }

// VGPR reads one lane of a vector register.
func (m *Machine) VGPR(reg, lane int) uint32 { return m.vgpr[reg][lane] }

// SetVGPRF32 writes one lane of a vector register as a float32.
func (m *Machine) SetVGPRF32(reg, lane int, v float32) { m.vgpr[reg][lane] = math.Float32bits(v) }

// VGPRF32 reads one lane of a vector register as a float32.
func (m *Machine) VGPRF32(reg, lane int) float32 {
	return math.Float32frombits(m.vgpr[reg][lane])
}

// SetVGPRF64 writes a float64 into a vector register pair.
func (m *Machine) SetVGPRF64(reg, lane int, v float64) {
	bits := math.Float64bits(v)
	m.vgpr[reg][lane] = uint32(bits)
	m.vgpr[reg+1][lane] = uint32(bits >> 32)
}

// VGPRF64 reads a float64 from a vector register pair.
func (m *Machine) VGPRF64(reg, lane int) float64 {
	bits := uint64(m.vgpr[reg][lane]) | uint64(m.vgpr[reg+1][lane])<<32
	return math.Float64frombits(bits)
}

// SetSGPR writes a scalar register.
func (m *Machine) SetSGPR(reg int, v uint32) { m.sgpr[reg] = v }

// SGPR reads a scalar register.
func (m *Machine) SGPR(reg int) uint32 { return m.sgpr[reg] }

// SetAcc writes one lane of a matrix-accumulator register.
func (m *Machine) SetAcc(reg, lane int, v uint32) { m.acc[reg][lane] = v }

// SetAccF32 writes one lane of a matrix-accumulator register as a float32.
func (m *Machine) SetAccF32(reg, lane int, v float32) { m.acc[reg][lane] = math.Float32bits(v) }

// Atomics returns how many atomic instructions executed so far.
func (m *Machine) Atomics() int { return m.atomics }

// Run executes the module until it falls off the end. It returns an error
// on traps, on undecodable or unsupported instructions, on memory faults
// and on register hazards (touching the destination of an un-retired load).
func (m *Machine) Run(mod *isa.Module) error {
	items := mod.Flatten()
	labels := make(map[string]int)
	for i, item := range items {
		if l, ok := item.(*isa.Label); ok {
			if _, dup := labels[l.Name]; dup {
				return errors.Errorf("label %q defined twice", l.Name)
			}
			labels[l.Name] = i
		}
	}

	pc := 0
	for steps := 0; pc < len(items); steps++ {
		if steps > maxSteps {
			return errors.Errorf("stream did not terminate within %d steps", maxSteps)
		}
		inst, ok := items[pc].(*isa.Inst)
		if !ok {
			pc++ // labels and comments
			continue
		}
		jump, err := m.step(inst)
		if err != nil {
			return errors.WithMessagef(err, "at instruction %d %q", pc, inst.Asm())
		}
		if jump == "" {
			pc++
			continue
		}
		target, ok := labels[jump]
		if !ok {
			return errors.Errorf("branch to undefined label %q", jump)
		}
		pc = target
	}
	return nil
}

// step executes one instruction, returning the label name to jump to for
// taken branches.
func (m *Machine) step(inst *isa.Inst) (string, error) {
	if err := m.checkHazards(inst); err != nil {
		return "", err
	}
	switch {
	case inst.Op.IsSALU():
		return m.stepScalar(inst)
	case inst.Op.IsVALU():
		return "", m.stepVector(inst)
	case inst.Op.IsVMemLoad(), inst.Op.IsVMemStore(), inst.Op.IsAtomic(),
		inst.Op.IsLDSLoad(), inst.Op.IsLDSStore():
		return "", m.stepMemory(inst)
	}
	return "", errors.Errorf("opcode %s not modeled", inst.Op)
}

// checkHazards fails when the instruction touches any register that is the
// destination of a memory read still in flight. The generated streams must
// cover every consumer with a wait; this is where a missing one surfaces.
func (m *Machine) checkHazards(inst *isa.Inst) error {
	if len(m.pendingVM) == 0 && len(m.pendingLGKM) == 0 {
		return nil
	}
	check := func(op isa.Operand) error {
		reg, ok := op.(isa.Reg)
		if !ok {
			return nil
		}
		for _, p := range m.pendingVM {
			if regsOverlap(reg, p.dst) {
				return errors.Errorf("%s touched before %s retired", reg.OperandAsm(), p.what)
			}
		}
		for _, p := range m.pendingLGKM {
			if regsOverlap(reg, p.dst) {
				return errors.Errorf("%s touched before %s retired", reg.OperandAsm(), p.what)
			}
		}
		return nil
	}
	for _, op := range []isa.Operand{inst.Dst, inst.Dst2} {
		if op == nil {
			continue
		}
		if err := check(op); err != nil {
			return err
		}
	}
	for _, op := range inst.Srcs {
		if err := check(op); err != nil {
			return err
		}
	}
	return nil
}

func regsOverlap(a, b isa.Reg) bool {
	if b.IsZero() || a.File != b.File {
		return false
	}
	return a.Idx < b.Idx+b.N && b.Idx < a.Idx+a.N
}

// retire lands the oldest entries of queue until at most bound remain.
func (m *Machine) retire(queue []pending, bound int) []pending {
	for len(queue) > bound {
		p := queue[0]
		queue = queue[1:]
		if p.dst.IsZero() {
			continue
		}
		for r := 0; r < p.dst.N; r++ {
			regs := m.vgpr[p.dst.Idx+r]
			for lane := 0; lane < m.Lanes; lane++ {
				if p.mask&(1<<lane) != 0 {
					regs[lane] = p.data[r][lane]
				}
			}
		}
	}
	return queue
}

func (m *Machine) wait(w *isa.WaitCnt) error {
	if w == nil {
		return errors.New("wait instruction without counter bounds")
	}
	if w.VMCnt >= 0 {
		m.pendingVM = m.retire(m.pendingVM, w.VMCnt)
	}
	if w.LGKMCnt >= 0 {
		m.pendingLGKM = m.retire(m.pendingLGKM, w.LGKMCnt)
	}
	if w.VSCnt >= 0 {
		if !m.SeparateVscnt {
			return errors.New("store-counter wait on a target without a separate store counter")
		}
		if m.pendingVS > w.VSCnt {
			m.pendingVS = w.VSCnt
		}
	}
	return nil
}
