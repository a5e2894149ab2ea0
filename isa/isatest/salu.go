package isatest

import (
	"math"

	"github.com/gcnforge/gcnforge/isa"
	"github.com/pkg/errors"
)

// stepScalar executes one SALU instruction and returns the target label
// name when a branch is taken.
func (m *Machine) stepScalar(inst *isa.Inst) (string, error) {
	switch inst.Op {
	case isa.OpcodeSMovB32:
		v, err := m.scalarRead32(inst.Srcs[0])
		if err != nil {
			return "", err
		}
		return "", m.scalarWrite32(inst.Dst, v)

	case isa.OpcodeSMovB64:
		v, err := m.scalarRead64(inst.Srcs[0])
		if err != nil {
			return "", err
		}
		return "", m.scalarWrite64(inst.Dst, v)

	case isa.OpcodeSAndB32, isa.OpcodeSOrB32:
		a, err := m.scalarRead32(inst.Srcs[0])
		if err != nil {
			return "", err
		}
		b, err := m.scalarRead32(inst.Srcs[1])
		if err != nil {
			return "", err
		}
		v := a & b
		if inst.Op == isa.OpcodeSOrB32 {
			v = a | b
		}
		return "", m.scalarWrite32(inst.Dst, v)

	case isa.OpcodeSAndB64, isa.OpcodeSOrB64:
		a, err := m.scalarRead64(inst.Srcs[0])
		if err != nil {
			return "", err
		}
		b, err := m.scalarRead64(inst.Srcs[1])
		if err != nil {
			return "", err
		}
		v := a & b
		if inst.Op == isa.OpcodeSOrB64 {
			v = a | b
		}
		return "", m.scalarWrite64(inst.Dst, v)

	case isa.OpcodeSWaitcnt, isa.OpcodeSWaitcntVscnt:
		return "", m.wait(inst.Wait)

	case isa.OpcodeSBarrier, isa.OpcodeSSleep, isa.OpcodeSNop:
		// Single-wavefront model: synchronization and latency hiding are
		// no-ops, correctness must come from the counters.
		return "", nil

	case isa.OpcodeSTrap:
		return "", errors.Errorf("trap %s raised", inst.Srcs[0].OperandAsm())

	case isa.OpcodeSSwappcB64:
		return "", errors.New("subroutine calls are not modeled")

	case isa.OpcodeSBranch:
		return branchTarget(inst)

	case isa.OpcodeSCbranchExecz:
		if m.laneMask(m.Exec) == 0 {
			return branchTarget(inst)
		}
		return "", nil

	case isa.OpcodeSCbranchExecnz:
		if m.laneMask(m.Exec) != 0 {
			return branchTarget(inst)
		}
		return "", nil

	case isa.OpcodeSCbranchVccnz:
		if m.laneMask(m.VCC) != 0 {
			return branchTarget(inst)
		}
		return "", nil
	}
	return "", errors.Errorf("scalar opcode %s not modeled", inst.Op)
}

func branchTarget(inst *isa.Inst) (string, error) {
	ref, ok := inst.Srcs[0].(isa.LabelRef)
	if !ok {
		return "", errors.Errorf("branch operand %s is not a label", inst.Srcs[0].OperandAsm())
	}
	return string(ref), nil
}

// scalarRead32 evaluates a 32-bit scalar source. The exec and vcc masks are
// legal here only on a 32-lane machine; a B32 form touching them on a
// 64-lane target is exactly the wavefront-size bug this model exists to
// catch.
func (m *Machine) scalarRead32(op isa.Operand) (uint32, error) {
	switch v := op.(type) {
	case isa.Reg:
		switch v.File {
		case isa.RegFileSGPR:
			if err := m.checkSGPR(v, 1); err != nil {
				return 0, err
			}
			return m.sgpr[v.Idx], nil
		case isa.RegFileExec:
			if m.Lanes != 32 {
				return 0, errors.New("32-bit read of exec on a 64-lane wavefront")
			}
			return uint32(m.Exec), nil
		case isa.RegFileVCC:
			if m.Lanes != 32 {
				return 0, errors.New("32-bit read of vcc on a 64-lane wavefront")
			}
			return uint32(m.VCC), nil
		}
		return 0, errors.Errorf("scalar op cannot read %s", v.OperandAsm())
	case isa.ImmInt:
		return uint32(int32(v)), nil
	case isa.HexImm:
		return uint32(v), nil
	case isa.ImmF32:
		return math.Float32bits(float32(v)), nil
	}
	return 0, errors.Errorf("operand %s not valid as scalar source", op.OperandAsm())
}

func (m *Machine) scalarRead64(op isa.Operand) (uint64, error) {
	switch v := op.(type) {
	case isa.Reg:
		switch v.File {
		case isa.RegFileSGPR:
			if err := m.checkSGPR(v, 2); err != nil {
				return 0, err
			}
			return uint64(m.sgpr[v.Idx]) | uint64(m.sgpr[v.Idx+1])<<32, nil
		case isa.RegFileExec:
			if m.Lanes != 64 {
				return 0, errors.New("64-bit read of exec on a 32-lane wavefront")
			}
			return m.Exec, nil
		case isa.RegFileVCC:
			if m.Lanes != 64 {
				return 0, errors.New("64-bit read of vcc on a 32-lane wavefront")
			}
			return m.VCC, nil
		}
		return 0, errors.Errorf("scalar op cannot read %s", v.OperandAsm())
	case isa.ImmInt:
		return uint64(int64(v)), nil
	case isa.HexImm:
		return uint64(uint32(v)), nil
	case isa.ImmF64:
		return math.Float64bits(float64(v)), nil
	}
	return 0, errors.Errorf("operand %s not valid as 64-bit scalar source", op.OperandAsm())
}

func (m *Machine) scalarWrite32(op isa.Operand, v uint32) error {
	reg, ok := op.(isa.Reg)
	if !ok {
		return errors.Errorf("scalar destination %s is not a register", op.OperandAsm())
	}
	switch reg.File {
	case isa.RegFileSGPR:
		if err := m.checkSGPR(reg, 1); err != nil {
			return err
		}
		m.sgpr[reg.Idx] = v
		return nil
	case isa.RegFileExec:
		if m.Lanes != 32 {
			return errors.New("32-bit write of exec on a 64-lane wavefront")
		}
		m.Exec = uint64(v)
		return nil
	case isa.RegFileVCC:
		if m.Lanes != 32 {
			return errors.New("32-bit write of vcc on a 64-lane wavefront")
		}
		m.VCC = uint64(v)
		return nil
	}
	return errors.Errorf("scalar op cannot write %s", reg.OperandAsm())
}

func (m *Machine) scalarWrite64(op isa.Operand, v uint64) error {
	reg, ok := op.(isa.Reg)
	if !ok {
		return errors.Errorf("scalar destination %s is not a register", op.OperandAsm())
	}
	switch reg.File {
	case isa.RegFileSGPR:
		if err := m.checkSGPR(reg, 2); err != nil {
			return err
		}
		m.sgpr[reg.Idx] = uint32(v)
		m.sgpr[reg.Idx+1] = uint32(v >> 32)
		return nil
	case isa.RegFileExec:
		if m.Lanes != 64 {
			return errors.New("64-bit write of exec on a 32-lane wavefront")
		}
		m.Exec = v
		return nil
	case isa.RegFileVCC:
		if m.Lanes != 64 {
			return errors.New("64-bit write of vcc on a 32-lane wavefront")
		}
		m.VCC = v
		return nil
	}
	return errors.Errorf("scalar op cannot write %s", reg.OperandAsm())
}

func (m *Machine) checkSGPR(reg isa.Reg, need int) error {
	if reg.N < need {
		return errors.Errorf("%s too narrow, operation needs %d registers", reg.OperandAsm(), need)
	}
	if reg.Idx < 0 || reg.Idx+need > numSGPR {
		return errors.Errorf("%s outside the scalar register file", reg.OperandAsm())
	}
	return nil
}

func (m *Machine) checkVGPR(reg isa.Reg, need int) error {
	if reg.File != isa.RegFileVGPR {
		return errors.Errorf("%s is not a vector register", reg.OperandAsm())
	}
	if reg.N < need {
		return errors.Errorf("%s too narrow, operation needs %d registers", reg.OperandAsm(), need)
	}
	if reg.Idx < 0 || reg.Idx+need > numVGPR {
		return errors.Errorf("%s outside the vector register file", reg.OperandAsm())
	}
	return nil
}

// readMask evaluates a lane-mask operand (the condition of a select, a
// carry-in). Scalar mask registers must be as wide as the wavefront needs.
func (m *Machine) readMask(op isa.Operand) (uint64, error) {
	reg, ok := op.(isa.Reg)
	if !ok {
		return 0, errors.Errorf("mask operand %s is not a register", op.OperandAsm())
	}
	switch reg.File {
	case isa.RegFileVCC:
		return m.laneMask(m.VCC), nil
	case isa.RegFileExec:
		return m.laneMask(m.Exec), nil
	case isa.RegFileSGPR:
		need := m.Lanes / 32
		if err := m.checkSGPR(reg, need); err != nil {
			return 0, err
		}
		if reg.N != need {
			return 0, errors.Errorf("mask %s spans %d registers, wavefront needs %d",
				reg.OperandAsm(), reg.N, need)
		}
		mask := uint64(m.sgpr[reg.Idx])
		if need == 2 {
			mask |= uint64(m.sgpr[reg.Idx+1]) << 32
		}
		return mask, nil
	}
	return 0, errors.Errorf("mask operand %s invalid", reg.OperandAsm())
}

// writeMask stores a lane mask produced by a compare or a carry-out.
func (m *Machine) writeMask(op isa.Operand, mask uint64) error {
	reg, ok := op.(isa.Reg)
	if !ok {
		return errors.Errorf("mask destination %s is not a register", op.OperandAsm())
	}
	switch reg.File {
	case isa.RegFileVCC:
		m.VCC = m.laneMask(mask)
		return nil
	case isa.RegFileExec:
		m.Exec = m.laneMask(mask)
		return nil
	case isa.RegFileSGPR:
		need := m.Lanes / 32
		if err := m.checkSGPR(reg, need); err != nil {
			return err
		}
		if reg.N != need {
			return errors.Errorf("mask %s spans %d registers, wavefront needs %d",
				reg.OperandAsm(), reg.N, need)
		}
		m.sgpr[reg.Idx] = uint32(mask)
		if need == 2 {
			m.sgpr[reg.Idx+1] = uint32(mask >> 32)
		}
		return nil
	}
	return errors.Errorf("mask destination %s invalid", reg.OperandAsm())
}
