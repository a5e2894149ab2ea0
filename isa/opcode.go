package isa

// Opcode enumerates every instruction the generators emit. The rendered
// mnemonic is the snake-case form of the name (see gen_opcode_enumer.go).
//
// The set is closed on purpose: the stream interpreter used by tests and the
// wait-counter accounting both dispatch on it exhaustively, so a new opcode
// is added here first and then taught to both.
type Opcode int32

//go:generate go tool enumer -type=Opcode -trimprefix=Opcode -transform=snake -output=gen_opcode_enumer.go opcode.go

const (
	OpcodeInvalid Opcode = iota

	// Scalar ALU and control.

	OpcodeSMovB32
	OpcodeSMovB64
	OpcodeSAndB32
	OpcodeSAndB64
	OpcodeSOrB32
	OpcodeSOrB64
	OpcodeSWaitcnt
	OpcodeSWaitcntVscnt
	OpcodeSBarrier
	OpcodeSSleep
	OpcodeSNop
	OpcodeSTrap
	OpcodeSSwappcB64
	OpcodeSBranch
	OpcodeSCbranchExecz
	OpcodeSCbranchExecnz
	OpcodeSCbranchVccnz

	// Vector moves, selects and compares.

	OpcodeVMovB32
	OpcodeVAccvgprReadB32
	OpcodeVCndmaskB32
	OpcodeVCmpGtU32
	OpcodeVCmpNeU32
	OpcodeVCmpNeU64
	OpcodeVCmpClassF32

	// Vector arithmetic.

	OpcodeVAddF32
	OpcodeVAddF64
	OpcodeVAddU32
	OpcodeVAddCoU32
	OpcodeVAddcCoU32
	OpcodeVAdd3U32
	OpcodeVSubF32
	OpcodeVSubF64
	OpcodeVMulF32
	OpcodeVMulF64
	OpcodeVMulLoU32
	OpcodeVMacF32
	OpcodeVFmaF64
	OpcodeVFmaMixF32
	OpcodeVMadMixF32
	OpcodeVPkAddF16
	OpcodeVPkMulF16

	// Vector bit manipulation.

	OpcodeVAndB32
	OpcodeVOrB32
	OpcodeVAndOrB32
	OpcodeVLshlrevB32
	OpcodeVLshrrevB32
	OpcodeVAshrrevI32
	OpcodeVBfeI32
	OpcodeVBfeU32
	OpcodeVMed3F32
	OpcodeVMed3I32
	OpcodeVRndneF32

	// Converts and packs. Convert names follow the destination-first
	// hardware convention: v_cvt_f16_f32 narrows f32 to f16.

	OpcodeVCvtF16F32
	OpcodeVCvtF32F16
	OpcodeVCvtF32I32
	OpcodeVCvtI32F32
	OpcodeVCvtF32Fp8
	OpcodeVCvtF32Bf8
	OpcodeVCvtPkF32Fp8
	OpcodeVCvtPkF32Bf8
	OpcodeVCvtPkFp8F32
	OpcodeVCvtPkBf8F32
	OpcodeVPackB32F16

	// Buffer (descriptor-relative) memory.

	OpcodeBufferLoadU16
	OpcodeBufferLoadB32
	OpcodeBufferLoadB64
	OpcodeBufferLoadB128
	OpcodeBufferStoreB16
	OpcodeBufferStoreB32
	OpcodeBufferStoreB64
	OpcodeBufferStoreB128
	OpcodeBufferAtomicAddF32
	OpcodeBufferAtomicCmpswapB32
	OpcodeBufferAtomicCmpswapB64

	// Flat (64-bit pointer) memory.

	OpcodeFlatLoadU16
	OpcodeFlatLoadB32
	OpcodeFlatLoadB64
	OpcodeFlatLoadB128
	OpcodeFlatStoreB16
	OpcodeFlatStoreB32
	OpcodeFlatStoreB64
	OpcodeFlatStoreB128
	OpcodeFlatAtomicCmpswapB32
	OpcodeFlatAtomicCmpswapB64

	// Local data share.

	OpcodeDsLoadU16
	OpcodeDsLoadB32
	OpcodeDsLoadB64
	OpcodeDsLoadB128
	OpcodeDsStoreB16
	OpcodeDsStoreB32
	OpcodeDsStoreB64
	OpcodeDsStoreB128
)

// IsVMemLoad reports whether the opcode reads global memory through the
// vector memory pipe (counted by vmcnt).
func (op Opcode) IsVMemLoad() bool {
	switch op {
	case OpcodeBufferLoadU16, OpcodeBufferLoadB32, OpcodeBufferLoadB64, OpcodeBufferLoadB128,
		OpcodeFlatLoadU16, OpcodeFlatLoadB32, OpcodeFlatLoadB64, OpcodeFlatLoadB128:
		return true
	}
	return false
}

// IsVMemStore reports whether the opcode writes global memory (counted by
// vscnt on targets with a separate store counter, by vmcnt otherwise).
func (op Opcode) IsVMemStore() bool {
	switch op {
	case OpcodeBufferStoreB16, OpcodeBufferStoreB32, OpcodeBufferStoreB64, OpcodeBufferStoreB128,
		OpcodeFlatStoreB16, OpcodeFlatStoreB32, OpcodeFlatStoreB64, OpcodeFlatStoreB128:
		return true
	}
	return false
}

// IsAtomic reports whether the opcode is a global-memory atomic. Atomics
// with a returned value are counted like loads.
func (op Opcode) IsAtomic() bool {
	switch op {
	case OpcodeBufferAtomicAddF32, OpcodeBufferAtomicCmpswapB32, OpcodeBufferAtomicCmpswapB64,
		OpcodeFlatAtomicCmpswapB32, OpcodeFlatAtomicCmpswapB64:
		return true
	}
	return false
}

// IsLDSLoad reports whether the opcode reads the local data share (counted
// by lgkmcnt).
func (op Opcode) IsLDSLoad() bool {
	switch op {
	case OpcodeDsLoadU16, OpcodeDsLoadB32, OpcodeDsLoadB64, OpcodeDsLoadB128:
		return true
	}
	return false
}

// IsLDSStore reports whether the opcode writes the local data share.
func (op Opcode) IsLDSStore() bool {
	switch op {
	case OpcodeDsStoreB16, OpcodeDsStoreB32, OpcodeDsStoreB64, OpcodeDsStoreB128:
		return true
	}
	return false
}

// IsBranch reports whether the opcode transfers control to a label.
func (op Opcode) IsBranch() bool {
	switch op {
	case OpcodeSBranch, OpcodeSCbranchExecz, OpcodeSCbranchExecnz, OpcodeSCbranchVccnz:
		return true
	}
	return false
}

// IsVALU reports whether the opcode executes on the vector ALU.
func (op Opcode) IsVALU() bool {
	return op >= OpcodeVMovB32 && op <= OpcodeVPackB32F16
}

// IsSALU reports whether the opcode executes on the scalar unit (including
// waits, barriers and branches).
func (op Opcode) IsSALU() bool {
	return op >= OpcodeSMovB32 && op <= OpcodeSCbranchVccnz
}
