// Package kernel holds the static configuration a store-epilogue generator
// works against: the problem's data types, the feature flags of the fused
// epilogue (bias, activation, scale vectors, gradient), the split-K
// accumulation mode, addressing and scheduling options, and the capability
// bits of the target architecture.
//
// Everything here is plain in-memory data filled by the caller; there is no
// file or flag parsing. Validate catches inconsistent combinations up front
// with proper errors, while per-batch preconditions are enforced at emission
// time and panic (they indicate generator bugs, not user input).
package kernel

import (
	"github.com/gomlx/gopjrt/dtypes"
	"github.com/pkg/errors"
)

// BytesPerRegister is the width of one vector register lane in bytes.
const BytesPerRegister = 4

// ArchCaps describes what the target hardware can do. The generator only
// consults capabilities that change instruction selection.
type ArchCaps struct {
	// HasWMMA: wave matrix instructions; changes the half-precision pack
	// layout when accumulation is not high-precision.
	HasWMMA bool
	// HasFmaMixF32 / HasMadMixF32: mixed f16/f32 fused multiply-add, used
	// by the half-precision beta path under high-precision accumulation.
	HasFmaMixF32 bool
	HasMadMixF32 bool
	// SeparateVscnt: stores retire through their own counter instead of
	// vmcnt.
	SeparateVscnt bool
	// HasAtomicAddF32: global float atomic add, enabling the fast
	// split-K accumulation path without a compare-and-swap loop.
	HasAtomicAddF32 bool
}

// DebugConfig gates purely additive self-checking code in the emitted
// stream. All fields default to off and change no functional behavior.
type DebugConfig struct {
	// ConservativeWaitCnt, when nonzero, emits a full wait (and barrier)
	// around every store instead of tracked minimal waits.
	ConservativeWaitCnt int
	// ForceExpectedValue overwrites every computed value with
	// ExpectedValue right before the store, to isolate data-path bugs
	// from address-path bugs.
	ForceExpectedValue bool
	ExpectedValue      float32
	// CheckValueC traps if a loaded output value differs from
	// CheckValueCExpected.
	CheckValueC         bool
	CheckValueCExpected float32
	// ForceSerial makes every memory operation wait for completion
	// immediately after issue.
	ForceSerial bool
	// CheckStoreC reads the stored data back after stores drain, so a
	// debugger can compare the round-tripped values.
	CheckStoreC bool
}

// Config is the full static description of one kernel's epilogue.
type Config struct {
	// DataType is the element type of the input matrices.
	DataType dtypes.DType
	// DestType is the storage type of the output tensor.
	DestType dtypes.DType
	// ComputeType is the precision the accumulator holds and all epilogue
	// arithmetic runs in.
	ComputeType dtypes.DType
	// DataTypeE is the storage type of the auxiliary E tensor.
	DataTypeE dtypes.DType
	// ActivationComputeType is the precision the activation runs in.
	ActivationComputeType dtypes.DType

	// HighPrecisionAccumulate keeps accumulation in ComputeType when the
	// inputs are narrower.
	HighPrecisionAccumulate bool

	// Bias selects no bias, bias read, or bias gradient write.
	Bias BiasKind
	// UseE streams the pre-activation values to the E tensor (forward) or
	// reads them back (gradient).
	UseE bool
	// Gradient switches the activation stage to its derivative form, with
	// E as input.
	Gradient bool
	// UseScaleAlphaVec scales each output element by a per-column vector.
	UseScaleAlphaVec bool
	// UseScaleD applies the scalar output scale after activation.
	UseScaleD bool

	// Activation names the fused activation; ActivationFuncCall selects
	// the out-of-line calling convention (jump through a function
	// pointer) instead of inline emission. InsertActivationAfterPack runs
	// the activation on already-packed storage-type data when the
	// activation collaborator supports it for this type.
	Activation                ActivationKind
	ActivationFuncCall        bool
	InsertActivationAfterPack bool

	// GlobalSplitU is the split count of the K dimension across
	// workgroups; Accum says how the splits combine.
	GlobalSplitU int
	Accum        AccumMode
	// WorkGroupReduction: bias reduction happens across workgroups rather
	// than in-kernel.
	WorkGroupReduction bool

	// BufferStore addresses global memory through buffer descriptors with
	// an out-of-bounds sentinel for edge lanes; otherwise flat 64-bit
	// addressing with explicit edge masks is used.
	BufferStore bool
	// GroupLoadStore clusters loads ahead of arithmetic and stores after
	// it, instead of interleaving per element.
	GroupLoadStore bool
	// InterleaveStoreVmcnt uses per-element minimal waits on the batched
	// load counters (disabled automatically for edge batches).
	InterleaveStoreVmcnt bool
	// InterleaveAlpha spreads the alpha multiply between the loads it
	// does not depend on.
	InterleaveAlpha bool
	// StoreRemapVectorWidth > 0 stages stores through the local data
	// share to restore contiguity before the real store (which a later
	// flush performs).
	StoreRemapVectorWidth int
	// StoreSyncOpt > 0 paces the store stream with sleep/barrier pairs.
	StoreSyncOpt int

	// EnableMatrixInstruction: the main loop used matrix cores, so
	// accumulators live in the accumulator register file unless
	// MIArchVgpr kept them in plain vector registers.
	EnableMatrixInstruction bool
	MIArchVgpr              bool

	// WavefrontSize is 32 or 64 and decides the width of lane masks and
	// the exec-mask instruction forms.
	WavefrontSize int

	Caps  ArchCaps
	Debug DebugConfig
}

// storageTypes is the closed set of types the epilogue knows how to load,
// combine, narrow and store.
var storageTypes = []dtypes.DType{
	dtypes.Float16, dtypes.BFloat16, dtypes.Float32, dtypes.Float64,
	dtypes.Int8, dtypes.Int32, dtypes.F8E4M3FNUZ, dtypes.F8E5M2FNUZ,
	dtypes.Complex64, dtypes.Complex128,
}

// IsSupportedStorage reports whether dt is one of the storage types the
// epilogue supports.
func IsSupportedStorage(dt dtypes.DType) bool {
	for _, s := range storageTypes {
		if dt == s {
			return true
		}
	}
	return false
}

// Validate checks the configuration for combinations no generator path
// supports. It returns an error rather than panicking: an invalid Config is
// user input, not a generator bug.
func (c *Config) Validate() error {
	if c.WavefrontSize != 32 && c.WavefrontSize != 64 {
		return errors.Errorf("WavefrontSize must be 32 or 64, got %d", c.WavefrontSize)
	}
	for _, f := range []struct {
		name string
		dt   dtypes.DType
	}{
		{"DataType", c.DataType},
		{"DestType", c.DestType},
		{"ComputeType", c.ComputeType},
	} {
		if !IsSupportedStorage(f.dt) {
			return errors.Errorf("%s %s is not a supported storage type", f.name, f.dt)
		}
	}
	switch c.ComputeType {
	case dtypes.Float16, dtypes.Float32, dtypes.Float64, dtypes.Int32,
		dtypes.Complex64, dtypes.Complex128:
	default:
		return errors.Errorf("ComputeType %s has no epilogue arithmetic; narrow types compute in a wider type", c.ComputeType)
	}
	if c.UseE && !IsSupportedStorage(c.DataTypeE) {
		return errors.Errorf("DataTypeE %s is not a supported storage type", c.DataTypeE)
	}
	if c.GlobalSplitU < 1 {
		return errors.Errorf("GlobalSplitU must be >= 1, got %d", c.GlobalSplitU)
	}
	if c.Accum != AccumNone && c.GlobalSplitU == 1 {
		return errors.Errorf("accumulation mode %s requires GlobalSplitU > 1", c.Accum)
	}
	if c.StoreRemapVectorWidth > 0 && !c.BufferStore {
		return errors.Errorf("store remap requires buffer addressing")
	}
	if c.Gradient && c.Activation != ActivationNone && !c.UseE {
		return errors.Errorf("gradient activation needs the E tensor as input")
	}
	if c.Bias == BiasWriteReduced && !c.Gradient {
		return errors.Errorf("bias write-reduction is a gradient feature")
	}
	return nil
}

// LaneSGPRCount returns how many scalar registers one lane mask occupies.
func (c *Config) LaneSGPRCount() int {
	if c.WavefrontSize == 64 {
		return 2
	}
	return 1
}

// ByteSize returns the storage width of dt in bytes. The float8 formats
// have no Go representation, so dtypes.DType.Size panics on them; the
// generator only needs their width.
func ByteSize(dt dtypes.DType) int {
	switch dt {
	case dtypes.F8E4M3FNUZ, dtypes.F8E5M2FNUZ:
		return 1
	}
	return dt.Size()
}

// RegCount returns the number of vector registers n consecutive values of
// dt occupy, at least one.
func RegCount(dt dtypes.DType, n int) int {
	bytes := ByteSize(dt) * n
	regs := (bytes + BytesPerRegister - 1) / BytesPerRegister
	if regs < 1 {
		regs = 1
	}
	return regs
}

// MixCap returns whether the target has any mixed-precision fused
// multiply-add, needed by the half-precision beta path under high-precision
// accumulation.
func (c *Config) MixCap() bool {
	return c.Caps.HasFmaMixF32 || c.Caps.HasMadMixF32
}
