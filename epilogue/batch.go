package epilogue

import (
	"fmt"

	"github.com/gcnforge/gcnforge/isa"
	"github.com/gcnforge/gcnforge/kernel"
	"github.com/gcnforge/gcnforge/regalloc"
	"github.com/gomlx/gopjrt/dtypes"
)

// Tensor identifies which of the kernel's global tensors an address or load
// refers to.
type Tensor int

//go:generate go tool enumer -type=Tensor -trimprefix=Tensor -output=gen_tensor_enumer.go batch.go

const (
	// TensorD is the output.
	TensorD Tensor = iota
	// TensorC is the existing output content, read when beta != 0.
	TensorC
	// TensorE is the auxiliary tensor: written with pre-activation values
	// forward, read as activation input in gradient mode.
	TensorE
	// TensorBias is the bias vector (read) or bias gradient (written).
	TensorBias
	// TensorScaleAlphaVec is the per-column alpha scale vector.
	TensorScaleAlphaVec
)

// BatchElement is one output position of the batch, in register-tile
// coordinates: thread-tile indices (D1, D0) and vector-component indices
// (VC1, VC0). Iteration order within a batch is significant and preserved.
type BatchElement struct {
	D1, D0, VC1, VC0 int
}

// String renders the element the way batch headers list it.
func (e BatchElement) String() string {
	return fmt.Sprintf("(%d,%d,%d,%d)", e.D1, e.D0, e.VC1, e.VC0)
}

// AddrCalc is the per-element address collaborator. The register-plan
// builder owns address assignment and edge math; the batch only asks for the
// instruction fragments and register numbers it needs, in a fixed order:
// AddressSetup, then EdgeProtect (edge batches), then one LdChange per
// tensor accessed.
type AddrCalc interface {
	// AddrReg returns the address register for tensor t: a single offset
	// register under buffer addressing, a 64-bit pair otherwise. The zero
	// Reg means the element never addresses t.
	AddrReg(t Tensor) isa.Reg

	// GlobalOffset returns the immediate byte offset to fold into memory
	// instructions touching t.
	GlobalOffset(t Tensor) int

	// RowInc returns how many rows this element advanced past the
	// previous one; the store-remap path re-bases its staging writes on
	// row changes.
	RowInc() int

	// AddressSetup computes the element's address registers.
	AddressSetup() *isa.Module

	// EdgeProtect clamps the element's lane mask and addresses to the
	// tensor bounds; only called for edge batches.
	EdgeProtect() *isa.Module

	// LdChange rebases the current address register onto tensor t. Under
	// buffer addressing with edges, oob is the checked-out out-of-bounds
	// sentinel; otherwise it is the zero Reg.
	LdChange(t Tensor, oob isa.Reg) *isa.Module

	// IncrementToNextRow advances the address of t by one row (store
	// remap).
	IncrementToNextRow(t Tensor) *isa.Module
}

// ElementPlan is the pre-assigned register set of one batch element. The
// register-plan builder fills the whole batch before emission starts; the
// batch consumes it read-only.
type ElementPlan struct {
	Element BatchElement
	Addr    AddrCalc

	// Data is the first staging register for loaded C values (also the
	// compare-and-swap scratch block in atomic batches: desired values,
	// then the loaded output, then under flat addressing a third slot for
	// the swap's returned content). -1 when the element loads no C data.
	Data int
	// DataE, DataBias and DataScaleAlpha are the staging registers for
	// the optional tensor loads, -1 when unused. Gradient batches decode
	// the activation inputs in place, so DataE spans one register per
	// sub-vector value even when the storage type packs narrower.
	DataE          int
	DataBias       int
	DataScaleAlpha int

	// Mask is the first scalar register of the element's lane mask
	// (LaneSGPRCount wide), -1 when unused. Edge batches hold the
	// in-bounds lanes in it; compare-and-swap batches consume it as the
	// retry mask, so they need it even without edges.
	Mask int

	// SumIdx is the first accumulator register holding this element's
	// sub-vector values in compute precision. Under half-precision
	// storage without high-precision accumulation two values share a
	// register (value vi lives in the vi%2 half of SumIdx+vi/2).
	SumIdx int
}

// BatchPlan is the element register plan of one batch.
type BatchPlan struct {
	// GWVW is the global-write vector width: sub-vector values per
	// element.
	GWVW int

	// FirstBatch marks the first batch of the kernel; one-time work (the
	// bias staging barrier) keys off it together with the shared latch.
	FirstBatch bool

	Elements []ElementPlan
}

// ActivationPCState carries the registers of the out-of-line activation
// calling convention: the function-pointer scalar pair, a pair to hold the
// return address, and the first of the contiguous value registers the
// called code expects its input in.
type ActivationPCState struct {
	FuncPtr  isa.Reg
	ReturnPC isa.Reg
	CopyBase isa.Reg
}

// IsZero reports whether the state is unset.
func (a ActivationPCState) IsZero() bool { return a == ActivationPCState{} }

// CvtScratch carries registers pre-loaded with the pack-stage constants.
// They live for the whole kernel, not per batch, so the caller owns them.
type CvtScratch struct {
	// Bf16Temp is scratch for the bfloat16 round sequence; Bf16Mask holds
	// 0xffff0000, F32Nan holds 0x7fff0000 and Bf16Inc holds 0x7fff.
	Bf16Temp, Bf16Mask, F32Nan, Bf16Inc isa.Reg

	// Fp8NanInf holds the NaN/Inf class mask 0x207; Fp8Max and Fp8Min
	// hold the clamp bounds of the 8-bit destination: the largest finite
	// values as floats (0x43700000/0xc3700000 for float8,
	// 0x47600000/0xc7600000 for bfloat8), or 127/-128 for int8.
	Fp8NanInf, Fp8Max, Fp8Min isa.Reg
}

// BatchArgs carries the per-batch inputs: mode flags, the scalar and
// descriptor registers assigned by the kernel writer, and the pre-generated
// instruction templates scheduled into this batch.
type BatchArgs struct {
	// BatchIdx numbers the batch within the kernel, for labels and
	// comments.
	BatchIdx int

	// ApplyAlpha scales raw accumulator values by alpha; off when the
	// scale is deferred (workspace accumulation) or folded elsewhere.
	ApplyAlpha bool
	// Beta blends previous output content: D = alpha*acc + beta*C.
	Beta bool
	// Edge: the batch contains rows/columns that may exceed the tensor
	// bounds, handled with per-element lane masks.
	Edge bool
	// Atomic: racing workgroups accumulate into the same output elements.
	Atomic bool
	// AtomicWidth is the number of sub-vector values one atomic op
	// covers.
	AtomicWidth int

	// Alpha and BetaReg hold the scalar factors (register pairs for
	// 64-bit and complex types).
	Alpha   isa.Reg
	BetaReg isa.Reg
	// ScaleD holds the scalar output scale when UseScaleD is set.
	ScaleD isa.Reg

	// Per-tensor base registers: buffer descriptor quads under buffer
	// addressing, 64-bit base address pairs otherwise.
	AddrD, AddrC, AddrE, AddrBias, AddrScaleAlpha isa.Reg

	Cvt   CvtScratch
	ActPC ActivationPCState

	// AccVGPRRead holds pre-generated accumulator-to-vector move
	// templates with an "AccDst" holder, one instruction per (element,
	// sub-vector value), consumed in order. Nil when accumulators live in
	// plain vector registers.
	AccVGPRRead *isa.Module
	// MulAlpha holds pre-generated alpha-multiply templates scheduled to
	// run before the C loads, same consumption order. Its presence moves
	// the alpha stage ahead of the loads.
	MulAlpha *isa.Module

	// BiasLDSBarrierDone is the kernel-wide latch ensuring the barrier
	// that publishes staged bias data runs exactly once.
	BiasLDSBarrierDone *bool
}

// StoreRemapper stages store data through the local data share to restore
// row contiguity; the kernel writer flushes the staging tile after the
// batch. It is consulted only when Config.StoreRemapVectorWidth > 0.
type StoreRemapper interface {
	// LocalWrite stages one element's packed store data. rowOffset is the
	// accumulated row increment since the batch started.
	LocalWrite(elem *ElementPlan, data isa.Reg, rowOffset int) *isa.Module
}

// Activation emits activation math on value registers; bodies live with the
// collaborator, the batch only places them. Emit must leave every register
// other than value and tmp untouched.
type Activation interface {
	Emit(kind kernel.ActivationKind, dt dtypes.DType, gradient bool, value, tmp isa.Reg) *isa.Module
}

// Deps are the shared mutable collaborators of one batch emission. The
// batch checks scratch out of the pools and returns every register it took
// before Emit returns, including on failure paths.
type Deps struct {
	VGPR   *regalloc.Pool
	SGPR   *regalloc.Pool
	Board  *Scoreboard
	Labels *isa.LabelManager

	Activation Activation
	Remap      StoreRemapper
}
