package kernel

// BiasKind selects how the batch interacts with the bias tensor.
type BiasKind int

//go:generate go tool enumer -type=BiasKind -trimprefix=Bias -output=gen_biaskind_enumer.go enums.go

const (
	// BiasNone disables bias handling.
	BiasNone BiasKind = iota
	// BiasRead adds a per-column bias value to every output element.
	BiasRead
	// BiasWriteReduced stores the reduced bias gradient alongside the
	// output (gradient kernels).
	BiasWriteReduced
)

// AccumMode selects where partial sums across the split-K dimension are
// combined.
type AccumMode int

//go:generate go tool enumer -type=AccumMode -trimprefix=Accum -output=gen_accummode_enumer.go enums.go

const (
	// AccumNone: no split accumulation, the batch owns its output elements
	// (subject to the atomic flag when several workgroups still collide).
	AccumNone AccumMode = iota
	// AccumSingleBuffer: splits accumulate into the output buffer itself,
	// via atomic adds or compare-and-swap loops.
	AccumSingleBuffer
	// AccumMultipleBuffer: every split writes its own workspace buffer and
	// a later kernel reduces them; the batch then stores raw
	// compute-precision values and skips alpha, beta and packing.
	AccumMultipleBuffer
)

// ActivationKind names the activation applied to output values. Bodies are
// supplied by the activation collaborator; the generator only needs the
// kind to gate loads and choose a calling convention.
type ActivationKind int

//go:generate go tool enumer -type=ActivationKind -trimprefix=Activation -output=gen_activationkind_enumer.go enums.go

const (
	ActivationNone ActivationKind = iota
	ActivationAbs
	ActivationClippedRelu
	ActivationExp
	ActivationGelu
	ActivationGeluScaling
	ActivationLeakyRelu
	ActivationRelu
	ActivationSigmoid
	ActivationSilu
	ActivationTanh
	ActivationDGelu
)
