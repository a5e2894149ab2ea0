package main

import (
	"github.com/gcnforge/gcnforge/epilogue"
	"github.com/gcnforge/gcnforge/internal/xslices"
	"github.com/gcnforge/gcnforge/isa"
	"github.com/gcnforge/gcnforge/kernel"
	"github.com/gcnforge/gcnforge/regalloc"
	"github.com/gomlx/gopjrt/dtypes"
	"github.com/janpfeifer/must"
)

// Every scenario emits one batch over the same fixed register layout,
// mirroring what a kernel writer would hand the batch. The scratch pools
// cover the low 32 registers of each file; everything below is above them.
// Addresses derive from a lane-id register the kernel prologue is assumed
// to have seeded.
const (
	maxElements = 4
	maxGWVW     = 4

	laneStride = 64 // tensor bytes per lane
	elemStride = 16 // bytes per element within a lane slot

	vSum  = 32  // accumulators, 4 per element
	vData = 48  // C staging and compare-and-swap scratch, 8 per element
	vAux  = 80  // bias or scale-vector staging, 4 per element
	vAddr = 96  // element addresses, 2 per element
	vLane = 104 // lane id

	sSrdD     = 32 // buffer descriptor quads
	sSrdC     = 36
	sSrdBias  = 40
	sSrdScale = 44
	sAlpha    = 48
	sBeta     = 49
	sScaleD   = 50
	sMask     = 52 // lane masks, LaneSGPRCount per element
)

// flatBase is where the flat-addressing scenario pretends the tensors live;
// each tensor gets its own 4GiB window.
const flatBase = uint64(1) << 32

type scenario struct {
	about string
	build func(cfg *kernel.Config, plan *epilogue.BatchPlan, args *epilogue.BatchArgs)
}

var scenarios = map[string]scenario{
	"plain": {"alpha-scaled stores, no fused features",
		func(cfg *kernel.Config, plan *epilogue.BatchPlan, args *epilogue.BatchArgs) {
			args.ApplyAlpha = true
		}},
	"beta": {"previous output blended in: D = alpha*acc + beta*C",
		func(cfg *kernel.Config, plan *epilogue.BatchPlan, args *epilogue.BatchArgs) {
			args.ApplyAlpha = true
			args.Beta = true
			withStaging(plan)
		}},
	"edge": {"partial tile: per-element lane masks clamp the stores",
		func(cfg *kernel.Config, plan *epilogue.BatchPlan, args *epilogue.BatchArgs) {
			args.ApplyAlpha = true
			args.Edge = true
			for i := range plan.Elements {
				elem := &plan.Elements[i]
				elem.Mask = sMask + i*cfg.LaneSGPRCount()
				elem.Addr.(*demoAddr).edge = cfg.WavefrontSize / 2
			}
		}},
	"flat": {"64-bit flat addressing instead of buffer descriptors",
		func(cfg *kernel.Config, plan *epilogue.BatchPlan, args *epilogue.BatchArgs) {
			cfg.BufferStore = false
			args.ApplyAlpha = true
		}},
	"bias_relu": {"fused bias add and a clamped activation",
		func(cfg *kernel.Config, plan *epilogue.BatchPlan, args *epilogue.BatchArgs) {
			cfg.Bias = kernel.BiasRead
			cfg.Activation = kernel.ActivationRelu
			for i := range plan.Elements {
				plan.Elements[i].DataBias = vAux + 4*i
			}
		}},
	"scaled": {"per-column alpha vector and a scalar output scale",
		func(cfg *kernel.Config, plan *epilogue.BatchPlan, args *epilogue.BatchArgs) {
			cfg.UseScaleAlphaVec = true
			cfg.UseScaleD = true
			for i := range plan.Elements {
				plan.Elements[i].DataScaleAlpha = vAux + 4*i
			}
		}},
	"f16": {"half-precision storage, packed from float32 accumulators",
		func(cfg *kernel.Config, plan *epilogue.BatchPlan, args *epilogue.BatchArgs) {
			cfg.DataType = dtypes.Float16
			cfg.DestType = dtypes.Float16
			cfg.HighPrecisionAccumulate = true
			args.ApplyAlpha = true
			withStaging(plan)
		}},
	"atomic_add": {"split-K accumulation through hardware float atomic adds",
		func(cfg *kernel.Config, plan *epilogue.BatchPlan, args *epilogue.BatchArgs) {
			cfg.GlobalSplitU = 4
			cfg.Accum = kernel.AccumSingleBuffer
			cfg.Caps.HasAtomicAddF32 = true
			args.Atomic = true
			args.AtomicWidth = 1
		}},
	"atomic_cas": {"split-K accumulation through compare-and-swap retry loops",
		func(cfg *kernel.Config, plan *epilogue.BatchPlan, args *epilogue.BatchArgs) {
			cfg.GlobalSplitU = 4
			cfg.Accum = kernel.AccumSingleBuffer
			args.Atomic = true
			// The swap covers the element's whole sub-vector and is at
			// most 64 bits wide.
			plan.GWVW = min(plan.GWVW, 2)
			args.AtomicWidth = plan.GWVW
			withStaging(plan)
			for i := range plan.Elements {
				plan.Elements[i].Mask = sMask + i*cfg.LaneSGPRCount()
			}
		}},
}

func baseConfig() *kernel.Config {
	return &kernel.Config{
		DataType:              dtypes.Float32,
		DestType:              dtypes.Float32,
		ComputeType:           dtypes.Float32,
		ActivationComputeType: dtypes.Float32,
		GlobalSplitU:          1,
		BufferStore:           true,
		GroupLoadStore:        true,
		WavefrontSize:         *flagWavefront,
	}
}

func basePlan(cfg *kernel.Config) *epilogue.BatchPlan {
	return &epilogue.BatchPlan{
		GWVW:       *flagGWVW,
		FirstBatch: true,
		Elements: xslices.Map(xslices.Iota(0, *flagElements), func(i int) epilogue.ElementPlan {
			return epilogue.ElementPlan{
				Element:        epilogue.BatchElement{D0: i},
				Addr:           &demoAddr{cfg: cfg, elem: i},
				Data:           -1,
				DataE:          -1,
				DataBias:       -1,
				DataScaleAlpha: -1,
				Mask:           -1,
				SumIdx:         vSum + 4*i,
			}
		}),
	}
}

func withStaging(plan *epilogue.BatchPlan) {
	for i := range plan.Elements {
		plan.Elements[i].Data = vData + 8*i
	}
}

func demoArgs() epilogue.BatchArgs {
	return epilogue.BatchArgs{
		Alpha:          isa.SGPR(sAlpha),
		BetaReg:        isa.SGPR(sBeta),
		ScaleD:         isa.SGPR(sScaleD),
		AddrD:          isa.SGPRn(sSrdD, 4),
		AddrC:          isa.SGPRn(sSrdC, 4),
		AddrBias:       isa.SGPRn(sSrdBias, 4),
		AddrScaleAlpha: isa.SGPRn(sSrdScale, 4),
	}
}

func emitScenario(sc scenario) *isa.Module {
	cfg := baseConfig()
	plan := basePlan(cfg)
	args := demoArgs()
	sc.build(cfg, plan, &args)
	deps := epilogue.Deps{
		VGPR:       regalloc.NewPool("vgpr", 32),
		SGPR:       regalloc.NewPool("sgpr", 32),
		Board:      epilogue.NewScoreboard(cfg.Caps.SeparateVscnt),
		Labels:     isa.NewLabelManager(),
		Activation: demoAct{},
	}
	return must.M1(epilogue.Emit(cfg, plan, args, deps))
}

// demoAddr derives element addresses from the lane-id register: byte offset
// lane*laneStride + elem*elemStride into every tensor. Buffer mode keeps the
// offset in a single register, flat mode materializes a 64-bit absolute
// address and rebases its high word per tensor.
type demoAddr struct {
	cfg  *kernel.Config
	elem int
	edge int // lanes at or past this index are out of bounds; 0 disables
}

func (a *demoAddr) reg() isa.Reg { return isa.VGPR(vAddr + 2*a.elem) }

func (a *demoAddr) maskReg() isa.Reg {
	return isa.SGPRn(sMask+a.elem*a.cfg.LaneSGPRCount(), a.cfg.LaneSGPRCount())
}

func (a *demoAddr) AddrReg(t epilogue.Tensor) isa.Reg {
	if !a.cfg.BufferStore {
		return isa.VGPRn(vAddr+2*a.elem, 2)
	}
	return a.reg()
}

func (a *demoAddr) GlobalOffset(t epilogue.Tensor) int { return 0 }

func (a *demoAddr) RowInc() int { return 0 }

func (a *demoAddr) AddressSetup() *isa.Module {
	m := isa.NewModule("element address")
	lo := a.reg()
	m.Add(isa.VMulLoU32(lo, isa.ImmInt(laneStride), isa.VGPR(vLane)).Commentf("lane slot"))
	if a.cfg.BufferStore {
		m.Add(isa.VAddU32(lo, isa.ImmInt(a.elem*elemStride), lo))
		return m
	}
	hi := isa.VGPR(vAddr + 2*a.elem + 1)
	m.Add(isa.VAddCoU32(lo, isa.VCC, isa.ImmInt(a.elem*elemStride), lo))
	m.Add(isa.VMovB32(hi, isa.ImmInt(int(flatBase>>32))))
	m.Add(isa.VAddcCoU32(hi, isa.VCC, isa.ImmInt(0), hi, isa.VCC))
	return m
}

func (a *demoAddr) EdgeProtect() *isa.Module {
	m := isa.NewModule("edge mask")
	if a.edge > 0 {
		m.Add(isa.VCmpGtU32(a.maskReg(), isa.ImmInt(a.edge), isa.VGPR(vLane)).Commentf("in-bounds lanes"))
	}
	return m
}

func (a *demoAddr) LdChange(t epilogue.Tensor, oob isa.Reg) *isa.Module {
	m := isa.NewModule("address change")
	if !a.cfg.BufferStore {
		hi := int(flatBase>>32) + int(t)
		m.Add(isa.VMovB32(isa.VGPR(vAddr+2*a.elem+1), isa.ImmInt(hi)).Commentf("rebase onto %v", t))
		return m
	}
	if a.edge > 0 && !oob.IsZero() {
		m.Add(isa.VCndmaskB32(a.reg(), oob, a.reg(), a.maskReg()).Commentf("out-of-range lanes hit the sentinel"))
	}
	return m
}

func (a *demoAddr) IncrementToNextRow(t epilogue.Tensor) *isa.Module {
	m := isa.NewModule("next row")
	m.Add(isa.VAddU32(a.reg(), isa.ImmInt(64*laneStride), a.reg()))
	return m
}

// demoAct clamps negatives to zero; in gradient mode it turns the stored
// input into a 0/1 step.
type demoAct struct{}

func (demoAct) Emit(kind kernel.ActivationKind, dt dtypes.DType, gradient bool, value, tmp isa.Reg) *isa.Module {
	m := isa.NewModule("activation")
	if gradient {
		m.Add(isa.VCmpClassF32(isa.VCC, value, isa.HexImm(0x380)).Commentf("positive classes"))
		m.Add(isa.VCndmaskB32(value, isa.ImmF32(0), isa.ImmF32(1), isa.VCC))
		return m
	}
	m.Add(isa.VMed3F32(value, value, isa.ImmF32(0), isa.HexImm(0x7f7fffff)).Commentf("clamp negatives"))
	return m
}
