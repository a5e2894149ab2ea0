package isa

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestModuleNestingAndFlatten(t *testing.T) {
	root := NewModule("root")
	root.AddComment("header")
	a := VMovB32(VGPR(1), ImmInt(0))
	root.Add(a)

	child := NewModule("child")
	child.Add(NewLabel("retry"))
	b := VAddF32(VGPR(2), VGPR(1), ImmF32(1))
	child.Add(b)
	root.Add(child)

	c := SBranch("retry")
	root.Add(c)

	require.Equal(t, []*Inst{a, b, c}, root.Instructions(),
		"instructions flatten in emission order, comments and labels drop out")

	flat := root.Flatten()
	require.Len(t, flat, 5)
	assert.IsType(t, Comment(""), flat[0])
	assert.Same(t, a, flat[1])
	assert.IsType(t, &Label{}, flat[2])
	assert.Same(t, b, flat[3])
	assert.Same(t, c, flat[4])

	assert.False(t, root.IsEmpty())
	assert.True(t, NewModule("bare").IsEmpty())

	onlyNested := NewModule("outer")
	onlyNested.Add(NewModule("inner"))
	assert.True(t, onlyNested.IsEmpty(), "empty nested modules do not count as content")
}

func TestModuleAsm(t *testing.T) {
	m := NewModule("asm")
	m.AddComment("prepare")
	m.Add(
		VMovB32(VGPR(4), ImmF32(1)).Commentf("identity scale"),
		NewLabel("retry"),
		SWaitcnt(0, 0),
		SWaitcnt(3, -1),
		BufferLoad(OpcodeBufferLoadB32, VGPR(1), VGPR(0), SGPRn(8, 4), ImmInt(0),
			MUBUF{Offen: true, Offset: 16, GLC: true}),
		DsStore(OpcodeDsStoreB32, VGPR(2), VGPR(3), 64),
		SCbranchVccnz("retry"),
	)

	lines := strings.Split(m.Asm(), "\n")
	require.Len(t, lines, 8)
	assert.Equal(t, "// prepare", lines[0])
	assert.Equal(t, "v_mov_b32 v4, 1.0 // identity scale", lines[1])
	assert.Equal(t, "label_retry:", lines[2])
	assert.Equal(t, "s_waitcnt vmcnt(0) lgkmcnt(0)", lines[3])
	assert.Equal(t, "s_waitcnt vmcnt(3)", lines[4])
	assert.Equal(t, "buffer_load_b32 v1, v0, s[8:11], 0 offen offset:16 glc", lines[5])
	assert.Equal(t, "ds_store_b32 v2, v3 offset:64", lines[6])
	assert.Equal(t, "s_cbranch_vccnz label_retry", lines[7])

	assert.Equal(t, "s_waitcnt_vscnt null, 2", SWaitcntVscnt(2).Asm())
	assert.Equal(t, "s_waitcnt 0", (&Inst{Op: OpcodeSWaitcnt, Wait: &WaitCnt{VMCnt: -1, LGKMCnt: -1, VSCnt: -1}}).Asm())
}

func TestReplaceHolderPatchesTemplates(t *testing.T) {
	tpl := NewModule("read template")
	inner := NewModule("inner")
	inner.Add(VAccvgprReadB32(Holder("AccDst"), AccVGPR(12)))
	tpl.Add(inner)
	tpl.Add(VMulF32(Holder("Value"), SGPR(3), Holder("Value")))

	got := tpl.ReplaceHolder("AccDst", VGPR(9)).ReplaceHolder("Value", VGPR(10))
	insts := got.Instructions()
	require.Len(t, insts, 2)
	assert.Equal(t, Operand(VGPR(9)), insts[0].Dst)
	assert.Equal(t, Operand(VGPR(10)), insts[1].Dst)
	assert.Equal(t, Operand(SGPR(3)), insts[1].Srcs[0])
	assert.Equal(t, Operand(VGPR(10)), insts[1].Srcs[1])

	// The template stays symbolic and can be instantiated again.
	orig := tpl.Instructions()
	assert.Equal(t, Operand(Holder("AccDst")), orig[0].Dst)
	assert.Equal(t, Operand(Holder("Value")), orig[1].Dst)
}

func TestLabelManagerUniqueNames(t *testing.T) {
	lm := NewLabelManager()
	assert.Equal(t, "retry", lm.Get("retry"))
	assert.Equal(t, "retry_1", lm.Get("retry"))
	assert.Equal(t, "retry_2", lm.Get("retry"))

	// Sanitized forms share the counter with their literal spelling.
	assert.Equal(t, "check_value_c", lm.Get("check value-c"))
	assert.Equal(t, "check_value_c_1", lm.Get("check_value_c"))
}

func TestRegSubAndZero(t *testing.T) {
	r := VGPRn(10, 4)
	assert.Equal(t, VGPRn(11, 2), r.Sub(1, 2))
	assert.Equal(t, VGPR(13), r.Sub(3, 1))
	assert.Panics(t, func() { r.Sub(3, 2) })
	assert.Panics(t, func() { r.Sub(-1, 1) })

	assert.True(t, Reg{}.IsZero())
	assert.False(t, VGPR(0).IsZero(), "v0 is a real register, not the zero value")
}

func TestOperandAsm(t *testing.T) {
	assert.Equal(t, "v5", VGPR(5).OperandAsm())
	assert.Equal(t, "s[8:11]", SGPRn(8, 4).OperandAsm())
	assert.Equal(t, "acc12", AccVGPR(12).OperandAsm())
	assert.Equal(t, "exec", Exec.OperandAsm())
	assert.Equal(t, "vcc", VCC.OperandAsm())
	assert.Equal(t, "-3", ImmInt(-3).OperandAsm())
	assert.Equal(t, "0xdeadbeef", HexImm(0xdeadbeef).OperandAsm())
	assert.Equal(t, "1.0", ImmF32(1).OperandAsm())
	assert.Equal(t, "0.5", ImmF32(0.5).OperandAsm())
	assert.Equal(t, "label_done", LabelRef("done").OperandAsm())
	assert.Equal(t, "__AccDst__", Holder("AccDst").OperandAsm())
}

func TestStatsCounts(t *testing.T) {
	m := NewModule("stats")
	m.Add(
		NewLabel("top"),
		VMovB32(VGPR(1), ImmInt(0)),
		VAddF32(VGPR(2), VGPR(1), VGPR(1)),
		SMovB32(SGPR(5), ImmInt(1)),
		BufferLoad(OpcodeBufferLoadB32, VGPR(3), VGPR(0), SGPRn(8, 4), ImmInt(0), MUBUF{Offen: true}),
		FlatStore(OpcodeFlatStoreB32, VGPRn(10, 2), VGPR(2), false),
		BufferAtomic(OpcodeBufferAtomicAddF32, VGPR(2), VGPR(0), SGPRn(8, 4), ImmInt(0), MUBUF{Offen: true}),
		DsStore(OpcodeDsStoreB32, VGPR(4), VGPR(2), 0),
		DsLoad(OpcodeDsLoadB32, VGPR(5), VGPR(4), 0),
		SWaitcnt(0, 0),
		SWaitcntVscnt(0),
		SCbranchExecnz("top"),
	)

	s := m.Stats()
	assert.Equal(t, 11, s.Insts)
	assert.Equal(t, 2, s.VALU)
	assert.Equal(t, 1, s.SALU)
	assert.Equal(t, 1, s.VMemLoads)
	assert.Equal(t, 1, s.VMemStores)
	assert.Equal(t, 1, s.Atomics)
	assert.Equal(t, 2, s.LDSOps)
	assert.Equal(t, 2, s.Waits)
	assert.Equal(t, 1, s.Branches)
	assert.Equal(t, 1, s.Labels)

	assert.Contains(t, s.String(), "11 insts")
}

func TestOpcodeClasses(t *testing.T) {
	assert.True(t, OpcodeVMovB32.IsVALU())
	assert.True(t, OpcodeVPackB32F16.IsVALU())
	assert.False(t, OpcodeBufferLoadU16.IsVALU())

	assert.True(t, OpcodeSMovB32.IsSALU())
	assert.True(t, OpcodeSCbranchVccnz.IsSALU())
	assert.False(t, OpcodeVMovB32.IsSALU())

	assert.True(t, OpcodeBufferLoadB128.IsVMemLoad())
	assert.True(t, OpcodeFlatLoadU16.IsVMemLoad())
	assert.False(t, OpcodeBufferAtomicAddF32.IsVMemLoad(), "atomics have their own class")

	assert.True(t, OpcodeBufferStoreB16.IsVMemStore())
	assert.True(t, OpcodeFlatStoreB128.IsVMemStore())
	assert.True(t, OpcodeFlatAtomicCmpswapB64.IsAtomic())
	assert.True(t, OpcodeDsLoadU16.IsLDSLoad())
	assert.True(t, OpcodeDsStoreB128.IsLDSStore())
	assert.True(t, OpcodeSCbranchExecz.IsBranch())
	assert.False(t, OpcodeSBarrier.IsBranch())
}
