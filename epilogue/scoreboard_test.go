package epilogue

import (
	"testing"

	"github.com/gcnforge/gcnforge/isa"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// waits collects the wait instructions of a module in order.
func waits(m *isa.Module) []*isa.Inst {
	var out []*isa.Inst
	for _, inst := range m.Instructions() {
		if inst.Op == isa.OpcodeSWaitcnt || inst.Op == isa.OpcodeSWaitcntVscnt {
			out = append(out, inst)
		}
	}
	return out
}

func TestScoreboardElidesRepeatedWaits(t *testing.T) {
	sb := NewScoreboard(false)
	m := isa.NewModule("waits")
	sb.IssueVM(2)
	assert.True(t, sb.WaitVM(m, 0, "first"))
	assert.False(t, sb.WaitVM(m, 0, "repeat"), "unchanged bound is dead code")
	sb.IssueVM(1)
	assert.True(t, sb.WaitVM(m, 0, "after new issue"))
	assert.Len(t, waits(m), 2)
	assert.Zero(t, sb.PendingVM())
}

func TestScoreboardFoldsStoresIntoLoadWaits(t *testing.T) {
	sb := NewScoreboard(false)
	m := isa.NewModule("waits")
	sb.IssueStore(2)
	sb.IssueVM(1)
	require.True(t, sb.WaitVM(m, 0, "loads"))
	w := waits(m)
	require.Len(t, w, 1)
	// The shared counter still holds the two stores, so "no loads left"
	// is a bound of two.
	assert.Equal(t, 2, w[0].Wait.VMCnt)
	assert.Equal(t, -1, w[0].Wait.LGKMCnt)
	assert.Zero(t, sb.PendingVM())
	assert.Equal(t, 2, sb.PendingStores())
}

func TestScoreboardSeparateStoreCounter(t *testing.T) {
	sb := NewScoreboard(true)
	m := isa.NewModule("waits")
	sb.IssueStore(2)
	sb.IssueVM(1)
	require.True(t, sb.WaitVM(m, 0, "loads"))
	w := waits(m)
	require.Len(t, w, 1)
	assert.Equal(t, 0, w[0].Wait.VMCnt, "stores do not shift the load bound")

	sb.WaitStores(m, 1, "stores")
	w = waits(m)
	require.Len(t, w, 2)
	assert.Equal(t, isa.OpcodeSWaitcntVscnt, w[1].Op)
	assert.Equal(t, 1, w[1].Wait.VSCnt)
	assert.Equal(t, 1, sb.PendingStores())
}

func TestScoreboardWaitStoresSharedCounter(t *testing.T) {
	sb := NewScoreboard(false)
	m := isa.NewModule("waits")
	sb.IssueVM(1)
	sb.IssueStore(3)
	sb.WaitStores(m, 0, "drain stores")
	w := waits(m)
	require.Len(t, w, 1)
	assert.Equal(t, isa.OpcodeSWaitcnt, w[0].Op)
	assert.Equal(t, 0, w[0].Wait.VMCnt, "the shared counter drains loads too")
	assert.Zero(t, sb.PendingVM())
	assert.Zero(t, sb.PendingStores())
	assert.False(t, sb.WaitVM(m, 0, "already drained"))
}

func TestScoreboardIssueStoreInvalidatesLoadElision(t *testing.T) {
	sb := NewScoreboard(false)
	m := isa.NewModule("waits")
	sb.IssueVM(1)
	require.True(t, sb.WaitVM(m, 0, "loads"))
	sb.IssueStore(1)
	// The store moved the shared counter, so the same load bound must be
	// re-emitted, and it now leaves room for the store.
	require.True(t, sb.WaitVM(m, 0, "loads again"))
	w := waits(m)
	require.Len(t, w, 2)
	assert.Equal(t, 0, w[0].Wait.VMCnt)
	assert.Equal(t, 1, w[1].Wait.VMCnt)
}

func TestScoreboardCombinedWait(t *testing.T) {
	sb := NewScoreboard(false)
	m := isa.NewModule("waits")
	sb.IssueVM(2)
	sb.IssueLGKM(1)
	require.True(t, sb.WaitCombined(m, 1, 0, "both pipes"))
	w := waits(m)
	require.Len(t, w, 1)
	assert.Equal(t, 1, w[0].Wait.VMCnt)
	assert.Equal(t, 0, w[0].Wait.LGKMCnt)
	assert.Equal(t, 1, sb.PendingVM())
	assert.Zero(t, sb.PendingLGKM())

	// Only the load bound tightens; the local bound adds nothing and the
	// wait reduces to the load counter.
	require.True(t, sb.WaitCombined(m, 0, 0, "loads done"))
	w = waits(m)
	require.Len(t, w, 2)
	assert.Equal(t, 0, w[1].Wait.VMCnt)
	assert.Equal(t, -1, w[1].Wait.LGKMCnt)
}

func TestScoreboardRejectsOverWait(t *testing.T) {
	sb := NewScoreboard(false)
	m := isa.NewModule("waits")
	sb.IssueVM(1)
	assert.Panics(t, func() { sb.WaitVM(m, 2, "more than issued") })
	assert.Panics(t, func() { sb.WaitLGKM(m, 1, "nothing local issued") })
	sb.IssueStore(1)
	assert.Panics(t, func() { sb.WaitStores(m, 2, "more stores than issued") })
}

func TestScoreboardWaitAll(t *testing.T) {
	for _, separate := range []bool{false, true} {
		name := "shared counter"
		if separate {
			name = "separate store counter"
		}
		t.Run(name, func(t *testing.T) {
			sb := NewScoreboard(separate)
			m := isa.NewModule("waits")
			sb.IssueVM(2)
			sb.IssueLGKM(1)
			sb.IssueStore(3)
			sb.WaitAll(m, "drain")
			assert.Zero(t, sb.PendingVM())
			assert.Zero(t, sb.PendingLGKM())
			assert.Zero(t, sb.PendingStores())
			w := waits(m)
			if separate {
				require.Len(t, w, 2)
				assert.Equal(t, isa.OpcodeSWaitcntVscnt, w[1].Op)
				assert.Equal(t, 0, w[1].Wait.VSCnt)
			} else {
				require.Len(t, w, 1)
			}
			assert.Equal(t, 0, w[0].Wait.VMCnt)
			assert.Equal(t, 0, w[0].Wait.LGKMCnt)
			assert.False(t, sb.WaitVM(m, 0, "already drained"))
			assert.False(t, sb.WaitLGKM(m, 0, "already drained"))
		})
	}
}
