package epilogue

import (
	"fmt"

	"github.com/gcnforge/gcnforge/isa"
	"github.com/gomlx/exceptions"
)

// Scoreboard tracks how many asynchronous memory operations are in flight
// and emits the minimal wait instructions the upcoming code needs. One
// scoreboard is shared by every batch of a kernel, since the hardware
// counters persist across batches.
//
// Counters never go negative and a wait can never demand more completions
// than are outstanding; violations panic, as they mean the generator lost
// track of its own loads.
type Scoreboard struct {
	separateVscnt bool

	vm   int // vector-memory loads (and value-returning atomics) in flight
	lgkm int // local-data-share operations in flight
	vs   int // stores in flight

	// Last emitted wait targets, for elision. Re-waiting on an unchanged
	// counter bound is dead code, so identical consecutive targets are
	// skipped until a new issue invalidates them.
	lastVM   int
	lastLGKM int
}

const noWait = -2

// NewScoreboard creates an empty scoreboard. separateVscnt mirrors the
// architecture capability: when false, stores retire through the vmcnt
// counter and every load wait must account for them.
func NewScoreboard(separateVscnt bool) *Scoreboard {
	return &Scoreboard{separateVscnt: separateVscnt, lastVM: noWait, lastLGKM: noWait}
}

// IssueVM records n issued vector-memory loads.
func (sb *Scoreboard) IssueVM(n int) {
	sb.vm += n
	sb.lastVM = noWait
}

// IssueLGKM records n issued local-data-share operations.
func (sb *Scoreboard) IssueLGKM(n int) {
	sb.lgkm += n
	sb.lastLGKM = noWait
}

// IssueStore records n issued global stores.
func (sb *Scoreboard) IssueStore(n int) {
	sb.vs += n
	if !sb.separateVscnt {
		sb.lastVM = noWait
	}
}

// PendingVM returns the number of vector-memory loads in flight.
func (sb *Scoreboard) PendingVM() int { return sb.vm }

// PendingLGKM returns the number of local-data-share operations in flight.
func (sb *Scoreboard) PendingLGKM() int { return sb.lgkm }

// PendingStores returns the number of stores in flight.
func (sb *Scoreboard) PendingStores() int { return sb.vs }

// WaitVM emits a wait until at most remaining vector-memory loads are in
// flight. Reports whether an instruction was emitted (false when elided).
func (sb *Scoreboard) WaitVM(m *isa.Module, remaining int, reason string) bool {
	return sb.WaitCombined(m, remaining, -1, reason)
}

// WaitLGKM emits a wait until at most remaining local operations are in
// flight.
func (sb *Scoreboard) WaitLGKM(m *isa.Module, remaining int, reason string) bool {
	return sb.WaitCombined(m, -1, remaining, reason)
}

// WaitCombined emits a single wait constraining both counters; -1 leaves a
// counter unconstrained. Elided when neither bound adds anything new.
func (sb *Scoreboard) WaitCombined(m *isa.Module, vmRemaining, lgkmRemaining int, reason string) bool {
	vmTarget := -1
	if vmRemaining >= 0 {
		if vmRemaining > sb.vm {
			exceptions.Panicf("scoreboard: wait for %d vector loads, only %d outstanding (%s)",
				vmRemaining, sb.vm, reason)
		}
		vmTarget = vmRemaining
		if !sb.separateVscnt {
			// Stores share the counter; an exact load bound must
			// leave room for them.
			vmTarget += sb.vs
		}
		if vmTarget == sb.lastVM {
			vmTarget = -1
		}
	}
	lgkmTarget := -1
	if lgkmRemaining >= 0 {
		if lgkmRemaining > sb.lgkm {
			exceptions.Panicf("scoreboard: wait for %d local ops, only %d outstanding (%s)",
				lgkmRemaining, sb.lgkm, reason)
		}
		lgkmTarget = lgkmRemaining
		if lgkmTarget == sb.lastLGKM {
			lgkmTarget = -1
		}
	}
	if vmTarget < 0 && lgkmTarget < 0 {
		return false
	}
	m.Add(isa.SWaitcnt(vmTarget, lgkmTarget).Commentf("%s", reason))
	if vmTarget >= 0 {
		sb.vm = vmRemaining
		sb.lastVM = vmTarget
	}
	if lgkmTarget >= 0 {
		sb.lgkm = lgkmRemaining
		sb.lastLGKM = lgkmTarget
	}
	return true
}

// WaitStores emits a wait until at most remaining stores are in flight. On
// targets without a separate store counter this drains loads too, as the
// shared counter cannot tell them apart.
func (sb *Scoreboard) WaitStores(m *isa.Module, remaining int, reason string) {
	if remaining > sb.vs {
		exceptions.Panicf("scoreboard: wait for %d stores, only %d outstanding (%s)", remaining, sb.vs, reason)
	}
	if sb.separateVscnt {
		m.Add(isa.SWaitcntVscnt(remaining).Commentf("%s", reason))
		sb.vs = remaining
		return
	}
	m.Add(isa.SWaitcnt(remaining, -1).Commentf("%s", reason))
	sb.vm = 0
	sb.vs = remaining
	sb.lastVM = remaining
}

// WaitAll drains every counter unconditionally.
func (sb *Scoreboard) WaitAll(m *isa.Module, reason string) {
	m.Add(isa.SWaitcnt(0, 0).Commentf("%s", reason))
	sb.vm, sb.lgkm, sb.lastVM, sb.lastLGKM = 0, 0, 0, 0
	if sb.separateVscnt {
		m.Add(isa.SWaitcntVscnt(0).Commentf("%s", reason))
	}
	sb.vs = 0
}

// String summarizes the in-flight counts.
func (sb *Scoreboard) String() string {
	return fmt.Sprintf("scoreboard: vm=%d lgkm=%d stores=%d", sb.vm, sb.lgkm, sb.vs)
}
