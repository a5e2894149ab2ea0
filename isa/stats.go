package isa

import (
	"fmt"

	"github.com/dustin/go-humanize"
)

// Stats summarizes a module's contents for logging.
type Stats struct {
	Insts      int
	VALU       int
	SALU       int
	VMemLoads  int
	VMemStores int
	Atomics    int
	LDSOps     int
	Branches   int
	Waits      int
	Labels     int
}

// Stats walks the module and counts instructions by class.
func (m *Module) Stats() Stats {
	var s Stats
	m.Walk(func(item Item) {
		switch v := item.(type) {
		case *Label:
			s.Labels++
		case *Inst:
			s.Insts++
			op := v.Op
			switch {
			case op == OpcodeSWaitcnt || op == OpcodeSWaitcntVscnt:
				s.Waits++
			case op.IsBranch():
				s.Branches++
			case op.IsVMemLoad():
				s.VMemLoads++
			case op.IsVMemStore():
				s.VMemStores++
			case op.IsAtomic():
				s.Atomics++
			case op.IsLDSLoad() || op.IsLDSStore():
				s.LDSOps++
			case op.IsVALU():
				s.VALU++
			case op.IsSALU():
				s.SALU++
			}
		}
	})
	return s
}

// String renders the counts in a compact single line.
func (s Stats) String() string {
	return fmt.Sprintf("%s insts (valu=%s, salu=%s, loads=%s, stores=%s, atomics=%s, lds=%s, waits=%s, branches=%s, labels=%s)",
		humanize.Comma(int64(s.Insts)), humanize.Comma(int64(s.VALU)), humanize.Comma(int64(s.SALU)),
		humanize.Comma(int64(s.VMemLoads)), humanize.Comma(int64(s.VMemStores)), humanize.Comma(int64(s.Atomics)),
		humanize.Comma(int64(s.LDSOps)), humanize.Comma(int64(s.Waits)), humanize.Comma(int64(s.Branches)),
		humanize.Comma(int64(s.Labels)))
}
