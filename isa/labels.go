package isa

import (
	"fmt"
	"strings"
)

// LabelManager hands out unique label names within one kernel. Name
// collisions across batches would silently merge branch targets, so every
// label goes through here.
type LabelManager struct {
	counts map[string]int
}

// NewLabelManager creates an empty manager.
func NewLabelManager() *LabelManager {
	return &LabelManager{counts: make(map[string]int)}
}

// Get returns a unique name derived from base: the first request returns
// the sanitized base itself, later requests append a running suffix.
func (lm *LabelManager) Get(base string) string {
	base = sanitizeLabel(base)
	n := lm.counts[base]
	lm.counts[base] = n + 1
	if n == 0 {
		return base
	}
	return fmt.Sprintf("%s_%d", base, n)
}

func sanitizeLabel(s string) string {
	var sb strings.Builder
	sb.Grow(len(s))
	for _, r := range s {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '_':
			sb.WriteRune(r)
		default:
			sb.WriteByte('_')
		}
	}
	return sb.String()
}
