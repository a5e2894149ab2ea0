// Package isa models the GCN-flavored instruction stream produced by the
// kernel generators: modules (named, ordered, nestable containers of
// instructions), registers, labels and the usual instruction modifiers.
//
// Streams render to readable assembly text for logging, debugging and tests.
// Binary encoding is out of scope; the text is a faithful rendition of what
// the generator decided, not assembler input.
//
// The usual flow is:
//
//	mod := isa.NewModule("epilogue")
//	mod.Add(isa.VMovB32(isa.VGPR(4), isa.ImmF32(1)).Commentf("identity scale"))
//	fmt.Println(mod.Asm())
package isa

import (
	"fmt"
	"strings"
)

// Item is one entry of a Module: an instruction, a comment, a label or a
// nested Module.
type Item interface {
	// Asm renders the item as assembly text. Nested modules render their
	// children joined by newlines.
	Asm() string
}

// Module is a named, ordered sequence of items. Modules nest: generators
// build one sub-module per logical phase and stitch them together, which
// keeps the emission order explicit and lets tests inspect phases in
// isolation.
type Module struct {
	name  string
	items []Item
}

// NewModule creates an empty module with the given name. The name shows up
// nowhere in the rendered text; it exists for tracing and tests.
func NewModule(name string) *Module {
	return &Module{name: name}
}

// Name returns the module name given at creation.
func (m *Module) Name() string { return m.name }

// Add appends items in order and returns the module for chaining.
func (m *Module) Add(items ...Item) *Module {
	m.items = append(m.items, items...)
	return m
}

// AddComment appends a plain comment line.
func (m *Module) AddComment(format string, args ...any) {
	m.items = append(m.items, Comment(fmt.Sprintf(format, args...)))
}

// AddCommentHeader appends a boxed comment, used to flag the start of a
// major phase in the rendered text.
func (m *Module) AddCommentHeader(format string, args ...any) {
	text := fmt.Sprintf(format, args...)
	bar := Comment(strings.Repeat("*", len(text)+4))
	m.items = append(m.items, bar, Comment(" "+text), bar)
}

// Items returns the direct children of the module, in order.
func (m *Module) Items() []Item { return m.items }

// IsEmpty reports whether the module holds no items at all, including in
// nested sub-modules.
func (m *Module) IsEmpty() bool {
	empty := true
	m.Walk(func(Item) { empty = false })
	return empty
}

// Walk visits every non-module item in emission order, descending into
// nested modules.
func (m *Module) Walk(fn func(Item)) {
	for _, item := range m.items {
		if sub, ok := item.(*Module); ok {
			sub.Walk(fn)
			continue
		}
		fn(item)
	}
}

// Flatten returns every non-module item in emission order.
func (m *Module) Flatten() []Item {
	var flat []Item
	m.Walk(func(item Item) { flat = append(flat, item) })
	return flat
}

// Instructions returns only the instructions of the module, in emission
// order, descending into nested modules.
func (m *Module) Instructions() []*Inst {
	var insts []*Inst
	m.Walk(func(item Item) {
		if inst, ok := item.(*Inst); ok {
			insts = append(insts, inst)
		}
	})
	return insts
}

// Asm renders the module and all its children.
func (m *Module) Asm() string {
	parts := make([]string, 0, len(m.items))
	for _, item := range m.items {
		if sub, ok := item.(*Module); ok {
			if len(sub.items) == 0 {
				continue
			}
		}
		parts = append(parts, item.Asm())
	}
	return strings.Join(parts, "\n")
}

// ReplaceHolder returns a deep copy of the module with every Holder operand
// of the given name substituted by reg. Template modules are built once with
// symbolic holders and instantiated per use site.
func (m *Module) ReplaceHolder(name string, reg Reg) *Module {
	out := &Module{name: m.name, items: make([]Item, 0, len(m.items))}
	for _, item := range m.items {
		switch v := item.(type) {
		case *Module:
			out.items = append(out.items, v.ReplaceHolder(name, reg))
		case *Inst:
			out.items = append(out.items, v.ReplaceHolder(name, reg))
		default:
			out.items = append(out.items, item)
		}
	}
	return out
}

// Comment is a free-standing comment line.
type Comment string

// Asm renders the comment.
func (c Comment) Asm() string {
	if c == "" {
		return ""
	}
	return "// " + string(c)
}

// Label marks a branch target in the stream.
type Label struct {
	Name    string
	Comment string
}

// NewLabel creates a label item with the given (already unique) name.
func NewLabel(name string) *Label {
	return &Label{Name: name}
}

// Asm renders the label definition.
func (l *Label) Asm() string {
	if l.Comment != "" {
		return fmt.Sprintf("label_%s: // %s", l.Name, l.Comment)
	}
	return fmt.Sprintf("label_%s:", l.Name)
}
