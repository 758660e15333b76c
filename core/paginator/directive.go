package paginator

import "strings"

// DirectiveKind tags the navigation action bound to a control.
type DirectiveKind int

const (
	// DirectiveStop ends the session and deletes the message.
	DirectiveStop DirectiveKind = iota + 1
	// DirectiveInput asks the owner for a page number.
	DirectiveInput
	// DirectiveStep moves relative to the current page and rejects out-of-range results.
	DirectiveStep
	// DirectiveJump moves to a fixed page.
	DirectiveJump
)

func (k DirectiveKind) String() string {
	switch k {
	case DirectiveStop:
		return "stop"
	case DirectiveInput:
		return "input"
	case DirectiveStep:
		return "step"
	case DirectiveJump:
		return "jump"
	}
	return "unknown"
}

// Directive is the resolved meaning of a control symbol.
type Directive struct {
	Kind  DirectiveKind
	Value int
}

// Stop returns the stop directive.
func Stop() Directive { return Directive{Kind: DirectiveStop} }

// Input returns the numeric input directive.
func Input() Directive { return Directive{Kind: DirectiveInput} }

// Step returns a relative move by n pages.
func Step(n int) Directive { return Directive{Kind: DirectiveStep, Value: n} }

// Jump returns an absolute move to index.
func Jump(index int) Directive { return Directive{Kind: DirectiveJump, Value: index} }

// Control glyphs attached to the bound message.
const (
	SymbolFirst    = "⏮"
	SymbolPrevious = "◀"
	SymbolStop     = "⏹️"
	SymbolNext     = "▶"
	SymbolLast     = "⏭"
	SymbolInput    = "🔢"
)

// Control binds a glyph to its directive.
type Control struct {
	Symbol    string
	Directive Directive
}

// controlSet is the immutable symbol table of one session, kept in display order.
type controlSet struct {
	ordered []Control
	bySym   map[string]Directive
}

// newControlSet builds the table for a document whose last index is last.
func newControlSet(compact, input bool, last int) controlSet {
	var ordered []Control
	if compact {
		ordered = []Control{
			{SymbolPrevious, Step(-1)},
			{SymbolStop, Stop()},
			{SymbolNext, Step(+1)},
		}
	} else {
		ordered = []Control{
			{SymbolFirst, Jump(0)},
			{SymbolPrevious, Step(-1)},
			{SymbolStop, Stop()},
			{SymbolNext, Step(+1)},
			{SymbolLast, Jump(last)},
		}
		if input {
			ordered = append(ordered, Control{SymbolInput, Input()})
		}
	}

	bySym := make(map[string]Directive, len(ordered))
	for _, c := range ordered {
		bySym[normalizeSymbol(c.Symbol)] = c.Directive
	}
	return controlSet{ordered: ordered, bySym: bySym}
}

func (cs controlSet) lookup(symbol string) (Directive, bool) {
	d, ok := cs.bySym[normalizeSymbol(symbol)]
	return d, ok
}

func (cs controlSet) controls() []Control {
	return append([]Control(nil), cs.ordered...)
}

// normalizeSymbol drops emoji presentation selectors some platforms strip.
func normalizeSymbol(s string) string {
	return strings.ReplaceAll(strings.TrimSpace(s), "\ufe0f", "")
}

// navigate applies a step or jump to current. Steps that would leave
// [0, last] are rejected and current is returned unchanged.
func navigate(d Directive, current, last int) int {
	switch d.Kind {
	case DirectiveStep:
		next := current + d.Value
		if next < 0 || next > last {
			return current
		}
		return next
	case DirectiveJump:
		return clamp(d.Value, last)
	}
	return current
}

// pageFromNumber maps a 1-based page number typed by the user to an index,
// clamping overshoot to the last page.
func pageFromNumber(number, last int) int {
	if number > last+1 {
		return last
	}
	return clamp(number-1, last)
}

func clamp(index, last int) int {
	if index < 0 {
		return 0
	}
	if index > last {
		return last
	}
	return index
}
