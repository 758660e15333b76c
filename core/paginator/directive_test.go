package paginator

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNavigate(t *testing.T) {
	tests := []struct {
		name    string
		d       Directive
		current int
		last    int
		want    int
	}{
		{"next", Step(1), 0, 3, 1},
		{"next on last is rejected", Step(1), 3, 3, 3},
		{"previous on first is rejected", Step(-1), 0, 3, 0},
		{"big step past end is rejected", Step(5), 1, 3, 1},
		{"jump first", Jump(0), 2, 3, 0},
		{"jump last", Jump(3), 0, 3, 3},
		{"jump beyond end clamps", Jump(9), 0, 3, 3},
		{"jump below zero clamps", Jump(-4), 2, 3, 0},
		{"stop leaves page", Stop(), 2, 3, 2},
		{"input leaves page", Input(), 1, 3, 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, navigate(tt.d, tt.current, tt.last))
		})
	}
}

func TestPageFromNumber(t *testing.T) {
	last := 4
	assert.Equal(t, 0, pageFromNumber(1, last))
	assert.Equal(t, 2, pageFromNumber(3, last))
	assert.Equal(t, 4, pageFromNumber(5, last))
	assert.Equal(t, 4, pageFromNumber(6, last))
	assert.Equal(t, 4, pageFromNumber(99, last))
	assert.Equal(t, 0, pageFromNumber(0, last))
}

func TestControlSetLookup(t *testing.T) {
	cs := newControlSet(false, true, 7)

	d, ok := cs.lookup(SymbolLast)
	assert.True(t, ok)
	assert.Equal(t, Jump(7), d)

	d, ok = cs.lookup("⏹")
	assert.True(t, ok)
	assert.Equal(t, DirectiveStop, d.Kind)

	_, ok = cs.lookup("❌")
	assert.False(t, ok)

	compact := newControlSet(true, true, 7)
	_, ok = compact.lookup(SymbolInput)
	assert.False(t, ok, "compact sets never carry input")
	_, ok = compact.lookup(SymbolFirst)
	assert.False(t, ok)
}

func TestControlSetIsImmutable(t *testing.T) {
	cs := newControlSet(true, false, 2)
	got := cs.controls()
	got[0] = Control{Symbol: "x", Directive: Stop()}
	assert.Equal(t, SymbolPrevious, cs.controls()[0].Symbol)
}

func TestParseNumber(t *testing.T) {
	assert.Equal(t, 12, parseNumber(" 12 "))
	assert.Equal(t, 0, parseNumber("0"))
	assert.Greater(t, parseNumber("99999999999999999999999"), 1<<40)
	assert.True(t, isDigits("0042"))
	assert.False(t, isDigits("4 2"))
	assert.False(t, isDigits("٤"))
	assert.False(t, isDigits(""))
}

func TestDirectiveKindString(t *testing.T) {
	assert.Equal(t, "step", Step(1).Kind.String())
	assert.Equal(t, "jump", Jump(0).Kind.String())
	assert.Equal(t, "unknown", DirectiveKind(0).String())
}
