package feedback

import (
	"errors"
	"fmt"
	"strings"
	"sync"
	"testing"

	"github.com/ezntek/prototypevm/vm"
	"github.com/fatih/color"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func runToFault(t *testing.T, p vm.Program) error {
	err := vm.NewVM(p, vm.LoggerOpt(zap.NewNop()), vm.OutputOpt(&strings.Builder{})).Run()
	require.Error(t, err)
	return err
}

func TestRender_DivisionByZero(t *testing.T) {
	p := vm.Program{
		vm.Push{Val: 10},
		vm.Push{Val: 0},
		vm.Div{Dst: 0, Src1: 0, Src2: 1},
		vm.Out{Src: 0},
	}
	got := Render(runToFault(t, p), p, false)

	want := strings.Join([]string{
		"fault: division_by_zero",
		"  --> instruction 2",
		"   |",
		" 0 | push 10",
		" 1 | push 0",
		" 2 | div r0, r0, r1",
		"   | ^^^^^^^^^^^^^^ register 1 holds zero",
		" 3 | out r0",
	}, "\n")
	assert.Equal(t, want, got)
}

func TestRender_Kinds(t *testing.T) {
	tests := []struct {
		name string
		p    vm.Program
		want string
	}{
		{
			name: "out of bounds",
			p:    vm.Program{vm.Push{Val: 1}, vm.Out{Src: 4}},
			want: "register 4 does not exist (1 registers)",
		},
		{
			name: "jump",
			p:    vm.Program{vm.Jump{Target: -3}},
			want: "target -3 is outside the program",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Render(runToFault(t, tt.p), tt.p, false)
			assert.Contains(t, got, tt.want)
			assert.True(t, strings.HasPrefix(got, "fault: "))
		})
	}
}

func TestRender_Context(t *testing.T) {
	p := vm.Program{}
	for i := 0; i < 12; i++ {
		p = append(p, vm.OutText{Text: fmt.Sprintf("line %d", i)})
	}
	p = append(p, vm.Out{Src: 0})

	got := Render(runToFault(t, p), p, false)
	assert.Contains(t, got, "  --> instruction 12")
	assert.Contains(t, got, "10 | outs \"line 10\"")
	assert.NotContains(t, got, "line 9\"")
}

func TestRender_PlainError(t *testing.T) {
	got := Render(errors.New("boom"), nil, false)
	assert.Equal(t, "error: boom", got)
}

func TestRender_ColorIsPerCall(t *testing.T) {
	before := color.NoColor
	p := vm.Program{vm.Push{Val: 1}, vm.Out{Src: 4}}
	err := runToFault(t, p)

	plain := Render(err, p, false)
	colored := Render(err, p, true)
	assert.NotContains(t, plain, "\x1b[")
	assert.Contains(t, colored, "\x1b[")
	assert.Equal(t, before, color.NoColor)

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func(withColor bool) {
			defer wg.Done()
			got := Render(err, p, withColor)
			if withColor {
				assert.Equal(t, colored, got)
			} else {
				assert.Equal(t, plain, got)
			}
		}(i%2 == 0)
	}
	wg.Wait()
}
