package feedback

import (
	"fmt"
	"strings"

	"github.com/ezntek/prototypevm/vm"
	"github.com/fatih/color"
)

// lines of disassembly shown on each side of the faulting instruction
const contextLines = 2

// Render formats err for a terminal. Faults are shown against the program's
// disassembly:
//
//	fault: division_by_zero
//	  --> instruction 2
//	   |
//	 0 | push 10
//	 1 | push 0
//	 2 | div r0, r0, r1
//	   | ^^^^^^^^^^^^^^ register 1 holds zero
//	 3 | out r0
func Render(err error, p vm.Program, withColor bool) string {
	redBold := paint(withColor, color.FgRed, color.Bold)

	f, ok := vm.AsFault(err)
	if !ok {
		return redBold("error:") + " " + err.Error()
	}

	red := paint(withColor, color.FgRed)
	blue := paint(withColor, color.FgBlue)

	first := max(f.PC-contextLines, 0)
	last := min(f.PC+contextLines, len(p)-1)
	width := len(fmt.Sprintf("%d", max(last, f.PC)))
	margin := strings.Repeat(" ", width)

	var lines []string
	lines = append(lines, redBold(fmt.Sprintf("fault: %s", f.Kind)))
	lines = append(lines, fmt.Sprintf(" %s%s instruction %d", margin, blue("-->"), f.PC))
	lines = append(lines, blue(fmt.Sprintf(" %s |", margin)))

	for i := first; i <= last; i++ {
		text := instructionText(p, i)
		num := blue(fmt.Sprintf("%*d", width, i))
		if i != f.PC {
			lines = append(lines, fmt.Sprintf(" %s %s %s", num, blue("|"), text))
			continue
		}
		lines = append(lines, fmt.Sprintf(" %s %s %s", num, blue("|"), red(text)))
		underline := strings.Repeat("^", max(len(text), 1))
		lines = append(lines, fmt.Sprintf(" %s %s %s %s", margin, blue("|"), red(underline), red(describe(f))))
	}

	return strings.Join(lines, "\n")
}

// paint overrides the package wide color.NoColor for this color only
func paint(withColor bool, attrs ...color.Attribute) func(a ...interface{}) string {
	c := color.New(attrs...)
	if withColor {
		c.EnableColor()
	} else {
		c.DisableColor()
	}
	return c.SprintFunc()
}

func instructionText(p vm.Program, i int) string {
	if i < 0 || i >= len(p) || p[i] == nil {
		return "<none>"
	}
	return p[i].String()
}

func describe(f *vm.Fault) string {
	switch f.Kind {
	case vm.FaultOutOfBounds:
		return fmt.Sprintf("register %d does not exist (%d registers)", f.Index, f.Len)
	case vm.FaultDivisionByZero:
		return fmt.Sprintf("register %d holds zero", f.Index)
	case vm.FaultInvalidJumpTarget:
		return fmt.Sprintf("target %d is outside the program", f.Target)
	case vm.FaultStepLimit:
		return "step limit reached"
	}
	return f.Error()
}
