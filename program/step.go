package program

import (
	"fmt"
	"math"

	"github.com/ezntek/prototypevm/vm"
)

// Step is the serialized form of one instruction. Args holds the operands in
// the order the op's mnemonic lists them:
//
//	add|sub|mul|div  [dst, src1, src2]
//	copy             [dst, src]
//	push             [val]
//	del|out          [src]
//	outs             text
//	jmp              [target]
//	jz|jnz           [target, src]
//	br               cmp, [left, right, then, else]
type Step struct {
	Op   string `yaml:"op" json:"op"`
	Args []int  `yaml:"args,flow,omitempty" json:"args,omitempty"`
	Cmp  string `yaml:"cmp,omitempty" json:"cmp,omitempty"`
	Text string `yaml:"text,omitempty" json:"text,omitempty"`
}

var arity = map[vm.Opcode]int{
	vm.OpAdd:           3,
	vm.OpSub:           3,
	vm.OpMul:           3,
	vm.OpDiv:           3,
	vm.OpCopy:          2,
	vm.OpPush:          1,
	vm.OpDelete:        1,
	vm.OpOut:           1,
	vm.OpOutText:       0,
	vm.OpJump:          1,
	vm.OpJumpIfZero:    2,
	vm.OpJumpIfNotZero: 2,
	vm.OpBranch:        4,
}

func parseOpcode(s string) (vm.Opcode, error) {
	for _, op := range vm.Opcodes {
		if op.String() == s {
			return op, nil
		}
	}
	return 0, fmt.Errorf("unknown op %q", s)
}

// ToInstruction checks the step's operands and builds the instruction
func (s Step) ToInstruction() (vm.Instruction, error) {
	op, err := parseOpcode(s.Op)
	if err != nil {
		return nil, err
	}
	if len(s.Args) != arity[op] {
		return nil, fmt.Errorf("%s takes %d args, got %d", op, arity[op], len(s.Args))
	}
	if s.Cmp != "" && op != vm.OpBranch {
		return nil, fmt.Errorf("%s does not take a comparator", op)
	}
	if s.Text != "" && op != vm.OpOutText {
		return nil, fmt.Errorf("%s does not take text", op)
	}

	a := s.Args
	switch op {
	case vm.OpAdd:
		return vm.Add{Dst: a[0], Src1: a[1], Src2: a[2]}, nil
	case vm.OpSub:
		return vm.Sub{Dst: a[0], Src1: a[1], Src2: a[2]}, nil
	case vm.OpMul:
		return vm.Mul{Dst: a[0], Src1: a[1], Src2: a[2]}, nil
	case vm.OpDiv:
		return vm.Div{Dst: a[0], Src1: a[1], Src2: a[2]}, nil
	case vm.OpCopy:
		return vm.Copy{Dst: a[0], Src: a[1]}, nil
	case vm.OpPush:
		if a[0] < math.MinInt32 || a[0] > math.MaxInt32 {
			return nil, fmt.Errorf("push value %d does not fit in 32 bits", a[0])
		}
		return vm.Push{Val: vm.Value(a[0])}, nil
	case vm.OpDelete:
		return vm.Delete{Src: a[0]}, nil
	case vm.OpOut:
		return vm.Out{Src: a[0]}, nil
	case vm.OpOutText:
		return vm.OutText{Text: s.Text}, nil
	case vm.OpJump:
		return vm.Jump{Target: a[0]}, nil
	case vm.OpJumpIfZero:
		return vm.JumpIfZero{Target: a[0], Src: a[1]}, nil
	case vm.OpJumpIfNotZero:
		return vm.JumpIfNotZero{Target: a[0], Src: a[1]}, nil
	case vm.OpBranch:
		cmp, err := vm.ParseCmpOp(s.Cmp)
		if err != nil {
			return nil, err
		}
		return vm.Branch{
			Cmp:  vm.Comparison{Op: cmp, Left: a[0], Right: a[1]},
			Then: a[2],
			Else: a[3],
		}, nil
	}
	return nil, fmt.Errorf("unhandled op %s", op)
}

func FromInstruction(inst vm.Instruction) Step {
	if inst == nil {
		return Step{}
	}
	s := Step{Op: inst.Opcode().String()}
	switch in := inst.(type) {
	case vm.Add:
		s.Args = []int{in.Dst, in.Src1, in.Src2}
	case vm.Sub:
		s.Args = []int{in.Dst, in.Src1, in.Src2}
	case vm.Mul:
		s.Args = []int{in.Dst, in.Src1, in.Src2}
	case vm.Div:
		s.Args = []int{in.Dst, in.Src1, in.Src2}
	case vm.Copy:
		s.Args = []int{in.Dst, in.Src}
	case vm.Push:
		s.Args = []int{int(in.Val)}
	case vm.Delete:
		s.Args = []int{in.Src}
	case vm.Out:
		s.Args = []int{in.Src}
	case vm.OutText:
		s.Text = in.Text
	case vm.Jump:
		s.Args = []int{in.Target}
	case vm.JumpIfZero:
		s.Args = []int{in.Target, in.Src}
	case vm.JumpIfNotZero:
		s.Args = []int{in.Target, in.Src}
	case vm.Branch:
		s.Cmp = in.Cmp.Op.String()
		s.Args = []int{in.Cmp.Left, in.Cmp.Right, in.Then, in.Else}
	}
	return s
}

// FromSteps builds a program, reporting the index of the first bad step
func FromSteps(steps []Step) (vm.Program, error) {
	p := make(vm.Program, 0, len(steps))
	for i, s := range steps {
		inst, err := s.ToInstruction()
		if err != nil {
			return nil, fmt.Errorf("step %d: %w", i, err)
		}
		p = append(p, inst)
	}
	return p, nil
}

func ToSteps(p vm.Program) []Step {
	out := make([]Step, 0, len(p))
	for _, inst := range p {
		out = append(out, FromInstruction(inst))
	}
	return out
}
