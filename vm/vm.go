package vm

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/ezntek/prototypevm/types"
	"go.uber.org/zap"
)

type VM struct {
	program Program
	// program counter
	pc int

	regs *Registers
	out  io.Writer

	// 0 means no limit
	maxSteps int
	steps    int

	// set once the vm faults, every later Step returns it
	fault  error
	logger *zap.Logger
}

type VMOpt func(*VM) *VM

func LoggerOpt(l *zap.Logger) VMOpt {
	return func(vm *VM) *VM {
		if l != nil {
			vm.logger = l
		}
		return vm
	}
}

// OutputOpt sets where Out and OutText write. defaults to stdout
func OutputOpt(w io.Writer) VMOpt {
	return func(vm *VM) *VM {
		if w != nil {
			vm.out = w
		}
		return vm
	}
}

// MaxStepsOpt bounds the number of instructions a run may execute
func MaxStepsOpt(n int) VMOpt {
	return func(vm *VM) *VM {
		vm.maxSteps = n
		return vm
	}
}

func NewVM(program Program, opts ...VMOpt) *VM {
	vm := &VM{
		program: append(Program(nil), program...),
		pc:      0,
		regs:    NewRegisters(),
		out:     os.Stdout,
		logger:  zap.L(),
	}

	for _, opt := range opts {
		vm = opt(vm)
	}

	vm.logger = vm.logger.Named("vm")

	return vm
}

func (vm *VM) Halted() bool {
	return vm.pc >= len(vm.program)
}

func (vm *VM) PC() int {
	return vm.pc
}

// Steps is the number of instructions executed so far
func (vm *VM) Steps() int {
	return vm.steps
}

// Registers returns a copy of the register file
func (vm *VM) Registers() []Value {
	return vm.regs.Values()
}

// Err returns the fault that stopped the vm, or nil
func (vm *VM) Err() error {
	return vm.fault
}

// Run executes instructions until the program counter falls off the end of
// the program or an instruction faults.
func (vm *VM) Run() error {
	for !vm.Halted() {
		err := vm.Step()
		if err != nil {
			return fmt.Errorf("vm run: %w", err)
		}
	}
	vm.logger.Debug("halted",
		zap.Int("pc", vm.pc),
		zap.Int("steps", vm.steps),
	)
	return nil
}

// Step executes the instruction at the program counter. It is a no-op once
// the vm has halted.
func (vm *VM) Step() error {
	if vm.fault != nil {
		return vm.fault
	}
	if vm.Halted() {
		return nil
	}

	inst := vm.program[vm.pc]
	if inst == nil {
		return vm.stop(fmt.Errorf("nil instruction at %d", vm.pc))
	}
	if vm.maxSteps > 0 && vm.steps >= vm.maxSteps {
		return vm.stop(newStepLimit(vm.pc, inst.Opcode()))
	}

	vm.logger.Debug("instruction pointer",
		zap.Int("pc", vm.pc),
		zap.Stringer("inst", inst),
	)

	next, err := vm.exec(inst)
	if err != nil {
		return vm.stop(err)
	}
	vm.steps++
	vm.pc = next
	return nil
}

func (vm *VM) stop(err error) error {
	vm.logger.Warn("fault",
		zap.Int("pc", vm.pc),
		zap.Int("registers", vm.regs.Len()),
		zap.Error(err),
	)
	vm.fault = err
	return err
}

// exec runs a single instruction and returns the next program counter
func (vm *VM) exec(inst Instruction) (int, error) {
	next := vm.pc + 1

	switch in := inst.(type) {
	case Add:
		return next, vm.arith(in, in.Dst, in.Src1, in.Src2, func(a, b Value) Value { return a + b })
	case Sub:
		return next, vm.arith(in, in.Dst, in.Src1, in.Src2, func(a, b Value) Value { return a - b })
	case Mul:
		return next, vm.arith(in, in.Dst, in.Src1, in.Src2, func(a, b Value) Value { return a * b })
	case Div:
		return next, vm.div(in)
	case Copy:
		v, err := vm.read(in, in.Src)
		if err != nil {
			return vm.pc, err
		}
		return next, vm.write(in, in.Dst, v)
	case Push:
		vm.regs.Push(in.Val)
		return next, nil
	case Delete:
		err := vm.regs.Delete(in.Src)
		if err != nil {
			return vm.pc, vm.boundsFault(in, err)
		}
		return next, nil
	case Out:
		v, err := vm.read(in, in.Src)
		if err != nil {
			return vm.pc, err
		}
		return next, vm.println(v)
	case OutText:
		return next, vm.println(in.Text)
	case Jump:
		return vm.jump(in, in.Target)
	case JumpIfZero:
		v, err := vm.read(in, in.Src)
		if err != nil {
			return vm.pc, err
		}
		if v == 0 {
			return vm.jump(in, in.Target)
		}
		return next, nil
	case JumpIfNotZero:
		v, err := vm.read(in, in.Src)
		if err != nil {
			return vm.pc, err
		}
		if v != 0 {
			return vm.jump(in, in.Target)
		}
		return next, nil
	case Branch:
		ok, err := vm.compare(in, in.Cmp)
		if err != nil {
			return vm.pc, err
		}
		if ok {
			return vm.jump(in, in.Then)
		}
		return vm.jump(in, in.Else)
	default:
		return vm.pc, fmt.Errorf("unknown instruction %T at %d", inst, vm.pc)
	}
}

func (vm *VM) arith(inst Instruction, dst, src1, src2 int, f func(a, b Value) Value) error {
	a, err := vm.read(inst, src1)
	if err != nil {
		return err
	}
	b, err := vm.read(inst, src2)
	if err != nil {
		return err
	}
	return vm.write(inst, dst, f(a, b))
}

func (vm *VM) div(in Div) error {
	a, err := vm.read(in, in.Src1)
	if err != nil {
		return err
	}
	b, err := vm.read(in, in.Src2)
	if err != nil {
		return err
	}
	if b == 0 {
		return newDivisionByZero(vm.pc, in.Src2)
	}
	// go truncates toward zero and MinInt32 / -1 wraps instead of panicking
	return vm.write(in, in.Dst, a/b)
}

func (vm *VM) compare(inst Instruction, cmp Comparison) (bool, error) {
	a, err := vm.read(inst, cmp.Left)
	if err != nil {
		return false, err
	}
	b, err := vm.read(inst, cmp.Right)
	if err != nil {
		return false, err
	}
	ok := cmp.Op.Compare(a, b)
	vm.logger.Debug("compare",
		zap.Stringer("cmp", cmp),
		zap.Int32("a", a),
		zap.Int32("b", b),
		zap.Bool("result", ok),
	)
	return ok, nil
}

// jump validates target. Any target at or past the end of the program halts.
func (vm *VM) jump(inst Instruction, target int) (int, error) {
	if target < 0 {
		return vm.pc, newInvalidJumpTarget(vm.pc, inst.Opcode(), target)
	}
	return target, nil
}

func (vm *VM) read(inst Instruction, idx int) (Value, error) {
	v, err := vm.regs.Get(idx)
	if err != nil {
		return 0, vm.boundsFault(inst, err)
	}
	return v, nil
}

func (vm *VM) write(inst Instruction, idx int, v Value) error {
	err := vm.regs.Set(idx, v)
	if err != nil {
		return vm.boundsFault(inst, err)
	}
	return nil
}

func (vm *VM) boundsFault(inst Instruction, err error) error {
	var oor *types.ErrIndexOutOfRange
	if errors.As(err, &oor) {
		return newOutOfBounds(vm.pc, inst.Opcode(), oor.Index, oor.Len)
	}
	return err
}

func (vm *VM) println(v any) error {
	_, err := fmt.Fprintln(vm.out, v)
	if err != nil {
		return fmt.Errorf("write output: %w", err)
	}
	return nil
}
