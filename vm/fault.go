package vm

import (
	"errors"
	"fmt"
)

var (
	ErrOutOfBounds       = errors.New("out of bounds register access")
	ErrDivisionByZero    = errors.New("division by zero")
	ErrInvalidJumpTarget = errors.New("invalid jump target")
	ErrStepLimit         = errors.New("step limit exceeded")
)

type FaultKind byte

const (
	FaultOutOfBounds FaultKind = iota
	FaultDivisionByZero
	FaultInvalidJumpTarget
	FaultStepLimit
)

func (k FaultKind) String() string {
	switch k {
	case FaultOutOfBounds:
		return "out_of_bounds"
	case FaultDivisionByZero:
		return "division_by_zero"
	case FaultInvalidJumpTarget:
		return "invalid_jump_target"
	case FaultStepLimit:
		return "step_limit"
	default:
		return "unknown"
	}
}

// Fault is an unrecoverable runtime error. It records where execution stopped
// and unwraps to one of the Err* sentinels.
type Fault struct {
	Kind FaultKind
	// index of the faulting instruction
	PC int
	Op Opcode
	// offending register for out of bounds and division faults
	Index int
	// register file length at the time of the fault
	Len int
	// offending target for jump faults
	Target int
}

func newOutOfBounds(pc int, op Opcode, idx, length int) *Fault {
	return &Fault{Kind: FaultOutOfBounds, PC: pc, Op: op, Index: idx, Len: length}
}

func newDivisionByZero(pc int, idx int) *Fault {
	return &Fault{Kind: FaultDivisionByZero, PC: pc, Op: OpDiv, Index: idx}
}

func newInvalidJumpTarget(pc int, op Opcode, target int) *Fault {
	return &Fault{Kind: FaultInvalidJumpTarget, PC: pc, Op: op, Target: target}
}

func newStepLimit(pc int, op Opcode) *Fault {
	return &Fault{Kind: FaultStepLimit, PC: pc, Op: op}
}

func (f *Fault) Unwrap() error {
	switch f.Kind {
	case FaultOutOfBounds:
		return ErrOutOfBounds
	case FaultDivisionByZero:
		return ErrDivisionByZero
	case FaultInvalidJumpTarget:
		return ErrInvalidJumpTarget
	case FaultStepLimit:
		return ErrStepLimit
	}
	return nil
}

func (f *Fault) Error() string {
	switch f.Kind {
	case FaultOutOfBounds:
		return fmt.Sprintf("%s at instruction %d (%s): register %d, len %d",
			f.Unwrap(), f.PC, f.Op, f.Index, f.Len)
	case FaultDivisionByZero:
		return fmt.Sprintf("%s at instruction %d: register %d holds zero",
			f.Unwrap(), f.PC, f.Index)
	case FaultInvalidJumpTarget:
		return fmt.Sprintf("%s at instruction %d (%s): target %d",
			f.Unwrap(), f.PC, f.Op, f.Target)
	case FaultStepLimit:
		return fmt.Sprintf("%s at instruction %d", f.Unwrap(), f.PC)
	}
	return fmt.Sprintf("fault at instruction %d", f.PC)
}

// AsFault returns the Fault wrapped in err, if any
func AsFault(err error) (*Fault, bool) {
	var f *Fault
	ok := errors.As(err, &f)
	return f, ok
}
