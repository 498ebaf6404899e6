package vm

import (
	"fmt"
	"strconv"
)

type Value = int32

type Opcode byte

const (
	OpAdd Opcode = 0x0a + iota //10
	OpSub
	OpMul
	OpDiv
	OpCopy
	OpPush
	OpDelete
	OpOut
	OpOutText
	OpJump
	OpJumpIfZero
	OpJumpIfNotZero
	OpBranch
)

var Opcodes = []Opcode{
	OpAdd, OpSub, OpMul, OpDiv,
	OpCopy, OpPush, OpDelete,
	OpOut, OpOutText,
	OpJump, OpJumpIfZero, OpJumpIfNotZero, OpBranch,
}

// String is the mnemonic used by the disassembler and the program codec
func (op Opcode) String() string {
	switch op {
	case OpAdd:
		return "add"
	case OpSub:
		return "sub"
	case OpMul:
		return "mul"
	case OpDiv:
		return "div"
	case OpCopy:
		return "copy"
	case OpPush:
		return "push"
	case OpDelete:
		return "del"
	case OpOut:
		return "out"
	case OpOutText:
		return "outs"
	case OpJump:
		return "jmp"
	case OpJumpIfZero:
		return "jz"
	case OpJumpIfNotZero:
		return "jnz"
	case OpBranch:
		return "br"
	default:
		return fmt.Sprintf("op(0x%02x)", byte(op))
	}
}

// Instruction is the closed set of operations the VM executes. The marker
// method keeps the set sealed to this package; every variant is handled in
// VM.exec.
type Instruction interface {
	fmt.Stringer
	Opcode() Opcode
	instruction()
}

// Program is the immutable instruction sequence handed to NewVM.
type Program []Instruction

func reg(i int) string {
	return "r" + strconv.Itoa(i)
}

// Add stores Src1 + Src2 in Dst
type Add struct{ Dst, Src1, Src2 int }

// Sub stores Src1 - Src2 in Dst
type Sub struct{ Dst, Src1, Src2 int }

// Mul stores Src1 * Src2 in Dst
type Mul struct{ Dst, Src1, Src2 int }

// Div stores Src1 / Src2 in Dst, truncated toward zero
type Div struct{ Dst, Src1, Src2 int }

// Copy stores the value of Src in Dst
type Copy struct{ Dst, Src int }

// Push appends Val to the end of the register file
type Push struct{ Val Value }

// Delete removes register Src. every later register moves down one slot.
type Delete struct{ Src int }

// Out prints the decimal value of Src followed by a newline
type Out struct{ Src int }

// OutText prints Text followed by a newline
type OutText struct{ Text string }

// Jump sets the program counter to Target
type Jump struct{ Target int }

// JumpIfZero jumps to Target when register Src holds 0
type JumpIfZero struct{ Target, Src int }

// JumpIfNotZero jumps to Target when register Src does not hold 0
type JumpIfNotZero struct{ Target, Src int }

// Branch jumps to Then when Cmp holds and to Else otherwise
type Branch struct {
	Then int
	Else int
	Cmp  Comparison
}

func (Add) Opcode() Opcode           { return OpAdd }
func (Sub) Opcode() Opcode           { return OpSub }
func (Mul) Opcode() Opcode           { return OpMul }
func (Div) Opcode() Opcode           { return OpDiv }
func (Copy) Opcode() Opcode          { return OpCopy }
func (Push) Opcode() Opcode          { return OpPush }
func (Delete) Opcode() Opcode        { return OpDelete }
func (Out) Opcode() Opcode           { return OpOut }
func (OutText) Opcode() Opcode       { return OpOutText }
func (Jump) Opcode() Opcode          { return OpJump }
func (JumpIfZero) Opcode() Opcode    { return OpJumpIfZero }
func (JumpIfNotZero) Opcode() Opcode { return OpJumpIfNotZero }
func (Branch) Opcode() Opcode        { return OpBranch }

func (Add) instruction()           {}
func (Sub) instruction()           {}
func (Mul) instruction()           {}
func (Div) instruction()           {}
func (Copy) instruction()          {}
func (Push) instruction()          {}
func (Delete) instruction()        {}
func (Out) instruction()           {}
func (OutText) instruction()       {}
func (Jump) instruction()          {}
func (JumpIfZero) instruction()    {}
func (JumpIfNotZero) instruction() {}
func (Branch) instruction()        {}

func arithString(op Opcode, dst, src1, src2 int) string {
	return fmt.Sprintf("%s %s, %s, %s", op, reg(dst), reg(src1), reg(src2))
}

func (i Add) String() string { return arithString(OpAdd, i.Dst, i.Src1, i.Src2) }
func (i Sub) String() string { return arithString(OpSub, i.Dst, i.Src1, i.Src2) }
func (i Mul) String() string { return arithString(OpMul, i.Dst, i.Src1, i.Src2) }
func (i Div) String() string { return arithString(OpDiv, i.Dst, i.Src1, i.Src2) }

func (i Copy) String() string {
	return fmt.Sprintf("%s %s, %s", OpCopy, reg(i.Dst), reg(i.Src))
}

func (i Push) String() string {
	return fmt.Sprintf("%s %d", OpPush, i.Val)
}

func (i Delete) String() string {
	return fmt.Sprintf("%s %s", OpDelete, reg(i.Src))
}

func (i Out) String() string {
	return fmt.Sprintf("%s %s", OpOut, reg(i.Src))
}

func (i OutText) String() string {
	return fmt.Sprintf("%s %q", OpOutText, i.Text)
}

func (i Jump) String() string {
	return fmt.Sprintf("%s %d", OpJump, i.Target)
}

func (i JumpIfZero) String() string {
	return fmt.Sprintf("%s %s, %d", OpJumpIfZero, reg(i.Src), i.Target)
}

func (i JumpIfNotZero) String() string {
	return fmt.Sprintf("%s %s, %d", OpJumpIfNotZero, reg(i.Src), i.Target)
}

func (i Branch) String() string {
	return fmt.Sprintf("%s %s -> %d : %d", OpBranch, i.Cmp, i.Then, i.Else)
}
