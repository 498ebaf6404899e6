package vm

import "fmt"

type CmpOp byte

const (
	CmpEqual CmpOp = iota
	CmpNotEqual
	CmpGreater
	CmpLess
	CmpGreaterOrEqual
	CmpLessOrEqual
)

var CmpOps = []CmpOp{
	CmpEqual,
	CmpNotEqual,
	CmpGreater,
	CmpLess,
	CmpGreaterOrEqual,
	CmpLessOrEqual,
}

func (op CmpOp) String() string {
	switch op {
	case CmpEqual:
		return "eq"
	case CmpNotEqual:
		return "ne"
	case CmpGreater:
		return "gt"
	case CmpLess:
		return "lt"
	case CmpGreaterOrEqual:
		return "ge"
	case CmpLessOrEqual:
		return "le"
	default:
		return fmt.Sprintf("cmp(%d)", byte(op))
	}
}

func ParseCmpOp(s string) (CmpOp, error) {
	for _, op := range CmpOps {
		if op.String() == s {
			return op, nil
		}
	}
	return 0, fmt.Errorf("unknown comparator %q", s)
}

// Compare applies the predicate to a and b. unknown ops never hold.
func (op CmpOp) Compare(a, b Value) bool {
	switch op {
	case CmpEqual:
		return a == b
	case CmpNotEqual:
		return a != b
	case CmpGreater:
		return a > b
	case CmpLess:
		return a < b
	case CmpGreaterOrEqual:
		return a >= b
	case CmpLessOrEqual:
		return a <= b
	}
	return false
}

// Comparison is a predicate over two registers, evaluated by Branch.
type Comparison struct {
	Op    CmpOp
	Left  int
	Right int
}

func Eq(left, right int) Comparison  { return Comparison{Op: CmpEqual, Left: left, Right: right} }
func Neq(left, right int) Comparison { return Comparison{Op: CmpNotEqual, Left: left, Right: right} }
func Gt(left, right int) Comparison  { return Comparison{Op: CmpGreater, Left: left, Right: right} }
func Lt(left, right int) Comparison  { return Comparison{Op: CmpLess, Left: left, Right: right} }
func Geq(left, right int) Comparison {
	return Comparison{Op: CmpGreaterOrEqual, Left: left, Right: right}
}
func Leq(left, right int) Comparison {
	return Comparison{Op: CmpLessOrEqual, Left: left, Right: right}
}

func (c Comparison) String() string {
	return fmt.Sprintf("%s %s, %s", c.Op, reg(c.Left), reg(c.Right))
}
