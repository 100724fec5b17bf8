package coder

import "fmt"

// Op is a relational operator a coder can decode.
type Op uint8

const (
	OpEqual Op = iota + 1
	OpNotEqual
	OpLessThan
	OpLessEqual
	OpGreaterThan
	OpGreaterEqual
)

var opSymbols = [...]string{
	OpEqual:        "==",
	OpNotEqual:     "!=",
	OpLessThan:     "<",
	OpLessEqual:    "<=",
	OpGreaterThan:  ">",
	OpGreaterEqual: ">=",
}

func (op Op) String() string {
	if op.Valid() {
		return opSymbols[op]
	}
	return fmt.Sprintf("op(%d)", uint8(op))
}

// Valid reports whether op is a known operator.
func (op Op) Valid() bool { return op >= OpEqual && op <= OpGreaterEqual }

// Ordering reports whether op compares by order rather than identity.
func (op Op) Ordering() bool { return op >= OpLessThan && op <= OpGreaterEqual }

// Negate returns the operator matching exactly the rows op does not match
// among rows that hold a value.
func (op Op) Negate() Op {
	switch op {
	case OpEqual:
		return OpNotEqual
	case OpNotEqual:
		return OpEqual
	case OpLessThan:
		return OpGreaterEqual
	case OpLessEqual:
		return OpGreaterThan
	case OpGreaterThan:
		return OpLessEqual
	case OpGreaterEqual:
		return OpLessThan
	default:
		return op
	}
}

// Flip returns the operator obtained by swapping the operands, so that
// "a op b" equals "b op.Flip() a".
func (op Op) Flip() Op {
	switch op {
	case OpLessThan:
		return OpGreaterThan
	case OpLessEqual:
		return OpGreaterEqual
	case OpGreaterThan:
		return OpLessThan
	case OpGreaterEqual:
		return OpLessEqual
	default:
		return op
	}
}

// ParseOp parses the symbolic form of an operator, for example "<=".
func ParseOp(s string) (Op, error) {
	switch s {
	case "==", "=":
		return OpEqual, nil
	case "!=":
		return OpNotEqual, nil
	case "<":
		return OpLessThan, nil
	case "<=":
		return OpLessEqual, nil
	case ">":
		return OpGreaterThan, nil
	case ">=":
		return OpGreaterEqual, nil
	default:
		return 0, fmt.Errorf("%w: %q", ErrUnsupportedOperator, s)
	}
}
