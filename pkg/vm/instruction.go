package vm

import "fmt"

// Opcode identifies a single VM operation.
type Opcode uint8

const (
	OpILL Opcode = iota // illegal instruction; never emitted by the analyser
	OpLIT               // push operand
	OpLOD               // push stack[operand]
	OpSTO               // pop v; stack[operand] = v
	OpADD               // pop b, a; push a + b
	OpSUB               // pop b, a; push a - b
	OpMUL               // pop b, a; push a * b
	OpDIV               // pop b, a; push a / b
	OpWRT               // pop v; emit v
)

var opcodeNames = [...]string{
	OpILL: "ILL",
	OpLIT: "LIT",
	OpLOD: "LOD",
	OpSTO: "STO",
	OpADD: "ADD",
	OpSUB: "SUB",
	OpMUL: "MUL",
	OpDIV: "DIV",
	OpWRT: "WRT",
}

func (op Opcode) String() string {
	if int(op) < len(opcodeNames) {
		return opcodeNames[op]
	}
	return fmt.Sprintf("Opcode(%d)", int(op))
}

// HasOperand reports whether the textual form of op carries an operand.
func (op Opcode) HasOperand() bool {
	switch op {
	case OpLIT, OpLOD, OpSTO:
		return true
	default:
		return false
	}
}

// LookupOpcode returns the opcode with the given mnemonic.
func LookupOpcode(name string) (Opcode, bool) {
	for i, n := range opcodeNames {
		if n == name {
			return Opcode(i), true
		}
	}
	return OpILL, false
}

// Instruction is one opcode plus its operand. Operand is zero for opcodes
// that take none.
type Instruction struct {
	Op Opcode
	X  int32
}

func Ins(op Opcode) Instruction { return Instruction{Op: op} }

func InsX(op Opcode, x int32) Instruction { return Instruction{Op: op, X: x} }

func (in Instruction) String() string {
	switch in.Op {
	case OpLIT, OpLOD, OpSTO:
		return fmt.Sprintf("%s %d", in.Op, in.X)
	case OpADD, OpDIV, OpILL, OpMUL, OpSUB, OpWRT:
		return in.Op.String()
	default:
		return "ILL"
	}
}
