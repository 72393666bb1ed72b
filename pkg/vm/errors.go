package vm

import (
	"errors"
	"fmt"
)

var (
	ErrStackUnderflow     = errors.New("stack underflow")
	ErrIndexOutOfRange    = errors.New("stack index out of range")
	ErrDivisionByZero     = errors.New("division by zero")
	ErrIllegalInstruction = errors.New("illegal instruction")
)

// RuntimeError is a fault raised while executing the instruction at IP.
// Err is one of the package sentinels, or the sink's error for a failed WRT.
type RuntimeError struct {
	Err   error
	IP    int
	Instr Instruction
}

func (e *RuntimeError) Error() string {
	return fmt.Sprintf("ip %d (%s): %v", e.IP, e.Instr, e.Err)
}

func (e *RuntimeError) Unwrap() error {
	return e.Err
}

// FaultName returns the short name of a runtime fault sentinel wrapped by
// err, or "" when err is not a known fault.
func FaultName(err error) string {
	switch {
	case errors.Is(err, ErrStackUnderflow):
		return "StackUnderflow"
	case errors.Is(err, ErrIndexOutOfRange):
		return "IndexOutOfRange"
	case errors.Is(err, ErrDivisionByZero):
		return "DivisionByZero"
	case errors.Is(err, ErrIllegalInstruction):
		return "IllegalInstruction"
	}
	return ""
}
