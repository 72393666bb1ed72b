package vm

import (
	"fmt"
	"io"
	"os"
)

// Sink receives the value of every executed WRT.
type Sink interface {
	Emit(v int32) error
}

// LineWriter renders each emitted value as a decimal line on W.
type LineWriter struct {
	W io.Writer
}

func (lw LineWriter) Emit(v int32) error {
	_, err := fmt.Fprintf(lw.W, "%d\n", v)
	return err
}

// Recorder keeps every emitted value in order.
type Recorder struct {
	Values []int32
}

func (r *Recorder) Emit(v int32) error {
	r.Values = append(r.Values, v)
	return nil
}

// VM executes a linear instruction sequence. The operand stack is also the
// variable store: LOD and STO address it by absolute index.
type VM struct {
	Program []Instruction
	Stack   []int32
	IP      int

	Halted bool

	// Executed counts instructions that completed without a fault.
	Executed uint64

	// Output receives WRT values. If nil, values are written to os.Stdout.
	Output Sink

	// Trace, if set, receives one line per executed instruction.
	Trace io.Writer
}

func NewVM(program []Instruction, out Sink) *VM {
	return &VM{Program: program, Output: out}
}

// Run executes program on a fresh VM, sending output to out.
func Run(program []Instruction, out Sink) error {
	return NewVM(program, out).Run()
}

func (m *VM) outputSink() Sink {
	if m.Output != nil {
		return m.Output
	}
	return LineWriter{W: os.Stdout}
}

func (m *VM) fault(err error) error {
	m.Halted = true
	return &RuntimeError{Err: err, IP: m.IP, Instr: m.Program[m.IP]}
}

// need fails unless the stack holds at least n values.
func (m *VM) need(n int) error {
	if len(m.Stack) < n {
		return m.fault(ErrStackUnderflow)
	}
	return nil
}

func (m *VM) push(v int32) {
	m.Stack = append(m.Stack, v)
}

func (m *VM) pop() int32 {
	v := m.Stack[len(m.Stack)-1]
	m.Stack = m.Stack[:len(m.Stack)-1]
	return v
}

// Step executes the instruction at IP. The VM halts when IP runs past the
// end of the program or when an instruction faults; a faulting instruction
// leaves IP and the stack unchanged.
func (m *VM) Step() error {
	if m.Halted {
		return nil
	}
	if m.IP < 0 || m.IP >= len(m.Program) {
		m.Halted = true
		return nil
	}

	in := m.Program[m.IP]

	switch in.Op {
	case OpLIT:
		m.push(in.X)

	case OpLOD:
		if in.X < 0 || int(in.X) >= len(m.Stack) {
			return m.fault(ErrIndexOutOfRange)
		}
		m.push(m.Stack[in.X])

	case OpSTO:
		if err := m.need(1); err != nil {
			return err
		}
		// the index must still exist once the value is popped
		if in.X < 0 || int(in.X) >= len(m.Stack)-1 {
			return m.fault(ErrIndexOutOfRange)
		}
		v := m.pop()
		m.Stack[in.X] = v

	case OpADD, OpSUB, OpMUL, OpDIV:
		if err := m.need(2); err != nil {
			return err
		}
		b := m.Stack[len(m.Stack)-1]
		a := m.Stack[len(m.Stack)-2]
		var r int32
		switch in.Op {
		case OpADD:
			r = a + b
		case OpSUB:
			r = a - b
		case OpMUL:
			r = a * b
		case OpDIV:
			if b == 0 {
				return m.fault(ErrDivisionByZero)
			}
			r = a / b
		}
		m.Stack = m.Stack[:len(m.Stack)-2]
		m.push(r)

	case OpWRT:
		if err := m.need(1); err != nil {
			return err
		}
		if err := m.outputSink().Emit(m.Stack[len(m.Stack)-1]); err != nil {
			return m.fault(fmt.Errorf("write output: %w", err))
		}
		m.pop()

	default:
		// ILL and any opcode outside the instruction set.
		return m.fault(ErrIllegalInstruction)
	}

	if m.Trace != nil {
		fmt.Fprintf(m.Trace, "%04d  %-8s %v\n", m.IP, in, m.Stack)
	}

	m.Executed++
	m.IP++
	return nil
}

// Run steps until the program ends or faults.
func (m *VM) Run() error {
	for !m.Halted {
		if err := m.Step(); err != nil {
			return err
		}
	}
	return nil
}
