package vm

import (
	"bytes"
	"errors"
	"math"
	"reflect"
	"strings"
	"testing"
)

func lit(x int32) Instruction { return InsX(OpLIT, x) }

func runProgram(t *testing.T, program ...Instruction) (*VM, []int32, error) {
	t.Helper()
	var out Recorder
	m := NewVM(program, &out)
	err := m.Run()
	return m, out.Values, err
}

func TestOpcodes(t *testing.T) {
	tests := []struct {
		name    string
		program []Instruction
		stack   []int32
		output  []int32
	}{
		{"LIT", []Instruction{lit(5), lit(-1)}, []int32{5, -1}, nil},
		{"LOD", []Instruction{lit(5), lit(6), InsX(OpLOD, 0)}, []int32{5, 6, 5}, nil},
		{"STO", []Instruction{lit(5), lit(6), lit(9), InsX(OpSTO, 0)}, []int32{9, 6}, nil},
		{"ADD", []Instruction{lit(2), lit(3), Ins(OpADD)}, []int32{5}, nil},
		{"SUB", []Instruction{lit(2), lit(3), Ins(OpSUB)}, []int32{-1}, nil},
		{"MUL", []Instruction{lit(-4), lit(3), Ins(OpMUL)}, []int32{-12}, nil},
		{"DIV", []Instruction{lit(7), lit(2), Ins(OpDIV)}, []int32{3}, nil},
		{"DIV truncates toward zero", []Instruction{lit(-7), lit(2), Ins(OpDIV)}, []int32{-3}, nil},
		{"WRT", []Instruction{lit(1), lit(2), Ins(OpWRT)}, []int32{1}, []int32{2}},
		{"ADD wraps", []Instruction{lit(math.MaxInt32), lit(1), Ins(OpADD)}, []int32{math.MinInt32}, nil},
		{"SUB wraps", []Instruction{lit(0), lit(math.MinInt32), Ins(OpSUB)}, []int32{math.MinInt32}, nil},
		{"MUL wraps", []Instruction{lit(65536), lit(65536), Ins(OpMUL)}, []int32{0}, nil},
		{"DIV min by minus one", []Instruction{lit(math.MinInt32), lit(-1), Ins(OpDIV)}, []int32{math.MinInt32}, nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m, out, err := runProgram(t, tt.program...)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if !reflect.DeepEqual(m.Stack, tt.stack) {
				t.Errorf("stack: expected %v, got %v", tt.stack, m.Stack)
			}
			if !reflect.DeepEqual(out, tt.output) {
				t.Errorf("output: expected %v, got %v", tt.output, out)
			}
			if !m.Halted {
				t.Errorf("expected VM to halt at the end of the program")
			}
			if m.IP != len(tt.program) {
				t.Errorf("IP: expected %d, got %d", len(tt.program), m.IP)
			}
			if m.Executed != uint64(len(tt.program)) {
				t.Errorf("Executed: expected %d, got %d", len(tt.program), m.Executed)
			}
		})
	}
}

func TestFaults(t *testing.T) {
	tests := []struct {
		name    string
		program []Instruction
		err     error
		ip      int
		output  []int32
	}{
		{"ADD underflow", []Instruction{lit(1), Ins(OpADD)}, ErrStackUnderflow, 1, nil},
		{"WRT on empty stack", []Instruction{Ins(OpWRT)}, ErrStackUnderflow, 0, nil},
		{"STO on empty stack", []Instruction{InsX(OpSTO, 0)}, ErrStackUnderflow, 0, nil},
		{"LOD out of range", []Instruction{lit(1), InsX(OpLOD, 1)}, ErrIndexOutOfRange, 1, nil},
		{"LOD negative", []Instruction{lit(1), InsX(OpLOD, -1)}, ErrIndexOutOfRange, 1, nil},
		{"STO into the popped slot", []Instruction{lit(1), lit(2), InsX(OpSTO, 1)}, ErrIndexOutOfRange, 2, nil},
		{"Division by zero", []Instruction{lit(1), lit(0), Ins(OpDIV)}, ErrDivisionByZero, 2, nil},
		{"Output before fault", []Instruction{lit(1), Ins(OpWRT), lit(1), lit(0), Ins(OpDIV)}, ErrDivisionByZero, 4, []int32{1}},
		{"ILL", []Instruction{lit(1), Ins(OpILL)}, ErrIllegalInstruction, 1, nil},
		{"Unknown opcode", []Instruction{{Op: Opcode(200)}}, ErrIllegalInstruction, 0, nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m, out, err := runProgram(t, tt.program...)
			if !errors.Is(err, tt.err) {
				t.Fatalf("expected %v, got %v", tt.err, err)
			}
			var re *RuntimeError
			if !errors.As(err, &re) {
				t.Fatalf("expected *RuntimeError, got %T", err)
			}
			if re.IP != tt.ip || m.IP != tt.ip {
				t.Errorf("fault IP: expected %d, got %d (vm at %d)", tt.ip, re.IP, m.IP)
			}
			if !m.Halted {
				t.Errorf("expected VM to halt after a fault")
			}
			if !reflect.DeepEqual(out, tt.output) {
				t.Errorf("output: expected %v, got %v", tt.output, out)
			}
			if m.Executed != uint64(tt.ip) {
				t.Errorf("Executed: expected %d, got %d", tt.ip, m.Executed)
			}
		})
	}
}

func TestFaultLeavesStackUnchanged(t *testing.T) {
	m, _, err := runProgram(t, lit(4), lit(0), Ins(OpDIV))
	if err == nil {
		t.Fatalf("expected fault")
	}
	if !reflect.DeepEqual(m.Stack, []int32{4, 0}) {
		t.Errorf("expected stack [4 0], got %v", m.Stack)
	}
	// Stepping a halted VM is a no-op.
	if err := m.Step(); err != nil || m.IP != 2 {
		t.Errorf("Step after halt: err=%v ip=%d", err, m.IP)
	}
}

func TestFaultName(t *testing.T) {
	tests := []struct {
		err  error
		name string
	}{
		{&RuntimeError{Err: ErrStackUnderflow}, "StackUnderflow"},
		{&RuntimeError{Err: ErrIndexOutOfRange}, "IndexOutOfRange"},
		{&RuntimeError{Err: ErrDivisionByZero}, "DivisionByZero"},
		{&RuntimeError{Err: ErrIllegalInstruction}, "IllegalInstruction"},
		{errors.New("other"), ""},
	}
	for _, tt := range tests {
		if got := FaultName(tt.err); got != tt.name {
			t.Errorf("FaultName(%v): expected %q, got %q", tt.err, tt.name, got)
		}
	}
}

type failingSink struct{}

func (failingSink) Emit(int32) error { return errors.New("disk full") }

func TestSinkError(t *testing.T) {
	m := NewVM([]Instruction{lit(1), Ins(OpWRT)}, failingSink{})
	err := m.Run()
	if err == nil || !strings.Contains(err.Error(), "disk full") {
		t.Fatalf("expected sink error, got %v", err)
	}
	if FaultName(err) != "" {
		t.Errorf("sink errors are not VM faults")
	}
	if len(m.Stack) != 1 {
		t.Errorf("stack should keep the unwritten value, got %v", m.Stack)
	}
}

func TestLineWriter(t *testing.T) {
	var buf bytes.Buffer
	err := Run([]Instruction{lit(3), Ins(OpWRT), lit(-3), Ins(OpWRT)}, LineWriter{W: &buf})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if buf.String() != "3\n-3\n" {
		t.Errorf("expected %q, got %q", "3\n-3\n", buf.String())
	}
}

func TestTrace(t *testing.T) {
	var trace bytes.Buffer
	m := NewVM([]Instruction{lit(2), lit(3), Ins(OpADD)}, &Recorder{})
	m.Trace = &trace
	if err := m.Run(); err != nil {
		t.Fatalf("Run: %v", err)
	}
	lines := strings.Split(strings.TrimRight(trace.String(), "\n"), "\n")
	if len(lines) != 3 {
		t.Fatalf("expected 3 trace lines, got %d: %q", len(lines), trace.String())
	}
	if lines[2] != "0002  ADD      [5]" {
		t.Errorf("unexpected trace line %q", lines[2])
	}
}

func TestInstructionString(t *testing.T) {
	tests := []struct {
		in       Instruction
		expected string
	}{
		{InsX(OpLIT, -5), "LIT -5"},
		{InsX(OpLOD, 0), "LOD 0"},
		{InsX(OpSTO, 3), "STO 3"},
		{Ins(OpADD), "ADD"},
		{Ins(OpSUB), "SUB"},
		{Ins(OpMUL), "MUL"},
		{Ins(OpDIV), "DIV"},
		{Ins(OpWRT), "WRT"},
		{Ins(OpILL), "ILL"},
		{Instruction{Op: Opcode(99), X: 4}, "ILL"},
	}
	for _, tt := range tests {
		if got := tt.in.String(); got != tt.expected {
			t.Errorf("expected %q, got %q", tt.expected, got)
		}
	}
}

func TestLookupOpcode(t *testing.T) {
	for op := OpILL; op <= OpWRT; op++ {
		got, ok := LookupOpcode(op.String())
		if !ok || got != op {
			t.Errorf("LookupOpcode(%q) = %v, %t", op.String(), got, ok)
		}
	}
	if _, ok := LookupOpcode("JMP"); ok {
		t.Errorf("LookupOpcode(JMP) should fail")
	}
}
