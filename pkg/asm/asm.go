package asm

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"miniplc0/pkg/vm"
)

type parsedLine struct {
	lineNo   int
	mnemonic string
	operands []string
}

// Assemble parses an instruction listing, one instruction per line, back
// into a program. Blank lines and comments starting with ';' or '//' are
// ignored and mnemonics are case-insensitive.
func Assemble(code string) ([]vm.Instruction, error) {
	var program []vm.Instruction

	for i, raw := range strings.Split(code, "\n") {
		p := parseLine(raw, i+1)
		if p.mnemonic == "" {
			continue
		}

		in, err := encode(p)
		if err != nil {
			return nil, err
		}
		program = append(program, in)
	}

	return program, nil
}

// Disassemble renders program as a listing that Assemble accepts.
func Disassemble(program []vm.Instruction) string {
	var sb strings.Builder
	for _, in := range program {
		sb.WriteString(in.String())
		sb.WriteByte('\n')
	}
	return sb.String()
}

func encode(p parsedLine) (vm.Instruction, error) {
	op, ok := vm.LookupOpcode(p.mnemonic)
	if !ok {
		return vm.Instruction{}, fmt.Errorf("unknown instruction on line %d: %s", p.lineNo, p.mnemonic)
	}

	if !op.HasOperand() {
		if len(p.operands) != 0 {
			return vm.Instruction{}, fmt.Errorf("%s takes no operand on line %d", op, p.lineNo)
		}
		return vm.Ins(op), nil
	}

	if len(p.operands) != 1 {
		return vm.Instruction{}, fmt.Errorf("%s expects exactly one operand on line %d", op, p.lineNo)
	}
	x, err := parseImmediate(p.operands[0], p.lineNo)
	if err != nil {
		return vm.Instruction{}, err
	}
	return vm.InsX(op, x), nil
}

func parseLine(raw string, lineNo int) parsedLine {
	p := parsedLine{lineNo: lineNo}

	line := strings.TrimSpace(stripComments(raw))
	fields := strings.Fields(line)
	if len(fields) == 0 {
		return p
	}

	p.mnemonic = strings.ToUpper(fields[0])
	if len(fields) > 1 {
		p.operands = fields[1:]
	}
	return p
}

func stripComments(line string) string {
	semicolon := strings.Index(line, ";")
	doubleSlash := strings.Index(line, "//")

	cut := -1
	if semicolon >= 0 {
		cut = semicolon
	}
	if doubleSlash >= 0 && (cut == -1 || doubleSlash < cut) {
		cut = doubleSlash
	}
	if cut >= 0 {
		return line[:cut]
	}
	return line
}

func parseImmediate(token string, lineNo int) (int32, error) {
	value, err := strconv.ParseInt(token, 10, 32)
	if err != nil {
		if errors.Is(err, strconv.ErrRange) {
			return 0, fmt.Errorf("immediate out of range on line %d: %s", lineNo, token)
		}
		return 0, fmt.Errorf("invalid immediate '%s' on line %d", token, lineNo)
	}
	return int32(value), nil
}
