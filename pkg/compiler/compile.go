package compiler

import (
	"miniplc0/pkg/vm"
)

// Compile lexes and analyses src. The returned symbol table is the one the
// analyser built, populated as far as analysis got even when err != nil.
func Compile(src string) ([]vm.Instruction, *SymbolTable, error) {
	a := NewAnalyser(NewLexer(src))
	program, err := a.Analyse()
	if err != nil {
		return nil, a.Symbols(), err
	}
	return program, a.Symbols(), nil
}
