package compiler

import (
	"fmt"
	"strings"
)

// Symbol is one declared name.
type Symbol struct {
	Name        string
	Constant    bool
	Initialized bool
	// Offset is the absolute VM stack slot holding the value.
	Offset int
}

// SymbolTable is the flat, insertion-ordered namespace of one compilation.
// Offsets are handed out from 0 in declaration order and never reused, so
// they match the order in which declaration code pushes values at runtime.
type SymbolTable struct {
	index   map[string]int
	symbols []Symbol
}

func NewSymbolTable() *SymbolTable {
	return &SymbolTable{index: make(map[string]int)}
}

// Declare adds name at the next free offset. If name already exists the
// existing symbol is returned with ok == false and the table is unchanged.
func (s *SymbolTable) Declare(name string, constant, initialized bool) (Symbol, bool) {
	if i, exists := s.index[name]; exists {
		return s.symbols[i], false
	}
	sym := Symbol{
		Name:        name,
		Constant:    constant,
		Initialized: initialized,
		Offset:      len(s.symbols),
	}
	s.index[name] = len(s.symbols)
	s.symbols = append(s.symbols, sym)
	return sym, true
}

// Lookup returns the symbol and whether it was found.
func (s *SymbolTable) Lookup(name string) (Symbol, bool) {
	i, ok := s.index[name]
	if !ok {
		return Symbol{}, false
	}
	return s.symbols[i], true
}

// MarkInitialized flips the initialized flag of name. It reports false if
// name is not declared.
func (s *SymbolTable) MarkInitialized(name string) bool {
	i, ok := s.index[name]
	if !ok {
		return false
	}
	s.symbols[i].Initialized = true
	return true
}

// Len returns the number of declared names, which is also the next offset.
func (s *SymbolTable) Len() int {
	return len(s.symbols)
}

// Symbols returns a copy of all symbols in declaration order.
func (s *SymbolTable) Symbols() []Symbol {
	out := make([]Symbol, len(s.symbols))
	copy(out, s.symbols)
	return out
}

// String returns a dump of the table in offset order.
func (s *SymbolTable) String() string {
	if len(s.symbols) == 0 {
		return "Symbols: (empty)\n"
	}
	var sb strings.Builder
	sb.WriteString("Symbols:\n")
	for _, sym := range s.symbols {
		kind := "var"
		if sym.Constant {
			kind = "const"
		}
		fmt.Fprintf(&sb, "  %-20s  Offset: %d (%s, initialized: %t)\n", sym.Name, sym.Offset, kind, sym.Initialized)
	}
	return sb.String()
}
