// Package compiler provides the lexer and the single-pass analyser that
// translate miniplc0 source into VM instructions.
//
// Pipeline: source → Lexer (TokenStream) → Analyser → []vm.Instruction
package compiler
