package compiler

import "fmt"

// TokenType identifies the category of a lexed token.
type TokenType int

const (
	EOF TokenType = iota // sentinel: end of input

	// Keywords
	BEGIN // "begin"
	END   // "end"
	CONST // "const"
	VAR   // "var"
	PRINT // "print"

	// Literals
	IDENTIFIER // name
	UINT       // unsigned decimal literal

	// Operators
	PLUS  // +
	MINUS // -
	MULT  // *
	DIV   // /
	EQUAL // =

	// Punctuation
	SEMICOLON // ;
	LPAREN    // (
	RPAREN    // )
)

var tokenNames = [...]string{
	EOF:        "EOF",
	BEGIN:      "BEGIN",
	END:        "END",
	CONST:      "CONST",
	VAR:        "VAR",
	PRINT:      "PRINT",
	IDENTIFIER: "IDENTIFIER",
	UINT:       "UINT",
	PLUS:       "PLUS",
	MINUS:      "MINUS",
	MULT:       "MULT",
	DIV:        "DIV",
	EQUAL:      "EQUAL",
	SEMICOLON:  "SEMICOLON",
	LPAREN:     "LPAREN",
	RPAREN:     "RPAREN",
}

func (tt TokenType) String() string {
	if int(tt) >= 0 && int(tt) < len(tokenNames) {
		return tokenNames[tt]
	}
	return fmt.Sprintf("TokenType(%d)", int(tt))
}

// Pos is a 0-based source position.
type Pos struct {
	Line   int
	Column int
}

func (p Pos) String() string {
	return fmt.Sprintf("line %d, column %d", p.Line+1, p.Column+1)
}

// Token is a single lexical unit produced by the Lexer.
//
// Lexeme holds the identifier or keyword text; Value holds the parsed value
// of a UINT literal. Start is inclusive, End exclusive.
type Token struct {
	Type   TokenType
	Lexeme string
	Value  uint64
	Start  Pos
	End    Pos
}

func (t Token) String() string {
	switch t.Type {
	case UINT:
		return fmt.Sprintf("%-10s %-14d  %s", t.Type, t.Value, t.Start)
	case EOF:
		return fmt.Sprintf("%-10s %-14s  %s", t.Type, "", t.Start)
	}
	return fmt.Sprintf("%-10s %-14q  %s", t.Type, t.Lexeme, t.Start)
}
