package compiler

import (
	"math"
	"unicode"
)

// MaxLiteral is the largest accepted integer literal. It is one past
// math.MaxInt32 so that -2147483648 can be written.
const MaxLiteral = math.MaxInt32 + 1

// keywords maps source text to its keyword TokenType.
var keywords = map[string]TokenType{
	"begin": BEGIN,
	"end":   END,
	"const": CONST,
	"var":   VAR,
	"print": PRINT,
}

var operators = map[rune]TokenType{
	'+': PLUS,
	'-': MINUS,
	'*': MULT,
	'/': DIV,
	'=': EQUAL,
	';': SEMICOLON,
	'(': LPAREN,
	')': RPAREN,
}

// TokenStream is the pull interface the Analyser consumes.
type TokenStream interface {
	Next() (Token, error)
}

// Lexer holds all mutable state for a single scanning pass over src.
type Lexer struct {
	src  []rune
	pos  int // index of the next rune to consume
	line int // current 0-based source line
	col  int // current 0-based column
}

func NewLexer(src string) *Lexer {
	return &Lexer{src: []rune(src)}
}

// peek returns the rune at the current position without advancing.
func (l *Lexer) peek() rune {
	if l.pos >= len(l.src) {
		return 0
	}
	return l.src[l.pos]
}

// advance consumes one rune and returns it.
func (l *Lexer) advance() rune {
	if l.pos >= len(l.src) {
		return 0
	}
	r := l.src[l.pos]
	l.pos++
	if r == '\n' {
		l.line++
		l.col = 0
	} else {
		l.col++
	}
	return r
}

func (l *Lexer) current() Pos {
	return Pos{Line: l.line, Column: l.col}
}

func (l *Lexer) skipWhitespace() {
	for l.pos < len(l.src) && unicode.IsSpace(l.peek()) {
		l.advance()
	}
}

// scanIdent collects an identifier or keyword. Identifiers start with a
// letter and continue over letters and digits.
func (l *Lexer) scanIdent() Token {
	start := l.current()
	from := l.pos
	for l.pos < len(l.src) {
		r := l.peek()
		if !unicode.IsLetter(r) && !unicode.IsDigit(r) {
			break
		}
		l.advance()
	}
	lexeme := string(l.src[from:l.pos])
	tt := IDENTIFIER
	if kw, ok := keywords[lexeme]; ok {
		tt = kw
	}
	return Token{Type: tt, Lexeme: lexeme, Start: start, End: l.current()}
}

// scanUint collects a decimal literal. The whole literal is consumed even
// when it overflows so that the error points at its first digit.
func (l *Lexer) scanUint() (Token, error) {
	start := l.current()
	from := l.pos
	var v uint64
	overflow := false
	for l.pos < len(l.src) && isDigit(l.peek()) {
		d := l.advance()
		if !overflow {
			v = v*10 + uint64(d-'0')
			overflow = v > MaxLiteral
		}
	}
	if overflow {
		return Token{}, &CompileError{Code: IntegerOverflow, Pos: start}
	}
	return Token{Type: UINT, Lexeme: string(l.src[from:l.pos]), Value: v, Start: start, End: l.current()}, nil
}

func isDigit(r rune) bool {
	return r >= '0' && r <= '9'
}

// Next skips whitespace and returns the next Token. After the end of input
// it keeps returning EOF.
func (l *Lexer) Next() (Token, error) {
	l.skipWhitespace()
	if l.pos >= len(l.src) {
		p := l.current()
		return Token{Type: EOF, Start: p, End: p}, nil
	}

	ch := l.peek()
	if isDigit(ch) {
		return l.scanUint()
	}
	if unicode.IsLetter(ch) {
		return l.scanIdent(), nil
	}

	start := l.current()
	l.advance()
	tt, ok := operators[ch]
	if !ok {
		return Token{}, &CompileError{Code: InvalidInput, Pos: start}
	}
	return Token{Type: tt, Lexeme: string(ch), Start: start, End: l.current()}, nil
}

// Lex tokenises src and returns all tokens including the final EOF token.
// It returns a non-nil error on the first illegal character or oversized
// literal.
func Lex(src string) ([]Token, error) {
	l := NewLexer(src)
	var tokens []Token
	for {
		tok, err := l.Next()
		if err != nil {
			return tokens, err
		}
		tokens = append(tokens, tok)
		if tok.Type == EOF {
			return tokens, nil
		}
	}
}
