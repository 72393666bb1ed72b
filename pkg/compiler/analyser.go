package compiler

import (
	"miniplc0/pkg/vm"
)

// Analyser parses the token stream, checks declarations and emits VM
// instructions in a single recursive-descent pass. There is no AST: each
// rule appends its code as soon as it has been recognised.
//
// Grammar:
//
//	program    = "begin" main "end" EOF
//	main       = constDecl* varDecl* stmtSeq
//	constDecl  = "const" IDENTIFIER "=" ("+" | "-")? UINT ";"
//	varDecl    = "var" IDENTIFIER ("=" expression)? ";"
//	stmtSeq    = (assignment | print | ";")*
//	assignment = IDENTIFIER "=" expression ";"
//	print      = "print" "(" expression ")" ";"
//	expression = term (("+" | "-") term)*
//	term       = factor (("*" | "/") factor)*
//	factor     = ("+" | "-")? (IDENTIFIER | UINT | "(" expression ")")
type Analyser struct {
	tokens TokenStream
	peeked *Token

	syms         *SymbolTable
	instructions []vm.Instruction
}

func NewAnalyser(tokens TokenStream) *Analyser {
	return &Analyser{tokens: tokens, syms: NewSymbolTable()}
}

// Analyse compiles a whole program read from tokens.
func Analyse(tokens TokenStream) ([]vm.Instruction, error) {
	return NewAnalyser(tokens).Analyse()
}

// Analyse runs the analysis. On error the partially emitted code is
// discarded.
func (a *Analyser) Analyse() ([]vm.Instruction, error) {
	if err := a.parseProgram(); err != nil {
		return nil, err
	}
	return a.instructions, nil
}

// Symbols exposes the symbol table built so far.
func (a *Analyser) Symbols() *SymbolTable {
	return a.syms
}

// peek returns the next token without consuming it.
func (a *Analyser) peek() (Token, error) {
	if a.peeked == nil {
		tok, err := a.tokens.Next()
		if err != nil {
			return Token{}, err
		}
		a.peeked = &tok
	}
	return *a.peeked, nil
}

// next consumes and returns the next token.
func (a *Analyser) next() (Token, error) {
	if a.peeked != nil {
		tok := *a.peeked
		a.peeked = nil
		return tok, nil
	}
	return a.tokens.Next()
}

// nextIf consumes the next token if it has type tt.
func (a *Analyser) nextIf(tt TokenType) (Token, bool, error) {
	tok, err := a.peek()
	if err != nil {
		return Token{}, false, err
	}
	if tok.Type != tt {
		return tok, false, nil
	}
	a.peeked = nil
	return tok, true, nil
}

// expect consumes the next token if it has type tt, otherwise it fails
// without consuming anything.
func (a *Analyser) expect(tt TokenType) (Token, error) {
	tok, err := a.peek()
	if err != nil {
		return Token{}, err
	}
	if tok.Type != tt {
		return tok, expected(tok, tt)
	}
	a.peeked = nil
	return tok, nil
}

func expected(found Token, tts ...TokenType) error {
	return &CompileError{Code: ExpectedToken, Pos: found.Start, Expected: tts, Found: found}
}

func semantic(code ErrorCode, tok Token) error {
	return &CompileError{Code: code, Pos: tok.Start, Name: tok.Lexeme}
}

func (a *Analyser) emit(op vm.Opcode) {
	a.instructions = append(a.instructions, vm.Ins(op))
}

func (a *Analyser) emitX(op vm.Opcode, x int32) {
	a.instructions = append(a.instructions, vm.InsX(op, x))
}

// literal converts a UINT token to its 32-bit operand. MaxLiteral wraps to
// math.MinInt32.
func literal(tok Token) int32 {
	return int32(uint32(tok.Value))
}

func (a *Analyser) parseProgram() error {
	if _, err := a.expect(BEGIN); err != nil {
		return err
	}
	if err := a.parseMain(); err != nil {
		return err
	}
	if _, err := a.expect(END); err != nil {
		return err
	}
	_, err := a.expect(EOF)
	return err
}

func (a *Analyser) parseMain() error {
	if err := a.parseConstDecls(); err != nil {
		return err
	}
	if err := a.parseVarDecls(); err != nil {
		return err
	}
	return a.parseStatements()
}

// declare registers name, failing on duplicates.
func (a *Analyser) declare(name Token, constant, initialized bool) error {
	if _, ok := a.syms.Declare(name.Lexeme, constant, initialized); !ok {
		return semantic(DuplicateDeclaration, name)
	}
	return nil
}

func (a *Analyser) parseConstDecls() error {
	for {
		_, ok, err := a.nextIf(CONST)
		if err != nil {
			return err
		}
		if !ok {
			return nil
		}

		name, err := a.expect(IDENTIFIER)
		if err != nil {
			return err
		}
		if err := a.declare(name, true, true); err != nil {
			return err
		}
		if _, err := a.expect(EQUAL); err != nil {
			return err
		}
		value, err := a.parseConstExpr()
		if err != nil {
			return err
		}
		if _, err := a.expect(SEMICOLON); err != nil {
			return err
		}

		// The constant lives in its own stack slot like a variable.
		a.emitX(vm.OpLIT, value)
	}
}

// parseConstExpr reads an optionally signed literal.
func (a *Analyser) parseConstExpr() (int32, error) {
	negative := false
	tok, err := a.peek()
	if err != nil {
		return 0, err
	}
	switch tok.Type {
	case PLUS:
		a.peeked = nil
	case MINUS:
		a.peeked = nil
		negative = true
	}

	lit, err := a.expect(UINT)
	if err != nil {
		return 0, err
	}
	v := literal(lit)
	if negative {
		v = -v
	}
	return v, nil
}

func (a *Analyser) parseVarDecls() error {
	for {
		_, ok, err := a.nextIf(VAR)
		if err != nil {
			return err
		}
		if !ok {
			return nil
		}

		name, err := a.expect(IDENTIFIER)
		if err != nil {
			return err
		}

		_, initialized, err := a.nextIf(EQUAL)
		if err != nil {
			return err
		}
		if initialized {
			// The initializer's value is left on the stack as the slot.
			if err := a.parseExpression(); err != nil {
				return err
			}
		}
		if _, err := a.expect(SEMICOLON); err != nil {
			return err
		}

		// Registered after the initializer, which therefore cannot refer
		// to the name being declared.
		if err := a.declare(name, false, initialized); err != nil {
			return err
		}
		if !initialized {
			a.emitX(vm.OpLIT, 0)
		}
	}
}

func (a *Analyser) parseStatements() error {
	for {
		tok, err := a.peek()
		if err != nil {
			return err
		}
		switch tok.Type {
		case IDENTIFIER:
			err = a.parseAssignment()
		case PRINT:
			err = a.parsePrint()
		case SEMICOLON:
			a.peeked = nil
		default:
			return nil
		}
		if err != nil {
			return err
		}
	}
}

func (a *Analyser) parseAssignment() error {
	name, err := a.expect(IDENTIFIER)
	if err != nil {
		return err
	}
	sym, ok := a.syms.Lookup(name.Lexeme)
	if !ok {
		return semantic(NotDeclared, name)
	}
	if sym.Constant {
		return semantic(AssignToConstant, name)
	}
	a.syms.MarkInitialized(name.Lexeme)

	if _, err := a.expect(EQUAL); err != nil {
		return err
	}
	if err := a.parseExpression(); err != nil {
		return err
	}
	if _, err := a.expect(SEMICOLON); err != nil {
		return err
	}
	a.emitX(vm.OpSTO, int32(sym.Offset))
	return nil
}

func (a *Analyser) parsePrint() error {
	if _, err := a.expect(PRINT); err != nil {
		return err
	}
	if _, err := a.expect(LPAREN); err != nil {
		return err
	}
	if err := a.parseExpression(); err != nil {
		return err
	}
	if _, err := a.expect(RPAREN); err != nil {
		return err
	}
	if _, err := a.expect(SEMICOLON); err != nil {
		return err
	}
	a.emit(vm.OpWRT)
	return nil
}

// parseExpression handles + and -
func (a *Analyser) parseExpression() error {
	if err := a.parseTerm(); err != nil {
		return err
	}
	for {
		op, err := a.peek()
		if err != nil {
			return err
		}
		if op.Type != PLUS && op.Type != MINUS {
			return nil
		}
		a.peeked = nil

		if err := a.parseTerm(); err != nil {
			return err
		}
		if op.Type == PLUS {
			a.emit(vm.OpADD)
		} else {
			a.emit(vm.OpSUB)
		}
	}
}

// parseTerm handles * and /
func (a *Analyser) parseTerm() error {
	if err := a.parseFactor(); err != nil {
		return err
	}
	for {
		op, err := a.peek()
		if err != nil {
			return err
		}
		if op.Type != MULT && op.Type != DIV {
			return nil
		}
		a.peeked = nil

		if err := a.parseFactor(); err != nil {
			return err
		}
		if op.Type == MULT {
			a.emit(vm.OpMUL)
		} else {
			a.emit(vm.OpDIV)
		}
	}
}

// parseFactor handles an operand with an optional sign. Negation has no
// opcode of its own: -x is emitted as 0 - x.
func (a *Analyser) parseFactor() error {
	tok, err := a.peek()
	if err != nil {
		return err
	}
	negate := false
	switch tok.Type {
	case MINUS:
		a.peeked = nil
		negate = true
		a.emitX(vm.OpLIT, 0)
	case PLUS:
		a.peeked = nil
	}

	tok, err = a.next()
	if err != nil {
		return err
	}
	switch tok.Type {
	case IDENTIFIER:
		sym, ok := a.syms.Lookup(tok.Lexeme)
		if !ok {
			return semantic(NotDeclared, tok)
		}
		if !sym.Initialized {
			return semantic(NotInitialized, tok)
		}
		a.emitX(vm.OpLOD, int32(sym.Offset))
	case UINT:
		a.emitX(vm.OpLIT, literal(tok))
	case LPAREN:
		if err := a.parseExpression(); err != nil {
			return err
		}
		if _, err := a.expect(RPAREN); err != nil {
			return err
		}
	default:
		return expected(tok, IDENTIFIER, UINT, LPAREN)
	}

	if negate {
		a.emit(vm.OpSUB)
	}
	return nil
}
