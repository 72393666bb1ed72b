package compiler

import (
	"errors"
	"fmt"
	"strings"
)

// ErrorCode classifies a compile-time fault.
type ErrorCode int

const (
	// tokenize faults
	InvalidInput ErrorCode = iota + 1
	IntegerOverflow

	// syntax faults
	ExpectedToken

	// semantic faults
	DuplicateDeclaration
	NotDeclared
	NotInitialized
	AssignToConstant
)

var errorCodeNames = map[ErrorCode]string{
	InvalidInput:         "InvalidInput",
	IntegerOverflow:      "IntegerOverflow",
	ExpectedToken:        "ExpectedToken",
	DuplicateDeclaration: "DuplicateDeclaration",
	NotDeclared:          "NotDeclared",
	NotInitialized:       "NotInitialized",
	AssignToConstant:     "AssignToConstant",
}

func (c ErrorCode) String() string {
	if n, ok := errorCodeNames[c]; ok {
		return n
	}
	return fmt.Sprintf("ErrorCode(%d)", int(c))
}

// ParseErrorCode returns the ErrorCode with the given name.
func ParseErrorCode(name string) (ErrorCode, bool) {
	for c, n := range errorCodeNames {
		if n == name {
			return c, true
		}
	}
	return 0, false
}

// CompileError is the single error type returned by the lexer and the
// analyser. Expected and Found are only set for ExpectedToken; Name is set
// for semantic faults.
type CompileError struct {
	Code     ErrorCode
	Pos      Pos
	Name     string
	Expected []TokenType
	Found    Token
}

func (e *CompileError) Error() string {
	return fmt.Sprintf("%s: %s", e.Pos, e.message())
}

func (e *CompileError) message() string {
	switch e.Code {
	case InvalidInput:
		return "invalid input character"
	case IntegerOverflow:
		return fmt.Sprintf("integer literal exceeds %d", MaxLiteral)
	case ExpectedToken:
		names := make([]string, len(e.Expected))
		for i, tt := range e.Expected {
			names[i] = tt.String()
		}
		return fmt.Sprintf("expected %s, got %s", strings.Join(names, " or "), e.Found.Type)
	case DuplicateDeclaration:
		return fmt.Sprintf("duplicate declaration of %q", e.Name)
	case NotDeclared:
		return fmt.Sprintf("%q is not declared", e.Name)
	case NotInitialized:
		return fmt.Sprintf("%q is used before it is initialized", e.Name)
	case AssignToConstant:
		return fmt.Sprintf("cannot assign to constant %q", e.Name)
	}
	return e.Code.String()
}

// IsTokenizeError reports whether err is a lexical fault.
func IsTokenizeError(err error) bool {
	var ce *CompileError
	if !errors.As(err, &ce) {
		return false
	}
	return ce.Code == InvalidInput || ce.Code == IntegerOverflow
}

// Diagnose renders err together with the source line it points at and a
// caret under the offending column. Errors that are not a CompileError are
// returned as plain text.
func Diagnose(err error, src string) string {
	var ce *CompileError
	if !errors.As(err, &ce) {
		return err.Error()
	}

	lines := strings.Split(src, "\n")
	snippet := "<source unavailable>"
	if ce.Pos.Line >= 0 && ce.Pos.Line < len(lines) {
		snippet = lines[ce.Pos.Line]
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "%s\n  |> %s\n", ce.Error(), snippet)
	sb.WriteString("  |> ")
	for i, r := range []rune(snippet) {
		if i >= ce.Pos.Column {
			break
		}
		if r == '\t' {
			sb.WriteByte('\t')
		} else {
			sb.WriteByte(' ')
		}
	}
	sb.WriteString("^")
	return sb.String()
}
