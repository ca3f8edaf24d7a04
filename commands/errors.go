package commands

import (
	"errors"
	"fmt"
	"strings"

	"github.com/davidbalbert/chatline/scan"
)

// Error classes. Every SyntaxError unwraps to exactly one of these, so
// callers can use errors.Is without switching on ErrorKind.
var (
	ErrLexical         = errors.New("malformed token")
	ErrRange           = errors.New("value out of range")
	ErrUnknownValue    = errors.New("unknown value")
	ErrGrammarMismatch = errors.New("no matching command")
	ErrSelfTarget      = errors.New("cannot target yourself")
)

type ErrorKind int

const (
	ErrorUnknownCommand ErrorKind = iota
	ErrorUnknownArgument
	ErrorLiteralMismatch
	ErrorIncompleteCommand
	ErrorExpectedSeparator
	ErrorInvalidValue
	ErrorOutOfRange
	ErrorUnknownValue
	ErrorSelfTarget
)

func (k ErrorKind) String() string {
	switch k {
	case ErrorUnknownCommand:
		return "unknown command"
	case ErrorUnknownArgument:
		return "unknown argument"
	case ErrorLiteralMismatch:
		return "literal mismatch"
	case ErrorIncompleteCommand:
		return "incomplete command"
	case ErrorExpectedSeparator:
		return "expected separator"
	case ErrorInvalidValue:
		return "invalid value"
	case ErrorOutOfRange:
		return "out of range"
	case ErrorUnknownValue:
		return "unknown value"
	case ErrorSelfTarget:
		return "self target"
	default:
		panic("unreachable")
	}
}

func (k ErrorKind) class() error {
	switch k {
	case ErrorUnknownCommand, ErrorUnknownArgument, ErrorLiteralMismatch, ErrorIncompleteCommand:
		return ErrGrammarMismatch
	case ErrorExpectedSeparator, ErrorInvalidValue:
		return ErrLexical
	case ErrorOutOfRange:
		return ErrRange
	case ErrorUnknownValue:
		return ErrUnknownValue
	case ErrorSelfTarget:
		return ErrSelfTarget
	default:
		panic("unreachable")
	}
}

// SyntaxError is a parse-time failure. Cursor is the rune position in Input
// the error refers to, and Value is the offending text, if any.
type SyntaxError struct {
	Kind    ErrorKind
	Message string
	Input   string
	Cursor  int
	Value   string
}

func (e *SyntaxError) Error() string {
	if e.Input == "" {
		return e.Message
	}

	return fmt.Sprintf("%s at position %d: %s", e.Message, e.Cursor, e.context())
}

func (e *SyntaxError) Unwrap() error {
	return e.Kind.class()
}

const contextAmount = 10

// context renders up to contextAmount characters before the cursor,
// followed by a "<--[HERE]" marker.
func (e *SyntaxError) context() string {
	runes := []rune(e.Input)
	cursor := e.Cursor
	if cursor > len(runes) {
		cursor = len(runes)
	}

	var b strings.Builder
	if cursor > contextAmount {
		b.WriteString("...")
	}

	start := cursor - contextAmount
	if start < 0 {
		start = 0
	}

	b.WriteString(string(runes[start:cursor]))
	b.WriteString("<--[HERE]")

	return b.String()
}

// Caret renders the input and a marker under the offending column.
func (e *SyntaxError) Caret() string {
	marker := strings.Repeat(" ", e.Cursor) + "^"

	return fmt.Sprintf("%s\n%s", e.Input, marker)
}

func newSyntaxError(kind ErrorKind, input string, cursor int, value string, format string, args ...any) *SyntaxError {
	return &SyntaxError{
		Kind:    kind,
		Message: fmt.Sprintf(format, args...),
		Input:   input,
		Cursor:  cursor,
		Value:   value,
	}
}

// Errorf returns a SyntaxError positioned at the reader's cursor. Argument
// types use it to report failures.
func Errorf(kind ErrorKind, r *scan.Reader, value string, format string, args ...any) *SyntaxError {
	return newSyntaxError(kind, r.String(), r.Cursor, value, format, args...)
}

// AsSyntaxError returns err as a *SyntaxError if it is one.
func AsSyntaxError(err error) (*SyntaxError, bool) {
	var serr *SyntaxError
	if errors.As(err, &serr) {
		return serr, true
	}

	return nil, false
}
