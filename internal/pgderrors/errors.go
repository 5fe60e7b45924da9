// Package pgderrors defines the typed error taxonomy (Kind) that lets
// callers branch on Kind instead of matching message strings. Not every
// error in the module is one of these: the planner's cycle error and
// the fmt.Errorf errors of internal/emitter, internal/fingerprint,
// internal/include and internal/cliutil carry no Kind.
package pgderrors

import "fmt"

// Kind classifies a failure the way the core reports it to callers.
type Kind int

const (
	Parse Kind = iota
	Introspection
	DuplicateEntity
	DanglingReference
	InvalidFilter
	IncompatibleChange
	Validation
	Execution
	LintFailed
)

func (k Kind) String() string {
	switch k {
	case Parse:
		return "parse"
	case Introspection:
		return "introspection"
	case DuplicateEntity:
		return "duplicate_entity"
	case DanglingReference:
		return "dangling_reference"
	case InvalidFilter:
		return "invalid_filter"
	case IncompatibleChange:
		return "incompatible_change"
	case Validation:
		return "validation"
	case Execution:
		return "execution"
	case LintFailed:
		return "lint_failed"
	default:
		return "unknown"
	}
}

// Error is the structured failure report described in spec §7: a kind,
// a message, and — where relevant — the statement index, offending SQL,
// and server message from a failed apply.
type Error struct {
	Kind      Kind
	Message   string
	StmtIndex int
	SQL       string
	ServerMsg string
	Err       error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *Error) Unwrap() error { return e.Err }

// New builds a Kind-tagged error with no wrapped cause.
func New(kind Kind, message string) *Error {
	return &Error{Kind: kind, Message: message}
}

// Newf builds a Kind-tagged error with a formatted message.
func Newf(kind Kind, format string, args ...any) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

// Wrap attaches a Kind and message to an existing cause.
func Wrap(kind Kind, err error, message string) *Error {
	return &Error{Kind: kind, Message: message, Err: err}
}

// NewExecution builds the Execution-kind error carrying apply-time detail.
func NewExecution(stmtIndex int, sql, serverMsg string, err error) *Error {
	return &Error{
		Kind:      Execution,
		Message:   "statement failed during apply",
		StmtIndex: stmtIndex,
		SQL:       sql,
		ServerMsg: serverMsg,
		Err:       err,
	}
}
