package types

import (
	"errors"
	"fmt"
)

// ErrKind classifies errors so callers can branch on intent rather than text.
type ErrKind int

const (
	ErrKindOutOfBounds       ErrKind = iota // address outside the image
	ErrKindNotWritable                      // address mapped but region forbids writes
	ErrKindInvalidValue                     // value not representable (e.g. byte > 0xFF)
	ErrKindDuplicateID                      // catalog insertion collision
	ErrKindNotFound                         // lookup by id failed
	ErrKindTransactionActive                // a transaction is already open on the image
	ErrKindTransactionState                 // operation invalid for the transaction's state
	ErrKindSchemaVersion                    // persisted schema major version unsupported
	ErrKindPersistence                      // durable read or write failed
	ErrKindInvalidSize                      // image length not allowed or changed
	ErrKindInUse                            // resource referenced by another (delta base)
	ErrKindCorrupt                          // persisted data failed integrity checks
)

func (k ErrKind) String() string {
	switch k {
	case ErrKindOutOfBounds:
		return "out of bounds"
	case ErrKindNotWritable:
		return "not writable"
	case ErrKindInvalidValue:
		return "invalid value"
	case ErrKindDuplicateID:
		return "duplicate id"
	case ErrKindNotFound:
		return "not found"
	case ErrKindTransactionActive:
		return "transaction already active"
	case ErrKindTransactionState:
		return "invalid transaction state"
	case ErrKindSchemaVersion:
		return "schema version mismatch"
	case ErrKindPersistence:
		return "persistence failure"
	case ErrKindInvalidSize:
		return "invalid image size"
	case ErrKindInUse:
		return "in use"
	case ErrKindCorrupt:
		return "corrupt data"
	default:
		return fmt.Sprintf("unknown error kind %d", int(k))
	}
}

// Error is a typed error with an optional underlying cause.
type Error struct {
	Kind ErrKind
	Op   string // operation that failed, e.g. "patch.WriteByte"
	Msg  string
	Err  error // optional underlying cause
}

func (e *Error) Error() string {
	if e == nil {
		return "<nil>"
	}
	msg := e.Msg
	if msg == "" {
		msg = e.Kind.String()
	}
	if e.Op != "" {
		msg = e.Op + ": " + msg
	}
	if e.Err != nil {
		return msg + ": " + e.Err.Error()
	}
	return msg
}

func (e *Error) Unwrap() error { return e.Err }

// Is reports whether target is an *Error of the same Kind. This lets
// contextual errors match the sentinels below.
func (e *Error) Is(target error) bool {
	var t *Error
	if !errors.As(target, &t) || t == nil {
		return false
	}
	return e.Kind == t.Kind
}

// New builds a contextual error of the given kind.
func New(kind ErrKind, op, format string, args ...any) *Error {
	return &Error{Kind: kind, Op: op, Msg: fmt.Sprintf(format, args...)}
}

// Wrap builds a contextual error of the given kind around cause.
func Wrap(kind ErrKind, op string, cause error, format string, args ...any) *Error {
	return &Error{Kind: kind, Op: op, Msg: fmt.Sprintf(format, args...), Err: cause}
}

// KindOf returns the Kind of the first *Error in err's chain.
func KindOf(err error) (ErrKind, bool) {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind, true
	}
	return 0, false
}

// Sentinels for errors.Is comparisons.
var (
	ErrOutOfBounds       = &Error{Kind: ErrKindOutOfBounds}
	ErrNotWritable       = &Error{Kind: ErrKindNotWritable}
	ErrInvalidValue      = &Error{Kind: ErrKindInvalidValue}
	ErrDuplicateID       = &Error{Kind: ErrKindDuplicateID}
	ErrNotFound          = &Error{Kind: ErrKindNotFound}
	ErrTransactionActive = &Error{Kind: ErrKindTransactionActive}
	ErrTransactionState  = &Error{Kind: ErrKindTransactionState}
	ErrSchemaVersion     = &Error{Kind: ErrKindSchemaVersion}
	ErrPersistence       = &Error{Kind: ErrKindPersistence}
	ErrInvalidSize       = &Error{Kind: ErrKindInvalidSize}
	ErrInUse             = &Error{Kind: ErrKindInUse}
	ErrCorrupt           = &Error{Kind: ErrKindCorrupt}
)
