package constraint

import (
	"errors"
	"fmt"
)

var (
	ErrWrongArity = errors.New("wrong number of parameters")
	ErrUnknownID  = errors.New("unknown constraint id")
	ErrBadFormula = errors.New("malformed formula")
	ErrUnresolved = errors.New("unresolved taxonomy reference")
)

// ErrorKind classifies constraint errors. The set is closed.
type ErrorKind int

const (
	WrongArity ErrorKind = iota
	UnknownID
	BadFormula
	UnresolvedReference
)

func (k ErrorKind) Err() error {
	switch k {
	case WrongArity:
		return ErrWrongArity
	case UnknownID:
		return ErrUnknownID
	case BadFormula:
		return ErrBadFormula
	default:
		return ErrUnresolved
	}
}

func (k ErrorKind) String() string { return k.Err().Error() }

// Error reports a rejected constraint with its position in the input.
type Error struct {
	Kind  ErrorKind
	Index int
	ID    string
	Msg   string
}

func (e *Error) Error() string {
	if e.Msg == "" {
		return fmt.Sprintf("constraint %d (%s): %s", e.Index, e.ID, e.Kind)
	}
	return fmt.Sprintf("constraint %d (%s): %s: %s", e.Index, e.ID, e.Kind, e.Msg)
}

func (e *Error) Unwrap() error { return e.Kind.Err() }

func errorf(kind ErrorKind, index int, id, format string, args ...any) *Error {
	return &Error{Kind: kind, Index: index, ID: id, Msg: fmt.Sprintf(format, args...)}
}
