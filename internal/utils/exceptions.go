package utils

import (
	"errors"
	"fmt"
)

// Failure kinds. Match them with errors.Is.
var (
	ErrNotFound            = errors.New("project not found")
	ErrInsufficientSources = errors.New("insufficient sources")
	ErrDestinationCreate   = errors.New("destination create failed")
	ErrCopyFailed          = errors.New("copy failed")
	ErrMoveFailed          = errors.New("move failed")
	ErrParseFailed         = errors.New("parse failed")
	ErrInvalidRatios       = errors.New("invalid split ratios")
)

type Exception interface {
	Error() string
	Message() string
	Kind() error
	Unwrap() []error
}

type exceptions struct {
	kind  error
	cause error
	msg   string
}

// NewException wraps cause (may be nil) under one of the failure kinds.
// errors.Is matches both the kind and the cause.
func NewException(kind, cause error, msg string) Exception {
	return &exceptions{kind: kind, cause: cause, msg: msg}
}

func (e *exceptions) Error() string {
	if e.cause == nil {
		return fmt.Sprintf("%s: %s", e.kind, e.msg)
	}
	return fmt.Sprintf("%s: %s: %s", e.kind, e.msg, e.cause)
}

func (e *exceptions) Message() string { return e.msg }

func (e *exceptions) Kind() error { return e.kind }

func (e *exceptions) Unwrap() []error {
	if e.cause == nil {
		return []error{e.kind}
	}
	return []error{e.kind, e.cause}
}
