// Package errors contains the error helpers shared by the launcher. Errors are
// wrapped with short context strings as they propagate, and errors that are
// meant to be shown to the user directly implement FriendlyError.
package errors

import (
	goerrors "errors"
	"fmt"
)

// New returns a plain error with the given message.
func New(msg string) error {
	return goerrors.New(msg)
}

// Is reports whether any error in err's chain matches target.
func Is(err, target error) bool {
	return goerrors.Is(err, target)
}

// As finds the first error in err's chain that matches target.
func As(err error, target interface{}) bool {
	return goerrors.As(err, target)
}

// FriendlyError is an error whose message can be shown to the user without
// any additional context.
type FriendlyError interface {
	error
	FriendlyMessage() string
}

type friendlyError struct {
	msg string
}

func (err friendlyError) Error() string {
	return err.msg
}

func (err friendlyError) FriendlyMessage() string {
	return err.msg
}

// NewFriendlyError creates an error that is printed verbatim by the CLI.
func NewFriendlyError(format string, args ...interface{}) error {
	return friendlyError{fmt.Sprintf(format, args...)}
}

type contextError struct {
	err     error
	context string
}

func (err contextError) Error() string {
	return fmt.Sprintf("%s: %s", err.context, err.err)
}

func (err contextError) Unwrap() error {
	return err.err
}

// WithContext annotates err with a short description of the operation that
// failed. A nil err stays nil.
func WithContext(err error, context string) error {
	if err == nil {
		return nil
	}
	return contextError{err: err, context: context}
}

// GetFriendlyMessage returns the message of the first FriendlyError in the
// chain, if any.
func GetFriendlyMessage(err error) (string, bool) {
	var friendly FriendlyError
	if goerrors.As(err, &friendly) {
		return friendly.FriendlyMessage(), true
	}
	return "", false
}

// Join returns an error that wraps the given errors, ignoring nils.
func Join(errs ...error) error {
	return goerrors.Join(errs...)
}
