package core

import (
	"fmt"

	"github.com/pkg/errors"
)

// FieldError is used to indicate an error with a specific struct field.
type FieldError struct {
	Field string
	Error string
}

type ValidationError struct {
	Err    error
	Fields []FieldError
}

func NewValidationError(err error, flds ...FieldError) error {
	return &ValidationError{err, flds}
}

func (err ValidationError) Error() string {
	if err.Err != nil {
		return err.Err.Error()
	}
	if len(err.Fields) > 0 {
		return fmt.Sprintf("%s: %s", err.Fields[0].Field, err.Fields[0].Error)
	}
	return ""
}

// NotFoundError reports a missing outpass, student or other record.
type NotFoundError struct {
	Resource string
	ID       string
}

func NewNotFoundError(resource, id string) error {
	return &NotFoundError{Resource: resource, ID: id}
}

func (err NotFoundError) Error() string {
	if err.ID == "" {
		return err.Resource + " not found"
	}
	return fmt.Sprintf("%s %q not found", err.Resource, err.ID)
}

// ConflictError reports a create that would break a uniqueness rule,
// e.g. a second active outpass for the same student.
type ConflictError struct {
	Resource string
	ID       string
	Reason   string
}

func NewConflictError(resource, id, reason string) error {
	return &ConflictError{Resource: resource, ID: id, Reason: reason}
}

func (err ConflictError) Error() string {
	return fmt.Sprintf("%s %q: %s", err.Resource, err.ID, err.Reason)
}

// InvalidStateError reports an action attempted against a record whose current status does not allow it.
type InvalidStateError struct {
	ID      string
	Current string
	Action  string
}

func NewInvalidStateError(id, current, action string) error {
	return &InvalidStateError{ID: id, Current: current, Action: action}
}

func (err InvalidStateError) Error() string {
	return fmt.Sprintf("cannot %s outpass %q: current status is %s", err.Action, err.ID, err.Current)
}

// DispatchError reports a failed notification delivery. It never reaches callers of the workflow.
type DispatchError struct {
	Channel   string
	Recipient string
	Err       error
}

func NewDispatchError(channel, recipient string, err error) error {
	return &DispatchError{Channel: channel, Recipient: recipient, Err: err}
}

func (err DispatchError) Error() string {
	return fmt.Sprintf("dispatching %s to %s: %v", err.Channel, err.Recipient, err.Err)
}

func (err DispatchError) Unwrap() error { return err.Err }

func IsValidation(err error) bool {
	_, ok := errors.Cause(err).(*ValidationError)
	return ok
}

func IsNotFound(err error) bool {
	_, ok := errors.Cause(err).(*NotFoundError)
	return ok
}

func IsConflict(err error) bool {
	_, ok := errors.Cause(err).(*ConflictError)
	return ok
}

func IsInvalidState(err error) bool {
	_, ok := errors.Cause(err).(*InvalidStateError)
	return ok
}

type shutdown struct {
	message string
}

func NewShutdownError(msg string) error {
	return &shutdown{message: msg}
}

func (s shutdown) Error() string {
	return s.message
}

func IsShutdown(err error) bool {
	_, ok := errors.Cause(err).(*shutdown)
	return ok
}
