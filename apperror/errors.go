package apperror

import (
	"errors"
	"fmt"
)

// Kind tells the operator where an error came from.
type Kind int

const (
	KindUnknown Kind = iota
	// KindValidation is a local field that failed its declared pattern. It never reaches the network.
	KindValidation
	// KindTransport means the node may not have received the request at all.
	KindTransport
	// KindApplication means the node parsed the request and reported a failure.
	KindApplication
)

func (k Kind) String() string {
	switch k {
	case KindValidation:
		return "validation"
	case KindTransport:
		return "transport"
	case KindApplication:
		return "application"
	default:
		return "unknown"
	}
}

// Error is the structured error passed from the gateway, the validator and
// the row binder to the presenter.
type Error struct {
	Kind    Kind
	Action  string // node action, empty for validation errors
	Field   string // offending field label, validation only
	Message string
	Err     error
}

func (e *Error) Error() string {
	var prefix string
	switch {
	case e.Field != "":
		prefix = e.Field
	case e.Action != "":
		prefix = e.Action
	}
	if prefix == "" {
		if e.Err != nil {
			return fmt.Sprintf("%s: %v", e.Message, e.Err)
		}
		return e.Message
	}
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", prefix, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", prefix, e.Message)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Validation reports a field whose value does not match pattern.
func Validation(field, pattern string) *Error {
	return &Error{
		Kind:    KindValidation,
		Field:   field,
		Message: fmt.Sprintf("value does not match expected pattern %s", pattern),
	}
}

// Transport wraps a failure below the application envelope.
func Transport(action string, err error) *Error {
	return &Error{
		Kind:    KindTransport,
		Action:  action,
		Message: "node unreachable or sent a malformed response",
		Err:     err,
	}
}

// MalformedPayload is a success envelope whose payload failed validation.
func MalformedPayload(action string, err error) *Error {
	return &Error{
		Kind:    KindTransport,
		Action:  action,
		Message: "malformed response payload",
		Err:     err,
	}
}

// Application carries the node's own error text.
func Application(action, message string) *Error {
	if message == "" {
		message = "request failed without an error message"
	}
	return &Error{
		Kind:    KindApplication,
		Action:  action,
		Message: message,
	}
}

// KindOf returns the kind of the first *Error in err's chain.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindUnknown
}

// Is reports whether err carries the given kind.
func Is(err error, kind Kind) bool {
	return err != nil && KindOf(err) == kind
}
