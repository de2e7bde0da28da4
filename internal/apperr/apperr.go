// Package apperr classifies failures raised by docman operations.
package apperr

import (
	"errors"
	"fmt"
)

// Kind groups failures by how a front-end should react to them.
type Kind int

const (
	// KindValidation is a local, pre-network failure.
	KindValidation Kind = iota + 1
	// KindNetwork is a transport failure with no response.
	KindNetwork
	// KindServer is a non-2xx response.
	KindServer
	// KindBusy rejects an operation while a prior one is in flight.
	KindBusy
)

func (k Kind) String() string {
	switch k {
	case KindValidation:
		return "validation"
	case KindNetwork:
		return "network"
	case KindServer:
		return "server"
	case KindBusy:
		return "busy"
	default:
		return "unknown"
	}
}

// Sentinels usable with errors.Is to match any Error of that kind.
var (
	ErrValidation = &Error{Kind: KindValidation}
	ErrNetwork    = &Error{Kind: KindNetwork}
	ErrServer     = &Error{Kind: KindServer}
	ErrBusy       = &Error{Kind: KindBusy}
)

// NetworkMessage is shown for transport failures.
const NetworkMessage = "Network error. Please try again."

// Error is a classified failure of a single operation.
type Error struct {
	Kind   Kind
	Op     string
	Msg    string
	Status int
	Err    error
}

func (e *Error) Error() string {
	msg := e.Msg
	if msg == "" && e.Err != nil {
		msg = e.Err.Error()
	}
	if msg == "" {
		msg = e.Kind.String() + " error"
	}
	if e.Op == "" {
		return msg
	}
	return e.Op + ": " + msg
}

func (e *Error) Unwrap() error { return e.Err }

// Is matches sentinels by kind.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return t.Op == "" && t.Msg == "" && t.Err == nil && t.Kind == e.Kind
}

// Validation builds a KindValidation error.
func Validation(op, format string, args ...any) *Error {
	return &Error{Kind: KindValidation, Op: op, Msg: fmt.Sprintf(format, args...)}
}

// Network wraps a transport failure.
func Network(op string, err error) *Error {
	return &Error{Kind: KindNetwork, Op: op, Msg: NetworkMessage, Err: err}
}

// Server builds a KindServer error carrying the response status.
func Server(op string, status int, msg string) *Error {
	return &Error{Kind: KindServer, Op: op, Status: status, Msg: msg}
}

// Busy rejects op because another call is still pending.
func Busy(op string) *Error {
	return &Error{Kind: KindBusy, Op: op, Msg: "another request is still in progress"}
}

// KindOf reports the Kind of err, or 0 when err is not classified.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return 0
}

// Message returns the text a front-end shows for err.
func Message(err error) string {
	if err == nil {
		return ""
	}
	var e *Error
	if errors.As(err, &e) && e.Msg != "" {
		return e.Msg
	}
	return err.Error()
}
