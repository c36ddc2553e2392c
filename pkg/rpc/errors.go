package rpc

import (
	"encoding/json"
	"errors"
	"fmt"
)

var (
	ErrNoHandler           = errors.New("rpc.no_handler")
	ErrDuplicateCall       = errors.New("rpc.duplicate_call")
	ErrDuplicateStage      = errors.New("rpc.duplicate_stage")
	ErrInvalidStage        = errors.New("rpc.invalid_stage")
	ErrUnknownCall         = errors.New("rpc.unknown_call")
	ErrMetaExists          = errors.New("rpc.meta_exists")
	ErrInternal            = errors.New("rpc.internal")
	ErrUnknownCustomAccess = errors.New("rpc.unknown_custom_access")
	ErrInvalidSchema       = errors.New("rpc.invalid_schema")
)

// ValidationError rejects a call whose arguments do not match the schema.
// Errors alternates message strings with the offending values.
type ValidationError struct {
	Message string `json:"message"`
	Errors  []any  `json:"errors"`
}

func (e *ValidationError) Error() string {
	return e.Message
}

// AccessKind tells which check denied a call.
type AccessKind int

const (
	AccessSession AccessKind = iota + 1
	AccessAuth
	AccessDenied
)

func (k AccessKind) String() string {
	switch k {
	case AccessSession:
		return "session"
	case AccessAuth:
		return "auth"
	case AccessDenied:
		return "access"
	}
	return "unknown"
}

// AccessError rejects a call for a missing session, missing sign-in or a
// missing access flag. It travels to clients as a bare string.
type AccessError struct {
	Kind    AccessKind
	Message string
}

func (e *AccessError) Error() string {
	return e.Message
}

// MarshalJSON encodes the error as its message string.
func (e *AccessError) MarshalJSON() ([]byte, error) {
	return json.Marshal(e.Message)
}

func sessionDenied(name, connID string) *AccessError {
	return &AccessError{
		Kind:    AccessSession,
		Message: fmt.Sprintf("[API Session]: Access denied for method '%s' from %s", name, connID),
	}
}

func authDenied(name, connID string) *AccessError {
	return &AccessError{
		Kind:    AccessAuth,
		Message: fmt.Sprintf("[API Auth]: Access denied for method '%s' from %s", name, connID),
	}
}

func accessDenied(name, connID string, userID any, userName string) *AccessError {
	if userID == nil {
		userID = "undefined"
	}
	return &AccessError{
		Kind:    AccessDenied,
		Message: fmt.Sprintf("[API Access]: Access denied for method '%s' from %s, user: [%v] %s", name, connID, userID, userName),
	}
}

// HandlerLoadError reports a module whose loader failed or panicked.
// Calls it tried to register are discarded.
type HandlerLoadError struct {
	Module string
	Err    error
}

func (e *HandlerLoadError) Error() string {
	return fmt.Sprintf("can't load call handlers of module %q: %v", e.Module, e.Err)
}

func (e *HandlerLoadError) Unwrap() error {
	return e.Err
}

// ClientError converts err into the value sent back to the caller:
// the ValidationError object, the AccessError string, or a message string.
// Internal failures are not exposed.
func ClientError(err error) any {
	if err == nil {
		return nil
	}

	var verr *ValidationError
	if errors.As(err, &verr) {
		return verr
	}

	var aerr *AccessError
	if errors.As(err, &aerr) {
		return aerr.Message
	}

	if errors.Is(err, ErrInternal) {
		return "[API]: Internal error"
	}

	return err.Error()
}
