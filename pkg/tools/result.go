package tools

import (
	"encoding/json"
	"errors"
	"fmt"
)

// ErrAborted marks a tool invocation the user declined. Handlers may return an
// error wrapping it instead of building an Aborted result themselves.
var ErrAborted = errors.New("aborted by user")

// Status is the ToolResult variant tag.
type Status string

const (
	StatusSuccess Status = "success"
	StatusAborted Status = "aborted"
	StatusError   Status = "error"
)

// Result is the outcome of one tool invocation.
type Result struct {
	Status  Status
	Payload any
	Message string
}

// Success wraps a tool's payload.
func Success(payload any) Result {
	return Result{Status: StatusSuccess, Payload: payload}
}

// Aborted reports a declined side effect.
func Aborted(reason string) Result {
	return Result{Status: StatusAborted, Message: reason}
}

// Failure reports an error the model should see.
func Failure(message string) Result {
	return Result{Status: StatusError, Message: message}
}

// Failuref is Failure with formatting.
func Failuref(format string, args ...any) Result {
	return Failure(fmt.Sprintf(format, args...))
}

// AsResult normalizes a handler's return values. A Result passes through, an
// error becomes Failure (or Aborted when it wraps ErrAborted), and any other
// value is the success payload.
func AsResult(value any, err error) Result {
	if err != nil {
		if errors.Is(err, ErrAborted) {
			return Aborted(err.Error())
		}
		return Failure(err.Error())
	}
	switch v := value.(type) {
	case Result:
		return v
	case *Result:
		if v != nil {
			return *v
		}
	}
	return Success(value)
}

// statusMessage is the transcript shape of non-success results.
type statusMessage struct {
	Status  Status `json:"status"`
	Message string `json:"message"`
}

// Content serializes the result as tool-role message content.
func (r Result) Content() string {
	var (
		raw []byte
		err error
	)
	switch r.Status {
	case StatusSuccess:
		raw, err = json.Marshal(r.Payload)
	default:
		raw, err = json.Marshal(statusMessage{Status: r.Status, Message: r.Message})
	}
	if err != nil {
		raw, _ = json.Marshal(statusMessage{Status: StatusError, Message: "encode tool result: " + err.Error()})
	}
	return string(raw)
}

// OK reports whether the invocation succeeded.
func (r Result) OK() bool {
	return r.Status == StatusSuccess
}
