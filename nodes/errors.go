package nodes

import (
	"fmt"

	"github.com/jobstoit/s3nodes"
)

// Error is a node failure carrying the message shown to the user.
type Error struct {
	Node    string
	Message string
	Cause   error
}

func (e *Error) Error() string { return e.Message }

func (e *Error) Unwrap() error { return e.Cause }

func inputError(node, msg string) *Error {
	return &Error{Node: node, Message: msg}
}

// operationError wraps a failure of the storage call or anything around it.
// Provider errors are prefixed "S3 Error", everything else with action.
func operationError(node, action string, err error) *Error {
	if s3nodes.IsProviderError(err) {
		return &Error{Node: node, Message: fmt.Sprintf("S3 Error: %v", err), Cause: err}
	}

	return &Error{Node: node, Message: fmt.Sprintf("Failed to %s: %v", action, err), Cause: err}
}
