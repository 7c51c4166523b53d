package mirror

import (
	"errors"
	"fmt"
)

// ErrNotFound matches mirror node 404 responses.
var ErrNotFound = errors.New("mirror node resource not found")

// CallError is a non-2xx mirror node response. Data carries the revert
// payload of failed contract calls.
type CallError struct {
	StatusCode int
	Message    string
	Detail     string
	Data       string
}

func (e *CallError) Error() string {
	if e.Detail != "" {
		return fmt.Sprintf("mirror node request failed with status %d: %s: %s", e.StatusCode, e.Message, e.Detail)
	}
	return fmt.Sprintf("mirror node request failed with status %d: %s", e.StatusCode, e.Message)
}

func (e *CallError) Is(target error) bool {
	return target == ErrNotFound && e.StatusCode == 404
}
