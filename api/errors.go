package api

import (
	"errors"
	"fmt"
)

// ErrRequest matches every failure returned by Client.
var ErrRequest = errors.New("request failed")

// NetworkError is a transport failure: the backend never produced a response.
type NetworkError struct {
	Op  string
	Err error
}

func (e *NetworkError) Error() string {
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *NetworkError) Unwrap() error { return e.Err }

func (e *NetworkError) Is(target error) bool { return target == ErrRequest }

// ProtocolError is a response the client could not use: a non-2xx status or
// a body that does not decode.
type ProtocolError struct {
	Op         string
	StatusCode int
	Message    string
	Body       string
	Err        error
}

func (e *ProtocolError) Error() string {
	switch {
	case e.Message != "":
		return fmt.Sprintf("%s: %s (HTTP %d)", e.Op, e.Message, e.StatusCode)
	case e.Err != nil:
		return fmt.Sprintf("%s: %v", e.Op, e.Err)
	default:
		return fmt.Sprintf("%s: HTTP %d: %s", e.Op, e.StatusCode, e.Body)
	}
}

func (e *ProtocolError) Unwrap() error { return e.Err }

func (e *ProtocolError) Is(target error) bool { return target == ErrRequest }
