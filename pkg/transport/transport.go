// Package transport provides byte stream transports for beslink.
package transport

// ErrTimeout is returned by Read when no byte arrives within the read timeout.
var ErrTimeout error = timeoutError{}

type timeoutError struct{}

// Error implements error.
func (timeoutError) Error() string { return "read timeout" }

// Timeout reports the error is a timeout.
func (timeoutError) Timeout() bool { return true }

// Temporary reports the error is temporary.
func (timeoutError) Temporary() bool { return true }
