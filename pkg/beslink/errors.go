package beslink

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidArgs indicates trailing data was requested after a response
	// which is not FlashRead.
	ErrInvalidArgs = errors.New("invalid args")
	// ErrShortFrame indicates the bytes are too few to form a frame.
	ErrShortFrame = errors.New("short frame")
)

// TransportError wraps a non-timeout failure of the underlying transport.
type TransportError struct {
	Op  string
	Err error
}

// Error implements error.
func (e *TransportError) Error() string {
	return fmt.Sprintf("transport %s: %v", e.Op, e.Err)
}

// Unwrap returns the transport failure.
func (e *TransportError) Unwrap() error {
	return e.Err
}

// BadChecksumError reports a frame whose checksum byte doesn't match.
type BadChecksumError struct {
	Frame []byte
	Want  byte // computed from the frame
	Got   byte // received
}

// Error implements error.
func (e *BadChecksumError) Error() string {
	return fmt.Sprintf("bad checksum 0x%02X, want 0x%02X, frame % X", e.Got, e.Want, e.Frame)
}

// UnknownTypeError is returned when UnknownTypeReject is in effect and a
// header with an unknown type byte is received.
type UnknownTypeError struct {
	Type   byte
	Header []byte
}

// Error implements error.
func (e *UnknownTypeError) Error() string {
	return fmt.Sprintf("unknown message type 0x%02X, header % X", e.Type, e.Header)
}

// AbandonedError is returned when the context is done while a frame or a
// trailing data block is partially received. Partial holds the bytes
// accepted so far; they are dropped by the reader.
type AbandonedError struct {
	Partial []byte
	Err     error
}

// Error implements error.
func (e *AbandonedError) Error() string {
	return fmt.Sprintf("abandoned after %d bytes: %v", len(e.Partial), e.Err)
}

// Unwrap returns the context error.
func (e *AbandonedError) Unwrap() error {
	return e.Err
}

// IsTimeout checks if err is a read timeout of the transport.
func IsTimeout(err error) bool {
	var t interface{ Timeout() bool }
	return errors.As(err, &t) && t.Timeout()
}
