package beslink

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/golang/glog"
)

const (
	// DefaultSettleDelay is the pause after a complete frame, before it's
	// verified. It gives the device time to turn the line around.
	DefaultSettleDelay = 5 * time.Millisecond
	// DefaultChunkSize is the read buffer size for trailing data.
	DefaultChunkSize = 4096
)

// Reader reads messages from a transport.
//
// The transport is expected to return from Read after a short timeout,
// either with (0, nil) or with an error reporting Timeout() == true. Both
// are retried. The context is checked between reads, so a transport without
// a read timeout can't be cancelled.
//
// Reader is not safe for concurrent use.
type Reader struct {
	R           io.Reader
	SettleDelay time.Duration
	ChunkSize   int
	UnknownType UnknownTypePolicy
}

// NewReader creates a Reader with default settings.
func NewReader(r io.Reader) *Reader {
	return &Reader{
		R:           r,
		SettleDelay: DefaultSettleDelay,
		ChunkSize:   DefaultChunkSize,
	}
}

// ReadFrame reads bytes until a complete frame is assembled. Bytes before
// the sync byte are discarded. The checksum is not verified.
func (r *Reader) ReadFrame(ctx context.Context) ([]byte, error) {
	parser := Parser{UnknownType: r.UnknownType}
	buf := make([]byte, 1)
	for {
		select {
		case <-ctx.Done():
			return nil, &AbandonedError{Partial: parser.Reset(), Err: ctx.Err()}
		default:
		}
		n, err := r.R.Read(buf)
		if n == 1 {
			frame, perr := parser.Parse(buf[0])
			if perr != nil {
				return nil, perr
			}
			if frame != nil {
				return frame, nil
			}
		}
		if err != nil && !IsTimeout(err) {
			glog.Errorf("error reading packet: %v", err)
			return nil, &TransportError{Op: "read", Err: err}
		}
	}
}

// ReadMessage reads a frame, verifies the checksum and decodes it.
// A checksum mismatch returns *BadChecksumError; the frame is consumed and
// the next read hunts for a new sync byte.
func (r *Reader) ReadMessage(ctx context.Context) (*Message, error) {
	frame, err := r.ReadFrame(ctx)
	if err != nil {
		return nil, err
	}
	if r.SettleDelay > 0 {
		time.Sleep(r.SettleDelay)
	}
	if err := VerifyChecksum(frame); err != nil {
		glog.Warningf("bad checksum: %v", err)
		return nil, err
	}
	return Decode(frame)
}

// ReadTrailingData reads the raw block of n bytes which follows msg.
// msg must be a FlashRead response, otherwise ErrInvalidArgs is returned
// without reading.
func (r *Reader) ReadTrailingData(ctx context.Context, msg *Message, n int) ([]byte, error) {
	if msg == nil {
		return nil, fmt.Errorf("trailing data without response: %w", ErrInvalidArgs)
	}
	if msg.Type != TypeFlashRead {
		glog.Errorf("bad packet type: %v", msg.Type)
		return nil, fmt.Errorf("trailing data after %v: %w", msg.Type, ErrInvalidArgs)
	}
	if n < 0 {
		return nil, fmt.Errorf("trailing data length %d: %w", n, ErrInvalidArgs)
	}
	size := r.ChunkSize
	if size <= 0 {
		size = DefaultChunkSize
	}
	data := make([]byte, 0, n)
	chunk := make([]byte, size)
	for len(data) < n {
		select {
		case <-ctx.Done():
			return nil, &AbandonedError{Partial: data, Err: ctx.Err()}
		default:
		}
		want := n - len(data)
		if want > len(chunk) {
			want = len(chunk)
		}
		got, err := r.R.Read(chunk[:want])
		data = append(data, chunk[:got]...)
		if len(data) >= n {
			break
		}
		if err != nil {
			if IsTimeout(err) {
				continue
			}
			glog.Errorf("error reading trailing data: %v", err)
			return nil, &TransportError{Op: "read", Err: err}
		}
		if got == 0 {
			glog.Warningf("stalled trailing data at %d of %d bytes", len(data), n)
		}
	}
	return data, nil
}

// ReadMessageWithTrailingData reads a FlashRead response followed by n bytes
// of raw data. Once a response is decoded it is returned even if reading the
// data fails. If the response is of another type, the error is
// ErrInvalidArgs and no further bytes are read. A negative n fails with
// ErrInvalidArgs before anything is read.
func (r *Reader) ReadMessageWithTrailingData(ctx context.Context, n int) (*Message, []byte, error) {
	if n < 0 {
		return nil, nil, fmt.Errorf("trailing data length %d: %w", n, ErrInvalidArgs)
	}
	msg, err := r.ReadMessage(ctx)
	if err != nil {
		return nil, nil, err
	}
	data, err := r.ReadTrailingData(ctx, msg, n)
	if err != nil {
		return msg, nil, err
	}
	return msg, data, nil
}
