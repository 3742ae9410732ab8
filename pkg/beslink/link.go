package beslink

import (
	"context"
	"io"
)

// Link exchanges messages over a single transport.
// One exchange owns the transport for its whole duration; Link must not
// be used concurrently.
type Link struct {
	*Reader
	*Writer
}

// NewLink creates a Link on rw with default reader settings.
func NewLink(rw io.ReadWriter) *Link {
	return &Link{
		Reader: NewReader(rw),
		Writer: NewWriter(rw),
	}
}

// Send writes a message. The checksum must already be set.
func (l *Link) Send(msg *Message) error {
	return l.WriteMessage(msg)
}

// Receive reads one verified message.
func (l *Link) Receive(ctx context.Context) (*Message, error) {
	return l.ReadMessage(ctx)
}

// ReceiveWithTrailingData reads a FlashRead response and n bytes of data
// following it.
func (l *Link) ReceiveWithTrailingData(ctx context.Context, n int) (*Message, []byte, error) {
	return l.ReadMessageWithTrailingData(ctx, n)
}
