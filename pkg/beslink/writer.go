package beslink

import (
	"io"

	"github.com/golang/glog"
)

type flusher interface {
	Flush() error
}

// drainer is implemented by serial ports, which buffer writes in the driver.
type drainer interface {
	Drain() error
}

// Writer writes messages to a transport.
// It sends a message as-is; the checksum must already be set.
type Writer struct {
	W io.Writer
}

// NewWriter creates a Writer.
func NewWriter(w io.Writer) *Writer {
	return &Writer{W: w}
}

// WriteMessage writes the encoded message and flushes the transport.
// A failed flush is logged only.
func (w *Writer) WriteMessage(msg *Message) error {
	b := msg.Bytes()
	if _, err := w.W.Write(b); err != nil {
		glog.Errorf("writing to port raised %v", err)
		return &TransportError{Op: "write", Err: err}
	}
	glog.V(2).Infof("wrote %d bytes", len(b))
	var err error
	switch f := w.W.(type) {
	case flusher:
		err = f.Flush()
	case drainer:
		err = f.Drain()
	}
	if err != nil {
		glog.Warningf("flush failed: %v", err)
	}
	return nil
}
