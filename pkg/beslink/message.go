package beslink

import (
	"fmt"
	"io"

	"github.com/golang/glog"
)

// Message is a decoded frame.
//
// Data holds the bytes between the type byte and the checksum. The wire
// payload, as the device firmware numbers it, starts at the type byte;
// use Payload for offsets counted that way.
type Message struct {
	Sync     byte
	Type     MessageType
	Data     []byte
	Checksum byte
}

// NewMessage creates a message with the checksum set.
func NewMessage(t MessageType, data ...byte) *Message {
	m := &Message{Sync: Sync, Type: t, Data: data}
	return m.SetChecksum()
}

// Decode converts a complete frame into a Message.
// The checksum is not verified, see VerifyChecksum.
//
// An unknown type byte is not an error: Type keeps the raw value and
// Type.IsKnown reports false.
func Decode(frame []byte) (*Message, error) {
	if len(frame) < MinFrameLength {
		return nil, ErrShortFrame
	}
	last := len(frame) - 1
	m := &Message{
		Sync:     frame[0],
		Type:     MessageType(frame[1]),
		Data:     append([]byte(nil), frame[2:last]...),
		Checksum: frame[last],
	}
	if !m.Type.IsKnown() {
		glog.Warningf("unknown message type 0x%02X", frame[1])
	}
	return m, nil
}

// Encode returns the frame bytes of m.
func Encode(m *Message) []byte {
	return m.Bytes()
}

// Bytes returns encoded bytes for sending.
func (m *Message) Bytes() []byte {
	b := make([]byte, len(m.Data)+3)
	b[0], b[1] = m.Sync, byte(m.Type)
	copy(b[2:], m.Data)
	b[len(b)-1] = m.Checksum
	return b
}

// Payload returns the frame bytes between sync and checksum.
// Payload()[0] is the type byte.
func (m *Message) Payload() []byte {
	p := make([]byte, len(m.Data)+1)
	p[0] = byte(m.Type)
	copy(p[1:], m.Data)
	return p
}

// Subtype returns the byte following the type byte, which discriminates
// FlashCommand frames.
func (m *Message) Subtype() (byte, bool) {
	if len(m.Data) == 0 {
		return 0, false
	}
	return m.Data[0], true
}

// SetChecksum recalculates the checksum from the other fields.
func (m *Message) SetChecksum() *Message {
	b := m.Bytes()
	m.Checksum = Checksum(b[:len(b)-1])
	return m
}

// Validate checks the encoded length matches the frame length table.
func (m *Message) Validate() error {
	b := m.Bytes()
	n, known := FrameLength(b)
	if !known {
		return fmt.Errorf("no frame length for %v", m.Type)
	}
	if n != len(b) {
		return fmt.Errorf("%v frame is %d bytes, want %d", m.Type, len(b), n)
	}
	return nil
}

// WriteTo writes encoded bytes.
func (m *Message) WriteTo(w io.Writer) (int64, error) {
	n, err := w.Write(m.Bytes())
	return int64(n), err
}

// String implements fmt.Stringer.
func (m *Message) String() string {
	return fmt.Sprintf("%v[% X] sum=0x%02X", m.Type, m.Data, m.Checksum)
}
