package beslink

import (
	"bytes"
	"context"
	"errors"
	"io"
	"testing"

	"github.com/stretchr/testify/require"
)

type timeoutError struct{}

func (timeoutError) Error() string { return "i/o timeout" }
func (timeoutError) Timeout() bool { return true }

type readStep struct {
	data []byte
	err  error
	hook func()
}

func data(b ...byte) readStep { return readStep{data: b} }

func timeout() readStep { return readStep{err: timeoutError{}} }

func stall() readStep { return readStep{} }

func fail(err error) readStep { return readStep{err: err} }

func hook(fn func()) readStep { return readStep{hook: fn} }

// last returns b together with err from the same Read call.
func last(err error, b ...byte) readStep { return readStep{data: b, err: err} }

// scriptedReadWriter replays read steps, and records writes.
type scriptedReadWriter struct {
	steps   []readStep
	reads   int
	written bytes.Buffer
	drained int
	wErr    error
}

func newScript(steps ...readStep) *scriptedReadWriter {
	return &scriptedReadWriter{steps: steps}
}

func (s *scriptedReadWriter) Read(p []byte) (int, error) {
	s.reads++
	for len(s.steps) > 0 && s.steps[0].hook != nil {
		s.steps[0].hook()
		s.steps = s.steps[1:]
	}
	if len(s.steps) == 0 {
		return 0, io.EOF
	}
	step := &s.steps[0]
	if step.err != nil && len(step.data) == 0 {
		s.steps = s.steps[1:]
		return 0, step.err
	}
	n := copy(p, step.data)
	step.data = step.data[n:]
	if len(step.data) == 0 {
		s.steps = s.steps[1:]
		return n, step.err
	}
	return n, nil
}

func (s *scriptedReadWriter) Write(p []byte) (int, error) {
	if s.wErr != nil {
		return 0, s.wErr
	}
	return s.written.Write(p)
}

func (s *scriptedReadWriter) Drain() error {
	s.drained++
	return nil
}

func (s *scriptedReadWriter) remaining() []byte {
	var b []byte
	for _, step := range s.steps {
		b = append(b, step.data...)
	}
	return b
}

func newTestReader(r io.Reader) *Reader {
	reader := NewReader(r)
	reader.SettleDelay = 0
	return reader
}

func TestReadMessage(t *testing.T) {
	r := newTestReader(newScript(data(capturedFrames[0]...)))
	msg, err := r.ReadMessage(context.Background())
	require.NoError(t, err)
	require.Equal(t, NewMessage(TypeSync, 0x00, 0x03, 0x00, 0x00, 0x01), msg)
}

func TestReadMessageDefaultSettleDelay(t *testing.T) {
	r := NewReader(newScript(data(capturedFrames[2]...)))
	require.Equal(t, DefaultSettleDelay, r.SettleDelay)
	msg, err := r.ReadMessage(context.Background())
	require.NoError(t, err)
	require.Equal(t, TypeStartProgrammer, msg.Type)
}

func TestReadMessageSkipsGarbage(t *testing.T) {
	script := newScript(
		data(0x00, 0x53, 0xFF),
		timeout(),
		data(0x12, 0x65),
		data(capturedFrames[2]...),
	)
	msg, err := newTestReader(script).ReadMessage(context.Background())
	require.NoError(t, err)
	require.Equal(t, capturedFrames[2], msg.Bytes())
}

func TestReadMessageToleratesTimeouts(t *testing.T) {
	var steps []readStep
	for _, b := range capturedFrames[0] {
		steps = append(steps, timeout(), stall(), data(b))
	}
	script := newScript(steps...)
	msg, err := newTestReader(script).ReadMessage(context.Background())
	require.NoError(t, err)
	require.Equal(t, capturedFrames[0], msg.Bytes())
	require.Empty(t, script.steps)
}

func TestReadMessageBadChecksum(t *testing.T) {
	bad := append([]byte(nil), capturedFrames[2]...)
	bad[3] ^= 0x10
	script := newScript(data(bad...), data(capturedFrames[0]...))
	r := newTestReader(script)
	_, err := r.ReadMessage(context.Background())
	var csErr *BadChecksumError
	require.True(t, errors.As(err, &csErr))
	require.Equal(t, bad, csErr.Frame)
	require.Equal(t, byte(0xED), csErr.Got)
	require.Equal(t, byte(0xDD), csErr.Want)

	msg, err := r.ReadMessage(context.Background())
	require.NoError(t, err)
	require.Equal(t, TypeSync, msg.Type)
}

func TestReadMessageTransportError(t *testing.T) {
	broken := errors.New("device disconnected")
	script := newScript(data(capturedFrames[0][:4]...), timeout(), fail(broken))
	_, err := newTestReader(script).ReadMessage(context.Background())
	var tErr *TransportError
	require.True(t, errors.As(err, &tErr))
	require.Equal(t, "read", tErr.Op)
	require.True(t, errors.Is(err, broken))
}

func TestReadMessageEOF(t *testing.T) {
	_, err := newTestReader(newScript(data(0xBE, 0x50))).ReadMessage(context.Background())
	require.True(t, errors.Is(err, io.EOF))
}

func TestReadMessageCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	script := newScript(data(0x01, 0xBE, 0x50, 0x00), hook(cancel), timeout(), data(capturedFrames[0][3:]...))
	_, err := newTestReader(script).ReadMessage(ctx)
	require.True(t, errors.Is(err, context.Canceled))
	var abandoned *AbandonedError
	require.True(t, errors.As(err, &abandoned))
	require.Equal(t, []byte{0xBE, 0x50, 0x00}, abandoned.Partial)
}

func TestReadMessageUnknownType(t *testing.T) {
	unknown := []byte{0xBE, 0x7F, 0x00}
	ok := []byte{0xBE, 0x7F, Checksum([]byte{0xBE, 0x7F})}

	_, err := newTestReader(newScript(data(unknown...))).ReadMessage(context.Background())
	var csErr *BadChecksumError
	require.True(t, errors.As(err, &csErr))

	msg, err := newTestReader(newScript(data(ok...))).ReadMessage(context.Background())
	require.NoError(t, err)
	require.False(t, msg.Type.IsKnown())

	r := newTestReader(newScript(data(unknown...)))
	r.UnknownType = UnknownTypeReject
	_, err = r.ReadMessage(context.Background())
	var utErr *UnknownTypeError
	require.True(t, errors.As(err, &utErr))
	require.Equal(t, byte(0x7F), utErr.Type)

	r = newTestReader(newScript(data(unknown...), data(capturedFrames[2]...)))
	r.UnknownType = UnknownTypeResync
	msg, err = r.ReadMessage(context.Background())
	require.NoError(t, err)
	require.Equal(t, TypeStartProgrammer, msg.Type)
}

func flashReadResponse() []byte {
	return NewMessage(TypeFlashRead, 0x06, 0x00, 0x00).Bytes()
}

func TestReadMessageWithTrailingData(t *testing.T) {
	payload := []byte{1, 2, 3, 4, 5, 6, 7, 8, 9, 10}
	next := capturedFrames[2]
	script := newScript(
		data(flashReadResponse()...),
		timeout(),
		data(payload[:4]...),
		stall(),
		data(payload[4:]...),
		data(next...),
	)
	r := newTestReader(script)
	r.ChunkSize = 3
	msg, trailing, err := r.ReadMessageWithTrailingData(context.Background(), len(payload))
	require.NoError(t, err)
	require.Equal(t, TypeFlashRead, msg.Type)
	require.Equal(t, payload, trailing)
	require.Equal(t, next, script.remaining())

	msg, err = r.ReadMessage(context.Background())
	require.NoError(t, err)
	require.Equal(t, next, msg.Bytes())
}

func TestReadMessageWithTrailingDataWrongType(t *testing.T) {
	script := newScript(data(capturedFrames[2]...), data(1, 2, 3, 4))
	r := newTestReader(script)
	msg, trailing, err := r.ReadMessageWithTrailingData(context.Background(), 4)
	require.True(t, errors.Is(err, ErrInvalidArgs))
	require.Nil(t, trailing)
	require.Equal(t, TypeStartProgrammer, msg.Type)
	require.Equal(t, []byte{1, 2, 3, 4}, script.remaining())
}

func TestReadTrailingDataTypeGuard(t *testing.T) {
	script := newScript(data(1, 2, 3, 4))
	r := newTestReader(script)
	_, err := r.ReadTrailingData(context.Background(), NewMessage(TypeSync), 4)
	require.True(t, errors.Is(err, ErrInvalidArgs))
	_, err = r.ReadTrailingData(context.Background(), nil, 4)
	require.True(t, errors.Is(err, ErrInvalidArgs))
	require.Zero(t, script.reads)
}

func TestReadTrailingDataEmpty(t *testing.T) {
	script := newScript()
	msg, _ := Decode(flashReadResponse())
	trailing, err := newTestReader(script).ReadTrailingData(context.Background(), msg, 0)
	require.NoError(t, err)
	require.Empty(t, trailing)
	require.Zero(t, script.reads)
}

func TestReadTrailingDataErrors(t *testing.T) {
	msg, _ := Decode(flashReadResponse())
	broken := errors.New("broken pipe")
	_, err := newTestReader(newScript(data(1, 2), fail(broken))).ReadTrailingData(context.Background(), msg, 4)
	require.True(t, errors.Is(err, broken))
	var tErr *TransportError
	require.True(t, errors.As(err, &tErr))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	_, err = newTestReader(newScript(data(1, 2), hook(cancel), stall())).ReadTrailingData(ctx, msg, 4)
	var abandoned *AbandonedError
	require.True(t, errors.As(err, &abandoned))
	require.Equal(t, []byte{1, 2}, abandoned.Partial)
	require.True(t, errors.Is(err, context.Canceled))
}

func TestReadTrailingDataNegativeLength(t *testing.T) {
	script := newScript()
	r := newTestReader(script)
	msg, _ := Decode(flashReadResponse())
	trailing, err := r.ReadTrailingData(context.Background(), msg, -1)
	require.True(t, errors.Is(err, ErrInvalidArgs))
	require.Nil(t, trailing)
	require.Zero(t, script.reads)

	script = newScript(data(flashReadResponse()...))
	r = newTestReader(script)
	msg, trailing, err = r.ReadMessageWithTrailingData(context.Background(), -1)
	require.True(t, errors.Is(err, ErrInvalidArgs))
	require.Nil(t, msg)
	require.Nil(t, trailing)
	require.Zero(t, script.reads)
	require.Equal(t, flashReadResponse(), script.remaining())
}

func TestReadTrailingDataCompleteWithError(t *testing.T) {
	msg, _ := Decode(flashReadResponse())
	trailing, err := newTestReader(newScript(last(io.EOF, 1, 2, 3, 4))).ReadTrailingData(context.Background(), msg, 4)
	require.NoError(t, err)
	require.Equal(t, []byte{1, 2, 3, 4}, trailing)

	broken := errors.New("broken pipe")
	trailing, err = newTestReader(newScript(data(1, 2), last(broken, 3, 4))).ReadTrailingData(context.Background(), msg, 4)
	require.NoError(t, err)
	require.Equal(t, []byte{1, 2, 3, 4}, trailing)

	_, err = newTestReader(newScript(last(io.EOF, 1, 2))).ReadTrailingData(context.Background(), msg, 4)
	var tErr *TransportError
	require.True(t, errors.As(err, &tErr))
	require.True(t, errors.Is(err, io.EOF))
}
