package mqtt

import (
	"io"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/robotalks/beslink.go/pkg/beslink"
	"github.com/robotalks/beslink.go/pkg/transport"
)

func TestStreamRead(t *testing.T) {
	s := NewStream(nil)
	s.ReadTimeout = 10 * time.Millisecond
	s.handleMsg(s.RxTopic, []byte{1, 2, 3})
	s.handleMsg(s.RxTopic, nil)
	s.handleMsg(s.RxTopic, []byte{4})

	buf := make([]byte, 2)
	n, err := s.Read(buf)
	require.NoError(t, err)
	require.Equal(t, []byte{1, 2}, buf[:n])
	n, err = s.Read(buf)
	require.NoError(t, err)
	require.Equal(t, []byte{3, 4}, buf[:n])

	_, err = s.Read(buf)
	require.Equal(t, transport.ErrTimeout, err)
	require.True(t, beslink.IsTimeout(err))

	require.NoError(t, s.Close())
	_, err = s.Read(buf)
	require.Equal(t, io.EOF, err)
}

func TestStreamHandleMsgCopiesPayload(t *testing.T) {
	s := NewStream(nil)
	payload := []byte{0xBE}
	s.handleMsg(s.RxTopic, payload)
	payload[0] = 0
	buf := make([]byte, 1)
	_, err := s.Read(buf)
	require.NoError(t, err)
	require.Equal(t, byte(0xBE), buf[0])
}

func TestStreamHandleMsgDoesNotBlockWithoutReader(t *testing.T) {
	s := NewStream(nil)
	s.ReadTimeout = 10 * time.Millisecond
	const count = 200
	done := make(chan struct{})
	go func() {
		defer close(done)
		for i := 0; i < count; i++ {
			s.handleMsg(s.RxTopic, []byte{byte(i)})
		}
	}()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("message delivery blocked with no reader")
	}

	var got []byte
	buf := make([]byte, 16)
	for len(got) < count {
		n, err := s.Read(buf)
		require.NoError(t, err)
		got = append(got, buf[:n]...)
	}
	for i, b := range got {
		require.Equal(t, byte(i), b)
	}
	_, err := s.Read(buf)
	require.Equal(t, transport.ErrTimeout, err)
}

func TestStreamReadDrainsAfterClose(t *testing.T) {
	s := NewStream(nil)
	s.handleMsg(s.RxTopic, []byte{0xBE, 0x50})
	require.NoError(t, s.Close())
	buf := make([]byte, 4)
	n, err := s.Read(buf)
	require.NoError(t, err)
	require.Equal(t, []byte{0xBE, 0x50}, buf[:n])
	_, err = s.Read(buf)
	require.Equal(t, io.EOF, err)
}
