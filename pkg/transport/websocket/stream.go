// Package websocket carries the link byte stream over a WebSocket connection
// to a remote serial bridge. Each write is sent as one binary frame; frame
// boundaries are ignored when reading.
package websocket

import (
	"net/url"
	"time"

	"github.com/pkg/errors"
	"golang.org/x/net/websocket"
)

// Stream wraps websocket.Conn with a per-read deadline.
type Stream struct {
	Conn        *websocket.Conn
	ReadTimeout time.Duration
}

// New wraps websocket.Conn.
func New(conn *websocket.Conn) *Stream {
	conn.PayloadType = websocket.BinaryFrame
	return &Stream{Conn: conn}
}

// Dial connects to a ws:// or wss:// URL.
func Dial(wsURL string, readTimeout time.Duration) (*Stream, error) {
	u, err := url.Parse(wsURL)
	if err != nil {
		return nil, errors.Wrap(err, "invalid websocket URL")
	}
	origin := "http://" + u.Host + "/"
	if u.Scheme == "wss" {
		origin = "https://" + u.Host + "/"
	}
	conn, err := websocket.Dial(wsURL, "", origin)
	if err != nil {
		return nil, errors.Wrapf(err, "dial %s", wsURL)
	}
	s := New(conn)
	s.ReadTimeout = readTimeout
	return s, nil
}

// Read implements io.Reader. A read exceeding ReadTimeout fails with a
// net.Error reporting Timeout().
func (s *Stream) Read(p []byte) (int, error) {
	if s.ReadTimeout > 0 {
		if err := s.Conn.SetReadDeadline(time.Now().Add(s.ReadTimeout)); err != nil {
			return 0, err
		}
	}
	return s.Conn.Read(p)
}

// Write implements io.Writer.
func (s *Stream) Write(p []byte) (int, error) {
	return s.Conn.Write(p)
}

// Close implements io.Closer.
func (s *Stream) Close() error {
	return s.Conn.Close()
}
