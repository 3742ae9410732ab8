package mqtt

import (
	"io"
	"sync"
	"time"

	"github.com/robotalks/beslink.go/pkg/transport"
)

// Default topics relative to the topic prefix. The bridge publishes bytes
// received from the device on rx, and writes bytes published on tx to the
// device.
const (
	DefaultRxTopic = "rx"
	DefaultTxTopic = "tx"
)

// Stream is an io.ReadWriteCloser over a pair of topics.
// Read returns transport.ErrTimeout if nothing arrives within ReadTimeout.
//
// Received bytes are buffered without limit so the paho callback never
// blocks; a slow reader grows the buffer instead of stalling the client.
type Stream struct {
	Queue       *Queue
	RxTopic     string
	TxTopic     string
	ReadTimeout time.Duration

	lock      sync.Mutex
	received  []byte
	notifyCh  chan struct{}
	closeCh   chan struct{}
	closeOnce sync.Once
}

// NewStream creates a Stream with default topics.
func NewStream(q *Queue) *Stream {
	return &Stream{
		Queue:    q,
		RxTopic:  DefaultRxTopic,
		TxTopic:  DefaultTxTopic,
		notifyCh: make(chan struct{}, 1),
		closeCh:  make(chan struct{}),
	}
}

// Dial connects to the broker and opens a Stream.
func Dial(brokerURL string, readTimeout time.Duration) (*Stream, error) {
	opts, topicPrefix, err := ClientOptionsFromURL(brokerURL)
	if err != nil {
		return nil, err
	}
	q := NewQueue(opts, topicPrefix)
	if err := q.Connect(DefaultConnectTimeout); err != nil {
		return nil, err
	}
	s := NewStream(q)
	s.ReadTimeout = readTimeout
	if err := s.Open(); err != nil {
		q.Close()
		return nil, err
	}
	return s, nil
}

// Open subscribes the rx topic.
func (s *Stream) Open() error {
	return s.Queue.Sub(s.RxTopic, s.handleMsg)
}

// Read implements io.Reader.
func (s *Stream) Read(p []byte) (int, error) {
	if len(p) == 0 {
		return 0, nil
	}
	var timeout <-chan time.Time
	if s.ReadTimeout > 0 {
		timer := time.NewTimer(s.ReadTimeout)
		defer timer.Stop()
		timeout = timer.C
	}
	for {
		if n := s.take(p); n > 0 {
			return n, nil
		}
		select {
		case <-s.notifyCh:
		case <-s.closeCh:
			if n := s.take(p); n > 0 {
				return n, nil
			}
			return 0, io.EOF
		case <-timeout:
			return 0, transport.ErrTimeout
		}
	}
}

func (s *Stream) take(p []byte) int {
	s.lock.Lock()
	defer s.lock.Unlock()
	n := copy(p, s.received)
	s.received = s.received[n:]
	if len(s.received) == 0 {
		s.received = nil
	}
	return n
}

// Write implements io.Writer.
func (s *Stream) Write(p []byte) (int, error) {
	if err := s.Queue.Pub(s.TxTopic, p); err != nil {
		return 0, err
	}
	return len(p), nil
}

// Close implements io.Closer.
func (s *Stream) Close() error {
	s.closeOnce.Do(func() {
		close(s.closeCh)
		if s.Queue != nil {
			s.Queue.Unsub(s.RxTopic)
			s.Queue.Close()
		}
	})
	return nil
}

func (s *Stream) handleMsg(_ string, payload []byte) {
	if len(payload) == 0 {
		return
	}
	s.lock.Lock()
	s.received = append(s.received, payload...)
	s.lock.Unlock()
	select {
	case s.notifyCh <- struct{}{}:
	default:
	}
}
