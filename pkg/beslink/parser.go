package beslink

import "github.com/golang/glog"

// UnknownTypePolicy decides what the parser does with a header whose type
// byte isn't known.
type UnknownTypePolicy int

const (
	// UnknownTypeAccept resolves the frame length to MinFrameLength, so the
	// 3-byte header is taken as a complete frame and goes on to checksum
	// verification.
	UnknownTypeAccept UnknownTypePolicy = iota
	// UnknownTypeReject fails with *UnknownTypeError once the header is received.
	UnknownTypeReject
	// UnknownTypeResync drops the sync byte and hunts for the next sync byte
	// starting from the rest of the header.
	UnknownTypeResync
)

var unknownTypePolicyNames = []string{"accept", "reject", "resync"}

// String implements fmt.Stringer.
func (p UnknownTypePolicy) String() string {
	if p >= 0 && int(p) < len(unknownTypePolicyNames) {
		return unknownTypePolicyNames[p]
	}
	return "invalid"
}

// ParseUnknownTypePolicy parses the name of a policy.
func ParseUnknownTypePolicy(name string) (UnknownTypePolicy, bool) {
	for n, s := range unknownTypePolicyNames {
		if s == name {
			return UnknownTypePolicy(n), true
		}
	}
	return UnknownTypeAccept, false
}

// ParseState is the state of frame parsing.
type ParseState int

const (
	// StateSeeking means no byte is accepted yet, waiting for sync.
	StateSeeking ParseState = iota
	// StateHeader means sync is received, waiting for the length header.
	StateHeader
	// StateLengthKnown means the header is received and the length resolved.
	StateLengthKnown
	// StateBody means waiting for the rest of the frame.
	StateBody
	// StateComplete means a complete frame is returned.
	StateComplete
)

var parseStateNames = []string{"seeking", "header", "length-known", "body", "complete"}

// String implements fmt.Stringer.
func (s ParseState) String() string {
	if s >= 0 && int(s) < len(parseStateNames) {
		return parseStateNames[s]
	}
	return "invalid"
}

// Parser assembles frames from bytes received one at a time.
// The zero value is ready to use with UnknownTypeAccept.
type Parser struct {
	UnknownType UnknownTypePolicy

	state    ParseState
	buf      []byte
	frameLen int
}

// State gets the current parse state.
func (p *Parser) State() ParseState {
	return p.state
}

// Buffered returns a copy of the bytes accepted for the frame in progress.
func (p *Parser) Buffered() []byte {
	return append([]byte(nil), p.buf...)
}

// Reset drops the frame in progress and returns the dropped bytes.
func (p *Parser) Reset() []byte {
	partial := p.buf
	p.buf, p.frameLen, p.state = nil, 0, StateSeeking
	return partial
}

// Parse consumes one byte. It returns the frame when the byte completes one.
// The only error is *UnknownTypeError with UnknownTypeReject.
func (p *Parser) Parse(b byte) ([]byte, error) {
	switch p.state {
	case StateSeeking, StateComplete:
		if b != Sync {
			return nil, nil
		}
		p.buf, p.frameLen = append(make([]byte, 0, 32), b), 0
		p.state = StateHeader
		return nil, nil
	case StateHeader:
		p.buf = append(p.buf, b)
		if len(p.buf) < HeaderLength {
			return nil, nil
		}
		return p.resolveLength()
	default:
		p.buf = append(p.buf, b)
		return p.checkComplete(), nil
	}
}

func (p *Parser) resolveLength() ([]byte, error) {
	n, known := FrameLength(p.buf)
	if !known {
		glog.Warningf("unknown packet len 0x%02X/0x%02X", p.buf[1], p.buf[2])
		switch p.UnknownType {
		case UnknownTypeReject:
			header := p.Reset()
			return nil, &UnknownTypeError{Type: header[1], Header: header}
		case UnknownTypeResync:
			rest := p.Reset()[1:]
			for _, b := range rest {
				if frame, err := p.Parse(b); frame != nil || err != nil {
					return frame, err
				}
			}
			return nil, nil
		}
	}
	glog.V(3).Infof("got packet len lookup %d for 0x%02X", n, p.buf[1])
	p.frameLen, p.state = n, StateLengthKnown
	return p.checkComplete(), nil
}

func (p *Parser) checkComplete() []byte {
	if len(p.buf) < p.frameLen {
		p.state = StateBody
		return nil
	}
	frame := p.buf
	p.buf, p.frameLen, p.state = nil, 0, StateComplete
	return frame
}
