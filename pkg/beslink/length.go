package beslink

const (
	// HeaderLength is the number of bytes needed to resolve a frame length.
	HeaderLength = 3
	// MinFrameLength is the fallback length for unknown types.
	MinFrameLength = 3
)

// FlashCommand subtypes with a non-default frame length.
const (
	FlashCommandSubtypeShort byte = 0x02
	FlashCommandSubtypeQuery byte = 0x08
)

var frameLengths = map[MessageType]int{
	TypeSync:              8,
	TypeStartProgrammer:   6,
	TypeProgrammerRunning: 6,
	TypeProgrammerStart:   6,
	TypeProgrammerInit:    11,
	TypeEraseBurnStart:    6,
	TypeFlashBurnData:     8,
	TypeFlashRead:         6,
}

// FrameLength resolves the total frame length, sync and checksum included,
// from the first HeaderLength bytes of a frame.
//
// For an unknown type, or a header shorter than HeaderLength, it returns
// MinFrameLength and false.
func FrameLength(header []byte) (int, bool) {
	if len(header) < HeaderLength {
		return MinFrameLength, false
	}
	t, sub := MessageType(header[1]), header[2]
	if t == TypeFlashCommand {
		switch sub {
		case FlashCommandSubtypeShort:
			return 9, true
		case FlashCommandSubtypeQuery:
			return 6, true
		default:
			return 22, true
		}
	}
	if n, ok := frameLengths[t]; ok {
		return n, true
	}
	return MinFrameLength, false
}
