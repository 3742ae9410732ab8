package beslink

// Checksum calculates the checksum of frame bytes preceding the checksum byte.
// The result makes the modulo-256 sum of the whole frame equal 0xFF.
func Checksum(b []byte) byte {
	var sum uint32
	for _, v := range b {
		sum = (sum + uint32(v)) & 0xff
	}
	return byte(0xff - sum)
}

// VerifyChecksum checks the last byte of frame against the checksum of the
// bytes before it. A mismatch returns *BadChecksumError.
func VerifyChecksum(frame []byte) error {
	if len(frame) == 0 {
		return ErrShortFrame
	}
	last := len(frame) - 1
	if want := Checksum(frame[:last]); want != frame[last] {
		return &BadChecksumError{
			Frame: append([]byte(nil), frame...),
			Want:  want,
			Got:   frame[last],
		}
	}
	return nil
}
