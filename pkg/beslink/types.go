package beslink

import "fmt"

// Sync is the leading byte of every frame.
const Sync byte = 0xBE

// MessageType is the type byte of a frame.
type MessageType byte

// Known message types.
const (
	TypeFlashRead         MessageType = 0x03
	TypeSync              MessageType = 0x50
	TypeStartProgrammer   MessageType = 0x53
	TypeProgrammerRunning MessageType = 0x54
	TypeProgrammerStart   MessageType = 0x55
	TypeProgrammerInit    MessageType = 0x60
	TypeEraseBurnStart    MessageType = 0x61
	TypeFlashBurnData     MessageType = 0x62
	TypeFlashCommand      MessageType = 0x65
)

var messageTypeNames = map[MessageType]string{
	TypeFlashRead:         "FlashRead",
	TypeSync:              "Sync",
	TypeStartProgrammer:   "StartProgrammer",
	TypeProgrammerRunning: "ProgrammerRunning",
	TypeProgrammerStart:   "ProgrammerStart",
	TypeProgrammerInit:    "ProgrammerInit",
	TypeEraseBurnStart:    "EraseBurnStart",
	TypeFlashBurnData:     "FlashBurnData",
	TypeFlashCommand:      "FlashCommand",
}

// MessageTypes lists all known message types in wire code order.
func MessageTypes() []MessageType {
	return []MessageType{
		TypeFlashRead,
		TypeSync,
		TypeStartProgrammer,
		TypeProgrammerRunning,
		TypeProgrammerStart,
		TypeProgrammerInit,
		TypeEraseBurnStart,
		TypeFlashBurnData,
		TypeFlashCommand,
	}
}

// ParseMessageType converts a raw type byte.
// The returned bool is false if the byte is not a known type, in which case
// the raw value is still returned.
func ParseMessageType(b byte) (MessageType, bool) {
	t := MessageType(b)
	return t, t.IsKnown()
}

// LookupMessageType finds a known type by its name (case sensitive).
func LookupMessageType(name string) (MessageType, bool) {
	for t, n := range messageTypeNames {
		if n == name {
			return t, true
		}
	}
	return 0, false
}

// IsKnown checks if it's a known message type.
func (t MessageType) IsKnown() bool {
	_, ok := messageTypeNames[t]
	return ok
}

// String implements fmt.Stringer.
func (t MessageType) String() string {
	if name, ok := messageTypeNames[t]; ok {
		return name
	}
	return fmt.Sprintf("Unknown(0x%02X)", byte(t))
}
