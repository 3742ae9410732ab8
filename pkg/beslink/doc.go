// Package beslink provides the framing layer of the BES boot ROM / programmer link.
package beslink

// A frame on the wire is:
//
//	[sync 0xBE][type][payload...][checksum]
//
// There is no length prefix. The total frame length is looked up from the
// type byte, and for FlashCommand from the byte following it. The checksum
// makes the sum of all frame bytes equal 0xFF modulo 256.
//
// A FlashRead response may be followed by a raw block of bytes whose length
// is known only to the caller. See Reader.ReadTrailingData.
//
// Producer: boot ROM / programmer on the device, and the host
// Consumer: the host flashing workflow
