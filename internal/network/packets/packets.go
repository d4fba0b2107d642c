// Package packets defines the replication wire framing.
//
// Every packet is a fixed header followed by a msgpack payload:
//
//	offset 0  uint16  packet id     (little-endian)
//	offset 2  uint32  payload size  (little-endian)
package packets

import (
	"encoding/binary"
	"fmt"
)

// Packet IDs
const (
	// Peer -> Peer
	PacketHello  uint16 = 0x0001 // Participant name
	PacketUpdate uint16 = 0x0002 // Replicated state delta
	PacketEvent  uint16 = 0x0003 // One-shot event
	PacketPing   uint16 = 0x0004 // Send time, echoed back as a pong
	PacketPong   uint16 = 0x0005
)

// HeaderSize is the size of the frame header in bytes.
const HeaderSize = 6

// MaxPayload bounds a single packet body.
const MaxPayload = 64 * 1024

// Header prefixes every packet.
type Header struct {
	ID     uint16
	Length uint32
}

// Put writes the header into buf, which must hold HeaderSize bytes.
func (h Header) Put(buf []byte) {
	binary.LittleEndian.PutUint16(buf[0:], h.ID)
	binary.LittleEndian.PutUint32(buf[2:], h.Length)
}

// ParseHeader decodes a header and rejects oversized payloads.
func ParseHeader(buf []byte) (Header, error) {
	if len(buf) < HeaderSize {
		return Header{}, fmt.Errorf("header too short: %d bytes", len(buf))
	}
	h := Header{
		ID:     binary.LittleEndian.Uint16(buf[0:]),
		Length: binary.LittleEndian.Uint32(buf[2:]),
	}
	if h.Length > MaxPayload {
		return Header{}, fmt.Errorf("packet 0x%04X: payload of %d bytes exceeds %d", h.ID, h.Length, MaxPayload)
	}
	return h, nil
}

// Name returns a readable name for a packet id.
func Name(id uint16) string {
	switch id {
	case PacketHello:
		return "hello"
	case PacketUpdate:
		return "update"
	case PacketEvent:
		return "event"
	case PacketPing:
		return "ping"
	case PacketPong:
		return "pong"
	default:
		return fmt.Sprintf("0x%04X", id)
	}
}
