package rcon

import (
	"encoding/binary"
	"fmt"
	"io"
	"unicode/utf8"
)

// Packet types. The server answers a login with TypeAuthResponse, which
// shares its value with TypeExec.
const (
	TypeResponse     int32 = 0
	TypeExec         int32 = 2
	TypeAuthResponse int32 = 2
	TypeAuth         int32 = 3
)

// The id and type fields precede the payload, two terminators follow it.
const (
	headerSize    = 8
	trailerSize   = 2
	minPacketSize = headerSize + trailerSize
)

// MaxRequestPayload is the largest command the server accepts.
const MaxRequestPayload = 1446

// MaxPacketSize bounds the size field of a received packet.
const MaxPacketSize = 4096 + minPacketSize

// Packet is one RCON frame.
type Packet struct {
	ID      int32
	Type    int32
	Payload string
}

// MarshalBinary encodes p as size | id | type | payload | 0x00 | 0x00, all
// integers little-endian.
func (p Packet) MarshalBinary() ([]byte, error) {
	if len(p.Payload) > MaxRequestPayload {
		return nil, fmt.Errorf("%w: payload of %d bytes exceeds %d", ErrCommandTooLong, len(p.Payload), MaxRequestPayload)
	}
	size := headerSize + len(p.Payload) + trailerSize
	buf := make([]byte, 4+size)
	binary.LittleEndian.PutUint32(buf[0:4], uint32(size))
	binary.LittleEndian.PutUint32(buf[4:8], uint32(p.ID))
	binary.LittleEndian.PutUint32(buf[8:12], uint32(p.Type))
	copy(buf[12:], p.Payload)
	return buf, nil
}

// ReadPacket reads one frame from r.
func ReadPacket(r io.Reader) (Packet, error) {
	var sizeBuf [4]byte
	if _, err := io.ReadFull(r, sizeBuf[:]); err != nil {
		return Packet{}, err
	}
	size := int32(binary.LittleEndian.Uint32(sizeBuf[:]))
	if size < minPacketSize || size > MaxPacketSize {
		return Packet{}, fmt.Errorf("%w: invalid packet size %d", ErrDecode, size)
	}
	body := make([]byte, size)
	if _, err := io.ReadFull(r, body); err != nil {
		return Packet{}, err
	}
	payload := body[headerSize : int(size)-trailerSize]
	if !utf8.Valid(payload) {
		return Packet{}, fmt.Errorf("%w: payload is not valid utf-8", ErrDecode)
	}
	return Packet{
		ID:      int32(binary.LittleEndian.Uint32(body[0:4])),
		Type:    int32(binary.LittleEndian.Uint32(body[4:8])),
		Payload: string(payload),
	}, nil
}
