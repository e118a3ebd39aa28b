package midi

import "encoding/binary"

// cursor is a bounds-checked reader over an in-memory MIDI byte buffer.
// All multi-byte reads are big-endian, per the SMF format.
type cursor struct {
	data []byte
	pos  int
}

func (c *cursor) remaining() int {
	return len(c.data) - c.pos
}

func (c *cursor) readBytes(n int) ([]byte, bool) {
	if n < 0 || c.remaining() < n {
		return nil, false
	}
	b := c.data[c.pos : c.pos+n]
	c.pos += n
	return b, true
}

func (c *cursor) readByte() (byte, bool) {
	if c.remaining() < 1 {
		return 0, false
	}
	b := c.data[c.pos]
	c.pos++
	return b, true
}

func (c *cursor) unreadByte() {
	if c.pos > 0 {
		c.pos--
	}
}

func (c *cursor) readUint16() (uint16, bool) {
	b, ok := c.readBytes(2)
	if !ok {
		return 0, false
	}
	return binary.BigEndian.Uint16(b), true
}

func (c *cursor) readUint32() (uint32, bool) {
	b, ok := c.readBytes(4)
	if !ok {
		return 0, false
	}
	return binary.BigEndian.Uint32(b), true
}

// varLength reads a MIDI variable-length quantity: 7 bits per byte,
// big-endian, with the high bit as a continuation flag. It returns the
// value and the number of bytes consumed; a zero byte count means the
// stream ran out mid-quantity. Values are capped at 7 continuation bytes,
// matching the widest quantity a sane file can carry.
func (c *cursor) varLength() (int, int) {
	value := 0
	bytesRead := 0
	for shift := 0; shift <= 42; shift += 7 {
		b, ok := c.readByte()
		if !ok {
			return 0, 0
		}
		bytesRead++
		value = value<<7 | int(b&0x7F)
		if b&0x80 == 0 {
			return value, bytesRead
		}
	}
	return value, bytesRead
}
