package pdu

import (
	"encoding/binary"
	"fmt"
)

// cursor is a small bounds-checked reader over an in-memory PDU body. PDUs
// arrive as a single length-prefixed blob (see ReadPDU), so the codec works
// over a byte slice rather than a streaming reader.
type cursor struct {
	buf []byte
	pos int
}

func newCursor(buf []byte) *cursor {
	return &cursor{buf: buf}
}

func (c *cursor) remaining() int {
	return len(c.buf) - c.pos
}

func (c *cursor) exhausted() bool {
	return c.remaining() <= 0
}

func (c *cursor) skip(n int) error {
	if c.remaining() < n {
		return fmt.Errorf("pdu: truncated: need %d bytes, have %d", n, c.remaining())
	}
	c.pos += n
	return nil
}

func (c *cursor) readByte() (byte, error) {
	if c.remaining() < 1 {
		return 0, fmt.Errorf("pdu: truncated: need 1 byte, have 0")
	}
	b := c.buf[c.pos]
	c.pos++
	return b, nil
}

func (c *cursor) readUint16() (uint16, error) {
	if c.remaining() < 2 {
		return 0, fmt.Errorf("pdu: truncated: need 2 bytes, have %d", c.remaining())
	}
	v := binary.BigEndian.Uint16(c.buf[c.pos : c.pos+2])
	c.pos += 2
	return v, nil
}

func (c *cursor) readUint32() (uint32, error) {
	if c.remaining() < 4 {
		return 0, fmt.Errorf("pdu: truncated: need 4 bytes, have %d", c.remaining())
	}
	v := binary.BigEndian.Uint32(c.buf[c.pos : c.pos+4])
	c.pos += 4
	return v, nil
}

func (c *cursor) readBytes(n int) ([]byte, error) {
	if c.remaining() < n {
		return nil, fmt.Errorf("pdu: truncated: need %d bytes, have %d", n, c.remaining())
	}
	b := c.buf[c.pos : c.pos+n]
	c.pos += n
	return b, nil
}

func (c *cursor) readString(n int) (string, error) {
	b, err := c.readBytes(n)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

// sub returns a cursor limited to exactly n bytes starting at the current
// position, and advances the parent past them.
func (c *cursor) sub(n int) (*cursor, error) {
	b, err := c.readBytes(n)
	if err != nil {
		return nil, err
	}
	return newCursor(b), nil
}

// writer accumulates a PDU body. A thin wrapper so call sites read the same
// way regardless of byte order (always big-endian on the wire).
type writer struct {
	buf []byte
}

func (w *writer) writeByte(b byte) {
	w.buf = append(w.buf, b)
}

func (w *writer) writeUint16(v uint16) {
	var b [2]byte
	binary.BigEndian.PutUint16(b[:], v)
	w.buf = append(w.buf, b[:]...)
}

func (w *writer) writeUint32(v uint32) {
	var b [4]byte
	binary.BigEndian.PutUint32(b[:], v)
	w.buf = append(w.buf, b[:]...)
}

func (w *writer) writeZeros(n int) {
	w.buf = append(w.buf, make([]byte, n)...)
}

func (w *writer) writeString(s string) {
	w.buf = append(w.buf, []byte(s)...)
}

func (w *writer) writeBytes(b []byte) {
	w.buf = append(w.buf, b...)
}

func (w *writer) bytes() []byte {
	return w.buf
}
