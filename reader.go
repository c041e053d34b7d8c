package psd

import "encoding/binary"

// cursor provides positional big-endian reading over an in-memory byte
// stream. All multi-byte PSD fields are big-endian regardless of host
// order; every read either consumes exactly what it asked for or fails
// with ErrTruncated without advancing.
type cursor struct {
	data []byte
	pos  int
}

func newCursor(data []byte) *cursor {
	return &cursor{data: data}
}

// offset returns the current absolute byte offset, for diagnostics and
// section length reconciliation.
func (c *cursor) offset() int {
	return c.pos
}

// remaining returns the number of unread bytes.
func (c *cursor) remaining() int {
	return len(c.data) - c.pos
}

// read returns the next n bytes. The returned slice aliases the
// underlying stream; callers that retain it must copy.
func (c *cursor) read(n int) ([]byte, error) {
	if n < 0 || c.pos+n > len(c.data) {
		return nil, ErrTruncated
	}
	b := c.data[c.pos : c.pos+n]
	c.pos += n
	return b, nil
}

// skip advances past n bytes without materializing them.
func (c *cursor) skip(n int) error {
	if n < 0 || c.pos+n > len(c.data) {
		return ErrTruncated
	}
	c.pos += n
	return nil
}

func (c *cursor) readUint8() (uint8, error) {
	b, err := c.read(1)
	if err != nil {
		return 0, err
	}
	return b[0], nil
}

func (c *cursor) readUint16() (uint16, error) {
	b, err := c.read(2)
	if err != nil {
		return 0, err
	}
	return binary.BigEndian.Uint16(b), nil
}

func (c *cursor) readInt16() (int16, error) {
	v, err := c.readUint16()
	return int16(v), err
}

func (c *cursor) readUint32() (uint32, error) {
	b, err := c.read(4)
	if err != nil {
		return 0, err
	}
	return binary.BigEndian.Uint32(b), nil
}

func (c *cursor) readInt32() (int32, error) {
	v, err := c.readUint32()
	return int32(v), err
}

// readSignature reads a 4-byte tag and returns it as a string ("8BPS",
// "8BIM", "norm", ...).
func (c *cursor) readSignature() (string, error) {
	b, err := c.read(4)
	if err != nil {
		return "", err
	}
	return string(b), nil
}
