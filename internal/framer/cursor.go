package framer

// Cursor is a forward-only cursor over a single frame's body, used by the
// JSON parser to consume bytes without copying the underlying buffer.
type Cursor struct {
	buf []byte
	pos int
}

// NewCursor wraps buf for sequential consumption starting at offset 0.
func NewCursor(buf []byte) *Cursor {
	return &Cursor{buf: buf}
}

// Peek returns the next unconsumed byte without advancing, and false if the
// cursor is at the end of the buffer.
func (c *Cursor) Peek() (byte, bool) {
	if c.pos >= len(c.buf) {
		return 0, false
	}
	return c.buf[c.pos], true
}

// PeekAt returns the byte offset bytes ahead of the cursor without
// advancing, and false if that position is past the end of the buffer.
func (c *Cursor) PeekAt(offset int) (byte, bool) {
	i := c.pos + offset
	if i < 0 || i >= len(c.buf) {
		return 0, false
	}
	return c.buf[i], true
}

// Advance moves the cursor forward by n bytes, clamped to the buffer end.
func (c *Cursor) Advance(n int) {
	c.pos += n
	if c.pos > len(c.buf) {
		c.pos = len(c.buf)
	}
}

// ReadN returns the next n bytes and advances past them. ok is false if
// fewer than n bytes remain, in which case the cursor is not advanced.
func (c *Cursor) ReadN(n int) (data []byte, ok bool) {
	if c.pos+n > len(c.buf) {
		return nil, false
	}
	data = c.buf[c.pos : c.pos+n]
	c.pos += n
	return data, true
}

// SkipWhitespace advances past any run of {space, \t, \n, \r}.
func (c *Cursor) SkipWhitespace() {
	for c.pos < len(c.buf) {
		switch c.buf[c.pos] {
		case ' ', '\t', '\n', '\r':
			c.pos++
		default:
			return
		}
	}
}

// SliceFrom returns the bytes from start up to (not including) the cursor's
// current position, without allocating a copy.
func (c *Cursor) SliceFrom(start int) []byte {
	return c.buf[start:c.pos]
}

// AtEnd reports whether every byte in the buffer has been consumed.
func (c *Cursor) AtEnd() bool {
	return c.pos >= len(c.buf)
}

// Pos returns the current byte offset, mainly for error messages.
func (c *Cursor) Pos() int {
	return c.pos
}
