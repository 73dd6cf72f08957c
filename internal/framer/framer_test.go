package framer

import (
	"bytes"
	"encoding/binary"
	"io"
	"testing"
)

// scriptedPipe is a minimal availabilityReader double: it reports its
// buffered length until drained, then EOF once closed is set, without
// requiring a real OS pipe.
type scriptedPipe struct {
	buf    *bytes.Buffer
	closed bool
}

func (p *scriptedPipe) Read(b []byte) (int, error) { return p.buf.Read(b) }

func (p *scriptedPipe) Available() (int, error) {
	if p.buf.Len() == 0 && p.closed {
		return 0, io.EOF
	}
	return p.buf.Len(), nil
}

func encodeFrame(body []byte) []byte {
	hdr := make([]byte, 4)
	binary.LittleEndian.PutUint32(hdr, uint32(len(body)))
	return append(hdr, body...)
}

func TestTryReadReturnsValidFrame(t *testing.T) {
	body := []byte(`{"i":"1","c":10}`)
	in := &scriptedPipe{buf: bytes.NewBuffer(encodeFrame(body))}
	r := NewReader(in)

	status, got, err := r.TryRead()
	if err != nil {
		t.Fatalf("TryRead: %v", err)
	}
	if status != VALID {
		t.Fatalf("status = %v, want VALID", status)
	}
	if !bytes.Equal(got, body) {
		t.Errorf("body = %q, want %q", got, body)
	}
}

func TestTryReadEmptyPipeReturnsEmpty(t *testing.T) {
	in := &scriptedPipe{buf: new(bytes.Buffer)}
	r := NewReader(in)

	status, body, err := r.TryRead()
	if err != nil {
		t.Fatalf("TryRead: %v", err)
	}
	if status != EMPTY {
		t.Fatalf("status = %v, want EMPTY", status)
	}
	if body != nil {
		t.Errorf("body = %v, want nil", body)
	}
}

func TestTryReadClosedPipeReturnsNoMore(t *testing.T) {
	in := &scriptedPipe{buf: new(bytes.Buffer), closed: true}
	r := NewReader(in)

	status, _, _ := r.TryRead()
	if status != NOMORE {
		t.Fatalf("status = %v, want NOMORE", status)
	}
}

func TestTryReadPartialLengthPrefixIsEmpty(t *testing.T) {
	in := &scriptedPipe{buf: bytes.NewBuffer([]byte{0x05, 0x00})}
	r := NewReader(in)

	status, _, err := r.TryRead()
	if err != nil {
		t.Fatalf("TryRead: %v", err)
	}
	if status != EMPTY {
		t.Fatalf("status = %v, want EMPTY", status)
	}
}

func TestTryReadMismatchedLengthIsFramingViolation(t *testing.T) {
	hdr := make([]byte, 4)
	binary.LittleEndian.PutUint32(hdr, 100)
	in := &scriptedPipe{buf: bytes.NewBuffer(append(hdr, []byte("short")...))}
	r := NewReader(in)

	status, _, err := r.TryRead()
	if status != NOMORE {
		t.Fatalf("status = %v, want NOMORE", status)
	}
	if err == nil {
		t.Error("expected a framing violation error")
	}
}

func TestTryReadOversizeLengthIsFramingViolation(t *testing.T) {
	hdr := make([]byte, 4)
	binary.LittleEndian.PutUint32(hdr, MaxFrameSize+1)
	in := &scriptedPipe{buf: bytes.NewBuffer(hdr)}
	r := NewReader(in)

	status, _, err := r.TryRead()
	if status != NOMORE {
		t.Fatalf("status = %v, want NOMORE", status)
	}
	if err == nil {
		t.Error("expected a framing violation error")
	}
}

func TestTryReadAfterDrainingFrameReturnsEmpty(t *testing.T) {
	var buf bytes.Buffer
	buf.Write(encodeFrame([]byte(`{"i":"1"}`)))
	in := &scriptedPipe{buf: &buf}
	r := NewReader(in)

	status, body, err := r.TryRead()
	if err != nil || status != VALID {
		t.Fatalf("first TryRead: status=%v err=%v", status, err)
	}
	if string(body) != `{"i":"1"}` {
		t.Errorf("first body = %q", body)
	}

	status, _, err = r.TryRead()
	if err != nil {
		t.Fatalf("second TryRead: %v", err)
	}
	if status != EMPTY {
		t.Fatalf("second status = %v, want EMPTY", status)
	}
}

func TestWriteThenReadRoundTrips(t *testing.T) {
	var out bytes.Buffer
	body := []byte(`{"d":"3B00"}`)
	if err := Write(&out, body); err != nil {
		t.Fatalf("Write: %v", err)
	}

	in := &scriptedPipe{buf: bytes.NewBuffer(out.Bytes())}
	r := NewReader(in)
	status, got, err := r.TryRead()
	if err != nil || status != VALID {
		t.Fatalf("TryRead: status=%v err=%v", status, err)
	}
	if !bytes.Equal(got, body) {
		t.Errorf("got %q, want %q", got, body)
	}
}

func TestWriteRejectsEmptyBody(t *testing.T) {
	var out bytes.Buffer
	if err := Write(&out, nil); err == nil {
		t.Error("expected error writing an empty frame")
	}
}
