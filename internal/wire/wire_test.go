package wire

import (
	"testing"

	"github.com/ianremillard/webcardd/internal/jsonwire"
)

func TestDecodeRequestFullFields(t *testing.T) {
	root := jsonwire.Object()
	root.Set("i", jsonwire.String("42"))
	root.Set("c", jsonwire.Number(float32(CommandTransceive)))
	root.Set("r", jsonwire.Number(0))
	root.Set("p", jsonwire.Number(2))
	root.Set("a", jsonwire.String("00A4040000"))

	req, err := DecodeRequest(root)
	if err != nil {
		t.Fatalf("DecodeRequest: %v", err)
	}
	if req.ID != "42" {
		t.Errorf("ID = %q, want 42", req.ID)
	}
	if req.Command != CommandTransceive {
		t.Errorf("Command = %v, want CommandTransceive", req.Command)
	}
	if !req.HasReader || req.Reader != 0 {
		t.Errorf("Reader = (%v, %v), want (true, 0)", req.HasReader, req.Reader)
	}
	if !req.HasShare || req.Share != 2 {
		t.Errorf("Share = (%v, %v), want (true, 2)", req.HasShare, req.Share)
	}
	if req.APDU != "00A4040000" {
		t.Errorf("APDU = %q", req.APDU)
	}
}

func TestDecodeRequestMinimalFields(t *testing.T) {
	root := jsonwire.Object()
	root.Set("i", jsonwire.String("1"))
	root.Set("c", jsonwire.Number(float32(CommandGetVersion)))

	req, err := DecodeRequest(root)
	if err != nil {
		t.Fatalf("DecodeRequest: %v", err)
	}
	if req.HasReader {
		t.Error("HasReader should be false when r is absent")
	}
	if req.HasShare {
		t.Error("HasShare should be false when p is absent")
	}
}

func TestDecodeRequestMissingIDIsError(t *testing.T) {
	root := jsonwire.Object()
	root.Set("c", jsonwire.Number(1))

	if _, err := DecodeRequest(root); err == nil {
		t.Error("expected an error for a missing id")
	}
}

func TestDecodeRequestMissingCommandIsError(t *testing.T) {
	root := jsonwire.Object()
	root.Set("i", jsonwire.String("1"))

	if _, err := DecodeRequest(root); err == nil {
		t.Error("expected an error for a missing command")
	}
}

func TestDecodeRequestWrongTypeIDIsError(t *testing.T) {
	root := jsonwire.Object()
	root.Set("i", jsonwire.Number(1))
	root.Set("c", jsonwire.Number(1))

	if _, err := DecodeRequest(root); err == nil {
		t.Error("expected an error for a non-string id")
	}
}

func TestResponseMergesBodyAndSetsID(t *testing.T) {
	body := jsonwire.Object()
	body.Set("d", jsonwire.String("9000"))

	resp := Response("7", body, false)

	id, _ := mustGet(t, resp, "i").String()
	if id != "7" {
		t.Errorf("i = %q, want 7", id)
	}
	d, _ := mustGet(t, resp, "d").String()
	if d != "9000" {
		t.Errorf("d = %q, want 9000", d)
	}
	if _, ok := resp.Get("incomplete"); ok {
		t.Error("incomplete should be absent when false")
	}
}

func TestResponseIncompleteSetsFlag(t *testing.T) {
	resp := Response("3", nil, true)
	b, ok := mustGet(t, resp, "incomplete").Bool()
	if !ok || !b {
		t.Error("expected incomplete=true")
	}
}

func TestEventOmitsReaderWhenNegative(t *testing.T) {
	ev := Event(EventReadersMore, -1, "")
	if _, ok := ev.Get("r"); ok {
		t.Error("r should be absent for a non-reader-scoped event")
	}
	if _, ok := ev.Get("d"); ok {
		t.Error("d should be absent when atrHex is empty")
	}
	code, _ := mustGet(t, ev, "e").Number()
	if ReaderEvent(code) != EventReadersMore {
		t.Errorf("e = %v, want EventReadersMore", code)
	}
}

func TestEventIncludesReaderAndATR(t *testing.T) {
	ev := Event(EventCardInsertion, 1, "3B00")
	r, _ := mustGet(t, ev, "r").Number()
	if int(r) != 1 {
		t.Errorf("r = %v, want 1", r)
	}
	d, _ := mustGet(t, ev, "d").String()
	if d != "3B00" {
		t.Errorf("d = %q, want 3B00", d)
	}
}

func mustGet(t *testing.T, v *jsonwire.Value, key string) *jsonwire.Value {
	t.Helper()
	got, ok := v.Get(key)
	if !ok {
		t.Fatalf("missing field %q", key)
	}
	return got
}
