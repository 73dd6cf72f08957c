// Package wire defines the restricted wire vocabulary from spec.md §3 and
// §6: inbound requests, outbound responses and events, and the command/event
// code enums, encoded/decoded through internal/jsonwire.
package wire

import "github.com/ianremillard/webcardd/internal/jsonwire"

// Command is the COMMAND enum from spec.md §6.
type Command int

const (
	CommandNone        Command = 0
	CommandListReaders Command = 1
	CommandConnect     Command = 2
	CommandDisconnect  Command = 3
	CommandTransceive  Command = 4
	CommandGetVersion  Command = 10
)

// ReaderEvent is the READEREVENT enum from spec.md §6.
type ReaderEvent int

const (
	EventNone          ReaderEvent = 0
	EventCardInsertion ReaderEvent = 1
	EventCardRemoval   ReaderEvent = 2
	EventReadersMore   ReaderEvent = 3
	EventReadersLess   ReaderEvent = 4
)

// Version is the helper's GET_VERSION response string, per spec.md §6.
const Version = "0.3.1"

// Request is a decoded inbound message: §3's {i, c, r, p, a} object.
type Request struct {
	ID        string  // "i" — correlation id, required
	Command   Command // "c" — required
	HasReader bool
	Reader    int // "r" — reader index, when HasReader
	HasShare  bool
	Share     int // "p" — share mode, when HasShare
	APDU      string // "a" — hex, no separators
}

// DecodeRequest validates and extracts a Request from a parsed JSON root
// value. It returns an error only when "i" or "c" is missing or mistyped;
// when "i" was valid and only "c" failed, the returned Request still
// carries ID so the caller can answer with an "incomplete" response. All
// other validation failures are the dispatcher's job to turn into an
// "incomplete" response.
func DecodeRequest(root *jsonwire.Value) (Request, error) {
	var req Request

	idVal, ok := root.Get("i")
	if !ok {
		return req, errMissingField("i")
	}
	id, ok := idVal.String()
	if !ok {
		return req, errWrongType("i", "string")
	}
	req.ID = id

	cVal, ok := root.Get("c")
	if !ok {
		return req, errMissingField("c")
	}
	cNum, ok := cVal.Number()
	if !ok {
		return req, errWrongType("c", "number")
	}
	req.Command = Command(int(cNum))

	if rVal, ok := root.Get("r"); ok {
		if n, ok := rVal.Number(); ok {
			req.HasReader = true
			req.Reader = int(n)
		}
	}
	if pVal, ok := root.Get("p"); ok {
		if n, ok := pVal.Number(); ok {
			req.HasShare = true
			req.Share = int(n)
		}
	}
	if aVal, ok := root.Get("a"); ok {
		if s, ok := aVal.String(); ok {
			req.APDU = s
		}
	}

	return req, nil
}

// Response builds the outbound {i, ...} object for a completed request.
// body carries the command-specific payload fields (already set on it by
// the caller via jsonwire.Value.Set); Response only owns the "i" and
// optional "incomplete" fields.
func Response(id string, body *jsonwire.Value, incomplete bool) *jsonwire.Value {
	if body == nil {
		body = jsonwire.Object()
	}
	out := jsonwire.Object()
	out.Set("i", jsonwire.String(id))
	for _, m := range body.Members() {
		out.Set(m.Key, m.Val)
	}
	if incomplete {
		out.Set("incomplete", jsonwire.Bool(true))
	}
	return out
}

// Event builds an outbound event frame: {e, r?, d?}. reader < 0 means the
// event is not reader-scoped; atrHex is only set for CARD_INSERTION.
func Event(event ReaderEvent, reader int, atrHex string) *jsonwire.Value {
	out := jsonwire.Object()
	out.Set("e", jsonwire.Number(float32(event)))
	if reader >= 0 {
		out.Set("r", jsonwire.Number(float32(reader)))
	}
	if atrHex != "" {
		out.Set("d", jsonwire.String(atrHex))
	}
	return out
}

type wireError struct{ msg string }

func (e *wireError) Error() string { return e.msg }

func errMissingField(name string) error {
	return &wireError{msg: "wire: missing required field " + name}
}

func errWrongType(name, want string) error {
	return &wireError{msg: "wire: field " + name + " is not a " + want}
}
