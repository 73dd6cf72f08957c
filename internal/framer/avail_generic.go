package framer

import "io"

// lenReader is implemented by in-memory readers (bytes.Reader, bytes.Buffer,
// strings.Reader) that can report their remaining length cheaply. Tests
// feed the Reader from one of these rather than a real pipe.
type lenReader interface {
	Len() int
}

// genericAvailReader is the fallback used for any source that isn't a
// *os.File on a platform with a native peek syscall. When the source also
// implements lenReader its exact remaining byte count is used; otherwise
// Available conservatively reports EMPTY, since there is no safe way to
// peek without risking a block.
type genericAvailReader struct {
	r  io.Reader
	lr lenReader
}

func newGenericAvailReader(r io.Reader) *genericAvailReader {
	lr, _ := r.(lenReader)
	return &genericAvailReader{r: r, lr: lr}
}

func (g *genericAvailReader) Read(p []byte) (int, error) {
	return g.r.Read(p)
}

func (g *genericAvailReader) Available() (int, error) {
	if g.lr != nil {
		return g.lr.Len(), nil
	}
	return 0, nil
}
