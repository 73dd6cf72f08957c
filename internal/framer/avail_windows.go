//go:build windows

package framer

import (
	"io"
	"os"

	"golang.org/x/sys/windows"
)

// windowsAvailReader peeks readable-byte counts via PeekNamedPipe, the
// Windows analogue of the Unix FIONREAD ioctl used elsewhere in this
// package.
type windowsAvailReader struct {
	f *os.File
}

func wrapAvailable(r io.Reader) availabilityReader {
	if ar, ok := r.(availabilityReader); ok {
		return ar
	}
	if f, ok := r.(*os.File); ok {
		return &windowsAvailReader{f: f}
	}
	return newGenericAvailReader(r)
}

func (a *windowsAvailReader) Read(p []byte) (int, error) {
	return a.f.Read(p)
}

func (a *windowsAvailReader) Available() (int, error) {
	handle := windows.Handle(a.f.Fd())
	var avail uint32
	if err := windows.PeekNamedPipe(handle, nil, 0, nil, &avail, nil); err != nil {
		if err == windows.ERROR_BROKEN_PIPE {
			return 0, io.EOF
		}
		return 0, err
	}
	return int(avail), nil
}
