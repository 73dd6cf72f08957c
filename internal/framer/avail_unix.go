//go:build unix

package framer

import (
	"io"
	"os"

	"golang.org/x/sys/unix"
)

// unixAvailReader peeks readable-byte counts on Unix pipes via FIONREAD,
// matching the non-blocking peek the spec requires of the framer.
type unixAvailReader struct {
	f *os.File
}

func wrapAvailable(r io.Reader) availabilityReader {
	if ar, ok := r.(availabilityReader); ok {
		return ar
	}
	if f, ok := r.(*os.File); ok {
		return &unixAvailReader{f: f}
	}
	return newGenericAvailReader(r)
}

func (a *unixAvailReader) Read(p []byte) (int, error) {
	return a.f.Read(p)
}

func (a *unixAvailReader) Available() (int, error) {
	fd := int(a.f.Fd())
	fds := []unix.PollFd{{Fd: int32(fd), Events: unix.POLLIN}}
	if _, err := unix.Poll(fds, 0); err != nil && err != unix.EINTR {
		return 0, err
	}
	n, err := unix.IoctlGetInt(fd, unix.FIONREAD)
	if err != nil {
		return 0, err
	}
	if n == 0 && fds[0].Revents&(unix.POLLIN|unix.POLLHUP) != 0 {
		// Readable with nothing buffered: the write end has been closed.
		return 0, io.EOF
	}
	return n, nil
}
