//go:build !unix && !windows

package framer

import "io"

func wrapAvailable(r io.Reader) availabilityReader {
	if ar, ok := r.(availabilityReader); ok {
		return ar
	}
	return newGenericAvailReader(r)
}
