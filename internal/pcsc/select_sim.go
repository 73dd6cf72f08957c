//go:build !cgo || (!linux && !darwin && !windows)

package pcsc

// NewPlatformAdapter falls back to the software simulator on builds
// without cgo, or on platforms github.com/ebfe/scard does not support.
func NewPlatformAdapter() Adapter {
	return NewSimulator()
}
