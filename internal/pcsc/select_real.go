//go:build cgo && (linux || darwin || windows)

package pcsc

// NewPlatformAdapter returns the production PC/SC backend on platforms
// where github.com/ebfe/scard's cgo binding is available.
func NewPlatformAdapter() Adapter {
	return NewRealAdapter()
}
