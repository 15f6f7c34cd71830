//go:build !linux

package gpio

// RealWatcher is not available on non-Linux platforms.
type RealWatcher struct{}

// NewRealWatcher returns ErrUnsupported on non-Linux platforms.
func NewRealWatcher(chip string) (*RealWatcher, error) {
	return nil, ErrUnsupported
}

// Watch is not implemented on non-Linux platforms.
func (w *RealWatcher) Watch(cfg LineConfig, h Handler) error {
	return ErrUnsupported
}

// Close is not implemented on non-Linux platforms.
func (w *RealWatcher) Close() error {
	return nil
}
