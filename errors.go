package termview

import (
	"errors"
	"fmt"
)

var (
	// ErrLoad is matched by every *LoadError
	ErrLoad = errors.New("unable to read image")
	// ErrUnsupportedOutput is returned for backends this package cannot render to
	ErrUnsupportedOutput = errors.New("unsupported output")
)

// LoadError reports an image that could not be decoded
type LoadError struct {
	Path string
	Err  error
}

func (e *LoadError) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("%s: %s", ErrLoad, e.Path)
	}
	return fmt.Sprintf("%s %s: %v", ErrLoad, e.Path, e.Err)
}

func (e *LoadError) Unwrap() []error {
	if e.Err == nil {
		return []error{ErrLoad}
	}
	return []error{ErrLoad, e.Err}
}

// CacheWriteError reports a resized image that could not be persisted. It is
// logged by the cache and never returned from Load.
type CacheWriteError struct {
	Path string
	Err  error
}

func (e *CacheWriteError) Error() string {
	return fmt.Sprintf("failed to write cache file %s: %v", e.Path, e.Err)
}

func (e *CacheWriteError) Unwrap() error {
	return e.Err
}
