//go:build !linux && !darwin && !freebsd

package region

import (
	"context"
	"errors"
	"fmt"

	"github.com/Jeff-Souza/malloc/heap/dirty"
)

// Mapped is unavailable on this platform.
type Mapped struct{ Memory }

// NewMapped reports errors.ErrUnsupported on this platform.
func NewMapped(int) (*Mapped, error) {
	return nil, fmt.Errorf("region: anonymous mapping: %w", errors.ErrUnsupported)
}

// File is unavailable on this platform.
type File struct{ Memory }

// CreateFile reports errors.ErrUnsupported on this platform.
func CreateFile(string, int) (*File, error) {
	return nil, fmt.Errorf("region: file mapping: %w", errors.ErrUnsupported)
}

// OpenFile reports errors.ErrUnsupported on this platform.
func OpenFile(string, int) (*File, error) {
	return nil, fmt.Errorf("region: file mapping: %w", errors.ErrUnsupported)
}

// Path returns an empty string on this platform.
func (r *File) Path() string { return "" }

// Tracker returns nil on this platform.
func (r *File) Tracker() *dirty.Tracker { return nil }

// Sync reports errors.ErrUnsupported on this platform.
func (r *File) Sync(context.Context) error { return errors.ErrUnsupported }
