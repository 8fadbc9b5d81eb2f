package vfs

import (
	"errors"
	"fmt"

	"github.com/ossyrian/mixvfs/internal/format"
)

var (
	// ErrNotMountable is returned by Mount for paths that are neither a directory, a
	// container file nor a name reachable through the mounted archives.
	ErrNotMountable = errors.New("not mountable")

	// ErrNoInstallDir aborts Scan when no install directory is known.
	ErrNoInstallDir = errors.New("no install directory")

	// ErrTypeMismatch is returned by OpenAs when the decoded file is not of the requested type.
	ErrTypeMismatch = errors.New("decoded file has unexpected type")
)

// FormatError reports bytes that could not be decoded as the format they claim to be.
type FormatError struct {
	Name   string
	Format format.Tag
	Err    error
}

func (e *FormatError) Error() string {
	return fmt.Sprintf("%s: invalid %s: %v", e.Name, e.Format, e.Err)
}

func (e *FormatError) Unwrap() error { return e.Err }

// MountError reports a path that could not be added to the mount table.
type MountError struct {
	Path string
	Err  error
}

func (e *MountError) Error() string {
	return fmt.Sprintf("mount %s: %v", e.Path, e.Err)
}

func (e *MountError) Unwrap() error { return e.Err }
