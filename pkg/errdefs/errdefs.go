// Package errdefs defines the error classes surfaced by path resolution,
// archive access and listing. Callers wrap them with context and test for
// them with errors.Is.
package errdefs

import "github.com/pkg/errors"

var (
	// ErrInvalidPath is returned for malformed virtual paths or paths that
	// would escape the root directory.
	ErrInvalidPath = errors.New("invalid path")
	// ErrNotFound is returned when the target directory or archive is absent.
	ErrNotFound = errors.New("not found")
	// ErrNotADirectory is returned when a listing targets a regular file.
	ErrNotADirectory = errors.New("not a directory")
	// ErrArchiveOpen is returned when an archive is unreadable or its format
	// is not recognized.
	ErrArchiveOpen = errors.New("cannot open archive")
	// ErrEntryNotFound is returned when no file entry of an archive matches
	// the requested path.
	ErrEntryNotFound = errors.New("archive entry not found")
)

// IsInvalidPath reports whether err is an ErrInvalidPath.
func IsInvalidPath(err error) bool {
	return errors.Is(err, ErrInvalidPath)
}

// IsNotFound reports whether err means the target does not exist, either on
// disk or inside an archive.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound) || errors.Is(err, ErrEntryNotFound)
}

// IsNotADirectory reports whether err is an ErrNotADirectory.
func IsNotADirectory(err error) bool {
	return errors.Is(err, ErrNotADirectory)
}

// IsArchiveOpen reports whether err is an ErrArchiveOpen.
func IsArchiveOpen(err error) bool {
	return errors.Is(err, ErrArchiveOpen)
}
