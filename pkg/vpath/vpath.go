// Package vpath resolves virtual paths. A virtual path addresses either a
// directory under the served root ("albums/vacation") or a location inside an
// archive file found under the root ("albums/book.zip//chapter1/page2.png").
package vpath

import (
	"path"
	"path/filepath"
	"strings"

	"github.com/crazy-max/imgplayer/pkg/errdefs"
	"github.com/pkg/errors"
)

// Delimiter separates the on-disk archive path from the path inside it.
const Delimiter = "//"

// Path is a resolved virtual path.
type Path struct {
	// Virtual is the path as requested
	Virtual string
	// Disk is the slash separated path relative to the root. Empty for the
	// root itself.
	Disk string
	// Archive is the path inside the archive, without leading or trailing
	// slashes. Empty for the top of the archive.
	Archive string
	// InArchive is true when Disk points to an archive file
	InArchive bool
}

// Resolve splits a virtual path on the first delimiter. The check is purely
// lexical so a traversal attempt is rejected before the filesystem is touched.
func Resolve(virtual string) (Path, error) {
	if strings.IndexByte(virtual, 0) >= 0 {
		return Path{}, errors.Wrapf(errdefs.ErrInvalidPath, "%q contains a NUL byte", virtual)
	}

	p := Path{Virtual: virtual}
	disk, inner, found := strings.Cut(virtual, Delimiter)

	var err error
	if p.Disk, err = cleanDisk(disk); err != nil {
		return Path{}, errors.Wrapf(err, "%q", virtual)
	}
	if !found {
		return p, nil
	}

	if p.Disk == "" {
		return Path{}, errors.Wrapf(errdefs.ErrInvalidPath, "%q has no archive before %s", virtual, Delimiter)
	}
	p.InArchive = true
	if p.Archive, err = cleanArchive(inner); err != nil {
		return Path{}, errors.Wrapf(err, "%q", virtual)
	}
	return p, nil
}

// DiskPath returns the absolute filesystem path of p under root.
func (p Path) DiskPath(root string) string {
	return filepath.Join(root, filepath.FromSlash(p.Disk))
}

// String returns the canonical form of p.
func (p Path) String() string {
	if !p.InArchive {
		return p.Disk
	}
	return p.Disk + Delimiter + p.Archive
}

func cleanDisk(disk string) (string, error) {
	if filepath.Separator != '/' && strings.ContainsRune(disk, filepath.Separator) {
		return "", errors.Wrap(errdefs.ErrInvalidPath, "separator in path segment")
	}
	disk = path.Clean("./" + strings.TrimLeft(disk, "/"))
	if disk == ".." || strings.HasPrefix(disk, "../") {
		return "", errors.Wrap(errdefs.ErrInvalidPath, "path escapes root")
	}
	if disk == "." {
		return "", nil
	}
	return disk, nil
}

func cleanArchive(inner string) (string, error) {
	inner = strings.Trim(inner, "/")
	if strings.Contains(inner, Delimiter) {
		return "", errors.Wrap(errdefs.ErrInvalidPath, "nested archive paths are not supported")
	}
	for _, seg := range strings.Split(inner, "/") {
		if seg == ".." {
			return "", errors.Wrap(errdefs.ErrInvalidPath, "parent segment in archive path")
		}
	}
	if inner = path.Clean(inner); inner == "." {
		return "", nil
	}
	return inner, nil
}
