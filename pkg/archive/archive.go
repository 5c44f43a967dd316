// Package archive reads directory listings and entries out of archive files
// (zip/cbz, tar and compressed tar, rar, 7z).
//
// No index of the entries is kept: every listing or read walks the archive
// from its first entry, so the cost of a request grows with the total number
// of entries in the archive.
package archive

import (
	"context"
	"io"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/crazy-max/imgplayer/pkg/errdefs"
	"github.com/mholt/archives"
	"github.com/pkg/errors"
	"github.com/rs/zerolog"
)

// Archive is an open archive file
type Archive struct {
	mu      sync.Mutex
	path    string
	file    *os.File
	size    int64
	modTime time.Time
	format  archives.Extractor
	decomp  archives.Decompressor
	logger  zerolog.Logger
	closed  bool
}

// Open opens the archive file at filename and identifies its format
func Open(ctx context.Context, filename string, logger zerolog.Logger) (*Archive, error) {
	logger = logger.With().Str("archive", filename).Logger()

	f, err := os.Open(filename)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, errors.Wrapf(errdefs.ErrNotFound, "archive %s", filename)
		}
		return nil, errors.Wrapf(errdefs.ErrArchiveOpen, "%v", err)
	}

	fi, err := f.Stat()
	if err != nil {
		_ = f.Close()
		return nil, errors.Wrapf(errdefs.ErrArchiveOpen, "%v", err)
	}
	if fi.IsDir() {
		_ = f.Close()
		return nil, errors.Wrapf(errdefs.ErrArchiveOpen, "%s is a directory", filename)
	}

	format, _, err := archives.Identify(ctx, filepath.Base(filename), f)
	if err != nil {
		_ = f.Close()
		return nil, errors.Wrapf(errdefs.ErrArchiveOpen, "%s: %v", filename, err)
	}
	logger.Debug().Msgf("Archive format %s detected", format.Extension())

	a := &Archive{
		path:    filename,
		file:    f,
		size:    fi.Size(),
		modTime: fi.ModTime(),
		logger:  logger,
	}

	extractor, ok := format.(archives.Extractor)
	if !ok {
		// .gz is a special case, as it is a compressed tarball
		if format.Extension() != ".gz" {
			_ = f.Close()
			return nil, errors.Wrapf(errdefs.ErrArchiveOpen, "%s: archive format not supported: %s", filename, format.Extension())
		}
		extractor = archives.Tar{}
		a.decomp = archives.Gz{}
	}
	a.format = extractor

	// the format may have been identified from the file name alone
	if err := a.scan(ctx, func(context.Context, archives.FileInfo) error {
		return fs.SkipAll
	}); err != nil && !errors.Is(err, fs.SkipAll) {
		_ = f.Close()
		return nil, err
	}

	return a, nil
}

// Path returns the filesystem path of the archive
func (a *Archive) Path() string {
	return a.path
}

// Close releases the archive file. It waits for a scan in progress.
func (a *Archive) Close() error {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.closed {
		return nil
	}
	a.closed = true
	a.logger.Debug().Msg("Closing archive")
	return a.file.Close()
}

// ListChildren returns the names of the directories and files directly under
// dir inside the archive. dir is slash separated without leading or trailing
// slash, empty for the top of the archive. Directories without an entry of
// their own are derived from the paths of the entries they contain.
func (a *Archive) ListChildren(ctx context.Context, dir string) (dirs []string, files []string, err error) {
	dirs, files = make([]string, 0), make([]string, 0)
	seenDirs, seenFiles := make(map[string]struct{}), make(map[string]struct{})
	addDir := func(name string) {
		if _, ok := seenDirs[name]; !ok {
			seenDirs[name] = struct{}{}
			dirs = append(dirs, name)
		}
	}

	var entries int
	err = a.scan(ctx, func(_ context.Context, f archives.FileInfo) error {
		entries++
		name := normalizeName(f.NameInArchive)
		if name == "" {
			return nil
		}
		parent, base := splitName(name)
		if parent == dir {
			if f.IsDir() {
				addDir(base)
			} else if _, ok := seenFiles[base]; !ok {
				seenFiles[base] = struct{}{}
				files = append(files, base)
			}
		} else if child, ok := childOf(dir, parent); ok {
			addDir(child)
		}
		return nil
	})
	if err != nil {
		return nil, nil, err
	}

	a.logger.Trace().Msgf("Scanned %d entries for %q", entries, dir)
	return dirs, files, nil
}

// ReadEntry returns the content of the file entry at name. The walk stops at
// the first matching entry.
func (a *Archive) ReadEntry(ctx context.Context, name string) ([]byte, error) {
	var data []byte
	err := a.findEntry(ctx, name, func(ctx context.Context, f archives.FileInfo) error {
		r, err := f.Open()
		if err != nil {
			return errors.Wrapf(err, "cannot open entry %s", f.NameInArchive)
		}
		defer r.Close()
		if data, err = io.ReadAll(readerContext(ctx, r)); err != nil {
			return errors.Wrapf(err, "cannot read entry %s", f.NameInArchive)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	a.logger.Trace().Msgf("Read %d bytes from %s", len(data), name)
	return data, nil
}

// StatEntry returns the size of the file entry at name as recorded in the
// archive, without reading its content.
func (a *Archive) StatEntry(ctx context.Context, name string) (int64, error) {
	var size int64
	err := a.findEntry(ctx, name, func(_ context.Context, f archives.FileInfo) error {
		size = f.Size()
		return nil
	})
	return size, err
}

func (a *Archive) findEntry(ctx context.Context, name string, fn archives.FileHandler) error {
	var found bool
	err := a.scan(ctx, func(ctx context.Context, f archives.FileInfo) error {
		if f.IsDir() || normalizeName(f.NameInArchive) != name {
			return nil
		}
		if err := fn(ctx, f); err != nil {
			return err
		}
		found = true
		return fs.SkipAll
	})
	if err != nil && !errors.Is(err, fs.SkipAll) {
		return err
	}
	if !found {
		return errors.Wrapf(errdefs.ErrEntryNotFound, "%s in %s", name, a.path)
	}
	return nil
}

// changed reports whether the file on disk differs from the one opened
func (a *Archive) changed() bool {
	fi, err := os.Stat(a.path)
	if err != nil {
		return true
	}
	return fi.Size() != a.size || !fi.ModTime().Equal(a.modTime)
}

func (a *Archive) scan(ctx context.Context, handleFile archives.FileHandler) error {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.closed {
		return errors.Wrapf(errdefs.ErrArchiveOpen, "%s is closed", a.path)
	}
	if _, err := a.file.Seek(0, io.SeekStart); err != nil {
		return errors.Wrapf(err, "cannot rewind archive %s", a.path)
	}

	var input io.Reader = a.file
	if a.decomp != nil {
		rc, err := a.decomp.OpenReader(a.file)
		if err != nil {
			return errors.Wrapf(errdefs.ErrArchiveOpen, "cannot decompress archive %s: %v", a.path, err)
		}
		defer rc.Close()
		input = rc
	}

	var started bool
	err := a.format.Extract(ctx, input, func(ctx context.Context, f archives.FileInfo) error {
		started = true
		return handleFile(ctx, f)
	})
	switch {
	case err == nil:
		return nil
	case !started && ctx.Err() == nil:
		// nothing could be read, the content does not match the format
		return errors.Wrapf(errdefs.ErrArchiveOpen, "cannot read archive %s: %v", a.path, err)
	default:
		return errors.Wrapf(err, "cannot scan archive %s", a.path)
	}
}

// normalizeName converts an entry name to a clean slash separated path
// without leading or trailing slash, the form requested paths are resolved to.
func normalizeName(name string) string {
	name = path.Clean("/" + strings.ReplaceAll(name, `\`, "/"))
	return strings.TrimPrefix(name, "/")
}

func splitName(name string) (parent string, base string) {
	i := strings.LastIndexByte(name, '/')
	if i < 0 {
		return "", name
	}
	return name[:i], name[i+1:]
}

// childOf returns the first path segment of parent below dir when parent is
// nested under dir.
func childOf(dir string, parent string) (string, bool) {
	if parent == "" {
		return "", false
	}
	rest := parent
	if dir != "" {
		if !strings.HasPrefix(parent, dir+"/") {
			return "", false
		}
		rest = parent[len(dir)+1:]
	}
	child, _, _ := strings.Cut(rest, "/")
	return child, child != ""
}
