package browser

import (
	"context"
	"mime"
	"os"
	"path"
	"path/filepath"

	"github.com/crazy-max/imgplayer/pkg/archive"
	"github.com/crazy-max/imgplayer/pkg/errdefs"
	"github.com/crazy-max/imgplayer/pkg/natsort"
	"github.com/crazy-max/imgplayer/pkg/vpath"
	"github.com/pkg/errors"
	"github.com/rs/zerolog"
)

// Browser lists directories and archives found under a root directory
type Browser struct {
	root     string
	archives *archive.Cache
	opts     Options
}

// Options represents browser options
type Options struct {
	// Root directory to serve
	Root string
	// Logger used for listing and archive events
	Logger zerolog.Logger
	// Observer receives listing and archive cache events
	Observer Observer
}

// Observer receives browser events
type Observer interface {
	archive.Observer
	Listed(source Source, imageOnly bool, err error)
}

// Source tells where a listing was read from
type Source string

const (
	SourceDisk    Source = "disk"
	SourceArchive Source = "archive"
)

// Listing holds the names found in a directory. Both slices are sorted in
// natural order and never nil.
type Listing struct {
	Files []string `json:"files"`
	Dirs  []string `json:"dirs"`
}

// New creates new browser instance
func New(opts Options) (*Browser, error) {
	root, err := filepath.Abs(opts.Root)
	if err != nil {
		return nil, errors.Wrapf(err, "cannot resolve root %q", opts.Root)
	}
	fi, err := os.Stat(root)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, errors.Wrapf(errdefs.ErrNotFound, "root %q", root)
		}
		return nil, errors.Wrapf(err, "invalid root %q", root)
	}
	if !fi.IsDir() {
		return nil, errors.Wrapf(errdefs.ErrNotADirectory, "invalid root %q", root)
	}

	var observer archive.Observer
	if opts.Observer != nil {
		observer = opts.Observer
	}

	return &Browser{
		root: root,
		archives: archive.NewCache(archive.CacheOpts{
			Logger:   opts.Logger,
			Observer: observer,
		}),
		opts: opts,
	}, nil
}

// Root returns the absolute root directory
func (b *Browser) Root() string {
	return b.root
}

// ListDirectory lists every entry at virtualPath
func (b *Browser) ListDirectory(ctx context.Context, virtualPath string) (Listing, error) {
	return b.List(ctx, virtualPath, false)
}

// ListImages lists the images at virtualPath
func (b *Browser) ListImages(ctx context.Context, virtualPath string) (Listing, error) {
	return b.List(ctx, virtualPath, true)
}

// List lists the directory or archive directory at virtualPath. With
// imageOnly, files are restricted to images and directories are dropped from
// real directory listings. Archive listings keep their directories.
func (b *Browser) List(ctx context.Context, virtualPath string, imageOnly bool) (Listing, error) {
	p, err := vpath.Resolve(virtualPath)
	if err != nil {
		return Listing{}, err
	}

	logger := b.opts.Logger.With().Str("path", p.String()).Bool("images", imageOnly).Logger()

	var res Listing
	source := SourceDisk
	if p.InArchive {
		source = SourceArchive
		res, err = b.listArchive(ctx, p)
	} else {
		res, err = b.listDisk(p)
	}
	if b.opts.Observer != nil {
		b.opts.Observer.Listed(source, imageOnly, err)
	}
	if err != nil {
		logger.Debug().Err(err).Msg("Cannot list directory")
		return Listing{}, err
	}

	if imageOnly {
		res.Files = filterImages(res.Files)
		if source == SourceDisk {
			res.Dirs = make([]string, 0)
		}
	}

	natsort.Sort(res.Files)
	natsort.Sort(res.Dirs)

	logger.Debug().Msgf("Listed %d files and %d dirs from %s", len(res.Files), len(res.Dirs), source)
	return res, nil
}

// ReadArchiveEntry returns the content of the archive entry at virtualPath
// and its content type guessed from the extension, empty if unknown.
func (b *Browser) ReadArchiveEntry(ctx context.Context, virtualPath string) ([]byte, string, error) {
	p, err := resolveEntry(virtualPath)
	if err != nil {
		return nil, "", err
	}

	var data []byte
	err = b.archives.Use(ctx, p.DiskPath(b.root), func(a *archive.Archive) (err error) {
		data, err = a.ReadEntry(ctx, p.Archive)
		return err
	})
	if err != nil {
		return nil, "", err
	}

	return data, entryType(p), nil
}

// StatArchiveEntry returns the size and content type of the archive entry at
// virtualPath without reading its content.
func (b *Browser) StatArchiveEntry(ctx context.Context, virtualPath string) (int64, string, error) {
	p, err := resolveEntry(virtualPath)
	if err != nil {
		return 0, "", err
	}

	var size int64
	err = b.archives.Use(ctx, p.DiskPath(b.root), func(a *archive.Archive) (err error) {
		size, err = a.StatEntry(ctx, p.Archive)
		return err
	})
	if err != nil {
		return 0, "", err
	}

	return size, entryType(p), nil
}

// Close releases the cached archive
func (b *Browser) Close() {
	b.archives.Close()
}

func (b *Browser) listDisk(p vpath.Path) (Listing, error) {
	dir := p.DiskPath(b.root)

	fi, err := os.Stat(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return Listing{}, errors.Wrapf(errdefs.ErrNotFound, "directory %s", p.Disk)
		}
		return Listing{}, errors.Wrapf(err, "cannot stat %s", p.Disk)
	}
	if !fi.IsDir() {
		return Listing{}, errors.Wrapf(errdefs.ErrNotADirectory, "%s", p.Disk)
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		return Listing{}, errors.Wrapf(err, "cannot read directory %s", p.Disk)
	}

	res := Listing{
		Files: make([]string, 0, len(entries)),
		Dirs:  make([]string, 0),
	}
	for _, e := range entries {
		isDir := e.IsDir()
		if e.Type()&os.ModeSymlink != 0 {
			// follow links, dangling ones are listed as files
			if target, err := os.Stat(filepath.Join(dir, e.Name())); err == nil {
				isDir = target.IsDir()
			}
		}
		if isDir {
			res.Dirs = append(res.Dirs, e.Name())
		} else {
			res.Files = append(res.Files, e.Name())
		}
	}

	return res, nil
}

func (b *Browser) listArchive(ctx context.Context, p vpath.Path) (Listing, error) {
	var res Listing
	err := b.archives.Use(ctx, p.DiskPath(b.root), func(a *archive.Archive) (err error) {
		res.Dirs, res.Files, err = a.ListChildren(ctx, p.Archive)
		return err
	})
	return res, err
}

func resolveEntry(virtualPath string) (vpath.Path, error) {
	p, err := vpath.Resolve(virtualPath)
	if err != nil {
		return vpath.Path{}, err
	}
	if !p.InArchive {
		return vpath.Path{}, errors.Wrapf(errdefs.ErrInvalidPath, "%q does not address an archive entry", virtualPath)
	}
	return p, nil
}

func entryType(p vpath.Path) string {
	return mime.TypeByExtension(path.Ext(p.Archive))
}
