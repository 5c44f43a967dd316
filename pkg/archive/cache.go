package archive

import (
	"context"
	"sync"

	"github.com/rs/zerolog"
)

// Observer receives archive cache events
type Observer interface {
	ArchiveOpened(path string, err error)
	ArchiveEvicted(path string)
}

// CacheOpts holds archive cache options
type CacheOpts struct {
	Logger   zerolog.Logger
	Observer Observer
}

// Cache keeps at most one archive open. Requesting another archive closes
// the cached one before the new one is opened, so alternating between two
// archives reopens them every time.
type Cache struct {
	mu      sync.Mutex
	current *Archive
	opts    CacheOpts
	open    func(ctx context.Context, filename string, logger zerolog.Logger) (*Archive, error)
}

// NewCache creates a new single slot archive cache
func NewCache(opts CacheOpts) *Cache {
	return &Cache{
		opts: opts,
		open: Open,
	}
}

// Use calls fn with the archive at filename, opening it if it is not the
// cached one. No other archive operation runs until fn returns.
func (c *Cache) Use(ctx context.Context, filename string, fn func(a *Archive) error) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	a, err := c.getOrOpen(ctx, filename)
	if err != nil {
		return err
	}
	return fn(a)
}

// Current returns the path of the cached archive, empty if none
func (c *Cache) Current() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.current == nil {
		return ""
	}
	return c.current.path
}

// Close releases the cached archive
func (c *Cache) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.release()
}

func (c *Cache) getOrOpen(ctx context.Context, filename string) (*Archive, error) {
	if c.current != nil && c.current.path == filename {
		if !c.current.changed() {
			return c.current, nil
		}
		c.opts.Logger.Debug().Str("archive", filename).Msg("Archive changed on disk, reopening")
	}

	c.release()

	a, err := c.open(ctx, filename, c.opts.Logger)
	if c.opts.Observer != nil {
		c.opts.Observer.ArchiveOpened(filename, err)
	}
	if err != nil {
		return nil, err
	}

	c.current = a
	return a, nil
}

func (c *Cache) release() {
	if c.current == nil {
		return
	}
	old := c.current
	c.current = nil
	if err := old.Close(); err != nil {
		c.opts.Logger.Warn().Err(err).Str("archive", old.path).Msg("Cannot close archive")
	}
	if c.opts.Observer != nil {
		c.opts.Observer.ArchiveEvicted(old.path)
	}
}
