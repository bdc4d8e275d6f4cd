package tailnet

import (
	"context"
	"sync"

	"github.com/DigitalCyberSoft/tailscale-cli-helpers/internal/errors"
	"github.com/DigitalCyberSoft/tailscale-cli-helpers/internal/logger"
)

// Cache memoizes the device list for the lifetime of one invocation and
// optionally shares it across invocations through a DiskCache.
// It is safe for concurrent use.
type Cache struct {
	source   Source
	disk     *DiskCache
	readDisk bool
	log      logger.Logger

	mu      sync.Mutex
	loaded  bool
	devices []Device
	err     error

	// Fetches counts how many times the source was actually run.
	Fetches int
}

// CacheOption configures a Cache.
type CacheOption func(*Cache)

// WithDisk adds an on-disk cache layer.
func WithDisk(d *DiskCache) CacheOption {
	return func(c *Cache) {
		c.disk = d
	}
}

// WithoutDiskRead ignores existing disk entries (a fresh fetch is still written back).
func WithoutDiskRead() CacheOption {
	return func(c *Cache) {
		c.readDisk = false
	}
}

// WithLogger sets the logger used for recoverable cache problems.
func WithLogger(l logger.Logger) CacheOption {
	return func(c *Cache) {
		c.log = l
	}
}

// NewCache creates a cache in front of source.
func NewCache(source Source, opts ...CacheOption) *Cache {
	c := &Cache{
		source:   source,
		readDisk: true,
		log:      logger.Noop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Devices returns the device list, running the source at most once per Cache.
// The outcome, including an error, is memoized.
func (c *Cache) Devices(ctx context.Context) ([]Device, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.loaded {
		return c.devices, c.err
	}
	c.devices, c.err = c.load(ctx)
	c.loaded = true
	return c.devices, c.err
}

func (c *Cache) load(ctx context.Context) ([]Device, error) {
	if c.disk != nil && c.readDisk {
		if data, fresh, ok := c.disk.Load(); ok && fresh {
			devices, err := ParseStatus(data)
			if err == nil {
				c.log.Debug("using cached status from %s", c.disk.Path())
				return devices, nil
			}
			c.log.Debug("ignoring unreadable status cache: %v", err)
		}
	}

	data, err := c.source.Status(ctx)
	c.Fetches++
	if err != nil {
		return nil, err
	}

	devices, err := ParseStatus(data)
	if err != nil {
		return nil, err
	}

	if c.disk != nil {
		if err := c.disk.Store(data); err != nil {
			c.log.Warn("couldn't write status cache %s: %v", c.disk.Path(), err)
		}
	}
	return devices, nil
}

// Peek returns the device list without ever running the source: the
// in-memory result if one exists, else the last disk entry regardless of age.
// ok is false when nothing usable is cached.
func (c *Cache) Peek() ([]Device, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.loaded && c.err == nil {
		return c.devices, true
	}
	if c.disk == nil {
		return nil, false
	}
	data, _, ok := c.disk.Load()
	if !ok {
		return nil, false
	}
	devices, err := ParseStatus(data)
	if err != nil {
		return nil, false
	}
	return devices, true
}

// IsSourceError reports whether err means the status output could not be
// understood. Callers recover by treating host tokens as literal names.
func IsSourceError(err error) bool {
	return errors.IsCode(err, errors.ErrSource)
}
