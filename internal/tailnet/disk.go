package tailnet

import (
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/afero"
)

// StatusFileName is the cache file holding the last raw status output.
const StatusFileName = "status.json"

// DiskCache persists the last raw status output so back-to-back invocations
// (completion fires on every TAB) can skip re-running tailscale. Entries are
// fresh for TTL, judged by file modification time.
type DiskCache struct {
	fs  afero.Fs
	dir string
	ttl time.Duration
	now func() time.Time
}

// NewDiskCache creates a disk cache in dir on fs.
func NewDiskCache(fs afero.Fs, dir string, ttl time.Duration) *DiskCache {
	return &DiskCache{fs: fs, dir: dir, ttl: ttl, now: time.Now}
}

// Path returns the cache file path.
func (c *DiskCache) Path() string {
	return filepath.Join(c.dir, StatusFileName)
}

// Load returns the cached bytes and whether they are still within the TTL.
// ok is false when there is no usable cache file.
func (c *DiskCache) Load() (data []byte, fresh bool, ok bool) {
	info, err := c.fs.Stat(c.Path())
	if err != nil || info.IsDir() {
		return nil, false, false
	}

	data, err = afero.ReadFile(c.fs, c.Path())
	if err != nil || len(data) == 0 {
		return nil, false, false
	}

	age := c.now().Sub(info.ModTime())
	return data, age >= 0 && age <= c.ttl, true
}

// Store writes data atomically: a temp file in the same directory is renamed
// over the cache file, so a concurrent reader sees the old or the new file,
// never a partial one.
func (c *DiskCache) Store(data []byte) error {
	if err := c.fs.MkdirAll(c.dir, 0o700); err != nil {
		return err
	}

	tmp, err := afero.TempFile(c.fs, c.dir, StatusFileName+".*.tmp")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()          //nolint:errcheck // already failing
		c.fs.Remove(tmpName) //nolint:errcheck // best-effort cleanup
		return err
	}
	if err := tmp.Close(); err != nil {
		c.fs.Remove(tmpName) //nolint:errcheck // best-effort cleanup
		return err
	}
	if err := c.fs.Chmod(tmpName, 0o600); err != nil && !os.IsNotExist(err) {
		c.fs.Remove(tmpName) //nolint:errcheck // best-effort cleanup
		return err
	}

	if err := c.fs.Rename(tmpName, c.Path()); err != nil {
		c.fs.Remove(tmpName) //nolint:errcheck // best-effort cleanup
		return err
	}
	return nil
}
