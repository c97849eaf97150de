package termview

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/adrg/xdg"
	"github.com/apex/log"
	"golang.org/x/image/tiff"
	"golang.org/x/sync/errgroup"
)

// Constants for the resize cache
const (
	DefaultCacheSize    = 32 // Maximum number of resized images kept in memory
	DefaultCacheWriters = 2  // Maximum number of concurrent cache file writes
	cacheExt            = ".tiff"
)

// DefaultCacheDir is where resized images are persisted
func DefaultCacheDir() string {
	return filepath.Join(xdg.CacheHome, "termview")
}

// Cache keeps resized images so later loads of the same source skip resizing.
// Entries live in memory (LRU) and on disk, keyed by source path.
type Cache struct {
	Dir string

	mem     *ResizeCache
	writers errgroup.Group
}

// NewCache creates a cache persisting to dir, or DefaultCacheDir when empty
func NewCache(dir string) *Cache {
	if dir == "" {
		dir = DefaultCacheDir()
	}
	c := &Cache{
		Dir: dir,
		mem: NewResizeCache(DefaultCacheSize),
	}
	c.writers.SetLimit(DefaultCacheWriters)
	return c
}

// Path returns the cache file location for a source image. Distinct source
// paths always map to distinct cache files.
func (c *Cache) Path(source string) string {
	if abs, err := filepath.Abs(source); err == nil {
		source = abs
	}
	sum := sha256.Sum256([]byte(source))
	return filepath.Join(c.Dir, hex.EncodeToString(sum[:])+cacheExt)
}

// Lookup returns a previously resized image for source. Disk entries older
// than the source file are ignored.
func (c *Cache) Lookup(source string) (*pixbuf, bool) {
	path := c.Path(source)
	if p, ok := c.mem.Get(path); ok {
		return p.clone(), true
	}

	cached, err := os.Stat(path)
	if err != nil {
		return nil, false
	}
	if orig, err := os.Stat(source); err == nil && orig.ModTime().After(cached.ModTime()) {
		return nil, false
	}

	p, err := decodeFile(path)
	if err != nil {
		log.WithError(err).WithField("path", path).Debug("ignoring unreadable cache file")
		return nil, false
	}
	c.mem.Set(path, p.clone())
	return p, true
}

// Store records a resized image. The file is written in the background; when
// all writers are busy the write is skipped. Write failures are logged only.
func (c *Cache) Store(source string, p *pixbuf) {
	path := c.Path(source)
	snapshot := p.clone()
	c.mem.Set(path, snapshot)

	started := c.writers.TryGo(func() error {
		if err := writeCacheFile(path, snapshot); err != nil {
			log.WithError(err).Debug("unable to save resized image")
			return nil
		}
		log.WithField("path", path).Debug("saved resized image")
		return nil
	})
	if !started {
		log.WithField("path", path).Debug("cache writers busy, skipping")
	}
}

// Invalidate forgets the resized copy of source, in memory and on disk
func (c *Cache) Invalidate(source string) {
	path := c.Path(source)
	c.mem.Delete(path)
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		log.WithError(err).WithField("path", path).Debug("unable to remove cache file")
	}
}

// Wait blocks until pending cache writes finish
func (c *Cache) Wait() {
	_ = c.writers.Wait()
}

// writeCacheFile atomically writes p to path
func writeCacheFile(path string, p *pixbuf) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return &CacheWriteError{Path: path, Err: err}
	}
	tmp, err := os.CreateTemp(filepath.Dir(path), ".resize-*")
	if err != nil {
		return &CacheWriteError{Path: path, Err: err}
	}
	defer os.Remove(tmp.Name())

	if err := tiff.Encode(tmp, p.cacheImage(), &tiff.Options{Compression: tiff.Deflate}); err != nil {
		tmp.Close()
		return &CacheWriteError{Path: path, Err: fmt.Errorf("failed to encode image: %w", err)}
	}
	if err := tmp.Close(); err != nil {
		return &CacheWriteError{Path: path, Err: err}
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return &CacheWriteError{Path: path, Err: err}
	}
	return nil
}

// ResizeCache is an in-memory LRU of resized images
type ResizeCache struct {
	cache       map[string]*cacheEntry
	accessOrder []string // most recently used first
	mutex       sync.Mutex
	maxSize     int
}

type cacheEntry struct {
	pix      *pixbuf
	lastUsed int64 // Unix timestamp
}

// NewResizeCache creates an LRU holding at most maxSize images
func NewResizeCache(maxSize int) *ResizeCache {
	return &ResizeCache{
		cache:   make(map[string]*cacheEntry),
		maxSize: max(maxSize, 1),
	}
}

// Get returns the entry for key and marks it most recently used
func (rc *ResizeCache) Get(key string) (*pixbuf, bool) {
	rc.mutex.Lock()
	defer rc.mutex.Unlock()

	entry, ok := rc.cache[key]
	if !ok {
		return nil, false
	}
	entry.lastUsed = time.Now().Unix()
	rc.touch(key)
	return entry.pix, true
}

// Set adds or replaces an entry, evicting the least recently used when full
func (rc *ResizeCache) Set(key string, p *pixbuf) {
	rc.mutex.Lock()
	defer rc.mutex.Unlock()

	if entry, ok := rc.cache[key]; ok {
		entry.pix = p
		entry.lastUsed = time.Now().Unix()
		rc.touch(key)
		return
	}

	for len(rc.cache) >= rc.maxSize {
		rc.evictLRU()
	}
	rc.cache[key] = &cacheEntry{pix: p, lastUsed: time.Now().Unix()}
	rc.accessOrder = append([]string{key}, rc.accessOrder...)
}

// Delete drops the entry for key
func (rc *ResizeCache) Delete(key string) {
	rc.mutex.Lock()
	defer rc.mutex.Unlock()
	if _, ok := rc.cache[key]; !ok {
		return
	}
	delete(rc.cache, key)
	for i, k := range rc.accessOrder {
		if k == key {
			rc.accessOrder = append(rc.accessOrder[:i], rc.accessOrder[i+1:]...)
			break
		}
	}
}

// Len returns the number of cached images
func (rc *ResizeCache) Len() int {
	rc.mutex.Lock()
	defer rc.mutex.Unlock()
	return len(rc.cache)
}

// Clear drops every entry
func (rc *ResizeCache) Clear() {
	rc.mutex.Lock()
	defer rc.mutex.Unlock()
	rc.cache = make(map[string]*cacheEntry)
	rc.accessOrder = nil
}

// touch moves key to the front of the access order
func (rc *ResizeCache) touch(key string) {
	for i, k := range rc.accessOrder {
		if k == key {
			rc.accessOrder = append(rc.accessOrder[:i], rc.accessOrder[i+1:]...)
			break
		}
	}
	rc.accessOrder = append([]string{key}, rc.accessOrder...)
}

func (rc *ResizeCache) evictLRU() {
	if len(rc.accessOrder) == 0 {
		return
	}
	lruKey := rc.accessOrder[len(rc.accessOrder)-1]
	rc.accessOrder = rc.accessOrder[:len(rc.accessOrder)-1]
	delete(rc.cache, lruKey)
}
