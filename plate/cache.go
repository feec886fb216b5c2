package plate

import (
	"context"
	"fmt"

	"cloud.google.com/go/storage"
	"github.com/carbocation/sxfst"
	lru "github.com/hashicorp/golang-lru/v2"
)

// DefaultCacheSize bounds the number of parsed exports kept in memory. One
// run is 15 plates; three runs covers a control/unclassified/test screen.
const DefaultCacheSize = 64

type cacheEntry struct {
	stat  sxfst.FileStat
	plate *Plate
}

// Cache keeps parsed exports keyed by path. A cached parse is dropped when
// the file's size or modification time changes, when it is evicted as least
// recently used, or when Invalidate or Purge is called. Cache is safe for
// concurrent use.
type Cache struct {
	entries *lru.Cache[string, cacheEntry]
	client  *storage.Client
	opts    Options
}

// NewCache returns a cache holding at most size parsed exports. client may be
// nil if no gs:// paths will be requested.
func NewCache(size int, client *storage.Client, opts Options) (*Cache, error) {
	if size <= 0 {
		return nil, fmt.Errorf("cache size must be positive, got %d", size)
	}

	entries, err := lru.New[string, cacheEntry](size)
	if err != nil {
		return nil, err
	}

	return &Cache{entries: entries, client: client, opts: opts}, nil
}

// Get returns the parsed export at path, parsing it if it is not cached or
// has changed since it was cached.
func (c *Cache) Get(ctx context.Context, path string) (*Plate, error) {
	stat, err := sxfst.StatPath(ctx, path, c.client)
	if err != nil {
		return nil, err
	}

	if entry, ok := c.entries.Get(path); ok {
		if entry.stat.Size == stat.Size && entry.stat.ModTime.Equal(stat.ModTime) {
			return entry.plate, nil
		}
		c.entries.Remove(path)
	}

	p, err := Read(ctx, sxfst.SourcePath(path), c.client, c.opts)
	if err != nil {
		return nil, err
	}

	c.entries.Add(path, cacheEntry{stat: stat, plate: p})

	return p, nil
}

// Invalidate forgets the parse of one path.
func (c *Cache) Invalidate(path string) {
	c.entries.Remove(path)
}

// Purge forgets every parse.
func (c *Cache) Purge() {
	c.entries.Purge()
}

func (c *Cache) Len() int {
	return c.entries.Len()
}

// GetAll fetches several exports with up to workers parses at once. The
// returned slices are aligned with paths; a failed path has a nil plate and
// a non-nil error, and does not affect the others.
func (c *Cache) GetAll(ctx context.Context, paths []string, workers int) ([]*Plate, []error) {
	if workers < 1 {
		workers = 1
	}

	plates := make([]*Plate, len(paths))
	errs := make([]error, len(paths))

	semaphore := make(chan struct{}, workers)
	for i, path := range paths {
		// Will block after `workers` simultaneous goroutines are running
		semaphore <- struct{}{}

		go func(i int, path string) {
			defer func() { <-semaphore }()

			// Each goroutine owns its own index, so no lock is needed.
			plates[i], errs[i] = c.Get(ctx, path)
		}(i, path)
	}

	// Make sure we don't exit until the final goroutines are done
	for i := 0; i < cap(semaphore); i++ {
		semaphore <- struct{}{}
	}

	return plates, errs
}
