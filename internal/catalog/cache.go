package catalog

import (
	"fmt"
	"os"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
)

// Cache holds the in-memory product catalog and transparently reloads it when
// the backing file's mtime moves past the cached one, or when the cache is
// empty. A reload builds the complete replacement list before swapping it in;
// concurrent callers may duplicate reload work but never observe a partially
// built list.
type Cache struct {
	path string
	log  *logrus.Entry

	mu       sync.RWMutex
	products []Product
	byID     map[string]Product
	mtime    time.Time
	loaded   bool
}

func NewCache(path string) *Cache {
	return &Cache{
		path: path,
		log:  logrus.WithField("component", "catalog"),
	}
}

// Products returns the cached catalog, reloading it first if stale or empty.
// A missing backing file is a hard error, not an empty catalog.
func (c *Cache) Products() ([]Product, error) {
	info, err := os.Stat(c.path)
	if err != nil {
		c.Invalidate()
		return nil, fmt.Errorf("product catalog not available at %s: %w", c.path, err)
	}
	mtime := info.ModTime()

	c.mu.RLock()
	if c.loaded && !mtime.After(c.mtime) {
		products := c.products
		c.mu.RUnlock()
		return products, nil
	}
	c.mu.RUnlock()

	c.log.Infof("product catalog cache stale or empty, reloading from %s", c.path)
	loaded, err := LoadProductsCSV(c.path)
	if err != nil {
		return nil, fmt.Errorf("reload product catalog: %w", err)
	}
	if len(loaded) == 0 {
		c.log.Warnf("no products parsed from %s, cache will be empty", c.path)
	}

	byID := make(map[string]Product, len(loaded))
	for _, p := range loaded {
		byID[p.ProductID] = p
	}

	c.mu.Lock()
	c.products = loaded
	c.byID = byID
	c.mtime = mtime
	c.loaded = true
	c.mu.Unlock()

	c.log.Infof("reloaded %d products into catalog cache", len(loaded))
	return loaded, nil
}

// ByID returns the catalog keyed by product id, reloading as needed.
func (c *Cache) ByID() (map[string]Product, error) {
	if _, err := c.Products(); err != nil {
		return nil, err
	}
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.byID, nil
}

// Invalidate clears the cache unconditionally; the next Products call reloads.
func (c *Cache) Invalidate() {
	c.mu.Lock()
	c.products = nil
	c.byID = nil
	c.mtime = time.Time{}
	c.loaded = false
	c.mu.Unlock()
	c.log.Info("product catalog cache invalidated")
}
