// Package render caches per-segment color classifications for map
// overlays. Colors depend only on the segment's rules and the calendar
// day, so entries survive until the day rolls over or the dataset
// changes.
package render

import (
	"sync"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/easystreet/sweepd/internal/model"
)

const defaultCacheSize = 4096

// Classifier computes a segment's color for a given day. Satisfied by
// schedule.Evaluator.
type Classifier interface {
	ColorStatus(seg model.StreetSegment, today time.Time) model.ColorStatus
}

// ColorCache memoizes Classifier results keyed by segment id. The cache
// empties itself when the calendar day changes: yesterday's green may be
// today's red.
type ColorCache struct {
	mu         sync.Mutex
	classifier Classifier
	lru        *lru.Cache[string, model.ColorStatus]
	day        string
}

func NewColorCache(classifier Classifier, size int) *ColorCache {
	if size <= 0 {
		size = defaultCacheSize
	}
	c, _ := lru.New[string, model.ColorStatus](size)
	return &ColorCache{classifier: classifier, lru: c}
}

// Color returns the segment's color for now's calendar day, computing
// and caching it on first sight.
func (c *ColorCache) Color(seg model.StreetSegment, now time.Time) model.ColorStatus {
	day := now.Format("2006-01-02")

	c.mu.Lock()
	if day != c.day {
		c.lru.Purge()
		c.day = day
	}
	if color, ok := c.lru.Get(seg.ID); ok {
		c.mu.Unlock()
		return color
	}
	c.mu.Unlock()

	color := c.classifier.ColorStatus(seg, now)

	c.mu.Lock()
	if c.day == day {
		c.lru.Add(seg.ID, color)
	}
	c.mu.Unlock()
	return color
}

// Reset empties the cache. Called when the dataset is republished.
func (c *ColorCache) Reset() {
	c.mu.Lock()
	c.lru.Purge()
	c.day = ""
	c.mu.Unlock()
}

// Len reports the cached entry count.
func (c *ColorCache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.lru.Len()
}
