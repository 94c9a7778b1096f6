package invalidation

import (
	"strconv"
	"sync"

	"github.com/cespare/xxhash/v2"
	lru "github.com/hashicorp/golang-lru/v2"
)

// dedupe drops replayed events. Versioned events compare against the
// last version seen per dataset; unversioned events fall back to the
// payload hash, so the identical bytes apply only once.
type dedupe struct {
	mu  sync.Mutex
	lru *lru.Cache[string, uint64]
}

func newDedupe(size int) *dedupe {
	if size <= 0 {
		size = 4096
	}
	c, _ := lru.New[string, uint64](size)
	return &dedupe{lru: c}
}

func (d *dedupe) shouldApply(ev Event, payload []byte) bool {
	key := "dataset:" + ev.Dataset
	version := ev.Version
	if version == 0 {
		key = "payload:" + strconv.FormatUint(xxhash.Sum64(payload), 16)
		version = 1
	}

	d.mu.Lock()
	defer d.mu.Unlock()
	if last, ok := d.lru.Get(key); ok && version <= last {
		return false
	}
	d.lru.Add(key, version)
	return true
}
