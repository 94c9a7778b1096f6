// Package invalidation consumes dataset-republish events and empties the
// in-process caches so stale segment geometry and colors never outlive a
// data refresh.
package invalidation

import (
	"errors"
	"time"
)

// Event announces that a named dataset was republished. Version is a
// monotonically increasing publish counter; replays and reordered
// duplicates with an older version are ignored.
type Event struct {
	Dataset     string    `json:"dataset"`
	Version     uint64    `json:"version"`
	Op          string    `json:"op,omitempty"`
	PublishedAt time.Time `json:"published_at,omitzero"`
}

func (e Event) Validate() error {
	if e.Dataset == "" {
		return errors.New("invalidation event: dataset is required")
	}
	return nil
}
