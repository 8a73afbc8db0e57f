package progress

import "sync"

// Collection stores the latest status message per stage id. It is the shared
// storage a UI polls while a run is in flight; writes come from whatever
// Reporter feeds it.
type Collection struct {
	statuses map[string]string
	mu       sync.RWMutex
}

// NewCollection creates an empty status collection.
func NewCollection() *Collection {
	return &Collection{
		statuses: make(map[string]string),
	}
}

// Set updates the status for a stage id.
func (c *Collection) Set(stageID, status string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.statuses[stageID] = status
}

// Get returns the status for a stage id.
func (c *Collection) Get(stageID string) string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.statuses[stageID]
}

// All returns a copy of all stage statuses.
func (c *Collection) All() map[string]string {
	c.mu.RLock()
	defer c.mu.RUnlock()

	out := make(map[string]string, len(c.statuses))
	for k, v := range c.statuses {
		out[k] = v
	}
	return out
}
