package workers

import (
	"sync"

	"github.com/assetcrawler/import-services/models/asset"
)

// RunRing is an in-memory run history with a set capacity. It stands
// in for Redis when REDIS_URL is not set, so history is lost on
// restart. It is safe to share across goroutines.
type RunRing struct {
	capacity int
	index    int
	count    int
	items    []*asset.ImportRunSummary
	mutex    sync.RWMutex
}

// NewRunRing creates a RunRing that holds the newest capacity runs.
func NewRunRing(capacity int) *RunRing {
	if capacity < 1 {
		capacity = 1
	}
	return &RunRing{
		capacity: capacity,
		items:    make([]*asset.ImportRunSummary, capacity),
	}
}

// ImportRunSave adds summary to the ring. If capacity is ten, the
// eleventh summary overwrites the first. The keep param is ignored;
// capacity is fixed when the ring is created.
func (ring *RunRing) ImportRunSave(summary *asset.ImportRunSummary, keep int) error {
	copied := *summary
	ring.mutex.Lock()
	ring.items[ring.index] = &copied
	ring.index = (ring.index + 1) % ring.capacity
	if ring.count < ring.capacity {
		ring.count++
	}
	ring.mutex.Unlock()
	return nil
}

// ImportRunList returns up to limit summaries, newest first.
func (ring *RunRing) ImportRunList(limit int) ([]*asset.ImportRunSummary, error) {
	ring.mutex.RLock()
	defer ring.mutex.RUnlock()
	if limit > ring.count {
		limit = ring.count
	}
	if limit < 0 {
		limit = 0
	}
	summaries := make([]*asset.ImportRunSummary, 0, limit)
	for i := 1; i <= limit; i++ {
		pos := (ring.index - i + ring.capacity) % ring.capacity
		copied := *ring.items[pos]
		summaries = append(summaries, &copied)
	}
	return summaries, nil
}
