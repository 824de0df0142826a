package combat

import (
	"sync"

	"github.com/google/uuid"
)

// campaignLocks serialises read-modify-write sequences against a single
// campaign's encounter. Locks for different campaigns never contend.
//
// Entries are never removed; the per-campaign footprint is one mutex.
type campaignLocks struct {
	mu    sync.Mutex
	locks map[uuid.UUID]*sync.Mutex
}

func newCampaignLocks() *campaignLocks {
	return &campaignLocks{locks: make(map[uuid.UUID]*sync.Mutex)}
}

// lock acquires the mutex for campaignID, creating it on first use, and
// returns the unlock function.
func (c *campaignLocks) lock(campaignID uuid.UUID) func() {
	c.mu.Lock()
	m, ok := c.locks[campaignID]
	if !ok {
		m = &sync.Mutex{}
		c.locks[campaignID] = m
	}
	c.mu.Unlock()

	m.Lock()
	return m.Unlock
}
