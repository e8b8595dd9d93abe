package dashboard

import "github.com/smileynet/campdesk/internal/campaign"

// Cache stores campaigns fetched for editing, keyed by campaign ID.
// It is not safe for concurrent use; callers must confine access to the
// Bubble Tea update loop.
type Cache struct {
	entries map[int64]campaign.Campaign
}

// NewCache creates an empty cache.
func NewCache() *Cache {
	return &Cache{entries: make(map[int64]campaign.Campaign)}
}

// Get returns the cached campaign for id, or false on miss.
func (c *Cache) Get(id int64) (campaign.Campaign, bool) {
	v, ok := c.entries[id]
	return v, ok
}

// Set stores a campaign, replacing any existing entry.
func (c *Cache) Set(v campaign.Campaign) {
	c.entries[v.ID] = v
}

// Invalidate clears all cached entries. Every refresh of the owned list
// calls it so an edit form never opens on stale server state.
func (c *Cache) Invalidate() {
	clear(c.entries)
}
