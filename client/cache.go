// Package client implements the API client used by frontends: a synced
// file-list cache with optimistic mutations, derived views and storage
// stats, plus upload progress tracking.
package client

import (
	"fmt"
	"sort"
	"strings"
	"sync"

	"cloudbox/drive-api/model"
)

// Tab selects one of the derived list views.
type Tab string

const (
	TabAll       Tab = "all"
	TabRecent    Tab = "recent"
	TabFavorites Tab = "favorites"
	TabTrash     Tab = "trash"
)

// Notify surfaces a user-visible, dismissible notification. Level is one
// of "success", "error", "neutral".
type Notify func(msg, level string)

// Command pairs a forward patch with its inverse so an optimistic
// mutation can be reverted without touching anything another in-flight
// command changed. Commands on different files never share state.
type Command struct {
	Key     string
	forward model.FlagPatch
	inverse model.FlagPatch
}

// SyncCache holds the last list fetched from the server and applies
// optimistic flag mutations ahead of server confirmation. One logical
// owner mutates it at a time, the mutex only guards against accidental
// cross-goroutine use.
type SyncCache struct {
	mu     sync.Mutex
	files  []model.ListedFile
	notify Notify
}

func NewSyncCache(notify Notify) *SyncCache {
	if notify == nil {
		notify = func(string, string) {}
	}
	return &SyncCache{notify: notify}
}

// SetList replaces the cached list with a fresh server response.
func (c *SyncCache) SetList(files []model.ListedFile) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.files = make([]model.ListedFile, len(files))
	copy(c.files, files)
}

// Files returns a snapshot of the cached list.
func (c *SyncCache) Files() []model.ListedFile {
	c.mu.Lock()
	defer c.mu.Unlock()

	out := make([]model.ListedFile, len(c.files))
	copy(out, c.files)
	return out
}

// Get returns the cached record for a key.
func (c *SyncCache) Get(key string) (model.ListedFile, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	for i := range c.files {
		if c.files[i].Key == key {
			return c.files[i], true
		}
	}
	return model.ListedFile{}, false
}

// ApplyOptimistic mutates the cached view immediately, before the server
// call resolves, and returns the command needed to confirm or roll the
// mutation back. The inverse snapshot covers only the fields the patch
// touches, so concurrent commands on other files (or other flags) stay
// individually reversible.
func (c *SyncCache) ApplyOptimistic(key string, patch model.FlagPatch) (*Command, error) {
	if patch.Empty() {
		return nil, fmt.Errorf("empty patch for %q", key)
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	for i := range c.files {
		if c.files[i].Key != key {
			continue
		}

		cmd := &Command{Key: key, forward: patch}

		if patch.IsFavorite != nil {
			prev := c.files[i].IsFavorite
			cmd.inverse.IsFavorite = &prev
			c.files[i].IsFavorite = *patch.IsFavorite
		}
		if patch.IsTrash != nil {
			prev := c.files[i].IsTrash
			cmd.inverse.IsTrash = &prev
			c.files[i].IsTrash = *patch.IsTrash
		}

		return cmd, nil
	}

	return nil, fmt.Errorf("no cached file with key %q", key)
}

// Confirm finalizes an optimistic mutation after server success.
func (c *SyncCache) Confirm(cmd *Command) {
	// The forward patch is already applied, nothing to do
}

// Rollback reverts an optimistic mutation after server failure and fires
// a notification.
func (c *SyncCache) Rollback(cmd *Command) {
	c.mu.Lock()

	for i := range c.files {
		if c.files[i].Key != cmd.Key {
			continue
		}

		if cmd.inverse.IsFavorite != nil {
			c.files[i].IsFavorite = *cmd.inverse.IsFavorite
		}
		if cmd.inverse.IsTrash != nil {
			c.files[i].IsTrash = *cmd.inverse.IsTrash
		}
		break
	}

	c.mu.Unlock()
	c.notify("Action failed, change reverted", "error")
}

// Remove drops a record from the cached list after a confirmed permanent
// delete.
func (c *SyncCache) Remove(key string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	for i := range c.files {
		if c.files[i].Key == key {
			c.files = append(c.files[:i], c.files[i+1:]...)
			return
		}
	}
}

// DeriveView filters and sorts the cached list for a tab. Trash-flagged
// records show up only in the trash tab; every other tab excludes them.
// Pure over the current snapshot, no network round-trip.
func (c *SyncCache) DeriveView(tab Tab, search string) []model.ListedFile {
	files := c.Files()

	out := make([]model.ListedFile, 0, len(files))

	if tab == TabTrash {
		for _, f := range files {
			if f.IsTrash {
				out = append(out, f)
			}
		}
		return out
	}

	search = strings.ToLower(search)

	for _, f := range files {
		if f.IsTrash {
			continue
		}
		if search != "" && !strings.Contains(strings.ToLower(f.Key), search) {
			continue
		}
		if tab == TabFavorites && !f.IsFavorite {
			continue
		}
		out = append(out, f)
	}

	if tab == TabRecent {
		sort.SliceStable(out, func(i, j int) bool {
			return out[i].LastModified.After(out[j].LastModified)
		})
	}

	return out
}

// Stats is the derived storage breakdown, recomputed from the cached
// list on every call and never persisted.
type Stats struct {
	PerCategory map[string]int64
	Total       int64
}

// DeriveStats reduces the cached list into per-category byte totals and a
// grand total. Trashed files still count until permanently deleted.
func (c *SyncCache) DeriveStats() Stats {
	files := c.Files()

	stats := Stats{PerCategory: make(map[string]int64, len(model.Categories))}
	for _, cat := range model.Categories {
		stats.PerCategory[cat] = 0
	}

	for _, f := range files {
		stats.PerCategory[model.Category(f.Key)] += f.Size
		stats.Total += f.Size
	}

	return stats
}
