package client

import (
	"testing"
	"time"

	"cloudbox/drive-api/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func listedFile(id uint, key string, size int64, mod time.Time) model.ListedFile {
	return model.ListedFile{ID: id, Key: key, Size: size, LastModified: mod}
}

func testCache(files ...model.ListedFile) *SyncCache {
	c := NewSyncCache(nil)
	c.SetList(files)
	return c
}

func TestDeriveStatsSingleCategory(t *testing.T) {
	now := time.Now()
	c := testCache(
		listedFile(1, "1-a.txt", 1024, now),
		listedFile(2, "2-b.pdf", 2048, now),
		listedFile(3, "3-c.docx", 4096, now),
	)

	stats := c.DeriveStats()

	assert.Equal(t, int64(7168), stats.PerCategory["Documents"])
	assert.Equal(t, int64(7168), stats.Total)
	assert.Equal(t, int64(0), stats.PerCategory["Images"])
	assert.Equal(t, int64(0), stats.PerCategory["Videos"])
	assert.Equal(t, int64(0), stats.PerCategory["Audio"])
	assert.Equal(t, int64(0), stats.PerCategory["Others"])
}

func TestDeriveStatsEmptyList(t *testing.T) {
	c := testCache()

	stats := c.DeriveStats()

	assert.Equal(t, int64(0), stats.Total)
	for _, cat := range model.Categories {
		assert.Equal(t, int64(0), stats.PerCategory[cat], cat)
	}
}

func TestDeriveStatsIncludesTrashedFiles(t *testing.T) {
	now := time.Now()
	f := listedFile(1, "1-a.txt", 1000, now)
	f.IsTrash = true

	c := testCache(f, listedFile(2, "2-b.mp3", 500, now))

	stats := c.DeriveStats()

	// Trashed files still occupy storage until permanently deleted
	assert.Equal(t, int64(1000), stats.PerCategory["Documents"])
	assert.Equal(t, int64(500), stats.PerCategory["Audio"])
	assert.Equal(t, int64(1500), stats.Total)
}

func TestTrashedFilesOnlyInTrashView(t *testing.T) {
	now := time.Now()
	trashed := listedFile(1, "1-gone.txt", 1, now)
	trashed.IsTrash = true
	fav := listedFile(2, "2-liked.png", 1, now)
	fav.IsFavorite = true

	c := testCache(trashed, fav, listedFile(3, "3-plain.mp4", 1, now))

	for _, tab := range []Tab{TabAll, TabRecent, TabFavorites} {
		for _, f := range c.DeriveView(tab, "") {
			assert.False(t, f.IsTrash, "trashed file leaked into %s view", tab)
		}
	}

	trashView := c.DeriveView(TabTrash, "")
	require.Len(t, trashView, 1)
	assert.Equal(t, "1-gone.txt", trashView[0].Key)
}

func TestDeriveViewFavorites(t *testing.T) {
	now := time.Now()
	fav := listedFile(1, "1-liked.png", 1, now)
	fav.IsFavorite = true

	c := testCache(fav, listedFile(2, "2-plain.txt", 1, now))

	view := c.DeriveView(TabFavorites, "")
	require.Len(t, view, 1)
	assert.Equal(t, "1-liked.png", view[0].Key)
}

func TestDeriveViewSearch(t *testing.T) {
	now := time.Now()
	c := testCache(
		listedFile(1, "1-holiday-photo.png", 1, now),
		listedFile(2, "2-invoice.pdf", 1, now),
	)

	view := c.DeriveView(TabAll, "PHOTO")
	require.Len(t, view, 1)
	assert.Equal(t, "1-holiday-photo.png", view[0].Key)
}

func TestDeriveViewRecentOrder(t *testing.T) {
	base := time.Now()
	c := testCache(
		listedFile(1, "1-old.txt", 1, base.Add(-2*time.Hour)),
		listedFile(2, "2-new.txt", 1, base),
		listedFile(3, "3-mid.txt", 1, base.Add(-time.Hour)),
	)

	view := c.DeriveView(TabRecent, "")
	require.Len(t, view, 3)
	assert.Equal(t, "2-new.txt", view[0].Key)
	assert.Equal(t, "3-mid.txt", view[1].Key)
	assert.Equal(t, "1-old.txt", view[2].Key)
}

func TestApplyOptimisticAndRollback(t *testing.T) {
	now := time.Now()
	c := testCache(
		listedFile(1, "1-a.txt", 1, now),
		listedFile(2, "2-b.txt", 1, now),
	)

	fav := true
	cmdA, err := c.ApplyOptimistic("1-a.txt", model.FlagPatch{IsFavorite: &fav})
	require.NoError(t, err)

	trash := true
	cmdB, err := c.ApplyOptimistic("2-b.txt", model.FlagPatch{IsTrash: &trash})
	require.NoError(t, err)

	// Both applied immediately
	a, _ := c.Get("1-a.txt")
	b, _ := c.Get("2-b.txt")
	assert.True(t, a.IsFavorite)
	assert.True(t, b.IsTrash)

	// Rolling back A must not disturb B's pending change
	c.Rollback(cmdA)

	a, _ = c.Get("1-a.txt")
	b, _ = c.Get("2-b.txt")
	assert.False(t, a.IsFavorite)
	assert.True(t, b.IsTrash)

	c.Confirm(cmdB)
	b, _ = c.Get("2-b.txt")
	assert.True(t, b.IsTrash)
}

func TestRollbackOnlyRevertsPatchedFields(t *testing.T) {
	now := time.Now()
	f := listedFile(1, "1-a.txt", 1, now)
	f.IsFavorite = true
	c := testCache(f)

	trash := true
	cmd, err := c.ApplyOptimistic("1-a.txt", model.FlagPatch{IsTrash: &trash})
	require.NoError(t, err)

	c.Rollback(cmd)

	got, _ := c.Get("1-a.txt")
	assert.True(t, got.IsFavorite, "unpatched flag must survive the rollback")
	assert.False(t, got.IsTrash)
}

func TestApplyOptimisticUnknownKey(t *testing.T) {
	c := testCache()

	fav := true
	_, err := c.ApplyOptimistic("nope", model.FlagPatch{IsFavorite: &fav})
	assert.Error(t, err)
}

func TestRemove(t *testing.T) {
	now := time.Now()
	c := testCache(
		listedFile(1, "1-a.txt", 1, now),
		listedFile(2, "2-b.txt", 1, now),
	)

	c.Remove("1-a.txt")

	_, ok := c.Get("1-a.txt")
	assert.False(t, ok)
	assert.Len(t, c.Files(), 1)
}
