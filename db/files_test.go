package db

import (
	"context"
	"testing"

	"cloudbox/drive-api/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func testStore(t *testing.T) *FileStore {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(model.File{}))

	return NewFileStore(db)
}

func TestInsertAssignsIDAndTimestamp(t *testing.T) {
	s := testStore(t)

	f := &model.File{Key: "1-a.txt", Size: 12, ContentType: "text/plain"}
	require.NoError(t, s.Insert(context.Background(), f))

	assert.NotZero(t, f.ID)
	assert.NotZero(t, f.CreatedAt)
	assert.False(t, f.IsFavorite)
	assert.False(t, f.IsTrash)
}

func TestListOrderIsStable(t *testing.T) {
	s := testStore(t)
	ctx := context.Background()

	// Same timestamp on purpose, the tie must break by ID ascending
	for _, key := range []string{"10-a.txt", "10-b.txt", "10-c.txt"} {
		require.NoError(t, s.Insert(ctx, &model.File{Key: key, CreatedAt: 1000}))
	}
	require.NoError(t, s.Insert(ctx, &model.File{Key: "20-d.txt", CreatedAt: 2000}))

	files, err := s.List(ctx)
	require.NoError(t, err)
	require.Len(t, files, 4)

	assert.Equal(t, "20-d.txt", files[0].Key)
	assert.Equal(t, "10-a.txt", files[1].Key)
	assert.Equal(t, "10-b.txt", files[2].Key)
	assert.Equal(t, "10-c.txt", files[3].Key)
}

func TestUpdateFlagsPartial(t *testing.T) {
	s := testStore(t)
	ctx := context.Background()

	f := &model.File{Key: "1-a.txt"}
	require.NoError(t, s.Insert(ctx, f))

	fav := true
	require.NoError(t, s.UpdateFlags(ctx, f.ID, model.FlagPatch{IsFavorite: &fav}))

	got, err := s.GetByID(ctx, f.ID)
	require.NoError(t, err)
	assert.True(t, got.IsFavorite)
	assert.False(t, got.IsTrash, "isTrash must be unaffected")

	unfav := false
	require.NoError(t, s.UpdateFlags(ctx, f.ID, model.FlagPatch{IsFavorite: &unfav}))

	got, err = s.GetByID(ctx, f.ID)
	require.NoError(t, err)
	assert.False(t, got.IsFavorite)
	assert.False(t, got.IsTrash)
}

func TestUpdateFlagsUnknownID(t *testing.T) {
	s := testStore(t)

	fav := true
	err := s.UpdateFlags(context.Background(), 9999, model.FlagPatch{IsFavorite: &fav})
	assert.ErrorIs(t, err, gorm.ErrRecordNotFound)
}

func TestDeleteByID(t *testing.T) {
	s := testStore(t)
	ctx := context.Background()

	f := &model.File{Key: "1-a.txt", Size: 5}
	require.NoError(t, s.Insert(ctx, f))

	removed, err := s.DeleteByID(ctx, f.ID)
	require.NoError(t, err)
	assert.Equal(t, "1-a.txt", removed.Key)

	_, err = s.DeleteByID(ctx, f.ID)
	assert.ErrorIs(t, err, gorm.ErrRecordNotFound)

	files, err := s.List(ctx)
	require.NoError(t, err)
	assert.Empty(t, files)
}

func TestKeys(t *testing.T) {
	s := testStore(t)
	ctx := context.Background()

	require.NoError(t, s.Insert(ctx, &model.File{Key: "1-a.txt"}))
	require.NoError(t, s.Insert(ctx, &model.File{Key: "2-b.png"}))

	keys, err := s.Keys(ctx)
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"1-a.txt", "2-b.png"}, keys)
}
