package db

import (
	"context"
	"time"

	"cloudbox/drive-api/model"

	"gorm.io/gorm"
)

// FileStore is the authoritative record store for uploaded objects. It is
// the source of truth for the favorite/trash flags and for listing order.
type FileStore struct {
	db *gorm.DB
}

func NewFileStore(db *gorm.DB) *FileStore {
	return &FileStore{db: db}
}

// Insert persists a new record, assigning its ID and creation timestamp.
func (s *FileStore) Insert(ctx context.Context, f *model.File) error {
	if f.CreatedAt == 0 {
		f.CreatedAt = time.Now().UnixMilli()
	}

	return s.db.WithContext(ctx).Create(f).Error
}

// List returns every record, newest first. Ties on the timestamp are
// broken by ID so the order is stable across calls.
func (s *FileStore) List(ctx context.Context) ([]model.File, error) {
	var files []model.File

	err := s.db.WithContext(ctx).
		Order("created_at DESC, id ASC").
		Find(&files).
		Error
	if err != nil {
		return nil, err
	}

	return files, nil
}

func (s *FileStore) GetByID(ctx context.Context, id uint) (*model.File, error) {
	var f model.File

	err := s.db.WithContext(ctx).
		Where("id = ?", id).
		First(&f).
		Error
	if err != nil {
		return nil, err
	}

	return &f, nil
}

func (s *FileStore) GetByKey(ctx context.Context, key string) (*model.File, error) {
	var f model.File

	err := s.db.WithContext(ctx).
		Where("key = ?", key).
		First(&f).
		Error
	if err != nil {
		return nil, err
	}

	return &f, nil
}

// UpdateFlags applies a partial flag update. Only fields present in the
// patch change, key/size/created_at are never touched here.
func (s *FileStore) UpdateFlags(ctx context.Context, id uint, patch model.FlagPatch) error {
	updates := map[string]any{}
	if patch.IsFavorite != nil {
		updates["is_favorite"] = *patch.IsFavorite
	}
	if patch.IsTrash != nil {
		updates["is_trash"] = *patch.IsTrash
	}

	res := s.db.WithContext(ctx).
		Model(model.File{}).
		Where("id = ?", id).
		Updates(updates)
	if res.Error != nil {
		return res.Error
	}

	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}

	return nil
}

// DeleteByID removes a record and returns it, or gorm.ErrRecordNotFound.
func (s *FileStore) DeleteByID(ctx context.Context, id uint) (*model.File, error) {
	f, err := s.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	err = s.db.WithContext(ctx).
		Where("id = ?", id).
		Delete(model.File{}).
		Error
	if err != nil {
		return nil, err
	}

	return f, nil
}

// Keys returns every stored object key. Used by the orphan sweep.
func (s *FileStore) Keys(ctx context.Context) ([]string, error) {
	var keys []string

	err := s.db.WithContext(ctx).
		Model(model.File{}).
		Pluck("key", &keys).
		Error
	if err != nil {
		return nil, err
	}

	return keys, nil
}
