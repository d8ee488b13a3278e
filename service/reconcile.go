// Package service holds the orchestration between the blob store and the
// metadata store
package service

import (
	"context"
	"errors"
	"fmt"
	"io"

	"cloudbox/drive-api/aws"
	"cloudbox/drive-api/db"
	"cloudbox/drive-api/model"

	"go.uber.org/zap"
	"gorm.io/gorm"
)

// BlobStore is the slice of the object storage backend the reconciler
// needs. *aws.S3Client implements it.
type BlobStore interface {
	Put(ctx context.Context, body io.Reader, filename, contentType string, size int64) (*aws.PutResult, error)
	Delete(ctx context.Context, key string) error
	PresignDownload(ctx context.Context, key string) (string, error)
}

// Reconciler keeps the metadata store consistent with the blob store.
// There is no transaction spanning the two, upload and permanent delete
// are sequential compound operations with the partial-failure outcomes
// documented on each method.
type Reconciler struct {
	Blobs BlobStore
	Files *db.FileStore
}

func NewReconciler(blobs BlobStore, files *db.FileStore) *Reconciler {
	return &Reconciler{Blobs: blobs, Files: files}
}

// Upload writes the blob first, then the metadata record. A blob write
// failure aborts before any metadata exists. A metadata failure after a
// successful blob write leaves an orphaned blob behind; the key is logged
// so the sweep (or an operator) can clean it up later.
func (r *Reconciler) Upload(ctx context.Context, body io.Reader, filename, contentType string, size int64) (*model.File, error) {
	res, err := r.Blobs.Put(ctx, body, filename, contentType, size)
	if err != nil {
		zap.L().Error("Blob write failed, no metadata written", zap.String("filename", filename), zap.Error(err))
		return nil, fmt.Errorf("%w: %w", ErrUploadFailed, ErrStoreWrite)
	}

	// Explicit intermediate state: the blob exists, the record doesn't yet
	zap.L().Debug("Blob written, metadata pending", zap.String("key", res.Key))

	f := &model.File{
		Key:         res.Key,
		Size:        res.Size,
		ContentType: contentType,
		URL:         res.Location,
	}

	err = r.Files.Insert(ctx, f)
	if err != nil {
		zap.L().Error("Metadata write failed after blob write, blob orphaned",
			zap.String("key", res.Key), zap.Error(err))
		return nil, ErrUploadFailed
	}

	return f, nil
}

// List returns every record reshaped into the listing contract. Flag-based
// views are a client concern, nothing is filtered here.
func (r *Reconciler) List(ctx context.Context) ([]model.ListedFile, error) {
	files, err := r.Files.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list files, %w", err)
	}

	items := make([]model.ListedFile, 0, len(files))
	for i := range files {
		items = append(items, files[i].Listed())
	}

	return items, nil
}

// UpdateFlags applies a metadata-only partial update of the favorite and
// trash flags.
func (r *Reconciler) UpdateFlags(ctx context.Context, id uint, patch model.FlagPatch) error {
	if patch.Empty() {
		return fmt.Errorf("%w: at least one of isFavorite/isTrash is required", ErrValidation)
	}

	err := r.Files.UpdateFlags(ctx, id, patch)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrNotFound
		}

		return fmt.Errorf("failed to update flags, %w", err)
	}

	return nil
}

// PermanentDelete removes the blob and the record together. A missing
// record is a successful no-op so retries never fail. A blob delete
// failure is logged but does not block the record delete, removing the
// entry the user sees wins over guaranteed blob cleanup.
func (r *Reconciler) PermanentDelete(ctx context.Context, id uint) error {
	f, err := r.Files.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil
		}

		return fmt.Errorf("failed to look up file, %w", err)
	}

	return r.deleteBoth(ctx, f)
}

// PermanentDeleteByKey is the key-addressed form of PermanentDelete.
func (r *Reconciler) PermanentDeleteByKey(ctx context.Context, key string) error {
	f, err := r.Files.GetByKey(ctx, key)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil
		}

		return fmt.Errorf("failed to look up file, %w", err)
	}

	return r.deleteBoth(ctx, f)
}

func (r *Reconciler) deleteBoth(ctx context.Context, f *model.File) error {
	err := r.Blobs.Delete(ctx, f.Key)
	if err != nil {
		zap.L().Error("Blob delete failed, key orphaned in bucket",
			zap.String("key", f.Key), zap.Error(err))
	}

	_, err = r.Files.DeleteByID(ctx, f.ID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil
		}

		return fmt.Errorf("failed to delete file record, %w", err)
	}

	return nil
}

// ResolveDownload returns a time-limited signed URL for the given key.
func (r *Reconciler) ResolveDownload(ctx context.Context, key string) (string, error) {
	url, err := r.Blobs.PresignDownload(ctx, key)
	if err != nil {
		zap.L().Error("Failed to resolve download URL", zap.String("key", key), zap.Error(err))
		return "", ErrStoreRead
	}

	return url, nil
}
