package service

import (
	"context"
	"time"

	"cloudbox/drive-api/aws"
	"cloudbox/drive-api/db"

	"github.com/robfig/cron/v3"
	"github.com/spf13/viper"
	"go.uber.org/zap"
)

// BlobLister is the bucket-wide view the sweep needs on top of deletes.
// *aws.S3Client implements it.
type BlobLister interface {
	ListKeys(ctx context.Context) ([]aws.BlobInfo, error)
	Delete(ctx context.Context, key string) error
}

// Sweeper periodically deletes blobs that have no matching metadata
// record and are older than a grace period. Those appear when an upload's
// metadata write fails after the blob write succeeded. The grace period
// keeps the sweep from eating blobs of uploads still in flight.
type Sweeper struct {
	Blobs BlobLister
	Files *db.FileStore

	cron *cron.Cron
}

func NewSweeper(blobs BlobLister, files *db.FileStore) *Sweeper {
	return &Sweeper{
		Blobs: blobs,
		Files: files,
		cron:  cron.New(),
	}
}

// Start schedules the sweep per the configured cron expression.
func (s *Sweeper) Start() error {
	_, err := s.cron.AddFunc(viper.GetString("sweep.schedule"), func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
		defer cancel()

		if err := s.Sweep(ctx); err != nil {
			zap.L().Error("Orphan sweep failed", zap.Error(err))
		}
	})
	if err != nil {
		return err
	}

	s.cron.Start()
	zap.L().Info("Orphan sweep scheduled", zap.String("schedule", viper.GetString("sweep.schedule")))
	return nil
}

func (s *Sweeper) Stop() {
	s.cron.Stop()
}

// Sweep runs one reconciliation pass. Blob listing is eventually
// consistent, which is fine here: a blob missed in this pass is picked up
// by the next one.
func (s *Sweeper) Sweep(ctx context.Context) error {
	keys, err := s.Files.Keys(ctx)
	if err != nil {
		return err
	}

	known := make(map[string]bool, len(keys))
	for _, k := range keys {
		known[k] = true
	}

	blobs, err := s.Blobs.ListKeys(ctx)
	if err != nil {
		return err
	}

	grace := time.Duration(viper.GetInt("sweep.grace_minutes")) * time.Minute
	cutoff := time.Now().Add(-grace)

	var removed int
	for _, b := range blobs {
		if known[b.Key] || b.LastModified.After(cutoff) {
			continue
		}

		zap.L().Warn("Deleting orphaned blob", zap.String("key", b.Key), zap.Time("last_modified", b.LastModified))

		if err := s.Blobs.Delete(ctx, b.Key); err != nil {
			zap.L().Error("Failed to delete orphaned blob", zap.String("key", b.Key), zap.Error(err))
			continue
		}
		removed++
	}

	if removed > 0 {
		zap.L().Info("Orphan sweep finished", zap.Int("removed", removed))
	}

	return nil
}
