package aws

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/url"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/s3/manager"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/smithy-go"
	"github.com/spf13/viper"
	"go.uber.org/zap"
)

// Bodies above this size go through the multipart uploader
const minMultipartSize = 12 << 20

// PutResult describes a successful blob write.
type PutResult struct {
	Key      string
	Location string
	Size     int64
}

// Put stores the body under a fresh timestamp-prefixed key and returns the
// key plus a resolvable location. The caller must not create a metadata
// record when this fails.
func (s *S3Client) Put(ctx context.Context, body io.Reader, filename, contentType string, size int64) (*PutResult, error) {
	key := NextKey(filename)

	input := &s3.PutObjectInput{
		Bucket:        s.Bucket,
		Key:           aws.String(key),
		Body:          body,
		ContentLength: aws.Int64(size),
		ContentType:   aws.String(contentType),
	}

	var err error
	if size > minMultipartSize {
		u := manager.NewUploader(s.C, func(u *manager.Uploader) {
			u.Concurrency = 5
			u.PartSize = 6 << 20
		})
		_, err = u.Upload(ctx, input)
	} else {
		_, err = s.C.PutObject(ctx, input)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to upload object to S3, %w", err)
	}

	return &PutResult{
		Key:      key,
		Location: s.objectURL(key),
		Size:     size,
	}, nil
}

// Delete removes an object. A missing key is a no-op, so retries after a
// partial failure never fail themselves.
func (s *S3Client) Delete(ctx context.Context, key string) error {
	_, err := s.C.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: s.Bucket,
		Key:    aws.String(key),
	})
	if err != nil {
		var apiErr smithy.APIError

		if errors.As(err, &apiErr) {
			switch apiErr.ErrorCode() {
			case "NoSuchKey", "NotFound":
				zap.L().Debug("Delete of missing object ignored", zap.String("key", key))
				return nil
			}
		}

		return fmt.Errorf("failed to delete object from S3, %w", err)
	}

	return nil
}

// PresignDownload returns a time-limited download URL for an existing
// object. URLs are cached for half their validity window; after expiry a
// new request must be made, the old URL fails closed on the provider side.
func (s *S3Client) PresignDownload(ctx context.Context, key string) (string, error) {
	if v, err := s.urls.Get(key); err == nil {
		return v.(string), nil
	}

	// Missing keys should fail here, not when the user follows the URL
	_, err := s.C.HeadObject(ctx, &s3.HeadObjectInput{
		Bucket: s.Bucket,
		Key:    aws.String(key),
	})
	if err != nil {
		return "", fmt.Errorf("object '%s' not readable, %w", key, err)
	}

	req, err := s.Presign.PresignGetObject(ctx, &s3.GetObjectInput{
		Bucket: s.Bucket,
		Key:    aws.String(key),
	}, s3.WithPresignExpires(downloadURLTTL))
	if err != nil {
		return "", fmt.Errorf("failed to presign download URL, %w", err)
	}

	s.urls.Set(key, req.URL)
	return req.URL, nil
}

// BlobInfo is a single object listed straight from the bucket.
type BlobInfo struct {
	Key          string
	LastModified time.Time
}

// ListKeys walks the whole bucket. Used by the orphan sweep only, listing
// is eventually consistent and must not back any user-facing view.
func (s *S3Client) ListKeys(ctx context.Context) ([]BlobInfo, error) {
	var out []BlobInfo

	p := s3.NewListObjectsV2Paginator(s.C, &s3.ListObjectsV2Input{
		Bucket: s.Bucket,
	})

	for p.HasMorePages() {
		page, err := p.NextPage(ctx)
		if err != nil {
			return nil, fmt.Errorf("failed to list bucket objects, %w", err)
		}

		for _, obj := range page.Contents {
			info := BlobInfo{Key: aws.ToString(obj.Key)}
			if obj.LastModified != nil {
				info.LastModified = *obj.LastModified
			}
			out = append(out, info)
		}
	}

	return out, nil
}

func (s *S3Client) objectURL(key string) string {
	escaped := url.PathEscape(key)

	if ep := viper.GetString("aws.endpoint"); ep != "" {
		return fmt.Sprintf("%s/%s/%s", strings.TrimSuffix(ep, "/"), *s.Bucket, escaped)
	}

	return fmt.Sprintf("https://%s.s3.%s.amazonaws.com/%s", *s.Bucket, viper.GetString("aws.region"), escaped)
}
