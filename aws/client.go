// Package aws defines functions used to interact with the S3 API
package aws

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/smithy-go"
	"github.com/jellydator/ttlcache/v2"
	"github.com/spf13/viper"
)

// downloadURLTTL is how long a presigned download URL stays valid.
const downloadURLTTL = 300 * time.Second

type S3Client struct {
	C       *s3.Client
	Presign *s3.PresignClient
	Bucket  *string

	// Presigned URLs are cached slightly shorter than their validity so
	// a cache hit never hands out an expired URL
	urls *ttlcache.Cache
}

func NewS3() (*S3Client, error) {
	cfg, err := config.LoadDefaultConfig(context.TODO(),
		config.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(
			viper.GetString("aws.access_key_id"),
			viper.GetString("aws.secret_access_key"),
			"",
		)),
	)
	if err != nil {
		return nil, err
	}

	bucket := aws.String(viper.GetString("aws.bucket"))

	client := s3.NewFromConfig(cfg, func(o *s3.Options) {
		o.Region = viper.GetString("aws.region")

		if ep := viper.GetString("aws.endpoint"); ep != "" {
			o.BaseEndpoint = aws.String(ep)
		}
	})

	_, err = client.HeadBucket(context.TODO(), &s3.HeadBucketInput{
		Bucket: bucket,
	})
	if err != nil {
		var apiErr smithy.APIError

		if errors.As(err, &apiErr) {
			if apiErr.ErrorCode() == "NotFound" {
				return nil, fmt.Errorf("bucket '%s' does not exist", *bucket)
			}
		}

		return nil, fmt.Errorf("failed to check if bucket exists, %w", err)
	}

	urls := ttlcache.NewCache()
	urls.SetTTL(downloadURLTTL / 2)

	return &S3Client{
		C:       client,
		Presign: s3.NewPresignClient(client),
		Bucket:  bucket,
		urls:    urls,
	}, nil
}
