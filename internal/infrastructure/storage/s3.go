// Package storage uploads photos to an S3-compatible bucket (Supabase Storage, Cloudflare R2, MinIO).
package storage

import (
	"context"
	"fmt"
	"io"
	"net/url"
	"strings"

	bekalconfig "bekal-bangsa/internal/infrastructure/config"
	"bekal-bangsa/internal/pkg/common"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"go.uber.org/zap"
)

// putObjectAPI is the subset of the S3 client used by S3Uploader.
type putObjectAPI interface {
	PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
}

// S3Uploader puts objects into one bucket and returns their public URLs.
type S3Uploader struct {
	client  putObjectAPI
	bucket  string
	baseURL string
}

// NewS3Uploader builds a path-style S3 client against the configured endpoint.
func NewS3Uploader(ctx context.Context, cfg bekalconfig.StorageConfig) (*S3Uploader, error) {
	region := cfg.Region
	if region == "" {
		region = "auto"
	}

	awsCfg, err := config.LoadDefaultConfig(
		ctx,
		config.WithRegion(region),
		config.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.AccessKey, cfg.SecretKey, ""),
		),
		config.WithEndpointResolverWithOptions(
			aws.EndpointResolverWithOptionsFunc(
				func(service, _ string, _ ...interface{}) (aws.Endpoint, error) {
					if service == s3.ServiceID {
						return aws.Endpoint{
							URL:           cfg.Endpoint,
							SigningRegion: region,
						}, nil
					}
					return aws.Endpoint{}, &aws.EndpointNotFoundError{}
				},
			),
		),
	)
	if err != nil {
		return nil, fmt.Errorf("load s3 config: %w", err)
	}

	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		o.UsePathStyle = true
	})

	baseURL := cfg.PublicBaseURL
	if baseURL == "" {
		baseURL = strings.TrimRight(cfg.Endpoint, "/")
	}

	common.LogInfo("object storage ready",
		zap.String("bucket", cfg.Bucket),
		zap.String("public_base_url", baseURL),
	)
	return newUploader(client, cfg.Bucket, baseURL), nil
}

func newUploader(client putObjectAPI, bucket, baseURL string) *S3Uploader {
	return &S3Uploader{
		client:  client,
		bucket:  bucket,
		baseURL: strings.TrimRight(baseURL, "/"),
	}
}

// Upload stores body under key and returns the object's public URL.
func (u *S3Uploader) Upload(ctx context.Context, key, contentType string, body io.Reader, size int64) (string, error) {
	input := &s3.PutObjectInput{
		Bucket: aws.String(u.bucket),
		Key:    aws.String(key),
		Body:   body,
	}
	if contentType != "" {
		input.ContentType = aws.String(contentType)
	}
	if size > 0 {
		input.ContentLength = aws.Int64(size)
	}

	if _, err := u.client.PutObject(ctx, input); err != nil {
		return "", fmt.Errorf("put object %s: %w", key, err)
	}

	return u.PublicURL(key), nil
}

// PublicURL returns the public URL of key: base/bucket/key.
func (u *S3Uploader) PublicURL(key string) string {
	return fmt.Sprintf("%s/%s/%s", u.baseURL, u.bucket, url.PathEscape(key))
}
