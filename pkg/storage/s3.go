package storage

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"path"
	"path/filepath"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/smithy-go"
)

// S3Config contains minimal configuration for creating an S3 store.
// Values are optional and will fall back to the standard AWS config/credential chain.
type S3Config struct {
	Bucket string
	// Prefix is prepended to every object key, e.g. "nba".
	Prefix string
	// Region to use for requests, e.g. "us-east-1". If empty, AWS defaults apply.
	Region string
	// Profile selects a named shared config/credentials profile. If empty, default chain applies.
	Profile string
	// UsePathStyle forces path-style addressing (useful for S3-compatible providers such as MinIO).
	UsePathStyle bool
	// Endpoint overrides the service endpoint for S3-compatible providers.
	Endpoint string
}

// ObjectPutter is the subset of the S3 client the store uses.
type ObjectPutter interface {
	PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
}

// S3Store implements Store by uploading objects to a bucket.
// Buckets have no directories, so EnsureDir does nothing.
type S3Store struct {
	client ObjectPutter
	bucket string
	prefix string
}

// NewS3Store creates a store using the default AWS configuration chain,
// with optional overrides from cfg.
func NewS3Store(ctx context.Context, cfg S3Config) (*S3Store, error) {
	if cfg.Bucket == "" {
		return nil, fmt.Errorf("s3 bucket is required")
	}

	var loadOpts []func(*config.LoadOptions) error
	if cfg.Region != "" {
		loadOpts = append(loadOpts, config.WithRegion(cfg.Region))
	}
	if cfg.Profile != "" {
		loadOpts = append(loadOpts, config.WithSharedConfigProfile(cfg.Profile))
	}

	awsCfg, err := config.LoadDefaultConfig(ctx, loadOpts...)
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}

	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		o.UsePathStyle = cfg.UsePathStyle
		if cfg.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
		}
	})
	return NewS3StoreWithClient(client, cfg.Bucket, cfg.Prefix), nil
}

// NewS3StoreWithClient wraps an existing client.
func NewS3StoreWithClient(client ObjectPutter, bucket, prefix string) *S3Store {
	return &S3Store{client: client, bucket: bucket, prefix: strings.Trim(prefix, "/")}
}

// EnsureDir is a no-op for object storage.
func (s *S3Store) EnsureDir(ctx context.Context, dir string) error {
	return nil
}

// Write uploads data under the key derived from path. PutObject overwrites.
func (s *S3Store) Write(ctx context.Context, p string, data []byte) error {
	key := s.Key(p)
	_, err := s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(s.bucket),
		Key:         aws.String(key),
		Body:        bytes.NewReader(data),
		ContentType: aws.String(contentTypeFor(key)),
	})
	if err != nil {
		var apiErr smithy.APIError
		if errors.As(err, &apiErr) {
			return fmt.Errorf("failed to upload s3://%s/%s (%s): %w", s.bucket, key, apiErr.ErrorCode(), err)
		}
		return fmt.Errorf("failed to upload s3://%s/%s: %w", s.bucket, key, err)
	}
	return nil
}

// Key maps a local-style path to an object key.
func (s *S3Store) Key(p string) string {
	key := strings.TrimLeft(filepath.ToSlash(p), "/")
	if s.prefix == "" {
		return key
	}
	return path.Join(s.prefix, key)
}

func contentTypeFor(key string) string {
	if strings.EqualFold(path.Ext(key), ".mp4") {
		return "video/mp4"
	}
	return "application/octet-stream"
}
