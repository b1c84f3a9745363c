package blobx

import (
	"bytes"
	"context"
	"errors"
	"io"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsConfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/smithy-go"

	"github.com/tracefield/astro-reason/pkg/config"
)

// S3Store is a Store backed by S3 or any S3-compatible endpoint (MinIO).
type S3Store struct {
	client *s3.Client
	bucket string
}

// NewS3Store builds a Store from the blob configuration. A non-empty
// Endpoint switches the client to path-style addressing for MinIO.
func NewS3Store(ctx context.Context, cfg config.BlobConfig) (*S3Store, error) {
	opts := []func(*awsConfig.LoadOptions) error{
		awsConfig.WithRegion(cfg.Region),
	}
	if cfg.AccessKey != "" {
		opts = append(opts, awsConfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.AccessKey, cfg.SecretKey, ""),
		))
	}

	awsCfg, err := awsConfig.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, blobErrors.NewWithCause(ErrPutFailed, err).
			WithDetail("stage", "aws_config")
	}

	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if cfg.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
			o.UsePathStyle = true
		}
	})

	return &S3Store{client: client, bucket: cfg.Bucket}, nil
}

// NewS3StoreWithClient wraps an existing client, for tests and shared wiring.
func NewS3StoreWithClient(client *s3.Client, bucket string) *S3Store {
	return &S3Store{client: client, bucket: bucket}
}

// PutBytes uploads data under key and returns its s3:// URI.
func (s *S3Store) PutBytes(ctx context.Context, key string, data []byte, contentType string) (string, error) {
	input := &s3.PutObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
		Body:   bytes.NewReader(data),
	}
	if contentType != "" {
		input.ContentType = aws.String(contentType)
	}

	if _, err := s.client.PutObject(ctx, input); err != nil {
		return "", blobErrors.NewWithCause(ErrPutFailed, err).
			WithDetail("bucket", s.bucket).
			WithDetail("key", key)
	}

	return FormatURI(s.bucket, key), nil
}

// Read downloads the object at the given s3:// URI. The URI's bucket must
// match the store's configured bucket.
func (s *S3Store) Read(ctx context.Context, uri string) ([]byte, error) {
	bucket, key, err := ParseURI(uri)
	if err != nil {
		return nil, err
	}
	if bucket != s.bucket {
		return nil, blobErrors.New(ErrBucketMiss).
			WithDetail("uri_bucket", bucket).
			WithDetail("store_bucket", s.bucket)
	}

	out, err := s.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		var apiErr smithy.APIError
		if errors.As(err, &apiErr) && apiErr.ErrorCode() == "NoSuchKey" {
			return nil, blobErrors.NewWithCause(ErrNotFound, err).WithDetail("uri", uri)
		}
		return nil, blobErrors.NewWithCause(ErrGetFailed, err).WithDetail("uri", uri)
	}
	defer out.Body.Close()

	data, err := io.ReadAll(out.Body)
	if err != nil {
		return nil, blobErrors.NewWithCause(ErrGetFailed, err).WithDetail("uri", uri)
	}
	return data, nil
}
