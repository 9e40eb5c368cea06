package kvcache

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"sync/atomic"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
)

// S3API is the subset of *s3.Client used by S3Cache.
type S3API interface {
	GetObject(ctx context.Context, params *s3.GetObjectInput, optFns ...func(*s3.Options)) (*s3.GetObjectOutput, error)
	PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
	DeleteObject(ctx context.Context, params *s3.DeleteObjectInput, optFns ...func(*s3.Options)) (*s3.DeleteObjectOutput, error)
}

// S3Cache stores one object per key in an S3 bucket.
//
// Example usage:
//
//	client := s3.New(s3.Options{Region: "eu-central-1", Credentials: creds})
//	cache := kvcache.NewS3Cache(client, "my-bucket", kvcache.WithS3Prefix("statekit/"))
type S3Cache struct {
	client S3API
	bucket string
	prefix string
	closed atomic.Bool
}

// S3CacheOption configures S3Cache behavior.
type S3CacheOption func(*S3Cache)

// WithS3Prefix sets the object key prefix (e.g., "statekit/").
func WithS3Prefix(prefix string) S3CacheOption {
	return func(c *S3Cache) {
		c.prefix = prefix
	}
}

// NewS3Cache creates a cache over bucket.
func NewS3Cache(client S3API, bucket string, opts ...S3CacheOption) *S3Cache {
	c := &S3Cache{
		client: client,
		bucket: bucket,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// NewS3Client builds an S3 client from static credentials.
// Endpoint may be empty to use AWS; set it for S3-compatible stores.
func NewS3Client(region, endpoint, accessKey, secretKey string) *s3.Client {
	opts := s3.Options{
		Region: region,
		Credentials: aws.CredentialsProviderFunc(func(ctx context.Context) (aws.Credentials, error) {
			return aws.Credentials{
				AccessKeyID:     accessKey,
				SecretAccessKey: secretKey,
				Source:          "statekit",
			}, nil
		}),
	}
	if endpoint != "" {
		opts.BaseEndpoint = aws.String(endpoint)
		opts.UsePathStyle = true
	}
	return s3.New(opts)
}

func (c *S3Cache) objectKey(key string) string {
	return c.prefix + key
}

// Get returns the value stored under key.
func (c *S3Cache) Get(ctx context.Context, key string) (string, bool, error) {
	if c.closed.Load() {
		return "", false, ErrClosed
	}

	out, err := c.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(c.bucket),
		Key:    aws.String(c.objectKey(key)),
	})
	if err != nil {
		var noSuchKey *types.NoSuchKey
		var notFound *types.NotFound
		if errors.As(err, &noSuchKey) || errors.As(err, &notFound) {
			return "", false, nil
		}
		return "", false, fmt.Errorf("kvcache: s3 get %q: %w", key, err)
	}
	defer out.Body.Close()

	body, err := io.ReadAll(out.Body)
	if err != nil {
		return "", false, fmt.Errorf("kvcache: s3 read %q: %w", key, err)
	}
	return string(body), true, nil
}

// Set stores value under key.
func (c *S3Cache) Set(ctx context.Context, key, value string) error {
	if c.closed.Load() {
		return ErrClosed
	}

	_, err := c.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:        aws.String(c.bucket),
		Key:           aws.String(c.objectKey(key)),
		Body:          strings.NewReader(value),
		ContentLength: aws.Int64(int64(len(value))),
		ContentType:   aws.String("text/plain; charset=utf-8"),
	})
	if err != nil {
		return fmt.Errorf("kvcache: s3 put %q: %w", key, err)
	}
	return nil
}

// Remove deletes key. S3 reports success for missing objects.
func (c *S3Cache) Remove(ctx context.Context, key string) error {
	if c.closed.Load() {
		return ErrClosed
	}

	_, err := c.client.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(c.bucket),
		Key:    aws.String(c.objectKey(key)),
	})
	if err != nil {
		return fmt.Errorf("kvcache: s3 delete %q: %w", key, err)
	}
	return nil
}

// Close marks the cache closed.
func (c *S3Cache) Close() error {
	c.closed.Store(true)
	return nil
}

var _ Cache = (*S3Cache)(nil)
