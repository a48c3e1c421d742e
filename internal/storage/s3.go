package storage

import (
	"context"
	"fmt"
	"net/url"
	"strings"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"

	"github.com/joseph-ayodele/survey-extractor/internal/common"
)

type S3Opts func(c *s3Config)

type s3Config struct {
	endpoint        string
	accessKey       string
	secretAccessKey string
	region          string
	useSSL          bool
}

func WithEndpoint(endpoint string) S3Opts {
	return func(c *s3Config) { c.endpoint = endpoint }
}

func WithAccessKey(accessKey string) S3Opts {
	return func(c *s3Config) { c.accessKey = accessKey }
}

func WithSecretKey(secretKey string) S3Opts {
	return func(c *s3Config) { c.secretAccessKey = secretKey }
}

// WithRegion skips the bucket-location lookup.
func WithRegion(region string) S3Opts {
	return func(c *s3Config) { c.region = region }
}

func WithSSL(useSSL bool) S3Opts {
	return func(c *s3Config) { c.useSSL = useSSL }
}

// S3Source reads s3://bucket/key references from any S3-compatible store.
type S3Source struct {
	client *minio.Client
}

func NewS3Source(opts ...S3Opts) (*S3Source, error) {
	cfg := &s3Config{useSSL: true}
	for _, o := range opts {
		o(cfg)
	}
	if cfg.endpoint == "" {
		return nil, fmt.Errorf("s3 endpoint is required")
	}
	client, err := minio.New(cfg.endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.accessKey, cfg.secretAccessKey, ""),
		Secure: cfg.useSSL,
		Region: cfg.region,
	})
	if err != nil {
		return nil, err
	}
	return &S3Source{client: client}, nil
}

func (s *S3Source) Scheme() string { return "s3" }

func (s *S3Source) Get(ctx context.Context, ref *url.URL, maxBytes int64) ([]byte, error) {
	bucket := ref.Host
	key := strings.TrimPrefix(ref.Path, "/")
	if bucket == "" || key == "" {
		return nil, fmt.Errorf("s3 reference %q needs bucket and key", ref.String())
	}

	object, err := s.client.GetObject(ctx, bucket, key, minio.GetObjectOptions{})
	if err != nil {
		return nil, s.mapErr(bucket, key, err)
	}
	defer object.Close()

	info, err := object.Stat()
	if err != nil {
		return nil, s.mapErr(bucket, key, err)
	}
	if maxBytes > 0 && info.Size > maxBytes {
		return nil, ErrTooLarge
	}

	b, err := readLimited(object, maxBytes)
	if err != nil {
		return nil, s.mapErr(bucket, key, err)
	}
	if int64(len(b)) != info.Size {
		return nil, fmt.Errorf("incomplete download of s3://%s/%s: expected %d bytes, got %d", bucket, key, info.Size, len(b))
	}
	return b, nil
}

func (s *S3Source) mapErr(bucket, key string, err error) error {
	switch minio.ToErrorResponse(err).Code {
	case "NoSuchKey", "NoSuchBucket":
		return fmt.Errorf("s3://%s/%s: %w", bucket, key, common.ErrNotFound)
	}
	return err
}
