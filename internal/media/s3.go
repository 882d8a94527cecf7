package media

import (
	"context"
	"fmt"
	"mime"
	"os"
	"path"
	"path/filepath"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/google/uuid"
)

// S3Storage stores media objects in a single bucket on an S3-compatible
// endpoint. Objects are keyed media/YYYY/MM/DD/<uuid><ext> so a listing
// stays navigable and key collisions are impossible.
type S3Storage struct {
	client   *s3.Client
	bucket   string
	endpoint string
}

// S3Config carries the connection settings for the media bucket.
type S3Config struct {
	Endpoint  string // base endpoint, e.g. http://localhost:9000
	Region    string
	Bucket    string
	AccessKey string // static credentials (MINIO_ROOT_USER style)
	SecretKey string
}

// NewS3Storage builds a Storage backed by the configured bucket.
func NewS3Storage(ctx context.Context, cfg S3Config) (*S3Storage, error) {
	if cfg.Endpoint == "" {
		return nil, fmt.Errorf("media: S3 endpoint is required")
	}
	if cfg.Bucket == "" {
		return nil, fmt.Errorf("media: S3 bucket is required")
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(ctx,
		awsconfig.WithRegion(cfg.Region),
		awsconfig.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(
			cfg.AccessKey,
			cfg.SecretKey,
			"",
		)))
	if err != nil {
		return nil, fmt.Errorf("media: loading S3 config: %w", err)
	}

	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		o.BaseEndpoint = aws.String(cfg.Endpoint)
		// Path-style addressing: MinIO and most self-hosted gateways do
		// not resolve bucket subdomains.
		o.UsePathStyle = true
	})

	return &S3Storage{
		client:   client,
		bucket:   cfg.Bucket,
		endpoint: strings.TrimRight(cfg.Endpoint, "/"),
	}, nil
}

var _ Storage = (*S3Storage)(nil)

// Upload stores the staged file and returns its public URL.
func (s *S3Storage) Upload(ctx context.Context, localPath string) (string, error) {
	f, err := os.Open(localPath)
	if err != nil {
		return "", fmt.Errorf("media: opening staged file: %w", err)
	}
	defer f.Close()

	key := storageKey(localPath)
	contentType := mime.TypeByExtension(filepath.Ext(localPath))
	if contentType == "" {
		contentType = "application/octet-stream"
	}

	_, err = s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(s.bucket),
		Key:         aws.String(key),
		Body:        f,
		ContentType: aws.String(contentType),
	})
	if err != nil {
		return "", fmt.Errorf("media: uploading %s: %w", key, err)
	}

	return fmt.Sprintf("%s/%s/%s", s.endpoint, s.bucket, key), nil
}

// Delete removes the object behind a previously returned URL. URLs that do
// not point into this bucket are ignored rather than treated as errors.
func (s *S3Storage) Delete(ctx context.Context, url string) error {
	key := s.keyFromURL(url)
	if key == "" {
		return nil
	}

	_, err := s.client.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return fmt.Errorf("media: deleting %s: %w", key, err)
	}
	return nil
}

// keyFromURL inverts the URL shape produced by Upload.
func (s *S3Storage) keyFromURL(url string) string {
	prefix := s.endpoint + "/" + s.bucket + "/"
	if !strings.HasPrefix(url, prefix) {
		return ""
	}
	return strings.TrimPrefix(url, prefix)
}

// storageKey generates a date-bucketed object key, keeping the staged
// file's extension so the content type survives round trips.
func storageKey(localPath string) string {
	d := time.Now().UTC()
	ext := path.Ext(localPath)
	return fmt.Sprintf("media/%d/%02d/%02d/%s%s", d.Year(), d.Month(), d.Day(), uuid.NewString(), ext)
}
