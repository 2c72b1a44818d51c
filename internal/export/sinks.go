package export

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"path"
	"strings"

	"github.com/atotto/clipboard"
	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/feature/s3/manager"
	"github.com/aws/aws-sdk-go-v2/service/s3"

	"github.com/Paintersrp/chatseek/internal/search"
)

// ErrNoBucket is returned when an S3 export is requested without a bucket.
var ErrNoBucket = errors.New("no S3 bucket configured")

var writeClipboard = clipboard.WriteAll

// CopyPaths places the rendered result paths on the system clipboard, one
// per line, and returns how many were copied.
func CopyPaths(results []search.Result, opts Options) (int, error) {
	paths := Paths(results, opts)
	if err := writeClipboard(strings.Join(paths, "\n")); err != nil {
		return 0, fmt.Errorf("write clipboard: %w", err)
	}
	return len(paths), nil
}

// Uploader is the subset of manager.Uploader used by S3Sink.
type Uploader interface {
	Upload(ctx context.Context, input *s3.PutObjectInput, opts ...func(*manager.Uploader)) (*manager.UploadOutput, error)
}

// S3Sink uploads exports to an S3 bucket.
type S3Sink struct {
	Bucket   string
	Prefix   string
	uploader Uploader
}

// NewS3Sink loads the default AWS configuration (environment, shared config,
// instance role) and returns a sink for bucket.
func NewS3Sink(ctx context.Context, bucket, prefix, region string) (*S3Sink, error) {
	if strings.TrimSpace(bucket) == "" {
		return nil, ErrNoBucket
	}

	var loadOpts []func(*awsconfig.LoadOptions) error
	if region != "" {
		loadOpts = append(loadOpts, awsconfig.WithRegion(region))
	}
	cfg, err := awsconfig.LoadDefaultConfig(ctx, loadOpts...)
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}

	client := s3.NewFromConfig(cfg)
	return NewS3SinkWithUploader(bucket, prefix, manager.NewUploader(client)), nil
}

// NewS3SinkWithUploader returns a sink using the given uploader.
func NewS3SinkWithUploader(bucket, prefix string, uploader Uploader) *S3Sink {
	return &S3Sink{Bucket: bucket, Prefix: strings.Trim(prefix, "/"), uploader: uploader}
}

// Key returns the object key used for name.
func (s *S3Sink) Key(name string) string {
	if s.Prefix == "" {
		return name
	}
	return path.Join(s.Prefix, name)
}

// Put uploads body under name and returns the object URL.
func (s *S3Sink) Put(ctx context.Context, name string, body []byte, contentType string) (string, error) {
	if s == nil || s.Bucket == "" {
		return "", ErrNoBucket
	}

	key := s.Key(name)
	out, err := s.uploader.Upload(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(s.Bucket),
		Key:         aws.String(key),
		Body:        bytes.NewReader(body),
		ContentType: aws.String(contentType),
	})
	if err != nil {
		return "", fmt.Errorf("upload s3://%s/%s: %w", s.Bucket, key, err)
	}
	if out != nil && out.Location != "" {
		return out.Location, nil
	}
	return fmt.Sprintf("s3://%s/%s", s.Bucket, key), nil
}
