package storage

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"path"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/smithy-go"
	"github.com/google/uuid"

	"github.com/abhishek-bajpai1/athletecho/internal/config"
)

var (
	// ErrNotConfigured is returned when no bucket is configured.
	ErrNotConfigured = errors.New("storage: image uploads are not configured")
	// ErrPayloadRejected is returned for empty, oversized or non-image uploads.
	ErrPayloadRejected = errors.New("storage: payload rejected")
)

// Image is an upload candidate.
type Image struct {
	Filename string
	Body     io.Reader
}

var imageExtensions = map[string]string{
	"image/jpeg": ".jpg",
	"image/png":  ".png",
	"image/gif":  ".gif",
	"image/webp": ".webp",
	"image/bmp":  ".bmp",
}

// S3Store stores images in an S3-compatible bucket.
type S3Store struct {
	client    *s3.Client
	bucket    string
	prefix    string
	publicURL string
	maxBytes  int64
}

// NewS3Store creates a store for cfg. It returns ErrNotConfigured when no
// bucket is set.
func NewS3Store(ctx context.Context, cfg config.StorageConfig) (*S3Store, error) {
	bucket := strings.TrimSpace(cfg.Bucket)
	if bucket == "" {
		return nil, ErrNotConfigured
	}
	region := strings.TrimSpace(cfg.Region)
	if region == "" {
		region = "us-east-1"
	}

	loadOptions := []func(*awsconfig.LoadOptions) error{
		awsconfig.WithRegion(region),
	}
	if cfg.AccessKeyID != "" && cfg.SecretAccessKey != "" {
		loadOptions = append(loadOptions, awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.AccessKeyID, cfg.SecretAccessKey, ""),
		))
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, loadOptions...)
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}

	endpoint := strings.TrimRight(strings.TrimSpace(cfg.Endpoint), "/")
	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if endpoint != "" {
			o.BaseEndpoint = aws.String(endpoint)
		}
		o.UsePathStyle = cfg.UsePathStyle
	})

	maxBytes := cfg.MaxImageBytes
	if maxBytes <= 0 {
		maxBytes = 10 << 20
	}

	return &S3Store{
		client:    client,
		bucket:    bucket,
		prefix:    strings.Trim(cfg.Prefix, "/"),
		publicURL: publicBaseURL(cfg, bucket, region, endpoint),
		maxBytes:  maxBytes,
	}, nil
}

func publicBaseURL(cfg config.StorageConfig, bucket, region, endpoint string) string {
	switch {
	case cfg.PublicBaseURL != "":
		return strings.TrimRight(cfg.PublicBaseURL, "/")
	case endpoint != "":
		return endpoint + "/" + bucket
	default:
		return fmt.Sprintf("https://%s.s3.%s.amazonaws.com", bucket, region)
	}
}

// Upload stores img under folder and returns its public URL.
func (s *S3Store) Upload(ctx context.Context, folder string, img *Image) (string, error) {
	data, contentType, err := ReadImage(img.Body, s.maxBytes)
	if err != nil {
		return "", err
	}

	key := s.objectKey(path.Join(folder, uuid.NewString()+imageExtensions[contentType]))
	input := &s3.PutObjectInput{
		Bucket:        &s.bucket,
		Key:           &key,
		Body:          bytes.NewReader(data),
		ContentLength: aws.Int64(int64(len(data))),
		ContentType:   aws.String(contentType),
	}
	if img.Filename != "" {
		input.Metadata = map[string]string{"original-name": path.Base(img.Filename)}
	}

	if _, err := s.client.PutObject(ctx, input); err != nil {
		var apiErr smithy.APIError
		if errors.As(err, &apiErr) {
			return "", fmt.Errorf("s3 put object (%s): %w", apiErr.ErrorCode(), err)
		}
		return "", fmt.Errorf("s3 put object: %w", err)
	}

	return s.publicURL + "/" + key, nil
}

func (s *S3Store) objectKey(name string) string {
	if s.prefix == "" {
		return name
	}
	return path.Join(s.prefix, name)
}

// ReadImage reads at most maxBytes from r and checks that the content is a
// supported image. It returns the data and its detected content type.
func ReadImage(r io.Reader, maxBytes int64) ([]byte, string, error) {
	if r == nil {
		return nil, "", fmt.Errorf("%w: empty body", ErrPayloadRejected)
	}
	data, err := io.ReadAll(io.LimitReader(r, maxBytes+1))
	if err != nil {
		return nil, "", fmt.Errorf("read image: %w", err)
	}
	if len(data) == 0 {
		return nil, "", fmt.Errorf("%w: empty body", ErrPayloadRejected)
	}
	if int64(len(data)) > maxBytes {
		return nil, "", fmt.Errorf("%w: larger than %d bytes", ErrPayloadRejected, maxBytes)
	}

	contentType := http.DetectContentType(data)
	if _, ok := imageExtensions[contentType]; !ok {
		return nil, "", fmt.Errorf("%w: unsupported content type %s", ErrPayloadRejected, contentType)
	}
	return data, contentType, nil
}
