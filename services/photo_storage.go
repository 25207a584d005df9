package services

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path"
	"strings"

	"research-registry-api/config"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/google/uuid"
)

var (
	ErrPhotoStorageDisabled = errors.New("photo storage is not configured")
	ErrUnsupportedPhotoType = errors.New("photo must be a jpeg, png, gif or webp image")
)

var photoExtensions = map[string]string{
	"image/jpeg": ".jpg",
	"image/png":  ".png",
	"image/gif":  ".gif",
	"image/webp": ".webp",
}

// ObjectPutter is the subset of the S3 client used for uploads.
type ObjectPutter interface {
	PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
}

// PhotoStorage uploads faculty photos and returns their public URL.
type PhotoStorage struct {
	client    ObjectPutter
	bucket    string
	publicURL string
}

func NewPhotoStorage(client ObjectPutter, bucket, publicURL string) *PhotoStorage {
	return &PhotoStorage{client: client, bucket: bucket, publicURL: strings.TrimRight(publicURL, "/")}
}

// NewPhotoStorageFromSettings returns nil when S3 is not configured.
func NewPhotoStorageFromSettings(ctx context.Context, s *config.Settings) (*PhotoStorage, error) {
	if s == nil || !s.S3Enabled() {
		return nil, nil
	}
	client, err := config.NewS3Client(ctx, s)
	if err != nil {
		return nil, err
	}
	publicURL := s.S3PublicURL
	if publicURL == "" {
		publicURL = strings.TrimRight(s.S3Endpoint, "/") + "/" + s.S3Bucket
	}
	return NewPhotoStorage(client, s.S3Bucket, publicURL), nil
}

// PhotoKey builds faculty-photos/<faculty slug>/<uuid><ext>.
func PhotoKey(facultySlug, contentType string) (string, error) {
	ext, ok := photoExtensions[strings.ToLower(strings.TrimSpace(contentType))]
	if !ok {
		return "", ErrUnsupportedPhotoType
	}
	return path.Join("faculty-photos", facultySlug, uuid.NewString()+ext), nil
}

func (p *PhotoStorage) Upload(ctx context.Context, facultySlug, contentType string, body io.Reader, size int64) (string, error) {
	if p == nil || p.client == nil {
		return "", ErrPhotoStorageDisabled
	}
	key, err := PhotoKey(facultySlug, contentType)
	if err != nil {
		return "", err
	}
	_, err = p.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:        aws.String(p.bucket),
		Key:           aws.String(key),
		Body:          body,
		ContentType:   aws.String(contentType),
		ContentLength: aws.Int64(size),
	})
	if err != nil {
		return "", fmt.Errorf("upload photo: %w", err)
	}
	return fmt.Sprintf("%s/%s", p.publicURL, key), nil
}
