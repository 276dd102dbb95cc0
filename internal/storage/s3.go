package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/feature/s3/manager"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/google/uuid"

	"github.com/movievault/backend/internal/config"
)

// MaxPosterBytes is the largest poster accepted for upload.
const MaxPosterBytes = 5 * 1024 * 1024

var (
	// ErrUnsupportedType indicates the poster content type is not an accepted image format.
	ErrUnsupportedType = errors.New("invalid file type, only JPEG, PNG, and WebP are allowed")
	// ErrTooLarge indicates the poster exceeds MaxPosterBytes.
	ErrTooLarge = errors.New("file size too large, maximum size is 5MB")
)

var allowedContentTypes = map[string]struct{}{
	"image/jpeg": {},
	"image/jpg":  {},
	"image/png":  {},
	"image/webp": {},
}

// File describes a poster pending upload. Size must reflect the full length
// of Body; it is checked before any bytes travel to the object store.
type File struct {
	Name        string
	ContentType string
	Size        int64
	Body        io.Reader
}

// objectClient is the slice of the S3 API the poster store depends on.
type objectClient interface {
	manager.UploadAPIClient
	DeleteObject(ctx context.Context, params *s3.DeleteObjectInput, optFns ...func(*s3.Options)) (*s3.DeleteObjectOutput, error)
}

// PosterStore uploads and deletes poster images in an S3 bucket, producing
// public URLs of the form https://<bucket>.s3.<region>.amazonaws.com/<key>.
type PosterStore struct {
	uploader *manager.Uploader
	client   objectClient
	bucket   string
	region   string
}

// NewPosterStore configures a poster store targeting the provided bucket.
// Bucket and region are validated here so a misconfigured deployment fails at
// startup rather than on the first upload.
func NewPosterStore(ctx context.Context, cfg config.ObjectStoreConfig) (*PosterStore, error) {
	if strings.TrimSpace(cfg.Bucket) == "" {
		return nil, fmt.Errorf("poster store: bucket is required")
	}
	if strings.TrimSpace(cfg.Region) == "" {
		return nil, fmt.Errorf("poster store: region is required")
	}

	loadOpts := []func(*awsconfig.LoadOptions) error{
		awsconfig.WithRegion(cfg.Region),
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, loadOpts...)
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}

	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if strings.TrimSpace(cfg.Endpoint) != "" {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
			o.UsePathStyle = true
		}
	})

	return newPosterStore(client, cfg.Bucket, cfg.Region), nil
}

func newPosterStore(client objectClient, bucket, region string) *PosterStore {
	uploader := manager.NewUploader(client, func(u *manager.Uploader) {
		u.PartSize = MaxPosterBytes
		u.LeavePartsOnError = false
	})

	return &PosterStore{
		uploader: uploader,
		client:   client,
		bucket:   bucket,
		region:   region,
	}
}

// Upload validates and stores a poster image, returning its public URL.
// Validation happens before the object store is contacted, so an oversized or
// mistyped file never results in a network call.
func (s *PosterStore) Upload(ctx context.Context, file File) (string, error) {
	if _, ok := allowedContentTypes[file.ContentType]; !ok {
		return "", ErrUnsupportedType
	}
	if file.Size > MaxPosterBytes {
		return "", ErrTooLarge
	}

	key := fmt.Sprintf("posters/%s-%s", uuid.NewString(), sanitizeName(file.Name))

	_, err := s.uploader.Upload(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(s.bucket),
		Key:         aws.String(key),
		Body:        file.Body,
		ContentType: aws.String(file.ContentType),
	})
	if err != nil {
		return "", fmt.Errorf("upload poster %s: %w", key, err)
	}

	return fmt.Sprintf("https://%s.s3.%s.amazonaws.com/%s", s.bucket, s.region, key), nil
}

// Delete removes a previously uploaded poster, best effort. Failures are
// logged and swallowed: a stale blob must never block the caller's primary
// operation. Empty and unparseable URLs are ignored.
func (s *PosterStore) Delete(ctx context.Context, fileURL string) {
	if fileURL == "" {
		return
	}

	key := s.extractKey(fileURL)
	if key == "" {
		slog.Warn("poster delete skipped, cannot derive key", "url", fileURL)
		return
	}

	_, err := s.client.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		slog.Warn("poster delete failed", "key", key, "error", err)
	}
}

// extractKey locates the bucket name segment within a public URL and returns
// everything after it.
func (s *PosterStore) extractKey(fileURL string) string {
	parts := strings.Split(fileURL, "/")
	for i, part := range parts {
		if strings.HasPrefix(part, s.bucket) {
			if i+1 < len(parts) {
				return strings.Join(parts[i+1:], "/")
			}
			return ""
		}
	}
	return ""
}

func sanitizeName(name string) string {
	name = strings.ReplaceAll(name, "/", "-")
	name = strings.ReplaceAll(name, " ", "_")
	if name == "" {
		name = "poster"
	}
	return name
}
