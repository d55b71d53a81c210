// Package storage uploads request and proposal images to S3-compatible
// object storage.
package storage

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/url"
	"strings"

	"github.com/gabriel-vasile/mimetype"
	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
	"github.com/orcamentox/orcamentox/internal/domain"
)

// objectPutter is the subset of *minio.Client used here.
type objectPutter interface {
	PutObject(ctx context.Context, bucketName, objectName string, reader io.Reader, objectSize int64, opts minio.PutObjectOptions) (minio.UploadInfo, error)
	BucketExists(ctx context.Context, bucketName string) (bool, error)
}

// BlobStore writes objects by path, replacing whatever was stored there.
type BlobStore struct {
	client        objectPutter
	publicBaseURL string
}

type Options struct {
	Endpoint      string
	AccessKey     string
	SecretKey     string
	UseSSL        bool
	PublicBaseURL string
}

func NewBlobStore(opts Options) (*BlobStore, error) {
	endpoint := strings.TrimSpace(opts.Endpoint)
	if endpoint == "" {
		return nil, fmt.Errorf("blob endpoint is required")
	}

	client, err := minio.New(endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(opts.AccessKey, opts.SecretKey, ""),
		Secure: opts.UseSSL,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create blob client: %w", err)
	}

	publicBaseURL := strings.TrimSpace(opts.PublicBaseURL)
	if publicBaseURL == "" {
		scheme := "http"
		if opts.UseSSL {
			scheme = "https"
		}
		publicBaseURL = scheme + "://" + endpoint
	}

	return newBlobStore(client, publicBaseURL)
}

func newBlobStore(client objectPutter, publicBaseURL string) (*BlobStore, error) {
	if client == nil {
		return nil, fmt.Errorf("blob client is required")
	}
	base, err := url.Parse(strings.TrimRight(strings.TrimSpace(publicBaseURL), "/"))
	if err != nil || base.Scheme == "" || base.Host == "" {
		return nil, fmt.Errorf("invalid public base url %q", publicBaseURL)
	}

	return &BlobStore{
		client:        client,
		publicBaseURL: base.String(),
	}, nil
}

// Upload stores data under bucket/path and returns its public URL. An empty
// contentType is sniffed from the data.
func (s *BlobStore) Upload(ctx context.Context, bucket string, path string, data []byte, contentType string) (string, error) {
	bucket = strings.TrimSpace(bucket)
	objectPath, err := cleanPath(path)
	if err != nil {
		return "", err
	}
	if bucket == "" {
		return "", fmt.Errorf("%w: bucket is required", domain.ErrValidation)
	}
	if len(data) == 0 {
		return "", fmt.Errorf("%w: upload is empty", domain.ErrValidation)
	}
	if strings.TrimSpace(contentType) == "" {
		contentType = DetectContentType(data)
	}

	_, err = s.client.PutObject(
		ctx,
		bucket,
		objectPath,
		bytes.NewReader(data),
		int64(len(data)),
		minio.PutObjectOptions{
			ContentType: contentType,
		},
	)
	if err != nil {
		return "", fmt.Errorf("%w: failed to upload %s/%s: %w", domain.ErrGateway, bucket, objectPath, err)
	}

	return s.PublicURL(bucket, objectPath), nil
}

// PublicURL is stable for a given bucket and path.
func (s *BlobStore) PublicURL(bucket string, path string) string {
	objectPath, _ := cleanPath(path)
	segments := strings.Split(objectPath, "/")
	for i, segment := range segments {
		segments[i] = url.PathEscape(segment)
	}
	return fmt.Sprintf("%s/%s/%s", s.publicBaseURL, url.PathEscape(strings.TrimSpace(bucket)), strings.Join(segments, "/"))
}

// Ping reports whether the bucket is reachable.
func (s *BlobStore) Ping(ctx context.Context, bucket string) error {
	exists, err := s.client.BucketExists(ctx, bucket)
	if err != nil {
		return fmt.Errorf("%w: blob store unreachable: %w", domain.ErrGateway, err)
	}
	if !exists {
		return fmt.Errorf("%w: bucket %s does not exist", domain.ErrGateway, bucket)
	}
	return nil
}

// BucketCheck binds Ping to one bucket for use as a readiness check.
func (s *BlobStore) BucketCheck(bucket string) func(context.Context) error {
	return func(ctx context.Context) error {
		return s.Ping(ctx, bucket)
	}
}

// DetectContentType sniffs the MIME type from the first bytes of data.
func DetectContentType(data []byte) string {
	return mimetype.Detect(data).String()
}

func cleanPath(path string) (string, error) {
	path = strings.Trim(strings.TrimSpace(path), "/")
	if path == "" {
		return "", fmt.Errorf("%w: object path is required", domain.ErrValidation)
	}
	for _, segment := range strings.Split(path, "/") {
		if segment == "" || segment == "." || segment == ".." {
			return "", fmt.Errorf("%w: invalid object path %q", domain.ErrValidation, path)
		}
	}
	return path, nil
}
