package services

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/google/uuid"
	"github.com/juju/errors"
	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
)

// MaxImageSize bounds stylist photos and product images.
const MaxImageSize = 5 << 20

const presignExpiry = time.Hour

var imageExtensions = map[string]string{
	"image/jpeg": ".jpg",
	"image/png":  ".png",
	"image/webp": ".webp",
}

// ImageUpload is an image received from a multipart form.
type ImageUpload struct {
	Reader      io.Reader
	Size        int64
	ContentType string
}

// Validate checks size and content type and returns the file extension to
// store the image under.
func (u *ImageUpload) Validate() (string, error) {
	if u == nil || u.Reader == nil || u.Size <= 0 {
		return "", errors.NotValidf("empty image")
	}
	if u.Size > MaxImageSize {
		return "", errors.NotValidf("image larger than %d bytes", MaxImageSize)
	}
	ext, ok := imageExtensions[u.ContentType]
	if !ok {
		return "", errors.NotValidf("content type %q", u.ContentType)
	}
	return ext, nil
}

// ObjectKey lays objects out as <tenant>/<kind>/<owner>/<random><ext>.
func ObjectKey(tenantID uuid.UUID, kind string, ownerID uuid.UUID, ext string) string {
	return fmt.Sprintf("%s/%s/%s/%s%s", tenantID, kind, ownerID, uuid.NewString(), ext)
}

// MinioService stores media objects in a single bucket.
type MinioService interface {
	Upload(ctx context.Context, key string, reader io.Reader, size int64, contentType string) error
	PresignedURL(ctx context.Context, key string) (string, error)
	Delete(ctx context.Context, key string) error
	EnsureBucket(ctx context.Context) error
	Ping(ctx context.Context) error
}

type minioClient struct {
	client *minio.Client
	bucket string
}

func NewMinioService(endpoint, accessKey, secretKey string, useSSL bool, bucket string) (MinioService, error) {
	client, err := minio.New(endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(accessKey, secretKey, ""),
		Secure: useSSL,
	})
	if err != nil {
		return nil, errors.Annotate(err, "create minio client")
	}
	return &minioClient{client: client, bucket: bucket}, nil
}

func (m *minioClient) Upload(ctx context.Context, key string, reader io.Reader, size int64, contentType string) error {
	_, err := m.client.PutObject(ctx, m.bucket, key, reader, size, minio.PutObjectOptions{
		ContentType: contentType,
	})
	return errors.Annotatef(err, "upload %s", key)
}

func (m *minioClient) PresignedURL(ctx context.Context, key string) (string, error) {
	u, err := m.client.PresignedGetObject(ctx, m.bucket, key, presignExpiry, nil)
	if err != nil {
		return "", errors.Annotatef(err, "presign %s", key)
	}
	return u.String(), nil
}

func (m *minioClient) Delete(ctx context.Context, key string) error {
	return errors.Annotatef(m.client.RemoveObject(ctx, m.bucket, key, minio.RemoveObjectOptions{}), "delete %s", key)
}

func (m *minioClient) EnsureBucket(ctx context.Context) error {
	found, err := m.client.BucketExists(ctx, m.bucket)
	if err != nil {
		return errors.Annotatef(err, "check bucket %s", m.bucket)
	}
	if !found {
		return errors.Annotatef(m.client.MakeBucket(ctx, m.bucket, minio.MakeBucketOptions{}), "create bucket %s", m.bucket)
	}
	return nil
}

func (m *minioClient) Ping(ctx context.Context) error {
	_, err := m.client.BucketExists(ctx, m.bucket)
	return err
}
