package storage

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"time"

	"github.com/google/uuid"
	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"

	"github.com/nedaZarei/Cloud_ImageProcessingService/ImageGeneration/config"
)

type objectPutter interface {
	PutObject(ctx context.Context, bucketName, objectName string, reader io.Reader, objectSize int64, opts minio.PutObjectOptions) (minio.UploadInfo, error)
}

// Archive stores generated images in a MinIO bucket.
type Archive struct {
	client   objectPutter
	endpoint string
	bucket   string
	scheme   string
	newKey   func() string
}

// objectKey returns a server-issued, date-prefixed key.
func objectKey() string {
	return time.Now().UTC().Format("2006/01/02") + "/" + uuid.NewString() + ".png"
}

func NewArchive(cfg config.Minio) (*Archive, error) {
	client, err := minio.New(cfg.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
		Secure: cfg.Secure,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to initialize Minio client: %w", err)
	}
	return newArchive(client, cfg), nil
}

func newArchive(client objectPutter, cfg config.Minio) *Archive {
	scheme := "http"
	if cfg.Secure {
		scheme = "https"
	}
	return &Archive{client: client, endpoint: cfg.Endpoint, bucket: cfg.Bucket, scheme: scheme, newKey: objectKey}
}

// StorePNG uploads the image under a fresh key and returns its URL. The
// correlation id only travels as object metadata.
func (a *Archive) StorePNG(ctx context.Context, correlationID string, png []byte) (string, error) {
	objectName := a.newKey()
	_, err := a.client.PutObject(ctx, a.bucket, objectName, bytes.NewReader(png), int64(len(png)),
		minio.PutObjectOptions{
			ContentType:  "image/png",
			UserMetadata: map[string]string{"correlation-id": correlationID},
		})
	if err != nil {
		return "", fmt.Errorf("failed to upload image to Minio: %w", err)
	}
	return fmt.Sprintf("%s://%s/%s/%s", a.scheme, a.endpoint, a.bucket, objectName), nil
}
