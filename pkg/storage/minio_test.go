package storage

import (
	"context"
	"errors"
	"io"
	"regexp"
	"strings"
	"testing"

	"github.com/minio/minio-go/v7"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nedaZarei/Cloud_ImageProcessingService/ImageGeneration/config"
)

type putCall struct {
	bucket, object, contentType string
	metadata                    map[string]string
	body                        []byte
	size                        int64
}

type fakePutter struct {
	calls   []putCall
	objects map[string][]byte
	err     error
}

func (f *fakePutter) PutObject(_ context.Context, bucketName, objectName string, reader io.Reader, objectSize int64, opts minio.PutObjectOptions) (minio.UploadInfo, error) {
	if f.err != nil {
		return minio.UploadInfo{}, f.err
	}
	body, _ := io.ReadAll(reader)
	f.calls = append(f.calls, putCall{
		bucket:      bucketName,
		object:      objectName,
		contentType: opts.ContentType,
		metadata:    opts.UserMetadata,
		body:        body,
		size:        objectSize,
	})
	if f.objects == nil {
		f.objects = map[string][]byte{}
	}
	f.objects[objectName] = body
	return minio.UploadInfo{Bucket: bucketName, Key: objectName, Size: objectSize}, nil
}

var objectKeyPattern = regexp.MustCompile(`^\d{4}/\d{2}/\d{2}/[0-9a-f]{8}-[0-9a-f]{4}-[0-9a-f]{4}-[0-9a-f]{4}-[0-9a-f]{12}\.png$`)

func TestArchive_StorePNG(t *testing.T) {
	putter := &fakePutter{}
	a := newArchive(putter, config.Minio{Endpoint: "minio.local:9000", Bucket: "generated", Secure: true})
	a.newKey = func() string { return "2026/10/18/key.png" }

	url, err := a.StorePNG(context.Background(), "corr_abc", []byte("png-bytes"))
	require.NoError(t, err)

	assert.Equal(t, "https://minio.local:9000/generated/2026/10/18/key.png", url)
	require.Len(t, putter.calls, 1)
	call := putter.calls[0]
	assert.Equal(t, "generated", call.bucket)
	assert.Equal(t, "2026/10/18/key.png", call.object)
	assert.Equal(t, "image/png", call.contentType)
	assert.Equal(t, map[string]string{"correlation-id": "corr_abc"}, call.metadata)
	assert.Equal(t, int64(9), call.size)
	assert.Equal(t, []byte("png-bytes"), call.body)
}

func TestArchive_StorePNG_Insecure(t *testing.T) {
	a := newArchive(&fakePutter{}, config.Minio{Endpoint: "localhost:9000", Bucket: "b"})
	a.newKey = func() string { return "k.png" }

	url, err := a.StorePNG(context.Background(), "id", nil)
	require.NoError(t, err)
	assert.Equal(t, "http://localhost:9000/b/k.png", url)
}

func TestArchive_StorePNG_KeyIgnoresCorrelationID(t *testing.T) {
	putter := &fakePutter{}
	a := newArchive(putter, config.Minio{Endpoint: "localhost:9000", Bucket: "b"})

	first, err := a.StorePNG(context.Background(), "../victim/corr_x", []byte("first"))
	require.NoError(t, err)
	second, err := a.StorePNG(context.Background(), "../victim/corr_x", []byte("second"))
	require.NoError(t, err)

	assert.NotEqual(t, first, second)
	require.Len(t, putter.objects, 2)
	for key, body := range putter.objects {
		assert.Regexp(t, objectKeyPattern, key)
		assert.False(t, strings.Contains(key, ".."), key)
		assert.Contains(t, []string{"first", "second"}, string(body))
	}
}

func TestArchive_StorePNG_Error(t *testing.T) {
	a := newArchive(&fakePutter{err: errors.New("bucket missing")}, config.Minio{Endpoint: "x", Bucket: "b"})

	_, err := a.StorePNG(context.Background(), "id", []byte{1})
	assert.ErrorContains(t, err, "bucket missing")
}

func TestNewArchive(t *testing.T) {
	a, err := NewArchive(config.Minio{Endpoint: "localhost:9000", AccessKey: "ak", SecretKey: "sk", Bucket: "b"})
	require.NoError(t, err)
	assert.NotNil(t, a.client)
}
