package service

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	"image/color"
	"image/png"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/textproto"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/nedaZarei/Cloud_ImageProcessingService/ImageGeneration/config"
	"github.com/nedaZarei/Cloud_ImageProcessingService/ImageGeneration/pkg/db"
	"github.com/nedaZarei/Cloud_ImageProcessingService/ImageGeneration/pkg/events"
	"github.com/nedaZarei/Cloud_ImageProcessingService/ImageGeneration/pkg/imagegen"
	"github.com/nedaZarei/Cloud_ImageProcessingService/ImageGeneration/pkg/models"
)

func testConfig() *config.Config {
	return &config.Config{
		Server: config.Server{
			ExposeInternalErrors: true,
			CORSAllowOrigins:     []string{"*"},
		},
		Upload: config.Upload{MaxFileSizeMB: 10, MaxFiles: 5, EnforceLimits: true},
	}
}

func pngBytes(t *testing.T, w, h int) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	img.Set(w-1, h-1, color.RGBA{G: 200, A: 255})
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

type fakeModel struct {
	mu    sync.Mutex
	parts []imagegen.Part
	err   error
	got   *imagegen.ModelRequest
	calls int
}

func (m *fakeModel) GenerateImage(_ context.Context, req *imagegen.ModelRequest) ([]imagegen.Part, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls++
	m.got = req
	return m.parts, m.err
}

type fakeLedger struct {
	mu      sync.Mutex
	records []*models.Request
	err     error
}

func (l *fakeLedger) CreateRequest(_ context.Context, req *models.Request) (int, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.err != nil {
		return 0, l.err
	}
	l.records = append(l.records, req)
	return len(l.records), nil
}

func (l *fakeLedger) GetRequestByCorrelationID(_ context.Context, correlationID string) (*models.Request, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.err != nil {
		return nil, l.err
	}
	for i := len(l.records) - 1; i >= 0; i-- {
		if l.records[i].CorrelationID == correlationID {
			return l.records[i], nil
		}
	}
	return nil, db.ErrNotFound
}

type archivedObject struct {
	correlationID string
	png           []byte
}

// fakeArchive issues its own keys like the MinIO archive does.
type fakeArchive struct {
	mu     sync.Mutex
	stored map[string]archivedObject
	err    error
}

func (a *fakeArchive) StorePNG(_ context.Context, correlationID string, png []byte) (string, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.err != nil {
		return "", a.err
	}
	if a.stored == nil {
		a.stored = map[string]archivedObject{}
	}
	key := fmt.Sprintf("obj-%d.png", len(a.stored)+1)
	a.stored[key] = archivedObject{correlationID: correlationID, png: png}
	return "https://minio.test/images/" + key, nil
}

type fakePublisher struct {
	mu     sync.Mutex
	events []events.GenerationEvent
}

func (p *fakePublisher) Publish(_ context.Context, ev events.GenerationEvent) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, ev)
	return nil
}

// blockingPublisher holds every Publish until release is closed.
type blockingPublisher struct {
	release chan struct{}
	done    chan error
}

func (p *blockingPublisher) Publish(ctx context.Context, _ events.GenerationEvent) error {
	<-p.release
	_, hasDeadline := ctx.Deadline()
	if !hasDeadline {
		p.done <- errors.New("publish context has no deadline")
		return nil
	}
	p.done <- ctx.Err()
	return nil
}

type fakeNotifier struct {
	mu   sync.Mutex
	sent []string
	err  error
}

func (n *fakeNotifier) ImageReady(_ context.Context, to, correlationID, imageURL string) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.err != nil {
		return n.err
	}
	n.sent = append(n.sent, to+"|"+correlationID+"|"+imageURL)
	return nil
}

var errBoom = errors.New("boom")

type upload struct {
	field       string
	name        string
	contentType string
	data        []byte
}

func multipartBody(t *testing.T, fields map[string]string, files ...upload) (*bytes.Buffer, string) {
	t.Helper()
	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	for k, v := range fields {
		require.NoError(t, mw.WriteField(k, v))
	}
	for _, f := range files {
		field := f.field
		if field == "" {
			field = "files"
		}
		h := make(textproto.MIMEHeader)
		h.Set("Content-Disposition", `form-data; name="`+field+`"; filename="`+f.name+`"`)
		h.Set("Content-Type", f.contentType)
		part, err := mw.CreatePart(h)
		require.NoError(t, err)
		_, err = part.Write(f.data)
		require.NoError(t, err)
	}
	require.NoError(t, mw.Close())
	return &body, mw.FormDataContentType()
}

func doRequest(s *Service, req *http.Request) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, req)
	return rec
}

func newUploadRequest(t *testing.T, headers map[string]string, fields map[string]string, files ...upload) *http.Request {
	t.Helper()
	body, contentType := multipartBody(t, fields, files...)
	req := httptest.NewRequest(http.MethodPost, "/images-gen", body)
	req.Header.Set("Content-Type", contentType)
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	return req
}
