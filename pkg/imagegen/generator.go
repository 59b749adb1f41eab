// Package imagegen validates uploads, builds the safety-framed prompt and
// drives the image model.
package imagegen

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"strings"
	"time"

	"github.com/gabriel-vasile/mimetype"
	"go.uber.org/zap"

	_ "image/gif"
	_ "image/jpeg"

	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/webp"
)

const noImageMessage = "Model returned no image (blocked or empty response)."

// InputImage is a reference image forwarded to the model.
type InputImage struct {
	MIMEType string
	Data     []byte
}

// ModelRequest is everything the model receives for one generation.
type ModelRequest struct {
	SystemPrompt string
	Prompt       string
	Images       []InputImage
	AspectRatio  string
	Resolution   string
}

// Part is one piece of the model response. Data is empty for text parts.
type Part struct {
	MIMEType string
	Data     []byte
	Text     string
}

// Model is the external image model.
type Model interface {
	GenerateImage(ctx context.Context, req *ModelRequest) ([]Part, error)
}

// Observer receives the outcome and latency of each model call.
type Observer interface {
	ObserveModelCall(outcome string, d time.Duration)
}

type GenerateRequest struct {
	Images      [][]byte
	Prompt      string
	AspectRatio string
	Resolution  string
}

type Generator struct {
	model    Model
	observer Observer
	logger   *zap.Logger
}

type Option func(*Generator)

func WithObserver(o Observer) Option {
	return func(g *Generator) {
		g.observer = o
	}
}

func NewGenerator(model Model, logger *zap.Logger, opts ...Option) *Generator {
	if logger == nil {
		logger = zap.NewNop()
	}
	g := &Generator{
		model:  model,
		logger: logger.With(zap.String("component", "imagegen")),
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// Generate decodes the reference images, calls the model and converts the
// returned image into a PNG data URL. Model and decode failures all collapse
// into CodeNoImageReturned; the cause is only logged.
func (g *Generator) Generate(ctx context.Context, req GenerateRequest) (*GeneratedImage, error) {
	images := make([]InputImage, 0, len(req.Images))
	for i, data := range req.Images {
		if _, _, err := image.DecodeConfig(bytes.NewReader(data)); err != nil {
			return nil, NewError(CodeImageProcessingError,
				"ImageGenService Error Can not process Image bytes", fmt.Errorf("image %d: %w", i, err))
		}
		images = append(images, InputImage{
			MIMEType: mimetype.Detect(data).String(),
			Data:     data,
		})
	}

	modelReq := &ModelRequest{
		SystemPrompt: strings.Join(SafetySystemPrompt, "\n"),
		Prompt:       req.Prompt,
		Images:       images,
		AspectRatio:  ResolveAspectRatio(req.AspectRatio),
		Resolution:   ResolveResolution(req.Resolution),
	}

	start := time.Now()
	parts, err := g.model.GenerateImage(ctx, modelReq)
	if err != nil {
		g.observe("error", start)
		g.logger.Warn("model call failed", zap.Error(err))
		return nil, NewError(CodeNoImageReturned, noImageMessage, err)
	}

	// no early break: the last part carrying data wins
	var data []byte
	for _, p := range parts {
		if len(p.Data) > 0 {
			data = p.Data
		}
	}
	if data == nil {
		g.observe("empty", start)
		g.logger.Warn("model returned no image part", zap.Int("parts", len(parts)))
		return nil, NewError(CodeNoImageReturned, noImageMessage, nil)
	}

	out, err := EncodePNGDataURL(data)
	if err != nil {
		g.observe("undecodable", start)
		g.logger.Warn("model image could not be decoded", zap.Error(err))
		return nil, NewError(CodeNoImageReturned, noImageMessage, err)
	}
	g.observe("success", start)
	return out, nil
}

func (g *Generator) observe(outcome string, start time.Time) {
	if g.observer != nil {
		g.observer.ObserveModelCall(outcome, time.Since(start))
	}
}
