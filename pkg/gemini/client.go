// Package gemini adapts the Google Gen AI SDK to imagegen.Model.
package gemini

import (
	"context"
	"fmt"
	"time"

	"google.golang.org/genai"

	"github.com/nedaZarei/Cloud_ImageProcessingService/ImageGeneration/config"
	"github.com/nedaZarei/Cloud_ImageProcessingService/ImageGeneration/pkg/imagegen"
)

const DefaultModel = "gemini-3-pro-image-preview"

type Client struct {
	client  *genai.Client
	model   string
	timeout time.Duration
}

var _ imagegen.Model = (*Client)(nil)

// NewClient builds the process-wide client. It does not contact the API.
func NewClient(ctx context.Context, cfg config.Gemini) (*Client, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("gemini api key is not configured")
	}
	cc := &genai.ClientConfig{
		APIKey:  cfg.APIKey,
		Backend: genai.BackendGeminiAPI,
	}
	if cfg.BaseURL != "" {
		cc.HTTPOptions = genai.HTTPOptions{BaseURL: cfg.BaseURL}
	}
	client, err := genai.NewClient(ctx, cc)
	if err != nil {
		return nil, fmt.Errorf("failed to create genai client: %w", err)
	}

	model := cfg.Model
	if model == "" {
		model = DefaultModel
	}
	return &Client{client: client, model: model, timeout: cfg.Timeout}, nil
}

// GenerateImage sends the safety prompt, the final prompt and the reference
// images as a single user turn and returns the parts of the first candidate.
func (c *Client) GenerateImage(ctx context.Context, req *imagegen.ModelRequest) ([]imagegen.Part, error) {
	if c.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}

	parts := make([]*genai.Part, 0, len(req.Images)+2)
	parts = append(parts, genai.NewPartFromText(req.SystemPrompt))
	if req.Prompt != "" {
		parts = append(parts, genai.NewPartFromText(req.Prompt))
	}
	for _, img := range req.Images {
		parts = append(parts, genai.NewPartFromBytes(img.Data, img.MIMEType))
	}
	contents := []*genai.Content{genai.NewContentFromParts(parts, genai.RoleUser)}

	resp, err := c.client.Models.GenerateContent(ctx, c.model, contents, &genai.GenerateContentConfig{
		ImageConfig: &genai.ImageConfig{
			AspectRatio: req.AspectRatio,
			ImageSize:   req.Resolution,
		},
	})
	if err != nil {
		return nil, fmt.Errorf("gemini generate content: %w", err)
	}

	if len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
		return nil, nil
	}

	out := make([]imagegen.Part, 0, len(resp.Candidates[0].Content.Parts))
	for _, p := range resp.Candidates[0].Content.Parts {
		if p == nil {
			continue
		}
		part := imagegen.Part{Text: p.Text}
		if p.InlineData != nil {
			part.MIMEType = p.InlineData.MIMEType
			part.Data = p.InlineData.Data
		}
		out = append(out, part)
	}
	return out, nil
}
