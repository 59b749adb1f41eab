package service

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/nedaZarei/Cloud_ImageProcessingService/ImageGeneration/pkg/events"
	"github.com/nedaZarei/Cloud_ImageProcessingService/ImageGeneration/pkg/imagegen"
	"github.com/nedaZarei/Cloud_ImageProcessingService/ImageGeneration/pkg/models"
)

// outcome collects what one POST /images-gen produced once the API version
// was accepted.
type outcome struct {
	correlationID string
	code          imagegen.Code
	prompt        string
	aspectRatio   string
	resolution    string
	fileCount     int
	email         string
	image         *imagegen.GeneratedImage
	start         time.Time
	duration      time.Duration
}

func (o *outcome) status() models.TaskStatus {
	if o.code == imagegen.CodeSuccess {
		return models.TaskCompleted
	}
	return models.TaskFailed
}

const defaultPostProcessTimeout = 30 * time.Second

// dispatch records the outcome and hands it to finish in a tracked goroutine.
// The pipeline context outlives the request but carries its own deadline.
func (s *Service) dispatch(ctx context.Context, o *outcome, logger *zap.Logger) {
	o.duration = time.Since(o.start)
	s.metrics.RecordGeneration(string(o.code), o.fileCount)

	timeout := s.cfg.Server.PostProcessTimeout
	if timeout <= 0 {
		timeout = defaultPostProcessTimeout
	}
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), timeout)

	s.background.Add(1)
	go func() {
		defer s.background.Done()
		defer cancel()
		s.finish(ctx, o, logger)
	}()
}

// waitPostProcessing blocks until every dispatched pipeline has returned.
func (s *Service) waitPostProcessing() {
	s.background.Wait()
}

// finish runs archive, ledger, event and email in that order. Every step is
// optional and its failure is only logged.
func (s *Service) finish(ctx context.Context, o *outcome, logger *zap.Logger) {
	var imageURL string
	if o.image != nil && s.archive != nil {
		url, err := s.archive.StorePNG(ctx, o.correlationID, o.image.PNG)
		if err != nil {
			s.stepFailed(logger, "archive", err)
		} else {
			imageURL = url
		}
	}

	record := &models.Request{
		CorrelationID: o.correlationID,
		Status:        o.status(),
		Code:          string(o.code),
		Prompt:        o.prompt,
		AspectRatio:   o.aspectRatio,
		Resolution:    o.resolution,
		FileCount:     o.fileCount,
		ImageURL:      imageURL,
		DurationMS:    o.duration.Milliseconds(),
	}
	if o.image != nil {
		record.Width = o.image.Size.Width
		record.Height = o.image.Size.Height
	}

	if s.RequestDatabase != nil {
		if _, err := s.RequestDatabase.CreateRequest(ctx, record); err != nil {
			s.stepFailed(logger, "ledger", err)
		}
	}

	if s.publisher != nil {
		err := s.publisher.Publish(ctx, events.GenerationEvent{
			CorrelationID: record.CorrelationID,
			Status:        string(record.Status),
			Code:          record.Code,
			ImageURL:      record.ImageURL,
			Width:         record.Width,
			Height:        record.Height,
			FileCount:     record.FileCount,
			DurationMS:    record.DurationMS,
			OccurredAt:    time.Now().UTC(),
		})
		if err != nil {
			s.stepFailed(logger, "event", err)
		}
	}

	if s.notifier != nil && o.email != "" && imageURL != "" {
		if err := s.notifier.ImageReady(ctx, o.email, o.correlationID, imageURL); err != nil {
			s.stepFailed(logger, "email", err)
		}
	}
}

func (s *Service) stepFailed(logger *zap.Logger, step string, err error) {
	s.metrics.RecordPostProcessingFailure(step)
	logger.Warn("post-processing step failed", zap.String("step", step), zap.Error(err))
}
