package service

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/nedaZarei/Cloud_ImageProcessingService/ImageGeneration/pkg/db"
	"github.com/nedaZarei/Cloud_ImageProcessingService/ImageGeneration/pkg/events"
	"github.com/nedaZarei/Cloud_ImageProcessingService/ImageGeneration/pkg/notify"
	"github.com/nedaZarei/Cloud_ImageProcessingService/ImageGeneration/pkg/storage"
)

// connectInfrastructure opens the optional ledger, archive, event and email
// clients. Anything injected through an Option is left untouched.
func (s *Service) connectInfrastructure(ctx context.Context) error {
	if s.RequestDatabase == nil && s.cfg.Postgres.Enabled() {
		dB, err := db.Open(ctx, s.cfg.Postgres)
		if err != nil {
			return fmt.Errorf("failed to connect to Postgres: %w", err)
		}
		s.closers = append(s.closers, dB.Close)
		s.RequestDatabase, err = db.NewRequestDatabase(s.cfg.Postgres.AutoCreate, dB)
		if err != nil {
			return fmt.Errorf("failed to initialize request database: %w", err)
		}
		s.logger.Info("connected to Postgres", zap.String("host", s.cfg.Postgres.Host))
	}

	if s.archive == nil && s.cfg.Minio.Enabled() {
		archive, err := storage.NewArchive(s.cfg.Minio)
		if err != nil {
			return err
		}
		s.archive = archive
		s.logger.Info("connected to Minio", zap.String("endpoint", s.cfg.Minio.Endpoint))
	}

	if s.publisher == nil && s.cfg.RabbitMQ.Enabled() {
		publisher, err := events.Dial(s.cfg.RabbitMQ.URL(), s.cfg.RabbitMQ.Queue)
		if err != nil {
			return err
		}
		s.closers = append(s.closers, publisher.Close)
		s.publisher = publisher
		s.logger.Info("connected to RabbitMQ", zap.String("queue", s.cfg.RabbitMQ.Queue))
	}

	if s.notifier == nil && s.cfg.Email.Enabled() {
		s.notifier = notify.NewMailer(s.cfg.Email)
		s.logger.Info("email notifications enabled")
	}
	return nil
}
