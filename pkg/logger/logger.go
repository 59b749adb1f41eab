package logger

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/nedaZarei/Cloud_ImageProcessingService/ImageGeneration/config"
)

// New builds a JSON production logger, or a console logger in development mode.
func New(cfg config.Log) (*zap.Logger, error) {
	zc := zap.NewProductionConfig()
	if cfg.Development {
		zc = zap.NewDevelopmentConfig()
	}

	if cfg.Level != "" {
		level, err := zap.ParseAtomicLevel(cfg.Level)
		if err != nil {
			return nil, fmt.Errorf("invalid log level %q: %w", cfg.Level, err)
		}
		zc.Level = level
	}

	return zc.Build()
}
