package service

import (
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"go.uber.org/zap"

	"github.com/nedaZarei/Cloud_ImageProcessingService/ImageGeneration/pkg/metrics"
)

const (
	HeaderAPIVersion    = "x-api-version"
	HeaderCorrelationID = "x-correlation-id"
	HeaderResponseTime  = "x-response-time-seconds"
)

func formatElapsed(d time.Duration) string {
	return fmt.Sprintf("%.4f", d.Seconds())
}

// ResponseTime stamps every response with the seconds spent since the request
// entered the chain. The header is set right before the status line is
// written, so it also lands on responses produced by the error handler.
func ResponseTime() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			start := time.Now()
			res := c.Response()
			res.Before(func() {
				res.Header().Set(HeaderResponseTime, formatElapsed(time.Since(start)))
			})

			err := next(c)
			if !res.Committed {
				res.Header().Set(HeaderResponseTime, formatElapsed(time.Since(start)))
			}
			return err
		}
	}
}

// RequestLogger logs one line per request through zap.
func RequestLogger(logger *zap.Logger) echo.MiddlewareFunc {
	return middleware.RequestLoggerWithConfig(middleware.RequestLoggerConfig{
		LogMethod:   true,
		LogURI:      true,
		LogStatus:   true,
		LogLatency:  true,
		LogError:    true,
		HandleError: true,
		LogValuesFunc: func(c echo.Context, v middleware.RequestLoggerValues) error {
			fields := []zap.Field{
				zap.String("method", v.Method),
				zap.String("uri", v.URI),
				zap.Int("status", v.Status),
				zap.Duration("latency", v.Latency),
				zap.String("correlation_id", c.Response().Header().Get(HeaderCorrelationID)),
			}
			if v.Error != nil {
				logger.Error("request", append(fields, zap.Error(v.Error))...)
				return nil
			}
			logger.Info("request", fields...)
			return nil
		},
	})
}

// Metrics records request counts and latency labelled by route template.
func Metrics(collector *metrics.Collector) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			start := time.Now()
			err := next(c)

			status := c.Response().Status
			if err != nil {
				var he *echo.HTTPError
				if errors.As(err, &he) {
					status = he.Code
				} else {
					status = http.StatusInternalServerError
				}
			}
			path := c.Path()
			if path == "" {
				path = "unmatched"
			}
			collector.RecordHTTPRequest(c.Request().Method, path, status, time.Since(start))
			return err
		}
	}
}
