package service

import (
	"errors"
	"fmt"
	"mime/multipart"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/nedaZarei/Cloud_ImageProcessingService/ImageGeneration/pkg/db"
	"github.com/nedaZarei/Cloud_ImageProcessingService/ImageGeneration/pkg/imagegen"
)

const (
	supportedAPIVersion = "1"
	successMessage      = "Image generated successfully"
)

type generationResponse struct {
	Code          string         `json:"code"`
	Message       string         `json:"message,omitempty"`
	CorrelationID string         `json:"correlationId"`
	Image         string         `json:"image,omitempty"`
	Size          *imagegen.Size `json:"size,omitempty"`
}

type errorBody struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

type infoResponse struct {
	Message  string            `json:"message"`
	Version  string            `json:"version"`
	Endpoint map[string]string `json:"endpoint"`
}

func (s *Service) Info(c echo.Context) error {
	return c.JSON(http.StatusOK, infoResponse{
		Message: "Image Gen API",
		Version: "1.0.0",
		Endpoint: map[string]string{
			"upload": "POST /images-gen",
			"docs":   "/docs",
		},
	})
}

func (s *Service) Health(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]string{"status": "ok"})
}

// GenerateImage handles POST /images-gen.
func (s *Service) GenerateImage(c echo.Context) error {
	start := time.Now()
	req := c.Request()

	correlationID, ok := headerValue(req.Header, HeaderCorrelationID)
	if !ok {
		correlationID = s.newCorrelationID()
	}
	c.Response().Header().Set(HeaderCorrelationID, correlationID)

	apiVersion, present := headerValue(req.Header, HeaderAPIVersion)
	if apiVersion != supportedAPIVersion {
		message := fmt.Sprintf("Unsupported X-API-Version: %s", apiVersion)
		if !present {
			message = "Unsupported X-API-Version: missing x-api-version header"
		}
		s.metrics.RecordGeneration(string(imagegen.CodeInvalidFieldValue), 0)
		return c.JSON(http.StatusBadRequest, generationResponse{
			Code:          string(imagegen.CodeInvalidFieldValue),
			Message:       message,
			CorrelationID: correlationID,
		})
	}
	c.Response().Header().Set(HeaderAPIVersion, apiVersion)

	logger := s.logger.With(zap.String("correlation_id", correlationID))
	out := &outcome{
		correlationID: correlationID,
		aspectRatio:   imagegen.ResolveAspectRatio(c.FormValue("aspect_ratio")),
		resolution:    imagegen.ResolveResolution(c.FormValue("resolution")),
		email:         c.FormValue("email"),
		start:         start,
	}

	files, err := uploadedFiles(c)
	if err != nil {
		return s.fail(c, out, logger, err)
	}
	out.fileCount = len(files)

	valid, err := imagegen.ValidateFiles(files)
	if err != nil {
		return s.fail(c, out, logger, err)
	}
	if err := s.limits.Check(valid); err != nil {
		return s.fail(c, out, logger, err)
	}

	filesBytes, err := imagegen.ReadFiles(valid)
	if err != nil {
		return s.fail(c, out, logger, err)
	}

	out.prompt = s.prompts.Build(c.FormValue("prompt"), len(valid))

	image, err := s.generator.Generate(req.Context(), imagegen.GenerateRequest{
		Images:      filesBytes,
		Prompt:      out.prompt,
		AspectRatio: out.aspectRatio,
		Resolution:  out.resolution,
	})
	if err != nil {
		return s.fail(c, out, logger, err)
	}

	out.code = imagegen.CodeSuccess
	out.image = image
	err = c.JSON(http.StatusOK, generationResponse{
		Code:          string(imagegen.CodeSuccess),
		Message:       successMessage,
		CorrelationID: correlationID,
		Image:         image.DataURL,
		Size:          &image.Size,
	})
	s.dispatch(req.Context(), out, logger)
	return err
}

// fail maps err to its status and body. Anything that is not an
// *imagegen.Error becomes INTERNAL_ERROR.
func (s *Service) fail(c echo.Context, out *outcome, logger *zap.Logger, err error) error {
	status, body := s.errorResponse(err, out.correlationID)
	out.code = imagegen.Code(body.Code)

	if status >= http.StatusInternalServerError {
		logger.Error("image generation failed", zap.String("code", body.Code), zap.Error(err))
	} else {
		logger.Info("image generation rejected", zap.String("code", body.Code), zap.String("reason", body.Message))
	}
	jsonErr := c.JSON(status, body)
	s.dispatch(c.Request().Context(), out, logger)
	return jsonErr
}

func (s *Service) errorResponse(err error, correlationID string) (int, generationResponse) {
	if genErr, ok := imagegen.AsError(err); ok {
		return imagegen.StatusFor(genErr.Code), generationResponse{
			Code:          string(genErr.Code),
			Message:       genErr.Message,
			CorrelationID: correlationID,
		}
	}

	message := "Internal server error"
	if s.cfg.Server.ExposeInternalErrors {
		message = fmt.Sprintf("Internal server error: %v", err)
	}
	return http.StatusInternalServerError, generationResponse{
		Code:          string(imagegen.CodeInternalError),
		Message:       message,
		CorrelationID: correlationID,
	}
}

// GetRequestStatus returns the latest ledger entry for a correlation id.
func (s *Service) GetRequestStatus(c echo.Context) error {
	if s.RequestDatabase == nil {
		return c.JSON(http.StatusServiceUnavailable, errorBody{
			Code:    "LEDGER_DISABLED",
			Message: "request ledger is not configured",
		})
	}

	request, err := s.RequestDatabase.GetRequestByCorrelationID(c.Request().Context(), c.Param("correlationId"))
	if errors.Is(err, db.ErrNotFound) {
		return c.JSON(http.StatusNotFound, errorBody{
			Code:    "NOT_FOUND",
			Message: fmt.Sprintf("no request recorded for %s", c.Param("correlationId")),
		})
	}
	if err != nil {
		s.logger.Error("failed to read request ledger", zap.Error(err))
		return c.JSON(http.StatusInternalServerError, errorBody{
			Code:    string(imagegen.CodeInternalError),
			Message: "Internal server error",
		})
	}
	return c.JSON(http.StatusOK, request)
}

// uploadedFiles returns the uploads in the order they were sent, under either
// "files" or "files[]". Mixing both is rejected since multipart.Form keeps no
// order across field names. A non-multipart body simply carries no files.
func uploadedFiles(c echo.Context) ([]*multipart.FileHeader, error) {
	form, err := c.MultipartForm()
	if errors.Is(err, http.ErrNotMultipart) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to parse multipart form: %w", err)
	}
	plain, bracketed := form.File["files"], form.File["files[]"]
	if len(plain) > 0 && len(bracketed) > 0 {
		return nil, imagegen.NewError(imagegen.CodeInvalidFieldValue,
			"Uploads must use a single field name: files or files[]", nil)
	}
	if len(bracketed) > 0 {
		return bracketed, nil
	}
	return plain, nil
}

func headerValue(h http.Header, key string) (string, bool) {
	values := h.Values(key)
	if len(values) == 0 {
		return "", false
	}
	return values[0], true
}
