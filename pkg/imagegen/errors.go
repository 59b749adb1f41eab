package imagegen

import (
	"errors"
	"fmt"
	"net/http"
)

// Code identifies the kind of a generation failure. It is surfaced verbatim in
// the JSON body of error responses.
type Code string

const (
	CodeSuccess              Code = "SUCCESS"
	CodeInvalidFieldValue    Code = "INVALID_FIELD_VALUE"
	CodeInvalidContentType   Code = "INVALID_CONTENT_TYPE"
	CodeImageProcessingError Code = "IMAGE_PROCESSING_ERROR"
	CodeImageConversionError Code = "IMAGE_CONVERSION_ERROR"
	CodeNoImageReturned      Code = "NO_IMAGE_RETURNED"
	CodeInternalError        Code = "INTERNAL_ERROR"
	CodeTooManyFiles         Code = "TOO_MANY_FILES"
	CodeFileTooLarge         Code = "FILE_TOO_LARGE"
)

// Error is the result type of every failing operation in this package.
type Error struct {
	Code    Code
	Message string
	Cause   error
}

func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

func (e *Error) Unwrap() error {
	return e.Cause
}

// NewError builds a tagged error for code.
func NewError(code Code, message string, cause error) *Error {
	return &Error{Code: code, Message: message, Cause: cause}
}

// AsError reports whether err carries an *Error and returns it.
func AsError(err error) (*Error, bool) {
	var genErr *Error
	if errors.As(err, &genErr) {
		return genErr, true
	}
	return nil, false
}

// StatusFor maps a code to the HTTP status the upload endpoint answers with.
func StatusFor(code Code) int {
	switch code {
	case CodeSuccess:
		return http.StatusOK
	case CodeInvalidFieldValue, CodeTooManyFiles:
		return http.StatusBadRequest
	case CodeInvalidContentType:
		return http.StatusUnsupportedMediaType
	case CodeFileTooLarge:
		return http.StatusRequestEntityTooLarge
	case CodeImageProcessingError, CodeImageConversionError, CodeNoImageReturned, CodeInternalError:
		return http.StatusInternalServerError
	default:
		return http.StatusInternalServerError
	}
}
