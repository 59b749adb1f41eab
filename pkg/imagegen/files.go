package imagegen

import (
	"fmt"
	"io"
	"mime"
	"mime/multipart"
	"slices"
)

var AllowedContentTypes = []string{"image/jpeg", "image/png"}

// IsValidImageType accepts image/jpeg and image/png, with or without
// media-type parameters.
func IsValidImageType(contentType string) bool {
	if contentType == "" {
		return false
	}
	mediaType, _, err := mime.ParseMediaType(contentType)
	if err != nil {
		return false
	}
	return slices.Contains(AllowedContentTypes, mediaType)
}

// ValidateFiles returns the files in upload order and stops at the first one
// whose declared content type is not allowed.
func ValidateFiles(files []*multipart.FileHeader) ([]*multipart.FileHeader, error) {
	valid := make([]*multipart.FileHeader, 0, len(files))
	for _, f := range files {
		if f == nil {
			return nil, NewError(CodeInternalError, "Internal server error: nil file header", nil)
		}
		contentType := f.Header.Get("Content-Type")
		if !IsValidImageType(contentType) {
			return nil, NewError(CodeInvalidContentType,
				fmt.Sprintf("Invalid content type: %s not supported. allowed types are image/jpeg, image/png", contentType), nil)
		}
		valid = append(valid, f)
	}
	return valid, nil
}

// Limits bounds the upload. A zero field disables that check.
type Limits struct {
	MaxFiles     int
	MaxFileBytes int64
}

func (l Limits) Check(files []*multipart.FileHeader) error {
	if l.MaxFiles > 0 && len(files) > l.MaxFiles {
		return NewError(CodeTooManyFiles,
			fmt.Sprintf("Too many files: %d uploaded, at most %d allowed", len(files), l.MaxFiles), nil)
	}
	if l.MaxFileBytes > 0 {
		for _, f := range files {
			if f.Size > l.MaxFileBytes {
				return NewError(CodeFileTooLarge,
					fmt.Sprintf("File %s is too large: %d bytes, at most %d allowed", f.Filename, f.Size, l.MaxFileBytes), nil)
			}
		}
	}
	return nil
}

// ReadFiles loads every upload into memory, in order.
func ReadFiles(files []*multipart.FileHeader) ([][]byte, error) {
	out := make([][]byte, 0, len(files))
	for _, f := range files {
		data, err := readFile(f)
		if err != nil {
			return nil, NewError(CodeImageConversionError,
				"ImageGenService Error Can not convert uploaded images to bytes", err)
		}
		out = append(out, data)
	}
	return out, nil
}

func readFile(f *multipart.FileHeader) ([]byte, error) {
	src, err := f.Open()
	if err != nil {
		return nil, err
	}
	defer src.Close()

	return io.ReadAll(src)
}
