package imagegen

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIsValidImageType(t *testing.T) {
	tests := []struct {
		contentType string
		want        bool
	}{
		{"image/jpeg", true},
		{"image/png", true},
		{"image/png; charset=binary", true},
		{"IMAGE/PNG", true},
		{"image/gif", false},
		{"application/pdf", false},
		{"text/plain", false},
		{"", false},
		{"not a media type;;", false},
	}
	for _, tt := range tests {
		t.Run(tt.contentType, func(t *testing.T) {
			assert.Equal(t, tt.want, IsValidImageType(tt.contentType))
		})
	}
}

func TestValidateFiles(t *testing.T) {
	t.Run("all valid keeps order", func(t *testing.T) {
		files := fileHeaders(t,
			testFile{name: "a.png", contentType: "image/png", data: pngBytes(t, 2, 2)},
			testFile{name: "b.jpg", contentType: "image/jpeg", data: jpegBytes(t, 2, 2)},
		)
		valid, err := ValidateFiles(files)
		require.NoError(t, err)
		require.Len(t, valid, 2)
		assert.Equal(t, "a.png", valid[0].Filename)
		assert.Equal(t, "b.jpg", valid[1].Filename)
	})

	t.Run("first invalid file fails the set", func(t *testing.T) {
		files := fileHeaders(t,
			testFile{name: "a.png", contentType: "image/png", data: pngBytes(t, 2, 2)},
			testFile{name: "doc.pdf", contentType: "application/pdf", data: []byte("%PDF")},
			testFile{name: "c.gif", contentType: "image/gif", data: []byte("GIF89a")},
		)
		valid, err := ValidateFiles(files)
		assert.Nil(t, valid)

		genErr, ok := AsError(err)
		require.True(t, ok)
		assert.Equal(t, CodeInvalidContentType, genErr.Code)
		assert.Contains(t, genErr.Message, "application/pdf")
		assert.NotContains(t, genErr.Message, "image/gif")
		assert.Equal(t, http.StatusUnsupportedMediaType, StatusFor(genErr.Code))
	})

	t.Run("no files", func(t *testing.T) {
		valid, err := ValidateFiles(nil)
		require.NoError(t, err)
		assert.Empty(t, valid)
	})
}

func TestLimits_Check(t *testing.T) {
	files := fileHeaders(t,
		testFile{name: "a.png", contentType: "image/png", data: make([]byte, 100)},
		testFile{name: "b.png", contentType: "image/png", data: make([]byte, 10)},
	)

	assert.NoError(t, Limits{}.Check(files))
	assert.NoError(t, Limits{MaxFiles: 2, MaxFileBytes: 100}.Check(files))

	err := Limits{MaxFiles: 1}.Check(files)
	genErr, ok := AsError(err)
	require.True(t, ok)
	assert.Equal(t, CodeTooManyFiles, genErr.Code)
	assert.Equal(t, http.StatusBadRequest, StatusFor(genErr.Code))

	err = Limits{MaxFileBytes: 50}.Check(files)
	genErr, ok = AsError(err)
	require.True(t, ok)
	assert.Equal(t, CodeFileTooLarge, genErr.Code)
	assert.Contains(t, genErr.Message, "a.png")
	assert.Equal(t, http.StatusRequestEntityTooLarge, StatusFor(genErr.Code))
}

func TestReadFiles(t *testing.T) {
	first := pngBytes(t, 3, 3)
	second := jpegBytes(t, 4, 4)
	files := fileHeaders(t,
		testFile{name: "a.png", contentType: "image/png", data: first},
		testFile{name: "b.jpg", contentType: "image/jpeg", data: second},
	)

	got, err := ReadFiles(files)
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, first, got[0])
	assert.Equal(t, second, got[1])
}
