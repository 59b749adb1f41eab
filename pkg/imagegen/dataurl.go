package imagegen

import (
	"bytes"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"image"
	"image/png"
	"strings"
)

const DataURLPrefix = "data:image/png;base64,"

// Size is serialized as [width, height].
type Size struct {
	Width  int
	Height int
}

func (s Size) MarshalJSON() ([]byte, error) {
	return json.Marshal([2]int{s.Width, s.Height})
}

func (s *Size) UnmarshalJSON(b []byte) error {
	var wh [2]int
	if err := json.Unmarshal(b, &wh); err != nil {
		return err
	}
	s.Width, s.Height = wh[0], wh[1]
	return nil
}

type GeneratedImage struct {
	DataURL string
	Size    Size
	PNG     []byte
}

// EncodePNGDataURL decodes any registered image format and re-encodes it as PNG.
func EncodePNGDataURL(data []byte) (*GeneratedImage, error) {
	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("decode image: %w", err)
	}

	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return nil, fmt.Errorf("encode png: %w", err)
	}

	bounds := img.Bounds()
	return &GeneratedImage{
		DataURL: DataURLPrefix + base64.StdEncoding.EncodeToString(buf.Bytes()),
		Size:    Size{Width: bounds.Dx(), Height: bounds.Dy()},
		PNG:     buf.Bytes(),
	}, nil
}

// DecodeDataURL returns the PNG bytes of a data URL built by EncodePNGDataURL.
func DecodeDataURL(s string) ([]byte, error) {
	payload, ok := strings.CutPrefix(s, DataURLPrefix)
	if !ok {
		return nil, fmt.Errorf("not a png data url")
	}
	return base64.StdEncoding.DecodeString(payload)
}
