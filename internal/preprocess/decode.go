package preprocess

import (
	"bytes"
	"fmt"
	"image"
	_ "image/jpeg"
	_ "image/png"

	"github.com/gabriel-vasile/mimetype"

	"github.com/Brownie44l1/bloodcell-api/internal/model"
)

const (
	MimeJPEG = "image/jpeg"
	MimePNG  = "image/png"
)

// Decode sniffs data and decodes it as a JPEG or PNG image.
// Every failure wraps model.ErrDecode.
func Decode(data []byte) (image.Image, string, error) {
	if len(data) == 0 {
		return nil, "", fmt.Errorf("%w: empty input", model.ErrDecode)
	}

	detected := mimetype.Detect(data)
	if !detected.Is(MimeJPEG) && !detected.Is(MimePNG) {
		return nil, "", fmt.Errorf("%w: unsupported content type %s", model.ErrDecode, detected.String())
	}

	img, format, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, "", fmt.Errorf("%w: %v", model.ErrDecode, err)
	}
	return img, format, nil
}
