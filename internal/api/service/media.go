package service

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	"io"

	_ "image/jpeg"
	_ "image/png"

	_ "golang.org/x/image/webp"
)

// MaxImageBytes caps uploaded images at 9 MiB.
const MaxImageBytes = 9 << 20

var (
	ErrUnsupportedImage = errors.New("unsupported_image_type")
	ErrImageTooLarge    = errors.New("image_too_large")
)

// imageExt maps an accepted image content type to its file extension.
func imageExt(contentType string) (string, error) {
	switch contentType {
	case "image/jpeg":
		return ".jpg", nil
	case "image/png":
		return ".png", nil
	case "image/webp":
		return ".webp", nil
	default:
		return "", fmt.Errorf("%w: %s", ErrUnsupportedImage, contentType)
	}
}

// readImage buffers an upload so its dimensions can be decoded before the
// bytes go to the media store. The HTTP layer caps request bodies already;
// the limit here holds for any other caller.
func readImage(r io.Reader) ([]byte, error) {
	data, err := io.ReadAll(io.LimitReader(r, MaxImageBytes+1))
	if err != nil {
		return nil, err
	}
	if len(data) > MaxImageBytes {
		return nil, ErrImageTooLarge
	}
	return data, nil
}

// imageDims decodes the pixel dimensions from the image header. Dimensions
// are display metadata, so undecodable data yields 0x0 rather than an
// error; the decoder sniffs the real format and ignores the declared
// content type.
func imageDims(data []byte) (width, height int) {
	cfg, _, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return 0, 0
	}
	return cfg.Width, cfg.Height
}
