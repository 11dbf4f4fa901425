package blog

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	"image/jpeg"
	"image/png"
	"strings"

	"golang.org/x/image/draw"
)

const (
	maxAvatarWidth = 512
	jpegQuality    = 85
)

var errNotResizable = errors.New("avatar format not resizable")

// downscaleAvatar shrinks a JPEG or PNG wider than maxAvatarWidth, keeping
// the aspect ratio and the original encoding. Narrow images are returned
// unchanged. Other formats yield errNotResizable.
func downscaleAvatar(data []byte, contentType string) ([]byte, error) {
	ct := strings.ToLower(contentType)
	if ct != "image/jpeg" && ct != "image/jpg" && ct != "image/png" {
		return data, errNotResizable
	}

	cfg, _, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return data, fmt.Errorf("decode avatar: %w", err)
	}
	if cfg.Width <= maxAvatarWidth {
		return data, nil
	}

	img, format, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return data, fmt.Errorf("decode avatar: %w", err)
	}
	bounds := img.Bounds()
	w, h := bounds.Dx(), bounds.Dy()
	newH := h * maxAvatarWidth / w
	if newH < 1 {
		newH = 1
	}
	dst := image.NewRGBA(image.Rect(0, 0, maxAvatarWidth, newH))
	draw.CatmullRom.Scale(dst, dst.Bounds(), img, bounds, draw.Over, nil)

	var buf bytes.Buffer
	switch format {
	case "png":
		err = png.Encode(&buf, dst)
	default:
		err = jpeg.Encode(&buf, dst, &jpeg.Options{Quality: jpegQuality})
	}
	if err != nil {
		return data, fmt.Errorf("encode avatar: %w", err)
	}
	return buf.Bytes(), nil
}
