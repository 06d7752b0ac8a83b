package checks

import (
	"bytes"
	"fmt"
	"image"
	"log/slog"

	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"

	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"
)

// DefaultMaxPixels matches the decompression bomb limit of common imaging
// libraries: 1 GiB of 24-bit pixels.
const DefaultMaxPixels = 1024 * 1024 * 1024 / 4 / 3

// DecodeCheck verifies that uploaded bytes are a raster image one of the
// registered decoders understands. The header is read first so images whose
// pixel count exceeds maxPixels are rejected before any pixel is allocated.
type DecodeCheck struct {
	name      string
	maxPixels int
}

// NewDecodeCheck creates a decode check. maxPixels defaults to
// DefaultMaxPixels; zero disables the limit.
func NewDecodeCheck(params map[string]any) (Check, error) {
	maxPixels, err := getNonNegativeIntParam(params, "maxPixels", DefaultMaxPixels)
	if err != nil {
		return nil, err
	}

	return &DecodeCheck{
		name:      "DecodeCheck",
		maxPixels: maxPixels,
	}, nil
}

func (c *DecodeCheck) Name() string {
	return c.name
}

func (c *DecodeCheck) Run(imageData []byte) error {
	if len(imageData) == 0 {
		return fmt.Errorf("cannot identify image file: empty upload")
	}

	cfg, format, err := image.DecodeConfig(bytes.NewReader(imageData))
	if err != nil {
		return fmt.Errorf("cannot identify image file: %w", err)
	}
	if cfg.Width <= 0 || cfg.Height <= 0 {
		return fmt.Errorf("image has no pixels (%dx%d)", cfg.Width, cfg.Height)
	}
	if c.maxPixels > 0 && int64(cfg.Width)*int64(cfg.Height) > int64(c.maxPixels) {
		return fmt.Errorf("image size (%dx%d) exceeds limit of %d pixels", cfg.Width, cfg.Height, c.maxPixels)
	}

	// A full decode catches truncated or corrupt pixel data the header hides
	if _, _, err := image.Decode(bytes.NewReader(imageData)); err != nil {
		return fmt.Errorf("cannot identify image file: %w", err)
	}

	slog.Debug("DecodeCheck: image verified",
		"format", format,
		"width", cfg.Width,
		"height", cfg.Height,
		"input_size_bytes", len(imageData))
	return nil
}
