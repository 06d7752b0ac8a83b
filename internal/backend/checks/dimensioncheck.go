package checks

import (
	"bytes"
	"fmt"
	"image"
)

// DimensionCheck rejects raster images outside the configured pixel bounds.
// A zero bound is not enforced.
type DimensionCheck struct {
	name      string
	minWidth  int
	minHeight int
	maxWidth  int
	maxHeight int
}

func NewDimensionCheck(params map[string]any) (Check, error) {
	c := &DimensionCheck{name: "DimensionCheck"}
	var err error
	if c.minWidth, err = getNonNegativeIntParam(params, "minWidth", 0); err != nil {
		return nil, err
	}
	if c.minHeight, err = getNonNegativeIntParam(params, "minHeight", 0); err != nil {
		return nil, err
	}
	if c.maxWidth, err = getNonNegativeIntParam(params, "maxWidth", 0); err != nil {
		return nil, err
	}
	if c.maxHeight, err = getNonNegativeIntParam(params, "maxHeight", 0); err != nil {
		return nil, err
	}
	if c.maxWidth > 0 && c.minWidth > c.maxWidth {
		return nil, fmt.Errorf("minWidth %d exceeds maxWidth %d", c.minWidth, c.maxWidth)
	}
	if c.maxHeight > 0 && c.minHeight > c.maxHeight {
		return nil, fmt.Errorf("minHeight %d exceeds maxHeight %d", c.minHeight, c.maxHeight)
	}
	return c, nil
}

func (c *DimensionCheck) Name() string {
	return c.name
}

func (c *DimensionCheck) Run(imageData []byte) error {
	cfg, _, err := image.DecodeConfig(bytes.NewReader(imageData))
	if err != nil {
		return fmt.Errorf("cannot read image dimensions: %w", err)
	}

	switch {
	case cfg.Width < c.minWidth || cfg.Height < c.minHeight:
		return fmt.Errorf("image %dx%d is smaller than the minimum %dx%d", cfg.Width, cfg.Height, c.minWidth, c.minHeight)
	case c.maxWidth > 0 && cfg.Width > c.maxWidth:
		return fmt.Errorf("image width %d exceeds the maximum %d", cfg.Width, c.maxWidth)
	case c.maxHeight > 0 && cfg.Height > c.maxHeight:
		return fmt.Errorf("image height %d exceeds the maximum %d", cfg.Height, c.maxHeight)
	}
	return nil
}
