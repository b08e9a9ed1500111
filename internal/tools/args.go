package tools

import (
	"bytes"
	"encoding/base64"
	"fmt"
	"image"
	"math"

	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"

	"github.com/disintegration/imaging"
)

// maxInputPixels is the v2beta input image budget (9,437,184 pixels).
// Larger inputs are downscaled before upload instead of letting the API
// reject them. Variable so tests can exercise the resize path cheaply.
var maxInputPixels = 9437184

func requireString(args map[string]any, field string) (string, error) {
	v, ok := args[field]
	if !ok {
		return "", fmt.Errorf("%s: required", field)
	}
	s, ok := v.(string)
	if !ok || s == "" {
		return "", fmt.Errorf("%s: must be a non-empty string", field)
	}
	return s, nil
}

func optString(args map[string]any, field, def string) string {
	if v, ok := args[field].(string); ok && v != "" {
		return v
	}
	return def
}

// optInt reads a JSON number argument. Arguments arrive as float64 after
// generic unmarshaling.
func optInt(args map[string]any, field string, def int64) int64 {
	switch v := args[field].(type) {
	case float64:
		return int64(v)
	case int64:
		return v
	case int:
		return int64(v)
	default:
		return def
	}
}

func optFloat(args map[string]any, field string, def float64) float64 {
	switch v := args[field].(type) {
	case float64:
		return v
	case int:
		return float64(v)
	default:
		return def
	}
}

// requireImage decodes a base64 image argument and fits it within the
// upload pixel budget.
func requireImage(args map[string]any, field string) ([]byte, error) {
	encoded, err := requireString(args, field)
	if err != nil {
		return nil, err
	}
	return decodeImage(field, encoded)
}

// optImage decodes an optional base64 image argument; absent fields
// return nil bytes.
func optImage(args map[string]any, field string) ([]byte, error) {
	encoded, ok := args[field].(string)
	if !ok || encoded == "" {
		return nil, nil
	}
	return decodeImage(field, encoded)
}

func decodeImage(field, encoded string) ([]byte, error) {
	data, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil {
		return nil, fmt.Errorf("%s: invalid base64: %w", field, err)
	}
	return fitWithinLimit(field, data)
}

// fitWithinLimit downscales images above the API pixel budget, preserving
// aspect ratio, and re-encodes as PNG. Images within budget pass through
// untouched.
func fitWithinLimit(field string, data []byte) ([]byte, error) {
	cfg, _, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("%s: not a decodable image: %w", field, err)
	}
	if cfg.Width*cfg.Height <= maxInputPixels {
		return data, nil
	}

	src, err := imaging.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("%s: decoding image: %w", field, err)
	}

	scale := math.Sqrt(float64(maxInputPixels) / float64(cfg.Width*cfg.Height))
	width := int(float64(cfg.Width) * scale)
	if width < 1 {
		width = 1
	}
	dst := imaging.Resize(src, width, 0, imaging.Lanczos)

	var buf bytes.Buffer
	if err := imaging.Encode(&buf, dst, imaging.PNG); err != nil {
		return nil, fmt.Errorf("%s: re-encoding image: %w", field, err)
	}
	return buf.Bytes(), nil
}
