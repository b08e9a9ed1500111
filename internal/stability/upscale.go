package stability

import "context"

// UpscaleFast upscales an image 4x with the fast upscaler.
func (c *Client) UpscaleFast(ctx context.Context, key string, image []byte, outputFormat string) (*Image, error) {
	fields := map[string]string{"output_format": outputFormat}
	files := []filePart{{field: "image", name: "image", data: image}}
	return c.postMultipart(ctx, key, "/v2beta/stable-image/upscale/fast", fields, files)
}

// UpscaleParams are the conservative upscaler parameters.
type UpscaleParams struct {
	Image          []byte
	Prompt         string
	NegativePrompt string
	Seed           int64
	OutputFormat   string
	Creativity     float64
}

// UpscaleConservative upscales an image to 4 megapixels, guided by a prompt.
func (c *Client) UpscaleConservative(ctx context.Context, key string, p UpscaleParams) (*Image, error) {
	fields := map[string]string{
		"prompt":          p.Prompt,
		"negative_prompt": p.NegativePrompt,
		"seed":            formatSeed(p.Seed),
		"output_format":   p.OutputFormat,
		"creativity":      formatFloat(p.Creativity),
	}
	files := []filePart{{field: "image", name: "image", data: p.Image}}
	return c.postMultipart(ctx, key, "/v2beta/stable-image/upscale/conservative", fields, files)
}
