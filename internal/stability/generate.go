package stability

import "context"

// GenerateParams are the common text-to-image parameters of the v2beta
// generate endpoints.
type GenerateParams struct {
	Prompt         string
	NegativePrompt string
	AspectRatio    string
	Seed           int64
	OutputFormat   string
	StylePreset    string
}

func (p GenerateParams) fields() map[string]string {
	return map[string]string{
		"prompt":          p.Prompt,
		"negative_prompt": p.NegativePrompt,
		"aspect_ratio":    p.AspectRatio,
		"seed":            formatSeed(p.Seed),
		"output_format":   p.OutputFormat,
		"style_preset":    p.StylePreset,
	}
}

// GenerateCore generates an image with Stable Image Core.
func (c *Client) GenerateCore(ctx context.Context, key string, p GenerateParams) (*Image, error) {
	return c.postMultipart(ctx, key, "/v2beta/stable-image/generate/core", p.fields(), nil)
}

// UltraParams extends GenerateParams with an optional init image for
// image-to-image generation.
type UltraParams struct {
	GenerateParams
	Image    []byte
	Strength float64
}

// GenerateUltra generates an image with Stable Image Ultra.
func (c *Client) GenerateUltra(ctx context.Context, key string, p UltraParams) (*Image, error) {
	fields := p.GenerateParams.fields()
	var files []filePart
	if len(p.Image) > 0 {
		fields["strength"] = formatFloat(p.Strength)
		files = append(files, filePart{field: "image", name: "image", data: p.Image})
	}
	return c.postMultipart(ctx, key, "/v2beta/stable-image/generate/ultra", fields, files)
}

// SD3Params are the Stable Diffusion 3.x generation parameters.
type SD3Params struct {
	GenerateParams
	Model    string // sd3.5-large, sd3.5-large-turbo, sd3.5-medium
	Mode     string // text-to-image | image-to-image
	Image    []byte
	Strength float64
	CfgScale float64
}

// GenerateSD3 generates an image with a Stable Diffusion 3.x model.
func (c *Client) GenerateSD3(ctx context.Context, key string, p SD3Params) (*Image, error) {
	fields := p.GenerateParams.fields()
	fields["model"] = p.Model
	fields["mode"] = p.Mode
	fields["cfg_scale"] = formatFloat(p.CfgScale)

	var files []filePart
	if len(p.Image) > 0 {
		fields["strength"] = formatFloat(p.Strength)
		files = append(files, filePart{field: "image", name: "image", data: p.Image})
	}
	return c.postMultipart(ctx, key, "/v2beta/stable-image/generate/sd3", fields, files)
}
