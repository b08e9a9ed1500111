package stability

import "context"

// EraseParams remove objects indicated by a mask.
type EraseParams struct {
	Image        []byte
	Mask         []byte
	GrowMask     int
	Seed         int64
	OutputFormat string
}

// Erase removes unwanted objects using a mask.
func (c *Client) Erase(ctx context.Context, key string, p EraseParams) (*Image, error) {
	fields := map[string]string{
		"grow_mask":     formatInt(p.GrowMask),
		"seed":          formatSeed(p.Seed),
		"output_format": p.OutputFormat,
	}
	files := []filePart{{field: "image", name: "image", data: p.Image}}
	if len(p.Mask) > 0 {
		files = append(files, filePart{field: "mask", name: "mask", data: p.Mask})
	}
	return c.postMultipart(ctx, key, "/v2beta/stable-image/edit/erase", fields, files)
}

// InpaintParams fill a masked region from a prompt.
type InpaintParams struct {
	Image          []byte
	Mask           []byte
	Prompt         string
	NegativePrompt string
	GrowMask       int
	Seed           int64
	OutputFormat   string
}

// Inpaint fills in a masked region of the image from a prompt.
func (c *Client) Inpaint(ctx context.Context, key string, p InpaintParams) (*Image, error) {
	fields := map[string]string{
		"prompt":          p.Prompt,
		"negative_prompt": p.NegativePrompt,
		"grow_mask":       formatInt(p.GrowMask),
		"seed":            formatSeed(p.Seed),
		"output_format":   p.OutputFormat,
	}
	files := []filePart{{field: "image", name: "image", data: p.Image}}
	if len(p.Mask) > 0 {
		files = append(files, filePart{field: "mask", name: "mask", data: p.Mask})
	}
	return c.postMultipart(ctx, key, "/v2beta/stable-image/edit/inpaint", fields, files)
}

// OutpaintParams extend the image canvas in one or more directions.
type OutpaintParams struct {
	Image        []byte
	Left         int
	Right        int
	Up           int
	Down         int
	Creativity   float64
	Prompt       string
	Seed         int64
	OutputFormat string
}

// Outpaint extends the image in the requested directions.
func (c *Client) Outpaint(ctx context.Context, key string, p OutpaintParams) (*Image, error) {
	fields := map[string]string{
		"left":          formatInt(p.Left),
		"right":         formatInt(p.Right),
		"up":            formatInt(p.Up),
		"down":          formatInt(p.Down),
		"creativity":    formatFloat(p.Creativity),
		"prompt":        p.Prompt,
		"seed":          formatSeed(p.Seed),
		"output_format": p.OutputFormat,
	}
	files := []filePart{{field: "image", name: "image", data: p.Image}}
	return c.postMultipart(ctx, key, "/v2beta/stable-image/edit/outpaint", fields, files)
}

// SearchReplaceParams locate an object by prompt and replace it.
type SearchReplaceParams struct {
	Image          []byte
	Prompt         string
	SearchPrompt   string
	NegativePrompt string
	Seed           int64
	OutputFormat   string
}

// SearchAndReplace replaces an object found via the search prompt.
func (c *Client) SearchAndReplace(ctx context.Context, key string, p SearchReplaceParams) (*Image, error) {
	fields := map[string]string{
		"prompt":          p.Prompt,
		"search_prompt":   p.SearchPrompt,
		"negative_prompt": p.NegativePrompt,
		"seed":            formatSeed(p.Seed),
		"output_format":   p.OutputFormat,
	}
	files := []filePart{{field: "image", name: "image", data: p.Image}}
	return c.postMultipart(ctx, key, "/v2beta/stable-image/edit/search-and-replace", fields, files)
}

// RemoveBackground segments the foreground and removes the background.
func (c *Client) RemoveBackground(ctx context.Context, key string, image []byte, outputFormat string) (*Image, error) {
	fields := map[string]string{"output_format": outputFormat}
	files := []filePart{{field: "image", name: "image", data: image}}
	return c.postMultipart(ctx, key, "/v2beta/stable-image/edit/remove-background", fields, files)
}
