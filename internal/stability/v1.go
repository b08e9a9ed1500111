package stability

import "context"

// V1Params are the legacy v1 text-to-image parameters. Engine and the
// numeric defaults come from configuration (STABILITY_ENGINE and friends).
type V1Params struct {
	Engine         string
	Prompt         string
	NegativePrompt string
	Width          int
	Height         int
	Steps          int
	CfgScale       float64
	Sampler        string
	Seed           int64
}

type v1TextPrompt struct {
	Text   string  `json:"text"`
	Weight float64 `json:"weight"`
}

type v1Request struct {
	TextPrompts []v1TextPrompt `json:"text_prompts"`
	Width       int            `json:"width"`
	Height      int            `json:"height"`
	Steps       int            `json:"steps"`
	CfgScale    float64        `json:"cfg_scale"`
	Samples     int            `json:"samples"`
	Sampler     string         `json:"sampler,omitempty"`
	Seed        int64          `json:"seed,omitempty"`
}

// GenerateV1 generates an image on a legacy v1 engine. Unlike the v2beta
// routes, this endpoint takes a JSON body and returns PNG bytes directly
// when called with Accept: image/png.
func (c *Client) GenerateV1(ctx context.Context, key string, p V1Params) (*Image, error) {
	prompts := []v1TextPrompt{{Text: p.Prompt, Weight: 1}}
	if p.NegativePrompt != "" {
		prompts = append(prompts, v1TextPrompt{Text: p.NegativePrompt, Weight: -1})
	}

	body := v1Request{
		TextPrompts: prompts,
		Width:       p.Width,
		Height:      p.Height,
		Steps:       p.Steps,
		CfgScale:    p.CfgScale,
		Samples:     1,
		Sampler:     p.Sampler,
		Seed:        p.Seed,
	}
	return c.postJSON(ctx, key, "/v1/generation/"+p.Engine+"/text-to-image", body)
}
