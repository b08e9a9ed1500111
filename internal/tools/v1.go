package tools

import (
	"context"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/lydakis/stability-mcp/internal/stability"
)

func generateV1Tool() mcp.Tool {
	return mcp.NewTool("generate-v1",
		mcp.WithDescription("Generate an image on a legacy v1 engine (SDXL and earlier). Engine, dimensions, steps, cfg_scale, and sampler default from server configuration."),
		mcp.WithString("prompt", mcp.Required(), mcp.Description("What to generate.")),
		mcp.WithString("negative_prompt", mcp.Description("What to avoid in the image.")),
		mcp.WithString("engine", mcp.Description("Engine id override, e.g. stable-diffusion-xl-1024-v1-0.")),
		mcp.WithNumber("width", mcp.Description("Output width in pixels; must be a multiple of 64.")),
		mcp.WithNumber("height", mcp.Description("Output height in pixels; must be a multiple of 64.")),
		mcp.WithNumber("steps", mcp.Description("Diffusion steps (10-50).")),
		mcp.WithNumber("cfg_scale", mcp.Description("How strictly the model follows the prompt (0-35).")),
		mcp.WithString("sampler", mcp.Description("Sampler override, e.g. K_DPMPP_2M.")),
		mcp.WithNumber("seed", mcp.Description("Randomness seed; 0 means random.")),
	)
}

func (c *Catalog) generateV1(ctx context.Context, args map[string]any) (*mcp.CallToolResult, error) {
	prompt, err := requireString(args, "prompt")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	p := stability.V1Params{
		Engine:         optString(args, "engine", c.engine.Engine),
		Prompt:         prompt,
		NegativePrompt: optString(args, "negative_prompt", ""),
		Width:          int(optInt(args, "width", int64(c.engine.Width))),
		Height:         int(optInt(args, "height", int64(c.engine.Height))),
		Steps:          int(optInt(args, "steps", int64(c.engine.Steps))),
		CfgScale:       optFloat(args, "cfg_scale", c.engine.CfgScale),
		Sampler:        optString(args, "sampler", c.engine.Sampler),
		Seed:           optInt(args, "seed", 0),
	}

	img, err := c.call(ctx, func(ctx context.Context, key string) (*stability.Image, error) {
		return c.client.GenerateV1(ctx, key, p)
	})
	if err != nil {
		return nil, err
	}
	return imageResult(img), nil
}
