package tools

import (
	"context"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/lydakis/stability-mcp/internal/stability"
)

func upscaleFastTool() mcp.Tool {
	return mcp.NewTool("upscale-fast",
		mcp.WithDescription("Upscale an image 4x with the fast upscaler."),
		mcp.WithString("image", mcp.Required(), mcp.Description("Base64 source image.")),
		mcp.WithString("output_format", mcp.Description("Image format."), mcp.Enum("png", "jpeg", "webp")),
	)
}

func (c *Catalog) upscaleFast(ctx context.Context, args map[string]any) (*mcp.CallToolResult, error) {
	image, err := requireImage(args, "image")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	format := optString(args, "output_format", "png")
	img, err := c.call(ctx, func(ctx context.Context, key string) (*stability.Image, error) {
		return c.client.UpscaleFast(ctx, key, image, format)
	})
	if err != nil {
		return nil, err
	}
	return imageResult(img), nil
}

func upscaleConservativeTool() mcp.Tool {
	return mcp.NewTool("upscale-conservative",
		mcp.WithDescription("Upscale an image to 4 megapixels, guided by a prompt, with minimal alterations."),
		mcp.WithString("image", mcp.Required(), mcp.Description("Base64 source image.")),
		mcp.WithString("prompt", mcp.Required(), mcp.Description("What the image depicts.")),
		mcp.WithString("negative_prompt", mcp.Description("What to avoid introducing.")),
		mcp.WithNumber("creativity", mcp.Description("Latitude for detail invention (0.2-0.5).")),
		mcp.WithNumber("seed", mcp.Description("Randomness seed; 0 means random.")),
		mcp.WithString("output_format", mcp.Description("Image format."), mcp.Enum("png", "jpeg", "webp")),
	)
}

func (c *Catalog) upscaleConservative(ctx context.Context, args map[string]any) (*mcp.CallToolResult, error) {
	image, err := requireImage(args, "image")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	prompt, err := requireString(args, "prompt")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	p := stability.UpscaleParams{
		Image:          image,
		Prompt:         prompt,
		NegativePrompt: optString(args, "negative_prompt", ""),
		Creativity:     optFloat(args, "creativity", 0),
		Seed:           optInt(args, "seed", 0),
		OutputFormat:   optString(args, "output_format", "png"),
	}

	img, err := c.call(ctx, func(ctx context.Context, key string) (*stability.Image, error) {
		return c.client.UpscaleConservative(ctx, key, p)
	})
	if err != nil {
		return nil, err
	}
	return imageResult(img), nil
}
