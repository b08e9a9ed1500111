package tools

import (
	"context"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/lydakis/stability-mcp/internal/stability"
)

func controlSketchTool() mcp.Tool {
	return mcp.NewTool("control-sketch",
		mcp.WithDescription("Generate an image guided by a sketch or rough drawing."),
		mcp.WithString("image", mcp.Required(), mcp.Description("Base64 sketch image.")),
		mcp.WithString("prompt", mcp.Required(), mcp.Description("What to generate.")),
		mcp.WithString("negative_prompt", mcp.Description("What to avoid in the image.")),
		mcp.WithNumber("control_strength", mcp.Description("How closely to follow the sketch (0-1).")),
		mcp.WithNumber("seed", mcp.Description("Randomness seed; 0 means random.")),
		mcp.WithString("output_format", mcp.Description("Image format."), mcp.Enum("png", "jpeg", "webp")),
	)
}

func (c *Catalog) controlSketch(ctx context.Context, args map[string]any) (*mcp.CallToolResult, error) {
	return c.controlCall(ctx, args, c.client.ControlSketch)
}

func controlStructureTool() mcp.Tool {
	return mcp.NewTool("control-structure",
		mcp.WithDescription("Generate an image preserving the structure of the input image."),
		mcp.WithString("image", mcp.Required(), mcp.Description("Base64 structure reference image.")),
		mcp.WithString("prompt", mcp.Required(), mcp.Description("What to generate.")),
		mcp.WithString("negative_prompt", mcp.Description("What to avoid in the image.")),
		mcp.WithNumber("control_strength", mcp.Description("How closely to follow the structure (0-1).")),
		mcp.WithNumber("seed", mcp.Description("Randomness seed; 0 means random.")),
		mcp.WithString("output_format", mcp.Description("Image format."), mcp.Enum("png", "jpeg", "webp")),
	)
}

func (c *Catalog) controlStructure(ctx context.Context, args map[string]any) (*mcp.CallToolResult, error) {
	return c.controlCall(ctx, args, c.client.ControlStructure)
}

// controlCall is the shared sketch/structure handler body; the two tools
// differ only in the endpoint they hit.
func (c *Catalog) controlCall(ctx context.Context, args map[string]any, endpoint func(context.Context, string, stability.ControlParams) (*stability.Image, error)) (*mcp.CallToolResult, error) {
	image, err := requireImage(args, "image")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	prompt, err := requireString(args, "prompt")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	p := stability.ControlParams{
		Image:           image,
		Prompt:          prompt,
		NegativePrompt:  optString(args, "negative_prompt", ""),
		ControlStrength: optFloat(args, "control_strength", 0),
		Seed:            optInt(args, "seed", 0),
		OutputFormat:    optString(args, "output_format", "png"),
	}

	img, err := c.call(ctx, func(ctx context.Context, key string) (*stability.Image, error) {
		return endpoint(ctx, key, p)
	})
	if err != nil {
		return nil, err
	}
	return imageResult(img), nil
}

func controlStyleTool() mcp.Tool {
	return mcp.NewTool("control-style",
		mcp.WithDescription("Generate an image in the artistic style of a reference image."),
		mcp.WithString("image", mcp.Required(), mcp.Description("Base64 style reference image.")),
		mcp.WithString("prompt", mcp.Required(), mcp.Description("What to generate.")),
		mcp.WithString("negative_prompt", mcp.Description("What to avoid in the image.")),
		mcp.WithString("aspect_ratio", mcp.Description("Output aspect ratio."), mcp.Enum(aspectRatios...)),
		mcp.WithNumber("fidelity", mcp.Description("How closely to match the reference style (0-1).")),
		mcp.WithNumber("seed", mcp.Description("Randomness seed; 0 means random.")),
		mcp.WithString("output_format", mcp.Description("Image format."), mcp.Enum("png", "jpeg", "webp")),
	)
}

func (c *Catalog) controlStyle(ctx context.Context, args map[string]any) (*mcp.CallToolResult, error) {
	image, err := requireImage(args, "image")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	prompt, err := requireString(args, "prompt")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	p := stability.StyleParams{
		Image:          image,
		Prompt:         prompt,
		NegativePrompt: optString(args, "negative_prompt", ""),
		AspectRatio:    optString(args, "aspect_ratio", ""),
		Fidelity:       optFloat(args, "fidelity", 0),
		Seed:           optInt(args, "seed", 0),
		OutputFormat:   optString(args, "output_format", "png"),
	}

	img, err := c.call(ctx, func(ctx context.Context, key string) (*stability.Image, error) {
		return c.client.ControlStyle(ctx, key, p)
	})
	if err != nil {
		return nil, err
	}
	return imageResult(img), nil
}
