package tools

import (
	"context"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/lydakis/stability-mcp/internal/stability"
)

var aspectRatios = []string{"1:1", "16:9", "21:9", "2:3", "3:2", "4:5", "5:4", "9:16", "9:21"}

var stylePresets = []string{
	"3d-model", "analog-film", "anime", "cinematic", "comic-book",
	"digital-art", "enhance", "fantasy-art", "isometric", "line-art",
	"low-poly", "modeling-compound", "neon-punk", "origami",
	"photographic", "pixel-art", "tile-texture",
}

func generateCoreTool() mcp.Tool {
	return mcp.NewTool("generate-core",
		mcp.WithDescription("Generate an image from a text prompt with Stable Image Core."),
		mcp.WithString("prompt", mcp.Required(), mcp.Description("What to generate.")),
		mcp.WithString("negative_prompt", mcp.Description("What to avoid in the image.")),
		mcp.WithString("aspect_ratio", mcp.Description("Output aspect ratio."), mcp.Enum(aspectRatios...)),
		mcp.WithNumber("seed", mcp.Description("Randomness seed; 0 means random.")),
		mcp.WithString("output_format", mcp.Description("Image format."), mcp.Enum("png", "jpeg", "webp")),
		mcp.WithString("style_preset", mcp.Description("Style preset to apply."), mcp.Enum(stylePresets...)),
	)
}

func (c *Catalog) generateCore(ctx context.Context, args map[string]any) (*mcp.CallToolResult, error) {
	prompt, err := requireString(args, "prompt")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	p := stability.GenerateParams{
		Prompt:         prompt,
		NegativePrompt: optString(args, "negative_prompt", ""),
		AspectRatio:    optString(args, "aspect_ratio", ""),
		Seed:           optInt(args, "seed", 0),
		OutputFormat:   optString(args, "output_format", "png"),
		StylePreset:    optString(args, "style_preset", ""),
	}

	img, err := c.call(ctx, func(ctx context.Context, key string) (*stability.Image, error) {
		return c.client.GenerateCore(ctx, key, p)
	})
	if err != nil {
		return nil, err
	}
	return imageResult(img), nil
}

func generateUltraTool() mcp.Tool {
	return mcp.NewTool("generate-ultra",
		mcp.WithDescription("Generate an image with Stable Image Ultra, optionally guided by an input image."),
		mcp.WithString("prompt", mcp.Required(), mcp.Description("What to generate.")),
		mcp.WithString("negative_prompt", mcp.Description("What to avoid in the image.")),
		mcp.WithString("aspect_ratio", mcp.Description("Output aspect ratio."), mcp.Enum(aspectRatios...)),
		mcp.WithString("image", mcp.Description("Optional base64 init image for image-to-image generation.")),
		mcp.WithNumber("strength", mcp.Description("How strongly the init image influences the result (0-1). Required with image.")),
		mcp.WithNumber("seed", mcp.Description("Randomness seed; 0 means random.")),
		mcp.WithString("output_format", mcp.Description("Image format."), mcp.Enum("png", "jpeg", "webp")),
	)
}

func (c *Catalog) generateUltra(ctx context.Context, args map[string]any) (*mcp.CallToolResult, error) {
	prompt, err := requireString(args, "prompt")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	initImage, err := optImage(args, "image")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	p := stability.UltraParams{
		GenerateParams: stability.GenerateParams{
			Prompt:         prompt,
			NegativePrompt: optString(args, "negative_prompt", ""),
			AspectRatio:    optString(args, "aspect_ratio", ""),
			Seed:           optInt(args, "seed", 0),
			OutputFormat:   optString(args, "output_format", "png"),
		},
		Image:    initImage,
		Strength: optFloat(args, "strength", 0),
	}

	img, err := c.call(ctx, func(ctx context.Context, key string) (*stability.Image, error) {
		return c.client.GenerateUltra(ctx, key, p)
	})
	if err != nil {
		return nil, err
	}
	return imageResult(img), nil
}

func generateSD3Tool() mcp.Tool {
	return mcp.NewTool("generate-sd3",
		mcp.WithDescription("Generate an image with a Stable Diffusion 3.5 model."),
		mcp.WithString("prompt", mcp.Required(), mcp.Description("What to generate.")),
		mcp.WithString("model", mcp.Description("SD3 model variant."),
			mcp.Enum("sd3.5-large", "sd3.5-large-turbo", "sd3.5-medium")),
		mcp.WithString("mode", mcp.Description("Generation mode."), mcp.Enum("text-to-image", "image-to-image")),
		mcp.WithString("image", mcp.Description("Base64 init image; required for image-to-image mode.")),
		mcp.WithNumber("strength", mcp.Description("Init image influence (0-1) for image-to-image mode.")),
		mcp.WithString("negative_prompt", mcp.Description("What to avoid in the image.")),
		mcp.WithString("aspect_ratio", mcp.Description("Output aspect ratio (text-to-image only)."), mcp.Enum(aspectRatios...)),
		mcp.WithNumber("cfg_scale", mcp.Description("How strictly the model follows the prompt (1-10).")),
		mcp.WithNumber("seed", mcp.Description("Randomness seed; 0 means random.")),
		mcp.WithString("output_format", mcp.Description("Image format."), mcp.Enum("png", "jpeg", "webp")),
	)
}

func (c *Catalog) generateSD3(ctx context.Context, args map[string]any) (*mcp.CallToolResult, error) {
	prompt, err := requireString(args, "prompt")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	mode := optString(args, "mode", "text-to-image")
	initImage, err := optImage(args, "image")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	if mode == "image-to-image" && len(initImage) == 0 {
		return mcp.NewToolResultError("image: required for image-to-image mode"), nil
	}

	p := stability.SD3Params{
		GenerateParams: stability.GenerateParams{
			Prompt:         prompt,
			NegativePrompt: optString(args, "negative_prompt", ""),
			AspectRatio:    optString(args, "aspect_ratio", ""),
			Seed:           optInt(args, "seed", 0),
			OutputFormat:   optString(args, "output_format", "png"),
		},
		Model:    optString(args, "model", "sd3.5-large"),
		Mode:     mode,
		Image:    initImage,
		Strength: optFloat(args, "strength", 0),
		CfgScale: optFloat(args, "cfg_scale", 0),
	}

	img, err := c.call(ctx, func(ctx context.Context, key string) (*stability.Image, error) {
		return c.client.GenerateSD3(ctx, key, p)
	})
	if err != nil {
		return nil, err
	}
	return imageResult(img), nil
}
