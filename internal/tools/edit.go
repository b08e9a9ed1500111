package tools

import (
	"context"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/lydakis/stability-mcp/internal/stability"
)

func eraseTool() mcp.Tool {
	return mcp.NewTool("erase",
		mcp.WithDescription("Remove unwanted objects from an image using a mask."),
		mcp.WithString("image", mcp.Required(), mcp.Description("Base64 source image.")),
		mcp.WithString("mask", mcp.Description("Base64 mask; white pixels are erased. Defaults to the image alpha channel.")),
		mcp.WithNumber("grow_mask", mcp.Description("Pixels to grow the mask edges by.")),
		mcp.WithNumber("seed", mcp.Description("Randomness seed; 0 means random.")),
		mcp.WithString("output_format", mcp.Description("Image format."), mcp.Enum("png", "jpeg", "webp")),
	)
}

func (c *Catalog) erase(ctx context.Context, args map[string]any) (*mcp.CallToolResult, error) {
	image, err := requireImage(args, "image")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	mask, err := optImage(args, "mask")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	p := stability.EraseParams{
		Image:        image,
		Mask:         mask,
		GrowMask:     int(optInt(args, "grow_mask", 0)),
		Seed:         optInt(args, "seed", 0),
		OutputFormat: optString(args, "output_format", "png"),
	}

	img, err := c.call(ctx, func(ctx context.Context, key string) (*stability.Image, error) {
		return c.client.Erase(ctx, key, p)
	})
	if err != nil {
		return nil, err
	}
	return imageResult(img), nil
}

func inpaintTool() mcp.Tool {
	return mcp.NewTool("inpaint",
		mcp.WithDescription("Fill in a masked region of an image from a prompt."),
		mcp.WithString("image", mcp.Required(), mcp.Description("Base64 source image.")),
		mcp.WithString("prompt", mcp.Required(), mcp.Description("What to paint into the masked region.")),
		mcp.WithString("mask", mcp.Description("Base64 mask; white pixels are repainted. Defaults to the image alpha channel.")),
		mcp.WithString("negative_prompt", mcp.Description("What to avoid in the repainted region.")),
		mcp.WithNumber("grow_mask", mcp.Description("Pixels to grow the mask edges by.")),
		mcp.WithNumber("seed", mcp.Description("Randomness seed; 0 means random.")),
		mcp.WithString("output_format", mcp.Description("Image format."), mcp.Enum("png", "jpeg", "webp")),
	)
}

func (c *Catalog) inpaint(ctx context.Context, args map[string]any) (*mcp.CallToolResult, error) {
	image, err := requireImage(args, "image")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	prompt, err := requireString(args, "prompt")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	mask, err := optImage(args, "mask")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	p := stability.InpaintParams{
		Image:          image,
		Mask:           mask,
		Prompt:         prompt,
		NegativePrompt: optString(args, "negative_prompt", ""),
		GrowMask:       int(optInt(args, "grow_mask", 0)),
		Seed:           optInt(args, "seed", 0),
		OutputFormat:   optString(args, "output_format", "png"),
	}

	img, err := c.call(ctx, func(ctx context.Context, key string) (*stability.Image, error) {
		return c.client.Inpaint(ctx, key, p)
	})
	if err != nil {
		return nil, err
	}
	return imageResult(img), nil
}

func outpaintTool() mcp.Tool {
	return mcp.NewTool("outpaint",
		mcp.WithDescription("Extend an image beyond its original canvas in any direction."),
		mcp.WithString("image", mcp.Required(), mcp.Description("Base64 source image.")),
		mcp.WithNumber("left", mcp.Description("Pixels to extend on the left.")),
		mcp.WithNumber("right", mcp.Description("Pixels to extend on the right.")),
		mcp.WithNumber("up", mcp.Description("Pixels to extend upward.")),
		mcp.WithNumber("down", mcp.Description("Pixels to extend downward.")),
		mcp.WithNumber("creativity", mcp.Description("How creative the fill may be (0-1).")),
		mcp.WithString("prompt", mcp.Description("Optional prompt guiding the extension.")),
		mcp.WithNumber("seed", mcp.Description("Randomness seed; 0 means random.")),
		mcp.WithString("output_format", mcp.Description("Image format."), mcp.Enum("png", "jpeg", "webp")),
	)
}

func (c *Catalog) outpaint(ctx context.Context, args map[string]any) (*mcp.CallToolResult, error) {
	image, err := requireImage(args, "image")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	p := stability.OutpaintParams{
		Image:        image,
		Left:         int(optInt(args, "left", 0)),
		Right:        int(optInt(args, "right", 0)),
		Up:           int(optInt(args, "up", 0)),
		Down:         int(optInt(args, "down", 0)),
		Creativity:   optFloat(args, "creativity", 0),
		Prompt:       optString(args, "prompt", ""),
		Seed:         optInt(args, "seed", 0),
		OutputFormat: optString(args, "output_format", "png"),
	}
	if p.Left == 0 && p.Right == 0 && p.Up == 0 && p.Down == 0 {
		return mcp.NewToolResultError("at least one of left, right, up, down must be > 0"), nil
	}

	img, err := c.call(ctx, func(ctx context.Context, key string) (*stability.Image, error) {
		return c.client.Outpaint(ctx, key, p)
	})
	if err != nil {
		return nil, err
	}
	return imageResult(img), nil
}

func searchAndReplaceTool() mcp.Tool {
	return mcp.NewTool("search-and-replace",
		mcp.WithDescription("Find an object in an image by description and replace it."),
		mcp.WithString("image", mcp.Required(), mcp.Description("Base64 source image.")),
		mcp.WithString("prompt", mcp.Required(), mcp.Description("What to replace the object with.")),
		mcp.WithString("search_prompt", mcp.Required(), mcp.Description("Short description of the object to replace.")),
		mcp.WithString("negative_prompt", mcp.Description("What to avoid in the replacement.")),
		mcp.WithNumber("seed", mcp.Description("Randomness seed; 0 means random.")),
		mcp.WithString("output_format", mcp.Description("Image format."), mcp.Enum("png", "jpeg", "webp")),
	)
}

func (c *Catalog) searchAndReplace(ctx context.Context, args map[string]any) (*mcp.CallToolResult, error) {
	image, err := requireImage(args, "image")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	prompt, err := requireString(args, "prompt")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	searchPrompt, err := requireString(args, "search_prompt")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	p := stability.SearchReplaceParams{
		Image:          image,
		Prompt:         prompt,
		SearchPrompt:   searchPrompt,
		NegativePrompt: optString(args, "negative_prompt", ""),
		Seed:           optInt(args, "seed", 0),
		OutputFormat:   optString(args, "output_format", "png"),
	}

	img, err := c.call(ctx, func(ctx context.Context, key string) (*stability.Image, error) {
		return c.client.SearchAndReplace(ctx, key, p)
	})
	if err != nil {
		return nil, err
	}
	return imageResult(img), nil
}

func removeBackgroundTool() mcp.Tool {
	return mcp.NewTool("remove-background",
		mcp.WithDescription("Segment the foreground of an image and remove the background."),
		mcp.WithString("image", mcp.Required(), mcp.Description("Base64 source image.")),
		mcp.WithString("output_format", mcp.Description("Image format."), mcp.Enum("png", "webp")),
	)
}

func (c *Catalog) removeBackground(ctx context.Context, args map[string]any) (*mcp.CallToolResult, error) {
	image, err := requireImage(args, "image")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	format := optString(args, "output_format", "png")
	img, err := c.call(ctx, func(ctx context.Context, key string) (*stability.Image, error) {
		return c.client.RemoveBackground(ctx, key, image, format)
	})
	if err != nil {
		return nil, err
	}
	return imageResult(img), nil
}
