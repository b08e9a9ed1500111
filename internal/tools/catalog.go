// Package tools defines the Stability AI tool catalogue: one thin handler
// per REST endpoint, each performing exactly one outbound call through the
// shared key pool.
package tools

import (
	"context"
	"encoding/base64"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/lydakis/stability-mcp/internal/config"
	"github.com/lydakis/stability-mcp/internal/keypool"
	"github.com/lydakis/stability-mcp/internal/registry"
	"github.com/lydakis/stability-mcp/internal/stability"
)

// Catalog binds the Stability client and key pool into tool handlers.
type Catalog struct {
	client *stability.Client
	keys   *keypool.Pool
	engine config.EngineDefaults
}

// NewCatalog creates the catalogue. The engine defaults feed the legacy
// generate-v1 tool.
func NewCatalog(client *stability.Client, keys *keypool.Pool, engine config.EngineDefaults) *Catalog {
	return &Catalog{client: client, keys: keys, engine: engine}
}

// Register adds every tool to the registry. Fails on the first
// registration error; all failures here are programming mistakes.
func (c *Catalog) Register(reg *registry.Registry) error {
	entries := []struct {
		def     mcp.Tool
		handler registry.Handler
	}{
		{generateCoreTool(), c.generateCore},
		{generateUltraTool(), c.generateUltra},
		{generateSD3Tool(), c.generateSD3},
		{upscaleFastTool(), c.upscaleFast},
		{upscaleConservativeTool(), c.upscaleConservative},
		{eraseTool(), c.erase},
		{inpaintTool(), c.inpaint},
		{outpaintTool(), c.outpaint},
		{searchAndReplaceTool(), c.searchAndReplace},
		{removeBackgroundTool(), c.removeBackground},
		{controlSketchTool(), c.controlSketch},
		{controlStructureTool(), c.controlStructure},
		{controlStyleTool(), c.controlStyle},
		{generateV1Tool(), c.generateV1},
	}

	for _, e := range entries {
		if err := reg.Register(e.def, e.handler); err != nil {
			return err
		}
	}
	return nil
}

// call runs one image request through the key pool's fallback wrapper.
func (c *Catalog) call(ctx context.Context, fn func(ctx context.Context, key string) (*stability.Image, error)) (*stability.Image, error) {
	var img *stability.Image
	err := c.keys.Do(ctx, 0, func(ctx context.Context, key string) error {
		res, err := fn(ctx, key)
		if err != nil {
			return err
		}
		img = res
		return nil
	})
	return img, err
}

// imageResult converts an upstream image into MCP content: a short text
// summary plus the base64 image payload.
func imageResult(img *stability.Image) *mcp.CallToolResult {
	summary := fmt.Sprintf("finish_reason=%s", img.FinishReason)
	if img.Seed != "" {
		summary += " seed=" + img.Seed
	}
	encoded := base64.StdEncoding.EncodeToString(img.Data)
	return mcp.NewToolResultImage(summary, encoded, img.MIMEType)
}
