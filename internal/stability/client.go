// Package stability is a thin client for the Stability AI image REST API.
// Each endpoint method builds a multipart form body (or JSON for the legacy
// v1 generation route), POSTs it, and returns the raw image bytes together
// with the finish-reason and seed response headers.
package stability

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"sort"
	"strconv"
	"strings"
)

// DefaultBaseURL is the production Stability AI API host.
const DefaultBaseURL = "https://api.stability.ai"

// maxResponseBytes bounds how much of an upstream response is read.
const maxResponseBytes = 32 << 20

// Finish reasons reported by the API in the finish-reason header.
const (
	FinishSuccess         = "SUCCESS"
	FinishContentFiltered = "CONTENT_FILTERED"
)

// Client issues requests against the Stability AI REST API.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// New creates a client. An empty baseURL selects the production API.
func New(baseURL string) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{}, // timeouts come from the request context
	}
}

// Image is a generated or edited image in flight. It is never cached.
type Image struct {
	Data         []byte
	MIMEType     string
	Seed         string
	FinishReason string
}

// filePart is one binary field of a multipart request.
type filePart struct {
	field string
	name  string
	data  []byte
}

// postMultipart sends a multipart form POST and decodes the image response.
// Empty field values are omitted so optional parameters fall back to the
// API's own defaults.
func (c *Client) postMultipart(ctx context.Context, key, path string, fields map[string]string, files []filePart) (*Image, error) {
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)

	names := make([]string, 0, len(fields))
	for name := range fields {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		if fields[name] == "" {
			continue
		}
		if err := w.WriteField(name, fields[name]); err != nil {
			return nil, fmt.Errorf("stability: %s: building form: %w", path, err)
		}
	}

	for _, f := range files {
		part, err := w.CreateFormFile(f.field, f.name)
		if err != nil {
			return nil, fmt.Errorf("stability: %s: building form: %w", path, err)
		}
		if _, err := part.Write(f.data); err != nil {
			return nil, fmt.Errorf("stability: %s: building form: %w", path, err)
		}
	}

	if err := w.Close(); err != nil {
		return nil, fmt.Errorf("stability: %s: building form: %w", path, err)
	}

	return c.post(ctx, key, path, w.FormDataContentType(), "image/*", &buf)
}

// postJSON sends a JSON POST (legacy v1 generation routes).
func (c *Client) postJSON(ctx context.Context, key, path string, body any) (*Image, error) {
	data, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("stability: %s: encoding body: %w", path, err)
	}
	return c.post(ctx, key, path, "application/json", "image/png", bytes.NewReader(data))
}

func (c *Client) post(ctx context.Context, key, path, contentType, accept string, body io.Reader) (*Image, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, body)
	if err != nil {
		return nil, fmt.Errorf("stability: %s: %w", path, err)
	}
	req.Header.Set("Authorization", "Bearer "+key)
	req.Header.Set("Content-Type", contentType)
	req.Header.Set("Accept", accept)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("stability: %s: %w", path, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return nil, fmt.Errorf("stability: %s: reading response: %w", path, err)
	}

	if resp.StatusCode != http.StatusOK {
		return nil, parseAPIError(path, resp.StatusCode, data)
	}

	mimeType := resp.Header.Get("Content-Type")
	if mimeType == "" {
		mimeType = "image/png"
	}

	return &Image{
		Data:         data,
		MIMEType:     mimeType,
		Seed:         resp.Header.Get("seed"),
		FinishReason: resp.Header.Get("finish-reason"),
	}, nil
}

func formatSeed(seed int64) string {
	if seed == 0 {
		return ""
	}
	return strconv.FormatInt(seed, 10)
}

func formatFloat(f float64) string {
	if f == 0 {
		return ""
	}
	return strconv.FormatFloat(f, 'f', -1, 64)
}

func formatInt(n int) string {
	if n == 0 {
		return ""
	}
	return strconv.Itoa(n)
}
