package stability

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerateCoreSendsMultipartForm(t *testing.T) {
	var (
		gotAuth   string
		gotAccept string
		gotFields map[string]string
	)

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPost, r.Method)
		require.Equal(t, "/v2beta/stable-image/generate/core", r.URL.Path)
		gotAuth = r.Header.Get("Authorization")
		gotAccept = r.Header.Get("Accept")

		require.NoError(t, r.ParseMultipartForm(32<<20))
		gotFields = make(map[string]string)
		for name, vals := range r.MultipartForm.Value {
			gotFields[name] = vals[0]
		}

		w.Header().Set("Content-Type", "image/png")
		w.Header().Set("finish-reason", FinishSuccess)
		w.Header().Set("seed", "12345")
		w.Write([]byte("fake-png-bytes"))
	}))
	defer srv.Close()

	c := New(srv.URL)
	img, err := c.GenerateCore(context.Background(), "sk-test", GenerateParams{
		Prompt:         "a lighthouse at dusk",
		NegativePrompt: "blurry",
		AspectRatio:    "16:9",
		Seed:           42,
		OutputFormat:   "png",
	})
	require.NoError(t, err)

	assert.Equal(t, "Bearer sk-test", gotAuth)
	assert.Equal(t, "image/*", gotAccept)
	assert.Equal(t, "a lighthouse at dusk", gotFields["prompt"])
	assert.Equal(t, "blurry", gotFields["negative_prompt"])
	assert.Equal(t, "16:9", gotFields["aspect_ratio"])
	assert.Equal(t, "42", gotFields["seed"])
	assert.Equal(t, "png", gotFields["output_format"])
	assert.NotContains(t, gotFields, "style_preset", "empty optional fields are omitted")

	assert.Equal(t, []byte("fake-png-bytes"), img.Data)
	assert.Equal(t, "image/png", img.MIMEType)
	assert.Equal(t, FinishSuccess, img.FinishReason)
	assert.Equal(t, "12345", img.Seed)
}

func TestInpaintSendsImageAndMaskFiles(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/v2beta/stable-image/edit/inpaint", r.URL.Path)
		require.NoError(t, r.ParseMultipartForm(32<<20))

		imgFile, _, err := r.FormFile("image")
		require.NoError(t, err)
		imgData, _ := io.ReadAll(imgFile)
		assert.Equal(t, []byte("image-bytes"), imgData)

		maskFile, _, err := r.FormFile("mask")
		require.NoError(t, err)
		maskData, _ := io.ReadAll(maskFile)
		assert.Equal(t, []byte("mask-bytes"), maskData)

		w.Header().Set("Content-Type", "image/webp")
		w.Write([]byte("out"))
	}))
	defer srv.Close()

	c := New(srv.URL)
	img, err := c.Inpaint(context.Background(), "sk-test", InpaintParams{
		Image:  []byte("image-bytes"),
		Mask:   []byte("mask-bytes"),
		Prompt: "a red door",
	})
	require.NoError(t, err)
	assert.Equal(t, "image/webp", img.MIMEType)
}

func TestErrorEnvelopeIsParsed(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusBadRequest)
		json.NewEncoder(w).Encode(map[string]any{
			"id":     "req-1",
			"name":   "bad_request",
			"errors": []string{"prompt: required"},
		})
	}))
	defer srv.Close()

	c := New(srv.URL)
	_, err := c.GenerateCore(context.Background(), "sk-test", GenerateParams{})
	require.Error(t, err)

	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusBadRequest, apiErr.StatusCode)
	assert.Equal(t, "bad_request", apiErr.Name)
	assert.False(t, apiErr.AuthFailure())
	assert.Contains(t, apiErr.Error(), "stability:")
	assert.Contains(t, apiErr.Error(), "prompt: required")
}

func TestAuthFailureStatuses(t *testing.T) {
	for _, status := range []int{http.StatusUnauthorized, http.StatusForbidden} {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(status)
			w.Write([]byte("unauthorized"))
		}))

		c := New(srv.URL)
		_, err := c.UpscaleFast(context.Background(), "sk-bad", []byte("img"), "png")
		srv.Close()

		var apiErr *APIError
		require.ErrorAs(t, err, &apiErr)
		assert.True(t, apiErr.AuthFailure(), "status %d should be an auth failure", status)
		assert.Equal(t, "unauthorized", apiErr.Raw)
	}
}

func TestGenerateV1SendsJSONBody(t *testing.T) {
	var got v1Request

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/v1/generation/stable-diffusion-xl-1024-v1-0/text-to-image", r.URL.Path)
		require.Equal(t, "application/json", r.Header.Get("Content-Type"))
		require.Equal(t, "image/png", r.Header.Get("Accept"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))

		w.Header().Set("Content-Type", "image/png")
		w.Write([]byte("v1-png"))
	}))
	defer srv.Close()

	c := New(srv.URL)
	img, err := c.GenerateV1(context.Background(), "sk-test", V1Params{
		Engine:         "stable-diffusion-xl-1024-v1-0",
		Prompt:         "a fox",
		NegativePrompt: "low quality",
		Width:          1024,
		Height:         1024,
		Steps:          30,
		CfgScale:       7,
		Sampler:        "K_DPMPP_2M",
	})
	require.NoError(t, err)
	assert.Equal(t, []byte("v1-png"), img.Data)

	require.Len(t, got.TextPrompts, 2)
	assert.Equal(t, "a fox", got.TextPrompts[0].Text)
	assert.Equal(t, float64(1), got.TextPrompts[0].Weight)
	assert.Equal(t, "low quality", got.TextPrompts[1].Text)
	assert.Equal(t, float64(-1), got.TextPrompts[1].Weight)
	assert.Equal(t, 1, got.Samples)
	assert.Equal(t, "K_DPMPP_2M", got.Sampler)
}

func TestContextCancellationAbortsRequest(t *testing.T) {
	started := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		// Drain the body so the server watches the connection and cancels
		// r.Context() when the client disconnects; otherwise Close deadlocks.
		io.Copy(io.Discard, r.Body)
		close(started)
		<-r.Context().Done()
	}))
	defer srv.Close()

	ctx, cancel := context.WithCancel(context.Background())
	c := New(srv.URL)

	done := make(chan error, 1)
	go func() {
		_, err := c.RemoveBackground(ctx, "sk-test", []byte("img"), "png")
		done <- err
	}()

	<-started
	cancel()

	err := <-done
	require.Error(t, err)
	assert.True(t, errors.Is(err, context.Canceled) || strings.Contains(err.Error(), "context canceled"))
}
