// Package vision wraps the three external image collaborators: the captured
// frame's storage URL, the optional background-removal service, and the
// classification API. All calls are plain HTTP; each wraps its own error.
package vision

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
)

// #region config

// Fixed classification hyperparameters. These match the model the station's
// detector was trained against and are not operator-tunable.
const (
	inputSize     = "640"
	confThreshold = "0.25"
	iouThreshold  = "0.45"
)

// Config holds the external endpoint settings for a client.
type Config struct {
	ClassifyURL  string
	APIKey       string
	Model        string
	BgRemovalURL string // empty disables background removal
}

// #endregion config

// #region client

// Client performs the external image calls with a shared HTTP client.
type Client struct {
	http *http.Client
	cfg  Config
}

// NewClient creates a vision client. httpClient may be nil for the default.
func NewClient(cfg Config, httpClient *http.Client) *Client {
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	return &Client{http: httpClient, cfg: cfg}
}

// RemovesBackground reports whether a background-removal endpoint is set.
func (c *Client) RemovesBackground() bool {
	return c.cfg.BgRemovalURL != ""
}

// #endregion client

// #region fetch

// FetchImage retrieves the captured frame, bypassing intermediate caches so
// the cache-busted URL always yields the latest upload.
func (c *Client) FetchImage(ctx context.Context, url string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("build image request: %w", err)
	}
	req.Header.Set("Cache-Control", "no-store")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch image: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("fetch image: status %d", resp.StatusCode)
	}

	img, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read image body: %w", err)
	}
	return img, nil
}

// #endregion fetch

// #region background-removal

// RemoveBackground pipes the image through the background-removal endpoint
// and returns the processed bytes.
func (c *Client) RemoveBackground(ctx context.Context, img []byte) ([]byte, error) {
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	part, err := w.CreateFormFile("file", "latest.jpg")
	if err != nil {
		return nil, fmt.Errorf("build removal form: %w", err)
	}
	if _, err := part.Write(img); err != nil {
		return nil, fmt.Errorf("write removal form: %w", err)
	}
	if err := w.Close(); err != nil {
		return nil, fmt.Errorf("close removal form: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.cfg.BgRemovalURL, &buf)
	if err != nil {
		return nil, fmt.Errorf("build removal request: %w", err)
	}
	req.Header.Set("Content-Type", w.FormDataContentType())

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("background removal: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("background removal: status %d", resp.StatusCode)
	}

	out, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read removal body: %w", err)
	}
	return out, nil
}

// #endregion background-removal

// #region classify

// Classify submits the image to the classification endpoint with the fixed
// hyperparameters and returns the raw result payload.
func (c *Client) Classify(ctx context.Context, img []byte) (json.RawMessage, error) {
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	fields := map[string]string{
		"model": c.cfg.Model,
		"imgsz": inputSize,
		"conf":  confThreshold,
		"iou":   iouThreshold,
	}
	for k, v := range fields {
		if err := w.WriteField(k, v); err != nil {
			return nil, fmt.Errorf("build classify form: %w", err)
		}
	}
	part, err := w.CreateFormFile("file", "latest.jpg")
	if err != nil {
		return nil, fmt.Errorf("build classify form: %w", err)
	}
	if _, err := part.Write(img); err != nil {
		return nil, fmt.Errorf("write classify form: %w", err)
	}
	if err := w.Close(); err != nil {
		return nil, fmt.Errorf("close classify form: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.cfg.ClassifyURL, &buf)
	if err != nil {
		return nil, fmt.Errorf("build classify request: %w", err)
	}
	req.Header.Set("Content-Type", w.FormDataContentType())
	req.Header.Set("x-api-key", c.cfg.APIKey)

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("classify: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read classify body: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("classify: status %d: %s", resp.StatusCode, body)
	}
	if !json.Valid(body) {
		return nil, fmt.Errorf("classify: response is not valid JSON")
	}
	return json.RawMessage(body), nil
}

// #endregion classify
