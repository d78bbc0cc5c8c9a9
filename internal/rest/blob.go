package rest

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"go.uber.org/zap"
)

// BlobStore uploads binary media and returns a publicly resolvable URL.
// Listing and chat media go through it before their URLs are attached to
// records.
type BlobStore interface {
	Upload(ctx context.Context, path string, data []byte, contentType string) (string, error)
}

// HTTPBlobStore is the REST implementation of BlobStore: POST the bytes to
// <base>/<bucket>/<path> and read back {"url": "..."}.
type HTTPBlobStore struct {
	base   *url.URL
	bucket string
	hc     *http.Client
	tokens TokenSource
	logger *zap.Logger
}

// NewHTTPBlobStore creates a blob store client for one bucket.
func NewHTTPBlobStore(baseURL, bucket string, hc *http.Client, tokens TokenSource, logger *zap.Logger) (*HTTPBlobStore, error) {
	base, err := url.Parse(baseURL)
	if err != nil {
		return nil, fmt.Errorf("parse blob base url: %w", err)
	}
	if hc == nil {
		hc = http.DefaultClient
	}
	if tokens == nil {
		tokens = StaticToken("")
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &HTTPBlobStore{base: base, bucket: bucket, hc: hc, tokens: tokens, logger: logger}, nil
}

// Upload stores data under the named path within the bucket.
func (s *HTTPBlobStore) Upload(ctx context.Context, path string, data []byte, contentType string) (string, error) {
	u := s.base.JoinPath(s.bucket, path)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, u.String(), bytes.NewReader(data))
	if err != nil {
		return "", err
	}
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	req.Header.Set("Content-Type", contentType)
	if tok := s.tokens.BearerToken(); tok != "" {
		req.Header.Set("Authorization", "Bearer "+tok)
	}

	resp, err := s.hc.Do(req)
	if err != nil {
		return "", fmt.Errorf("upload %s: %w", path, err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return "", &StatusError{Code: resp.StatusCode, Body: strings.TrimSpace(string(snippet))}
	}

	var out struct {
		URL string `json:"url"`
	}
	if err := decodeJSON(resp.Body, &out); err != nil {
		return "", err
	}
	if out.URL == "" {
		return "", fmt.Errorf("upload %s: blob store returned no url", path)
	}
	s.logger.Info("blob uploaded", zap.String("path", path), zap.Int("bytes", len(data)))
	return out.URL, nil
}
