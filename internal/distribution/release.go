// SPDX-License-Identifier: MPL-2.0

package distribution

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
)

// ErrAssetNotFound is returned when the release server answers 404 for an asset.
var ErrAssetNotFound = errors.New("release asset not found")

type (
	// ReleaseClient downloads release assets over HTTP.
	ReleaseClient struct {
		httpClient *http.Client
		baseURL    string // overrides Tool.ReleaseBase when set (mirrors, tests)
		token      string // optional GITHUB_TOKEN
		userAgent  string
	}

	// ClientOption configures a ReleaseClient during construction.
	ClientOption func(*ReleaseClient)
)

// WithHTTPClient sets a custom HTTP client, useful for tests or proxy configurations.
func WithHTTPClient(c *http.Client) ClientOption {
	return func(r *ReleaseClient) {
		r.httpClient = c
	}
}

// WithBaseURL overrides every tool's release base URL.
func WithBaseURL(base string) ClientOption {
	return func(r *ReleaseClient) {
		r.baseURL = strings.TrimRight(base, "/") + "/"
	}
}

// WithToken sets a GitHub token. It is only sent to GitHub hosts.
func WithToken(token string) ClientOption {
	return func(r *ReleaseClient) {
		r.token = token
	}
}

// WithUserAgent sets the User-Agent header sent with every request.
func WithUserAgent(ua string) ClientOption {
	return func(r *ReleaseClient) {
		r.userAgent = ua
	}
}

// NewReleaseClient creates a ReleaseClient using http.DefaultClient.
func NewReleaseClient(opts ...ClientOption) *ReleaseClient {
	c := &ReleaseClient{
		httpClient: http.DefaultClient,
		userAgent:  "adlgen/dev",
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// AssetURL returns {base}/v{version}/{archive name} for a tool release.
func (c *ReleaseClient) AssetURL(tool Tool, version, classifier string) string {
	base := tool.ReleaseBase
	if c.baseURL != "" {
		base = c.baseURL
	}
	if !strings.HasSuffix(base, "/") {
		base += "/"
	}
	return base + "v" + version + "/" + tool.ArchiveName(version, classifier)
}

// Download fetches the asset at assetURL and returns the response body as a
// stream. The caller must close it. A 404 response yields ErrAssetNotFound.
func (c *ReleaseClient) Download(ctx context.Context, assetURL string) (io.ReadCloser, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, assetURL, http.NoBody)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("User-Agent", c.userAgent)
	req.Header.Set("Accept", "application/octet-stream")

	// Redirects to a CDN must not carry the token.
	if c.token != "" && isGitHubHost(req.URL) {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("downloading %s: %w", redactURL(assetURL), err)
	}

	switch resp.StatusCode {
	case http.StatusOK:
		return resp.Body, nil
	case http.StatusNotFound:
		_ = resp.Body.Close()
		return nil, fmt.Errorf("downloading %s: %w", redactURL(assetURL), ErrAssetNotFound)
	default:
		_ = resp.Body.Close()
		return nil, fmt.Errorf("downloading %s: unexpected status %d", redactURL(assetURL), resp.StatusCode)
	}
}

// isGitHubHost reports whether u targets github.com or api.github.com.
func isGitHubHost(u *url.URL) bool {
	host := strings.ToLower(u.Hostname())
	return host == "github.com" || host == "api.github.com"
}

// redactURL strips query parameters and fragments from a URL for safe inclusion
// in error messages.
func redactURL(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil {
		return "<invalid-url>"
	}
	u.RawQuery = ""
	u.Fragment = ""
	return u.String()
}
