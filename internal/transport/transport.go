package transport

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html/charset"
	"golang.org/x/net/publicsuffix"

	"github.com/hjhkhvffsd/movie-web-app/internal/apperrors"
	"github.com/hjhkhvffsd/movie-web-app/internal/config"
)

// AjaxResponse is the provider's sideband envelope. Every response
// carries a success flag; the remaining fields are populated per action.
type AjaxResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`

	// URL is the obfuscated stream URL list (get_movie / get_stream).
	URL string `json:"url"`
	// ThumbnailsURL points at the preview thumbnail sheet.
	ThumbnailsURL string `json:"thumbnails"`
	// SeasonsHTML and EpisodesHTML are HTML fragments listing the
	// translator's seasons and episodes (get_episodes).
	SeasonsHTML  string `json:"seasons"`
	EpisodesHTML string `json:"episodes"`
}

// Client is the transport toward the provider: a proxied, cookie-aware
// HTTP client with transparent response decompression and a per-attempt
// timeout. It knows nothing about retries or caching.
type Client struct {
	httpClient *http.Client
	baseURL    string
	userAgent  string
}

// now is the clock for the cache-busting query parameter; replaced in tests.
var now = time.Now

// New creates a transport client from config. An invalid proxy URL is
// logged and ignored, matching the behavior of the rest of the config
// surface (bad values degrade, they don't abort startup).
func New(cfg *config.Config) (*Client, error) {
	timeout := 10 * time.Second // per-attempt transport timeout
	if cfg.ClientTimeout != "" {
		if parsedTimeout, err := time.ParseDuration(cfg.ClientTimeout); err != nil {
			logger := config.GetLogger()
			logger.Warn().Err(err).Str("timeout", cfg.ClientTimeout).Msg("Invalid timeout duration, using default 10s")
		} else {
			timeout = parsedTimeout
		}
	}

	// Clone DefaultTransport to preserve its settings (connection
	// pooling, HTTP/2, dial timeouts).
	baseTransport := http.DefaultTransport.(*http.Transport).Clone()

	if cfg.ProxyConnectionString != "" {
		proxyURL, err := url.Parse(cfg.ProxyConnectionString)
		if err != nil {
			logger := config.GetLogger()
			logger.Warn().Err(err).Str("proxy", cfg.ProxyConnectionString).Msg("Invalid proxy URL, continuing without proxy")
		} else {
			baseTransport.Proxy = http.ProxyURL(proxyURL)
		}
	}

	// Provider session cookies are forwarded transparently across
	// document and AJAX requests.
	jar, err := cookiejar.New(&cookiejar.Options{PublicSuffixList: publicsuffix.List})
	if err != nil {
		return nil, fmt.Errorf("cookie jar: %w", err)
	}

	return &Client{
		httpClient: &http.Client{
			Timeout:   timeout,
			Transport: newCompressionTransport(baseTransport),
			Jar:       jar,
		},
		baseURL:   strings.TrimRight(cfg.ProviderDomain, "/"),
		userAgent: cfg.UserAgent,
	}, nil
}

// BaseURL returns the configured provider origin.
func (c *Client) BaseURL() string {
	return c.baseURL
}

// FetchPage retrieves a provider page as a UTF-8 HTML string. The raw
// string form is what the document cache stores; callers re-parse it
// with ParseDocument. Network failures and non-2xx statuses surface as
// ErrTransport.
func (c *Client) FetchPage(ctx context.Context, path string, params url.Values) (string, error) {
	endpoint := c.baseURL + path
	if len(params) > 0 {
		endpoint += "?" + params.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return "", fmt.Errorf("failed to create document request: %w", err)
	}
	req.Header.Set("User-Agent", c.userAgent)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", apperrors.NewTransportError(http.MethodGet, endpoint, 0, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return "", apperrors.NewTransportError(http.MethodGet, endpoint, resp.StatusCode, nil)
	}

	// The provider serves windows-1251 pages; convert to UTF-8 before
	// anything downstream parses the markup.
	body, err := charset.NewReader(resp.Body, resp.Header.Get("Content-Type"))
	if err != nil {
		return "", fmt.Errorf("failed to detect document charset: %w", err)
	}

	html, err := io.ReadAll(body)
	if err != nil {
		return "", fmt.Errorf("failed to read document body: %w", err)
	}
	return string(html), nil
}

// ParseDocument parses page HTML (as returned by FetchPage) into a
// goquery document.
func ParseDocument(html string) (*goquery.Document, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return nil, fmt.Errorf("failed to parse document: %w", err)
	}
	return doc, nil
}

// PostForm posts a form to the provider's AJAX endpoint and decodes the
// envelope. A cache-busting timestamp query parameter is appended to
// every call. success=false surfaces as ErrUpstream with the payload's
// message or a default.
func (c *Client) PostForm(ctx context.Context, path string, form url.Values) (*AjaxResponse, error) {
	endpoint := fmt.Sprintf("%s%s?t=%d", c.baseURL, path, now().UnixMilli())

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, strings.NewReader(form.Encode()))
	if err != nil {
		return nil, fmt.Errorf("failed to create form request: %w", err)
	}
	req.Header.Set("User-Agent", c.userAgent)
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded; charset=UTF-8")
	req.Header.Set("X-Requested-With", "XMLHttpRequest")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, apperrors.NewTransportError(http.MethodPost, endpoint, 0, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, apperrors.NewTransportError(http.MethodPost, endpoint, resp.StatusCode, nil)
	}

	var envelope AjaxResponse
	if err := json.NewDecoder(resp.Body).Decode(&envelope); err != nil {
		return nil, fmt.Errorf("failed to decode ajax response: %w", err)
	}

	if !envelope.Success {
		return nil, apperrors.NewUpstreamError(envelope.Message)
	}
	return &envelope, nil
}

// Head issues a metadata-only request against an absolute URL and
// returns its Content-Length, or 0 when the header is absent.
func (c *Client) Head(ctx context.Context, rawURL string) (int64, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodHead, rawURL, nil)
	if err != nil {
		return 0, fmt.Errorf("failed to create head request: %w", err)
	}
	req.Header.Set("User-Agent", c.userAgent)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return 0, apperrors.NewTransportError(http.MethodHead, rawURL, 0, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return 0, apperrors.NewTransportError(http.MethodHead, rawURL, resp.StatusCode, nil)
	}

	// Parse the header directly: the decompression round-tripper
	// clears resp.ContentLength when a body is re-encoded.
	if v := resp.Header.Get("Content-Length"); v != "" {
		if size, err := strconv.ParseInt(v, 10, 64); err == nil && size >= 0 {
			return size, nil
		}
	}
	if resp.ContentLength > 0 {
		return resp.ContentLength, nil
	}
	return 0, nil
}

// FetchBytes retrieves an absolute URL (e.g. a thumbnail sheet) as raw
// bytes.
func (c *Client) FetchBytes(ctx context.Context, rawURL string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("User-Agent", c.userAgent)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, apperrors.NewTransportError(http.MethodGet, rawURL, 0, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, apperrors.NewTransportError(http.MethodGet, rawURL, resp.StatusCode, nil)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response body: %w", err)
	}
	return body, nil
}
