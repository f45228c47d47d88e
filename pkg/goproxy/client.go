// Package goproxy downloads module sources and version metadata from the
// Go module proxy protocol endpoints.
package goproxy

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"strings"
	"time"

	"golang.org/x/mod/module"
)

const (
	defaultProxy      = "https://proxy.golang.org,direct"
	httpClientTimeout = 30 * time.Second
	defaultUserAgent  = "upgradecheck/0.1.0"

	// LatestVersion asks the proxy for the newest release.
	LatestVersion = "latest"
)

// ErrNotFound is returned when no proxy in the chain has the requested
// module version.
var ErrNotFound = errors.New("module version not found")

// VersionInfo is the body of an .info or @latest response.
type VersionInfo struct {
	Version string
	Time    time.Time
}

// Client talks to a chain of module proxies.
type Client struct {
	httpClient *http.Client
	userAgent  string
	proxies    []string
	logger     *slog.Logger
}

// Option configures a Client.
type Option func(*Client)

// WithProxies replaces the chain read from GOPROXY.
func WithProxies(list string) Option {
	return func(c *Client) { c.proxies = ParseProxyList(list) }
}

// WithHTTPClient sets the client used for requests.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.httpClient = hc }
}

// WithLogger sets the logger for skipped proxy entries.
func WithLogger(l *slog.Logger) Option {
	return func(c *Client) {
		if l != nil {
			c.logger = l
		}
	}
}

// NewClient creates a Client for the proxy chain in GOPROXY, defaulting
// to "https://proxy.golang.org,direct".
func NewClient(opts ...Option) *Client {
	c := &Client{
		httpClient: &http.Client{Timeout: httpClientTimeout},
		userAgent:  defaultUserAgent,
		proxies:    ParseProxyList(os.Getenv("GOPROXY")),
		logger:     slog.New(slog.DiscardHandler),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// ParseProxyList splits a GOPROXY value on "," and "|".
func ParseProxyList(s string) []string {
	if strings.TrimSpace(s) == "" {
		s = defaultProxy
	}
	parts := strings.FieldsFunc(s, func(r rune) bool { return r == ',' || r == '|' })
	proxies := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			proxies = append(proxies, strings.TrimSuffix(p, "/"))
		}
	}
	return proxies
}

// DownloadZip fetches the source archive of mod@version.
func (c *Client) DownloadZip(ctx context.Context, mod, version string) ([]byte, error) {
	suffix, err := versionPath(mod, version, ".zip")
	if err != nil {
		return nil, err
	}
	return c.get(ctx, suffix)
}

// Info resolves version, which may be LatestVersion, to its canonical
// proxy metadata.
func (c *Client) Info(ctx context.Context, mod, version string) (VersionInfo, error) {
	var suffix string
	var err error
	if version == LatestVersion {
		var escaped string
		escaped, err = module.EscapePath(mod)
		suffix = escaped + "/@latest"
	} else {
		suffix, err = versionPath(mod, version, ".info")
	}
	if err != nil {
		return VersionInfo{}, err
	}

	data, err := c.get(ctx, suffix)
	if err != nil {
		return VersionInfo{}, err
	}
	var info VersionInfo
	if err := json.Unmarshal(data, &info); err != nil {
		return VersionInfo{}, fmt.Errorf("decoding version info for %s@%s: %w", mod, version, err)
	}
	return info, nil
}

func versionPath(mod, version, ext string) (string, error) {
	escapedMod, err := module.EscapePath(mod)
	if err != nil {
		return "", fmt.Errorf("escaping module path %q: %w", mod, err)
	}
	escapedVer, err := module.EscapeVersion(version)
	if err != nil {
		return "", fmt.Errorf("escaping version %q: %w", version, err)
	}
	return escapedMod + "/@v/" + escapedVer + ext, nil
}

// get walks the proxy chain. A 404 or 410 falls through to the next entry;
// any other failure stops the walk.
func (c *Client) get(ctx context.Context, suffix string) ([]byte, error) {
	for i, proxy := range c.proxies {
		switch proxy {
		case "direct":
			c.logger.Warn("direct mode not supported, skipping", slog.String("proxy", proxy))
			continue
		case "off":
			return nil, fmt.Errorf("%s: %w (GOPROXY=off)", suffix, ErrNotFound)
		}

		data, tryNext, err := c.fetch(ctx, proxy+"/"+suffix)
		if err == nil {
			return data, nil
		}
		if tryNext && i < len(c.proxies)-1 {
			continue
		}
		return nil, err
	}
	return nil, fmt.Errorf("%s: %w", suffix, ErrNotFound)
}

func (c *Client) fetch(ctx context.Context, url string) ([]byte, bool, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, false, fmt.Errorf("building request for %s: %w", url, err)
	}
	req.Header.Set("User-Agent", c.userAgent)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, true, err
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusOK:
	case http.StatusNotFound, http.StatusGone:
		return nil, true, fmt.Errorf("proxy returned %d for %s: %w", resp.StatusCode, url, ErrNotFound)
	default:
		return nil, false, fmt.Errorf("unexpected status %d from %s", resp.StatusCode, url)
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, false, fmt.Errorf("reading response body from %s: %w", url, err)
	}
	return data, false, nil
}
