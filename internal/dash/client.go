package dash

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"mpdreader/internal/logger"
	"mpdreader/internal/mpd"
)

// Client loads MPD documents from local files or HTTP(S) origins.
type Client struct {
	httpClient *http.Client
	logger     logger.Logger
}

// NewClient creates a new DASH client.
func NewClient(log logger.Logger) *Client {
	transport := &http.Transport{
		ResponseHeaderTimeout: 3 * time.Second,
	}

	return &Client{
		httpClient: &http.Client{
			Transport: transport,
			CheckRedirect: func(req *http.Request, via []*http.Request) error {
				return http.ErrUseLastResponse
			},
		},
		logger: log,
	}
}

// IsRemote reports whether source names an HTTP(S) resource rather than a file.
func IsRemote(source string) bool {
	u, err := url.Parse(source)
	if err != nil {
		return false
	}
	return u.Scheme == "http" || u.Scheme == "https"
}

// FetchManifest returns the raw manifest and the location segment URLs resolve
// against: the final URL after one redirect for remote sources, the absolute
// path for files. Any failure to obtain the bytes wraps mpd.ErrManifestUnavailable.
func (c *Client) FetchManifest(ctx context.Context, source, userAgent string) ([]byte, string, error) {
	if !IsRemote(source) {
		return c.readFile(source)
	}

	c.logger.Debugf("Fetching MPD from URL: %s", source)
	resp, err := c.get(ctx, source, userAgent)
	if err != nil {
		return nil, "", err
	}
	defer resp.Body.Close()

	finalURL := source
	if resp.StatusCode == http.StatusFound || resp.StatusCode == http.StatusMovedPermanently {
		location, err := resp.Location()
		if err != nil {
			return nil, "", fmt.Errorf("%w: redirect location error: %v", mpd.ErrManifestUnavailable, err)
		}
		finalURL = location.String()
		c.logger.Debugf("Redirected to: %s", finalURL)

		resp, err = c.get(ctx, finalURL, userAgent)
		if err != nil {
			return nil, "", err
		}
		defer resp.Body.Close()
	}

	if resp.StatusCode != http.StatusOK {
		return nil, "", fmt.Errorf("%w: received status code %d from %s", mpd.ErrManifestUnavailable, resp.StatusCode, finalURL)
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, "", fmt.Errorf("%w: failed to read MPD response body: %v", mpd.ErrManifestUnavailable, err)
	}

	c.logger.Debugf("Fetched %d bytes of MPD from %s", len(data), finalURL)
	return data, finalURL, nil
}

func (c *Client) get(ctx context.Context, target, userAgent string) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create new request for MPD: %w", err)
	}
	if userAgent != "" {
		req.Header.Set("User-Agent", userAgent)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to fetch MPD from %s: %v", mpd.ErrManifestUnavailable, target, err)
	}
	return resp, nil
}

func (c *Client) readFile(source string) ([]byte, string, error) {
	path := strings.TrimPrefix(source, "file://")
	abs, err := filepath.Abs(path)
	if err != nil {
		abs = path
	}
	data, err := os.ReadFile(abs)
	if err != nil {
		c.logger.Errorf("MPD file %s not found: %v", abs, err)
		return nil, "", fmt.Errorf("%w: %v", mpd.ErrManifestUnavailable, err)
	}
	return data, abs, nil
}
