package unsplash

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"ArxivDigest/internal/config"
)

const (
	defaultAPIURL  = "https://api.unsplash.com"
	maxImageBytes  = 20 << 20
	acceptVersion  = "v1"
	searchEndpoint = "/search/photos"
)

// Orientation filters search results by aspect ratio.
type Orientation string

const (
	Landscape Orientation = "landscape"
	Squarish  Orientation = "squarish"
)

// Client is a thin wrapper over the parts of the Unsplash API the digest uses.
type Client struct {
	apiURL     string
	accessKey  string
	httpClient *http.Client
	limiter    *rate.Limiter
}

// NewClient builds a client from configuration. A non-positive request
// interval disables pacing.
func NewClient(cfg config.UnsplashConfig) *Client {
	apiURL := strings.TrimRight(cfg.APIURL, "/")
	if apiURL == "" {
		apiURL = defaultAPIURL
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	limiter := rate.NewLimiter(rate.Inf, 1)
	if cfg.RequestInterval > 0 {
		limiter = rate.NewLimiter(rate.Every(cfg.RequestInterval), 1)
	}
	return &Client{
		apiURL:     apiURL,
		accessKey:  cfg.AccessKey,
		httpClient: &http.Client{Timeout: timeout},
		limiter:    limiter,
	}
}

// SearchResult is the subset of a photo record we read.
type SearchResult struct {
	ID             string `json:"id"`
	Description    string `json:"description"`
	AltDescription string `json:"alt_description"`
	URLs           struct {
		Regular string `json:"regular"`
		Small   string `json:"small"`
	} `json:"urls"`
	Links struct {
		DownloadLocation string `json:"download_location"`
	} `json:"links"`
	User struct {
		Name  string `json:"name"`
		Links struct {
			HTML string `json:"html"`
		} `json:"links"`
	} `json:"user"`
}

type searchResponse struct {
	Results []SearchResult `json:"results"`
}

// SearchOne returns the first photo matching query, or nil when nothing matched.
func (c *Client) SearchOne(ctx context.Context, query string, orientation Orientation) (*SearchResult, error) {
	params := url.Values{}
	params.Set("query", query)
	params.Set("per_page", "1")
	params.Set("orientation", string(orientation))

	resp, err := c.get(ctx, c.apiURL+searchEndpoint+"?"+params.Encode(), true)
	if err != nil {
		return nil, fmt.Errorf("search photos: %w", err)
	}
	defer resp.Body.Close()

	var payload searchResponse
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, fmt.Errorf("decode search response: %w", err)
	}
	if len(payload.Results) == 0 {
		return nil, nil
	}
	return &payload.Results[0], nil
}

// TrackDownload pings the photo's download_location as the API guidelines require.
func (c *Client) TrackDownload(ctx context.Context, location string) error {
	if location == "" {
		return nil
	}
	resp, err := c.get(ctx, location, true)
	if err != nil {
		return fmt.Errorf("track download: %w", err)
	}
	_, _ = io.Copy(io.Discard, resp.Body)
	return resp.Body.Close()
}

// Fetch downloads raw image bytes from the CDN.
func (c *Client) Fetch(ctx context.Context, imageURL string) ([]byte, error) {
	resp, err := c.get(ctx, imageURL, false)
	if err != nil {
		return nil, fmt.Errorf("fetch image: %w", err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxImageBytes))
	if err != nil {
		return nil, fmt.Errorf("read image: %w", err)
	}
	return data, nil
}

func (c *Client) get(ctx context.Context, target string, authorized bool) (*http.Response, error) {
	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return nil, fmt.Errorf("rate limiter wait: %w", err)
		}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return nil, fmt.Errorf("new request: %w", err)
	}
	if authorized {
		req.Header.Set("Authorization", "Client-ID "+c.accessKey)
		req.Header.Set("Accept-Version", acceptVersion)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("do request: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		payload, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		resp.Body.Close()
		return nil, fmt.Errorf("unsplash error %s: %s", resp.Status, strings.TrimSpace(string(payload)))
	}
	return resp, nil
}
