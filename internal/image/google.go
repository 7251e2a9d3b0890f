package image

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"time"

	"codeberg.org/snonux/smartdeck/internal/retry"
	"codeberg.org/snonux/smartdeck/internal/svcerr"
	"codeberg.org/snonux/smartdeck/internal/throttle"
)

const (
	googleCSEURL  = "https://www.googleapis.com/customsearch/v1"
	googleTimeout = 30 * time.Second
	googleMaxNum  = 10 // the API never returns more per request
)

// GoogleConfig configures the Custom Search client
type GoogleConfig struct {
	APIKey   string
	EngineID string
	BaseURL  string // optional, defaults to the public endpoint

	Policy  retry.Policy
	Limiter *throttle.Limiter
	Logger  *slog.Logger
}

// GoogleClient implements ImageSearcher for the Google Custom Search JSON API
type GoogleClient struct {
	config     GoogleConfig
	httpClient *http.Client
	logger     *slog.Logger
}

// googleResponse represents the API response structure
type googleResponse struct {
	Items []googleItem `json:"items"`
}

type googleItem struct {
	Title string `json:"title"`
	Link  string `json:"link"`
	Mime  string `json:"mime"`
	Image struct {
		ContextLink   string `json:"contextLink"`
		Width         int    `json:"width"`
		Height        int    `json:"height"`
		ThumbnailLink string `json:"thumbnailLink"`
	} `json:"image"`
}

// NewGoogleClient creates a new Custom Search client
func NewGoogleClient(config GoogleConfig) (*GoogleClient, error) {
	if config.APIKey == "" || config.EngineID == "" {
		return nil, fmt.Errorf("Google custom search key and engine ID are required")
	}
	if config.BaseURL == "" {
		config.BaseURL = googleCSEURL
	}
	if config.Logger == nil {
		config.Logger = slog.Default()
	}

	return &GoogleClient{
		config:     config,
		httpClient: &http.Client{Timeout: googleTimeout},
		logger:     config.Logger.With("component", "google-images"),
	}, nil
}

// Search performs an image search
func (g *GoogleClient) Search(ctx context.Context, opts *SearchOptions) ([]SearchResult, error) {
	num := opts.PerPage
	if num <= 0 || num > googleMaxNum {
		num = googleMaxNum
	}

	params := url.Values{}
	params.Set("key", g.config.APIKey)
	params.Set("cx", g.config.EngineID)
	params.Set("q", opts.Query)
	params.Set("searchType", "image")
	params.Set("num", fmt.Sprintf("%d", num))
	params.Set("imgSize", "medium")
	if opts.SafeSearch {
		params.Set("safe", "active")
	} else {
		params.Set("safe", "off")
	}
	if opts.ImageType != "" {
		params.Set("imgType", opts.ImageType)
	}
	reqURL := g.config.BaseURL + "?" + params.Encode()

	policy := g.config.Policy.WithNotify(func(err error, wait time.Duration) {
		g.logger.Warn("retrying image search", "query", opts.Query, "wait", wait, "error", err)
	})

	return retry.DoValue(ctx, policy, func(ctx context.Context) ([]SearchResult, error) {
		var results []SearchResult
		err := g.config.Limiter.Do(ctx, func(ctx context.Context) error {
			resp, err := openURL(ctx, g.httpClient, g.Name(), "search", reqURL)
			if err != nil {
				return err
			}
			defer resp.Body.Close()

			var gResp googleResponse
			if err := json.NewDecoder(resp.Body).Decode(&gResp); err != nil {
				return svcerr.Permanent(g.Name(), "search", 0, fmt.Errorf("failed to decode response: %w", err))
			}

			results = make([]SearchResult, 0, len(gResp.Items))
			for i, item := range gResp.Items {
				results = append(results, SearchResult{
					ID:           fmt.Sprintf("%d", i),
					URL:          item.Link,
					ThumbnailURL: item.Image.ThumbnailLink,
					Width:        item.Image.Width,
					Height:       item.Image.Height,
					Title:        item.Title,
					ContextURL:   item.Image.ContextLink,
					MimeType:     item.Mime,
					Source:       g.Name(),
				})
			}
			return nil
		})
		return results, err
	})
}

// Download opens an image from the given URL
func (g *GoogleClient) Download(ctx context.Context, imageURL string) (io.ReadCloser, string, error) {
	resp, err := openURL(ctx, g.httpClient, g.Name(), "download", imageURL)
	if err != nil {
		return nil, "", err
	}
	return resp.Body, resp.Header.Get("Content-Type"), nil
}

// Name returns the name of the search provider
func (g *GoogleClient) Name() string {
	return "google"
}
