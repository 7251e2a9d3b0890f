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
	pixabayAPIURL  = "https://pixabay.com/api/"
	pixabayTimeout = 30 * time.Second

	// PixabayRequestsPerMinute is the documented free tier limit.
	PixabayRequestsPerMinute = 100
)

// PixabayConfig configures the Pixabay client
type PixabayConfig struct {
	APIKey  string
	BaseURL string // optional, defaults to the public endpoint

	Policy  retry.Policy
	Limiter *throttle.Limiter
	Logger  *slog.Logger
}

// PixabayClient implements ImageSearcher for Pixabay API
type PixabayClient struct {
	config     PixabayConfig
	httpClient *http.Client
	logger     *slog.Logger
}

// pixabayResponse represents the API response structure
type pixabayResponse struct {
	Total     int            `json:"total"`
	TotalHits int            `json:"totalHits"`
	Hits      []pixabayImage `json:"hits"`
}

// pixabayImage represents a single image in the response
type pixabayImage struct {
	ID              int    `json:"id"`
	PageURL         string `json:"pageURL"`
	Type            string `json:"type"`
	Tags            string `json:"tags"`
	PreviewURL      string `json:"previewURL"`
	WebformatURL    string `json:"webformatURL"`
	WebformatWidth  int    `json:"webformatWidth"`
	WebformatHeight int    `json:"webformatHeight"`
	User            string `json:"user"`
}

// NewPixabayClient creates a new Pixabay API client. Without a limiter one
// is created with the free tier budget.
func NewPixabayClient(config PixabayConfig) (*PixabayClient, error) {
	if config.APIKey == "" {
		return nil, fmt.Errorf("Pixabay API key is required")
	}
	if config.BaseURL == "" {
		config.BaseURL = pixabayAPIURL
	}
	if config.Limiter == nil {
		config.Limiter = throttle.New("pixabay", throttle.Config{RequestsPerMinute: PixabayRequestsPerMinute})
	}
	if config.Logger == nil {
		config.Logger = slog.Default()
	}

	return &PixabayClient{
		config:     config,
		httpClient: &http.Client{Timeout: pixabayTimeout},
		logger:     config.Logger.With("component", "pixabay"),
	}, nil
}

// Search performs an image search on Pixabay
func (p *PixabayClient) Search(ctx context.Context, opts *SearchOptions) ([]SearchResult, error) {
	perPage := opts.PerPage
	if perPage < 3 {
		perPage = 3 // API minimum
	}
	imageType := opts.ImageType
	if imageType == "" {
		imageType = "all"
	}

	params := url.Values{}
	params.Set("key", p.config.APIKey)
	params.Set("q", opts.Query)
	params.Set("lang", "en")
	params.Set("image_type", imageType)
	params.Set("safesearch", fmt.Sprintf("%t", opts.SafeSearch))
	params.Set("per_page", fmt.Sprintf("%d", perPage))
	reqURL := p.config.BaseURL + "?" + params.Encode()

	policy := p.config.Policy.WithNotify(func(err error, wait time.Duration) {
		p.logger.Warn("retrying image search", "query", opts.Query, "wait", wait, "error", err)
	})

	return retry.DoValue(ctx, policy, func(ctx context.Context) ([]SearchResult, error) {
		var results []SearchResult
		err := p.config.Limiter.Do(ctx, func(ctx context.Context) error {
			resp, err := openURL(ctx, p.httpClient, p.Name(), "search", reqURL)
			if err != nil {
				return err
			}
			defer resp.Body.Close()

			var pixResp pixabayResponse
			if err := json.NewDecoder(resp.Body).Decode(&pixResp); err != nil {
				return svcerr.Permanent(p.Name(), "search", 0, fmt.Errorf("failed to decode response: %w", err))
			}

			results = make([]SearchResult, 0, len(pixResp.Hits))
			for _, hit := range pixResp.Hits {
				results = append(results, SearchResult{
					ID:           fmt.Sprintf("%d", hit.ID),
					URL:          hit.WebformatURL,
					ThumbnailURL: hit.PreviewURL,
					Width:        hit.WebformatWidth,
					Height:       hit.WebformatHeight,
					Title:        hit.Tags,
					ContextURL:   hit.PageURL,
					Source:       p.Name(),
				})
			}
			return nil
		})
		return results, err
	})
}

// Download opens an image from the given URL
func (p *PixabayClient) Download(ctx context.Context, imageURL string) (io.ReadCloser, string, error) {
	resp, err := openURL(ctx, p.httpClient, p.Name(), "download", imageURL)
	if err != nil {
		return nil, "", err
	}
	return resp.Body, resp.Header.Get("Content-Type"), nil
}

// Name returns the name of the search provider
func (p *PixabayClient) Name() string {
	return "pixabay"
}
