package image

import (
	"context"
	"io"
)

// SearchResult represents a single image search result
type SearchResult struct {
	ID           string // Unique identifier
	URL          string // Direct URL to the image
	ThumbnailURL string // URL to thumbnail version
	Width        int    // Image width in pixels
	Height       int    // Image height in pixels
	Title        string // Image title or tags
	ContextURL   string // Page the image was found on
	MimeType     string // Reported MIME type, may be empty
	Source       string // Source provider (e.g., "google", "pixabay")
}

// SearchOptions configures the image search
type SearchOptions struct {
	Query      string // Search query (the word)
	SafeSearch bool   // Enable safe search filtering
	PerPage    int    // Number of results to request
	ImageType  string // Provider specific type hint: "photo", "clipart", ...
}

// DefaultSearchOptions returns sensible defaults for word searches
func DefaultSearchOptions(query string) *SearchOptions {
	return &SearchOptions{
		Query:      query,
		SafeSearch: true,
		PerPage:    10,
	}
}

// ImageSearcher defines the interface for image search providers
type ImageSearcher interface {
	// Search performs an image search with the given options
	Search(ctx context.Context, opts *SearchOptions) ([]SearchResult, error)

	// Download opens the image at the given URL
	Download(ctx context.Context, url string) (io.ReadCloser, string, error)

	// Name returns the name of the search provider
	Name() string
}
