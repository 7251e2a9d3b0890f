package image

import (
	"context"
	"errors"
	"io"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// pngHeader is enough for http.DetectContentType to report image/png
const pngHeader = "\x89PNG\r\n\x1a\n\x00\x00\x00\rIHDR"

// mockSearcher implements ImageSearcher for testing
type mockSearcher struct {
	name          string
	searchResults []SearchResult
	searchErr     error
	downloads     map[string]string // url -> body
	downloadErr   error
	downloaded    []string
}

func (m *mockSearcher) Search(ctx context.Context, opts *SearchOptions) ([]SearchResult, error) {
	if m.searchErr != nil {
		return nil, m.searchErr
	}
	return m.searchResults, nil
}

func (m *mockSearcher) Download(ctx context.Context, url string) (io.ReadCloser, string, error) {
	m.downloaded = append(m.downloaded, url)
	if m.downloadErr != nil {
		return nil, "", m.downloadErr
	}
	body, ok := m.downloads[url]
	if !ok {
		return nil, "", errors.New("404")
	}
	return io.NopCloser(strings.NewReader(body)), "image/png", nil
}

func (m *mockSearcher) Name() string {
	return m.name
}

func TestDefaultSearchOptions(t *testing.T) {
	opts := DefaultSearchOptions("serendipity")

	assert.Equal(t, "serendipity", opts.Query)
	assert.True(t, opts.SafeSearch)
	assert.Equal(t, 10, opts.PerPage)
}

func TestFetchBestSkipsFilteredAndBrokenCandidates(t *testing.T) {
	searcher := &mockSearcher{
		name: "mock",
		searchResults: []SearchResult{
			{URL: "https://www.youtube.com/thumb.jpg", Title: "apple video"},
			{URL: "https://cdn.example.com/missing.png", Title: "red apple"},
			{URL: "https://cdn.example.com/apple.png", Title: "green apple"},
		},
		downloads: map[string]string{
			"https://cdn.example.com/apple.png": pngHeader + "data",
		},
	}

	d := NewDownloader(searcher, nil, nil)
	media, err := d.FetchBest(context.Background(), "apple")
	require.NoError(t, err)
	require.NotNil(t, media, "FetchBest() returned no image")
	assert.Equal(t, "apple_image.png", media.Filename)
	assert.Equal(t, "image/png", media.ContentType)
	assert.Len(t, searcher.downloaded, 2)
}

func TestFetchBestNoSafeResult(t *testing.T) {
	searcher := &mockSearcher{
		name: "mock",
		searchResults: []SearchResult{
			{URL: "https://example.com/a.jpg", Title: "serendipity definition"},
			{URL: "https://example.com/b.jpg", Title: "Serendipity poster"},
		},
	}

	media, err := NewDownloader(searcher, nil, nil).FetchBest(context.Background(), "serendipity")
	require.NoError(t, err)
	assert.Nil(t, media)
	assert.Empty(t, searcher.downloaded)
}

func TestFetchBestSearchError(t *testing.T) {
	searcher := &mockSearcher{name: "mock", searchErr: errors.New("quota")}

	_, err := NewDownloader(searcher, nil, nil).FetchBest(context.Background(), "run")
	assert.Error(t, err, "search error must propagate")
}

func TestFetchBestRejectsOversizedAndNonImages(t *testing.T) {
	searcher := &mockSearcher{
		name: "mock",
		searchResults: []SearchResult{
			{URL: "https://example.com/big.png", Title: "big"},
			{URL: "https://example.com/page.png", Title: "html"},
		},
		downloads: map[string]string{
			"https://example.com/big.png":  pngHeader + strings.Repeat("x", 100),
			"https://example.com/page.png": "<html><body>not an image</body></html>",
		},
	}

	opts := &DownloadOptions{PerPage: 5, MaxSizeBytes: 50, MaxAttempts: 5}
	media, err := NewDownloader(searcher, opts, nil).FetchBest(context.Background(), "big")
	require.NoError(t, err)
	assert.Nil(t, media, "no candidate is usable")
}

func TestExtensionFor(t *testing.T) {
	tests := []struct {
		mediaType string
		url       string
		want      string
	}{
		{"image/jpeg", "https://x/a", ".jpg"},
		{"image/png", "https://x/a.jpg", ".png"},
		{"image/bmp", "https://x/a.gif", ".gif"},
		{"image/bmp", "https://x/a.bmp", ""},
		{"text/html; charset=utf-8", "https://x/a.jpg", ""},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, extensionFor(tt.mediaType, tt.url), "%s %s", tt.mediaType, tt.url)
	}
}
