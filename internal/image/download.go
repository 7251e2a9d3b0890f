package image

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"mime"
	"net/http"
	"path"
	"strings"

	"codeberg.org/snonux/smartdeck/internal"
	"codeberg.org/snonux/smartdeck/internal/card"
	"codeberg.org/snonux/smartdeck/internal/svcerr"
)

// DownloadOptions configures image download behavior
type DownloadOptions struct {
	PerPage      int   // Number of candidates to request
	MaxSizeBytes int64 // Maximum file size to download (0 = no limit)
	MaxAttempts  int   // Candidates to try downloading before giving up
}

// DefaultDownloadOptions returns sensible defaults for image downloads
func DefaultDownloadOptions() *DownloadOptions {
	return &DownloadOptions{
		PerPage:      10,
		MaxSizeBytes: 5 * 1024 * 1024, // 5MB, Anki syncs media
		MaxAttempts:  3,
	}
}

// Downloader finds and fetches the best image for a word
type Downloader struct {
	searcher ImageSearcher
	options  *DownloadOptions
	logger   *slog.Logger
}

// NewDownloader creates a new image downloader
func NewDownloader(searcher ImageSearcher, options *DownloadOptions, logger *slog.Logger) *Downloader {
	if options == nil {
		options = DefaultDownloadOptions()
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Downloader{
		searcher: searcher,
		options:  options,
		logger:   logger.With("component", "images", "provider", searcher.Name()),
	}
}

// Name returns the provider name of the underlying searcher
func (d *Downloader) Name() string {
	return d.searcher.Name()
}

// FetchBest searches for word, filters the results and downloads the first
// candidate that passes. It returns nil media without error when no
// candidate is usable; "no image" is a normal outcome.
func (d *Downloader) FetchBest(ctx context.Context, word string) (*card.Media, error) {
	opts := DefaultSearchOptions(word)
	opts.PerPage = d.options.PerPage

	results, err := d.searcher.Search(ctx, opts)
	if err != nil {
		return nil, fmt.Errorf("search failed: %w", err)
	}

	candidates := NewFilter(word).Apply(results)
	d.logger.Debug("image candidates", "word", word, "results", len(results), "passed", len(candidates))

	attempts := 0
	for i, result := range candidates {
		if d.options.MaxAttempts > 0 && attempts >= d.options.MaxAttempts {
			break
		}
		attempts++

		media, err := d.download(ctx, word, result)
		if err == nil {
			return media, nil
		}
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}

		// Log error and try next
		d.logger.Warn("failed to download image candidate", "index", i+1, "url", result.URL, "error", err)
	}

	return nil, nil
}

// download reads one candidate into memory, enforcing the size limit and
// an image content type
func (d *Downloader) download(ctx context.Context, word string, result SearchResult) (*card.Media, error) {
	reader, contentType, err := d.searcher.Download(ctx, result.URL)
	if err != nil {
		return nil, err
	}
	defer reader.Close()

	var data []byte
	if d.options.MaxSizeBytes > 0 {
		data, err = io.ReadAll(io.LimitReader(reader, d.options.MaxSizeBytes+1))
		if err == nil && int64(len(data)) > d.options.MaxSizeBytes {
			return nil, svcerr.Permanent(d.Name(), "download", 0,
				fmt.Errorf("image exceeds maximum size of %d bytes", d.options.MaxSizeBytes))
		}
	} else {
		data, err = io.ReadAll(reader)
	}
	if err != nil {
		return nil, svcerr.Classify(d.Name(), "download", 0, fmt.Errorf("failed to read image: %w", err))
	}
	if len(data) == 0 {
		return nil, svcerr.Permanent(d.Name(), "download", 0, fmt.Errorf("empty image"))
	}

	mediaType := imageType(contentType, data)
	ext := extensionFor(mediaType, result.URL)
	if ext == "" {
		return nil, svcerr.Permanent(d.Name(), "download", 0, fmt.Errorf("not an image: %s", mediaType))
	}

	return &card.Media{
		Filename:    internal.SanitizeFilename(word) + "_image" + ext,
		ContentType: mediaType,
		Data:        data,
	}, nil
}

// imageType prefers the sniffed type over the header, which CDNs often get
// wrong
func imageType(header string, data []byte) string {
	sniffed := http.DetectContentType(data)
	if strings.HasPrefix(sniffed, "image/") {
		return sniffed
	}
	if mt, _, err := mime.ParseMediaType(header); err == nil && strings.HasPrefix(mt, "image/") && sniffed == "application/octet-stream" {
		return mt
	}
	return sniffed
}

func extensionFor(mediaType, rawURL string) string {
	switch mediaType {
	case "image/jpeg":
		return ".jpg"
	case "image/png":
		return ".png"
	case "image/gif":
		return ".gif"
	case "image/webp":
		return ".webp"
	}
	if strings.HasPrefix(mediaType, "image/") {
		if ext := strings.ToLower(path.Ext(rawURL)); supportedExtensions[ext] {
			return ext
		}
	}
	return ""
}
