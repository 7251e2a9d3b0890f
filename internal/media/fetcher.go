// Package media gathers the audio and image artifacts of a word.
package media

import (
	"context"
	"log/slog"
	"sync"

	"codeberg.org/snonux/smartdeck/internal/audio"
	"codeberg.org/snonux/smartdeck/internal/card"
)

// Artifact names one fetched item.
type Artifact string

const (
	ArtifactUSAudio Artifact = "us_audio"
	ArtifactUKAudio Artifact = "uk_audio"
	ArtifactImage   Artifact = "image"
)

// NoticeNoImage is reported when image search yields nothing usable.
const NoticeNoImage = "no image found"

// ImageFinder returns the best image for a word, or nil when nothing
// suitable exists. *image.Downloader implements it.
type ImageFinder interface {
	FetchBest(ctx context.Context, word string) (*card.Media, error)
	Name() string
}

// Result holds whatever could be fetched. Missing artifacts are nil and
// explained by Notices and Errs.
type Result struct {
	USAudio *card.Media
	UKAudio *card.Media
	Image   *card.Media
	Notices []string
	Errs    map[Artifact]error
}

// Fetcher runs the speech and image requests for a word concurrently.
type Fetcher struct {
	us     audio.Provider
	uk     audio.Provider
	images ImageFinder
	logger *slog.Logger
}

// New creates a Fetcher. Any capability may be nil, in which case the
// artifact is skipped with a notice.
func New(us, uk audio.Provider, images ImageFinder, logger *slog.Logger) *Fetcher {
	if logger == nil {
		logger = slog.Default()
	}
	return &Fetcher{us: us, uk: uk, images: images, logger: logger.With("component", "media")}
}

// Fetch never fails as a whole: each artifact succeeds or is recorded as
// absent.
func (f *Fetcher) Fetch(ctx context.Context, word string, includeImages bool) Result {
	var (
		mu  sync.Mutex
		wg  sync.WaitGroup
		res = Result{Errs: map[Artifact]error{}}
	)

	record := func(a Artifact, m *card.Media, err error, notice string) {
		mu.Lock()
		defer mu.Unlock()
		switch {
		case err != nil:
			res.Errs[a] = err
			res.Notices = append(res.Notices, notice+": "+err.Error())
			f.logger.Warn("media fetch failed", "word", word, "artifact", string(a), "error", err)
		case m.Empty():
			if notice != "" {
				res.Notices = append(res.Notices, notice)
			}
		default:
			switch a {
			case ArtifactUSAudio:
				res.USAudio = m
			case ArtifactUKAudio:
				res.UKAudio = m
			case ArtifactImage:
				res.Image = m
			}
		}
	}

	speak := func(a Artifact, p audio.Provider, label string) {
		defer wg.Done()
		if p == nil {
			record(a, nil, nil, label+" not configured")
			return
		}
		m, err := p.Synthesize(ctx, word)
		record(a, m, err, label+" unavailable")
	}

	wg.Add(2)
	go speak(ArtifactUSAudio, f.us, "US audio")
	go speak(ArtifactUKAudio, f.uk, "UK audio")

	if includeImages {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if f.images == nil {
				record(ArtifactImage, nil, nil, "image search not configured")
				return
			}
			m, err := f.images.FetchBest(ctx, word)
			if err != nil {
				record(ArtifactImage, nil, err, "image search failed")
				return
			}
			record(ArtifactImage, m, nil, NoticeNoImage)
		}()
	}

	wg.Wait()
	return res
}
