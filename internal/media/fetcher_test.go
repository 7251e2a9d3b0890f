package media

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"codeberg.org/snonux/smartdeck/internal/image"
	"codeberg.org/snonux/smartdeck/internal/testutil"
)

func TestFetchAll(t *testing.T) {
	us := &testutil.FakeSpeaker{Accent: "us"}
	uk := &testutil.FakeSpeaker{Accent: "uk"}
	searcher := &testutil.FakeSearcher{
		Results: []image.SearchResult{{URL: "https://img.example.com/apple.jpg", Title: "red apple"}},
		Images:  map[string][]byte{"https://img.example.com/apple.jpg": testutil.JPEGData},
	}
	f := New(us, uk, image.NewDownloader(searcher, nil, nil), nil)

	res := f.Fetch(context.Background(), "apple", true)
	require.NotNil(t, res.USAudio)
	require.NotNil(t, res.UKAudio)
	require.NotNil(t, res.Image)
	assert.Equal(t, "apple_us.mp3", res.USAudio.Filename)
	assert.Equal(t, "apple_uk.mp3", res.UKAudio.Filename)
	assert.Equal(t, "image/jpeg", res.Image.ContentType)
	assert.Empty(t, res.Notices)
	assert.Empty(t, res.Errs)
}

func TestFetchWithoutImages(t *testing.T) {
	searcher := &testutil.FakeSearcher{}
	f := New(&testutil.FakeSpeaker{Accent: "us"}, &testutil.FakeSpeaker{Accent: "uk"},
		image.NewDownloader(searcher, nil, nil), nil)

	res := f.Fetch(context.Background(), "apple", false)
	assert.Nil(t, res.Image)
	assert.Zero(t, searcher.Searches())
	assert.Empty(t, res.Notices)
}

func TestFetchNoSafeImage(t *testing.T) {
	searcher := &testutil.FakeSearcher{
		Results: []image.SearchResult{
			{URL: "https://www.pinterest.com/a.jpg", Title: "apple"},
			{URL: "https://img.example.com/b.jpg", Title: "apple meaning and definition"},
		},
	}
	f := New(&testutil.FakeSpeaker{Accent: "us"}, &testutil.FakeSpeaker{Accent: "uk"},
		image.NewDownloader(searcher, nil, nil), nil)

	res := f.Fetch(context.Background(), "apple", true)
	assert.Nil(t, res.Image)
	assert.Contains(t, res.Notices, NoticeNoImage)
	assert.Empty(t, res.Errs)
	assert.NotNil(t, res.USAudio)
}

func TestFetchPartialFailure(t *testing.T) {
	boom := errors.New("tts down")
	f := New(&testutil.FakeSpeaker{Accent: "us", Err: boom}, &testutil.FakeSpeaker{Accent: "uk"}, nil, nil)

	res := f.Fetch(context.Background(), "apple", true)
	assert.Nil(t, res.USAudio)
	assert.NotNil(t, res.UKAudio)
	assert.ErrorIs(t, res.Errs[ArtifactUSAudio], boom)
	assert.Contains(t, res.Notices, "image search not configured")
	assert.Len(t, res.Notices, 2)
}
