package image

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"codeberg.org/snonux/smartdeck/internal/retry"
	"codeberg.org/snonux/smartdeck/internal/svcerr"
)

func fastPolicy() retry.Policy {
	return retry.Policy{MaxAttempts: 3, BaseDelay: time.Millisecond, MaxDelay: time.Millisecond}
}

func TestGoogleClientSearch(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if atomic.AddInt32(&calls, 1) == 1 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		q := r.URL.Query()
		for key, want := range map[string]string{
			"q": "serendipity", "cx": "engine", "key": "secret",
			"searchType": "image", "safe": "active", "num": "10",
		} {
			assert.Equal(t, want, q.Get(key), "query %s", key)
		}
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, `{"items":[{"title":"Serendipity","link":"https://img.example.com/s.jpg","mime":"image/jpeg",
			"image":{"contextLink":"https://example.com/s","width":640,"height":480,"thumbnailLink":"https://t/s.jpg"}}]}`)
	}))
	defer srv.Close()

	client, err := NewGoogleClient(GoogleConfig{APIKey: "secret", EngineID: "engine", BaseURL: srv.URL, Policy: fastPolicy()})
	require.NoError(t, err)

	results, err := client.Search(context.Background(), DefaultSearchOptions("serendipity"))
	require.NoError(t, err)
	require.Len(t, results, 1)
	r := results[0]
	assert.Equal(t, "https://img.example.com/s.jpg", r.URL)
	assert.Equal(t, 640, r.Width)
	assert.Equal(t, "https://example.com/s", r.ContextURL)
	assert.Equal(t, "google", r.Source)
	assert.Equal(t, int32(2), atomic.LoadInt32(&calls), "expected one retry")
}

func TestGoogleClientForbidden(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
		fmt.Fprint(w, `{"error":{"message":"API key not valid"}}`)
	}))
	defer srv.Close()

	client, err := NewGoogleClient(GoogleConfig{APIKey: "bad", EngineID: "engine", BaseURL: srv.URL, Policy: fastPolicy()})
	require.NoError(t, err)

	_, err = client.Search(context.Background(), DefaultSearchOptions("run"))
	assert.True(t, svcerr.IsPermanent(err), "got %v", err)
}

func TestNewGoogleClientRequiresCredentials(t *testing.T) {
	_, err := NewGoogleClient(GoogleConfig{APIKey: "key"})
	assert.Error(t, err, "engine ID is required")
}

func TestPixabayClientSearchAndDownload(t *testing.T) {
	mux := http.NewServeMux()
	var srvURL string
	mux.HandleFunc("/api/", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "true", r.URL.Query().Get("safesearch"))
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprintf(w, `{"total":1,"totalHits":1,"hits":[{"id":7,"pageURL":"https://pixabay.com/photos/7","tags":"cat, pet",
			"previewURL":"%[1]s/p.png","webformatURL":"%[1]s/img/7.png","webformatWidth":640,"webformatHeight":427,"user":"someone"}]}`, srvURL)
	})
	mux.HandleFunc("/img/7.png", func(w http.ResponseWriter, r *http.Request) {
		assert.NotEmpty(t, r.Header.Get("User-Agent"))
		w.Header().Set("Content-Type", "image/png")
		fmt.Fprint(w, pngHeader)
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()
	srvURL = srv.URL

	client, err := NewPixabayClient(PixabayConfig{APIKey: "key", BaseURL: srv.URL + "/api/", Policy: fastPolicy()})
	require.NoError(t, err)

	results, err := client.Search(context.Background(), DefaultSearchOptions("cat"))
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, "7", results[0].ID)
	assert.Equal(t, "cat, pet", results[0].Title)

	body, contentType, err := client.Download(context.Background(), results[0].URL)
	require.NoError(t, err)
	defer body.Close()
	data, _ := io.ReadAll(body)
	assert.Equal(t, pngHeader, string(data))
	assert.Equal(t, "image/png", contentType)
}

func TestPixabayDownloadNotFound(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	defer srv.Close()

	client, err := NewPixabayClient(PixabayConfig{APIKey: "key", BaseURL: srv.URL})
	require.NoError(t, err)

	_, _, err = client.Download(context.Background(), srv.URL+"/gone.jpg")
	assert.True(t, svcerr.IsPermanent(err), "got %v", err)
}
