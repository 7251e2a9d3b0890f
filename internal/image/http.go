package image

import (
	"context"
	"fmt"
	"io"
	"net/http"

	"codeberg.org/snonux/smartdeck/internal/svcerr"
)

// userAgent is sent with every download; several image hosts reject the
// default Go client.
const userAgent = "Mozilla/5.0 (X11; Linux x86_64) AppleWebKit/537.36 (KHTML, like Gecko) smartdeck"

// openURL performs a GET and classifies failures for the retry policy. The
// caller owns the returned body.
func openURL(ctx context.Context, client *http.Client, service, op, rawURL string) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, svcerr.Permanent(service, op, 0, fmt.Errorf("failed to create request: %w", err))
	}
	req.Header.Set("User-Agent", userAgent)

	resp, err := client.Do(req)
	if err != nil {
		return nil, svcerr.Classify(service, op, 0, fmt.Errorf("request failed: %w", err))
	}

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		resp.Body.Close()
		return nil, svcerr.Classify(service, op, resp.StatusCode, fmt.Errorf("status %d: %s", resp.StatusCode, body))
	}

	return resp, nil
}
