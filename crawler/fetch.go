package crawler

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"

	"golang.org/x/net/html/charset"
)

// defaultUserAgent identifies the crawler to the remote servers it visits.
const defaultUserAgent = "FinaiBot/0.2"

// fetchURL performs an HTTP GET request for the provided url using the
// crawler's descriptive user-agent header and returns the response when
// the server replies with a 2xx status code.
func fetchURL(
	ctx context.Context, getter URLGetter, userAgent, url string,
) (*http.Response, error) {

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}

	req.Header.Set("User-Agent", userAgent)

	resp, err := getter.Do(req)
	if err != nil {
		return nil, err
	}

	// Only allow 2xx response status codes.
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		drainAndClose(resp.Body)

		return nil, fmt.Errorf("unexpected response status: %d", resp.StatusCode)
	}

	return resp, nil
}

// fetchHTML retrieves the page at url and writes the response body to w
// after decoding it with the detected response encoding.
func fetchHTML(
	ctx context.Context, getter URLGetter, userAgent, url string, w io.Writer,
) error {

	resp, err := fetchURL(ctx, getter, userAgent, url)
	if err != nil {
		return err
	}
	defer drainAndClose(resp.Body)

	// Skip non html responses.
	contentType := resp.Header.Get("Content-Type")
	if contentType != "" && !strings.Contains(contentType, "html") {
		return fmt.Errorf("unexpected content type: %q", contentType)
	}

	body, err := charset.NewReader(resp.Body, contentType)
	if err != nil {
		return err
	}

	_, err = io.Copy(w, body)

	return err
}

func drainAndClose(body io.ReadCloser) {
	_, _ = io.Copy(io.Discard, body)
	_ = body.Close()
}
