package download

import (
	"context"
	"log"
	"strings"
	"time"

	"github.com/etdget/etd-downloader/internal/browser"
	"github.com/etdget/etd-downloader/internal/model"
)

// Fetch timing and retry policy
const (
	DefaultFetchTimeout   = 60 * time.Second
	DefaultNetworkRetries = 2
	DefaultRetryBackoff   = 2 * time.Second
)

// Markers identifying the file-API request among the viewer page's traffic
const (
	BrowserFileMarker = "BrowserFile"
	FileAPIMarker     = "api/v1/File"
)

// FetchResult is the captured payload of one successful fetch
type FetchResult struct {
	Ref         *model.ResourceRef
	Body        []byte
	HTTPStatus  int
	ContentType string
}

// Fetcher drives a browser page to the viewer URL and captures the PDF bytes
// the page requests with its own session context.
type Fetcher struct {
	capability browser.Capability
	timeout    time.Duration
	retries    int
	backoff    time.Duration
}

// NewFetcher creates a fetcher over the given browser capability
func NewFetcher(capability browser.Capability) *Fetcher {
	return &Fetcher{
		capability: capability,
		timeout:    DefaultFetchTimeout,
		retries:    DefaultNetworkRetries,
		backoff:    DefaultRetryBackoff,
	}
}

// SetTimeout sets the per-attempt fetch timeout
func (f *Fetcher) SetTimeout(timeout time.Duration) {
	if timeout > 0 {
		f.timeout = timeout
	}
}

// Fetch captures the document behind ref. Network-kind failures are retried
// with backoff up to the configured bound; every other kind is terminal
// immediately, since retrying cannot fix an expired signature or a missing
// record.
func (f *Fetcher) Fetch(ctx context.Context, ref *model.ResourceRef) (*FetchResult, error) {
	var lastErr error

	for attempt := 0; attempt <= f.retries; attempt++ {
		if attempt > 0 {
			select {
			case <-time.After(f.backoff * time.Duration(attempt)):
			case <-ctx.Done():
				return nil, ctx.Err()
			}
			log.Printf("Retrying fetch for record %s, attempt %d", ref.RecordID, attempt+1)
		}

		result, err := f.fetchOnce(ctx, ref)
		if err == nil {
			return result, nil
		}
		lastErr = err

		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		if !model.KindOf(err).Retryable() {
			return nil, err
		}
		log.Printf("Fetch attempt %d failed for record %s: %v", attempt+1, ref.RecordID, err)
	}

	return nil, lastErr
}

// fetchOnce performs a single page navigation and response capture. The page
// is released on every exit path.
func (f *Fetcher) fetchOnce(ctx context.Context, ref *model.ResourceRef) (*FetchResult, error) {
	fetchCtx, cancel := context.WithTimeout(ctx, f.timeout)
	defer cancel()

	page, err := f.capability.OpenPage(fetchCtx, ref.SourceURL)
	if err != nil {
		return nil, model.NewFetchError(model.KindNetwork, "open viewer page: %v", err)
	}
	defer page.Close()

	resp, err := page.AwaitResponse(fetchCtx, matchFileResponse)
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, model.NewFetchError(model.KindNetwork,
			"no file response within %s: %v", f.timeout, err)
	}

	if resp.Status < 200 || resp.Status >= 300 {
		return nil, model.NewStatusError(resp.Status, "file response for record %s rejected", ref.RecordID)
	}
	if len(resp.Body) == 0 {
		return nil, model.NewFetchError(model.KindUnexpectedStatus,
			"empty payload for record %s; the link may have expired", ref.RecordID)
	}
	if !isDocumentPayload(resp.ContentType) {
		return nil, model.NewFetchError(model.KindUnexpectedStatus,
			"non-PDF payload %q for record %s", resp.ContentType, ref.RecordID)
	}

	return &FetchResult{
		Ref:         ref,
		Body:        resp.Body,
		HTTPStatus:  resp.Status,
		ContentType: resp.ContentType,
	}, nil
}

// matchFileResponse selects the file-API response among everything the viewer
// page loads. Matching is by URL so that rejected (non-2xx) file responses
// are still observed and classified instead of timing out.
func matchFileResponse(url, contentType string) bool {
	return strings.Contains(url, BrowserFileMarker) || strings.Contains(url, FileAPIMarker)
}

// isDocumentPayload accepts the content types the server uses for the binary
// file response.
func isDocumentPayload(contentType string) bool {
	ct := strings.ToLower(contentType)
	return strings.Contains(ct, "pdf") || strings.Contains(ct, "octet-stream")
}
