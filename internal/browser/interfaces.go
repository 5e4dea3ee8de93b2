package browser

import "context"

// Response is one captured network response from a viewer page
type Response struct {
	URL         string
	Status      int
	ContentType string
	Body        []byte
}

// Page is a transiently held browser tab. Callers must Close it on every
// exit path; a page is never reused across fetches.
type Page interface {
	// AwaitResponse blocks until the page observes a response for which match
	// returns true, then resolves its body. It returns the context error on
	// cancellation or timeout.
	AwaitResponse(ctx context.Context, match func(url, contentType string) bool) (*Response, error)

	Close() error
}

// Capability is the externally managed browser handle the fetcher consumes.
// OpenPage navigates a fresh page to the given URL; the resulting requests
// inherit the browser's network origin and cookie state, which is what the
// signed viewer links are bound to.
type Capability interface {
	OpenPage(ctx context.Context, url string) (Page, error)
}
