package browser

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/playwright-community/playwright-go"
)

// Browser launch configuration
const (
	DefaultUserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 " +
		"(KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36"
	DefaultNavigationTimeout = 60 * time.Second

	ViewportWidth  = 1280
	ViewportHeight = 900
)

// responseBuffer bounds how many page responses are held for matching. Viewer
// pages load dozens of assets; overflow beyond the buffer is dropped because
// the file response is awaited long before the buffer fills.
const responseBuffer = 64

// Driver owns one Chromium process shared by a whole batch run. Pages are
// opened per fetch and closed by the caller.
type Driver struct {
	pw      *playwright.Playwright
	browser playwright.Browser
}

// Install provisions the Playwright driver and a Chromium build. Front ends
// call this once before the first run; the core never installs anything.
func Install() error {
	return playwright.Install(&playwright.RunOptions{Browsers: []string{"chromium"}})
}

// NewDriver starts Playwright and launches Chromium
func NewDriver(headless bool) (*Driver, error) {
	pw, err := playwright.Run()
	if err != nil {
		return nil, fmt.Errorf("could not start playwright: %w", err)
	}

	browser, err := pw.Chromium.Launch(playwright.BrowserTypeLaunchOptions{
		Headless: playwright.Bool(headless),
		Args:     []string{"--disable-blink-features=AutomationControlled"},
	})
	if err != nil {
		pw.Stop()
		return nil, fmt.Errorf("could not launch browser: %w", err)
	}

	return &Driver{pw: pw, browser: browser}, nil
}

// Close shuts down the browser process and the driver
func (d *Driver) Close() error {
	var firstErr error
	if d.browser != nil {
		if err := d.browser.Close(); err != nil {
			firstErr = fmt.Errorf("could not close browser: %w", err)
		}
	}
	if d.pw != nil {
		if err := d.pw.Stop(); err != nil && firstErr == nil {
			firstErr = fmt.Errorf("could not stop playwright: %w", err)
		}
	}
	return firstErr
}

// OpenPage opens a fresh tab, starts capturing its responses, and navigates
// to the viewer URL. Capture starts before navigation so the file response
// cannot be missed.
func (d *Driver) OpenPage(ctx context.Context, url string) (Page, error) {
	page, err := d.browser.NewPage(playwright.BrowserNewPageOptions{
		UserAgent: playwright.String(DefaultUserAgent),
		Viewport:  &playwright.Size{Width: ViewportWidth, Height: ViewportHeight},
	})
	if err != nil {
		return nil, fmt.Errorf("could not open page: %w", err)
	}

	p := &pwPage{page: page, responses: make(chan playwright.Response, responseBuffer)}
	page.OnResponse(func(resp playwright.Response) {
		select {
		case p.responses <- resp:
		default:
		}
	})

	timeout := DefaultNavigationTimeout
	if deadline, ok := ctx.Deadline(); ok {
		timeout = time.Until(deadline)
	}
	if _, err := page.Goto(url, playwright.PageGotoOptions{
		WaitUntil: playwright.WaitUntilStateDomcontentloaded,
		Timeout:   playwright.Float(float64(timeout.Milliseconds())),
	}); err != nil {
		page.Close()
		return nil, fmt.Errorf("could not open viewer page: %w", err)
	}

	return p, nil
}

type pwPage struct {
	page      playwright.Page
	responses chan playwright.Response
}

// AwaitResponse filters captured responses until one matches, then resolves
// its body.
func (p *pwPage) AwaitResponse(ctx context.Context, match func(url, contentType string) bool) (*Response, error) {
	for {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case resp := <-p.responses:
			contentType := headerValue(resp, "content-type")
			if !match(resp.URL(), contentType) {
				continue
			}

			out := &Response{
				URL:         resp.URL(),
				Status:      resp.Status(),
				ContentType: contentType,
			}
			if body, err := resp.Body(); err == nil {
				out.Body = body
			}
			return out, nil
		}
	}
}

// Close releases the tab
func (p *pwPage) Close() error {
	return p.page.Close()
}

func headerValue(resp playwright.Response, name string) string {
	for key, value := range resp.Headers() {
		if strings.EqualFold(key, name) {
			return value
		}
	}
	return ""
}
