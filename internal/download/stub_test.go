package download

import (
	"context"
	"sync"
	"sync/atomic"

	"github.com/etdget/etd-downloader/internal/browser"
)

// stubCapability satisfies browser.Capability for tests. Each OpenPage call
// is numbered; script decides what that page's file response looks like.
type stubCapability struct {
	mu     sync.Mutex
	opens  int
	closes atomic.Int32

	// openErr, if set, may fail the page open itself (network-level failure)
	openErr func(call int) error
	// script produces the page's matched response; a nil response blocks
	// until the context ends, imitating a viewer that never issues the file
	// request
	script func(call int, url string) (*browser.Response, error)
}

func (c *stubCapability) OpenPage(ctx context.Context, url string) (browser.Page, error) {
	c.mu.Lock()
	c.opens++
	call := c.opens
	c.mu.Unlock()

	if c.openErr != nil {
		if err := c.openErr(call); err != nil {
			return nil, err
		}
	}

	var resp *browser.Response
	var err error
	if c.script != nil {
		resp, err = c.script(call, url)
	}
	return &stubPage{resp: resp, err: err, closes: &c.closes}, nil
}

func (c *stubCapability) openCount() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.opens
}

type stubPage struct {
	resp   *browser.Response
	err    error
	closes *atomic.Int32
}

func (p *stubPage) AwaitResponse(ctx context.Context, match func(url, contentType string) bool) (*browser.Response, error) {
	if p.err != nil {
		return nil, p.err
	}
	if p.resp != nil && match(p.resp.URL, p.resp.ContentType) {
		return p.resp, nil
	}
	<-ctx.Done()
	return nil, ctx.Err()
}

func (p *stubPage) Close() error {
	p.closes.Add(1)
	return nil
}

// pdfResponse builds a matched file-API response for a record
func pdfResponse(recordID string, status int, body []byte) *browser.Response {
	return &browser.Response{
		URL:         "https://etd.xjtlu.edu.cn/api/v1/File/BrowserFile?recordId=" + recordID,
		Status:      status,
		ContentType: "application/pdf",
		Body:        body,
	}
}

// viewerURL builds a well-formed viewer URL for a record
func viewerURL(recordID string) string {
	return "https://etd.xjtlu.edu.cn/static/readonline/web/viewer.html" +
		"?file=%2Fapi%2Fv1%2FFile%2FBrowserFile%3FdbCode%3DEXAMXJTLU%26recordId%3D" + recordID +
		"%26timestamp%3D1765788896%26signature%3Dabc123"
}
