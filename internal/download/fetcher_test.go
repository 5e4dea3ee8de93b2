package download

import (
	"bytes"
	"context"
	"errors"
	"testing"
	"time"

	"github.com/etdget/etd-downloader/internal/browser"
	"github.com/etdget/etd-downloader/internal/model"
	"github.com/etdget/etd-downloader/internal/platform"
)

func testRef(t *testing.T, recordID string) *model.ResourceRef {
	t.Helper()
	ref, err := platform.ParseViewerURL(viewerURL(recordID))
	if err != nil {
		t.Fatalf("failed to parse test URL: %v", err)
	}
	return ref
}

func newTestFetcher(capability browser.Capability) *Fetcher {
	f := NewFetcher(capability)
	f.timeout = 50 * time.Millisecond
	f.backoff = time.Millisecond
	return f
}

func TestFetchSuccess(t *testing.T) {
	payload := []byte("%PDF-1.7 test payload")
	stub := &stubCapability{
		script: func(call int, url string) (*browser.Response, error) {
			return pdfResponse("15798", 200, payload), nil
		},
	}
	f := newTestFetcher(stub)

	result, err := f.Fetch(context.Background(), testRef(t, "15798"))
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if !bytes.Equal(result.Body, payload) {
		t.Error("payload should pass through unmodified")
	}
	if result.HTTPStatus != 200 {
		t.Errorf("HTTPStatus = %d, expected 200", result.HTTPStatus)
	}
	if result.ContentType != "application/pdf" {
		t.Errorf("ContentType = %q", result.ContentType)
	}
	if stub.openCount() != 1 {
		t.Errorf("expected 1 page open, got %d", stub.openCount())
	}
	if got := stub.closes.Load(); got != 1 {
		t.Errorf("expected 1 page close, got %d", got)
	}
}

func TestFetchForbiddenNotRetried(t *testing.T) {
	stub := &stubCapability{
		script: func(call int, url string) (*browser.Response, error) {
			return pdfResponse("15798", 403, nil), nil
		},
	}
	f := newTestFetcher(stub)

	_, err := f.Fetch(context.Background(), testRef(t, "15798"))
	if err == nil {
		t.Fatal("expected error for 403 response")
	}
	if kind := model.KindOf(err); kind != model.KindSignatureExpired {
		t.Errorf("error kind = %s, expected %s", kind, model.KindSignatureExpired)
	}
	// terminal kinds get zero retries
	if stub.openCount() != 1 {
		t.Errorf("expected exactly 1 attempt, got %d", stub.openCount())
	}
	if got := stub.closes.Load(); got != 1 {
		t.Errorf("page leaked: %d closes for 1 open", got)
	}
}

func TestFetchNotFound(t *testing.T) {
	stub := &stubCapability{
		script: func(call int, url string) (*browser.Response, error) {
			return pdfResponse("99999", 404, nil), nil
		},
	}
	f := newTestFetcher(stub)

	_, err := f.Fetch(context.Background(), testRef(t, "99999"))
	if kind := model.KindOf(err); kind != model.KindNotFound {
		t.Errorf("error kind = %s, expected %s", kind, model.KindNotFound)
	}
	if stub.openCount() != 1 {
		t.Errorf("expected exactly 1 attempt, got %d", stub.openCount())
	}
}

func TestFetchNetworkRetriedThenSucceeds(t *testing.T) {
	payload := []byte("%PDF-1.7 eventually")
	stub := &stubCapability{
		openErr: func(call int) error {
			if call == 1 {
				return errors.New("connection refused")
			}
			return nil
		},
		script: func(call int, url string) (*browser.Response, error) {
			return pdfResponse("15798", 200, payload), nil
		},
	}
	f := newTestFetcher(stub)

	result, err := f.Fetch(context.Background(), testRef(t, "15798"))
	if err != nil {
		t.Fatalf("expected retry to succeed, got %v", err)
	}
	if !bytes.Equal(result.Body, payload) {
		t.Error("unexpected payload after retry")
	}
	if stub.openCount() != 2 {
		t.Errorf("expected 2 attempts, got %d", stub.openCount())
	}
}

func TestFetchRetriesBounded(t *testing.T) {
	stub := &stubCapability{
		openErr: func(call int) error {
			return errors.New("connection refused")
		},
	}
	f := newTestFetcher(stub)

	_, err := f.Fetch(context.Background(), testRef(t, "15798"))
	if err == nil {
		t.Fatal("expected error when every attempt fails")
	}
	if kind := model.KindOf(err); kind != model.KindNetwork {
		t.Errorf("error kind = %s, expected %s", kind, model.KindNetwork)
	}
	if want := DefaultNetworkRetries + 1; stub.openCount() != want {
		t.Errorf("expected %d attempts, got %d", want, stub.openCount())
	}
}

func TestFetchTimeoutIsNetworkKind(t *testing.T) {
	// script returns no response: the page never observes the file request
	stub := &stubCapability{}
	f := newTestFetcher(stub)
	f.retries = 0

	_, err := f.Fetch(context.Background(), testRef(t, "15798"))
	if err == nil {
		t.Fatal("expected timeout error")
	}
	if kind := model.KindOf(err); kind != model.KindNetwork {
		t.Errorf("error kind = %s, expected %s", kind, model.KindNetwork)
	}
	if got := stub.closes.Load(); got != 1 {
		t.Errorf("page leaked on timeout: %d closes", got)
	}
}

func TestFetchNonPDFPayload(t *testing.T) {
	stub := &stubCapability{
		script: func(call int, url string) (*browser.Response, error) {
			return &browser.Response{
				URL:         "https://etd.xjtlu.edu.cn/api/v1/File/BrowserFile?recordId=15798",
				Status:      200,
				ContentType: "text/html",
				Body:        []byte("<html>expired</html>"),
			}, nil
		},
	}
	f := newTestFetcher(stub)

	_, err := f.Fetch(context.Background(), testRef(t, "15798"))
	if kind := model.KindOf(err); kind != model.KindUnexpectedStatus {
		t.Errorf("error kind = %s, expected %s", kind, model.KindUnexpectedStatus)
	}
	if stub.openCount() != 1 {
		t.Errorf("expected exactly 1 attempt, got %d", stub.openCount())
	}
}

func TestFetchCancelled(t *testing.T) {
	stub := &stubCapability{}
	f := newTestFetcher(stub)
	f.timeout = 10 * time.Second

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		time.Sleep(10 * time.Millisecond)
		cancel()
	}()

	_, err := f.Fetch(ctx, testRef(t, "15798"))
	if !errors.Is(err, context.Canceled) {
		t.Errorf("expected context.Canceled, got %v", err)
	}
	if got := stub.closes.Load(); got != 1 {
		t.Errorf("page leaked on cancellation: %d closes", got)
	}
}

func TestMatchFileResponse(t *testing.T) {
	tests := []struct {
		name     string
		url      string
		expected bool
	}{
		{"browser file endpoint", "https://etd.xjtlu.edu.cn/api/v1/File/BrowserFile?recordId=1", true},
		{"file api without marker", "https://etd.xjtlu.edu.cn/api/v1/File/Meta", true},
		{"viewer asset", "https://etd.xjtlu.edu.cn/static/readonline/web/viewer.css", false},
		{"unrelated", "https://etd.xjtlu.edu.cn/favicon.ico", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := matchFileResponse(tt.url, "application/pdf"); got != tt.expected {
				t.Errorf("matchFileResponse(%q) = %v, expected %v", tt.url, got, tt.expected)
			}
		})
	}
}
