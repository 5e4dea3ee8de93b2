package platform

import (
	"testing"

	"github.com/etdget/etd-downloader/internal/model"
)

const sampleViewerURL = "https://etd.xjtlu.edu.cn/static/readonline/web/viewer.html" +
	"?file=%2Fapi%2Fv1%2FFile%2FBrowserFile%3FdbCode%3DEXAMXJTLU%26recordId%3D15798" +
	"%26dbId%3D3%26flag%3D0%26timestamp%3D1765788896%26signature%3Dabc123%26clientIp%3D180.208.58.213" +
	"#page=1&zoom=auto"

func TestParseViewerURL(t *testing.T) {
	ref, err := ParseViewerURL(sampleViewerURL)
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}

	if ref.RecordID != "15798" {
		t.Errorf("RecordID = %q, expected 15798", ref.RecordID)
	}
	if ref.DBCode != "EXAMXJTLU" {
		t.Errorf("DBCode = %q, expected EXAMXJTLU", ref.DBCode)
	}
	if ref.FetchPath != "/api/v1/File/BrowserFile" {
		t.Errorf("FetchPath = %q", ref.FetchPath)
	}

	// fragment is stripped from the canonical source URL
	if ref.SourceURL == sampleViewerURL {
		t.Error("SourceURL should not keep the viewer fragment")
	}
	if got := ref.Param("signature"); got != "abc123" {
		t.Errorf("Param(signature) = %q", got)
	}

	// nested query order is preserved
	wantOrder := []string{"dbCode", "recordId", "dbId", "flag", "timestamp", "signature", "clientIp"}
	if len(ref.Params) != len(wantOrder) {
		t.Fatalf("expected %d params, got %d", len(wantOrder), len(ref.Params))
	}
	for i, key := range wantOrder {
		if ref.Params[i].Key != key {
			t.Errorf("params[%d].Key = %q, expected %q", i, ref.Params[i].Key, key)
		}
	}
}

func TestParseViewerURLDeterministic(t *testing.T) {
	first, err := ParseViewerURL(sampleViewerURL)
	if err != nil {
		t.Fatalf("first parse failed: %v", err)
	}
	second, err := ParseViewerURL(sampleViewerURL)
	if err != nil {
		t.Fatalf("second parse failed: %v", err)
	}
	if !first.Equal(second) {
		t.Error("repeated parses should yield equal refs")
	}
}

func TestParseViewerURLIdempotent(t *testing.T) {
	ref, err := ParseViewerURL(sampleViewerURL)
	if err != nil {
		t.Fatalf("parse failed: %v", err)
	}

	again, err := ParseViewerURL(ref.SourceURL)
	if err != nil {
		t.Fatalf("reparse of SourceURL failed: %v", err)
	}
	if !ref.Equal(again) {
		t.Error("parsing the canonical SourceURL should yield an equal ref")
	}
	if again.SourceURL != ref.SourceURL {
		t.Errorf("SourceURL drifted: %q vs %q", again.SourceURL, ref.SourceURL)
	}
}

func TestParseViewerURLMalformed(t *testing.T) {
	tests := []struct {
		name string
		url  string
	}{
		{"empty", ""},
		{"whitespace only", "   "},
		{"no scheme", "etd.xjtlu.edu.cn/viewer.html?file=x"},
		{"missing file parameter", "https://etd.xjtlu.edu.cn/static/readonline/web/viewer.html?page=1"},
		{"truncated percent encoding", "https://etd.xjtlu.edu.cn/viewer.html?file=%2Fapi%3FrecordId%3D1%2"},
		{"bad escape in nested query", "https://etd.xjtlu.edu.cn/viewer.html?file=/api/v1/File/BrowserFile%3FrecordId%3D%zz"},
		{"missing recordId", "https://etd.xjtlu.edu.cn/viewer.html?file=%2Fapi%2Fv1%2FFile%2FBrowserFile%3FdbCode%3DEXAM"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ref, err := ParseViewerURL(tt.url)
			if err == nil {
				t.Fatalf("expected error, got ref %+v", ref)
			}
			if kind := model.KindOf(err); kind != model.KindMalformedURL {
				t.Errorf("error kind = %s, expected %s", kind, model.KindMalformedURL)
			}
		})
	}
}

func TestValidateViewerURL(t *testing.T) {
	tests := []struct {
		name    string
		url     string
		wantErr bool
	}{
		{"valid viewer URL", sampleViewerURL, false},
		{"empty", "", true},
		{"not http", "ftp://etd.xjtlu.edu.cn/viewer.html?file=x", true},
		{"wrong host", "https://example.com/viewer.html?file=x", true},
		{"not a viewer link", "https://etd.xjtlu.edu.cn/home", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateViewerURL(tt.url)
			if (err != nil) != tt.wantErr {
				t.Errorf("ValidateViewerURL(%q) error = %v, wantErr %v", tt.url, err, tt.wantErr)
			}
		})
	}
}
