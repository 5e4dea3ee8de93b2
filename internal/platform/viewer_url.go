package platform

import (
	"net/url"
	"strings"

	"github.com/etdget/etd-downloader/internal/model"
)

// Viewer URL shape
const (
	ViewerHost       = "etd.xjtlu.edu.cn"
	ViewerPageMarker = "viewer.html"
	ViewerFileParam  = "file"
)

// Nested file-API query keys
const (
	RecordIDParam = "recordId"
	DBCodeParam   = "dbCode"
)

// ParseViewerURL decodes an opaque viewer URL into a ResourceRef. It strips
// the viewer fragment (#page=1&zoom=...), unwraps the percent-encoded file=
// parameter into the underlying file-API path, and reads the record identity
// from that path's own query. Pure function, no network access.
//
// Parsing the SourceURL of a returned ref yields an equal ref.
func ParseViewerURL(raw string) (*model.ResourceRef, error) {
	clean := strings.TrimSpace(raw)
	if clean == "" {
		return nil, model.NewFetchError(model.KindMalformedURL, "empty URL")
	}
	// Drop the in-viewer fragment; it addresses a page, not a document.
	if idx := strings.Index(clean, "#"); idx >= 0 {
		clean = clean[:idx]
	}

	parsed, err := url.Parse(clean)
	if err != nil {
		return nil, model.NewFetchError(model.KindMalformedURL, "unparseable URL: %v", err)
	}
	if parsed.Scheme != "http" && parsed.Scheme != "https" {
		return nil, model.NewFetchError(model.KindMalformedURL, "URL must start with http:// or https://")
	}

	query, err := url.ParseQuery(parsed.RawQuery)
	if err != nil {
		return nil, model.NewFetchError(model.KindMalformedURL, "undecodable viewer query: %v", err)
	}
	wrapped := query.Get(ViewerFileParam)
	if wrapped == "" {
		return nil, model.NewFetchError(model.KindMalformedURL,
			"URL missing %q parameter; copy the full viewer URL", ViewerFileParam)
	}

	// The file= value arrives percent-decoded from ParseQuery and is itself a
	// relative URL whose query identifies the record.
	fetchURL, err := url.Parse(wrapped)
	if err != nil {
		return nil, model.NewFetchError(model.KindMalformedURL, "undecodable file path: %v", err)
	}

	params, err := parseOrderedQuery(fetchURL.RawQuery)
	if err != nil {
		return nil, err
	}

	ref := &model.ResourceRef{
		FetchPath: fetchURL.Path,
		Params:    params,
		SourceURL: clean,
	}
	for _, p := range params {
		switch p.Key {
		case RecordIDParam:
			if ref.RecordID == "" {
				ref.RecordID = p.Value
			}
		case DBCodeParam:
			if ref.DBCode == "" {
				ref.DBCode = p.Value
			}
		}
	}
	if ref.RecordID == "" {
		return nil, model.NewFetchError(model.KindMalformedURL,
			"file path missing %q parameter", RecordIDParam)
	}

	return ref, nil
}

// ValidateViewerURL is the cheap shape check front ends run before accepting
// input. It rejects obviously wrong URLs without decoding them fully.
func ValidateViewerURL(raw string) error {
	u := strings.TrimSpace(raw)
	if u == "" {
		return model.NewFetchError(model.KindMalformedURL, "please enter a URL")
	}
	if !strings.HasPrefix(u, "http://") && !strings.HasPrefix(u, "https://") {
		return model.NewFetchError(model.KindMalformedURL, "URL must start with http:// or https://")
	}
	if !strings.Contains(u, ViewerHost) {
		return model.NewFetchError(model.KindMalformedURL, "URL must be from %s", ViewerHost)
	}
	if !strings.Contains(u, ViewerPageMarker) && !strings.Contains(u, ViewerFileParam+"=") {
		return model.NewFetchError(model.KindMalformedURL, "URL is not a PDF viewer link")
	}
	return nil
}

// parseOrderedQuery decodes a raw query string without collapsing it into a
// map, so the server's parameter order survives into the ref identity.
func parseOrderedQuery(rawQuery string) ([]model.Param, error) {
	if rawQuery == "" {
		return nil, nil
	}

	var params []model.Param
	for _, pair := range strings.Split(rawQuery, "&") {
		if pair == "" {
			continue
		}
		key, value, _ := strings.Cut(pair, "=")
		decodedKey, err := url.QueryUnescape(key)
		if err != nil {
			return nil, model.NewFetchError(model.KindMalformedURL,
				"undecodable query key %q: %v", key, err)
		}
		decodedValue, err := url.QueryUnescape(value)
		if err != nil {
			return nil, model.NewFetchError(model.KindMalformedURL,
				"undecodable query value %q: %v", value, err)
		}
		params = append(params, model.Param{Key: decodedKey, Value: decodedValue})
	}
	return params, nil
}
