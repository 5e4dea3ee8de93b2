package model

import (
	"fmt"
	"path/filepath"
	"strings"
)

// Fallback database code when the nested query omits dbCode
const DefaultDBCode = "EXAM"

// Param is one key/value pair of the nested file-API query. A slice of Param
// keeps the order the server issued them in, which url.Values would lose.
type Param struct {
	Key   string
	Value string
}

// ResourceRef is the decoded identity of one document, extracted from an
// opaque viewer URL. Immutable once parsed; two refs with equal RecordID
// address the same logical document.
type ResourceRef struct {
	RecordID  string  // stable record identifier from the nested query
	DBCode    string  // database code (e.g. EXAMXJTLU), DefaultDBCode if absent
	FetchPath string  // decoded file-API path the viewer requests
	Params    []Param // nested query parameters in original order
	SourceURL string  // cleaned viewer URL (fragment stripped)
}

// Param returns the value of the named nested query parameter, or "" if the
// key is absent.
func (r *ResourceRef) Param(key string) string {
	for _, p := range r.Params {
		if p.Key == key {
			return p.Value
		}
	}
	return ""
}

// SuggestedFilename returns the deterministic base filename for this record
func (r *ResourceRef) SuggestedFilename() string {
	code := r.DBCode
	if code == "" {
		code = DefaultDBCode
	}
	return fmt.Sprintf("%s_%s.pdf", code, r.RecordID)
}

// Equal reports whether two refs address the same document through the same
// decoded identity.
func (r *ResourceRef) Equal(other *ResourceRef) bool {
	if other == nil {
		return false
	}
	if r.RecordID != other.RecordID || r.DBCode != other.DBCode || r.FetchPath != other.FetchPath {
		return false
	}
	if len(r.Params) != len(other.Params) {
		return false
	}
	for i := range r.Params {
		if r.Params[i] != other.Params[i] {
			return false
		}
	}
	return true
}

// DestinationPath is a concrete, claimed output location for one task.
// Suffix 0 means the base filename was free.
type DestinationPath struct {
	Directory string
	Filename  string
	Suffix    int
}

// Path returns the joined absolute-or-relative file path
func (d DestinationPath) Path() string {
	return filepath.Join(d.Directory, d.Filename)
}

// String returns the joined path for display
func (d DestinationPath) String() string {
	return d.Path()
}

// WithSuffix returns a copy of d whose filename carries the numeric suffix n,
// keeping the extension (EXAM_15798.pdf -> EXAM_15798_1.pdf).
func (d DestinationPath) WithSuffix(n int) DestinationPath {
	ext := filepath.Ext(d.Filename)
	stem := strings.TrimSuffix(d.Filename, ext)
	out := d
	out.Filename = fmt.Sprintf("%s_%d%s", stem, n, ext)
	out.Suffix = n
	return out
}
