package model

import (
	"strings"
	"time"
)

// BatchTask represents a single document inside a batch run
type BatchTask struct {
	ID          string
	URL         string       // viewer URL as submitted
	Ref         *ResourceRef // nil while the URL is unparsed or malformed
	Status      TaskStatus
	Kind        ErrorKind // failure classification, empty unless Failed
	LastError   string    // last error message if any
	HTTPStatus  int       // file response status, 0 if none observed
	ContentType string    // file response content type
	OutputPath  string    // path of the written PDF
	FileSize    int64     // written payload size in bytes
	StartedAt   time.Time // when the task was dispatched
	FinishedAt  time.Time // when the task reached a terminal state
}

// GetDisplayTitle returns filename, record id, or URL in order of preference
func (t *BatchTask) GetDisplayTitle() string {
	if t.OutputPath != "" {
		// Extract just the filename without path (support both / and \ separators)
		parts := strings.FieldsFunc(t.OutputPath, func(r rune) bool {
			return r == '/' || r == '\\'
		})
		if len(parts) > 0 {
			return parts[len(parts)-1]
		}
	}

	if t.Ref != nil {
		return t.Ref.SuggestedFilename()
	}

	return t.URL
}

// Clone returns a snapshot copy safe to hand to consumers while the
// orchestrator keeps mutating the original.
func (t *BatchTask) Clone() *BatchTask {
	cp := *t
	return &cp
}
