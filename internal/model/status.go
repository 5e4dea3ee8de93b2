package model

// TaskStatus represents the status of a batch download task
type TaskStatus string

const (
	// TaskStatusPending means the task is queued but not started
	TaskStatusPending TaskStatus = "Pending"

	// TaskStatusFetching means the viewer page is open and the PDF is being captured
	TaskStatusFetching TaskStatus = "Fetching"

	// TaskStatusWriting means the captured payload is being written to disk
	TaskStatusWriting TaskStatus = "Writing"

	// TaskStatusSucceeded means the file was written successfully
	TaskStatusSucceeded TaskStatus = "Succeeded"

	// TaskStatusFailed means the task failed with a terminal error
	TaskStatusFailed TaskStatus = "Failed"

	// TaskStatusCancelled means the task was stopped by run-level cancellation
	TaskStatusCancelled TaskStatus = "Cancelled"
)

// String returns the string representation of TaskStatus
func (ts TaskStatus) String() string {
	return string(ts)
}

// IsActive returns true if the task is in an active state
func (ts TaskStatus) IsActive() bool {
	return ts == TaskStatusFetching || ts == TaskStatusWriting
}

// IsTerminal returns true if the task reached a final state and will never
// transition again.
func (ts TaskStatus) IsTerminal() bool {
	return ts == TaskStatusSucceeded || ts == TaskStatusFailed || ts == TaskStatusCancelled
}
