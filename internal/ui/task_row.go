package ui

import (
	"fmt"
	"log"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/theme"
	"fyne.io/fyne/v2/widget"

	"github.com/etdget/etd-downloader/internal/model"
)

// File size formatting constants
const (
	FileSizeUnit  = 1024
	FileSizeUnits = "KMGTPE"
)

// formatFileSize formats file size in bytes to human readable format
func formatFileSize(bytes int64) string {
	if bytes < FileSizeUnit {
		return fmt.Sprintf("%d B", bytes)
	}
	div, exp := int64(FileSizeUnit), 0
	for n := bytes / FileSizeUnit; n >= FileSizeUnit; n /= FileSizeUnit {
		div *= FileSizeUnit
		exp++
	}
	return fmt.Sprintf("%.1f %cB", float64(bytes)/float64(div), FileSizeUnits[exp])
}

// statusText returns the row label for a task state, with the failure kind
// folded in when the task is Failed.
func statusText(task *model.BatchTask) string {
	switch task.Status {
	case model.TaskStatusPending:
		return "Queued"
	case model.TaskStatusFetching:
		return "Fetching"
	case model.TaskStatusWriting:
		return "Writing"
	case model.TaskStatusSucceeded:
		return "Done " + formatFileSize(task.FileSize)
	case model.TaskStatusFailed:
		switch task.Kind {
		case model.KindMalformedURL:
			return "Invalid URL"
		case model.KindSignatureExpired:
			return "Link expired"
		case model.KindNotFound:
			return "Not found"
		case model.KindDirectoryUnavailable:
			return "Folder unavailable"
		case model.KindWriteFailure:
			return "Write failed"
		default:
			return "Failed"
		}
	case model.TaskStatusCancelled:
		return "Cancelled"
	default:
		return string(task.Status)
	}
}

// TaskRow represents a compact task row widget
type TaskRow struct {
	widget.BaseWidget

	task *model.BatchTask

	titleLabel  *widget.Label
	statusLabel *widget.Label
	detailLabel *widget.Label

	revealBtn *widget.Button
	copyBtn   *widget.Button

	onReveal   func(filePath string)
	onCopyPath func(filePath string)
}

// NewTaskRow creates a new task row widget
func NewTaskRow(task *model.BatchTask) *TaskRow {
	if task == nil {
		log.Printf("Warning: NewTaskRow called with nil task")
		task = &model.BatchTask{ID: "dummy", Status: model.TaskStatusPending}
	}

	tr := &TaskRow{task: task}
	tr.ExtendBaseWidget(tr)
	tr.createUI()
	tr.updateFromTask()
	return tr
}

// SetCallbacks sets the action callbacks
func (tr *TaskRow) SetCallbacks(onReveal, onCopyPath func(filePath string)) {
	tr.onReveal = onReveal
	tr.onCopyPath = onCopyPath
}

// UpdateTask updates the row with new task data
func (tr *TaskRow) UpdateTask(task *model.BatchTask) {
	if task == nil {
		log.Printf("Warning: UpdateTask called with nil task for task %s", tr.task.ID)
		return
	}
	tr.task = task
	tr.updateFromTask()
	tr.Refresh()
}

func (tr *TaskRow) createUI() {
	tr.titleLabel = widget.NewLabel("")
	tr.titleLabel.Truncation = fyne.TextTruncateEllipsis
	tr.titleLabel.TextStyle = fyne.TextStyle{Bold: true}

	tr.statusLabel = widget.NewLabel("")

	tr.detailLabel = widget.NewLabel("")
	tr.detailLabel.Truncation = fyne.TextTruncateEllipsis

	tr.revealBtn = widget.NewButtonWithIcon("", theme.FolderOpenIcon(), func() {
		if tr.onReveal != nil && tr.task.OutputPath != "" {
			tr.onReveal(tr.task.OutputPath)
		}
	})
	tr.revealBtn.Importance = widget.LowImportance

	tr.copyBtn = widget.NewButtonWithIcon("", theme.ContentCopyIcon(), func() {
		if tr.onCopyPath != nil && tr.task.OutputPath != "" {
			tr.onCopyPath(tr.task.OutputPath)
		}
	})
	tr.copyBtn.Importance = widget.LowImportance
}

func (tr *TaskRow) updateFromTask() {
	tr.titleLabel.SetText(tr.task.GetDisplayTitle())
	tr.statusLabel.SetText(statusText(tr.task))

	switch {
	case tr.task.Status == model.TaskStatusFailed && tr.task.LastError != "":
		tr.detailLabel.SetText(tr.task.LastError)
		tr.detailLabel.Show()
	case tr.task.Status == model.TaskStatusSucceeded:
		tr.detailLabel.SetText(tr.task.OutputPath)
		tr.detailLabel.Show()
	default:
		tr.detailLabel.SetText("")
		tr.detailLabel.Hide()
	}

	if tr.task.Status == model.TaskStatusSucceeded {
		tr.revealBtn.Show()
		tr.copyBtn.Show()
	} else {
		tr.revealBtn.Hide()
		tr.copyBtn.Hide()
	}
}

// CreateRenderer creates the widget renderer
func (tr *TaskRow) CreateRenderer() fyne.WidgetRenderer {
	buttons := container.NewHBox(tr.revealBtn, tr.copyBtn)
	header := container.NewBorder(nil, nil, nil, container.NewHBox(tr.statusLabel, buttons), tr.titleLabel)
	content := container.NewVBox(header, tr.detailLabel)
	return widget.NewSimpleRenderer(content)
}
