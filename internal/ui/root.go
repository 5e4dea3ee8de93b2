package ui

import (
	"context"
	"fmt"
	"log"
	"strings"
	"sync"
	"time"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/dialog"
	"fyne.io/fyne/v2/widget"

	"github.com/etdget/etd-downloader/internal/browser"
	"github.com/etdget/etd-downloader/internal/config"
	"github.com/etdget/etd-downloader/internal/download"
	"github.com/etdget/etd-downloader/internal/model"
	"github.com/etdget/etd-downloader/internal/platform"
)

// RootUI represents the main UI structure
type RootUI struct {
	window   fyne.Window
	settings *config.Settings

	urlEntry  *widget.Entry
	dirEntry  *widget.Entry
	startBtn  *widget.Button
	cancelBtn *widget.Button
	progress  *widget.ProgressBar
	taskList  *widget.List

	// Notification panel
	notificationContainer *fyne.Container
	notificationLabel     *widget.Label
	notificationSpinner   *widget.ProgressBarInfinite

	// Batch run state. tasks holds the latest snapshot per task in input
	// order; taskIndex maps task IDs to positions for event updates.
	mu        sync.Mutex
	tasks     []*model.BatchTask
	taskIndex map[string]int
	run       *download.Run

	// Browser driver, created on the first run
	driverMu sync.Mutex
	driver   *browser.Driver
}

// NewRootUI creates and initializes the main UI
func NewRootUI(window fyne.Window, app fyne.App) *RootUI {
	settings := config.NewSettings(app)

	// Ensure the configured downloads directory exists
	platform.CreateDirectoryIfNotExists(settings.GetDownloadDirectory())

	ui := &RootUI{
		window:    window,
		settings:  settings,
		taskIndex: make(map[string]int),
	}

	window.SetTitle("ETD Downloader")

	ui.setupUI()
	return ui
}

// Close releases the browser driver if one was started
func (ui *RootUI) Close() {
	ui.driverMu.Lock()
	defer ui.driverMu.Unlock()
	if ui.driver != nil {
		if err := ui.driver.Close(); err != nil {
			log.Printf("failed to close browser driver: %v", err)
		}
		ui.driver = nil
	}
}

// setupUI creates and arranges all UI components
func (ui *RootUI) setupUI() {
	// URL input accepts one viewer link per line
	ui.urlEntry = widget.NewMultiLineEntry()
	ui.urlEntry.SetPlaceHolder("Paste viewer links, one per line")
	ui.urlEntry.SetMinRowsVisible(5)

	// Destination directory row
	ui.dirEntry = widget.NewEntry()
	ui.dirEntry.SetText(ui.settings.GetDownloadDirectory())
	browseBtn := widget.NewButton("Browse", ui.onBrowseDirectory)
	dirRow := container.NewBorder(nil, nil, widget.NewLabel("Save to:"), browseBtn, ui.dirEntry)

	// Action buttons
	ui.startBtn = widget.NewButton("Download", ui.onStartClick)
	ui.cancelBtn = widget.NewButton("Cancel", ui.onCancelClick)
	ui.cancelBtn.Disable()

	settingsBtn := widget.NewButton("Settings", ui.onShowSettings)
	settingsBtn.Importance = widget.LowImportance

	buttonRow := container.NewHBox(ui.startBtn, ui.cancelBtn, settingsBtn)

	// Aggregate progress over the whole batch
	ui.progress = widget.NewProgressBar()
	ui.progress.Hide()

	// Notification panel (hidden by default)
	ui.notificationLabel = widget.NewLabel("")
	ui.notificationLabel.Alignment = fyne.TextAlignLeading
	ui.notificationSpinner = widget.NewProgressBarInfinite()
	ui.notificationSpinner.Hide()
	ui.notificationContainer = container.NewHBox(ui.notificationSpinner, container.NewPadded(ui.notificationLabel))
	ui.notificationContainer.Hide()

	topPanel := container.NewVBox(
		ui.urlEntry,
		dirRow,
		buttonRow,
		ui.progress,
		ui.notificationContainer,
	)

	// Task list
	ui.taskList = widget.NewList(
		func() int {
			ui.mu.Lock()
			defer ui.mu.Unlock()
			return len(ui.tasks)
		},
		func() fyne.CanvasObject { return ui.createTaskItem() },
		func(id widget.ListItemID, obj fyne.CanvasObject) { ui.updateTaskItem(id, obj) },
	)

	content := container.NewBorder(topPanel, nil, nil, nil, ui.taskList)
	ui.window.SetContent(content)
}

// createTaskItem creates an empty task row for the list
func (ui *RootUI) createTaskItem() fyne.CanvasObject {
	row := NewTaskRow(&model.BatchTask{Status: model.TaskStatusPending})
	row.SetCallbacks(ui.onRevealFile, ui.onCopyPath)
	return row
}

// updateTaskItem binds a list position to its task snapshot
func (ui *RootUI) updateTaskItem(id widget.ListItemID, obj fyne.CanvasObject) {
	ui.mu.Lock()
	var task *model.BatchTask
	if id >= 0 && id < len(ui.tasks) {
		task = ui.tasks[id]
	}
	ui.mu.Unlock()

	row, ok := obj.(*TaskRow)
	if !ok || task == nil {
		return
	}
	row.UpdateTask(task)
}

// onBrowseDirectory opens the folder picker for the destination directory
func (ui *RootUI) onBrowseDirectory() {
	dialog.ShowFolderOpen(func(uri fyne.ListableURI, err error) {
		if err != nil || uri == nil {
			return
		}
		ui.dirEntry.SetText(uri.Path())
		ui.settings.SetDownloadDirectory(uri.Path())
	}, ui.window)
}

// onShowSettings shows the settings dialog
func (ui *RootUI) onShowSettings() {
	NewSettingsDialog(ui.settings, ui.window).Show()
}

// parseURLLines splits the entry text into candidate URLs, one per line,
// skipping blanks.
func parseURLLines(text string) []string {
	var urls []string
	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		urls = append(urls, line)
	}
	return urls
}

// onStartClick handles the download button click
func (ui *RootUI) onStartClick() {
	urls := parseURLLines(ui.urlEntry.Text)
	if len(urls) == 0 {
		ui.showNotification("Paste at least one viewer link", false)
		return
	}

	directory := strings.TrimSpace(ui.dirEntry.Text)
	if directory == "" {
		ui.showNotification("Choose a destination folder", false)
		return
	}
	ui.settings.SetDownloadDirectory(directory)

	ui.startBtn.Disable()
	ui.showNotification("Starting browser...", true)

	go ui.startRun(urls, directory)
}

// onCancelClick stops the active run
func (ui *RootUI) onCancelClick() {
	ui.mu.Lock()
	run := ui.run
	ui.mu.Unlock()
	if run != nil {
		run.Cancel()
		ui.showNotification("Cancelling...", true)
	}
}

// startRun provisions the browser if needed and launches the batch. Runs off
// the UI goroutine; everything UI-facing goes through fyne.Do.
func (ui *RootUI) startRun(urls []string, directory string) {
	driver, err := ui.ensureDriver()
	if err != nil {
		log.Printf("browser setup failed: %v", err)
		ui.showNotification("Browser setup failed: "+err.Error(), false)
		fyne.Do(func() { ui.startBtn.Enable() })
		return
	}

	svc := download.NewService(driver)
	svc.SetFetchTimeout(time.Duration(ui.settings.GetFetchTimeoutSeconds()) * time.Second)
	svc.SetOverwrite(ui.settings.GetOverwriteExisting())

	run, err := svc.Run(context.Background(), urls, directory, ui.settings.GetMaxParallelDownloads())
	if err != nil {
		log.Printf("run rejected: %v", err)
		ui.showNotification("Cannot start: "+err.Error(), false)
		fyne.Do(func() { ui.startBtn.Enable() })
		return
	}

	tasks := run.Tasks()
	ui.mu.Lock()
	ui.run = run
	ui.tasks = tasks
	ui.taskIndex = make(map[string]int, len(tasks))
	for i, task := range tasks {
		ui.taskIndex[task.ID] = i
	}
	ui.mu.Unlock()

	ui.hideNotification()
	fyne.Do(func() {
		ui.cancelBtn.Enable()
		ui.progress.SetValue(0)
		ui.progress.Show()
		ui.taskList.Refresh()
	})

	ui.consumeEvents(run, len(tasks))
}

// ensureDriver lazily installs the browser and starts the driver. The first
// run may take a while when the browser binary has to be downloaded.
func (ui *RootUI) ensureDriver() (*browser.Driver, error) {
	ui.driverMu.Lock()
	defer ui.driverMu.Unlock()

	if ui.driver != nil {
		return ui.driver, nil
	}

	ui.showNotification("Preparing browser, this can take a minute on first run...", true)
	if err := browser.Install(); err != nil {
		return nil, fmt.Errorf("install browser: %w", err)
	}
	driver, err := browser.NewDriver(ui.settings.GetBrowserHeadless())
	if err != nil {
		return nil, fmt.Errorf("start browser: %w", err)
	}
	ui.driver = driver
	return driver, nil
}

// consumeEvents drains the run's event stream until it closes, updating the
// matching row and the aggregate progress on every transition.
func (ui *RootUI) consumeEvents(run *download.Run, total int) {
	finished := 0
	for ev := range run.Events() {
		ui.mu.Lock()
		if idx, ok := ui.taskIndex[ev.TaskID]; ok && ev.Task != nil {
			ui.tasks[idx] = ev.Task
		}
		ui.mu.Unlock()

		if ev.Status.IsTerminal() {
			finished++
		}

		done := finished
		fyne.Do(func() {
			if total > 0 {
				ui.progress.SetValue(float64(done) / float64(total))
			}
			ui.taskList.Refresh()
		})
	}

	succeeded, failed, cancelled := run.Summary()
	log.Printf("run finished: %d succeeded, %d failed, %d cancelled", succeeded, failed, cancelled)

	ui.mu.Lock()
	ui.run = nil
	ui.mu.Unlock()

	summary := fmt.Sprintf("Finished: %d saved, %d failed", succeeded, failed)
	if cancelled > 0 {
		summary += fmt.Sprintf(", %d cancelled", cancelled)
	}
	ui.showNotification(summary, false)
	fyne.Do(func() {
		ui.startBtn.Enable()
		ui.cancelBtn.Disable()
		ui.progress.SetValue(1)
		ui.taskList.Refresh()
	})
}

// showNotification displays a message in the notification panel. When
// spinning is true, a spinner indicates background activity.
func (ui *RootUI) showNotification(message string, spinning bool) {
	fyne.Do(func() {
		ui.notificationLabel.SetText(message)
		if spinning {
			ui.notificationSpinner.Show()
		} else {
			ui.notificationSpinner.Hide()
		}
		ui.notificationContainer.Show()
		ui.notificationContainer.Refresh()
	})
}

// hideNotification hides the notification panel
func (ui *RootUI) hideNotification() {
	fyne.Do(func() {
		ui.notificationSpinner.Hide()
		ui.notificationContainer.Hide()
	})
}

// onRevealFile shows the file in the system file manager
func (ui *RootUI) onRevealFile(filePath string) {
	if err := platform.OpenFileInManager(filePath); err != nil {
		log.Printf("failed to reveal file %s: %v", filePath, err)
		dialog.ShowError(err, ui.window)
	}
}

// onCopyPath copies the file path to the clipboard
func (ui *RootUI) onCopyPath(filePath string) {
	ui.window.Clipboard().SetContent(filePath)
}
