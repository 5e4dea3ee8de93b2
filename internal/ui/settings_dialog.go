package ui

import (
	"strconv"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/dialog"
	"fyne.io/fyne/v2/widget"

	"github.com/etdget/etd-downloader/internal/config"
)

// SettingsDialog represents the settings configuration dialog
type SettingsDialog struct {
	settings *config.Settings
	window   fyne.Window
	dialog   *dialog.ConfirmDialog

	// UI components
	downloadDirEntry *widget.Entry
	maxParallelEntry *widget.Entry
	timeoutEntry     *widget.Entry
	headlessCheck    *widget.Check
	overwriteCheck   *widget.Check
}

// NewSettingsDialog creates a new settings dialog
func NewSettingsDialog(settings *config.Settings, window fyne.Window) *SettingsDialog {
	sd := &SettingsDialog{
		settings: settings,
		window:   window,
	}

	sd.createUI()
	return sd
}

// Show displays the settings dialog
func (sd *SettingsDialog) Show() {
	sd.loadCurrentSettings()
	sd.dialog.Show()
}

// createUI creates the settings dialog UI
func (sd *SettingsDialog) createUI() {
	// Download directory selection
	sd.downloadDirEntry = widget.NewEntry()
	sd.downloadDirEntry.SetPlaceHolder("Download directory path")

	browseDirBtn := widget.NewButton("Browse", sd.onBrowseDirectory)
	downloadDirRow := container.NewBorder(nil, nil, nil, browseDirBtn, sd.downloadDirEntry)

	// Max parallel fetches
	sd.maxParallelEntry = widget.NewEntry()
	sd.maxParallelEntry.SetPlaceHolder("1-10")

	// Per-document timeout
	sd.timeoutEntry = widget.NewEntry()
	sd.timeoutEntry.SetPlaceHolder("seconds")

	// Browser and file options
	sd.headlessCheck = widget.NewCheck("Run browser without a window", nil)
	sd.overwriteCheck = widget.NewCheck("Overwrite existing files", nil)

	form := container.NewVBox(
		widget.NewLabel("Download Settings"),
		widget.NewSeparator(),

		widget.NewLabel("Download Directory:"),
		downloadDirRow,

		widget.NewLabel("Max Parallel Downloads:"),
		sd.maxParallelEntry,

		widget.NewLabel("Fetch Timeout (seconds):"),
		sd.timeoutEntry,

		widget.NewSeparator(),
		sd.headlessCheck,
		sd.overwriteCheck,
	)

	sd.dialog = dialog.NewCustomConfirm(
		"Settings",
		"Save",
		"Cancel",
		form,
		sd.onSave,
		sd.window,
	)

	sd.dialog.Resize(fyne.NewSize(500, 400))
}

// loadCurrentSettings loads current settings into the UI
func (sd *SettingsDialog) loadCurrentSettings() {
	sd.downloadDirEntry.SetText(sd.settings.GetDownloadDirectory())
	sd.maxParallelEntry.SetText(strconv.Itoa(sd.settings.GetMaxParallelDownloads()))
	sd.timeoutEntry.SetText(strconv.Itoa(sd.settings.GetFetchTimeoutSeconds()))
	sd.headlessCheck.SetChecked(sd.settings.GetBrowserHeadless())
	sd.overwriteCheck.SetChecked(sd.settings.GetOverwriteExisting())
}

// onBrowseDirectory handles directory browsing
func (sd *SettingsDialog) onBrowseDirectory() {
	dialog.ShowFolderOpen(func(uri fyne.ListableURI, err error) {
		if err != nil || uri == nil {
			return
		}
		sd.downloadDirEntry.SetText(uri.Path())
	}, sd.window)
}

// onSave handles saving the settings
func (sd *SettingsDialog) onSave(confirmed bool) {
	if !confirmed {
		return
	}

	if dir := sd.downloadDirEntry.Text; dir != "" {
		sd.settings.SetDownloadDirectory(dir)
	}

	if text := sd.maxParallelEntry.Text; text != "" {
		if maxParallel, err := strconv.Atoi(text); err == nil {
			sd.settings.SetMaxParallelDownloads(maxParallel)
		}
	}

	if text := sd.timeoutEntry.Text; text != "" {
		if seconds, err := strconv.Atoi(text); err == nil {
			sd.settings.SetFetchTimeoutSeconds(seconds)
		}
	}

	sd.settings.SetBrowserHeadless(sd.headlessCheck.Checked)
	sd.settings.SetOverwriteExisting(sd.overwriteCheck.Checked)
}
