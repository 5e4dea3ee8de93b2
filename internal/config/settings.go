package config

import (
	"fyne.io/fyne/v2"

	"github.com/etdget/etd-downloader/internal/platform"
)

// Settings keys for Fyne preferences
const (
	KeyDownloadDir     = "download_directory"
	KeyMaxParallel     = "max_parallel_downloads"
	KeyBrowserHeadless = "browser_headless"
	KeyFetchTimeout    = "fetch_timeout_seconds"
	KeyOverwrite       = "overwrite_existing"
)

// Default values
const (
	DefaultMaxParallel     = 2
	DefaultBrowserHeadless = true
	DefaultFetchTimeout    = 60
	DefaultOverwrite       = false
)

// Settings manages application configuration
type Settings struct {
	app fyne.App
}

// NewSettings creates a new settings manager
func NewSettings(app fyne.App) *Settings {
	return &Settings{app: app}
}

// GetDownloadDirectory returns the configured download directory
func (s *Settings) GetDownloadDirectory() string {
	dir := s.app.Preferences().String(KeyDownloadDir)
	if dir == "" {
		// Use system default Downloads directory
		defaultDir, err := platform.GetHomeDownloadsDir()
		if err != nil {
			defaultDir = "/tmp/downloads"
		}
		s.SetDownloadDirectory(defaultDir)
		return defaultDir
	}
	return dir
}

// SetDownloadDirectory sets the download directory
func (s *Settings) SetDownloadDirectory(dir string) {
	s.app.Preferences().SetString(KeyDownloadDir, dir)
}

// GetMaxParallelDownloads returns the maximum number of parallel fetches
func (s *Settings) GetMaxParallelDownloads() int {
	value := s.app.Preferences().Int(KeyMaxParallel)
	if value <= 0 {
		s.SetMaxParallelDownloads(DefaultMaxParallel)
		return DefaultMaxParallel
	}
	return value
}

// SetMaxParallelDownloads sets the maximum number of parallel fetches
func (s *Settings) SetMaxParallelDownloads(count int) {
	if count < 1 {
		count = 1
	}
	if count > 10 {
		count = 10
	}
	s.app.Preferences().SetInt(KeyMaxParallel, count)
}

// GetBrowserHeadless returns whether the browser runs without a window
func (s *Settings) GetBrowserHeadless() bool {
	return s.app.Preferences().BoolWithFallback(KeyBrowserHeadless, DefaultBrowserHeadless)
}

// SetBrowserHeadless sets whether the browser runs without a window
func (s *Settings) SetBrowserHeadless(headless bool) {
	s.app.Preferences().SetBool(KeyBrowserHeadless, headless)
}

// GetFetchTimeoutSeconds returns the per-document fetch timeout
func (s *Settings) GetFetchTimeoutSeconds() int {
	value := s.app.Preferences().Int(KeyFetchTimeout)
	if value <= 0 {
		s.SetFetchTimeoutSeconds(DefaultFetchTimeout)
		return DefaultFetchTimeout
	}
	return value
}

// SetFetchTimeoutSeconds sets the per-document fetch timeout
func (s *Settings) SetFetchTimeoutSeconds(seconds int) {
	if seconds < 1 {
		seconds = DefaultFetchTimeout
	}
	s.app.Preferences().SetInt(KeyFetchTimeout, seconds)
}

// GetOverwriteExisting returns whether existing files may be replaced
func (s *Settings) GetOverwriteExisting() bool {
	return s.app.Preferences().BoolWithFallback(KeyOverwrite, DefaultOverwrite)
}

// SetOverwriteExisting sets whether existing files may be replaced
func (s *Settings) SetOverwriteExisting(overwrite bool) {
	s.app.Preferences().SetBool(KeyOverwrite, overwrite)
}
