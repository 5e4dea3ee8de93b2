package config

import (
	"testing"

	"fyne.io/fyne/v2/test"
)

func TestNewSettings(t *testing.T) {
	app := test.NewApp()
	settings := NewSettings(app)

	if settings.app != app {
		t.Error("Settings app reference should match provided app")
	}
}

func TestDownloadDirectory(t *testing.T) {
	app := test.NewApp()
	settings := NewSettings(app)

	// Test default value
	dir := settings.GetDownloadDirectory()
	if dir == "" {
		t.Error("Download directory should not be empty")
	}

	// Test setting custom value
	customDir := "/custom/downloads"
	settings.SetDownloadDirectory(customDir)

	retrievedDir := settings.GetDownloadDirectory()
	if retrievedDir != customDir {
		t.Errorf("Expected download directory %s, got %s", customDir, retrievedDir)
	}
}

func TestMaxParallelDownloads(t *testing.T) {
	app := test.NewApp()
	settings := NewSettings(app)

	// Test default value
	maxParallel := settings.GetMaxParallelDownloads()
	if maxParallel != DefaultMaxParallel {
		t.Errorf("Expected default max parallel %d, got %d", DefaultMaxParallel, maxParallel)
	}

	// Test setting custom value
	settings.SetMaxParallelDownloads(5)

	retrievedMax := settings.GetMaxParallelDownloads()
	if retrievedMax != 5 {
		t.Errorf("Expected max parallel 5, got %d", retrievedMax)
	}

	// Test boundary values
	settings.SetMaxParallelDownloads(0) // Should be clamped to 1
	if settings.GetMaxParallelDownloads() != 1 {
		t.Error("Max parallel should be clamped to minimum 1")
	}

	settings.SetMaxParallelDownloads(15) // Should be clamped to 10
	if settings.GetMaxParallelDownloads() != 10 {
		t.Error("Max parallel should be clamped to maximum 10")
	}
}

func TestBrowserHeadless(t *testing.T) {
	app := test.NewApp()
	settings := NewSettings(app)

	if settings.GetBrowserHeadless() != DefaultBrowserHeadless {
		t.Errorf("Expected default headless %v", DefaultBrowserHeadless)
	}

	settings.SetBrowserHeadless(false)
	if settings.GetBrowserHeadless() {
		t.Error("Expected headless to be disabled after SetBrowserHeadless(false)")
	}
}

func TestFetchTimeoutSeconds(t *testing.T) {
	app := test.NewApp()
	settings := NewSettings(app)

	if settings.GetFetchTimeoutSeconds() != DefaultFetchTimeout {
		t.Errorf("Expected default timeout %d, got %d", DefaultFetchTimeout, settings.GetFetchTimeoutSeconds())
	}

	settings.SetFetchTimeoutSeconds(120)
	if settings.GetFetchTimeoutSeconds() != 120 {
		t.Errorf("Expected timeout 120, got %d", settings.GetFetchTimeoutSeconds())
	}

	settings.SetFetchTimeoutSeconds(0) // Should fall back to default
	if settings.GetFetchTimeoutSeconds() != DefaultFetchTimeout {
		t.Errorf("Expected timeout to fall back to %d", DefaultFetchTimeout)
	}
}

func TestOverwriteExisting(t *testing.T) {
	app := test.NewApp()
	settings := NewSettings(app)

	if settings.GetOverwriteExisting() != DefaultOverwrite {
		t.Errorf("Expected default overwrite %v", DefaultOverwrite)
	}

	settings.SetOverwriteExisting(true)
	if !settings.GetOverwriteExisting() {
		t.Error("Expected overwrite to be enabled after SetOverwriteExisting(true)")
	}
}
