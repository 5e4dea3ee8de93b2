package ui

// Package ui contains the Fyne-based desktop user interface for the application.
// It wires user interactions to the download service and renders batch runs as
// a task list with per-row status, driven by the run's event stream.
