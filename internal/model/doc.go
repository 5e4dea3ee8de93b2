package model

// Package model defines domain data structures used across the app: batch
// tasks, resource references decoded from viewer URLs, destination paths, and
// status/error enums. Structures are designed for direct binding in the UI and
// explicit state transitions.
