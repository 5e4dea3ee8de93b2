package platform

// Package platform contains OS/platform integration and pure parsing glue:
// filesystem helpers, viewer URL decoding, and OS open/reveal.
