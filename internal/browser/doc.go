package browser

// Package browser abstracts the automation engine behind a small capability:
// open a page to a URL, report the first network response the caller is
// interested in, close the page. The default implementation drives Chromium
// via Playwright; tests substitute stubs.
