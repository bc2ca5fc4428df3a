package main

import "time"

// -------------------- TEA MESSAGES --------------------
// All custom message types for The Elm Architecture

// refreshedMsg carries the outcome of one view refresh. apply renders the
// records into the view and must run on the Update thread; it reports
// false when a later-issued refresh of the same view was applied first.
type refreshedMsg struct {
	view   string
	ticket uint64
	count  int
	apply  func() bool
	err    error
}

// autoRefreshMsg fires on the auto-refresh interval
type autoRefreshMsg time.Time

// clipboardCopiedMsg indicates clipboard copy completed
type clipboardCopiedMsg struct {
	text string
	err  error
}

// clearClipboardMsg clears the clipboard feedback
type clearClipboardMsg struct{}

// configSavedMsg reports the outcome of writing the config file
type configSavedMsg struct {
	err error
}
