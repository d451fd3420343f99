// Package ui implements an interactive terminal gallery browser using bubbletea's Elm architecture.
//
// Views:
//  1. [GalleryView] : Browse media newest first, filtered by year (tab) and kind (v)
//  2. [DetailView] : Inspect one item, like it, open it in a browser or download it
//  3. [ConfirmView] : Confirm a download
//  4. [ProgressView] : Monitor sync or bulk download progress
//  5. [ResultView] : Display sync counts or the download report
//
// The (view) [Model] implements bubbletea/Elm's standard Init/Update/View pattern, receiving messages via the Msg union type.
// Progress updates flow through a channel from tasks.Workflows, providing non-blocking status reporting during long operations.
//
// Keyboard navigation uses vim-style bindings (j/k, enter, esc, y/n, q) with contextual help displayed via charmbracelet/bubbles/help.
package ui
