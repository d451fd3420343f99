// Package tasks implements the gallery workflows that sit between the UI layers and the media repository.
//
// # Workflows
//
// [Workflows] wraps a [MediaStore] (repositories.MediaRepository in production):
//
//  1. [Workflows.EditDetails] : validates a title, then merges title and description
//  2. [Workflows.Like] : reads the like ledger, adjusts the count, records the new ledger state
//  3. [Workflows.Upload] : uploads a file and inserts its record, streaming upload percentage
//  4. [Workflows.SyncNow] : a user-triggered reconciliation whose error is surfaced
//  5. [Workflows.BulkDownload] : concurrent, rate-limited downloads with optional thumbnails
//
// # Progress Reporting
//
// All long-running operations use non-blocking channels for progress updates.
//
// The [ProgressUpdate] struct contains phase, step counters, messages, and optional data for advanced UI rendering.
// Updates use select with default to prevent blocking.
//
// # Download Bookkeeping
//
// The optional [DownloadLog] (repositories.DownloadLogRepository) records each completed download so
// repeated bulk downloads can skip files already on disk. Bookkeeping errors are logged, never fatal.
package tasks
