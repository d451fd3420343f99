// Package repositories implements the gallery's local cache.
//
// Persistence is a two-key string store behind the [KV] interface:
//   - [MediaKey] ("family_media_store") : JSON array of media records
//   - [LikesKey] ("user_likes") : JSON array of media ids the local user liked
//
// Backends:
//   - [SQLiteKV] : the kv_store table, created by the embedded migrations (default)
//   - [RedisKV] : Redis strings, for sharing one cache between machines
//   - [MemoryKV] : process-local, for tests and throwaway sessions
//
// [MediaRepository] is the single entry point for media: listing, creation via upload,
// edits, local removal, downloads, reconciliation against the remote listing, and likes.
// Every call reloads the collection from the store before reading or mutating it, so
// several processes (the TUI, the proxy, one-shot commands) may share a store.
//
// [DownloadLogRepository] records completed downloads in the download_log table so
// bulk downloads can skip files already fetched.
package repositories
