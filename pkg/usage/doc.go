// Package usage records one ledger entry per admitted chat request.
//
// Records are written asynchronously: the Recorder enqueues entries on a
// buffered channel drained by a background worker, so a slow ledger
// backend never blocks the request path. When the buffer is full the
// entry is dropped and counted rather than queued.
//
// The Storage interface abstracts the ledger backend. Two implementations
// live in the storage subpackage: an in-memory store for development and
// tests, and a SQLite store for ledgers that survive restarts. The
// retention subpackage prunes old records on a cron schedule.
package usage
