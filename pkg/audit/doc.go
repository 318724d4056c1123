// Package audit records per-request routing outcomes for after-the-fact
// inspection. Records are written asynchronously through a buffered
// Recorder so the proxy hot path never blocks on storage, and can be
// persisted in memory or in SQLite with cron-scheduled retention pruning.
package audit
