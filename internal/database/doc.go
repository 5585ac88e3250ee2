// Package database provides SQLite storage for webm-trimmer.
//
// It holds:
//   - the single login password (bcrypt) and session tokens (SHA-256)
//   - flash messages queued between a form POST and the next page render
//   - the submission history, an audit log of every processed request
//
// The history is never read back to resume or retry work. The database uses
// WAL mode and creates its schema on first use.
package database
