// Package history records equipment state changes and operation outcomes in
// a SQLite journal.
//
// The operation ledger evicts an operation the moment it turns terminal, so
// the only way to learn an outcome after the fact is having watched the
// status channel. The journal is that watcher: attached to the event bus it
// records every terminal operation status and every equipment change event,
// and answers queries by equipment id or operation id.
//
// The default DSN is ":memory:"; the journal is session-scoped bookkeeping,
// not durable storage.
package history
