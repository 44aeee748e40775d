// Package ledger persists the duplicate collision ledger and per-file audit
// outcomes in SQLite. Duplicate entries carry a resolution state machine:
// they enter unresolved (or pre-marked for deletion when byte-identical),
// accept exactly one terminal decision, and freeze once that decision has
// been applied to the filesystem.
package ledger
