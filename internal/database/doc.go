// Package database provides SQLite-based scan history for ComplianceScribe.
//
// ScanDB stores, per scan:
//   - The compliance report as JSON, with finding values replaced by their
//     redaction tag so raw PII never reaches the history file
//   - A per-severity risk summary for listing history without loading reports
//   - Per-category finding counts used to compare consecutive scans
//
// Design decision: We use SQLite (via modernc.org/sqlite) because the
// history is a single local file and the CGO-free driver keeps the binary
// easy to cross-compile. The handle is limited to one connection, so batch
// scans serialize their writes.
package database
