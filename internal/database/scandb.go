package database

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite" // SQLite driver

	"github.com/nao1215/compliancescribe/internal/model"
	"github.com/nao1215/compliancescribe/internal/redact"
)

// FileName is the name of the SQLite file inside the database directory.
const FileName = "compliancescribe.db"

// ErrNoReport is returned when a scan without a compliance report is saved.
var ErrNoReport = errors.New("scan result has no compliance report")

// ScanDB provides SQLite-based storage for scan history.
type ScanDB struct {
	// db is the underlying SQL database connection.
	db *sql.DB

	// dbPath is the path to the SQLite database file.
	dbPath string
}

// Options configures ScanDB behavior.
type Options struct {
	// CreateIfNotExists creates the database file if it doesn't exist.
	CreateIfNotExists bool

	// EnableWAL enables Write-Ahead Logging.
	EnableWAL bool
}

// DefaultOptions returns the default database options.
func DefaultOptions() Options {
	return Options{
		CreateIfNotExists: true,
		EnableWAL:         true,
	}
}

// Open opens or creates a ScanDB in dbDir.
// If CreateIfNotExists is false and the database doesn't exist, an error is returned.
func Open(dbDir string, opts Options) (*ScanDB, error) {
	dbPath := filepath.Join(dbDir, FileName)

	if !opts.CreateIfNotExists {
		if _, err := os.Stat(dbPath); os.IsNotExist(err) {
			return nil, fmt.Errorf("database not found at %s (run a scan first)", dbPath)
		} else if err != nil {
			return nil, fmt.Errorf("failed to check database path: %w", err)
		}
	} else if err := os.MkdirAll(dbDir, 0750); err != nil {
		return nil, fmt.Errorf("failed to create database directory: %w", err)
	}

	// mode=rw refuses to create a missing file, mode=rwc allows it.
	dsn := dbPath + "?mode=rw"
	if opts.CreateIfNotExists {
		dsn = dbPath + "?mode=rwc"
	}

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	db.SetMaxOpenConns(1) // SQLite only supports one writer
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(time.Hour)

	sdb := &ScanDB{
		db:     db,
		dbPath: dbPath,
	}

	if opts.EnableWAL {
		if _, err := db.ExecContext(context.Background(), "PRAGMA journal_mode=WAL"); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("failed to enable WAL mode: %w", err)
		}
	}

	if err := sdb.createTables(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to create tables: %w", err)
	}

	return sdb, nil
}

// Path returns the database file path.
func (sdb *ScanDB) Path() string {
	return sdb.dbPath
}

// Close closes the database connection.
func (sdb *ScanDB) Close() error {
	return sdb.db.Close()
}

// createTables creates the database schema if it doesn't exist.
func (sdb *ScanDB) createTables() error {
	schema := `
	-- Scans store complete compliance reports as JSON
	CREATE TABLE IF NOT EXISTS scans (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		scan_id TEXT NOT NULL UNIQUE,
		source TEXT NOT NULL,
		audio_hash TEXT,
		model TEXT,
		timestamp DATETIME DEFAULT CURRENT_TIMESTAMP,
		report_json TEXT NOT NULL,
		risk_summary TEXT
	);

	CREATE INDEX IF NOT EXISTS idx_scans_source ON scans(source);
	CREATE INDEX IF NOT EXISTS idx_scans_hash ON scans(audio_hash);
	CREATE INDEX IF NOT EXISTS idx_scans_timestamp ON scans(timestamp);

	-- Category counts per scan
	CREATE TABLE IF NOT EXISTS findings (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		scan_id TEXT NOT NULL REFERENCES scans(scan_id),
		category TEXT NOT NULL,
		severity TEXT NOT NULL,
		count INTEGER NOT NULL,
		UNIQUE(scan_id, category)
	);

	CREATE INDEX IF NOT EXISTS idx_findings_scan ON findings(scan_id);
	`

	_, err := sdb.db.ExecContext(context.Background(), schema)
	return err
}

// sanitize returns a copy of the report without raw PII: finding values
// become their redaction tag.
func sanitize(r *model.ComplianceReport) *model.ComplianceReport {
	c := *r
	c.Findings = make([]model.Finding, len(r.Findings))
	for i, f := range r.Findings {
		f.Value = redact.Tag(f.Category)
		c.Findings[i] = f
	}
	return &c
}

// SaveScanResult stores the report of a completed scan.
// Returns the database ID of the new row.
func (sdb *ScanDB) SaveScanResult(ctx context.Context, result *model.ScanResult) (int64, error) {
	if result.Report == nil {
		return 0, ErrNoReport
	}
	report := sanitize(result.Report)

	reportJSON, err := json.Marshal(report)
	if err != nil {
		return 0, fmt.Errorf("failed to serialize report: %w", err)
	}
	riskJSON, _ := json.Marshal(report.RiskSummary()) //nolint:errcheck,errchkjson // map[string]int cannot fail

	tx, err := sdb.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	res, err := tx.ExecContext(ctx, `
	INSERT INTO scans (scan_id, source, audio_hash, model, report_json, risk_summary)
	VALUES (?, ?, ?, ?, ?, ?)
	`,
		result.ID,
		report.Source,
		report.AudioHash,
		report.Model,
		string(reportJSON),
		string(riskJSON),
	)
	if err != nil {
		return 0, fmt.Errorf("failed to save scan: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("failed to read scan id: %w", err)
	}

	for category, c := range countCategories(report.Findings) {
		if _, err := tx.ExecContext(ctx, `
		INSERT INTO findings (scan_id, category, severity, count)
		VALUES (?, ?, ?, ?)
		`, result.ID, category, c.severity.String(), c.count); err != nil {
			return 0, fmt.Errorf("failed to save findings: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("failed to commit scan: %w", err)
	}
	return id, nil
}

type categoryCount struct {
	severity model.Severity
	count    int
}

// countCategories groups findings by normalized category.
func countCategories(findings []model.Finding) map[string]categoryCount {
	counts := make(map[string]categoryCount)
	for _, f := range findings {
		key := model.NormalizeCategory(f.Category)
		c := counts[key]
		c.count++
		if f.Severity > c.severity {
			c.severity = f.Severity
		}
		counts[key] = c
	}
	return counts
}

// CategoryCounts returns the number of findings per normalized category
// for a scan.
func (sdb *ScanDB) CategoryCounts(ctx context.Context, scanID string) (map[string]int, error) {
	rows, err := sdb.db.QueryContext(ctx, `
	SELECT category, count FROM findings
	WHERE scan_id = ?
	`, scanID)
	if err != nil {
		return nil, fmt.Errorf("failed to query findings: %w", err)
	}
	defer rows.Close()

	counts := make(map[string]int)
	for rows.Next() {
		var category string
		var n int
		if err := rows.Scan(&category, &n); err != nil {
			return nil, fmt.Errorf("failed to scan finding: %w", err)
		}
		counts[category] = n
	}
	return counts, rows.Err()
}

// HasFingerprint reports whether a recording with this audio hash was
// scanned before.
func (sdb *ScanDB) HasFingerprint(ctx context.Context, audioHash string) (bool, error) {
	var count int
	err := sdb.db.QueryRowContext(ctx, `
	SELECT COUNT(*) FROM scans WHERE audio_hash = ?
	`, audioHash).Scan(&count)
	if err != nil {
		return false, fmt.Errorf("failed to check fingerprint: %w", err)
	}
	return count > 0, nil
}

// decodeReport parses a stored report.
func decodeReport(reportJSON string) (*model.ComplianceReport, error) {
	var report model.ComplianceReport
	if err := json.Unmarshal([]byte(reportJSON), &report); err != nil {
		return nil, fmt.Errorf("failed to parse report: %w", err)
	}
	return &report, nil
}

// GetLatestReport retrieves the most recent report for a source.
// Returns nil if the source was never scanned.
func (sdb *ScanDB) GetLatestReport(ctx context.Context, source string) (*model.ComplianceReport, error) {
	var reportJSON string
	err := sdb.db.QueryRowContext(ctx, `
	SELECT report_json FROM scans
	WHERE source = ?
	ORDER BY timestamp DESC, id DESC
	LIMIT 1
	`, source).Scan(&reportJSON)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get scan report: %w", err)
	}
	return decodeReport(reportJSON)
}

// GetLatestTwo returns the two most recent reports for a source, newest
// first. It returns fewer when the source has fewer scans.
func (sdb *ScanDB) GetLatestTwo(ctx context.Context, source string) ([]*model.ComplianceReport, error) {
	rows, err := sdb.db.QueryContext(ctx, `
	SELECT report_json FROM scans
	WHERE source = ?
	ORDER BY timestamp DESC, id DESC
	LIMIT 2
	`, source)
	if err != nil {
		return nil, fmt.Errorf("failed to get scan reports: %w", err)
	}
	defer rows.Close()

	var reports []*model.ComplianceReport
	for rows.Next() {
		var reportJSON string
		if err := rows.Scan(&reportJSON); err != nil {
			return nil, fmt.Errorf("failed to scan report: %w", err)
		}
		report, err := decodeReport(reportJSON)
		if err != nil {
			return nil, err
		}
		reports = append(reports, report)
	}
	return reports, rows.Err()
}

// ListScannedSources returns the distinct scanned sources in name order.
func (sdb *ScanDB) ListScannedSources(ctx context.Context) ([]string, error) {
	rows, err := sdb.db.QueryContext(ctx, `
	SELECT DISTINCT source FROM scans
	ORDER BY source
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to list sources: %w", err)
	}
	defer rows.Close()

	var sources []string
	for rows.Next() {
		var source string
		if err := rows.Scan(&source); err != nil {
			return nil, fmt.Errorf("failed to scan source: %w", err)
		}
		sources = append(sources, source)
	}
	return sources, rows.Err()
}

// ScanMetadata contains summary information about a stored scan.
// This is used for displaying history without loading the full report.
type ScanMetadata struct {
	// ID is the database row ID.
	ID int64

	// ScanID is the UUID of the scan.
	ScanID string

	// Source is the audio file name.
	Source string

	// AudioHash is the BLAKE2b-256 fingerprint of the recording.
	AudioHash string

	// Timestamp is when the scan was stored.
	Timestamp time.Time

	// RiskSummary contains counts of findings by severity level.
	RiskSummary map[string]int
}

// GetScanHistoryWithMetadata retrieves scan metadata for a source, newest first.
func (sdb *ScanDB) GetScanHistoryWithMetadata(ctx context.Context, source string) ([]ScanMetadata, error) {
	rows, err := sdb.db.QueryContext(ctx, `
	SELECT id, scan_id, source, COALESCE(audio_hash, ''), timestamp, risk_summary
	FROM scans
	WHERE source = ?
	ORDER BY timestamp DESC, id DESC
	`, source)
	if err != nil {
		return nil, fmt.Errorf("failed to get scan history: %w", err)
	}
	defer rows.Close()

	var results []ScanMetadata
	for rows.Next() {
		var meta ScanMetadata
		var timestamp string
		var riskJSON sql.NullString

		if err := rows.Scan(&meta.ID, &meta.ScanID, &meta.Source, &meta.AudioHash, &timestamp, &riskJSON); err != nil {
			return nil, fmt.Errorf("failed to scan metadata: %w", err)
		}

		meta.Timestamp = parseTimestamp(timestamp)

		meta.RiskSummary = make(map[string]int)
		if riskJSON.Valid && riskJSON.String != "" {
			if err := json.Unmarshal([]byte(riskJSON.String), &meta.RiskSummary); err != nil {
				meta.RiskSummary = make(map[string]int)
			}
		}

		results = append(results, meta)
	}
	return results, rows.Err()
}

// GetScanReportByID retrieves a report by its database ID.
// Returns nil if no such scan exists.
func (sdb *ScanDB) GetScanReportByID(ctx context.Context, id int64) (*model.ComplianceReport, error) {
	var reportJSON string
	err := sdb.db.QueryRowContext(ctx, `
	SELECT report_json FROM scans
	WHERE id = ?
	`, id).Scan(&reportJSON)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get scan report: %w", err)
	}
	return decodeReport(reportJSON)
}

// timestampFormats contains the timestamp formats that SQLite may return.
// The order matters: more specific formats should come first.
var timestampFormats = []string{
	"2006-01-02 15:04:05",     // SQLite default datetime format
	"2006-01-02T15:04:05Z",    // ISO 8601 with Z suffix
	"2006-01-02T15:04:05",     // ISO 8601 without timezone
	time.RFC3339,              // Full RFC3339 format
	time.RFC3339Nano,          // RFC3339 with nanoseconds
	"2006-01-02 15:04:05.999", // SQLite with milliseconds
}

// parseTimestamp attempts to parse a timestamp string using multiple formats.
// If parsing fails with all formats, returns zero time.
func parseTimestamp(s string) time.Time {
	for _, format := range timestampFormats {
		if t, err := time.Parse(format, s); err == nil {
			return t
		}
	}
	return time.Time{}
}
