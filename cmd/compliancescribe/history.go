package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/nao1215/compliancescribe/internal/config"
	"github.com/nao1215/compliancescribe/internal/database"
	"github.com/nao1215/compliancescribe/internal/model"
)

// Constants for risk direction and summary messages.
const (
	riskDirectionWorsened  = "worsened"
	riskDirectionImproved  = "improved"
	riskDirectionUnchanged = "unchanged"
	noFindingsMessage      = "No findings"
)

// NewHistoryCmd creates the history command.
// This command shows and compares scans stored in the database.
func NewHistoryCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "history [audio-file]",
		Short: "Show and compare scan history",
		Long: `History displays scans stored in the history database.

Without flags it compares the latest two scans of a recording and shows:
- Categories with new findings since the previous scan
- Categories whose findings were resolved
- Changes in risk severity levels

Recordings are identified by file name, so re-scanning an edited or
re-recorded call with the same name builds up its history.

Examples:
  # Compare the latest two scans of a recording
  compliancescribe history call.mp3

  # List all scans of a recording
  compliancescribe history --list call.mp3

  # Compare the latest scan with a specific scan by ID
  compliancescribe history --with-scan-id 5 call.mp3

  # Output comparison in JSON format
  compliancescribe history --json call.mp3

  # List all scanned recordings
  compliancescribe history --list-sources`,
		Args: cobra.MaximumNArgs(1),
		RunE: runHistoryCmd,
	}

	cmd.Flags().BoolP("list", "l", false,
		"List scan history for the specified recording")
	cmd.Flags().BoolP("list-sources", "L", false,
		"List all scanned recordings in the database")
	cmd.Flags().Int64P("with-scan-id", "i", 0,
		"Compare with a specific scan by ID (use --list to see available IDs)")
	cmd.Flags().StringP("since", "s", "",
		"Compare with the first scan after this date (format: YYYY-MM-DD)")
	cmd.Flags().BoolP("json", "j", false,
		"Output comparison result in JSON format")
	cmd.Flags().BoolP("markdown", "m", false,
		"Output comparison result in Markdown format")
	cmd.Flags().String("db-dir", "",
		"History database directory (default: XDG data directory)")

	return cmd
}

// historyOptions holds the parsed history flags.
type historyOptions struct {
	source      string
	listSources bool
	list        bool
	withScanID  int64
	since       string
	json        bool
	markdown    bool
	dbDir       string
}

// parseHistoryOptions reads and validates the history flags.
func parseHistoryOptions(cmd *cobra.Command, args []string) (*historyOptions, error) {
	flags := cmd.Flags()
	opts := &historyOptions{}

	var err error
	if opts.listSources, err = flags.GetBool("list-sources"); err != nil {
		return nil, err
	}
	if opts.list, err = flags.GetBool("list"); err != nil {
		return nil, err
	}
	if opts.withScanID, err = flags.GetInt64("with-scan-id"); err != nil {
		return nil, err
	}
	if opts.since, err = flags.GetString("since"); err != nil {
		return nil, err
	}
	if opts.json, err = flags.GetBool("json"); err != nil {
		return nil, err
	}
	if opts.markdown, err = flags.GetBool("markdown"); err != nil {
		return nil, err
	}
	if opts.dbDir, err = flags.GetString("db-dir"); err != nil {
		return nil, err
	}
	if opts.dbDir == "" {
		opts.dbDir = config.XDGDataDir()
	}

	if opts.json && opts.markdown {
		return nil, config.ErrConflictingReportFormats
	}

	// Validate arguments before opening the database.
	if !opts.listSources {
		if len(args) == 0 {
			return nil, errors.New("audio file name is required (use --list-sources to see scanned recordings)")
		}
		opts.source = filepath.Base(args[0])
	}
	return opts, nil
}

// runHistoryCmd executes the history command.
func runHistoryCmd(cmd *cobra.Command, args []string) error {
	opts, err := parseHistoryOptions(cmd, args)
	if err != nil {
		return err
	}

	db, err := database.Open(opts.dbDir, database.Options{EnableWAL: true})
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer db.Close()

	ctx := cmd.Context()
	out := cmd.OutOrStdout()

	switch {
	case opts.listSources:
		return listScannedSources(ctx, out, db)
	case opts.list:
		return listScanHistory(ctx, out, db, opts.source)
	default:
		return runComparison(ctx, out, db, opts)
	}
}

// listScannedSources lists all recordings that have scans in the database.
func listScannedSources(ctx context.Context, out io.Writer, db *database.ScanDB) error {
	sources, err := db.ListScannedSources(ctx)
	if err != nil {
		return fmt.Errorf("failed to list recordings: %w", err)
	}

	if len(sources) == 0 {
		fmt.Fprintln(out, "No scanned recordings found in the database.")
		fmt.Fprintln(out, "\nUse 'compliancescribe scan <audio-file>' to scan a recording.")
		return nil
	}

	fmt.Fprintf(out, "Scanned recordings (%d):\n\n", len(sources))
	for _, source := range sources {
		fmt.Fprintf(out, "  • %s\n", source)
	}
	fmt.Fprintln(out, "\nUse 'compliancescribe history --list <audio-file>' to see scan history for a recording.")

	return nil
}

// listScanHistory lists all scan records for a recording.
func listScanHistory(ctx context.Context, out io.Writer, db *database.ScanDB, source string) error {
	history, err := db.GetScanHistoryWithMetadata(ctx, source)
	if err != nil {
		return fmt.Errorf("failed to get scan history: %w", err)
	}

	if len(history) == 0 {
		fmt.Fprintf(out, "No scan history found for %s\n", source)
		fmt.Fprintln(out, "\nUse 'compliancescribe scan' to scan this recording.")
		return nil
	}

	fmt.Fprintf(out, "Scan history for %s (%d scans):\n\n", source, len(history))
	fmt.Fprintf(out, "  %-6s  %-20s  %-12s  %s\n", "ID", "Date", "Audio", "Risk Summary")
	fmt.Fprintln(out, "  "+strings.Repeat("-", 66))

	for _, meta := range history {
		fmt.Fprintf(out, "  %-6d  %-20s  %-12s  %s\n",
			meta.ID,
			meta.Timestamp.Format("2006-01-02 15:04:05"),
			shortHash(meta.AudioHash),
			formatRiskSummary(meta.RiskSummary),
		)
	}

	fmt.Fprintln(out, "\nUse 'compliancescribe history <audio-file>' to compare the latest two scans.")
	fmt.Fprintln(out, "Use 'compliancescribe history --with-scan-id <id> <audio-file>' to compare with a specific scan.")

	return nil
}

// shortHash abbreviates an audio fingerprint for display.
func shortHash(hash string) string {
	if len(hash) > 12 {
		return hash[:12]
	}
	if hash == "" {
		return "-"
	}
	return hash
}

// formatRiskSummary formats the risk summary map into a human-readable string.
func formatRiskSummary(summary map[string]int) string {
	if summary == nil {
		return "N/A"
	}

	var parts []string
	for _, level := range []struct {
		key   string
		label string
	}{
		{"critical", "C"},
		{"high", "H"},
		{"medium", "M"},
		{"low", "L"},
		{"info", "I"},
	} {
		if v := summary[level.key]; v > 0 {
			parts = append(parts, fmt.Sprintf("%s:%d", level.label, v))
		}
	}

	if len(parts) == 0 {
		return noFindingsMessage
	}
	return strings.Join(parts, " ")
}

// runComparison compares the latest scan with an earlier one.
func runComparison(ctx context.Context, out io.Writer, db *database.ScanDB, opts *historyOptions) error {
	reports, err := db.GetLatestTwo(ctx, opts.source)
	if err != nil {
		return fmt.Errorf("failed to get scan history: %w", err)
	}
	if len(reports) == 0 {
		return fmt.Errorf("no scan history found for %s", opts.source)
	}

	current := reports[0]
	var previous *model.ComplianceReport

	switch {
	case opts.withScanID > 0:
		previous, err = db.GetScanReportByID(ctx, opts.withScanID)
		if err != nil {
			return fmt.Errorf("failed to get scan with ID %d: %w", opts.withScanID, err)
		}
		if previous == nil {
			return fmt.Errorf("scan with ID %d not found", opts.withScanID)
		}
		if previous.Source != opts.source {
			return fmt.Errorf("scan ID %d belongs to %s, not %s", opts.withScanID, previous.Source, opts.source)
		}
	case opts.since != "":
		previous, err = firstScanSince(ctx, db, opts.source, opts.since)
		if err != nil {
			return err
		}
		if previous.ScanID == current.ScanID {
			return fmt.Errorf("only one scan found since %s; at least 2 scans are required for comparison", opts.since)
		}
	default:
		if len(reports) < 2 {
			return fmt.Errorf("at least 2 scans are required for comparison (found %d)", len(reports))
		}
		previous = reports[1]
	}

	comparison := compareReports(previous, current)

	switch {
	case opts.json:
		return outputComparisonJSON(out, comparison)
	case opts.markdown:
		outputComparisonMarkdown(out, comparison)
	default:
		outputComparisonText(out, comparison)
	}
	return nil
}

// firstScanSince returns the oldest scan of source at or after the date.
func firstScanSince(ctx context.Context, db *database.ScanDB, source, since string) (*model.ComplianceReport, error) {
	parsedDate, err := time.Parse("2006-01-02", since)
	if err != nil {
		return nil, fmt.Errorf("invalid date format (use YYYY-MM-DD): %w", err)
	}

	history, err := db.GetScanHistoryWithMetadata(ctx, source)
	if err != nil {
		return nil, fmt.Errorf("failed to get scan history: %w", err)
	}

	// History is newest first, so walk it backwards.
	for i := len(history) - 1; i >= 0; i-- {
		if !history[i].Timestamp.Before(parsedDate) {
			return db.GetScanReportByID(ctx, history[i].ID)
		}
	}
	return nil, fmt.Errorf("no scans found since %s", since)
}

// ComparisonResult holds the result of comparing two compliance reports.
type ComparisonResult struct {
	// Source is the recording name.
	Source string `json:"source"`

	// PreviousScan contains metadata about the previous scan.
	PreviousScan ScanSummary `json:"previous_scan"`

	// CurrentScan contains metadata about the current scan.
	CurrentScan ScanSummary `json:"current_scan"`

	// NewFindings lists categories with more findings than before.
	NewFindings []CategoryChange `json:"new_findings,omitempty"`

	// ResolvedFindings lists categories with fewer findings than before.
	ResolvedFindings []CategoryChange `json:"resolved_findings,omitempty"`

	// UnchangedCount is the number of findings present in both scans.
	UnchangedCount int `json:"unchanged_count"`

	// SameRecording is true when both scans have the same audio fingerprint.
	SameRecording bool `json:"same_recording"`

	// RiskChange describes the overall change in risk level.
	RiskChange RiskChange `json:"risk_change"`
}

// ScanSummary contains metadata about a scan for comparison display.
type ScanSummary struct {
	ScanID        string    `json:"scan_id"`
	DateScanned   time.Time `json:"date_scanned"`
	TotalFindings int       `json:"total_findings"`
	CriticalCount int       `json:"critical_count"`
	HighCount     int       `json:"high_count"`
	MediumCount   int       `json:"medium_count"`
	LowCount      int       `json:"low_count"`
	InfoCount     int       `json:"info_count"`
}

// CategoryChange describes how often a category was found in each scan.
type CategoryChange struct {
	Category string `json:"category"`
	Title    string `json:"title"`
	Severity string `json:"severity"`
	Previous int    `json:"previous"`
	Current  int    `json:"current"`
}

// Delta returns the change in finding count.
func (c CategoryChange) Delta() int {
	return c.Current - c.Previous
}

// RiskChange describes the change in risk level between scans.
type RiskChange struct {
	// Direction is "improved", "worsened", or "unchanged".
	Direction string `json:"direction"`

	CriticalDelta int `json:"critical_delta"`
	HighDelta     int `json:"high_delta"`
	MediumDelta   int `json:"medium_delta"`
	LowDelta      int `json:"low_delta"`
	InfoDelta     int `json:"info_delta"`
}

// summarize extracts the comparison metadata of a report.
func summarize(r *model.ComplianceReport) ScanSummary {
	return ScanSummary{
		ScanID:        r.ScanID,
		DateScanned:   r.DateScanned,
		TotalFindings: r.TotalFindings(),
		CriticalCount: r.CriticalCount,
		HighCount:     r.HighCount,
		MediumCount:   r.MediumCount,
		LowCount:      r.LowCount,
		InfoCount:     r.InfoCount,
	}
}

// categoryTally counts findings per normalized category.
type categoryTally struct {
	count    int
	title    string
	severity string
}

func tallyFindings(findings []model.Finding) map[string]*categoryTally {
	tally := make(map[string]*categoryTally)
	for _, f := range findings {
		key := model.NormalizeCategory(f.Category)
		t, ok := tally[key]
		if !ok {
			t = &categoryTally{title: f.Title, severity: f.SeverityText}
			tally[key] = t
		}
		t.count++
	}
	return tally
}

// compareReports compares two reports category by category. Stored reports
// carry no raw values, so findings are matched by category count.
func compareReports(previous, current *model.ComplianceReport) *ComparisonResult {
	result := &ComparisonResult{
		Source:        current.Source,
		PreviousScan:  summarize(previous),
		CurrentScan:   summarize(current),
		SameRecording: previous.AudioHash != "" && previous.AudioHash == current.AudioHash,
	}

	prev := tallyFindings(previous.Findings)
	curr := tallyFindings(current.Findings)

	keys := make([]string, 0, len(prev)+len(curr))
	for k := range prev {
		keys = append(keys, k)
	}
	for k := range curr {
		if _, ok := prev[k]; !ok {
			keys = append(keys, k)
		}
	}
	slices.Sort(keys)

	for _, k := range keys {
		change := CategoryChange{Category: k}
		if t, ok := prev[k]; ok {
			change.Previous = t.count
			change.Title, change.Severity = t.title, t.severity
		}
		if t, ok := curr[k]; ok {
			change.Current = t.count
			change.Title, change.Severity = t.title, t.severity
		}

		result.UnchangedCount += min(change.Previous, change.Current)
		switch {
		case change.Delta() > 0:
			result.NewFindings = append(result.NewFindings, change)
		case change.Delta() < 0:
			result.ResolvedFindings = append(result.ResolvedFindings, change)
		}
	}

	result.RiskChange = calculateRiskChange(result.PreviousScan, result.CurrentScan)

	return result
}

// calculateRiskChange calculates the change in risk between two scans.
func calculateRiskChange(previous, current ScanSummary) RiskChange {
	change := RiskChange{
		CriticalDelta: current.CriticalCount - previous.CriticalCount,
		HighDelta:     current.HighCount - previous.HighCount,
		MediumDelta:   current.MediumCount - previous.MediumCount,
		LowDelta:      current.LowCount - previous.LowCount,
		InfoDelta:     current.InfoCount - previous.InfoCount,
	}

	// Critical and high findings dominate the weighted score.
	previousScore := previous.CriticalCount*100 + previous.HighCount*50 + previous.MediumCount*10 + previous.LowCount*5 + previous.InfoCount
	currentScore := current.CriticalCount*100 + current.HighCount*50 + current.MediumCount*10 + current.LowCount*5 + current.InfoCount

	switch {
	case currentScore < previousScore:
		change.Direction = riskDirectionImproved
	case currentScore > previousScore:
		change.Direction = riskDirectionWorsened
	default:
		change.Direction = riskDirectionUnchanged
	}

	return change
}

// outputComparisonJSON outputs the comparison result in JSON format.
func outputComparisonJSON(out io.Writer, result *ComparisonResult) error {
	encoder := json.NewEncoder(out)
	encoder.SetIndent("", "  ")
	return encoder.Encode(result)
}

// severityRow is one line of the severity comparison table.
type severityRow struct {
	label    string
	previous int
	current  int
	delta    int
}

// severityRows returns the table rows shared by the text and Markdown output.
func severityRows(result *ComparisonResult) []severityRow {
	p, c, d := result.PreviousScan, result.CurrentScan, result.RiskChange
	return []severityRow{
		{"Critical", p.CriticalCount, c.CriticalCount, d.CriticalDelta},
		{"High", p.HighCount, c.HighCount, d.HighDelta},
		{"Medium", p.MediumCount, c.MediumCount, d.MediumDelta},
		{"Low", p.LowCount, c.LowCount, d.LowDelta},
		{"Info", p.InfoCount, c.InfoCount, d.InfoDelta},
	}
}

// outputComparisonMarkdown outputs the comparison result in Markdown format.
func outputComparisonMarkdown(out io.Writer, result *ComparisonResult) {
	fmt.Fprintf(out, "# Scan Comparison: %s\n\n", result.Source)

	fmt.Fprintln(out, "## Summary")
	fmt.Fprintf(out, "\n**Risk Status:** %s\n\n", formatRiskDirection(result.RiskChange.Direction))
	if !result.SameRecording {
		fmt.Fprintln(out, "*The audio differs between the two scans.*")
		fmt.Fprintln(out)
	}

	fmt.Fprintln(out, "| Metric | Previous | Current | Change |")
	fmt.Fprintln(out, "|--------|----------|---------|--------|")
	fmt.Fprintf(out, "| Date | %s | %s | - |\n",
		result.PreviousScan.DateScanned.Format("2006-01-02 15:04"),
		result.CurrentScan.DateScanned.Format("2006-01-02 15:04"))
	for _, row := range severityRows(result) {
		fmt.Fprintf(out, "| %s | %d | %d | %s |\n", row.label, row.previous, row.current, formatDelta(row.delta))
	}
	fmt.Fprintf(out, "| **Total** | **%d** | **%d** | **%s** |\n",
		result.PreviousScan.TotalFindings,
		result.CurrentScan.TotalFindings,
		formatDelta(result.CurrentScan.TotalFindings-result.PreviousScan.TotalFindings))

	if len(result.NewFindings) > 0 {
		fmt.Fprintf(out, "\n## New Findings (%d)\n\n", len(result.NewFindings))
		for _, c := range result.NewFindings {
			fmt.Fprintf(out, "- **[%s]** %s: %s\n", c.Severity, c.Title, formatDelta(c.Delta()))
		}
	}

	if len(result.ResolvedFindings) > 0 {
		fmt.Fprintf(out, "\n## Resolved Findings (%d)\n\n", len(result.ResolvedFindings))
		for _, c := range result.ResolvedFindings {
			fmt.Fprintf(out, "- ~~**[%s]** %s~~: %s\n", c.Severity, c.Title, formatDelta(c.Delta()))
		}
	}

	if result.UnchangedCount > 0 {
		fmt.Fprintf(out, "\n---\n\n*%d findings unchanged*\n", result.UnchangedCount)
	}
}

// outputComparisonText outputs the comparison result in human-readable text format.
func outputComparisonText(out io.Writer, result *ComparisonResult) {
	fmt.Fprintf(out, "Scan Comparison: %s\n", result.Source)
	fmt.Fprintln(out, strings.Repeat("=", 60))

	fmt.Fprintf(out, "\nRisk Status: %s\n", formatRiskDirection(result.RiskChange.Direction))
	if !result.SameRecording {
		fmt.Fprintln(out, "Note: the audio differs between the two scans.")
	}

	fmt.Fprintf(out, "\nPrevious scan: %s\n", result.PreviousScan.DateScanned.Format("2006-01-02 15:04:05"))
	fmt.Fprintf(out, "Current scan:  %s\n", result.CurrentScan.DateScanned.Format("2006-01-02 15:04:05"))

	fmt.Fprintln(out, "\nFindings Summary:")
	fmt.Fprintf(out, "  %-10s  %-10s  %-10s  %-10s\n", "Severity", "Previous", "Current", "Change")
	fmt.Fprintln(out, "  "+strings.Repeat("-", 45))
	for _, row := range severityRows(result) {
		fmt.Fprintf(out, "  %-10s  %-10d  %-10d  %-10s\n", row.label, row.previous, row.current, formatDelta(row.delta))
	}
	fmt.Fprintln(out, "  "+strings.Repeat("-", 45))
	fmt.Fprintf(out, "  %-10s  %-10d  %-10d  %-10s\n", "Total",
		result.PreviousScan.TotalFindings, result.CurrentScan.TotalFindings,
		formatDelta(result.CurrentScan.TotalFindings-result.PreviousScan.TotalFindings))

	if len(result.NewFindings) > 0 {
		fmt.Fprintf(out, "\nNew Findings (%d):\n", len(result.NewFindings))
		for _, c := range result.NewFindings {
			fmt.Fprintf(out, "  [+] [%s] %s: %s\n", c.Severity, c.Title, formatDelta(c.Delta()))
		}
	}

	if len(result.ResolvedFindings) > 0 {
		fmt.Fprintf(out, "\nResolved Findings (%d):\n", len(result.ResolvedFindings))
		for _, c := range result.ResolvedFindings {
			fmt.Fprintf(out, "  [-] [%s] %s: %s\n", c.Severity, c.Title, formatDelta(c.Delta()))
		}
	}

	if result.UnchangedCount > 0 {
		fmt.Fprintf(out, "\nUnchanged: %d findings\n", result.UnchangedCount)
	}
}

// formatRiskDirection formats the risk change direction for display.
func formatRiskDirection(direction string) string {
	switch direction {
	case riskDirectionImproved:
		return "IMPROVED (risk decreased)"
	case riskDirectionWorsened:
		return "WORSENED (risk increased)"
	default:
		return "UNCHANGED"
	}
}

// formatDelta formats a numeric delta with sign for display.
func formatDelta(delta int) string {
	if delta > 0 {
		return "+" + strconv.Itoa(delta)
	}
	return strconv.Itoa(delta)
}
