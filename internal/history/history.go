// Package history records generated reports so earlier runs can be listed
// and compared.
package history

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/CosmoTheDev/vulnbyhost/internal/aggregate"
	"github.com/CosmoTheDev/vulnbyhost/internal/database"
	"github.com/CosmoTheDev/vulnbyhost/models"
)

// ErrRunNotFound is returned by Run for an unknown id.
var ErrRunNotFound = errors.New("report run not found")

// Entry describes a finished report for Record.
type Entry struct {
	InputFile    string
	CustomerName string
	ReportDir    string
	ScanCreated  time.Time
	Skipped      int
	Scan         models.ScanAggregate
}

// Store reads and writes report history.
type Store struct {
	db  database.DB
	now func() time.Time
}

// NewStore wraps a migrated database.
func NewStore(db database.DB) *Store {
	return &Store{db: db, now: time.Now}
}

// Record stores the run and one summary per host, returning the run id.
func (s *Store) Record(ctx context.Context, e Entry) (int64, error) {
	c := e.Scan.Counts
	run := models.ReportRun{
		InputFile:     e.InputFile,
		CustomerName:  e.CustomerName,
		ReportDir:     e.ReportDir,
		HostCount:     len(e.Scan.Hosts),
		TotalCritical: c[models.SeverityCritical],
		TotalHigh:     c[models.SeverityHigh],
		TotalMedium:   c[models.SeverityMedium],
		TotalLow:      c[models.SeverityLow],
		TotalInfo:     c[models.SeverityInfo],
		Skipped:       e.Skipped,
		GeneratedAt:   s.now().UTC().Format(time.RFC3339),
	}
	if !e.ScanCreated.IsZero() {
		run.ScanCreated = e.ScanCreated.UTC().Format(time.RFC3339)
	}

	id, err := s.db.Insert(ctx, "report_runs", &run)
	if err != nil {
		return 0, fmt.Errorf("recording report run: %w", err)
	}

	for _, h := range e.Scan.Hosts {
		sum := models.HostSummary{
			RunID:         id,
			Hostname:      h.Hostname,
			IPAddress:     h.IPAddress,
			Dominant:      aggregate.DominantSeverity(h).String(),
			TotalCritical: h.Count(models.SeverityCritical),
			TotalHigh:     h.Count(models.SeverityHigh),
			TotalMedium:   h.Count(models.SeverityMedium),
			TotalLow:      h.Count(models.SeverityLow),
			TotalInfo:     h.Count(models.SeverityInfo),
			ReportPath:    h.ReportPath,
		}
		if _, err := s.db.Insert(ctx, "host_summaries", &sum); err != nil {
			s.discard(ctx, id)
			return 0, fmt.Errorf("recording host %s: %w", h.Hostname, err)
		}
	}
	slog.Debug("Recorded report run", "id", id, "hosts", len(e.Scan.Hosts))
	return id, nil
}

// discard removes a run whose host rows could not all be written, so history
// never lists a run with only part of its hosts.
func (s *Store) discard(ctx context.Context, id int64) {
	if err := s.db.Exec(ctx, `DELETE FROM host_summaries WHERE run_id = ?`, id); err != nil {
		slog.Warn("Removing partial host rows failed", "run", id, "error", err)
	}
	if err := s.db.Exec(ctx, `DELETE FROM report_runs WHERE id = ?`, id); err != nil {
		slog.Warn("Removing partial report run failed", "run", id, "error", err)
	}
}

// Runs lists the most recent runs first. A limit below 1 lists all runs.
func (s *Store) Runs(ctx context.Context, limit int) ([]models.ReportRun, error) {
	query := `SELECT id, input_file, customer_name, report_dir, host_count,
		total_critical, total_high, total_medium, total_low, total_info,
		skipped, scan_created, generated_at
		FROM report_runs ORDER BY id DESC`
	var args []interface{}
	if limit > 0 {
		query += ` LIMIT ?`
		args = append(args, limit)
	}
	var runs []models.ReportRun
	if err := s.db.Select(ctx, &runs, query, args...); err != nil {
		return nil, fmt.Errorf("listing report runs: %w", err)
	}
	return runs, nil
}

// Run fetches a single run by id.
func (s *Store) Run(ctx context.Context, id int64) (models.ReportRun, error) {
	var runs []models.ReportRun
	err := s.db.Select(ctx, &runs, `SELECT id, input_file, customer_name, report_dir, host_count,
		total_critical, total_high, total_medium, total_low, total_info,
		skipped, scan_created, generated_at
		FROM report_runs WHERE id = ?`, id)
	if err != nil {
		return models.ReportRun{}, fmt.Errorf("loading report run %d: %w", id, err)
	}
	if len(runs) == 0 {
		return models.ReportRun{}, fmt.Errorf("%w: %d", ErrRunNotFound, id)
	}
	return runs[0], nil
}

// Hosts returns the per-host summaries of a run, worst hosts first.
func (s *Store) Hosts(ctx context.Context, runID int64) ([]models.HostSummary, error) {
	var hosts []models.HostSummary
	err := s.db.Select(ctx, &hosts, `SELECT id, run_id, hostname, ip_address, dominant,
		total_critical, total_high, total_medium, total_low, total_info, report_path
		FROM host_summaries WHERE run_id = ?
		ORDER BY total_critical DESC, total_high DESC, total_medium DESC, total_low DESC, id ASC`, runID)
	if err != nil {
		return nil, fmt.Errorf("loading hosts for run %d: %w", runID, err)
	}
	return hosts, nil
}

// Delta is the per-severity change between two runs.
func Delta(older, newer models.ReportRun) [models.NumSeverities]int {
	var d [models.NumSeverities]int
	o, n := older.Counts(), newer.Counts()
	for _, sev := range models.Severities {
		d[sev] = n[sev] - o[sev]
	}
	return d
}
