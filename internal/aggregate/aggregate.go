// Package aggregate folds classified findings into per-host and scan-wide
// severity counts and produces the ordered views used on report pages.
package aggregate

import (
	"errors"
	"fmt"
	"log/slog"
	"slices"

	"github.com/CosmoTheDev/vulnbyhost/internal/classify"
	"github.com/CosmoTheDev/vulnbyhost/models"
)

var (
	// ErrEmptyHostRecord is returned for a host without findings when the
	// policy requires every host to have at least one.
	ErrEmptyHostRecord = errors.New("host has no findings")
	// ErrInvalidLayout is returned when a table is requested with fewer than
	// one column per row.
	ErrInvalidLayout = errors.New("columns per row must be at least 1")
)

// Record is one decoded finding as handed over by the input parser. ToFinding
// fails when the record is missing a required field.
type Record interface {
	ToFinding() (models.Finding, error)
}

// FindingRecord adapts an already-populated Finding to Record.
type FindingRecord models.Finding

// ToFinding implements Record.
func (r FindingRecord) ToFinding() (models.Finding, error) {
	return models.Finding(r), nil
}

// Records wraps plain findings as Records.
func Records(findings ...models.Finding) []Record {
	out := make([]Record, len(findings))
	for i, f := range findings {
		out[i] = FindingRecord(f)
	}
	return out
}

// InvalidFindingMode selects what happens to a finding that cannot be
// decoded or classified.
type InvalidFindingMode string

const (
	// SkipInvalid logs and drops the bad finding; the rest of the host is
	// still aggregated.
	SkipInvalid InvalidFindingMode = "skip"
	// AbortInvalid stops at the first bad finding.
	AbortInvalid InvalidFindingMode = "abort"
)

// Policy controls per-record error handling during aggregation.
type Policy struct {
	OnInvalid       InvalidFindingMode
	RequireFindings bool
}

// DefaultPolicy skips bad findings and accepts hosts without findings.
func DefaultPolicy() Policy {
	return Policy{OnInvalid: SkipInvalid}
}

// ParseMode validates a configured mode string.
func ParseMode(s string) (InvalidFindingMode, error) {
	switch InvalidFindingMode(s) {
	case SkipInvalid, "":
		return SkipInvalid, nil
	case AbortInvalid:
		return AbortInvalid, nil
	default:
		return "", fmt.Errorf("unsupported invalid-finding mode %q (supported: skip, abort)", s)
	}
}

// AggregateHost classifies every record and returns a fully computed Host.
// Under SkipInvalid the errors of dropped records are returned alongside the
// host; under AbortInvalid the first one is returned as err.
func AggregateHost(hostname, ip string, records []Record, p Policy) (models.Host, []error, error) {
	if len(records) == 0 && p.RequireFindings {
		return models.Host{}, nil, fmt.Errorf("%s: %w", hostname, ErrEmptyHostRecord)
	}

	var skipped []error
	findings := make([]models.Finding, 0, len(records))
	var counts models.Counts
	for i, rec := range records {
		f, err := rec.ToFinding()
		if err == nil {
			f, err = classify.ClassifyFinding(f)
		}
		if err != nil {
			err = fmt.Errorf("host %s finding %d: %w", hostname, i, err)
			if p.OnInvalid == AbortInvalid {
				return models.Host{}, nil, err
			}
			slog.Warn("Skipping finding", "host", hostname, "index", i, "error", err)
			skipped = append(skipped, err)
			continue
		}
		counts[f.Severity]++
		findings = append(findings, f)
	}

	return models.Host{
		Hostname:  hostname,
		IPAddress: ip,
		Findings:  findings,
		Counts:    counts,
		Total:     counts.Total(),
	}, skipped, nil
}

// AggregateScan sums per-severity counts over hosts. Host order is kept as
// given.
func AggregateScan(hosts []models.Host) models.ScanAggregate {
	var counts models.Counts
	for _, h := range hosts {
		counts = counts.Add(h.Counts)
	}
	return models.ScanAggregate{
		Hosts:  slices.Clone(hosts),
		Counts: counts,
	}
}

// SortFindingsForDisplay returns findings ordered Critical first, Info last.
// Findings of equal severity keep their original relative order.
func SortFindingsForDisplay(findings []models.Finding) []models.Finding {
	out := slices.Clone(findings)
	slices.SortStableFunc(out, func(a, b models.Finding) int {
		return int(b.Severity) - int(a.Severity)
	})
	return out
}

// DominantSeverity returns the highest level with a non-zero count, or Info
// when the host has no findings at all.
func DominantSeverity(h models.Host) models.Severity {
	return h.Counts.Highest()
}

// UniqueHosts drops repeated hosts, keeping first-seen order. A host counts
// as new when either its hostname or its IP address has not been seen yet.
func UniqueHosts(hosts []models.Host) []models.Host {
	seenNames := make(map[string]bool, len(hosts))
	seenIPs := make(map[string]bool, len(hosts))
	out := make([]models.Host, 0, len(hosts))
	for _, h := range hosts {
		if seenNames[h.Hostname] && seenIPs[h.IPAddress] {
			continue
		}
		seenNames[h.Hostname] = true
		seenIPs[h.IPAddress] = true
		out = append(out, h)
	}
	return out
}

// Cell is one entry of the dashboard host table.
type Cell struct {
	Hostname   string
	ReportPath string
	Severity   models.Severity
}

// Tabulate lays out the unique hosts row-major, columnsPerRow cells per row.
// The last row may be short.
func Tabulate(hosts []models.Host, columnsPerRow int) ([][]Cell, error) {
	if columnsPerRow < 1 {
		return nil, fmt.Errorf("%w: got %d", ErrInvalidLayout, columnsPerRow)
	}
	unique := UniqueHosts(hosts)
	rows := make([][]Cell, 0, (len(unique)+columnsPerRow-1)/columnsPerRow)
	for chunk := range slices.Chunk(unique, columnsPerRow) {
		row := make([]Cell, len(chunk))
		for i, h := range chunk {
			row[i] = Cell{
				Hostname:   h.Hostname,
				ReportPath: h.ReportPath,
				Severity:   DominantSeverity(h),
			}
		}
		rows = append(rows, row)
	}
	return rows, nil
}

// HostsBySeverity groups hosts under every severity they have at least one
// finding for. A host appears in as many groups as it has non-zero levels.
func HostsBySeverity(scan models.ScanAggregate) map[models.Severity][]models.Host {
	out := make(map[models.Severity][]models.Host, models.NumSeverities)
	for _, h := range scan.Hosts {
		for _, s := range models.Severities {
			if h.Count(s) > 0 {
				out[s] = append(out[s], h)
			}
		}
	}
	return out
}
