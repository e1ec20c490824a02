package history

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/CosmoTheDev/vulnbyhost/internal/aggregate"
	"github.com/CosmoTheDev/vulnbyhost/internal/config"
	"github.com/CosmoTheDev/vulnbyhost/internal/database"
	"github.com/CosmoTheDev/vulnbyhost/models"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	db, err := database.New(config.DatabaseConfig{Driver: "sqlite", Path: filepath.Join(t.TempDir(), "history.db")})
	if err != nil {
		t.Fatalf("database.New: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })
	if err := db.Migrate(context.Background()); err != nil {
		t.Fatalf("Migrate: %v", err)
	}
	s := NewStore(db)
	s.now = func() time.Time { return time.Date(2023, 3, 14, 9, 0, 0, 0, time.UTC) }
	return s
}

func host(t *testing.T, name string, labels ...string) models.Host {
	t.Helper()
	var fs []models.Finding
	for _, l := range labels {
		fs = append(fs, models.Finding{PluginName: "p-" + l, RawRiskLabel: l})
	}
	h, _, err := aggregate.AggregateHost(name, "10.0.0.1", aggregate.Records(fs...), aggregate.DefaultPolicy())
	if err != nil {
		t.Fatalf("AggregateHost: %v", err)
	}
	return h
}

func TestRecordAndList(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	scan := aggregate.AggregateScan([]models.Host{
		host(t, "low-box", "Low", "None"),
		host(t, "crit-box", "Critical", "High"),
	})

	id, err := s.Record(ctx, Entry{
		InputFile:    "scan.nessus",
		CustomerName: "Acme",
		ReportDir:    "/tmp/report_acme",
		ScanCreated:  time.Date(2023, 3, 13, 8, 0, 0, 0, time.UTC),
		Skipped:      2,
		Scan:         scan,
	})
	if err != nil {
		t.Fatalf("Record: %v", err)
	}

	run, err := s.Run(ctx, id)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if run.CustomerName != "Acme" || run.HostCount != 2 || run.Skipped != 2 {
		t.Errorf("run = %+v", run)
	}
	if run.Counts() != scan.Counts {
		t.Errorf("stored counts = %v, want %v", run.Counts(), scan.Counts)
	}
	if run.ScanCreated != "2023-03-13T08:00:00Z" || run.GeneratedAt != "2023-03-14T09:00:00Z" {
		t.Errorf("times = %q %q", run.ScanCreated, run.GeneratedAt)
	}

	hosts, err := s.Hosts(ctx, id)
	if err != nil {
		t.Fatalf("Hosts: %v", err)
	}
	if len(hosts) != 2 || hosts[0].Hostname != "crit-box" || hosts[0].Dominant != "critical" {
		t.Fatalf("hosts = %+v", hosts)
	}
	if hosts[1].Dominant != "low" || hosts[1].TotalInfo != 1 {
		t.Errorf("low-box summary = %+v", hosts[1])
	}
}

// failingHostsDB fails host summary inserts after the first one.
type failingHostsDB struct {
	database.DB
	hosts int
}

func (f *failingHostsDB) Insert(ctx context.Context, table string, record interface{}) (int64, error) {
	if table == "host_summaries" {
		f.hosts++
		if f.hosts > 1 {
			return 0, errors.New("disk full")
		}
	}
	return f.DB.Insert(ctx, table, record)
}

func TestRecordDiscardsPartialRun(t *testing.T) {
	base := newTestStore(t)
	ctx := context.Background()
	s := NewStore(&failingHostsDB{DB: base.db})
	scan := aggregate.AggregateScan([]models.Host{
		host(t, "first", "High"),
		host(t, "second", "Low"),
	})

	id, err := s.Record(ctx, Entry{InputFile: "scan.nessus", Scan: scan})
	if err == nil {
		t.Fatalf("expected error from failing host insert")
	}
	if id != 0 {
		t.Errorf("id = %d, want 0 on failure", id)
	}

	runs, err := base.Runs(ctx, 0)
	if err != nil {
		t.Fatalf("Runs: %v", err)
	}
	if len(runs) != 0 {
		t.Fatalf("partial run left behind: %+v", runs)
	}
	var left int
	if err := base.db.Get(ctx, &left, `SELECT COUNT(*) FROM host_summaries`); err != nil {
		t.Fatalf("count hosts: %v", err)
	}
	if left != 0 {
		t.Errorf("host rows left behind = %d", left)
	}
}

func TestRunsNewestFirstWithLimit(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	for _, f := range []string{"a.nessus", "b.nessus", "c.nessus"} {
		if _, err := s.Record(ctx, Entry{InputFile: f}); err != nil {
			t.Fatalf("Record: %v", err)
		}
	}
	runs, err := s.Runs(ctx, 2)
	if err != nil {
		t.Fatalf("Runs: %v", err)
	}
	if len(runs) != 2 || runs[0].InputFile != "c.nessus" || runs[1].InputFile != "b.nessus" {
		t.Fatalf("runs = %+v", runs)
	}
	all, err := s.Runs(ctx, 0)
	if err != nil {
		t.Fatalf("Runs: %v", err)
	}
	if len(all) != 3 {
		t.Fatalf("all runs = %d", len(all))
	}
}

func TestRunNotFound(t *testing.T) {
	s := newTestStore(t)
	if _, err := s.Run(context.Background(), 42); !errors.Is(err, ErrRunNotFound) {
		t.Fatalf("err = %v, want ErrRunNotFound", err)
	}
}

func TestDelta(t *testing.T) {
	older := models.ReportRun{TotalCritical: 3, TotalLow: 1}
	newer := models.ReportRun{TotalCritical: 1, TotalHigh: 2, TotalLow: 1}
	d := Delta(older, newer)
	if d[models.SeverityCritical] != -2 || d[models.SeverityHigh] != 2 || d[models.SeverityLow] != 0 {
		t.Fatalf("Delta = %v", d)
	}
}
