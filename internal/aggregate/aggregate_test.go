package aggregate

import (
	"errors"
	"testing"

	"github.com/CosmoTheDev/vulnbyhost/internal/classify"
	"github.com/CosmoTheDev/vulnbyhost/models"
)

func finding(name, label string) models.Finding {
	return models.Finding{PluginName: name, RawRiskLabel: label}
}

func scored(name, label string, score float64) models.Finding {
	f := finding(name, label)
	f.CVSS3Score = &score
	return f
}

type badRecord struct{ err error }

func (b badRecord) ToFinding() (models.Finding, error) { return models.Finding{}, b.err }

func mustHost(t *testing.T, name, ip string, fs ...models.Finding) models.Host {
	t.Helper()
	h, skipped, err := AggregateHost(name, ip, Records(fs...), DefaultPolicy())
	if err != nil {
		t.Fatalf("AggregateHost(%s): %v", name, err)
	}
	if len(skipped) != 0 {
		t.Fatalf("AggregateHost(%s): unexpected skipped records %v", name, skipped)
	}
	return h
}

func TestAggregateHostConservesFindings(t *testing.T) {
	h := mustHost(t, "web01", "10.0.0.1",
		finding("a", "None"),
		finding("b", "Low"),
		scored("c", "High", 9.8),
		finding("d", "Medium"),
		finding("e", "None"),
		finding("f", "Critical"),
	)

	if h.Total != 6 || len(h.Findings) != 6 || h.Counts.Total() != 6 {
		t.Fatalf("conservation broken: total=%d findings=%d sum=%d", h.Total, len(h.Findings), h.Counts.Total())
	}
	want := models.Counts{2, 1, 1, 0, 2}
	if h.Counts != want {
		t.Fatalf("counts = %v, want %v", h.Counts, want)
	}
	if h.Findings[2].Severity != models.SeverityCritical {
		t.Fatalf("expected elevated finding to be critical, got %s", h.Findings[2].Severity)
	}
}

func TestAggregateHostSkipsBadFindings(t *testing.T) {
	malformed := errors.New("missing synopsis")
	records := []Record{
		FindingRecord(finding("ok", "High")),
		FindingRecord(finding("odd", "Severe")),
		badRecord{err: malformed},
		FindingRecord(finding("ok2", "Low")),
	}
	h, skipped, err := AggregateHost("db01", "10.0.0.2", records, DefaultPolicy())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(skipped) != 2 {
		t.Fatalf("expected 2 skipped records, got %d", len(skipped))
	}
	if !errors.Is(skipped[0], classify.ErrUnknownSeverityLabel) {
		t.Errorf("skipped[0] = %v, want ErrUnknownSeverityLabel", skipped[0])
	}
	if !errors.Is(skipped[1], malformed) {
		t.Errorf("skipped[1] = %v, want wrapped malformed error", skipped[1])
	}
	if h.Total != 2 || h.Count(models.SeverityHigh) != 1 || h.Count(models.SeverityLow) != 1 {
		t.Fatalf("bad findings corrupted counts: %+v", h.Counts)
	}
}

func TestAggregateHostAbortPolicy(t *testing.T) {
	records := Records(finding("ok", "High"), finding("odd", "Severe"))
	_, _, err := AggregateHost("db01", "", records, Policy{OnInvalid: AbortInvalid})
	if !errors.Is(err, classify.ErrUnknownSeverityLabel) {
		t.Fatalf("expected abort with ErrUnknownSeverityLabel, got %v", err)
	}
}

func TestAggregateHostEmpty(t *testing.T) {
	h, _, err := AggregateHost("idle", "10.0.0.9", nil, DefaultPolicy())
	if err != nil {
		t.Fatalf("zero-finding host should be valid by default: %v", err)
	}
	if h.Total != 0 || h.Counts != (models.Counts{}) {
		t.Fatalf("expected all-zero counts, got %+v", h.Counts)
	}

	_, _, err = AggregateHost("idle", "10.0.0.9", nil, Policy{RequireFindings: true})
	if !errors.Is(err, ErrEmptyHostRecord) {
		t.Fatalf("expected ErrEmptyHostRecord, got %v", err)
	}
}

func TestAggregateScanConservation(t *testing.T) {
	a := mustHost(t, "a", "1.1.1.1", finding("x", "Critical"), finding("y", "None"))
	b := mustHost(t, "b", "1.1.1.2", finding("x", "Low"), finding("y", "Low"), finding("z", "Medium"))
	c := mustHost(t, "c", "1.1.1.3")

	scan := AggregateScan([]models.Host{b, a, c})
	for _, s := range models.Severities {
		want := a.Count(s) + b.Count(s) + c.Count(s)
		if scan.Counts[s] != want {
			t.Errorf("scan count[%s] = %d, want %d", s, scan.Counts[s], want)
		}
	}
	if scan.Total() != 5 {
		t.Fatalf("scan total = %d, want 5", scan.Total())
	}
	if scan.Hosts[0].Hostname != "b" || scan.Hosts[1].Hostname != "a" || scan.Hosts[2].Hostname != "c" {
		t.Fatalf("host order not preserved: %s %s %s", scan.Hosts[0].Hostname, scan.Hosts[1].Hostname, scan.Hosts[2].Hostname)
	}

	display := scan.WithoutInfo()
	if display[models.SeverityInfo] != 0 || scan.Counts[models.SeverityInfo] != 1 {
		t.Fatalf("WithoutInfo must not mutate the aggregate: display=%v scan=%v", display, scan.Counts)
	}
}

func TestSortFindingsForDisplayIsStable(t *testing.T) {
	in := []models.Finding{
		{PluginName: "i1", Severity: models.SeverityInfo},
		{PluginName: "h1", Severity: models.SeverityHigh},
		{PluginName: "l1", Severity: models.SeverityLow},
		{PluginName: "h2", Severity: models.SeverityHigh},
		{PluginName: "c1", Severity: models.SeverityCritical},
		{PluginName: "i2", Severity: models.SeverityInfo},
		{PluginName: "m1", Severity: models.SeverityMedium},
		{PluginName: "h3", Severity: models.SeverityHigh},
	}
	got := SortFindingsForDisplay(in)
	want := []string{"c1", "h1", "h2", "h3", "m1", "l1", "i1", "i2"}
	for i, name := range want {
		if got[i].PluginName != name {
			t.Fatalf("position %d = %s, want %s (full: %v)", i, got[i].PluginName, name, got)
		}
	}
	if in[0].PluginName != "i1" {
		t.Fatal("input slice was reordered")
	}
}

func TestDominantSeverity(t *testing.T) {
	h := models.Host{Counts: models.Counts{1000, 0, 0, 0, 0}}
	if got := DominantSeverity(h); got != models.SeverityInfo {
		t.Fatalf("got %s, want info", got)
	}
	h.Counts = models.Counts{1000, 3, 0, 0, 1}
	if got := DominantSeverity(h); got != models.SeverityCritical {
		t.Fatalf("one critical must outrank a thousand infos, got %s", got)
	}
	if got := DominantSeverity(models.Host{}); got != models.SeverityInfo {
		t.Fatalf("empty host should be info, got %s", got)
	}
}

func TestDominantSeverityMonotonicUnderCritical(t *testing.T) {
	for _, base := range []models.Counts{{}, {1, 0, 0, 0, 0}, {0, 2, 1, 0, 0}, {0, 0, 0, 4, 0}, {0, 0, 0, 0, 1}} {
		before := DominantSeverity(models.Host{Counts: base})
		base[models.SeverityCritical]++
		after := DominantSeverity(models.Host{Counts: base})
		if after < before {
			t.Fatalf("adding a critical decreased dominant severity: %s -> %s", before, after)
		}
	}
}

func TestUniqueHostsUsesLooseIdentity(t *testing.T) {
	hosts := []models.Host{
		{Hostname: "a", IPAddress: "10.0.0.1"},
		{Hostname: "a", IPAddress: "10.0.0.1"}, // exact repeat: dropped
		{Hostname: "a", IPAddress: "10.0.0.2"}, // new IP: kept
		{Hostname: "b", IPAddress: "10.0.0.1"}, // new hostname: kept
		{Hostname: "b", IPAddress: "10.0.0.2"}, // both seen separately: dropped
	}
	got := UniqueHosts(hosts)
	if len(got) != 3 {
		t.Fatalf("expected 3 unique hosts, got %d: %+v", len(got), got)
	}
	if got[0].IPAddress != "10.0.0.1" || got[1].IPAddress != "10.0.0.2" || got[2].Hostname != "b" {
		t.Fatalf("first-seen order not preserved: %+v", got)
	}
}

func TestTabulateScenario(t *testing.T) {
	a := mustHost(t, "A", "10.0.0.1", finding("x", "Critical"))
	b := mustHost(t, "B", "10.0.0.2")
	a.ReportPath = "host_reports/A.html"

	rows, err := Tabulate([]models.Host{a, b}, 3)
	if err != nil {
		t.Fatal(err)
	}
	if len(rows) != 1 || len(rows[0]) != 2 {
		t.Fatalf("expected one row of two cells, got %+v", rows)
	}
	if rows[0][0].Severity != models.SeverityCritical || rows[0][0].ReportPath != "host_reports/A.html" {
		t.Fatalf("cell A = %+v", rows[0][0])
	}
	if rows[0][1].Severity != models.SeverityInfo {
		t.Fatalf("cell B = %+v, want info styling", rows[0][1])
	}
}

func TestTabulateRowsAndLayout(t *testing.T) {
	var hosts []models.Host
	for _, name := range []string{"a", "b", "c", "d", "e", "f", "g"} {
		hosts = append(hosts, models.Host{Hostname: name, IPAddress: "ip-" + name})
	}
	rows, err := Tabulate(hosts, 3)
	if err != nil {
		t.Fatal(err)
	}
	if len(rows) != 3 || len(rows[2]) != 1 || rows[2][0].Hostname != "g" {
		t.Fatalf("unexpected layout: %+v", rows)
	}

	for _, cols := range []int{0, -2} {
		if _, err := Tabulate(hosts, cols); !errors.Is(err, ErrInvalidLayout) {
			t.Errorf("Tabulate(cols=%d) error = %v, want ErrInvalidLayout", cols, err)
		}
	}
}

func TestHostsBySeverity(t *testing.T) {
	a := mustHost(t, "a", "1", finding("x", "High"), finding("y", "None"))
	b := mustHost(t, "b", "2", finding("x", "Medium"))
	groups := HostsBySeverity(AggregateScan([]models.Host{a, b}))

	if len(groups[models.SeverityHigh]) != 1 || groups[models.SeverityHigh][0].Hostname != "a" {
		t.Fatalf("high group = %+v", groups[models.SeverityHigh])
	}
	if len(groups[models.SeverityMedium]) != 1 || groups[models.SeverityMedium][0].Hostname != "b" {
		t.Fatalf("medium group = %+v", groups[models.SeverityMedium])
	}
	if len(groups[models.SeverityCritical]) != 0 {
		t.Fatalf("critical group should be empty")
	}
}
