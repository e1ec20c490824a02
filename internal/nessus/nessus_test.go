package nessus

import (
	"errors"
	"strings"
	"testing"
	"time"
)

func loadSample(t *testing.T) []RawHost {
	t.Helper()
	hosts, err := ParseFile("testdata/sample.nessus")
	if err != nil {
		t.Fatalf("ParseFile: %v", err)
	}
	return hosts
}

func TestParseHosts(t *testing.T) {
	hosts := loadSample(t)
	if len(hosts) != 2 {
		t.Fatalf("expected 2 hosts, got %d", len(hosts))
	}
	web := hosts[0]
	if web.Name != "web-01.example.com" || web.IP() != "10.0.0.5" {
		t.Fatalf("unexpected host identity: %q %q", web.Name, web.IP())
	}
	if len(web.Items) != 3 {
		t.Fatalf("expected 3 items, got %d", len(web.Items))
	}
	want := time.Date(2023, time.March, 14, 10, 1, 55, 0, time.Local)
	if !web.StartedAt().Equal(want) {
		t.Fatalf("StartedAt = %v, want %v", web.StartedAt(), want)
	}
	if !hosts[1].StartedAt().IsZero() {
		t.Fatal("missing HOST_START should yield zero time")
	}
}

func TestReportItemToFinding(t *testing.T) {
	hosts := loadSample(t)

	info, err := hosts[0].Items[0].ToFinding()
	if err != nil {
		t.Fatal(err)
	}
	if info.CVSS3Score != nil || info.Score() != 0 {
		t.Fatalf("absent score should be nil/0, got %v", info.CVSS3Score)
	}
	if info.PluginOutput != "Nessus version : 10.4.2" || info.RawRiskLabel != "None" {
		t.Fatalf("unexpected finding: %+v", info)
	}

	openssl, err := hosts[0].Items[1].ToFinding()
	if err != nil {
		t.Fatal(err)
	}
	if openssl.Score() != 9.8 || openssl.Port != "443" || openssl.ServiceName != "www" {
		t.Fatalf("unexpected finding: %+v", openssl)
	}
	if !strings.Contains(openssl.PluginName, "< 3.0.7") {
		t.Fatalf("entities not decoded: %q", openssl.PluginName)
	}
	if openssl.PluginOutput != "" {
		t.Fatalf("absent plugin_output should default to empty, got %q", openssl.PluginOutput)
	}
}

func TestReportItemMissingField(t *testing.T) {
	hosts := loadSample(t)
	_, err := hosts[1].Items[1].ToFinding()
	if !errors.Is(err, ErrMalformedFindingRecord) {
		t.Fatalf("expected ErrMalformedFindingRecord, got %v", err)
	}
	if !strings.Contains(err.Error(), "solution") {
		t.Fatalf("error should name the missing field: %v", err)
	}
}

func TestReportItemBadScore(t *testing.T) {
	s := func(v string) *string { return &v }
	it := ReportItem{
		Port: s("80"), ServiceName: s("www"), Protocol: s("tcp"),
		PluginName: s("x"), RiskFactor: s("Low"), Synopsis: s("s"),
		Solution: s("s"), Description: s("d"), CVSS3Score: s("high"),
	}
	if _, err := it.ToFinding(); !errors.Is(err, ErrMalformedFindingRecord) {
		t.Fatalf("expected ErrMalformedFindingRecord for bad score, got %v", err)
	}
}

func TestParseRejectsGarbage(t *testing.T) {
	if _, err := Parse(strings.NewReader("<not-nessus>")); err == nil {
		t.Fatal("expected decode error")
	}
}
