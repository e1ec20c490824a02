package tui

import (
	"context"
	"path/filepath"
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/CosmoTheDev/vulnbyhost/internal/aggregate"
	"github.com/CosmoTheDev/vulnbyhost/internal/config"
	"github.com/CosmoTheDev/vulnbyhost/internal/database"
	"github.com/CosmoTheDev/vulnbyhost/internal/history"
	"github.com/CosmoTheDev/vulnbyhost/models"
)

func testScan(t *testing.T) models.ScanAggregate {
	t.Helper()
	mk := func(name string, fs ...models.Finding) models.Host {
		h, _, err := aggregate.AggregateHost(name, "10.0.0.1", aggregate.Records(fs...), aggregate.DefaultPolicy())
		if err != nil {
			t.Fatalf("AggregateHost: %v", err)
		}
		return h
	}
	return aggregate.AggregateScan([]models.Host{
		mk("alpha.example.com",
			models.Finding{PluginName: "Info thing", RawRiskLabel: "None", Port: "0", Protocol: "tcp"},
			models.Finding{PluginName: "Bad TLS", RawRiskLabel: "Medium", Port: "443", Protocol: "tcp", Synopsis: "weak`nciphers"},
		),
		mk("beta.example.com",
			models.Finding{PluginName: "Remote code exec", RawRiskLabel: "Critical", Port: "80", Protocol: "tcp"},
		),
	})
}

func key(s string) tea.KeyMsg {
	switch s {
	case "enter":
		return tea.KeyMsg{Type: tea.KeyEnter}
	case "tab":
		return tea.KeyMsg{Type: tea.KeyTab}
	}
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

func send(t *testing.T, m tea.Model, msgs ...tea.Msg) tea.Model {
	t.Helper()
	for _, msg := range msgs {
		var cmd tea.Cmd
		m, cmd = m.Update(msg)
		// Follow up synchronous commands such as host selection.
		if cmd != nil {
			if out := cmd(); out != nil {
				if _, isBatch := out.(tea.BatchMsg); !isBatch {
					m, _ = m.Update(out)
				}
			}
		}
	}
	return m
}

func TestDashboardShowsTotals(t *testing.T) {
	app := NewApp("scan.nessus", testScan(t), nil)
	m := send(t, app, tea.WindowSizeMsg{Width: 120, Height: 40})
	v := m.View()
	for _, want := range []string{"vulnbyhost", "Hosts by Severity", "2 hosts", "3 findings", "beta.example.com"} {
		if !strings.Contains(v, want) {
			t.Errorf("dashboard view missing %q", want)
		}
	}
}

func TestSelectHostOpensFindings(t *testing.T) {
	app := NewApp("scan.nessus", testScan(t), nil)
	m := send(t, app,
		tea.WindowSizeMsg{Width: 120, Height: 40},
		key("2"),
		key("j"),
		key("enter"),
	)
	a := m.(*App)
	if a.activeTab != TabFindings {
		t.Fatalf("active tab = %v, want findings", a.activeTab)
	}
	fd, ok := a.findings.Selected()
	if !ok || fd.PluginName != "Remote code exec" {
		t.Fatalf("selected = %+v", fd)
	}
	if !strings.Contains(a.View(), "beta.example.com") {
		t.Errorf("findings view missing host name")
	}
}

func TestFindingsFilterAndDetail(t *testing.T) {
	scan := testScan(t)
	f := NewFindingsModel().ShowHost(scan.Hosts[0])
	f.SetSize(100, 30)

	if got, _ := f.Selected(); got.PluginName != "Bad TLS" {
		t.Fatalf("first finding = %q, want most severe first", got.PluginName)
	}
	m, _ := f.Update(key("i"))
	f = m.(FindingsModel)
	if got, _ := f.Selected(); got.PluginName != "Info thing" {
		t.Fatalf("info filter selected %q", got.PluginName)
	}
	m, _ = f.Update(key("c"))
	f = m.(FindingsModel)
	if _, ok := f.Selected(); ok {
		t.Fatal("critical filter should be empty for alpha")
	}
	m, _ = f.Update(key("0"))
	f = m.(FindingsModel)
	m, _ = f.Update(key("enter"))
	f = m.(FindingsModel)
	v := f.View()
	if !strings.Contains(v, "Synopsis") || !strings.Contains(v, "weak") || !strings.Contains(v, "ciphers") || strings.Contains(v, "`n") {
		t.Errorf("detail view missing synopsis text")
	}
}

func TestHostsCursorClamps(t *testing.T) {
	h := NewHostsModel(testScan(t).Hosts)
	h.SetSize(100, 30)
	for range 5 {
		m, _ := h.Update(key("j"))
		h = m.(HostsModel)
	}
	if h.cursor != 1 {
		t.Fatalf("cursor = %d, want 1", h.cursor)
	}
	m, _ := h.Update(key("g"))
	if m.(HostsModel).cursor != 0 {
		t.Fatalf("cursor not reset by g")
	}
}

func TestHistoryTab(t *testing.T) {
	db, err := database.New(config.DatabaseConfig{Path: filepath.Join(t.TempDir(), "h.db")})
	if err != nil {
		t.Fatalf("database.New: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })
	if err := db.Migrate(context.Background()); err != nil {
		t.Fatalf("Migrate: %v", err)
	}
	store := history.NewStore(db)
	if _, err := store.Record(context.Background(), history.Entry{InputFile: "a.nessus", CustomerName: "Acme", Scan: testScan(t)}); err != nil {
		t.Fatalf("Record: %v", err)
	}

	hm := NewHistoryModel(store)
	hm.SetSize(120, 30)
	m, _ := hm.Update(hm.Init()())
	v := m.View()
	if !strings.Contains(v, "Acme") || !strings.Contains(v, "Recent Reports") {
		t.Fatalf("history view = %q", v)
	}

	if !strings.Contains(NewHistoryModel(nil).View(), "disabled") {
		t.Errorf("nil store should report history disabled")
	}
}
