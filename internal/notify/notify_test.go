package notify

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/CosmoTheDev/vulnbyhost/internal/config"
	"github.com/CosmoTheDev/vulnbyhost/models"
)

type fakeChannel struct {
	name string
	err  error
	mu   sync.Mutex
	got  []Event
}

func (f *fakeChannel) Name() string      { return f.name }
func (f *fakeChannel) IsConfigured() bool { return true }
func (f *fakeChannel) Send(_ context.Context, evt Event) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.got = append(f.got, evt)
	return f.err
}

func scanWith(c models.Counts) models.ScanAggregate {
	return models.ScanAggregate{Hosts: []models.Host{{Hostname: "a"}, {Hostname: "b"}}, Counts: c}
}

func TestReportEvent(t *testing.T) {
	evt := ReportEvent(scanWith(models.Counts{models.SeverityLow: 2, models.SeverityHigh: 1}), "Acme", "/out/r")
	if evt.Type != EventReportGenerated || evt.Severity != models.SeverityHigh || evt.Hosts != 2 {
		t.Fatalf("evt = %+v", evt)
	}
	if !strings.Contains(evt.Title, "Acme") || !strings.Contains(evt.Body, "High 1") {
		t.Errorf("title/body = %q / %q", evt.Title, evt.Body)
	}
	if ReportEvent(scanWith(models.Counts{}), "", "").Severity != models.SeverityInfo {
		t.Errorf("empty scan should report info")
	}
}

func TestReportEventWorstSeverityByRank(t *testing.T) {
	cases := []struct {
		counts models.Counts
		want   models.Severity
	}{
		{models.Counts{models.SeverityInfo: 12, models.SeverityLow: 1}, models.SeverityLow},
		{models.Counts{models.SeverityMedium: 3, models.SeverityCritical: 1}, models.SeverityCritical},
		{models.Counts{models.SeverityInfo: 2}, models.SeverityInfo},
	}
	for _, tc := range cases {
		if got := ReportEvent(scanWith(tc.counts), "", "").Severity; got != tc.want {
			t.Errorf("worst of %v = %v, want %v", tc.counts, got, tc.want)
		}
	}
}

func TestDispatcherMinSeverity(t *testing.T) {
	ch := &fakeChannel{name: "fake"}
	d := NewDispatcher(config.NotifyConfig{MinSeverity: "high"})
	d.add(ch)

	if n := d.Notify(context.Background(), ReportEvent(scanWith(models.Counts{models.SeverityMedium: 4}), "", "")); n != 0 {
		t.Errorf("medium scan sent to %d channels", n)
	}
	if n := d.Notify(context.Background(), ReportEvent(scanWith(models.Counts{}), "", "")); n != 0 {
		t.Errorf("empty scan sent to %d channels", n)
	}
	if n := d.Notify(context.Background(), ReportEvent(scanWith(models.Counts{models.SeverityCritical: 1}), "", "")); n != 1 {
		t.Errorf("critical scan sent to %d channels, want 1", n)
	}
	if len(ch.got) != 1 {
		t.Fatalf("channel got %d events", len(ch.got))
	}
}

func TestDispatcherLogsFailures(t *testing.T) {
	good := &fakeChannel{name: "good"}
	bad := &fakeChannel{name: "bad", err: errors.New("boom")}
	d := NewDispatcher(config.NotifyConfig{})
	d.add(good, bad)
	if !d.IsAnyConfigured() {
		t.Fatal("expected configured channels")
	}
	if n := d.Notify(context.Background(), Event{Type: EventReportGenerated}); n != 1 {
		t.Fatalf("sent = %d, want 1", n)
	}
}

func TestNewDispatcherSkipsUnconfigured(t *testing.T) {
	d := NewDispatcher(config.NotifyConfig{MinSeverity: "bogus"})
	if d.IsAnyConfigured() || d.filter {
		t.Fatalf("dispatcher = %+v", d)
	}
}

func TestWebhookSignsPayload(t *testing.T) {
	var (
		body []byte
		hdr  http.Header
	)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ = io.ReadAll(r.Body)
		hdr = r.Header.Clone()
		w.WriteHeader(http.StatusNoContent)
	}))
	defer srv.Close()

	w := NewWebhook(config.WebhookNotifyConfig{URL: srv.URL, Secret: "s3cret"})
	evt := ReportEvent(scanWith(models.Counts{models.SeverityCritical: 2}), "Acme", "/out/r")
	if err := w.Send(context.Background(), evt); err != nil {
		t.Fatalf("Send: %v", err)
	}
	if got, want := hdr.Get(SignatureHeader), "sha256="+Sign("s3cret", body); got != want {
		t.Errorf("signature = %q, want %q", got, want)
	}
	if hdr.Get(DeliveryHeader) == "" {
		t.Errorf("missing delivery id")
	}
	var payload struct {
		Type     string         `json:"type"`
		Severity string         `json:"severity"`
		Counts   map[string]int `json:"counts"`
	}
	if err := json.Unmarshal(body, &payload); err != nil {
		t.Fatalf("payload: %v", err)
	}
	if payload.Type != EventReportGenerated || payload.Severity != "critical" || payload.Counts["critical"] != 2 {
		t.Errorf("payload = %+v", payload)
	}
}

func TestSlackRejectsClientError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
	}))
	defer srv.Close()

	s := NewSlack(config.SlackNotifyConfig{WebhookURL: srv.URL})
	if err := s.Send(context.Background(), Event{Title: "t"}); err == nil || !strings.Contains(err.Error(), "400") {
		t.Fatalf("err = %v", err)
	}
}

func TestWebhookRetriesServerError(t *testing.T) {
	var mu sync.Mutex
	calls := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		mu.Lock()
		defer mu.Unlock()
		calls++
		if calls == 1 {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	w := NewWebhook(config.WebhookNotifyConfig{URL: srv.URL})
	w.client.RetryWaitMin = time.Millisecond
	w.client.RetryWaitMax = 5 * time.Millisecond
	if err := w.Send(context.Background(), Event{Type: EventReportGenerated}); err != nil {
		t.Fatalf("Send: %v", err)
	}
	if calls != 2 {
		t.Fatalf("calls = %d, want 2", calls)
	}
}
