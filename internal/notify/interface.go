package notify

import (
	"context"

	"github.com/CosmoTheDev/vulnbyhost/models"
)

// EventReportGenerated is sent after a report folder has been written.
const EventReportGenerated = "report_generated"

// Event represents a notification event from vulnbyhost.
type Event struct {
	Type      string
	Title     string
	Body      string
	Customer  string
	ReportDir string
	Severity  models.Severity // worst level present in the scan
	Counts    models.Counts
	Hosts     int
}

// Channel is implemented by each notification provider.
type Channel interface {
	Name() string
	IsConfigured() bool
	Send(ctx context.Context, evt Event) error
}
