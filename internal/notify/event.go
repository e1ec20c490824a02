package notify

import (
	"fmt"
	"strings"

	"github.com/CosmoTheDev/vulnbyhost/models"
)

// ReportEvent summarises a finished scan report.
func ReportEvent(scan models.ScanAggregate, customer, reportDir string) Event {
	title := fmt.Sprintf("Vulnerability report ready: %d hosts", len(scan.Hosts))
	if customer != "" {
		title = fmt.Sprintf("Vulnerability report ready for %s: %d hosts", customer, len(scan.Hosts))
	}
	parts := make([]string, 0, models.NumSeverities)
	for _, s := range models.DrawOrder {
		parts = append(parts, fmt.Sprintf("%s %d", s.Label(), scan.Counts[s]))
	}

	return Event{
		Type:      EventReportGenerated,
		Title:     title,
		Body:      strings.Join(parts, " · "),
		Customer:  customer,
		ReportDir: reportDir,
		Severity:  scan.Counts.Highest(),
		Counts:    scan.Counts,
		Hosts:     len(scan.Hosts),
	}
}
