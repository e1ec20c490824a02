package models

import "time"

// Host is one scanned target together with its classified findings.
// Counts and Total are computed once at construction and are read-only
// afterwards; ReportPath is assigned when the host page is written.
type Host struct {
	Hostname   string    `json:"hostname"              yaml:"hostname"`
	IPAddress  string    `json:"ip_address"            yaml:"ip_address"`
	Findings   []Finding `json:"findings"              yaml:"findings"`
	Counts     Counts    `json:"counts"                yaml:"counts"`
	Total      int       `json:"total"                 yaml:"total"`
	ReportPath string    `json:"report_path,omitempty" yaml:"report_path,omitempty"`
	StartedAt  time.Time `json:"started_at,omitzero"   yaml:"started_at,omitempty"`
	EndedAt    time.Time `json:"ended_at,omitzero"     yaml:"ended_at,omitempty"`
}

// Count returns the number of findings at severity s.
func (h Host) Count(s Severity) int {
	return h.Counts.Get(s)
}

// ScanAggregate is the whole-run roll-up across every host in one input file.
type ScanAggregate struct {
	Hosts  []Host `json:"hosts"  yaml:"hosts"`
	Counts Counts `json:"counts" yaml:"counts"`
}

// Total returns the number of findings across the scan.
func (s ScanAggregate) Total() int {
	return s.Counts.Total()
}

// WithoutInfo returns display counts with the Info level suppressed. The
// aggregate itself is left untouched.
func (s ScanAggregate) WithoutInfo() Counts {
	c := s.Counts
	c[SeverityInfo] = 0
	return c
}
