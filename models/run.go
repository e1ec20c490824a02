package models

// ReportRun is one stored invocation of the report command.
type ReportRun struct {
	ID            int64  `json:"id"             yaml:"id"             db:"id"`
	InputFile     string `json:"input_file"     yaml:"input_file"     db:"input_file"`
	CustomerName  string `json:"customer_name"  yaml:"customer_name"  db:"customer_name"`
	ReportDir     string `json:"report_dir"     yaml:"report_dir"     db:"report_dir"`
	HostCount     int    `json:"host_count"     yaml:"host_count"     db:"host_count"`
	TotalCritical int    `json:"total_critical" yaml:"total_critical" db:"total_critical"`
	TotalHigh     int    `json:"total_high"     yaml:"total_high"     db:"total_high"`
	TotalMedium   int    `json:"total_medium"   yaml:"total_medium"   db:"total_medium"`
	TotalLow      int    `json:"total_low"      yaml:"total_low"      db:"total_low"`
	TotalInfo     int    `json:"total_info"     yaml:"total_info"     db:"total_info"`
	Skipped       int    `json:"skipped"        yaml:"skipped"        db:"skipped"`
	ScanCreated   string `json:"scan_created"   yaml:"scan_created"   db:"scan_created"` // RFC3339
	GeneratedAt   string `json:"generated_at"   yaml:"generated_at"   db:"generated_at"` // RFC3339
}

// Counts rebuilds the per-severity totals stored on the run.
func (r ReportRun) Counts() Counts {
	var c Counts
	c[SeverityCritical] = r.TotalCritical
	c[SeverityHigh] = r.TotalHigh
	c[SeverityMedium] = r.TotalMedium
	c[SeverityLow] = r.TotalLow
	c[SeverityInfo] = r.TotalInfo
	return c
}

// HostSummary is the stored per-host roll-up of a ReportRun.
type HostSummary struct {
	ID            int64  `json:"id"             yaml:"id"             db:"id"`
	RunID         int64  `json:"run_id"         yaml:"run_id"         db:"run_id"`
	Hostname      string `json:"hostname"       yaml:"hostname"       db:"hostname"`
	IPAddress     string `json:"ip_address"     yaml:"ip_address"     db:"ip_address"`
	Dominant      string `json:"dominant"       yaml:"dominant"       db:"dominant"`
	TotalCritical int    `json:"total_critical" yaml:"total_critical" db:"total_critical"`
	TotalHigh     int    `json:"total_high"     yaml:"total_high"     db:"total_high"`
	TotalMedium   int    `json:"total_medium"   yaml:"total_medium"   db:"total_medium"`
	TotalLow      int    `json:"total_low"      yaml:"total_low"      db:"total_low"`
	TotalInfo     int    `json:"total_info"     yaml:"total_info"     db:"total_info"`
	ReportPath    string `json:"report_path"    yaml:"report_path"    db:"report_path"`
}
