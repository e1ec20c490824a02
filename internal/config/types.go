package config

// Config is the root configuration structure for vulnbyhost.
// Serialised to ~/.vulnbyhost/config.json.
type Config struct {
	Report   ReportConfig   `mapstructure:"report"   json:"report"`
	Database DatabaseConfig `mapstructure:"database" json:"database"`
	Notify   NotifyConfig   `mapstructure:"notify"   json:"notify"`
}

// ReportConfig controls how HTML reports are assembled.
type ReportConfig struct {
	// OutputDir is the parent directory new report folders are created in.
	OutputDir string `mapstructure:"output_dir"         json:"output_dir"`
	// CustomerName is the default customer shown on every page.
	CustomerName string `mapstructure:"customer_name"      json:"customer_name"`
	// ColumnsPerRow is the number of hosts per row in the dashboard table.
	ColumnsPerRow int `mapstructure:"columns_per_row"    json:"columns_per_row"`
	// ShowInfo keeps informational findings on the dashboard summary and chart.
	ShowInfo bool `mapstructure:"show_info"          json:"show_info"`
	// OnInvalidFinding is "skip" (default) or "abort".
	OnInvalidFinding string `mapstructure:"on_invalid_finding" json:"on_invalid_finding"`
	// RequireFindings rejects hosts that report no findings at all.
	RequireFindings bool `mapstructure:"require_findings"   json:"require_findings"`
}

// DatabaseConfig controls where report history is stored.
type DatabaseConfig struct {
	// Driver is "sqlite" (default) or "mysql".
	Driver string `mapstructure:"driver" json:"driver"`
	// Path is the SQLite file path (expanded at runtime).
	Path string `mapstructure:"path"   json:"path"`
	// DSN is the MySQL data source name (used when Driver == "mysql").
	DSN string `mapstructure:"dsn"    json:"dsn"`
}

// NotifyConfig controls where "report generated" notifications go.
type NotifyConfig struct {
	// MinSeverity only notifies when the scan has at least one finding at or
	// above this level (critical|high|medium|low|info). Empty notifies always.
	MinSeverity string              `mapstructure:"min_severity" json:"min_severity"`
	Slack       SlackNotifyConfig   `mapstructure:"slack"        json:"slack"`
	Webhook     WebhookNotifyConfig `mapstructure:"webhook"      json:"webhook"`
}

// SlackNotifyConfig holds a Slack incoming-webhook URL.
type SlackNotifyConfig struct {
	WebhookURL string `mapstructure:"webhook_url" json:"webhook_url"`
}

// WebhookNotifyConfig posts a JSON summary to an arbitrary endpoint,
// optionally signed with HMAC-SHA256.
type WebhookNotifyConfig struct {
	URL    string `mapstructure:"url"    json:"url"`
	Secret string `mapstructure:"secret" json:"secret"`
}
