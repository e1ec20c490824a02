package models

// Finding is one vulnerability or service observation reported for a host.
// Everything except Severity comes straight from the scanner export; Severity
// is filled in by the classifier.
type Finding struct {
	PluginID     string   `json:"plugin_id,omitempty"     yaml:"plugin_id,omitempty"`
	PluginName   string   `json:"plugin_name"             yaml:"plugin_name"`
	PluginFamily string   `json:"plugin_family,omitempty" yaml:"plugin_family,omitempty"`
	Synopsis     string   `json:"synopsis"                yaml:"synopsis"`
	Solution     string   `json:"solution"                yaml:"solution"`
	Description  string   `json:"description"             yaml:"description"`
	PluginOutput string   `json:"plugin_output,omitempty" yaml:"plugin_output,omitempty"`
	Port         string   `json:"port"                    yaml:"port"`
	Protocol     string   `json:"protocol"                yaml:"protocol"`
	ServiceName  string   `json:"service_name"            yaml:"service_name"`
	CVSS3Score   *float64 `json:"cvss3_score,omitempty"   yaml:"cvss3_score,omitempty"`
	RawRiskLabel string   `json:"risk_factor"             yaml:"risk_factor"`
	Severity     Severity `json:"severity"                yaml:"severity"`
}

// Score returns the CVSSv3 base score, treating an absent score as 0.0.
func (f Finding) Score() float64 {
	if f.CVSS3Score == nil {
		return 0
	}
	return *f.CVSS3Score
}
