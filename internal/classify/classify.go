// Package classify maps raw scanner risk labels and CVSSv3 scores onto the
// five-level severity model.
package classify

import (
	"errors"
	"fmt"

	"github.com/CosmoTheDev/vulnbyhost/models"
)

// ErrUnknownSeverityLabel is returned for a risk_factor outside the five
// labels the scanner emits.
var ErrUnknownSeverityLabel = errors.New("unknown severity label")

// CriticalScoreThreshold is the CVSSv3 score above which any finding is
// elevated to Critical.
const CriticalScoreThreshold = 8.9

var labels = map[string]models.Severity{
	"None":     models.SeverityInfo,
	"Low":      models.SeverityLow,
	"Medium":   models.SeverityMedium,
	"High":     models.SeverityHigh,
	"Critical": models.SeverityCritical,
}

// Classify returns the severity for a raw label and CVSSv3 score. The label
// is mapped literally first; a score above CriticalScoreThreshold then forces
// Critical regardless of the label.
func Classify(label string, score float64) (models.Severity, error) {
	sev, ok := labels[label]
	if !ok {
		return models.SeverityInfo, fmt.Errorf("%w: %q", ErrUnknownSeverityLabel, label)
	}
	if score > CriticalScoreThreshold {
		sev = models.SeverityCritical
	}
	return sev, nil
}

// ClassifyFinding classifies f and returns a copy with Severity set.
func ClassifyFinding(f models.Finding) (models.Finding, error) {
	sev, err := Classify(f.RawRiskLabel, f.Score())
	if err != nil {
		return f, fmt.Errorf("plugin %q: %w", f.PluginName, err)
	}
	f.Severity = sev
	return f, nil
}
