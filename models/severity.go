package models

import "fmt"

// Severity is the reclassified risk level of a finding. The numeric values
// define the canonical ordering: Info < Low < Medium < High < Critical.
type Severity int

const (
	SeverityInfo Severity = iota
	SeverityLow
	SeverityMedium
	SeverityHigh
	SeverityCritical
)

// NumSeverities is the number of severity levels.
const NumSeverities = 5

// Severities lists every level in ascending rank order.
var Severities = [NumSeverities]Severity{
	SeverityInfo,
	SeverityLow,
	SeverityMedium,
	SeverityHigh,
	SeverityCritical,
}

// DrawOrder is the order pie sectors are laid out in, starting at angle 0.
// It is deliberately independent of the rank order above.
var DrawOrder = [NumSeverities]Severity{
	SeverityCritical,
	SeverityHigh,
	SeverityMedium,
	SeverityLow,
	SeverityInfo,
}

// RGB is an 8-bit per channel display colour.
type RGB struct {
	R, G, B uint8
}

// Hex returns the colour as #rrggbb.
func (c RGB) Hex() string {
	return fmt.Sprintf("#%02x%02x%02x", c.R, c.G, c.B)
}

type severityInfo struct {
	name  string
	label string
	color RGB
}

var severityTable = [NumSeverities]severityInfo{
	SeverityInfo:     {name: "info", label: "Info", color: RGB{53, 122, 189}},
	SeverityLow:      {name: "low", label: "Low", color: RGB{76, 174, 76}},
	SeverityMedium:   {name: "medium", label: "Medium", color: RGB{253, 196, 49}},
	SeverityHigh:     {name: "high", label: "High", color: RGB{238, 147, 54}},
	SeverityCritical: {name: "critical", label: "Critical", color: RGB{212, 63, 58}},
}

// Valid reports whether s is one of the five defined levels.
func (s Severity) Valid() bool {
	return s >= SeverityInfo && s <= SeverityCritical
}

// String returns the lower-case name, also used as the CSS class prefix.
func (s Severity) String() string {
	if !s.Valid() {
		return fmt.Sprintf("severity(%d)", int(s))
	}
	return severityTable[s].name
}

// Label returns the display label ("Critical", "Info", ...).
func (s Severity) Label() string {
	if !s.Valid() {
		return s.String()
	}
	return severityTable[s].label
}

// Color returns the fixed display colour for s.
func (s Severity) Color() RGB {
	if !s.Valid() {
		return RGB{}
	}
	return severityTable[s].color
}

// MarshalText implements encoding.TextMarshaler so severities serialise by name.
func (s Severity) MarshalText() ([]byte, error) {
	if !s.Valid() {
		return nil, fmt.Errorf("invalid severity %d", int(s))
	}
	return []byte(s.String()), nil
}

// ParseSeverity maps a lower-case severity name back to its level.
func ParseSeverity(name string) (Severity, error) {
	for _, s := range Severities {
		if severityTable[s].name == name {
			return s, nil
		}
	}
	return SeverityInfo, fmt.Errorf("unknown severity %q", name)
}

// Counts holds one non-negative count per severity, indexed by Severity.
type Counts [NumSeverities]int

// Total returns the sum over all five levels.
func (c Counts) Total() int {
	total := 0
	for _, n := range c {
		total += n
	}
	return total
}

// Add returns the element-wise sum of c and o.
func (c Counts) Add(o Counts) Counts {
	for i := range c {
		c[i] += o[i]
	}
	return c
}

// Get returns the count for s, or 0 for an invalid level.
func (c Counts) Get(s Severity) int {
	if !s.Valid() {
		return 0
	}
	return c[s]
}

// Highest returns the most severe level with a non-zero count, or Info when
// every count is zero.
func (c Counts) Highest() Severity {
	for i := len(Severities) - 1; i >= 0; i-- {
		if c[Severities[i]] > 0 {
			return Severities[i]
		}
	}
	return SeverityInfo
}
