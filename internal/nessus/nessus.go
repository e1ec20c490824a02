// Package nessus decodes NessusClientData_v2 (.nessus) exports into per-host
// finding records.
package nessus

import (
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/CosmoTheDev/vulnbyhost/internal/aggregate"
	"github.com/CosmoTheDev/vulnbyhost/models"
)

// ErrMalformedFindingRecord is returned for a ReportItem missing a field the
// report needs.
var ErrMalformedFindingRecord = errors.New("malformed finding record")

// hostTimeLayout is the format Nessus uses for HOST_START / HOST_END.
const hostTimeLayout = "Mon Jan _2 15:04:05 2006"

type clientData struct {
	XMLName xml.Name `xml:"NessusClientData_v2"`
	Reports []report `xml:"Report"`
}

type report struct {
	Name  string    `xml:"name,attr"`
	Hosts []RawHost `xml:"ReportHost"`
}

type hostTag struct {
	Name  string `xml:"name,attr"`
	Value string `xml:",chardata"`
}

// RawHost is one ReportHost element.
type RawHost struct {
	Name       string       `xml:"name,attr"`
	Properties []hostTag    `xml:"HostProperties>tag"`
	Items      []ReportItem `xml:"ReportItem"`
}

// ReportItem is one finding as it appears in the export. Pointer fields let
// ToFinding tell an absent element from an empty one.
type ReportItem struct {
	Port         *string `xml:"port,attr"`
	ServiceName  *string `xml:"svc_name,attr"`
	Protocol     *string `xml:"protocol,attr"`
	PluginID     string  `xml:"pluginID,attr"`
	PluginFamily string  `xml:"pluginFamily,attr"`

	PluginName   *string `xml:"plugin_name"`
	RiskFactor   *string `xml:"risk_factor"`
	Synopsis     *string `xml:"synopsis"`
	Solution     *string `xml:"solution"`
	Description  *string `xml:"description"`
	PluginOutput *string `xml:"plugin_output"`
	CVSS3Score   *string `xml:"cvss3_base_score"`
}

// Tag returns the value of the named HostProperties tag, or "" when absent.
func (h RawHost) Tag(name string) string {
	for _, t := range h.Properties {
		if t.Name == name {
			return strings.TrimSpace(t.Value)
		}
	}
	return ""
}

// IP returns the host-ip property. It may be empty.
func (h RawHost) IP() string {
	return h.Tag("host-ip")
}

// StartedAt returns HOST_START, or the zero time when missing or unparsable.
func (h RawHost) StartedAt() time.Time {
	return parseHostTime(h.Tag("HOST_START"))
}

// EndedAt returns HOST_END, or the zero time when missing or unparsable.
func (h RawHost) EndedAt() time.Time {
	return parseHostTime(h.Tag("HOST_END"))
}

// Records exposes the host's items to the aggregator.
func (h RawHost) Records() []aggregate.Record {
	out := make([]aggregate.Record, len(h.Items))
	for i := range h.Items {
		out[i] = h.Items[i]
	}
	return out
}

func parseHostTime(v string) time.Time {
	if v == "" {
		return time.Time{}
	}
	t, err := time.ParseInLocation(hostTimeLayout, v, time.Local)
	if err != nil {
		return time.Time{}
	}
	return t
}

// ToFinding validates the required fields and converts the item. It
// implements aggregate.Record.
func (it ReportItem) ToFinding() (models.Finding, error) {
	required := []struct {
		name string
		val  *string
	}{
		{"plugin_name", it.PluginName},
		{"risk_factor", it.RiskFactor},
		{"synopsis", it.Synopsis},
		{"solution", it.Solution},
		{"description", it.Description},
		{"port", it.Port},
		{"protocol", it.Protocol},
		{"svc_name", it.ServiceName},
	}
	var missing []string
	for _, r := range required {
		if r.val == nil {
			missing = append(missing, r.name)
		}
	}
	if len(missing) > 0 {
		return models.Finding{}, fmt.Errorf("%w: plugin %s missing %s",
			ErrMalformedFindingRecord, it.PluginID, strings.Join(missing, ", "))
	}

	f := models.Finding{
		PluginID:     it.PluginID,
		PluginName:   *it.PluginName,
		PluginFamily: it.PluginFamily,
		Synopsis:     *it.Synopsis,
		Solution:     *it.Solution,
		Description:  *it.Description,
		Port:         *it.Port,
		Protocol:     *it.Protocol,
		ServiceName:  *it.ServiceName,
		RawRiskLabel: strings.TrimSpace(*it.RiskFactor),
	}
	if it.PluginOutput != nil {
		f.PluginOutput = *it.PluginOutput
	}
	if it.CVSS3Score != nil {
		score, err := strconv.ParseFloat(strings.TrimSpace(*it.CVSS3Score), 64)
		if err != nil {
			return models.Finding{}, fmt.Errorf("%w: plugin %s cvss3_base_score %q",
				ErrMalformedFindingRecord, it.PluginID, *it.CVSS3Score)
		}
		f.CVSS3Score = &score
	}
	return f, nil
}

// Parse decodes a .nessus document and returns every ReportHost in document
// order across all Report elements.
func Parse(r io.Reader) ([]RawHost, error) {
	var doc clientData
	if err := xml.NewDecoder(r).Decode(&doc); err != nil {
		return nil, fmt.Errorf("decoding nessus xml: %w", err)
	}
	var hosts []RawHost
	for _, rep := range doc.Reports {
		hosts = append(hosts, rep.Hosts...)
	}
	return hosts, nil
}

// ParseFile opens path and parses it.
func ParseFile(path string) ([]RawHost, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening scan file: %w", err)
	}
	defer f.Close()
	return Parse(f)
}
