package models

import "testing"

func TestCountsHighest(t *testing.T) {
	cases := []struct {
		counts Counts
		want   Severity
	}{
		{Counts{}, SeverityInfo},
		{Counts{SeverityInfo: 9}, SeverityInfo},
		{Counts{SeverityInfo: 3, SeverityLow: 1}, SeverityLow},
		{Counts{SeverityLow: 5, SeverityHigh: 1}, SeverityHigh},
		{Counts{SeverityCritical: 1, SeverityInfo: 40}, SeverityCritical},
	}
	for _, tc := range cases {
		if got := tc.counts.Highest(); got != tc.want {
			t.Errorf("%v.Highest() = %v, want %v", tc.counts, got, tc.want)
		}
	}
}
