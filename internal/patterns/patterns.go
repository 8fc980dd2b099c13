// Package patterns holds the behavioral detectors. Each detector is a pure
// function over (matched trades, executions, config) and knows nothing about
// the others.
package patterns

import (
	"fmt"

	"trading-persona-analyzer/internal/store"
	"trading-persona-analyzer/internal/types"
)

// Detector is the shape shared by every pattern check.
type Detector func(trades []types.MatchedTrade, executions []types.Execution, cfg store.PatternConfig) types.PatternFinding

// Detectors lists every check in report order.
var Detectors = []Detector{
	DetectOvertrading,
	DetectRevengeTrading,
	DetectScalping,
	DetectPyramiding,
	DetectHedging,
}

// DetectAll runs every detector and returns the findings in report order.
func DetectAll(trades []types.MatchedTrade, executions []types.Execution, cfg store.PatternConfig) []types.PatternFinding {
	findings := make([]types.PatternFinding, 0, len(Detectors))
	for _, d := range Detectors {
		findings = append(findings, d(trades, executions, cfg))
	}
	return findings
}

// Tier maps a magnitude onto LOW/MEDIUM/HIGH using the configured cutoffs.
func Tier(magnitude float64, t store.Tiers) types.Severity {
	switch {
	case magnitude >= t.HighAt:
		return types.SeverityHigh
	case magnitude >= t.MediumAt:
		return types.SeverityMedium
	default:
		return types.SeverityLow
	}
}

// finalize applies the sample floor and severity tiers to a raw finding.
func finalize(f types.PatternFinding, triggered bool, minSample int, t store.Tiers) types.PatternFinding {
	f.Severity = types.SeverityLow
	if f.SampleSize < minSample {
		f.Detected = false
		f.Description = fmt.Sprintf("%s (not evaluated: %d samples below minimum %d)", f.Description, f.SampleSize, minSample)
		return f
	}
	f.Detected = triggered
	if triggered {
		f.Severity = Tier(f.Magnitude, t)
	}
	return f
}
