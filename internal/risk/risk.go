package risk

import (
	"fmt"

	"trading-persona-analyzer/internal/store"
	"trading-persona-analyzer/internal/types"
)

// Compute scores the run from detected patterns and metric bands.
// A metric that resolved to a fallback value adds a zero-point factor instead
// of a band contribution.
func Compute(report types.MetricsReport, findings []types.PatternFinding, cfg store.RiskConfig) types.RiskAssessment {
	factors := []types.RiskFactor{{Name: "base", Points: cfg.BaseScore, Reason: "baseline"}}

	for _, f := range findings {
		if !f.Detected {
			continue
		}
		factors = append(factors, types.RiskFactor{
			Name:   f.Pattern,
			Points: cfg.SeverityWeights[string(f.Severity)],
			Reason: fmt.Sprintf("%s severity: %s", f.Severity, f.Description),
		})
	}

	if reason, ok := report.Fallbacks["sharpe_ratio"]; ok {
		factors = append(factors, skipped("sharpe_ratio", reason))
	} else if report.SharpeRatio < cfg.SharpeLow {
		factors = append(factors, types.RiskFactor{
			Name:   "sharpe_ratio",
			Points: cfg.SharpeLowPenalty,
			Reason: fmt.Sprintf("Sharpe %.2f below %.2f", report.SharpeRatio, cfg.SharpeLow),
		})
	} else if report.SharpeRatio >= cfg.SharpeHigh {
		factors = append(factors, types.RiskFactor{
			Name:   "sharpe_ratio",
			Points: -cfg.SharpeHighBonus,
			Reason: fmt.Sprintf("Sharpe %.2f at or above %.2f", report.SharpeRatio, cfg.SharpeHigh),
		})
	}

	if reason, ok := report.Fallbacks["win_rate"]; ok {
		factors = append(factors, skipped("win_rate", reason))
	} else if report.WinRate < cfg.WinRateLow {
		factors = append(factors, types.RiskFactor{
			Name:   "win_rate",
			Points: cfg.WinRateLowPenalty,
			Reason: fmt.Sprintf("win rate %.1f%% below %.1f%%", report.WinRate, cfg.WinRateLow),
		})
	} else if report.WinRate > cfg.WinRateHigh {
		factors = append(factors, types.RiskFactor{
			Name:   "win_rate",
			Points: -cfg.WinRateHighBonus,
			Reason: fmt.Sprintf("win rate %.1f%% above %.1f%%", report.WinRate, cfg.WinRateHigh),
		})
	}

	if reason, ok := report.Fallbacks["max_drawdown_pct"]; ok {
		factors = append(factors, skipped("max_drawdown_pct", reason))
	} else if report.MaxDrawdownPct > cfg.DrawdownPctBand {
		factors = append(factors, types.RiskFactor{
			Name:   "max_drawdown_pct",
			Points: cfg.DrawdownPenalty,
			Reason: fmt.Sprintf("max drawdown %.1f%% above %.1f%%", report.MaxDrawdownPct, cfg.DrawdownPctBand),
		})
	}

	score := 0.0
	for _, f := range factors {
		score += f.Points
	}
	score = clip(score)

	return types.RiskAssessment{
		Score:   score,
		Level:   LevelFor(score, cfg.Levels),
		Factors: factors,
	}
}

// LevelFor maps a score onto the level partition. Every score lands in
// exactly one level.
func LevelFor(score float64, l store.RiskLevels) types.RiskLevel {
	switch {
	case score <= l.LowMax:
		return types.RiskLow
	case score <= l.MediumMax:
		return types.RiskMedium
	case score <= l.HighMax:
		return types.RiskHigh
	default:
		return types.RiskVeryHigh
	}
}

func skipped(metric, reason string) types.RiskFactor {
	return types.RiskFactor{Name: metric, Points: 0, Reason: "not scored: " + reason}
}

func clip(score float64) float64 {
	if score < 0 {
		return 0
	}
	if score > 100 {
		return 100
	}
	return score
}
