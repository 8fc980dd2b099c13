package risk

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"trading-persona-analyzer/internal/store"
	"trading-persona-analyzer/internal/types"
)

func riskCfg() store.RiskConfig {
	return store.Default().Risk
}

func neutralMetrics() types.MetricsReport {
	return types.MetricsReport{TotalTrades: 10, SharpeRatio: 1.0, WinRate: 50, MaxDrawdownPct: 5}
}

func TestCompute_BaseOnly(t *testing.T) {
	a := Compute(neutralMetrics(), nil, riskCfg())
	assert.Equal(t, 25.0, a.Score)
	assert.Equal(t, types.RiskLow, a.Level)
	require.Len(t, a.Factors, 1)
	assert.Equal(t, "base", a.Factors[0].Name)
}

func TestCompute_PatternsAndPenalties(t *testing.T) {
	m := types.MetricsReport{TotalTrades: 40, SharpeRatio: -0.5, WinRate: 30, MaxDrawdownPct: 35}
	findings := []types.PatternFinding{
		{Pattern: types.PatternOvertrading, Detected: true, Severity: types.SeverityHigh},
		{Pattern: types.PatternRevenge, Detected: true, Severity: types.SeverityMedium},
		{Pattern: types.PatternScalping, Detected: false, Severity: types.SeverityLow},
	}
	a := Compute(m, findings, riskCfg())

	// 25 + 20 + 10 + sharpe 20 + win rate 10 + drawdown 15
	assert.Equal(t, 100.0, a.Score)
	assert.Equal(t, types.RiskVeryHigh, a.Level)
	assert.Len(t, a.Factors, 6)
}

func TestCompute_Bonuses(t *testing.T) {
	m := types.MetricsReport{TotalTrades: 40, SharpeRatio: 2.0, WinRate: 70, MaxDrawdownPct: 2}
	a := Compute(m, nil, riskCfg())
	assert.Equal(t, 10.0, a.Score) // 25 - 10 - 5
	assert.Equal(t, types.RiskLow, a.Level)
}

func TestCompute_ClipsAtZero(t *testing.T) {
	cfg := riskCfg()
	cfg.BaseScore = 0
	m := types.MetricsReport{TotalTrades: 40, SharpeRatio: 3, WinRate: 90}
	a := Compute(m, nil, cfg)
	assert.Equal(t, 0.0, a.Score)
}

func TestCompute_FallbackMetricsAreNotScored(t *testing.T) {
	m := types.MetricsReport{
		SharpeRatio: 0,
		WinRate:     0,
		Fallbacks: map[string]string{
			"sharpe_ratio":     "fewer than two returns",
			"win_rate":         "no matched trades",
			"max_drawdown_pct": "drawdown measured from a non-positive peak",
		},
		MaxDrawdownPct: 0,
	}
	a := Compute(m, nil, riskCfg())
	assert.Equal(t, 25.0, a.Score)
	require.Len(t, a.Factors, 4)
	for _, f := range a.Factors[1:] {
		assert.Zero(t, f.Points)
		assert.Contains(t, f.Reason, "not scored")
	}
}

func TestLevelFor_Partition(t *testing.T) {
	levels := riskCfg().Levels
	tests := []struct {
		score float64
		want  types.RiskLevel
	}{
		{0, types.RiskLow},
		{30, types.RiskLow},
		{30.5, types.RiskMedium},
		{60, types.RiskMedium},
		{61, types.RiskHigh},
		{80, types.RiskHigh},
		{80.01, types.RiskVeryHigh},
		{100, types.RiskVeryHigh},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, LevelFor(tt.score, levels), "score %v", tt.score)
	}
}

func TestCompute_AlwaysInRange(t *testing.T) {
	rng := rand.New(rand.NewSource(7))
	sevs := []types.Severity{types.SeverityLow, types.SeverityMedium, types.SeverityHigh}
	patterns := []string{
		types.PatternOvertrading, types.PatternRevenge, types.PatternScalping,
		types.PatternPyramiding, types.PatternHedging,
	}
	cfg := riskCfg()

	for i := 0; i < 500; i++ {
		m := types.MetricsReport{
			TotalTrades:    rng.Intn(100),
			SharpeRatio:    rng.NormFloat64() * 3,
			WinRate:        rng.Float64() * 100,
			MaxDrawdownPct: rng.Float64() * 200,
		}
		var findings []types.PatternFinding
		for _, p := range patterns {
			findings = append(findings, types.PatternFinding{
				Pattern:  p,
				Detected: rng.Intn(2) == 0,
				Severity: sevs[rng.Intn(len(sevs))],
			})
		}
		a := Compute(m, findings, cfg)
		require.GreaterOrEqual(t, a.Score, 0.0)
		require.LessOrEqual(t, a.Score, 100.0)
		require.Equal(t, LevelFor(a.Score, cfg.Levels), a.Level)
	}
}
