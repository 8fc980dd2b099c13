package analyzer

import (
	"html/template"
	"strings"

	"github.com/dustin/go-humanize"

	"trading-persona-analyzer/internal/types"
)

var htmlFuncs = template.FuncMap{
	"rupees":  rupees,
	"comma":   func(n int) string { return humanize.Comma(int64(n)) },
	"lower":   strings.ToLower,
	"kebab":   func(s string) string { return strings.ReplaceAll(strings.ToLower(s), "_", "-") },
	"percent": func(v float64) string { return humanize.FormatFloat("#,###.#", v) + "%" },
	"paras":   func(s string) []string { return strings.Split(strings.TrimSpace(s), "\n\n") },
}

var htmlReport = template.Must(template.New("report").Funcs(htmlFuncs).Parse(`<!DOCTYPE html>
<html>
<head>
<meta charset="UTF-8">
<title>Trading Persona Report - {{.Trader}}</title>
<style>
body { font-family: Arial, sans-serif; margin: 40px; background: #f5f5f5; }
.container { max-width: 1200px; margin: auto; background: white; padding: 30px; border-radius: 10px; }
h1 { color: #2c3e50; border-bottom: 3px solid #3498db; padding-bottom: 10px; }
h2 { color: #34495e; margin-top: 30px; }
.metric { display: inline-block; margin: 10px 20px; padding: 15px; background: #ecf0f1; border-radius: 5px; }
.metric-label { font-weight: bold; color: #7f8c8d; font-size: 14px; }
.metric-value { font-size: 24px; color: #2c3e50; font-weight: bold; }
.risk-very-high { color: #c0392b; }
.risk-high { color: #e74c3c; }
.risk-medium { color: #f39c12; }
.risk-low { color: #27ae60; }
.pattern-detected { color: #e74c3c; font-weight: bold; }
.pattern-not-detected { color: #27ae60; }
.analysis-section { margin: 20px 0; padding: 15px; background: #f8f9fa; border-left: 4px solid #3498db; }
table { width: 100%; border-collapse: collapse; margin: 15px 0; font-size: 14px; }
th, td { border: 1px solid #ddd; padding: 8px; text-align: left; }
th { background: #f2f2f2; }
.warnings { color: #7f8c8d; font-size: 13px; }
</style>
</head>
<body>
<div class="container">
<h1>Trading Persona Report</h1>
<p><strong>Trader:</strong> {{.Trader}}</p>
{{with .Metrics}}{{if .FirstTradeDate}}<p><strong>Period:</strong> {{.FirstTradeDate}} to {{.LastTradeDate}}</p>{{end}}{{end}}
<p><strong>Generated:</strong> {{.GeneratedAt.Format "2006-01-02 15:04:05"}} (run {{.RunID}})</p>

<h2>Summary</h2>
<div class="metric"><div class="metric-label">Matched Trades</div><div class="metric-value">{{comma .Metrics.TotalTrades}}</div></div>
<div class="metric"><div class="metric-label">Net P&amp;L</div><div class="metric-value">{{rupees .Metrics.TotalPnL}}</div></div>
<div class="metric"><div class="metric-label">Win Rate</div><div class="metric-value">{{percent .Metrics.WinRate}}</div></div>
<div class="metric"><div class="metric-label">Risk Level</div><div class="metric-value risk-{{kebab (printf "%s" .Risk.Level)}}">{{.Risk.Level}}</div></div>
<div class="metric"><div class="metric-label">Risk Score</div><div class="metric-value">{{printf "%.0f" .Risk.Score}}/100</div></div>

<h2>Metrics</h2>
<table>
<tr><th>Profit factor</th><td>{{printf "%.2f" .Metrics.ProfitFactor}}</td><th>Expectancy</th><td>{{rupees .Metrics.Expectancy}}</td></tr>
<tr><th>Sharpe ratio</th><td>{{printf "%.2f" .Metrics.SharpeRatio}}</td><th>Sortino ratio</th><td>{{printf "%.2f" .Metrics.SortinoRatio}}</td></tr>
<tr><th>Max drawdown</th><td>{{rupees .Metrics.MaxDrawdown}} ({{printf "%.2f" .Metrics.MaxDrawdownPct}}%)</td><th>Avg holding</th><td>{{printf "%.1f" .Metrics.AvgHoldingMinutes}} min</td></tr>
</table>

<h2>Detected Patterns</h2>
<table>
<tr><th>Pattern</th><th>Detected</th><th>Severity</th><th>Detail</th></tr>
{{range .Patterns}}<tr><td>{{.Pattern}}</td><td class="pattern-{{if .Detected}}detected{{else}}not-detected{{end}}">{{if .Detected}}YES{{else}}NO{{end}}</td><td>{{.Severity}}</td><td>{{.Description}}</td></tr>
{{end}}</table>

<h2>Risk Factors</h2>
<table>
<tr><th>Factor</th><th>Points</th><th>Reason</th></tr>
{{range .Risk.Factors}}<tr><td>{{.Name}}</td><td>{{printf "%+.0f" .Points}}</td><td>{{.Reason}}</td></tr>
{{end}}</table>

<h2>Profile</h2>
<p>{{.Profile.Style}}. {{.Profile.StyleDescription}} Prefers {{lower .Profile.TimePreference}} sessions.</p>
{{with .Profile.InstrumentMix}}<table>
<tr><th>Instrument</th><th>Share</th></tr>
{{range $kind, $share := .}}<tr><td>{{$kind}}</td><td>{{percent $share}}</td></tr>
{{end}}</table>
{{end}}{{with .Profile.TopUnderlyings}}<table>
<tr><th>Underlying</th><th>Executions</th><th>Share</th></tr>
{{range .}}<tr><td>{{.Symbol}}</td><td>{{comma .Executions}}</td><td>{{percent .Share}}</td></tr>
{{end}}</table>
{{end}}
{{with .Trend}}<h2>Trend Context</h2>
<p>{{.Available}} trades scored, mean score {{printf "%+.2f" .MeanScore}}; {{.WithTrendWins}} winners traded with the trend, {{.AgainstTrend}} entries against it.</p>
{{end}}
{{with .Narrative}}<h2>AI Analysis</h2>
{{if .TraderProfile}}<div class="analysis-section"><h3>Trader Profile</h3>{{range paras .TraderProfile}}<p>{{.}}</p>{{end}}</div>{{end}}
{{if .RiskAssessment}}<div class="analysis-section"><h3>Risk Assessment</h3>{{range paras .RiskAssessment}}<p>{{.}}</p>{{end}}</div>{{end}}
{{if .BehavioralInsights}}<div class="analysis-section"><h3>Behavioral Insights</h3>{{range paras .BehavioralInsights}}<p>{{.}}</p>{{end}}</div>{{end}}
{{if .Recommendations}}<h2>Recommendations</h2><ul>{{range .Recommendations}}<li>{{.}}</li>{{end}}</ul>{{end}}
{{if .PerformanceSummary}}<h2>Performance Summary</h2>{{range paras .PerformanceSummary}}<p>{{.}}</p>{{end}}{{end}}
{{end}}
{{if .Warnings}}<div class="warnings"><h2>Warnings</h2><ul>{{range .Warnings}}<li>{{.}}</li>{{end}}</ul></div>{{end}}
<p class="warnings">Generated from execution history. Not financial advice.</p>
</div>
</body>
</html>
`))

func (r *Reporter) generateHTMLReport(report *types.AnalysisReport) (string, error) {
	var sb strings.Builder
	if err := htmlReport.Execute(&sb, report); err != nil {
		return "", err
	}
	return sb.String(), nil
}
