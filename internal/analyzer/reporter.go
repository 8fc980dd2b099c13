package analyzer

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/gocarina/gocsv"

	"trading-persona-analyzer/internal/patterns"
	"trading-persona-analyzer/internal/types"
)

// ReportFormat specifies the output format for analysis reports
type ReportFormat string

const (
	FormatJSON ReportFormat = "json"
	FormatText ReportFormat = "text"
	FormatCSV  ReportFormat = "csv"
	FormatHTML ReportFormat = "html"
)

var extensions = map[ReportFormat]string{
	FormatJSON: "json",
	FormatText: "txt",
	FormatCSV:  "csv",
	FormatHTML: "html",
}

// ParseFormat accepts a format name in any case.
func ParseFormat(s string) (ReportFormat, error) {
	f := ReportFormat(strings.ToLower(strings.TrimSpace(s)))
	if _, ok := extensions[f]; !ok {
		return "", fmt.Errorf("unsupported format: %s", s)
	}
	return f, nil
}

// Reporter handles generation and storage of analysis reports
type Reporter struct {
	outputDir string
}

func NewReporter(outputDir string) *Reporter {
	return &Reporter{outputDir: outputDir}
}

// GenerateReport renders the report in the given format
func (r *Reporter) GenerateReport(report *types.AnalysisReport, format ReportFormat) (string, error) {
	switch format {
	case FormatJSON:
		return r.generateJSONReport(report)
	case FormatText:
		return r.generateTextReport(report), nil
	case FormatCSV:
		return r.generateCSVReport(report)
	case FormatHTML:
		return r.generateHTMLReport(report)
	default:
		return "", fmt.Errorf("unsupported format: %s", format)
	}
}

var unsafeName = regexp.MustCompile(`[^A-Za-z0-9_.-]+`)

// SaveReport writes the report under the output directory and returns its path
func (r *Reporter) SaveReport(report *types.AnalysisReport, format ReportFormat) (string, error) {
	content, err := r.GenerateReport(report, format)
	if err != nil {
		return "", err
	}
	if err := os.MkdirAll(r.outputDir, 0o755); err != nil {
		return "", err
	}

	timestamp := report.GeneratedAt.Format("2006-01-02_15-04-05")
	trader := unsafeName.ReplaceAllString(report.Trader, "_")
	path := filepath.Join(r.outputDir, fmt.Sprintf("%s_persona_%s.%s", trader, timestamp, extensions[format]))

	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		return "", err
	}
	return path, nil
}

func (r *Reporter) generateJSONReport(report *types.AnalysisReport) (string, error) {
	data, err := json.MarshalIndent(report, "", "  ")
	if err != nil {
		return "", err
	}
	return string(data), nil
}

func rupees(v float64) string {
	if v < 0 {
		return "-₹" + humanize.CommafWithDigits(-v, 2)
	}
	return "₹" + humanize.CommafWithDigits(v, 2)
}

func (r *Reporter) generateTextReport(report *types.AnalysisReport) string {
	var sb strings.Builder
	bar := strings.Repeat("=", 80) + "\n"
	rule := strings.Repeat("-", 80) + "\n"
	m := report.Metrics

	sb.WriteString(bar)
	fmt.Fprintf(&sb, "TRADING PERSONA REPORT - %s\n", report.Trader)
	sb.WriteString(bar)
	fmt.Fprintf(&sb, "Run: %s\n", report.RunID)
	fmt.Fprintf(&sb, "Generated: %s\n", report.GeneratedAt.Format("2006-01-02 15:04:05"))
	if m.FirstTradeDate != "" {
		fmt.Fprintf(&sb, "Period: %s to %s (%d trading days)\n", m.FirstTradeDate, m.LastTradeDate, m.TradingDays)
	}
	fmt.Fprintf(&sb, "Risk Score: %.0f/100 (%s)\n\n", report.Risk.Score, report.Risk.Level)

	sb.WriteString("PERFORMANCE\n")
	sb.WriteString(rule)
	fmt.Fprintf(&sb, "Matched trades:     %s (%d won, %d lost)\n", humanize.Comma(int64(m.TotalTrades)), m.WinningTrades, m.LosingTrades)
	fmt.Fprintf(&sb, "Executions:         %s\n", humanize.Comma(int64(m.TotalExecutions)))
	fmt.Fprintf(&sb, "Net P&L:            %s (charges %s)\n", rupees(m.TotalPnL), rupees(m.TotalCharges))
	fmt.Fprintf(&sb, "Win rate:           %.2f%%\n", m.WinRate)
	fmt.Fprintf(&sb, "Profit factor:      %.2f\n", m.ProfitFactor)
	fmt.Fprintf(&sb, "Expectancy:         %s\n", rupees(m.Expectancy))
	fmt.Fprintf(&sb, "Sharpe / Sortino:   %.2f / %.2f\n", m.SharpeRatio, m.SortinoRatio)
	fmt.Fprintf(&sb, "Max drawdown:       %s (%.2f%%)\n", rupees(m.MaxDrawdown), m.MaxDrawdownPct)
	fmt.Fprintf(&sb, "Largest win/loss:   %s / %s\n", rupees(m.LargestWin), rupees(m.LargestLoss))
	fmt.Fprintf(&sb, "Avg holding:        %.1f min\n", m.AvgHoldingMinutes)
	fmt.Fprintf(&sb, "Streaks:            %d wins, %d losses\n", m.MaxConsecutiveWins, m.MaxConsecutiveLosses)

	sb.WriteString("\nBEHAVIOR PATTERNS\n")
	sb.WriteString(rule)
	for _, f := range report.Patterns {
		mark := "  "
		if f.Detected {
			mark = "⚠ "
		}
		fmt.Fprintf(&sb, "%s%-16s %-6s %s\n", mark, f.Pattern, f.Severity, f.Description)
	}

	sb.WriteString("\nRISK FACTORS\n")
	sb.WriteString(rule)
	for _, f := range report.Risk.Factors {
		fmt.Fprintf(&sb, "%+6.0f  %-22s %s\n", f.Points, f.Name, f.Reason)
	}

	p := report.Profile
	sb.WriteString("\nPROFILE\n")
	sb.WriteString(rule)
	fmt.Fprintf(&sb, "Style: %s\n", p.Style)
	fmt.Fprintf(&sb, "Session preference: %s (%d morning, %d afternoon entries)\n", p.TimePreference, p.MorningTrades, p.AfternoonTrades)
	for _, s := range p.TopSymbols {
		fmt.Fprintf(&sb, "  %-28s %5d executions  %5.1f%%\n", s.Symbol, s.Executions, s.Share)
	}
	sb.WriteString("Instrument mix:")
	for _, k := range patterns.InstrumentKinds {
		fmt.Fprintf(&sb, " %s %.1f%%", k, p.InstrumentMix[string(k)])
	}
	sb.WriteString("\n")
	for _, u := range p.TopUnderlyings {
		fmt.Fprintf(&sb, "  underlying %-17s %5d executions  %5.1f%%\n", u.Symbol, u.Executions, u.Share)
	}
	for _, b := range patterns.HoldingBuckets {
		fmt.Fprintf(&sb, "  held %-8s %d\n", b, p.HoldingDistribution[b])
	}

	if t := report.Trend; t != nil {
		sb.WriteString("\nTREND CONTEXT\n")
		sb.WriteString(rule)
		fmt.Fprintf(&sb, "Scored trades: %d of %d, mean score %+.2f\n", t.Available, t.Available+t.Unavailable, t.MeanScore)
		fmt.Fprintf(&sb, "Winners with the trend: %d, entries against the trend: %d\n", t.WithTrendWins, t.AgainstTrend)
		for _, idx := range sortedKeys(t.MeanIndexScores) {
			fmt.Fprintf(&sb, "  %-12s mean %+.2f\n", idx, t.MeanIndexScores[idx])
		}
	}

	if n := report.Narrative; n != nil {
		sb.WriteString("\nANALYSIS (" + n.Provider + ")\n")
		sb.WriteString(rule)
		for _, s := range []struct{ title, body string }{
			{"Trader profile", n.TraderProfile},
			{"Risk assessment", n.RiskAssessment},
			{"Behavioral insights", n.BehavioralInsights},
			{"Performance summary", n.PerformanceSummary},
		} {
			if s.body != "" {
				fmt.Fprintf(&sb, "\n%s\n%s\n", strings.ToUpper(s.title), s.body)
			}
		}
		if len(n.Recommendations) > 0 {
			sb.WriteString("\nRECOMMENDATIONS\n")
			for i, rec := range n.Recommendations {
				fmt.Fprintf(&sb, "%d. %s\n", i+1, rec)
			}
		}
	}

	if len(report.Warnings) > 0 {
		sb.WriteString("\nWARNINGS\n")
		sb.WriteString(rule)
		for _, w := range report.Warnings {
			fmt.Fprintf(&sb, "- %s\n", w)
		}
	}

	sb.WriteString("\n" + bar)
	sb.WriteString("END OF REPORT\n")
	sb.WriteString(bar)
	return sb.String()
}

type csvRow struct {
	Section string `csv:"section"`
	Name    string `csv:"name"`
	Value   string `csv:"value"`
	Detail  string `csv:"detail"`
}

func (r *Reporter) generateCSVReport(report *types.AnalysisReport) (string, error) {
	m := report.Metrics
	f := func(v float64) string { return fmt.Sprintf("%.4f", v) }
	rows := []*csvRow{
		{"metric", "total_trades", fmt.Sprint(m.TotalTrades), ""},
		{"metric", "total_executions", fmt.Sprint(m.TotalExecutions), ""},
		{"metric", "win_rate", f(m.WinRate), m.Fallbacks["win_rate"]},
		{"metric", "total_pnl", f(m.TotalPnL), ""},
		{"metric", "avg_pnl", f(m.AvgPnL), m.Fallbacks["avg_pnl"]},
		{"metric", "expectancy", f(m.Expectancy), m.Fallbacks["expectancy"]},
		{"metric", "profit_factor", f(m.ProfitFactor), m.Fallbacks["profit_factor"]},
		{"metric", "sharpe_ratio", f(m.SharpeRatio), m.Fallbacks["sharpe_ratio"]},
		{"metric", "sortino_ratio", f(m.SortinoRatio), m.Fallbacks["sortino_ratio"]},
		{"metric", "max_drawdown", f(m.MaxDrawdown), ""},
		{"metric", "max_drawdown_pct", f(m.MaxDrawdownPct), m.Fallbacks["max_drawdown_pct"]},
		{"metric", "avg_holding_minutes", f(m.AvgHoldingMinutes), ""},
	}
	for _, p := range report.Patterns {
		rows = append(rows, &csvRow{"pattern", p.Pattern, fmt.Sprint(p.Detected), string(p.Severity) + ": " + p.Description})
	}
	for _, rf := range report.Risk.Factors {
		rows = append(rows, &csvRow{"risk_factor", rf.Name, f(rf.Points), rf.Reason})
	}
	rows = append(rows, &csvRow{"risk", "score", f(report.Risk.Score), string(report.Risk.Level)})

	return gocsv.MarshalString(&rows)
}
