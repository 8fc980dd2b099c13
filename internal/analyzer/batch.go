package analyzer

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/gocarina/gocsv"

	"trading-persona-analyzer/internal/ingest"
	"trading-persona-analyzer/internal/logger"
	"trading-persona-analyzer/internal/types"
)

// ExecutionLoader reads one tradebook file.
type ExecutionLoader interface {
	LoadFile(ctx context.Context, path string) (ingest.Tradebook, error)
}

type BatchResult struct {
	File   string
	Trader string
	Report *types.AnalysisReport
	Err    error
}

// CSVFiles lists the .csv files directly under dir, sorted by name.
func CSVFiles(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, err
	}
	var files []string
	for _, e := range entries {
		if !e.IsDir() && strings.EqualFold(filepath.Ext(e.Name()), ".csv") {
			files = append(files, filepath.Join(dir, e.Name()))
		}
	}
	sort.Strings(files)
	return files, nil
}

// TraderFromPath names a trader after the file it was loaded from.
func TraderFromPath(path string) string {
	base := filepath.Base(path)
	return strings.TrimSuffix(base, filepath.Ext(base))
}

// AnalyzeTradebook analyzes a loaded tradebook and carries the loader's
// warnings into the report.
func (a *Analyzer) AnalyzeTradebook(ctx context.Context, trader string, book ingest.Tradebook) (*types.AnalysisReport, error) {
	report, err := a.Analyze(ctx, trader, book.Executions)
	if err != nil {
		return nil, err
	}
	report.Warnings = append(book.Warnings(), report.Warnings...)
	return report, nil
}

// AnalyzeFiles runs one independent analysis per file. A failed file is
// recorded in its result and does not stop the batch.
func (a *Analyzer) AnalyzeFiles(ctx context.Context, loader ExecutionLoader, paths []string) []BatchResult {
	results := make([]BatchResult, 0, len(paths))
	for _, path := range paths {
		if ctx.Err() != nil {
			results = append(results, BatchResult{File: path, Trader: TraderFromPath(path), Err: ctx.Err()})
			continue
		}
		res := BatchResult{File: path, Trader: TraderFromPath(path)}
		book, err := loader.LoadFile(ctx, path)
		if err == nil {
			res.Report, err = a.AnalyzeTradebook(ctx, res.Trader, book)
		}
		if err != nil {
			logger.ErrorWithErr(ctx, "Batch file failed", err, "file", path)
			res.Err = err
		}
		results = append(results, res)
	}
	return results
}

type summaryRow struct {
	Trader    string `csv:"trader"`
	File      string `csv:"file"`
	RiskScore string `csv:"risk_score"`
	RiskLevel string `csv:"risk_level"`
	Trades    int    `csv:"matched_trades"`
	WinRate   string `csv:"win_rate"`
	TotalPnL  string `csv:"total_pnl"`
	Patterns  string `csv:"detected_patterns"`
	Error     string `csv:"error"`
}

// WriteBatchSummary writes one row per file, riskiest first; failed files go last.
func WriteBatchSummary(w io.Writer, results []BatchResult) error {
	sorted := make([]BatchResult, len(results))
	copy(sorted, results)
	sort.SliceStable(sorted, func(i, j int) bool {
		ri, rj := sorted[i].Report, sorted[j].Report
		switch {
		case ri == nil || rj == nil:
			return ri != nil && rj == nil
		default:
			return ri.Risk.Score > rj.Risk.Score
		}
	})

	rows := make([]*summaryRow, 0, len(sorted))
	for _, res := range sorted {
		row := &summaryRow{Trader: res.Trader, File: res.File}
		if res.Err != nil {
			row.Error = res.Err.Error()
		}
		if rep := res.Report; rep != nil {
			row.RiskScore = fmt.Sprintf("%.0f", rep.Risk.Score)
			row.RiskLevel = string(rep.Risk.Level)
			row.Trades = rep.Metrics.TotalTrades
			row.WinRate = fmt.Sprintf("%.2f", rep.Metrics.WinRate)
			row.TotalPnL = fmt.Sprintf("%.2f", rep.Metrics.TotalPnL)
			var detected []string
			for _, f := range rep.Patterns {
				if f.Detected {
					detected = append(detected, f.Pattern)
				}
			}
			row.Patterns = strings.Join(detected, ";")
		}
		rows = append(rows, row)
	}
	return gocsv.Marshal(&rows, w)
}
