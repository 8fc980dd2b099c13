package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"trading-persona-analyzer/internal/analyzer"
	"trading-persona-analyzer/internal/ingest"
	"trading-persona-analyzer/internal/logger"
	"trading-persona-analyzer/internal/narrative"
	"trading-persona-analyzer/internal/store"
	"trading-persona-analyzer/internal/telemetry"
	"trading-persona-analyzer/internal/trend"
	"trading-persona-analyzer/internal/types"
)

// Exit codes: 0 success, 1 failure, 2 at least one trader scored HIGH or above.
const (
	exitOK       = 0
	exitFailure  = 1
	exitHighRisk = 2
)

func main() {
	os.Exit(run())
}

func run() int {
	configPath := flag.String("config", "config.yaml", "path to config file")
	input := flag.String("input", "", "execution CSV file to analyze")
	batchDir := flag.String("batch", "", "directory of execution CSV files, one trader per file")
	formats := flag.String("format", "", "comma separated report formats: json, text, csv, html (default from config)")
	outputDir := flag.String("output", "", "report directory (default from config)")
	trader := flag.String("trader", "", "trader name for -input (default: file name)")
	flag.Parse()

	if (*input == "") == (*batchDir == "") {
		fmt.Fprintln(os.Stderr, "Error: exactly one of -input or -batch is required")
		flag.Usage()
		return exitFailure
	}

	if err := logger.Init(); err != nil {
		fmt.Fprintf(os.Stderr, "Error initializing logger: %v\n", err)
		return exitFailure
	}
	defer func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = logger.Shutdown(ctx)
	}()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, err := store.LoadConfig(*configPath)
	if errors.Is(err, os.ErrNotExist) {
		logger.Warn(ctx, "Config file not found, using defaults", "path", *configPath)
		cfg, err = store.Default(), nil
	}
	if err != nil {
		logger.ErrorWithErr(ctx, "Failed to load config", err)
		return exitFailure
	}
	if *outputDir != "" {
		cfg.Report.OutputDir = *outputDir
	}
	if *formats != "" {
		cfg.Report.Formats = strings.Split(*formats, ",")
	}
	reportFormats := make([]analyzer.ReportFormat, 0, len(cfg.Report.Formats))
	for _, f := range cfg.Report.Formats {
		rf, err := analyzer.ParseFormat(f)
		if err != nil {
			logger.ErrorWithErr(ctx, "Invalid report format", err)
			return exitFailure
		}
		reportFormats = append(reportFormats, rf)
	}

	secrets, err := store.LoadSecrets()
	if err != nil {
		logger.ErrorWithErr(ctx, "Failed to load secrets", err)
		return exitFailure
	}
	if err := secrets.Check(cfg); err != nil {
		logger.ErrorWithErr(ctx, "Missing credentials", err)
		return exitFailure
	}

	tel := telemetry.New()
	opts := []analyzer.Option{analyzer.WithTelemetry(tel)}

	if cfg.Trend.Enabled {
		svc, closeCache, err := trend.FromConfig(ctx, cfg.Trend, secrets)
		if err != nil {
			logger.ErrorWithErr(ctx, "Failed to set up trend enrichment", err)
			return exitFailure
		}
		defer func() {
			if err := closeCache(); err != nil {
				logger.Warn(ctx, "Failed to close trend cache", "error", err)
			}
		}()
		opts = append(opts, analyzer.WithTrend(svc))
	}

	narrator, err := narrative.FromConfig(ctx, cfg.LLM, secrets)
	if err != nil {
		logger.ErrorWithErr(ctx, "Failed to set up narrative provider", err)
		return exitFailure
	}
	opts = append(opts, analyzer.WithNarrator(narrator))

	loader, err := ingest.NewLoader(cfg.Input)
	if err != nil {
		logger.ErrorWithErr(ctx, "Invalid input settings", err)
		return exitFailure
	}

	a := analyzer.New(cfg, opts...)
	reporter := analyzer.NewReporter(cfg.Report.OutputDir)

	var results []analyzer.BatchResult
	if *input != "" {
		name := *trader
		if name == "" {
			name = analyzer.TraderFromPath(*input)
		}
		res := analyzer.BatchResult{File: *input, Trader: name}
		book, err := loader.LoadFile(ctx, *input)
		if err == nil {
			res.Report, err = a.AnalyzeTradebook(ctx, name, book)
		}
		res.Err = err
		results = append(results, res)
	} else {
		files, err := analyzer.CSVFiles(*batchDir)
		if err != nil {
			logger.ErrorWithErr(ctx, "Failed to list batch directory", err, "dir", *batchDir)
			return exitFailure
		}
		if len(files) == 0 {
			logger.Error(ctx, "No CSV files in batch directory", "dir", *batchDir)
			return exitFailure
		}
		results = a.AnalyzeFiles(ctx, loader, files)
	}

	code := exitOK
	failed := 0
	for _, res := range results {
		if res.Err != nil {
			failed++
			fmt.Fprintf(os.Stderr, "❌ %s: %v\n", res.File, res.Err)
			continue
		}
		if err := saveReports(ctx, reporter, res.Report, reportFormats, cfg.Report.Parquet); err != nil {
			logger.ErrorWithErr(ctx, "Failed to save report", err, "trader", res.Trader)
			failed++
			continue
		}
		printSummary(res.Report)
		if res.Report.Risk.Level == types.RiskHigh || res.Report.Risk.Level == types.RiskVeryHigh {
			code = exitHighRisk
		}
	}

	if *batchDir != "" {
		if err := writeBatchSummary(cfg.Report.OutputDir, results); err != nil {
			logger.ErrorWithErr(ctx, "Failed to write batch summary", err)
			failed++
		}
	}

	if cfg.Report.MetricsTextfile != "" {
		if err := tel.WriteTextfile(cfg.Report.MetricsTextfile); err != nil {
			logger.Warn(ctx, "Failed to write metrics textfile", "error", err)
		}
	}

	if failed > 0 {
		return exitFailure
	}
	return code
}

func saveReports(ctx context.Context, reporter *analyzer.Reporter, report *types.AnalysisReport, formats []analyzer.ReportFormat, parquet bool) error {
	for _, f := range formats {
		path, err := reporter.SaveReport(report, f)
		if err != nil {
			return fmt.Errorf("%s report: %w", f, err)
		}
		logger.Info(ctx, "Report saved", "trader", report.Trader, "format", string(f), "path", path)
	}
	if parquet && len(report.Trades) > 0 {
		path, err := reporter.SaveTradesParquet(report)
		if err != nil {
			return fmt.Errorf("parquet export: %w", err)
		}
		logger.Info(ctx, "Trades exported", "trader", report.Trader, "path", path)
	}
	return nil
}

func writeBatchSummary(dir string, results []analyzer.BatchResult) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}
	path := filepath.Join(dir, fmt.Sprintf("batch_summary_%s.csv", time.Now().Format("2006-01-02_15-04-05")))
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := analyzer.WriteBatchSummary(f, results); err != nil {
		f.Close()
		return err
	}
	fmt.Printf("\n✅ Batch summary saved to: %s\n", path)
	return f.Close()
}

func printSummary(r *types.AnalysisReport) {
	badge := map[types.RiskLevel]string{
		types.RiskLow:      "🟢 LOW",
		types.RiskMedium:   "🟡 MEDIUM",
		types.RiskHigh:     "🟠 HIGH",
		types.RiskVeryHigh: "🔴 VERY HIGH",
	}[r.Risk.Level]

	fmt.Println("─────────────────────────────────────────────────────────────────────────────")
	fmt.Printf("Trader: %s\n", r.Trader)
	fmt.Printf("Matched trades: %d, win rate %.2f%%, net P&L %.2f\n", r.Metrics.TotalTrades, r.Metrics.WinRate, r.Metrics.TotalPnL)
	fmt.Printf("Risk Score: %.0f/100 %s\n", r.Risk.Score, badge)
	for _, f := range r.Patterns {
		if f.Detected {
			fmt.Printf("  ⚠️  %s (%s)\n", f.Pattern, f.Severity)
		}
	}
	if len(r.Warnings) > 0 {
		fmt.Printf("Warnings: %d (see report)\n", len(r.Warnings))
	}
}
