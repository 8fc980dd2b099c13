package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"trading-persona-analyzer/internal/broker/brokerobs"
	"trading-persona-analyzer/internal/broker/dhan"
	"trading-persona-analyzer/internal/broker/zerodha"
	"trading-persona-analyzer/internal/ingest"
	"trading-persona-analyzer/internal/interfaces"
	"trading-persona-analyzer/internal/logger"
	"trading-persona-analyzer/internal/store"
)

func main() {
	brokerName := flag.String("broker", "", "broker to pull executions from: zerodha or dhan (required)")
	from := flag.String("from", "", "first trade date, YYYY-MM-DD (dhan)")
	to := flag.String("to", "", "last trade date, YYYY-MM-DD (dhan, default today)")
	output := flag.String("output", "", "CSV file to write (default data/<broker>_executions_<date>.csv)")
	timezone := flag.String("timezone", "Asia/Kolkata", "timezone of broker timestamps")
	flag.Parse()

	if *brokerName == "" {
		fmt.Fprintln(os.Stderr, "Error: -broker is required")
		flag.Usage()
		os.Exit(1)
	}

	if err := logger.Init(); err != nil {
		fmt.Fprintf(os.Stderr, "Error initializing logger: %v\n", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	loc, err := time.LoadLocation(*timezone)
	if err != nil {
		logger.ErrorWithErr(ctx, "Invalid timezone", err, "timezone", *timezone)
		os.Exit(1)
	}

	secrets, err := store.LoadSecrets()
	if err != nil {
		logger.ErrorWithErr(ctx, "Failed to load secrets", err)
		os.Exit(1)
	}

	name := strings.ToLower(*brokerName)
	source, err := newSource(name, secrets, *from, *to, loc)
	if err != nil {
		logger.ErrorWithErr(ctx, "Failed to create broker client", err, "broker", name)
		os.Exit(1)
	}

	execs, err := brokerobs.WrapSource(name, source).Executions(ctx)
	if err != nil {
		logger.ErrorWithErr(ctx, "Failed to fetch executions", err, "broker", name)
		os.Exit(1)
	}

	path := *output
	if path == "" {
		path = fmt.Sprintf("data/%s_executions_%s.csv", name, time.Now().In(loc).Format("2006-01-02"))
	}
	if err := ingest.WriteCSVFile(path, execs); err != nil {
		logger.ErrorWithErr(ctx, "Failed to write executions", err, "path", path)
		os.Exit(1)
	}

	fmt.Printf("✅ %d executions written to %s\n", len(execs), path)

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	_ = logger.Shutdown(shutdownCtx)
}

func newSource(name string, secrets *store.Secrets, from, to string, loc *time.Location) (interfaces.ExecutionSource, error) {
	switch name {
	case "zerodha", "kite":
		return zerodha.New(zerodha.Params{
			APIKey:      secrets.KiteAPIKey,
			AccessToken: secrets.KiteAccessToken,
			Location:    loc,
		})
	case "dhan":
		if from == "" {
			return nil, fmt.Errorf("-from is required for dhan")
		}
		start, err := time.ParseInLocation(time.DateOnly, from, loc)
		if err != nil {
			return nil, fmt.Errorf("invalid -from: %w", err)
		}
		end := time.Now().In(loc)
		if to != "" {
			if end, err = time.ParseInLocation(time.DateOnly, to, loc); err != nil {
				return nil, fmt.Errorf("invalid -to: %w", err)
			}
		}
		return dhan.New(dhan.Params{
			AccessToken: secrets.DhanAccessToken,
			ClientID:    secrets.DhanClientID,
			BaseURL:     secrets.DhanBaseURL,
			From:        start,
			To:          end,
			Location:    loc,
		})
	default:
		return nil, fmt.Errorf("unknown broker %q, want zerodha or dhan", name)
	}
}
