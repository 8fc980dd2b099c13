package ingest

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/gocarina/gocsv"

	"trading-persona-analyzer/internal/types"
)

// WriteCSV writes executions with the canonical header, readable by Loader.
func WriteCSV(w io.Writer, execs []types.Execution) error {
	rows := make([]*row, 0, len(execs))
	for _, e := range execs {
		rows = append(rows, &row{
			TradeDate:  e.Timestamp.Format(time.RFC3339),
			Symbol:     e.Symbol,
			Side:       string(e.Side),
			Quantity:   fmt.Sprintf("%d", e.Quantity),
			Price:      e.Price.String(),
			Charges:    e.Charges.String(),
			TradeValue: e.Notional().String(),
			Exchange:   e.Exchange,
			OrderID:    e.OrderID,
		})
	}
	return gocsv.Marshal(&rows, w)
}

func WriteCSVFile(path string, execs []types.Execution) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", path, err)
	}
	if err := WriteCSV(f, execs); err != nil {
		f.Close()
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	return f.Close()
}
