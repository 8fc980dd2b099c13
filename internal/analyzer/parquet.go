package analyzer

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"

	"github.com/xitongsys/parquet-go/parquet"
	"github.com/xitongsys/parquet-go/source"
	"github.com/xitongsys/parquet-go/writer"

	"trading-persona-analyzer/internal/types"
)

type tradeRecord struct {
	RunID          string  `parquet:"name=run_id, type=BYTE_ARRAY, convertedtype=UTF8"`
	Trader         string  `parquet:"name=trader, type=BYTE_ARRAY, convertedtype=UTF8"`
	Symbol         string  `parquet:"name=symbol, type=BYTE_ARRAY, convertedtype=UTF8"`
	Direction      string  `parquet:"name=direction, type=BYTE_ARRAY, convertedtype=UTF8"`
	EntryTime      int64   `parquet:"name=entry_time, type=INT64, convertedtype=TIMESTAMP_MILLIS"`
	ExitTime       int64   `parquet:"name=exit_time, type=INT64, convertedtype=TIMESTAMP_MILLIS"`
	EntryPrice     float64 `parquet:"name=entry_price, type=DOUBLE"`
	ExitPrice      float64 `parquet:"name=exit_price, type=DOUBLE"`
	Quantity       int64   `parquet:"name=quantity, type=INT64"`
	Charges        float64 `parquet:"name=charges, type=DOUBLE"`
	PnL            float64 `parquet:"name=pnl, type=DOUBLE"`
	HoldingMinutes float64 `parquet:"name=holding_minutes, type=DOUBLE"`
}

// memFile is an in-memory source.ParquetFile; the writer only appends.
type memFile struct {
	buffer *bytes.Buffer
}

func newMemFile() *memFile {
	return &memFile{buffer: &bytes.Buffer{}}
}

func (m *memFile) Create(string) (source.ParquetFile, error) { return m, nil }
func (m *memFile) Open(string) (source.ParquetFile, error)   { return m, nil }
func (m *memFile) Seek(int64, int) (int64, error)            { return int64(m.buffer.Len()), nil }
func (m *memFile) Read([]byte) (int, error)                  { return 0, fmt.Errorf("read not supported") }
func (m *memFile) Write(b []byte) (int, error)               { return m.buffer.Write(b) }
func (m *memFile) Close() error                              { return nil }

// EncodeTradesParquet returns the matched trades as a snappy-compressed parquet file.
func EncodeTradesParquet(report *types.AnalysisReport) ([]byte, error) {
	mem := newMemFile()
	pw, err := writer.NewParquetWriter(mem, new(tradeRecord), 1)
	if err != nil {
		return nil, fmt.Errorf("new parquet writer: %w", err)
	}
	pw.CompressionType = parquet.CompressionCodec_SNAPPY

	for _, t := range report.Trades {
		rec := tradeRecord{
			RunID:          report.RunID,
			Trader:         report.Trader,
			Symbol:         t.Symbol,
			Direction:      string(t.Direction),
			EntryTime:      t.EntryTime.UnixMilli(),
			ExitTime:       t.ExitTime.UnixMilli(),
			EntryPrice:     t.EntryPrice.InexactFloat64(),
			ExitPrice:      t.ExitPrice.InexactFloat64(),
			Quantity:       t.Quantity,
			Charges:        t.Charges.InexactFloat64(),
			PnL:            t.PnLFloat(),
			HoldingMinutes: t.HoldingMinutes,
		}
		if err := pw.Write(rec); err != nil {
			pw.WriteStop()
			return nil, fmt.Errorf("write trade record: %w", err)
		}
	}
	if err := pw.WriteStop(); err != nil {
		return nil, fmt.Errorf("finalize trades parquet: %w", err)
	}
	return mem.buffer.Bytes(), nil
}

// SaveTradesParquet writes <trader>_trades_<timestamp>.parquet next to the reports.
func (r *Reporter) SaveTradesParquet(report *types.AnalysisReport) (string, error) {
	data, err := EncodeTradesParquet(report)
	if err != nil {
		return "", err
	}
	if err := os.MkdirAll(r.outputDir, 0o755); err != nil {
		return "", err
	}
	name := fmt.Sprintf("%s_trades_%s.parquet",
		unsafeName.ReplaceAllString(report.Trader, "_"),
		report.GeneratedAt.Format("2006-01-02_15-04-05"))
	path := filepath.Join(r.outputDir, name)
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return "", err
	}
	return path, nil
}
