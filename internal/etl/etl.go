// Package etl copies the raw sales table into the processed Parquet layer and
// exports that layer as the "gold" CSV.
package etl

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"github.com/parquet-go/parquet-go"
	"go.uber.org/zap"

	"github.com/jeovahfialho/sales-analyzer/internal/domain"
	"github.com/jeovahfialho/sales-analyzer/pkg/logger"
	"github.com/jeovahfialho/sales-analyzer/pkg/metrics"
)

const StatusOK = "ok"
const StatusNoParquet = "no_parquet"

// Extractor reads the raw table; both sales sources satisfy it.
type Extractor interface {
	Read(ctx context.Context, filters *domain.FilterSpec) (*domain.SalesTable, error)
}

// record is the Parquet row layout. Dates are stored as YYYY-MM-DD text, empty
// when the row has none.
type record struct {
	OrderID   int64   `parquet:"order_id"`
	Region    string  `parquet:"region"`
	Product   string  `parquet:"product"`
	Quantity  int64   `parquet:"quantity"`
	UnitPrice float64 `parquet:"unit_price"`
	Total     float64 `parquet:"total"`
	Date      string  `parquet:"date"`
}

var goldHeader = []string{"order_id", "region", "product", "quantity", "unit_price", "total", "date"}

type Pipeline struct {
	source      Extractor
	parquetPath string
	csvPath     string
}

func NewPipeline(source Extractor, parquetPath, csvPath string) *Pipeline {
	return &Pipeline{
		source:      source,
		parquetPath: parquetPath,
		csvPath:     csvPath,
	}
}

// Run extracts every row, recomputes total and writes the Parquet file. An
// empty dest writes to the configured Parquet path.
func (p *Pipeline) Run(ctx context.Context, dest string) (result *domain.ETLResult, err error) {
	defer func() { metrics.RecordETLRun(err) }()

	if dest == "" {
		dest = p.parquetPath
	}

	table, err := p.source.Read(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("erro na extração: %w", err)
	}

	records := transform(table)
	if err := writeParquet(dest, records); err != nil {
		return nil, err
	}

	logger.Component("etl").Info("etl concluído", zap.Int("rows", len(records)), zap.String("dest", dest))
	return &domain.ETLResult{Rows: len(records), Dest: dest}, nil
}

func transform(table *domain.SalesTable) []record {
	records := make([]record, table.Len())
	for i, r := range table.Rows {
		records[i] = record{
			OrderID:   r.OrderID,
			Region:    r.Region,
			Product:   r.Product,
			Quantity:  r.Quantity,
			UnitPrice: r.UnitPrice,
			Total:     float64(r.Quantity) * r.UnitPrice,
		}
		if !r.Date.IsZero() {
			records[i].Date = r.Date.Format(domain.DateLayout)
		}
	}
	return records
}

func writeParquet(dest string, records []record) error {
	if err := os.MkdirAll(filepath.Dir(dest), 0755); err != nil {
		return fmt.Errorf("erro ao criar diretório: %w", err)
	}

	tmp := dest + ".tmp"
	if err := parquet.WriteFile(tmp, records); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("erro ao gravar parquet: %w", err)
	}
	if err := os.Rename(tmp, dest); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("erro ao renomear parquet: %w", err)
	}
	return nil
}

// ExportGold converts the Parquet layer to CSV. A missing Parquet file is
// reported in the result, not as an error.
func (p *Pipeline) ExportGold(ctx context.Context) (*domain.GoldExportResult, error) {
	if _, err := os.Stat(p.parquetPath); errors.Is(err, os.ErrNotExist) {
		return &domain.GoldExportResult{
			Status:  StatusNoParquet,
			Message: fmt.Sprintf("%s não encontrado. Rode /etl/run primeiro.", p.parquetPath),
		}, nil
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	records, err := parquet.ReadFile[record](p.parquetPath)
	if err != nil {
		return nil, fmt.Errorf("erro ao ler parquet: %w", err)
	}

	if err := writeGoldCSV(p.csvPath, records); err != nil {
		return nil, err
	}

	logger.Component("etl").Info("camada gold exportada", zap.Int("rows", len(records)), zap.String("csv", p.csvPath))
	return &domain.GoldExportResult{
		Status:  StatusOK,
		Rows:    len(records),
		Parquet: p.parquetPath,
		CSV:     p.csvPath,
	}, nil
}

func writeGoldCSV(path string, records []record) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("erro ao criar diretório: %w", err)
	}

	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("erro ao criar csv: %w", err)
	}
	defer file.Close()

	w := csv.NewWriter(file)
	if err := w.Write(goldHeader); err != nil {
		return fmt.Errorf("erro ao gravar csv: %w", err)
	}
	for _, rec := range records {
		err := w.Write([]string{
			strconv.FormatInt(rec.OrderID, 10),
			rec.Region,
			rec.Product,
			strconv.FormatInt(rec.Quantity, 10),
			strconv.FormatFloat(rec.UnitPrice, 'f', -1, 64),
			strconv.FormatFloat(rec.Total, 'f', -1, 64),
			rec.Date,
		})
		if err != nil {
			return fmt.Errorf("erro ao gravar csv: %w", err)
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return fmt.Errorf("erro ao gravar csv: %w", err)
	}
	return file.Close()
}
