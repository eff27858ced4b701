package ingestion

import (
	"bufio"
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"slices"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/shopspring/decimal"

	"github.com/jeovahfialho/sales-analyzer/internal/domain"
)

var ErrEmptyFile = errors.New("arquivo csv sem cabeçalho")

var dateLayouts = []string{
	domain.DateLayout,
	"2006-01-02 15:04:05",
	"2006-01-02T15:04:05",
	time.RFC3339,
	"02/01/2006",
	"2006/01/02",
}

type Parser struct {
	batchSize int
	workers   int
}

func NewParser(batchSize, workers int) *Parser {
	if batchSize <= 0 {
		batchSize = 1000
	}
	if workers <= 0 {
		workers = 1
	}
	return &Parser{
		batchSize: batchSize,
		workers:   workers,
	}
}

// ParseResult carries the parsed table in file order and the rows that were
// excluded because quantity or unit_price could not be read.
type ParseResult struct {
	Table  *domain.SalesTable
	Errors []domain.MalformedRow
}

type job struct {
	line   int
	record []string
}

type parsedRow struct {
	line int
	row  domain.SalesRow
	bad  *domain.MalformedRow
}

// header maps known column names to their position in a record.
type header map[string]int

func (h header) get(record []string, col string) (string, bool) {
	i, ok := h[col]
	if !ok || i >= len(record) {
		return "", false
	}
	return strings.TrimSpace(record[i]), true
}

// ParseFile parses a sales CSV. The delimiter is detected from the header line
// (',' or ';').
func (p *Parser) ParseFile(ctx context.Context, reader io.Reader) (*ParseResult, error) {
	br := bufio.NewReader(reader)
	head, _ := br.Peek(4096)
	return p.ParseFileDelimited(ctx, br, DetectDelimiter(head))
}

// DetectDelimiter picks ';' when the first line has semicolons and no commas.
func DetectDelimiter(head []byte) rune {
	line := string(head)
	if i := strings.IndexByte(line, '\n'); i >= 0 {
		line = line[:i]
	}
	if strings.Contains(line, ";") && !strings.Contains(line, ",") {
		return ';'
	}
	return ','
}

// ParseFileDelimited parses with an explicit delimiter.
func (p *Parser) ParseFileDelimited(ctx context.Context, reader io.Reader, comma rune) (*ParseResult, error) {
	csvReader := csv.NewReader(reader)
	csvReader.Comma = comma
	csvReader.LazyQuotes = true
	csvReader.TrimLeadingSpace = true
	csvReader.FieldsPerRecord = -1

	first, err := csvReader.Read()
	if err == io.EOF {
		return nil, ErrEmptyFile
	}
	if err != nil {
		return nil, fmt.Errorf("erro ao ler cabeçalho: %w", err)
	}

	hdr, cols := parseHeader(first)
	return p.parseRecords(ctx, csvReader, hdr, cols)
}

func parseHeader(record []string) (header, domain.ColumnSet) {
	hdr := make(header, len(record))
	cols := domain.NewColumnSet()
	for i, name := range record {
		name = strings.ToLower(strings.TrimSpace(strings.TrimPrefix(name, "\ufeff")))
		if !slices.Contains(domain.AllColumns, name) {
			continue
		}
		if _, dup := hdr[name]; dup {
			continue
		}
		hdr[name] = i
		cols[name] = true
	}

	// total é derivado na carga quando ausente
	if !cols.Has(domain.ColTotal) && cols.Has(domain.ColQuantity) && cols.Has(domain.ColUnitPrice) {
		cols[domain.ColTotal] = true
	}
	return hdr, cols
}

func (p *Parser) parseRecords(ctx context.Context, csvReader *csv.Reader, hdr header, cols domain.ColumnSet) (*ParseResult, error) {
	jobs := make(chan job, p.workers*2)
	results := make(chan []parsedRow, p.workers)
	readErrs := make(chan domain.MalformedRow, p.workers*2)

	var wg sync.WaitGroup
	for i := 0; i < p.workers; i++ {
		wg.Add(1)
		go p.worker(ctx, hdr, jobs, results, &wg)
	}

	var readBad []domain.MalformedRow
	readDone := make(chan struct{})
	go func() {
		defer close(readDone)
		for bad := range readErrs {
			readBad = append(readBad, bad)
		}
	}()

	go func() {
		defer close(jobs)
		defer close(readErrs)

		line := 1
		for {
			line++
			record, err := csvReader.Read()
			if err == io.EOF {
				return
			}
			if err != nil {
				readErrs <- domain.MalformedRow{Line: line, Reason: err.Error()}
				continue
			}
			if isBlank(record) {
				continue
			}
			select {
			case <-ctx.Done():
				return
			case jobs <- job{line: line, record: record}:
			}
		}
	}()

	go func() {
		wg.Wait()
		close(results)
	}()

	var all []parsedRow
	for batch := range results {
		all = append(all, batch...)
	}
	<-readDone

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	slices.SortFunc(all, func(a, b parsedRow) int { return a.line - b.line })

	result := &ParseResult{
		Table:  domain.NewSalesTable(cols, make([]domain.SalesRow, 0, len(all))),
		Errors: readBad,
	}
	for _, pr := range all {
		if pr.bad != nil {
			result.Errors = append(result.Errors, *pr.bad)
			continue
		}
		result.Table.Rows = append(result.Table.Rows, pr.row)
	}
	slices.SortFunc(result.Errors, func(a, b domain.MalformedRow) int { return a.Line - b.Line })

	return result, nil
}

func (p *Parser) worker(ctx context.Context, hdr header, jobs <-chan job,
	results chan<- []parsedRow, wg *sync.WaitGroup) {

	defer wg.Done()

	batch := make([]parsedRow, 0, p.batchSize)

	for {
		select {
		case <-ctx.Done():
			if len(batch) > 0 {
				results <- batch
			}
			return

		case j, ok := <-jobs:
			if !ok {
				if len(batch) > 0 {
					results <- batch
				}
				return
			}

			row, err := parseRecord(hdr, j.record)
			if err != nil {
				batch = append(batch, parsedRow{line: j.line, bad: &domain.MalformedRow{Line: j.line, Reason: err.Error()}})
			} else {
				batch = append(batch, parsedRow{line: j.line, row: *row})
			}

			if len(batch) >= p.batchSize {
				results <- batch
				batch = make([]parsedRow, 0, p.batchSize)
			}
		}
	}
}

func parseRecord(hdr header, record []string) (*domain.SalesRow, error) {
	var row domain.SalesRow

	if v, ok := hdr.get(record, domain.ColOrderID); ok && v != "" {
		id, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("order_id inválido: %q", v)
		}
		row.OrderID = id
	}

	row.Region, _ = hdr.get(record, domain.ColRegion)
	row.Product, _ = hdr.get(record, domain.ColProduct)

	_, hasQty := hdr[domain.ColQuantity]
	if hasQty {
		v, _ := hdr.get(record, domain.ColQuantity)
		qty, err := parseQuantity(v)
		if err != nil {
			return nil, fmt.Errorf("quantidade inválida: %w", err)
		}
		row.Quantity = qty
	}

	_, hasPrice := hdr[domain.ColUnitPrice]
	if hasPrice {
		v, _ := hdr.get(record, domain.ColUnitPrice)
		price, err := parseAmount(v)
		if err != nil {
			return nil, fmt.Errorf("preço inválido: %w", err)
		}
		row.UnitPrice = price
	}

	total, derive := 0.0, true
	if v, ok := hdr.get(record, domain.ColTotal); ok && v != "" {
		if t, err := parseAmount(v); err == nil {
			total, derive = t, false
		}
	}
	if derive && hasQty && hasPrice {
		total = float64(row.Quantity) * row.UnitPrice
	}
	row.Total = total

	if v, ok := hdr.get(record, domain.ColDate); ok {
		row.Date = ParseDate(v)
	}

	return &row, nil
}

// parseAmount reads a non-negative decimal, accepting a comma as decimal separator.
func parseAmount(s string) (float64, error) {
	if s == "" {
		return 0, fmt.Errorf("valor vazio")
	}
	d, err := decimal.NewFromString(strings.Replace(s, ",", ".", 1))
	if err != nil {
		return 0, err
	}
	if d.IsNegative() {
		return 0, fmt.Errorf("valor negativo: %s", s)
	}
	return d.InexactFloat64(), nil
}

func parseQuantity(s string) (int64, error) {
	if s == "" {
		return 0, fmt.Errorf("valor vazio")
	}
	d, err := decimal.NewFromString(strings.Replace(s, ",", ".", 1))
	if err != nil {
		return 0, err
	}
	if d.IsNegative() {
		return 0, fmt.Errorf("valor negativo: %s", s)
	}
	if !d.Equal(d.Truncate(0)) {
		return 0, fmt.Errorf("quantidade fracionária: %s", s)
	}
	return d.IntPart(), nil
}

// ParseDate returns the zero time when s matches none of the accepted layouts.
func ParseDate(s string) time.Time {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}
	}
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t
		}
	}
	return time.Time{}
}

func isBlank(record []string) bool {
	for _, f := range record {
		if strings.TrimSpace(f) != "" {
			return false
		}
	}
	return true
}
