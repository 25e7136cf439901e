package dataprocessing

import (
	"bufio"
	"bytes"
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/xuri/excelize/v2"

	apperrors "excelflow/internal/errors"
	"excelflow/pkg/contracts/domain"
)

// nullTokens are the raw cell texts read as missing
var nullTokens = map[string]struct{}{
	"": {}, "#N/A": {}, "#N/A N/A": {}, "#NA": {}, "-1.#IND": {}, "-1.#QNAN": {},
	"-NaN": {}, "-nan": {}, "1.#IND": {}, "1.#QNAN": {}, "<NA>": {}, "N/A": {},
	"NA": {}, "NULL": {}, "NaN": {}, "None": {}, "n/a": {}, "nan": {}, "null": {},
}

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// IsNullToken reports whether raw cell text is read as a missing value
func IsNullToken(raw string) bool {
	_, ok := nullTokens[strings.TrimSpace(raw)]
	return ok
}

// Loader reads delimited text and spreadsheet files into a Table
type Loader struct {
	logger *slog.Logger
}

// NewLoader creates a loader. A nil logger uses slog.Default().
func NewLoader(logger *slog.Logger) *Loader {
	if logger == nil {
		logger = slog.Default()
	}
	return &Loader{logger: logger}
}

// Load reads the file at path. Files ending in .csv are parsed as
// comma-delimited text, anything else as an Excel workbook.
func (l *Loader) Load(ctx context.Context, path string) (*domain.Table, error) {
	file, err := os.Open(path)
	if err != nil {
		l.logger.ErrorContext(ctx, "Failed to open input file",
			slog.String("path", path),
			slog.String("error", err.Error()))
		return nil, apperrors.NewLoadError("failed to open input file", err).
			WithContext("source", path)
	}
	defer file.Close()

	return l.LoadReader(ctx, file, path)
}

// LoadReader reads an in-memory file handle. name selects the format by
// its extension and is reported as the source in logs and errors.
func (l *Loader) LoadReader(ctx context.Context, r io.Reader, name string) (*domain.Table, error) {
	if err := ctx.Err(); err != nil {
		return nil, apperrors.NewLoadError("load cancelled", err).WithContext("source", name)
	}

	var (
		records [][]string
		err     error
	)
	if IsCSV(name) {
		records, err = readCSV(r)
	} else {
		records, err = readWorkbook(r)
	}
	if err != nil {
		l.logger.ErrorContext(ctx, "Failed to parse input file",
			slog.String("source", name),
			slog.String("error", err.Error()))
		return nil, apperrors.NewLoadError("failed to parse input file", err).
			WithContext("source", name)
	}

	table, err := buildTable(records)
	if err != nil {
		l.logger.ErrorContext(ctx, "Failed to build table",
			slog.String("source", name),
			slog.String("error", err.Error()))
		return nil, apperrors.NewLoadError("invalid table layout", err).
			WithContext("source", name)
	}

	l.logger.InfoContext(ctx, "Loaded data",
		slog.Int("rows", table.Len()),
		slog.Int("columns", len(table.Columns)),
		slog.String("source", filepath.Base(name)))

	return table, nil
}

// IsCSV reports whether name has a .csv extension (case-insensitive)
func IsCSV(name string) bool {
	return strings.EqualFold(filepath.Ext(name), ".csv")
}

// readCSV parses comma-delimited text, skipping a leading UTF-8 BOM
func readCSV(r io.Reader) ([][]string, error) {
	br := bufio.NewReader(r)
	if head, err := br.Peek(len(utf8BOM)); err == nil && bytes.Equal(head, utf8BOM) {
		if _, err := br.Discard(len(utf8BOM)); err != nil {
			return nil, err
		}
	}

	reader := csv.NewReader(br)
	reader.FieldsPerRecord = -1
	reader.LazyQuotes = true

	records, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("read csv: %w", err)
	}
	return records, nil
}

// readWorkbook returns the raw cell values of the first sheet
func readWorkbook(r io.Reader) ([][]string, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, fmt.Errorf("open workbook: %w", err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, fmt.Errorf("workbook has no sheets")
	}

	rows, err := f.GetRows(sheets[0], excelize.Options{RawCellValue: true})
	if err != nil {
		return nil, fmt.Errorf("read sheet %q: %w", sheets[0], err)
	}

	// drop fully blank trailing rows
	last := len(rows)
	for last > 0 && isBlankRow(rows[last-1]) {
		last--
	}
	return rows[:last], nil
}

func isBlankRow(row []string) bool {
	for _, cell := range row {
		if strings.TrimSpace(cell) != "" {
			return false
		}
	}
	return true
}

// buildTable turns raw records (header first) into a typed Table
func buildTable(records [][]string) (*domain.Table, error) {
	if len(records) == 0 || len(records[0]) == 0 {
		return nil, fmt.Errorf("header row is empty")
	}

	width := len(records[0])
	for _, rec := range records[1:] {
		if len(rec) > width {
			width = len(rec)
		}
	}

	names := cleanHeader(records[0], width)
	body := records[1:]

	columns := make([]domain.Column, width)
	parsed := make([][]domain.Value, width)
	for j := 0; j < width; j++ {
		colType, values := inferColumn(body, j)
		columns[j] = domain.Column{Name: names[j], Type: colType}
		parsed[j] = values
	}

	table := domain.NewTable(columns)
	table.Rows = make([]domain.Row, len(body))
	for i := range body {
		row := make(domain.Row, width)
		for j := 0; j < width; j++ {
			row[j] = parsed[j][i]
		}
		table.Rows[i] = row
	}
	return table, nil
}

// cleanHeader names blank header cells "Unnamed: <i>" and suffixes
// repeated names with .1, .2 and so on
func cleanHeader(header []string, width int) []string {
	names := make([]string, width)
	used := make(map[string]bool, width)
	suffix := make(map[string]int, width)
	for j := 0; j < width; j++ {
		name := ""
		if j < len(header) {
			name = header[j]
		}
		if strings.TrimSpace(name) == "" {
			name = "Unnamed: " + strconv.Itoa(j)
		}

		base := name
		for used[name] {
			suffix[base]++
			name = base + "." + strconv.Itoa(suffix[base])
		}
		used[name] = true
		names[j] = name
	}
	return names
}

// inferColumn decides the column type from the non-missing cells of
// column j and returns the typed values
func inferColumn(body [][]string, j int) (domain.ColumnType, []domain.Value) {
	values := make([]domain.Value, len(body))

	numeric, anyFloat := true, false
	for i, rec := range body {
		raw := cellAt(rec, j)
		if IsNullToken(raw) {
			continue
		}
		s := strings.TrimSpace(raw)
		if n, err := strconv.ParseInt(s, 10, 64); err == nil {
			values[i] = domain.IntValue(n)
			continue
		}
		if f, err := strconv.ParseFloat(s, 64); err == nil {
			values[i] = domain.FloatValue(f)
			anyFloat = true
			continue
		}
		numeric = false
		break
	}

	if !numeric {
		for i, rec := range body {
			raw := cellAt(rec, j)
			if IsNullToken(raw) {
				values[i] = domain.Missing()
			} else {
				values[i] = domain.TextValue(raw)
			}
		}
		return domain.ColumnText, values
	}

	if anyFloat {
		for i, v := range values {
			if v.Kind == domain.KindInt {
				values[i] = domain.FloatValue(float64(v.Int))
			}
		}
	}
	return domain.ColumnNumeric, values
}

func cellAt(rec []string, j int) string {
	if j < len(rec) {
		return rec[j]
	}
	return ""
}
