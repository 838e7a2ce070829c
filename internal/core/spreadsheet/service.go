// internal/core/spreadsheet/service.go

// Package spreadsheet extracts filer metadata and tax aggregates from a
// GSTR-1 workbook. Portal exports carry the named sheets hsn/b2b/exemp/atadj
// in a fixed-offset layout; anything else (CSV dumps, flattened workbooks)
// falls back to a generic keyword scan over column headers.
package spreadsheet

import (
	"bytes"
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"path/filepath"
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/shakinm/xlsReader/xls"
	"github.com/xuri/excelize/v2"
	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"

	"github.com/mycloudhospitality/gstr-recon/internal/core/numeric"
	"github.com/mycloudhospitality/gstr-recon/internal/domain"
)

// Service reads input A of a reconciliation run.
type Service interface {
	Extract(ctx context.Context, file io.Reader, filename string, progress domain.ProgressFunc) (domain.EntityMetadata, domain.AggregateRecord, error)
}

type service struct{}

// NewService creates a new spreadsheet extraction service.
func NewService() Service {
	return &service{}
}

// Named sheets of the fixed-offset portal layout and their cell contracts.
// Offsets are positional agreements with the upstream export format, not
// header lookups: row 1 (second row), column indices below.
var fixedSheetFields = map[string][]struct {
	col int
	key string
}{
	"hsn": {
		{3, domain.FieldTotalInvoiceValue},
		{4, domain.FieldTotalTaxableValue},
		{6, domain.FieldIGSTAmount},
		{7, domain.FieldCGSTAmount},
		{8, domain.FieldSGSTAmount},
		{9, domain.FieldTotalCess},
	},
	"b2b":   {{11, domain.FieldB2BTaxableValue}},
	"exemp": {{3, domain.FieldExemptedNonGST}},
	"atadj": {{3, domain.FieldAdvancesAdjusted}},
}

// Order in which the named sheets are processed, for progress reporting.
var fixedSheetOrder = []string{"hsn", "b2b", "exemp", "atadj"}

func (s *service) Extract(ctx context.Context, file io.Reader, filename string, progress domain.ProgressFunc) (domain.EntityMetadata, domain.AggregateRecord, error) {
	meta := domain.NewEntityMetadata()

	data, err := io.ReadAll(file)
	if err != nil {
		return meta, nil, fmt.Errorf("reading spreadsheet: %w", err)
	}

	sheets, err := s.loadSheets(data, filename)
	if err != nil {
		return meta, nil, err
	}
	if len(sheets.order) == 0 {
		return meta, nil, fmt.Errorf("spreadsheet %s has no sheets", filename)
	}

	total := 1 + len(fixedSheetOrder)
	if err := ctx.Err(); err != nil {
		return meta, nil, err
	}

	meta = s.locateMetadata(sheets.grids[sheets.order[0]])
	report(progress, 1, total)

	record := domain.NewAggregateRecord()
	if sheets.hasFixedLayout() {
		for i, name := range fixedSheetOrder {
			if err := ctx.Err(); err != nil {
				return meta, nil, err
			}
			s.extractFixedSheet(record, sheets.grids[name], name)
			report(progress, i+2, total)
		}
	} else {
		if err := ctx.Err(); err != nil {
			return meta, nil, err
		}
		s.extractGeneric(record, sheets.grids[sheets.order[0]])
		report(progress, total, total)
	}

	record.Finalize()
	return meta, record, nil
}

func report(progress domain.ProgressFunc, done, total int) {
	if progress != nil {
		progress(done, total)
	}
}

// workbook is every sheet of the input read as an untyped string grid,
// keyed by lower-cased sheet name.
type workbook struct {
	order []string
	grids map[string][][]string
}

func (w *workbook) hasFixedLayout() bool {
	for name := range fixedSheetFields {
		if _, ok := w.grids[name]; ok {
			return true
		}
	}
	return false
}

func (w *workbook) add(name string, grid [][]string) {
	key := strings.ToLower(strings.TrimSpace(name))
	w.order = append(w.order, key)
	w.grids[key] = grid
}

func (s *service) loadSheets(data []byte, filename string) (*workbook, error) {
	switch strings.ToLower(filepath.Ext(filename)) {
	case ".xlsx":
		return s.loadXLSX(data)
	case ".xls":
		wb, err := s.loadXLS(data)
		if err != nil {
			// Some portals ship zip-based workbooks under a .xls name.
			if wbX, errX := s.loadXLSX(data); errX == nil {
				return wbX, nil
			}
			return nil, err
		}
		return wb, nil
	case ".csv":
		return s.loadCSV(data)
	default:
		return nil, fmt.Errorf("unsupported spreadsheet format: %s", filepath.Ext(filename))
	}
}

func (s *service) loadXLSX(data []byte) (*workbook, error) {
	f, err := excelize.OpenReader(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("opening xlsx workbook: %w", err)
	}
	defer f.Close()

	wb := &workbook{grids: make(map[string][][]string)}
	for _, name := range f.GetSheetList() {
		rows, err := f.GetRows(name)
		if err != nil {
			continue
		}
		wb.add(name, rows)
	}
	return wb, nil
}

func (s *service) loadXLS(data []byte) (*workbook, error) {
	book, err := xls.OpenReader(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("opening xls workbook: %w", err)
	}

	wb := &workbook{grids: make(map[string][][]string)}
	for _, sheet := range book.GetSheets() {
		var grid [][]string
		for _, row := range sheet.GetRows() {
			var cells []string
			for _, cell := range row.GetCols() {
				cells = append(cells, cell.GetString())
			}
			grid = append(grid, cells)
		}
		wb.add(sheet.GetName(), grid)
	}
	return wb, nil
}

func (s *service) loadCSV(data []byte) (*workbook, error) {
	var reader io.Reader = bytes.NewReader(data)
	if !utf8.Valid(data) {
		// Legacy exports arrive in a Windows codepage.
		reader = transform.NewReader(reader, charmap.ISO8859_1.NewDecoder())
	}

	csvReader := csv.NewReader(reader)
	csvReader.LazyQuotes = true
	csvReader.FieldsPerRecord = -1

	records, err := csvReader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("reading csv: %w", err)
	}

	wb := &workbook{grids: make(map[string][][]string)}
	wb.add("csv", records)
	return wb, nil
}

// locateMetadata scans a bounded window of the first sheet (20 rows by 10
// columns, row-major) for labeled key/value pairs. The value sits in the
// cell immediately to the right of its label; the last occurrence wins.
func (s *service) locateMetadata(grid [][]string) domain.EntityMetadata {
	meta := domain.NewEntityMetadata()

	maxRows := len(grid)
	if maxRows > 20 {
		maxRows = 20
	}
	for i := 0; i < maxRows; i++ {
		row := grid[i]
		maxCols := len(row)
		if maxCols > 10 {
			maxCols = 10
		}
		for j := 0; j < maxCols; j++ {
			cell := strings.ToLower(row[j])
			if j+1 >= len(row) {
				continue
			}
			value := strings.TrimSpace(row[j+1])
			if strings.Contains(cell, "gstin") {
				meta.GSTIN = value
			}
			if strings.Contains(cell, "legal name") || strings.Contains(cell, "trade name") {
				meta.HotelName = value
			}
			if strings.Contains(cell, "return period") {
				meta.ReturnPeriod = value
			}
		}
	}
	return meta
}

// extractFixedSheet overwrites the record fields a named sheet is
// responsible for. A missing sheet leaves its fields at zero: partial
// filings are legal.
func (s *service) extractFixedSheet(record domain.AggregateRecord, grid [][]string, name string) {
	if grid == nil {
		return
	}
	for _, field := range fixedSheetFields[name] {
		record.Set(field.key, numeric.SafeNumber(cellAt(grid, 1, field.col)))
	}
}

func cellAt(grid [][]string, row, col int) string {
	if row < len(grid) && col < len(grid[row]) {
		return grid[row][col]
	}
	return ""
}

var nonAlphanumericRegex = regexp.MustCompile(`[^A-Z0-9 ]+`)
var whitespaceRegex = regexp.MustCompile(`\s+`)

// normalizeText upper-cases, strips diacritics and collapses punctuation so
// header variants like "Non-GST" and "NON GST" compare equal.
func normalizeText(str string) string {
	t := transform.Chain(norm.NFD, transform.RemoveFunc(func(r rune) bool {
		return unicode.Is(unicode.Mn, r)
	}))
	result, _, _ := transform.String(t, str)
	result = strings.ToUpper(result)
	result = nonAlphanumericRegex.ReplaceAllString(result, " ")
	result = whitespaceRegex.ReplaceAllString(result, " ")
	return strings.TrimSpace(result)
}

// fieldForHeader maps a normalized column header to the aggregate it feeds.
// B2B is checked before the plain taxable keyword so a "B2B Taxable Value"
// column does not double into the grand total.
func fieldForHeader(header string) string {
	h := normalizeText(header)
	switch {
	case h == "":
		return ""
	case strings.Contains(h, "B2B") && strings.Contains(h, "TAXABLE"):
		return domain.FieldB2BTaxableValue
	case strings.Contains(h, "TAXABLE"):
		return domain.FieldTotalTaxableValue
	case strings.Contains(h, "CGST"):
		return domain.FieldCGSTAmount
	case strings.Contains(h, "SGST"):
		return domain.FieldSGSTAmount
	case strings.Contains(h, "IGST"):
		return domain.FieldIGSTAmount
	case strings.Contains(h, "CESS"):
		return domain.FieldTotalCess
	case strings.Contains(h, "INVOICE") && strings.Contains(h, "VALUE"):
		return domain.FieldTotalInvoiceValue
	case strings.Contains(h, "EXEMPT"), strings.Contains(h, "NON GST"):
		return domain.FieldExemptedNonGST
	case strings.Contains(h, "ADVANCE"):
		return domain.FieldAdvancesAdjusted
	default:
		return ""
	}
}

// extractGeneric handles flat tables with descriptive headers: every
// numeric cell under a matching column sums into its field, non-numeric
// cells coercing to zero.
func (s *service) extractGeneric(record domain.AggregateRecord, grid [][]string) {
	headerRow := findHeaderRow(grid)
	if headerRow < 0 {
		return
	}

	fieldByCol := make(map[int]string)
	b2bSeen := false
	for col, header := range grid[headerRow] {
		if key := fieldForHeader(header); key != "" {
			fieldByCol[col] = key
			if key == domain.FieldB2BTaxableValue {
				b2bSeen = true
			}
		}
	}

	for i := headerRow + 1; i < len(grid); i++ {
		for col, key := range fieldByCol {
			if col < len(grid[i]) {
				record.Add(key, numeric.SafeNumber(grid[i][col]))
			}
		}
	}

	if !b2bSeen {
		// No dedicated B2B signal in the table.
		record.Set(domain.FieldB2BTaxableValue, record.Get(domain.FieldTotalTaxableValue).Value)
	}
}

// findHeaderRow returns the first row within the top of the table whose
// cells name at least one known aggregate, or -1.
func findHeaderRow(grid [][]string) int {
	maxRowsSearch := 40
	if len(grid) < maxRowsSearch {
		maxRowsSearch = len(grid)
	}
	for i := 0; i < maxRowsSearch; i++ {
		for _, cell := range grid[i] {
			if fieldForHeader(cell) != "" {
				return i
			}
		}
	}
	return -1
}
