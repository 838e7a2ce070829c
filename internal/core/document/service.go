// internal/core/document/service.go

// Package document scrapes tax aggregates out of the GST portal's PDF
// export. The export is free text, not a parseable table: each page renders
// labeled totals ("Taxable Value 3,58,42,919.18") which are matched with
// per-field regular expressions and summed across pages.
package document

import (
	"bytes"
	"context"
	"fmt"
	"regexp"
	"strings"

	"github.com/ledongthuc/pdf"
	"go.uber.org/zap"

	"github.com/mycloudhospitality/gstr-recon/internal/core/numeric"
	"github.com/mycloudhospitality/gstr-recon/internal/domain"
)

// Service reads input B of a reconciliation run.
type Service interface {
	Extract(ctx context.Context, pdfData []byte, progress domain.ProgressFunc) (domain.AggregateRecord, error)
}

type service struct{}

// NewService creates a new document extraction service.
func NewService() Service {
	return &service{}
}

// One pattern per scraped field: the label, optional currency symbol and
// whitespace, then a numeric literal (digits, commas, at most one decimal
// point). Only the first match on a page counts; the same named total
// repeats once per page of the tabular export.
var fieldPatterns = []struct {
	key string
	re  *regexp.Regexp
}{
	{domain.FieldTotalTaxableValue, regexp.MustCompile(`(?i)taxable\s+value\s*[:₹\s]*([\d,]+(?:\.\d+)?)`)},
	{domain.FieldCGSTAmount, regexp.MustCompile(`(?i)cgst\s*[:₹\s]*([\d,]+(?:\.\d+)?)`)},
	{domain.FieldSGSTAmount, regexp.MustCompile(`(?i)sgst\s*[:₹\s]*([\d,]+(?:\.\d+)?)`)},
	{domain.FieldIGSTAmount, regexp.MustCompile(`(?i)igst\s*[:₹\s]*([\d,]+(?:\.\d+)?)`)},
	{domain.FieldTotalCess, regexp.MustCompile(`(?i)cess\s*[:₹\s]*([\d,]+(?:\.\d+)?)`)},
}

func (s *service) Extract(ctx context.Context, pdfData []byte, progress domain.ProgressFunc) (domain.AggregateRecord, error) {
	reader, err := pdf.NewReader(bytes.NewReader(pdfData), int64(len(pdfData)))
	if err != nil {
		return nil, fmt.Errorf("opening pdf: %w", err)
	}

	totalPages := reader.NumPage()
	pages := make([]string, 0, totalPages)
	for pageIndex := 1; pageIndex <= totalPages; pageIndex++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		pages = append(pages, pageText(reader, pageIndex))
		if progress != nil {
			progress(pageIndex, totalPages)
		}
	}

	return buildRecord(pages), nil
}

// pageText renders one page as plain text. A page that cannot be read
// contributes an empty string rather than aborting the run.
func pageText(reader *pdf.Reader, pageIndex int) string {
	page := reader.Page(pageIndex)
	if page.V.IsNull() {
		return ""
	}
	rows, err := page.GetTextByRow()
	if err != nil {
		zap.L().Warn("document: unreadable page treated as empty",
			zap.Int("page", pageIndex), zap.Error(err))
		return ""
	}

	var builder strings.Builder
	for _, row := range rows {
		for _, word := range row.Content {
			builder.WriteString(word.S)
			builder.WriteByte(' ')
		}
		builder.WriteByte('\n')
	}
	return builder.String()
}

// buildRecord accumulates per-page matches and derives the fields the
// export has no standalone anchor for.
func buildRecord(pages []string) domain.AggregateRecord {
	record := domain.NewAggregateRecord()
	for _, text := range pages {
		for key, value := range scanPage(text) {
			record.Add(key, value)
		}
	}

	// The export does not split B2B out of the overall taxable value, and
	// carries no standalone invoice total.
	record.Set(domain.FieldB2BTaxableValue, record.Get(domain.FieldTotalTaxableValue).Value)
	record.Set(domain.FieldTotalInvoiceValue,
		record.Get(domain.FieldTotalTaxableValue).Value+
			record.Get(domain.FieldCGSTAmount).Value+
			record.Get(domain.FieldSGSTAmount).Value+
			record.Get(domain.FieldIGSTAmount).Value+
			record.Get(domain.FieldTotalCess).Value)

	// No reliable textual anchor exists for these; marking them unavailable
	// keeps their rows Pending instead of fabricating a matched zero.
	record.MarkUnavailable(domain.FieldExemptedNonGST)
	record.MarkUnavailable(domain.FieldAdvancesAdjusted)

	record.Finalize()
	return record
}

// scanPage runs every field pattern against one page's text, taking the
// first match per field. Fields with no match contribute zero.
func scanPage(text string) map[string]float64 {
	values := make(map[string]float64, len(fieldPatterns))
	for _, fp := range fieldPatterns {
		if m := fp.re.FindStringSubmatch(text); m != nil {
			values[fp.key] = numeric.SafeNumber(m[1])
		} else {
			values[fp.key] = 0.0
		}
	}
	return values
}
