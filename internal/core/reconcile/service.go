// internal/core/reconcile/service.go

// Package reconcile compares the two independently extracted aggregate
// records against the configured rule list and serializes the result table.
package reconcile

import (
	"fmt"
	"math"
	"regexp"

	"github.com/xuri/excelize/v2"
	"go.uber.org/zap"

	"github.com/mycloudhospitality/gstr-recon/internal/domain"
)

// ReportSheet is the single sheet name of the downloadable workbook.
const ReportSheet = "Reconciliation"

// Service builds and serializes the reconciliation table.
type Service interface {
	Reconcile(spreadsheetRecord, documentRecord domain.AggregateRecord, rules []domain.ReconciliationRule) []domain.ReconciliationRow
	BuildReport(rows []domain.ReconciliationRow, columns []string) ([]byte, error)
	ReportFilename(meta domain.EntityMetadata) string
}

type service struct {
	// Status a tolerant rule receives when its discrepancy is nonzero. The
	// default treats a documented divergence as acceptable.
	tolerantStatus domain.MatchStatus
}

// NewService creates the engine. tolerantStatus selects the polarity of
// tolerant rules; an empty value means a nonzero gap stays Matched.
func NewService(tolerantStatus domain.MatchStatus) Service {
	if tolerantStatus == "" {
		tolerantStatus = domain.StatusMatched
	}
	return &service{tolerantStatus: tolerantStatus}
}

// Reconcile produces exactly one row per rule, in rule order. It never
// fails: unrecognized keys compare as zero and log a data-quality warning.
func (s *service) Reconcile(spreadsheetRecord, documentRecord domain.AggregateRecord, rules []domain.ReconciliationRule) []domain.ReconciliationRow {
	rows := make([]domain.ReconciliationRow, 0, len(rules))
	for _, rule := range rules {
		if !spreadsheetRecord.Has(rule.Key) && !documentRecord.Has(rule.Key) {
			zap.L().Warn("reconcile: rule key was never extracted, comparing as zero",
				zap.String("key", rule.Key))
		}
		rows = append(rows, s.buildRow(rule, spreadsheetRecord.Get(rule.Key), documentRecord.Get(rule.Key)))
	}
	return rows
}

func (s *service) buildRow(rule domain.ReconciliationRule, sv, dv domain.Amount) domain.ReconciliationRow {
	row := domain.ReconciliationRow{
		Label: rule.Label,
		Logic: rule.Logic,
	}
	if sv.Available {
		value := sv.Value
		row.SpreadsheetValue = &value
	}
	if dv.Available {
		value := dv.Value
		row.DocumentValue = &value
	}

	// A side that never produced the field yields Pending with the
	// discrepancy left unset; comparing against a fabricated zero would
	// report a misleading Matched.
	if !sv.Available || !dv.Available {
		row.Status = domain.StatusPending
		return row
	}

	discrepancy := domain.Round(math.Abs(sv.Value-dv.Value), 2)
	row.Discrepancy = &discrepancy

	switch {
	case discrepancy == 0:
		row.Status = domain.StatusMatched
	case rule.Match == domain.PolicyTolerant:
		row.Status = s.tolerantStatus
	default:
		row.Status = domain.StatusDifference
	}
	return row
}

// BuildReport serializes the table into a single-sheet xlsx workbook with
// the configured column labels as its header row.
func (s *service) BuildReport(rows []domain.ReconciliationRow, columns []string) ([]byte, error) {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", ReportSheet); err != nil {
		return nil, fmt.Errorf("naming report sheet: %w", err)
	}

	header := make([]interface{}, len(columns))
	for i, col := range columns {
		header[i] = col
	}
	if err := f.SetSheetRow(ReportSheet, "A1", &header); err != nil {
		return nil, fmt.Errorf("writing report header: %w", err)
	}

	for i, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return nil, err
		}
		values := []interface{}{
			row.Label,
			cellValue(row.SpreadsheetValue),
			cellValue(row.DocumentValue),
			row.Logic,
			string(row.Status),
			cellValue(row.Discrepancy),
		}
		if err := f.SetSheetRow(ReportSheet, cell, &values); err != nil {
			return nil, fmt.Errorf("writing report row %d: %w", i+1, err)
		}
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("serializing report: %w", err)
	}
	return buf.Bytes(), nil
}

// cellValue renders an optional amount; Pending blanks stay blank.
func cellValue(v *float64) interface{} {
	if v == nil {
		return ""
	}
	return *v
}

var filenameUnsafe = regexp.MustCompile(`[^A-Za-z0-9._-]+`)

// ReportFilename suggests a download name embedding the GSTIN and return
// period, e.g. GSTR_Reconciliation_27ABCDE1234F1Z5_Jan-2026.xlsx.
func (s *service) ReportFilename(meta domain.EntityMetadata) string {
	gstin := filenameUnsafe.ReplaceAllString(meta.GSTIN, "_")
	period := filenameUnsafe.ReplaceAllString(meta.ReturnPeriod, "_")
	return fmt.Sprintf("GSTR_Reconciliation_%s_%s.xlsx", gstin, period)
}
