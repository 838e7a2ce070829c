// internal/core/document/service_test.go
package document

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/mycloudhospitality/gstr-recon/internal/domain"
)

func TestScanPage(t *testing.T) {
	t.Run("labeled totals with currency symbols", func(t *testing.T) {
		text := "Summary of outward supplies\n" +
			"Taxable Value ₹ 3,58,42,919.18\n" +
			"CGST 32,25,862.73\nSGST: 32,25,862.73\nIGST 0.00\nCess 12,000\n"
		values := scanPage(text)
		assert.InDelta(t, 35842919.18, values[domain.FieldTotalTaxableValue], 0.001)
		assert.InDelta(t, 3225862.73, values[domain.FieldCGSTAmount], 0.001)
		assert.InDelta(t, 3225862.73, values[domain.FieldSGSTAmount], 0.001)
		assert.InDelta(t, 0.0, values[domain.FieldIGSTAmount], 0.001)
		assert.InDelta(t, 12000.0, values[domain.FieldTotalCess], 0.001)
	})

	t.Run("first match per page wins", func(t *testing.T) {
		text := "Taxable Value 100.00 of which Taxable Value 999.99"
		values := scanPage(text)
		assert.InDelta(t, 100.00, values[domain.FieldTotalTaxableValue], 0.001)
	})

	t.Run("labels are case-insensitive", func(t *testing.T) {
		values := scanPage("TAXABLE VALUE 500.25 cgst 10")
		assert.InDelta(t, 500.25, values[domain.FieldTotalTaxableValue], 0.001)
		assert.InDelta(t, 10.0, values[domain.FieldCGSTAmount], 0.001)
	})

	t.Run("missing labels contribute zero", func(t *testing.T) {
		values := scanPage("nothing of interest on this page")
		for _, fp := range fieldPatterns {
			assert.InDelta(t, 0.0, values[fp.key], 0.001)
		}
	})
}

func TestBuildRecordAccumulatesAcrossPages(t *testing.T) {
	pages := []string{
		"Taxable Value 1,000.00 CGST 90.00 SGST 90.00 IGST 0 Cess 5.00",
		"", // unreadable page degraded to empty text
		"Taxable Value 2,000.00 CGST 180.00 SGST 180.00 IGST 10.00 Cess 0",
	}
	record := buildRecord(pages)

	assert.InDelta(t, 3000.00, record.Get(domain.FieldTotalTaxableValue).Value, 0.001)
	assert.InDelta(t, 270.00, record.Get(domain.FieldCGSTAmount).Value, 0.001)
	assert.InDelta(t, 270.00, record.Get(domain.FieldSGSTAmount).Value, 0.001)
	assert.InDelta(t, 10.00, record.Get(domain.FieldIGSTAmount).Value, 0.001)
	assert.InDelta(t, 5.00, record.Get(domain.FieldTotalCess).Value, 0.001)

	// Derived fields: B2B mirrors the taxable total, invoice value is the
	// sum of taxable value and every tax component.
	assert.InDelta(t, 3000.00, record.Get(domain.FieldB2BTaxableValue).Value, 0.001)
	assert.InDelta(t, 3555.00, record.Get(domain.FieldTotalInvoiceValue).Value, 0.001)
}

func TestBuildRecordMarksUnanchoredFieldsUnavailable(t *testing.T) {
	record := buildRecord([]string{"Taxable Value 10.00"})

	exempted := record.Get(domain.FieldExemptedNonGST)
	advances := record.Get(domain.FieldAdvancesAdjusted)
	assert.False(t, exempted.Available)
	assert.False(t, advances.Available)
	assert.InDelta(t, 0.0, exempted.Value, 0.001)
	assert.InDelta(t, 0.0, advances.Value, 0.001)
}

func TestBuildRecordRoundsToTwoDecimals(t *testing.T) {
	record := buildRecord([]string{
		"Taxable Value 10.005",
		"Taxable Value 0.001",
	})
	assert.InDelta(t, 10.01, record.Get(domain.FieldTotalTaxableValue).Value, 0.0001)
}

func TestBuildRecordEmptyDocument(t *testing.T) {
	record := buildRecord(nil)
	for _, key := range []string{
		domain.FieldTotalTaxableValue,
		domain.FieldB2BTaxableValue,
		domain.FieldTotalInvoiceValue,
	} {
		amt := record.Get(key)
		assert.True(t, amt.Available)
		assert.InDelta(t, 0.0, amt.Value, 0.001)
	}
}
