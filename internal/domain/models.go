// internal/domain/models.go
package domain

import "math"

// Keys of the aggregate record. The set is closed: both extractors fill
// exactly these keys and the reconciliation rules reference them.
const (
	FieldTotalTaxableValue = "total_taxable_value"
	FieldB2BTaxableValue   = "b2b_taxable_value"
	FieldCGSTAmount        = "cgst_amount"
	FieldSGSTAmount        = "sgst_amount"
	FieldIGSTAmount        = "igst_amount"
	FieldTotalCess         = "total_cess"
	FieldTotalInvoiceValue = "total_invoice_value"
	FieldExemptedNonGST    = "exempted_non_gst"
	FieldAdvancesAdjusted  = "advances_adjusted"
)

// FieldKeys lists every aggregate key in canonical order.
var FieldKeys = []string{
	FieldTotalTaxableValue,
	FieldB2BTaxableValue,
	FieldCGSTAmount,
	FieldSGSTAmount,
	FieldIGSTAmount,
	FieldTotalCess,
	FieldTotalInvoiceValue,
	FieldExemptedNonGST,
	FieldAdvancesAdjusted,
}

// Amount is a monetary aggregate. Available distinguishes "extracted as
// zero" from "this source cannot produce the field at all"; the engine
// turns the latter into a Pending row instead of comparing against 0.
type Amount struct {
	Value     float64 `json:"value"`
	Available bool    `json:"available"`
}

// AggregateRecord maps each field key to its extracted amount. Records are
// built once per extraction run and only round on Finalize.
type AggregateRecord map[string]Amount

// NewAggregateRecord returns a record with every key present, zeroed and
// available. Partial filings legitimately leave fields at zero.
func NewAggregateRecord() AggregateRecord {
	rec := make(AggregateRecord, len(FieldKeys))
	for _, key := range FieldKeys {
		rec[key] = Amount{Value: 0, Available: true}
	}
	return rec
}

// Set overwrites the value for key, keeping it available.
func (r AggregateRecord) Set(key string, value float64) {
	r[key] = Amount{Value: value, Available: true}
}

// Add accumulates value onto key, keeping it available.
func (r AggregateRecord) Add(key string, value float64) {
	cur := r[key]
	r[key] = Amount{Value: cur.Value + value, Available: true}
}

// MarkUnavailable flags a field the source has no anchor for.
func (r AggregateRecord) MarkUnavailable(key string) {
	r[key] = Amount{Value: 0, Available: false}
}

// Get looks up key, treating an unrecognized key as an available zero so a
// misconfigured rule never aborts a run.
func (r AggregateRecord) Get(key string) Amount {
	if amt, ok := r[key]; ok {
		return amt
	}
	return Amount{Value: 0, Available: true}
}

// Has reports whether key belongs to the record.
func (r AggregateRecord) Has(key string) bool {
	_, ok := r[key]
	return ok
}

// Finalize rounds every available amount to two decimals.
func (r AggregateRecord) Finalize() {
	for key, amt := range r {
		if amt.Available {
			amt.Value = Round(amt.Value, 2)
			r[key] = amt
		}
	}
}

// MetadataUnknown is the sentinel for metadata the header region never named.
const MetadataUnknown = "Unknown"

// EntityMetadata identifies the filer, scraped from the spreadsheet header
// region only.
type EntityMetadata struct {
	HotelName    string `json:"hotel_name"`
	GSTIN        string `json:"gstin"`
	ReturnPeriod string `json:"return_period"`
}

// NewEntityMetadata returns metadata with every field at the unknown sentinel.
func NewEntityMetadata() EntityMetadata {
	return EntityMetadata{
		HotelName:    MetadataUnknown,
		GSTIN:        MetadataUnknown,
		ReturnPeriod: MetadataUnknown,
	}
}

// MatchPolicy selects how a rule classifies a discrepancy.
type MatchPolicy string

const (
	PolicyExact    MatchPolicy = "exact"
	PolicyTolerant MatchPolicy = "tolerant"
)

// MatchStatus is the classification of a single reconciliation row.
type MatchStatus string

const (
	StatusMatched    MatchStatus = "Matched"
	StatusDifference MatchStatus = "Difference"
	StatusPending    MatchStatus = "Pending"
)

// ReconciliationRule is one externally configured comparison. Logic is the
// free-text explanation shown in the output table, e.g. why a tolerant
// field is allowed to diverge.
type ReconciliationRule struct {
	Key   string      `json:"key" mapstructure:"key"`
	Label string      `json:"label" mapstructure:"label"`
	Logic string      `json:"logic" mapstructure:"logic"`
	Match MatchPolicy `json:"match" mapstructure:"match"`
}

// ReconciliationRow is one line of the output table, in rule order. Nil
// values mean the side never produced the field (Pending), as opposed to a
// numeric zero.
type ReconciliationRow struct {
	Label            string      `json:"label"`
	SpreadsheetValue *float64    `json:"spreadsheet_value"`
	DocumentValue    *float64    `json:"document_value"`
	Logic            string      `json:"logic"`
	Status           MatchStatus `json:"status"`
	Discrepancy      *float64    `json:"discrepancy"`
}

// ProgressFunc reports extraction progress after each processed page or
// sheet. Implementations must tolerate being nil-checked by callers.
type ProgressFunc func(done, total int)

// Round rounds val to the given number of decimal places.
func Round(val float64, places int) float64 {
	pow := math.Pow(10, float64(places))
	return math.Round(val*pow) / pow
}
