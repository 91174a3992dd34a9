package ledger

import "github.com/shopspring/decimal"

// Field identifies which column of a line item an edit targets.
// Using typed constants instead of raw field-name strings keeps the
// numeric/descriptive split explicit at the call site.
type Field int

const (
	FieldQuantity Field = iota
	FieldUnitRate
	FieldDiscountPercent
	FieldItemCode
	FieldDescription
	FieldSpecification
	FieldUnit
)

// Numeric reports whether edits to this field go through decimal
// parsing and trigger an amount recompute.
func (f Field) Numeric() bool {
	switch f {
	case FieldQuantity, FieldUnitRate, FieldDiscountPercent:
		return true
	}
	return false
}

// AdjustmentMode controls the sign of the document-level adjustment:
// a contingency markup adds to the subtotal, a global discount subtracts.
type AdjustmentMode int

const (
	AdjustmentAdditive AdjustmentMode = iota
	AdjustmentSubtractive
)

// Config fixes the per-document-type behavior of a ledger. The tax rate
// and adjustment sign are document-type configuration, never user input.
type Config struct {
	CodePrefix     string         // auto-generated item codes: prefix + 3-digit sequence
	ItemDiscount   bool           // whether per-item discount percent applies
	Adjustment     AdjustmentMode // contingency (additive) vs global discount (subtractive)
	TaxRatePercent decimal.Decimal
	DefaultUnit    string
}

// BOQConfig is a bill-of-quantities ledger: additive contingency on the
// subtotal, no per-item discount, no tax stage.
func BOQConfig() Config {
	return Config{
		CodePrefix:  "B",
		Adjustment:  AdjustmentAdditive,
		DefaultUnit: "nos",
	}
}

// SalesOrderConfig is a sales-order ledger: per-item discount, global
// discount subtracted from the subtotal, then GST on the taxable amount.
func SalesOrderConfig(gstRatePercent decimal.Decimal) Config {
	return Config{
		CodePrefix:     "S",
		ItemDiscount:   true,
		Adjustment:     AdjustmentSubtractive,
		TaxRatePercent: gstRatePercent,
		DefaultUnit:    "nos",
	}
}

// PurchaseOrderConfig is a purchase-order ledger: no per-item discount,
// tax applied on top of the subtotal at the given rate.
func PurchaseOrderConfig(taxRatePercent decimal.Decimal) Config {
	return Config{
		CodePrefix:     "P",
		Adjustment:     AdjustmentAdditive,
		TaxRatePercent: taxRatePercent,
		DefaultUnit:    "nos",
	}
}
