// Package ledger implements the line-item ledger shared by BOQ, sales
// order and purchase order documents: an ordered list of line items plus
// a document-level adjustment percent, with all derived totals recomputed
// after every mutation. It is pure in-memory computation with no I/O.
package ledger

import (
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// ErrNoItems is reported by Validate when a document has no line items.
// The host surfaces it as a user-facing validation message, not a failure.
var ErrNoItems = errors.New("document has no line items")

// Item is one row of a ledger document. Amount is always derived from
// Quantity, UnitRate and DiscountPercent; it is never edited directly.
type Item struct {
	ID              uuid.UUID       `json:"id"`
	ItemCode        string          `json:"item_code"`
	Description     string          `json:"description"`
	Specification   string          `json:"specification"`
	Unit            string          `json:"unit"`
	Quantity        decimal.Decimal `json:"quantity"`
	UnitRate        decimal.Decimal `json:"unit_rate"`
	DiscountPercent decimal.Decimal `json:"discount_percent"`
	Amount          decimal.Decimal `json:"amount"`
}

// Totals holds the document-level derived values. Each stage is rounded
// to 2 decimals before feeding the next one.
type Totals struct {
	Subtotal         decimal.Decimal `json:"subtotal"`
	AdjustmentAmount decimal.Decimal `json:"adjustment_amount"`
	TaxAmount        decimal.Decimal `json:"tax_amount"`
	Total            decimal.Decimal `json:"total"`
}

// Snapshot is the value handed to the host's save path: the current items
// plus totals, frozen at the moment of the call.
type Snapshot struct {
	Items             []Item          `json:"items"`
	AdjustmentPercent decimal.Decimal `json:"adjustment_percent"`
	Totals
}

// Ledger owns an ordered item collection and keeps Totals consistent with
// it at all times. It is exclusively owned by one document form, mutated
// synchronously, never shared.
type Ledger struct {
	cfg               Config
	items             []Item
	adjustmentPercent decimal.Decimal
	totals            Totals
}

// New returns an empty ledger for the given document type.
func New(cfg Config) *Ledger {
	l := &Ledger{cfg: cfg}
	l.recompute()
	return l
}

// FromItems builds a ledger seeded with existing rows, as when editing a
// persisted document. Amounts and totals are recomputed from the row
// inputs rather than trusted from the snapshot.
func FromItems(cfg Config, items []Item, adjustmentPercent decimal.Decimal) *Ledger {
	l := &Ledger{
		cfg:               cfg,
		items:             make([]Item, len(items)),
		adjustmentPercent: clampPercent(adjustmentPercent),
	}
	copy(l.items, items)
	for i := range l.items {
		if l.items[i].ID == uuid.Nil {
			l.items[i].ID = uuid.New()
		}
		l.items[i].DiscountPercent = clampPercent(l.items[i].DiscountPercent)
		l.items[i].Amount = l.itemAmount(l.items[i])
	}
	l.recompute()
	return l
}

// AddItem appends a blank row with quantity 1 and an auto-generated item
// code (prefix + 1-based position, zero padded). Totals are recomputed.
func (l *Ledger) AddItem() Item {
	it := Item{
		ID:       uuid.New(),
		ItemCode: fmt.Sprintf("%s%03d", l.cfg.CodePrefix, len(l.items)+1),
		Unit:     l.cfg.DefaultUnit,
		Quantity: decimal.NewFromInt(1),
		UnitRate: decimal.Zero,
		Amount:   decimal.Zero,
	}
	l.items = append(l.items, it)
	l.recompute()
	return it
}

// UpdateItem applies a single-field edit to the row at index. Numeric
// fields are parsed (bad input becomes zero), percent fields are clamped
// to [0,100], and the row amount plus document totals are recomputed.
// Descriptive fields are stored verbatim. An out-of-range index is a
// programming error on the caller's side and is reported as an error.
func (l *Ledger) UpdateItem(index int, field Field, raw string) error {
	if index < 0 || index >= len(l.items) {
		return fmt.Errorf("item index %d out of range [0,%d)", index, len(l.items))
	}
	it := &l.items[index]

	switch field {
	case FieldQuantity:
		it.Quantity = parseDecimal(raw)
	case FieldUnitRate:
		it.UnitRate = parseDecimal(raw)
	case FieldDiscountPercent:
		it.DiscountPercent = clampPercent(parseDecimal(raw))
	case FieldItemCode:
		it.ItemCode = raw
	case FieldDescription:
		it.Description = raw
	case FieldSpecification:
		it.Specification = raw
	case FieldUnit:
		it.Unit = raw
	default:
		return fmt.Errorf("unknown item field %d", field)
	}

	if field.Numeric() {
		it.Amount = l.itemAmount(*it)
		l.recompute()
	}
	return nil
}

// RemoveItem deletes the row at index, preserving the relative order of
// the rest. Out-of-range indexes are a no-op.
func (l *Ledger) RemoveItem(index int) {
	if index < 0 || index >= len(l.items) {
		return
	}
	l.items = append(l.items[:index], l.items[index+1:]...)
	l.recompute()
}

// SetAdjustmentPercent parses and clamps the document-level contingency
// or discount percent, then recomputes totals.
func (l *Ledger) SetAdjustmentPercent(raw string) {
	l.adjustmentPercent = clampPercent(parseDecimal(raw))
	l.recompute()
}

// AdjustmentPercent returns the current document-level percent.
func (l *Ledger) AdjustmentPercent() decimal.Decimal {
	return l.adjustmentPercent
}

// Items returns a copy of the current rows in display order.
func (l *Ledger) Items() []Item {
	out := make([]Item, len(l.items))
	copy(out, l.items)
	return out
}

// Len returns the number of line items.
func (l *Ledger) Len() int {
	return len(l.items)
}

// Totals returns the current derived totals.
func (l *Ledger) Totals() Totals {
	return l.totals
}

// Validate is the save gate the host form checks before persisting.
// A document with no rows cannot be saved; header-field validation is
// owned by the host.
func (l *Ledger) Validate() error {
	if len(l.items) == 0 {
		return ErrNoItems
	}
	return nil
}

// Snapshot freezes the current state for the host's save callback.
func (l *Ledger) Snapshot() Snapshot {
	return Snapshot{
		Items:             l.Items(),
		AdjustmentPercent: l.adjustmentPercent,
		Totals:            l.totals,
	}
}

// Recompute rebuilds the totals from the current rows. Mutators call it
// automatically; it is exported so hosts restoring state can force a
// pass. Calling it twice in a row yields identical totals.
func (l *Ledger) Recompute() {
	l.recompute()
}

// itemAmount derives a row amount: quantity x rate, less the per-item
// discount when the document type allows one, rounded to 2 decimals.
func (l *Ledger) itemAmount(it Item) decimal.Decimal {
	base := it.Quantity.Mul(it.UnitRate)
	if l.cfg.ItemDiscount && it.DiscountPercent.IsPositive() {
		base = base.Sub(base.Mul(it.DiscountPercent).Div(hundred))
	}
	return round2(base)
}

func (l *Ledger) recompute() {
	sum := decimal.Zero
	for _, it := range l.items {
		sum = sum.Add(it.Amount)
	}
	subtotal := round2(sum)

	adjustment := round2(subtotal.Mul(l.adjustmentPercent).Div(hundred))

	taxable := subtotal
	if l.cfg.Adjustment == AdjustmentSubtractive {
		taxable = subtotal.Sub(adjustment)
	}
	tax := decimal.Zero
	if l.cfg.TaxRatePercent.IsPositive() {
		tax = round2(taxable.Mul(l.cfg.TaxRatePercent).Div(hundred))
	}

	total := subtotal.Add(tax)
	if l.cfg.Adjustment == AdjustmentSubtractive {
		total = total.Sub(adjustment)
	} else {
		total = total.Add(adjustment)
	}

	l.totals = Totals{
		Subtotal:         subtotal,
		AdjustmentAmount: adjustment,
		TaxAmount:        tax,
		Total:            round2(total),
	}
}
