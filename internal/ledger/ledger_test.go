package ledger

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func dec(s string) decimal.Decimal {
	d, err := decimal.NewFromString(s)
	if err != nil {
		panic(err)
	}
	return d
}

func TestAddItemDefaults(t *testing.T) {
	l := New(BOQConfig())

	first := l.AddItem()
	second := l.AddItem()

	assert.Equal(t, "B001", first.ItemCode)
	assert.Equal(t, "B002", second.ItemCode)
	assert.Equal(t, "nos", first.Unit)
	assert.Equal(t, "1", first.Quantity.String())
	assert.Equal(t, "0.00", l.Totals().Total.StringFixed(2))
}

func TestBOQContingencyScenario(t *testing.T) {
	l := New(BOQConfig())

	rows := []struct{ qty, rate string }{
		{"2000", "150"},
		{"450", "1200"},
	}
	for i, r := range rows {
		l.AddItem()
		require.NoError(t, l.UpdateItem(i, FieldQuantity, r.qty))
		require.NoError(t, l.UpdateItem(i, FieldUnitRate, r.rate))
	}
	l.SetAdjustmentPercent("5")

	got := l.Totals()
	assert.Equal(t, "840000.00", got.Subtotal.StringFixed(2))
	assert.Equal(t, "42000.00", got.AdjustmentAmount.StringFixed(2))
	assert.Equal(t, "0.00", got.TaxAmount.StringFixed(2))
	assert.Equal(t, "882000.00", got.Total.StringFixed(2))
}

func TestSalesOrderDiscountAndGST(t *testing.T) {
	l := New(SalesOrderConfig(dec("18")))

	l.AddItem()
	require.NoError(t, l.UpdateItem(0, FieldQuantity, "10"))
	require.NoError(t, l.UpdateItem(0, FieldUnitRate, "100"))
	require.NoError(t, l.UpdateItem(0, FieldDiscountPercent, "10"))

	items := l.Items()
	assert.Equal(t, "900.00", items[0].Amount.StringFixed(2))

	got := l.Totals()
	assert.Equal(t, "900.00", got.Subtotal.StringFixed(2))
	assert.Equal(t, "0.00", got.AdjustmentAmount.StringFixed(2))
	assert.Equal(t, "162.00", got.TaxAmount.StringFixed(2))
	assert.Equal(t, "1062.00", got.Total.StringFixed(2))
}

func TestGSTAppliesToDiscountedSubtotal(t *testing.T) {
	l := New(SalesOrderConfig(dec("18")))

	l.AddItem()
	require.NoError(t, l.UpdateItem(0, FieldQuantity, "1"))
	require.NoError(t, l.UpdateItem(0, FieldUnitRate, "1000"))
	l.SetAdjustmentPercent("10")

	// taxable = 1000 - 100, tax = 900 * 18%
	got := l.Totals()
	assert.Equal(t, "100.00", got.AdjustmentAmount.StringFixed(2))
	assert.Equal(t, "162.00", got.TaxAmount.StringFixed(2))
	assert.Equal(t, "1062.00", got.Total.StringFixed(2))
}

func TestRoundingHalfAwayFromZeroPerStage(t *testing.T) {
	l := New(BOQConfig())

	l.AddItem()
	require.NoError(t, l.UpdateItem(0, FieldQuantity, "2"))
	require.NoError(t, l.UpdateItem(0, FieldUnitRate, "150.005"))

	// 2 * 150.005 = 300.01 at the half boundary; the rounded row amount,
	// not the raw product, is what feeds the subtotal.
	items := l.Items()
	assert.Equal(t, "300.01", items[0].Amount.StringFixed(2))
	assert.Equal(t, "300.01", l.Totals().Subtotal.StringFixed(2))
}

func TestSubtotalEqualsSumOfRowAmounts(t *testing.T) {
	l := New(SalesOrderConfig(dec("18")))

	rows := []struct{ qty, rate, disc string }{
		{"3", "33.335", "0"},
		{"7", "0.145", "12.5"},
		{"1", "99.999", "33.33"},
		{"13", "8.125", "0"},
	}
	for i, r := range rows {
		l.AddItem()
		require.NoError(t, l.UpdateItem(i, FieldQuantity, r.qty))
		require.NoError(t, l.UpdateItem(i, FieldUnitRate, r.rate))
		require.NoError(t, l.UpdateItem(i, FieldDiscountPercent, r.disc))
	}
	l.RemoveItem(1)
	l.AddItem()
	require.NoError(t, l.UpdateItem(3, FieldQuantity, "2"))
	require.NoError(t, l.UpdateItem(3, FieldUnitRate, "10.005"))

	sum := decimal.Zero
	for _, it := range l.Items() {
		sum = sum.Add(it.Amount)
	}
	assert.Equal(t, sum.StringFixed(2), l.Totals().Subtotal.StringFixed(2))
}

func TestRecomputeIsIdempotent(t *testing.T) {
	l := New(BOQConfig())
	l.AddItem()
	require.NoError(t, l.UpdateItem(0, FieldQuantity, "17"))
	require.NoError(t, l.UpdateItem(0, FieldUnitRate, "42.42"))
	l.SetAdjustmentPercent("7.5")

	first := l.Totals()
	l.Recompute()
	l.Recompute()
	second := l.Totals()

	assert.True(t, first.Subtotal.Equal(second.Subtotal))
	assert.True(t, first.AdjustmentAmount.Equal(second.AdjustmentAmount))
	assert.True(t, first.TaxAmount.Equal(second.TaxAmount))
	assert.True(t, first.Total.Equal(second.Total))
}

func TestAdjustmentPercentClamping(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		want string
	}{
		{"above_range", "150", "100"},
		{"negative", "-5", "0"},
		{"non_numeric", "abc", "0"},
		{"empty", "", "0"},
		{"in_range", "12.5", "12.5"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			l := New(BOQConfig())
			l.SetAdjustmentPercent(tt.raw)
			assert.Equal(t, tt.want, l.AdjustmentPercent().String())
		})
	}
}

func TestNumericParseFailureBecomesZero(t *testing.T) {
	l := New(BOQConfig())
	l.AddItem()
	require.NoError(t, l.UpdateItem(0, FieldQuantity, "5"))
	require.NoError(t, l.UpdateItem(0, FieldUnitRate, "10"))
	assert.Equal(t, "50.00", l.Totals().Subtotal.StringFixed(2))

	require.NoError(t, l.UpdateItem(0, FieldQuantity, "not a number"))
	assert.Equal(t, "0.00", l.Totals().Subtotal.StringFixed(2))
}

func TestDescriptiveEditDoesNotTouchAmount(t *testing.T) {
	l := New(BOQConfig())
	l.AddItem()
	require.NoError(t, l.UpdateItem(0, FieldQuantity, "4"))
	require.NoError(t, l.UpdateItem(0, FieldUnitRate, "25"))

	require.NoError(t, l.UpdateItem(0, FieldDescription, "Excavation in soil"))
	require.NoError(t, l.UpdateItem(0, FieldUnit, "cum"))

	items := l.Items()
	assert.Equal(t, "Excavation in soil", items[0].Description)
	assert.Equal(t, "cum", items[0].Unit)
	assert.Equal(t, "100.00", items[0].Amount.StringFixed(2))
}

func TestUpdateItemIndexOutOfRange(t *testing.T) {
	l := New(BOQConfig())
	l.AddItem()

	assert.Error(t, l.UpdateItem(1, FieldQuantity, "2"))
	assert.Error(t, l.UpdateItem(-1, FieldQuantity, "2"))
}

func TestRemoveItemKeepsOrderAndRecomputes(t *testing.T) {
	l := New(BOQConfig())
	for i, rate := range []string{"10", "20", "30"} {
		l.AddItem()
		require.NoError(t, l.UpdateItem(i, FieldQuantity, "1"))
		require.NoError(t, l.UpdateItem(i, FieldUnitRate, rate))
	}

	l.RemoveItem(0)

	items := l.Items()
	require.Len(t, items, 2)
	assert.Equal(t, "20.00", items[0].Amount.StringFixed(2))
	assert.Equal(t, "30.00", items[1].Amount.StringFixed(2))
	assert.Equal(t, "50.00", l.Totals().Subtotal.StringFixed(2))

	// out-of-range removals are ignored
	l.RemoveItem(5)
	l.RemoveItem(-1)
	assert.Equal(t, 2, l.Len())
}

func TestEmptyDocumentGate(t *testing.T) {
	l := New(BOQConfig())
	assert.ErrorIs(t, l.Validate(), ErrNoItems)

	// changing the adjustment alone must not open the gate
	l.SetAdjustmentPercent("50")
	assert.ErrorIs(t, l.Validate(), ErrNoItems)

	l.AddItem()
	assert.NoError(t, l.Validate())
}

func TestFromItemsRecomputesDerivedValues(t *testing.T) {
	seed := []Item{
		{ItemCode: "B001", Quantity: dec("2"), UnitRate: dec("150.005"), Amount: dec("999")},
		{ItemCode: "B002", Quantity: dec("1"), UnitRate: dec("50"), DiscountPercent: dec("250")},
	}
	l := FromItems(BOQConfig(), seed, dec("5"))

	items := l.Items()
	// stored amounts are never trusted, discounts are clamped on load
	assert.Equal(t, "300.01", items[0].Amount.StringFixed(2))
	assert.Equal(t, "100", items[1].DiscountPercent.String())
	assert.Equal(t, "350.01", l.Totals().Subtotal.StringFixed(2))
	assert.Equal(t, "17.50", l.Totals().AdjustmentAmount.StringFixed(2))
	assert.Equal(t, "367.51", l.Totals().Total.StringFixed(2))
}

func TestSnapshotMatchesState(t *testing.T) {
	l := New(SalesOrderConfig(dec("18")))
	l.AddItem()
	require.NoError(t, l.UpdateItem(0, FieldQuantity, "10"))
	require.NoError(t, l.UpdateItem(0, FieldUnitRate, "100"))

	snap := l.Snapshot()
	require.Len(t, snap.Items, 1)
	assert.Equal(t, "1000.00", snap.Subtotal.StringFixed(2))
	assert.Equal(t, "180.00", snap.TaxAmount.StringFixed(2))
	assert.Equal(t, "1180.00", snap.Total.StringFixed(2))

	// the snapshot is a copy; mutating it does not touch the ledger
	snap.Items[0].Description = "changed"
	assert.Equal(t, "", l.Items()[0].Description)
}
