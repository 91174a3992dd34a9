package ledger

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRound2HalfAwayFromZero(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"half_up", "300.005", "300.01"},
		{"half_down_negative", "-300.005", "-300.01"},
		{"below_half", "1.004", "1.00"},
		{"above_half", "1.006", "1.01"},
		{"exact", "42.42", "42.42"},
		{"integer", "7", "7.00"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, round2(dec(tt.in)).StringFixed(2))
		})
	}
}

func TestParseDecimal(t *testing.T) {
	assert.Equal(t, "12.5", parseDecimal("12.5").String())
	assert.Equal(t, "0", parseDecimal("garbage").String())
	assert.Equal(t, "0", parseDecimal("").String())
	assert.Equal(t, "-3", parseDecimal("-3").String())
}

func TestClampPercent(t *testing.T) {
	assert.Equal(t, "0", clampPercent(dec("-1")).String())
	assert.Equal(t, "100", clampPercent(dec("101")).String())
	assert.Equal(t, "55.5", clampPercent(dec("55.5")).String())
}
