package extract

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalizeDecimal(t *testing.T) {
	tests := []struct {
		in   string
		want float64
	}{
		{"1,234.56", 1234.56},
		{"1.234,56", 1234.56},
		{"l23.45", 123.45},
		{"I23.45", 123.45},
		{"12O.00", 120.00},
		{"12l", 121},
		{"O.50", 0.50},
		{"25.00", 25.00},
		{"1,5", 1.5},
		{"2l2l2", 21212},
		{"garbage", 0.0},
		{"", 0.0},
		{",", 0.0},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.InDelta(t, tt.want, NormalizeDecimal(tt.in), 1e-9)
		})
	}
}

func TestNormalizeDecimalWellFormedPassThrough(t *testing.T) {
	// Clean numeric strings must parse to exactly their literal value.
	for _, v := range []float64{0, 1, 12.5, 999.99, 1050, 0.01} {
		s := fmt.Sprintf("%g", v)
		assert.Equal(t, v, NormalizeDecimal(s), "input %q", s)
	}
}

func TestNormalizeDecimalNeverNegative(t *testing.T) {
	assert.GreaterOrEqual(t, NormalizeDecimal("-12.00"), 0.0)
}
