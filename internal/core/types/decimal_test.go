package types

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewQuantityFromString(t *testing.T) {
	tests := []struct {
		in      string
		want    Quantity
		wantErr bool
	}{
		{in: "30", want: 300000},
		{in: "30.5", want: 305000},
		{in: "0.0001", want: 1},
		{in: "-2.5", want: -25000},
		{in: "+1", want: 10000},
		{in: ".5", want: 5000},
		{in: "1.23456", want: 12345}, // extra digits truncated
		{in: " 10 ", want: 100000},
		{in: "", wantErr: true},
		{in: "abc", wantErr: true},
		{in: "1.x", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := NewQuantityFromString(tt.in)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestQuantityString(t *testing.T) {
	tests := []struct {
		q    Quantity
		want string
	}{
		{q: 300000, want: "30.0000"},
		{q: 305000, want: "30.5000"},
		{q: 1, want: "0.0001"},
		{q: -25000, want: "-2.5000"},
		{q: 0, want: "0.0000"},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, tt.q.String())
	}
}

func TestQuantityJSON(t *testing.T) {
	t.Run("marshals as number", func(t *testing.T) {
		data, err := json.Marshal(Quantity(305000))
		require.NoError(t, err)
		assert.Equal(t, "30.5000", string(data))
	})

	t.Run("unmarshals number", func(t *testing.T) {
		var q Quantity
		require.NoError(t, json.Unmarshal([]byte("30.5"), &q))
		assert.Equal(t, Quantity(305000), q)
	})

	t.Run("unmarshals string", func(t *testing.T) {
		var q Quantity
		require.NoError(t, json.Unmarshal([]byte(`"12.25"`), &q))
		assert.Equal(t, Quantity(122500), q)
	})

	t.Run("null is zero", func(t *testing.T) {
		var q Quantity
		require.NoError(t, json.Unmarshal([]byte("null"), &q))
		assert.True(t, q.IsZero())
	})

	t.Run("round trip", func(t *testing.T) {
		type payload struct {
			Quantity Quantity `json:"quantity"`
		}
		data, err := json.Marshal(payload{Quantity: 12345})
		require.NoError(t, err)

		var decoded payload
		require.NoError(t, json.Unmarshal(data, &decoded))
		assert.Equal(t, Quantity(12345), decoded.Quantity)
	})
}

func TestQuantityArithmeticHelpers(t *testing.T) {
	q := Quantity(305000)

	assert.True(t, q.IsPositive())
	assert.False(t, q.IsNegative())
	assert.Equal(t, Quantity(-305000), q.Neg())
	assert.Equal(t, q, q.Neg().Abs())
	assert.InDelta(t, 30.5, q.Float64(), 1e-9)
	assert.True(t, q.Decimal().Equal(MustMoney("30.5")))
}

func TestQuantityDecimal_MoneyMath(t *testing.T) {
	// 30 units at 32.90 each.
	qty := Quantity(300000)
	price := MustMoney("32.90")

	total := qty.Decimal().Mul(price)
	assert.True(t, total.Equal(MustMoney("987.00")), "total = %s", total)
}
