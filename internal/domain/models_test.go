package domain

import (
	"errors"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func TestParseProductType(t *testing.T) {
	for _, raw := range []string{"bottle", "drum", "pour"} {
		got, err := ParseProductType(raw)
		assert.NoError(t, err)
		assert.Equal(t, ProductType(raw), got)
	}
	_, err := ParseProductType("keg")
	assert.True(t, errors.Is(err, ErrUnknownProductType))
}

func TestFormatVolume(t *testing.T) {
	assert.Equal(t, "750ml", FormatVolume(750))
	assert.Equal(t, "1.0L", FormatVolume(1000))
	assert.Equal(t, "2.0L", FormatVolume(2000))
	assert.Equal(t, "1.3L", FormatVolume(1250))
}

func TestWithQuantityRecomputesTotal(t *testing.T) {
	item := OrderItem{UnitPrice: decimal.RequireFromString("1.6")}.WithQuantity(250)
	assert.True(t, item.TotalPrice.Equal(decimal.NewFromInt(400)))
}

func TestPourLineVolume(t *testing.T) {
	line := TransactionItem{Type: ProductPour, Quantity: 500, PourSizeML: 250}
	assert.Equal(t, 500, line.VolumeML())
	assert.True(t, line.Pours().Equal(decimal.NewFromInt(2)))

	bottle := TransactionItem{Type: ProductBottle, Quantity: 3}
	assert.Equal(t, 0, bottle.VolumeML())
}
