package validate

import (
	"errors"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"galaxyinn/backend/internal/domain"
)

func TestStructAcceptsValidPayload(t *testing.T) {
	name := "Guinness"
	price := decimal.NewFromInt(300)
	typ := domain.ProductBottle
	err := Struct(domain.ProductInput{Name: &name, SellPrice: &price, Type: &typ})
	assert.NoError(t, err)
}

func TestStructReportsJSONFieldNames(t *testing.T) {
	price := decimal.NewFromInt(-5)
	typ := domain.ProductType("keg")
	err := Struct(domain.ProductInput{SellPrice: &price, Type: &typ})
	require.Error(t, err)

	var verr *Error
	require.True(t, errors.As(err, &verr))
	fields := map[string]string{}
	for _, f := range verr.Fields {
		fields[f.Field] = f.Tag
	}
	assert.Equal(t, "gte", fields["sell_price"])
	assert.Equal(t, "product_type", fields["type"])
}

func TestCheckoutPaymentMethod(t *testing.T) {
	assert.NoError(t, Struct(domain.CheckoutRequest{PaymentMethod: domain.PaymentMpesa}))
	assert.Error(t, Struct(domain.CheckoutRequest{PaymentMethod: "Bitcoin"}))
	assert.Error(t, Struct(domain.CheckoutRequest{}))
}

func TestUserPINMustBeNumeric(t *testing.T) {
	pin := "12ab"
	err := Struct(domain.UserInput{PIN: &pin})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "pin failed numeric")
}
