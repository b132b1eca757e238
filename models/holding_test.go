package models

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func TestHolding_Validate(t *testing.T) {
	valid := Holding{
		UserID:   1,
		Symbol:   "AAPL",
		Quantity: 10,
		BuyPrice: decimal.NewFromFloat(150.25),
		BuyDate:  "2026-01-15",
	}
	assert.NoError(t, valid.Validate())

	noSymbol := valid
	noSymbol.Symbol = ""
	assert.Error(t, noSymbol.Validate())

	zeroQuantity := valid
	zeroQuantity.Quantity = 0
	assert.Error(t, zeroQuantity.Validate())

	negativePrice := valid
	negativePrice.BuyPrice = decimal.NewFromFloat(-1)
	assert.Error(t, negativePrice.Validate())

	badDate := valid
	badDate.BuyDate = "15/01/2026"
	assert.Error(t, badDate.Validate())

	noDate := valid
	noDate.BuyDate = ""
	assert.NoError(t, noDate.Validate(), "buy date is optional")
}
