package service

import (
	"errors"
	"math"

	"github.com/shopspring/decimal"

	"github.com/linemk/food-delivery/internal/domain/models"
)

// ErrChargeOutOfRange — сумма в пайсах не помещается в int64
var ErrChargeOutOfRange = errors.New("charge out of range")

var maxSubunits = decimal.NewFromInt(math.MaxInt64)

// Charge считает сумму к оплате: сумма price*quantity по позициям плюс фиксированная доставка.
// Сумма, присланная клиентом, здесь не участвует
func Charge(items []models.Item, deliveryFee decimal.Decimal) decimal.Decimal {
	total := decimal.Zero
	for _, item := range items {
		line := decimal.NewFromFloat(item.Price).Mul(decimal.NewFromInt(int64(item.Quantity)))
		total = total.Add(line)
	}
	return total.Add(deliveryFee)
}

// ToSubunits переводит сумму в минимальные единицы валюты (рупии -> пайсы)
func ToSubunits(amount decimal.Decimal) (int64, error) {
	subunits := amount.Shift(2).Round(0)
	if subunits.IsNegative() || subunits.GreaterThan(maxSubunits) {
		return 0, ErrChargeOutOfRange
	}
	return subunits.IntPart(), nil
}
