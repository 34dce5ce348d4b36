package utils

import "github.com/shopspring/decimal"

// Round2 rounds x to 2 decimal places (banker's rounding, half to even).
func Round2(x decimal.Decimal) decimal.Decimal {
	return x.RoundBank(2)
}
