package usecase

import (
	"strings"

	"github.com/shopspring/decimal"
)

// Currencies Stripe charges in whole units rather than cents.
var zeroDecimalCurrencies = map[string]bool{
	"bif": true, "clp": true, "djf": true, "gnf": true, "jpy": true, "kmf": true,
	"krw": true, "mga": true, "pyg": true, "rwf": true, "ugx": true, "vnd": true,
	"vuv": true, "xaf": true, "xof": true, "xpf": true,
}

// Currencies whose minor unit is a thousandth.
var threeDecimalCurrencies = map[string]bool{
	"bhd": true, "jod": true, "kwd": true, "omr": true, "tnd": true,
}

// DisplayAmount formats an amount in the smallest currency unit for humans, e.g. 1999 aud -> "19.99 AUD".
func DisplayAmount(amount int64, currency string) string {
	currency = strings.ToLower(currency)

	exp := int32(-2)
	switch {
	case zeroDecimalCurrencies[currency]:
		exp = 0
	case threeDecimalCurrencies[currency]:
		exp = -3
	}
	value := decimal.New(amount, exp)

	return value.StringFixed(-exp) + " " + strings.ToUpper(currency)
}
