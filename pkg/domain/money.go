package domain

import (
	"strings"

	"github.com/shopspring/decimal"

	dErrors "contractbook/pkg/domain-errors"
)

// currencySymbol prefixes every formatted amount.
const currencySymbol = "R$"

// FormatBRL renders amount as Brazilian real currency text, e.g. "R$ 1.234,56".
// Amounts are rounded half-even to cents.
func FormatBRL(amount decimal.Decimal) string {
	fixed := amount.RoundBank(2).StringFixed(2)

	sign := ""
	if strings.HasPrefix(fixed, "-") {
		sign = "-"
		fixed = fixed[1:]
	}
	whole, cents, _ := strings.Cut(fixed, ".")

	var b strings.Builder
	b.WriteString(sign)
	b.WriteString(currencySymbol)
	b.WriteByte(' ')
	for i := range whole {
		if i > 0 && (len(whole)-i)%3 == 0 {
			b.WriteByte('.')
		}
		b.WriteByte(whole[i])
	}
	b.WriteByte(',')
	b.WriteString(cents)
	return b.String()
}

// ParseBRL reverses FormatBRL. Every character other than a digit or a comma
// is discarded and the comma becomes the decimal point, so "R$ 1.500,00"
// reads back as 1500.00. The sign is not preserved.
func ParseBRL(text string) (decimal.Decimal, error) {
	var b strings.Builder
	for _, r := range text {
		switch {
		case r >= '0' && r <= '9':
			b.WriteRune(r)
		case r == ',':
			b.WriteByte('.')
		}
	}
	if b.Len() == 0 {
		return decimal.Zero, dErrors.New(dErrors.CodeInvalidInput, "empty currency amount")
	}
	amount, err := decimal.NewFromString(b.String())
	if err != nil {
		return decimal.Zero, dErrors.Wrap(err, dErrors.CodeInvalidInput, "malformed currency amount")
	}
	return amount, nil
}
