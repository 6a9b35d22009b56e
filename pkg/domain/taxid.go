package domain

import (
	"strings"

	dErrors "contractbook/pkg/domain-errors"
)

// TaxIDDigits is the number of digits in a national tax identifier.
const TaxIDDigits = 11

// TaxID is a national tax identifier in its formatted form (DDD.DDD.DDD-DD).
// This is a domain primitive: values built through ParseTaxID always carry
// valid check digits. Values reconstructed from storage are trusted as-is.
type TaxID string

// ParseTaxID validates raw (any punctuation is ignored) and returns the
// formatted identifier.
func ParseTaxID(raw string) (TaxID, error) {
	if !ValidateTaxID(raw) {
		return "", dErrors.New(dErrors.CodeInvalidInput, "invalid tax ID")
	}
	return TaxID(FormatTaxID(onlyDigits(raw))), nil
}

// String returns the formatted identifier.
func (t TaxID) String() string {
	return string(t)
}

// Digits returns the identifier with punctuation removed.
func (t TaxID) Digits() string {
	return onlyDigits(string(t))
}

// IsNil returns true if the identifier is empty.
func (t TaxID) IsNil() bool {
	return t == ""
}

// ValidateTaxID reports whether raw holds 11 digits, not all identical, whose
// two trailing check digits match the weighted mod-11 sums of the digits
// before them. Non-digit characters are stripped first.
func ValidateTaxID(raw string) bool {
	digits := onlyDigits(raw)
	if len(digits) != TaxIDDigits {
		return false
	}
	if strings.Count(digits, digits[:1]) == TaxIDDigits {
		return false
	}
	d := make([]int, TaxIDDigits)
	for i := range digits {
		d[i] = int(digits[i] - '0')
	}
	first, second := checkDigits(d)
	return first == d[9] && second == d[10]
}

// FormatTaxID renders 11 digits as DDD.DDD.DDD-DD. It performs no validation;
// input that is not exactly 11 bytes long is returned unchanged.
func FormatTaxID(digits string) string {
	if len(digits) != TaxIDDigits {
		return digits
	}
	return digits[0:3] + "." + digits[3:6] + "." + digits[6:9] + "-" + digits[9:11]
}

// checkDigits computes both check digits. Only d[0..9] are read: the first
// pass weighs d[0..8] from 10 down to 2, the second weighs d[0..9] from 11
// down to 2 (so it depends on the stored first check digit, not the computed one).
func checkDigits(d []int) (int, int) {
	sum := 0
	for i := 0; i < 9; i++ {
		sum += d[i] * (10 - i)
	}
	first := 11 - sum%11
	if first >= 10 {
		first = 0
	}

	sum = 0
	for i := 0; i < 10; i++ {
		sum += d[i] * (11 - i)
	}
	second := 11 - sum%11
	if second >= 10 {
		second = 0
	}
	return first, second
}

func onlyDigits(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	for i := 0; i < len(s); i++ {
		if s[i] >= '0' && s[i] <= '9' {
			b.WriteByte(s[i])
		}
	}
	return b.String()
}
