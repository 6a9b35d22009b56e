package models

import (
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	dErrors "contractbook/pkg/domain-errors"
)

// DateLayout is the DD/MM/YYYY layout used at the console and in storage.
const DateLayout = "02/01/2006"

// partyNamePattern admits Latin letters (accented included) and whitespace.
var partyNamePattern = regexp.MustCompile(`^[\p{Latin}\s]+$`)

// Field names, used in messages and in FieldError.
const (
	FieldContractingParty = "contracting party"
	FieldContractedParty  = "contracted party"
	FieldNumber           = "contract number"
	FieldDescription      = "description"
	FieldTaxID            = "tax ID"
	FieldValue            = "value"
	FieldSigningDate      = "signing date"
	FieldStartDate        = "start date"
	FieldEndDate          = "end date"
)

// FieldError reports a single field that was rejected.
type FieldError struct {
	Field string
	Err   error
}

func (e FieldError) Error() string {
	return e.Field + ": " + e.Err.Error()
}

func (e FieldError) Unwrap() error {
	return e.Err
}

// ParseText trims raw and requires a non-empty value that fits on one line of
// the data file.
func ParseText(field, raw string) (string, error) {
	s := strings.TrimSpace(raw)
	if s == "" {
		return "", dErrors.New(dErrors.CodeValidation, field+" cannot be empty")
	}
	if strings.ContainsAny(s, "|\r\n") {
		return "", dErrors.New(dErrors.CodeValidation, field+" cannot contain '|' or line breaks")
	}
	return s, nil
}

// ParsePartyName is ParseText restricted to letters and whitespace.
func ParsePartyName(field, raw string) (string, error) {
	s, err := ParseText(field, raw)
	if err != nil {
		return "", err
	}
	if !partyNamePattern.MatchString(s) {
		return "", dErrors.New(dErrors.CodeValidation, field+" must contain only letters and spaces")
	}
	return s, nil
}

// MaxValueDigits bounds the integer part of a contract value.
const MaxValueDigits = 13

var maxValue = decimal.New(1, MaxValueDigits)

// ParseValue reads a positive amount and rounds it half-even to cents, the
// precision the data file keeps. Both "1500.50" and "1500,50" are accepted;
// thousands separators and exponents are not.
func ParseValue(raw string) (decimal.Decimal, error) {
	s := strings.TrimSpace(raw)
	if strings.ContainsAny(s, "eE") {
		return decimal.Zero, dErrors.New(dErrors.CodeInvalidInput, "value must be a number")
	}
	if !strings.Contains(s, ".") {
		s = strings.Replace(s, ",", ".", 1)
	}
	v, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, dErrors.New(dErrors.CodeInvalidInput, "value must be a number")
	}
	v = v.RoundBank(2)
	if err := CheckValue(v); err != nil {
		return decimal.Zero, err
	}
	return v, nil
}

// CheckValue enforces the value invariants: above zero once rounded to cents
// and at most MaxValueDigits integer digits.
func CheckValue(v decimal.Decimal) error {
	if !v.RoundBank(2).IsPositive() {
		return dErrors.New(dErrors.CodeValidation, "value must be greater than zero")
	}
	if v.Abs().GreaterThanOrEqual(maxValue) {
		return dErrors.New(dErrors.CodeValidation, "value cannot exceed "+strconv.Itoa(MaxValueDigits)+" digits")
	}
	return nil
}

// ParseDate reads a DD/MM/YYYY calendar date. Impossible dates such as
// 31/02/2024 are rejected, not clamped to the last day of the month.
func ParseDate(field, raw string) (time.Time, error) {
	d, err := time.Parse(DateLayout, strings.TrimSpace(raw))
	if err != nil {
		return time.Time{}, dErrors.New(dErrors.CodeInvalidInput, "invalid "+field+", use the format DD/MM/YYYY")
	}
	return d, nil
}

// FormatDate renders d with DateLayout.
func FormatDate(d time.Time) string {
	return d.Format(DateLayout)
}

// CheckDates returns the first violated date rule: neither the signing date
// nor the start date may fall after the end date.
func CheckDates(signing, start, end time.Time) error {
	if signing.After(end) {
		return dErrors.New(dErrors.CodeValidation, "signing date cannot be after the end date")
	}
	if start.After(end) {
		return dErrors.New(dErrors.CodeValidation, "start date cannot be after the end date")
	}
	return nil
}
