package models

import (
	"time"

	"github.com/shopspring/decimal"

	id "contractbook/pkg/domain"
	dErrors "contractbook/pkg/domain-errors"
)

// Contract is one contract record.
//
// Invariants:
//   - ID is positive and unique within the collection
//   - ContractingParty and ContractedParty contain only letters and spaces
//   - Number is non-empty
//   - Value is greater than zero
//   - SigningDate and StartDate are not after EndDate at creation time
//
// Edits may leave the dates inconsistent; callers check DatesConsistent after
// changing any date and decide whether to warn.
type Contract struct {
	ID               int
	ContractingParty string
	ContractedParty  string
	Number           string
	Description      string
	Value            decimal.Decimal
	SigningDate      time.Time
	StartDate        time.Time
	EndDate          time.Time
	TaxID            id.TaxID
}

// Fields is the validated payload of a new contract.
type Fields struct {
	ContractingParty string
	ContractedParty  string
	Number           string
	Description      string
	Value            decimal.Decimal
	SigningDate      time.Time
	StartDate        time.Time
	EndDate          time.Time
	TaxID            id.TaxID
}

// NewContract builds a contract, rejecting values that break an invariant.
// The id is assigned by the collection on insert and may be zero here.
func NewContract(contractID int, f Fields) (*Contract, error) {
	if contractID < 0 {
		return nil, dErrors.New(dErrors.CodeInvariantViolation, "contract id cannot be negative")
	}
	if f.ContractingParty == "" || f.ContractedParty == "" {
		return nil, dErrors.New(dErrors.CodeInvariantViolation, "contract parties cannot be empty")
	}
	if f.Number == "" {
		return nil, dErrors.New(dErrors.CodeInvariantViolation, "contract number cannot be empty")
	}
	if f.TaxID.IsNil() {
		return nil, dErrors.New(dErrors.CodeInvariantViolation, "tax ID cannot be empty")
	}
	value := f.Value.RoundBank(2)
	if err := CheckValue(value); err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInvariantViolation, "invalid contract value")
	}
	if err := CheckDates(f.SigningDate, f.StartDate, f.EndDate); err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInvariantViolation, "inconsistent contract dates")
	}
	return &Contract{
		ID:               contractID,
		ContractingParty: f.ContractingParty,
		ContractedParty:  f.ContractedParty,
		Number:           f.Number,
		Description:      f.Description,
		Value:            value,
		SigningDate:      f.SigningDate,
		StartDate:        f.StartDate,
		EndDate:          f.EndDate,
		TaxID:            f.TaxID,
	}, nil
}

// DatesConsistent re-checks the date invariants.
func (c *Contract) DatesConsistent() bool {
	return CheckDates(c.SigningDate, c.StartDate, c.EndDate) == nil
}

// FormattedValue renders Value as pt-BR currency.
func (c *Contract) FormattedValue() string {
	return id.FormatBRL(c.Value)
}

// Clone returns an independent copy.
func (c *Contract) Clone() *Contract {
	cp := *c
	return &cp
}
