package models

import (
	id "contractbook/pkg/domain"
	dErrors "contractbook/pkg/domain-errors"
)

// CreateContractRequest carries raw user input for a new contract.
type CreateContractRequest struct {
	ContractingParty string
	ContractedParty  string
	Number           string
	Description      string
	TaxID            string
	SigningDate      string
	StartDate        string
	EndDate          string
	Value            string
}

// Parse validates every field and returns the typed payload. The first
// failing field is reported.
func (r *CreateContractRequest) Parse() (Fields, error) {
	var (
		f   Fields
		err error
	)
	if f.ContractingParty, err = ParsePartyName(FieldContractingParty, r.ContractingParty); err != nil {
		return Fields{}, err
	}
	if f.ContractedParty, err = ParsePartyName(FieldContractedParty, r.ContractedParty); err != nil {
		return Fields{}, err
	}
	if f.Number, err = ParseText(FieldNumber, r.Number); err != nil {
		return Fields{}, err
	}
	if f.Description, err = ParseText(FieldDescription, r.Description); err != nil {
		return Fields{}, err
	}
	if f.TaxID, err = id.ParseTaxID(r.TaxID); err != nil {
		return Fields{}, err
	}
	if f.SigningDate, err = ParseDate(FieldSigningDate, r.SigningDate); err != nil {
		return Fields{}, err
	}
	if f.StartDate, err = ParseDate(FieldStartDate, r.StartDate); err != nil {
		return Fields{}, err
	}
	if f.EndDate, err = ParseDate(FieldEndDate, r.EndDate); err != nil {
		return Fields{}, err
	}
	if err = CheckDates(f.SigningDate, f.StartDate, f.EndDate); err != nil {
		return Fields{}, err
	}
	if f.Value, err = ParseValue(r.Value); err != nil {
		return Fields{}, err
	}
	return f, nil
}

// UpdateContractRequest carries optional replacements. A nil field keeps the
// current value.
type UpdateContractRequest struct {
	ContractingParty *string
	ContractedParty  *string
	Number           *string
	Description      *string
	TaxID            *string
	SigningDate      *string
	StartDate        *string
	EndDate          *string
	Value            *string
}

// IsEmpty reports whether the request changes nothing.
func (r *UpdateContractRequest) IsEmpty() bool {
	return r.ContractingParty == nil && r.ContractedParty == nil && r.Number == nil &&
		r.Description == nil && r.TaxID == nil && r.SigningDate == nil &&
		r.StartDate == nil && r.EndDate == nil && r.Value == nil
}

// ApplyTo validates and applies each provided field on its own. A rejected
// field leaves c unchanged for that field and is returned; the remaining
// fields are still applied. Cross-field rules are not checked here.
func (r *UpdateContractRequest) ApplyTo(c *Contract) []FieldError {
	var rejected []FieldError
	reject := func(field string, err error) {
		rejected = append(rejected, FieldError{Field: field, Err: err})
	}

	if r.ContractingParty != nil {
		if v, err := ParsePartyName(FieldContractingParty, *r.ContractingParty); err != nil {
			reject(FieldContractingParty, err)
		} else {
			c.ContractingParty = v
		}
	}
	if r.ContractedParty != nil {
		if v, err := ParsePartyName(FieldContractedParty, *r.ContractedParty); err != nil {
			reject(FieldContractedParty, err)
		} else {
			c.ContractedParty = v
		}
	}
	if r.Number != nil {
		if v, err := ParseText(FieldNumber, *r.Number); err != nil {
			reject(FieldNumber, err)
		} else {
			c.Number = v
		}
	}
	if r.Description != nil {
		if v, err := ParseText(FieldDescription, *r.Description); err != nil {
			reject(FieldDescription, err)
		} else {
			c.Description = v
		}
	}
	if r.TaxID != nil {
		if v, err := id.ParseTaxID(*r.TaxID); err != nil {
			reject(FieldTaxID, err)
		} else {
			c.TaxID = v
		}
	}
	if r.SigningDate != nil {
		if v, err := ParseDate(FieldSigningDate, *r.SigningDate); err != nil {
			reject(FieldSigningDate, err)
		} else {
			c.SigningDate = v
		}
	}
	if r.StartDate != nil {
		if v, err := ParseDate(FieldStartDate, *r.StartDate); err != nil {
			reject(FieldStartDate, err)
		} else {
			c.StartDate = v
		}
	}
	if r.EndDate != nil {
		if v, err := ParseDate(FieldEndDate, *r.EndDate); err != nil {
			reject(FieldEndDate, err)
		} else {
			c.EndDate = v
		}
	}
	if r.Value != nil {
		if v, err := ParseValue(*r.Value); err != nil {
			reject(FieldValue, err)
		} else {
			c.Value = v
		}
	}
	return rejected
}

// ErrInvalidRequest is returned for a nil request.
var ErrInvalidRequest = dErrors.New(dErrors.CodeValidation, "request is required")
