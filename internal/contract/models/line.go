package models

import (
	"strconv"
	"strings"

	id "contractbook/pkg/domain"
	dErrors "contractbook/pkg/domain-errors"
)

// Storage line layout, one contract per line:
//
//	id|contracting|contracted|tax_id|number|value|signing|start|end|description
const (
	fieldSeparator = "|"
	minLineFields  = 9
)

// ErrShortLine marks a line with fewer than nine fields. Loaders ignore such
// lines instead of reporting them.
var ErrShortLine = dErrors.New(dErrors.CodeInvalidInput, "line has fewer than 9 fields")

// Line is the canonical serialization of c.
func (c *Contract) Line() string {
	return strings.Join([]string{
		strconv.Itoa(c.ID),
		c.ContractingParty,
		c.ContractedParty,
		c.TaxID.String(),
		c.Number,
		c.FormattedValue(),
		FormatDate(c.SigningDate),
		FormatDate(c.StartDate),
		FormatDate(c.EndDate),
		c.Description,
	}, fieldSeparator)
}

// ParseLine reconstructs a contract from its stored line. Text fields are
// taken as stored; only the id, value and dates are parsed. The value must
// still be positive. A missing tenth field means an empty description.
func ParseLine(line string) (*Contract, error) {
	parts := strings.Split(line, fieldSeparator)
	if len(parts) < minLineFields {
		return nil, ErrShortLine
	}
	for i := range parts {
		parts[i] = strings.TrimSpace(parts[i])
	}

	contractID, err := strconv.Atoi(parts[0])
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInvalidInput, "malformed id")
	}
	if contractID <= 0 {
		return nil, dErrors.New(dErrors.CodeInvalidInput, "id must be positive")
	}
	value, err := id.ParseBRL(parts[5])
	if err != nil {
		return nil, err
	}
	value = value.RoundBank(2)
	if err := CheckValue(value); err != nil {
		return nil, err
	}
	signing, err := ParseDate(FieldSigningDate, parts[6])
	if err != nil {
		return nil, err
	}
	start, err := ParseDate(FieldStartDate, parts[7])
	if err != nil {
		return nil, err
	}
	end, err := ParseDate(FieldEndDate, parts[8])
	if err != nil {
		return nil, err
	}
	description := ""
	if len(parts) > minLineFields {
		description = parts[9]
	}

	return &Contract{
		ID:               contractID,
		ContractingParty: parts[1],
		ContractedParty:  parts[2],
		TaxID:            id.TaxID(parts[3]),
		Number:           parts[4],
		Value:            value,
		SigningDate:      signing,
		StartDate:        start,
		EndDate:          end,
		Description:      description,
	}, nil
}
