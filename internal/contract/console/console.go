package console

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strconv"
	"strings"
	"time"
	"unicode"
	"unicode/utf8"

	"contractbook/internal/contract/models"
	"contractbook/internal/contract/service"
	"contractbook/internal/contract/store"
	id "contractbook/pkg/domain"
	"contractbook/pkg/platform/lineio"
)

// Service is the contract management surface the console drives.
type Service interface {
	Load(ctx context.Context) (*store.LoadResult, error)
	Create(ctx context.Context, req *models.CreateContractRequest) (*service.MutationResult, error)
	List(ctx context.Context) []*models.Contract
	Get(ctx context.Context, contractID int) (*models.Contract, error)
	Update(ctx context.Context, contractID int, req *models.UpdateContractRequest) (*service.UpdateResult, error)
	Delete(ctx context.Context, contractID int) (*service.MutationResult, error)
}

// MaxInputBytes bounds one answer. Longer answers are discarded and asked again.
const MaxInputBytes = 4 << 10

// Menu options.
const (
	optionCreate = iota + 1
	optionList
	optionFind
	optionEdit
	optionDelete
	optionExit
)

// Console is the line-oriented menu over a Service.
type Console struct {
	svc    Service
	in     *lineio.Reader
	out    io.Writer
	logger *slog.Logger
}

type Option func(*Console)

func WithLogger(logger *slog.Logger) Option {
	return func(c *Console) {
		c.logger = logger
	}
}

func New(svc Service, in io.Reader, out io.Writer, opts ...Option) (*Console, error) {
	if svc == nil {
		return nil, errors.New("service is required")
	}
	if in == nil || out == nil {
		return nil, errors.New("input and output are required")
	}
	c := &Console{svc: svc, in: lineio.NewReader(in, MaxInputBytes), out: out}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// Run loads the data file and serves the menu until the user exits or the
// input ends. Both are a clean exit.
func (c *Console) Run(ctx context.Context) error {
	c.load(ctx)

	for {
		if err := ctx.Err(); err != nil {
			return err
		}
		c.printMenu()
		option, err := c.readInt("Choose an option: ")
		if err != nil {
			return c.exit(err)
		}

		switch option {
		case optionCreate:
			err = c.create(ctx)
		case optionList:
			c.list(ctx)
		case optionFind:
			err = c.find(ctx)
		case optionEdit:
			err = c.edit(ctx)
		case optionDelete:
			err = c.delete(ctx)
		case optionExit:
			c.println("Exiting the system...")
			return nil
		default:
			c.println("Invalid option! Try again.")
		}
		if err != nil {
			return c.exit(err)
		}
	}
}

func (c *Console) exit(err error) error {
	if errors.Is(err, io.EOF) {
		c.println("\nExiting the system...")
		return nil
	}
	return err
}

func (c *Console) load(ctx context.Context) {
	res, err := c.svc.Load(ctx)
	if res != nil {
		for _, skipped := range res.Skipped {
			c.printf("Warning: skipped %s\n", skipped.Error())
		}
	}
	if err != nil {
		c.printf("Error loading data: %v\n", err)
	}
}

func (c *Console) printMenu() {
	c.println("\n=== CONTRACT MANAGEMENT SYSTEM ===")
	c.println("1. Create new contract")
	c.println("2. List all contracts")
	c.println("3. Find contract by ID")
	c.println("4. Edit contract")
	c.println("5. Delete contract")
	c.println("6. Exit")
}

func (c *Console) create(ctx context.Context) error {
	c.println("\n--- NEW CONTRACT ---")

	contracting, err := promptUntil(c, "Contracting party: ", func(raw string) (string, error) {
		return models.ParsePartyName(models.FieldContractingParty, raw)
	})
	if err != nil {
		return err
	}
	contracted, err := promptUntil(c, "Contracted party: ", func(raw string) (string, error) {
		return models.ParsePartyName(models.FieldContractedParty, raw)
	})
	if err != nil {
		return err
	}
	number, err := promptUntil(c, "Contract number: ", func(raw string) (string, error) {
		return models.ParseText(models.FieldNumber, raw)
	})
	if err != nil {
		return err
	}
	description, err := promptUntil(c, "Description: ", func(raw string) (string, error) {
		return models.ParseText(models.FieldDescription, raw)
	})
	if err != nil {
		return err
	}
	taxID, err := promptUntil(c, "Contracting party tax ID: ", id.ParseTaxID)
	if err != nil {
		return err
	}
	signing, start, end, err := c.readDates()
	if err != nil {
		return err
	}
	value, err := promptUntil(c, "Contract value: R$", models.ParseValue)
	if err != nil {
		return err
	}

	res, err := c.svc.Create(ctx, &models.CreateContractRequest{
		ContractingParty: contracting,
		ContractedParty:  contracted,
		Number:           number,
		Description:      description,
		TaxID:            taxID.String(),
		SigningDate:      models.FormatDate(signing),
		StartDate:        models.FormatDate(start),
		EndDate:          models.FormatDate(end),
		Value:            value.String(),
	})
	if err != nil {
		c.println(message(err))
		return nil
	}
	c.printf("\nContract created successfully! ID: %d\n", res.Contract.ID)
	c.warnPersist(res.PersistErr)
	return nil
}

// readDates asks for the three dates together until they are consistent.
func (c *Console) readDates() (signing, start, end time.Time, err error) {
	for {
		if signing, err = c.readDate("Signing date (DD/MM/YYYY): ", models.FieldSigningDate); err != nil {
			return
		}
		if start, err = c.readDate("Start date (DD/MM/YYYY): ", models.FieldStartDate); err != nil {
			return
		}
		if end, err = c.readDate("End date (DD/MM/YYYY): ", models.FieldEndDate); err != nil {
			return
		}
		checkErr := models.CheckDates(signing, start, end)
		if checkErr == nil {
			return
		}
		c.println(message(checkErr))
		c.println("Please enter the dates again.")
	}
}

func (c *Console) readDate(prompt, field string) (time.Time, error) {
	return promptUntil(c, prompt, func(raw string) (time.Time, error) {
		return models.ParseDate(field, raw)
	})
}

func (c *Console) list(ctx context.Context) {
	c.println("\n--- CONTRACT LIST ---")
	contracts := c.svc.List(ctx)
	if len(contracts) == 0 {
		c.println("No contracts registered.")
		return
	}
	for _, contract := range contracts {
		c.println(contract.Line())
	}
}

func (c *Console) find(ctx context.Context) error {
	c.println("\n--- FIND CONTRACT ---")
	contractID, err := c.readInt("Enter the contract ID: ")
	if err != nil {
		return err
	}
	contract, err := c.svc.Get(ctx, contractID)
	if err != nil {
		c.println(message(err))
		return nil
	}
	c.println("Contract found:")
	c.println(contract.Line())
	return nil
}

func (c *Console) edit(ctx context.Context) error {
	c.println("\n--- EDIT CONTRACT ---")
	contractID, err := c.readInt("Enter the ID of the contract to edit: ")
	if err != nil {
		return err
	}
	contract, err := c.svc.Get(ctx, contractID)
	if err != nil {
		c.println(message(err))
		return nil
	}
	c.println("Editing contract:")
	c.println(contract.Line())
	c.println("\nEnter the new values (leave blank to keep the current value):")

	req := &models.UpdateContractRequest{}
	prompts := []struct {
		label   string
		current string
		target  **string
	}{
		{"Contracting party", contract.ContractingParty, &req.ContractingParty},
		{"Contracted party", contract.ContractedParty, &req.ContractedParty},
		{"Contract number", contract.Number, &req.Number},
		{"Description", contract.Description, &req.Description},
		{"Tax ID", contract.TaxID.String(), &req.TaxID},
		{"Signing date", models.FormatDate(contract.SigningDate), &req.SigningDate},
		{"Start date", models.FormatDate(contract.StartDate), &req.StartDate},
		{"End date", models.FormatDate(contract.EndDate), &req.EndDate},
		{"Value", contract.FormattedValue(), &req.Value},
	}
	for _, p := range prompts {
		raw, err := c.prompt(fmt.Sprintf("%s (%s): ", p.label, p.current))
		if err != nil {
			return err
		}
		if strings.TrimSpace(raw) != "" {
			v := raw
			*p.target = &v
		}
	}

	res, err := c.svc.Update(ctx, contractID, req)
	if err != nil {
		c.println(message(err))
		return nil
	}
	for _, fe := range res.Rejected {
		c.printf("%s was not changed: %s\n", capitalize(fe.Field), fe.Err.Error())
	}
	if res.DatesInconsistent {
		c.println("Warning: the dates are not consistent! Check that:")
		c.println("- the signing date is not after the end date")
		c.println("- the start date is not after the end date")
	}
	c.println("Contract updated successfully!")
	c.warnPersist(res.PersistErr)
	return nil
}

func (c *Console) delete(ctx context.Context) error {
	c.println("\n--- DELETE CONTRACT ---")
	contractID, err := c.readInt("Enter the ID of the contract to delete: ")
	if err != nil {
		return err
	}
	contract, err := c.svc.Get(ctx, contractID)
	if err != nil {
		c.println(message(err))
		return nil
	}
	c.println("Are you sure you want to delete the contract below? (y/N)")
	c.println(contract.Line())
	answer, err := c.prompt("")
	if err != nil {
		return err
	}
	if !confirmed(answer) {
		c.println("Operation cancelled.")
		return nil
	}

	res, err := c.svc.Delete(ctx, contractID)
	if err != nil {
		c.println(message(err))
		return nil
	}
	c.println("Contract deleted successfully!")
	c.warnPersist(res.PersistErr)
	return nil
}

func (c *Console) warnPersist(err error) {
	if err == nil {
		return
	}
	c.printf("Warning: %v\n", err)
	if c.logger != nil {
		c.logger.Warn("contract change kept in memory only", "error", err)
	}
}

func (c *Console) readInt(prompt string) (int, error) {
	for {
		raw, err := c.prompt(prompt)
		if err != nil {
			return 0, err
		}
		n, convErr := strconv.Atoi(strings.TrimSpace(raw))
		if convErr == nil {
			return n, nil
		}
		c.println("Please enter a valid integer.")
	}
}

// prompt returns io.EOF once the input is exhausted.
func (c *Console) prompt(msg string) (string, error) {
	for {
		fmt.Fprint(c.out, msg)
		line, err := c.in.ReadLine()
		if errors.Is(err, lineio.ErrLineTooLong) {
			c.printf("Input is longer than %d bytes, try again.\n", MaxInputBytes)
			continue
		}
		return line, err
	}
}

func (c *Console) println(s string) {
	fmt.Fprintln(c.out, s)
}

func (c *Console) printf(format string, args ...any) {
	fmt.Fprintf(c.out, format, args...)
}

// promptUntil asks until parse accepts the answer, printing each rejection.
func promptUntil[T any](c *Console, msg string, parse func(string) (T, error)) (T, error) {
	for {
		raw, err := c.prompt(msg)
		if err != nil {
			var zero T
			return zero, err
		}
		v, parseErr := parse(raw)
		if parseErr == nil {
			return v, nil
		}
		c.println(message(parseErr))
	}
}

func confirmed(answer string) bool {
	switch strings.ToLower(strings.TrimSpace(answer)) {
	case "y", "yes":
		return true
	}
	return false
}

// message renders err as a sentence for the screen.
func message(err error) string {
	s := capitalize(err.Error())
	if !strings.HasSuffix(s, ".") {
		s += "."
	}
	return s
}

func capitalize(s string) string {
	r, size := utf8.DecodeRuneInString(s)
	if r == utf8.RuneError {
		return s
	}
	return string(unicode.ToUpper(r)) + s[size:]
}
