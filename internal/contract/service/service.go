package service

import (
	"context"
	"errors"
	"log/slog"
	"strconv"
	"time"

	"contractbook/internal/audit"
	"contractbook/internal/contract/metrics"
	"contractbook/internal/contract/models"
	"contractbook/internal/contract/store"
	dErrors "contractbook/pkg/domain-errors"
	"contractbook/pkg/platform/sentinel"
	"contractbook/pkg/requestcontext"
)

// Records is the in-memory collection the service mutates.
type Records interface {
	Reset(ctx context.Context, contracts []*models.Contract)
	Insert(ctx context.Context, contract *models.Contract) (*models.Contract, error)
	FindByID(ctx context.Context, id int) (*models.Contract, error)
	Update(ctx context.Context, contract *models.Contract) error
	Delete(ctx context.Context, id int) error
	List(ctx context.Context) []*models.Contract
	NextID() int
}

// Persister reads the data file at startup and rewrites it after mutations.
type Persister interface {
	Load(ctx context.Context) (*store.LoadResult, error)
	Save(ctx context.Context, contracts []*models.Contract) error
}

type AuditPublisher interface {
	Emit(ctx context.Context, base audit.Event) error
}

// MutationResult describes a committed change. PersistErr is set when the
// in-memory change succeeded but the data file could not be rewritten; the
// change is kept either way.
type MutationResult struct {
	Contract   *models.Contract
	PersistErr error
}

// UpdateResult adds the per-field outcome of an edit.
type UpdateResult struct {
	MutationResult
	// Rejected lists fields left unchanged because their new value was invalid.
	Rejected []models.FieldError
	// DatesInconsistent is set when the committed contract breaks a date rule.
	DatesInconsistent bool
}

// Service orchestrates contract management over the collection and the data file.
type Service struct {
	records        Records
	persister      Persister
	logger         *slog.Logger
	auditPublisher AuditPublisher
	metrics        *metrics.Metrics
}

type Option func(s *Service)

func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) {
		s.logger = logger
	}
}

func WithAuditPublisher(publisher AuditPublisher) Option {
	return func(s *Service) {
		s.auditPublisher = publisher
	}
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Service) {
		s.metrics = m
	}
}

// New constructs a Service.
func New(records Records, persister Persister, opts ...Option) (*Service, error) {
	if records == nil {
		return nil, errors.New("records store is required")
	}
	if persister == nil {
		return nil, errors.New("persister is required")
	}
	s := &Service{records: records, persister: persister}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// Load fills the collection from the data file. Skipped lines are logged and
// returned; an I/O failure keeps whatever was read before it and is returned
// as an unavailable error.
func (s *Service) Load(ctx context.Context) (*store.LoadResult, error) {
	res, err := s.persister.Load(ctx)
	if res == nil {
		res = &store.LoadResult{}
	}
	s.records.Reset(ctx, res.Contracts)
	s.setCollectionSize(len(res.Contracts))

	for _, skipped := range res.Skipped {
		s.logWarn(ctx, "skipped malformed contract line", "line", skipped.Line, "error", skipped.Err)
	}
	if s.metrics != nil && len(res.Skipped) > 0 {
		s.metrics.AddSkippedLines(len(res.Skipped))
	}
	if err != nil {
		s.incrementPersistenceFailure("load")
		s.logWarn(ctx, "failed to load contracts", "error", err, "loaded", len(res.Contracts))
		return res, dErrors.Wrap(err, dErrors.CodeUnavailable, "failed to load contracts")
	}
	s.logInfo(ctx, "contracts loaded", "count", len(res.Contracts), "next_id", s.records.NextID())
	return res, nil
}

// Create validates req, stores the contract under the next id and rewrites
// the data file.
func (s *Service) Create(ctx context.Context, req *models.CreateContractRequest) (*MutationResult, error) {
	if req == nil {
		return nil, models.ErrInvalidRequest
	}
	fields, err := req.Parse()
	if err != nil {
		return nil, err
	}
	c, err := models.NewContract(0, fields)
	if err != nil {
		if dErrors.HasCode(err, dErrors.CodeInvariantViolation) {
			return nil, dErrors.New(dErrors.CodeValidation, err.Error())
		}
		return nil, err
	}

	stored, err := s.records.Insert(ctx, c)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to store contract")
	}
	result := &MutationResult{Contract: stored, PersistErr: s.persist(ctx)}

	s.logAudit(ctx, audit.ActionContractCreated, stored.ID, "")
	if s.metrics != nil {
		s.metrics.IncrementCreated()
	}
	return result, nil
}

// List returns every contract in collection order.
func (s *Service) List(ctx context.Context) []*models.Contract {
	return s.records.List(ctx)
}

// Get finds a contract by id.
func (s *Service) Get(ctx context.Context, contractID int) (*models.Contract, error) {
	c, err := s.records.FindByID(ctx, contractID)
	if err != nil {
		return nil, s.lookupError(contractID, err)
	}
	return c, nil
}

// Update applies req field by field. Invalid fields keep their current value
// and are reported in Rejected. Inconsistent dates are reported but the edit
// is still committed and persisted, even when every field was left blank.
func (s *Service) Update(ctx context.Context, contractID int, req *models.UpdateContractRequest) (*UpdateResult, error) {
	if req == nil {
		return nil, models.ErrInvalidRequest
	}
	c, err := s.records.FindByID(ctx, contractID)
	if err != nil {
		return nil, s.lookupError(contractID, err)
	}

	rejected := req.ApplyTo(c)
	if err := s.records.Update(ctx, c); err != nil {
		return nil, s.lookupError(contractID, err)
	}
	result := &UpdateResult{
		MutationResult:    MutationResult{Contract: c, PersistErr: s.persist(ctx)},
		Rejected:          rejected,
		DatesInconsistent: !c.DatesConsistent(),
	}

	for _, fe := range rejected {
		s.logInfo(ctx, "contract field left unchanged", "contract_id", contractID, "field", fe.Field, "error", fe.Err)
	}
	detail := ""
	if result.DatesInconsistent {
		detail = "dates inconsistent"
		s.logWarn(ctx, "contract dates inconsistent after edit", "contract_id", contractID)
		if s.metrics != nil {
			s.metrics.IncrementInconsistentEdit()
		}
	}
	s.logAudit(ctx, audit.ActionContractUpdated, contractID, detail)
	if s.metrics != nil {
		s.metrics.IncrementUpdated()
	}
	return result, nil
}

// Delete removes a contract. Its id is not handed out again in this process.
func (s *Service) Delete(ctx context.Context, contractID int) (*MutationResult, error) {
	c, err := s.records.FindByID(ctx, contractID)
	if err != nil {
		return nil, s.lookupError(contractID, err)
	}
	if err := s.records.Delete(ctx, contractID); err != nil {
		return nil, s.lookupError(contractID, err)
	}
	result := &MutationResult{Contract: c, PersistErr: s.persist(ctx)}

	s.logAudit(ctx, audit.ActionContractDeleted, contractID, "")
	if s.metrics != nil {
		s.metrics.IncrementDeleted()
	}
	return result, nil
}

// persist rewrites the data file from the collection. Failures are logged,
// counted and returned for the caller to report; memory is never rolled back.
func (s *Service) persist(ctx context.Context) error {
	start := time.Now()
	contracts := s.records.List(ctx)
	s.setCollectionSize(len(contracts))
	err := s.persister.Save(ctx, contracts)
	if s.metrics != nil {
		s.metrics.ObserveSave(start)
	}
	if err != nil {
		s.incrementPersistenceFailure("save")
		s.logWarn(ctx, "failed to save contracts", "error", err)
		return dErrors.Wrap(err, dErrors.CodeUnavailable, "failed to save contracts")
	}
	return nil
}

func (s *Service) lookupError(contractID int, err error) error {
	if errors.Is(err, sentinel.ErrNotFound) {
		return dErrors.New(dErrors.CodeNotFound, "contract with ID "+strconv.Itoa(contractID)+" not found")
	}
	return dErrors.Wrap(err, dErrors.CodeInternal, "failed to load contract")
}

func (s *Service) logAudit(ctx context.Context, action audit.Action, contractID int, detail string) {
	sessionID := requestcontext.SessionID(ctx)
	if s.logger != nil {
		s.logger.InfoContext(ctx, string(action),
			"contract_id", contractID,
			"session_id", sessionID,
			"event", string(action),
			"log_type", "audit",
		)
	}
	if s.auditPublisher == nil {
		return
	}
	if err := s.auditPublisher.Emit(ctx, audit.Event{
		Timestamp:  requestcontext.Now(ctx),
		SessionID:  sessionID,
		Action:     action,
		ContractID: contractID,
		Detail:     detail,
	}); err != nil {
		s.logWarn(ctx, "failed to record audit event", "event", string(action), "error", err)
	}
}

func (s *Service) logInfo(ctx context.Context, msg string, args ...any) {
	if s.logger != nil {
		s.logger.InfoContext(ctx, msg, args...)
	}
}

func (s *Service) logWarn(ctx context.Context, msg string, args ...any) {
	if s.logger != nil {
		s.logger.WarnContext(ctx, msg, args...)
	}
}

func (s *Service) incrementPersistenceFailure(operation string) {
	if s.metrics != nil {
		s.metrics.IncrementPersistenceFailure(operation)
	}
}

func (s *Service) setCollectionSize(n int) {
	if s.metrics != nil {
		s.metrics.SetContracts(n)
	}
}
