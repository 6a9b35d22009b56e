package service

//go:generate mockgen -source=service.go -destination=mocks/mocks.go -package=mocks -exclude_interfaces=Records

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/suite"
	"go.uber.org/mock/gomock"

	"contractbook/internal/audit"
	"contractbook/internal/contract/metrics"
	"contractbook/internal/contract/models"
	"contractbook/internal/contract/service/mocks"
	"contractbook/internal/contract/store"
	dErrors "contractbook/pkg/domain-errors"
	"contractbook/pkg/requestcontext"
)

// =============================================================================
// Contract Service Test Suite
// =============================================================================
// Justification for unit tests: the service owns the write-after-every-mutation
// rule, the soft date validation on edit and the translation of store facts
// into domain errors. Persistence and audit are mocked so each rule is pinned.

type ServiceSuite struct {
	suite.Suite
	ctrl          *gomock.Controller
	mockPersister *mocks.MockPersister
	mockAudit     *mocks.MockAuditPublisher
	records       *store.Collection
	metrics       *metrics.Metrics
	service       *Service
	ctx           context.Context
	sessionID     uuid.UUID
	now           time.Time
}

func TestServiceSuite(t *testing.T) {
	suite.Run(t, new(ServiceSuite))
}

func (s *ServiceSuite) SetupTest() {
	s.ctrl = gomock.NewController(s.T())
	s.mockPersister = mocks.NewMockPersister(s.ctrl)
	s.mockAudit = mocks.NewMockAuditPublisher(s.ctrl)
	s.records = store.NewCollection()
	s.metrics = metrics.New()
	s.sessionID = uuid.New()
	s.now = time.Date(2024, 6, 1, 9, 30, 0, 0, time.UTC)
	s.ctx = requestcontext.WithTime(requestcontext.WithSessionID(context.Background(), s.sessionID), s.now)

	var err error
	s.service, err = New(
		s.records,
		s.mockPersister,
		WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil))),
		WithAuditPublisher(s.mockAudit),
		WithMetrics(s.metrics),
	)
	s.Require().NoError(err)
}

func (s *ServiceSuite) TearDownTest() {
	s.ctrl.Finish()
}

func validCreateRequest() *models.CreateContractRequest {
	return &models.CreateContractRequest{
		ContractingParty: "Maria Silva",
		ContractedParty:  "João Souza",
		Number:           "CT-001",
		Description:      "Consultoria 2024",
		TaxID:            "529.982.247-25",
		SigningDate:      "01/01/2024",
		StartDate:        "01/02/2024",
		EndDate:          "01/03/2024",
		Value:            "1500.00",
	}
}

const createdLine = "1|Maria Silva|João Souza|529.982.247-25|CT-001|R$ 1.500,00|01/01/2024|01/02/2024|01/03/2024|Consultoria 2024"

func (s *ServiceSuite) auditEvent(action audit.Action, contractID int, detail string) audit.Event {
	return audit.Event{
		Timestamp:  s.now,
		SessionID:  s.sessionID,
		Action:     action,
		ContractID: contractID,
		Detail:     detail,
	}
}

// seed stores a contract directly in the collection, bypassing persistence.
func (s *ServiceSuite) seed() *models.Contract {
	fields, err := validCreateRequest().Parse()
	s.Require().NoError(err)
	c, err := models.NewContract(0, fields)
	s.Require().NoError(err)
	stored, err := s.records.Insert(s.ctx, c)
	s.Require().NoError(err)
	return stored
}

func str(v string) *string { return &v }

// =============================================================================
// Constructor Tests
// =============================================================================

func (s *ServiceSuite) TestNew() {
	s.Run("nil records returns error", func() {
		_, err := New(nil, s.mockPersister)
		s.Require().Error(err)
		s.Contains(err.Error(), "records store is required")
	})

	s.Run("nil persister returns error", func() {
		_, err := New(s.records, nil)
		s.Require().Error(err)
		s.Contains(err.Error(), "persister is required")
	})

	s.Run("with options applies options", func() {
		logger := slog.New(slog.NewTextHandler(io.Discard, nil))
		svc, err := New(s.records, s.mockPersister, WithLogger(logger), WithAuditPublisher(s.mockAudit), WithMetrics(s.metrics))
		s.Require().NoError(err)
		s.Equal(logger, svc.logger)
		s.Equal(s.mockAudit, svc.auditPublisher)
		s.Equal(s.metrics, svc.metrics)
	})
}

// =============================================================================
// Load
// =============================================================================

func (s *ServiceSuite) TestLoad() {
	s.Run("seeds next id from the highest stored id", func() {
		c1 := s.seed()
		c1.ID = 3
		c2 := c1.Clone()
		c2.ID = 7
		s.mockPersister.EXPECT().Load(gomock.Any()).Return(&store.LoadResult{
			Contracts: []*models.Contract{c1, c2},
			MaxID:     7,
		}, nil)

		res, err := s.service.Load(s.ctx)
		s.Require().NoError(err)
		s.Len(res.Contracts, 2)
		s.Len(s.service.List(s.ctx), 2)
		s.Equal(8, s.records.NextID())
		s.Equal(2.0, testutil.ToFloat64(s.metrics.ContractsInCollection))
	})

	s.Run("skipped lines are counted", func() {
		s.mockPersister.EXPECT().Load(gomock.Any()).Return(&store.LoadResult{
			Skipped: []store.LineError{{Line: 2, Err: errors.New("bad date")}},
		}, nil)

		res, err := s.service.Load(s.ctx)
		s.Require().NoError(err)
		s.Len(res.Skipped, 1)
		s.Equal(1.0, testutil.ToFloat64(s.metrics.LoadLinesSkipped))
		s.Equal(1, s.records.NextID())
	})

	s.Run("read failure keeps partial data", func() {
		partial := s.seed()
		partial.ID = 4
		s.mockPersister.EXPECT().Load(gomock.Any()).Return(&store.LoadResult{
			Contracts: []*models.Contract{partial},
			MaxID:     4,
		}, errors.New("read error"))

		res, err := s.service.Load(s.ctx)
		s.Require().Error(err)
		s.True(dErrors.HasCode(err, dErrors.CodeUnavailable))
		s.Len(res.Contracts, 1)
		s.Equal(5, s.records.NextID())
		s.Equal(1.0, testutil.ToFloat64(s.metrics.PersistenceFailures.WithLabelValues("load")))
	})
}

// =============================================================================
// Create
// =============================================================================

func (s *ServiceSuite) TestCreate() {
	s.Run("first contract gets id 1 and is persisted", func() {
		s.mockPersister.EXPECT().Save(gomock.Any(), gomock.Any()).DoAndReturn(
			func(_ context.Context, contracts []*models.Contract) error {
				s.Require().Len(contracts, 1)
				s.Equal(createdLine, contracts[0].Line())
				return nil
			})
		s.mockAudit.EXPECT().Emit(gomock.Any(), s.auditEvent(audit.ActionContractCreated, 1, "")).Return(nil)

		res, err := s.service.Create(s.ctx, validCreateRequest())
		s.Require().NoError(err)
		s.NoError(res.PersistErr)
		s.Equal(1, res.Contract.ID)
		s.Equal(1.0, testutil.ToFloat64(s.metrics.ContractsCreated))
	})

	s.Run("invalid request is rejected without persisting", func() {
		req := validCreateRequest()
		req.ContractingParty = "Maria 2"

		_, err := s.service.Create(s.ctx, req)
		s.Require().Error(err)
		s.True(dErrors.HasCode(err, dErrors.CodeValidation))
	})

	s.Run("inconsistent dates are rejected", func() {
		req := validCreateRequest()
		req.SigningDate, req.StartDate, req.EndDate = "10/01/2024", "05/01/2024", "01/01/2024"

		_, err := s.service.Create(s.ctx, req)
		s.Require().Error(err)
		s.Contains(err.Error(), "signing date")
	})

	s.Run("nil request is rejected", func() {
		_, err := s.service.Create(s.ctx, nil)
		s.Require().ErrorIs(err, models.ErrInvalidRequest)
	})

	s.Run("save failure keeps the contract in memory", func() {
		s.mockPersister.EXPECT().Save(gomock.Any(), gomock.Any()).Return(errors.New("disk full"))
		s.mockAudit.EXPECT().Emit(gomock.Any(), gomock.Any()).Return(nil)

		res, err := s.service.Create(s.ctx, validCreateRequest())
		s.Require().NoError(err)
		s.Require().Error(res.PersistErr)
		s.True(dErrors.HasCode(res.PersistErr, dErrors.CodeUnavailable))
		s.Equal(2, res.Contract.ID)
		s.Len(s.service.List(s.ctx), 2)
		s.Equal(1.0, testutil.ToFloat64(s.metrics.PersistenceFailures.WithLabelValues("save")))
	})

	s.Run("audit failure does not fail the create", func() {
		s.mockPersister.EXPECT().Save(gomock.Any(), gomock.Any()).Return(nil)
		s.mockAudit.EXPECT().Emit(gomock.Any(), gomock.Any()).Return(errors.New("audit down"))

		res, err := s.service.Create(s.ctx, validCreateRequest())
		s.Require().NoError(err)
		s.Equal(3, res.Contract.ID)
	})
}

func (s *ServiceSuite) TestCreateValueBoundaries() {
	s.Run("amounts that round to zero are rejected", func() {
		req := validCreateRequest()
		req.Value = "0.004"

		_, err := s.service.Create(s.ctx, req)
		s.Require().Error(err)
		s.True(dErrors.HasCode(err, dErrors.CodeValidation))
		s.Empty(s.service.List(s.ctx))
	})

	s.Run("exponent and oversized amounts are rejected", func() {
		for _, raw := range []string{"1e1000000", "15E2", "123456789012345"} {
			req := validCreateRequest()
			req.Value = raw

			_, err := s.service.Create(s.ctx, req)
			s.Require().Error(err, raw)
		}
		s.Empty(s.service.List(s.ctx))
	})

	s.Run("sub-cent digits are rounded before storing", func() {
		s.mockPersister.EXPECT().Save(gomock.Any(), gomock.Any()).DoAndReturn(
			func(_ context.Context, contracts []*models.Contract) error {
				s.Require().Len(contracts, 1)
				s.Equal(createdLine, contracts[0].Line())
				return nil
			})
		s.mockAudit.EXPECT().Emit(gomock.Any(), gomock.Any()).Return(nil)

		req := validCreateRequest()
		req.Value = "1500.005"
		res, err := s.service.Create(s.ctx, req)
		s.Require().NoError(err)

		stored, err := s.service.Get(s.ctx, res.Contract.ID)
		s.Require().NoError(err)
		s.Equal("1500", stored.Value.String())
	})
}

// =============================================================================
// Get
// =============================================================================

func (s *ServiceSuite) TestGet() {
	seeded := s.seed()

	s.Run("finds existing contract", func() {
		c, err := s.service.Get(s.ctx, seeded.ID)
		s.Require().NoError(err)
		s.Equal(seeded.Line(), c.Line())
	})

	s.Run("unknown id is not_found", func() {
		_, err := s.service.Get(s.ctx, 99)
		s.Require().Error(err)
		s.True(dErrors.HasCode(err, dErrors.CodeNotFound))
		s.Equal("contract with ID 99 not found", err.Error())
	})
}

// =============================================================================
// Update
// =============================================================================

func (s *ServiceSuite) TestUpdate() {
	s.Run("editing only the value re-persists the otherwise unchanged record", func() {
		seeded := s.seed()
		s.mockPersister.EXPECT().Save(gomock.Any(), gomock.Any()).DoAndReturn(
			func(_ context.Context, contracts []*models.Contract) error {
				s.Require().Len(contracts, 1)
				s.Equal("1|Maria Silva|João Souza|529.982.247-25|CT-001|R$ 2.000,00|01/01/2024|01/02/2024|01/03/2024|Consultoria 2024", contracts[0].Line())
				return nil
			})
		s.mockAudit.EXPECT().Emit(gomock.Any(), s.auditEvent(audit.ActionContractUpdated, seeded.ID, "")).Return(nil)

		res, err := s.service.Update(s.ctx, seeded.ID, &models.UpdateContractRequest{Value: str("2000")})
		s.Require().NoError(err)
		s.NoError(res.PersistErr)
		s.Empty(res.Rejected)
		s.False(res.DatesInconsistent)
		s.Equal(1.0, testutil.ToFloat64(s.metrics.ContractsUpdated))
	})

	s.Run("inconsistent dates are a warning and still committed", func() {
		s.records.Reset(s.ctx, nil)
		seeded := s.seed()
		s.mockPersister.EXPECT().Save(gomock.Any(), gomock.Any()).Return(nil)
		s.mockAudit.EXPECT().Emit(gomock.Any(), s.auditEvent(audit.ActionContractUpdated, seeded.ID, "dates inconsistent")).Return(nil)

		res, err := s.service.Update(s.ctx, seeded.ID, &models.UpdateContractRequest{EndDate: str("01/12/2023")})
		s.Require().NoError(err)
		s.True(res.DatesInconsistent)

		stored, err := s.service.Get(s.ctx, seeded.ID)
		s.Require().NoError(err)
		s.Equal("01/12/2023", models.FormatDate(stored.EndDate))
		s.Equal(1.0, testutil.ToFloat64(s.metrics.InconsistentEdits))
	})

	s.Run("invalid fields are reported and left unchanged", func() {
		s.records.Reset(s.ctx, nil)
		seeded := s.seed()
		s.mockPersister.EXPECT().Save(gomock.Any(), gomock.Any()).Return(nil)
		s.mockAudit.EXPECT().Emit(gomock.Any(), gomock.Any()).Return(nil)

		res, err := s.service.Update(s.ctx, seeded.ID, &models.UpdateContractRequest{
			TaxID:  str("000.000.000-00"),
			Number: str("CT-002"),
		})
		s.Require().NoError(err)
		s.Require().Len(res.Rejected, 1)
		s.Equal(models.FieldTaxID, res.Rejected[0].Field)
		s.Equal("CT-002", res.Contract.Number)
		s.Equal(seeded.TaxID, res.Contract.TaxID)
	})

	s.Run("empty edit still re-persists", func() {
		s.records.Reset(s.ctx, nil)
		seeded := s.seed()
		s.mockPersister.EXPECT().Save(gomock.Any(), gomock.Any()).Return(nil)
		s.mockAudit.EXPECT().Emit(gomock.Any(), gomock.Any()).Return(nil)

		res, err := s.service.Update(s.ctx, seeded.ID, &models.UpdateContractRequest{})
		s.Require().NoError(err)
		s.Equal(seeded.Line(), res.Contract.Line())
	})

	s.Run("unknown id is not_found", func() {
		_, err := s.service.Update(s.ctx, 404, &models.UpdateContractRequest{})
		s.Require().Error(err)
		s.True(dErrors.HasCode(err, dErrors.CodeNotFound))
	})
}

// =============================================================================
// Delete
// =============================================================================

func (s *ServiceSuite) TestDelete() {
	s.Run("removes the contract and rewrites the file", func() {
		seeded := s.seed()
		s.mockPersister.EXPECT().Save(gomock.Any(), gomock.Len(0)).Return(nil)
		s.mockAudit.EXPECT().Emit(gomock.Any(), s.auditEvent(audit.ActionContractDeleted, seeded.ID, "")).Return(nil)

		res, err := s.service.Delete(s.ctx, seeded.ID)
		s.Require().NoError(err)
		s.Equal(seeded.ID, res.Contract.ID)
		s.Empty(s.service.List(s.ctx))
		s.Equal(1.0, testutil.ToFloat64(s.metrics.ContractsDeleted))
	})

	s.Run("deleted ids are not reused", func() {
		s.mockPersister.EXPECT().Save(gomock.Any(), gomock.Any()).Return(nil)
		s.mockAudit.EXPECT().Emit(gomock.Any(), gomock.Any()).Return(nil)

		res, err := s.service.Create(s.ctx, validCreateRequest())
		s.Require().NoError(err)
		s.Equal(2, res.Contract.ID)
	})

	s.Run("unknown id is not_found", func() {
		_, err := s.service.Delete(s.ctx, 404)
		s.Require().Error(err)
		s.True(dErrors.HasCode(err, dErrors.CodeNotFound))
	})
}
