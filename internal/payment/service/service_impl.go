package service

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/payrelay/internal/clock"
	"github.com/smallbiznis/payrelay/internal/payment/domain"
	"github.com/smallbiznis/payrelay/pkg/db"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type Params struct {
	fx.In

	DB    *gorm.DB
	Log   *zap.Logger
	GenID *snowflake.Node
	Clock clock.Clock
	Repo  domain.Repository
}

type Service struct {
	db    *gorm.DB
	log   *zap.Logger
	genID *snowflake.Node
	clock clock.Clock
	repo  domain.Repository
}

func NewService(p Params) domain.Service {
	return &Service{
		db:    p.DB,
		log:   p.Log.Named("payment.service"),
		genID: p.GenID,
		clock: p.Clock,
		repo:  p.Repo,
	}
}

// Record implements exactly-once logical creation keyed by reference. The
// preceding lookup is the common-case fast path; the unique constraint on
// reference is the backstop for concurrent submissions, with a lost insert
// resolved by fetching the winner's row.
func (s *Service) Record(ctx context.Context, payload domain.SubmitPayment) (domain.RecordResult, error) {
	reference := strings.TrimSpace(payload.Reference)
	if reference == "" {
		return domain.RecordResult{}, domain.ErrInvalidReference
	}

	existing, err := s.repo.FindByReference(ctx, s.db, reference)
	if err != nil {
		return domain.RecordResult{}, classifyLookupErr(err)
	}
	if existing != nil {
		return domain.RecordResult{RequestID: existing.RequestID, Created: false}, nil
	}

	now := s.clock.Now()
	record := domain.PaymentRequest{
		RequestID:   s.genID.Generate(),
		Reference:   reference,
		VendorID:    strings.TrimSpace(payload.VendorID),
		Amount:      payload.Amount,
		Currency:    strings.ToUpper(strings.TrimSpace(payload.Currency)),
		CompanyCode: strings.TrimSpace(payload.CompanyCode),
		Status:      domain.StatusInitiated,

		PayerAccount:      payload.PayerAccount,
		PayerIFSC:         payload.PayerIFSC,
		VendorBankAccount: payload.VendorBankAccount,
		VendorIFSC:        payload.VendorIFSC,
		CardNumber:        payload.CardNumber,
		DueDate:           payload.DueDate,

		RawPayload:  datatypes.JSON(payload.RawPayload),
		ReceivedAt:  now,
		LastUpdated: now,
	}

	inserted, err := s.repo.Insert(ctx, s.db, &record)
	if err != nil {
		if db.IsDuplicateKeyErr(err) {
			inserted = false
		} else {
			return domain.RecordResult{}, classifyWriteErr(err)
		}
	}
	if inserted {
		return domain.RecordResult{RequestID: record.RequestID, Created: true}, nil
	}

	// A concurrent submission for the same reference won the insert.
	winner, err := s.repo.FindByReference(ctx, s.db, reference)
	if err != nil {
		return domain.RecordResult{}, classifyLookupErr(err)
	}
	if winner == nil {
		return domain.RecordResult{}, domain.ErrInsertFailed
	}

	s.log.Info("duplicate reference absorbed after insert race",
		zap.String("reference", reference),
		zap.String("request_id", winner.RequestID.String()),
	)
	return domain.RecordResult{RequestID: winner.RequestID, Created: false}, nil
}

func (s *Service) GetByRequestID(ctx context.Context, requestID string) (*domain.PaymentRequest, error) {
	raw, err := strconv.ParseInt(strings.TrimSpace(requestID), 10, 64)
	if err != nil || raw == 0 {
		return nil, domain.ErrInvalidRequestID
	}

	record, err := s.repo.FindByRequestID(ctx, s.db, snowflake.ID(raw))
	if err != nil {
		return nil, classifyLookupErr(err)
	}
	if record == nil {
		return nil, domain.ErrNotFound
	}
	return record, nil
}

// MarkForwarded stamps a freshly created record after the downstream
// integration endpoint acknowledged the payload. The transition applies only
// while the record is still INITIATED; a settlement confirmation that landed
// in the meantime is final and keeps its status and utr.
func (s *Service) MarkForwarded(ctx context.Context, requestID snowflake.ID) error {
	if requestID == 0 {
		return domain.ErrInvalidRequestID
	}
	if err := s.repo.MarkForwarded(ctx, s.db, requestID, s.clock.Now()); err != nil {
		return classifyWriteErr(err)
	}
	return nil
}

func (s *Service) ApplySettlement(ctx context.Context, confirmation domain.SettlementConfirmation) (*domain.PaymentRequest, error) {
	reference := strings.TrimSpace(confirmation.Reference)
	if reference == "" {
		return nil, domain.ErrInvalidReference
	}
	status, err := settlementStatus(confirmation.Status)
	if err != nil {
		return nil, err
	}

	record, err := s.repo.FindByReference(ctx, s.db, reference)
	if err != nil {
		return nil, classifyLookupErr(err)
	}
	if record == nil {
		return nil, domain.ErrNotFound
	}

	utr := strings.TrimSpace(confirmation.UTR)
	if utr == "" {
		utr = record.UTR
	}

	now := s.clock.Now()
	if err := s.repo.UpdateStatus(ctx, s.db, record.RequestID, status, utr, now); err != nil {
		return nil, classifyWriteErr(err)
	}

	record.Status = status
	record.UTR = utr
	record.LastUpdated = now
	return record, nil
}

func settlementStatus(raw string) (domain.RequestStatus, error) {
	switch strings.ToUpper(strings.TrimSpace(raw)) {
	case "SETTLED", "SUCCESS", "COMPLETED":
		return domain.StatusSettled, nil
	case "FAILED", "REJECTED":
		return domain.StatusFailed, nil
	default:
		return "", domain.ErrInvalidStatus
	}
}

// classifyLookupErr maps read failures onto the retryable taxonomy: a store
// that gave no answer, whatever the driver-level cause, must not be treated
// as "record absent".
func classifyLookupErr(err error) error {
	return fmt.Errorf("%w: %v", domain.ErrStoreUnavailable, err)
}

func classifyWriteErr(err error) error {
	if db.IsUnavailableErr(err) {
		return fmt.Errorf("%w: %v", domain.ErrStoreUnavailable, err)
	}
	return fmt.Errorf("%w: %v", domain.ErrInsertFailed, err)
}
