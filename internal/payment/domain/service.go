package domain

import (
	"context"
	"errors"

	"github.com/bwmarrin/snowflake"
)

// SubmitPayment is a payment instruction that already passed the HTTP
// boundary's field-presence and amount checks.
type SubmitPayment struct {
	Reference   string
	VendorID    string
	Amount      float64
	Currency    string
	CompanyCode string

	PayerAccount      string
	PayerIFSC         string
	VendorBankAccount string
	VendorIFSC        string
	CardNumber        string
	DueDate           string

	// RawPayload is the inbound request body, stored verbatim.
	RawPayload []byte
}

// RecordResult reports the identifier assigned to a reference. Created is
// false when the reference had been seen before; the id is then the
// original submission's.
type RecordResult struct {
	RequestID snowflake.ID
	Created   bool
}

// SettlementConfirmation is the downstream system's report on a previously
// relayed payment.
type SettlementConfirmation struct {
	Reference string
	Status    string
	UTR       string
}

type Service interface {
	// Record persists the payment exactly once per reference. Repeated
	// submissions for a seen reference return the same RequestID with
	// Created=false and write nothing.
	Record(ctx context.Context, payload SubmitPayment) (RecordResult, error)
	GetByRequestID(ctx context.Context, requestID string) (*PaymentRequest, error)
	MarkForwarded(ctx context.Context, requestID snowflake.ID) error
	ApplySettlement(ctx context.Context, confirmation SettlementConfirmation) (*PaymentRequest, error)
}

var (
	// ErrStoreUnavailable covers connection and timeout failures; nothing
	// was written and the caller may retry the whole submission.
	ErrStoreUnavailable = errors.New("store_unavailable")
	// ErrInsertFailed covers write failures after a successful lookup; the
	// caller must not assume a record exists.
	ErrInsertFailed = errors.New("insert_failed")
	ErrNotFound     = errors.New("not_found")

	ErrInvalidReference = errors.New("invalid_reference")
	ErrInvalidRequestID = errors.New("invalid_request_id")
	ErrInvalidStatus    = errors.New("invalid_status")
)
