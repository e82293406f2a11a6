package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
	"gorm.io/datatypes"
)

// PaymentRequest is the durable record of one accepted payment instruction.
// RequestID and ReceivedAt are immutable after creation; Status and
// LastUpdated move only through settlement confirmations.
type PaymentRequest struct {
	RequestID   snowflake.ID  `json:"request_id" gorm:"column:request_id;primaryKey"`
	Reference   string        `json:"reference" gorm:"type:text;not null;uniqueIndex:ux_payment_requests_reference"`
	VendorID    string        `json:"vendor_id" gorm:"type:text;not null"`
	Amount      float64       `json:"amount" gorm:"not null"`
	Currency    string        `json:"currency" gorm:"type:text;not null"`
	CompanyCode string        `json:"company_code,omitempty" gorm:"type:text"`
	Status      RequestStatus `json:"status" gorm:"type:text;not null"`

	// Extended banking fields, pass-through only.
	PayerAccount      string `json:"payer_account,omitempty" gorm:"type:text"`
	PayerIFSC         string `json:"payer_ifsc,omitempty" gorm:"type:text"`
	VendorBankAccount string `json:"vendor_bank_account,omitempty" gorm:"type:text"`
	VendorIFSC        string `json:"vendor_ifsc,omitempty" gorm:"type:text"`
	CardNumber        string `json:"card_number,omitempty" gorm:"type:text"`
	DueDate           string `json:"due_date,omitempty" gorm:"type:text"`

	// UTR reported by the settlement confirmation, when one arrives.
	UTR string `json:"utr,omitempty" gorm:"column:utr;type:text"`

	// RawPayload is the verbatim inbound request, kept for audit/replay and
	// never parsed back.
	RawPayload datatypes.JSON `json:"raw_payload" gorm:"type:jsonb;not null"`

	ReceivedAt  time.Time `json:"received_at" gorm:"not null"`
	LastUpdated time.Time `json:"last_updated" gorm:"not null"`
}

func (PaymentRequest) TableName() string { return "payment_requests" }

type RequestStatus string

const (
	StatusInitiated RequestStatus = "INITIATED"
	StatusForwarded RequestStatus = "FORWARDED"
	StatusSettled   RequestStatus = "SETTLED"
	StatusFailed    RequestStatus = "FAILED"
)
