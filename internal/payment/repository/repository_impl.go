package repository

import (
	"context"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/payrelay/internal/payment/domain"
	"gorm.io/gorm"
)

type repo struct{}

func Provide() domain.Repository {
	return &repo{}
}

const selectColumns = `request_id, reference, vendor_id, amount, currency, company_code, status,
	payer_account, payer_ifsc, vendor_bank_account, vendor_ifsc, card_number, due_date,
	utr, raw_payload, received_at, last_updated`

func (r *repo) FindByReference(ctx context.Context, db *gorm.DB, reference string) (*domain.PaymentRequest, error) {
	var item domain.PaymentRequest
	err := db.WithContext(ctx).Raw(
		`SELECT `+selectColumns+`
		 FROM payment_requests
		 WHERE reference = ?
		 LIMIT 1`,
		reference,
	).Scan(&item).Error
	if err != nil {
		return nil, err
	}
	if item.RequestID == 0 {
		return nil, nil
	}
	return &item, nil
}

func (r *repo) FindByRequestID(ctx context.Context, db *gorm.DB, requestID snowflake.ID) (*domain.PaymentRequest, error) {
	var item domain.PaymentRequest
	err := db.WithContext(ctx).Raw(
		`SELECT `+selectColumns+`
		 FROM payment_requests
		 WHERE request_id = ?
		 LIMIT 1`,
		requestID,
	).Scan(&item).Error
	if err != nil {
		return nil, err
	}
	if item.RequestID == 0 {
		return nil, nil
	}
	return &item, nil
}

// insertStmt picks the duplicate-absorbing insert form per dialect. MySQL
// has no ON CONFLICT clause; INSERT IGNORE gives the same zero-rows-affected
// signal on a duplicate reference.
func insertStmt(dialect string) string {
	const columns = `(
			request_id, reference, vendor_id, amount, currency, company_code, status,
			payer_account, payer_ifsc, vendor_bank_account, vendor_ifsc, card_number, due_date,
			utr, raw_payload, received_at, last_updated
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`

	if dialect == "mysql" {
		return `INSERT IGNORE INTO payment_requests ` + columns
	}
	return `INSERT INTO payment_requests ` + columns + `
		ON CONFLICT (reference) DO NOTHING`
}

func (r *repo) Insert(ctx context.Context, db *gorm.DB, record *domain.PaymentRequest) (bool, error) {
	res := db.WithContext(ctx).Exec(
		insertStmt(db.Dialector.Name()),
		record.RequestID,
		record.Reference,
		record.VendorID,
		record.Amount,
		record.Currency,
		record.CompanyCode,
		record.Status,
		record.PayerAccount,
		record.PayerIFSC,
		record.VendorBankAccount,
		record.VendorIFSC,
		record.CardNumber,
		record.DueDate,
		record.UTR,
		record.RawPayload,
		record.ReceivedAt,
		record.LastUpdated,
	)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

func (r *repo) MarkForwarded(ctx context.Context, db *gorm.DB, requestID snowflake.ID, updatedAt time.Time) error {
	return db.WithContext(ctx).Exec(
		`UPDATE payment_requests
		 SET status = ?, last_updated = ?
		 WHERE request_id = ? AND status = ?`,
		domain.StatusForwarded,
		updatedAt,
		requestID,
		domain.StatusInitiated,
	).Error
}

func (r *repo) UpdateStatus(ctx context.Context, db *gorm.DB, requestID snowflake.ID, status domain.RequestStatus, utr string, updatedAt time.Time) error {
	return db.WithContext(ctx).Exec(
		`UPDATE payment_requests
		 SET status = ?, utr = ?, last_updated = ?
		 WHERE request_id = ?`,
		status,
		utr,
		updatedAt,
		requestID,
	).Error
}
