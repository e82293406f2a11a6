package domain

import (
	"context"
	"time"

	"github.com/bwmarrin/snowflake"
	"gorm.io/gorm"
)

type Repository interface {
	FindByReference(ctx context.Context, db *gorm.DB, reference string) (*PaymentRequest, error)
	FindByRequestID(ctx context.Context, db *gorm.DB, requestID snowflake.ID) (*PaymentRequest, error)
	// Insert writes the record unless its reference is already present.
	// Returns false without error when the unique constraint absorbed the
	// write, which is how a lost check-then-insert race surfaces.
	Insert(ctx context.Context, db *gorm.DB, record *PaymentRequest) (bool, error)
	UpdateStatus(ctx context.Context, db *gorm.DB, requestID snowflake.ID, status RequestStatus, utr string, updatedAt time.Time) error
	// MarkForwarded stamps FORWARDED on a record still in INITIATED state.
	// A record already moved by a settlement confirmation is left untouched,
	// and utr is never written by this transition.
	MarkForwarded(ctx context.Context, db *gorm.DB, requestID snowflake.ID, updatedAt time.Time) error
}
