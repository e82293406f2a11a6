package domain

import (
	"context"
	"errors"

	"gorm.io/gorm"
)

type Repository interface {
	FindByTypeAndNumber(ctx context.Context, db *gorm.DB, accType AccountType, accNo string) (*Account, error)
}

type Service interface {
	Lookup(ctx context.Context, accType AccountType, accNo string) (*Account, error)
}

var (
	ErrInvalidType     = errors.New("invalid_account_type")
	ErrInvalidAccNo    = errors.New("invalid_acc_no")
	ErrAccountNotFound = errors.New("account_not_found")
)
