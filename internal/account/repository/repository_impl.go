package repository

import (
	"context"

	"github.com/smallbiznis/payrelay/internal/account/domain"
	"gorm.io/gorm"
)

type repo struct{}

func Provide() domain.Repository {
	return &repo{}
}

func (r *repo) FindByTypeAndNumber(ctx context.Context, db *gorm.DB, accType domain.AccountType, accNo string) (*domain.Account, error) {
	var item domain.Account
	err := db.WithContext(ctx).Raw(
		`SELECT id, type, acc_no, holder_name, bank_name, ifsc, currency, created_at, updated_at
		 FROM accounts
		 WHERE type = ? AND acc_no = ?
		 LIMIT 1`,
		accType,
		accNo,
	).Scan(&item).Error
	if err != nil {
		return nil, err
	}
	if item.ID == 0 {
		return nil, nil
	}
	return &item, nil
}
