package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/smallbiznis/payrelay/internal/account/domain"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type Params struct {
	fx.In

	DB   *gorm.DB
	Log  *zap.Logger
	Repo domain.Repository
}

type Service struct {
	db   *gorm.DB
	log  *zap.Logger
	repo domain.Repository
}

func New(p Params) domain.Service {
	return &Service{
		db:   p.DB,
		log:  p.Log.Named("account.service"),
		repo: p.Repo,
	}
}

func (s *Service) Lookup(ctx context.Context, accType domain.AccountType, accNo string) (*domain.Account, error) {
	if accType != domain.TypeCustomer && accType != domain.TypeVendor {
		return nil, domain.ErrInvalidType
	}
	accNo = strings.TrimSpace(accNo)
	if accNo == "" {
		return nil, domain.ErrInvalidAccNo
	}

	account, err := s.repo.FindByTypeAndNumber(ctx, s.db, accType, accNo)
	if err != nil {
		return nil, fmt.Errorf("account lookup: %w", err)
	}
	if account == nil {
		return nil, domain.ErrAccountNotFound
	}
	return account, nil
}
