package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
)

// Account is a bank account known to the relay, either a paying customer's
// or a payee vendor's. One table with a type column replaces the original
// pair of near-identical tables.
type Account struct {
	ID         snowflake.ID `json:"id" gorm:"primaryKey"`
	Type       AccountType  `json:"type" gorm:"type:text;not null;uniqueIndex:ux_accounts_type_acc_no"`
	AccNo      string       `json:"acc_no" gorm:"column:acc_no;type:text;not null;uniqueIndex:ux_accounts_type_acc_no"`
	HolderName string       `json:"holder_name" gorm:"type:text;not null"`
	BankName   string       `json:"bank_name,omitempty" gorm:"type:text"`
	IFSC       string       `json:"ifsc,omitempty" gorm:"column:ifsc;type:text"`
	Currency   string       `json:"currency,omitempty" gorm:"type:text"`
	CreatedAt  time.Time    `json:"created_at" gorm:"not null"`
	UpdatedAt  time.Time    `json:"updated_at" gorm:"not null"`
}

func (Account) TableName() string { return "accounts" }

type AccountType string

const (
	TypeCustomer AccountType = "customer"
	TypeVendor   AccountType = "vendor"
)

// ParseAccountType validates the path segment used by the lookup endpoint.
func ParseAccountType(raw string) (AccountType, bool) {
	switch AccountType(raw) {
	case TypeCustomer:
		return TypeCustomer, true
	case TypeVendor:
		return TypeVendor, true
	default:
		return "", false
	}
}
