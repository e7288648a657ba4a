// internal/domain/wallet/entity.go
package wallet

import (
	"errors"
	"time"

	"gorm.io/gorm"
)

// ErrInsufficientFunds is returned when a debit exceeds the wallet balance
var ErrInsufficientFunds = errors.New("insufficient wallet balance")

// TransactionType represents the direction of a wallet transaction
type TransactionType string

const (
	TransactionTypeCredit TransactionType = "credit"
	TransactionTypeDebit  TransactionType = "debit"
)

// Wallet holds a user's stored value balance in whole currency units
type Wallet struct {
	ID        uint           `gorm:"primaryKey" json:"id"`
	UserID    uint           `gorm:"uniqueIndex;not null" json:"user_id"`
	Balance   int64          `gorm:"not null;default:0" json:"balance"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`
}

// TableName overrides the table name
func (Wallet) TableName() string {
	return "wallets"
}

// CanCover reports whether the balance covers the given amount
func (w *Wallet) CanCover(amount int64) bool {
	return w.Balance >= amount
}

// Transaction is one ledger entry. BalanceAfter snapshots the wallet balance
// once the entry was applied, so the ledger is auditable without replay.
type Transaction struct {
	ID           uint            `gorm:"primaryKey" json:"id"`
	WalletID     uint            `gorm:"not null;index" json:"wallet_id"`
	UserID       uint            `gorm:"not null;index" json:"user_id"`
	Type         TransactionType `gorm:"not null" json:"type"`
	Amount       int64           `gorm:"not null" json:"amount"`
	BalanceAfter int64           `gorm:"not null" json:"balance_after"`
	Reference    string          `gorm:"index" json:"reference,omitempty"` // Order number or top-up reference
	Description  string          `json:"description,omitempty"`
	CreatedAt    time.Time       `json:"created_at"`
}

// TableName overrides the table name
func (Transaction) TableName() string {
	return "wallet_transactions"
}
