// internal/domain/wallet/service.go
package wallet

import (
	"fmt"

	"github.com/plugng/commerce-backend/internal/config"
	"gorm.io/gorm"
)

// Service handles wallet business logic
type Service struct {
	db     *gorm.DB
	config *config.Config
}

// NewService creates a new wallet service
func NewService(db *gorm.DB, cfg *config.Config) *Service {
	return &Service{
		db:     db,
		config: cfg,
	}
}

// TopUpRequest represents a wallet credit request
type TopUpRequest struct {
	Amount    int64  `json:"amount" binding:"required,min=1"`
	Reference string `json:"reference"`
}

// TransactionListRequest represents ledger listing parameters
type TransactionListRequest struct {
	Page  int `form:"page,default=1"`
	Limit int `form:"limit,default=20"`
}

// GetWallet returns the user's wallet, creating it on first access
func (s *Service) GetWallet(userID uint) (*Wallet, error) {
	return s.getOrCreate(s.db, userID)
}

// GetBalance returns the user's current wallet balance
func (s *Service) GetBalance(userID uint) (int64, error) {
	w, err := s.GetWallet(userID)
	if err != nil {
		return 0, err
	}
	return w.Balance, nil
}

// Credit adds funds to the user's wallet and records a ledger entry
func (s *Service) Credit(userID uint, amount int64, reference, description string) (*Wallet, error) {
	if amount <= 0 {
		return nil, fmt.Errorf("credit amount must be positive")
	}

	var w *Wallet
	err := s.db.Transaction(func(tx *gorm.DB) error {
		var err error
		w, err = s.getOrCreate(tx, userID)
		if err != nil {
			return err
		}

		w.Balance += amount
		if err := tx.Save(w).Error; err != nil {
			return fmt.Errorf("failed to update wallet balance: %w", err)
		}

		entry := &Transaction{
			WalletID:     w.ID,
			UserID:       userID,
			Type:         TransactionTypeCredit,
			Amount:       amount,
			BalanceAfter: w.Balance,
			Reference:    reference,
			Description:  description,
		}
		return tx.Create(entry).Error
	})
	if err != nil {
		return nil, err
	}
	return w, nil
}

// Debit removes funds from the user's wallet inside the caller's transaction.
// Order placement calls this so the debit commits or rolls back with the
// order itself.
func (s *Service) Debit(tx *gorm.DB, userID uint, amount int64, reference, description string) (*Wallet, error) {
	if amount <= 0 {
		return nil, fmt.Errorf("debit amount must be positive")
	}

	w, err := s.getOrCreate(tx, userID)
	if err != nil {
		return nil, err
	}

	if !w.CanCover(amount) {
		return nil, ErrInsufficientFunds
	}

	w.Balance -= amount
	if err := tx.Save(w).Error; err != nil {
		return nil, fmt.Errorf("failed to update wallet balance: %w", err)
	}

	entry := &Transaction{
		WalletID:     w.ID,
		UserID:       userID,
		Type:         TransactionTypeDebit,
		Amount:       amount,
		BalanceAfter: w.Balance,
		Reference:    reference,
		Description:  description,
	}
	if err := tx.Create(entry).Error; err != nil {
		return nil, fmt.Errorf("failed to record wallet transaction: %w", err)
	}

	return w, nil
}

// GetTransactions returns the user's ledger entries, newest first
func (s *Service) GetTransactions(userID uint, req *TransactionListRequest) ([]Transaction, int64, error) {
	if req.Page < 1 {
		req.Page = 1
	}
	if req.Limit < 1 || req.Limit > 100 {
		req.Limit = 20
	}

	var total int64
	query := s.db.Model(&Transaction{}).Where("user_id = ?", userID)
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to count wallet transactions: %w", err)
	}

	var entries []Transaction
	offset := (req.Page - 1) * req.Limit
	err := query.Order("created_at DESC, id DESC").Offset(offset).Limit(req.Limit).Find(&entries).Error
	if err != nil {
		return nil, 0, fmt.Errorf("failed to retrieve wallet transactions: %w", err)
	}

	return entries, total, nil
}

func (s *Service) getOrCreate(tx *gorm.DB, userID uint) (*Wallet, error) {
	var w Wallet
	result := tx.Where("user_id = ?", userID).First(&w)
	if result.Error == gorm.ErrRecordNotFound {
		w = Wallet{UserID: userID, Balance: 0}
		if err := tx.Create(&w).Error; err != nil {
			return nil, fmt.Errorf("failed to create wallet: %w", err)
		}
		return &w, nil
	}
	if result.Error != nil {
		return nil, fmt.Errorf("failed to retrieve wallet: %w", result.Error)
	}
	return &w, nil
}
