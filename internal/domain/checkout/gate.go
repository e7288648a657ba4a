// internal/domain/checkout/gate.go
package checkout

import "errors"

// PaymentMethod identifies how an order will be paid
type PaymentMethod string

const (
	PaymentMethodCard   PaymentMethod = "card"
	PaymentMethodWallet PaymentMethod = "wallet"
)

// ErrWalletBalanceTooLow is returned when a wallet payment cannot cover the
// order total.
var ErrWalletBalanceTooLow = errors.New("wallet balance does not cover order total")

// ErrUnknownPaymentMethod is returned for methods the gate does not recognize
var ErrUnknownPaymentMethod = errors.New("unknown payment method")

// Valid reports whether the method is one the platform accepts
func (m PaymentMethod) Valid() bool {
	return m == PaymentMethodCard || m == PaymentMethodWallet
}

// CanProceed decides whether checkout may move to submission.
//
// Card payments always pass: the card provider authorizes the charge on its
// own redirect flow. Wallet payments pass only when the stored balance covers
// the full total.
func CanProceed(total int64, method PaymentMethod, walletBalance int64) error {
	switch method {
	case PaymentMethodCard:
		return nil
	case PaymentMethodWallet:
		if walletBalance < total {
			return ErrWalletBalanceTooLow
		}
		return nil
	default:
		return ErrUnknownPaymentMethod
	}
}
