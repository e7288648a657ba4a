// internal/domain/cart/entity.go
package cart

import (
	"time"

	"github.com/plugng/commerce-backend/internal/domain/product"
	"gorm.io/gorm"
)

// LineKey identifies a cart line for merge and dedup purposes.
// VariantID 0 means "default/only variant".
type LineKey struct {
	ProductID uint
	VariantID uint
}

// KeyOf builds the line key from a product id and optional variant id
func KeyOf(productID uint, variantID *uint) LineKey {
	key := LineKey{ProductID: productID}
	if variantID != nil {
		key.VariantID = *variantID
	}
	return key
}

// WalletPromo is a time-bounded wallet-only discount descriptor inherited
// from the product when the line was added.
type WalletPromo struct {
	Percent int64     `json:"percent"`
	EndsAt  time.Time `json:"ends_at"`
}

// Active reports whether the promo still applies at now
func (w *WalletPromo) Active(now time.Time) bool {
	return w != nil && w.Percent > 0 && now.Before(w.EndsAt)
}

// Line is one cart row: a product/variant reference, a quantity and the unit
// price captured at add time. The same shape backs the local (device) cart,
// the remote cart and the sync payload.
type Line struct {
	ProductID       uint              `json:"product_id"`
	VariantID       *uint             `json:"variant_id,omitempty"`
	Quantity        int               `json:"quantity"`
	Price           int64             `json:"price"` // Captured at add time, whole currency units
	SelectedOptions product.OptionMap `json:"selected_options,omitempty"`
	WalletPromo     *WalletPromo      `json:"wallet_promo,omitempty"`
	AddedAt         time.Time         `json:"added_at"`
}

// Key returns the merge/dedup identity of the line
func (l Line) Key() LineKey {
	return KeyOf(l.ProductID, l.VariantID)
}

// CartItem represents a cart line stored in the database for authenticated users
type CartItem struct {
	ID                    uint              `gorm:"primaryKey" json:"id"`
	UserID                *uint             `gorm:"index" json:"user_id"`
	ProductID             uint              `gorm:"not null;index" json:"product_id"`
	ProductVariantID      *uint             `gorm:"index" json:"product_variant_id"`
	Quantity              int               `gorm:"not null;default:1" json:"quantity"`
	Price                 int64             `gorm:"not null" json:"price"` // Price at time of adding
	SelectedOptions       product.OptionMap `gorm:"type:text" json:"selected_options,omitempty"`
	WalletDiscountPercent int64             `gorm:"default:0" json:"wallet_discount_percent"`
	WalletDiscountEndsAt  *time.Time        `json:"wallet_discount_ends_at,omitempty"`
	CreatedAt             time.Time         `json:"created_at"`
	UpdatedAt             time.Time         `json:"updated_at"`
	DeletedAt             gorm.DeletedAt    `gorm:"index" json:"-"`
}

// TableName overrides the table name
func (CartItem) TableName() string {
	return "cart_items"
}

// Line converts the stored item to the shared line shape
func (i *CartItem) Line() Line {
	line := Line{
		ProductID:       i.ProductID,
		VariantID:       i.ProductVariantID,
		Quantity:        i.Quantity,
		Price:           i.Price,
		SelectedOptions: i.SelectedOptions,
		AddedAt:         i.CreatedAt,
	}
	if i.WalletDiscountPercent > 0 && i.WalletDiscountEndsAt != nil {
		line.WalletPromo = &WalletPromo{
			Percent: i.WalletDiscountPercent,
			EndsAt:  *i.WalletDiscountEndsAt,
		}
	}
	return line
}

// SessionCart represents a cart for anonymous sessions (stored in Redis)
type SessionCart struct {
	SessionID string    `json:"session_id"`
	Items     []Line    `json:"items"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
	ExpiresAt time.Time `json:"expires_at"`
}

// CartTotals represents calculated cart totals
type CartTotals struct {
	ItemCount     int   `json:"item_count"`     // Number of unique lines
	TotalQuantity int   `json:"total_quantity"` // Sum of all quantities
	SubTotal      int64 `json:"sub_total"`
}

// MergeLine folds a line into an ordered line list with dedup-by-key
// semantics: an existing line with the same key has its quantity incremented
// and its price refreshed, otherwise the line is appended. The input slice is
// returned mutated.
func MergeLine(lines []Line, add Line) []Line {
	key := add.Key()
	for i := range lines {
		if lines[i].Key() == key {
			lines[i].Quantity += add.Quantity
			lines[i].Price = add.Price // Refresh in case the price changed
			if add.SelectedOptions != nil {
				lines[i].SelectedOptions = add.SelectedOptions
			}
			if add.WalletPromo != nil {
				lines[i].WalletPromo = add.WalletPromo
			}
			return lines
		}
	}
	return append(lines, add)
}

// TotalsOf computes cart totals over a line list
func TotalsOf(lines []Line) CartTotals {
	totals := CartTotals{ItemCount: len(lines)}
	for _, line := range lines {
		totals.TotalQuantity += line.Quantity
		totals.SubTotal += line.Price * int64(line.Quantity)
	}
	return totals
}
