// internal/domain/product/entity.go
package product

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"

	"gorm.io/gorm"
)

// OptionMap holds one option value per declared axis, stored as a JSON column.
// Keys are axis names ("Color"), values are the chosen option value ("Black").
type OptionMap map[string]string

// Value implements driver.Valuer for GORM
func (m OptionMap) Value() (driver.Value, error) {
	if m == nil {
		return "{}", nil
	}
	data, err := json.Marshal(m)
	if err != nil {
		return nil, err
	}
	return string(data), nil
}

// Scan implements sql.Scanner for GORM
func (m *OptionMap) Scan(value interface{}) error {
	if value == nil {
		*m = OptionMap{}
		return nil
	}
	switch v := value.(type) {
	case []byte:
		return json.Unmarshal(v, m)
	case string:
		return json.Unmarshal([]byte(v), m)
	default:
		return fmt.Errorf("unsupported type for OptionMap: %T", value)
	}
}

// Equal reports whether two attribute maps carry the same axis/value pairs.
// Key order is irrelevant.
func (m OptionMap) Equal(other OptionMap) bool {
	if len(m) != len(other) {
		return false
	}
	for axis, value := range m {
		if other[axis] != value {
			return false
		}
	}
	return true
}

// Product represents the product entity
type Product struct {
	ID                uint           `gorm:"primaryKey" json:"id"`
	SKU               string         `gorm:"uniqueIndex;not null;size:100" json:"sku"`
	Name              string         `gorm:"not null;size:255" json:"name"`
	Slug              string         `gorm:"uniqueIndex;not null;size:255" json:"slug"`
	Description       string         `gorm:"type:text" json:"description"`
	ShortDesc         string         `gorm:"size:500" json:"short_description"`
	Price             int64          `gorm:"not null" json:"price"` // Whole currency units
	ComparePrice      int64          `json:"compare_price"`
	CostPrice         int64          `json:"cost_price"`
	CategoryID        uint           `gorm:"not null;index" json:"category_id"`
	BrandID           *uint          `gorm:"index" json:"brand_id"`
	IsActive          bool           `gorm:"default:true" json:"is_active"`
	IsFeatured        bool           `gorm:"default:false" json:"is_featured"`
	TrackQuantity     bool           `gorm:"default:true" json:"track_quantity"`
	Quantity          int            `gorm:"default:0" json:"quantity"`
	LowStockThreshold int            `gorm:"default:5" json:"low_stock_threshold"`
	Tags              string         `gorm:"size:500" json:"tags"` // Comma-separated tags

	// Wallet-only promotional discount, time bounded. Inherited by cart line
	// items when the product is added and honored while EndsAt is in the future.
	WalletDiscountPercent int64      `gorm:"default:0" json:"wallet_discount_percent"`
	WalletDiscountEndsAt  *time.Time `json:"wallet_discount_ends_at,omitempty"`

	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`

	// Relationships
	Category Category         `gorm:"foreignKey:CategoryID;constraint:OnUpdate:CASCADE,OnDelete:RESTRICT;" json:"category"`
	Brand    *Brand           `gorm:"foreignKey:BrandID;constraint:OnUpdate:CASCADE,OnDelete:SET NULL;" json:"brand,omitempty"`
	Images   []ProductImage   `gorm:"foreignKey:ProductID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE;" json:"images,omitempty"`
	Options  []ProductOption  `gorm:"foreignKey:ProductID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE;" json:"options,omitempty"`
	Variants []ProductVariant `gorm:"foreignKey:ProductID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE;" json:"variants,omitempty"`
}

// Category represents product categories
type Category struct {
	ID          uint           `gorm:"primaryKey" json:"id"`
	Name        string         `gorm:"not null;size:255" json:"name"`
	Slug        string         `gorm:"uniqueIndex;not null;size:255" json:"slug"`
	Description string         `gorm:"size:500" json:"description"`
	Image       string         `gorm:"size:500" json:"image"`
	ParentID    *uint          `gorm:"index" json:"parent_id"`
	SortOrder   int            `gorm:"default:0" json:"sort_order"`
	IsActive    bool           `gorm:"default:true" json:"is_active"`
	CreatedAt   time.Time      `json:"created_at"`
	UpdatedAt   time.Time      `json:"updated_at"`
	DeletedAt   gorm.DeletedAt `gorm:"index" json:"-"`

	// Relationships
	Parent   *Category  `gorm:"foreignKey:ParentID" json:"parent,omitempty"`
	Children []Category `gorm:"foreignKey:ParentID" json:"children,omitempty"`
	Products []Product  `gorm:"foreignKey:CategoryID" json:"products,omitempty"`
}

// Brand represents product brands
type Brand struct {
	ID          uint           `gorm:"primaryKey" json:"id"`
	Name        string         `gorm:"not null;size:255" json:"name"`
	Slug        string         `gorm:"uniqueIndex;not null;size:255" json:"slug"`
	Description string         `gorm:"size:500" json:"description"`
	Logo        string         `gorm:"size:500" json:"logo"`
	IsActive    bool           `gorm:"default:true" json:"is_active"`
	CreatedAt   time.Time      `json:"created_at"`
	UpdatedAt   time.Time      `json:"updated_at"`
	DeletedAt   gorm.DeletedAt `gorm:"index" json:"-"`

	// Relationships
	Products []Product `gorm:"foreignKey:BrandID" json:"products,omitempty"`
}

// ProductImage represents product images
type ProductImage struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	ProductID uint      `gorm:"not null;index" json:"product_id"`
	URL       string    `gorm:"not null;size:500" json:"url"`
	AltText   string    `gorm:"size:255" json:"alt_text"`
	SortOrder int       `gorm:"default:0" json:"sort_order"`
	IsPrimary bool      `gorm:"default:false" json:"is_primary"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// ProductOption represents a declared option axis (e.g. "Color") with its values
type ProductOption struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	ProductID uint      `gorm:"not null;index" json:"product_id"`
	Name      string    `gorm:"not null;size:100" json:"name"`
	SortOrder int       `gorm:"default:0" json:"sort_order"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	Values []ProductOptionValue `gorm:"foreignKey:OptionID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE;" json:"values,omitempty"`
}

// ProductOptionValue represents one enumerated value of an option axis
type ProductOptionValue struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	OptionID  uint      `gorm:"not null;index" json:"option_id"`
	Value     string    `gorm:"not null;size:100" json:"value"`
	SwatchURL string    `gorm:"size:500" json:"swatch_url,omitempty"`
	SortOrder int       `gorm:"default:0" json:"sort_order"`
	CreatedAt time.Time `json:"created_at"`
}

// ProductVariant represents a purchasable configuration of a product.
// Attributes holds exactly one value per declared option axis.
type ProductVariant struct {
	ID           uint           `gorm:"primaryKey" json:"id"`
	ProductID    uint           `gorm:"not null;index" json:"product_id"`
	SKU          string         `gorm:"uniqueIndex;not null;size:100" json:"sku"`
	Name         string         `gorm:"not null;size:255" json:"name"`
	Price        int64          `json:"price"` // Override product price if set
	ComparePrice int64          `json:"compare_price"`
	CostPrice    int64          `json:"cost_price"`
	Quantity     int            `gorm:"default:0" json:"quantity"`
	Attributes   OptionMap      `gorm:"type:text" json:"attributes"`
	ImageURL     string         `gorm:"size:500" json:"image_url,omitempty"`
	IsActive     bool           `gorm:"default:true" json:"is_active"`
	SortOrder    int            `gorm:"default:0" json:"sort_order"`
	CreatedAt    time.Time      `json:"created_at"`
	UpdatedAt    time.Time      `json:"updated_at"`
	DeletedAt    gorm.DeletedAt `gorm:"index" json:"-"`
}

// TableName overrides
func (Product) TableName() string            { return "products" }
func (Category) TableName() string           { return "categories" }
func (Brand) TableName() string              { return "brands" }
func (ProductImage) TableName() string       { return "product_images" }
func (ProductOption) TableName() string      { return "product_options" }
func (ProductOptionValue) TableName() string { return "product_option_values" }
func (ProductVariant) TableName() string     { return "product_variants" }

// Business methods for Product

func (p *Product) IsInStock() bool {
	return p.Quantity > 0 || !p.TrackQuantity
}

func (p *Product) IsLowStock() bool {
	return p.TrackQuantity && p.Quantity <= p.LowStockThreshold
}

// HasVariants reports whether the product declares purchasable variants
func (p *Product) HasVariants() bool {
	return len(p.Variants) > 0
}

// DefaultVariant returns the first declared variant, or nil for simple products
func (p *Product) DefaultVariant() *ProductVariant {
	if len(p.Variants) == 0 {
		return nil
	}
	return &p.Variants[0]
}

// WalletDiscountActive reports whether the wallet-only promotion applies at now
func (p *Product) WalletDiscountActive(now time.Time) bool {
	return p.WalletDiscountPercent > 0 &&
		p.WalletDiscountEndsAt != nil &&
		now.Before(*p.WalletDiscountEndsAt)
}

func (p *Product) GetDiscountPercentage() int {
	if p.ComparePrice > 0 && p.Price < p.ComparePrice {
		return int(((p.ComparePrice - p.Price) * 100) / p.ComparePrice)
	}
	return 0
}

// Business methods for ProductVariant

// EffectivePrice returns the variant price, falling back to the product price
// when the variant does not override it.
func (v *ProductVariant) EffectivePrice(p *Product) int64 {
	if v.Price > 0 {
		return v.Price
	}
	return p.Price
}
