// internal/domain/product/service.go
package product

import (
	"fmt"
	"strings"
	"time"

	"github.com/plugng/commerce-backend/internal/config"
	"gorm.io/gorm"
)

// Service handles catalog business logic
type Service struct {
	db     *gorm.DB
	config *config.Config
}

// NewService creates a new product service
func NewService(db *gorm.DB, cfg *config.Config) *Service {
	return &Service{
		db:     db,
		config: cfg,
	}
}

// ProductListRequest represents product list query parameters
type ProductListRequest struct {
	Page       int    `form:"page,default=1"`
	Limit      int    `form:"limit,default=20"`
	CategoryID uint   `form:"category_id"`
	BrandID    uint   `form:"brand_id"`
	Search     string `form:"search"`
	SortBy     string `form:"sort_by,default=created_at"`
	SortOrder  string `form:"sort_order,default=desc"`
	MinPrice   int64  `form:"min_price"`
	MaxPrice   int64  `form:"max_price"`
	IsActive   *bool  `form:"is_active"`
	IsFeatured *bool  `form:"is_featured"`
}

// OptionInput declares one option axis with its enumerated values
type OptionInput struct {
	Name      string   `json:"name" binding:"required"`
	Values    []string `json:"values" binding:"required,min=1"`
	SwatchURL []string `json:"swatch_urls,omitempty"`
}

// VariantInput declares one purchasable variant
type VariantInput struct {
	SKU          string            `json:"sku" binding:"required"`
	Name         string            `json:"name" binding:"required"`
	Price        int64             `json:"price"`
	ComparePrice int64             `json:"compare_price"`
	CostPrice    int64             `json:"cost_price"`
	Quantity     int               `json:"quantity"`
	Attributes   map[string]string `json:"attributes" binding:"required"`
	ImageURL     string            `json:"image_url"`
}

// ProductCreateRequest represents product creation data
type ProductCreateRequest struct {
	SKU                   string         `json:"sku" binding:"required"`
	Name                  string         `json:"name" binding:"required"`
	Description           string         `json:"description"`
	ShortDesc             string         `json:"short_description"`
	Price                 int64          `json:"price" binding:"required"`
	ComparePrice          int64          `json:"compare_price"`
	CostPrice             int64          `json:"cost_price"`
	CategoryID            uint           `json:"category_id" binding:"required"`
	BrandID               *uint          `json:"brand_id"`
	IsActive              bool           `json:"is_active"`
	IsFeatured            bool           `json:"is_featured"`
	TrackQuantity         bool           `json:"track_quantity"`
	Quantity              int            `json:"quantity"`
	LowStockThreshold     int            `json:"low_stock_threshold"`
	Tags                  string         `json:"tags"`
	WalletDiscountPercent int64          `json:"wallet_discount_percent"`
	WalletDiscountEndsAt  *time.Time     `json:"wallet_discount_ends_at"`
	Options               []OptionInput  `json:"options"`
	Variants              []VariantInput `json:"variants"`
}

// ProductUpdateRequest represents product update data
type ProductUpdateRequest struct {
	Name                  *string    `json:"name"`
	Description           *string    `json:"description"`
	ShortDesc             *string    `json:"short_description"`
	Price                 *int64     `json:"price"`
	ComparePrice          *int64     `json:"compare_price"`
	CostPrice             *int64     `json:"cost_price"`
	CategoryID            *uint      `json:"category_id"`
	BrandID               *uint      `json:"brand_id"`
	IsActive              *bool      `json:"is_active"`
	IsFeatured            *bool      `json:"is_featured"`
	TrackQuantity         *bool      `json:"track_quantity"`
	Quantity              *int       `json:"quantity"`
	LowStockThreshold     *int       `json:"low_stock_threshold"`
	Tags                  *string    `json:"tags"`
	WalletDiscountPercent *int64     `json:"wallet_discount_percent"`
	WalletDiscountEndsAt  *time.Time `json:"wallet_discount_ends_at"`
}

// ProductResponse represents product response with pagination
type ProductResponse struct {
	Products   []Product  `json:"products"`
	Pagination Pagination `json:"pagination"`
}

// Pagination represents pagination information
type Pagination struct {
	Page       int   `json:"page"`
	Limit      int   `json:"limit"`
	Total      int64 `json:"total"`
	TotalPages int   `json:"total_pages"`
	HasNext    bool  `json:"has_next"`
	HasPrev    bool  `json:"has_prev"`
}

// GetProducts retrieves products with filtering and pagination
func (s *Service) GetProducts(req *ProductListRequest) (*ProductResponse, error) {
	var products []Product
	var total int64

	query := s.db.Model(&Product{}).
		Preload("Category").
		Preload("Brand").
		Preload("Images", func(db *gorm.DB) *gorm.DB {
			return db.Order("is_primary DESC, sort_order ASC, id ASC")
		})

	if req.CategoryID > 0 {
		query = query.Where("category_id = ?", req.CategoryID)
	}

	if req.BrandID > 0 {
		query = query.Where("brand_id = ?", req.BrandID)
	}

	if req.Search != "" {
		search := "%" + strings.ToLower(req.Search) + "%"
		query = query.Where("LOWER(name) LIKE ? OR LOWER(description) LIKE ? OR LOWER(tags) LIKE ?", search, search, search)
	}

	if req.MinPrice > 0 {
		query = query.Where("price >= ?", req.MinPrice)
	}

	if req.MaxPrice > 0 {
		query = query.Where("price <= ?", req.MaxPrice)
	}

	if req.IsActive != nil {
		query = query.Where("is_active = ?", *req.IsActive)
	}

	if req.IsFeatured != nil {
		query = query.Where("is_featured = ?", *req.IsFeatured)
	}

	if err := query.Count(&total).Error; err != nil {
		return nil, fmt.Errorf("failed to count products: %w", err)
	}

	orderClause := s.buildOrderClause(req.SortBy, req.SortOrder)
	query = query.Order(orderClause)

	offset := (req.Page - 1) * req.Limit
	if err := query.Offset(offset).Limit(req.Limit).Find(&products).Error; err != nil {
		return nil, fmt.Errorf("failed to retrieve products: %w", err)
	}

	totalPages := int((total + int64(req.Limit) - 1) / int64(req.Limit))
	pagination := Pagination{
		Page:       req.Page,
		Limit:      req.Limit,
		Total:      total,
		TotalPages: totalPages,
		HasNext:    req.Page < totalPages,
		HasPrev:    req.Page > 1,
	}

	return &ProductResponse{
		Products:   products,
		Pagination: pagination,
	}, nil
}

// GetProduct retrieves a single product by ID, with options and variants in
// declared order so the resolver's first-variant fallback is stable.
func (s *Service) GetProduct(id uint) (*Product, error) {
	var product Product
	result := s.db.
		Preload("Category").
		Preload("Brand").
		Preload("Images", func(db *gorm.DB) *gorm.DB {
			return db.Order("sort_order ASC, id ASC")
		}).
		Preload("Options", func(db *gorm.DB) *gorm.DB {
			return db.Order("sort_order ASC, id ASC")
		}).
		Preload("Options.Values", func(db *gorm.DB) *gorm.DB {
			return db.Order("sort_order ASC, id ASC")
		}).
		Preload("Variants", func(db *gorm.DB) *gorm.DB {
			return db.Where("is_active = ?", true).Order("sort_order ASC, id ASC")
		}).
		Where("id = ?", id).
		First(&product)

	if result.Error != nil {
		if result.Error == gorm.ErrRecordNotFound {
			return nil, fmt.Errorf("product not found")
		}
		return nil, fmt.Errorf("failed to retrieve product: %w", result.Error)
	}

	return &product, nil
}

// GetProductBySlug retrieves a single active product by slug
func (s *Service) GetProductBySlug(slug string) (*Product, error) {
	var product Product
	result := s.db.
		Preload("Category").
		Preload("Brand").
		Preload("Images", func(db *gorm.DB) *gorm.DB {
			return db.Order("sort_order ASC, id ASC")
		}).
		Preload("Options", func(db *gorm.DB) *gorm.DB {
			return db.Order("sort_order ASC, id ASC")
		}).
		Preload("Options.Values", func(db *gorm.DB) *gorm.DB {
			return db.Order("sort_order ASC, id ASC")
		}).
		Preload("Variants", func(db *gorm.DB) *gorm.DB {
			return db.Where("is_active = ?", true).Order("sort_order ASC, id ASC")
		}).
		Where("slug = ? AND is_active = ?", slug, true).
		First(&product)

	if result.Error != nil {
		if result.Error == gorm.ErrRecordNotFound {
			return nil, fmt.Errorf("product not found")
		}
		return nil, fmt.Errorf("failed to retrieve product: %w", result.Error)
	}

	return &product, nil
}

// CreateProduct creates a new product with its option axes and variants
func (s *Service) CreateProduct(req *ProductCreateRequest) (*Product, error) {
	var existing Product
	if result := s.db.Where("sku = ?", req.SKU).First(&existing); result.Error == nil {
		return nil, fmt.Errorf("product with SKU %s already exists", req.SKU)
	}

	if err := validateVariantAttributes(req.Variants); err != nil {
		return nil, err
	}

	slug := s.generateSlug(req.Name)

	product := Product{
		SKU:                   req.SKU,
		Name:                  req.Name,
		Slug:                  slug,
		Description:           req.Description,
		ShortDesc:             req.ShortDesc,
		Price:                 req.Price,
		ComparePrice:          req.ComparePrice,
		CostPrice:             req.CostPrice,
		CategoryID:            req.CategoryID,
		BrandID:               req.BrandID,
		IsActive:              req.IsActive,
		IsFeatured:            req.IsFeatured,
		TrackQuantity:         req.TrackQuantity,
		Quantity:              req.Quantity,
		LowStockThreshold:     req.LowStockThreshold,
		Tags:                  req.Tags,
		WalletDiscountPercent: req.WalletDiscountPercent,
		WalletDiscountEndsAt:  req.WalletDiscountEndsAt,
	}

	for sortOrder, opt := range req.Options {
		option := ProductOption{
			Name:      opt.Name,
			SortOrder: sortOrder,
		}
		for valueOrder, value := range opt.Values {
			optionValue := ProductOptionValue{
				Value:     value,
				SortOrder: valueOrder,
			}
			if valueOrder < len(opt.SwatchURL) {
				optionValue.SwatchURL = opt.SwatchURL[valueOrder]
			}
			option.Values = append(option.Values, optionValue)
		}
		product.Options = append(product.Options, option)
	}

	for sortOrder, variant := range req.Variants {
		product.Variants = append(product.Variants, ProductVariant{
			SKU:          variant.SKU,
			Name:         variant.Name,
			Price:        variant.Price,
			ComparePrice: variant.ComparePrice,
			CostPrice:    variant.CostPrice,
			Quantity:     variant.Quantity,
			Attributes:   OptionMap(variant.Attributes),
			ImageURL:     variant.ImageURL,
			IsActive:     true,
			SortOrder:    sortOrder,
		})
	}

	if err := s.db.Create(&product).Error; err != nil {
		return nil, fmt.Errorf("failed to create product: %w", err)
	}

	s.db.Preload("Category").Preload("Brand").Preload("Options.Values").Preload("Variants").First(&product, product.ID)

	return &product, nil
}

// AddVariant adds a variant to an existing product
func (s *Service) AddVariant(productID uint, req *VariantInput) (*ProductVariant, error) {
	var product Product
	if err := s.db.Preload("Variants").Where("id = ?", productID).First(&product).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, fmt.Errorf("product not found")
		}
		return nil, fmt.Errorf("failed to find product: %w", err)
	}

	attrs := OptionMap(req.Attributes)
	for i := range product.Variants {
		if product.Variants[i].Attributes.Equal(attrs) {
			return nil, fmt.Errorf("variant with identical attributes already exists (SKU %s)", product.Variants[i].SKU)
		}
	}

	variant := ProductVariant{
		ProductID:    productID,
		SKU:          req.SKU,
		Name:         req.Name,
		Price:        req.Price,
		ComparePrice: req.ComparePrice,
		CostPrice:    req.CostPrice,
		Quantity:     req.Quantity,
		Attributes:   attrs,
		ImageURL:     req.ImageURL,
		IsActive:     true,
		SortOrder:    len(product.Variants),
	}

	if err := s.db.Create(&variant).Error; err != nil {
		return nil, fmt.Errorf("failed to create variant: %w", err)
	}

	return &variant, nil
}

// UpdateProduct updates an existing product
func (s *Service) UpdateProduct(id uint, req *ProductUpdateRequest) (*Product, error) {
	var product Product
	result := s.db.Where("id = ?", id).First(&product)
	if result.Error != nil {
		if result.Error == gorm.ErrRecordNotFound {
			return nil, fmt.Errorf("product not found")
		}
		return nil, fmt.Errorf("failed to find product: %w", result.Error)
	}

	updates := make(map[string]interface{})

	if req.Name != nil {
		updates["name"] = *req.Name
		updates["slug"] = s.generateSlug(*req.Name)
	}
	if req.Description != nil {
		updates["description"] = *req.Description
	}
	if req.ShortDesc != nil {
		updates["short_desc"] = *req.ShortDesc
	}
	if req.Price != nil {
		updates["price"] = *req.Price
	}
	if req.ComparePrice != nil {
		updates["compare_price"] = *req.ComparePrice
	}
	if req.CostPrice != nil {
		updates["cost_price"] = *req.CostPrice
	}
	if req.CategoryID != nil {
		updates["category_id"] = *req.CategoryID
	}
	if req.BrandID != nil {
		updates["brand_id"] = *req.BrandID
	}
	if req.IsActive != nil {
		updates["is_active"] = *req.IsActive
	}
	if req.IsFeatured != nil {
		updates["is_featured"] = *req.IsFeatured
	}
	if req.TrackQuantity != nil {
		updates["track_quantity"] = *req.TrackQuantity
	}
	if req.Quantity != nil {
		updates["quantity"] = *req.Quantity
	}
	if req.LowStockThreshold != nil {
		updates["low_stock_threshold"] = *req.LowStockThreshold
	}
	if req.Tags != nil {
		updates["tags"] = *req.Tags
	}
	if req.WalletDiscountPercent != nil {
		updates["wallet_discount_percent"] = *req.WalletDiscountPercent
	}
	if req.WalletDiscountEndsAt != nil {
		updates["wallet_discount_ends_at"] = *req.WalletDiscountEndsAt
	}

	if err := s.db.Model(&product).Updates(updates).Error; err != nil {
		return nil, fmt.Errorf("failed to update product: %w", err)
	}

	s.db.Preload("Category").Preload("Brand").Preload("Variants").First(&product, product.ID)

	return &product, nil
}

// DeleteProduct soft deletes a product
func (s *Service) DeleteProduct(id uint) error {
	result := s.db.Where("id = ?", id).Delete(&Product{})
	if result.Error != nil {
		return fmt.Errorf("failed to delete product: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return fmt.Errorf("product not found")
	}
	return nil
}

// UpdateInventory updates product inventory
func (s *Service) UpdateInventory(productID uint, quantity int) error {
	result := s.db.Model(&Product{}).
		Where("id = ? AND track_quantity = ?", productID, true).
		Update("quantity", quantity)

	if result.Error != nil {
		return fmt.Errorf("failed to update inventory: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return fmt.Errorf("product not found or inventory tracking disabled")
	}
	return nil
}

// validateVariantAttributes rejects duplicate attribute maps within one product.
// No two variants may share the full option-value tuple.
func validateVariantAttributes(variants []VariantInput) error {
	for i := range variants {
		a := OptionMap(variants[i].Attributes)
		for j := i + 1; j < len(variants); j++ {
			if a.Equal(OptionMap(variants[j].Attributes)) {
				return fmt.Errorf("variants %s and %s have identical attributes", variants[i].SKU, variants[j].SKU)
			}
		}
	}
	return nil
}

// buildOrderClause builds ORDER BY clause for sorting
func (s *Service) buildOrderClause(sortBy, sortOrder string) string {
	validSortFields := map[string]bool{
		"name":       true,
		"price":      true,
		"created_at": true,
		"updated_at": true,
		"quantity":   true,
	}

	if !validSortFields[sortBy] {
		sortBy = "created_at"
	}

	if sortOrder != "asc" && sortOrder != "desc" {
		sortOrder = "desc"
	}

	return fmt.Sprintf("%s %s", sortBy, sortOrder)
}

// generateSlug generates URL-friendly slug from name
func (s *Service) generateSlug(name string) string {
	slug := strings.ToLower(name)
	slug = strings.ReplaceAll(slug, " ", "-")
	slug = strings.ReplaceAll(slug, "_", "-")

	return slug + "-" + fmt.Sprintf("%d", time.Now().Unix())
}
