// internal/domain/product/category_service.go
package product

import (
	"fmt"
	"strings"

	"github.com/plugng/commerce-backend/internal/config"
	"gorm.io/gorm"
)

// CategoryService handles category business logic
type CategoryService struct {
	db     *gorm.DB
	config *config.Config
}

// NewCategoryService creates a new category service
func NewCategoryService(db *gorm.DB, cfg *config.Config) *CategoryService {
	return &CategoryService{
		db:     db,
		config: cfg,
	}
}

// CategoryCreateRequest represents a category creation request
type CategoryCreateRequest struct {
	Name        string `json:"name" binding:"required"`
	Description string `json:"description"`
	Image       string `json:"image"`
	ParentID    *uint  `json:"parent_id"`
	SortOrder   int    `json:"sort_order"`
}

// CategoryUpdateRequest represents a category update request
type CategoryUpdateRequest struct {
	Name        *string `json:"name"`
	Description *string `json:"description"`
	Image       *string `json:"image"`
	ParentID    *uint   `json:"parent_id"`
	SortOrder   *int    `json:"sort_order"`
	IsActive    *bool   `json:"is_active"`
}

// GetCategories returns categories ordered for display
func (s *CategoryService) GetCategories(includeInactive bool) ([]Category, error) {
	query := s.db.Model(&Category{})
	if !includeInactive {
		query = query.Where("is_active = ?", true)
	}

	var categories []Category
	err := query.Order("sort_order ASC, name ASC").Find(&categories).Error
	if err != nil {
		return nil, fmt.Errorf("failed to retrieve categories: %w", err)
	}
	return categories, nil
}

// GetCategory returns one category with its children
func (s *CategoryService) GetCategory(id uint) (*Category, error) {
	var category Category
	result := s.db.Preload("Children").Where("id = ?", id).First(&category)
	if result.Error == gorm.ErrRecordNotFound {
		return nil, fmt.Errorf("category not found")
	}
	if result.Error != nil {
		return nil, result.Error
	}
	return &category, nil
}

// GetCategoryBySlug returns one active category by slug
func (s *CategoryService) GetCategoryBySlug(slug string) (*Category, error) {
	var category Category
	result := s.db.Preload("Children").Where("slug = ? AND is_active = ?", slug, true).First(&category)
	if result.Error == gorm.ErrRecordNotFound {
		return nil, fmt.Errorf("category not found")
	}
	if result.Error != nil {
		return nil, result.Error
	}
	return &category, nil
}

// CreateCategory creates a new category
func (s *CategoryService) CreateCategory(req *CategoryCreateRequest) (*Category, error) {
	slug := categorySlug(req.Name)

	var count int64
	s.db.Model(&Category{}).Where("slug = ?", slug).Count(&count)
	if count > 0 {
		return nil, fmt.Errorf("a category with this name already exists")
	}

	if req.ParentID != nil {
		var parentCount int64
		s.db.Model(&Category{}).Where("id = ?", *req.ParentID).Count(&parentCount)
		if parentCount == 0 {
			return nil, fmt.Errorf("parent category not found")
		}
	}

	category := &Category{
		Name:        req.Name,
		Slug:        slug,
		Description: req.Description,
		Image:       req.Image,
		ParentID:    req.ParentID,
		SortOrder:   req.SortOrder,
		IsActive:    true,
	}
	if err := s.db.Create(category).Error; err != nil {
		return nil, fmt.Errorf("failed to create category: %w", err)
	}
	return category, nil
}

// UpdateCategory updates a category
func (s *CategoryService) UpdateCategory(id uint, req *CategoryUpdateRequest) (*Category, error) {
	category, err := s.GetCategory(id)
	if err != nil {
		return nil, err
	}

	updates := make(map[string]interface{})
	if req.Name != nil {
		updates["name"] = *req.Name
		updates["slug"] = categorySlug(*req.Name)
	}
	if req.Description != nil {
		updates["description"] = *req.Description
	}
	if req.Image != nil {
		updates["image"] = *req.Image
	}
	if req.ParentID != nil {
		if *req.ParentID == id {
			return nil, fmt.Errorf("category cannot be its own parent")
		}
		updates["parent_id"] = *req.ParentID
	}
	if req.SortOrder != nil {
		updates["sort_order"] = *req.SortOrder
	}
	if req.IsActive != nil {
		updates["is_active"] = *req.IsActive
	}

	if err := s.db.Model(category).Updates(updates).Error; err != nil {
		return nil, fmt.Errorf("failed to update category: %w", err)
	}
	return s.GetCategory(id)
}

// DeleteCategory soft deletes a category without products or children
func (s *CategoryService) DeleteCategory(id uint) error {
	var productCount int64
	s.db.Model(&Product{}).Where("category_id = ?", id).Count(&productCount)
	if productCount > 0 {
		return fmt.Errorf("cannot delete category with %d products", productCount)
	}

	var childCount int64
	s.db.Model(&Category{}).Where("parent_id = ?", id).Count(&childCount)
	if childCount > 0 {
		return fmt.Errorf("cannot delete category with subcategories")
	}

	return s.db.Delete(&Category{}, id).Error
}

// categorySlug builds a URL-friendly slug from a category name. Category
// slugs stay stable, no timestamp suffix.
func categorySlug(name string) string {
	slug := strings.ToLower(name)
	slug = strings.ReplaceAll(slug, " ", "-")
	slug = strings.ReplaceAll(slug, "_", "-")
	return slug
}
