// internal/services/category_service.go
package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/trendora/admin-backend/internal/draft"
	"github.com/trendora/admin-backend/internal/models"
	"github.com/trendora/admin-backend/internal/utils"
)

// CategoryService manages the two-level category reference tree. It also
// backs the draft engine: Categories satisfies draft.CategorySource.
type CategoryService struct {
	db *gorm.DB
}

type CreateCategoryRequest struct {
	Name string `json:"name" validate:"required,min=2,max=100"`
}

type CreateSubcategoryRequest struct {
	Name string `json:"name" validate:"required,min=2,max=100"`
}

func NewCategoryService(db *gorm.DB) *CategoryService {
	return &CategoryService{db: db}
}

// Categories implements draft.CategorySource: the full tree in creation
// order, mapped to the editor's reference shape.
func (s *CategoryService) Categories(ctx context.Context) ([]draft.Category, error) {
	var categories []models.Category
	err := s.db.WithContext(ctx).
		Preload("Subcategories", func(db *gorm.DB) *gorm.DB {
			return db.Order("subcategories.created_at ASC")
		}).
		Order("created_at ASC").
		Find(&categories).Error
	if err != nil {
		return nil, fmt.Errorf("failed to fetch categories: %w", err)
	}

	tree := make([]draft.Category, 0, len(categories))
	for _, c := range categories {
		node := draft.Category{
			ID:            c.ID.String(),
			Name:          c.Name,
			Subcategories: make([]draft.Subcategory, 0, len(c.Subcategories)),
		}
		for _, sc := range c.Subcategories {
			node.Subcategories = append(node.Subcategories, draft.Subcategory{
				ID:   sc.ID.String(),
				Name: sc.Name,
			})
		}
		tree = append(tree, node)
	}
	return tree, nil
}

func (s *CategoryService) ListCategories() ([]models.Category, error) {
	var categories []models.Category
	err := s.db.
		Preload("Subcategories", func(db *gorm.DB) *gorm.DB {
			return db.Order("subcategories.created_at ASC")
		}).
		Order("created_at ASC").
		Find(&categories).Error
	if err != nil {
		return nil, fmt.Errorf("failed to fetch categories: %w", err)
	}
	return categories, nil
}

func (s *CategoryService) CreateCategory(req *CreateCategoryRequest) (*models.Category, error) {
	if err := utils.ValidateStruct(req); err != nil {
		return nil, fmt.Errorf("validation failed: %w", err)
	}

	var existing models.Category
	if err := s.db.Where("name = ?", req.Name).First(&existing).Error; err == nil {
		return nil, errors.New("category with this name already exists")
	}

	category := &models.Category{Name: req.Name}
	if err := s.db.Create(category).Error; err != nil {
		return nil, fmt.Errorf("failed to create category: %w", err)
	}
	return category, nil
}

func (s *CategoryService) UpdateCategory(id uuid.UUID, req *CreateCategoryRequest) (*models.Category, error) {
	if err := utils.ValidateStruct(req); err != nil {
		return nil, fmt.Errorf("validation failed: %w", err)
	}

	var category models.Category
	if err := s.db.First(&category, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errors.New("category not found")
		}
		return nil, fmt.Errorf("database error: %w", err)
	}

	category.Name = req.Name
	if err := s.db.Save(&category).Error; err != nil {
		return nil, fmt.Errorf("failed to update category: %w", err)
	}
	return &category, nil
}

func (s *CategoryService) DeleteCategory(id uuid.UUID) error {
	result := s.db.Delete(&models.Category{}, id)
	if result.Error != nil {
		return fmt.Errorf("failed to delete category: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return errors.New("category not found")
	}
	return nil
}

func (s *CategoryService) CreateSubcategory(categoryID uuid.UUID, req *CreateSubcategoryRequest) (*models.Subcategory, error) {
	if err := utils.ValidateStruct(req); err != nil {
		return nil, fmt.Errorf("validation failed: %w", err)
	}

	var category models.Category
	if err := s.db.First(&category, categoryID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errors.New("category not found")
		}
		return nil, fmt.Errorf("database error: %w", err)
	}

	subcategory := &models.Subcategory{
		CategoryID: categoryID,
		Name:       req.Name,
	}
	if err := s.db.Create(subcategory).Error; err != nil {
		return nil, fmt.Errorf("failed to create subcategory: %w", err)
	}
	return subcategory, nil
}

func (s *CategoryService) DeleteSubcategory(id uuid.UUID) error {
	result := s.db.Delete(&models.Subcategory{}, id)
	if result.Error != nil {
		return fmt.Errorf("failed to delete subcategory: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return errors.New("subcategory not found")
	}
	return nil
}
