// internal/services/supplier_service.go
package services

import (
	"errors"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/trendora/admin-backend/internal/models"
	"github.com/trendora/admin-backend/internal/utils"
)

// SupplierService drives the supplier approval workflows: supplier accounts
// and supplier-submitted products both move pending -> approved/rejected.
type SupplierService struct {
	db *gorm.DB
}

type ReviewDecisionRequest struct {
	Remarks string `json:"remarks" validate:"max=1000"`
}

func NewSupplierService(db *gorm.DB) *SupplierService {
	return &SupplierService{db: db}
}

func (s *SupplierService) ListSuppliers(params utils.PaginationParams) (*utils.PaginationResult, error) {
	var suppliers []models.User
	var total int64

	query := s.db.Model(&models.User{}).Where("role = ?", models.UserRoleSupplier)

	if params.Search != "" {
		searchTerm := "%" + params.Search + "%"
		query = query.Where("username ILIKE ? OR email ILIKE ?", searchTerm, searchTerm)
	}
	if params.Status != "" {
		query = query.Where("supplier_status = ?", params.Status)
	}

	if err := query.Count(&total).Error; err != nil {
		return nil, fmt.Errorf("failed to count suppliers: %w", err)
	}

	query = utils.ApplySort(query, params, []string{"created_at", "username", "email"})
	query = utils.ApplyPagination(query, params)

	if err := query.Find(&suppliers).Error; err != nil {
		return nil, fmt.Errorf("failed to fetch suppliers: %w", err)
	}

	result := utils.CreatePaginationResult(suppliers, total, params)
	return &result, nil
}

func (s *SupplierService) SetSupplierStatus(id uuid.UUID, status models.ApprovalStatus) (*models.User, error) {
	var supplier models.User
	if err := s.db.Where("role = ?", models.UserRoleSupplier).First(&supplier, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errors.New("supplier not found")
		}
		return nil, fmt.Errorf("database error: %w", err)
	}

	supplier.SupplierStatus = status
	if err := s.db.Save(&supplier).Error; err != nil {
		return nil, fmt.Errorf("failed to update supplier: %w", err)
	}
	return &supplier, nil
}

func (s *SupplierService) ListSupplierProducts(params utils.PaginationParams) (*utils.PaginationResult, error) {
	var products []models.SupplierProduct
	var total int64

	query := s.db.Model(&models.SupplierProduct{}).Preload("Supplier")

	if params.Search != "" {
		searchTerm := "%" + params.Search + "%"
		query = query.Where("name ILIKE ? OR brand ILIKE ?", searchTerm, searchTerm)
	}
	if params.Status != "" {
		query = query.Where("status = ?", params.Status)
	}
	if params.Category != "" {
		query = query.Where("category = ?", params.Category)
	}

	if err := query.Count(&total).Error; err != nil {
		return nil, fmt.Errorf("failed to count supplier products: %w", err)
	}

	query = utils.ApplySort(query, params, []string{"created_at", "name", "status"})
	query = utils.ApplyPagination(query, params)

	if err := query.Find(&products).Error; err != nil {
		return nil, fmt.Errorf("failed to fetch supplier products: %w", err)
	}

	result := utils.CreatePaginationResult(products, total, params)
	return &result, nil
}

// ApproveSupplierProduct marks the submission approved and publishes a copy
// into the catalog, in one transaction.
func (s *SupplierService) ApproveSupplierProduct(id uuid.UUID, remarks string) (*models.SupplierProduct, error) {
	var product models.SupplierProduct

	err := s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.First(&product, id).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return errors.New("supplier product not found")
			}
			return fmt.Errorf("database error: %w", err)
		}

		if product.Status == models.ApprovalStatusApproved {
			return errors.New("supplier product is already approved")
		}

		product.Status = models.ApprovalStatusApproved
		product.AdminRemarks = remarks
		if err := tx.Save(&product).Error; err != nil {
			return fmt.Errorf("failed to update supplier product: %w", err)
		}

		published := &models.Product{
			Name:             product.Name,
			Description:      product.Description,
			Brand:            product.Brand,
			Category:         product.Category,
			Subcategory:      product.Subcategory,
			OriginalPrice:    product.OriginalPrice,
			DiscountPrice:    product.DiscountPrice,
			DiscountPercent:  product.DiscountPercent,
			Stock:            product.Stock,
			Colors:           product.Colors,
			Images:           product.Images,
			Specifications:   product.Specifications,
			SizeChart:        product.SizeChart,
			RatingAttributes: product.RatingAttributes,
			Features:         product.Features,
		}
		if err := tx.Create(published).Error; err != nil {
			return fmt.Errorf("failed to publish product: %w", err)
		}

		return nil
	})
	if err != nil {
		return nil, err
	}

	return &product, nil
}

func (s *SupplierService) RejectSupplierProduct(id uuid.UUID, remarks string) (*models.SupplierProduct, error) {
	var product models.SupplierProduct
	if err := s.db.First(&product, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errors.New("supplier product not found")
		}
		return nil, fmt.Errorf("database error: %w", err)
	}

	if product.Status == models.ApprovalStatusApproved {
		return nil, errors.New("cannot reject an approved product")
	}

	product.Status = models.ApprovalStatusRejected
	product.AdminRemarks = remarks
	if err := s.db.Save(&product).Error; err != nil {
		return nil, fmt.Errorf("failed to update supplier product: %w", err)
	}
	return &product, nil
}

func (s *SupplierService) DeleteSupplierProduct(id uuid.UUID) error {
	result := s.db.Delete(&models.SupplierProduct{}, id)
	if result.Error != nil {
		return fmt.Errorf("failed to delete supplier product: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return errors.New("supplier product not found")
	}
	return nil
}
