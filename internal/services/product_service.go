// internal/services/product_service.go
package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"gorm.io/gorm"

	"github.com/trendora/admin-backend/internal/draft"
	"github.com/trendora/admin-backend/internal/models"
	"github.com/trendora/admin-backend/internal/utils"
)

type ProductService struct {
	db *gorm.DB
}

func NewProductService(db *gorm.DB) *ProductService {
	return &ProductService{db: db}
}

func (s *ProductService) ListProducts(params utils.PaginationParams) (*utils.PaginationResult, error) {
	var products []models.Product
	var total int64

	query := s.db.Model(&models.Product{})

	if params.Search != "" {
		searchTerm := "%" + params.Search + "%"
		query = query.Where("name ILIKE ? OR description ILIKE ? OR brand ILIKE ?",
			searchTerm, searchTerm, searchTerm)
	}
	if params.Category != "" {
		query = query.Where("category = ?", params.Category)
	}

	if err := query.Count(&total).Error; err != nil {
		return nil, fmt.Errorf("failed to count products: %w", err)
	}

	query = utils.ApplySort(query, params, []string{"created_at", "name", "discount_price", "stock"})
	query = utils.ApplyPagination(query, params)

	if err := query.Find(&products).Error; err != nil {
		return nil, fmt.Errorf("failed to fetch products: %w", err)
	}

	result := utils.CreatePaginationResult(products, total, params)
	return &result, nil
}

func (s *ProductService) GetProduct(id uuid.UUID) (*models.Product, error) {
	var product models.Product
	if err := s.db.First(&product, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errors.New("product not found")
		}
		return nil, fmt.Errorf("database error: %w", err)
	}
	return &product, nil
}

func (s *ProductService) DeleteProduct(id uuid.UUID) error {
	result := s.db.Delete(&models.Product{}, id)
	if result.Error != nil {
		return fmt.Errorf("failed to delete product: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return errors.New("product not found")
	}
	return nil
}

func (s *ProductService) GetSupplierProduct(id uuid.UUID) (*models.SupplierProduct, error) {
	var product models.SupplierProduct
	if err := s.db.Preload("Supplier").First(&product, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errors.New("supplier product not found")
		}
		return nil, fmt.Errorf("database error: %w", err)
	}
	return &product, nil
}

// ProductSaver returns a draft.Saver that persists the finished payload as a
// catalog product: a create when productID is nil, an update otherwise. The
// destination is chosen when the editing session opens, so the same draft
// engine serves both the create and the edit flow.
func (s *ProductService) ProductSaver(productID *uuid.UUID) draft.Saver {
	return &productSaver{db: s.db, productID: productID}
}

// SupplierProductSaver is the supplier-submission destination: same payload
// shape, persisted into the approval queue as pending.
func (s *ProductService) SupplierProductSaver(supplierID uuid.UUID, productID *uuid.UUID) draft.Saver {
	return &supplierProductSaver{db: s.db, supplierID: supplierID, productID: productID}
}

type productSaver struct {
	db        *gorm.DB
	productID *uuid.UUID
}

func (ps *productSaver) Save(ctx context.Context, payload *draft.Payload) error {
	if ps.productID == nil {
		product := &models.Product{}
		applyPayloadToProduct(product, payload)
		if err := ps.db.WithContext(ctx).Create(product).Error; err != nil {
			return fmt.Errorf("failed to create product: %w", err)
		}
		return nil
	}

	var product models.Product
	if err := ps.db.WithContext(ctx).First(&product, *ps.productID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return errors.New("product not found")
		}
		return fmt.Errorf("database error: %w", err)
	}
	applyPayloadToProduct(&product, payload)
	if err := ps.db.WithContext(ctx).Save(&product).Error; err != nil {
		return fmt.Errorf("failed to update product: %w", err)
	}
	return nil
}

type supplierProductSaver struct {
	db         *gorm.DB
	supplierID uuid.UUID
	productID  *uuid.UUID
}

func (ps *supplierProductSaver) Save(ctx context.Context, payload *draft.Payload) error {
	if ps.productID == nil {
		product := &models.SupplierProduct{
			SupplierID: ps.supplierID,
			Status:     models.ApprovalStatusPending,
		}
		applyPayloadToSupplierProduct(product, payload)
		if err := ps.db.WithContext(ctx).Create(product).Error; err != nil {
			return fmt.Errorf("failed to create supplier product: %w", err)
		}
		return nil
	}

	var product models.SupplierProduct
	if err := ps.db.WithContext(ctx).First(&product, *ps.productID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return errors.New("supplier product not found")
		}
		return fmt.Errorf("database error: %w", err)
	}
	applyPayloadToSupplierProduct(&product, payload)
	// Resubmission puts the product back in the approval queue
	product.Status = models.ApprovalStatusPending
	product.AdminRemarks = ""
	if err := ps.db.WithContext(ctx).Save(&product).Error; err != nil {
		return fmt.Errorf("failed to update supplier product: %w", err)
	}
	return nil
}

func applyPayloadToProduct(product *models.Product, p *draft.Payload) {
	product.Name = p.Name
	product.Description = p.Description
	product.Brand = p.Brand
	product.Category = p.Category
	product.Subcategory = p.Subcategory
	product.OriginalPrice = p.OriginalPrice
	product.DiscountPrice = p.DiscountPrice
	product.DiscountPercent = p.DiscountPercent
	product.Stock = p.Stock
	product.Colors = pq.StringArray(p.Colors)
	product.Images = pq.StringArray(p.Images)
	product.Specifications = specificationList(p.Specifications)
	product.SizeChart = sizeRowList(p.SizeChart)
	product.RatingAttributes = pq.StringArray(p.RatingAttrs)
	product.Features = featureBlockList(p.Features)
}

func applyPayloadToSupplierProduct(product *models.SupplierProduct, p *draft.Payload) {
	product.Name = p.Name
	product.Description = p.Description
	product.Brand = p.Brand
	product.Category = p.Category
	product.Subcategory = p.Subcategory
	product.OriginalPrice = p.OriginalPrice
	product.DiscountPrice = p.DiscountPrice
	product.DiscountPercent = p.DiscountPercent
	product.Stock = p.Stock
	product.Colors = pq.StringArray(p.Colors)
	product.Images = pq.StringArray(p.Images)
	product.Specifications = specificationList(p.Specifications)
	product.SizeChart = sizeRowList(p.SizeChart)
	product.RatingAttributes = pq.StringArray(p.RatingAttrs)
	product.Features = featureBlockList(p.Features)
}

func specificationList(specs []draft.Specification) models.SpecificationList {
	out := make(models.SpecificationList, 0, len(specs))
	for _, s := range specs {
		out = append(out, models.Specification{Key: s.Key, Value: s.Value})
	}
	return out
}

func sizeRowList(rows []draft.SizeRow) models.SizeRowList {
	out := make(models.SizeRowList, 0, len(rows))
	for _, r := range rows {
		out = append(out, models.SizeRow{Label: r.Label, Stock: r.Stock})
	}
	return out
}

func featureBlockList(features []draft.FeaturePayload) models.FeatureBlockList {
	out := make(models.FeatureBlockList, 0, len(features))
	for _, f := range features {
		out = append(out, models.FeatureBlock{
			Title:       f.Title,
			Description: f.Description,
			Image:       f.Image,
		})
	}
	return out
}
