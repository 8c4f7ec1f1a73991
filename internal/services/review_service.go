// internal/services/review_service.go
package services

import (
	"errors"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/trendora/admin-backend/internal/models"
	"github.com/trendora/admin-backend/internal/utils"
)

type ReviewService struct {
	db *gorm.DB
}

func NewReviewService(db *gorm.DB) *ReviewService {
	return &ReviewService{db: db}
}

func (s *ReviewService) ListProductReviews(productID uuid.UUID, params utils.PaginationParams) (*utils.PaginationResult, error) {
	var reviews []models.Review
	var total int64

	query := s.db.Model(&models.Review{}).Where("product_id = ?", productID).Preload("User")

	if err := query.Count(&total).Error; err != nil {
		return nil, fmt.Errorf("failed to count reviews: %w", err)
	}

	query = utils.ApplySort(query, params, []string{"created_at", "rating"})
	query = utils.ApplyPagination(query, params)

	if err := query.Find(&reviews).Error; err != nil {
		return nil, fmt.Errorf("failed to fetch reviews: %w", err)
	}

	result := utils.CreatePaginationResult(reviews, total, params)
	return &result, nil
}

func (s *ReviewService) DeleteReview(id uuid.UUID) error {
	result := s.db.Delete(&models.Review{}, id)
	if result.Error != nil {
		return fmt.Errorf("failed to delete review: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return errors.New("review not found")
	}
	return nil
}
