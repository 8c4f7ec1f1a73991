// internal/models/review.go
package models

import "github.com/google/uuid"

// Review holds a customer review. AttributeRatings keys are the product's
// rating-attribute labels at the time of the review.
type Review struct {
	BaseModel
	ProductID        uuid.UUID `json:"product_id" gorm:"type:uuid;not null;index"`
	UserID           uuid.UUID `json:"user_id" gorm:"type:uuid;not null;index"`
	Rating           int       `json:"rating" gorm:"not null"`
	Comment          string    `json:"comment" gorm:"type:text"`
	AttributeRatings JSONB     `json:"attribute_ratings" gorm:"type:jsonb"`

	Product Product `json:"product,omitempty" gorm:"foreignKey:ProductID"`
	User    User    `json:"user,omitempty" gorm:"foreignKey:UserID"`
}
