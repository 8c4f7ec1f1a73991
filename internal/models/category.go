// internal/models/category.go
package models

import "github.com/google/uuid"

// Category with its subcategories forms the two-level reference tree the
// editor resolves IDs against.
type Category struct {
	BaseModel
	Name string `json:"name" gorm:"uniqueIndex;size:100;not null"`

	Subcategories []Subcategory `json:"subcategories,omitempty" gorm:"foreignKey:CategoryID;constraint:OnDelete:CASCADE"`
}

type Subcategory struct {
	BaseModel
	CategoryID uuid.UUID `json:"category_id" gorm:"type:uuid;not null;index"`
	Name       string    `json:"name" gorm:"size:100;not null"`
}
