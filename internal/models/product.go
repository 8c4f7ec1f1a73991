// internal/models/product.go
package models

import (
	"database/sql/driver"
	"encoding/json"

	"github.com/google/uuid"
	"github.com/lib/pq"
)

// Specification, SizeRow and FeatureBlock are stored as ordered JSON
// arrays: the editor treats insertion order as meaningful, which a jsonb
// object column cannot preserve.
type Specification struct {
	Key   string `json:"key"`
	Value string `json:"value"`
}

type SpecificationList []Specification

func (l SpecificationList) Value() (driver.Value, error) {
	if l == nil {
		return nil, nil
	}
	return json.Marshal(l)
}

func (l *SpecificationList) Scan(value interface{}) error {
	if value == nil {
		*l = nil
		return nil
	}
	bytes, ok := value.([]byte)
	if !ok {
		return nil
	}
	return json.Unmarshal(bytes, l)
}

type SizeRow struct {
	Label string `json:"label"`
	Stock int    `json:"stock"`
}

type SizeRowList []SizeRow

func (l SizeRowList) Value() (driver.Value, error) {
	if l == nil {
		return nil, nil
	}
	return json.Marshal(l)
}

func (l *SizeRowList) Scan(value interface{}) error {
	if value == nil {
		*l = nil
		return nil
	}
	bytes, ok := value.([]byte)
	if !ok {
		return nil
	}
	return json.Unmarshal(bytes, l)
}

type FeatureBlock struct {
	Title       string `json:"title"`
	Description string `json:"description"`
	Image       string `json:"image"`
}

type FeatureBlockList []FeatureBlock

func (l FeatureBlockList) Value() (driver.Value, error) {
	if l == nil {
		return nil, nil
	}
	return json.Marshal(l)
}

func (l *FeatureBlockList) Scan(value interface{}) error {
	if value == nil {
		*l = nil
		return nil
	}
	bytes, ok := value.([]byte)
	if !ok {
		return nil
	}
	return json.Unmarshal(bytes, l)
}

// Product is a catalog product authored through the draft editor. Category
// and subcategory store resolved display names; the reference IDs exist
// only while editing.
type Product struct {
	BaseModel
	Name             string            `json:"name" gorm:"size:255;not null"`
	Description      string            `json:"description" gorm:"type:text"`
	Brand            string            `json:"brand" gorm:"size:100;index"`
	Category         string            `json:"category" gorm:"size:100;index"`
	Subcategory      string            `json:"subcategory" gorm:"size:100;index"`
	OriginalPrice    float64           `json:"originalPrice" gorm:"type:decimal(10,2);not null"`
	DiscountPrice    float64           `json:"discountPrice" gorm:"type:decimal(10,2);not null"`
	DiscountPercent  int               `json:"discountPercent" gorm:"default:0"`
	Stock            int               `json:"stock" gorm:"default:0"`
	Colors           pq.StringArray    `json:"colors" gorm:"type:text[]"`
	Images           pq.StringArray    `json:"images" gorm:"type:text[]"`
	Specifications   SpecificationList `json:"specifications" gorm:"type:jsonb"`
	SizeChart        SizeRowList       `json:"sizeChart" gorm:"type:jsonb"`
	RatingAttributes pq.StringArray    `json:"ratingAttributes" gorm:"type:text[]"`
	Features         FeatureBlockList  `json:"featureDescriptions" gorm:"type:jsonb"`

	Reviews []Review `json:"reviews,omitempty" gorm:"foreignKey:ProductID"`
}

// SupplierProduct is a supplier-submitted product: the same authored shape
// plus an approval workflow.
type SupplierProduct struct {
	BaseModel
	SupplierID       uuid.UUID         `json:"supplier_id" gorm:"type:uuid;not null;index"`
	Name             string            `json:"name" gorm:"size:255;not null"`
	Description      string            `json:"description" gorm:"type:text"`
	Brand            string            `json:"brand" gorm:"size:100;index"`
	Category         string            `json:"category" gorm:"size:100;index"`
	Subcategory      string            `json:"subcategory" gorm:"size:100;index"`
	OriginalPrice    float64           `json:"originalPrice" gorm:"type:decimal(10,2);not null"`
	DiscountPrice    float64           `json:"discountPrice" gorm:"type:decimal(10,2);not null"`
	DiscountPercent  int               `json:"discountPercent" gorm:"default:0"`
	Stock            int               `json:"stock" gorm:"default:0"`
	Colors           pq.StringArray    `json:"colors" gorm:"type:text[]"`
	Images           pq.StringArray    `json:"images" gorm:"type:text[]"`
	Specifications   SpecificationList `json:"specifications" gorm:"type:jsonb"`
	SizeChart        SizeRowList       `json:"sizeChart" gorm:"type:jsonb"`
	RatingAttributes pq.StringArray    `json:"ratingAttributes" gorm:"type:text[]"`
	Features         FeatureBlockList  `json:"featureDescriptions" gorm:"type:jsonb"`
	Status           ApprovalStatus    `json:"status" gorm:"type:varchar(20);default:'pending';index"`
	AdminRemarks     string            `json:"adminRemarks" gorm:"type:text"`

	Supplier User `json:"supplier,omitempty" gorm:"foreignKey:SupplierID"`
}
