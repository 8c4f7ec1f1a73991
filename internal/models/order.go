// internal/models/order.go
package models

import "github.com/google/uuid"

type Order struct {
	BaseModel
	UserID    uuid.UUID   `json:"user_id" gorm:"type:uuid;not null;index"`
	ProductID uuid.UUID   `json:"product_id" gorm:"type:uuid;not null;index"`
	Quantity  int         `json:"quantity" gorm:"not null"`
	Amount    float64     `json:"amount" gorm:"type:decimal(10,2);not null"`
	Status    OrderStatus `json:"status" gorm:"type:varchar(20);default:'placed';index"`
	Address   JSONB       `json:"address" gorm:"type:jsonb"`

	Product Product `json:"product,omitempty" gorm:"foreignKey:ProductID"`
}
