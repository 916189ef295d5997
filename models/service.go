package models

import (
	"time"

	"gorm.io/gorm"
)

// ServiceCategory represents a service category
type ServiceCategory struct {
	ID          uint           `json:"id" gorm:"primaryKey"`
	Name        string         `json:"name" gorm:"type:varchar(100);not null;unique"`
	Description string         `json:"description" gorm:"type:text"`
	Icon        string         `json:"icon" gorm:"type:varchar(255)"`
	IsActive    bool           `json:"is_active" gorm:"default:true"`
	SortOrder   int            `json:"sort_order" gorm:"default:0"`
	CreatedAt   time.Time      `json:"created_at"`
	UpdatedAt   time.Time      `json:"updated_at"`
	DeletedAt   gorm.DeletedAt `json:"deleted_at,omitempty" gorm:"index"`
}

// Service is a catalog entry. The booking engine treats it as immutable and
// snapshots name/price onto the booking at creation time.
type Service struct {
	ID          uint            `json:"id" gorm:"primaryKey"`
	CategoryID  uint            `json:"category_id" gorm:"not null"`
	Category    ServiceCategory `json:"category" gorm:"foreignKey:CategoryID"`
	Name        string          `json:"name" gorm:"type:varchar(200);not null"`
	Description string          `json:"description" gorm:"type:text"`
	BasePrice   float64         `json:"base_price" gorm:"type:decimal(10,2);not null"`
	PriceUnit   string          `json:"price_unit" gorm:"type:varchar(50)"`
	IsActive    bool            `json:"is_active" gorm:"default:true"`
	CreatedAt   time.Time       `json:"created_at"`
	UpdatedAt   time.Time       `json:"updated_at"`
	DeletedAt   gorm.DeletedAt  `json:"deleted_at,omitempty" gorm:"index"`
}

// TableName specifies the table name for the Service model
func (Service) TableName() string {
	return "services"
}

// ServiceUpsert is the request structure for creating/updating services.
type ServiceUpsert struct {
	CategoryID  uint    `json:"category_id" binding:"required"`
	Name        string  `json:"name" binding:"required"`
	Description string  `json:"description"`
	BasePrice   float64 `json:"base_price" binding:"required"`
	PriceUnit   string  `json:"price_unit"`
}

// CategoryUpsert is the request structure for creating/updating categories.
type CategoryUpsert struct {
	Name        string `json:"name" binding:"required"`
	Description string `json:"description"`
	Icon        string `json:"icon"`
	SortOrder   int    `json:"sort_order"`
}
