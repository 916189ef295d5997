package models

import (
	"time"

	"gorm.io/gorm"
)

// PartnerProfile represents a service provider's professional profile.
// Rating and CompletedJobs are running aggregates mutated by the review
// subsystem; this server only reads them.
type PartnerProfile struct {
	ID          uint            `json:"id" gorm:"primaryKey"`
	UserID      uint            `json:"user_id" gorm:"uniqueIndex;not null"`
	CategoryID  uint            `json:"category_id" gorm:"not null"`
	Category    ServiceCategory `json:"category" gorm:"foreignKey:CategoryID"`
	DisplayName string          `json:"display_name" gorm:"type:varchar(200);not null"`
	PhoneNumber string          `json:"phone_number" gorm:"type:varchar(20)"`
	City        string          `json:"city" gorm:"type:varchar(100)"`
	Address     string          `json:"address" gorm:"type:text"`

	// PriceMultiplier is applied to the base service price when quoting.
	PriceMultiplier float64 `json:"price_multiplier" gorm:"type:decimal(4,2);default:1"`

	// Manual online/offline flag, a coarse filter independent of the
	// booking-derived busy/free computation.
	IsAvailable bool       `json:"is_available" gorm:"default:false"`
	CurrentLat  *float64   `json:"current_lat" gorm:"type:decimal(10,8)"`
	CurrentLng  *float64   `json:"current_lng" gorm:"type:decimal(11,8)"`
	LastSeenAt  *time.Time `json:"last_seen_at"`

	CompletedJobs int     `json:"completed_jobs" gorm:"default:0"`
	Rating        float64 `json:"rating" gorm:"type:decimal(3,2);default:0"`
	IsVerified    bool    `json:"is_verified" gorm:"default:false"`

	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `json:"deleted_at,omitempty" gorm:"index"`

	// Relationships
	User User `json:"user,omitempty" gorm:"foreignKey:UserID"`
}

// HasLocation reports whether the partner has a known geocoordinate.
func (p *PartnerProfile) HasLocation() bool {
	return p.CurrentLat != nil && p.CurrentLng != nil
}

// PartnerAvailabilityUpdate toggles the manual availability flag.
type PartnerAvailabilityUpdate struct {
	IsAvailable bool     `json:"is_available"`
	Latitude    *float64 `json:"latitude"`
	Longitude   *float64 `json:"longitude"`
}
