package models

import (
	"time"

	"gorm.io/gorm"
)

type UserRole string

const (
	RoleCustomer UserRole = "customer"
	RolePartner  UserRole = "partner"
	RoleAdmin    UserRole = "admin"
)

// User is the account record shared by customers, partners and admins.
// Registration and credentials live in the external auth service; this server
// only stores the profile fields bookings and notifications refer to.
type User struct {
	ID          uint           `json:"id" gorm:"primaryKey"`
	FullName    string         `json:"full_name" gorm:"type:varchar(200);not null"`
	PhoneNumber string         `json:"phone_number" gorm:"type:varchar(20);uniqueIndex"`
	Role        UserRole       `json:"role" gorm:"type:varchar(20);not null;default:'customer'"`
	IsActive    bool           `json:"is_active" gorm:"default:true"`
	CreatedAt   time.Time      `json:"created_at"`
	UpdatedAt   time.Time      `json:"updated_at"`
	DeletedAt   gorm.DeletedAt `json:"deleted_at,omitempty" gorm:"index"`
}
