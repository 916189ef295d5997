package models

import (
	"time"

	"gorm.io/gorm"
)

type BookingStatus string

const (
	BookingStatusPending    BookingStatus = "pending"
	BookingStatusAccepted   BookingStatus = "accepted"
	BookingStatusInProgress BookingStatus = "in_progress"
	BookingStatusCompleted  BookingStatus = "completed"
	BookingStatusCancelled  BookingStatus = "cancelled"
)

type PaymentStatus string

const (
	PaymentStatusPending PaymentStatus = "pending"
	PaymentStatusPaid    PaymentStatus = "paid"
)

type BookingType string

const (
	// BookingTypeInstant is booked for "now"; it has no future slot to conflict on.
	BookingTypeInstant BookingType = "instant"
	// BookingTypeScheduled occupies the slot [ScheduledTime, ScheduledTime+SlotDuration).
	BookingTypeScheduled BookingType = "scheduled"
)

// Booking is one service instance requested by a customer and fulfilled by a
// partner. Service name and price are snapshots taken at booking time, not live
// references. CustomerID/PartnerID/ServiceID/ScheduledTime never change after
// creation; status, payment status and warranty mutate only through the status
// machine.
type Booking struct {
	ID         uint        `json:"id" gorm:"primaryKey"`
	Reference  string      `json:"reference" gorm:"type:varchar(64);uniqueIndex;not null"`
	CustomerID uint        `json:"customer_id" gorm:"not null"`
	PartnerID  uint        `json:"partner_id" gorm:"not null;uniqueIndex:idx_partner_slot,priority:1"`
	ServiceID  uint        `json:"service_id" gorm:"not null"`
	Type       BookingType `json:"type" gorm:"type:varchar(20);not null;default:'scheduled'"`

	// Snapshot of the catalog entry at booking time.
	ServiceName  string  `json:"service_name" gorm:"type:varchar(200);not null"`
	ServicePrice float64 `json:"service_price" gorm:"type:decimal(10,2);not null"`

	ScheduledTime time.Time `json:"scheduled_time" gorm:"not null;index"`
	// SlotBucket is the slot start keyed to the minute, set only for scheduled
	// bookings. The partial unique index below is the storage-level defense
	// against double-booking a partner for the same slot; its predicate matches
	// ActiveStatuses so terminal bookings release the slot.
	SlotBucket *string `json:"-" gorm:"type:varchar(32);uniqueIndex:idx_partner_slot,priority:2,where:status IN ('pending','accepted','in_progress')"`

	Status        BookingStatus `json:"status" gorm:"type:varchar(20);not null;default:'pending';check:status IN ('pending','accepted','in_progress','completed','cancelled')"`
	PaymentStatus PaymentStatus `json:"payment_status" gorm:"type:varchar(20);not null;default:'pending'"`

	// TotalAmount is the final partner-adjusted price, immutable once set.
	TotalAmount float64 `json:"total_amount" gorm:"type:decimal(10,2);not null"`
	SelfDrop    bool    `json:"self_drop" gorm:"default:false"`

	Address     string   `json:"address" gorm:"type:text;not null"`
	LocationLat *float64 `json:"location_lat" gorm:"type:decimal(10,8)"`
	LocationLng *float64 `json:"location_lng" gorm:"type:decimal(11,8)"`

	CancellationReason string     `json:"cancellation_reason,omitempty" gorm:"type:text"`
	WarrantyValidUntil *time.Time `json:"warranty_valid_until,omitempty"`
	StartedAt          *time.Time `json:"started_at,omitempty"`
	CompletedAt        *time.Time `json:"completed_at,omitempty"`

	CreatedAt time.Time      `json:"created_at" gorm:"autoCreateTime"`
	UpdatedAt time.Time      `json:"updated_at" gorm:"autoUpdateTime"`
	DeletedAt gorm.DeletedAt `json:"deleted_at,omitempty" gorm:"index"`

	// Relationships
	Customer User           `json:"customer,omitempty" gorm:"foreignKey:CustomerID"`
	Partner  PartnerProfile `json:"partner,omitempty" gorm:"foreignKey:PartnerID"`
	Service  Service        `json:"service,omitempty" gorm:"foreignKey:ServiceID"`
}

// TableName specifies the table name for the Booking model
func (Booking) TableName() string {
	return "bookings"
}

// IsActive reports whether the booking still blocks its slot. Completed and
// cancelled bookings never block.
func (b *Booking) IsActive() bool {
	switch b.Status {
	case BookingStatusPending, BookingStatusAccepted, BookingStatusInProgress:
		return true
	}
	return false
}

// ActiveStatuses are the statuses that block a partner's slot.
func ActiveStatuses() []BookingStatus {
	return []BookingStatus{
		BookingStatusPending,
		BookingStatusAccepted,
		BookingStatusInProgress,
	}
}

// validTransitions is the full lifecycle graph. Anything not listed is
// rejected: pending -> accepted -> in_progress -> completed, with cancelled
// reachable from pending and accepted only.
var validTransitions = map[BookingStatus][]BookingStatus{
	BookingStatusPending:    {BookingStatusAccepted, BookingStatusCancelled},
	BookingStatusAccepted:   {BookingStatusInProgress, BookingStatusCancelled},
	BookingStatusInProgress: {BookingStatusCompleted},
}

// IsValidTransition reports whether the status change from -> to is legal.
func IsValidTransition(from, to BookingStatus) bool {
	for _, next := range validTransitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

// IsLockedStatus reports whether a status is terminal. Locked bookings accept
// no further transitions.
func IsLockedStatus(status BookingStatus) bool {
	return status == BookingStatusCompleted || status == BookingStatusCancelled
}

// BookingCreate is the request payload for creating a booking.
type BookingCreate struct {
	PartnerID     uint     `json:"partner_id" binding:"required"`
	ServiceID     uint     `json:"service_id" binding:"required"`
	ScheduledTime string   `json:"scheduled_time"` // RFC3339; empty means instant
	Address       string   `json:"address" binding:"required"`
	LocationLat   *float64 `json:"location_lat"`
	LocationLng   *float64 `json:"location_lng"`
	SelfDrop      bool     `json:"self_drop"`
}

// BookingStatusUpdate is the request payload for a status transition.
type BookingStatusUpdate struct {
	Status BookingStatus `json:"status" binding:"required"`
	Reason string        `json:"reason"`
}
