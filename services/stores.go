package services

import (
	"context"
	"time"

	"home-service-server/models"
)

// BookingStore is the persistence boundary for bookings. The engine never
// deletes; cancellation is a terminal status, not a deletion.
type BookingStore interface {
	Insert(ctx context.Context, booking *models.Booking) error
	GetByID(ctx context.Context, id uint) (*models.Booking, error)

	// ActiveForPartnerBetween returns the partner's bookings in active status
	// (pending, accepted, in_progress) whose scheduled time falls in [from, to).
	ActiveForPartnerBetween(ctx context.Context, partnerID uint, from, to time.Time) ([]models.Booking, error)

	// ActiveBetween is the bulk variant across partners; an empty partnerIDs
	// slice means no partner filter.
	ActiveBetween(ctx context.Context, from, to time.Time, partnerIDs []uint) ([]models.Booking, error)

	// PendingScheduledBefore returns scheduled bookings still pending whose
	// scheduled time is at or before cutoff.
	PendingScheduledBefore(ctx context.Context, cutoff time.Time) ([]models.Booking, error)

	UpdateFields(ctx context.Context, id uint, fields map[string]interface{}) error
}

// Directory is the read-only catalog and partner roster boundary.
type Directory interface {
	// PartnersForService returns the online, verified partners qualified for
	// the service's category.
	PartnersForService(ctx context.Context, serviceID uint) ([]models.PartnerProfile, error)
	GetPartner(ctx context.Context, id uint) (*models.PartnerProfile, error)
	GetPartnerByUserID(ctx context.Context, userID uint) (*models.PartnerProfile, error)
	GetService(ctx context.Context, id uint) (*models.Service, error)
}

// Notifier hands notification intents to the delivery collaborator.
// Fire-and-forget: implementations log and swallow failures, they never fail
// the booking operation that emitted the intent.
type Notifier interface {
	Notify(userID uint, title, body, notificationType, linkHint string)
}
