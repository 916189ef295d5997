package services

import (
	"context"
	"log"
	"time"

	"home-service-server/config"
	"home-service-server/models"
)

// BookingService applies status transitions and their side effects. It is the
// only writer of booking status, payment status and warranty fields.
type BookingService struct {
	store     BookingStore
	directory Directory
	notifier  Notifier
	cfg       config.BookingConfig
}

func NewBookingService(store BookingStore, directory Directory, notifier Notifier, cfg config.BookingConfig) *BookingService {
	return &BookingService{store: store, directory: directory, notifier: notifier, cfg: cfg}
}

// GetBooking loads a booking, enforcing that only the customer, the assigned
// partner, or an admin may read it.
func (s *BookingService) GetBooking(ctx context.Context, id uint, actorID uint, actorRole models.UserRole) (*models.Booking, error) {
	booking, err := s.store.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if booking == nil {
		return nil, ErrNotFound
	}
	if err := s.authorizeRead(ctx, booking, actorID, actorRole); err != nil {
		return nil, err
	}
	return booking, nil
}

func (s *BookingService) authorizeRead(ctx context.Context, booking *models.Booking, actorID uint, actorRole models.UserRole) error {
	if actorRole == models.RoleAdmin || booking.CustomerID == actorID {
		return nil
	}
	if actorRole == models.RolePartner {
		profile, err := s.directory.GetPartnerByUserID(ctx, actorID)
		if err != nil {
			return err
		}
		if profile != nil && profile.ID == booking.PartnerID {
			return nil
		}
	}
	return ErrForbidden
}

// TransitionStatus advances a booking through the lifecycle graph. Role and
// ownership are checked before any mutation; invalid transitions carry the
// current and requested status back to the caller.
func (s *BookingService) TransitionStatus(ctx context.Context, bookingID uint, to models.BookingStatus, actorID uint, actorRole models.UserRole, reason string) (*models.Booking, error) {
	booking, err := s.store.GetByID(ctx, bookingID)
	if err != nil {
		return nil, err
	}
	if booking == nil {
		return nil, ErrNotFound
	}

	if err := s.authorizeTransition(ctx, booking, to, actorID, actorRole); err != nil {
		return nil, err
	}

	from := booking.Status
	if !models.IsValidTransition(from, to) {
		return nil, &InvalidTransitionError{From: from, To: to}
	}

	now := time.Now()
	fields := map[string]interface{}{"status": to}
	switch to {
	case models.BookingStatusInProgress:
		fields["started_at"] = now
	case models.BookingStatusCompleted:
		// Cash on delivery is treated as collected on completion.
		warranty := now.AddDate(0, 0, s.cfg.WarrantyDays)
		fields["payment_status"] = models.PaymentStatusPaid
		fields["warranty_valid_until"] = warranty
		fields["completed_at"] = now
	case models.BookingStatusCancelled:
		fields["cancellation_reason"] = reason
	}

	if err := s.store.UpdateFields(ctx, booking.ID, fields); err != nil {
		return nil, err
	}

	updated, err := s.store.GetByID(ctx, booking.ID)
	if err != nil || updated == nil {
		// The write went through; fall back to the in-memory view.
		updated = booking
		updated.Status = to
	}

	log.Printf("booking %s transitioned %s -> %s by user %d (%s)",
		booking.Reference, from, to, actorID, actorRole)

	s.notifyTransition(ctx, updated, to)
	return updated, nil
}

func (s *BookingService) authorizeTransition(ctx context.Context, booking *models.Booking, to models.BookingStatus, actorID uint, actorRole models.UserRole) error {
	switch actorRole {
	case models.RoleAdmin:
		return nil
	case models.RoleCustomer:
		// Customers may only cancel their own bookings.
		if booking.CustomerID == actorID && to == models.BookingStatusCancelled {
			return nil
		}
	case models.RolePartner:
		profile, err := s.directory.GetPartnerByUserID(ctx, actorID)
		if err != nil {
			return err
		}
		if profile == nil || profile.ID != booking.PartnerID {
			return ErrForbidden
		}
		switch to {
		case models.BookingStatusAccepted, models.BookingStatusInProgress, models.BookingStatusCompleted, models.BookingStatusCancelled:
			return nil
		}
	}
	return ErrForbidden
}

// statusNotifications maps each new status to the customer-facing intent.
var statusNotifications = map[models.BookingStatus]struct {
	title, body, ntype string
}{
	models.BookingStatusAccepted:   {"Booking Accepted", "A professional has accepted your booking and will be there at the scheduled time.", "booking_accepted"},
	models.BookingStatusInProgress: {"Work Started", "Your service professional has started working on your booking.", "booking_in_progress"},
	models.BookingStatusCompleted:  {"Service Completed", "Your booking has been completed. Payment is collected and your warranty is active.", "booking_completed"},
	models.BookingStatusCancelled:  {"Booking Cancelled", "Your booking has been cancelled.", "booking_cancelled"},
}

func (s *BookingService) notifyTransition(ctx context.Context, booking *models.Booking, to models.BookingStatus) {
	msg, ok := statusNotifications[to]
	if !ok {
		msg = struct{ title, body, ntype string }{"Booking Update", "Your booking status has been updated.", "system"}
	}
	s.notifier.Notify(booking.CustomerID, msg.title, msg.body, msg.ntype, booking.Reference)

	// The partner hears about it too, through their user account.
	if partner, err := s.directory.GetPartner(ctx, booking.PartnerID); err == nil && partner != nil {
		s.notifier.Notify(partner.UserID, msg.title, "Booking "+booking.Reference+": "+msg.body, msg.ntype, booking.Reference)
	}
}

// ExpireStalePending cancels scheduled bookings still pending after their slot
// has fully passed, through the same transition path as everything else.
// Returns the number of bookings expired.
func (s *BookingService) ExpireStalePending(ctx context.Context) (int, error) {
	cutoff := time.Now().Add(-s.cfg.SlotDuration)
	stale, err := s.store.PendingScheduledBefore(ctx, cutoff)
	if err != nil {
		return 0, err
	}

	expired := 0
	for i := range stale {
		_, err := s.TransitionStatus(ctx, stale[i].ID, models.BookingStatusCancelled, 0, models.RoleAdmin, "expired before acceptance")
		if err != nil {
			log.Printf("failed to expire booking %s: %v", stale[i].Reference, err)
			continue
		}
		expired++
	}
	return expired, nil
}
