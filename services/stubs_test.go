package services

import (
	"context"
	"sync"
	"time"

	"gorm.io/gorm"

	"home-service-server/models"
	"home-service-server/utils"
)

// memStore is an in-memory BookingStore with injectable failures, in the
// spirit of the hand-rolled repository stubs used across the codebase's tests.
type memStore struct {
	mu       sync.Mutex
	bookings []models.Booking
	nextID   uint

	readErr   error
	insertErr error
}

func newMemStore() *memStore {
	return &memStore{nextID: 1}
}

func (s *memStore) Insert(ctx context.Context, booking *models.Booking) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.insertErr != nil {
		return s.insertErr
	}
	// Emulates the partial unique index on (partner_id, slot_bucket) for
	// active bookings.
	if booking.SlotBucket != nil {
		for i := range s.bookings {
			existing := &s.bookings[i]
			if !existing.IsActive() || existing.SlotBucket == nil {
				continue
			}
			if existing.PartnerID == booking.PartnerID && *existing.SlotBucket == *booking.SlotBucket {
				return gorm.ErrDuplicatedKey
			}
		}
	}
	booking.ID = s.nextID
	s.nextID++
	booking.CreatedAt = time.Now()
	s.bookings = append(s.bookings, *booking)
	return nil
}

func (s *memStore) GetByID(ctx context.Context, id uint) (*models.Booking, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.readErr != nil {
		return nil, s.readErr
	}
	for i := range s.bookings {
		if s.bookings[i].ID == id {
			b := s.bookings[i]
			return &b, nil
		}
	}
	return nil, nil
}

func (s *memStore) ActiveForPartnerBetween(ctx context.Context, partnerID uint, from, to time.Time) ([]models.Booking, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.readErr != nil {
		return nil, s.readErr
	}
	var out []models.Booking
	for _, b := range s.bookings {
		if b.PartnerID == partnerID && b.IsActive() && !b.ScheduledTime.Before(from) && b.ScheduledTime.Before(to) {
			out = append(out, b)
		}
	}
	return out, nil
}

func (s *memStore) ActiveBetween(ctx context.Context, from, to time.Time, partnerIDs []uint) ([]models.Booking, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.readErr != nil {
		return nil, s.readErr
	}
	filter := map[uint]bool{}
	for _, id := range partnerIDs {
		filter[id] = true
	}
	var out []models.Booking
	for _, b := range s.bookings {
		if !b.IsActive() || b.ScheduledTime.Before(from) || !b.ScheduledTime.Before(to) {
			continue
		}
		if len(filter) > 0 && !filter[b.PartnerID] {
			continue
		}
		out = append(out, b)
	}
	return out, nil
}

func (s *memStore) PendingScheduledBefore(ctx context.Context, cutoff time.Time) ([]models.Booking, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.readErr != nil {
		return nil, s.readErr
	}
	var out []models.Booking
	for _, b := range s.bookings {
		if b.Type == models.BookingTypeScheduled && b.Status == models.BookingStatusPending && !b.ScheduledTime.After(cutoff) {
			out = append(out, b)
		}
	}
	return out, nil
}

func (s *memStore) UpdateFields(ctx context.Context, id uint, fields map[string]interface{}) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.bookings {
		if s.bookings[i].ID != id {
			continue
		}
		b := &s.bookings[i]
		if v, ok := fields["status"]; ok {
			b.Status = v.(models.BookingStatus)
		}
		if v, ok := fields["payment_status"]; ok {
			b.PaymentStatus = v.(models.PaymentStatus)
		}
		if v, ok := fields["warranty_valid_until"]; ok {
			t := v.(time.Time)
			b.WarrantyValidUntil = &t
		}
		if v, ok := fields["started_at"]; ok {
			t := v.(time.Time)
			b.StartedAt = &t
		}
		if v, ok := fields["completed_at"]; ok {
			t := v.(time.Time)
			b.CompletedAt = &t
		}
		if v, ok := fields["cancellation_reason"]; ok {
			b.CancellationReason = v.(string)
		}
		return nil
	}
	return gorm.ErrRecordNotFound
}

// seedBooking inserts an active booking directly, bypassing the engine.
func (s *memStore) seedBooking(partnerID uint, status models.BookingStatus, scheduled time.Time) models.Booking {
	s.mu.Lock()
	defer s.mu.Unlock()
	bucket := utils.SlotBucket(scheduled)
	b := models.Booking{
		ID:            s.nextID,
		Reference:     "seed-" + bucket,
		CustomerID:    1000 + s.nextID,
		PartnerID:     partnerID,
		ServiceID:     1,
		Type:          models.BookingTypeScheduled,
		ScheduledTime: scheduled,
		SlotBucket:    &bucket,
		Status:        status,
		PaymentStatus: models.PaymentStatusPending,
	}
	s.nextID++
	s.bookings = append(s.bookings, b)
	return b
}

// stubDirectory serves a fixed roster and catalog.
type stubDirectory struct {
	services map[uint]*models.Service
	partners []models.PartnerProfile
	err      error
}

func (d *stubDirectory) PartnersForService(ctx context.Context, serviceID uint) ([]models.PartnerProfile, error) {
	if d.err != nil {
		return nil, d.err
	}
	svc := d.services[serviceID]
	if svc == nil {
		return nil, nil
	}
	var out []models.PartnerProfile
	for _, p := range d.partners {
		if p.CategoryID == svc.CategoryID && p.IsAvailable && p.IsVerified {
			out = append(out, p)
		}
	}
	return out, nil
}

func (d *stubDirectory) GetPartner(ctx context.Context, id uint) (*models.PartnerProfile, error) {
	if d.err != nil {
		return nil, d.err
	}
	for i := range d.partners {
		if d.partners[i].ID == id {
			p := d.partners[i]
			return &p, nil
		}
	}
	return nil, nil
}

func (d *stubDirectory) GetPartnerByUserID(ctx context.Context, userID uint) (*models.PartnerProfile, error) {
	if d.err != nil {
		return nil, d.err
	}
	for i := range d.partners {
		if d.partners[i].UserID == userID {
			p := d.partners[i]
			return &p, nil
		}
	}
	return nil, nil
}

func (d *stubDirectory) GetService(ctx context.Context, id uint) (*models.Service, error) {
	if d.err != nil {
		return nil, d.err
	}
	return d.services[id], nil
}

// recordingNotifier captures notification intents.
type recordingNotifier struct {
	mu     sync.Mutex
	events []notifyEvent
}

type notifyEvent struct {
	userID uint
	title  string
	ntype  string
}

func (n *recordingNotifier) Notify(userID uint, title, body, notificationType, linkHint string) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.events = append(n.events, notifyEvent{userID: userID, title: title, ntype: notificationType})
}

func (n *recordingNotifier) eventsFor(userID uint) []notifyEvent {
	n.mu.Lock()
	defer n.mu.Unlock()
	var out []notifyEvent
	for _, e := range n.events {
		if e.userID == userID {
			out = append(out, e)
		}
	}
	return out
}

func ptrFloat(f float64) *float64 { return &f }
