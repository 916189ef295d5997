package services

import (
	"context"
	"fmt"
	"time"

	"home-service-server/config"
	"home-service-server/models"
	"home-service-server/utils"
)

// AvailabilityChecker answers busy/free questions for partners by scanning
// same-day active bookings. It is read-only; on a store read error callers
// must treat the result as "unknown" and fail toward unavailable.
type AvailabilityChecker struct {
	store BookingStore
	cfg   config.BookingConfig
}

func NewAvailabilityChecker(store BookingStore, cfg config.BookingConfig) *AvailabilityChecker {
	return &AvailabilityChecker{store: store, cfg: cfg}
}

// BookingsOverlappingDay fetches the partner's active bookings whose scheduled
// time falls on the same calendar day as day. Scoping the fetch to one day
// bounds the data scanned per check.
func (a *AvailabilityChecker) BookingsOverlappingDay(ctx context.Context, partnerID uint, day time.Time) ([]models.Booking, error) {
	dayStart, dayEnd := utils.DayBoundaries(day, a.cfg.Timezone)
	bookings, err := a.store.ActiveForPartnerBetween(ctx, partnerID, dayStart, dayEnd)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}
	return bookings, nil
}

// IsPartnerAvailable reports whether the partner is free for the candidate
// interval [candidateStart, candidateEnd). When busy, the conflicting booking
// is returned for diagnostics.
func (a *AvailabilityChecker) IsPartnerAvailable(ctx context.Context, partnerID uint, candidateStart, candidateEnd time.Time) (bool, *models.Booking, error) {
	bookings, err := a.BookingsOverlappingDay(ctx, partnerID, candidateStart)
	if err != nil {
		return false, nil, err
	}

	for i := range bookings {
		start := bookings[i].ScheduledTime
		end := utils.SlotEnd(start, a.cfg.SlotDuration)
		if utils.Overlaps(candidateStart, candidateEnd, start, end) {
			return false, &bookings[i], nil
		}
	}
	return true, nil, nil
}

// BusyPartnerIDs is the bulk variant used when ranking many partners at once.
// It returns the set of partners with an active booking overlapping the
// candidate interval; partnerIDs optionally restricts the scan.
func (a *AvailabilityChecker) BusyPartnerIDs(ctx context.Context, candidateStart, candidateEnd time.Time, partnerIDs []uint) (map[uint]bool, error) {
	dayStart, dayEnd := utils.DayBoundaries(candidateStart, a.cfg.Timezone)
	bookings, err := a.store.ActiveBetween(ctx, dayStart, dayEnd, partnerIDs)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}

	busy := make(map[uint]bool)
	for i := range bookings {
		if busy[bookings[i].PartnerID] {
			continue
		}
		start := bookings[i].ScheduledTime
		end := utils.SlotEnd(start, a.cfg.SlotDuration)
		if utils.Overlaps(candidateStart, candidateEnd, start, end) {
			busy[bookings[i].PartnerID] = true
		}
	}
	return busy, nil
}
