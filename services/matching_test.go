package services

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"home-service-server/config"
	"home-service-server/models"
	"home-service-server/utils"
)

var testCustomerLoc = utils.Location{Latitude: 18.08, Longitude: -15.96}

// newEngineFixture builds an engine over a five-partner roster for service 1
// (category 1, base price 500). Latitude offsets from the customer put the
// partners at roughly 0, 2.2, 5.6 and 10 km; partner 5 has no location.
func newEngineFixture() (*MatchingEngine, *memStore, *stubDirectory, *recordingNotifier) {
	cfg := config.Booking()
	store := newMemStore()
	directory := &stubDirectory{
		services: map[uint]*models.Service{
			1: {ID: 1, CategoryID: 1, Name: "Sofa Cleaning", BasePrice: 500, IsActive: true},
		},
		partners: []models.PartnerProfile{
			{ID: 1, UserID: 101, CategoryID: 1, DisplayName: "P1", PriceMultiplier: 1, IsAvailable: true, IsVerified: true,
				CurrentLat: ptrFloat(18.08), CurrentLng: ptrFloat(-15.96)},
			{ID: 2, UserID: 102, CategoryID: 1, DisplayName: "P2", PriceMultiplier: 1.1, IsAvailable: true, IsVerified: true,
				CurrentLat: ptrFloat(18.10), CurrentLng: ptrFloat(-15.96)},
			{ID: 3, UserID: 103, CategoryID: 1, DisplayName: "P3", PriceMultiplier: 1, IsAvailable: true, IsVerified: true,
				CurrentLat: ptrFloat(18.13), CurrentLng: ptrFloat(-15.96)},
			{ID: 4, UserID: 104, CategoryID: 1, DisplayName: "P4", PriceMultiplier: 1.1, IsAvailable: true, IsVerified: true,
				CurrentLat: ptrFloat(18.17), CurrentLng: ptrFloat(-15.96)},
			{ID: 5, UserID: 105, CategoryID: 1, DisplayName: "P5", PriceMultiplier: 1, IsAvailable: true, IsVerified: true},
		},
	}
	notifier := &recordingNotifier{}
	availability := NewAvailabilityChecker(store, cfg)
	engine := NewMatchingEngine(store, directory, availability, notifier, cfg)
	return engine, store, directory, notifier
}

func futureSlot() time.Time {
	return time.Now().UTC().Add(48 * time.Hour).Truncate(time.Hour)
}

func matchedIDs(matches []PartnerMatch) []uint {
	ids := make([]uint, len(matches))
	for i, m := range matches {
		ids[i] = m.Partner.ID
	}
	return ids
}

func TestRankPartnersOrderingAndTiers(t *testing.T) {
	engine, _, _, _ := newEngineFixture()

	matches, err := engine.RankPartners(context.Background(), MatchRequest{
		ServiceID:        1,
		Start:            futureSlot(),
		CustomerLocation: &testCustomerLoc,
	})
	require.NoError(t, err)

	// Everyone free: ascending distance, unknown location last.
	assert.Equal(t, []uint{1, 2, 3, 4, 5}, matchedIDs(matches))
	for _, m := range matches {
		assert.True(t, m.Available)
	}

	assert.Equal(t, TierPrimary, matches[0].Tier)
	assert.Equal(t, TierPrimary, matches[1].Tier)
	assert.Equal(t, TierPrimary, matches[2].Tier)
	assert.Equal(t, TierSecondary, matches[3].Tier)
	assert.Equal(t, TierSecondary, matches[4].Tier)

	// Partners without a location carry no distance fields.
	assert.Nil(t, matches[4].DistanceKm)
	assert.Empty(t, matches[4].DistanceLabel)
	require.NotNil(t, matches[0].DistanceKm)
	assert.InDelta(t, 0, *matches[0].DistanceKm, 0.01)
}

func TestRankPartnersBusyLast(t *testing.T) {
	engine, store, _, _ := newEngineFixture()
	start := futureSlot()

	// The nearest partner is booked for the slot; they sink below every free
	// partner but stay listed as an explicit availability signal.
	store.seedBooking(1, models.BookingStatusAccepted, start)

	matches, err := engine.RankPartners(context.Background(), MatchRequest{
		ServiceID:        1,
		Start:            start,
		CustomerLocation: &testCustomerLoc,
	})
	require.NoError(t, err)

	// Partner 1 would land at index 4, past the primary tier, so busy means
	// dropped entirely.
	assert.Equal(t, []uint{2, 3, 4, 5}, matchedIDs(matches))
	for _, m := range matches {
		assert.True(t, m.Available)
	}
}

func TestRankPartnersBusyShownInsidePrimaryTier(t *testing.T) {
	engine, store, directory, _ := newEngineFixture()
	directory.partners = directory.partners[:3]
	start := futureSlot()
	store.seedBooking(1, models.BookingStatusAccepted, start)

	matches, err := engine.RankPartners(context.Background(), MatchRequest{
		ServiceID:        1,
		Start:            start,
		CustomerLocation: &testCustomerLoc,
	})
	require.NoError(t, err)

	require.Equal(t, []uint{2, 3, 1}, matchedIDs(matches))
	assert.Equal(t, TierPrimary, matches[2].Tier)
	assert.False(t, matches[2].Available)
	assert.True(t, matches[0].Available)
}

func TestRankPartnersInstantSkipsBusyComputation(t *testing.T) {
	engine, store, _, _ := newEngineFixture()

	// An active booking right now does not mark the partner busy for instant
	// requests; there is no future slot to conflict on.
	store.seedBooking(1, models.BookingStatusInProgress, time.Now().UTC())

	matches, err := engine.RankPartners(context.Background(), MatchRequest{
		ServiceID:        1,
		CustomerLocation: &testCustomerLoc,
	})
	require.NoError(t, err)
	require.Len(t, matches, 5)
	for _, m := range matches {
		assert.True(t, m.Available)
	}
}

func TestRankPartnersDeterministic(t *testing.T) {
	engine, store, _, _ := newEngineFixture()
	start := futureSlot()
	store.seedBooking(2, models.BookingStatusPending, start)

	req := MatchRequest{ServiceID: 1, Start: start, CustomerLocation: &testCustomerLoc}
	first, err := engine.RankPartners(context.Background(), req)
	require.NoError(t, err)
	second, err := engine.RankPartners(context.Background(), req)
	require.NoError(t, err)
	assert.Equal(t, first, second)
}

func TestRankPartnersUnknownService(t *testing.T) {
	engine, _, _, _ := newEngineFixture()
	_, err := engine.RankPartners(context.Background(), MatchRequest{ServiceID: 99})
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestRankPartnersStoreErrorPropagates(t *testing.T) {
	engine, store, _, _ := newEngineFixture()
	store.readErr = assert.AnError

	_, err := engine.RankPartners(context.Background(), MatchRequest{ServiceID: 1, Start: futureSlot()})
	assert.ErrorIs(t, err, ErrStoreUnavailable)
}

func TestPrice(t *testing.T) {
	engine, _, _, _ := newEngineFixture()

	// round(500 x 1.1 x 1.2 + 50) = 710
	assert.Equal(t, 710.0, engine.price(500, 1.1, TierSecondary, 5.0, false))
	// Primary tier, same inputs: round(500 x 1.1 + 50) = 600
	assert.Equal(t, 600.0, engine.price(500, 1.1, TierPrimary, 5.0, false))
	// Self-drop removes the surcharge regardless of distance.
	assert.Equal(t, 660.0, engine.price(500, 1.1, TierSecondary, 12.0, true))
	// Unknown distance means no surcharge.
	assert.Equal(t, 500.0, engine.price(500, 1, TierPrimary, unknownDistanceKm, false))
}

func TestPriceSecondaryIsExactMarkupOfPrimary(t *testing.T) {
	engine, _, _, _ := newEngineFixture()

	// With self-drop there is no surcharge, so the tiers differ by exactly the
	// configured markup before rounding.
	primary := engine.price(500, 1.1, TierPrimary, 4.2, true)
	secondary := engine.price(500, 1.1, TierSecondary, 4.2, true)
	assert.InDelta(t, primary*1.2, secondary, 1e-9)
}

func TestCreateBookingScheduled(t *testing.T) {
	engine, _, _, notifier := newEngineFixture()
	start := futureSlot()

	booking, err := engine.CreateBooking(context.Background(), CreateBookingRequest{
		CustomerID:  201,
		PartnerID:   2,
		ServiceID:   1,
		Start:       start,
		Address:     "Tevragh Zeina, street 42",
		LocationLat: ptrFloat(testCustomerLoc.Latitude),
		LocationLng: ptrFloat(testCustomerLoc.Longitude),
	})
	require.NoError(t, err)

	assert.NotEmpty(t, booking.Reference)
	assert.Equal(t, models.BookingTypeScheduled, booking.Type)
	assert.Equal(t, models.BookingStatusPending, booking.Status)
	assert.Equal(t, models.PaymentStatusPending, booking.PaymentStatus)
	assert.Equal(t, start, booking.ScheduledTime)
	require.NotNil(t, booking.SlotBucket)
	assert.Equal(t, utils.SlotBucket(start), *booking.SlotBucket)
	assert.Equal(t, "Sofa Cleaning", booking.ServiceName)
	assert.Equal(t, 500.0, booking.ServicePrice)

	// Partner 2 ranks primary at ~2.2 km: round(500 x 1.1 + 0) = 550.
	assert.Equal(t, 550.0, booking.TotalAmount)

	// Both sides are notified.
	assert.Len(t, notifier.eventsFor(201), 1)
	assert.Len(t, notifier.eventsFor(102), 1)
}

func TestCreateBookingPriceMatchesQuote(t *testing.T) {
	engine, _, _, _ := newEngineFixture()
	start := futureSlot()

	matches, err := engine.RankPartners(context.Background(), MatchRequest{
		ServiceID:        1,
		Start:            start,
		CustomerLocation: &testCustomerLoc,
	})
	require.NoError(t, err)

	// Book the secondary-tier partner 4; the committed amount must equal the
	// quoted one.
	var quoted float64
	for _, m := range matches {
		if m.Partner.ID == 4 {
			require.Equal(t, TierSecondary, m.Tier)
			quoted = m.FinalPrice
		}
	}
	require.NotZero(t, quoted)

	booking, err := engine.CreateBooking(context.Background(), CreateBookingRequest{
		CustomerID:  201,
		PartnerID:   4,
		ServiceID:   1,
		Start:       start,
		LocationLat: ptrFloat(testCustomerLoc.Latitude),
		LocationLng: ptrFloat(testCustomerLoc.Longitude),
	})
	require.NoError(t, err)
	assert.Equal(t, quoted, booking.TotalAmount)
}

func TestCreateBookingInstant(t *testing.T) {
	engine, _, _, _ := newEngineFixture()

	first, err := engine.CreateBooking(context.Background(), CreateBookingRequest{
		CustomerID: 201, PartnerID: 1, ServiceID: 1,
	})
	require.NoError(t, err)
	assert.Equal(t, models.BookingTypeInstant, first.Type)
	assert.Nil(t, first.SlotBucket)

	// Instant bookings do not collide on a slot bucket.
	second, err := engine.CreateBooking(context.Background(), CreateBookingRequest{
		CustomerID: 202, PartnerID: 1, ServiceID: 1,
	})
	require.NoError(t, err)
	assert.NotEqual(t, first.Reference, second.Reference)
}

func TestCreateBookingAfterEarlyCompletion(t *testing.T) {
	engine, store, _, _ := newEngineFixture()
	start := futureSlot()

	// The slot's previous booking finished early; terminal bookings release
	// both the availability scan and the storage-level uniqueness constraint.
	store.seedBooking(2, models.BookingStatusCompleted, start)

	booking, err := engine.CreateBooking(context.Background(), CreateBookingRequest{
		CustomerID: 201, PartnerID: 2, ServiceID: 1, Start: start,
	})
	require.NoError(t, err)
	assert.Equal(t, models.BookingStatusPending, booking.Status)
	require.NotNil(t, booking.SlotBucket)
	assert.Equal(t, utils.SlotBucket(start), *booking.SlotBucket)
}

func TestCreateBookingConflictingSlot(t *testing.T) {
	engine, store, _, _ := newEngineFixture()
	start := futureSlot()
	store.seedBooking(2, models.BookingStatusAccepted, start)

	// Overlapping but not identical start: caught by the commit-time re-check.
	_, err := engine.CreateBooking(context.Background(), CreateBookingRequest{
		CustomerID: 201, PartnerID: 2, ServiceID: 1, Start: start.Add(time.Hour),
	})
	assert.ErrorIs(t, err, ErrPartnerNoLongerAvailable)
}

func TestCreateBookingRaceAdmitsOne(t *testing.T) {
	engine, _, _, _ := newEngineFixture()
	start := futureSlot()

	results := make([]error, 2)
	var wg sync.WaitGroup
	for i := 0; i < 2; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, results[i] = engine.CreateBooking(context.Background(), CreateBookingRequest{
				CustomerID: uint(201 + i), PartnerID: 3, ServiceID: 1, Start: start,
			})
		}(i)
	}
	wg.Wait()

	succeeded, lost := 0, 0
	for _, err := range results {
		switch {
		case err == nil:
			succeeded++
		case assert.ErrorIs(t, err, ErrPartnerNoLongerAvailable):
			lost++
		}
	}
	assert.Equal(t, 1, succeeded)
	assert.Equal(t, 1, lost)
}

func TestCreateBookingSelfForbidden(t *testing.T) {
	engine, _, _, _ := newEngineFixture()

	// User 102 owns partner profile 2.
	_, err := engine.CreateBooking(context.Background(), CreateBookingRequest{
		CustomerID: 102, PartnerID: 2, ServiceID: 1, Start: futureSlot(),
	})
	assert.ErrorIs(t, err, ErrForbidden)
}

func TestCreateBookingValidation(t *testing.T) {
	engine, _, directory, _ := newEngineFixture()
	start := futureSlot()

	t.Run("unknown service", func(t *testing.T) {
		_, err := engine.CreateBooking(context.Background(), CreateBookingRequest{
			CustomerID: 201, PartnerID: 1, ServiceID: 99, Start: start,
		})
		assert.ErrorIs(t, err, ErrNotFound)
	})

	t.Run("unknown partner", func(t *testing.T) {
		_, err := engine.CreateBooking(context.Background(), CreateBookingRequest{
			CustomerID: 201, PartnerID: 99, ServiceID: 1, Start: start,
		})
		assert.ErrorIs(t, err, ErrNotFound)
	})

	t.Run("category mismatch", func(t *testing.T) {
		directory.services[2] = &models.Service{ID: 2, CategoryID: 9, Name: "AC Repair", BasePrice: 800, IsActive: true}
		_, err := engine.CreateBooking(context.Background(), CreateBookingRequest{
			CustomerID: 201, PartnerID: 1, ServiceID: 2, Start: start,
		})
		assert.ErrorIs(t, err, ErrInvalidInput)
	})

	t.Run("past start", func(t *testing.T) {
		_, err := engine.CreateBooking(context.Background(), CreateBookingRequest{
			CustomerID: 201, PartnerID: 1, ServiceID: 1, Start: time.Now().Add(-time.Hour),
		})
		assert.ErrorIs(t, err, ErrInvalidInput)
	})

	t.Run("bad coordinates", func(t *testing.T) {
		_, err := engine.CreateBooking(context.Background(), CreateBookingRequest{
			CustomerID: 201, PartnerID: 1, ServiceID: 1, Start: start,
			LocationLat: ptrFloat(95), LocationLng: ptrFloat(0),
		})
		assert.ErrorIs(t, err, ErrInvalidInput)
	})
}

func TestCreateBookingOfflinePartner(t *testing.T) {
	engine, _, directory, _ := newEngineFixture()
	directory.partners[0].IsAvailable = false

	// The partner exists but no longer appears in the ranked list.
	_, err := engine.CreateBooking(context.Background(), CreateBookingRequest{
		CustomerID: 201, PartnerID: 1, ServiceID: 1, Start: futureSlot(),
	})
	assert.ErrorIs(t, err, ErrPartnerNoLongerAvailable)
}
