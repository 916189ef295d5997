package services

import (
	"context"
	"errors"
	"log"
	"math"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"home-service-server/config"
	"home-service-server/models"
	"home-service-server/utils"
)

type Tier string

const (
	// TierPrimary is the nearest-three group shown first. Busy partners only
	// ever appear here, as an explicit availability signal.
	TierPrimary Tier = "primary"
	// TierSecondary holds the remaining available partners, shown on request
	// at a price markup.
	TierSecondary Tier = "secondary"
)

// unknownDistanceKm ranks partners with no known location as though they were
// at maximum distance, last within their availability tier.
const unknownDistanceKm = math.MaxFloat64

// MatchRequest describes one partner-ranking query.
type MatchRequest struct {
	ServiceID uint
	// Start is the candidate slot start. Zero means an instant booking, which
	// has no future slot to conflict on and skips the busy computation.
	Start            time.Time
	CustomerLocation *utils.Location
	SelfDrop         bool
}

func (r *MatchRequest) IsInstant() bool {
	return r.Start.IsZero()
}

// PartnerMatch is one ranked, tiered, priced candidate.
type PartnerMatch struct {
	Partner       models.PartnerProfile `json:"partner"`
	Tier          Tier                  `json:"tier"`
	Available     bool                  `json:"available"`
	DistanceKm    *float64              `json:"distance_km,omitempty"`
	DistanceLabel string                `json:"distance_label,omitempty"`
	FinalPrice    float64               `json:"final_price"`
}

// CreateBookingRequest is the commit-time payload, carried explicitly through
// the flow instead of accumulated in ambient draft state.
type CreateBookingRequest struct {
	CustomerID uint
	PartnerID  uint
	ServiceID  uint
	// Start zero means instant.
	Start       time.Time
	Address     string
	LocationLat *float64
	LocationLng *float64
	SelfDrop    bool
}

// MatchingEngine ranks and prices partners for a request and owns the
// commit-time re-check that guards booking creation.
type MatchingEngine struct {
	store        BookingStore
	directory    Directory
	availability *AvailabilityChecker
	notifier     Notifier
	cfg          config.BookingConfig

	// One creation lock per partner: serializes the final re-check and insert
	// in-process. The partial unique index on (partner_id, slot_bucket) is the
	// second serialization point, at the storage layer.
	mu    sync.Mutex
	locks map[uint]*sync.Mutex
}

func NewMatchingEngine(store BookingStore, directory Directory, availability *AvailabilityChecker, notifier Notifier, cfg config.BookingConfig) *MatchingEngine {
	return &MatchingEngine{
		store:        store,
		directory:    directory,
		availability: availability,
		notifier:     notifier,
		cfg:          cfg,
		locks:        make(map[uint]*sync.Mutex),
	}
}

func (e *MatchingEngine) partnerLock(partnerID uint) *sync.Mutex {
	e.mu.Lock()
	defer e.mu.Unlock()
	lock, ok := e.locks[partnerID]
	if !ok {
		lock = &sync.Mutex{}
		e.locks[partnerID] = lock
	}
	return lock
}

// RankPartners produces the ordered, tiered, priced candidate list for a
// request. Ordering is deterministic for a given data snapshot: busy last,
// then ascending distance, then partner ID.
func (e *MatchingEngine) RankPartners(ctx context.Context, req MatchRequest) ([]PartnerMatch, error) {
	service, err := e.directory.GetService(ctx, req.ServiceID)
	if err != nil {
		return nil, err
	}
	if service == nil {
		return nil, ErrNotFound
	}

	partners, err := e.directory.PartnersForService(ctx, req.ServiceID)
	if err != nil {
		return nil, err
	}

	busy := map[uint]bool{}
	if !req.IsInstant() {
		ids := make([]uint, len(partners))
		for i := range partners {
			ids[i] = partners[i].ID
		}
		busy, err = e.availability.BusyPartnerIDs(ctx, req.Start, utils.SlotEnd(req.Start, e.cfg.SlotDuration), ids)
		if err != nil {
			return nil, err
		}
	}

	type candidate struct {
		partner  models.PartnerProfile
		busy     bool
		distance float64
	}
	candidates := make([]candidate, 0, len(partners))
	for _, p := range partners {
		d := unknownDistanceKm
		if req.CustomerLocation != nil && p.HasLocation() {
			d = utils.HaversineDistance(
				req.CustomerLocation.Latitude, req.CustomerLocation.Longitude,
				*p.CurrentLat, *p.CurrentLng,
			)
		}
		candidates = append(candidates, candidate{partner: p, busy: busy[p.ID], distance: d})
	}

	sort.SliceStable(candidates, func(i, j int) bool {
		if candidates[i].busy != candidates[j].busy {
			return !candidates[i].busy
		}
		if candidates[i].distance != candidates[j].distance {
			return candidates[i].distance < candidates[j].distance
		}
		return candidates[i].partner.ID < candidates[j].partner.ID
	})

	matches := make([]PartnerMatch, 0, len(candidates))
	for i, c := range candidates {
		tier := TierPrimary
		if i >= e.cfg.PrimaryTierSize {
			if c.busy {
				// Busy partners are only ever shown within the primary tier.
				continue
			}
			tier = TierSecondary
		}

		m := PartnerMatch{
			Partner:    c.partner,
			Tier:       tier,
			Available:  !c.busy,
			FinalPrice: e.price(service.BasePrice, c.partner.PriceMultiplier, tier, c.distance, req.SelfDrop),
		}
		if c.distance != unknownDistanceKm {
			d := c.distance
			m.DistanceKm = &d
			m.DistanceLabel = utils.FormatDistance(d)
		}
		matches = append(matches, m)
	}
	return matches, nil
}

// price computes round(base x multiplier x tierMarkup + distance surcharge),
// to the nearest whole currency unit. Self-drop removes the surcharge.
func (e *MatchingEngine) price(base, multiplier float64, tier Tier, distanceKm float64, selfDrop bool) float64 {
	amount := base * multiplier
	if tier == TierSecondary {
		amount *= e.cfg.SecondaryTierMarkup
	}
	if !selfDrop && distanceKm != unknownDistanceKm {
		amount += utils.DistanceSurcharge(distanceKm)
	}
	return math.Round(amount)
}

// CreateBooking re-verifies the partner's availability at the latest possible
// moment and persists the booking. Losing the race to a concurrent booking
// yields ErrPartnerNoLongerAvailable; the caller must re-rank, never silently
// pick a different partner.
func (e *MatchingEngine) CreateBooking(ctx context.Context, req CreateBookingRequest) (*models.Booking, error) {
	service, err := e.directory.GetService(ctx, req.ServiceID)
	if err != nil {
		return nil, err
	}
	if service == nil {
		return nil, ErrNotFound
	}

	partner, err := e.directory.GetPartner(ctx, req.PartnerID)
	if err != nil {
		return nil, err
	}
	if partner == nil {
		return nil, ErrNotFound
	}
	if partner.UserID == req.CustomerID {
		// A user cannot book themselves as partner.
		return nil, ErrForbidden
	}
	if partner.CategoryID != service.CategoryID {
		return nil, ErrInvalidInput
	}

	instant := req.Start.IsZero()
	now := time.Now()
	scheduledTime := now
	if !instant {
		if req.Start.Before(now) {
			return nil, ErrInvalidInput
		}
		scheduledTime = req.Start
	}
	if req.LocationLat != nil && req.LocationLng != nil && !utils.IsLocationValid(*req.LocationLat, *req.LocationLng) {
		return nil, ErrInvalidInput
	}

	distance := unknownDistanceKm
	if req.LocationLat != nil && req.LocationLng != nil && partner.HasLocation() {
		distance = utils.HaversineDistance(*req.LocationLat, *req.LocationLng, *partner.CurrentLat, *partner.CurrentLng)
	}
	tier, err := e.tierFor(ctx, req, service, partner)
	if err != nil {
		return nil, err
	}

	booking := &models.Booking{
		Reference:     uuid.NewString(),
		CustomerID:    req.CustomerID,
		PartnerID:     partner.ID,
		ServiceID:     service.ID,
		ServiceName:   service.Name,
		ServicePrice:  service.BasePrice,
		ScheduledTime: scheduledTime,
		Status:        models.BookingStatusPending,
		PaymentStatus: models.PaymentStatusPending,
		TotalAmount:   e.price(service.BasePrice, partner.PriceMultiplier, tier, distance, req.SelfDrop),
		SelfDrop:      req.SelfDrop,
		Address:       req.Address,
		LocationLat:   req.LocationLat,
		LocationLng:   req.LocationLng,
	}
	if instant {
		booking.Type = models.BookingTypeInstant
	} else {
		booking.Type = models.BookingTypeScheduled
		bucket := utils.SlotBucket(scheduledTime)
		booking.SlotBucket = &bucket
	}

	lock := e.partnerLock(partner.ID)
	lock.Lock()
	defer lock.Unlock()

	if !instant {
		// Last check before the write: closes the window between listing and
		// commit. A read failure counts as unavailable.
		available, _, err := e.availability.IsPartnerAvailable(ctx, partner.ID, scheduledTime, utils.SlotEnd(scheduledTime, e.cfg.SlotDuration))
		if err != nil {
			return nil, err
		}
		if !available {
			return nil, ErrPartnerNoLongerAvailable
		}
	}

	if err := e.store.Insert(ctx, booking); err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, ErrPartnerNoLongerAvailable
		}
		return nil, err
	}

	log.Printf("booking %s created: customer %d, partner %d, service %d, %s at %s",
		booking.Reference, booking.CustomerID, booking.PartnerID, booking.ServiceID,
		booking.Type, booking.ScheduledTime.Format(time.RFC3339))

	e.notifier.Notify(booking.CustomerID, "Booking Created",
		"Your booking has been placed and is waiting for the partner to accept.",
		"booking_created", booking.Reference)
	e.notifier.Notify(partner.UserID, "New Booking Request",
		"You have a new booking request for "+booking.ServiceName+".",
		"booking_created", booking.Reference)

	return booking, nil
}

// tierFor recomputes the partner's tier from the same snapshot the customer
// ranked against, so the committed price matches the quoted one.
func (e *MatchingEngine) tierFor(ctx context.Context, req CreateBookingRequest, service *models.Service, partner *models.PartnerProfile) (Tier, error) {
	var loc *utils.Location
	if req.LocationLat != nil && req.LocationLng != nil {
		loc = &utils.Location{Latitude: *req.LocationLat, Longitude: *req.LocationLng}
	}
	matches, err := e.RankPartners(ctx, MatchRequest{
		ServiceID:        req.ServiceID,
		Start:            req.Start,
		CustomerLocation: loc,
		SelfDrop:         req.SelfDrop,
	})
	if err != nil {
		return "", err
	}
	for _, m := range matches {
		if m.Partner.ID == partner.ID {
			return m.Tier, nil
		}
	}
	// Not in the ranked list: offline, unverified, or a busy partner that fell
	// off the secondary tier.
	return "", ErrPartnerNoLongerAvailable
}
