package database

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"

	"home-service-server/models"
)

// BookingStore is the GORM implementation of the engine's booking persistence
// boundary. It never deletes rows.
type BookingStore struct {
	db *gorm.DB
}

func NewBookingStore(db *gorm.DB) *BookingStore {
	return &BookingStore{db: db}
}

func (s *BookingStore) Insert(ctx context.Context, booking *models.Booking) error {
	return s.db.WithContext(ctx).Create(booking).Error
}

func (s *BookingStore) GetByID(ctx context.Context, id uint) (*models.Booking, error) {
	var booking models.Booking
	err := s.db.WithContext(ctx).First(&booking, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &booking, nil
}

func (s *BookingStore) ActiveForPartnerBetween(ctx context.Context, partnerID uint, from, to time.Time) ([]models.Booking, error) {
	var bookings []models.Booking
	err := s.db.WithContext(ctx).
		Where("partner_id = ? AND status IN ? AND scheduled_time >= ? AND scheduled_time < ?",
			partnerID, models.ActiveStatuses(), from, to).
		Find(&bookings).Error
	return bookings, err
}

func (s *BookingStore) ActiveBetween(ctx context.Context, from, to time.Time, partnerIDs []uint) ([]models.Booking, error) {
	query := s.db.WithContext(ctx).
		Where("status IN ? AND scheduled_time >= ? AND scheduled_time < ?",
			models.ActiveStatuses(), from, to)
	if len(partnerIDs) > 0 {
		query = query.Where("partner_id IN ?", partnerIDs)
	}

	var bookings []models.Booking
	err := query.Find(&bookings).Error
	return bookings, err
}

func (s *BookingStore) PendingScheduledBefore(ctx context.Context, cutoff time.Time) ([]models.Booking, error) {
	var bookings []models.Booking
	err := s.db.WithContext(ctx).
		Where("type = ? AND status = ? AND scheduled_time <= ?",
			models.BookingTypeScheduled, models.BookingStatusPending, cutoff).
		Find(&bookings).Error
	return bookings, err
}

func (s *BookingStore) UpdateFields(ctx context.Context, id uint, fields map[string]interface{}) error {
	return s.db.WithContext(ctx).
		Model(&models.Booking{}).
		Where("id = ?", id).
		Updates(fields).Error
}

// ForCustomer returns the customer's bookings, newest first.
func (s *BookingStore) ForCustomer(ctx context.Context, customerID uint) ([]models.Booking, error) {
	var bookings []models.Booking
	err := s.db.WithContext(ctx).
		Where("customer_id = ?", customerID).
		Order("created_at DESC").
		Find(&bookings).Error
	return bookings, err
}

// ForPartner returns the bookings assigned to a partner profile, newest first.
func (s *BookingStore) ForPartner(ctx context.Context, partnerID uint) ([]models.Booking, error) {
	var bookings []models.Booking
	err := s.db.WithContext(ctx).
		Where("partner_id = ?", partnerID).
		Order("created_at DESC").
		Find(&bookings).Error
	return bookings, err
}
