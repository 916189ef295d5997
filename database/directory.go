package database

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"home-service-server/models"
)

// Directory is the GORM implementation of the catalog/partner roster boundary.
// Reads only; the catalog is owned by the admin surface and partner aggregates
// by the review subsystem.
type Directory struct {
	db *gorm.DB
}

func NewDirectory(db *gorm.DB) *Directory {
	return &Directory{db: db}
}

func (d *Directory) PartnersForService(ctx context.Context, serviceID uint) ([]models.PartnerProfile, error) {
	var service models.Service
	err := d.db.WithContext(ctx).First(&service, serviceID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	var partners []models.PartnerProfile
	err = d.db.WithContext(ctx).
		Where("category_id = ? AND is_available = ? AND is_verified = ?", service.CategoryID, true, true).
		Order("id").
		Find(&partners).Error
	return partners, err
}

func (d *Directory) GetPartner(ctx context.Context, id uint) (*models.PartnerProfile, error) {
	var partner models.PartnerProfile
	err := d.db.WithContext(ctx).First(&partner, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &partner, nil
}

func (d *Directory) GetPartnerByUserID(ctx context.Context, userID uint) (*models.PartnerProfile, error) {
	var partner models.PartnerProfile
	err := d.db.WithContext(ctx).Where("user_id = ?", userID).First(&partner).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &partner, nil
}

func (d *Directory) GetService(ctx context.Context, id uint) (*models.Service, error) {
	var service models.Service
	err := d.db.WithContext(ctx).Where("is_active = ?", true).First(&service, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &service, nil
}
