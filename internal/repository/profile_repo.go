package repository

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"github.com/scouthq/paperscout/internal/domain"
)

// ProfileRepository provides read-only access to the subscriber's interest
// profile. This subsystem never writes it.
type ProfileRepository struct {
	db *gorm.DB
}

// NewProfileRepository creates a new ProfileRepository.
func NewProfileRepository(db *gorm.DB) *ProfileRepository {
	return &ProfileRepository{db: db}
}

// Get returns the profile row, or nil when none has been configured.
func (r *ProfileRepository) Get(ctx context.Context) (*domain.UserProfile, error) {
	var profile domain.UserProfile
	err := r.db.WithContext(ctx).Order("id ASC").First(&profile).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &profile, nil
}
