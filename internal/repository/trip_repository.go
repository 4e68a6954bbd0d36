package repository

import (
	"errors"

	"github.com/yukikurage/tripmate-api/internal/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// GormTripRepository is a GORM implementation of TripRepository
type GormTripRepository struct {
	db *gorm.DB
}

// NewTripRepository creates a new TripRepository
func NewTripRepository(db *gorm.DB) TripRepository {
	return &GormTripRepository{db: db}
}

func orderedMembers(db *gorm.DB) *gorm.DB {
	return db.Order("joined_at ASC, user_id ASC")
}

// CreateWithOwner creates the trip and the owner membership in a transaction
func (r *GormTripRepository) CreateWithOwner(trip *models.Trip, owner *models.TripMember) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Omit(clause.Associations).Create(trip).Error; err != nil {
			return err
		}

		owner.TripID = trip.ID
		if err := tx.Omit(clause.Associations).Create(owner).Error; err != nil {
			return err
		}

		trip.Members = []models.TripMember{*owner}
		return nil
	})
}

// FindByID finds a trip by ID
func (r *GormTripRepository) FindByID(id string) (*models.Trip, error) {
	var trip models.Trip
	if err := r.db.Preload("Members", orderedMembers).
		Preload("Members.User").
		First(&trip, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &trip, nil
}

// FindByJoinCode finds a trip by join code
func (r *GormTripRepository) FindByJoinCode(code string) (*models.Trip, error) {
	var trip models.Trip
	if err := r.db.Preload("Members", orderedMembers).
		Where("join_code = ?", code).
		First(&trip).Error; err != nil {
		return nil, err
	}
	return &trip, nil
}

// Update updates a trip
func (r *GormTripRepository) Update(trip *models.Trip) error {
	return r.db.Omit(clause.Associations).Save(trip).Error
}

// Delete deletes a trip and all related data in a transaction
func (r *GormTripRepository) Delete(id, requesterID string) ([]string, error) {
	var refs []string
	err := r.db.Transaction(func(tx *gorm.DB) error {
		trip, err := lockTrip(tx, id, "UPDATE")
		if err != nil {
			return err
		}
		if !trip.IsAdmin(requesterID) {
			return ErrAdminRequired
		}

		refs, err = deleteTripCascade(tx, id)
		return err
	})
	if err != nil {
		return nil, err
	}
	return refs, nil
}

// lockTrip loads the trip with its members, holding a row lock of the
// given strength on the trip until the transaction ends.
func lockTrip(tx *gorm.DB, id, strength string) (*models.Trip, error) {
	var trip models.Trip
	if err := tx.Clauses(clause.Locking{Strength: strength}).
		First(&trip, "id = ?", id).Error; err != nil {
		return nil, err
	}
	if err := tx.Scopes(orderedMembers).
		Where("trip_id = ?", id).
		Find(&trip.Members).Error; err != nil {
		return nil, err
	}
	return &trip, nil
}

// lockMembership takes a shared lock on the trip row and checks that
// userID still belongs to it. Trip deletion locks the same row
// exclusively, so rows written in this transaction never outlive the trip.
func lockMembership(tx *gorm.DB, tripID, userID string) error {
	trip, err := lockTrip(tx, tripID, "SHARE")
	if err != nil {
		return err
	}
	if !trip.IsMember(userID) {
		return ErrMemberNotFound
	}
	return nil
}

// deleteTripCascade removes every row that belongs to the trip, children
// first. It must run inside a transaction.
func deleteTripCascade(tx *gorm.DB, tripID string) ([]string, error) {
	var refs []string
	if err := tx.Model(&models.GalleryItem{}).
		Where("trip_id = ?", tripID).
		Pluck("external_ref", &refs).Error; err != nil {
		return nil, err
	}

	pollIDs := func() *gorm.DB {
		return tx.Model(&models.Poll{}).Select("id").Where("trip_id = ?", tripID)
	}

	if err := tx.Where("poll_id IN (?)", pollIDs()).Delete(&models.PollVote{}).Error; err != nil {
		return nil, err
	}
	if err := tx.Where("poll_id IN (?)", pollIDs()).Delete(&models.PollOption{}).Error; err != nil {
		return nil, err
	}
	if err := tx.Where("trip_id = ?", tripID).Delete(&models.Poll{}).Error; err != nil {
		return nil, err
	}
	if err := tx.Where("trip_id = ?", tripID).Delete(&models.GalleryItem{}).Error; err != nil {
		return nil, err
	}
	if err := tx.Where("trip_id = ?", tripID).Delete(&models.TripMember{}).Error; err != nil {
		return nil, err
	}
	if err := tx.Where("id = ?", tripID).Delete(&models.Trip{}).Error; err != nil {
		return nil, err
	}

	return refs, nil
}

// AddMember adds a member to a trip; an existing membership is left untouched
func (r *GormTripRepository) AddMember(member *models.TripMember) (bool, error) {
	res := r.db.Omit(clause.Associations).
		Clauses(clause.OnConflict{DoNothing: true}).
		Create(member)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

// RemoveMember removes a member from a trip. The trip row is locked for the
// duration so concurrent membership changes on the same trip serialize.
// When the last member leaves the trip is deleted; when the last admin
// leaves the longest-standing remaining member becomes admin.
func (r *GormTripRepository) RemoveMember(tripID, userID, requesterID string) (*RemovalResult, error) {
	result := &RemovalResult{}

	err := r.db.Transaction(func(tx *gorm.DB) error {
		trip, err := lockTrip(tx, tripID, "UPDATE")
		if err != nil {
			return err
		}

		if requesterID != userID && !trip.IsAdmin(requesterID) {
			return ErrAdminRequired
		}
		if !trip.IsMember(userID) {
			return ErrMemberNotFound
		}

		if err := tx.Where("trip_id = ? AND user_id = ?", tripID, userID).
			Delete(&models.TripMember{}).Error; err != nil {
			return err
		}

		next := trip.NextAdminCandidate(userID)
		if next == nil {
			refs, err := deleteTripCascade(tx, tripID)
			if err != nil {
				return err
			}
			result.TripDeleted = true
			result.ExternalRefs = refs
			return nil
		}

		if trip.AdminCount(userID) == 0 {
			if err := tx.Model(&models.TripMember{}).
				Where("trip_id = ? AND user_id = ?", tripID, next.UserID).
				Update("role", models.TripRoleAdmin).Error; err != nil {
				return err
			}
			result.PromotedUserID = next.UserID
		}

		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

// FindMember finds a specific trip member
func (r *GormTripRepository) FindMember(tripID, userID string) (*models.TripMember, error) {
	var member models.TripMember
	if err := r.db.Where("trip_id = ? AND user_id = ?", tripID, userID).
		First(&member).Error; err != nil {
		return nil, err
	}
	return &member, nil
}

// ListMembersByUserID lists all trips a user is a member of
func (r *GormTripRepository) ListMembersByUserID(userID string) ([]models.TripMember, error) {
	var memberships []models.TripMember
	if err := r.db.Preload("Trip").
		Joins("JOIN trips ON trips.id = trip_members.trip_id").
		Where("trip_members.user_id = ?", userID).
		Order("trips.created_at DESC").
		Find(&memberships).Error; err != nil {
		return nil, err
	}
	return memberships, nil
}

// IsNotFound reports whether err means the requested row does not exist.
func IsNotFound(err error) bool {
	return errors.Is(err, gorm.ErrRecordNotFound)
}
