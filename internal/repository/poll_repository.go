package repository

import (
	"github.com/yukikurage/tripmate-api/internal/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// GormPollRepository is a GORM implementation of PollRepository
type GormPollRepository struct {
	db *gorm.DB
}

// NewPollRepository creates a new PollRepository
func NewPollRepository(db *gorm.DB) PollRepository {
	return &GormPollRepository{db: db}
}

func orderedOptions(db *gorm.DB) *gorm.DB {
	return db.Order("position ASC")
}

func orderedVotes(db *gorm.DB) *gorm.DB {
	return db.Order("created_at ASC, user_id ASC")
}

// Create creates a new poll together with its options
func (r *GormPollRepository) Create(poll *models.Poll) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		if err := lockMembership(tx, poll.TripID, poll.CreatedBy); err != nil {
			return err
		}

		if err := tx.Omit(clause.Associations).Create(poll).Error; err != nil {
			return err
		}

		for i := range poll.Options {
			poll.Options[i].PollID = poll.ID
			poll.Options[i].Position = i
		}
		if len(poll.Options) > 0 {
			if err := tx.Create(&poll.Options).Error; err != nil {
				return err
			}
		}
		return nil
	})
}

// FindByID finds a poll by ID with options and votes
func (r *GormPollRepository) FindByID(id string) (*models.Poll, error) {
	var poll models.Poll
	if err := r.db.Preload("Options", orderedOptions).
		Preload("Votes", orderedVotes).
		First(&poll, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &poll, nil
}

// ListByTrip lists all polls of a trip
func (r *GormPollRepository) ListByTrip(tripID string) ([]models.Poll, error) {
	var polls []models.Poll
	if err := r.db.Preload("Options", orderedOptions).
		Preload("Votes", orderedVotes).
		Where("trip_id = ?", tripID).
		Order("created_at DESC").
		Find(&polls).Error; err != nil {
		return nil, err
	}
	return polls, nil
}

// AddVote inserts the vote atomically; false means the user already voted
func (r *GormPollRepository) AddVote(vote *models.PollVote) (bool, error) {
	res := r.db.Clauses(clause.OnConflict{DoNothing: true}).Create(vote)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}
