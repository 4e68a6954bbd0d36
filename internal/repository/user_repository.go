package repository

import (
	"crypto/subtle"
	"errors"
	"log/slog"
	"time"

	"github.com/yukikurage/tripmate-api/internal/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// GormUserRepository is a GORM implementation of UserRepository
type GormUserRepository struct {
	db *gorm.DB
}

// NewUserRepository creates a new UserRepository
func NewUserRepository(db *gorm.DB) UserRepository {
	return &GormUserRepository{db: db}
}

// Create creates a new user
func (r *GormUserRepository) Create(user *models.User) error {
	return r.db.Create(user).Error
}

// FindByID finds a user by ID
func (r *GormUserRepository) FindByID(id string) (*models.User, error) {
	var user models.User
	if err := r.db.First(&user, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &user, nil
}

// FindByEmail finds a user by email
func (r *GormUserRepository) FindByEmail(email string) (*models.User, error) {
	var user models.User
	if err := r.db.Where("email = ?", models.NormalizeEmail(email)).First(&user).Error; err != nil {
		return nil, err
	}
	return &user, nil
}

// SavePasswordReset upserts the reset row keyed by user id
func (r *GormUserRepository) SavePasswordReset(reset *models.PasswordReset) error {
	return r.db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "user_id"}},
		DoUpdates: clause.AssignmentColumns([]string{"code", "expires_at", "created_at"}),
	}).Create(reset).Error
}

// ResetPassword consumes a reset code and updates the password hash
func (r *GormUserRepository) ResetPassword(userID, code string, now time.Time, passwordHash string) error {
	var expiredCode string

	err := r.db.Transaction(func(tx *gorm.DB) error {
		var reset models.PasswordReset
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			First(&reset, "user_id = ?", userID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrResetNotUsable
			}
			return err
		}

		if !reset.UsableAt(now) {
			expiredCode = reset.Code
			return ErrResetNotUsable
		}
		if subtle.ConstantTimeCompare([]byte(reset.Code), []byte(code)) != 1 {
			return ErrResetNotUsable
		}

		// Conditional on the code so that only one concurrent confirm wins.
		res := tx.Where("user_id = ? AND code = ?", userID, reset.Code).Delete(&models.PasswordReset{})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected != 1 {
			return ErrResetNotUsable
		}

		return tx.Model(&models.User{}).
			Where("id = ?", userID).
			Update("password_hash", passwordHash).Error
	})

	if expiredCode != "" {
		// Expired codes are cleared; the caller still sees ErrResetNotUsable.
		if cerr := r.db.Where("user_id = ? AND code = ?", userID, expiredCode).
			Delete(&models.PasswordReset{}).Error; cerr != nil {
			slog.Warn("failed to clear expired password reset", "user_id", userID, "error", cerr)
		}
	}

	return err
}
