package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/yukikurage/tripmate-api/internal/constants"
	"github.com/yukikurage/tripmate-api/internal/models"
	"github.com/yukikurage/tripmate-api/internal/repository"
	"github.com/yukikurage/tripmate-api/internal/utils"
	"gorm.io/gorm"
)

var (
	ErrTripNotFound             = errors.New("trip not found")
	ErrTitleRequired            = errors.New("trip title cannot be empty")
	ErrInvalidDateRange         = errors.New("end date cannot be before start date")
	ErrNotTripMember            = errors.New("user is not a member of this trip")
	ErrTripAdminRequired        = errors.New("only trip admins can perform this action")
	ErrJoinCodeGenerationFailed = errors.New("failed to generate join code")
	ErrCannotRemoveYourself     = errors.New("cannot remove yourself from the trip")
	ErrTripMemberNotFound       = errors.New("trip member not found")
)

// TripService provides business logic for trip operations.
type TripService struct {
	tripRepo repository.TripRepository
	store    ObjectStore
}

// NewTripService creates a new TripService. The object store is used to
// clean up gallery objects of deleted trips.
func NewTripService(tripRepo repository.TripRepository, store ObjectStore) *TripService {
	return &TripService{
		tripRepo: tripRepo,
		store:    store,
	}
}

// TripInput holds the descriptive fields of a new trip.
type TripInput struct {
	Title       string
	Destination string
	Description string
	StartDate   *time.Time
	EndDate     *time.Time
}

// TripPatch holds optional updates to a trip. Nil fields are left as is.
type TripPatch struct {
	Title       *string
	Destination *string
	Description *string
	StartDate   *time.Time
	EndDate     *time.Time
}

// LeaveResult describes what happened to a trip after a member left.
type LeaveResult struct {
	TripDeleted    bool   `json:"trip_deleted"`
	PromotedUserID string `json:"promoted_user_id,omitempty"`
}

func validateDates(start, end *time.Time) error {
	if start != nil && end != nil && end.Before(*start) {
		return ErrInvalidDateRange
	}
	return nil
}

// CreateTrip creates a trip with the owner as its first admin.
func (s *TripService) CreateTrip(ownerID string, input TripInput) (*models.Trip, error) {
	title := strings.TrimSpace(input.Title)
	if title == "" {
		return nil, ErrTitleRequired
	}
	if err := validateDates(input.StartDate, input.EndDate); err != nil {
		return nil, err
	}

	for attempt := 0; attempt < constants.MaxJoinCodeAttempts; attempt++ {
		code, err := utils.GenerateJoinCode()
		if err != nil {
			return nil, ErrJoinCodeGenerationFailed
		}

		trip := &models.Trip{
			Title:       title,
			Destination: strings.TrimSpace(input.Destination),
			Description: strings.TrimSpace(input.Description),
			StartDate:   input.StartDate,
			EndDate:     input.EndDate,
			JoinCode:    code,
			CreatedBy:   ownerID,
		}
		owner := &models.TripMember{
			UserID:   ownerID,
			Role:     models.TripRoleAdmin,
			JoinedAt: time.Now(),
		}

		err = s.tripRepo.CreateWithOwner(trip, owner)
		if err == nil {
			return trip, nil
		}
		if !errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, fmt.Errorf("failed to create trip: %w", err)
		}
		slog.Debug("join code collision, retrying", "attempt", attempt+1)
	}

	return nil, ErrJoinCodeGenerationFailed
}

// ListTripsForUser returns the memberships of a user with their trips.
func (s *TripService) ListTripsForUser(userID string) ([]models.TripMember, error) {
	memberships, err := s.tripRepo.ListMembersByUserID(userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list trips: %w", err)
	}
	return memberships, nil
}

// Membership loads a trip and the caller's membership in it.
func (s *TripService) Membership(tripID, userID string) (*models.Trip, *models.TripMember, error) {
	trip, err := s.tripRepo.FindByID(tripID)
	if err != nil {
		if repository.IsNotFound(err) {
			return nil, nil, ErrTripNotFound
		}
		return nil, nil, fmt.Errorf("failed to find trip: %w", err)
	}

	member := trip.MemberFor(userID)
	if member == nil {
		return trip, nil, ErrNotTripMember
	}
	return trip, member, nil
}

// GetTrip returns a trip with its members. Non-members get ErrTripNotFound
// so that trip ids cannot be probed.
func (s *TripService) GetTrip(tripID, requesterID string) (*models.Trip, *models.TripMember, error) {
	trip, member, err := s.Membership(tripID, requesterID)
	if errors.Is(err, ErrNotTripMember) {
		return nil, nil, ErrTripNotFound
	}
	if err != nil {
		return nil, nil, err
	}
	return trip, member, nil
}

// lostMembership maps the errors of writes that re-check membership under
// the trip lock. It returns nil for any other error.
func lostMembership(err error) error {
	switch {
	case repository.IsNotFound(err):
		return ErrTripNotFound
	case errors.Is(err, repository.ErrMemberNotFound):
		return ErrNotTripMember
	}
	return nil
}

func (s *TripService) requireAdmin(tripID, requesterID string) (*models.Trip, error) {
	trip, member, err := s.GetTrip(tripID, requesterID)
	if err != nil {
		return nil, err
	}
	if member.Role != models.TripRoleAdmin {
		return nil, ErrTripAdminRequired
	}
	return trip, nil
}

// UpdateTrip applies patch to the trip. Only admins may update.
func (s *TripService) UpdateTrip(tripID, requesterID string, patch TripPatch) (*models.Trip, error) {
	trip, err := s.requireAdmin(tripID, requesterID)
	if err != nil {
		return nil, err
	}

	if patch.Title != nil {
		title := strings.TrimSpace(*patch.Title)
		if title == "" {
			return nil, ErrTitleRequired
		}
		trip.Title = title
	}
	if patch.Destination != nil {
		trip.Destination = strings.TrimSpace(*patch.Destination)
	}
	if patch.Description != nil {
		trip.Description = strings.TrimSpace(*patch.Description)
	}
	if patch.StartDate != nil {
		trip.StartDate = patch.StartDate
	}
	if patch.EndDate != nil {
		trip.EndDate = patch.EndDate
	}
	if err := validateDates(trip.StartDate, trip.EndDate); err != nil {
		return nil, err
	}

	if err := s.tripRepo.Update(trip); err != nil {
		return nil, fmt.Errorf("failed to update trip: %w", err)
	}

	return trip, nil
}

// DeleteTrip removes a trip with all of its polls, votes, gallery items and
// memberships. Only admins may delete.
func (s *TripService) DeleteTrip(ctx context.Context, tripID, requesterID string) error {
	if _, err := s.requireAdmin(tripID, requesterID); err != nil {
		return err
	}

	refs, err := s.tripRepo.Delete(tripID, requesterID)
	if err != nil {
		switch {
		case repository.IsNotFound(err):
			return ErrTripNotFound
		case errors.Is(err, repository.ErrAdminRequired):
			return ErrTripAdminRequired
		default:
			return fmt.Errorf("failed to delete trip: %w", err)
		}
	}

	s.deleteObjects(ctx, tripID, refs)
	return nil
}

// JoinByCode adds the user to the trip with the given join code. Joining a
// trip twice is a no-op; joined reports whether a membership was created.
func (s *TripService) JoinByCode(userID, code string) (trip *models.Trip, joined bool, err error) {
	code = utils.NormalizeJoinCode(code)
	if code == "" {
		return nil, false, ErrTripNotFound
	}

	found, err := s.tripRepo.FindByJoinCode(code)
	if err != nil {
		if repository.IsNotFound(err) {
			return nil, false, ErrTripNotFound
		}
		return nil, false, fmt.Errorf("failed to find trip by join code: %w", err)
	}

	member := &models.TripMember{
		TripID:   found.ID,
		UserID:   userID,
		Role:     models.TripRoleMember,
		JoinedAt: time.Now(),
	}
	joined, err = s.tripRepo.AddMember(member)
	if err != nil {
		return nil, false, fmt.Errorf("failed to add member to trip: %w", err)
	}

	trip, err = s.tripRepo.FindByID(found.ID)
	if err != nil {
		if repository.IsNotFound(err) {
			return nil, false, ErrTripNotFound
		}
		return nil, false, fmt.Errorf("failed to reload trip: %w", err)
	}

	return trip, joined, nil
}

// LeaveTrip removes the caller from the trip. The last member leaving
// deletes the trip; the last admin leaving promotes the longest-standing
// remaining member.
func (s *TripService) LeaveTrip(ctx context.Context, tripID, userID string) (*LeaveResult, error) {
	removal, err := s.tripRepo.RemoveMember(tripID, userID, userID)
	if err != nil {
		switch {
		case repository.IsNotFound(err):
			return nil, ErrTripNotFound
		case errors.Is(err, repository.ErrMemberNotFound):
			return nil, ErrNotTripMember
		default:
			return nil, fmt.Errorf("failed to leave trip: %w", err)
		}
	}

	return s.finishRemoval(ctx, tripID, removal), nil
}

// RegenerateJoinCode replaces the trip's join code. Only admins may do this.
func (s *TripService) RegenerateJoinCode(tripID, requesterID string) (*models.Trip, error) {
	trip, err := s.requireAdmin(tripID, requesterID)
	if err != nil {
		return nil, err
	}

	for attempt := 0; attempt < constants.MaxJoinCodeAttempts; attempt++ {
		code, err := utils.GenerateJoinCode()
		if err != nil {
			return nil, ErrJoinCodeGenerationFailed
		}

		trip.JoinCode = code
		err = s.tripRepo.Update(trip)
		if err == nil {
			return trip, nil
		}
		if !errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, fmt.Errorf("failed to update join code: %w", err)
		}
	}

	return nil, ErrJoinCodeGenerationFailed
}

// RemoveMember removes another member from the trip. Only admins may do this.
func (s *TripService) RemoveMember(ctx context.Context, tripID, requesterID, targetID string) (*LeaveResult, error) {
	if targetID == requesterID {
		return nil, ErrCannotRemoveYourself
	}
	if _, err := s.requireAdmin(tripID, requesterID); err != nil {
		return nil, err
	}

	removal, err := s.tripRepo.RemoveMember(tripID, targetID, requesterID)
	if err != nil {
		switch {
		case repository.IsNotFound(err):
			return nil, ErrTripNotFound
		case errors.Is(err, repository.ErrAdminRequired):
			return nil, ErrTripAdminRequired
		case errors.Is(err, repository.ErrMemberNotFound):
			return nil, ErrTripMemberNotFound
		default:
			return nil, fmt.Errorf("failed to remove member: %w", err)
		}
	}

	return s.finishRemoval(ctx, tripID, removal), nil
}

func (s *TripService) finishRemoval(ctx context.Context, tripID string, removal *repository.RemovalResult) *LeaveResult {
	if removal.TripDeleted {
		s.deleteObjects(ctx, tripID, removal.ExternalRefs)
	}
	return &LeaveResult{
		TripDeleted:    removal.TripDeleted,
		PromotedUserID: removal.PromotedUserID,
	}
}

// deleteObjects removes gallery objects after their rows are gone. Failures
// leave orphaned remote objects and are only logged.
func (s *TripService) deleteObjects(ctx context.Context, tripID string, refs []string) {
	for _, ref := range refs {
		deleteCtx, cancel := context.WithTimeout(ctx, constants.StorageTimeout)
		err := s.store.Delete(deleteCtx, ref)
		cancel()
		if err != nil {
			slog.WarnContext(ctx, "failed to delete gallery object of deleted trip",
				"trip_id", tripID, "ref", ref, "error", err)
		}
	}
}
