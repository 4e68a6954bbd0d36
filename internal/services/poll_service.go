package services

import (
	"errors"
	"fmt"
	"strings"

	"github.com/yukikurage/tripmate-api/internal/constants"
	"github.com/yukikurage/tripmate-api/internal/models"
	"github.com/yukikurage/tripmate-api/internal/repository"
)

var (
	ErrQuestionRequired   = errors.New("poll question cannot be empty")
	ErrPollNeedsOptions   = errors.New("a poll needs at least two options")
	ErrTooManyPollOptions = errors.New("too many poll options")
	ErrPollNotFound       = errors.New("poll not found")
	ErrInvalidOption      = errors.New("option index out of range")
	ErrAlreadyVoted       = errors.New("user has already voted in this poll")
)

// PollService provides business logic for trip polls.
type PollService struct {
	pollRepo repository.PollRepository
	trips    *TripService
}

// NewPollService creates a new PollService.
func NewPollService(pollRepo repository.PollRepository, trips *TripService) *PollService {
	return &PollService{
		pollRepo: pollRepo,
		trips:    trips,
	}
}

// CreatePollInput represents parameters to create a new poll.
type CreatePollInput struct {
	Question string
	Options  []string
}

// CreatePoll creates a poll in a trip. Blank options are dropped before the
// option count is checked.
func (s *PollService) CreatePoll(tripID, creatorID string, input CreatePollInput) (*models.Poll, error) {
	if _, _, err := s.trips.Membership(tripID, creatorID); err != nil {
		return nil, err
	}

	question := strings.TrimSpace(input.Question)
	if question == "" {
		return nil, ErrQuestionRequired
	}

	var options []models.PollOption
	for _, text := range input.Options {
		if text = strings.TrimSpace(text); text != "" {
			options = append(options, models.PollOption{Text: text})
		}
	}
	if len(options) < constants.MinPollOptions {
		return nil, ErrPollNeedsOptions
	}
	if len(options) > constants.MaxPollOptions {
		return nil, ErrTooManyPollOptions
	}

	poll := &models.Poll{
		TripID:    tripID,
		Question:  question,
		CreatedBy: creatorID,
		Options:   options,
	}
	if err := s.pollRepo.Create(poll); err != nil {
		if lost := lostMembership(err); lost != nil {
			return nil, lost
		}
		return nil, fmt.Errorf("failed to create poll: %w", err)
	}

	return poll, nil
}

// ListPolls returns the polls of a trip, newest first.
func (s *PollService) ListPolls(tripID, requesterID string) ([]models.Poll, error) {
	if _, _, err := s.trips.Membership(tripID, requesterID); err != nil {
		return nil, err
	}

	polls, err := s.pollRepo.ListByTrip(tripID)
	if err != nil {
		return nil, fmt.Errorf("failed to list polls: %w", err)
	}
	return polls, nil
}

// GetPoll returns a poll with its options and votes.
func (s *PollService) GetPoll(pollID, requesterID string) (*models.Poll, error) {
	poll, err := s.findPoll(pollID)
	if err != nil {
		return nil, err
	}
	if err := s.requireMember(poll, requesterID); err != nil {
		return nil, err
	}
	return poll, nil
}

// Vote records the user's vote for the option at optionIndex. A user votes
// at most once per poll and votes cannot be changed.
func (s *PollService) Vote(pollID, userID string, optionIndex int) (*models.Poll, error) {
	poll, err := s.findPoll(pollID)
	if err != nil {
		return nil, err
	}
	if err := s.requireMember(poll, userID); err != nil {
		return nil, err
	}

	if !poll.ValidOption(optionIndex) {
		return nil, ErrInvalidOption
	}
	if poll.HasVoted(userID) {
		return nil, ErrAlreadyVoted
	}

	// The primary key on (poll_id, user_id) decides between concurrent votes.
	added, err := s.pollRepo.AddVote(&models.PollVote{
		PollID:      poll.ID,
		UserID:      userID,
		OptionIndex: optionIndex,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to record vote: %w", err)
	}
	if !added {
		return nil, ErrAlreadyVoted
	}

	return s.findPoll(pollID)
}

func (s *PollService) findPoll(pollID string) (*models.Poll, error) {
	poll, err := s.pollRepo.FindByID(pollID)
	if err != nil {
		if repository.IsNotFound(err) {
			return nil, ErrPollNotFound
		}
		return nil, fmt.Errorf("failed to find poll: %w", err)
	}
	return poll, nil
}

func (s *PollService) requireMember(poll *models.Poll, userID string) error {
	_, _, err := s.trips.Membership(poll.TripID, userID)
	if errors.Is(err, ErrTripNotFound) {
		return ErrPollNotFound
	}
	return err
}
