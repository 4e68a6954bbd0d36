package dto

import (
	"time"

	"github.com/yukikurage/tripmate-api/internal/models"
)

// PollOptionDTO represents a poll option with its voters
type PollOptionDTO struct {
	Index  int      `json:"index"`
	Text   string   `json:"text"`
	Votes  int      `json:"votes"`
	Voters []string `json:"voters"`
}

// PollDTO represents a poll in API responses
type PollDTO struct {
	ID         string          `json:"id"`
	TripID     string          `json:"trip_id"`
	Question   string          `json:"question"`
	CreatedBy  string          `json:"created_by"`
	CreatedAt  time.Time       `json:"created_at"`
	Options    []PollOptionDTO `json:"options"`
	TotalVotes int             `json:"total_votes"`
	HasVoted   bool            `json:"has_voted"`
}

// ToPollDTO converts a poll to DTO from the point of view of viewerID
func ToPollDTO(poll models.Poll, viewerID string) PollDTO {
	options := make([]PollOptionDTO, len(poll.Options))
	for i, option := range poll.Options {
		voters := poll.VotersFor(i)
		options[i] = PollOptionDTO{
			Index:  i,
			Text:   option.Text,
			Votes:  len(voters),
			Voters: voters,
		}
	}

	return PollDTO{
		ID:         poll.ID,
		TripID:     poll.TripID,
		Question:   poll.Question,
		CreatedBy:  poll.CreatedBy,
		CreatedAt:  poll.CreatedAt,
		Options:    options,
		TotalVotes: len(poll.Votes),
		HasVoted:   poll.HasVoted(viewerID),
	}
}

// ToPollDTOs converts a list of polls to DTOs
func ToPollDTOs(polls []models.Poll, viewerID string) []PollDTO {
	dtos := make([]PollDTO, len(polls))
	for i, poll := range polls {
		dtos[i] = ToPollDTO(poll, viewerID)
	}
	return dtos
}
