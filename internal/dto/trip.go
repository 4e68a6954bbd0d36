package dto

import (
	"time"

	"github.com/yukikurage/tripmate-api/internal/models"
)

// TripDTO represents a trip in API responses
type TripDTO struct {
	ID          string     `json:"id"`
	Title       string     `json:"title"`
	Destination string     `json:"destination"`
	Description string     `json:"description"`
	StartDate   *time.Time `json:"start_date"`
	EndDate     *time.Time `json:"end_date"`
	JoinCode    string     `json:"join_code,omitempty"`
	CreatedBy   string     `json:"created_by"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
}

// TripWithRoleDTO represents a trip with the user's role
type TripWithRoleDTO struct {
	TripDTO
	Role models.TripRole `json:"role"`
}

// TripMemberDTO represents a member in a trip
type TripMemberDTO struct {
	User     UserDTO         `json:"user"`
	Role     models.TripRole `json:"role"`
	JoinedAt time.Time       `json:"joined_at"`
}

// TripDetailDTO represents detailed trip information
type TripDetailDTO struct {
	TripDTO
	Members  []TripMemberDTO `json:"members"`
	YourRole models.TripRole `json:"your_role"`
}

// ToTripDTO converts a trip to DTO. The join code is only included for
// callers that may share it.
func ToTripDTO(trip models.Trip, includeJoinCode bool) TripDTO {
	dto := TripDTO{
		ID:          trip.ID,
		Title:       trip.Title,
		Destination: trip.Destination,
		Description: trip.Description,
		StartDate:   trip.StartDate,
		EndDate:     trip.EndDate,
		CreatedBy:   trip.CreatedBy,
		CreatedAt:   trip.CreatedAt,
		UpdatedAt:   trip.UpdatedAt,
	}
	if includeJoinCode {
		dto.JoinCode = trip.JoinCode
	}
	return dto
}

// ToTripWithRoleDTO converts a membership to a trip DTO with role
func ToTripWithRoleDTO(member models.TripMember) TripWithRoleDTO {
	return TripWithRoleDTO{
		TripDTO: ToTripDTO(member.Trip, member.Role == models.TripRoleAdmin),
		Role:    member.Role,
	}
}

// ToTripMemberDTO converts a member to DTO
func ToTripMemberDTO(member models.TripMember) TripMemberDTO {
	user := ToPublicUserDTO(member.User)
	if user.ID == "" {
		user.ID = member.UserID
	}

	return TripMemberDTO{
		User:     user,
		Role:     member.Role,
		JoinedAt: member.JoinedAt,
	}
}

// ToTripDetailDTO converts a trip with members to detailed DTO
func ToTripDetailDTO(trip models.Trip, yourRole models.TripRole) TripDetailDTO {
	members := make([]TripMemberDTO, len(trip.Members))
	for i, member := range trip.Members {
		members[i] = ToTripMemberDTO(member)
	}

	return TripDetailDTO{
		TripDTO:  ToTripDTO(trip, true),
		Members:  members,
		YourRole: yourRole,
	}
}
