package dto

import (
	"time"

	"github.com/yukikurage/tripmate-api/internal/models"
)

// UserDTO represents a user in API responses
type UserDTO struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email,omitempty"`
}

// AuthResponse is returned by signup and login
type AuthResponse struct {
	User      UserDTO   `json:"user"`
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expires_at"`
}

// ToUserDTO converts a user to DTO
func ToUserDTO(user models.User) UserDTO {
	return UserDTO{
		ID:    user.ID,
		Name:  user.Name,
		Email: user.Email,
	}
}

// ToPublicUserDTO converts a user to DTO without contact details
func ToPublicUserDTO(user models.User) UserDTO {
	return UserDTO{
		ID:   user.ID,
		Name: user.Name,
	}
}
