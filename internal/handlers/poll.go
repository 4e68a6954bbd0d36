package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/yukikurage/tripmate-api/internal/dto"
	apierrors "github.com/yukikurage/tripmate-api/internal/errors"
	"github.com/yukikurage/tripmate-api/internal/middleware"
	"github.com/yukikurage/tripmate-api/internal/services"
)

type PollHandler struct {
	pollService *services.PollService
}

func NewPollHandler(pollService *services.PollService) *PollHandler {
	return &PollHandler{pollService: pollService}
}

// CreatePoll creates a poll in a trip
func (h *PollHandler) CreatePoll(c *gin.Context) {
	userID, _ := middleware.GetUserID(c)

	type CreatePollRequest struct {
		Question string   `json:"question" binding:"required,max=500"`
		Options  []string `json:"options" binding:"required,min=2,dive,max=200"`
	}

	var req CreatePollRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}

	poll, err := h.pollService.CreatePoll(c.Param("id"), userID, services.CreatePollInput{
		Question: req.Question,
		Options:  req.Options,
	})
	if err != nil {
		respondPollError(c, err)
		return
	}

	c.JSON(http.StatusCreated, dto.ToPollDTO(*poll, userID))
}

// ListPolls returns the polls of a trip, newest first
func (h *PollHandler) ListPolls(c *gin.Context) {
	userID, _ := middleware.GetUserID(c)

	polls, err := h.pollService.ListPolls(c.Param("id"), userID)
	if err != nil {
		respondPollError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"polls": dto.ToPollDTOs(polls, userID),
	})
}

func (h *PollHandler) GetPoll(c *gin.Context) {
	userID, _ := middleware.GetUserID(c)

	poll, err := h.pollService.GetPoll(c.Param("id"), userID)
	if err != nil {
		respondPollError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.ToPollDTO(*poll, userID))
}

// Vote records the caller's single vote on a poll
func (h *PollHandler) Vote(c *gin.Context) {
	userID, _ := middleware.GetUserID(c)

	type VoteRequest struct {
		OptionIndex *int `json:"option_index" binding:"required"`
	}

	var req VoteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}

	poll, err := h.pollService.Vote(c.Param("id"), userID, *req.OptionIndex)
	if err != nil {
		respondPollError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.ToPollDTO(*poll, userID))
}

func respondPollError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, services.ErrPollNotFound),
		errors.Is(err, services.ErrTripNotFound):
		apierrors.NotFound(c, err.Error())
	case errors.Is(err, services.ErrNotTripMember):
		apierrors.Forbidden(c, err.Error())
	case errors.Is(err, services.ErrQuestionRequired),
		errors.Is(err, services.ErrPollNeedsOptions),
		errors.Is(err, services.ErrTooManyPollOptions),
		errors.Is(err, services.ErrInvalidOption):
		apierrors.BadRequest(c, err.Error())
	case errors.Is(err, services.ErrAlreadyVoted):
		apierrors.Conflict(c, err.Error())
	default:
		respondUnexpected(c, err)
	}
}
