package handlers

import (
	"encoding/json"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/yukikurage/tripmate-api/internal/dto"
	apierrors "github.com/yukikurage/tripmate-api/internal/errors"
)

func createPoll(t *testing.T, srv *testServer, user account, tripID string) dto.PollDTO {
	t.Helper()

	w := srv.do(t, http.MethodPost, "/api/trips/"+tripID+"/polls", user.token, map[string]any{
		"question": "Where do we eat?",
		"options":  []string{"Ramen", "Sushi", "Okonomiyaki"},
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	var poll dto.PollDTO
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &poll))
	return poll
}

func TestPollHandler_CreatePoll(t *testing.T) {
	srv := newTestServer(t)
	alice := srv.signup(t, "alice")
	mallory := srv.signup(t, "mallory")
	trip := srv.createTrip(t, alice, "Osaka")

	poll := createPoll(t, srv, alice, trip.ID)
	assert.Equal(t, "Where do we eat?", poll.Question)
	require.Len(t, poll.Options, 3)
	for i, option := range poll.Options {
		assert.Equal(t, i, option.Index)
		assert.Zero(t, option.Votes)
		assert.Empty(t, option.Voters)
	}
	assert.False(t, poll.HasVoted)

	w := srv.do(t, http.MethodPost, "/api/trips/"+trip.ID+"/polls", alice.token, map[string]any{
		"question": "Only one?",
		"options":  []string{"Yes"},
	})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = srv.do(t, http.MethodPost, "/api/trips/"+trip.ID+"/polls", alice.token, map[string]any{
		"question": "Blank options",
		"options":  []string{"Yes", "   "},
	})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = srv.do(t, http.MethodPost, "/api/trips/"+trip.ID+"/polls", mallory.token, map[string]any{
		"question": "Sneaky?",
		"options":  []string{"Yes", "No"},
	})
	assert.Equal(t, http.StatusForbidden, w.Code)
}

func TestPollHandler_Vote(t *testing.T) {
	srv := newTestServer(t)
	alice := srv.signup(t, "alice")
	bob := srv.signup(t, "bob")
	mallory := srv.signup(t, "mallory")
	trip := srv.createTrip(t, alice, "Osaka")
	srv.join(t, bob, trip.JoinCode)
	poll := createPoll(t, srv, alice, trip.ID)
	votePath := "/api/polls/" + poll.ID + "/vote"

	w := srv.do(t, http.MethodPost, votePath, alice.token, map[string]int{"option_index": 1})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var result dto.PollDTO
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &result))
	assert.True(t, result.HasVoted)
	assert.Equal(t, 1, result.TotalVotes)
	assert.Equal(t, []string{alice.id}, result.Options[1].Voters)

	// Votes are permanent, even for another option
	w = srv.do(t, http.MethodPost, votePath, alice.token, map[string]int{"option_index": 0})
	require.Equal(t, http.StatusConflict, w.Code)
	assert.Equal(t, apierrors.ErrCodeConflict, decodeError(t, w)["code"])

	w = srv.do(t, http.MethodPost, votePath, bob.token, map[string]int{"option_index": 3})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = srv.do(t, http.MethodPost, votePath, bob.token, map[string]int{"option_index": -1})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = srv.do(t, http.MethodPost, votePath, bob.token, map[string]string{})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	// Index zero is a valid choice, not a missing field
	w = srv.do(t, http.MethodPost, votePath, bob.token, map[string]int{"option_index": 0})
	require.Equal(t, http.StatusOK, w.Code)

	w = srv.do(t, http.MethodPost, votePath, mallory.token, map[string]int{"option_index": 0})
	assert.Equal(t, http.StatusForbidden, w.Code)

	w = srv.do(t, http.MethodPost, "/api/polls/missing/vote", bob.token, map[string]int{"option_index": 0})
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestPollHandler_ListAndGet(t *testing.T) {
	srv := newTestServer(t)
	alice := srv.signup(t, "alice")
	bob := srv.signup(t, "bob")
	trip := srv.createTrip(t, alice, "Osaka")
	poll := createPoll(t, srv, alice, trip.ID)

	w := srv.do(t, http.MethodGet, "/api/trips/"+trip.ID+"/polls", alice.token, nil)
	require.Equal(t, http.StatusOK, w.Code)

	var list struct {
		Polls []dto.PollDTO `json:"polls"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &list))
	require.Len(t, list.Polls, 1)
	assert.Equal(t, poll.ID, list.Polls[0].ID)

	w = srv.do(t, http.MethodGet, "/api/polls/"+poll.ID, alice.token, nil)
	require.Equal(t, http.StatusOK, w.Code)

	w = srv.do(t, http.MethodGet, "/api/polls/"+poll.ID, bob.token, nil)
	assert.Equal(t, http.StatusForbidden, w.Code)

	w = srv.do(t, http.MethodGet, "/api/trips/"+trip.ID+"/polls", bob.token, nil)
	assert.Equal(t, http.StatusForbidden, w.Code)

	w = srv.do(t, http.MethodGet, "/api/trips/missing/polls", bob.token, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}
