package handlers

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-contrib/sessions/cookie"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/yukikurage/tripmate-api/internal/dto"
	"github.com/yukikurage/tripmate-api/internal/middleware"
	"github.com/yukikurage/tripmate-api/internal/models"
)

func TestRouter_Health(t *testing.T) {
	srv := newTestServer(t)

	w := srv.do(t, http.MethodGet, "/health", "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"status":"ok"`)
}

func TestRouter_Metrics(t *testing.T) {
	reg := prometheus.NewRegistry()
	r := NewRouter(RouterConfig{
		Metrics:        middleware.NewMetrics(reg),
		MetricsHandler: promhttp.HandlerFor(reg, promhttp.HandlerOpts{}),
		SessionStore:   cookie.NewStore([]byte("secret")),
	})

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/health", nil))
	require.Equal(t, http.StatusOK, w.Code)

	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `tripmate_http_requests_total{method="GET",route="/health",status="200"} 1`)
}

// Two friends plan a trip end to end over HTTP. When the last of them
// leaves, the trip and its photos are gone.
func TestRouter_TripLifecycle(t *testing.T) {
	srv := newTestServer(t)
	alice := srv.signup(t, "alice")
	bob := srv.signup(t, "bob")

	trip := srv.createTrip(t, alice, "Hokkaido")
	srv.join(t, bob, strings.ToLower(trip.JoinCode))

	poll := createPoll(t, srv, bob, trip.ID)
	for _, user := range []account{alice, bob} {
		w := srv.do(t, http.MethodPost, "/api/polls/"+poll.ID+"/vote", user.token, map[string]int{"option_index": 2})
		require.Equal(t, http.StatusOK, w.Code)
	}

	w := srv.do(t, http.MethodGet, "/api/polls/"+poll.ID, alice.token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	var tally dto.PollDTO
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &tally))
	assert.Equal(t, 2, tally.TotalVotes)
	assert.ElementsMatch(t, []string{alice.id, bob.id}, tally.Options[2].Voters)

	w = srv.upload(t, bob, trip.ID, "image/jpeg", []byte("jpeg-bytes"))
	require.Equal(t, http.StatusCreated, w.Code)
	require.Equal(t, 1, srv.store.count())

	w = srv.do(t, http.MethodDelete, "/api/trips/"+trip.ID+"/leave", alice.token, nil)
	require.Equal(t, http.StatusOK, w.Code)

	w = srv.do(t, http.MethodGet, "/api/trips/"+trip.ID, bob.token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	var detail dto.TripDetailDTO
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &detail))
	assert.Equal(t, models.TripRoleAdmin, detail.YourRole)

	w = srv.do(t, http.MethodDelete, "/api/trips/"+trip.ID+"/leave", bob.token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"trip_deleted":true}`, w.Body.String())

	w = srv.do(t, http.MethodGet, "/api/polls/"+poll.ID, bob.token, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Zero(t, srv.store.count())

	var remaining int64
	require.NoError(t, srv.db.Model(&models.PollVote{}).Count(&remaining).Error)
	assert.Zero(t, remaining)
}
