package handlers

import (
	"encoding/json"
	"net/http"
	"testing"

	"github.com/stretchr/testify/suite"
	"github.com/yukikurage/tripmate-api/internal/dto"
	apierrors "github.com/yukikurage/tripmate-api/internal/errors"
	"github.com/yukikurage/tripmate-api/internal/models"
)

type TripHandlerTestSuite struct {
	suite.Suite
	srv   *testServer
	alice account
	bob   account
	carol account
	trip  dto.TripDetailDTO
}

func (s *TripHandlerTestSuite) SetupTest() {
	t := s.T()
	s.srv = newTestServer(t)
	s.alice = s.srv.signup(t, "alice")
	s.bob = s.srv.signup(t, "bob")
	s.carol = s.srv.signup(t, "carol")
	s.trip = s.srv.createTrip(t, s.alice, "Kyoto in autumn")
	s.srv.join(t, s.bob, s.trip.JoinCode)
}

func (s *TripHandlerTestSuite) tripPath(suffix string) string {
	return "/api/trips/" + s.trip.ID + suffix
}

func (s *TripHandlerTestSuite) TestCreateTrip() {
	s.Equal("Kyoto in autumn", s.trip.Title)
	s.Len(s.trip.JoinCode, 6)
	s.Equal(models.TripRoleAdmin, s.trip.YourRole)
	s.Require().Len(s.trip.Members, 1)
	s.Equal(s.alice.id, s.trip.Members[0].User.ID)

	w := s.srv.do(s.T(), http.MethodPost, "/api/trips", s.alice.token, map[string]string{"title": ""})
	s.Equal(http.StatusBadRequest, w.Code)

	w = s.srv.do(s.T(), http.MethodPost, "/api/trips", s.alice.token, map[string]string{
		"title":      "Backwards",
		"start_date": "2026-05-10T00:00:00Z",
		"end_date":   "2026-05-01T00:00:00Z",
	})
	s.Equal(http.StatusBadRequest, w.Code)

	w = s.srv.do(s.T(), http.MethodPost, "/api/trips", "", map[string]string{"title": "Anonymous"})
	s.Equal(http.StatusUnauthorized, w.Code)
}

func (s *TripHandlerTestSuite) TestListTrips() {
	w := s.srv.do(s.T(), http.MethodGet, "/api/trips", s.bob.token, nil)
	s.Require().Equal(http.StatusOK, w.Code)

	var resp struct {
		Trips []dto.TripWithRoleDTO `json:"trips"`
	}
	s.Require().NoError(json.Unmarshal(w.Body.Bytes(), &resp))
	s.Require().Len(resp.Trips, 1)
	s.Equal(models.TripRoleMember, resp.Trips[0].Role)
	s.Empty(resp.Trips[0].JoinCode)

	w = s.srv.do(s.T(), http.MethodGet, "/api/trips", s.carol.token, nil)
	s.Require().Equal(http.StatusOK, w.Code)
	s.JSONEq(`{"trips":[]}`, w.Body.String())
}

func (s *TripHandlerTestSuite) TestJoinTrip() {
	w := s.srv.do(s.T(), http.MethodPost, "/api/trips/join", s.bob.token, map[string]string{"join_code": s.trip.JoinCode})
	s.Require().Equal(http.StatusOK, w.Code)

	var resp struct {
		Joined bool              `json:"joined"`
		Trip   dto.TripDetailDTO `json:"trip"`
	}
	s.Require().NoError(json.Unmarshal(w.Body.Bytes(), &resp))
	s.False(resp.Joined)
	s.Len(resp.Trip.Members, 2)
	s.Equal(models.TripRoleMember, resp.Trip.YourRole)

	w = s.srv.do(s.T(), http.MethodPost, "/api/trips/join", s.carol.token, map[string]string{"join_code": "ab"})
	s.Require().Equal(http.StatusBadRequest, w.Code)
	details, ok := decodeError(s.T(), w)["details"].(map[string]any)
	s.Require().True(ok)
	s.Equal("joincode", details["JoinCode"])

	w = s.srv.do(s.T(), http.MethodPost, "/api/trips/join", s.carol.token, map[string]string{"join_code": "ZZZZZZ"})
	if s.trip.JoinCode != "ZZZZZZ" {
		s.Equal(http.StatusNotFound, w.Code)
	}
}

func (s *TripHandlerTestSuite) TestGetTripHidesFromNonMembers() {
	w := s.srv.do(s.T(), http.MethodGet, s.tripPath(""), s.bob.token, nil)
	s.Require().Equal(http.StatusOK, w.Code)

	var trip dto.TripDetailDTO
	s.Require().NoError(json.Unmarshal(w.Body.Bytes(), &trip))
	s.Equal(models.TripRoleMember, trip.YourRole)
	s.Len(trip.Members, 2)

	w = s.srv.do(s.T(), http.MethodGet, s.tripPath(""), s.carol.token, nil)
	s.Equal(http.StatusNotFound, w.Code)
	s.Equal(apierrors.ErrCodeNotFound, decodeError(s.T(), w)["code"])
}

func (s *TripHandlerTestSuite) TestUpdateTripRequiresAdmin() {
	payload := map[string]string{"title": "Kyoto and Osaka"}

	w := s.srv.do(s.T(), http.MethodPut, s.tripPath(""), s.bob.token, payload)
	s.Equal(http.StatusForbidden, w.Code)

	w = s.srv.do(s.T(), http.MethodPut, s.tripPath(""), s.alice.token, payload)
	s.Require().Equal(http.StatusOK, w.Code)

	var trip dto.TripDTO
	s.Require().NoError(json.Unmarshal(w.Body.Bytes(), &trip))
	s.Equal("Kyoto and Osaka", trip.Title)
}

func (s *TripHandlerTestSuite) TestDeleteTripRequiresAdmin() {
	w := s.srv.do(s.T(), http.MethodDelete, s.tripPath(""), s.bob.token, nil)
	s.Equal(http.StatusForbidden, w.Code)

	w = s.srv.do(s.T(), http.MethodDelete, s.tripPath(""), s.alice.token, nil)
	s.Require().Equal(http.StatusOK, w.Code)

	w = s.srv.do(s.T(), http.MethodGet, s.tripPath(""), s.alice.token, nil)
	s.Equal(http.StatusNotFound, w.Code)
}

func (s *TripHandlerTestSuite) TestLeaveTrip() {
	w := s.srv.do(s.T(), http.MethodDelete, s.tripPath("/leave"), s.carol.token, nil)
	s.Equal(http.StatusForbidden, w.Code)

	// The only admin leaves, so bob is promoted
	w = s.srv.do(s.T(), http.MethodDelete, s.tripPath("/leave"), s.alice.token, nil)
	s.Require().Equal(http.StatusOK, w.Code)
	s.JSONEq(`{"trip_deleted":false,"promoted_user_id":"`+s.bob.id+`"}`, w.Body.String())

	w = s.srv.do(s.T(), http.MethodDelete, s.tripPath("/leave"), s.bob.token, nil)
	s.Require().Equal(http.StatusOK, w.Code)
	s.JSONEq(`{"trip_deleted":true}`, w.Body.String())

	w = s.srv.do(s.T(), http.MethodGet, s.tripPath(""), s.bob.token, nil)
	s.Equal(http.StatusNotFound, w.Code)
}

func (s *TripHandlerTestSuite) TestRegenerateJoinCode() {
	w := s.srv.do(s.T(), http.MethodPost, s.tripPath("/regenerate-code"), s.bob.token, nil)
	s.Equal(http.StatusForbidden, w.Code)

	w = s.srv.do(s.T(), http.MethodPost, s.tripPath("/regenerate-code"), s.alice.token, nil)
	s.Require().Equal(http.StatusOK, w.Code)

	var trip dto.TripDTO
	s.Require().NoError(json.Unmarshal(w.Body.Bytes(), &trip))
	s.Len(trip.JoinCode, 6)
	s.NotEqual(s.trip.JoinCode, trip.JoinCode)
}

func (s *TripHandlerTestSuite) TestRemoveMember() {
	w := s.srv.do(s.T(), http.MethodDelete, s.tripPath("/members/"+s.alice.id), s.bob.token, nil)
	s.Equal(http.StatusForbidden, w.Code)

	w = s.srv.do(s.T(), http.MethodDelete, s.tripPath("/members/"+s.alice.id), s.alice.token, nil)
	s.Equal(http.StatusBadRequest, w.Code)

	w = s.srv.do(s.T(), http.MethodDelete, s.tripPath("/members/"+s.carol.id), s.alice.token, nil)
	s.Equal(http.StatusNotFound, w.Code)

	w = s.srv.do(s.T(), http.MethodDelete, s.tripPath("/members/"+s.bob.id), s.alice.token, nil)
	s.Require().Equal(http.StatusOK, w.Code)

	w = s.srv.do(s.T(), http.MethodGet, s.tripPath(""), s.bob.token, nil)
	s.Equal(http.StatusNotFound, w.Code)
}

func TestTripHandlerTestSuite(t *testing.T) {
	suite.Run(t, new(TripHandlerTestSuite))
}
