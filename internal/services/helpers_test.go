package services

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"github.com/yukikurage/tripmate-api/internal/models"
	"github.com/yukikurage/tripmate-api/internal/repository"
	"github.com/yukikurage/tripmate-api/internal/testutil"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

var errStoreDown = errors.New("store unavailable")

type sentMail struct {
	to   string
	code string
}

type fakeMailer struct {
	mu   sync.Mutex
	sent []sentMail
	err  error
}

func (m *fakeMailer) SendPasswordReset(ctx context.Context, to, code string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return m.err
	}
	m.sent = append(m.sent, sentMail{to: to, code: code})
	return nil
}

func (m *fakeMailer) lastCode(t *testing.T) string {
	t.Helper()
	m.mu.Lock()
	defer m.mu.Unlock()
	require.NotEmpty(t, m.sent)
	return m.sent[len(m.sent)-1].code
}

type fakeStore struct {
	mu        sync.Mutex
	objects   map[string][]byte
	deleted   []string
	putErr    error
	deleteErr error
}

func newFakeStore() *fakeStore {
	return &fakeStore{objects: map[string][]byte{}}
}

func (s *fakeStore) Put(ctx context.Context, name string, body io.Reader) (*StoredObject, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.putErr != nil {
		return nil, s.putErr
	}
	data, err := io.ReadAll(body)
	if err != nil {
		return nil, err
	}
	ref := "gallery/" + name
	s.objects[ref] = data
	return &StoredObject{Ref: ref, URL: fmt.Sprintf("https://cdn.example.com/%s", ref)}, nil
}

func (s *fakeStore) Delete(ctx context.Context, ref string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.deleteErr != nil {
		return s.deleteErr
	}
	delete(s.objects, ref)
	s.deleted = append(s.deleted, ref)
	return nil
}

func (s *fakeStore) count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.objects)
}

type testEnv struct {
	db      *gorm.DB
	mailer  *fakeMailer
	store   *fakeStore
	auth    *AuthService
	trips   *TripService
	polls   *PollService
	gallery *GalleryService
}

func newTestEnv(t *testing.T, opts ...AuthOption) *testEnv {
	t.Helper()

	db := testutil.NewDB(t)
	mailer := &fakeMailer{}
	store := newFakeStore()

	trips := NewTripService(repository.NewTripRepository(db), store)
	return &testEnv{
		db:     db,
		mailer: mailer,
		store:  store,
		auth: NewAuthService(
			repository.NewUserRepository(db),
			NewBcryptHasher(bcrypt.MinCost),
			NewJWTIssuer("test-secret", time.Hour),
			mailer,
			opts...,
		),
		trips:   trips,
		polls:   NewPollService(repository.NewPollRepository(db), trips),
		gallery: NewGalleryService(repository.NewGalleryRepository(db), trips, store),
	}
}

func (e *testEnv) createUser(t *testing.T, name string) *models.User {
	t.Helper()
	user := &models.User{Name: name, Email: name + "@example.com", PasswordHash: "hashed"}
	require.NoError(t, e.db.Create(user).Error)
	return user
}

func (e *testEnv) createTrip(t *testing.T, owner *models.User) *models.Trip {
	t.Helper()
	trip, err := e.trips.CreateTrip(owner.ID, TripInput{Title: "Lisbon", Destination: "Portugal"})
	require.NoError(t, err)
	return trip
}

func (e *testEnv) join(t *testing.T, trip *models.Trip, user *models.User) {
	t.Helper()
	_, _, err := e.trips.JoinByCode(user.ID, trip.JoinCode)
	require.NoError(t, err)
}

func (e *testEnv) count(t *testing.T, model any, query string, args ...any) int64 {
	t.Helper()
	var n int64
	require.NoError(t, e.db.Model(model).Where(query, args...).Count(&n).Error)
	return n
}
