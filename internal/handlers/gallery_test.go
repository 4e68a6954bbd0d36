package handlers

import (
	"bytes"
	"encoding/json"
	"errors"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/textproto"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/yukikurage/tripmate-api/internal/constants"
	"github.com/yukikurage/tripmate-api/internal/dto"
	apierrors "github.com/yukikurage/tripmate-api/internal/errors"
)

var pngHeader = []byte("\x89PNG\r\n\x1a\n\x00\x00\x00\rIHDR")

// upload posts data as the "image" field. An empty contentType leaves the
// part with the generic type multipart writers default to.
func (s *testServer) upload(t *testing.T, user account, tripID, contentType string, data []byte) *httptest.ResponseRecorder {
	t.Helper()

	var body bytes.Buffer
	mw := multipart.NewWriter(&body)

	var (
		part io.Writer
		err  error
	)
	if contentType == "" {
		part, err = mw.CreateFormFile("image", "photo.bin")
	} else {
		header := textproto.MIMEHeader{}
		header.Set("Content-Disposition", `form-data; name="image"; filename="photo"`)
		header.Set("Content-Type", contentType)
		part, err = mw.CreatePart(header)
	}
	require.NoError(t, err)
	_, err = part.Write(data)
	require.NoError(t, err)
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, "/api/trips/"+tripID+"/gallery", &body)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	req.Header.Set("Authorization", "Bearer "+user.token)

	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, req)
	return w
}

func pngBytes(size int) []byte {
	data := make([]byte, size)
	copy(data, pngHeader)
	return data
}

func TestGalleryHandler_Upload(t *testing.T) {
	srv := newTestServer(t)
	alice := srv.signup(t, "alice")
	mallory := srv.signup(t, "mallory")
	trip := srv.createTrip(t, alice, "Lisbon")

	// Sniffed from the file content
	w := srv.upload(t, alice, trip.ID, "", pngBytes(1024))
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	var item dto.GalleryItemDTO
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &item))
	assert.Equal(t, "image/png", item.ContentType)
	assert.Equal(t, int64(1024), item.Size)
	assert.Equal(t, alice.id, item.UploadedBy.ID)
	assert.Equal(t, "alice", item.UploadedBy.Name)
	assert.NotEmpty(t, item.URL)
	assert.Equal(t, 1, srv.store.count())

	// Taken from the part header
	w = srv.upload(t, alice, trip.ID, "image/jpeg", []byte("jpeg-bytes"))
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	w = srv.upload(t, alice, trip.ID, "", []byte("just some text"))
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = srv.upload(t, alice, trip.ID, "image/gif", []byte("GIF89a"))
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = srv.upload(t, mallory, trip.ID, "image/png", pngBytes(64))
	assert.Equal(t, http.StatusForbidden, w.Code)

	w = srv.do(t, http.MethodPost, "/api/trips/"+trip.ID+"/gallery", alice.token, nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	assert.Equal(t, 2, srv.store.count())
}

func TestGalleryHandler_UploadRejectsOversizedBody(t *testing.T) {
	srv := newTestServer(t)
	alice := srv.signup(t, "alice")
	trip := srv.createTrip(t, alice, "Lisbon")

	w := srv.upload(t, alice, trip.ID, "image/png", pngBytes(constants.MaxUploadBodySize+1))
	require.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, apierrors.ErrCodeInvalidInput, decodeError(t, w)["code"])
	assert.Zero(t, srv.store.count())

	// An image just under the limit still goes through.
	w = srv.upload(t, alice, trip.ID, "image/png", pngBytes(constants.MaxImageSize))
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
}

func TestGalleryHandler_UploadStoreFailure(t *testing.T) {
	srv := newTestServer(t)
	alice := srv.signup(t, "alice")
	trip := srv.createTrip(t, alice, "Lisbon")
	srv.store.putErr = errors.New("cloud down")

	w := srv.upload(t, alice, trip.ID, "image/png", pngBytes(64))
	require.Equal(t, http.StatusBadGateway, w.Code)
	assert.Equal(t, apierrors.ErrCodeUpstreamFailure, decodeError(t, w)["code"])

	w = srv.do(t, http.MethodGet, "/api/trips/"+trip.ID+"/gallery", alice.token, nil)
	require.Equal(t, http.StatusOK, w.Code)

	var list dto.GalleryListResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &list))
	assert.Empty(t, list.Items)
	assert.Zero(t, list.Pagination.Total)
}

func TestGalleryHandler_List(t *testing.T) {
	srv := newTestServer(t)
	alice := srv.signup(t, "alice")
	bob := srv.signup(t, "bob")
	trip := srv.createTrip(t, alice, "Lisbon")

	for i := 0; i < 3; i++ {
		w := srv.upload(t, alice, trip.ID, "image/webp", []byte("RIFF....WEBP"))
		require.Equal(t, http.StatusCreated, w.Code)
	}

	w := srv.do(t, http.MethodGet, "/api/trips/"+trip.ID+"/gallery?page=2&limit=2", alice.token, nil)
	require.Equal(t, http.StatusOK, w.Code)

	var list dto.GalleryListResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &list))
	assert.Len(t, list.Items, 1)
	assert.Equal(t, 2, list.Pagination.Page)
	assert.Equal(t, 2, list.Pagination.Limit)
	assert.Equal(t, int64(3), list.Pagination.Total)

	w = srv.do(t, http.MethodGet, "/api/trips/"+trip.ID+"/gallery", bob.token, nil)
	assert.Equal(t, http.StatusForbidden, w.Code)
}

func TestGalleryHandler_Remove(t *testing.T) {
	srv := newTestServer(t)
	alice := srv.signup(t, "alice")
	bob := srv.signup(t, "bob")
	trip := srv.createTrip(t, alice, "Lisbon")
	srv.join(t, bob, trip.JoinCode)

	w := srv.upload(t, bob, trip.ID, "image/png", pngBytes(64))
	require.Equal(t, http.StatusCreated, w.Code)
	var item dto.GalleryItemDTO
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &item))

	// Admins cannot delete other members' photos
	w = srv.do(t, http.MethodDelete, "/api/gallery/"+item.ID, alice.token, nil)
	assert.Equal(t, http.StatusForbidden, w.Code)

	srv.store.deleteErr = errors.New("cloud down")
	w = srv.do(t, http.MethodDelete, "/api/gallery/"+item.ID, bob.token, nil)
	assert.Equal(t, http.StatusBadGateway, w.Code)
	assert.Equal(t, 1, srv.store.count())

	srv.store.deleteErr = nil
	w = srv.do(t, http.MethodDelete, "/api/gallery/"+item.ID, bob.token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Zero(t, srv.store.count())

	w = srv.do(t, http.MethodDelete, "/api/gallery/"+item.ID, bob.token, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}
