package backend

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/mmcdole/shelf/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestServer(seed ...domain.Book) (*MemoryStore, http.Handler) {
	store := NewMemoryStore(seed...)
	return store, NewServer(store, nil).Router()
}

func serve(h http.Handler, method, path string, body any) *httptest.ResponseRecorder {
	var buf bytes.Buffer
	if body != nil {
		_ = json.NewEncoder(&buf).Encode(body)
	}
	req := httptest.NewRequest(method, path, &buf)
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	return w
}

var dune = domain.Book{
	ID: "b1", Title: "Dune", ISBN: "9780441013593", Author: "Frank Herbert",
	Price: 9.99, PictureURL: "https://covers.example.com/dune.jpg",
}

func TestServer_Health(t *testing.T) {
	_, h := newTestServer()
	w := serve(h, http.MethodGet, "/api/health", nil)
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestServer_ListAndGet(t *testing.T) {
	_, h := newTestServer(dune)

	w := serve(h, http.MethodGet, "/api/books", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var list []record
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &list))
	require.Len(t, list, 1)
	assert.Equal(t, "b1", *list[0].ID)
	assert.Equal(t, dune.PictureURL, list[0].Picture)

	w = serve(h, http.MethodGet, "/api/books/b1", nil)
	require.Equal(t, http.StatusOK, w.Code)
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &list))
	assert.Len(t, list, 1)

	w = serve(h, http.MethodGet, "/api/books/missing", nil)
	require.Equal(t, http.StatusOK, w.Code)
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &list))
	assert.Empty(t, list)
}

func TestServer_SaveCreatesWhenIDIsNull(t *testing.T) {
	store, h := newTestServer()

	in := toRecord(dune)
	in.ID = nil
	w := serve(h, http.MethodPost, "/api/books", in)
	require.Equal(t, http.StatusOK, w.Code)

	var out record
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out))
	require.NotNil(t, out.ID)
	assert.NotEmpty(t, *out.ID)

	got, ok := store.Get(*out.ID)
	require.True(t, ok)
	assert.Equal(t, "Dune", got.Title)
}

func TestServer_SaveReplacesByID(t *testing.T) {
	store, h := newTestServer(dune)

	edited := dune
	edited.Price = 12
	w := serve(h, http.MethodPost, "/api/books", toRecord(edited))
	require.Equal(t, http.StatusOK, w.Code)

	got, _ := store.Get("b1")
	assert.Equal(t, 12.0, got.Price)
	assert.Len(t, store.List(), 1)
}

func TestServer_SaveRejectsInvalidBooks(t *testing.T) {
	store, h := newTestServer()

	bad := dune
	bad.Price = 0
	w := serve(h, http.MethodPost, "/api/books", toRecord(bad))
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)

	w = serve(h, http.MethodPost, "/api/books", "not an object")
	assert.Equal(t, http.StatusBadRequest, w.Code)

	assert.Empty(t, store.List())
}

func TestServer_DeleteIsIdempotent(t *testing.T) {
	store, h := newTestServer(dune)

	w := serve(h, http.MethodDelete, "/api/books/b1", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Empty(t, store.List())

	w = serve(h, http.MethodDelete, "/api/books/b1", nil)
	assert.Equal(t, http.StatusOK, w.Code)
}
