package remote

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/mmcdole/shelf/internal/backend"
	"github.com/mmcdole/shelf/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var dune = domain.Book{
	ID: "b1", Title: "Dune", ISBN: "9780441013593", Author: "Frank Herbert",
	Price: 9.99, PictureURL: "https://covers.example.com/dune.jpg",
}

func newBackend(t *testing.T, seed ...domain.Book) (*backend.MemoryStore, *Client) {
	t.Helper()
	store := backend.NewMemoryStore(seed...)
	srv := httptest.NewServer(backend.NewServer(store, nil).Router())
	t.Cleanup(srv.Close)
	return store, NewClient(srv.URL+"/", time.Second, nil)
}

func TestClient_List(t *testing.T) {
	_, c := newBackend(t, dune)

	books, err := c.List(context.Background())
	require.NoError(t, err)
	require.Len(t, books, 1)
	assert.Equal(t, dune, books[0])
}

func TestClient_Get(t *testing.T) {
	_, c := newBackend(t, dune)
	ctx := context.Background()

	got, err := c.Get(ctx, "b1")
	require.NoError(t, err)
	assert.Equal(t, dune, got)

	_, err = c.Get(ctx, "missing")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestClient_GetNotFoundStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer srv.Close()

	_, err := NewClient(srv.URL, time.Second, nil).Get(context.Background(), "x")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestClient_CreateAssignsID(t *testing.T) {
	store, c := newBackend(t)

	in := dune
	in.ID = ""
	saved, err := c.CreateOrUpdate(context.Background(), in)
	require.NoError(t, err)
	require.NotEmpty(t, saved.ID)

	got, ok := store.Get(saved.ID)
	require.True(t, ok)
	assert.Equal(t, "Dune", got.Title)
}

func TestClient_UpdateKeepsID(t *testing.T) {
	store, c := newBackend(t, dune)

	edited := dune
	edited.Title = "Dune Messiah"
	saved, err := c.CreateOrUpdate(context.Background(), edited)
	require.NoError(t, err)
	assert.Equal(t, "b1", saved.ID)

	got, _ := store.Get("b1")
	assert.Equal(t, "Dune Messiah", got.Title)
}

func TestClient_Delete(t *testing.T) {
	store, c := newBackend(t, dune)

	require.NoError(t, c.Delete(context.Background(), "b1"))
	assert.Empty(t, store.List())
}

func TestClient_NonOKStatusIsFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusCreated)
	}))
	defer srv.Close()

	err := NewClient(srv.URL, time.Second, nil).Delete(context.Background(), "b1")
	require.Error(t, err)

	var se *StatusError
	require.True(t, errors.As(err, &se))
	assert.Equal(t, http.StatusCreated, se.StatusCode)
	assert.Equal(t, http.MethodDelete, se.Method)
}

func TestClient_EmptySaveResponseEchoesInput(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	saved, err := NewClient(srv.URL, time.Second, nil).CreateOrUpdate(context.Background(), dune)
	require.NoError(t, err)
	assert.Equal(t, dune, saved)
}

func TestClient_UnreachableServer(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	c := NewClient(url, time.Second, nil)
	_, err := c.List(context.Background())
	assert.ErrorIs(t, err, domain.ErrServerOffline)
	assert.ErrorIs(t, c.Ping(context.Background()), domain.ErrServerOffline)
}

func TestClient_Ping(t *testing.T) {
	_, c := newBackend(t)
	assert.NoError(t, c.Ping(context.Background()))
}

func TestDTO_NullIDForNewBooks(t *testing.T) {
	in := dune
	in.ID = ""
	assert.Nil(t, toDTO(in).ID)

	dto := toDTO(dune)
	require.NotNil(t, dto.ID)
	assert.Equal(t, "b1", *dto.ID)
	assert.Equal(t, dune, mapBook(dto))
}
