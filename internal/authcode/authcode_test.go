package authcode

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFetch(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/auth/requestcode", r.URL.Path)
		assert.Equal(t, "alice", r.URL.Query().Get("username"))
		assert.Equal(t, "deadbeef", r.URL.Query().Get("password"))
		w.Write([]byte("246810\n"))
	}))
	defer srv.Close()

	code, err := New(srv.URL).Fetch(context.Background(), "alice", "deadbeef")
	require.NoError(t, err)
	assert.Equal(t, "246810", code)
}

func TestFetchServerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "nope", http.StatusBadGateway)
	}))
	defer srv.Close()

	_, err := New(srv.URL).Fetch(context.Background(), "alice", "deadbeef")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "502")
}

func TestFetchEmptyBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("  \n"))
	}))
	defer srv.Close()

	_, err := New(srv.URL).Fetch(context.Background(), "alice", "deadbeef")
	assert.ErrorIs(t, err, ErrEmptyCode)
}

func TestFetchContextCanceled(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		<-r.Context().Done()
	}))
	defer srv.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := New(srv.URL).Fetch(ctx, "alice", "deadbeef")
	assert.ErrorIs(t, err, context.Canceled)
}
