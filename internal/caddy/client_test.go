package caddy

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClient_Push_Success(t *testing.T) {
	var loaded map[string]interface{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/load":
			require.Equal(t, http.MethodPost, r.Method)
			require.Equal(t, "application/json", r.Header.Get("Content-Type"))
			require.NoError(t, json.NewDecoder(r.Body).Decode(&loaded))
			w.WriteHeader(http.StatusOK)
		case "/config/":
			_ = json.NewEncoder(w).Encode(loaded)
		default:
			t.Errorf("unexpected path %s", r.URL.Path)
		}
	}))
	defer srv.Close()

	client := NewClient(srv.URL)
	err := client.Push(context.Background(), map[string]interface{}{"apps": map[string]interface{}{}})
	require.NoError(t, err)
	assert.Contains(t, loaded, "apps")
}

func TestClient_Push_Rejected(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"error":"bad route"}`, http.StatusBadRequest)
	}))
	defer srv.Close()

	client := NewClient(srv.URL)
	err := client.Push(context.Background(), map[string]interface{}{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "status 400")
	assert.Contains(t, err.Error(), "bad route")
}

func TestClient_Push_Unreachable(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	srv.Close()

	client := NewClient(srv.URL)
	err := client.Push(context.Background(), map[string]interface{}{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to reach proxy admin API")
}

func TestClient_Status_NullConfig(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/config/", r.URL.Path)
		_, _ = w.Write([]byte("null\n"))
	}))
	defer srv.Close()

	status := NewClient(srv.URL).Status(context.Background())
	assert.True(t, status.Reachable)
	assert.False(t, status.ConfigLoaded)
	assert.Empty(t, status.Error)
}

func TestClient_Status_ConfigLoaded(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"apps":{}}`))
	}))
	defer srv.Close()

	status := NewClient(srv.URL).Status(context.Background())
	assert.True(t, status.Reachable)
	assert.True(t, status.ConfigLoaded)
}

func TestClient_Status_Unreachable(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	srv.Close()

	status := NewClient(srv.URL).Status(context.Background())
	assert.False(t, status.Reachable)
	assert.NotEmpty(t, status.Error)
}
