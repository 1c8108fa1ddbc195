package docstore

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/studydeck/studydeck/internal/domain/record"
	"github.com/studydeck/studydeck/pkg/retry"
)

func testConfig(baseURL string) JSONBinConfig {
	cfg := DefaultJSONBinConfig("bin123", "secret-key")
	cfg.BaseURL = baseURL
	cfg.Timeout = 2 * time.Second
	cfg.RetryConfig = retry.Config{MaxAttempts: 2, InitialDelay: time.Millisecond, MaxDelay: time.Millisecond, Multiplier: 1}
	return cfg
}

func TestJSONBinFetch(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodGet, r.Method)
		assert.Equal(t, "/b/bin123", r.URL.Path)
		assert.Equal(t, "secret-key", r.Header.Get("X-Master-Key"))
		w.Write([]byte(`{"record": {"alice": {"tasks": [{"id": "t1", "name": "Read", "freq": "daily"}]}}}`))
	}))
	defer server.Close()

	store := NewJSONBin(testConfig(server.URL))
	doc, err := store.Fetch(context.Background())
	require.NoError(t, err)
	require.Contains(t, doc, "alice")
	require.Len(t, doc["alice"].Tasks, 1)
	assert.Equal(t, "Read", doc["alice"].Tasks[0].Name)
}

func TestJSONBinFetchEmptyBin(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"record": null}`))
	}))
	defer server.Close()

	store := NewJSONBin(testConfig(server.URL))
	doc, err := store.Fetch(context.Background())
	require.NoError(t, err)
	assert.NotNil(t, doc)
	assert.Empty(t, doc)
}

func TestJSONBinFetchMissingBin(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer server.Close()

	store := NewJSONBin(testConfig(server.URL))
	doc, err := store.Fetch(context.Background())
	require.NoError(t, err)
	assert.Empty(t, doc)
}

func TestJSONBinFetchUnauthorized(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	}))
	defer server.Close()

	store := NewJSONBin(testConfig(server.URL))
	_, err := store.Fetch(context.Background())
	assert.ErrorIs(t, err, ErrUnauthorized)
}

func TestJSONBinFetchRetriesServerErrors(t *testing.T) {
	attempts := 0
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		attempts++
		if attempts == 1 {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		w.Write([]byte(`{"record": {}}`))
	}))
	defer server.Close()

	store := NewJSONBin(testConfig(server.URL))
	_, err := store.Fetch(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, attempts)
}

func TestJSONBinReplace(t *testing.T) {
	var got record.Document
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPut, r.Method)
		assert.Equal(t, "/b/bin123", r.URL.Path)
		assert.Equal(t, "secret-key", r.Header.Get("X-Master-Key"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		w.Write([]byte(`{}`))
	}))
	defer server.Close()

	doc := record.Document{"alice": record.Default()}
	doc["alice"].Progress.MarkDone("t1", "2024-01-01")

	store := NewJSONBin(testConfig(server.URL))
	require.NoError(t, store.Replace(context.Background(), doc))
	require.Contains(t, got, "alice")
	assert.Equal(t, []string{"2024-01-01"}, got["alice"].Progress["t1"])
}

func TestJSONBinReplaceServerDown(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer server.Close()

	store := NewJSONBin(testConfig(server.URL))
	err := store.Replace(context.Background(), record.Document{})
	assert.ErrorIs(t, err, ErrUnavailable)
}
