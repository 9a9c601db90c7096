package azuracast

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUploadFile(t *testing.T) {
	var gotPath, gotKey string
	var gotBody uploadRequest

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotKey = r.Header.Get("X-API-Key")
		require.NoError(t, json.NewDecoder(r.Body).Decode(&gotBody))
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	c := New(srv.URL, "secret-key", 2)
	err := c.UploadFile(context.Background(), "promo.mp3", []byte("audio-bytes"))
	require.NoError(t, err)

	assert.Equal(t, "/api/station/2/files", gotPath)
	assert.Equal(t, "secret-key", gotKey)
	assert.Equal(t, "announcements/promo.mp3", gotBody.Path)
	assert.Equal(t, base64.StdEncoding.EncodeToString([]byte("audio-bytes")), gotBody.File)
}

func TestPlayNow(t *testing.T) {
	var gotPath string
	var gotBody playRequest

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		require.NoError(t, json.NewDecoder(r.Body).Decode(&gotBody))
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	c := New(srv.URL, "secret-key", 1)
	require.NoError(t, c.PlayNow(context.Background(), "promo.mp3"))

	assert.Equal(t, "/api/station/1/queue/interrupt", gotPath)
	assert.Equal(t, "announcements/promo.mp3", gotBody.File)
}

func TestPlayNowErrorStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "station offline", http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	c := New(srv.URL, "secret-key", 1)
	err := c.PlayNow(context.Background(), "promo.mp3")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "503")
	assert.Contains(t, err.Error(), "station offline")
}

func TestNowPlaying(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/nowplaying/1", r.URL.Path)
		_, _ = w.Write([]byte(`{
			"station": {"name": "Radio Austral"},
			"live": {"is_live": false},
			"now_playing": {"song": {"title": "Promo verano", "artist": "Cartwall"}}
		}`))
	}))
	defer srv.Close()

	c := New(srv.URL, "secret-key", 1)
	np, err := c.NowPlaying(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "Radio Austral", np.StationName)
	assert.Equal(t, "Promo verano", np.Title)
	assert.False(t, np.IsLive)
}
