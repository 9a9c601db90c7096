package endpoints

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Andes-Streaming/cartwall/internal/db"
	"github.com/Andes-Streaming/cartwall/internal/http/api"
	"github.com/Andes-Streaming/cartwall/internal/model"
)

const testSecret = "endpoint-test-secret"

type recordingPlayback struct {
	mu    sync.Mutex
	files []string
	err   error
}

func (p *recordingPlayback) PlayNow(_ context.Context, filename string) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.files = append(p.files, filename)
	return p.err
}

type testEnv struct {
	router   *gin.Engine
	store    db.Store
	playback *recordingPlayback
	token    string
	userID   int
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	gin.SetMode(gin.TestMode)

	conn, err := db.Open(":memory:")
	require.NoError(t, err)
	// each pooled connection would get its own in-memory database
	conn.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = conn.Close() })
	require.NoError(t, db.RunMigrations(conn, "../../../../../migrations"))

	store := db.NewStore(conn)
	playback := &recordingPlayback{}

	r := gin.New()
	api.MountGroup(r, api.GroupConfig{Prefix: "/api/admin"},
		AuthPublicModule(testSecret, store),
	)
	api.MountGroup(r, api.GroupConfig{
		Prefix:    "/api/admin",
		Auth:      true,
		SecretKey: testSecret,
		Store:     store,
	},
		ScheduleModule(store, playback),
		AuthSessionModule(testSecret, store),
	)

	env := &testEnv{router: r, store: store, playback: playback}

	signup := env.do(t, http.MethodPost, "/api/admin/auth/signup", "", map[string]any{
		"email":    "studio@example.com",
		"password": "hunter2hunter2",
	})
	require.Equal(t, http.StatusOK, signup.Code)
	var tok struct {
		Token string `json:"token"`
	}
	require.NoError(t, json.Unmarshal(signup.Body.Bytes(), &tok))
	env.token = tok.Token

	user, err := store.GetUserByEmail(context.Background(), "studio@example.com")
	require.NoError(t, err)
	env.userID = user.ID
	return env
}

func (e *testEnv) do(t *testing.T, method, path, token string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var reader *bytes.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	} else {
		reader = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	e.router.ServeHTTP(rec, req)
	return rec
}

func (e *testEnv) seedAnnouncement(t *testing.T) model.Announcement {
	t.Helper()
	a := model.Announcement{
		Title:     "Top of the hour",
		Category:  "ids",
		Filename:  "top_of_the_hour.mp3",
		URL:       "http://localhost:8080/uploads/top_of_the_hour.mp3",
		CreatedBy: e.userID,
	}
	require.NoError(t, e.store.CreateAnnouncement(context.Background(), &a))
	return a
}

func TestSchedulesRequireAuth(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do(t, http.MethodGet, "/api/admin/schedules", "", nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = env.do(t, http.MethodGet, "/api/admin/schedules", "not-a-token", nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestCreateAndListSchedules(t *testing.T) {
	env := newTestEnv(t)
	a := env.seedAnnouncement(t)

	rec := env.do(t, http.MethodPost, "/api/admin/schedules", env.token, map[string]any{
		"title":           "Hourly ID",
		"announcement_id": a.ID,
		"kind":            "interval",
		"every_hours":     1,
	})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var created map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &created))
	assert.Equal(t, "interval", created["kind"])
	assert.Equal(t, a.Filename, created["filename"])
	assert.Equal(t, true, created["is_active"])

	rec = env.do(t, http.MethodGet, "/api/admin/schedules", env.token, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var listed []map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &listed))
	assert.Len(t, listed, 1)
}

func TestCreateScheduleValidation(t *testing.T) {
	env := newTestEnv(t)
	a := env.seedAnnouncement(t)

	cases := []struct {
		name string
		body map[string]any
	}{
		{"interval without interval", map[string]any{
			"title": "x", "announcement_id": a.ID, "kind": "interval",
		}},
		{"specific days without days", map[string]any{
			"title": "x", "announcement_id": a.ID, "kind": "specific_days",
			"times_of_day": []string{"14:00"},
		}},
		{"once without window start", map[string]any{
			"title": "x", "announcement_id": a.ID, "kind": "once",
			"times_of_day": []string{"14:00"},
		}},
		{"bad time of day", map[string]any{
			"title": "x", "announcement_id": a.ID, "kind": "specific_days",
			"days_of_week": []string{"monday"}, "times_of_day": []string{"2pm"},
		}},
		{"unknown kind", map[string]any{
			"title": "x", "announcement_id": a.ID, "kind": "hourly",
		}},
		{"window end precedes start", map[string]any{
			"title": "x", "announcement_id": a.ID, "kind": "interval",
			"every_minutes": 30,
			"window_start":  "2026-09-10", "window_end": "2026-09-01",
		}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			rec := env.do(t, http.MethodPost, "/api/admin/schedules", env.token, tc.body)
			assert.Equal(t, http.StatusBadRequest, rec.Code, rec.Body.String())
		})
	}
}

func TestCreateScheduleUnknownAnnouncement(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do(t, http.MethodPost, "/api/admin/schedules", env.token, map[string]any{
		"title":           "Hourly ID",
		"announcement_id": 999,
		"kind":            "interval",
		"every_hours":     1,
	})
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestSetScheduleActive(t *testing.T) {
	env := newTestEnv(t)
	a := env.seedAnnouncement(t)

	rec := env.do(t, http.MethodPost, "/api/admin/schedules", env.token, map[string]any{
		"title":           "Hourly ID",
		"announcement_id": a.ID,
		"kind":            "interval",
		"every_hours":     1,
	})
	require.Equal(t, http.StatusOK, rec.Code)

	rec = env.do(t, http.MethodPatch, "/api/admin/schedules/1/active", env.token, map[string]any{
		"active": false,
	})
	require.Equal(t, http.StatusOK, rec.Code)

	active, err := env.store.ListActiveSchedules(context.Background())
	require.NoError(t, err)
	assert.Empty(t, active)
}

func TestManualPlayRecordsExecution(t *testing.T) {
	env := newTestEnv(t)
	a := env.seedAnnouncement(t)

	rec := env.do(t, http.MethodPost, "/api/admin/schedules", env.token, map[string]any{
		"title":           "Hourly ID",
		"announcement_id": a.ID,
		"kind":            "interval",
		"every_hours":     1,
	})
	require.Equal(t, http.StatusOK, rec.Code)

	rec = env.do(t, http.MethodPost, "/api/admin/schedules/1/play", env.token, nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, []string{a.Filename}, env.playback.files)

	rec = env.do(t, http.MethodGet, "/api/admin/schedules/1/executions", env.token, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var entries []map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &entries))
	require.Len(t, entries, 1)
	assert.Equal(t, "success", entries[0]["status"])
	assert.Contains(t, entries[0]["message"], "manual play")
}

func TestCurrentProfile(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do(t, http.MethodGet, "/api/admin/auth/current_profile", env.token, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var profile struct {
		Email string `json:"email"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &profile))
	assert.Equal(t, "studio@example.com", profile.Email)
}

func TestLoginWrongPassword(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do(t, http.MethodPost, "/api/admin/auth/login", "", map[string]any{
		"email":    "studio@example.com",
		"password": "wrong-password",
	})
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}
