package server

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"huddle/internal/config"
	"huddle/internal/database"
	"huddle/internal/models"
	"huddle/internal/repository"
	"huddle/internal/testutil"
	"huddle/internal/upload"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/require"
)

const testSecret = "test-secret-key-12345678901234567890123456789012"

// envelope mirrors models.Envelope with the payload left raw.
type envelope struct {
	Status  int             `json:"status"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
}

type testEnv struct {
	cfg   *config.Config
	store *repository.Store
	app   *fiber.App
	admin *models.User
	alice *models.User
	bob   *models.User
}

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	return &config.Config{
		Port:          "0",
		Env:           "test",
		JWTSecret:     testSecret,
		JWTIssuer:     "huddle-api",
		JWTAudience:   "huddle-client",
		DBDriver:      config.DriverSQLite,
		SQLitePath:    ":memory:",
		UploadDir:     t.TempDir(),
		UploadBaseURL: "/uploads",
	}
}

// sqliteStore opens a migrated in-memory gorm store.
func sqliteStore(t *testing.T, cfg *config.Config) *repository.Store {
	t.Helper()
	db, err := database.Connect(cfg)
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	t.Cleanup(func() { _ = sqlDB.Close() })
	return repository.NewGormStore(db)
}

func newTestEnv(t *testing.T, cfg *config.Config, store *repository.Store) *testEnv {
	t.Helper()
	s, err := NewServerWithDeps(cfg, store, nil, upload.NewDiskUploader(cfg))
	require.NoError(t, err)

	return &testEnv{
		cfg:   cfg,
		store: store,
		app:   s.NewApp(),
		admin: testutil.CreateUser(t, store.Users, "admin", true),
		alice: testutil.CreateUser(t, store.Users, "alice", false),
		bob:   testutil.CreateUser(t, store.Users, "bob", false),
	}
}

func (e *testEnv) token(t *testing.T, u *models.User) string {
	t.Helper()
	tok, err := GenerateToken(e.cfg, u.ID, time.Hour)
	require.NoError(t, err)
	return tok
}

// do sends a JSON request as u (nil for anonymous) and decodes the envelope.
func (e *testEnv) do(t *testing.T, method, path string, u *models.User, body any) (int, envelope) {
	t.Helper()
	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if u != nil {
		req.Header.Set("Authorization", "Bearer "+e.token(t, u))
	}
	return e.send(t, req)
}

func (e *testEnv) send(t *testing.T, req *http.Request) (int, envelope) {
	t.Helper()
	resp, err := e.app.Test(req, -1)
	require.NoError(t, err)
	defer func() { _ = resp.Body.Close() }()

	var env envelope
	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	if len(raw) > 0 {
		require.NoError(t, json.Unmarshal(raw, &env), "body: %s", raw)
	}
	return resp.StatusCode, env
}

func decodeData[T any](t *testing.T, env envelope) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(env.Data, &v))
	return v
}
