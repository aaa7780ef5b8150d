package main

import (
	"bytes"
	"context"
	"encoding/json"
	"strings"
	"testing"
	"time"

	"huddle/internal/config"
	"huddle/internal/models"
	"huddle/internal/service"
	"huddle/internal/testutil"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSetAdmin_PromoteAndDemote(t *testing.T) {
	ctx := context.Background()
	store := testutil.NewStore()
	alice := testutil.CreateUser(t, store.Users, "alice", false)
	users := service.NewUserService(store.Users)

	var out bytes.Buffer
	require.NoError(t, runSetAdmin(ctx, users, &out, alice.ID, true))
	assert.Contains(t, out.String(), "alice")
	assert.Contains(t, out.String(), "is now an admin")

	isAdmin, err := users.IsAdmin(ctx, alice.ID)
	require.NoError(t, err)
	assert.True(t, isAdmin)

	out.Reset()
	require.NoError(t, runSetAdmin(ctx, users, &out, alice.ID, false))
	assert.Contains(t, out.String(), "no longer an admin")

	isAdmin, err = users.IsAdmin(ctx, alice.ID)
	require.NoError(t, err)
	assert.False(t, isAdmin)
}

func TestSetAdmin_Errors(t *testing.T) {
	users := service.NewUserService(testutil.NewStore().Users)

	tests := []struct {
		name string
		id   string
		want int
	}{
		{"malformed id", "not-an-id", 400},
		{"unknown user", models.NewID(), 404},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := runSetAdmin(context.Background(), users, &bytes.Buffer{}, tt.id, true)
			require.Error(t, err)
			assert.Equal(t, tt.want, models.StatusCode(err))
		})
	}
}

func TestListAdmins(t *testing.T) {
	ctx := context.Background()
	store := testutil.NewStore()
	users := service.NewUserService(store.Users)

	var out bytes.Buffer
	require.NoError(t, runListAdmins(ctx, users, &out, false))
	assert.Equal(t, "No admins found\n", out.String())

	testutil.CreateUser(t, store.Users, "root", true)
	testutil.CreateUser(t, store.Users, "bob", false)

	out.Reset()
	require.NoError(t, runListAdmins(ctx, users, &out, false))
	lines := strings.Split(strings.TrimSpace(out.String()), "\n")
	require.Len(t, lines, 2)
	assert.True(t, strings.HasPrefix(lines[0], "ID"))
	assert.Contains(t, lines[1], "root@example.com")

	out.Reset()
	require.NoError(t, runListAdmins(ctx, users, &out, true))
	var decoded []map[string]interface{}
	require.NoError(t, json.Unmarshal(out.Bytes(), &decoded))
	assert.Len(t, decoded, 1)
}

func TestRunToken(t *testing.T) {
	ctx := context.Background()
	store := testutil.NewStore()
	alice := testutil.CreateUser(t, store.Users, "alice", false)
	users := service.NewUserService(store.Users)
	cfg := &config.Config{JWTSecret: "admin-test-secret", JWTIssuer: "huddle-api", JWTAudience: "huddle-client"}

	var out bytes.Buffer
	require.NoError(t, runToken(ctx, cfg, users, &out, alice.ID, time.Hour))

	raw := strings.TrimSpace(out.String())
	parsed, err := jwt.Parse(raw, func(*jwt.Token) (interface{}, error) {
		return []byte(cfg.JWTSecret), nil
	}, jwt.WithIssuer(cfg.JWTIssuer), jwt.WithAudience(cfg.JWTAudience))
	require.NoError(t, err)
	sub, err := parsed.Claims.GetSubject()
	require.NoError(t, err)
	assert.Equal(t, alice.ID, sub)

	assert.Error(t, runToken(ctx, cfg, users, &bytes.Buffer{}, alice.ID, 0))
	assert.Error(t, runToken(ctx, cfg, users, &bytes.Buffer{}, models.NewID(), time.Hour))
}
