package config

import (
	"os"
	"testing"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validConfig() *Config {
	return &Config{
		Port:                "8080",
		Env:                 "development",
		JWTSecret:           "secure-secret-at-least-32-chars-long",
		DBDriver:            DriverPostgres,
		DBPassword:          "secure-password",
		DBSSLMode:           "require",
		MongoURI:            "mongodb://localhost:27017",
		UploadMaxSizeMB:     10,
		TracingSamplerRatio: 1,
	}
}

func TestConfig_Validate(t *testing.T) {
	tests := []struct {
		name        string
		mutate      func(*Config)
		expectError bool
	}{
		{"valid development", func(c *Config) {}, false},
		{"missing port", func(c *Config) { c.Port = "" }, true},
		{"missing secret", func(c *Config) { c.JWTSecret = "" }, true},
		{"unknown driver", func(c *Config) { c.DBDriver = "cassandra" }, true},
		{"mongo without uri", func(c *Config) { c.DBDriver = DriverMongo; c.MongoURI = "" }, true},
		{"mongo with uri", func(c *Config) { c.DBDriver = DriverMongo }, false},
		{"zero upload size", func(c *Config) { c.UploadMaxSizeMB = 0 }, true},
		{"sampler above one", func(c *Config) { c.TracingSamplerRatio = 1.5 }, true},
		{"production default secret", func(c *Config) { c.Env = "production"; c.JWTSecret = defaultJWTSecret }, true},
		{"production short secret", func(c *Config) { c.Env = "production"; c.JWTSecret = "short" }, true},
		{"production ssl disabled", func(c *Config) { c.Env = "production"; c.DBSSLMode = "disable" }, true},
		{"production weak db password", func(c *Config) { c.Env = "prod"; c.DBPassword = "password" }, true},
		{"production sqlite", func(c *Config) { c.Env = "production"; c.DBDriver = DriverSQLite }, true},
		{"production postgres", func(c *Config) { c.Env = "production" }, false},
		{"production mongo ignores ssl", func(c *Config) { c.Env = "production"; c.DBDriver = DriverMongo; c.DBSSLMode = "" }, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := validConfig()
			tt.mutate(c)
			err := c.Validate()
			if tt.expectError {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestLoadConfig_Normalization(t *testing.T) {
	defer os.Unsetenv("APP_ENV")
	defer os.Unsetenv("DB_SSLMODE")
	defer os.Unsetenv("DB_DRIVER")
	defer os.Unsetenv("UPLOAD_BASE_URL")
	defer viper.Reset()

	os.Setenv("APP_ENV", "development")
	os.Setenv("DB_SSLMODE", "  DISABLE  ")
	os.Setenv("DB_DRIVER", " SQLite ")
	os.Setenv("UPLOAD_BASE_URL", "/media/")

	c, err := LoadConfig()
	require.NoError(t, err)
	assert.Equal(t, "disable", c.DBSSLMode)
	assert.Equal(t, DriverSQLite, c.DBDriver)
	assert.Equal(t, "/media", c.UploadBaseURL)
	assert.Equal(t, "huddle-api", c.JWTIssuer)
	assert.False(t, c.EmptyListNotFound)
}
