package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestAuthConfig_IsAdminEmail(t *testing.T) {
	cfg := &AuthConfig{AdminEmails: []string{"admin@acadex.edu", " Staff@Acadex.edu "}}

	tests := []struct {
		email    string
		expected bool
	}{
		{"admin@acadex.edu", true},
		{"ADMIN@ACADEX.EDU", true},
		{"staff@acadex.edu", true},
		{"student@acadex.edu", false},
		{"", false},
	}

	for _, tt := range tests {
		t.Run(tt.email, func(t *testing.T) {
			assert.Equal(t, tt.expected, cfg.IsAdminEmail(tt.email))
		})
	}
}

func TestDatabaseConfig_DSN(t *testing.T) {
	cfg := &DatabaseConfig{
		Host:     "localhost",
		Port:     5432,
		User:     "postgres",
		Password: "secret",
		Database: "acadex",
		SSLMode:  "disable",
	}
	assert.Equal(t, "host=localhost port=5432 user=postgres password=secret dbname=acadex sslmode=disable", cfg.DSN())
}

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load()
	assert.NoError(t, err)
	assert.Equal(t, ":8080", cfg.Server.Address)
	assert.Equal(t, "acadex", cfg.Database.Database)
	assert.True(t, cfg.Auth.IsAdminEmail("admin@acadex.edu"))
}
