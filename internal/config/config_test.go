package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoadConfig(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "config.yaml")

	yamlContent := `
app:
  name: "campusbook"
  environment: "test"
database:
  path: "test.db"
reference:
  path: "reference.yaml"
api:
  auth:
    enabled: true
    api_keys:
      - key: "secret"
        name: "tests"
notify:
  webhook_url: "http://localhost:9000/hooks"
`
	if err := os.WriteFile(configPath, []byte(yamlContent), 0o644); err != nil {
		t.Fatalf("failed to write temp config: %v", err)
	}

	cfg, err := Load(configPath)
	if err != nil {
		t.Fatalf("failed to load config: %v", err)
	}

	if cfg.Database.Path != "test.db" {
		t.Errorf("expected database path test.db, got %s", cfg.Database.Path)
	}
	if cfg.API.Port != 8080 {
		t.Errorf("expected default api port 8080, got %d", cfg.API.Port)
	}
	if cfg.Booking.MaxAdvanceDays != 90 {
		t.Errorf("expected default max_advance_days 90, got %d", cfg.Booking.MaxAdvanceDays)
	}
	if cfg.Notify.MaxRetries != 5 {
		t.Errorf("expected default max_retries 5, got %d", cfg.Notify.MaxRetries)
	}
	if cfg.API.Auth.HeaderAPIKey != "x-api-key" {
		t.Errorf("expected default api key header, got %s", cfg.API.Auth.HeaderAPIKey)
	}
}

func TestLoadConfigExpandsEnv(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "config.yaml")

	t.Setenv("CAMPUSBOOK_DB_PATH", "/var/lib/campusbook.db")

	yamlContent := `
database:
  path: "${CAMPUSBOOK_DB_PATH}"
reference:
  path: "reference.yaml"
`
	if err := os.WriteFile(configPath, []byte(yamlContent), 0o644); err != nil {
		t.Fatalf("failed to write temp config: %v", err)
	}

	cfg, err := Load(configPath)
	if err != nil {
		t.Fatalf("failed to load config: %v", err)
	}

	if cfg.Database.Path != "/var/lib/campusbook.db" {
		t.Errorf("env var not expanded, got %s", cfg.Database.Path)
	}
}

func TestValidateConfig(t *testing.T) {
	tests := []struct {
		name    string
		cfg     Config
		wantErr bool
	}{
		{
			name: "valid config",
			cfg: Config{
				Database:  DatabaseConfig{Path: "db.sqlite"},
				Reference: ReferenceConfig{Path: "reference.yaml"},
			},
			wantErr: false,
		},
		{
			name: "missing database path",
			cfg: Config{
				Reference: ReferenceConfig{Path: "reference.yaml"},
			},
			wantErr: true,
		},
		{
			name: "missing reference path",
			cfg: Config{
				Database: DatabaseConfig{Path: "db.sqlite"},
			},
			wantErr: true,
		},
		{
			name: "auth enabled without keys",
			cfg: Config{
				Database:  DatabaseConfig{Path: "db.sqlite"},
				Reference: ReferenceConfig{Path: "reference.yaml"},
				API:       APIConfig{Auth: APIAuthConfig{Enabled: true}},
			},
			wantErr: true,
		},
		{
			name: "negative advance window",
			cfg: Config{
				Database:  DatabaseConfig{Path: "db.sqlite"},
				Reference: ReferenceConfig{Path: "reference.yaml"},
				Booking:   BookingConfig{MaxAdvanceDays: -1},
			},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.cfg.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}
