// Copyright (c) 2026 Alexey Volkov
// SPDX-License-Identifier: GPL-3.0-or-later

package config

import (
	"os"
	"testing"
)

func setEnv(t *testing.T, key, value string) {
	t.Helper()
	if err := os.Setenv(key, value); err != nil {
		t.Fatalf("failed to set %s: %v", key, err)
	}
}

func TestLoad_Defaults(t *testing.T) {
	os.Clearenv()
	setEnv(t, "SITE_SESSION_SECRET", "test-secret-key-32-bytes-long!!!")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}

	if cfg.DBPath != "./data/site.db" {
		t.Errorf("DBPath = %q, want %q", cfg.DBPath, "./data/site.db")
	}
	if cfg.ServerHost != "localhost" {
		t.Errorf("ServerHost = %q, want %q", cfg.ServerHost, "localhost")
	}
	if cfg.ServerPort != 8080 {
		t.Errorf("ServerPort = %d, want %d", cfg.ServerPort, 8080)
	}
	if cfg.Env != "development" {
		t.Errorf("Env = %q, want %q", cfg.Env, "development")
	}
	if cfg.LogLevel != "info" {
		t.Errorf("LogLevel = %q, want %q", cfg.LogLevel, "info")
	}
	if cfg.EventRetentionDays != 90 {
		t.Errorf("EventRetentionDays = %d, want 90", cfg.EventRetentionDays)
	}
	if cfg.YandexEnabled() || cfg.GoogleEnabled() {
		t.Error("OAuth providers should be disabled without credentials")
	}
}

func TestLoad_CustomValues(t *testing.T) {
	os.Clearenv()
	customSecret := "custom-secret-key-32-bytes-long!"
	setEnv(t, "SITE_SESSION_SECRET", customSecret)
	setEnv(t, "SITE_DB_PATH", "/custom/path.db")
	setEnv(t, "SITE_SERVER_HOST", "0.0.0.0")
	setEnv(t, "SITE_SERVER_PORT", "3000")
	setEnv(t, "SITE_ENV", "production")
	setEnv(t, "SITE_BASE_URL", "https://example.com/")
	setEnv(t, "YANDEX_CLIENT_ID", "yid")
	setEnv(t, "YANDEX_CLIENT_SECRET", "ysecret")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}

	if cfg.SessionSecret != customSecret {
		t.Errorf("SessionSecret = %q, want %q", cfg.SessionSecret, customSecret)
	}
	if cfg.DBPath != "/custom/path.db" {
		t.Errorf("DBPath = %q, want %q", cfg.DBPath, "/custom/path.db")
	}
	if cfg.ServerAddr() != "0.0.0.0:3000" {
		t.Errorf("ServerAddr() = %q, want %q", cfg.ServerAddr(), "0.0.0.0:3000")
	}
	if cfg.IsDevelopment() {
		t.Error("IsDevelopment() = true, want false")
	}
	if cfg.BaseURL != "https://example.com" {
		t.Errorf("BaseURL = %q, want trailing slash stripped", cfg.BaseURL)
	}
	if !cfg.YandexEnabled() {
		t.Error("YandexEnabled() = false, want true")
	}
	if cfg.GoogleEnabled() {
		t.Error("GoogleEnabled() = true, want false")
	}
}

func TestLoad_MissingSecret(t *testing.T) {
	os.Clearenv()

	if _, err := Load(); err == nil {
		t.Fatal("Load() should fail without SITE_SESSION_SECRET")
	}
}

func TestLoad_ShortSecret(t *testing.T) {
	os.Clearenv()
	setEnv(t, "SITE_SESSION_SECRET", "too-short")

	if _, err := Load(); err == nil {
		t.Fatal("Load() should reject a secret shorter than 32 bytes")
	}
}

func TestLoad_WeakSecret(t *testing.T) {
	os.Clearenv()
	setEnv(t, "SITE_SESSION_SECRET", "dev-secret-key-change-me-in-production")

	if _, err := Load(); err == nil {
		t.Fatal("Load() should reject a known default secret")
	}
}

func TestHasMinimumEntropy(t *testing.T) {
	tests := []struct {
		name   string
		secret string
		want   bool
	}{
		{"lowercase only", "aaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaa", false},
		{"two classes", "aaaaaaaaaaaaaaaa1111111111111111", false},
		{"three classes", "Aaaaaaaaaaaaaaaa1111111111111111", true},
		{"base64-like", "x7Kp2mQ9vRt4Lw8nYc3bZf6hJd1sGe5u", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := hasMinimumEntropy(tt.secret); got != tt.want {
				t.Errorf("hasMinimumEntropy(%q) = %v, want %v", tt.secret, got, tt.want)
			}
		})
	}
}
