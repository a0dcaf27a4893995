package config

import (
	"strings"
	"testing"
	"time"
)

func setRequiredEnv(t *testing.T) {
	t.Helper()
	t.Setenv("SSH_HOST", "bastion.example.com")
	t.Setenv("SSH_USERNAME", "tunnel")
	t.Setenv("SSH_PASSWORD", "ssh-pass")
	t.Setenv("MYSQL_USER", "report")
	t.Setenv("MYSQL_PASSWORD", "db-pass")
	t.Setenv("MYSQL_DATABASE", "sales")
	t.Setenv("AUTH_PASSWORD", "dashboard-pass")
}

func TestLoad_Defaults(t *testing.T) {
	setRequiredEnv(t)

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}

	if cfg.Server.Port != 8084 {
		t.Errorf("server port = %d, want 8084", cfg.Server.Port)
	}
	if cfg.Branches.CSVFile != "Branch_Name_Address.csv" {
		t.Errorf("csv file = %q", cfg.Branches.CSVFile)
	}
	if cfg.SSH.Port != 22 {
		t.Errorf("ssh port = %d, want 22", cfg.SSH.Port)
	}
	if cfg.MySQL.Port != 3306 {
		t.Errorf("mysql port = %d, want 3306", cfg.MySQL.Port)
	}
	if cfg.Local.BindPort != 3307 {
		t.Errorf("local bind port = %d, want 3307", cfg.Local.BindPort)
	}
	if cfg.Auth.IdleTimeout != 60*time.Minute {
		t.Errorf("idle timeout = %v, want 60m", cfg.Auth.IdleTimeout)
	}
	if cfg.Logger.Level != "info" || cfg.Logger.Format != "json" {
		t.Errorf("logger = %s/%s, want info/json", cfg.Logger.Level, cfg.Logger.Format)
	}
}

func TestLoad_Overrides(t *testing.T) {
	setRequiredEnv(t)
	t.Setenv("SERVER_PORT", "9090")
	t.Setenv("AUTH_IDLE_TIMEOUT", "15m")
	t.Setenv("BRANCHES_CSV_FILE", "/etc/dashboard/branches.csv")
	t.Setenv("LOCAL_BIND_PORT", "13307")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}

	if cfg.Server.Port != 9090 {
		t.Errorf("server port = %d, want 9090", cfg.Server.Port)
	}
	if cfg.Auth.IdleTimeout != 15*time.Minute {
		t.Errorf("idle timeout = %v, want 15m", cfg.Auth.IdleTimeout)
	}
	if cfg.Branches.CSVFile != "/etc/dashboard/branches.csv" {
		t.Errorf("csv file = %q", cfg.Branches.CSVFile)
	}
	if cfg.Local.BindPort != 13307 {
		t.Errorf("local bind port = %d, want 13307", cfg.Local.BindPort)
	}
}

func TestLoad_MissingRequired(t *testing.T) {
	tests := []struct {
		name  string
		unset string
		want  string
	}{
		{"no ssh host", "SSH_HOST", "SSH_HOST"},
		{"no ssh credentials", "SSH_PASSWORD", "SSH_USERNAME and SSH_PASSWORD"},
		{"no mysql credentials", "MYSQL_PASSWORD", "MYSQL_USER and MYSQL_PASSWORD"},
		{"no mysql database", "MYSQL_DATABASE", "MYSQL_DATABASE"},
		{"no auth password", "AUTH_PASSWORD", "AUTH_PASSWORD"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			setRequiredEnv(t)
			t.Setenv(tt.unset, "")

			_, err := Load()
			if err == nil {
				t.Fatal("Load() should fail")
			}
			if !strings.Contains(err.Error(), tt.want) {
				t.Errorf("error = %v, want mention of %s", err, tt.want)
			}
		})
	}
}

func TestLoad_InvalidValues(t *testing.T) {
	tests := []struct {
		name  string
		key   string
		value string
	}{
		{"bad server port", "SERVER_PORT", "70000"},
		{"bad log level", "LOG_LEVEL", "verbose"},
		{"bad log format", "LOG_FORMAT", "xml"},
		{"negative idle timeout", "AUTH_IDLE_TIMEOUT", "-5m"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			setRequiredEnv(t)
			t.Setenv(tt.key, tt.value)

			if _, err := Load(); err == nil {
				t.Errorf("Load() should reject %s=%s", tt.key, tt.value)
			}
		})
	}
}

func TestLogValueHidesSecrets(t *testing.T) {
	setRequiredEnv(t)

	cfg, err := Load()
	if err != nil {
		t.Fatal(err)
	}

	line := cfg.LogValue()
	for _, secret := range []string{"ssh-pass", "db-pass", "dashboard-pass"} {
		if strings.Contains(line, secret) {
			t.Errorf("LogValue leaks %q", secret)
		}
	}
	if !strings.Contains(line, "bastion.example.com") {
		t.Error("LogValue should still name the tunnel endpoint")
	}
}
