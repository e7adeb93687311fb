package config

import (
	"os"
	"path/filepath"
	"testing"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "config.yaml")
	if err := os.WriteFile(configPath, []byte(content), 0600); err != nil {
		t.Fatalf("failed to write test config: %v", err)
	}
	return configPath
}

func TestLoad_ValidConfig(t *testing.T) {
	content := `
site:
  id: "test-site"
database:
  path: "/tmp/test.db"
  wal_mode: true
  busy_timeout: 5
mqtt:
  broker:
    host: "broker.local"
    port: 1883
    client_id: "test-client"
  qos: 1
listener:
  debounce_ms: 100
command:
  attempt_timeout: 5
  max_attempts: 3
`
	cfg, err := Load(writeConfig(t, content))
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.Site.ID != "test-site" {
		t.Errorf("Site.ID = %q, want %q", cfg.Site.ID, "test-site")
	}
	if cfg.Database.Path != "/tmp/test.db" {
		t.Errorf("Database.Path = %q, want %q", cfg.Database.Path, "/tmp/test.db")
	}
	if cfg.MQTT.Broker.Host != "broker.local" {
		t.Errorf("MQTT.Broker.Host = %q, want %q", cfg.MQTT.Broker.Host, "broker.local")
	}
	if cfg.Listener.DebounceMS != 100 {
		t.Errorf("Listener.DebounceMS = %d, want 100", cfg.Listener.DebounceMS)
	}
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load("/nonexistent/path/config.yaml")
	if err == nil {
		t.Error("Load() expected error for missing file, got nil")
	}
}

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load(writeConfig(t, `site: {id: "s1"}`))
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.Command.AttemptTimeout != 5 {
		t.Errorf("Command.AttemptTimeout = %d, want default 5", cfg.Command.AttemptTimeout)
	}
	if cfg.Command.MaxAttempts != 3 {
		t.Errorf("Command.MaxAttempts = %d, want default 3", cfg.Command.MaxAttempts)
	}
	if cfg.Listener.DebounceMS != 100 {
		t.Errorf("Listener.DebounceMS = %d, want default 100", cfg.Listener.DebounceMS)
	}
	if !cfg.Database.WALMode {
		t.Error("Database.WALMode = false, want default true")
	}
}

func TestLoad_EnvOverrides(t *testing.T) {
	t.Setenv("ATRIUM_DATABASE_PATH", "/env/override.db")
	t.Setenv("ATRIUM_MQTT_HOST", "env-broker")

	cfg, err := Load(writeConfig(t, `
site: {id: "s1"}
database: {path: "/file/path.db"}
`))
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.Database.Path != "/env/override.db" {
		t.Errorf("Database.Path = %q, want env override", cfg.Database.Path)
	}
	if cfg.MQTT.Broker.Host != "env-broker" {
		t.Errorf("MQTT.Broker.Host = %q, want env override", cfg.MQTT.Broker.Host)
	}
}

func TestValidate_ModeProfiles(t *testing.T) {
	tests := []struct {
		name    string
		yaml    string
		wantErr bool
	}{
		{
			name: "valid profile",
			yaml: `
site: {id: "s1"}
modes:
  lighting:
    - name: movie
      rules:
        - role: primary
          on: false
        - role: ambient
          on: true
          level: 30
`,
			wantErr: false,
		},
		{
			name: "missing profile name",
			yaml: `
site: {id: "s1"}
modes:
  lighting:
    - rules:
        - role: primary
          on: true
`,
			wantErr: true,
		},
		{
			name: "rule without expectations",
			yaml: `
site: {id: "s1"}
modes:
  media:
    - name: party
      rules:
        - role: primary
`,
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Load(writeConfig(t, tt.yaml))
			if (err != nil) != tt.wantErr {
				t.Errorf("Load() error = %v, wantErr = %v", err, tt.wantErr)
			}
		})
	}
}

func TestValidate_InvalidValues(t *testing.T) {
	tests := []struct {
		name string
		yaml string
	}{
		{"bad qos", `{site: {id: s1}, mqtt: {qos: 3, broker: {host: h, port: 1883}}}`},
		{"bad port", `{site: {id: s1}, api: {port: 70000}}`},
		{"zero debounce", `{site: {id: s1}, listener: {debounce_ms: -1}}`},
		{"empty site id", `{site: {id: ""}}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := Load(writeConfig(t, tt.yaml)); err == nil {
				t.Error("Load() expected validation error, got nil")
			}
		})
	}
}
