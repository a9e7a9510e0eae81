package app

import (
	"os"
	"path/filepath"
	"testing"
)

func TestGetDefaults(t *testing.T) {
	t.Run("uses env vars when set", func(t *testing.T) {
		t.Setenv("CUSTODY_CONFIG_PATH", "/custom/config.toml")
		t.Setenv("CUSTODY_HOME", "/custom/custody")

		defaults, err := GetDefaults()
		if err != nil {
			t.Fatalf("GetDefaults() error = %v", err)
		}

		if defaults["config_path"] != "/custom/config.toml" {
			t.Errorf("config_path = %q, want %q", defaults["config_path"], "/custom/config.toml")
		}
		if defaults["base_dir"] != "/custom/custody" {
			t.Errorf("base_dir = %q, want %q", defaults["base_dir"], "/custom/custody")
		}
		if defaults["log_dir"] != "/custom/custody/log" {
			t.Errorf("log_dir = %q, want %q", defaults["log_dir"], "/custom/custody/log")
		}
	})

	t.Run("falls back to home dir defaults", func(t *testing.T) {
		t.Setenv("CUSTODY_CONFIG_PATH", "")
		t.Setenv("CUSTODY_HOME", "")

		defaults, err := GetDefaults()
		if err != nil {
			t.Fatalf("GetDefaults() error = %v", err)
		}

		homeDir, _ := os.UserHomeDir()

		wantConfig := filepath.Join(homeDir, ".config", "custody.toml")
		if defaults["config_path"] != wantConfig {
			t.Errorf("config_path = %q, want %q", defaults["config_path"], wantConfig)
		}

		wantBase := filepath.Join(homeDir, ".local", "share", "custody")
		if defaults["base_dir"] != wantBase {
			t.Errorf("base_dir = %q, want %q", defaults["base_dir"], wantBase)
		}
		if defaults["log_dir"] != filepath.Join(wantBase, "log") {
			t.Errorf("log_dir = %q", defaults["log_dir"])
		}
	})
}

func TestLoadEnvFile(t *testing.T) {
	t.Run("missing file", func(t *testing.T) {
		if err := LoadEnvFile(filepath.Join(t.TempDir(), ".env")); err != nil {
			t.Errorf("LoadEnvFile() error = %v", err)
		}
	})

	t.Run("sets unset variables only", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), ".env")
		content := "CUSTODY_TEST_FRESH=from-file\nCUSTODY_TEST_SET=from-file\n"
		if err := os.WriteFile(path, []byte(content), 0600); err != nil {
			t.Fatal(err)
		}
		t.Setenv("CUSTODY_TEST_SET", "from-env")
		t.Setenv("CUSTODY_TEST_FRESH", "")
		os.Unsetenv("CUSTODY_TEST_FRESH")

		if err := LoadEnvFile(path); err != nil {
			t.Fatalf("LoadEnvFile() error = %v", err)
		}
		defer os.Unsetenv("CUSTODY_TEST_FRESH")

		if got := os.Getenv("CUSTODY_TEST_FRESH"); got != "from-file" {
			t.Errorf("CUSTODY_TEST_FRESH = %q, want from-file", got)
		}
		if got := os.Getenv("CUSTODY_TEST_SET"); got != "from-env" {
			t.Errorf("CUSTODY_TEST_SET = %q, want from-env", got)
		}
	})
}
