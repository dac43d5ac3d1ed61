package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("SCHOOL_API_URL", "")
	t.Setenv("STUDENT_LIST_MODE", "")
	t.Setenv("SEARCH_DEBOUNCE", "")

	cfg := Load()

	if cfg.Port != 8080 {
		t.Errorf("expected port 8080, got %d", cfg.Port)
	}
	if cfg.ListMode != "remote" {
		t.Errorf("expected remote list mode, got %s", cfg.ListMode)
	}
	if cfg.SearchDebounce != 500*time.Millisecond {
		t.Errorf("expected 500ms debounce, got %s", cfg.SearchDebounce)
	}
	if cfg.DefaultPageSize != 20 {
		t.Errorf("expected page size 20, got %d", cfg.DefaultPageSize)
	}
	if cfg.PreferencesDSN != "" {
		t.Errorf("expected empty preferences DSN")
	}
}

func TestLoad_Overrides(t *testing.T) {
	t.Setenv("SCHOOL_API_URL", "https://school.example.com/api/")
	t.Setenv("STUDENT_LIST_MODE", "LOCAL")
	t.Setenv("SEARCH_DEBOUNCE", "250ms")
	t.Setenv("MAX_RETRIES", "not-a-number")

	cfg := Load()

	if cfg.SchoolAPIURL != "https://school.example.com/api" {
		t.Errorf("expected trailing slash trimmed, got %s", cfg.SchoolAPIURL)
	}
	if cfg.ListMode != "local" {
		t.Errorf("expected local list mode, got %s", cfg.ListMode)
	}
	if cfg.SearchDebounce != 250*time.Millisecond {
		t.Errorf("expected 250ms, got %s", cfg.SearchDebounce)
	}
	if cfg.MaxRetries != 3 {
		t.Errorf("invalid int should fall back to default, got %d", cfg.MaxRetries)
	}
}

func TestLoad_UnknownListModeFallsBack(t *testing.T) {
	t.Setenv("STUDENT_LIST_MODE", "hybrid")
	if got := Load().ListMode; got != "remote" {
		t.Errorf("expected remote, got %s", got)
	}
}

func TestLoadDotEnv_DoesNotOverrideEnv(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, ".env")
	content := "# comment\nBFA_TEST_KEEP=fromfile\nBFA_TEST_NEW=\"quoted\"\n"
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatal(err)
	}
	t.Setenv("BFA_TEST_KEEP", "fromenv")
	t.Cleanup(func() { os.Unsetenv("BFA_TEST_NEW") })

	if err := LoadDotEnv(path); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got := os.Getenv("BFA_TEST_KEEP"); got != "fromenv" {
		t.Errorf("env should win, got %s", got)
	}
	if got := os.Getenv("BFA_TEST_NEW"); got != "quoted" {
		t.Errorf("expected quoted value unwrapped, got %s", got)
	}
}

func TestLoadDotEnv_MissingFile(t *testing.T) {
	if err := LoadDotEnv(filepath.Join(t.TempDir(), "nope.env")); err != nil {
		t.Errorf("missing file should be ignored, got %v", err)
	}
}
