package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoadFile_ParsesBaseURL(t *testing.T) {
	path := filepath.Join(t.TempDir(), "autobridge.yaml")
	if err := os.WriteFile(path, []byte("api_base_url: https://api.autobridge.example\n"), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}
	fc, err := LoadFile(path)
	if err != nil {
		t.Fatalf("load file: %v", err)
	}
	if fc.APIBaseURL != "https://api.autobridge.example" {
		t.Fatalf("unexpected base url: %q", fc.APIBaseURL)
	}
}

func TestLoadFile_EmptyPathIsOptional(t *testing.T) {
	fc, err := LoadFile("")
	if err != nil {
		t.Fatalf("empty path must not error: %v", err)
	}
	if fc.APIBaseURL != "" {
		t.Fatalf("expected empty config, got %+v", fc)
	}
}

func TestLoadFile_BadYAMLErrors(t *testing.T) {
	path := filepath.Join(t.TempDir(), "autobridge.yaml")
	if err := os.WriteFile(path, []byte(":\t not yaml"), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}
	if _, err := LoadFile(path); err == nil {
		t.Fatalf("expected parse error")
	}
}
