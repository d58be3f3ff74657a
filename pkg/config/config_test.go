package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoadMissingFileReturnsDefault(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "nonexistent.yaml"))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg != Default() {
		t.Errorf("Load(missing) = %+v, want %+v", cfg, Default())
	}
}

func TestLoadScalarDiagnostics(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte("ifs: \",\"\ndiagnostics: json\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.IFS != "," || cfg.Diagnostics.Format != "json" {
		t.Errorf("Load = %+v, want ifs=%q diagnostics.format=json", cfg, ",")
	}
}

func TestLoadMappingDiagnostics(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	content := "diagnostics:\n  format: json\n  width: 100\n"
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Diagnostics.Format != "json" || cfg.Diagnostics.Width != 100 {
		t.Errorf("Load = %+v, want format=json width=100", cfg)
	}
}
