package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestSaveAndLoad(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, ConfigFileName)

	cfg := &Config{
		Servers: []Server{
			{Host: "console.example.com", Alias: "production"},
			{Host: "staging.example.com", Alias: "staging"},
		},
	}

	if err := Save(path, cfg); err != nil {
		t.Fatalf("Save failed: %v", err)
	}

	loaded, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if len(loaded.Servers) != 2 {
		t.Fatalf("expected 2 servers, got %d", len(loaded.Servers))
	}
	if loaded.Servers[0].Host != "console.example.com" {
		t.Errorf("unexpected host: %s", loaded.Servers[0].Host)
	}
}

func TestLoad_InvalidJSON(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, ConfigFileName)
	if err := os.WriteFile(path, []byte("{not json"), 0644); err != nil {
		t.Fatal(err)
	}

	if _, err := Load(path); err == nil {
		t.Error("expected error for invalid JSON, got nil")
	}
}

func TestFindConfigFile_SearchesParents(t *testing.T) {
	root := t.TempDir()
	nested := filepath.Join(root, "a", "b")
	if err := os.MkdirAll(nested, 0755); err != nil {
		t.Fatal(err)
	}

	cfgPath := filepath.Join(root, ConfigFileName)
	if err := Save(cfgPath, &Config{Servers: []Server{{Host: "h", Alias: "a"}}}); err != nil {
		t.Fatal(err)
	}

	originalDir, err := os.Getwd()
	if err != nil {
		t.Fatal(err)
	}
	defer os.Chdir(originalDir)

	if err := os.Chdir(nested); err != nil {
		t.Fatal(err)
	}

	found, err := FindConfigFile()
	if err != nil {
		t.Fatalf("FindConfigFile failed: %v", err)
	}

	// Resolve symlinks: temp dirs on macOS go through /private
	wantReal, _ := filepath.EvalSymlinks(cfgPath)
	foundReal, _ := filepath.EvalSymlinks(found)
	if foundReal != wantReal {
		t.Errorf("expected %s, got %s", wantReal, foundReal)
	}
}

func TestGetServerByAlias(t *testing.T) {
	cfg := &Config{
		Servers: []Server{
			{Host: "one.example.com", Alias: "one"},
			{Host: "two.example.com", Alias: "two"},
		},
	}

	server, err := cfg.GetServerByAlias("two")
	if err != nil {
		t.Fatalf("GetServerByAlias failed: %v", err)
	}
	if server.Host != "two.example.com" {
		t.Errorf("unexpected host: %s", server.Host)
	}

	if _, err := cfg.GetServerByAlias("missing"); err == nil {
		t.Error("expected error for unknown alias, got nil")
	}
}

func TestGetDefaultServer(t *testing.T) {
	empty := &Config{}
	if _, err := empty.GetDefaultServer(); err == nil {
		t.Error("expected error for empty server list, got nil")
	}

	cfg := &Config{Servers: []Server{{Host: "first.example.com", Alias: "first"}}}
	server, err := cfg.GetDefaultServer()
	if err != nil {
		t.Fatalf("GetDefaultServer failed: %v", err)
	}
	if server.Alias != "first" {
		t.Errorf("unexpected alias: %s", server.Alias)
	}
}
