package main

import (
	"bytes"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"cinepick/internal/config"
	"cinepick/internal/testsupport"
	"cinepick/internal/tmdb"
)

const testTMDBKey = "sekrit-tmdb-key"

type cliTestEnv struct {
	cfg        *config.Config
	catalog    *testsupport.FakeCatalog
	configPath string
	homeDir    string
}

func setupCLITestEnv(t *testing.T, opts ...testsupport.ConfigOption) *cliTestEnv {
	t.Helper()

	base := t.TempDir()
	homeDir := filepath.Join(base, "home")
	if err := os.MkdirAll(homeDir, 0o755); err != nil {
		t.Fatalf("mkdir home: %v", err)
	}
	t.Setenv("HOME", homeDir)

	catalog := testsupport.NewFakeCatalog()
	srv := testsupport.NewTMDBServer(t, catalog)

	cfg := testsupport.NewConfig(t, append([]testsupport.ConfigOption{testsupport.WithTMDBBaseURL(srv.URL)}, opts...)...)
	cfg.TMDB.APIKey = testTMDBKey
	cfg.Logging.Level = "error"

	configPath := filepath.Join(homeDir, ".config", "cinepick", "config.toml")
	writeTestConfig(t, configPath, cfg)

	return &cliTestEnv{
		cfg:        cfg,
		catalog:    catalog,
		configPath: configPath,
		homeDir:    homeDir,
	}
}

// addInception registers Inception as the only hit for "inception".
func (e *cliTestEnv) addInception() tmdb.Movie {
	m := testsupport.Movie(27205, "Inception", 8.4, 35000, 80, "2010-07-15")
	m.Overview = "A thief who steals corporate secrets through dream-sharing technology."
	e.catalog.SetSearch("inception", m)
	e.catalog.AddMovie(m, 148, tmdb.Genre{ID: 28, Name: "Action"}, tmdb.Genre{ID: 878, Name: "Science Fiction"})
	return m
}

func runCLI(t *testing.T, args []string, configPath string) (string, string, error) {
	t.Helper()
	return runCLIWithInput(t, args, configPath, "")
}

func runCLIWithInput(t *testing.T, args []string, configPath, input string) (string, string, error) {
	t.Helper()
	cmd := newRootCommand()
	var stdout, stderr bytes.Buffer
	cmd.SetOut(&stdout)
	cmd.SetErr(&stderr)
	cmd.SetIn(io.NopCloser(strings.NewReader(input)))
	var flags []string
	if configPath != "" {
		flags = append(flags, "--config", configPath)
	}
	cmd.SetArgs(append(flags, args...))
	err := cmd.Execute()
	return stdout.String(), stderr.String(), err
}

func writeTestConfig(t *testing.T, path string, cfg *config.Config) {
	t.Helper()
	data, err := cfg.Encode()
	if err != nil {
		t.Fatalf("encode config: %v", err)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("mkdir config dir: %v", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
}

func requireContains(t *testing.T, output, substr string) {
	t.Helper()
	if !strings.Contains(output, substr) {
		t.Fatalf("expected %q to contain %q", output, substr)
	}
}

func requireNotContains(t *testing.T, output, substr string) {
	t.Helper()
	if strings.Contains(output, substr) {
		t.Fatalf("expected %q not to contain %q", output, substr)
	}
}
