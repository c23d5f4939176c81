package preflight

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"cinepick/internal/config"
)

func TestCheckDirectoryAccess_OK(t *testing.T) {
	dir := t.TempDir()
	result := CheckDirectoryAccess("test", dir)
	if !result.Passed {
		t.Fatalf("expected pass for temp dir, got: %s", result.Detail)
	}
}

func TestCheckDirectoryAccess_NotExist(t *testing.T) {
	result := CheckDirectoryAccess("test", filepath.Join(t.TempDir(), "missing"))
	if result.Passed {
		t.Fatal("expected failure for missing dir")
	}
	if !strings.Contains(result.Detail, "does not exist") {
		t.Fatalf("unexpected detail: %s", result.Detail)
	}
}

func TestCheckDirectoryAccess_NotDir(t *testing.T) {
	path := filepath.Join(t.TempDir(), "file")
	if err := os.WriteFile(path, []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}
	result := CheckDirectoryAccess("test", path)
	if result.Passed {
		t.Fatal("expected failure for a regular file")
	}
}

func newTMDBStub(t *testing.T, key string) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/configuration" {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		if r.URL.Query().Get("api_key") != key {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		w.WriteHeader(http.StatusOK)
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestCheckTMDB(t *testing.T) {
	srv := newTMDBStub(t, "good-key")

	if result := CheckTMDB(context.Background(), srv.URL, "good-key"); !result.Passed {
		t.Fatalf("expected pass, got: %s", result.Detail)
	}
	result := CheckTMDB(context.Background(), srv.URL, "bad-key")
	if result.Passed || result.Detail != "auth failed (invalid api key)" {
		t.Fatalf("expected auth failure, got %+v", result)
	}
	if result := CheckTMDB(context.Background(), "", "key"); result.Passed {
		t.Fatal("expected failure for missing URL")
	}
	if result := CheckTMDB(context.Background(), srv.URL, ""); result.Passed {
		t.Fatal("expected failure for missing key")
	}
}

func TestCheckTMDBHidesKeyOnTransportError(t *testing.T) {
	result := CheckTMDB(context.Background(), "http://127.0.0.1:1", "secret-key")
	if result.Passed {
		t.Fatal("expected failure for unreachable host")
	}
	if strings.Contains(result.Detail, "secret-key") {
		t.Fatalf("detail leaks api key: %s", result.Detail)
	}
}

func TestCheckMem0(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "Token good-key" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`[]`))
	}))
	defer srv.Close()

	if result := CheckMem0(context.Background(), srv.URL, "good-key"); !result.Passed {
		t.Fatalf("expected pass, got: %s", result.Detail)
	}
	if result := CheckMem0(context.Background(), srv.URL, "bad-key"); result.Passed {
		t.Fatal("expected failure for bad key")
	}
	if result := CheckMem0(context.Background(), srv.URL, ""); result.Passed {
		t.Fatal("expected failure for missing key")
	}
}

func TestCheckSQLite(t *testing.T) {
	path := filepath.Join(t.TempDir(), "memory.db")
	result := CheckSQLite(context.Background(), path)
	if !result.Passed {
		t.Fatalf("expected pass, got: %s", result.Detail)
	}
	if !strings.Contains(result.Detail, "schema ok") {
		t.Fatalf("unexpected detail: %s", result.Detail)
	}
}

func TestCheckNtfy(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v1/health" {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		_, _ = w.Write([]byte(`{"healthy":true}`))
	}))
	defer srv.Close()

	if result := CheckNtfy(context.Background(), srv.URL+"/movies"); !result.Passed {
		t.Fatalf("expected pass, got: %s", result.Detail)
	}
	for _, topic := range []string{"", "movies", "ftp://example.com/movies", srv.URL + "/"} {
		if result := CheckNtfy(context.Background(), topic); result.Passed {
			t.Fatalf("expected failure for topic %q", topic)
		}
	}
}

func TestRunAll_NilConfig(t *testing.T) {
	results := RunAll(context.Background(), nil)
	if results != nil {
		t.Fatal("expected nil results for nil config")
	}
}

func TestRunAll_SelectsConfiguredBackends(t *testing.T) {
	srv := newTMDBStub(t, "test")

	cfg := config.Default()
	cfg.Paths.DataDir = t.TempDir()
	cfg.Paths.LogDir = t.TempDir()
	cfg.TMDB.BaseURL = srv.URL
	cfg.TMDB.APIKey = "test"
	cfg.Memory.Backend = "sqlite"
	cfg.Memory.SQLitePath = filepath.Join(cfg.Paths.DataDir, "memory.db")
	cfg.Delivery.Backend = "none"

	results := RunAll(context.Background(), &cfg)
	names := make([]string, 0, len(results))
	for _, r := range results {
		names = append(names, r.Name)
		if !r.Passed {
			t.Errorf("check %q failed: %s", r.Name, r.Detail)
		}
	}
	want := "Data directory,Log directory,TMDB,Memory (sqlite)"
	if got := strings.Join(names, ","); got != want {
		t.Fatalf("expected checks %s, got %s", want, got)
	}
	if failed := Failed(results); len(failed) != 0 {
		t.Fatalf("expected no failures, got %+v", failed)
	}
}

func TestFailed(t *testing.T) {
	results := []Result{
		{Name: "a", Passed: true},
		{Name: "b", Detail: "down"},
	}
	failed := Failed(results)
	if len(failed) != 1 || failed[0].Name != "b" {
		t.Fatalf("unexpected failures: %+v", failed)
	}
}
