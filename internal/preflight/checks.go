package preflight

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"net/url"
	"os"
	"strings"
	"time"

	"golang.org/x/sys/unix"

	"cinepick/internal/memory"
)

const (
	checkTimeout   = 5 * time.Second
	probeUserID    = "cinepick-preflight"
	probeQuery     = "preflight"
	ntfyHealthPath = "/v1/health"
)

// CheckTMDB verifies that the TMDB API is reachable and the key is valid.
func CheckTMDB(ctx context.Context, baseURL, apiKey string) Result {
	const name = "TMDB"

	base := strings.TrimRight(strings.TrimSpace(baseURL), "/")
	if base == "" {
		return Result{Name: name, Detail: "missing base url"}
	}
	if strings.TrimSpace(apiKey) == "" {
		return Result{Name: name, Detail: "missing api key"}
	}

	params := url.Values{}
	params.Set("api_key", strings.TrimSpace(apiKey))
	status, err := probe(ctx, base+"/configuration?"+params.Encode())
	if err != nil {
		return Result{Name: name, Detail: fmt.Sprintf("request failed (%s)", summarizeError(err))}
	}

	switch status {
	case http.StatusOK:
		return Result{Name: name, Passed: true, Detail: "API reachable"}
	case http.StatusUnauthorized, http.StatusForbidden:
		return Result{Name: name, Detail: "auth failed (invalid api key)"}
	default:
		return Result{Name: name, Detail: fmt.Sprintf("unexpected status (%d)", status)}
	}
}

// CheckMem0 runs one search against the mem0 API with a throwaway user id.
func CheckMem0(ctx context.Context, baseURL, apiKey string) Result {
	const name = "Memory (mem0)"

	store, err := memory.NewMem0Store(apiKey, baseURL, &http.Client{Timeout: checkTimeout})
	if err != nil {
		return Result{Name: name, Detail: err.Error()}
	}

	checkCtx, cancel := context.WithTimeout(ctx, checkTimeout)
	defer cancel()
	if _, err := store.Search(checkCtx, probeQuery, probeUserID); err != nil {
		return Result{Name: name, Detail: fmt.Sprintf("search failed (%s)", summarizeError(err))}
	}
	return Result{Name: name, Passed: true, Detail: "API reachable"}
}

// CheckSQLite opens the local memory database, which also verifies its schema
// version.
func CheckSQLite(ctx context.Context, path string) Result {
	const name = "Memory (sqlite)"

	checkCtx, cancel := context.WithTimeout(ctx, checkTimeout)
	defer cancel()
	store, err := memory.OpenSQLite(checkCtx, path)
	if err != nil {
		return Result{Name: name, Detail: err.Error()}
	}
	defer store.Close()

	if _, err := store.Search(checkCtx, probeQuery, probeUserID); err != nil {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: %v)", path, err)}
	}
	return Result{Name: name, Passed: true, Detail: fmt.Sprintf("%s (schema ok)", path)}
}

// CheckNtfy verifies that the server hosting topicURL answers its health
// endpoint. Nothing is published to the topic.
func CheckNtfy(ctx context.Context, topicURL string) Result {
	const name = "Delivery (ntfy)"

	topic := strings.TrimSpace(topicURL)
	if topic == "" {
		return Result{Name: name, Detail: "missing topic"}
	}
	parsed, err := url.Parse(topic)
	if err != nil || (parsed.Scheme != "http" && parsed.Scheme != "https") || parsed.Host == "" {
		return Result{Name: name, Detail: fmt.Sprintf("invalid topic url %q", topic)}
	}
	if strings.Trim(parsed.Path, "/") == "" {
		return Result{Name: name, Detail: "topic url has no topic path"}
	}

	health := url.URL{Scheme: parsed.Scheme, Host: parsed.Host, Path: ntfyHealthPath}
	status, err := probe(ctx, health.String())
	if err != nil {
		return Result{Name: name, Detail: fmt.Sprintf("health check failed (%s)", summarizeError(err))}
	}
	if status != http.StatusOK {
		return Result{Name: name, Detail: fmt.Sprintf("health check failed (%d)", status)}
	}
	return Result{Name: name, Passed: true, Detail: parsed.Host + " healthy"}
}

// CheckDirectoryAccess verifies that the directory exists and is readable/writable.
func CheckDirectoryAccess(name, path string) Result {
	if strings.TrimSpace(path) == "" {
		return Result{Name: name, Detail: "not configured"}
	}
	info, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return Result{Name: name, Detail: fmt.Sprintf("%s (error: does not exist)", path)}
		}
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: stat: %v)", path, err)}
	}
	if !info.IsDir() {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: is not a directory)", path)}
	}
	if err := unix.Access(path, unix.R_OK|unix.W_OK|unix.X_OK); err != nil {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: insufficient permissions: %v)", path, err)}
	}
	return Result{Name: name, Passed: true, Detail: fmt.Sprintf("%s (read/write ok)", path)}
}

func probe(ctx context.Context, target string) (int, error) {
	checkCtx, cancel := context.WithTimeout(ctx, checkTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(checkCtx, http.MethodGet, target, nil)
	if err != nil {
		return 0, err
	}
	client := &http.Client{Timeout: checkTimeout}
	resp, err := client.Do(req)
	if err != nil {
		return 0, err
	}
	defer resp.Body.Close()
	return resp.StatusCode, nil
}

// summarizeError produces a short human-readable reason for a failed probe.
// TMDB keys travel in the query string, so url errors are reduced to their
// cause.
func summarizeError(err error) string {
	if errors.Is(err, context.DeadlineExceeded) {
		return "timed out"
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return "timed out"
	}
	var urlErr *url.Error
	if errors.As(err, &urlErr) {
		return urlErr.Err.Error()
	}
	return err.Error()
}
