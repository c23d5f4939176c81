package memory

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/goccy/go-json"
)

// DefaultMem0BaseURL is the hosted mem0 API.
const DefaultMem0BaseURL = "https://api.mem0.ai"

// Mem0Store stores memories through the mem0 HTTP API.
type Mem0Store struct {
	apiKey     string
	baseURL    string
	httpClient *http.Client
}

var _ Store = (*Mem0Store)(nil)

// NewMem0Store creates a mem0 backend. An empty baseURL uses DefaultMem0BaseURL.
func NewMem0Store(apiKey, baseURL string, httpClient *http.Client) (*Mem0Store, error) {
	apiKey = strings.TrimSpace(apiKey)
	if apiKey == "" {
		return nil, errors.New("mem0 api key required")
	}
	baseURL = strings.TrimSpace(baseURL)
	if baseURL == "" {
		baseURL = DefaultMem0BaseURL
	}
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 10 * time.Second}
	}
	return &Mem0Store{
		apiKey:     apiKey,
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: httpClient,
	}, nil
}

type mem0Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type mem0AddRequest struct {
	Messages []mem0Message `json:"messages"`
	UserID   string        `json:"user_id"`
}

type mem0SearchRequest struct {
	Query  string `json:"query"`
	UserID string `json:"user_id"`
}

type mem0Memory struct {
	ID        string `json:"id"`
	Memory    string `json:"memory"`
	Content   string `json:"content"`
	Text      string `json:"text"`
	CreatedAt string `json:"created_at"`
}

func (m mem0Memory) entry() Entry {
	text := m.Memory
	if text == "" {
		text = m.Content
	}
	if text == "" {
		text = m.Text
	}
	entry := Entry{ID: m.ID, Text: text}
	if ts, err := time.Parse(time.RFC3339, m.CreatedAt); err == nil {
		entry.CreatedAt = ts
	}
	return entry
}

// Search queries memories for userID.
func (s *Mem0Store) Search(ctx context.Context, query, userID string) ([]Entry, error) {
	body, err := s.post(ctx, "/v1/memories/search/", mem0SearchRequest{Query: query, UserID: userID})
	if err != nil {
		return nil, err
	}
	memories, err := decodeMem0Memories(body)
	if err != nil {
		return nil, err
	}
	entries := make([]Entry, 0, len(memories))
	for _, m := range memories {
		if e := m.entry(); e.Text != "" {
			entries = append(entries, e)
		}
	}
	return entries, nil
}

// Add stores text as a user message for userID.
func (s *Mem0Store) Add(ctx context.Context, text, userID string) error {
	_, err := s.post(ctx, "/v1/memories/", mem0AddRequest{
		Messages: []mem0Message{{Role: "user", Content: text}},
		UserID:   userID,
	})
	return err
}

// The search endpoint answers with either a bare list or {"results": [...]}.
func decodeMem0Memories(body []byte) ([]mem0Memory, error) {
	trimmed := bytes.TrimSpace(body)
	if len(trimmed) == 0 {
		return nil, nil
	}
	if trimmed[0] == '[' {
		var list []mem0Memory
		if err := json.Unmarshal(trimmed, &list); err != nil {
			return nil, fmt.Errorf("decode mem0 search: %w", err)
		}
		return list, nil
	}
	var wrapped struct {
		Results []mem0Memory `json:"results"`
	}
	if err := json.Unmarshal(trimmed, &wrapped); err != nil {
		return nil, fmt.Errorf("decode mem0 search: %w", err)
	}
	return wrapped.Results, nil
}

func (s *Mem0Store) post(ctx context.Context, path string, payload any) ([]byte, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("encode mem0 request: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.baseURL+path, bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("build mem0 request: %w", err)
	}
	req.Header.Set("Authorization", "Token "+s.apiKey)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("mem0 %s: %w", path, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return nil, fmt.Errorf("read mem0 response: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("mem0 %s returned %d: %s", path, resp.StatusCode, strings.TrimSpace(string(body)))
	}
	return body, nil
}
