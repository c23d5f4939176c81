package api_test

import (
	"strings"
	"testing"

	"cinepick/internal/api"
	"cinepick/internal/movie"
	"cinepick/internal/session"
)

func TestFromCandidateTruncatesOverview(t *testing.T) {
	c := movie.Candidate{
		ID:       1,
		Title:    "Long Story",
		Overview: strings.Repeat("é", 250),
		Genres:   []string{"Drama"},
	}
	out := api.FromCandidate(c)
	if got := len([]rune(out.Overview)); got != 203 {
		t.Fatalf("expected 200 runes plus ellipsis, got %d", got)
	}
	if !strings.HasSuffix(out.Overview, "...") {
		t.Fatalf("expected ellipsis, got %q", out.Overview)
	}
	out.Genres[0] = "Horror"
	if c.Genres[0] != "Drama" {
		t.Fatal("converted genres alias the source slice")
	}
	if out.Year != 0 {
		t.Fatalf("expected unknown year, got %d", out.Year)
	}
}

func TestFromSnapshotEmptyCollections(t *testing.T) {
	out := api.FromSnapshot(session.Snapshot{ConversationID: "c1"})
	if out.Queue == nil || out.Excluded == nil || out.Watching == nil {
		t.Fatal("expected empty, non-nil collections")
	}
	if out.LastActive != "" || out.Current != nil {
		t.Fatalf("unexpected populated fields %+v", out)
	}
}
