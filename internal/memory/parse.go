package memory

import (
	"regexp"
	"strconv"
	"strings"
)

// History is what the recommender knows about a user's past choices.
type History struct {
	WatchedIDs      map[int64]struct{}
	WatchedTitles   []string
	DislikedGenres  map[string]struct{}
	PreferredGenres map[string]struct{}
}

// NewHistory returns an empty History with initialized sets.
func NewHistory() History {
	return History{
		WatchedIDs:      make(map[int64]struct{}),
		DislikedGenres:  make(map[string]struct{}),
		PreferredGenres: make(map[string]struct{}),
	}
}

// Watched reports whether id was recorded as watched.
func (h History) Watched(id int64) bool {
	_, ok := h.WatchedIDs[id]
	return ok
}

// Dislikes reports whether genre (case-insensitive) is disliked.
func (h History) Dislikes(genre string) bool {
	_, ok := h.DislikedGenres[strings.ToLower(strings.TrimSpace(genre))]
	return ok
}

// Empty reports whether the history carries no information.
func (h History) Empty() bool {
	return len(h.WatchedIDs) == 0 && len(h.WatchedTitles) == 0 &&
		len(h.DislikedGenres) == 0 && len(h.PreferredGenres) == 0
}

const (
	maxWatchedEntries    = 15
	maxPreferenceEntries = 10
	maxTitlesPerEntry    = 3
	minTitleLength       = 4
)

var (
	watchedIDPatterns = []*regexp.Regexp{
		regexp.MustCompile(`(?i)TMDb\s*ID[:\s]+(\d+)`),
		regexp.MustCompile(`(?i)\(ID[:\s]+(\d+)\)`),
		regexp.MustCompile(`(?i)watched.*?(\d{5,})`),
		regexp.MustCompile(`(?i)\bid[:\s]+(\d+)`),
	}
	watchedTitlePattern = regexp.MustCompile(`(?i)watched\s+(?:film[:\s]+)?([^()]+)`)
	genreListPattern    = regexp.MustCompile(`genres?[:\s]+([^.]+)`)
)

// ParseWatched extracts watched ids and titles from up to 15 entries into h.
// The extraction is approximate and may both over- and under-match.
func ParseWatched(h *History, entries []Entry) {
	if len(entries) > maxWatchedEntries {
		entries = entries[:maxWatchedEntries]
	}
	for _, entry := range entries {
		for _, pattern := range watchedIDPatterns {
			for _, match := range pattern.FindAllStringSubmatch(entry.Text, -1) {
				if id, err := strconv.ParseInt(match[1], 10, 64); err == nil && id > 0 {
					h.WatchedIDs[id] = struct{}{}
				}
			}
		}
		for _, match := range watchedTitlePattern.FindAllStringSubmatch(entry.Text, maxTitlesPerEntry) {
			title := strings.TrimSpace(match[1])
			if len(title) >= minTitleLength {
				h.WatchedTitles = append(h.WatchedTitles, title)
			}
		}
	}
}

// ParsePreferences extracts disliked and preferred genre names from up to 10
// entries into h. Genre names are stored lower-cased.
func ParsePreferences(h *History, entries []Entry) {
	if len(entries) > maxPreferenceEntries {
		entries = entries[:maxPreferenceEntries]
	}
	for _, entry := range entries {
		text := strings.ToLower(entry.Text)
		negative := strings.Contains(text, "doesn't like") || strings.Contains(text, "avoid") ||
			strings.Contains(text, "dislike") || strings.Contains(text, "didn't like")
		positive := strings.Contains(text, "rated") && !negative &&
			(strings.Contains(text, "excellent") || strings.Contains(text, "likes") || strings.Contains(text, "enjoyed"))
		if !negative && !positive {
			continue
		}
		for _, match := range genreListPattern.FindAllStringSubmatch(text, -1) {
			for _, genre := range strings.Split(match[1], ",") {
				genre = strings.TrimSpace(strings.TrimSuffix(strings.TrimSpace(genre), ")"))
				if genre == "" || genre == "unknown" {
					continue
				}
				if negative {
					h.DislikedGenres[genre] = struct{}{}
				} else {
					h.PreferredGenres[genre] = struct{}{}
				}
			}
		}
	}
}
