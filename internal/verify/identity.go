package verify

import (
	"errors"
	"fmt"
	"strings"

	"cinepick/internal/textutil"
)

// ErrIdentityMismatch reports a detail record that does not belong to the
// requested candidate.
var ErrIdentityMismatch = errors.New("catalog record does not match requested movie")

// DefaultTitleWindow is how many leading title words are compared.
const DefaultTitleWindow = 4

var titleStopWords = textutil.NewStopWords("the", "a", "an", "and", "of", "in", "on", "at", "to", "for")

// IdentityChecker compares requested candidates with fetched records.
type IdentityChecker struct {
	// TitleWindow is how many leading words of each title are compared.
	// Non-positive values use DefaultTitleWindow.
	TitleWindow int
}

// Check verifies that a fetched record (returnedID, returnedTitle) matches the
// requested candidate. An empty expected title skips the title check.
func (ic IdentityChecker) Check(requestedID int64, expectedTitle string, returnedID int64, returnedTitle string) error {
	if returnedID != requestedID {
		return fmt.Errorf("%w: requested id %d, got %d", ErrIdentityMismatch, requestedID, returnedID)
	}
	if !TitlesCompatible(expectedTitle, returnedTitle, ic.TitleWindow) {
		return fmt.Errorf("%w: id %d expected %q, got %q", ErrIdentityMismatch, requestedID, expectedTitle, returnedTitle)
	}
	return nil
}

// TitlesCompatible reports whether two titles plausibly name the same movie.
// Titles are compatible when either is empty, they are equal ignoring case and
// surrounding space, or the significant words among their first window words
// overlap. When either side has no significant words the check passes.
func TitlesCompatible(expected, actual string, window int) bool {
	if window <= 0 {
		window = DefaultTitleWindow
	}
	expected = strings.ToLower(strings.TrimSpace(expected))
	actual = strings.ToLower(strings.TrimSpace(actual))
	if expected == "" || actual == "" || expected == actual {
		return true
	}
	want := textutil.LeadingWordSet(expected, window, titleStopWords)
	got := textutil.LeadingWordSet(actual, window, titleStopWords)
	if len(want) == 0 || len(got) == 0 {
		return true
	}
	return textutil.Intersects(want, got)
}
