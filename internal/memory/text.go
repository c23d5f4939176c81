package memory

import (
	"fmt"
	"strings"
)

// WatchIntentText records that the user chose to watch a movie.
func WatchIntentText(title string) string {
	return fmt.Sprintf("User wants to watch film: %s", title)
}

// DislikeText records a rejected movie and its genres.
func DislikeText(title string, genres []string) string {
	if len(genres) == 0 {
		return fmt.Sprintf("User doesn't like film: %s. Avoid suggesting similar films.", title)
	}
	return fmt.Sprintf("User doesn't like film: %s (Genres: %s). Avoid suggesting similar films.", title, strings.Join(genres, ", "))
}

// WatchedText records a movie the user has already seen.
func WatchedText(title string, movieID int64) string {
	return fmt.Sprintf("User already watched film: %s (TMDb ID: %d)", title, movieID)
}

// RatingText records a 1-10 rating with a band-specific genre preference.
func RatingText(title string, rating int, genres []string) string {
	genreList := strings.Join(genres, ", ")
	if genreList == "" {
		genreList = "unknown"
	}
	switch {
	case rating >= 8:
		return fmt.Sprintf("User rated %s %d/10 (Excellent!). User likes films with genres: %s.", title, rating, genreList)
	case rating >= 6:
		return fmt.Sprintf("User rated %s %d/10 (Good). User enjoyed films with genres: %s.", title, rating, genreList)
	default:
		return fmt.Sprintf("User rated %s %d/10 (Didn't like it). Avoid films with genres: %s.", title, rating, genreList)
	}
}
