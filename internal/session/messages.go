package session

import "fmt"

const (
	msgNoResult  = "I couldn't find any movies for that request. Please try a different search term. 🎬"
	msgExhausted = "I'm having trouble finding more movies. Please try asking again with a specific genre or theme. 🎬"
)

func watchMessage(title string, runtimeMinutes int) string {
	return fmt.Sprintf("Great choice! Enjoy watching *%s* (%s). I'll check in with you after the film! 🎬", title, formatRuntime(runtimeMinutes))
}

func dislikeMessage(title string) string {
	return fmt.Sprintf("Noted! I won't suggest *%s* or similar films again. Let me find something different... 🎬", title)
}

func watchedMessage(title string) string {
	return fmt.Sprintf("Got it! I've saved that you've already watched *%s*. Let me find another film... 🎬", title)
}

func ratingMessage(title string, rating int) string {
	switch {
	case rating >= 8:
		return fmt.Sprintf("Excellent! Thanks for the %d/10 rating for *%s*. I'll remember you liked it! 🌟", rating, title)
	case rating >= 6:
		return fmt.Sprintf("Thanks for the %d/10 rating for *%s*. I'll keep your preferences in mind. 👍", rating, title)
	default:
		return fmt.Sprintf("Thanks for the %d/10 rating for *%s*. I'll avoid suggesting similar films. 👌", rating, title)
	}
}

// formatRuntime renders minutes as "2h 28m" or "45m".
func formatRuntime(minutes int) string {
	hours := minutes / 60
	rest := minutes % 60
	if hours > 0 {
		return fmt.Sprintf("%dh %dm", hours, rest)
	}
	return fmt.Sprintf("%dm", rest)
}
