// Package playlist derives names and metadata for generated playlists and
// assembles their persisted form.
package playlist

import (
	"fmt"
	"strings"
	"unicode"
	"unicode/utf8"
)

// theme maps prompt keywords to a ready-made playlist name.
type theme struct {
	keywords []string
	name     string
}

var themes = []theme{
	{[]string{"workout", "gym", "training", "exercise"}, "Heavy Training 💪"},
	{[]string{"work", "focus", "concentration", "productivity"}, "Work Focus 🎯"},
	{[]string{"barbecue", "bbq", "sunday", "friends"}, "Sunday Barbecue 🔥"},
	{[]string{"study", "studying", "reading", "exam"}, "Deep Study 📚"},
	{[]string{"party", "dance", "club", "celebration"}, "Party Mode 🎉"},
	{[]string{"relax", "rest", "calm", "chill"}, "Zen Moment 🧘"},
	{[]string{"travel", "road", "road trip", "driving"}, "Open Road 🚗"},
	{[]string{"samba", "mpb", "brazilian", "brazil"}, "Brazilian Roots 🇧🇷"},
	{[]string{"rock", "metal", "heavy"}, "Heavy Rock 🤘"},
	{[]string{"electronic", "electro", "house", "techno"}, "Electronic Beat ⚡"},
}

// NameFromPrompt picks a themed name when the prompt mentions a known
// keyword, otherwise titles the first three words of the prompt.
func NameFromPrompt(prompt string) string {
	lower := strings.ToLower(prompt)
	for _, t := range themes {
		for _, kw := range t.keywords {
			if strings.Contains(lower, kw) {
				return t.name
			}
		}
	}

	words := strings.Fields(prompt)
	if len(words) == 0 {
		return "My Playlist 🎵"
	}
	if len(words) > 3 {
		words = words[:3]
	}
	for i, w := range words {
		words[i] = titleWord(w)
	}
	return strings.Join(words, " ") + " 🎵"
}

// titleWord upcases the first rune only; prompts are not ASCII-only.
func titleWord(w string) string {
	r, size := utf8.DecodeRuneInString(w)
	if r == utf8.RuneError && size <= 1 {
		return w
	}
	return string(unicode.ToUpper(r)) + strings.ToLower(w[size:])
}

// DescriptionFromPrompt builds the playlist description shown on Spotify.
func DescriptionFromPrompt(prompt string) string {
	return "Playlist generated from AI based on: " + prompt
}

// FormatDuration renders a track-time total as "2h 5min" or "45min".
func FormatDuration(totalSeconds int) string {
	hours := totalSeconds / 3600
	minutes := (totalSeconds % 3600) / 60
	if hours > 0 {
		return fmt.Sprintf("%dh %dmin", hours, minutes)
	}
	return fmt.Sprintf("%dmin", minutes)
}
