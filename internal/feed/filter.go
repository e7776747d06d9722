package feed

import (
	"strings"

	"github.com/romiluz13/Studio-Oscar/internal/models"
)

// Filter keeps posts whose text, blessing text or any tag contains term,
// ignoring case. An empty term keeps everything.
func Filter(posts []models.Post, term string) []models.Post {
	term = strings.ToLower(strings.TrimSpace(term))
	if term == "" {
		return posts
	}
	out := make([]models.Post, 0, len(posts))
	for _, p := range posts {
		if matches(p, term) {
			out = append(out, p)
		}
	}
	return out
}

func matches(p models.Post, term string) bool {
	if strings.Contains(strings.ToLower(p.Text), term) || strings.Contains(strings.ToLower(p.BlessingText), term) {
		return true
	}
	for _, tag := range p.Tags {
		if strings.Contains(strings.ToLower(tag), term) {
			return true
		}
	}
	return false
}
