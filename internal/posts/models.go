package posts

import (
	"strings"
)

type PostInput struct {
	Text      string `json:"text"`
	EmbedLink string `json:"embed_link"`
	Tags      string `json:"tags"`
}

type BlessingInput struct {
	Text    string `json:"text"`
	EventID string `json:"event_id"`
}

type TextInput struct {
	Text string `json:"text"`
}

// SplitTags turns the comma-separated tag field into a tag list, dropping
// blanks.
func SplitTags(raw string) []string {
	tags := []string{}
	for _, t := range strings.Split(raw, ",") {
		if t = strings.TrimSpace(t); t != "" {
			tags = append(tags, t)
		}
	}
	return tags
}
