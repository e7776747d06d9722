package posts

import (
	"net/url"
	"strings"

	"github.com/romiluz13/Studio-Oscar/internal/embed"
	"github.com/romiluz13/Studio-Oscar/internal/models"
)

type Share struct {
	Permalink string `json:"permalink"`
	WhatsApp  string `json:"whatsapp"`
}

// ShareLinks builds the permalink and a WhatsApp share URL for post.
func ShareLinks(post models.Post, origin string) Share {
	permalink := strings.TrimRight(origin, "/") + "/#/post/" + post.ID

	var b strings.Builder
	b.WriteString("Come see this family memory: ")
	b.WriteString(post.Body())
	if post.EmbedLink != "" {
		if embed.Resolve(post.EmbedLink).IsVideo() {
			b.WriteString("\n\nWatch the video: ")
		} else {
			b.WriteString("\n\nSee the picture: ")
		}
		b.WriteString(post.EmbedLink)
	}
	b.WriteString("\n\nLink to the post: ")
	b.WriteString(permalink)

	return Share{
		Permalink: permalink,
		WhatsApp:  "https://wa.me/?text=" + strings.ReplaceAll(url.QueryEscape(b.String()), "+", "%20"),
	}
}
