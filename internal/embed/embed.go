// Package embed classifies media links attached to posts.
package embed

import (
	"net/url"
	"strings"
)

type Kind string

const (
	KindNone    Kind = "none"
	KindYouTube Kind = "youtube"
	KindVimeo   Kind = "vimeo"
	KindImage   Kind = "image"
)

type Embed struct {
	Kind    Kind   `json:"kind"`
	VideoID string `json:"video_id,omitempty"`
	Src     string `json:"src,omitempty"`
}

func (e Embed) IsVideo() bool {
	return e.Kind == KindYouTube || e.Kind == KindVimeo
}

// Resolve classifies link by host substring. It never touches the network.
func Resolve(link string) Embed {
	link = strings.TrimSpace(link)
	switch {
	case link == "":
		return Embed{Kind: KindNone}
	case strings.Contains(link, "youtube.com"):
		id := queryParam(link, "v")
		return Embed{Kind: KindYouTube, VideoID: id, Src: "https://www.youtube-nocookie.com/embed/" + id}
	case strings.Contains(link, "youtu.be"):
		id := lastSegment(link)
		return Embed{Kind: KindYouTube, VideoID: id, Src: "https://www.youtube-nocookie.com/embed/" + id}
	case strings.Contains(link, "vimeo.com"):
		id := lastSegment(link)
		return Embed{Kind: KindVimeo, VideoID: id, Src: "https://player.vimeo.com/video/" + id}
	default:
		return Embed{Kind: KindImage, Src: link}
	}
}

func queryParam(link, name string) string {
	if u, err := url.Parse(link); err == nil {
		if v := u.Query().Get(name); v != "" {
			return v
		}
	}
	_, rest, ok := strings.Cut(link, name+"=")
	if !ok {
		return ""
	}
	if i := strings.IndexAny(rest, "&#"); i >= 0 {
		rest = rest[:i]
	}
	return rest
}

func lastSegment(link string) string {
	if i := strings.IndexAny(link, "?#"); i >= 0 {
		link = link[:i]
	}
	link = strings.TrimRight(link, "/")
	return link[strings.LastIndex(link, "/")+1:]
}
