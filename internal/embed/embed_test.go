package embed

import "testing"

func TestResolve(t *testing.T) {
	cases := []struct {
		link string
		want Embed
	}{
		{"https://youtube.com/watch?v=abc123", Embed{Kind: KindYouTube, VideoID: "abc123", Src: "https://www.youtube-nocookie.com/embed/abc123"}},
		{"https://www.youtube.com/watch?v=abc123&t=42s", Embed{Kind: KindYouTube, VideoID: "abc123", Src: "https://www.youtube-nocookie.com/embed/abc123"}},
		{"https://youtu.be/xyz789", Embed{Kind: KindYouTube, VideoID: "xyz789", Src: "https://www.youtube-nocookie.com/embed/xyz789"}},
		{"https://vimeo.com/76979871", Embed{Kind: KindVimeo, VideoID: "76979871", Src: "https://player.vimeo.com/video/76979871"}},
		{"https://vimeo.com/channels/staff/76979871/", Embed{Kind: KindVimeo, VideoID: "76979871", Src: "https://player.vimeo.com/video/76979871"}},
		{"https://cdn.example/grandma.jpg", Embed{Kind: KindImage, Src: "https://cdn.example/grandma.jpg"}},
		{"  ", Embed{Kind: KindNone}},
	}
	for _, tc := range cases {
		if got := Resolve(tc.link); got != tc.want {
			t.Fatalf("Resolve(%q) = %+v, want %+v", tc.link, got, tc.want)
		}
	}
}

func TestResolveDeterministic(t *testing.T) {
	link := "https://youtube.com/watch?v=abc123"
	if Resolve(link) != Resolve(link) {
		t.Fatalf("expected same classification")
	}
}

func TestResolveYouTubeWithoutParam(t *testing.T) {
	got := Resolve("https://youtube.com/channel/family")
	if got.Kind != KindYouTube || got.VideoID != "" {
		t.Fatalf("unexpected %+v", got)
	}
}

func TestIsVideo(t *testing.T) {
	if !Resolve("https://vimeo.com/1").IsVideo() {
		t.Fatalf("expected video")
	}
	if Resolve("https://img.example/a.png").IsVideo() {
		t.Fatalf("expected image")
	}
}

func TestResolveYouTubeParamNotFirst(t *testing.T) {
	got := Resolve("https://www.youtube.com/watch?feature=share&v=q1w2e3")
	if got.VideoID != "q1w2e3" {
		t.Fatalf("expected v param, got %q", got.VideoID)
	}
}
