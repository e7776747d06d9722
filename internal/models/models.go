// Package models holds the documents shared by the feed, the mutation
// services and the live snapshot stream.
package models

import (
	"slices"
	"time"
)

type Post struct {
	ID           string    `json:"id"`
	UserID       string    `json:"user_id"`
	UserName     string    `json:"user_name"`
	UserPhotoURL string    `json:"user_photo_url,omitempty"`
	Text         string    `json:"text"`
	EmbedLink    string    `json:"embed_link,omitempty"`
	CreatedAt    time.Time `json:"created_at"`
	Likes        []string  `json:"likes"`
	Comments     []Comment `json:"comments"`
	Tags         []string  `json:"tags"`
	Mentions     []string  `json:"mentions,omitempty"`
	IsBlessing   bool      `json:"is_blessing"`
	BlessingText string    `json:"blessing_text,omitempty"`
	EventID      string    `json:"event_id,omitempty"`
}

// Body returns whichever text is active for the post variant.
func (p Post) Body() string {
	if p.IsBlessing {
		return p.BlessingText
	}
	return p.Text
}

func (p Post) LikedBy(userID string) bool {
	return slices.Contains(p.Likes, userID)
}

func (p Post) Comment(id string) (Comment, bool) {
	for _, c := range p.Comments {
		if c.ID == id {
			return c, true
		}
	}
	return Comment{}, false
}

type Comment struct {
	ID        string    `json:"id"`
	PostID    string    `json:"post_id"`
	UserID    string    `json:"user_id"`
	UserName  string    `json:"user_name"`
	Text      string    `json:"text"`
	CreatedAt time.Time `json:"created_at"`
}

type RSVPStatus string

const (
	RSVPYes   RSVPStatus = "yes"
	RSVPMaybe RSVPStatus = "maybe"
)

func (s RSVPStatus) Valid() bool {
	return s == RSVPYes || s == RSVPMaybe
}

type RSVP struct {
	Status RSVPStatus `json:"status"`
	Name   string     `json:"name"`
}

// Event is a calendar entry. Important dates have IsEvent false and never
// carry RSVPs.
type Event struct {
	ID          string          `json:"id"`
	Title       string          `json:"title"`
	Description string          `json:"description"`
	Start       time.Time       `json:"start"`
	End         time.Time       `json:"end"`
	AllDay      bool            `json:"all_day"`
	IsEvent     bool            `json:"is_event"`
	Location    string          `json:"location,omitempty"`
	CreatedBy   string          `json:"created_by"`
	CreatedAt   time.Time       `json:"created_at"`
	RSVP        map[string]RSVP `json:"rsvp,omitempty"`
}
