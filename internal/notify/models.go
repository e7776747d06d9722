package notify

import "time"

const TypeMention = "mention"

// Notification is keyed by recipient and post: a second mention in the same
// post overwrites the first.
type Notification struct {
	UserID    string    `json:"user_id"`
	PostID    string    `json:"post_id"`
	Type      string    `json:"type"`
	Mentioner string    `json:"mentioner"`
	Preview   string    `json:"preview"`
	Read      bool      `json:"read"`
	CreatedAt time.Time `json:"created_at"`
}
