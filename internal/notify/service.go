// Package notify turns @mentions in posts into in-app notifications.
package notify

import (
	"context"
	"fmt"
	"regexp"

	"github.com/golang/glog"

	"github.com/romiluz13/Studio-Oscar/internal/auth"
	"github.com/romiluz13/Studio-Oscar/internal/db"
	"github.com/romiluz13/Studio-Oscar/internal/models"
	"github.com/romiluz13/Studio-Oscar/internal/shared/apperr"
)

const previewLen = 100

var mentionPattern = regexp.MustCompile(`@(\w+)`)

// ExtractMentions returns the distinct usernames mentioned in text, in order
// of first appearance.
func ExtractMentions(text string) []string {
	seen := map[string]bool{}
	mentions := []string{}
	for _, m := range mentionPattern.FindAllStringSubmatch(text, -1) {
		if seen[m[1]] {
			continue
		}
		seen[m[1]] = true
		mentions = append(mentions, m[1])
	}
	return mentions
}

// Preview cuts text to the first 100 characters.
func Preview(text string) string {
	runes := []rune(text)
	if len(runes) <= previewLen {
		return text
	}
	return string(runes[:previewLen]) + "..."
}

type Service struct {
	db db.Querier
}

func NewService(db db.Querier) *Service {
	return &Service{db: db}
}

// NotifyMentions writes one notification per mentioned user that exists.
// Authors are never notified about themselves.
func (s *Service) NotifyMentions(ctx context.Context, post models.Post) error {
	if len(post.Mentions) == 0 {
		return nil
	}
	rows, err := s.db.Query(ctx, `
		SELECT id FROM users WHERE username = ANY($1)
	`, post.Mentions)
	if err != nil {
		return fmt.Errorf("lookup mentioned users: %w", err)
	}
	var recipients []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			rows.Close()
			return err
		}
		if id != post.UserID {
			recipients = append(recipients, id)
		}
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return err
	}

	preview := Preview(post.Body())
	for _, userID := range recipients {
		_, err := s.db.Exec(ctx, `
			INSERT INTO notifications (user_id, post_id, type, mentioner, preview)
			VALUES ($1,$2,$3,$4,$5)
			ON CONFLICT (user_id, post_id) DO UPDATE
			SET mentioner = EXCLUDED.mentioner, preview = EXCLUDED.preview, read = false, created_at = now()
		`, userID, post.ID, TypeMention, post.UserName, preview)
		if err != nil {
			return fmt.Errorf("notify %s: %w", userID, err)
		}
		glog.V(1).Infof("mention notification for %s on post %s", userID, post.ID)
	}
	return nil
}

func (s *Service) List(ctx context.Context, ident auth.Identity) ([]Notification, error) {
	if !ident.SignedIn() {
		return nil, apperr.ErrUnauthenticated
	}
	rows, err := s.db.Query(ctx, `
		SELECT user_id, post_id, type, mentioner, preview, read, created_at
		FROM notifications WHERE user_id = $1
		ORDER BY created_at DESC
	`, ident.ID)
	if err != nil {
		return nil, apperr.Classify(err)
	}
	defer rows.Close()

	list := []Notification{}
	for rows.Next() {
		var n Notification
		if err := rows.Scan(&n.UserID, &n.PostID, &n.Type, &n.Mentioner, &n.Preview, &n.Read, &n.CreatedAt); err != nil {
			return nil, err
		}
		list = append(list, n)
	}
	return list, rows.Err()
}

func (s *Service) MarkRead(ctx context.Context, ident auth.Identity, postID string) error {
	if !ident.SignedIn() {
		return apperr.ErrUnauthenticated
	}
	tag, err := s.db.Exec(ctx, `
		UPDATE notifications SET read = true WHERE user_id = $1 AND post_id = $2
	`, ident.ID, postID)
	if err != nil {
		return apperr.Classify(err)
	}
	if tag.RowsAffected() == 0 {
		return apperr.ErrNotFound
	}
	return nil
}
