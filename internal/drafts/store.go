// Package drafts keeps each user's unsent post in a single Redis slot.
package drafts

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/redis/go-redis/v9"

	"github.com/romiluz13/Studio-Oscar/internal/auth"
	"github.com/romiluz13/Studio-Oscar/internal/shared/apperr"
)

// Draft is the unsent post form. Tags stay the raw comma-separated string
// the user typed.
type Draft struct {
	Text      string `json:"text"`
	EmbedLink string `json:"embed_link"`
	Tags      string `json:"tags"`
}

func (d Draft) Empty() bool {
	return strings.TrimSpace(d.Text) == "" && strings.TrimSpace(d.EmbedLink) == "" && strings.TrimSpace(d.Tags) == ""
}

type Store struct {
	redis *redis.Client
}

func NewStore(client *redis.Client) *Store {
	return &Store{redis: client}
}

func key(userID string) string {
	return "draft:post:" + userID
}

// Save overwrites the slot. Saving an empty draft clears it.
func (s *Store) Save(ctx context.Context, ident auth.Identity, d Draft) error {
	if !ident.SignedIn() {
		return apperr.ErrUnauthenticated
	}
	if d.Empty() {
		return s.Clear(ctx, ident.ID)
	}
	payload, err := json.Marshal(d)
	if err != nil {
		return err
	}
	if err := s.redis.Set(ctx, key(ident.ID), payload, 0).Err(); err != nil {
		return fmt.Errorf("%w: save draft: %v", apperr.ErrRemoteUnavailable, err)
	}
	return nil
}

// Load returns the saved draft, or an empty one when the slot is unset.
func (s *Store) Load(ctx context.Context, ident auth.Identity) (Draft, error) {
	if !ident.SignedIn() {
		return Draft{}, apperr.ErrUnauthenticated
	}
	raw, err := s.redis.Get(ctx, key(ident.ID)).Bytes()
	if errors.Is(err, redis.Nil) {
		return Draft{}, nil
	}
	if err != nil {
		return Draft{}, fmt.Errorf("%w: load draft: %v", apperr.ErrRemoteUnavailable, err)
	}
	var d Draft
	if err := json.Unmarshal(raw, &d); err != nil {
		return Draft{}, fmt.Errorf("decode draft: %w", err)
	}
	return d, nil
}

// Clear empties the user's slot. It is called after a post is published.
func (s *Store) Clear(ctx context.Context, userID string) error {
	if err := s.redis.Del(ctx, key(userID)).Err(); err != nil {
		return fmt.Errorf("%w: clear draft: %v", apperr.ErrRemoteUnavailable, err)
	}
	return nil
}
