// Package storage records uploaded files and handles profile pictures.
package storage

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/golang/glog"
	"github.com/google/uuid"

	"github.com/romiluz13/Studio-Oscar/internal/auth"
	"github.com/romiluz13/Studio-Oscar/internal/db"
	"github.com/romiluz13/Studio-Oscar/internal/shared/apperr"
)

const KindAvatar = "avatar"

type Object struct {
	ID     string `json:"id"`
	UserID string `json:"user_id"`
	URL    string `json:"url"`
	Kind   string `json:"kind"`
}

type AvatarUpdater interface {
	UpdateAvatar(ctx context.Context, userID, url string) error
}

type Service struct {
	db      db.Querier
	blobs   BlobStore
	avatars AvatarUpdater
}

// NewService wires object records to Postgres. blobs may be nil when no blob
// store is configured; avatar uploads then fail as unavailable.
func NewService(db db.Querier, blobs BlobStore, avatars AvatarUpdater) *Service {
	return &Service{db: db, blobs: blobs, avatars: avatars}
}

func (s *Service) SaveObject(ctx context.Context, userID, url, kind string) (string, error) {
	id := uuid.NewString()
	_, err := s.db.Exec(ctx, `
		INSERT INTO storage_objects (id, user_id, url, kind)
		VALUES ($1,$2,$3,$4)
	`, id, userID, url, kind)
	if err != nil {
		return "", apperr.Classify(err)
	}
	return id, nil
}

// Record stores a file the caller already uploaded elsewhere.
func (s *Service) Record(ctx context.Context, ident auth.Identity, url, kind string) (Object, error) {
	if !ident.SignedIn() {
		return Object{}, apperr.ErrUnauthenticated
	}
	url = strings.TrimSpace(url)
	if url == "" {
		return Object{}, apperr.Validation("url is required")
	}
	if kind == "" {
		kind = "photo"
	}
	id, err := s.SaveObject(ctx, ident.ID, url, kind)
	if err != nil {
		return Object{}, err
	}
	return Object{ID: id, UserID: ident.ID, URL: url, Kind: kind}, nil
}

// UploadAvatar stores the caller's profile picture under
// profile-pics/<user id> and points the user's avatar at it.
func (s *Service) UploadAvatar(ctx context.Context, ident auth.Identity, r io.Reader) (Object, error) {
	if !ident.SignedIn() {
		return Object{}, apperr.ErrUnauthenticated
	}
	if s.blobs == nil {
		return Object{}, fmt.Errorf("%w: blob storage not configured", apperr.ErrRemoteUnavailable)
	}

	url, err := s.blobs.Upload(ctx, "profile-pics/"+ident.ID, r)
	if err != nil {
		glog.Errorf("upload avatar for %s: %v", ident.ID, err)
		return Object{}, fmt.Errorf("%w: %v", apperr.ErrRemoteUnavailable, err)
	}
	id, err := s.SaveObject(ctx, ident.ID, url, KindAvatar)
	if err != nil {
		return Object{}, err
	}
	if s.avatars != nil {
		if err := s.avatars.UpdateAvatar(ctx, ident.ID, url); err != nil {
			return Object{}, err
		}
	}
	return Object{ID: id, UserID: ident.ID, URL: url, Kind: KindAvatar}, nil
}
