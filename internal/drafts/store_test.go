package drafts

import (
	"context"
	"errors"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"

	"github.com/romiluz13/Studio-Oscar/internal/auth"
	"github.com/romiluz13/Studio-Oscar/internal/shared/apperr"
)

func newStore(t *testing.T) (*Store, *miniredis.Miniredis) {
	t.Helper()
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("miniredis: %v", err)
	}
	t.Cleanup(mr.Close)
	return NewStore(redis.NewClient(&redis.Options{Addr: mr.Addr()})), mr
}

func TestSaveLoadRoundTrip(t *testing.T) {
	store, mr := newStore(t)
	ctx := context.Background()
	ident := auth.Identity{ID: "user-1"}

	want := Draft{Text: "the seder at savta's", EmbedLink: "https://youtu.be/abc", Tags: "pesach, family"}
	if err := store.Save(ctx, ident, want); err != nil {
		t.Fatalf("save: %v", err)
	}
	if !mr.Exists("draft:post:user-1") {
		t.Fatalf("expected draft key")
	}
	if mr.TTL("draft:post:user-1") != 0 {
		t.Fatalf("draft must not expire")
	}

	got, err := store.Load(ctx, ident)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if got != want {
		t.Fatalf("got %+v, want %+v", got, want)
	}
}

func TestLoadMissingIsEmpty(t *testing.T) {
	store, _ := newStore(t)
	got, err := store.Load(context.Background(), auth.Identity{ID: "user-1"})
	if err != nil || !got.Empty() {
		t.Fatalf("expected empty draft, got %+v %v", got, err)
	}
}

func TestLastWriteWins(t *testing.T) {
	store, _ := newStore(t)
	ctx := context.Background()
	ident := auth.Identity{ID: "user-1"}

	_ = store.Save(ctx, ident, Draft{Text: "first"})
	_ = store.Save(ctx, ident, Draft{Text: "second"})
	got, _ := store.Load(ctx, ident)
	if got.Text != "second" {
		t.Fatalf("expected last write, got %q", got.Text)
	}
}

func TestSaveEmptyClears(t *testing.T) {
	store, mr := newStore(t)
	ctx := context.Background()
	ident := auth.Identity{ID: "user-1"}

	_ = store.Save(ctx, ident, Draft{Text: "something"})
	if err := store.Save(ctx, ident, Draft{Text: "  "}); err != nil {
		t.Fatalf("save empty: %v", err)
	}
	if mr.Exists("draft:post:user-1") {
		t.Fatalf("expected slot cleared")
	}
}

func TestClearAfterPublish(t *testing.T) {
	store, _ := newStore(t)
	ctx := context.Background()
	ident := auth.Identity{ID: "user-1"}

	_ = store.Save(ctx, ident, Draft{Text: "almost done"})
	if err := store.Clear(ctx, ident.ID); err != nil {
		t.Fatalf("clear: %v", err)
	}
	got, _ := store.Load(ctx, ident)
	if !got.Empty() {
		t.Fatalf("expected empty draft after clear, got %+v", got)
	}
}

func TestSlotsArePerUser(t *testing.T) {
	store, _ := newStore(t)
	ctx := context.Background()

	_ = store.Save(ctx, auth.Identity{ID: "user-1"}, Draft{Text: "mine"})
	got, _ := store.Load(ctx, auth.Identity{ID: "user-2"})
	if !got.Empty() {
		t.Fatalf("expected other user's slot empty")
	}
}

func TestRequiresIdentity(t *testing.T) {
	store, _ := newStore(t)
	if err := store.Save(context.Background(), auth.Identity{}, Draft{Text: "x"}); !errors.Is(err, apperr.ErrUnauthenticated) {
		t.Fatalf("expected unauthenticated, got %v", err)
	}
	if _, err := store.Load(context.Background(), auth.Identity{}); !errors.Is(err, apperr.ErrUnauthenticated) {
		t.Fatalf("expected unauthenticated, got %v", err)
	}
}

func TestRedisDown(t *testing.T) {
	store, mr := newStore(t)
	mr.Close()
	if err := store.Save(context.Background(), auth.Identity{ID: "user-1"}, Draft{Text: "x"}); !errors.Is(err, apperr.ErrRemoteUnavailable) {
		t.Fatalf("expected unavailable, got %v", err)
	}
}
