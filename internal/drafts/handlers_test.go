package drafts

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"

	"github.com/romiluz13/Studio-Oscar/internal/auth"
)

func TestDraftHandlers(t *testing.T) {
	store, mr := newStore(t)
	app := fiber.New()
	RegisterRoutes(app.Group("/drafts"), store, auth.WithIdentity(auth.Identity{ID: "user-1"}))

	body, _ := json.Marshal(Draft{Text: "hello", Tags: "a,b"})
	req := httptest.NewRequest(http.MethodPut, "/drafts", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	resp, err := app.Test(req)
	if err != nil || resp.StatusCode != http.StatusNoContent {
		t.Fatalf("save status: %v", err)
	}

	resp, err = app.Test(httptest.NewRequest(http.MethodGet, "/drafts", nil))
	if err != nil || resp.StatusCode != http.StatusOK {
		t.Fatalf("load status: %v", err)
	}
	var got Draft
	if err := json.NewDecoder(resp.Body).Decode(&got); err != nil || got.Text != "hello" {
		t.Fatalf("unexpected draft %+v %v", got, err)
	}

	resp, err = app.Test(httptest.NewRequest(http.MethodDelete, "/drafts", nil))
	if err != nil || resp.StatusCode != http.StatusNoContent {
		t.Fatalf("delete status: %v", err)
	}
	if mr.Exists("draft:post:user-1") {
		t.Fatalf("expected slot cleared")
	}
}

func TestDraftHandlersBadPayload(t *testing.T) {
	store, _ := newStore(t)
	app := fiber.New()
	RegisterRoutes(app.Group("/drafts"), store, auth.WithIdentity(auth.Identity{ID: "user-1"}))

	req := httptest.NewRequest(http.MethodPut, "/drafts", bytes.NewReader([]byte("{bad")))
	req.Header.Set("Content-Type", "application/json")
	resp, err := app.Test(req)
	if err != nil || resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("expected bad request")
	}
}
