package events

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/pashagolub/pgxmock/v3"

	"github.com/romiluz13/Studio-Oscar/internal/auth"
	"github.com/romiluz13/Studio-Oscar/internal/feed"
	"github.com/romiluz13/Studio-Oscar/internal/models"
)

func TestEventHandlersCreateAndRSVP(t *testing.T) {
	mock := newMock(t)
	start := time.Date(2026, 4, 12, 19, 0, 0, 0, time.UTC)
	mock.ExpectQuery(`INSERT INTO events`).
		WithArgs(pgxmock.AnyArg(), "Seder", "", pgxmock.AnyArg(), pgxmock.AnyArg(), false, true, "", "user-1").
		WillReturnRows(pgxmock.NewRows([]string{"created_at"}).AddRow(time.Now()))
	mock.ExpectExec(`INSERT INTO event_rsvps`).
		WithArgs("e1", "user-1", "yes", "Ima").
		WillReturnResult(pgxmock.NewResult("INSERT", 1))

	app := fiber.New()
	RegisterRoutes(app.Group("/events"), NewService(mock, nil, nil, Options{}), auth.WithIdentity(ima))

	body, _ := json.Marshal(EventInput{Title: "Seder", Start: start, IsEvent: true})
	req := httptest.NewRequest(http.MethodPost, "/events", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	resp, err := app.Test(req)
	if err != nil || resp.StatusCode != http.StatusCreated {
		t.Fatalf("create status: %v", err)
	}

	body, _ = json.Marshal(RSVPInput{Status: models.RSVPYes})
	req = httptest.NewRequest(http.MethodPut, "/events/e1/rsvp", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	resp, err = app.Test(req)
	if err != nil || resp.StatusCode != http.StatusOK {
		t.Fatalf("rsvp status: %v", err)
	}
}

func TestEventHandlersRSVPInvalidStatus(t *testing.T) {
	app := fiber.New()
	RegisterRoutes(app.Group("/events"), NewService(nil, nil, nil, Options{}), auth.WithIdentity(ima))

	req := httptest.NewRequest(http.MethodPut, "/events/e1/rsvp", bytes.NewReader([]byte(`{"status":"no"}`)))
	req.Header.Set("Content-Type", "application/json")
	resp, err := app.Test(req)
	if err != nil || resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("expected bad request")
	}
}

func TestEventHandlersListAndDeleteForbidden(t *testing.T) {
	mock := newMock(t)
	mock.ExpectExec(`DELETE FROM events`).
		WithArgs("e1", "user-2").
		WillReturnResult(pgxmock.NewResult("DELETE", 0))
	mock.ExpectQuery(`SELECT created_by FROM events`).
		WithArgs("e1").
		WillReturnRows(pgxmock.NewRows([]string{"created_by"}).AddRow("user-1"))

	cache := feed.NewCache[models.Event](0)
	cache.Replace([]models.Event{{ID: "e1", Title: "Seder", CreatedBy: "user-1"}})

	app := fiber.New()
	RegisterRoutes(app.Group("/events"), NewService(mock, cache, nil, Options{}), auth.WithIdentity(dod))

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/events", nil))
	if err != nil || resp.StatusCode != http.StatusOK {
		t.Fatalf("list status: %v", err)
	}
	var list []models.Event
	if err := json.NewDecoder(resp.Body).Decode(&list); err != nil || len(list) != 1 {
		t.Fatalf("unexpected list %v %v", list, err)
	}

	resp, err = app.Test(httptest.NewRequest(http.MethodDelete, "/events/e1", nil))
	if err != nil || resp.StatusCode != http.StatusForbidden {
		t.Fatalf("expected forbidden")
	}
}
