package storage

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/pashagolub/pgxmock/v3"

	"github.com/romiluz13/Studio-Oscar/internal/auth"
)

var ima = auth.Identity{ID: "user-1", DisplayName: "Ima"}

type fakeBlobs struct {
	keys []string
	data []byte
	err  error
}

func (f *fakeBlobs) Upload(_ context.Context, key string, r io.Reader) (string, error) {
	if f.err != nil {
		return "", f.err
	}
	f.keys = append(f.keys, key)
	f.data, _ = io.ReadAll(r)
	return "https://res.example/" + key, nil
}

type fakeAvatars struct {
	userID, url string
}

func (f *fakeAvatars) UpdateAvatar(_ context.Context, userID, url string) error {
	f.userID, f.url = userID, url
	return nil
}

func newMock(t *testing.T) pgxmock.PgxPoolIface {
	t.Helper()
	mock, err := pgxmock.NewPool(pgxmock.QueryMatcherOption(pgxmock.QueryMatcherRegexp))
	if err != nil {
		t.Fatalf("mock pool: %v", err)
	}
	t.Cleanup(mock.Close)
	return mock
}

func avatarRequest(t *testing.T, content []byte) *http.Request {
	t.Helper()
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	part, err := w.CreateFormFile("avatar", "me.jpg")
	if err != nil {
		t.Fatalf("form file: %v", err)
	}
	_, _ = part.Write(content)
	_ = w.Close()

	req := httptest.NewRequest(http.MethodPost, "/storage/avatar", &buf)
	req.Header.Set("Content-Type", w.FormDataContentType())
	return req
}

func TestStorageUploadHandler(t *testing.T) {
	mock := newMock(t)
	mock.ExpectExec(`INSERT INTO storage_objects`).
		WithArgs(pgxmock.AnyArg(), "user-1", "https://cdn.example/file.jpg", "photo").
		WillReturnResult(pgxmock.NewResult("INSERT", 1))

	app := fiber.New()
	RegisterRoutes(app.Group("/storage"), NewService(mock, nil, nil), auth.WithIdentity(ima))

	body, _ := json.Marshal(map[string]string{"url": "https://cdn.example/file.jpg"})
	req := httptest.NewRequest(http.MethodPost, "/storage/upload", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	resp, err := app.Test(req)
	if err != nil || resp.StatusCode != http.StatusCreated {
		t.Fatalf("upload status: %v", err)
	}
	var obj Object
	if err := json.NewDecoder(resp.Body).Decode(&obj); err != nil || obj.Kind != "photo" || obj.UserID != "user-1" {
		t.Fatalf("unexpected object %+v %v", obj, err)
	}
}

func TestStorageUploadMissingURL(t *testing.T) {
	app := fiber.New()
	RegisterRoutes(app.Group("/storage"), NewService(nil, nil, nil), auth.WithIdentity(ima))

	req := httptest.NewRequest(http.MethodPost, "/storage/upload", bytes.NewReader([]byte(`{"kind":"photo"}`)))
	req.Header.Set("Content-Type", "application/json")
	resp, err := app.Test(req)
	if err != nil || resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("expected bad request")
	}
}

func TestStorageUploadError(t *testing.T) {
	mock := newMock(t)
	mock.ExpectExec(`INSERT INTO storage_objects`).
		WithArgs(pgxmock.AnyArg(), "user-1", "https://cdn.example/file.jpg", "photo").
		WillReturnError(errSave)

	app := fiber.New()
	RegisterRoutes(app.Group("/storage"), NewService(mock, nil, nil), auth.WithIdentity(ima))

	body, _ := json.Marshal(map[string]string{"url": "https://cdn.example/file.jpg", "kind": "photo"})
	req := httptest.NewRequest(http.MethodPost, "/storage/upload", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	resp, err := app.Test(req)
	if err != nil || resp.StatusCode != http.StatusInternalServerError {
		t.Fatalf("expected error status")
	}
}

func TestAvatarUpload(t *testing.T) {
	mock := newMock(t)
	mock.ExpectExec(`INSERT INTO storage_objects`).
		WithArgs(pgxmock.AnyArg(), "user-1", "https://res.example/profile-pics/user-1", KindAvatar).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))

	blobs := &fakeBlobs{}
	avatars := &fakeAvatars{}
	app := fiber.New()
	RegisterRoutes(app.Group("/storage"), NewService(mock, blobs, avatars), auth.WithIdentity(ima))

	resp, err := app.Test(avatarRequest(t, []byte("jpeg-bytes")))
	if err != nil || resp.StatusCode != http.StatusCreated {
		t.Fatalf("avatar status: %v", err)
	}
	if len(blobs.keys) != 1 || blobs.keys[0] != "profile-pics/user-1" || string(blobs.data) != "jpeg-bytes" {
		t.Fatalf("unexpected upload %v %q", blobs.keys, blobs.data)
	}
	if avatars.userID != "user-1" || avatars.url != "https://res.example/profile-pics/user-1" {
		t.Fatalf("expected avatar updated, got %+v", avatars)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestAvatarUploadMissingFile(t *testing.T) {
	app := fiber.New()
	RegisterRoutes(app.Group("/storage"), NewService(nil, &fakeBlobs{}, nil), auth.WithIdentity(ima))

	resp, err := app.Test(httptest.NewRequest(http.MethodPost, "/storage/avatar", nil))
	if err != nil || resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("expected bad request")
	}
}

func TestAvatarUploadBlobFailure(t *testing.T) {
	app := fiber.New()
	RegisterRoutes(app.Group("/storage"), NewService(nil, &fakeBlobs{err: errors.New("quota")}, nil), auth.WithIdentity(ima))

	resp, err := app.Test(avatarRequest(t, []byte("x")))
	if err != nil || resp.StatusCode != http.StatusServiceUnavailable {
		t.Fatalf("expected unavailable")
	}
}

func TestAvatarUploadNotConfigured(t *testing.T) {
	app := fiber.New()
	RegisterRoutes(app.Group("/storage"), NewService(nil, nil, nil), auth.WithIdentity(ima))

	resp, err := app.Test(avatarRequest(t, []byte("x")))
	if err != nil || resp.StatusCode != http.StatusServiceUnavailable {
		t.Fatalf("expected unavailable")
	}
}

var errSave = errors.New("save error")
