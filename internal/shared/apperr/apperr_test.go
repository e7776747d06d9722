package apperr

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

func TestClassify(t *testing.T) {
	if Classify(nil) != nil {
		t.Fatalf("expected nil")
	}
	if err := Classify(pgx.ErrNoRows); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
	if err := Classify(fmt.Errorf("query: %w", context.DeadlineExceeded)); !errors.Is(err, ErrRemoteUnavailable) {
		t.Fatalf("expected unavailable, got %v", err)
	}
	denied := fmt.Errorf("%w: not yours", ErrPermissionDenied)
	if Classify(denied) != denied {
		t.Fatalf("expected known error to pass through")
	}
	fk := &pgconn.PgError{Code: "23503", ConstraintName: "post_likes_post_id_fkey"}
	if err := Classify(fmt.Errorf("insert like: %w", fk)); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected foreign key violation as not found, got %v", err)
	}
	dup := &pgconn.PgError{Code: "23505", ConstraintName: "users_email_key", Message: "duplicate key value"}
	if err := Classify(dup); !errors.Is(err, ErrValidation) {
		t.Fatalf("expected unique violation as validation, got %v", err)
	}
	if !IsUniqueViolation(fmt.Errorf("register: %w", dup)) || IsUniqueViolation(fk) {
		t.Fatalf("unique violation detection mismatch")
	}
	other := errors.New("boom")
	if Classify(other) != other {
		t.Fatalf("expected unknown error to pass through")
	}
}

func TestStatus(t *testing.T) {
	cases := map[error]int{
		ErrUnauthenticated:       fiber.StatusUnauthorized,
		Validation("text empty"): fiber.StatusBadRequest,
		ErrNotFound:              fiber.StatusNotFound,
		ErrPermissionDenied:      fiber.StatusForbidden,
		ErrRemoteUnavailable:     fiber.StatusServiceUnavailable,
		errors.New("boom"):       fiber.StatusInternalServerError,
	}
	for err, want := range cases {
		if got := Status(err); got != want {
			t.Fatalf("status(%v) = %d, want %d", err, got, want)
		}
	}
}

func TestHTTP(t *testing.T) {
	var fe *fiber.Error
	if !errors.As(HTTP(pgx.ErrNoRows), &fe) || fe.Code != fiber.StatusNotFound {
		t.Fatalf("expected 404 fiber error")
	}
	if !errors.As(HTTP(&pgconn.PgError{Code: "23505", Message: "duplicate key value"}), &fe) || fe.Code != fiber.StatusBadRequest || fe.Message != "validation failed: already exists" {
		t.Fatalf("expected 400 without driver text, got %+v", fe)
	}
}
