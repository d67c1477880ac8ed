package postgres

import (
	"database/sql"
	"fmt"
	"testing"

	"github.com/lib/pq"
)

func TestIsNotFound(t *testing.T) {
	t.Run("matches ErrNoRows", func(t *testing.T) {
		if !isNotFound(sql.ErrNoRows) {
			t.Fatalf("expected true for sql.ErrNoRows")
		}
	})

	t.Run("matches wrapped ErrNoRows", func(t *testing.T) {
		if !isNotFound(fmt.Errorf("load window: %w", sql.ErrNoRows)) {
			t.Fatalf("expected true for wrapped sql.ErrNoRows")
		}
	})

	t.Run("ignores unrelated error", func(t *testing.T) {
		if isNotFound(fmt.Errorf("connection refused")) {
			t.Fatalf("expected false for unrelated error")
		}
	})
}

func TestIsUniqueViolation(t *testing.T) {
	t.Run("matches 23505", func(t *testing.T) {
		err := &pq.Error{Code: "23505", Message: "duplicate key value violates unique constraint"}
		if !isUniqueViolation(err) {
			t.Fatalf("expected true for unique violation")
		}
	})

	t.Run("matches wrapped 23505", func(t *testing.T) {
		err := fmt.Errorf("insert vote: %w", &pq.Error{Code: "23505"})
		if !isUniqueViolation(err) {
			t.Fatalf("expected true for wrapped unique violation")
		}
	})

	t.Run("ignores other pq codes", func(t *testing.T) {
		err := &pq.Error{Code: "23503", Message: "foreign key violation"}
		if isUniqueViolation(err) {
			t.Fatalf("expected false for non-unique violation")
		}
	})

	t.Run("ignores non-pq error", func(t *testing.T) {
		if isUniqueViolation(fmt.Errorf("some error")) {
			t.Fatalf("expected false for non-pq error")
		}
	})
}
