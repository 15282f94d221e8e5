package postgres

import (
	"errors"
	"fmt"
	"testing"

	"github.com/lib/pq"
)

func TestIsUniqueViolation(t *testing.T) {
	dup := &pq.Error{Code: "23505", Message: "duplicate key value violates unique constraint"}
	if !isUniqueViolation(fmt.Errorf("insert: %w", dup)) {
		t.Fatal("expected wrapped 23505 to be a unique violation")
	}
	if isUniqueViolation(&pq.Error{Code: "23503"}) {
		t.Fatal("foreign key violation is not a unique violation")
	}
	if isUniqueViolation(errors.New("boom")) {
		t.Fatal("plain error is not a unique violation")
	}
}
