package db

import (
	"errors"
	"fmt"
	"testing"

	"github.com/jackc/pgx/v5/pgconn"
)

func TestIsUniqueViolation(t *testing.T) {
	pgErr := &pgconn.PgError{Code: "23505", ConstraintName: "ux_reviews_order_product"}
	cases := []struct {
		name       string
		err        error
		constraint string
		want       bool
	}{
		{"nil", nil, "", false},
		{"pg any", fmt.Errorf("insert: %w", pgErr), "", true},
		{"pg matching constraint", pgErr, "ux_reviews_order_product", true},
		{"pg other constraint", pgErr, "orders_order_number_key", false},
		{"pg other code", &pgconn.PgError{Code: "23503"}, "", false},
		{"sqlite", errors.New("UNIQUE constraint failed: reviews.order_id, reviews.product_id"), "", true},
		{"sqlite column match", errors.New("UNIQUE constraint failed: orders.order_number"), "orders.order_number", true},
		{"unrelated", errors.New("connection reset"), "", false},
	}
	for _, tc := range cases {
		if got := IsUniqueViolation(tc.err, tc.constraint); got != tc.want {
			t.Fatalf("%s: expected %v got %v", tc.name, tc.want, got)
		}
	}
}
