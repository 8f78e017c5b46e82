package postgres

import (
	"errors"
	"fmt"
	"testing"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
)

func TestIsUniqueViolation(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{"pgx unique", &pgconn.PgError{Code: UniqueViolation}, true},
		{"pgx wrapped", fmt.Errorf("insert: %w", &pgconn.PgError{Code: UniqueViolation}), true},
		{"pgx other code", &pgconn.PgError{Code: "23503"}, false},
		{"pq unique", &pq.Error{Code: UniqueViolation}, true},
		{"plain error", errors.New("boom"), false},
		{"nil", nil, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, IsUniqueViolation(tt.err))
		})
	}
}

func TestMigrationsEmbedded(t *testing.T) {
	entries, err := migrations.ReadDir("migrations")
	assert.NoError(t, err)
	assert.Len(t, entries, 2)
}

func TestOpenRequiresDSN(t *testing.T) {
	_, err := Open(t.Context(), Config{})
	assert.Error(t, err)
}
