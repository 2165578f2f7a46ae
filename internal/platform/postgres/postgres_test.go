package postgres

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"testing"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"callfile/internal/platform/config"
)

func TestIsUndefinedTable(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{name: "pq undefined table", err: &pq.Error{Code: "42P01"}, want: true},
		{name: "wrapped pq", err: fmt.Errorf("get caller: %w", &pq.Error{Code: "42P01"}), want: true},
		{name: "pgx undefined table", err: fmt.Errorf("list: %w", &pgconn.PgError{Code: "42P01"}), want: true},
		{name: "other pq code", err: &pq.Error{Code: "23505"}, want: false},
		{name: "plain error", err: errors.New("boom"), want: false},
		{name: "nil", err: nil, want: false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, IsUndefinedTable(tt.err))
		})
	}
}

func TestOpenWithoutURL(t *testing.T) {
	db, err := Open(context.Background(), config.DatabaseConfig{})
	require.NoError(t, err)
	assert.Nil(t, db)

	pool, err := OpenPool(context.Background(), config.DatabaseConfig{})
	require.NoError(t, err)
	assert.Nil(t, pool)
}

func TestMigrationsEmbedded(t *testing.T) {
	names, err := fs.Glob(migrations, "migrations/*.sql")
	require.NoError(t, err)
	assert.NotEmpty(t, names)
}
