package storage

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOpenFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "portfolio.db")

	db, err := Open(context.Background(), path)
	require.NoError(t, err)
	defer db.Close()

	_, err = db.Exec(`CREATE TABLE t (v INTEGER)`)
	require.NoError(t, err)
	assert.FileExists(t, path)
}

func TestOpenMemory(t *testing.T) {
	db, err := Open(context.Background(), ":memory:")
	require.NoError(t, err)
	defer db.Close()

	var one int
	require.NoError(t, db.QueryRow(`SELECT 1`).Scan(&one))
	assert.Equal(t, 1, one)
}

func TestOpenRequiresPath(t *testing.T) {
	_, err := Open(context.Background(), "  ")
	assert.Error(t, err)
}
