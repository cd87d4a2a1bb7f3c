package main

import (
	"context"
	"path/filepath"
	"strings"
	"testing"

	"github.com/irisdrone/library/config"
	"github.com/irisdrone/library/database"
	"github.com/irisdrone/library/logger"
	"github.com/irisdrone/library/services"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newCatalog(t *testing.T) *services.Catalog {
	t.Helper()
	db, err := database.Open(config.Database{
		Driver:     config.DriverSQLite,
		SQLitePath: filepath.Join(t.TempDir(), "seed.db"),
	}, logger.Nop())
	require.NoError(t, err)
	t.Cleanup(func() { database.Close(db) })
	return services.NewCatalog(db, nil, logger.Nop())
}

func TestImportBooks(t *testing.T) {
	catalog := newCatalog(t)
	ctx := context.Background()

	csv := `title,author,genre,available
Dune,Frank Herbert,Sci-Fi
Emma,Jane Austen,Classic,false
"Foundation, Book One",Isaac Asimov,Sci-Fi,true
Dune,Frank Herbert,Sci-Fi
`
	added, skipped, err := importBooks(ctx, catalog, strings.NewReader(csv))
	require.NoError(t, err)
	assert.Equal(t, 3, added)
	assert.Equal(t, 1, skipped)

	books, err := catalog.List(ctx)
	require.NoError(t, err)
	require.Len(t, books, 3)
	assert.True(t, books[0].Available)
	assert.False(t, books[1].Available)
	assert.Equal(t, "Foundation, Book One", books[2].Title)

	// Re-running the same file is a no-op.
	added, skipped, err = importBooks(ctx, catalog, strings.NewReader(csv))
	require.NoError(t, err)
	assert.Equal(t, 0, added)
	assert.Equal(t, 4, skipped)
}

func TestImportBooksRejectsMalformedRows(t *testing.T) {
	tests := []struct {
		name string
		csv  string
	}{
		{"too few columns", "Dune,Frank Herbert\n"},
		{"bad available flag", "Dune,Frank Herbert,Sci-Fi,maybe\n"},
		{"blank genre", "Dune,Frank Herbert, \n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, _, err := importBooks(context.Background(), newCatalog(t), strings.NewReader(tt.csv))
			assert.Error(t, err)
		})
	}
}
