package database

import (
	"path/filepath"
	"testing"

	"github.com/irisdrone/library/config"
	"github.com/irisdrone/library/logger"
	"github.com/irisdrone/library/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOpenSQLiteMigrates(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "library.db")
	db, err := Open(config.Database{Driver: config.DriverSQLite, SQLitePath: path}, logger.Nop())
	require.NoError(t, err)
	t.Cleanup(func() { Close(db) })

	assert.True(t, db.Migrator().HasTable(&models.User{}))
	assert.True(t, db.Migrator().HasTable(&models.Book{}))
	assert.True(t, db.Migrator().HasIndex(&models.Book{}, "idx_books_title_author"))
}

func TestOpenRejectsBadConfig(t *testing.T) {
	_, err := Open(config.Database{Driver: config.DriverPostgres}, logger.Nop())
	assert.Error(t, err)

	_, err = Open(config.Database{Driver: "mongo"}, logger.Nop())
	assert.Error(t, err)
}
