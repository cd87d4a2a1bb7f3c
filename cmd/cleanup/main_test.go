package main

import (
	"bytes"
	"context"
	"path/filepath"
	"testing"

	"github.com/irisdrone/library/config"
	"github.com/irisdrone/library/database"
	"github.com/irisdrone/library/logger"
	"github.com/irisdrone/library/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func seededDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := database.Open(config.Database{
		Driver:     config.DriverSQLite,
		SQLitePath: filepath.Join(t.TempDir(), "cleanup.db"),
	}, logger.Nop())
	require.NoError(t, err)
	t.Cleanup(func() { database.Close(db) })

	books := []models.Book{
		{Title: "Dune", Author: "Frank Herbert", Genre: "Sci-Fi", Available: false},
		{Title: "Emma", Author: "Jane Austen", Genre: "Classic", Available: true},
		{Title: "Ubik", Author: "Philip K. Dick", Genre: "Sci-Fi", Available: false},
	}
	require.NoError(t, db.Create(&books).Error)
	return db
}

func TestResetAvailability(t *testing.T) {
	db := seededDB(t)

	n, err := resetAvailability(context.Background(), db)
	require.NoError(t, err)
	assert.Equal(t, int64(2), n)

	var unavailable int64
	require.NoError(t, db.Model(&models.Book{}).Where("available = ?", false).Count(&unavailable).Error)
	assert.Zero(t, unavailable)
}

func TestDeleteBooks(t *testing.T) {
	db := seededDB(t)

	n, err := deleteBooks(context.Background(), db)
	require.NoError(t, err)
	assert.Equal(t, int64(3), n)

	var count int64
	require.NoError(t, db.Model(&models.Book{}).Count(&count).Error)
	assert.Zero(t, count)
}

func TestCommandsRequireConfirmation(t *testing.T) {
	for _, sub := range []string{"books", "reset-availability"} {
		t.Run(sub, func(t *testing.T) {
			cmd := newRootCmd()
			cmd.SetArgs([]string{sub})
			cmd.SetOut(&bytes.Buffer{})
			cmd.SetErr(&bytes.Buffer{})
			assert.ErrorIs(t, cmd.Execute(), errNotConfirmed)
		})
	}
}
