// Command cleanup performs destructive maintenance on the library database.
package main

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/irisdrone/library/config"
	"github.com/irisdrone/library/database"
	"github.com/irisdrone/library/logger"
	"github.com/irisdrone/library/models"
	"github.com/spf13/cobra"
	"gorm.io/gorm"
)

var errNotConfirmed = errors.New("refusing to run without --yes")

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var yes bool
	root := &cobra.Command{
		Use:          "cleanup",
		Short:        "Destructive maintenance for the library database",
		SilenceUsage: true,
	}
	root.PersistentFlags().BoolVar(&yes, "yes", false, "confirm the operation")

	root.AddCommand(&cobra.Command{
		Use:   "books",
		Short: "Delete every book",
		RunE: withDB(&yes, func(cmd *cobra.Command, db *gorm.DB) error {
			n, err := deleteBooks(cmd.Context(), db)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Deleted %d books\n", n)
			return nil
		}),
	})
	root.AddCommand(&cobra.Command{
		Use:   "reset-availability",
		Short: "Mark every book as available",
		RunE: withDB(&yes, func(cmd *cobra.Command, db *gorm.DB) error {
			n, err := resetAvailability(cmd.Context(), db)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Marked %d books available\n", n)
			return nil
		}),
	})
	return root
}

func withDB(yes *bool, fn func(*cobra.Command, *gorm.DB) error) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, args []string) error {
		if !*yes {
			return errNotConfirmed
		}
		cfg, err := config.Load()
		if err != nil {
			return err
		}
		db, err := database.Open(cfg.Database, logger.New(cfg.Debug, os.Stderr))
		if err != nil {
			return err
		}
		defer database.Close(db)
		return fn(cmd, db)
	}
}

func deleteBooks(ctx context.Context, db *gorm.DB) (int64, error) {
	res := db.WithContext(ctx).Session(&gorm.Session{AllowGlobalUpdate: true}).Delete(&models.Book{})
	return res.RowsAffected, res.Error
}

func resetAvailability(ctx context.Context, db *gorm.DB) (int64, error) {
	res := db.WithContext(ctx).Session(&gorm.Session{AllowGlobalUpdate: true}).
		Model(&models.Book{}).
		Where("available = ?", false).
		Update("available", true)
	return res.RowsAffected, res.Error
}
