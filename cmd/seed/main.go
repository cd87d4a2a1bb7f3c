// Command seed creates the first administrator and bulk-loads books.
package main

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/irisdrone/library/config"
	"github.com/irisdrone/library/database"
	"github.com/irisdrone/library/logger"
	"github.com/irisdrone/library/models"
	"github.com/irisdrone/library/services"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"golang.org/x/term"
	"gorm.io/gorm"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:          "seed",
		Short:        "Seed the library database",
		SilenceUsage: true,
	}
	root.AddCommand(newAdminCmd(), newBooksCmd())
	return root
}

func newAdminCmd() *cobra.Command {
	var username, password string
	cmd := &cobra.Command{
		Use:   "admin",
		Short: "Create an administrator account if it does not exist",
		RunE: func(cmd *cobra.Command, args []string) error {
			if password == "" {
				p, err := promptPassword(cmd.ErrOrStderr())
				if err != nil {
					return err
				}
				password = p
			}

			db, log, err := connect()
			if err != nil {
				return err
			}
			defer database.Close(db)

			created, err := services.NewAccounts(db, log).EnsureAdmin(cmd.Context(), username, password)
			if err != nil {
				return err
			}
			if created {
				fmt.Fprintf(cmd.OutOrStdout(), "Created admin %q\n", username)
			} else {
				fmt.Fprintf(cmd.OutOrStdout(), "User %q already exists, left unchanged\n", username)
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&username, "username", "", "admin username")
	cmd.Flags().StringVar(&password, "password", "", "admin password (prompted when omitted)")
	_ = cmd.MarkFlagRequired("username")
	return cmd
}

func newBooksCmd() *cobra.Command {
	var file string
	cmd := &cobra.Command{
		Use:   "books",
		Short: "Import books from a CSV file (title,author,genre[,available])",
		RunE: func(cmd *cobra.Command, args []string) error {
			f, err := os.Open(file)
			if err != nil {
				return err
			}
			defer f.Close()

			db, log, err := connect()
			if err != nil {
				return err
			}
			defer database.Close(db)

			added, skipped, err := importBooks(cmd.Context(), services.NewCatalog(db, nil, log), f)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Imported %d books, skipped %d duplicates\n", added, skipped)
			return nil
		},
	}
	cmd.Flags().StringVar(&file, "file", "", "CSV file to import")
	_ = cmd.MarkFlagRequired("file")
	return cmd
}

func connect() (*gorm.DB, zerolog.Logger, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, zerolog.Logger{}, err
	}
	log := logger.New(cfg.Debug, os.Stderr)
	db, err := database.Open(cfg.Database, log)
	if err != nil {
		return nil, log, err
	}
	return db, log, nil
}

func promptPassword(w io.Writer) (string, error) {
	fd := int(os.Stdin.Fd())
	if !term.IsTerminal(fd) {
		return "", errors.New("--password is required when stdin is not a terminal")
	}
	fmt.Fprint(w, "Password: ")
	b, err := term.ReadPassword(fd)
	fmt.Fprintln(w)
	if err != nil {
		return "", err
	}
	if len(b) == 0 {
		return "", errors.New("empty password")
	}
	return string(b), nil
}

// importBooks creates one book per CSV row. A header row is skipped when its
// first column reads "title". Books already in the catalog count as skipped.
func importBooks(ctx context.Context, catalog *services.Catalog, r io.Reader) (added, skipped int, err error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true

	for line := 1; ; line++ {
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			return added, skipped, nil
		}
		if err != nil {
			return added, skipped, fmt.Errorf("line %d: %w", line, err)
		}
		if line == 1 && strings.EqualFold(strings.TrimSpace(record[0]), "title") {
			continue
		}
		if len(record) < 3 || len(record) > 4 {
			return added, skipped, fmt.Errorf("line %d: want 3 or 4 columns, got %d", line, len(record))
		}

		in := models.BookCreate{Title: record[0], Author: record[1], Genre: record[2]}
		if len(record) == 4 && strings.TrimSpace(record[3]) != "" {
			available, err := strconv.ParseBool(strings.TrimSpace(record[3]))
			if err != nil {
				return added, skipped, fmt.Errorf("line %d: available: %w", line, err)
			}
			in.Available = &available
		}

		_, err = catalog.Create(ctx, in)
		switch {
		case errors.Is(err, services.ErrConflict):
			skipped++
		case err != nil:
			return added, skipped, fmt.Errorf("line %d: %w", line, err)
		default:
			added++
		}
	}
}
