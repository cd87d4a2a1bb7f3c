package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/irisdrone/library/models"
	"github.com/rs/zerolog"
	"gorm.io/gorm"
)

// Catalog manages book records.
type Catalog struct {
	db     *gorm.DB
	events eventSink
	log    zerolog.Logger
}

// NewCatalog returns a catalog over db. publisher may be nil.
func NewCatalog(db *gorm.DB, publisher EventPublisher, log zerolog.Logger) *Catalog {
	log = log.With().Str("component", "catalog").Logger()
	return &Catalog{
		db:     db,
		events: eventSink{publisher: publisher, log: log, now: time.Now},
		log:    log,
	}
}

// Create adds a book. A book with the same title and author is a conflict.
func (c *Catalog) Create(ctx context.Context, in models.BookCreate) (models.Book, error) {
	book := models.Book{
		Title:     strings.TrimSpace(in.Title),
		Author:    strings.TrimSpace(in.Author),
		Genre:     strings.TrimSpace(in.Genre),
		Available: true,
	}
	if in.Available != nil {
		book.Available = *in.Available
	}
	if book.Title == "" || book.Author == "" || book.Genre == "" {
		return models.Book{}, newError(ErrInvalidInput, "Title, author and genre are required")
	}

	err := c.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var count int64
		if err := tx.Model(&models.Book{}).
			Where("title = ? AND author = ?", book.Title, book.Author).
			Count(&count).Error; err != nil {
			return err
		}
		if count > 0 {
			return errDuplicateBook
		}
		if err := tx.Create(&book).Error; err != nil {
			if isUniqueViolation(err) {
				return errDuplicateBook
			}
			return err
		}
		return nil
	})
	if err != nil {
		return models.Book{}, fmt.Errorf("create book %q: %w", book.Title, err)
	}

	c.log.Info().Uint("book_id", book.ID).Str("title", book.Title).Msg("book created")
	c.events.emit(ctx, EventCreated, book)
	return book, nil
}

var errDuplicateBook = newError(ErrConflict, "Book with this title and author already exists")

// Update applies only the supplied fields.
func (c *Catalog) Update(ctx context.Context, id uint, in models.BookUpdate) (models.Book, error) {
	changes := map[string]any{}
	if in.Title != nil {
		changes["title"] = strings.TrimSpace(*in.Title)
	}
	if in.Author != nil {
		changes["author"] = strings.TrimSpace(*in.Author)
	}
	if in.Genre != nil {
		changes["genre"] = strings.TrimSpace(*in.Genre)
	}
	if in.Available != nil {
		changes["available"] = *in.Available
	}
	for _, field := range []string{"title", "author", "genre"} {
		if v, ok := changes[field]; ok && v == "" {
			return models.Book{}, newError(ErrInvalidInput, "%s must not be empty", field)
		}
	}

	var book models.Book
	err := c.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.First(&book, id).Error; err != nil {
			return notFound(err)
		}
		if len(changes) == 0 {
			return nil
		}
		if err := tx.Model(&book).Updates(changes).Error; err != nil {
			if isUniqueViolation(err) {
				return errDuplicateBook
			}
			return err
		}
		return tx.First(&book, id).Error
	})
	if err != nil {
		return models.Book{}, fmt.Errorf("update book %d: %w", id, err)
	}

	if len(changes) > 0 {
		c.log.Info().Uint("book_id", id).Interface("changes", changes).Msg("book updated")
		c.events.emit(ctx, EventUpdated, book)
	}
	return book, nil
}

// Delete removes a book.
func (c *Catalog) Delete(ctx context.Context, id uint) error {
	var book models.Book
	err := c.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.First(&book, id).Error; err != nil {
			return notFound(err)
		}
		return tx.Delete(&book).Error
	})
	if err != nil {
		return fmt.Errorf("delete book %d: %w", id, err)
	}

	c.log.Info().Uint("book_id", id).Msg("book deleted")
	c.events.emit(ctx, EventDeleted, book)
	return nil
}

// Get returns a single book.
func (c *Catalog) Get(ctx context.Context, id uint) (models.Book, error) {
	var book models.Book
	if err := c.db.WithContext(ctx).First(&book, id).Error; err != nil {
		return models.Book{}, fmt.Errorf("get book %d: %w", id, notFound(err))
	}
	return book, nil
}

// Search matches query case-insensitively against title, author or genre.
// A blank query matches nothing.
func (c *Catalog) Search(ctx context.Context, query string) ([]models.Book, error) {
	books := []models.Book{}
	query = strings.TrimSpace(query)
	if query == "" {
		return books, nil
	}

	pattern := "%" + escapeLike(strings.ToLower(query)) + "%"
	err := c.db.WithContext(ctx).
		Where(`LOWER(title) LIKE ? ESCAPE '\' OR LOWER(author) LIKE ? ESCAPE '\' OR LOWER(genre) LIKE ? ESCAPE '\'`,
			pattern, pattern, pattern).
		Order("id ASC").
		Find(&books).Error
	if err != nil {
		return nil, fmt.Errorf("search books %q: %w", query, err)
	}
	return books, nil
}

// List returns the whole catalog. An empty catalog is reported as ErrNotFound.
func (c *Catalog) List(ctx context.Context) ([]models.Book, error) {
	var books []models.Book
	if err := c.db.WithContext(ctx).Order("id ASC").Find(&books).Error; err != nil {
		return nil, fmt.Errorf("list books: %w", err)
	}
	if len(books) == 0 {
		return nil, newError(ErrNotFound, "No books found")
	}
	return books, nil
}

func notFound(err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return newError(ErrNotFound, "Book not found")
	}
	return err
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

func escapeLike(s string) string {
	return likeEscaper.Replace(s)
}
