package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/irisdrone/library/models"
	"github.com/rs/zerolog"
	"gorm.io/gorm"
)

// Operation is a circulation transition.
type Operation string

const (
	OpBorrow Operation = "borrow"
	OpReturn Operation = "return"
)

// Outcome labels for Recorder.
const (
	OutcomeOK           = "ok"
	OutcomeNotFound     = "not_found"
	OutcomeInvalidState = "invalid_state"
	OutcomeError        = "error"
)

// Recorder observes circulation outcomes. metrics.Metrics implements it.
type Recorder interface {
	RecordCirculation(op Operation, outcome string)
}

// transition describes one edge of the two-state availability machine.
type transition struct {
	from, to bool
	event    EventType
	invalid  error
}

var transitions = map[Operation]transition{
	OpBorrow: {from: true, to: false, event: EventBorrowed, invalid: newError(ErrInvalidState, "Book is not available")},
	OpReturn: {from: false, to: true, event: EventReturned, invalid: newError(ErrInvalidState, "Book is not borrowed")},
}

// Circulation flips a book's availability flag. It records nothing about the
// borrower: any authenticated user may return any borrowed book.
type Circulation struct {
	db       *gorm.DB
	events   eventSink
	recorder Recorder
	log      zerolog.Logger
}

// NewCirculation returns the workflow over db. publisher and recorder may be nil.
func NewCirculation(db *gorm.DB, publisher EventPublisher, recorder Recorder, log zerolog.Logger) *Circulation {
	log = log.With().Str("component", "circulation").Logger()
	return &Circulation{
		db:       db,
		events:   eventSink{publisher: publisher, log: log, now: time.Now},
		recorder: recorder,
		log:      log,
	}
}

// Borrow marks an available book as loaned out.
func (c *Circulation) Borrow(ctx context.Context, bookID uint) (models.Book, error) {
	return c.apply(ctx, OpBorrow, bookID)
}

// Return marks a borrowed book as back on the shelf.
func (c *Circulation) Return(ctx context.Context, bookID uint) (models.Book, error) {
	return c.apply(ctx, OpReturn, bookID)
}

func (c *Circulation) apply(ctx context.Context, op Operation, bookID uint) (models.Book, error) {
	t := transitions[op]

	var book models.Book
	err := c.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		// The WHERE on the current flag makes the check and the write one
		// statement, so two concurrent borrows cannot both succeed.
		res := tx.Model(&models.Book{}).
			Where("id = ? AND available = ?", bookID, t.from).
			Update("available", t.to)
		if res.Error != nil {
			return res.Error
		}
		if err := tx.First(&book, bookID).Error; err != nil {
			return notFound(err)
		}
		if res.RowsAffected == 0 {
			return t.invalid
		}
		return nil
	})

	c.record(op, err)
	if err != nil {
		c.log.Debug().Err(err).Str("op", string(op)).Uint("book_id", bookID).Msg("transition rejected")
		return models.Book{}, fmt.Errorf("%s book %d: %w", op, bookID, err)
	}

	c.log.Info().
		Str("op", string(op)).
		Uint("book_id", book.ID).
		Str("actor", ActorFrom(ctx)).
		Msg("circulation")
	c.events.emit(ctx, t.event, book)
	return book, nil
}

func (c *Circulation) record(op Operation, err error) {
	if c.recorder == nil {
		return
	}
	outcome := OutcomeOK
	switch {
	case err == nil:
	case errors.Is(err, ErrNotFound):
		outcome = OutcomeNotFound
	case errors.Is(err, ErrInvalidState):
		outcome = OutcomeInvalidState
	default:
		outcome = OutcomeError
	}
	c.recorder.RecordCirculation(op, outcome)
}
