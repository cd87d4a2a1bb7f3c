package services

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/irisdrone/library/models"
	"github.com/rs/zerolog"
)

// EventType names a change to a book.
type EventType string

const (
	EventCreated  EventType = "created"
	EventUpdated  EventType = "updated"
	EventDeleted  EventType = "deleted"
	EventBorrowed EventType = "borrowed"
	EventReturned EventType = "returned"
)

// SubjectPrefix is the root of every catalog subject: library.books.<id>.<type>.
const SubjectPrefix = "library.books"

// BookEvent is published after a catalog or circulation change commits.
type BookEvent struct {
	Type      EventType `json:"type"`
	BookID    uint      `json:"book_id"`
	Title     string    `json:"title"`
	Available bool      `json:"available"`
	Actor     string    `json:"actor,omitempty"`
	At        time.Time `json:"at"`
}

// Subject is the bus subject the event is published on.
func (e BookEvent) Subject() string {
	return fmt.Sprintf("%s.%d.%s", SubjectPrefix, e.BookID, e.Type)
}

// BookSubject matches every event of one book, or of all books when key is "*".
func BookSubject(key string) string {
	return fmt.Sprintf("%s.%s.*", SubjectPrefix, key)
}

// EventPublisher delivers encoded events. natsserver.EmbeddedNATS implements it.
type EventPublisher interface {
	Publish(subject string, data []byte) error
}

type actorKey struct{}

// WithActor records who performs the operations made with ctx.
func WithActor(ctx context.Context, username string) context.Context {
	return context.WithValue(ctx, actorKey{}, username)
}

// ActorFrom returns the username stored by WithActor.
func ActorFrom(ctx context.Context) string {
	actor, _ := ctx.Value(actorKey{}).(string)
	return actor
}

type eventSink struct {
	publisher EventPublisher
	log       zerolog.Logger
	now       func() time.Time
}

func (s eventSink) emit(ctx context.Context, typ EventType, book models.Book) {
	if s.publisher == nil {
		return
	}
	ev := BookEvent{
		Type:      typ,
		BookID:    book.ID,
		Title:     book.Title,
		Available: book.Available,
		Actor:     ActorFrom(ctx),
		At:        s.now().UTC(),
	}
	data, err := json.Marshal(ev)
	if err != nil {
		s.log.Error().Err(err).Msg("encode book event")
		return
	}
	// The change is already committed; a lost event is logged, not returned.
	if err := s.publisher.Publish(ev.Subject(), data); err != nil {
		s.log.Warn().Err(err).Str("subject", ev.Subject()).Msg("publish book event")
	}
}
