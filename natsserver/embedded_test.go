package natsserver

import (
	"testing"
	"time"

	"github.com/irisdrone/library/logger"
	"github.com/nats-io/nats.go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEmbeddedPublishSubscribe(t *testing.T) {
	ns, err := New(Config{Port: -1}, logger.Nop())
	require.NoError(t, err)
	t.Cleanup(ns.Shutdown)

	sub, err := nats.Connect(ns.Address())
	require.NoError(t, err)
	t.Cleanup(sub.Close)

	got := make(chan *nats.Msg, 1)
	_, err = sub.ChanSubscribe("library.books.*.*", got)
	require.NoError(t, err)
	require.NoError(t, sub.Flush())

	require.NoError(t, ns.Publish("library.books.7.borrowed", []byte(`{"book_id":7}`)))

	select {
	case msg := <-got:
		assert.Equal(t, "library.books.7.borrowed", msg.Subject)
		assert.JSONEq(t, `{"book_id":7}`, string(msg.Data))
	case <-time.After(5 * time.Second):
		t.Fatal("event not delivered")
	}

	stats := ns.GetStats()
	assert.Equal(t, uint64(1), stats.EventsPublished)
	assert.GreaterOrEqual(t, stats.Clients, 2)
}
