package smtpserver

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Akenaide/byemail/pkg/mailbox"
	"github.com/Akenaide/byemail/pkg/mailmodel"
	"github.com/Akenaide/byemail/pkg/mailstore"
)

func newIngestor(store mailstore.Store) *Ingestor {
	return NewIngestor(store, mailbox.NewAggregator(store))
}

func TestDeliverStoresMessageAndMailbox(t *testing.T) {
	store := mailstore.NewMemoryStore()
	ingestor := newIngestor(store)
	ctx := context.Background()

	data := crlf(
		"From: Alice <a@x.com>",
		"To: Bob <b@y.com>",
		"Subject: Hi",
		"Date: Tue, 02 Jan 2024 15:04:05 +0000",
		"",
		"hello",
	)
	ingestor.Deliver(ctx, testInfo, Envelope{From: "a@x.com", Tos: []string{"b@y.com"}, Data: data})

	messages, err := store.ListMessages(ctx)
	require.NoError(t, err)
	require.Len(t, messages, 1)
	assert.Equal(t, mailmodel.StatusDelivered, messages[0].Status)
	assert.NotEmpty(t, messages[0].ID)

	mb, err := store.FindMailboxBySender(ctx, "a@x.com")
	require.NoError(t, err)
	require.Len(t, mb.Messages, 1)
	assert.Equal(t, "Hi", mb.Messages[0].Subject)
	assert.Equal(t, messages[0].ID, mb.Messages[0].ID)
}

func TestDeliverMalformedSenderRecordsFailure(t *testing.T) {
	store := mailstore.NewMemoryStore()
	ingestor := newIngestor(store)
	ctx := context.Background()

	data := crlf(
		"To: Bob <b@y.com>",
		"Subject: orphan",
		"",
		"no sender here",
	)
	ingestor.Deliver(ctx, testInfo, Envelope{From: "a@x.com", Tos: []string{"b@y.com"}, Data: data})

	messages, err := store.ListMessages(ctx)
	require.NoError(t, err)
	require.Len(t, messages, 1)

	failed := messages[0]
	assert.Equal(t, mailmodel.StatusError, failed.Status)
	assert.NotEmpty(t, failed.ID)
	assert.Equal(t, "orphan", failed.Subject)
	assert.Equal(t, "a@x.com", failed.EnvelopeFrom)
	assert.Equal(t, []string{"b@y.com"}, failed.EnvelopeTos)
	assert.True(t, failed.Date.Equal(failed.Received))

	// No mailbox mutation on the failure path.
	mailboxes, err := store.ListMailboxes(ctx)
	require.NoError(t, err)
	assert.Empty(t, mailboxes)
}

func TestDeliverEachAcceptedDeliveryGetsUniqueID(t *testing.T) {
	store := mailstore.NewMemoryStore()
	ingestor := newIngestor(store)
	ctx := context.Background()

	data := crlf(
		"From: Alice <a@x.com>",
		"Subject: same payload",
		"",
		"identical",
	)
	env := Envelope{From: "a@x.com", Tos: []string{"b@y.com"}, Data: data}
	ingestor.Deliver(ctx, testInfo, env)
	ingestor.Deliver(ctx, testInfo, env)

	messages, err := store.ListMessages(ctx)
	require.NoError(t, err)
	require.Len(t, messages, 2)
	assert.NotEqual(t, messages[0].ID, messages[1].ID)

	mb, err := store.FindMailboxBySender(ctx, "a@x.com")
	require.NoError(t, err)
	assert.Len(t, mb.Messages, 2)
}
