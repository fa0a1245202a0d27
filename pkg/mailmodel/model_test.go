package mailmodel

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewIDUnique(t *testing.T) {
	payload := []byte("From: a@x.com\r\n\r\nhello\r\n")

	seen := map[string]bool{}
	for i := 0; i < 100; i++ {
		id, err := NewID(payload)
		require.NoError(t, err)
		assert.Len(t, id, 48) // Blake2b-192 hex
		assert.False(t, seen[id], "duplicate id %s", id)
		seen[id] = true
	}
}

func TestEncodeTimeISO8601(t *testing.T) {
	loc := time.FixedZone("CET", 3600)
	ts := time.Date(2024, 1, 2, 16, 4, 5, 0, loc)

	encoded := EncodeTime(ts)
	assert.Equal(t, "2024-01-02T15:04:05Z", encoded)

	decoded, err := DecodeTime(encoded)
	require.NoError(t, err)
	assert.True(t, decoded.Equal(ts))
}

func TestNewMailboxView(t *testing.T) {
	mb := &Mailbox{
		ID:          "box1",
		Type:        RecordTypeMailbox,
		From:        "a@x.com",
		LastMessage: time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC),
		Messages: []MessageSummary{
			{ID: "m1", Date: time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC), Subject: "Hi"},
			{ID: "m2", Date: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC), Subject: "Earlier"},
		},
	}

	view := NewMailboxView(mb)
	assert.Equal(t, "a@x.com", view.From)
	assert.Equal(t, "2024-01-02T00:00:00Z", view.LastMessage)
	require.Len(t, view.Messages, 2)
	assert.Equal(t, "m1", view.Messages[0].ID)
	assert.Equal(t, "2024-01-01T00:00:00Z", view.Messages[1].Date)
}

func TestNewMessageView(t *testing.T) {
	msg := &Message{
		ID:           "m1",
		Type:         RecordTypeMail,
		Status:       StatusDelivered,
		EnvelopeFrom: "a@x.com",
		EnvelopeTos:  []string{"b@y.com"},
		From:         &Address{Name: "Alice", Address: "a@x.com"},
		Subject:      "Hi",
		Date:         time.Date(2024, 1, 2, 15, 4, 5, 0, time.UTC),
		Received:     time.Date(2024, 1, 2, 15, 4, 6, 0, time.UTC),
	}

	view := NewMessageView(msg)
	assert.Equal(t, "2024-01-02T15:04:05Z", view.Date)
	assert.Equal(t, "2024-01-02T15:04:06Z", view.Received)
	assert.Equal(t, StatusDelivered, view.Status)
	require.NotNil(t, view.From)
	assert.Equal(t, "a@x.com", view.From.Address)
}
