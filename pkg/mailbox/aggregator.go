// Package mailbox maintains the per-sender aggregates: one mailbox per
// distinct sender address, holding the running list of message
// summaries and the latest-activity timestamp.
package mailbox

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sync"

	"github.com/Akenaide/byemail/pkg/mailmodel"
	"github.com/Akenaide/byemail/pkg/mailstore"
)

// Aggregator applies successfully parsed messages to their sender's
// mailbox. The get-or-create-then-update sequence is a read-modify-write
// across two store calls, so updates are serialized per sender key to
// rule out lost updates between concurrent deliveries.
type Aggregator struct {
	store mailstore.Store

	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

// NewAggregator creates an aggregator over the given store.
func NewAggregator(store mailstore.Store) *Aggregator {
	return &Aggregator{
		store: store,
		locks: make(map[string]*sync.Mutex),
	}
}

// senderLock returns the mutex guarding one sender key, creating it on
// first use. Locks are never removed; the keyspace is bounded by the
// number of distinct senders seen by a capture service.
func (a *Aggregator) senderLock(from string) *sync.Mutex {
	a.mu.Lock()
	defer a.mu.Unlock()
	lock, ok := a.locks[from]
	if !ok {
		lock = &sync.Mutex{}
		a.locks[from] = lock
	}
	return lock
}

// Update locates or creates the mailbox for the message's sender, bumps
// its latest-activity timestamp and appends the message summary.
// Summaries are appended in arrival order, never re-sorted: a late
// delivery with an earlier date still lands at the end, while
// LastMessage tracks the maximum date regardless.
func (a *Aggregator) Update(ctx context.Context, msg *mailmodel.Message) error {
	if msg.From == nil || msg.From.Address == "" {
		return fmt.Errorf("message %s has no sender key", msg.ID)
	}
	from := msg.From.Address

	lock := a.senderLock(from)
	lock.Lock()
	defer lock.Unlock()

	summary := mailmodel.MessageSummary{
		ID:      msg.ID,
		Date:    msg.Date,
		Subject: msg.Subject,
	}

	mb, err := a.store.FindMailboxBySender(ctx, from)
	switch {
	case errors.Is(err, mailstore.ErrNotFound):
		id, err := mailmodel.NewID([]byte(from))
		if err != nil {
			return fmt.Errorf("failed to generate mailbox id: %w", err)
		}
		mb = &mailmodel.Mailbox{
			ID:          id,
			Type:        mailmodel.RecordTypeMailbox,
			From:        from,
			LastMessage: msg.Date,
			Messages:    []mailmodel.MessageSummary{summary},
		}
		if err := a.store.InsertMailbox(ctx, mb); err != nil {
			return fmt.Errorf("failed to create mailbox for %s: %w", from, err)
		}
		log.Printf("Created mailbox %s for sender %s", mb.ID, from)
		return nil
	case errors.Is(err, mailstore.ErrAmbiguous):
		log.Printf("ERROR: Multiple mailboxes for sender %s", from)
		return err
	case err != nil:
		return fmt.Errorf("failed to look up mailbox for %s: %w", from, err)
	}

	if mb.LastMessage.Before(msg.Date) {
		mb.LastMessage = msg.Date
	}
	mb.Messages = append(mb.Messages, summary)

	if err := a.store.UpdateMailbox(ctx, mb); err != nil {
		return fmt.Errorf("failed to update mailbox for %s: %w", from, err)
	}
	return nil
}
