package mailstore

import (
	"context"
	"sync"

	"github.com/Akenaide/byemail/pkg/mailmodel"
)

// MemoryStore keeps all records in process memory. It backs tests and
// the --memory development mode; nothing survives a restart. Records
// are copied on the way in and out so callers never share state with
// the store, matching the serialization boundary of the Redis store.
type MemoryStore struct {
	mu        sync.RWMutex
	messages  map[string]*mailmodel.Message
	mailboxes map[string]*mailmodel.Mailbox
}

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		messages:  make(map[string]*mailmodel.Message),
		mailboxes: make(map[string]*mailmodel.Mailbox),
	}
}

func copyMessage(msg *mailmodel.Message) *mailmodel.Message {
	dup := *msg
	if msg.From != nil {
		from := *msg.From
		dup.From = &from
	}
	dup.EnvelopeTos = append([]string(nil), msg.EnvelopeTos...)
	dup.Tos = append([]mailmodel.Address(nil), msg.Tos...)
	dup.Attachments = append([]mailmodel.Attachment(nil), msg.Attachments...)
	return &dup
}

func copyMailbox(mb *mailmodel.Mailbox) *mailmodel.Mailbox {
	dup := *mb
	dup.Messages = append([]mailmodel.MessageSummary(nil), mb.Messages...)
	return &dup
}

// InsertMessage stores a captured message.
func (s *MemoryStore) InsertMessage(ctx context.Context, msg *mailmodel.Message) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.messages[msg.ID] = copyMessage(msg)
	return nil
}

// GetMessage loads one message by ID.
func (s *MemoryStore) GetMessage(ctx context.Context, id string) (*mailmodel.Message, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	msg, ok := s.messages[id]
	if !ok {
		return nil, ErrNotFound
	}
	return copyMessage(msg), nil
}

// ListMessages loads all stored messages.
func (s *MemoryStore) ListMessages(ctx context.Context) ([]*mailmodel.Message, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	messages := make([]*mailmodel.Message, 0, len(s.messages))
	for _, msg := range s.messages {
		messages = append(messages, copyMessage(msg))
	}
	return messages, nil
}

// InsertMailbox stores a new mailbox aggregate.
func (s *MemoryStore) InsertMailbox(ctx context.Context, mb *mailmodel.Mailbox) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.mailboxes[mb.ID] = copyMailbox(mb)
	return nil
}

// UpdateMailbox replaces the stored aggregate keyed by its ID.
func (s *MemoryStore) UpdateMailbox(ctx context.Context, mb *mailmodel.Mailbox) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.mailboxes[mb.ID] = copyMailbox(mb)
	return nil
}

// GetMailbox loads one mailbox by ID.
func (s *MemoryStore) GetMailbox(ctx context.Context, id string) (*mailmodel.Mailbox, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	mb, ok := s.mailboxes[id]
	if !ok {
		return nil, ErrNotFound
	}
	return copyMailbox(mb), nil
}

// FindMailboxBySender looks a mailbox up by its sender key with
// cardinality checks.
func (s *MemoryStore) FindMailboxBySender(ctx context.Context, from string) (*mailmodel.Mailbox, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var found *mailmodel.Mailbox
	for _, mb := range s.mailboxes {
		if mb.From != from {
			continue
		}
		if found != nil {
			return nil, ErrAmbiguous
		}
		found = mb
	}
	if found == nil {
		return nil, ErrNotFound
	}
	return copyMailbox(found), nil
}

// ListMailboxes loads all mailbox aggregates.
func (s *MemoryStore) ListMailboxes(ctx context.Context) ([]*mailmodel.Mailbox, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	mailboxes := make([]*mailmodel.Mailbox, 0, len(s.mailboxes))
	for _, mb := range s.mailboxes {
		mailboxes = append(mailboxes, copyMailbox(mb))
	}
	return mailboxes, nil
}

// Ping always succeeds for the in-memory store.
func (s *MemoryStore) Ping(ctx context.Context) error {
	return nil
}

// Close is a no-op for the in-memory store.
func (s *MemoryStore) Close() error {
	return nil
}
