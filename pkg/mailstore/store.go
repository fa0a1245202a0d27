// Package mailstore persists captured messages and per-sender mailbox
// aggregates as a single collection of JSON documents distinguished by
// a type discriminator.
package mailstore

import (
	"context"
	"errors"

	"github.com/Akenaide/byemail/pkg/mailmodel"
)

var (
	// ErrNotFound is returned when a uniqueness-constrained lookup
	// matched zero records.
	ErrNotFound = errors.New("mailstore: record not found")

	// ErrAmbiguous is returned when a uniqueness-constrained lookup
	// matched more than one record. This indicates corrupted state and
	// must never be resolved by silently picking one.
	ErrAmbiguous = errors.New("mailstore: lookup matched multiple records")
)

// Store is the persistence handle shared by the ingestion and query
// sides. Implementations must support concurrent readers and safe
// concurrent writers to distinct keys; callers writing to the same
// mailbox serialize per sender key above this layer.
type Store interface {
	InsertMessage(ctx context.Context, msg *mailmodel.Message) error
	GetMessage(ctx context.Context, id string) (*mailmodel.Message, error)
	ListMessages(ctx context.Context) ([]*mailmodel.Message, error)

	InsertMailbox(ctx context.Context, mb *mailmodel.Mailbox) error
	// UpdateMailbox replaces the whole stored record keyed by its ID.
	UpdateMailbox(ctx context.Context, mb *mailmodel.Mailbox) error
	GetMailbox(ctx context.Context, id string) (*mailmodel.Mailbox, error)
	// FindMailboxBySender looks the aggregate up by its sender key,
	// with cardinality checks: ErrNotFound for zero matches,
	// ErrAmbiguous for more than one.
	FindMailboxBySender(ctx context.Context, from string) (*mailmodel.Mailbox, error)
	ListMailboxes(ctx context.Context) ([]*mailmodel.Mailbox, error)

	Ping(ctx context.Context) error
	Close() error
}
