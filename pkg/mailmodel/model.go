package mailmodel

import (
	"encoding/hex"
	"fmt"
	"time"

	"golang.org/x/crypto/blake2b"
)

// Record type discriminators for the persisted collection.
const (
	RecordTypeMail    = "mail"
	RecordTypeMailbox = "mailbox"
)

// Message delivery statuses.
const (
	StatusDelivered = "delivered"
	StatusError     = "error"
)

// Address is a parsed header mailbox: display name plus addr-spec.
type Address struct {
	Name    string `json:"name,omitempty"`
	Address string `json:"address"`
}

// Attachment describes one declared attachment part of a message.
// Filename may be empty when the part carries no filename parameter.
type Attachment struct {
	ContentType string `json:"content_type"`
	Filename    string `json:"filename"`
}

// Message is a captured SMTP delivery. Messages are immutable once
// stored; failed deliveries are stored with StatusError and a reduced
// field set, but still get an ID so they stay addressable.
type Message struct {
	ID     string `json:"id"`
	Type   string `json:"type"`
	Status string `json:"status"`

	// Transport-level session metadata.
	Peer     string `json:"peer,omitempty"`
	HostName string `json:"host_name,omitempty"`

	// SMTP envelope addresses, as declared on the wire. These may
	// differ from the header addresses below.
	EnvelopeFrom string   `json:"envelope_from"`
	EnvelopeTos  []string `json:"envelope_tos"`

	// Parsed header fields. From is the one load-bearing header:
	// a message without a usable sender is stored on the error path.
	From            *Address  `json:"from,omitempty"`
	Tos             []Address `json:"tos,omitempty"`
	Subject         string    `json:"subject,omitempty"`
	MessageID       string    `json:"message_id,omitempty"`
	ReturnPath      string    `json:"return_path,omitempty"`
	OriginalTo      string    `json:"original_to,omitempty"`
	DeliveredTo     string    `json:"delivered_to,omitempty"`
	DKIMSignature   string    `json:"dkim_signature,omitempty"`
	DomainSignature string    `json:"domain_signature,omitempty"`

	Date     time.Time `json:"date"`
	Received time.Time `json:"received"`

	// Data is the full original payload, base64 encoded.
	Data string `json:"data"`

	MainBodyType string       `json:"main_body_type,omitempty"`
	Attachments  []Attachment `json:"attachments"`

	InThread    bool   `json:"in_thread"`
	ThreadTopic string `json:"thread_topic,omitempty"`
	ThreadIndex string `json:"thread_index,omitempty"`
}

// MessageSummary is the per-mailbox digest of one message.
type MessageSummary struct {
	ID      string    `json:"id"`
	Date    time.Time `json:"date"`
	Subject string    `json:"subject"`
}

// Mailbox aggregates all captured messages from one sender address.
// From is the aggregate key: exactly one mailbox exists per distinct
// sender. Messages is append-only in arrival order, which is not
// necessarily date order; LastMessage tracks the maximum message date
// regardless of arrival order.
type Mailbox struct {
	ID          string           `json:"id"`
	Type        string           `json:"type"`
	From        string           `json:"from"`
	LastMessage time.Time        `json:"last_message"`
	Messages    []MessageSummary `json:"messages"`
}

// NewID returns a unique opaque identifier derived from a Blake2b-192
// hash of the payload. The current nanosecond timestamp is mixed in so
// identical payloads still get distinct IDs.
func NewID(payload []byte) (string, error) {
	hash, err := blake2b.New(24, nil)
	if err != nil {
		return "", fmt.Errorf("failed to create Blake2b hash: %w", err)
	}
	if _, err := hash.Write(payload); err != nil {
		return "", fmt.Errorf("failed to write to hash: %w", err)
	}
	if _, err := fmt.Fprintf(hash, ":%d", time.Now().UnixNano()); err != nil {
		return "", fmt.Errorf("failed to write to hash: %w", err)
	}
	return hex.EncodeToString(hash.Sum(nil)), nil
}
