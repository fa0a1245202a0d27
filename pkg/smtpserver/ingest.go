package smtpserver

import (
	"context"
	"encoding/base64"
	"log"
	"time"

	"github.com/Akenaide/byemail/pkg/mailbox"
	"github.com/Akenaide/byemail/pkg/mailmodel"
	"github.com/Akenaide/byemail/pkg/mailstore"
)

// Ingestor runs the capture pipeline for one accepted delivery: parse,
// persist, aggregate. The transport layer never sees pipeline-internal
// errors; a delivery that fails to parse is persisted through the
// failure path instead, and a persistence failure is fatal to that
// single delivery only.
type Ingestor struct {
	store      mailstore.Store
	aggregator *mailbox.Aggregator
}

// NewIngestor creates the ingestion pipeline over the given store.
func NewIngestor(store mailstore.Store, aggregator *mailbox.Aggregator) *Ingestor {
	return &Ingestor{store: store, aggregator: aggregator}
}

// Deliver processes one accepted delivery to completion. It returns
// only after a persistence attempt has finished, on the delivered or
// the error path, so the transport acknowledgment always waits for
// persistence.
func (in *Ingestor) Deliver(ctx context.Context, info SessionInfo, env Envelope) {
	received := time.Now()

	msg, err := parseMessage(info, env, received)
	if err != nil {
		log.Printf("Failed to parse message from %s: %v", env.From, err)
		in.recordFailure(ctx, info, env, received)
		return
	}

	if err := in.store.InsertMessage(ctx, msg); err != nil {
		log.Printf("ERROR: Failed to store message %s from %s: %v", msg.ID, env.From, err)
		return
	}

	if err := in.aggregator.Update(ctx, msg); err != nil {
		log.Printf("ERROR: Failed to update mailbox for %s: %v", msg.From.Address, err)
		return
	}

	log.Printf("Stored message %s from %s", msg.ID, msg.From.Address)
}

// recordFailure persists a reduced record so no delivery is silently
// lost. No mailbox aggregation happens here: there is no reliable
// sender key. Failed records still get an ID so they are individually
// addressable through the read API.
func (in *Ingestor) recordFailure(ctx context.Context, info SessionInfo, env Envelope, received time.Time) {
	id, err := mailmodel.NewID(env.Data)
	if err != nil {
		log.Printf("ERROR: Failed to generate id for failed message from %s: %v", env.From, err)
		return
	}

	msg := &mailmodel.Message{
		ID:           id,
		Type:         mailmodel.RecordTypeMail,
		Status:       mailmodel.StatusError,
		Peer:         info.Peer,
		HostName:     info.HostName,
		EnvelopeFrom: env.From,
		EnvelopeTos:  env.Tos,
		Subject:      bestEffortSubject(env.Data),
		Date:         received,
		Received:     received,
		Data:         base64.StdEncoding.EncodeToString(env.Data),
		Attachments:  []mailmodel.Attachment{},
	}

	if err := in.store.InsertMessage(ctx, msg); err != nil {
		log.Printf("ERROR: Failed to store failed message %s from %s: %v", id, env.From, err)
		return
	}

	log.Printf("Stored failed message %s from %s", id, env.From)
}
