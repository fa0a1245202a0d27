package smtpserver

import (
	"bytes"
	"encoding/base64"
	"errors"
	"fmt"
	"io"
	"log"
	netmail "net/mail"
	"time"

	"github.com/emersion/go-message"
	_ "github.com/emersion/go-message/charset"
	"github.com/emersion/go-message/mail"

	"github.com/Akenaide/byemail/pkg/mailmodel"
)

// ErrParseFailure marks a payload that could not be reduced to a valid
// message, which in practice means no usable sender address. Every
// other header degrades gracefully to an absent field.
var ErrParseFailure = errors.New("smtpserver: message not parseable")

// SessionInfo carries the transport-level metadata of one delivery.
type SessionInfo struct {
	Peer     string
	HostName string
}

// Envelope is the raw SMTP delivery handed over by the transport.
type Envelope struct {
	From string
	Tos  []string
	Data []byte
}

// parseMessage extracts as much metadata as possible from the raw
// payload. Parsing is permissive: unknown charsets and malformed part
// structure never abort the whole parse. The one hard requirement is a
// From header with at least one address, because downstream aggregation
// is keyed by sender.
func parseMessage(info SessionInfo, env Envelope, received time.Time) (*mailmodel.Message, error) {
	mr, err := mail.CreateReader(bytes.NewReader(env.Data))
	if mr == nil {
		return nil, fmt.Errorf("%w: %v", ErrParseFailure, err)
	}
	if err != nil && !message.IsUnknownCharset(err) {
		log.Printf("Tolerating header issue while parsing message: %v", err)
	}

	header := mr.Header

	froms, err := header.AddressList("From")
	if err != nil || len(froms) == 0 {
		return nil, fmt.Errorf("%w: missing or invalid From header", ErrParseFailure)
	}
	from := &mailmodel.Address{Name: froms[0].Name, Address: froms[0].Address}

	var tos []mailmodel.Address
	if list, err := header.AddressList("To"); err == nil {
		for _, addr := range list {
			tos = append(tos, mailmodel.Address{Name: addr.Name, Address: addr.Address})
		}
	}

	subject, _ := header.Subject()

	// A missing or unparsable Date header falls back to the reception
	// time so the aggregate timestamps stay usable.
	date, err := header.Date()
	if err != nil || date.IsZero() {
		date = received
	}

	returnPath := header.Get("Return-Path")
	if returnPath == "" {
		returnPath = header.Get("Reply-To")
	}

	id, err := mailmodel.NewID(env.Data)
	if err != nil {
		return nil, fmt.Errorf("failed to generate message id: %w", err)
	}

	msg := &mailmodel.Message{
		ID:              id,
		Type:            mailmodel.RecordTypeMail,
		Status:          mailmodel.StatusDelivered,
		Peer:            info.Peer,
		HostName:        info.HostName,
		EnvelopeFrom:    env.From,
		EnvelopeTos:     env.Tos,
		From:            from,
		Tos:             tos,
		Subject:         subject,
		MessageID:       header.Get("Message-Id"),
		ReturnPath:      returnPath,
		OriginalTo:      header.Get("X-Original-To"),
		DeliveredTo:     header.Get("Delivered-To"),
		DKIMSignature:   header.Get("Dkim-Signature"),
		DomainSignature: header.Get("Domainkey-Signature"),
		Date:            date,
		Received:        received,
		Data:            base64.StdEncoding.EncodeToString(env.Data),
		Attachments:     []mailmodel.Attachment{},
	}

	if topic := header.Get("Thread-Topic"); topic != "" {
		msg.InThread = true
		msg.ThreadTopic = topic
		msg.ThreadIndex = header.Get("Thread-Index")
	}

	walkParts(mr, msg)

	if msg.MainBodyType == "" {
		msg.MainBodyType = "text/plain"
	}

	return msg, nil
}

// walkParts records the primary body content type and the declared
// attachments. Part-level errors end the walk without failing the
// parse; whatever was collected so far stands.
func walkParts(mr *mail.Reader, msg *mailmodel.Message) {
	for {
		part, err := mr.NextPart()
		if err == io.EOF {
			return
		}
		if err != nil && !message.IsUnknownCharset(err) {
			log.Printf("Stopping part walk on malformed structure: %v", err)
			return
		}
		if part == nil {
			return
		}

		switch h := part.Header.(type) {
		case *mail.InlineHeader:
			if msg.MainBodyType == "" {
				if contentType, _, err := h.ContentType(); err == nil {
					msg.MainBodyType = contentType
				}
			}
		case *mail.AttachmentHeader:
			contentType, _, err := h.ContentType()
			if err != nil {
				contentType = "application/octet-stream"
			}
			// A missing filename is stored as empty, never fatal.
			filename, _ := h.Filename()
			msg.Attachments = append(msg.Attachments, mailmodel.Attachment{
				ContentType: contentType,
				Filename:    filename,
			})
		}
	}
}

// bestEffortSubject fishes the Subject out of a payload that already
// failed full parsing, so failed records keep a usable label.
func bestEffortSubject(data []byte) string {
	msg, err := netmail.ReadMessage(bytes.NewReader(data))
	if err != nil {
		return ""
	}
	return msg.Header.Get("Subject")
}
