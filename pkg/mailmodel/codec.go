package mailmodel

import "time"

// EncodeTime serializes a timestamp to its ISO-8601 wire form. API
// consumers always receive text timestamps, never a native type.
func EncodeTime(t time.Time) string {
	return t.UTC().Format(time.RFC3339)
}

// DecodeTime parses the ISO-8601 wire form back into a timestamp.
func DecodeTime(s string) (time.Time, error) {
	return time.Parse(time.RFC3339, s)
}

// SummaryView is the wire form of a MessageSummary.
type SummaryView struct {
	ID      string `json:"id"`
	Date    string `json:"date"`
	Subject string `json:"subject"`
}

// MailboxView is the wire form of a Mailbox.
type MailboxView struct {
	ID          string        `json:"id"`
	Type        string        `json:"type"`
	From        string        `json:"from"`
	LastMessage string        `json:"last_message"`
	Messages    []SummaryView `json:"messages"`
}

// MessageView is the wire form of a Message.
type MessageView struct {
	ID     string `json:"id"`
	Type   string `json:"type"`
	Status string `json:"status"`

	Peer     string `json:"peer,omitempty"`
	HostName string `json:"host_name,omitempty"`

	EnvelopeFrom string   `json:"envelope_from"`
	EnvelopeTos  []string `json:"envelope_tos"`

	From            *Address  `json:"from,omitempty"`
	Tos             []Address `json:"tos,omitempty"`
	Subject         string    `json:"subject,omitempty"`
	MessageID       string    `json:"message_id,omitempty"`
	ReturnPath      string    `json:"return_path,omitempty"`
	OriginalTo      string    `json:"original_to,omitempty"`
	DeliveredTo     string    `json:"delivered_to,omitempty"`
	DKIMSignature   string    `json:"dkim_signature,omitempty"`
	DomainSignature string    `json:"domain_signature,omitempty"`

	Date     string `json:"date"`
	Received string `json:"received"`

	Data string `json:"data"`

	MainBodyType string       `json:"main_body_type,omitempty"`
	Attachments  []Attachment `json:"attachments"`

	InThread    bool   `json:"in_thread"`
	ThreadTopic string `json:"thread_topic,omitempty"`
	ThreadIndex string `json:"thread_index,omitempty"`
}

// NewMailboxView converts a stored mailbox to its wire form.
func NewMailboxView(mb *Mailbox) MailboxView {
	summaries := make([]SummaryView, 0, len(mb.Messages))
	for _, s := range mb.Messages {
		summaries = append(summaries, SummaryView{
			ID:      s.ID,
			Date:    EncodeTime(s.Date),
			Subject: s.Subject,
		})
	}
	return MailboxView{
		ID:          mb.ID,
		Type:        mb.Type,
		From:        mb.From,
		LastMessage: EncodeTime(mb.LastMessage),
		Messages:    summaries,
	}
}

// NewMessageView converts a stored message to its wire form.
func NewMessageView(msg *Message) MessageView {
	return MessageView{
		ID:              msg.ID,
		Type:            msg.Type,
		Status:          msg.Status,
		Peer:            msg.Peer,
		HostName:        msg.HostName,
		EnvelopeFrom:    msg.EnvelopeFrom,
		EnvelopeTos:     msg.EnvelopeTos,
		From:            msg.From,
		Tos:             msg.Tos,
		Subject:         msg.Subject,
		MessageID:       msg.MessageID,
		ReturnPath:      msg.ReturnPath,
		OriginalTo:      msg.OriginalTo,
		DeliveredTo:     msg.DeliveredTo,
		DKIMSignature:   msg.DKIMSignature,
		DomainSignature: msg.DomainSignature,
		Date:            EncodeTime(msg.Date),
		Received:        EncodeTime(msg.Received),
		Data:            msg.Data,
		MainBodyType:    msg.MainBodyType,
		Attachments:     msg.Attachments,
		InThread:        msg.InThread,
		ThreadTopic:     msg.ThreadTopic,
		ThreadIndex:     msg.ThreadIndex,
	}
}
