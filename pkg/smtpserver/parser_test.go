package smtpserver

import (
	"encoding/base64"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Akenaide/byemail/pkg/mailmodel"
)

func crlf(lines ...string) []byte {
	return []byte(strings.Join(lines, "\r\n") + "\r\n")
}

var testInfo = SessionInfo{Peer: "127.0.0.1:52311", HostName: "client.local"}

func TestParseMessageSimple(t *testing.T) {
	data := crlf(
		"From: Alice <alice@example.com>",
		"To: Bob <bob@test.local>",
		"Subject: Hello",
		"Date: Tue, 02 Jan 2024 15:04:05 +0000",
		"Message-Id: <abc123@example.com>",
		"Return-Path: <alice@example.com>",
		"Content-Type: text/plain",
		"",
		"Hi Bob,",
		"how are you?",
	)
	env := Envelope{From: "alice@example.com", Tos: []string{"bob@test.local"}, Data: data}
	received := time.Now()

	msg, err := parseMessage(testInfo, env, received)
	require.NoError(t, err)

	assert.Equal(t, mailmodel.RecordTypeMail, msg.Type)
	assert.Equal(t, mailmodel.StatusDelivered, msg.Status)
	assert.NotEmpty(t, msg.ID)
	assert.Equal(t, "127.0.0.1:52311", msg.Peer)
	assert.Equal(t, "client.local", msg.HostName)
	assert.Equal(t, "alice@example.com", msg.EnvelopeFrom)
	assert.Equal(t, []string{"bob@test.local"}, msg.EnvelopeTos)

	require.NotNil(t, msg.From)
	assert.Equal(t, "Alice", msg.From.Name)
	assert.Equal(t, "alice@example.com", msg.From.Address)
	require.Len(t, msg.Tos, 1)
	assert.Equal(t, "bob@test.local", msg.Tos[0].Address)

	assert.Equal(t, "Hello", msg.Subject)
	assert.Equal(t, "<abc123@example.com>", msg.MessageID)
	assert.Equal(t, "<alice@example.com>", msg.ReturnPath)
	assert.True(t, msg.Date.Equal(time.Date(2024, 1, 2, 15, 4, 5, 0, time.UTC)))
	assert.True(t, msg.Received.Equal(received))

	assert.Equal(t, "text/plain", msg.MainBodyType)
	assert.Empty(t, msg.Attachments)
	assert.False(t, msg.InThread)

	raw, err := base64.StdEncoding.DecodeString(msg.Data)
	require.NoError(t, err)
	assert.Equal(t, data, raw)
}

func TestParseMessageMultipartWithAttachments(t *testing.T) {
	data := crlf(
		"From: Alice <alice@example.com>",
		"To: Bob <bob@test.local>",
		"Subject: Report attached",
		"Date: Tue, 02 Jan 2024 15:04:05 +0000",
		"Content-Type: multipart/mixed; boundary=\"frontier\"",
		"",
		"--frontier",
		"Content-Type: text/html",
		"",
		"<p>See attached.</p>",
		"--frontier",
		"Content-Type: application/pdf",
		"Content-Disposition: attachment; filename=\"report.pdf\"",
		"",
		"%PDF-1.4 fake",
		"--frontier",
		"Content-Type: application/octet-stream",
		"Content-Disposition: attachment",
		"",
		"blob",
		"--frontier--",
	)
	env := Envelope{From: "alice@example.com", Tos: []string{"bob@test.local"}, Data: data}

	msg, err := parseMessage(testInfo, env, time.Now())
	require.NoError(t, err)

	assert.Equal(t, "text/html", msg.MainBodyType)
	require.Len(t, msg.Attachments, 2)
	assert.Equal(t, "application/pdf", msg.Attachments[0].ContentType)
	assert.Equal(t, "report.pdf", msg.Attachments[0].Filename)
	// A declared attachment without a filename is kept, with the
	// filename left empty.
	assert.Equal(t, "application/octet-stream", msg.Attachments[1].ContentType)
	assert.Equal(t, "", msg.Attachments[1].Filename)
}

func TestParseMessageMissingFromFails(t *testing.T) {
	data := crlf(
		"To: Bob <bob@test.local>",
		"Subject: No sender",
		"",
		"orphan body",
	)
	env := Envelope{From: "alice@example.com", Tos: []string{"bob@test.local"}, Data: data}

	_, err := parseMessage(testInfo, env, time.Now())
	assert.ErrorIs(t, err, ErrParseFailure)
}

func TestParseMessageMissingHeadersAreAbsent(t *testing.T) {
	received := time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC)
	data := crlf(
		"From: alice@example.com",
		"",
		"bare minimum",
	)
	env := Envelope{From: "alice@example.com", Tos: []string{"bob@test.local"}, Data: data}

	msg, err := parseMessage(testInfo, env, received)
	require.NoError(t, err)

	assert.Empty(t, msg.Subject)
	assert.Empty(t, msg.MessageID)
	assert.Empty(t, msg.ReturnPath)
	assert.Empty(t, msg.Tos)
	// No Date header: fall back to the reception time.
	assert.True(t, msg.Date.Equal(received))
	assert.Equal(t, "text/plain", msg.MainBodyType)
}

func TestParseMessageReturnPathFallsBackToReplyTo(t *testing.T) {
	data := crlf(
		"From: alice@example.com",
		"Reply-To: replies@example.com",
		"",
		"body",
	)
	env := Envelope{From: "alice@example.com", Tos: []string{"bob@test.local"}, Data: data}

	msg, err := parseMessage(testInfo, env, time.Now())
	require.NoError(t, err)
	assert.Equal(t, "replies@example.com", msg.ReturnPath)
}

func TestParseMessageThreadHeaders(t *testing.T) {
	data := crlf(
		"From: alice@example.com",
		"Subject: RE: planning",
		"Thread-Topic: planning",
		"Thread-Index: AdJ3mwXyZ",
		"",
		"body",
	)
	env := Envelope{From: "alice@example.com", Tos: []string{"bob@test.local"}, Data: data}

	msg, err := parseMessage(testInfo, env, time.Now())
	require.NoError(t, err)
	assert.True(t, msg.InThread)
	assert.Equal(t, "planning", msg.ThreadTopic)
	assert.Equal(t, "AdJ3mwXyZ", msg.ThreadIndex)
}

func TestBestEffortSubject(t *testing.T) {
	data := crlf(
		"Subject: still readable",
		"",
		"body",
	)
	assert.Equal(t, "still readable", bestEffortSubject(data))
	assert.Equal(t, "", bestEffortSubject([]byte("not a message at all")))
}
