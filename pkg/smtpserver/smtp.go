// Package smtpserver accepts SMTP deliveries for the configured
// domains and feeds them into the capture pipeline.
package smtpserver

import (
	"fmt"
	"io"
	"log"
	"time"

	"github.com/emersion/go-smtp"
	"golang.org/x/net/context"
)

// Config holds the configuration for the SMTP server
type Config struct {
	Host              string
	Port              int
	Domain            string
	AllowInsecureAuth bool
	ReadTimeout       time.Duration
	WriteTimeout      time.Duration
	MaxMessageBytes   int
	MaxRecipients     int
}

// DefaultConfig returns the default configuration for the SMTP server
func DefaultConfig() Config {
	return Config{
		Host:              "0.0.0.0",
		Port:              8025,
		Domain:            "localhost",
		AllowInsecureAuth: true,
		ReadTimeout:       10 * time.Second,
		WriteTimeout:      10 * time.Second,
		MaxMessageBytes:   10 * 1024 * 1024, // 10 MB
		MaxRecipients:     50,
	}
}

// Server represents the SMTP server
type Server struct {
	config     Config
	smtpServer *smtp.Server
}

// Backend implements the SMTP server backend
type Backend struct {
	filter   *Filter
	ingestor *Ingestor
}

// Session represents an SMTP session
type Session struct {
	conn     *smtp.Conn
	from     string
	to       []string
	filter   *Filter
	ingestor *Ingestor
}

// NewServer creates a new SMTP server over the given filter and
// ingestion pipeline.
func NewServer(config Config, filter *Filter, ingestor *Ingestor) *Server {
	log.Printf("Creating new SMTP server with config: host=%s, port=%d, domain=%s",
		config.Host, config.Port, config.Domain)

	be := &Backend{
		filter:   filter,
		ingestor: ingestor,
	}

	smtpServer := smtp.NewServer(be)
	smtpServer.Addr = fmt.Sprintf("%s:%d", config.Host, config.Port)
	smtpServer.Domain = config.Domain
	smtpServer.ReadTimeout = config.ReadTimeout
	smtpServer.WriteTimeout = config.WriteTimeout
	smtpServer.MaxMessageBytes = int64(config.MaxMessageBytes)
	smtpServer.MaxRecipients = config.MaxRecipients
	smtpServer.AllowInsecureAuth = config.AllowInsecureAuth

	return &Server{
		config:     config,
		smtpServer: smtpServer,
	}
}

// Start starts the SMTP server
func (s *Server) Start() error {
	log.Printf("Starting SMTP server at %s with domain %s", s.smtpServer.Addr, s.smtpServer.Domain)
	err := s.smtpServer.ListenAndServe()
	if err != nil {
		log.Printf("ERROR: SMTP server failed to start: %v", err)
	}
	return err
}

// Stop stops the SMTP server
func (s *Server) Stop() error {
	log.Printf("Stopping SMTP server at %s", s.smtpServer.Addr)
	err := s.smtpServer.Close()
	if err != nil {
		log.Printf("ERROR: Failed to stop SMTP server: %v", err)
	}
	return err
}

// NewSession creates a new SMTP session
func (b *Backend) NewSession(c *smtp.Conn) (smtp.Session, error) {
	log.Printf("New SMTP session from %s", c.Conn().RemoteAddr())
	return &Session{
		conn:     c,
		filter:   b.filter,
		ingestor: b.ingestor,
	}, nil
}

// Mail handles the MAIL FROM command
func (s *Session) Mail(from string, opts *smtp.MailOptions) error {
	log.Printf("MAIL FROM: %s", from)
	s.from = from
	return nil
}

// Rcpt handles the RCPT TO command. Each recipient is admitted or
// rejected independently, so one envelope can end up partially
// accepted.
func (s *Session) Rcpt(to string, opts *smtp.RcptOptions) error {
	if !s.filter.Allow(to) {
		log.Printf("RCPT TO: %s rejected", to)
		return &smtp.SMTPError{
			Code:         550,
			EnhancedCode: smtp.EnhancedCode{5, 7, 1},
			Message:      "not relaying to that domain",
		}
	}
	log.Printf("RCPT TO: %s", to)
	s.to = append(s.to, to)
	return nil
}

// Data handles the DATA command. The delivery is acknowledged to the
// client only after the pipeline has finished a persistence attempt,
// and the client never sees pipeline-internal errors.
func (s *Session) Data(r io.Reader) error {
	log.Printf("DATA command received from %s to %v", s.from, s.to)

	data, err := io.ReadAll(r)
	if err != nil {
		log.Printf("ERROR: Failed to read email data: %v", err)
		return err
	}
	log.Printf("Received %d bytes of email data", len(data))

	info := SessionInfo{
		Peer:     s.conn.Conn().RemoteAddr().String(),
		HostName: s.conn.Hostname(),
	}
	env := Envelope{
		From: s.from,
		Tos:  s.to,
		Data: data,
	}

	s.ingestor.Deliver(context.Background(), info, env)
	return nil
}

// Reset resets the session
func (s *Session) Reset() {
	s.from = ""
	s.to = []string{}
}

// Logout handles the QUIT command
func (s *Session) Logout() error {
	return nil
}
