package mailer

import (
	"fmt"
	"net/smtp"
	"strings"

	"github.com/rs/zerolog/log"
)

// Message is a single outbound email.
type Message struct {
	From    string
	To      []string
	Subject string
	Body    string
}

// Mailer delivers email messages. Implementations do not retry; a
// delivery failure is returned to the caller.
type Mailer interface {
	Send(msg Message) error
}

// ConsoleMailer writes messages to the log instead of delivering them.
// It is the development default, so a fresh checkout never needs a mail
// server to run.
type ConsoleMailer struct{}

// Send logs the message.
func (ConsoleMailer) Send(msg Message) error {
	log.Info().
		Str("from", msg.From).
		Strs("to", msg.To).
		Str("subject", msg.Subject).
		Str("body", msg.Body).
		Msg("Email (console backend)")
	return nil
}

// SMTPMailer delivers messages through a single SMTP server.
type SMTPMailer struct {
	Addr string // host:port
	Auth smtp.Auth
}

// NewSMTPMailer creates an SMTPMailer. Username may be empty, in which
// case no authentication is attempted.
func NewSMTPMailer(addr, username, password string) *SMTPMailer {
	m := &SMTPMailer{Addr: addr}
	if username != "" {
		host := addr
		if i := strings.LastIndex(addr, ":"); i >= 0 {
			host = addr[:i]
		}
		m.Auth = smtp.PlainAuth("", username, password, host)
	}
	return m
}

// Send delivers the message over SMTP.
func (m *SMTPMailer) Send(msg Message) error {
	headers := append([]string{msg.From, msg.Subject}, msg.To...)
	for _, h := range headers {
		// A CR or LF in a header value would let the value inject
		// additional headers into the payload.
		if strings.ContainsAny(h, "\r\n") {
			return fmt.Errorf("smtp header value %q contains line breaks", h)
		}
	}

	payload := fmt.Sprintf("From: %s\r\nTo: %s\r\nSubject: %s\r\n\r\n%s\r\n",
		msg.From, strings.Join(msg.To, ", "), msg.Subject, msg.Body)

	if err := smtp.SendMail(m.Addr, m.Auth, msg.From, msg.To, []byte(payload)); err != nil {
		return fmt.Errorf("smtp send to %v: %w", msg.To, err)
	}
	return nil
}
