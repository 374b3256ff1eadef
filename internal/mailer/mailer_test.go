package mailer

import (
	"strings"
	"testing"
)

func TestConsoleMailer_SendNeverFails(t *testing.T) {
	m := ConsoleMailer{}
	err := m.Send(Message{
		From:    "from@example.com",
		To:      []string{"alice@example.com"},
		Subject: "Welcome to our site!",
		Body:    "Thank you for registering, alice!",
	})
	if err != nil {
		t.Fatalf("Send() error = %v", err)
	}
}

func TestSMTPMailer_RejectsHeaderLineBreaks(t *testing.T) {
	m := NewSMTPMailer("mail.example.com:587", "", "")

	tests := []struct {
		name string
		msg  Message
	}{
		{
			name: "recipient injection",
			msg: Message{
				From:    "from@example.com",
				To:      []string{"victim@example.com\r\nBcc: spam@example.com"},
				Subject: "Welcome to our site!",
			},
		},
		{
			name: "subject injection",
			msg: Message{
				From:    "from@example.com",
				To:      []string{"alice@example.com"},
				Subject: "hi\nX-Injected: 1",
			},
		},
		{
			name: "from injection",
			msg: Message{
				From:    "from@example.com\r\nReply-To: evil@example.com",
				To:      []string{"alice@example.com"},
				Subject: "Welcome to our site!",
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := m.Send(tt.msg)
			if err == nil {
				t.Fatal("Send() accepted a header containing line breaks")
			}
			if !strings.Contains(err.Error(), "line breaks") {
				t.Errorf("unexpected error: %v", err)
			}
		})
	}
}

func TestNewSMTPMailer_Auth(t *testing.T) {
	tests := []struct {
		name     string
		username string
		wantAuth bool
	}{
		{"anonymous", "", false},
		{"plain auth", "mailer", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := NewSMTPMailer("mail.example.com:587", tt.username, "secret")
			if (m.Auth != nil) != tt.wantAuth {
				t.Errorf("Auth set = %v, want %v", m.Auth != nil, tt.wantAuth)
			}
			if m.Addr != "mail.example.com:587" {
				t.Errorf("Addr = %q, want mail.example.com:587", m.Addr)
			}
		})
	}
}
