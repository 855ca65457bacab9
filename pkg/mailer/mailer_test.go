package mailer

import (
	"bytes"
	"context"
	"log/slog"
	"strings"
	"testing"
)

func TestNewSMTPSenderDefaults(t *testing.T) {
	s, err := NewSMTPSender(SMTPConfig{Host: "smtp.gmail.com", Username: "app@example.com", Password: "secret"})
	if err != nil {
		t.Fatalf("new sender: %v", err)
	}
	if s.cfg.Port != 465 || s.cfg.From != "app@example.com" {
		t.Fatalf("unexpected defaults: %+v", s.cfg)
	}
}

func TestNewSMTPSenderRequiresCredentials(t *testing.T) {
	if _, err := NewSMTPSender(SMTPConfig{Host: "smtp.gmail.com"}); err == nil {
		t.Fatalf("expected missing credentials error")
	}
	if _, err := NewSMTPSender(SMTPConfig{Username: "a", Password: "b"}); err == nil {
		t.Fatalf("expected missing host error")
	}
}

func TestSMTPSenderRejectsBadRecipient(t *testing.T) {
	s, _ := NewSMTPSender(SMTPConfig{Host: "127.0.0.1", Port: 1, Username: "app@example.com", Password: "x"})
	err := s.Send(context.Background(), Message{To: "not an address", Subject: "s", Body: "b"})
	if err == nil || !strings.Contains(err.Error(), "set to") {
		t.Fatalf("expected recipient error, got %v", err)
	}
}

func TestLogSender(t *testing.T) {
	var buf bytes.Buffer
	s := LogSender{Logger: slog.New(slog.NewTextHandler(&buf, nil))}
	msg := Message{To: "a@example.com", Subject: "MoodFlix password reset", Body: "Your code is 482913"}
	if err := s.Send(context.Background(), msg); err != nil {
		t.Fatalf("send: %v", err)
	}
	if !strings.Contains(buf.String(), "a@example.com") {
		t.Fatalf("expected recipient in log, got %q", buf.String())
	}
	if strings.Contains(buf.String(), "482913") {
		t.Fatalf("body must not be logged at info level, got %q", buf.String())
	}

	buf.Reset()
	s = LogSender{Logger: slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}))}
	if err := s.Send(context.Background(), msg); err != nil {
		t.Fatalf("send: %v", err)
	}
	if !strings.Contains(buf.String(), "482913") {
		t.Fatalf("expected body at debug level, got %q", buf.String())
	}
}
