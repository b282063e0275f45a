package mailer

import (
	"context"
	"encoding/base64"
	"net"
	"strings"
	"testing"
	"time"

	"github.com/socioadmin/tesoreria_backend/models"
	"github.com/socioadmin/tesoreria_backend/workflow"
)

func testSMTPConfig() *models.NotificationConfig {
	return &models.NotificationConfig{
		Host:        "smtp.example.com",
		Port:        587,
		FromAddress: "tesoreria@example.com",
		FromName:    "Tesoreria",
	}
}

func TestBuildMessagePlain(t *testing.T) {
	raw := buildMessage(testSMTPConfig(), &workflow.MailMessage{
		To:      "maria@example.com",
		Subject: "Receipt REC-9",
		Body:    "Dear Maria,",
	})

	for _, want := range []string{
		"From: Tesoreria <tesoreria@example.com>",
		"To: maria@example.com",
		"Subject: Receipt REC-9",
		"Content-Type: text/plain",
		"Dear Maria,",
	} {
		if !strings.Contains(raw, want) {
			t.Fatalf("message misses %q:\n%s", want, raw)
		}
	}
	if strings.Contains(raw, "multipart/mixed") {
		t.Fatal("no attachment should mean no multipart")
	}
}

func TestBuildMessageWithAttachment(t *testing.T) {
	artifact := []byte("RECEIPT REC-9\r\nAmount: 1500.00\r\n")
	raw := buildMessage(testSMTPConfig(), &workflow.MailMessage{
		To:         "maria@example.com",
		Subject:    "Receipt REC-9",
		Body:       "Dear Maria,",
		Attachment: artifact,
		Filename:   "REC-9.txt",
	})

	if !strings.Contains(raw, "multipart/mixed") {
		t.Fatalf("not multipart:\n%s", raw)
	}
	if !strings.Contains(raw, `Content-Disposition: attachment; filename="REC-9.txt"`) {
		t.Fatalf("attachment header missing:\n%s", raw)
	}
	encoded := base64.StdEncoding.EncodeToString(artifact)
	if !strings.Contains(strings.ReplaceAll(raw, "\r\n", ""), encoded) {
		t.Fatal("attachment bytes not present in base64 form")
	}
	// the closing boundary terminates the message
	if !strings.HasSuffix(raw, "--\r\n") {
		t.Fatalf("unterminated multipart:\n%s", raw)
	}
}

// A server that accepts the connection and then never sends its greeting must
// not hang the send past the context deadline; document mutations wait on
// this call synchronously.
func TestSendDeadlineCoversGreeting(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen: %v", err)
	}
	defer ln.Close()
	go func() {
		conn, err := ln.Accept()
		if err != nil {
			return
		}
		defer conn.Close()
		// stall: no greeting, just hold the connection open
		buf := make([]byte, 1)
		_, _ = conn.Read(buf)
	}()

	cfg := testSMTPConfig()
	cfg.Host = "127.0.0.1"
	cfg.Port = ln.Addr().(*net.TCPAddr).Port

	ctx, cancel := context.WithTimeout(context.Background(), 300*time.Millisecond)
	defer cancel()

	done := make(chan error, 1)
	go func() {
		done <- NewSMTPTransport().Send(ctx, cfg, &workflow.MailMessage{
			To: "maria@example.com", Subject: "x", Body: "y",
		})
	}()
	select {
	case err := <-done:
		if err == nil {
			t.Fatal("send against a stalled server should fail")
		}
	case <-time.After(5 * time.Second):
		t.Fatal("send hung past its deadline on a stalled greeting")
	}
}
