package workflow

import (
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/socioadmin/tesoreria_backend/models"
)

func TestTextReceiptRenderer(t *testing.T) {
	r := NewTextReceiptRenderer("Club Social")
	rendered, err := r.Render(&models.ReceiptDocument{
		DocNumber:  "O.P-3",
		MemberName: "Juan Perez",
		Date:       time.Date(2026, 2, 1, 0, 0, 0, 0, time.UTC),
		Amount:     decimal.RequireFromString("1234.5"),
		Detail:     "Payment O.P-3",
	})
	if err != nil {
		t.Fatalf("render: %v", err)
	}

	if rendered.Subject != "Club Social - Receipt O.P-3" {
		t.Fatalf("subject %q", rendered.Subject)
	}
	for _, want := range []string{"Juan Perez", "O.P-3"} {
		if !strings.Contains(rendered.Body, want) {
			t.Fatalf("body misses %q:\n%s", want, rendered.Body)
		}
	}
	if rendered.Filename != "O.P-3.txt" {
		t.Fatalf("filename %q", rendered.Filename)
	}
	artifact := string(rendered.Attachment)
	for _, want := range []string{"RECEIPT O.P-3", "Juan Perez", "2026-02-01", "1234.50"} {
		if !strings.Contains(artifact, want) {
			t.Fatalf("artifact misses %q:\n%s", want, artifact)
		}
	}
}

func TestTextReceiptRenderer_NoOrganization(t *testing.T) {
	r := NewTextReceiptRenderer("")
	rendered, err := r.Render(&models.ReceiptDocument{DocNumber: "REC-1", Amount: decimal.Zero})
	if err != nil {
		t.Fatalf("render: %v", err)
	}
	if rendered.Subject != "Receipt REC-1" {
		t.Fatalf("subject %q", rendered.Subject)
	}
	if len(rendered.Attachment) == 0 {
		t.Fatal("artifact is empty")
	}
}
