package workflow

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/socioadmin/tesoreria_backend/models"
	"github.com/socioadmin/tesoreria_backend/utils"
)

// NOTE: These tests are intentionally DB-free. The store seams are replaced
// with in-memory fakes; what's under test is the dispatch state machine:
// one automatic attempt per creation, failures soft and retryable, resends
// overwriting sent_at/recipient.

type fakeTransport struct {
	sent    []MailMessage
	failErr error
}

func (t *fakeTransport) Send(ctx context.Context, cfg *models.NotificationConfig, msg *MailMessage) error {
	if t.failErr != nil {
		return t.failErr
	}
	t.sent = append(t.sent, *msg)
	return nil
}

type markCall struct {
	kind      models.ReceiptKind
	id        int
	recipient string
}

type fakeStore struct {
	doc   *models.ReceiptDocument
	cfg   *models.NotificationConfig
	marks []markCall
}

func (s *fakeStore) wire(d *Dispatcher) {
	d.loadDoc = func(ctx context.Context, kind models.ReceiptKind, id int) (*models.ReceiptDocument, error) {
		if s.doc == nil {
			return nil, utils.ErrorRecordNotFound
		}
		return s.doc, nil
	}
	d.activeConfig = func(ctx context.Context) (*models.NotificationConfig, error) {
		if s.cfg == nil {
			return nil, utils.ErrorRecordNotFound
		}
		return s.cfg, nil
	}
	d.markSent = func(ctx context.Context, kind models.ReceiptKind, id int, recipient string, sentAt time.Time) error {
		s.marks = append(s.marks, markCall{kind: kind, id: id, recipient: recipient})
		s.doc.AlreadySent = true
		s.doc.SentAt = &sentAt
		s.doc.Recipient = recipient
		return nil
	}
}

func testDoc() *models.ReceiptDocument {
	return &models.ReceiptDocument{
		Kind:        models.ReceiptKindCollection,
		SourceId:    9,
		DocNumber:   "REC-9",
		MemberName:  "Maria Lopez",
		MemberEmail: "maria@example.com",
		Date:        time.Date(2026, 3, 14, 0, 0, 0, 0, time.UTC),
		Amount:      decimal.NewFromInt(1500),
		Detail:      "Collection REC-9",
	}
}

func testConfig() *models.NotificationConfig {
	return &models.NotificationConfig{
		ID:          1,
		Host:        "smtp.example.com",
		Port:        587,
		FromAddress: "tesoreria@example.com",
	}
}

func newTestDispatcher(store *fakeStore, transport *fakeTransport) *Dispatcher {
	d := NewDispatcher(NewTextReceiptRenderer("Club Social"), transport)
	store.wire(d)
	return d
}

func TestNotify_SendsAndMarks(t *testing.T) {
	store := &fakeStore{doc: testDoc(), cfg: testConfig()}
	transport := &fakeTransport{}
	d := newTestDispatcher(store, transport)

	sent, msg := d.Notify(context.Background(), models.ReceiptKindCollection, 9)
	if !sent {
		t.Fatalf("expected sent, got message %q", msg)
	}
	if len(transport.sent) != 1 {
		t.Fatalf("expected 1 mail, got %d", len(transport.sent))
	}
	if transport.sent[0].To != "maria@example.com" {
		t.Fatalf("mail to %q", transport.sent[0].To)
	}
	if !strings.Contains(transport.sent[0].Subject, "REC-9") {
		t.Fatalf("subject %q misses doc number", transport.sent[0].Subject)
	}
	if len(transport.sent[0].Attachment) == 0 {
		t.Fatal("mail carries no receipt artifact")
	}
	if transport.sent[0].Filename != "REC-9.txt" {
		t.Fatalf("attachment filename %q", transport.sent[0].Filename)
	}
	if len(store.marks) != 1 || store.marks[0].recipient != "maria@example.com" {
		t.Fatalf("mark calls: %+v", store.marks)
	}
}

func TestNotify_AlreadySentIsNotRepeated(t *testing.T) {
	doc := testDoc()
	doc.AlreadySent = true
	doc.Recipient = "maria@example.com"
	store := &fakeStore{doc: doc, cfg: testConfig()}
	transport := &fakeTransport{}
	d := newTestDispatcher(store, transport)

	sent, msg := d.Notify(context.Background(), models.ReceiptKindCollection, 9)
	if sent {
		t.Fatal("expected no second automatic send")
	}
	if !strings.Contains(msg, "already sent") {
		t.Fatalf("message %q", msg)
	}
	if len(transport.sent) != 0 {
		t.Fatalf("transport called %d times", len(transport.sent))
	}
}

func TestNotify_NoActiveConfigIsSoft(t *testing.T) {
	store := &fakeStore{doc: testDoc()}
	transport := &fakeTransport{}
	d := newTestDispatcher(store, transport)

	sent, msg := d.Notify(context.Background(), models.ReceiptKindCollection, 9)
	if sent {
		t.Fatal("expected unsent result")
	}
	if !strings.Contains(msg, "disabled") {
		t.Fatalf("message %q", msg)
	}
	if len(store.marks) != 0 {
		t.Fatal("state must stay NotSent")
	}
}

func TestNotify_MissingEmailIsSoft(t *testing.T) {
	doc := testDoc()
	doc.MemberEmail = ""
	store := &fakeStore{doc: doc, cfg: testConfig()}
	d := newTestDispatcher(store, &fakeTransport{})

	sent, msg := d.Notify(context.Background(), models.ReceiptKindCollection, 9)
	if sent {
		t.Fatal("expected unsent result")
	}
	if !strings.Contains(msg, "no email") {
		t.Fatalf("message %q", msg)
	}
}

func TestNotify_TransportFailureLeavesStateRetryable(t *testing.T) {
	store := &fakeStore{doc: testDoc(), cfg: testConfig()}
	transport := &fakeTransport{failErr: errors.New("connection refused")}
	d := newTestDispatcher(store, transport)

	sent, msg := d.Notify(context.Background(), models.ReceiptKindCollection, 9)
	if sent {
		t.Fatal("expected failure")
	}
	if !strings.Contains(msg, "connection refused") {
		t.Fatalf("message %q", msg)
	}
	if len(store.marks) != 0 {
		t.Fatal("failed send must not mark the document sent")
	}
	if store.doc.AlreadySent {
		t.Fatal("document flipped to sent on failure")
	}

	// failure is retryable: the next explicit resend succeeds
	transport.failErr = nil
	result, err := d.Resend(context.Background(), models.ReceiptKindCollection, 9, "")
	if err != nil {
		t.Fatalf("resend after failure: %v", err)
	}
	if !result.Sent {
		t.Fatalf("resend result: %+v", result)
	}
}

func TestResend_OverwritesRecipient(t *testing.T) {
	doc := testDoc()
	doc.AlreadySent = true
	doc.Recipient = "maria@example.com"
	firstSentAt := time.Date(2026, 3, 14, 10, 0, 0, 0, time.UTC)
	doc.SentAt = &firstSentAt
	store := &fakeStore{doc: doc, cfg: testConfig()}
	transport := &fakeTransport{}
	d := newTestDispatcher(store, transport)

	result, err := d.Resend(context.Background(), models.ReceiptKindCollection, 9, "tesorero@example.com")
	if err != nil {
		t.Fatalf("resend: %v", err)
	}
	if !result.Sent {
		t.Fatalf("result: %+v", result)
	}
	if transport.sent[0].To != "tesorero@example.com" {
		t.Fatalf("mail to %q", transport.sent[0].To)
	}
	if store.doc.Recipient != "tesorero@example.com" {
		t.Fatalf("recipient not overwritten: %q", store.doc.Recipient)
	}
	if store.doc.SentAt.Equal(firstSentAt) {
		t.Fatal("sent_at not overwritten")
	}
}

func TestResend_InvalidOverrideEmail(t *testing.T) {
	store := &fakeStore{doc: testDoc(), cfg: testConfig()}
	d := newTestDispatcher(store, &fakeTransport{})

	_, err := d.Resend(context.Background(), models.ReceiptKindCollection, 9, "not-an-email")
	if !utils.IsValidation(err) {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestResend_NoActiveConfigIsHard(t *testing.T) {
	store := &fakeStore{doc: testDoc()}
	d := newTestDispatcher(store, &fakeTransport{})

	_, err := d.Resend(context.Background(), models.ReceiptKindCollection, 9, "")
	if err == nil {
		t.Fatal("explicit resend should surface the precondition miss")
	}
}
