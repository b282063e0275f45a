package workflow

import (
	"context"
	"fmt"
	"time"

	"github.com/socioadmin/tesoreria_backend/config"
	"github.com/socioadmin/tesoreria_backend/models"
	"github.com/socioadmin/tesoreria_backend/utils"
)

// MailMessage is one outgoing email with the rendered receipt attached.
type MailMessage struct {
	To         string
	Subject    string
	Body       string
	Attachment []byte
	Filename   string
}

// MailTransport delivers mail using the active notification config.
type MailTransport interface {
	Send(ctx context.Context, cfg *models.NotificationConfig, msg *MailMessage) error
}

// Dispatcher emails receipts for financial documents. A failed send never
// fails the financial operation that triggered it; the caller gets a
// result message and can resend later.
//
// Dispatcher implements models.ReceiptNotifier.
type Dispatcher struct {
	renderer  ReceiptRenderer
	transport MailTransport
	timeout   time.Duration

	// store access, swappable in tests
	loadDoc      func(ctx context.Context, kind models.ReceiptKind, id int) (*models.ReceiptDocument, error)
	activeConfig func(ctx context.Context) (*models.NotificationConfig, error)
	markSent     func(ctx context.Context, kind models.ReceiptKind, id int, recipient string, sentAt time.Time) error
}

func NewDispatcher(renderer ReceiptRenderer, transport MailTransport) *Dispatcher {
	return &Dispatcher{
		renderer:     renderer,
		transport:    transport,
		timeout:      30 * time.Second,
		loadDoc:      models.LoadReceiptDocument,
		activeConfig: models.GetActiveNotificationConfig,
		markSent:     models.MarkReceiptSent,
	}
}

// Notify sends the first receipt email for a freshly created document.
// Returns (sent, message); it never returns an error because send failures
// are soft from the caller's point of view.
func (d *Dispatcher) Notify(ctx context.Context, kind models.ReceiptKind, id int) (bool, string) {

	logger := config.GetLogger()

	doc, err := d.loadDoc(ctx, kind, id)
	if err != nil {
		config.LogError(logger, "notificationDispatcher.go", "Notify", "LoadReceiptDocument", map[string]interface{}{"kind": kind, "id": id}, err)
		return false, fmt.Sprintf("could not load receipt %s/%d: %v", kind, id, err)
	}
	if doc.AlreadySent {
		return false, fmt.Sprintf("receipt %s already sent to %s", doc.DocNumber, doc.Recipient)
	}

	result, err := d.deliver(ctx, doc, doc.MemberEmail)
	if err != nil {
		config.LogError(logger, "notificationDispatcher.go", "Notify", "deliver", map[string]interface{}{"kind": kind, "id": id}, err)
		return false, err.Error()
	}
	return result.Sent, result.Message
}

// Resend sends the receipt again regardless of prior state, optionally to an
// override address. Unlike Notify it returns hard errors: the caller asked
// for this send explicitly.
func (d *Dispatcher) Resend(ctx context.Context, kind models.ReceiptKind, id int, overrideEmail string) (*models.NotificationResult, error) {

	doc, err := d.loadDoc(ctx, kind, id)
	if err != nil {
		return nil, err
	}

	recipient := doc.MemberEmail
	if overrideEmail != "" {
		if !utils.IsValidEmail(overrideEmail) {
			return nil, utils.NewValidationError("%s is not a valid email address", overrideEmail)
		}
		recipient = overrideEmail
	}

	result, err := d.deliver(ctx, doc, recipient)
	if err != nil {
		return nil, err
	}
	if !result.Sent {
		return nil, utils.NewValidationError("%s", result.Message)
	}
	return result, nil
}

// deliver is the sending core: precondition checks, render, transport, and
// state persistence. Precondition misses come back as an unsent result;
// transport and persistence problems come back as errors.
func (d *Dispatcher) deliver(ctx context.Context, doc *models.ReceiptDocument, recipient string) (*models.NotificationResult, error) {

	cfg, err := d.activeConfig(ctx)
	if err != nil {
		if err == utils.ErrorRecordNotFound {
			return &models.NotificationResult{Sent: false, Message: "notifications disabled: no active smtp config"}, nil
		}
		return nil, err
	}
	if recipient == "" {
		return &models.NotificationResult{Sent: false, Message: fmt.Sprintf("member %s has no email address", doc.MemberName)}, nil
	}
	if !utils.IsValidEmail(recipient) {
		return &models.NotificationResult{Sent: false, Message: fmt.Sprintf("%s is not a valid email address", recipient)}, nil
	}

	// always a fresh render so a resend reflects later edits
	rendered, err := d.renderer.Render(doc)
	if err != nil {
		return nil, fmt.Errorf("render receipt %s: %w", doc.DocNumber, err)
	}
	msg := MailMessage{
		To:         recipient,
		Subject:    rendered.Subject,
		Body:       rendered.Body,
		Attachment: rendered.Attachment,
		Filename:   rendered.Filename,
	}

	sendCtx, cancel := context.WithTimeout(ctx, d.timeout)
	defer cancel()
	if err := d.transport.Send(sendCtx, cfg, &msg); err != nil {
		return nil, fmt.Errorf("send receipt %s to %s: %w", doc.DocNumber, recipient, err)
	}

	sentAt := time.Now()
	if err := d.markSent(ctx, doc.Kind, doc.SourceId, recipient, sentAt); err != nil {
		return nil, fmt.Errorf("receipt %s sent but state not recorded: %w", doc.DocNumber, err)
	}

	return &models.NotificationResult{
		Sent:    true,
		Message: fmt.Sprintf("receipt %s sent to %s", doc.DocNumber, recipient),
	}, nil
}
