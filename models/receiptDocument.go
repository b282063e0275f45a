package models

import (
	"context"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"github.com/socioadmin/tesoreria_backend/config"
)

// ReceiptDocument is a flattened view of a financial document, everything
// the notification dispatcher needs to render and send one receipt email.
type ReceiptDocument struct {
	Kind        ReceiptKind
	SourceId    int
	DocNumber   string
	MemberName  string
	MemberEmail string
	Date        time.Time
	Amount      decimal.Decimal
	Detail      string
	AlreadySent bool
	SentAt      *time.Time
	Recipient   string
}

// PaymentDocNumber is "O.P-{id}" for receipts, the stored number for invoices.
func PaymentDocNumber(p *Payment) string {
	if p.DocType == DocTypeInvoice && p.DocNumber != "" {
		return p.DocNumber
	}
	return fmt.Sprintf("O.P-%d", p.ID)
}

// CollectionDocNumber is "REC-{id}" for receipts, the stored number for invoices.
func CollectionDocNumber(c *Collection) string {
	if c.DocType == DocTypeInvoice && c.DocNumber != "" {
		return c.DocNumber
	}
	return fmt.Sprintf("REC-%d", c.ID)
}

// LoadReceiptDocument assembles the ReceiptDocument for the given source.
// Returns utils.ErrorRecordNotFound when the source does not exist.
func LoadReceiptDocument(ctx context.Context, kind ReceiptKind, id int) (*ReceiptDocument, error) {

	switch kind {
	case ReceiptKindPayment:
		payment, err := GetPayment(ctx, id)
		if err != nil {
			return nil, err
		}
		doc := ReceiptDocument{
			Kind:        kind,
			SourceId:    payment.ID,
			DocNumber:   PaymentDocNumber(payment),
			Date:        payment.PaymentDate,
			Amount:      payment.Amount,
			Detail:      "Payment " + PaymentDocNumber(payment),
			AlreadySent: payment.Notification.Sent,
			SentAt:      payment.Notification.SentAt,
			Recipient:   payment.Notification.Recipient,
		}
		if payment.Member != nil {
			doc.MemberName = payment.Member.Name
			doc.MemberEmail = payment.Member.Email
		}
		return &doc, nil

	case ReceiptKindCollection:
		collection, err := GetCollection(ctx, id)
		if err != nil {
			return nil, err
		}
		doc := ReceiptDocument{
			Kind:        kind,
			SourceId:    collection.ID,
			DocNumber:   CollectionDocNumber(collection),
			Date:        collection.CollectionDate,
			Amount:      collection.Amount,
			Detail:      "Collection " + CollectionDocNumber(collection),
			AlreadySent: collection.Notification.Sent,
			SentAt:      collection.Notification.SentAt,
			Recipient:   collection.Notification.Recipient,
		}
		if collection.Member != nil {
			doc.MemberName = collection.Member.Name
			doc.MemberEmail = collection.Member.Email
		}
		return &doc, nil

	case ReceiptKindDue:
		due, err := GetDue(ctx, id)
		if err != nil {
			return nil, err
		}
		doc := ReceiptDocument{
			Kind:        kind,
			SourceId:    due.ID,
			DocNumber:   due.ReceiptNumber,
			Date:        due.DueDate,
			Amount:      due.Amount,
			Detail:      "Due " + due.ReceiptNumber + " for period " + due.Period,
			AlreadySent: due.Notification.Sent,
			SentAt:      due.Notification.SentAt,
			Recipient:   due.Notification.Recipient,
		}
		if due.Paid {
			doc.Amount = due.AmountPaid
			if due.PaymentDate != nil {
				doc.Date = *due.PaymentDate
			}
		}
		if due.Member != nil {
			doc.MemberName = due.Member.Name
			doc.MemberEmail = due.Member.Email
		}
		return &doc, nil
	}
	return nil, fmt.Errorf("unknown receipt kind: %s", kind)
}

// MarkReceiptSent records a successful delivery on the source document.
// UpdateColumn writes skip UpdatedAt so a resend does not look like an edit.
func MarkReceiptSent(ctx context.Context, kind ReceiptKind, id int, recipient string, sentAt time.Time) error {

	db := config.GetDB()
	updates := map[string]interface{}{
		"notification_sent":      true,
		"notification_sent_at":   sentAt,
		"notification_recipient": recipient,
	}

	var model interface{}
	switch kind {
	case ReceiptKindPayment:
		model = &Payment{ID: id}
	case ReceiptKindCollection:
		model = &Collection{ID: id}
	case ReceiptKindDue:
		model = &Due{ID: id}
	default:
		return fmt.Errorf("unknown receipt kind: %s", kind)
	}
	return db.WithContext(ctx).Model(model).UpdateColumns(updates).Error
}
