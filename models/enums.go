package models

import (
	"database/sql/driver"
	"errors"
	"fmt"
	"time"
)

// LedgerAccountCaja is the single cash account every ledger entry posts to.
const LedgerAccountCaja = "CAJA"

type EntryKind string

const (
	EntryKindIncome  EntryKind = "Income"
	EntryKindExpense EntryKind = "Expense"
)

func (t EntryKind) Value() (driver.Value, error) {
	return string(t), nil
}

func (t *EntryKind) Scan(value interface{}) error {
	switch v := value.(type) {
	case []byte:
		*t = EntryKind(v)
	case string:
		*t = EntryKind(v)
	default:
		return fmt.Errorf("unsupported entry kind value %v", value)
	}
	return nil
}

// Opposite returns the compensating kind used for void markers.
func (t EntryKind) Opposite() EntryKind {
	if t == EntryKindIncome {
		return EntryKindExpense
	}
	return EntryKindIncome
}

type DocType string

const (
	DocTypeReceipt DocType = "Receipt"
	DocTypeInvoice DocType = "Invoice"
)

func (t *DocType) UnmarshalJSON(b []byte) error {
	s := string(b)
	switch s {
	case `"Receipt"`, `""`, "null":
		*t = DocTypeReceipt
	case `"Invoice"`:
		*t = DocTypeInvoice
	default:
		return errors.New("invalid doc type")
	}
	return nil
}

type ActionType string

const (
	ActionTypeCreate ActionType = "CREATE"
	ActionTypeUpdate ActionType = "UPDATE"
	ActionTypeDelete ActionType = "DELETE"
	ActionTypePay    ActionType = "PAY"
	ActionTypeVoid   ActionType = "VOID"
	ActionTypeRecalc ActionType = "RECALC"
)

// ReceiptKind names the source document a receipt email belongs to.
type ReceiptKind string

const (
	ReceiptKindPayment    ReceiptKind = "payment"
	ReceiptKindCollection ReceiptKind = "collection"
	ReceiptKindDue        ReceiptKind = "due"
)

func ParseReceiptKind(s string) (ReceiptKind, error) {
	switch ReceiptKind(s) {
	case ReceiptKindPayment, ReceiptKindCollection, ReceiptKindDue:
		return ReceiptKind(s), nil
	}
	return "", errors.New("invalid receipt kind")
}

// NotificationState tracks whether a receipt email went out for a document.
// Columns are embedded into each source document table.
type NotificationState struct {
	Sent      bool       `gorm:"column:notification_sent;not null;default:false" json:"sent"`
	SentAt    *time.Time `gorm:"column:notification_sent_at" json:"sent_at"`
	Recipient string     `gorm:"column:notification_recipient;size:255" json:"recipient"`
}

// NotificationResult is the soft-warning surface a financial operation carries
// back to its caller after the post-commit dispatch attempt.
type NotificationResult struct {
	Sent    bool   `json:"sent"`
	Message string `json:"message,omitempty"`
}
