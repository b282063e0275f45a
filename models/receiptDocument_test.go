package models_test

import (
	"testing"

	"github.com/socioadmin/tesoreria_backend/models"
)

func TestPaymentDocNumber(t *testing.T) {
	p := &models.Payment{ID: 42, DocType: models.DocTypeReceipt}
	if got := models.PaymentDocNumber(p); got != "O.P-42" {
		t.Fatalf("receipt payment doc number = %q, want O.P-42", got)
	}

	p = &models.Payment{ID: 42, DocType: models.DocTypeInvoice, DocNumber: "FA-0009"}
	if got := models.PaymentDocNumber(p); got != "FA-0009" {
		t.Fatalf("invoice payment doc number = %q, want FA-0009", got)
	}

	// invoice without a stored number falls back to the generated one
	p = &models.Payment{ID: 7, DocType: models.DocTypeInvoice}
	if got := models.PaymentDocNumber(p); got != "O.P-7" {
		t.Fatalf("invoice payment without number = %q, want O.P-7", got)
	}
}

func TestCollectionDocNumber(t *testing.T) {
	c := &models.Collection{ID: 15, DocType: models.DocTypeReceipt}
	if got := models.CollectionDocNumber(c); got != "REC-15" {
		t.Fatalf("receipt collection doc number = %q, want REC-15", got)
	}

	c = &models.Collection{ID: 15, DocType: models.DocTypeInvoice, DocNumber: "FB-0101"}
	if got := models.CollectionDocNumber(c); got != "FB-0101" {
		t.Fatalf("invoice collection doc number = %q, want FB-0101", got)
	}
}

func TestParseReceiptKind(t *testing.T) {
	cases := map[string]models.ReceiptKind{
		"payment":    models.ReceiptKindPayment,
		"collection": models.ReceiptKindCollection,
		"due":        models.ReceiptKindDue,
	}
	for raw, want := range cases {
		got, err := models.ParseReceiptKind(raw)
		if err != nil {
			t.Fatalf("ParseReceiptKind(%q): %v", raw, err)
		}
		if got != want {
			t.Fatalf("ParseReceiptKind(%q) = %q, want %q", raw, got, want)
		}
	}

	if _, err := models.ParseReceiptKind("invoice"); err == nil {
		t.Fatal("expected error for unknown receipt kind")
	}
}
