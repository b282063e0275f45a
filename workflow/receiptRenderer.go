package workflow

import (
	"fmt"
	"strings"

	"github.com/socioadmin/tesoreria_backend/models"
)

// RenderedReceipt is one rendered receipt: the covering email text plus the
// receipt artifact to attach.
type RenderedReceipt struct {
	Subject    string
	Body       string
	Attachment []byte
	Filename   string
}

// ReceiptRenderer turns a receipt document into a rendered receipt. Renderers
// must work from the document alone: resends re-render from current data, so
// nothing may be cached between calls.
type ReceiptRenderer interface {
	Render(doc *models.ReceiptDocument) (*RenderedReceipt, error)
}

type TextReceiptRenderer struct {
	OrganizationName string
}

func NewTextReceiptRenderer(organizationName string) *TextReceiptRenderer {
	return &TextReceiptRenderer{OrganizationName: organizationName}
}

func (r *TextReceiptRenderer) Render(doc *models.ReceiptDocument) (*RenderedReceipt, error) {

	subject := fmt.Sprintf("Receipt %s", doc.DocNumber)
	if r.OrganizationName != "" {
		subject = fmt.Sprintf("%s - Receipt %s", r.OrganizationName, doc.DocNumber)
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Dear %s,\r\n\r\n", doc.MemberName)
	fmt.Fprintf(&b, "Please find attached your receipt %s dated %s.\r\n\r\n", doc.DocNumber, doc.Date.Format("2006-01-02"))
	if r.OrganizationName != "" {
		fmt.Fprintf(&b, "Regards,\r\n%s\r\n", r.OrganizationName)
	} else {
		fmt.Fprintf(&b, "Regards\r\n")
	}

	var a strings.Builder
	if r.OrganizationName != "" {
		fmt.Fprintf(&a, "%s\r\n", r.OrganizationName)
	}
	fmt.Fprintf(&a, "RECEIPT %s\r\n", doc.DocNumber)
	fmt.Fprintf(&a, "Date: %s\r\n", doc.Date.Format("2006-01-02"))
	fmt.Fprintf(&a, "Member: %s\r\n", doc.MemberName)
	fmt.Fprintf(&a, "%s\r\n", doc.Detail)
	fmt.Fprintf(&a, "Amount: %s\r\n", doc.Amount.StringFixed(2))

	return &RenderedReceipt{
		Subject:    subject,
		Body:       b.String(),
		Attachment: []byte(a.String()),
		Filename:   doc.DocNumber + ".txt",
	}, nil
}
