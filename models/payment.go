package models

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
	"github.com/socioadmin/tesoreria_backend/config"
	"github.com/socioadmin/tesoreria_backend/utils"
)

// Payment is money leaving the cash account (an orden de pago). Creating one
// mirrors an expense ledger entry in the same transaction.
type Payment struct {
	ID           int               `gorm:"primary_key" json:"id"`
	MemberId     int               `gorm:"index;not null" json:"member_id" binding:"required"`
	Member       *Member           `gorm:"foreignKey:MemberId" json:"member,omitempty"`
	CategoryId   *int              `gorm:"index" json:"category_id"`
	PaymentDate  time.Time         `gorm:"not null;index" json:"payment_date" binding:"required"`
	Amount       decimal.Decimal   `gorm:"type:decimal(20,4);not null" json:"amount"`
	DocType      DocType           `gorm:"size:10;not null;default:'Receipt'" json:"doc_type"`
	DocNumber    string            `gorm:"size:64" json:"doc_number"`
	Notification NotificationState `gorm:"embedded" json:"notification_state"`

	// DispatchResult carries the post-commit send attempt back to the caller.
	DispatchResult *NotificationResult `gorm:"-" json:"notification,omitempty"`

	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

func (p Payment) GetId() int {
	return p.ID
}

type NewPayment struct {
	MemberId    int             `json:"member_id" binding:"required"`
	CategoryId  *int            `json:"category_id"`
	PaymentDate time.Time       `json:"payment_date" binding:"required"`
	Amount      decimal.Decimal `json:"amount"`
	DocType     DocType         `json:"doc_type"`
	DocNumber   string          `json:"doc_number"`
}

// PaymentPatch applies a partial update: only non-nil fields are merged.
type PaymentPatch struct {
	MemberId    *int             `json:"member_id"`
	CategoryId  *int             `json:"category_id"`
	PaymentDate *time.Time       `json:"payment_date"`
	Amount      *decimal.Decimal `json:"amount"`
	DocType     *DocType         `json:"doc_type"`
	DocNumber   *string          `json:"doc_number"`
}

// validate input for both create & update. (id = 0 for create)
func (input *NewPayment) validate(ctx context.Context, _ int) error {
	if !input.Amount.IsPositive() {
		return utils.NewValidationError("payment amount must be positive")
	}
	if input.PaymentDate.IsZero() {
		return utils.NewValidationError("payment date is required")
	}
	if input.DocType == DocTypeInvoice && input.DocNumber == "" {
		return utils.NewValidationError("invoice payments require a doc number")
	}
	if err := utils.ValidateResourceId[Member](ctx, input.MemberId); err != nil {
		return err
	}
	if input.CategoryId != nil && *input.CategoryId > 0 {
		if err := utils.ValidateResourceId[Category](ctx, *input.CategoryId); err != nil {
			return err
		}
	}
	return nil
}

func paymentDetail(memberName string) string {
	return "Payment to " + memberName
}

func CreatePayment(ctx context.Context, input *NewPayment) (*Payment, error) {

	if err := input.validate(ctx, 0); err != nil {
		return nil, err
	}
	member, err := utils.FetchModel[Member](ctx, input.MemberId)
	if err != nil {
		return nil, err
	}

	docType := input.DocType
	if docType == "" {
		docType = DocTypeReceipt
	}

	payment := Payment{
		MemberId:    input.MemberId,
		CategoryId:  input.CategoryId,
		PaymentDate: input.PaymentDate,
		Amount:      input.Amount,
		DocType:     docType,
		DocNumber:   input.DocNumber,
	}

	db := config.GetDB()
	tx := db.Begin()
	if err := tx.WithContext(ctx).Create(&payment).Error; err != nil {
		tx.Rollback()
		return nil, err
	}

	entry := LedgerEntry{
		EntryDate: payment.PaymentDate,
		Detail:    paymentDetail(member.Name),
		Amount:    payment.Amount,
		Kind:      EntryKindExpense,
		MemberId:  payment.MemberId,
		PaymentId: &payment.ID,
	}
	if err := mirrorCreateEntry(ctx, tx, &entry); err != nil {
		tx.Rollback()
		return nil, err
	}

	SaveAuditCreate(tx.WithContext(ctx), "payments", payment.ID, payment, "Payment of "+payment.Amount.String()+" to "+member.Name+" created.")
	if err := tx.Commit().Error; err != nil {
		return nil, err
	}

	payment.DispatchResult = notifyCreated(ctx, ReceiptKindPayment, payment.ID)
	return &payment, nil
}

func UpdatePayment(ctx context.Context, id int, patch *PaymentPatch) (*Payment, error) {

	before, err := utils.FetchModel[Payment](ctx, id)
	if err != nil {
		return nil, err
	}

	merged := NewPayment{
		MemberId:    utils.DereferencePtr(patch.MemberId, before.MemberId),
		CategoryId:  before.CategoryId,
		PaymentDate: utils.DereferencePtr(patch.PaymentDate, before.PaymentDate),
		Amount:      utils.DereferencePtr(patch.Amount, before.Amount),
		DocType:     utils.DereferencePtr(patch.DocType, before.DocType),
		DocNumber:   utils.DereferencePtr(patch.DocNumber, before.DocNumber),
	}
	if patch.CategoryId != nil {
		merged.CategoryId = patch.CategoryId
	}
	if err := merged.validate(ctx, id); err != nil {
		return nil, err
	}

	updates := map[string]interface{}{}
	if patch.MemberId != nil {
		updates["MemberId"] = *patch.MemberId
	}
	if patch.CategoryId != nil {
		updates["CategoryId"] = *patch.CategoryId
	}
	if patch.PaymentDate != nil {
		updates["PaymentDate"] = *patch.PaymentDate
	}
	if patch.Amount != nil {
		updates["Amount"] = *patch.Amount
	}
	if patch.DocType != nil {
		updates["DocType"] = *patch.DocType
	}
	if patch.DocNumber != nil {
		updates["DocNumber"] = *patch.DocNumber
	}
	if len(updates) == 0 {
		return before, nil
	}

	member, err := utils.FetchModel[Member](ctx, merged.MemberId)
	if err != nil {
		return nil, err
	}

	db := config.GetDB()
	tx := db.Begin()
	target := Payment{ID: id}
	if err := tx.WithContext(ctx).Model(&target).Updates(updates).Error; err != nil {
		tx.Rollback()
		return nil, err
	}

	// keep the mirrored entry in sync; balances are the caller's
	// responsibility via recalculation when the amount changed
	mirrorNeeded := patch.Amount != nil || patch.PaymentDate != nil || patch.MemberId != nil
	if mirrorNeeded {
		if err := mirrorUpdateEntry(ctx, tx, "payment_id", id,
			merged.PaymentDate, merged.Amount, EntryKindExpense,
			merged.MemberId, paymentDetail(member.Name)); err != nil {
			tx.Rollback()
			return nil, err
		}
	}

	SaveAuditUpdate(tx.WithContext(ctx), "payments", id, before, updates, "Payment updated.")
	if err := tx.Commit().Error; err != nil {
		return nil, err
	}

	return utils.FetchModel[Payment](ctx, id)
}

// DeletePayment removes the payment and its mirrored entry in the same
// transaction; no orphan entries are permitted.
func DeletePayment(ctx context.Context, id int) (*Payment, error) {

	payment, err := utils.FetchModel[Payment](ctx, id)
	if err != nil {
		return nil, err
	}

	db := config.GetDB()
	tx := db.Begin()
	if err := tx.WithContext(ctx).Delete(&payment).Error; err != nil {
		tx.Rollback()
		return nil, err
	}
	if err := mirrorDeleteEntry(ctx, tx, "payment_id", id); err != nil {
		tx.Rollback()
		return nil, err
	}
	SaveAuditDelete(tx.WithContext(ctx), "payments", id, payment, "Payment of "+payment.Amount.String()+" deleted.")
	if err := tx.Commit().Error; err != nil {
		return nil, err
	}
	return payment, nil
}

func GetPayment(ctx context.Context, id int) (*Payment, error) {
	return utils.FetchModel[Payment](ctx, id, "Member")
}

func ListPayments(ctx context.Context, fromDate *time.Time, toDate *time.Time, memberId *int) ([]*Payment, error) {

	db := config.GetDB()
	dbCtx := db.WithContext(ctx).Preload("Member")
	if fromDate != nil {
		dbCtx = dbCtx.Where("payment_date >= ?", *fromDate)
	}
	if toDate != nil {
		dbCtx = dbCtx.Where("payment_date <= ?", *toDate)
	}
	if memberId != nil && *memberId > 0 {
		dbCtx = dbCtx.Where("member_id = ?", *memberId)
	}

	var results []*Payment
	if err := dbCtx.Order("payment_date DESC, id DESC").Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}
