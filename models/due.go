package models

import (
	"context"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"github.com/socioadmin/tesoreria_backend/config"
	"github.com/socioadmin/tesoreria_backend/utils"
)

// Due is a periodic obligation (cuota), usually a member's but valid without
// one until payment time. It carries no ledger entry until it is paid; paying
// creates the settling collection and income entry in one transaction.
type Due struct {
	ID            int               `gorm:"primary_key" json:"id"`
	MemberId      *int              `gorm:"index" json:"member_id"`
	Member        *Member           `gorm:"foreignKey:MemberId" json:"member,omitempty"`
	Period        string            `gorm:"size:20;not null" json:"period" binding:"required"`
	Concept       string            `gorm:"size:255" json:"concept"`
	Amount        decimal.Decimal   `gorm:"type:decimal(20,4);not null" json:"amount"`
	DueDate       time.Time         `gorm:"not null;index" json:"due_date"`
	SequenceNo    int               `gorm:"uniqueIndex;not null" json:"sequence_no"`
	ReceiptNumber string            `gorm:"size:32;uniqueIndex;not null" json:"receipt_number"`
	Paid          bool              `gorm:"not null;default:false;index" json:"paid"`
	AmountPaid    decimal.Decimal   `gorm:"type:decimal(20,4);not null;default:0" json:"amount_paid"`
	PaymentDate   *time.Time        `json:"payment_date"`
	Notification  NotificationState `gorm:"embedded" json:"notification_state"`

	DispatchResult *NotificationResult `gorm:"-" json:"notification,omitempty"`

	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

func (d Due) GetId() int {
	return d.ID
}

type NewDue struct {
	MemberId *int            `json:"member_id"`
	Period   string          `json:"period" binding:"required"`
	Concept  string          `json:"concept"`
	Amount   decimal.Decimal `json:"amount"`
	DueDate  time.Time       `json:"due_date"`
}

type DuePatch struct {
	MemberId *int `json:"member_id"`

	Period  *string          `json:"period"`
	Concept *string          `json:"concept"`
	Amount  *decimal.Decimal `json:"amount"`
	DueDate *time.Time       `json:"due_date"`
}

// PayDueInput settles a due. Amount defaults to the due's amount when zero;
// the retention, if any, reduces what reaches the cash account.
type PayDueInput struct {
	Amount      decimal.Decimal `json:"amount"`
	RetentionId *int            `json:"retention_id"`
	CategoryId  *int            `json:"category_id"`
	PaymentDate *time.Time      `json:"payment_date"`
}

func (input *NewDue) validate(ctx context.Context) error {
	if !input.Amount.IsPositive() {
		return utils.NewValidationError("due amount must be positive")
	}
	if input.Period == "" {
		return utils.NewValidationError("due period is required")
	}
	if input.MemberId != nil {
		return utils.ValidateResourceId[Member](ctx, *input.MemberId)
	}
	return nil
}

func CreateDue(ctx context.Context, input *NewDue) (*Due, error) {

	if err := input.validate(ctx); err != nil {
		return nil, err
	}

	if input.MemberId != nil {
		count, err := utils.ResourceCountWhere[Due](ctx, "member_id = ? AND period = ?", *input.MemberId, input.Period)
		if err != nil {
			return nil, err
		}
		if count > 0 {
			return nil, utils.NewConflictError("member %d already has a due for period %s", *input.MemberId, input.Period)
		}
	}

	sequenceNo, err := utils.GetSequence[Due](ctx)
	if err != nil {
		return nil, err
	}

	dueDate := input.DueDate
	if dueDate.IsZero() {
		dueDate = time.Now()
	}

	due := Due{
		MemberId:      input.MemberId,
		Period:        input.Period,
		Concept:       input.Concept,
		Amount:        input.Amount,
		DueDate:       dueDate,
		SequenceNo:    int(sequenceNo),
		ReceiptNumber: fmt.Sprintf("REC-%d", sequenceNo),
	}

	db := config.GetDB()
	tx := db.Begin()
	if err := tx.WithContext(ctx).Create(&due).Error; err != nil {
		tx.Rollback()
		if isDuplicateKeyErr(err) {
			return nil, utils.NewConflictError("receipt number %s is already taken", due.ReceiptNumber)
		}
		return nil, err
	}
	SaveAuditCreate(tx.WithContext(ctx), "dues", due.ID, due, "Due "+due.ReceiptNumber+" for period "+due.Period+" created.")
	if err := tx.Commit().Error; err != nil {
		return nil, err
	}

	// no receipt email on creation: the due's receipt goes out when it is
	// paid, and a send here would mark it sent and suppress that one
	return &due, nil
}

func UpdateDue(ctx context.Context, id int, patch *DuePatch) (*Due, error) {

	before, err := utils.FetchModel[Due](ctx, id)
	if err != nil {
		return nil, err
	}
	if before.Paid {
		return nil, utils.NewConflictError("due %s is already paid and cannot be edited", before.ReceiptNumber)
	}

	// effective member+period after the patch, for the one-due-per-period check
	member := before.MemberId
	if patch.MemberId != nil {
		member = patch.MemberId
	}
	period := utils.DereferencePtr(patch.Period, before.Period)

	updates := map[string]interface{}{}
	if patch.MemberId != nil {
		if err := utils.ValidateResourceId[Member](ctx, *patch.MemberId); err != nil {
			return nil, err
		}
		updates["MemberId"] = *patch.MemberId
	}
	if patch.Period != nil {
		if *patch.Period == "" {
			return nil, utils.NewValidationError("due period is required")
		}
		updates["Period"] = *patch.Period
	}
	if (patch.MemberId != nil || patch.Period != nil) && member != nil {
		count, err := utils.ResourceCountWhere[Due](ctx, "member_id = ? AND period = ? AND id != ?", *member, period, id)
		if err != nil {
			return nil, err
		}
		if count > 0 {
			return nil, utils.NewConflictError("member %d already has a due for period %s", *member, period)
		}
	}
	if patch.Concept != nil {
		updates["Concept"] = *patch.Concept
	}
	if patch.Amount != nil {
		if !patch.Amount.IsPositive() {
			return nil, utils.NewValidationError("due amount must be positive")
		}
		updates["Amount"] = *patch.Amount
	}
	if patch.DueDate != nil {
		updates["DueDate"] = *patch.DueDate
	}
	if len(updates) == 0 {
		return before, nil
	}

	db := config.GetDB()
	tx := db.Begin()
	target := Due{ID: id}
	if err := tx.WithContext(ctx).Model(&target).Updates(updates).Error; err != nil {
		tx.Rollback()
		return nil, err
	}
	SaveAuditUpdate(tx.WithContext(ctx), "dues", id, before, updates, "Due "+before.ReceiptNumber+" updated.")
	if err := tx.Commit().Error; err != nil {
		return nil, err
	}

	return utils.FetchModel[Due](ctx, id)
}

// PayDue settles the due: it flips the due to paid and inserts the settling
// collection plus its income entry atomically. Paying twice is a conflict.
func PayDue(ctx context.Context, id int, input *PayDueInput) (*Due, error) {

	due, err := utils.FetchModel[Due](ctx, id)
	if err != nil {
		return nil, err
	}
	if due.Paid {
		return nil, utils.NewConflictError("due %s is already paid", due.ReceiptNumber)
	}
	// the settling collection always belongs to a member
	if due.MemberId == nil {
		return nil, utils.NewValidationError("due %s has no member; assign one before paying", due.ReceiptNumber)
	}
	member, err := utils.FetchModel[Member](ctx, *due.MemberId)
	if err != nil {
		return nil, err
	}

	amount := input.Amount
	if amount.IsZero() {
		amount = due.Amount
	}
	if !amount.IsPositive() {
		return nil, utils.NewValidationError("payment amount must be positive")
	}
	paymentDate := time.Now()
	if input.PaymentDate != nil {
		paymentDate = *input.PaymentDate
	}
	if input.RetentionId != nil && *input.RetentionId > 0 {
		if err := utils.ValidateResourceId[Retention](ctx, *input.RetentionId); err != nil {
			return nil, err
		}
	}
	if input.CategoryId != nil && *input.CategoryId > 0 {
		if err := utils.ValidateResourceId[Category](ctx, *input.CategoryId); err != nil {
			return nil, err
		}
	}

	db := config.GetDB()
	tx := db.Begin()

	target := Due{ID: id}
	result := tx.WithContext(ctx).Model(&target).
		Where("paid = ?", false).
		Updates(map[string]interface{}{
			"Paid":        true,
			"AmountPaid":  amount,
			"PaymentDate": paymentDate,
		})
	if result.Error != nil {
		tx.Rollback()
		return nil, result.Error
	}
	if result.RowsAffected == 0 {
		tx.Rollback()
		return nil, utils.NewConflictError("due %s is already paid", due.ReceiptNumber)
	}

	newCollection := NewCollection{
		MemberId:       *due.MemberId,
		CategoryId:     input.CategoryId,
		RetentionId:    input.RetentionId,
		CollectionDate: paymentDate,
		Amount:         amount,
		DocType:        DocTypeReceipt,
		DocNumber:      due.ReceiptNumber,
	}
	if _, err := insertCollection(ctx, tx, &newCollection, &due.ID, member.Name); err != nil {
		tx.Rollback()
		// due_id is unique on collections: a racing settle loses here
		if isDuplicateKeyErr(err) {
			return nil, utils.NewConflictError("due %s is already paid", due.ReceiptNumber)
		}
		return nil, err
	}

	SaveAuditAction(tx.WithContext(ctx), ActionTypePay, "dues", due.ID, "Due "+due.ReceiptNumber+" paid: "+amount.String()+" from "+member.Name+".")
	if err := tx.Commit().Error; err != nil {
		return nil, err
	}

	paid, err := utils.FetchModel[Due](ctx, id)
	if err != nil {
		return nil, err
	}
	paid.DispatchResult = notifyCreated(ctx, ReceiptKindDue, paid.ID)
	return paid, nil
}

// DeleteDue only removes unpaid dues; a paid due has a collection and a
// ledger entry hanging off it.
func DeleteDue(ctx context.Context, id int) (*Due, error) {

	due, err := utils.FetchModel[Due](ctx, id)
	if err != nil {
		return nil, err
	}
	if due.Paid {
		return nil, utils.NewConflictError("due %s is paid; delete its collection history first", due.ReceiptNumber)
	}

	db := config.GetDB()
	tx := db.Begin()
	if err := tx.WithContext(ctx).Delete(&due).Error; err != nil {
		tx.Rollback()
		return nil, err
	}
	SaveAuditDelete(tx.WithContext(ctx), "dues", id, due, "Due "+due.ReceiptNumber+" deleted.")
	if err := tx.Commit().Error; err != nil {
		return nil, err
	}
	return due, nil
}

func GetDue(ctx context.Context, id int) (*Due, error) {
	return utils.FetchModel[Due](ctx, id, "Member")
}

func ListDues(ctx context.Context, memberId *int, period *string, paid *bool) ([]*Due, error) {

	db := config.GetDB()
	dbCtx := db.WithContext(ctx).Preload("Member")
	if memberId != nil && *memberId > 0 {
		dbCtx = dbCtx.Where("member_id = ?", *memberId)
	}
	if period != nil && *period != "" {
		dbCtx = dbCtx.Where("period = ?", *period)
	}
	if paid != nil {
		dbCtx = dbCtx.Where("paid = ?", *paid)
	}

	var results []*Due
	if err := dbCtx.Order("due_date DESC, id DESC").Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}
