package models

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
	"github.com/socioadmin/tesoreria_backend/config"
	"github.com/socioadmin/tesoreria_backend/utils"
	"gorm.io/gorm"
)

// Collection is money entering the cash account (a recibo de cobranza).
// An optional retention withholds a percentage before it reaches the ledger.
type Collection struct {
	ID              int               `gorm:"primary_key" json:"id"`
	MemberId        int               `gorm:"index;not null" json:"member_id" binding:"required"`
	Member          *Member           `gorm:"foreignKey:MemberId" json:"member,omitempty"`
	CategoryId      *int              `gorm:"index" json:"category_id"`
	RetentionId     *int              `gorm:"index" json:"retention_id"`
	Retention       *Retention        `gorm:"foreignKey:RetentionId" json:"retention,omitempty"`
	DueId           *int              `gorm:"uniqueIndex" json:"due_id"`
	CollectionDate  time.Time         `gorm:"not null;index" json:"collection_date" binding:"required"`
	Amount          decimal.Decimal   `gorm:"type:decimal(20,4);not null" json:"amount"`
	RetentionAmount decimal.Decimal   `gorm:"type:decimal(20,4);not null;default:0" json:"retention_amount"`
	DocType         DocType           `gorm:"size:10;not null;default:'Receipt'" json:"doc_type"`
	DocNumber       string            `gorm:"size:64" json:"doc_number"`
	Notification    NotificationState `gorm:"embedded" json:"notification_state"`

	DispatchResult *NotificationResult `gorm:"-" json:"notification,omitempty"`

	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

func (c Collection) GetId() int {
	return c.ID
}

// NetAmount is what actually reaches the cash account.
func (c *Collection) NetAmount() decimal.Decimal {
	return c.Amount.Sub(c.RetentionAmount)
}

// retentionAmountFor applies a percent rate to an amount, rounded to the
// 4 decimals the columns store. Create and update must agree to the cent.
func retentionAmountFor(amount, rate decimal.Decimal) decimal.Decimal {
	return amount.Mul(rate).Div(decimal.NewFromInt(100)).Round(4)
}

type NewCollection struct {
	MemberId       int             `json:"member_id" binding:"required"`
	CategoryId     *int            `json:"category_id"`
	RetentionId    *int            `json:"retention_id"`
	CollectionDate time.Time       `json:"collection_date" binding:"required"`
	Amount         decimal.Decimal `json:"amount"`
	DocType        DocType         `json:"doc_type"`
	DocNumber      string          `json:"doc_number"`
}

type CollectionPatch struct {
	MemberId       *int             `json:"member_id"`
	CategoryId     *int             `json:"category_id"`
	CollectionDate *time.Time       `json:"collection_date"`
	Amount         *decimal.Decimal `json:"amount"`
	DocType        *DocType         `json:"doc_type"`
	DocNumber      *string          `json:"doc_number"`
}

func (input *NewCollection) validate(ctx context.Context) error {
	if !input.Amount.IsPositive() {
		return utils.NewValidationError("collection amount must be positive")
	}
	if input.CollectionDate.IsZero() {
		return utils.NewValidationError("collection date is required")
	}
	if input.DocType == DocTypeInvoice && input.DocNumber == "" {
		return utils.NewValidationError("invoice collections require a doc number")
	}
	if err := utils.ValidateResourceId[Member](ctx, input.MemberId); err != nil {
		return err
	}
	if input.CategoryId != nil && *input.CategoryId > 0 {
		if err := utils.ValidateResourceId[Category](ctx, *input.CategoryId); err != nil {
			return err
		}
	}
	if input.RetentionId != nil && *input.RetentionId > 0 {
		if err := utils.ValidateResourceId[Retention](ctx, *input.RetentionId); err != nil {
			return err
		}
	}
	return nil
}

func collectionDetail(memberName string) string {
	return "Collection from " + memberName
}

// insertCollection persists a collection and its mirrored income entry on the
// caller's transaction. It does NOT write an audit record; the caller owns
// the audit trail for its own operation.
func insertCollection(ctx context.Context, tx *gorm.DB, input *NewCollection, dueId *int, memberName string) (*Collection, error) {

	collection := Collection{
		MemberId:       input.MemberId,
		CategoryId:     input.CategoryId,
		RetentionId:    input.RetentionId,
		DueId:          dueId,
		CollectionDate: input.CollectionDate,
		Amount:         input.Amount,
		DocType:        input.DocType,
		DocNumber:      input.DocNumber,
	}
	if collection.DocType == "" {
		collection.DocType = DocTypeReceipt
	}
	if input.RetentionId != nil && *input.RetentionId > 0 {
		retention, err := utils.FetchModel[Retention](ctx, *input.RetentionId)
		if err != nil {
			return nil, err
		}
		collection.RetentionAmount = retentionAmountFor(input.Amount, retention.Rate)
	}
	if !collection.NetAmount().IsPositive() {
		return nil, utils.NewValidationError("retention leaves no positive net amount")
	}

	if err := tx.WithContext(ctx).Create(&collection).Error; err != nil {
		return nil, err
	}

	entry := LedgerEntry{
		EntryDate:    collection.CollectionDate,
		Detail:       collectionDetail(memberName),
		Amount:       collection.NetAmount(),
		Kind:         EntryKindIncome,
		MemberId:     collection.MemberId,
		CollectionId: &collection.ID,
	}
	if err := mirrorCreateEntry(ctx, tx, &entry); err != nil {
		return nil, err
	}
	return &collection, nil
}

func CreateCollection(ctx context.Context, input *NewCollection) (*Collection, error) {

	if err := input.validate(ctx); err != nil {
		return nil, err
	}
	member, err := utils.FetchModel[Member](ctx, input.MemberId)
	if err != nil {
		return nil, err
	}

	db := config.GetDB()
	tx := db.Begin()
	collection, err := insertCollection(ctx, tx, input, nil, member.Name)
	if err != nil {
		tx.Rollback()
		return nil, err
	}
	SaveAuditCreate(tx.WithContext(ctx), "collections", collection.ID, collection, "Collection of "+collection.Amount.String()+" from "+member.Name+" created.")
	if err := tx.Commit().Error; err != nil {
		return nil, err
	}

	collection.DispatchResult = notifyCreated(ctx, ReceiptKindCollection, collection.ID)
	return collection, nil
}

func UpdateCollection(ctx context.Context, id int, patch *CollectionPatch) (*Collection, error) {

	before, err := utils.FetchModel[Collection](ctx, id)
	if err != nil {
		return nil, err
	}
	if before.DueId != nil {
		return nil, utils.NewConflictError("collection %d settles due %d and cannot be edited directly", id, *before.DueId)
	}

	merged := NewCollection{
		MemberId:       utils.DereferencePtr(patch.MemberId, before.MemberId),
		CategoryId:     before.CategoryId,
		RetentionId:    before.RetentionId,
		CollectionDate: utils.DereferencePtr(patch.CollectionDate, before.CollectionDate),
		Amount:         utils.DereferencePtr(patch.Amount, before.Amount),
		DocType:        utils.DereferencePtr(patch.DocType, before.DocType),
		DocNumber:      utils.DereferencePtr(patch.DocNumber, before.DocNumber),
	}
	if patch.CategoryId != nil {
		merged.CategoryId = patch.CategoryId
	}
	if err := merged.validate(ctx); err != nil {
		return nil, err
	}

	updates := map[string]interface{}{}
	if patch.MemberId != nil {
		updates["MemberId"] = *patch.MemberId
	}
	if patch.CategoryId != nil {
		updates["CategoryId"] = *patch.CategoryId
	}
	if patch.CollectionDate != nil {
		updates["CollectionDate"] = *patch.CollectionDate
	}
	if patch.Amount != nil {
		updates["Amount"] = *patch.Amount
		if before.RetentionId != nil {
			retention, err := utils.FetchModel[Retention](ctx, *before.RetentionId)
			if err != nil {
				return nil, err
			}
			updates["RetentionAmount"] = retentionAmountFor(*patch.Amount, retention.Rate)
		}
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
	target := Collection{ID: id}
	if err := tx.WithContext(ctx).Model(&target).Updates(updates).Error; err != nil {
		tx.Rollback()
		return nil, err
	}

	mirrorNeeded := patch.Amount != nil || patch.CollectionDate != nil || patch.MemberId != nil
	if mirrorNeeded {
		netAmount := merged.Amount
		if retentionAmount, ok := updates["RetentionAmount"].(decimal.Decimal); ok {
			netAmount = merged.Amount.Sub(retentionAmount)
		} else {
			netAmount = merged.Amount.Sub(before.RetentionAmount)
		}
		if err := mirrorUpdateEntry(ctx, tx, "collection_id", id,
			merged.CollectionDate, netAmount, EntryKindIncome,
			merged.MemberId, collectionDetail(member.Name)); err != nil {
			tx.Rollback()
			return nil, err
		}
	}

	SaveAuditUpdate(tx.WithContext(ctx), "collections", id, before, updates, "Collection updated.")
	if err := tx.Commit().Error; err != nil {
		return nil, err
	}

	return utils.FetchModel[Collection](ctx, id)
}

func DeleteCollection(ctx context.Context, id int) (*Collection, error) {

	collection, err := utils.FetchModel[Collection](ctx, id)
	if err != nil {
		return nil, err
	}
	if collection.DueId != nil {
		return nil, utils.NewConflictError("collection %d settles due %d and cannot be deleted directly", id, *collection.DueId)
	}

	db := config.GetDB()
	tx := db.Begin()
	if err := tx.WithContext(ctx).Delete(&collection).Error; err != nil {
		tx.Rollback()
		return nil, err
	}
	if err := mirrorDeleteEntry(ctx, tx, "collection_id", id); err != nil {
		tx.Rollback()
		return nil, err
	}
	SaveAuditDelete(tx.WithContext(ctx), "collections", id, collection, "Collection of "+collection.Amount.String()+" deleted.")
	if err := tx.Commit().Error; err != nil {
		return nil, err
	}
	return collection, nil
}

func GetCollection(ctx context.Context, id int) (*Collection, error) {
	return utils.FetchModel[Collection](ctx, id, "Member", "Retention")
}

func ListCollections(ctx context.Context, fromDate *time.Time, toDate *time.Time, memberId *int) ([]*Collection, error) {

	db := config.GetDB()
	dbCtx := db.WithContext(ctx).Preload("Member").Preload("Retention")
	if fromDate != nil {
		dbCtx = dbCtx.Where("collection_date >= ?", *fromDate)
	}
	if toDate != nil {
		dbCtx = dbCtx.Where("collection_date <= ?", *toDate)
	}
	if memberId != nil && *memberId > 0 {
		dbCtx = dbCtx.Where("member_id = ?", *memberId)
	}

	var results []*Collection
	if err := dbCtx.Order("collection_date DESC, id DESC").Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}
