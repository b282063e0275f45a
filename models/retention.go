package models

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
	"github.com/socioadmin/tesoreria_backend/config"
	"github.com/socioadmin/tesoreria_backend/utils"
)

// Retention is a withholding scheme a collection may reference.
type Retention struct {
	ID        int             `gorm:"primary_key" json:"id"`
	Name      string          `gorm:"size:100;not null" json:"name" binding:"required"`
	Rate      decimal.Decimal `gorm:"type:decimal(8,4);default:0" json:"rate"`
	CreatedAt time.Time       `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt time.Time       `gorm:"autoUpdateTime" json:"updated_at"`
}

func (r Retention) GetId() int {
	return r.ID
}

type NewRetention struct {
	Name string          `json:"name" binding:"required"`
	Rate decimal.Decimal `json:"rate"`
}

func CreateRetention(ctx context.Context, input *NewRetention) (*Retention, error) {

	if input.Rate.IsNegative() {
		return nil, utils.NewValidationError("retention rate cannot be negative")
	}

	retention := Retention{
		Name: input.Name,
		Rate: input.Rate,
	}

	db := config.GetDB()
	tx := db.Begin()
	if err := tx.WithContext(ctx).Create(&retention).Error; err != nil {
		tx.Rollback()
		return nil, err
	}
	SaveAuditCreate(tx.WithContext(ctx), "retentions", retention.ID, retention, "Retention "+retention.Name+" created.")
	if err := tx.Commit().Error; err != nil {
		return nil, err
	}
	return &retention, nil
}

// DeleteRetention refuses while a live collection still references the
// retention. Historical ledger rows of already-deleted collections do not
// block the delete.
func DeleteRetention(ctx context.Context, id int) (*Retention, error) {

	retention, err := utils.FetchModel[Retention](ctx, id)
	if err != nil {
		return nil, err
	}

	count, err := utils.ResourceCountWhere[Collection](ctx, "retention_id = ?", id)
	if err != nil {
		return nil, err
	}
	if count > 0 {
		return nil, utils.NewConflictError("retention %d is referenced by collections", id)
	}

	db := config.GetDB()
	tx := db.Begin()
	if err := tx.WithContext(ctx).Delete(&retention).Error; err != nil {
		tx.Rollback()
		return nil, err
	}
	SaveAuditDelete(tx.WithContext(ctx), "retentions", id, retention, "Retention "+retention.Name+" deleted.")
	if err := tx.Commit().Error; err != nil {
		return nil, err
	}
	return retention, nil
}

func GetRetention(ctx context.Context, id int) (*Retention, error) {
	return utils.FetchModel[Retention](ctx, id)
}

func ListRetentions(ctx context.Context) ([]*Retention, error) {
	return utils.FetchAllModels[Retention](ctx)
}
