package models

import (
	"context"
	"time"

	"github.com/socioadmin/tesoreria_backend/config"
	"github.com/socioadmin/tesoreria_backend/utils"
)

// Category is the flat ingreso/egreso classification a document may carry.
type Category struct {
	ID        int       `gorm:"primary_key" json:"id"`
	Name      string    `gorm:"size:100;not null" json:"name" binding:"required"`
	Kind      EntryKind `gorm:"size:10;not null" json:"kind" binding:"required"`
	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

func (c Category) GetId() int {
	return c.ID
}

type NewCategory struct {
	Name string    `json:"name" binding:"required"`
	Kind EntryKind `json:"kind" binding:"required"`
}

func CreateCategory(ctx context.Context, input *NewCategory) (*Category, error) {

	if input.Kind != EntryKindIncome && input.Kind != EntryKindExpense {
		return nil, utils.NewValidationError("invalid category kind %q", input.Kind)
	}
	if err := utils.ValidateUnique[Category](ctx, "name", input.Name, 0); err != nil {
		return nil, utils.NewValidationError("duplicate category name %q", input.Name)
	}

	category := Category{
		Name: input.Name,
		Kind: input.Kind,
	}

	db := config.GetDB()
	tx := db.Begin()
	if err := tx.WithContext(ctx).Create(&category).Error; err != nil {
		tx.Rollback()
		return nil, err
	}
	SaveAuditCreate(tx.WithContext(ctx), "categories", category.ID, category, "Category "+category.Name+" created.")
	if err := tx.Commit().Error; err != nil {
		return nil, err
	}
	return &category, nil
}

// DeleteCategory refuses while any document still references the category.
func DeleteCategory(ctx context.Context, id int) (*Category, error) {

	category, err := utils.FetchModel[Category](ctx, id)
	if err != nil {
		return nil, err
	}

	for _, table := range []string{"payments", "collections"} {
		var count int64
		db := config.GetDB()
		if err := db.WithContext(ctx).Table(table).Where("category_id = ?", id).Count(&count).Error; err != nil {
			return nil, err
		}
		if count > 0 {
			return nil, utils.NewConflictError("category %d is referenced by %s", id, table)
		}
	}

	db := config.GetDB()
	tx := db.Begin()
	if err := tx.WithContext(ctx).Delete(&category).Error; err != nil {
		tx.Rollback()
		return nil, err
	}
	SaveAuditDelete(tx.WithContext(ctx), "categories", id, category, "Category "+category.Name+" deleted.")
	if err := tx.Commit().Error; err != nil {
		return nil, err
	}
	return category, nil
}

func GetCategory(ctx context.Context, id int) (*Category, error) {
	return utils.FetchModel[Category](ctx, id)
}

func ListCategories(ctx context.Context) ([]*Category, error) {
	return utils.FetchAllModels[Category](ctx)
}
