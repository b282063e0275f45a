package models

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/socioadmin/tesoreria_backend/config"
	"github.com/socioadmin/tesoreria_backend/utils"
	"gorm.io/gorm"
)

type AuditRecord struct {
	ID            int        `gorm:"primary_key" json:"id"`
	ActorId       *int       `gorm:"index" json:"actor_id"`
	ActorName     string     `gorm:"size:100" json:"actor_name"`
	Action        ActionType `gorm:"size:10;not null" json:"action"`
	AffectedTable string     `gorm:"size:64;not null;index" json:"affected_table"`
	AffectedId    int        `gorm:"index" json:"affected_id"`
	Before        string     `gorm:"type:text" json:"before"`
	After         string     `gorm:"type:text" json:"after"`
	Detail        string     `gorm:"type:text" json:"detail"`
	CorrelationId string     `gorm:"size:64;index" json:"correlation_id"`
	CreatedAt     time.Time  `gorm:"autoCreateTime" json:"created_at"`
}

// Audit records are append-only.

func (a *AuditRecord) BeforeUpdate(tx *gorm.DB) error {
	return errors.New("audit trail is append-only: audit_records cannot be updated")
}

func (a *AuditRecord) BeforeDelete(tx *gorm.DB) error {
	return errors.New("audit trail is append-only: audit_records cannot be deleted")
}

// saveAudit appends one audit record inside the caller's transaction.
// Failure policy: a failed append is logged and swallowed so it never rolls
// back or fails the primary operation. The trail is best-effort observability.
func saveAudit(tx *gorm.DB, action ActionType, table string, id int, before interface{}, after interface{}, detail string) {
	var record AuditRecord

	b, _ := json.Marshal(before)
	a, _ := json.Marshal(after)

	ctx := tx.Statement.Context
	if ctx == nil {
		ctx = context.Background()
	}
	if actorId, ok := utils.GetActorIdFromContext(ctx); ok {
		record.ActorId = &actorId
	}
	if actorName, ok := utils.GetActorNameFromContext(ctx); ok {
		record.ActorName = actorName
	}
	if correlationId, ok := utils.GetCorrelationIdFromContext(ctx); ok {
		record.CorrelationId = correlationId
	}

	record.Action = action
	record.AffectedTable = table
	record.AffectedId = id
	if before != nil {
		record.Before = string(b)
	}
	if after != nil {
		record.After = string(a)
	}
	record.Detail = detail

	if err := tx.Create(&record).Error; err != nil {
		config.LogError(config.GetLogger(), "models", "saveAudit", table, record, err)
	}
}

func SaveAuditCreate(tx *gorm.DB, table string, id int, obj interface{}, detail string) {
	saveAudit(tx, ActionTypeCreate, table, id, nil, obj, detail)
}

func SaveAuditUpdate(tx *gorm.DB, table string, id int, before interface{}, after interface{}, detail string) {
	saveAudit(tx, ActionTypeUpdate, table, id, before, after, detail)
}

func SaveAuditDelete(tx *gorm.DB, table string, id int, obj interface{}, detail string) {
	saveAudit(tx, ActionTypeDelete, table, id, obj, nil, detail)
}

// SaveAuditAction covers the non-CRUD mutations (PAY, VOID, RECALC).
func SaveAuditAction(tx *gorm.DB, action ActionType, table string, id int, detail string) {
	saveAudit(tx, action, table, id, nil, nil, detail)
}

func GetAuditRecords(ctx context.Context, affectedTable *string, affectedId *int, actorId *int) ([]*AuditRecord, error) {

	db := config.GetDB()
	var results []*AuditRecord

	dbCtx := db.WithContext(ctx)
	if affectedTable != nil && *affectedTable != "" {
		dbCtx = dbCtx.Where("affected_table = ?", *affectedTable)
	}
	if affectedId != nil && *affectedId > 0 {
		dbCtx = dbCtx.Where("affected_id = ?", *affectedId)
	}
	if actorId != nil && *actorId > 0 {
		dbCtx = dbCtx.Where("actor_id = ?", *actorId)
	}
	err := dbCtx.Order("created_at DESC").Find(&results).Error
	if err != nil {
		return nil, err
	}
	return results, nil
}
