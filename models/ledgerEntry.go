package models

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"github.com/socioadmin/tesoreria_backend/config"
	"github.com/socioadmin/tesoreria_backend/utils"
	"gorm.io/gorm"
)

// LedgerEntry is one row of the derived ledger: a single monetary movement
// with a running balance. Entries mirror their source document (a Payment or
// a Collection); dues never own an entry directly.
type LedgerEntry struct {
	ID             int             `gorm:"primary_key" json:"id"`
	EntryDate      time.Time       `gorm:"not null;index;index:idx_le_date_id,priority:1" json:"entry_date"`
	Account        string          `gorm:"size:50;not null;default:'CAJA';index" json:"account"`
	Detail         string          `gorm:"size:255" json:"detail"`
	Amount         decimal.Decimal `gorm:"type:decimal(20,4);not null" json:"amount"`
	Kind           EntryKind       `gorm:"size:10;not null;index" json:"kind"`
	IncomeAmount   decimal.Decimal `gorm:"column:income;type:decimal(20,4);default:0" json:"income"`
	ExpenseAmount  decimal.Decimal `gorm:"column:expense;type:decimal(20,4);default:0" json:"expense"`
	RunningBalance decimal.Decimal `gorm:"type:decimal(20,4);default:0" json:"running_balance"`
	MemberId       int             `gorm:"index" json:"member_id"`
	PaymentId      *int            `gorm:"uniqueIndex" json:"payment_id"`
	CollectionId   *int            `gorm:"uniqueIndex" json:"collection_id"`
	IsVoidMarker   bool            `gorm:"not null;default:false" json:"is_void_marker"`
	VoidsEntryId   *int            `gorm:"index" json:"voids_entry_id"`
	CreatedAt      time.Time       `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt      time.Time       `gorm:"autoUpdateTime" json:"updated_at"`
}

func (e LedgerEntry) GetId() int {
	return e.ID
}

// Ledger guardrails:
// - source references and void linkage never change once written
// - mirrored fields change only through the mirror helpers, balances only
//   through recalculation (which writes with UpdateColumn, skipping hooks)

func (e *LedgerEntry) BeforeUpdate(tx *gorm.DB) error {
	allowed := map[string]bool{
		"EntryDate":      true,
		"Detail":         true,
		"Amount":         true,
		"Kind":           true,
		"IncomeAmount":   true,
		"ExpenseAmount":  true,
		"RunningBalance": true,
		"MemberId":       true,
		"UpdatedAt":      true,
	}
	if tx == nil || tx.Statement == nil || tx.Statement.Schema == nil {
		return nil
	}
	for _, f := range tx.Statement.Schema.Fields {
		if tx.Statement.Changed(f.Name) && !allowed[f.Name] {
			return errors.New("ledger entries: only mirrored fields and the running balance may be updated")
		}
	}
	return nil
}

// mirrorCreateEntry inserts the single entry owned by a source document.
// RunningBalance is left at zero; it is only meaningful after the next
// recalculation pass.
func mirrorCreateEntry(ctx context.Context, tx *gorm.DB, entry *LedgerEntry) error {
	entry.Account = LedgerAccountCaja
	entry.RunningBalance = decimal.Zero
	if entry.Kind == EntryKindIncome {
		entry.IncomeAmount = entry.Amount
		entry.ExpenseAmount = decimal.Zero
	} else {
		entry.IncomeAmount = decimal.Zero
		entry.ExpenseAmount = entry.Amount
	}
	return tx.WithContext(ctx).Create(entry).Error
}

// mirrorUpdateEntry overwrites the mutable mirrored fields of the entry owned
// by the given source document. It does not recompute balances.
func mirrorUpdateEntry(ctx context.Context, tx *gorm.DB, sourceColumn string, sourceId int, date time.Time, amount decimal.Decimal, kind EntryKind, memberId int, detail string) error {
	income := decimal.Zero
	expense := decimal.Zero
	if kind == EntryKindIncome {
		income = amount
	} else {
		expense = amount
	}
	return tx.WithContext(ctx).Model(&LedgerEntry{}).
		Where(sourceColumn+" = ?", sourceId).
		Updates(map[string]interface{}{
			"EntryDate":     date,
			"Amount":        amount,
			"Kind":          kind,
			"IncomeAmount":  income,
			"ExpenseAmount": expense,
			"MemberId":      memberId,
			"Detail":        detail,
		}).Error
}

// mirrorDeleteEntry removes the entry owned by the given source document, if
// any. No orphan entries are permitted.
func mirrorDeleteEntry(ctx context.Context, tx *gorm.DB, sourceColumn string, sourceId int) error {
	return tx.WithContext(ctx).
		Where(sourceColumn+" = ?", sourceId).
		Delete(&LedgerEntry{}).Error
}

// ComputeRunningBalances folds income minus expense over entries already in
// (entry_date ASC, id ASC) order, writing each cumulative balance back onto
// the slice. This is the sole definition of the saldo column.
func ComputeRunningBalances(entries []*LedgerEntry) {
	balance := decimal.Zero
	for _, entry := range entries {
		balance = balance.Add(entry.IncomeAmount).Sub(entry.ExpenseAmount)
		entry.RunningBalance = balance
	}
}

// FetchLedgerEntriesOrdered loads the whole table in the canonical recalculation
// order. Id is the tie-break for same-day entries, giving a stable total order.
func FetchLedgerEntriesOrdered(ctx context.Context, tx *gorm.DB) ([]*LedgerEntry, error) {
	var entries []*LedgerEntry
	if err := tx.WithContext(ctx).
		Order("entry_date ASC, id ASC").
		Find(&entries).Error; err != nil {
		return nil, err
	}
	return entries, nil
}

func ListLedgerEntries(ctx context.Context, fromDate *time.Time, toDate *time.Time, kind *EntryKind, account *string) ([]*LedgerEntry, error) {

	db := config.GetDB()
	dbCtx := db.WithContext(ctx)
	if fromDate != nil {
		dbCtx = dbCtx.Where("entry_date >= ?", *fromDate)
	}
	if toDate != nil {
		dbCtx = dbCtx.Where("entry_date <= ?", *toDate)
	}
	if kind != nil && *kind != "" {
		dbCtx = dbCtx.Where("kind = ?", *kind)
	}
	if account != nil && *account != "" {
		dbCtx = dbCtx.Where("account = ?", *account)
	}

	var results []*LedgerEntry
	if err := dbCtx.Order("entry_date ASC, id ASC").Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}

func GetLedgerEntry(ctx context.Context, id int) (*LedgerEntry, error) {
	return utils.FetchModel[LedgerEntry](ctx, id)
}

// GetLedgerBalance returns the running balance of the last entry in canonical
// order, zero when the ledger is empty. Only meaningful after recalculation.
func GetLedgerBalance(ctx context.Context) (decimal.Decimal, error) {
	db := config.GetDB()
	var entry LedgerEntry
	err := db.WithContext(ctx).
		Order("entry_date DESC, id DESC").
		First(&entry).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return decimal.Zero, nil
		}
		return decimal.Zero, err
	}
	return entry.RunningBalance, nil
}

// VoidLedgerEntry records an anulacion: a new compensating entry of the
// opposite kind referencing the voided one. History stays append-only; the
// reversal shows up in the running balance after the next recalculation.
func VoidLedgerEntry(ctx context.Context, id int, reason string) (*LedgerEntry, error) {

	entry, err := utils.FetchModel[LedgerEntry](ctx, id)
	if err != nil {
		return nil, err
	}
	if entry.IsVoidMarker {
		return nil, utils.NewConflictError("entry %d is itself a void marker", id)
	}
	voided, err := utils.ResourceCountWhere[LedgerEntry](ctx, "voids_entry_id = ?", id)
	if err != nil {
		return nil, err
	}
	if voided > 0 {
		return nil, utils.NewConflictError("entry %d has already been voided", id)
	}

	marker := LedgerEntry{
		EntryDate:    time.Now().UTC(),
		Account:      entry.Account,
		Detail:       fmt.Sprintf("Anulacion of entry #%d: %s", id, reason),
		Amount:       entry.Amount,
		Kind:         entry.Kind.Opposite(),
		MemberId:     entry.MemberId,
		IsVoidMarker: true,
		VoidsEntryId: &entry.ID,
	}

	db := config.GetDB()
	tx := db.Begin()
	if err := mirrorCreateEntry(ctx, tx, &marker); err != nil {
		tx.Rollback()
		return nil, err
	}
	SaveAuditAction(tx.WithContext(ctx), ActionTypeVoid, "ledger_entries", entry.ID, marker.Detail)
	if err := tx.Commit().Error; err != nil {
		return nil, err
	}
	return &marker, nil
}
