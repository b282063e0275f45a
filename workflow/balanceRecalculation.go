package workflow

import (
	"context"
	"fmt"
	"time"

	"github.com/bsm/redislock"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
	"github.com/socioadmin/tesoreria_backend/config"
	"github.com/socioadmin/tesoreria_backend/models"
)

type RecalcSummary struct {
	EntriesScanned int             `json:"entries_scanned"`
	EntriesUpdated int             `json:"entries_updated"`
	FinalBalance   decimal.Decimal `json:"final_balance"`
}

// RecalculateBalances rebuilds the running balance of every ledger entry in
// chronological order. It is idempotent: a second run over an unchanged
// ledger updates nothing.
//
// Two locks serialize it: a best-effort redis lock keeps concurrent callers
// from piling up, and a MySQL advisory lock on the transaction connection is
// the authoritative guard.
func RecalculateBalances(ctx context.Context) (*RecalcSummary, error) {

	logger := config.GetLogger()

	// Redis lock is a best-effort optimization.
	// Reliability must not depend on Redis: the MySQL advisory lock below serializes safely.
	var lock *redislock.Lock
	redisLock := config.GetRedisLock()
	if redisLock != nil {
		var err error
		lock, err = redisLock.Obtain(ctx, "lock:"+recalcLockName, 30*time.Second, nil)
		if err == redislock.ErrNotObtained {
			logger.WithFields(logrus.Fields{
				"field": "RecalculateBalances",
			}).Warn("could not obtain redis lock; proceeding without redis lock")
			lock = nil
		} else if err != nil {
			config.LogError(logger, "balanceRecalculation.go", "RecalculateBalances", "redisLock.Obtain", nil, err)
			lock = nil
		}
	}
	if lock != nil {
		defer lock.Release(context.Background())
	}

	db := config.GetDB()
	tx := db.Begin()
	if err := AcquireRecalcLock(tx); err != nil {
		tx.Rollback()
		return nil, err
	}
	// GET_LOCK is session-scoped, not transaction-scoped: release it while the
	// tx connection can still run statements, or the pooled connection goes
	// back holding the lock.

	entries, err := models.FetchLedgerEntriesOrdered(ctx, tx)
	if err != nil {
		ReleaseRecalcLock(tx)
		tx.Rollback()
		return nil, err
	}

	previous := make([]decimal.Decimal, len(entries))
	for i, e := range entries {
		previous[i] = e.RunningBalance
	}

	models.ComputeRunningBalances(entries)

	summary := RecalcSummary{EntriesScanned: len(entries)}
	for i, e := range entries {
		if e.RunningBalance.Equal(previous[i]) {
			continue
		}
		if err := tx.WithContext(ctx).Model(&models.LedgerEntry{ID: e.ID}).
			UpdateColumn("running_balance", e.RunningBalance).Error; err != nil {
			ReleaseRecalcLock(tx)
			tx.Rollback()
			return nil, err
		}
		summary.EntriesUpdated++
	}
	if len(entries) > 0 {
		summary.FinalBalance = entries[len(entries)-1].RunningBalance
	}

	models.SaveAuditAction(tx.WithContext(ctx), models.ActionTypeRecalc, "ledger_entries", 0,
		fmt.Sprintf("Recalculated running balances: %d entries scanned, %d updated, final balance %s.",
			summary.EntriesScanned, summary.EntriesUpdated, summary.FinalBalance.String()))

	ReleaseRecalcLock(tx)
	if err := tx.Commit().Error; err != nil {
		return nil, err
	}
	return &summary, nil
}
