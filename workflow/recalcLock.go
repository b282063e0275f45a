package workflow

import (
	"fmt"

	"gorm.io/gorm"
)

const recalcLockName = "ledger:recalc"

// AcquireRecalcLock serializes balance recalculation across instances using
// MySQL advisory locks.
// NOTE: GET_LOCK is connection-scoped, so this must be called on the same
// *gorm.DB that will do the recalculation transaction.
func AcquireRecalcLock(tx *gorm.DB) error {
	var ok int
	if err := tx.Raw("SELECT GET_LOCK(?, 30)", recalcLockName).Scan(&ok).Error; err != nil {
		return err
	}
	if ok != 1 {
		return fmt.Errorf("could not acquire ledger recalculation lock")
	}
	return nil
}

// ReleaseRecalcLock must run before the transaction commits or rolls back:
// once the tx is finished its connection refuses statements, and the lock
// would survive on the pooled session.
func ReleaseRecalcLock(tx *gorm.DB) {
	var _ok int
	_ = tx.Raw("SELECT RELEASE_LOCK(?)", recalcLockName).Scan(&_ok).Error
}
