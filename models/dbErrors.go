package models

import (
	"errors"

	mysqlDriver "github.com/go-sql-driver/mysql"
)

// isDuplicateKeyErr detects MySQL unique index violations (error 1062).
// Concurrent writers racing on a unique column surface here instead of in an
// application-level check.
func isDuplicateKeyErr(err error) bool {
	var mysqlErr *mysqlDriver.MySQLError
	if errors.As(err, &mysqlErr) {
		return mysqlErr.Number == 1062
	}
	return false
}
