package mysql

import (
	"errors"
	"fmt"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// forUpdate is the pessimistic row lock taken by every *ForUpdate read.
// Dialects without row locks (sqlite) drop the clause.
var forUpdate = clause.Locking{Strength: "UPDATE"}

// notFound keeps gorm.ErrRecordNotFound in the chain while tagging the domain error.
func notFound(err, domainErr error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return fmt.Errorf("%w (%w)", domainErr, err)
	}
	return err
}
