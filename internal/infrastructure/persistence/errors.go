package persistence

import (
	"errors"

	"github.com/marketplace/inventory/internal/domain/shared"
	"gorm.io/gorm"
)

// isDuplicateKey reports a unique constraint violation.
// Requires the connection to be opened with TranslateError.
func isDuplicateKey(err error) bool {
	return errors.Is(err, gorm.ErrDuplicatedKey)
}

// notFound maps gorm.ErrRecordNotFound to shared.ErrNotFound and passes other errors through
func notFound(err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return shared.ErrNotFound
	}
	return err
}
