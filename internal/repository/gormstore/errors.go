// Package gormstore implements the repository contracts on PostgreSQL via GORM.
package gormstore

import (
	"errors"
	"fmt"

	"gorm.io/gorm"

	"github.com/example/vitecommerce/internal/repository"
)

// translate maps GORM errors onto repository sentinels. The DB handle must
// be opened with TranslateError for unique violations to be recognised.
func translate(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, gorm.ErrRecordNotFound):
		return repository.ErrNotFound
	case errors.Is(err, gorm.ErrDuplicatedKey):
		return fmt.Errorf("%w: %v", repository.ErrDuplicate, err)
	default:
		return err
	}
}
