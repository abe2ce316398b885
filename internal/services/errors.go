package services

import (
	"errors"
	"strings"

	"github.com/example/vitecommerce/internal/apperror"
	"github.com/example/vitecommerce/internal/repository"
)

// storeError classifies a repository failure. notFound is the client
// message used when the record does not exist.
func storeError(err error, notFound string) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, repository.ErrNotFound):
		return apperror.NotFound(notFound)
	case errors.Is(err, repository.ErrDuplicate):
		return apperror.Wrap(apperror.KindConflict, "resource already exists", err)
	default:
		var appErr *apperror.Error
		if errors.As(err, &appErr) {
			return err
		}
		return apperror.Internal("internal server error", err)
	}
}

// conflictMessage phrases a FindConflict result for clients.
func conflictMessage(field string) string {
	if field == "" {
		return "user already exists"
	}
	return strings.ToUpper(field[:1]) + field[1:] + " is already registered"
}
