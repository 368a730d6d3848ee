package repository

import (
	"errors"

	"github.com/amirasaad/escrow/pkg/domain"
	"gorm.io/gorm"
)

// MapGormErrorToDomain translates the GORM errors a store can produce into
// domain sentinels. A foreign key violation means a row referenced a product
// or profile that does not exist. Anything else passes through unchanged.
func MapGormErrorToDomain(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, gorm.ErrDuplicatedKey):
		return domain.ErrAlreadyExists
	case errors.Is(err, gorm.ErrRecordNotFound):
		return domain.ErrNotFound
	case errors.Is(err, gorm.ErrForeignKeyViolated):
		return domain.ErrValidation
	}
	return err
}

// WrapError runs a GORM call and maps its error.
func WrapError(op func() error) error {
	return MapGormErrorToDomain(op())
}
