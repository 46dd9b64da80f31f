package db

import (
	"errors"
	"strings"

	"gorm.io/gorm"
)

// normalizeWriteError maps driver specific unique violations that escaped
// gorm's translator onto gorm.ErrDuplicatedKey.
func normalizeWriteError(err error) error {
	if err == nil || errors.Is(err, gorm.ErrDuplicatedKey) {
		return err
	}
	message := strings.ToLower(err.Error())
	if strings.Contains(message, "unique constraint failed") ||
		strings.Contains(message, "duplicate key value violates unique constraint") {
		return gorm.ErrDuplicatedKey
	}
	return err
}
