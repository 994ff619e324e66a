package repository

import (
	"errors"
	"strings"

	"gorm.io/gorm"
)

// isDuplicateKeyError 判断唯一约束冲突，兼容未开启 TranslateError 的连接
func isDuplicateKeyError(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	message := strings.ToLower(err.Error())
	// sqlite: UNIQUE constraint failed; postgres: SQLSTATE 23505
	return strings.Contains(message, "unique constraint") ||
		strings.Contains(message, "duplicate key") ||
		strings.Contains(message, "23505")
}
