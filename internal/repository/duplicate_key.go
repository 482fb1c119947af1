package repository

import (
	"errors"
	"strings"

	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"
)

// pgUniqueViolation postgres 唯一约束冲突的 SQLSTATE 码。
const pgUniqueViolation = "23505"

// IsDuplicateKeyError 判断错误是否为唯一约束冲突，按驱动分别识别：
// postgres 看 SQLSTATE 23505，sqlite（无结构化错误类型）退化为报文识别。
func IsDuplicateKeyError(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == pgUniqueViolation
	}
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "unique constraint") ||
		strings.Contains(msg, "constraint failed: unique")
}
