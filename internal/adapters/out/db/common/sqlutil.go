// internal/adapters/out/db/common/sqlutil.go
package common

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/lib/pq"
)

// RowScanner は *sql.Row, *sql.Rows の両方に共通の Scan() メソッドを持つ抽象型です。
type RowScanner interface {
	Scan(dest ...any) error
}

// Runner は *sql.DB と *sql.Tx の共通インターフェースです。
type Runner interface {
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

// IsUniqueViolation は PostgreSQL 一意制約違反（duplicate key）を検知します。
func IsUniqueViolation(err error) bool {
	var pqErr *pq.Error
	return errors.As(err, &pqErr) && pqErr.Code == "23505"
}

// IsSerializationFailure reports 40001 / 40P01 (retryable by the caller, never retried here).
func IsSerializationFailure(err error) bool {
	var pqErr *pq.Error
	if !errors.As(err, &pqErr) {
		return false
	}
	return pqErr.Code == "40001" || pqErr.Code == "40P01"
}

// Numeric は uint64 を NUMERIC(20,0) 用の文字列パラメータにします。
// database/sql は high bit の立った uint64 を受け付けないため。
func Numeric(v uint64) string {
	return strconv.FormatUint(v, 10)
}

// ParseNumeric は NUMERIC 列を文字列で Scan した値を uint64 に戻します。
func ParseNumeric(s string) (uint64, error) {
	s = strings.TrimSpace(s)
	// scale 付きの表記（"12.0"）は整数部だけ使う
	if i := strings.IndexByte(s, '.'); i >= 0 {
		s = s[:i]
	}
	n, err := strconv.ParseUint(s, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("sqlutil: invalid numeric %q: %w", s, err)
	}
	return n, nil
}
