package util

import (
	"database/sql"
)

// NullableString преобразует *string в sql.NullString.
// Пустая строка ("") также будет считаться NULL для базы данных.
func NullableString(s *string) sql.NullString {
	if s == nil || *s == "" { // Если указатель nil ИЛИ строка пустая
		return sql.NullString{Valid: false}
	}
	return sql.NullString{String: *s, Valid: true}
}

// NullableInt64 преобразует *int64 в sql.NullInt64.
// Может пригодиться для nullable внешних ключей или других bigint полей.
func NullableInt64(i *int64) sql.NullInt64 {
	if i == nil {
		return sql.NullInt64{Valid: false}
	}
	return sql.NullInt64{Int64: *i, Valid: true}
}

// NilIfEmpty — для строковых полей, если пустая строка должна
// передаваться как NULL, а не как валидное значение.
func NilIfEmpty(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
