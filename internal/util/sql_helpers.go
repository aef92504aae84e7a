package util

import "database/sql"

// StringToNullString treats an empty string as NULL.
func StringToNullString(s string) sql.NullString {
	if s == "" {
		return sql.NullString{}
	}
	return sql.NullString{String: s, Valid: true}
}

// BoolToFlag maps a bool onto a NUMBER(1)/INTEGER column.
func BoolToFlag(b bool) int {
	if b {
		return 1
	}
	return 0
}
