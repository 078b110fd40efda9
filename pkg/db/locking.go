package db

import (
	"errors"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// ErrStaleVersion is returned when an optimistic update matched no row.
var ErrStaleVersion = errors.New("row version changed concurrently")

// ForUpdate adds a row lock to the next query. SQLite ignores the clause.
func ForUpdate(tx *gorm.DB) *gorm.DB {
	return tx.Clauses(clause.Locking{Strength: "UPDATE"})
}

// UpdateVersioned writes updates only when the row still carries the expected
// version and bumps the version column in the same statement.
func UpdateVersioned(tx *gorm.DB, model any, id any, version int, updates map[string]any) error {
	if updates == nil {
		updates = map[string]any{}
	}
	updates["version"] = gorm.Expr("version + 1")
	res := tx.Model(model).
		Where("id = ? AND version = ?", id, version).
		Updates(updates)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrStaleVersion
	}
	return nil
}
