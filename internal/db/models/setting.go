// Package models contains database model definitions.
package models

// Setting is a named runtime setting stored in the database.
type Setting struct {
	ID    uint64 `gorm:"primaryKey"`
	Name  string `gorm:"uniqueIndex;size:100;not null"`
	Value []byte
}

// TableName specifies the database table name for the Setting model.
func (Setting) TableName() string {
	return "settings"
}

// All returns every model for schema migration, in dependency order.
func All() []any {
	return []any{
		&Language{},
		&Module{},
		&Rule{},
		&Group{},
		&Acl{},
		&User{},
		&Setting{},
		&Session{},
	}
}
