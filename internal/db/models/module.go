package models

import "time"

// Module is an installed application module whose actions are guarded by rules.
type Module struct {
	// ID is the unique identifier for the module.
	ID uint `gorm:"primaryKey"`
	// Name is the routing name of the module (e.g. "pages"), unique system-wide.
	Name string `gorm:"uniqueIndex;size:100;not null"`
	// Description is a human-readable explanation of what the module does.
	Description string `gorm:"size:255"`
	// CreatedAt is the timestamp when the module was installed (managed by GORM).
	CreatedAt time.Time
}

// TableName specifies the database table name for the Module model.
func (Module) TableName() string {
	return "acl_modules"
}
