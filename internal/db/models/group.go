package models

import "time"

// Group is a named collection of users. Exactly one group per installation
// carries IsDefault; new and unassigned users fall into it.
type Group struct {
	// ID is the unique identifier for the group.
	ID uint `gorm:"primaryKey"`
	// Name is the display name of the group, unique system-wide.
	Name string `gorm:"uniqueIndex;size:100;not null"`
	// IsDefault marks the default group.
	IsDefault bool `gorm:"not null;default:false"`
	// CreatedAt is the timestamp when the group was created (managed by GORM).
	CreatedAt time.Time
	// UpdatedAt is the timestamp when the group was last updated (managed by GORM).
	UpdatedAt time.Time
}

// TableName specifies the database table name for the Group model.
func (Group) TableName() string {
	return "acl_groups"
}
