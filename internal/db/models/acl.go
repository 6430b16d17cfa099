package models

import "time"

// Acl grants a rule to a group. At most one grant per group carries
// IsDefault, marking the group's landing page after login.
type Acl struct {
	// ID is the unique identifier for the grant.
	ID uint `gorm:"primaryKey"`
	// RuleID is the granted rule. Combined with GroupID it is unique.
	RuleID uint `gorm:"not null;uniqueIndex:idx_acl_rule_group"`
	// Rule is the associated rule. A referenced rule can not be deleted (RESTRICT).
	Rule Rule `gorm:"foreignKey:RuleID;constraint:OnDelete:RESTRICT"`
	// GroupID is the owning group, nil for an unassigned template grant.
	GroupID *uint `gorm:"uniqueIndex:idx_acl_rule_group"`
	// Group is the owning group. Grants are removed with their group (CASCADE).
	Group *Group `gorm:"foreignKey:GroupID;constraint:OnDelete:CASCADE"`
	// IsDefault marks the group's landing grant.
	IsDefault bool `gorm:"not null;default:false"`
	// CreatedAt is the timestamp when the grant was created (managed by GORM).
	CreatedAt time.Time
}

// TableName specifies the database table name for the Acl model.
func (Acl) TableName() string {
	return "acl_grants"
}
