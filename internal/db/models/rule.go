package models

import "time"

// Rule identifies a single (module, action) capability.
// An empty Action stands for every action of the module (full-module rule).
type Rule struct {
	// ID is the unique identifier for the rule.
	ID uint `gorm:"primaryKey"`
	// ModuleID references the module this rule guards.
	// Combined with Action, this forms a unique constraint.
	ModuleID uint `gorm:"not null;uniqueIndex:idx_rule_module_action"`
	// Module is the associated module (loaded via foreign key).
	Module Module `gorm:"foreignKey:ModuleID;constraint:OnDelete:RESTRICT"`
	// Action is the guarded action name, empty for full-module access.
	// It is never NULL so the unique index also covers full-module rules.
	Action string `gorm:"size:100;not null;default:'';uniqueIndex:idx_rule_module_action"`
	// AdminOnly restricts the rule to admin users regardless of grants.
	AdminOnly bool `gorm:"not null;default:false"`
	// CreatedAt is the timestamp when the rule was created (managed by GORM).
	CreatedAt time.Time
}

// TableName specifies the database table name for the Rule model.
func (Rule) TableName() string {
	return "acl_rules"
}

// ActionName returns the action or an empty string for full-module rules.
func (r *Rule) ActionName() string {
	return r.Action
}

// FullModule reports whether the rule covers every action of its module.
func (r *Rule) FullModule() bool {
	return r.Action == ""
}
