package acl

import (
	"strings"
	"time"

	"github.com/portcullis-admin/portcullis/internal/db/models"
)

// RuleView is a rule as shown to administrators.
type RuleView struct {
	ID         uint   `json:"id"`
	ModuleID   uint   `json:"moduleId"`
	Module     string `json:"module"`
	Action     string `json:"action"`
	FullModule bool   `json:"fullModule"`
	AdminOnly  bool   `json:"adminOnly"`
}

// NewRuleView maps a rule with a loaded module.
func NewRuleView(r models.Rule) RuleView {
	return RuleView{
		ID:         r.ID,
		ModuleID:   r.ModuleID,
		Module:     r.Module.Name,
		Action:     r.ActionName(),
		FullModule: r.FullModule(),
		AdminOnly:  r.AdminOnly,
	}
}

// NewRuleViews maps rules.
func NewRuleViews(rules []models.Rule) []RuleView {
	out := make([]RuleView, 0, len(rules))
	for _, r := range rules {
		out = append(out, NewRuleView(r))
	}

	return out
}

// GrantView is a grant with its rule spelled out.
type GrantView struct {
	ID        uint   `json:"id"`
	GroupID   uint   `json:"groupId"`
	RuleID    uint   `json:"ruleId"`
	Module    string `json:"module"`
	Action    string `json:"action"`
	AdminOnly bool   `json:"adminOnly"`
	IsDefault bool   `json:"isDefault"`
}

// NewGrantView maps a grant with a loaded rule and module.
func NewGrantView(a models.Acl) GrantView {
	v := GrantView{
		ID:        a.ID,
		RuleID:    a.RuleID,
		Module:    a.Rule.Module.Name,
		Action:    a.Rule.ActionName(),
		AdminOnly: a.Rule.AdminOnly,
		IsDefault: a.IsDefault,
	}

	if a.GroupID != nil {
		v.GroupID = *a.GroupID
	}

	return v
}

// NewGrantViews maps grants.
func NewGrantViews(grants []models.Acl) []GrantView {
	out := make([]GrantView, 0, len(grants))
	for _, a := range grants {
		out = append(out, NewGrantView(a))
	}

	return out
}

// GroupView is a group with usage counts.
type GroupView struct {
	ID         uint   `json:"id"`
	Name       string `json:"name"`
	IsDefault  bool   `json:"isDefault"`
	UserCount  int64  `json:"userCount"`
	GrantCount int64  `json:"grantCount"`
	Deletable  bool   `json:"deletable"`
}

// NewGroupView maps a group. othersExist tells whether another group would remain after deletion.
func NewGroupView(g models.Group, users, grants int64, othersExist bool) GroupView {
	return GroupView{
		ID:         g.ID,
		Name:       g.Name,
		IsDefault:  g.IsDefault,
		UserCount:  users,
		GrantCount: grants,
		Deletable:  users == 0 && othersExist,
	}
}

// MemberView is a user as listed in a group.
type MemberView struct {
	ID       uint64 `json:"id"`
	Username string `json:"username"`
	FullName string `json:"fullName"`
	Admin    bool   `json:"admin"`
	Enabled  bool   `json:"enabled"`
}

func fullName(u models.User) string {
	return strings.TrimSpace(u.FirstName + " " + u.LastName)
}

// NewMemberView maps a user.
func NewMemberView(u models.User) MemberView {
	return MemberView{
		ID:       u.ID,
		Username: u.Username,
		FullName: fullName(u),
		Admin:    u.Admin,
		Enabled:  u.Enabled,
	}
}

// UserView is a user with the name of its group.
type UserView struct {
	ID         uint64            `json:"id"`
	Username   string            `json:"username"`
	Email      string            `json:"email"`
	FullName   string            `json:"fullName"`
	GroupID    uint              `json:"groupId"`
	Group      string            `json:"group"`
	Admin      bool              `json:"admin"`
	Enabled    bool              `json:"enabled"`
	Faults     int               `json:"faults"`
	LastLogin  *time.Time        `json:"lastLogin,omitempty"`
	AuthSource models.AuthSource `json:"authSource"`
}

// NewUserView maps a user with a loaded group.
func NewUserView(u models.User) UserView {
	return UserView{
		ID:         u.ID,
		Username:   u.Username,
		Email:      u.Email,
		FullName:   fullName(u),
		GroupID:    u.GroupID,
		Group:      u.Group.Name,
		Admin:      u.Admin,
		Enabled:    u.Enabled,
		Faults:     u.Faults,
		LastLogin:  u.LastLogin,
		AuthSource: u.AuthSource,
	}
}
