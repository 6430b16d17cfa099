package acl

import (
	"errors"
	"fmt"

	"github.com/rs/zerolog/log"
	"gorm.io/gorm"

	"github.com/portcullis-admin/portcullis/internal/db/models"
)

// Decision is the outcome of an authorization check.
type Decision bool

// Possible decisions.
const (
	Deny  Decision = false
	Allow Decision = true
)

func (d Decision) String() string {
	if d {
		return "allow"
	}

	return "deny"
}

// Route is a module/action pair a user can be sent to.
type Route struct {
	Module string `json:"module"`
	Action string `json:"action,omitempty"`
}

// Path returns "/module/action", or "/module" for a full-module route.
func (r Route) Path() string {
	if r.Action == FullModule {
		return "/" + r.Module
	}

	return "/" + r.Module + "/" + r.Action
}

// Engine decides whether a user may run an action of a module.
// Every call reads the store, decisions are never cached.
type Engine struct {
	db *gorm.DB
}

// NewEngine creates the authorization engine.
func NewEngine(db *gorm.DB) *Engine {
	return &Engine{db: db}
}

// Authorize decides (user, module, action). An empty action asks for full-module access.
//
// Admins are always allowed and disabled users always denied. Otherwise the
// exact rule and the full-module rule of the module are looked up, and the
// user is allowed when their group holds a grant on either of them. A module
// or action without any rule is denied. Admin-only rules never allow a
// non-admin, even when granted. On a store error the answer is Deny.
func (e *Engine) Authorize(user *models.User, module, action string) (Decision, error) {
	if user == nil {
		return Deny, nil
	}

	if user.Admin {
		return Allow, nil
	}

	if !user.Enabled {
		return Deny, nil
	}

	q := e.db.Model(&models.Rule{}).
		Joins("JOIN acl_modules ON acl_modules.id = acl_rules.module_id").
		Where("acl_modules.name = ?", module)

	q = q.Where("acl_rules.action IN ?", []string{FullModule, action})

	var rules []models.Rule
	if err := q.Select("acl_rules.id, acl_rules.admin_only").Find(&rules).Error; err != nil {
		return Deny, fmt.Errorf("failed to look up rules for %s/%s: %w", module, action, err)
	}

	ruleIDs := make([]uint, 0, len(rules))
	for _, rule := range rules {
		if !rule.AdminOnly {
			ruleIDs = append(ruleIDs, rule.ID)
		}
	}

	if len(ruleIDs) == 0 {
		return Deny, nil
	}

	var grants int64
	if err := e.db.Model(&models.Acl{}).
		Where("group_id = ? AND rule_id IN ?", user.GroupID, ruleIDs).
		Count(&grants).Error; err != nil {
		return Deny, fmt.Errorf("failed to look up grants for group %d: %w", user.GroupID, err)
	}

	return Decision(grants > 0), nil
}

// Allowed is Authorize for callers that only need a yes or no. Errors are logged and deny.
func (e *Engine) Allowed(user *models.User, module, action string) bool {
	decision, err := e.Authorize(user, module, action)
	if err != nil {
		log.Error().Err(err).Str("module", module).Str("action", action).Msg("authorization failed")
		return false
	}

	return bool(decision)
}

// Landing returns the route of the default grant of the user's group, or nil when the group has none.
func (e *Engine) Landing(user *models.User) (*Route, error) {
	if user == nil {
		return nil, nil //nolint:nilnil
	}

	var grant models.Acl

	err := e.db.Preload("Rule.Module").
		Where("group_id = ? AND is_default = ?", user.GroupID, true).
		First(&grant).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil //nolint:nilnil
	}

	if err != nil {
		return nil, fmt.Errorf("failed to look up landing grant: %w", err)
	}

	return &Route{Module: grant.Rule.Module.Name, Action: grant.Rule.ActionName()}, nil
}
