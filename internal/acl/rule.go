package acl

import (
	"errors"
	"fmt"
	"strings"

	"gorm.io/gorm"

	"github.com/portcullis-admin/portcullis/internal/db/models"
)

// FullModule is the action value standing for every action of a module.
const FullModule = ""

const ruleOrder = "acl_modules.name, acl_rules.action"

// Registry is the catalog of modules and their (module, action) rules.
type Registry struct {
	db *gorm.DB
}

// NewRegistry creates a rule registry on db.
func NewRegistry(db *gorm.DB) *Registry {
	return &Registry{db: db}
}

// whereAction restricts q to rules with exactly action, "" meaning the full-module rule.
func whereAction(q *gorm.DB, action string) *gorm.DB {
	return q.Where("acl_rules.action = ?", action)
}

func withModule(q *gorm.DB) *gorm.DB {
	return q.Preload("Module").
		Select("acl_rules.*").
		Joins("JOIN acl_modules ON acl_modules.id = acl_rules.module_id")
}

// InstallModule registers the module name and one rule per action.
// FullModule among actions installs the full-module rule. Existing modules
// and rules are kept, so installing twice is harmless.
func (r *Registry) InstallModule(name, description string, adminOnly bool, actions ...string) (*models.Module, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, newError(ErrValidation, "module name is required")
	}

	var module models.Module

	err := r.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where(models.Module{Name: name}).
			Attrs(models.Module{Description: description}).
			FirstOrCreate(&module).Error; err != nil {
			return fmt.Errorf("failed to install module %s: %w", name, err)
		}

		for _, action := range actions {
			var count int64
			if err := whereAction(tx.Model(&models.Rule{}), action).
				Where("acl_rules.module_id = ?", module.ID).
				Count(&count).Error; err != nil {
				return err
			}

			if count > 0 {
				continue
			}

			rule := models.Rule{ModuleID: module.ID, Action: action, AdminOnly: adminOnly}
			if err := tx.Create(&rule).Error; err != nil {
				return fmt.Errorf("failed to install rule %s/%s: %w", name, action, err)
			}
		}

		return nil
	})
	if err != nil {
		return nil, err
	}

	return &module, nil
}

// Modules lists the installed modules by name.
func (r *Registry) Modules() ([]models.Module, error) {
	var modules []models.Module
	if err := r.db.Order("name").Find(&modules).Error; err != nil {
		return nil, fmt.Errorf("failed to list modules: %w", err)
	}

	return modules, nil
}

// Module returns the module called name.
func (r *Registry) Module(name string) (*models.Module, error) {
	var module models.Module
	if err := r.db.Where("name = ?", name).First(&module).Error; err != nil {
		return nil, notFound(err, "module %s not found", name)
	}

	return &module, nil
}

// List returns every rule, or only those whose admin_only flag equals *adminOnly.
// Rules are ordered by module name, the full-module rule first, then by action.
func (r *Registry) List(adminOnly *bool) ([]models.Rule, error) {
	q := withModule(r.db.Model(&models.Rule{}))
	if adminOnly != nil {
		q = q.Where("acl_rules.admin_only = ?", *adminOnly)
	}

	var rules []models.Rule
	if err := q.Order(ruleOrder).Find(&rules).Error; err != nil {
		return nil, fmt.Errorf("failed to list rules: %w", err)
	}

	return rules, nil
}

// FindByModuleAction returns the rule matching all three values exactly.
func (r *Registry) FindByModuleAction(moduleID uint, action string, adminOnly bool) (*models.Rule, error) {
	var rule models.Rule

	q := withModule(r.db.Model(&models.Rule{})).
		Where("acl_rules.module_id = ? AND acl_rules.admin_only = ?", moduleID, adminOnly)

	if err := whereAction(q, action).First(&rule).Error; err != nil {
		return nil, notFound(err, "no rule for module %d action %q", moduleID, action)
	}

	return &rule, nil
}

// find returns the rule for (moduleID, action) regardless of admin_only.
func (r *Registry) find(tx *gorm.DB, moduleID uint, action string) (*models.Rule, error) {
	var rule models.Rule

	q := withModule(tx.Model(&models.Rule{})).Where("acl_rules.module_id = ?", moduleID)
	if err := whereAction(q, action).First(&rule).Error; err != nil {
		return nil, err //nolint:wrapcheck
	}

	return &rule, nil
}

// Create adds the rule (moduleID, action). When that pair is already registered
// the existing rule is returned together with ErrDuplicateRule.
func (r *Registry) Create(moduleID uint, action string, adminOnly bool) (*models.Rule, error) {
	var module models.Module
	if err := r.db.First(&module, moduleID).Error; err != nil {
		return nil, notFound(err, "module %d not found", moduleID)
	}

	existing, err := r.find(r.db, moduleID, action)
	if err == nil {
		return existing, duplicateRule(module.Name, action)
	}

	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	rule := models.Rule{ModuleID: moduleID, Action: action, AdminOnly: adminOnly}
	if err = r.db.Create(&rule).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			// lost a race against a concurrent create
			if existing, findErr := r.find(r.db, moduleID, action); findErr == nil {
				return existing, duplicateRule(module.Name, action)
			}
		}

		return nil, fmt.Errorf("failed to create rule: %w", err)
	}

	rule.Module = module

	return &rule, nil
}

func duplicateRule(module, action string) error {
	if action == FullModule {
		return newError(ErrDuplicateRule, fmt.Sprintf("a full-module rule for %s already exists", module))
	}

	return newError(ErrDuplicateRule, fmt.Sprintf("a rule for %s/%s already exists", module, action))
}

// Get returns the rule id with its module.
func (r *Registry) Get(id uint) (*models.Rule, error) {
	var rule models.Rule
	if err := r.db.Preload("Module").First(&rule, id).Error; err != nil {
		return nil, notFound(err, "rule %d not found", id)
	}

	return &rule, nil
}

// Delete removes a rule that no grant references.
func (r *Registry) Delete(id uint) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		var rule models.Rule
		if err := tx.First(&rule, id).Error; err != nil {
			return notFound(err, "rule %d not found", id)
		}

		var grants int64
		if err := tx.Model(&models.Acl{}).Where("rule_id = ?", id).Count(&grants).Error; err != nil {
			return err
		}

		if grants > 0 {
			return newError(ErrConstraint, fmt.Sprintf("rule %d is granted to %d group(s)", id, grants))
		}

		return tx.Delete(&rule).Error
	})
}
