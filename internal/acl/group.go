package acl

import (
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog/log"
	"gorm.io/gorm"

	"github.com/portcullis-admin/portcullis/internal/db/models"
)

// groupInput is validated on create and update.
type groupInput struct {
	Name string `validate:"required,min=3,max=100"`
}

// Groups manages groups, their default flag and their landing grant.
type Groups struct {
	db       *gorm.DB
	validate *validator.Validate
}

// NewGroups creates the group store.
func NewGroups(db *gorm.DB, validate *validator.Validate) *Groups {
	return &Groups{db: db, validate: validate}
}

func (g *Groups) checkName(tx *gorm.DB, name string, self uint) error {
	if err := g.validate.Struct(groupInput{Name: name}); err != nil {
		return validationError(err)
	}

	var count int64
	if err := tx.Model(&models.Group{}).Where("name = ? AND id <> ?", name, self).Count(&count).Error; err != nil {
		return err
	}

	if count > 0 {
		return newError(ErrDuplicateGroup, fmt.Sprintf("group %s already exists", name))
	}

	return nil
}

// clearDefault unsets is_default on every group but keep.
func clearDefault(tx *gorm.DB, keep uint) error {
	return tx.Model(&models.Group{}).
		Where("is_default = ? AND id <> ?", true, keep).
		Update("is_default", false).Error
}

// Create adds a group. isDefault moves the default flag to the new group.
// The first group of an installation always becomes the default.
func (g *Groups) Create(name string, isDefault bool) (*models.Group, error) {
	name = strings.TrimSpace(name)
	group := models.Group{Name: name}

	err := g.db.Transaction(func(tx *gorm.DB) error {
		if err := g.checkName(tx, name, 0); err != nil {
			return err
		}

		var defaults int64
		if err := tx.Model(&models.Group{}).Where("is_default = ?", true).Count(&defaults).Error; err != nil {
			return err
		}

		group.IsDefault = isDefault || defaults == 0

		if err := tx.Create(&group).Error; err != nil {
			return storeError(err, ErrDuplicateGroup, "group %s already exists", name)
		}

		if group.IsDefault {
			return clearDefault(tx, group.ID)
		}

		return nil
	})
	if err != nil {
		return nil, err
	}

	return &group, nil
}

// Update renames a group. isDefault=true moves the default flag here;
// isDefault=false on the current default is ignored, the flag stays.
func (g *Groups) Update(id uint, name string, isDefault bool) (*models.Group, error) {
	name = strings.TrimSpace(name)

	var group models.Group

	err := g.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.First(&group, id).Error; err != nil {
			return notFound(err, "group %d not found", id)
		}

		if err := g.checkName(tx, name, id); err != nil {
			return err
		}

		group.Name = name
		if isDefault {
			group.IsDefault = true
		}

		if err := tx.Save(&group).Error; err != nil {
			return storeError(err, ErrDuplicateGroup, "group %s already exists", name)
		}

		if group.IsDefault {
			return clearDefault(tx, group.ID)
		}

		return nil
	})
	if err != nil {
		return nil, err
	}

	return &group, nil
}

// deleteBlockers returns why the group can not be deleted, empty when it can.
func deleteBlockers(tx *gorm.DB, id uint) ([]string, error) {
	var reasons []string

	var users int64
	if err := tx.Model(&models.User{}).Where("group_id = ?", id).Count(&users).Error; err != nil {
		return nil, err
	}

	if users > 0 {
		reasons = append(reasons, fmt.Sprintf("group has %d user(s)", users))
	}

	var groups int64
	if err := tx.Model(&models.Group{}).Count(&groups).Error; err != nil {
		return nil, err
	}

	if groups <= 1 {
		reasons = append(reasons, "the last group can not be deleted")
	}

	return reasons, nil
}

// CanBeDeleted reports whether Delete would succeed and, if not, why.
func (g *Groups) CanBeDeleted(id uint) (bool, []string, error) {
	if _, err := g.Get(id); err != nil {
		return false, nil, err
	}

	reasons, err := deleteBlockers(g.db, id)
	if err != nil {
		return false, nil, err
	}

	return len(reasons) == 0, reasons, nil
}

// Delete removes a group without users together with its grants.
// When the default group is deleted the oldest remaining group becomes default.
func (g *Groups) Delete(id uint) error {
	return g.db.Transaction(func(tx *gorm.DB) error {
		var group models.Group
		if err := tx.First(&group, id).Error; err != nil {
			return notFound(err, "group %d not found", id)
		}

		reasons, err := deleteBlockers(tx, id)
		if err != nil {
			return err
		}

		if len(reasons) > 0 {
			return newError(ErrConstraint, reasons...)
		}

		if err = tx.Where("group_id = ?", id).Delete(&models.Acl{}).Error; err != nil {
			return err
		}

		if err = tx.Delete(&group).Error; err != nil {
			return err
		}

		if !group.IsDefault {
			return nil
		}

		var next models.Group
		if err = tx.Order("created_at, id").First(&next).Error; err != nil {
			return err
		}

		log.Info().Str("group", next.Name).Str("deleted", group.Name).Msg("default group moved")

		return tx.Model(&next).Update("is_default", true).Error
	})
}

// Default returns the default group. A missing default is an ErrConfiguration.
func (g *Groups) Default() (*models.Group, error) {
	var group models.Group

	err := g.db.Where("is_default = ?", true).First(&group).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, newError(ErrConfiguration, "no default group is configured")
	}

	if err != nil {
		return nil, err
	}

	return &group, nil
}

// SetDefaultAcl makes aclID the landing grant of groupID and clears the flag on the group's other grants.
func (g *Groups) SetDefaultAcl(groupID, aclID uint) error {
	return g.db.Transaction(func(tx *gorm.DB) error {
		var grant models.Acl
		if err := tx.Where("id = ? AND group_id = ?", aclID, groupID).First(&grant).Error; err != nil {
			return notFound(err, "grant %d does not belong to group %d", aclID, groupID)
		}

		if err := tx.Model(&models.Acl{}).
			Where("group_id = ? AND id <> ? AND is_default = ?", groupID, aclID, true).
			Update("is_default", false).Error; err != nil {
			return err
		}

		return tx.Model(&grant).Update("is_default", true).Error
	})
}

// MissingRules lists the rules not yet granted to groupID.
func (g *Groups) MissingRules(groupID uint) ([]models.Rule, error) {
	if _, err := g.Get(groupID); err != nil {
		return nil, err
	}

	granted := g.db.Model(&models.Acl{}).Select("rule_id").Where("group_id = ?", groupID)

	var rules []models.Rule
	if err := withModule(g.db.Model(&models.Rule{})).
		Where("acl_rules.id NOT IN (?)", granted).
		Order(ruleOrder).
		Find(&rules).Error; err != nil {
		return nil, fmt.Errorf("failed to list missing rules: %w", err)
	}

	return rules, nil
}

// Get returns the group id.
func (g *Groups) Get(id uint) (*models.Group, error) {
	var group models.Group
	if err := g.db.First(&group, id).Error; err != nil {
		return nil, notFound(err, "group %d not found", id)
	}

	return &group, nil
}

// GetByName returns the group called name.
func (g *Groups) GetByName(name string) (*models.Group, error) {
	var group models.Group
	if err := g.db.Where("name = ?", name).First(&group).Error; err != nil {
		return nil, notFound(err, "group %s not found", name)
	}

	return &group, nil
}

// List returns all groups by name.
func (g *Groups) List() ([]models.Group, error) {
	var groups []models.Group
	if err := g.db.Order("name").Find(&groups).Error; err != nil {
		return nil, fmt.Errorf("failed to list groups: %w", err)
	}

	return groups, nil
}

// UserCount returns how many users reference the group.
func (g *Groups) UserCount(id uint) (int64, error) {
	var count int64
	if err := g.db.Model(&models.User{}).Where("group_id = ?", id).Count(&count).Error; err != nil {
		return 0, fmt.Errorf("failed to count users: %w", err)
	}

	return count, nil
}

type groupCount struct {
	GroupID uint
	Total   int64
}

func countBy(q *gorm.DB) (map[uint]int64, error) {
	var rows []groupCount
	if err := q.Select("group_id, COUNT(*) AS total").Group("group_id").Scan(&rows).Error; err != nil {
		return nil, err
	}

	out := make(map[uint]int64, len(rows))
	for _, row := range rows {
		out[row.GroupID] = row.Total
	}

	return out, nil
}

// Overview lists every group with user and grant counts and whether it can be deleted.
func (g *Groups) Overview() ([]GroupView, error) {
	groups, err := g.List()
	if err != nil {
		return nil, err
	}

	users, err := countBy(g.db.Model(&models.User{}))
	if err != nil {
		return nil, fmt.Errorf("failed to count users: %w", err)
	}

	grants, err := countBy(g.db.Model(&models.Acl{}).Where("group_id IS NOT NULL"))
	if err != nil {
		return nil, fmt.Errorf("failed to count grants: %w", err)
	}

	out := make([]GroupView, 0, len(groups))
	for _, group := range groups {
		out = append(out, NewGroupView(group, users[group.ID], grants[group.ID], len(groups) > 1))
	}

	return out, nil
}

// Members lists the users of groupID by username.
func (g *Groups) Members(groupID uint) ([]MemberView, error) {
	if _, err := g.Get(groupID); err != nil {
		return nil, err
	}

	var users []models.User
	if err := g.db.Where("group_id = ?", groupID).Order("username").Find(&users).Error; err != nil {
		return nil, fmt.Errorf("failed to list members: %w", err)
	}

	out := make([]MemberView, 0, len(users))
	for _, u := range users {
		out = append(out, NewMemberView(u))
	}

	return out, nil
}
