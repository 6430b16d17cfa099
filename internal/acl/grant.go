package acl

import (
	"fmt"

	"gorm.io/gorm"

	"github.com/portcullis-admin/portcullis/internal/db/models"
)

// Grants binds rules to groups.
type Grants struct {
	db *gorm.DB
}

// NewGrants creates the grant table.
func NewGrants(db *gorm.DB) *Grants {
	return &Grants{db: db}
}

func groupExists(tx *gorm.DB, groupID uint) error {
	var group models.Group
	if err := tx.Select("id").First(&group, groupID).Error; err != nil {
		return notFound(err, "group %d not found", groupID)
	}

	return nil
}

// Grant gives ruleID to groupID. The new grant is not the landing grant.
func (g *Grants) Grant(groupID, ruleID uint) (*models.Acl, error) {
	grant := models.Acl{RuleID: ruleID, GroupID: &groupID}

	err := g.db.Transaction(func(tx *gorm.DB) error {
		if err := groupExists(tx, groupID); err != nil {
			return err
		}

		var rule models.Rule
		if err := tx.Select("id").First(&rule, ruleID).Error; err != nil {
			return notFound(err, "rule %d not found", ruleID)
		}

		var count int64
		if err := tx.Model(&models.Acl{}).
			Where("group_id = ? AND rule_id = ?", groupID, ruleID).
			Count(&count).Error; err != nil {
			return err
		}

		if count > 0 {
			return newError(ErrDuplicateGrant, fmt.Sprintf("rule %d is already granted to group %d", ruleID, groupID))
		}

		if err := tx.Create(&grant).Error; err != nil {
			return storeError(err, ErrDuplicateGrant, "rule %d is already granted to group %d", ruleID, groupID)
		}

		return nil
	})
	if err != nil {
		return nil, err
	}

	return &grant, nil
}

// GrantMany grants every rule in ruleIDs to groupID in one transaction.
// Rules the group already holds and repeated ids are skipped. An unknown
// rule id aborts the call without creating anything. The created grants are returned.
func (g *Grants) GrantMany(groupID uint, ruleIDs []uint) ([]models.Acl, error) {
	var created []models.Acl

	err := g.db.Transaction(func(tx *gorm.DB) error {
		if err := groupExists(tx, groupID); err != nil {
			return err
		}

		var held []uint
		if err := tx.Model(&models.Acl{}).Where("group_id = ?", groupID).Pluck("rule_id", &held).Error; err != nil {
			return err
		}

		skip := make(map[uint]bool, len(held)+len(ruleIDs))
		for _, id := range held {
			skip[id] = true
		}

		for _, ruleID := range ruleIDs {
			if skip[ruleID] {
				continue
			}

			skip[ruleID] = true

			var rule models.Rule
			if err := tx.Select("id").First(&rule, ruleID).Error; err != nil {
				return notFound(err, "rule %d not found", ruleID)
			}

			created = append(created, models.Acl{RuleID: ruleID, GroupID: &groupID})
		}

		if len(created) == 0 {
			return nil
		}

		if err := tx.Create(&created).Error; err != nil {
			return storeError(err, ErrDuplicateGrant, "a rule is already granted to group %d", groupID)
		}

		return nil
	})
	if err != nil {
		return nil, err
	}

	return created, nil
}

// Revoke deletes the grant aclID. Revoking the landing grant leaves the group without one.
func (g *Grants) Revoke(aclID uint) error {
	result := g.db.Delete(&models.Acl{}, aclID)
	if result.Error != nil {
		return fmt.Errorf("failed to revoke grant: %w", result.Error)
	}

	if result.RowsAffected == 0 {
		return newError(ErrNotFound, fmt.Sprintf("grant %d not found", aclID))
	}

	return nil
}

// Get returns the grant aclID with its rule and module.
func (g *Grants) Get(aclID uint) (*models.Acl, error) {
	var grant models.Acl
	if err := g.db.Preload("Rule.Module").First(&grant, aclID).Error; err != nil {
		return nil, notFound(err, "grant %d not found", aclID)
	}

	return &grant, nil
}

// ForGroup lists the grants of groupID ordered like the rule registry.
func (g *Grants) ForGroup(groupID uint) ([]models.Acl, error) {
	if err := groupExists(g.db, groupID); err != nil {
		return nil, err
	}

	var grants []models.Acl
	if err := g.db.Model(&models.Acl{}).
		Preload("Rule.Module").
		Select("acl_grants.*").
		Joins("JOIN acl_rules ON acl_rules.id = acl_grants.rule_id").
		Joins("JOIN acl_modules ON acl_modules.id = acl_rules.module_id").
		Where("acl_grants.group_id = ?", groupID).
		Order(ruleOrder).
		Find(&grants).Error; err != nil {
		return nil, fmt.Errorf("failed to list grants: %w", err)
	}

	return grants, nil
}
