package acl_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/portcullis-admin/portcullis/internal/acl"
	"github.com/portcullis-admin/portcullis/internal/db/models"
)

func TestInstallModuleIsIdempotent(t *testing.T) {
	f := newFixture(t)

	m, err := f.registry.InstallModule("pages", "Page editor", false, acl.FullModule, "edit")
	require.NoError(t, err)
	assert.Equal(t, "Page editor", m.Description)

	again, err := f.registry.InstallModule("pages", "ignored", false, acl.FullModule, "edit", "publish")
	require.NoError(t, err)
	assert.Equal(t, m.ID, again.ID)
	assert.Equal(t, "Page editor", again.Description)

	assert.Equal(t, int64(1), f.count(t, &models.Module{}))
	assert.Equal(t, int64(3), f.count(t, &models.Rule{}))

	_, err = f.registry.InstallModule("  ", "", false)
	require.ErrorIs(t, err, acl.ErrValidation)

	modules, err := f.registry.Modules()
	require.NoError(t, err)
	require.Len(t, modules, 1)

	got, err := f.registry.Module("pages")
	require.NoError(t, err)
	assert.Equal(t, m.ID, got.ID)

	_, err = f.registry.Module("blog")
	require.ErrorIs(t, err, acl.ErrNotFound)
}

func TestRuleList(t *testing.T) {
	f := newFixture(t)

	_, err := f.registry.InstallModule("pages", "", false, "publish", "edit", acl.FullModule)
	require.NoError(t, err)
	_, err = f.registry.InstallModule("admin", "", true, "shutdown")
	require.NoError(t, err)

	adminOnly := true
	notAdminOnly := false

	tests := []struct {
		name   string
		filter *bool
		want   []string
	}{
		{name: "all", filter: nil, want: []string{"admin/shutdown", "pages/", "pages/edit", "pages/publish"}},
		{name: "admin only", filter: &adminOnly, want: []string{"admin/shutdown"}},
		{name: "not admin only", filter: &notAdminOnly, want: []string{"pages/", "pages/edit", "pages/publish"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rules, err := f.registry.List(tt.filter)
			require.NoError(t, err)

			got := make([]string, 0, len(rules))
			for _, r := range rules {
				got = append(got, r.Module.Name+"/"+r.ActionName())
			}

			assert.Equal(t, tt.want, got)
		})
	}
}

func TestRuleCreate(t *testing.T) {
	f := newFixture(t)

	m, err := f.registry.InstallModule("pages", "", false, "edit")
	require.NoError(t, err)

	existing, err := f.registry.FindByModuleAction(m.ID, "edit", false)
	require.NoError(t, err)

	rule, err := f.registry.Create(m.ID, "edit", true)
	require.ErrorIs(t, err, acl.ErrDuplicateRule)
	require.ErrorIs(t, err, acl.ErrDuplicate)
	require.NotNil(t, rule, "the existing rule comes back with the error")
	assert.Equal(t, existing.ID, rule.ID)
	assert.False(t, rule.AdminOnly)
	assert.Equal(t, []string{"a rule for pages/edit already exists"}, acl.Messages(err))

	full, err := f.registry.Create(m.ID, acl.FullModule, false)
	require.NoError(t, err)
	assert.True(t, full.FullModule())
	assert.Equal(t, "pages", full.Module.Name)

	_, err = f.registry.Create(m.ID, acl.FullModule, false)
	require.ErrorIs(t, err, acl.ErrDuplicateRule)

	_, err = f.registry.Create(999, "edit", false)
	require.ErrorIs(t, err, acl.ErrNotFound)

	_, err = f.registry.FindByModuleAction(m.ID, "edit", true)
	require.ErrorIs(t, err, acl.ErrNotFound, "admin_only has to match too")
}

func TestRuleUniqueInStore(t *testing.T) {
	f := newFixture(t)

	m, err := f.registry.InstallModule("reports", "", false, acl.FullModule, "export")
	require.NoError(t, err)

	tests := []struct {
		name   string
		action string
	}{
		{name: "full-module rule", action: acl.FullModule},
		{name: "action rule", action: "export"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := f.db.Create(&models.Rule{ModuleID: m.ID, Action: tt.action}).Error
			require.ErrorIs(t, err, gorm.ErrDuplicatedKey)
		})
	}

	var full int64
	require.NoError(t, f.db.Model(&models.Rule{}).
		Where("module_id = ? AND action = ?", m.ID, acl.FullModule).
		Count(&full).Error)
	assert.Equal(t, int64(1), full)
}

func TestRuleDelete(t *testing.T) {
	f := newFixture(t)
	g := f.group(t, "Users")
	edit := f.rule(t, "pages", "edit", false)

	grant, err := f.grants.Grant(g.ID, edit.ID)
	require.NoError(t, err)

	err = f.registry.Delete(edit.ID)
	require.ErrorIs(t, err, acl.ErrConstraint)

	require.NoError(t, f.grants.Revoke(grant.ID))
	require.NoError(t, f.registry.Delete(edit.ID))

	_, err = f.registry.Get(edit.ID)
	require.ErrorIs(t, err, acl.ErrNotFound)
	require.ErrorIs(t, f.registry.Delete(edit.ID), acl.ErrNotFound)
}
