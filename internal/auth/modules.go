package auth

import (
	"github.com/portcullis-admin/portcullis/internal/acl"
)

// Modules of the admin service itself. The routes of internal/web are guarded with them.
const (
	ModuleGroup  = "group"
	ModuleRule   = "rule"
	ModuleACL    = "acl"
	ModuleUser   = "user"
	ModuleAccess = "access"
	ModulePolicy = "policy"
)

// Actions used by the guarded routes.
const (
	ActionList    = "list"
	ActionView    = "view"
	ActionCreate  = "create"
	ActionEdit    = "edit"
	ActionDelete  = "delete"
	ActionGrant   = "grant"
	ActionRevoke  = "revoke"
	ActionDefault = "default"
	ActionCheck   = "check"
)

// CatalogModule describes one module of the catalog.
type CatalogModule struct {
	Name        string
	Description string
	AdminOnly   bool
	Actions     []string
}

// Catalog lists the modules and rules the service installs on start.
// Every module has a full-module rule, group and acl also have one rule per action.
var Catalog = []CatalogModule{
	{
		Name:        ModuleGroup,
		Description: "Groups and their members",
		Actions: []string{
			acl.FullModule, ActionList, ActionView, ActionCreate, ActionEdit, ActionDelete,
		},
	},
	{
		Name:        ModuleRule,
		Description: "Rule registry",
		Actions:     []string{acl.FullModule},
	},
	{
		Name:        ModuleACL,
		Description: "Grants of groups",
		Actions: []string{
			acl.FullModule, ActionList, ActionGrant, ActionRevoke, ActionDefault,
		},
	},
	{
		Name:        ModuleUser,
		Description: "User accounts",
		Actions:     []string{acl.FullModule},
	},
	{
		Name:        ModuleAccess,
		Description: "Access checks for other services",
		Actions:     []string{acl.FullModule},
	},
	{
		Name:        ModulePolicy,
		Description: "Login and landing policy",
		AdminOnly:   true,
		Actions:     []string{acl.FullModule},
	},
}

// InstallCatalog installs Catalog into registry. Installing twice is harmless.
func InstallCatalog(registry *acl.Registry) error {
	for _, m := range Catalog {
		if _, err := registry.InstallModule(m.Name, m.Description, m.AdminOnly, m.Actions...); err != nil {
			return err //nolint:wrapcheck
		}
	}

	return nil
}
