// Package acl implements module/action access control.
//
// A Rule names one action of a Module, or the whole module when its action
// is empty. Rules are granted to a Group through an Acl row, and every user
// belongs to exactly one group. Engine.Authorize allows a user when the
// group holds a grant on the exact rule or on the full-module rule. Admin
// users bypass every check and disabled users are always denied.
//
// Exactly one group is the default group. New users without an explicit
// group land in it. Each group may flag one of its grants as the landing
// grant, returned by Engine.Landing after login.
//
// All stores return *Error values whose kind is one of ErrValidation,
// ErrDuplicate, ErrConstraint, ErrNotFound or ErrConfiguration.
//
// Example usage:
//
//	groups := acl.NewGroups(db, validator.New())
//	editors, err := groups.Create("Editors", false)
//
//	registry := acl.NewRegistry(db)
//	pages, err := registry.InstallModule("pages", "Page editor", false, "edit", "publish")
//
//	engine := acl.NewEngine(db)
//	decision, err := engine.Authorize(user, "pages", "edit")
package acl
