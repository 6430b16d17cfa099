// Package auth provides authentication and route guarding for the admin service.
//
// Users authenticate against one of three sources:
//   - LocalProvider checks Argon2id password hashes in the database, counts
//     failed logins and locks the account at the policy's fault limit
//   - LDAPProvider binds against LDAP or Active Directory
//   - OIDCProvider runs the OAuth2 code flow of an OpenID Connect provider
//
// LDAP and OIDC accounts are handed to a Provisioner, which creates or
// updates the local user. Its group is the first local group whose name
// matches one of the directory groups, else the default group.
//
// # Route guards
//
// Guard reads the session cookie, loads the user and asks the acl.Engine:
//
//	guard := auth.NewGuard(sessions, users, engine)
//
//	app.Get("/api/groups",
//	    guard.RequireAction(auth.ModuleGroup, auth.ActionList),
//	    handler,
//	)
//
// Catalog lists the modules of the service itself, InstallCatalog
// registers them on start.
package auth
