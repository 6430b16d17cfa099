// Package main is the entry point of Portcullis, a group based access
// control service. Users belong to one group, groups hold grants on
// (module, action) rules, and the engine decides every request from the
// database. The commands start the JSON admin API, check a single decision
// from the shell and print the effective configuration.
package main
