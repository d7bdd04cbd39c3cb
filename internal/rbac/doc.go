// Package rbac provides the permission model of the TaalumaWorld back office.
//
// This package implements:
//   - The closed permission catalog
//   - Role to permission and section to permission tables
//   - Pure resolver functions (has/any/all, section access)
//   - An explicit role rank table
//
// Every function is total: unknown roles, sections, permission tokens and
// nil users resolve to false or an empty result, never a panic.
package rbac
