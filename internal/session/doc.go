// Package session supplies the current admin user to the rest of the
// service.
//
// A Provider owns one admin's AdminUser record. The record is synthesized
// from the persisted role preference when the session opens, replaced as a
// whole on every role switch, and discarded when the session ends. Readers
// always observe a complete (role, permissions) pair.
//
// A Registry keeps one Provider per authenticated subject.
package session
