package userdb

import "fmt"

// User is one entry of the credential table. Roles is kept as the verbatim
// comma-and-space joined string the fronting proxy expects, never parsed.
type User struct {
	Name        string
	DisplayName string
	Roles       string
}

// Table maps a user id to its record. It is built once at startup and must
// not be mutated afterwards, so handlers can read it without locking.
type Table map[string]User

// Defaults returns the well-known test users of the reference deployment.
func Defaults() Table {
	return Table{
		"admin": {
			Name:        "admin",
			DisplayName: "Administrator",
			Roles:       "ROLE_ADMIN, ROLE_USER_ADMIN, ROLE_ANONYMOUS, ROLE_USER, ROLE_SUDO",
		},
		"sabine": {
			Name:        "sabine",
			DisplayName: "Sabine Rudolfs",
			Roles:       "ROLE_USER_SABINE, ROLE_ANONYMOUS, ROLE_USER, ROLE_INSTRUCTOR, ROLE_TOBIRA_MODERATOR",
		},
		"augustus": {
			Name:        "augustus",
			DisplayName: "Augustus Pagenkämper",
			Roles:       "ROLE_USER_AUGUSTUS, ROLE_ANONYMOUS, ROLE_USER, ROLE_STUDENT",
		},
	}
}

// Merge overlays extra entries onto the table, keyed by user id. Entries
// with an empty id are skipped. Call this during startup only.
func (t Table) Merge(extra []User) {
	for _, u := range extra {
		if u.Name == "" {
			continue
		}
		t[u.Name] = u
	}
}

// Lookup is an exact, case-sensitive match on the user id.
func (t Table) Lookup(id string) (User, bool) {
	u, ok := t[id]
	return u, ok
}

// Check verifies the table invariant: every entry has a non-empty display
// name and roles string.
func (t Table) Check() error {
	for id, u := range t {
		if u.DisplayName == "" {
			return fmt.Errorf("user %q has no display name", id)
		}
		if u.Roles == "" {
			return fmt.Errorf("user %q has no roles", id)
		}
	}

	return nil
}
