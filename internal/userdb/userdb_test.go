package userdb

import "testing"

func TestDefaults(t *testing.T) {
	table := Defaults()

	if len(table) != 3 {
		t.Fatalf("expected 3 default users, got %d", len(table))
	}

	admin, ok := table.Lookup("admin")
	if !ok {
		t.Fatal("admin not found")
	}
	if admin.DisplayName != "Administrator" {
		t.Errorf("unexpected display name: %s", admin.DisplayName)
	}
	if admin.Roles != "ROLE_ADMIN, ROLE_USER_ADMIN, ROLE_ANONYMOUS, ROLE_USER, ROLE_SUDO" {
		t.Errorf("unexpected roles: %s", admin.Roles)
	}

	augustus, ok := table.Lookup("augustus")
	if !ok {
		t.Fatal("augustus not found")
	}
	if augustus.DisplayName != "Augustus Pagenkämper" {
		t.Errorf("unexpected display name: %s", augustus.DisplayName)
	}

	if err := table.Check(); err != nil {
		t.Errorf("default table failed check: %v", err)
	}
}

func TestLookupIsCaseSensitive(t *testing.T) {
	table := Defaults()

	if _, ok := table.Lookup("Admin"); ok {
		t.Error("lookup must be case-sensitive")
	}
	if _, ok := table.Lookup("admin "); ok {
		t.Error("lookup must not normalize")
	}
}

func TestMerge(t *testing.T) {
	table := Defaults()
	table.Merge([]User{
		{Name: "björn", DisplayName: "Björn Meyer", Roles: "ROLE_USER"},
		{Name: "admin", DisplayName: "Replaced", Roles: "ROLE_USER"},
		{Name: "", DisplayName: "ignored", Roles: "ROLE_USER"},
	})

	if len(table) != 4 {
		t.Fatalf("expected 4 users after merge, got %d", len(table))
	}

	u, ok := table.Lookup("björn")
	if !ok || u.DisplayName != "Björn Meyer" {
		t.Errorf("merged user missing or wrong: %+v", u)
	}

	if u, _ := table.Lookup("admin"); u.DisplayName != "Replaced" {
		t.Errorf("merge must overwrite existing entries, got %+v", u)
	}
}

func TestCheck(t *testing.T) {
	table := Table{"x": {Name: "x", DisplayName: "X"}}
	if err := table.Check(); err == nil {
		t.Error("expected error for empty roles")
	}

	table = Table{"x": {Name: "x", Roles: "ROLE_USER"}}
	if err := table.Check(); err == nil {
		t.Error("expected error for empty display name")
	}
}
