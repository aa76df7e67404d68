package model

import (
	"encoding/json"
	"testing"
	"time"
)

func TestHasCapability(t *testing.T) {
	tests := []struct {
		role Role
		cap  Capability
		want bool
	}{
		{RoleAdmin, CapProfileRead, true},
		{RoleAdmin, CapDonationsRead, true},
		{RoleAdmin, CapDonationsVerify, true},
		{RoleAdmin, CapDonationsDelete, true},
		{RoleAdmin, CapAdminsRead, false},
		{RoleAdmin, CapAdminsCreate, false},

		// superadmin holds every admin capability
		{RoleSuperAdmin, CapProfileRead, true},
		{RoleSuperAdmin, CapDonationsVerify, true},
		{RoleSuperAdmin, CapDonationsDelete, true},
		{RoleSuperAdmin, CapAdminsRead, true},
		{RoleSuperAdmin, CapAdminsCreate, true},

		{Role("guest"), CapProfileRead, false},
		{Role(""), CapDonationsRead, false},
		{RoleSuperAdmin, Capability("donations:purge"), false},
	}

	for _, tt := range tests {
		t.Run(string(tt.role)+"/"+string(tt.cap), func(t *testing.T) {
			if got := HasCapability(tt.role, tt.cap); got != tt.want {
				t.Errorf("HasCapability(%q, %q) = %v, want %v", tt.role, tt.cap, got, tt.want)
			}
		})
	}
}

func TestRequiredRole(t *testing.T) {
	tests := []struct {
		cap    Capability
		want   Role
		wantOK bool
	}{
		{CapProfileRead, RoleAdmin, true},
		{CapDonationsVerify, RoleAdmin, true},
		{CapAdminsCreate, RoleSuperAdmin, true},
		{CapAdminsRead, RoleSuperAdmin, true},
		{Capability("nope"), "", false},
	}
	for _, tt := range tests {
		got, ok := RequiredRole(tt.cap)
		if got != tt.want || ok != tt.wantOK {
			t.Errorf("RequiredRole(%q) = (%q, %v), want (%q, %v)", tt.cap, got, ok, tt.want, tt.wantOK)
		}
	}
}

func TestRoleValid(t *testing.T) {
	if !RoleAdmin.Valid() || !RoleSuperAdmin.Valid() {
		t.Error("expected built-in roles to be valid")
	}
	if Role("root").Valid() {
		t.Error("expected unknown role to be invalid")
	}
}

func TestAdminJSONOmitsPasswordHash(t *testing.T) {
	now := time.Date(2025, 1, 15, 12, 0, 0, 0, time.UTC)
	a := Admin{
		ID:           "a1",
		Name:         "Ada",
		Email:        "ada@example.com",
		PasswordHash: "$2a$10$secret",
		Role:         RoleAdmin,
		CreatedAt:    now,
	}

	b, err := json.Marshal(a)
	if err != nil {
		t.Fatalf("Marshal error: %v", err)
	}
	var m map[string]interface{}
	if err := json.Unmarshal(b, &m); err != nil {
		t.Fatalf("Unmarshal error: %v", err)
	}
	for _, key := range []string{"password", "passwordHash", "password_hash", "PasswordHash"} {
		if _, ok := m[key]; ok {
			t.Errorf("unexpected %q key in admin JSON", key)
		}
	}
	if _, ok := m["lastLogin"]; ok {
		t.Error("expected lastLogin to be omitted when nil")
	}

	v := a.View()
	if v.Email != a.Email || v.Role != a.Role || v.ID != a.ID {
		t.Errorf("View() = %+v, fields do not match admin", v)
	}
}

func TestDonationJSONFieldNames(t *testing.T) {
	d := Donation{ID: "d1", DonorName: "Alice", TabletName: "iPad Air", Unopened: true}
	b, err := json.Marshal(d)
	if err != nil {
		t.Fatalf("Marshal error: %v", err)
	}
	var m map[string]interface{}
	if err := json.Unmarshal(b, &m); err != nil {
		t.Fatalf("Unmarshal error: %v", err)
	}
	for _, key := range []string{"id", "donorName", "email", "tabletName", "expiryDate", "unopened", "verified", "createdAt"} {
		if _, ok := m[key]; !ok {
			t.Errorf("missing %q key in donation JSON", key)
		}
	}
}
