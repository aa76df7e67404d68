// Package storetest holds a behavioural test suite shared by every
// store.Store implementation.
package storetest

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/carecycle/carecycle/internal/model"
	"github.com/carecycle/carecycle/internal/store"
)

// Factory returns a fresh, empty store. It should register its own cleanup.
type Factory func(t *testing.T) store.Store

// Run exercises s against the store.Store contract.
func Run(t *testing.T, newStore Factory) {
	t.Run("AdminCRUD", func(t *testing.T) { testAdminCRUD(t, newStore(t)) })
	t.Run("AdminDuplicateEmail", func(t *testing.T) { testAdminDuplicateEmail(t, newStore(t)) })
	t.Run("AdminLastLogin", func(t *testing.T) { testAdminLastLogin(t, newStore(t)) })
	t.Run("DonationLifecycle", func(t *testing.T) { testDonationLifecycle(t, newStore(t)) })
	t.Run("DonationOrdering", func(t *testing.T) { testDonationOrdering(t, newStore(t)) })
	t.Run("UnknownIDs", func(t *testing.T) { testUnknownIDs(t, newStore(t)) })
}

func testAdminCRUD(t *testing.T, s store.Store) {
	ctx := context.Background()

	admin := &model.Admin{
		Name:         "Ada",
		Email:        "  Ada@Example.com ",
		PasswordHash: "$2a$04$hash",
		Role:         model.RoleSuperAdmin,
	}
	if err := s.CreateAdmin(ctx, admin); err != nil {
		t.Fatalf("CreateAdmin: %v", err)
	}
	if admin.ID == "" {
		t.Fatal("expected ID after create")
	}
	if admin.Email != "ada@example.com" {
		t.Errorf("email = %q, want normalized", admin.Email)
	}

	got, err := s.GetAdminByEmail(ctx, "ADA@example.com")
	if err != nil {
		t.Fatalf("GetAdminByEmail: %v", err)
	}
	if got.ID != admin.ID {
		t.Errorf("ID = %q, want %q", got.ID, admin.ID)
	}
	if got.PasswordHash != "$2a$04$hash" {
		t.Errorf("PasswordHash = %q, want stored hash", got.PasswordHash)
	}
	if got.Role != model.RoleSuperAdmin {
		t.Errorf("Role = %q, want superadmin", got.Role)
	}

	byID, err := s.GetAdminByID(ctx, admin.ID)
	if err != nil {
		t.Fatalf("GetAdminByID: %v", err)
	}
	if byID.PasswordHash != "" {
		t.Error("GetAdminByID must not load the password hash")
	}
	if byID.Name != "Ada" {
		t.Errorf("Name = %q, want Ada", byID.Name)
	}

	second := &model.Admin{Name: "Bob", Email: "bob@example.com", PasswordHash: "x"}
	if err := s.CreateAdmin(ctx, second); err != nil {
		t.Fatalf("CreateAdmin second: %v", err)
	}
	if second.Role != model.RoleAdmin {
		t.Errorf("default role = %q, want admin", second.Role)
	}

	admins, err := s.ListAdmins(ctx)
	if err != nil {
		t.Fatalf("ListAdmins: %v", err)
	}
	if len(admins) != 2 {
		t.Fatalf("ListAdmins len = %d, want 2", len(admins))
	}
	for _, a := range admins {
		if a.PasswordHash != "" {
			t.Errorf("ListAdmins leaked hash for %s", a.Email)
		}
	}

	n, err := s.CountAdminsByRole(ctx, model.RoleSuperAdmin)
	if err != nil {
		t.Fatalf("CountAdminsByRole: %v", err)
	}
	if n != 1 {
		t.Errorf("superadmin count = %d, want 1", n)
	}
}

func testAdminDuplicateEmail(t *testing.T, s store.Store) {
	ctx := context.Background()

	if err := s.CreateAdmin(ctx, &model.Admin{Email: "dup@example.com", PasswordHash: "x"}); err != nil {
		t.Fatalf("CreateAdmin: %v", err)
	}
	err := s.CreateAdmin(ctx, &model.Admin{Email: "DUP@example.com", PasswordHash: "y"})
	if !errors.Is(err, store.ErrDuplicate) {
		t.Fatalf("duplicate CreateAdmin err = %v, want ErrDuplicate", err)
	}

	admins, err := s.ListAdmins(ctx)
	if err != nil {
		t.Fatalf("ListAdmins: %v", err)
	}
	if len(admins) != 1 {
		t.Errorf("admin count = %d, want 1", len(admins))
	}
}

func testAdminLastLogin(t *testing.T, s store.Store) {
	ctx := context.Background()

	admin := &model.Admin{Email: "login@example.com", PasswordHash: "x"}
	if err := s.CreateAdmin(ctx, admin); err != nil {
		t.Fatalf("CreateAdmin: %v", err)
	}
	if admin.LastLogin != nil {
		t.Fatal("new admin should have no last login")
	}

	at := store.Now()
	if err := s.UpdateAdminLastLogin(ctx, admin.ID, at); err != nil {
		t.Fatalf("UpdateAdminLastLogin: %v", err)
	}
	got, err := s.GetAdminByID(ctx, admin.ID)
	if err != nil {
		t.Fatalf("GetAdminByID: %v", err)
	}
	if got.LastLogin == nil {
		t.Fatal("expected last login to be set")
	}
	if d := got.LastLogin.Sub(at); d > time.Second || d < -time.Second {
		t.Errorf("LastLogin = %v, want ~%v", got.LastLogin, at)
	}
}

func testDonationLifecycle(t *testing.T, s store.Store) {
	ctx := context.Background()

	expiry := time.Date(2026, 12, 31, 0, 0, 0, 0, time.UTC)
	d := &model.Donation{
		DonorName:  "Jane",
		Email:      "jane@example.com",
		TabletName: "Paracetamol",
		ExpiryDate: expiry,
		Unopened:   true,
		CreatedAt:  store.Now(),
	}
	if err := s.CreateDonation(ctx, d); err != nil {
		t.Fatalf("CreateDonation: %v", err)
	}
	if d.ID == "" {
		t.Fatal("expected ID after create")
	}

	got, err := s.GetDonation(ctx, d.ID)
	if err != nil {
		t.Fatalf("GetDonation: %v", err)
	}
	if got.Verified {
		t.Error("new donation should be unverified")
	}
	if !got.Unopened {
		t.Error("Unopened should round-trip")
	}
	if !got.ExpiryDate.Equal(expiry) {
		t.Errorf("ExpiryDate = %v, want %v", got.ExpiryDate, expiry)
	}
	if got.TabletName != "Paracetamol" {
		t.Errorf("TabletName = %q, want Paracetamol", got.TabletName)
	}

	verified, err := s.VerifyDonation(ctx, d.ID)
	if err != nil {
		t.Fatalf("VerifyDonation: %v", err)
	}
	if !verified.Verified {
		t.Error("VerifyDonation should return the verified record")
	}
	if verified.DonorName != "Jane" {
		t.Errorf("DonorName = %q, want Jane", verified.DonorName)
	}

	// Verifying twice is idempotent.
	again, err := s.VerifyDonation(ctx, d.ID)
	if err != nil {
		t.Fatalf("second VerifyDonation: %v", err)
	}
	if !again.Verified {
		t.Error("donation should stay verified")
	}

	if err := s.DeleteDonation(ctx, d.ID); err != nil {
		t.Fatalf("DeleteDonation: %v", err)
	}
	if _, err := s.GetDonation(ctx, d.ID); !errors.Is(err, store.ErrNotFound) {
		t.Errorf("GetDonation after delete err = %v, want ErrNotFound", err)
	}
	if err := s.DeleteDonation(ctx, d.ID); !errors.Is(err, store.ErrNotFound) {
		t.Errorf("second DeleteDonation err = %v, want ErrNotFound", err)
	}
}

func testDonationOrdering(t *testing.T, s store.Store) {
	ctx := context.Background()

	list, err := s.ListDonations(ctx)
	if err != nil {
		t.Fatalf("ListDonations on empty store: %v", err)
	}
	if list == nil || len(list) != 0 {
		t.Fatalf("empty ListDonations = %#v, want empty non-nil slice", list)
	}

	base := store.Now()
	names := []string{"first", "second", "third"}
	for i, name := range names {
		d := &model.Donation{
			DonorName:  name,
			Email:      name + "@example.com",
			TabletName: "Ibuprofen",
			ExpiryDate: base.AddDate(1, 0, 0),
			CreatedAt:  base.Add(time.Duration(i) * time.Second),
		}
		if err := s.CreateDonation(ctx, d); err != nil {
			t.Fatalf("CreateDonation %s: %v", name, err)
		}
	}

	list, err = s.ListDonations(ctx)
	if err != nil {
		t.Fatalf("ListDonations: %v", err)
	}
	if len(list) != 3 {
		t.Fatalf("len = %d, want 3", len(list))
	}
	want := []string{"third", "second", "first"}
	for i, d := range list {
		if d.DonorName != want[i] {
			t.Errorf("list[%d] = %q, want %q", i, d.DonorName, want[i])
		}
	}
}

func testUnknownIDs(t *testing.T, s store.Store) {
	ctx := context.Background()

	for _, id := range []string{"0196a1b2-0000-7000-8000-000000000000", "not-an-id", "507f1f77bcf86cd799439011"} {
		if _, err := s.GetAdminByID(ctx, id); !errors.Is(err, store.ErrNotFound) {
			t.Errorf("GetAdminByID(%q) err = %v, want ErrNotFound", id, err)
		}
		if _, err := s.GetDonation(ctx, id); !errors.Is(err, store.ErrNotFound) {
			t.Errorf("GetDonation(%q) err = %v, want ErrNotFound", id, err)
		}
		if _, err := s.VerifyDonation(ctx, id); !errors.Is(err, store.ErrNotFound) {
			t.Errorf("VerifyDonation(%q) err = %v, want ErrNotFound", id, err)
		}
		if err := s.DeleteDonation(ctx, id); !errors.Is(err, store.ErrNotFound) {
			t.Errorf("DeleteDonation(%q) err = %v, want ErrNotFound", id, err)
		}
		if err := s.UpdateAdminLastLogin(ctx, id, store.Now()); !errors.Is(err, store.ErrNotFound) {
			t.Errorf("UpdateAdminLastLogin(%q) err = %v, want ErrNotFound", id, err)
		}
	}
	if _, err := s.GetAdminByEmail(ctx, "nobody@example.com"); !errors.Is(err, store.ErrNotFound) {
		t.Errorf("GetAdminByEmail err = %v, want ErrNotFound", err)
	}
}
