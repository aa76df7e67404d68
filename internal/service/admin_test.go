package service

import (
	"context"
	"errors"
	"testing"

	"github.com/carecycle/carecycle/internal/model"
)

func TestAdminCreateValidation(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	tests := []struct {
		name  string
		in    AdminInput
		field string
	}{
		{"missing name", AdminInput{Email: "a@x.com", Password: "password1"}, "name"},
		{"missing email", AdminInput{Name: "A", Password: "password1"}, "email"},
		{"bad email", AdminInput{Name: "A", Email: "nope", Password: "password1"}, "email"},
		{"missing password", AdminInput{Name: "A", Email: "a@x.com"}, "password"},
		{"short password", AdminInput{Name: "A", Email: "a@x.com", Password: "short"}, "password"},
		{"bad role", AdminInput{Name: "A", Email: "a@x.com", Password: "password1", Role: "root"}, "role"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := env.admins.Create(ctx, tt.in)
			var ve *ValidationError
			if !errors.As(err, &ve) {
				t.Fatalf("got %v, want ValidationError", err)
			}
			if ve.Field != tt.field {
				t.Errorf("Field = %q, want %q", ve.Field, tt.field)
			}
		})
	}
}

func TestAdminRegister(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	res, err := env.admins.Register(ctx, AdminInput{Name: "Ada", Email: "Ada@Example.com", Password: "password1"})
	if err != nil {
		t.Fatalf("Register: %v", err)
	}
	if res.Token == "" {
		t.Fatal("expected token")
	}
	if res.Admin.Role != model.RoleAdmin {
		t.Errorf("Role = %q, want default admin", res.Admin.Role)
	}
	if res.Admin.Email != "ada@example.com" {
		t.Errorf("Email = %q, want lower-cased", res.Admin.Email)
	}

	id, err := env.tokens.Verify(res.Token)
	if err != nil {
		t.Fatalf("Verify: %v", err)
	}
	if id != res.Admin.ID {
		t.Errorf("token subject = %q, want %q", id, res.Admin.ID)
	}
}

func TestAdminRegisterDuplicate(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	in := AdminInput{Name: "Ada", Email: "ada@example.com", Password: "password1"}
	if _, err := env.admins.Register(ctx, in); err != nil {
		t.Fatalf("Register: %v", err)
	}

	in.Email = "  ADA@example.com"
	if _, err := env.admins.Register(ctx, in); !errors.Is(err, ErrAdminExists) {
		t.Fatalf("duplicate Register err = %v, want ErrAdminExists", err)
	}

	admins, err := env.admins.List(ctx)
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(admins) != 1 {
		t.Errorf("admin count = %d, want 1", len(admins))
	}
}

func TestAdminLogin(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	if _, err := env.admins.Create(ctx, AdminInput{Name: "Ada", Email: "ada@example.com", Password: "password1"}); err != nil {
		t.Fatalf("Create: %v", err)
	}

	res, err := env.admins.Login(ctx, "ADA@example.com", "password1")
	if err != nil {
		t.Fatalf("Login: %v", err)
	}
	if res.Token == "" {
		t.Error("expected token")
	}
	if res.Admin.LastLogin == nil {
		t.Error("expected LastLogin in login response")
	}

	stored, err := env.admins.Get(ctx, res.Admin.ID)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if stored.LastLogin == nil {
		t.Error("expected LastLogin to be persisted")
	}
	if stored.PasswordHash != "" {
		t.Error("Get must not return the password hash")
	}
}

func TestAdminLoginFailuresAreIndistinguishable(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	if _, err := env.admins.Create(ctx, AdminInput{Name: "Ada", Email: "ada@example.com", Password: "password1"}); err != nil {
		t.Fatalf("Create: %v", err)
	}

	_, wrongPassword := env.admins.Login(ctx, "ada@example.com", "password2")
	_, unknownEmail := env.admins.Login(ctx, "bob@example.com", "password1")

	if !errors.Is(wrongPassword, ErrInvalidCredentials) {
		t.Errorf("wrong password err = %v, want ErrInvalidCredentials", wrongPassword)
	}
	if !errors.Is(unknownEmail, ErrInvalidCredentials) {
		t.Errorf("unknown email err = %v, want ErrInvalidCredentials", unknownEmail)
	}
	if wrongPassword.Error() != unknownEmail.Error() {
		t.Errorf("messages differ: %q vs %q", wrongPassword, unknownEmail)
	}
}

func TestAdminLoginMissingFields(t *testing.T) {
	env := newTestEnv(t)

	for _, c := range [][2]string{{"", "pw"}, {"a@x.com", ""}, {"  ", ""}} {
		_, err := env.admins.Login(context.Background(), c[0], c[1])
		var ve *ValidationError
		if !errors.As(err, &ve) {
			t.Errorf("Login(%q, %q) err = %v, want ValidationError", c[0], c[1], err)
		}
	}
}

func TestAdminHasSuperAdmin(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	ok, err := env.admins.HasSuperAdmin(ctx)
	if err != nil || ok {
		t.Fatalf("HasSuperAdmin on empty store = %v, %v", ok, err)
	}

	if _, err := env.admins.Create(ctx, AdminInput{Name: "A", Email: "a@x.com", Password: "password1"}); err != nil {
		t.Fatalf("Create admin: %v", err)
	}
	if ok, _ := env.admins.HasSuperAdmin(ctx); ok {
		t.Error("plain admin should not count as superadmin")
	}

	if _, err := env.admins.Create(ctx, AdminInput{Name: "S", Email: "s@x.com", Password: "password1", Role: model.RoleSuperAdmin}); err != nil {
		t.Fatalf("Create superadmin: %v", err)
	}
	if ok, _ := env.admins.HasSuperAdmin(ctx); !ok {
		t.Error("expected HasSuperAdmin after creating one")
	}
}

func TestAuthenticate(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	res, err := env.admins.Register(ctx, AdminInput{Name: "Ada", Email: "ada@example.com", Password: "password1"})
	if err != nil {
		t.Fatalf("Register: %v", err)
	}

	admin, err := env.auth.Authenticate(ctx, res.Token)
	if err != nil {
		t.Fatalf("Authenticate: %v", err)
	}
	if admin.ID != res.Admin.ID {
		t.Errorf("ID = %q, want %q", admin.ID, res.Admin.ID)
	}
	if admin.PasswordHash != "" {
		t.Error("authenticated admin must not carry the password hash")
	}

	ghost, _, err := env.tokens.Issue("0196a1b2-0000-7000-8000-000000000000")
	if err != nil {
		t.Fatalf("Issue: %v", err)
	}
	if _, err := env.auth.Authenticate(ctx, ghost); !errors.Is(err, ErrAdminNotFound) {
		t.Errorf("unknown admin err = %v, want ErrAdminNotFound", err)
	}

	if _, err := env.auth.Authenticate(ctx, "garbage"); !errors.Is(err, ErrInvalidToken) {
		t.Errorf("garbage token err = %v, want ErrInvalidToken", err)
	}
}
