package cli

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/carecycle/carecycle/internal/config"
	"github.com/carecycle/carecycle/internal/model"
)

// run executes the root command with args against a SQLite database in a
// temp directory and returns stdout.
func run(t *testing.T, dir string, args ...string) (string, error) {
	t.Helper()
	t.Setenv("CARECYCLE_DATABASE_URL", filepath.Join(dir, "carecycle.db"))
	t.Setenv("CARECYCLE_AUTH_BCRYPT_COST", "4")

	cmd := newRootCmd("1.2.3", "abc123", "2026-01-01")
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(append([]string{"--env-file", filepath.Join(dir, "missing.env"), "--data-dir", dir}, args...))
	err := cmd.Execute()
	return out.String(), err
}

func TestVersionJSON(t *testing.T) {
	out, err := run(t, t.TempDir(), "version", "--json")
	if err != nil {
		t.Fatalf("version: %v", err)
	}
	var info map[string]string
	if err := json.Unmarshal([]byte(out), &info); err != nil {
		t.Fatalf("decode: %v (%s)", err, out)
	}
	if info["version"] != "1.2.3" || info["commit"] != "abc123" {
		t.Errorf("info = %v", info)
	}
}

func TestAdminCreateAndList(t *testing.T) {
	dir := t.TempDir()

	out, err := run(t, dir, "admin", "create", "--email", "Root@CareCycle.com", "--password", "admin12345")
	if err != nil {
		t.Fatalf("admin create: %v", err)
	}
	if !strings.Contains(out, `superadmin "root@carecycle.com"`) {
		t.Errorf("create output = %q", out)
	}

	if _, err := run(t, dir, "admin", "create", "--email", "root@carecycle.com", "--password", "admin12345"); err == nil {
		t.Error("expected duplicate email to fail")
	}

	out, err = run(t, dir, "admin", "list", "--json")
	if err != nil {
		t.Fatalf("admin list: %v", err)
	}
	var admins []model.AdminView
	if err := json.Unmarshal([]byte(out), &admins); err != nil {
		t.Fatalf("decode: %v (%s)", err, out)
	}
	if len(admins) != 1 || admins[0].Role != model.RoleSuperAdmin {
		t.Errorf("admins = %+v", admins)
	}
}

func TestAdminCreateShortPassword(t *testing.T) {
	if _, err := run(t, t.TempDir(), "admin", "create", "--email", "a@b.com", "--password", "short"); err == nil {
		t.Error("expected short password to fail")
	}
}

func TestDBStatus(t *testing.T) {
	dir := t.TempDir()
	if _, err := run(t, dir, "db", "migrate"); err != nil {
		t.Fatalf("db migrate: %v", err)
	}
	out, err := run(t, dir, "db", "status")
	if err != nil {
		t.Fatalf("db status: %v", err)
	}
	if !strings.Contains(out, "00001_init.sql") {
		t.Errorf("status output = %q", out)
	}
}

func TestConfigInit(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "carecycle.yaml")

	if _, err := run(t, dir, "config", "init", "-o", path); err != nil {
		t.Fatalf("config init: %v", err)
	}
	f, err := config.LoadFile(path)
	if err != nil {
		t.Fatalf("LoadFile: %v", err)
	}
	if f.Server.Port != 5000 {
		t.Errorf("port = %d", f.Server.Port)
	}

	if _, err := run(t, dir, "config", "init", "-o", path); err == nil {
		t.Error("expected existing file to be refused without --force")
	}
	if _, err := run(t, dir, "config", "init", "-o", path, "--force"); err != nil {
		t.Errorf("config init --force: %v", err)
	}
}

func TestOpenAPIToFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "openapi.json")

	if _, err := run(t, dir, "openapi", "-o", path); err != nil {
		t.Fatalf("openapi: %v", err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if !bytes.Contains(data, []byte(`"/api/donations"`)) {
		t.Errorf("spec missing donations path")
	}
}

func TestRedactURL(t *testing.T) {
	tests := map[string]string{
		"postgres://user:pw@db:5432/app": "postgres://user:****@db:5432/app",
		"mongodb://db:27017":             "mongodb://db:27017",
		"/var/lib/carecycle.db":          "/var/lib/carecycle.db",
	}
	for in, want := range tests {
		if got := redactURL(in); got != want {
			t.Errorf("redactURL(%q) = %q, want %q", in, got, want)
		}
	}
}
