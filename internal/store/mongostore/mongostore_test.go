package mongostore

import (
	"context"
	"errors"
	"fmt"
	"os"
	"testing"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/carecycle/carecycle/internal/store"
	"github.com/carecycle/carecycle/internal/store/storetest"
)

// Set CARECYCLE_TEST_MONGO_URI (e.g. mongodb://localhost:27017) to run the
// shared store suite against a live server. Each subtest gets its own
// database, dropped on cleanup.
func TestMongoStore(t *testing.T) {
	uri := os.Getenv("CARECYCLE_TEST_MONGO_URI")
	if uri == "" {
		t.Skip("CARECYCLE_TEST_MONGO_URI not set")
	}
	n := 0
	storetest.Run(t, func(t *testing.T) store.Store {
		t.Helper()
		n++
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		name := fmt.Sprintf("carecycle_test_%d_%d", time.Now().UnixNano(), n)
		s, err := Open(ctx, uri, name)
		if err != nil {
			t.Fatalf("Open: %v", err)
		}
		t.Cleanup(func() {
			s.admins.Database().Drop(context.Background())
			s.Close()
		})
		return s
	})
}

func TestObjectID(t *testing.T) {
	oid := primitive.NewObjectID()
	got, err := objectID(oid.Hex())
	if err != nil {
		t.Fatalf("objectID: %v", err)
	}
	if got != oid {
		t.Errorf("got %v, want %v", got, oid)
	}

	for _, bad := range []string{"", "xyz", "0196a1b2-0000-7000-8000-000000000000"} {
		if _, err := objectID(bad); !errors.Is(err, store.ErrNotFound) {
			t.Errorf("objectID(%q) err = %v, want ErrNotFound", bad, err)
		}
	}
}

func TestAdminDocToModel(t *testing.T) {
	login := time.Date(2025, 1, 2, 3, 4, 5, 0, time.FixedZone("x", 3600))
	doc := adminDoc{
		ID:        primitive.NewObjectID(),
		Name:      "Ada",
		Email:     "ada@example.com",
		Password:  "hash",
		Role:      "superadmin",
		LastLogin: &login,
	}
	a := doc.toModel()
	if a.ID != doc.ID.Hex() {
		t.Errorf("ID = %q, want %q", a.ID, doc.ID.Hex())
	}
	if a.PasswordHash != "hash" {
		t.Errorf("PasswordHash = %q", a.PasswordHash)
	}
	if a.LastLogin == nil || a.LastLogin.Location() != time.UTC || !a.LastLogin.Equal(login) {
		t.Errorf("LastLogin = %v, want %v in UTC", a.LastLogin, login)
	}
}
