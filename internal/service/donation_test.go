package service

import (
	"context"
	"errors"
	"testing"
	"time"
)

func validDonation() DonationInput {
	return DonationInput{
		DonorName:  "Alice",
		Email:      "a@x.com",
		TabletName: "iPad Air",
		ExpiryDate: "2025-01-01",
		Unopened:   true,
	}
}

func TestDonationCreate(t *testing.T) {
	env := newTestEnv(t)
	fixed := time.Date(2024, 6, 1, 9, 30, 0, 0, time.UTC)
	env.donations.now = func() time.Time { return fixed }

	d, err := env.donations.Create(context.Background(), validDonation())
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if d.ID == "" {
		t.Error("expected ID")
	}
	if d.Verified {
		t.Error("new donation must be unverified")
	}
	if !d.CreatedAt.Equal(fixed) {
		t.Errorf("CreatedAt = %v, want server time %v", d.CreatedAt, fixed)
	}
	if want := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC); !d.ExpiryDate.Equal(want) {
		t.Errorf("ExpiryDate = %v, want %v", d.ExpiryDate, want)
	}
	if !d.Unopened {
		t.Error("Unopened should be kept")
	}
}

func TestDonationCreateNormalizes(t *testing.T) {
	env := newTestEnv(t)

	in := validDonation()
	in.DonorName = "  Alice  "
	in.Email = " A@X.COM "
	in.ExpiryDate = "2025-01-01T10:00:00Z"

	d, err := env.donations.Create(context.Background(), in)
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if d.DonorName != "Alice" {
		t.Errorf("DonorName = %q", d.DonorName)
	}
	if d.Email != "a@x.com" {
		t.Errorf("Email = %q", d.Email)
	}
	if d.ExpiryDate.Hour() != 10 {
		t.Errorf("ExpiryDate = %v, want 10:00 UTC", d.ExpiryDate)
	}
}

func TestDonationCreateValidation(t *testing.T) {
	env := newTestEnv(t)

	tests := []struct {
		field  string
		mutate func(*DonationInput)
	}{
		{"donorName", func(in *DonationInput) { in.DonorName = " " }},
		{"email", func(in *DonationInput) { in.Email = "" }},
		{"email", func(in *DonationInput) { in.Email = "not-an-email" }},
		{"tabletName", func(in *DonationInput) { in.TabletName = "" }},
		{"expiryDate", func(in *DonationInput) { in.ExpiryDate = "" }},
		{"expiryDate", func(in *DonationInput) { in.ExpiryDate = "next tuesday" }},
	}
	for _, tt := range tests {
		in := validDonation()
		tt.mutate(&in)
		_, err := env.donations.Create(context.Background(), in)
		var ve *ValidationError
		if !errors.As(err, &ve) {
			t.Errorf("%s: got %v, want ValidationError", tt.field, err)
			continue
		}
		if ve.Field != tt.field {
			t.Errorf("Field = %q, want %q", ve.Field, tt.field)
		}
	}

	list, err := env.donations.List(context.Background())
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(list) != 0 {
		t.Errorf("invalid submissions were stored: %d", len(list))
	}
}

func TestDonationVerifyIdempotent(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	d, err := env.donations.Create(ctx, validDonation())
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	for i := 0; i < 2; i++ {
		got, err := env.donations.Verify(ctx, d.ID)
		if err != nil {
			t.Fatalf("Verify #%d: %v", i+1, err)
		}
		if !got.Verified {
			t.Errorf("Verify #%d: verified = false", i+1)
		}
	}

	if _, err := env.donations.Verify(ctx, "missing"); !errors.Is(err, ErrDonationNotFound) {
		t.Errorf("Verify unknown err = %v, want ErrDonationNotFound", err)
	}
}

func TestDonationDelete(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	d, err := env.donations.Create(ctx, validDonation())
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if err := env.donations.Delete(ctx, d.ID); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if err := env.donations.Delete(ctx, d.ID); !errors.Is(err, ErrDonationNotFound) {
		t.Errorf("second Delete err = %v, want ErrDonationNotFound", err)
	}
}
