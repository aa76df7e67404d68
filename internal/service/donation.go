package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/carecycle/carecycle/internal/model"
	"github.com/carecycle/carecycle/internal/store"
)

// DonationInput is the public submission payload. Verified and CreatedAt are
// never taken from the client.
type DonationInput struct {
	DonorName  string `json:"donorName"`
	Email      string `json:"email"`
	TabletName string `json:"tabletName"`
	ExpiryDate string `json:"expiryDate"`
	Unopened   bool   `json:"unopened"`
}

// expiryLayouts are tried in order when parsing DonationInput.ExpiryDate.
var expiryLayouts = []string{
	"2006-01-02",
	time.RFC3339Nano,
	"2006-01-02T15:04:05",
}

// DonationService implements the donation lifecycle.
type DonationService struct {
	store store.DonationStore
	now   func() time.Time
}

func NewDonationService(s store.DonationStore) *DonationService {
	return &DonationService{store: s, now: store.Now}
}

// Create validates in and stores an unverified donation stamped with the
// server clock.
func (s *DonationService) Create(ctx context.Context, in DonationInput) (*model.Donation, error) {
	d := &model.Donation{
		DonorName:  strings.TrimSpace(in.DonorName),
		Email:      store.NormalizeEmail(in.Email),
		TabletName: strings.TrimSpace(in.TabletName),
		Unopened:   in.Unopened,
		Verified:   false,
		CreatedAt:  s.now(),
	}

	switch {
	case d.DonorName == "":
		return nil, invalid("donorName", "is required")
	case d.Email == "":
		return nil, invalid("email", "is required")
	case !strings.Contains(d.Email, "@"):
		return nil, invalid("email", "must be a valid email address")
	case d.TabletName == "":
		return nil, invalid("tabletName", "is required")
	}

	expiry, err := parseExpiry(in.ExpiryDate)
	if err != nil {
		return nil, err
	}
	d.ExpiryDate = expiry

	if err := s.store.CreateDonation(ctx, d); err != nil {
		return nil, fmt.Errorf("create donation: %w", err)
	}
	return d, nil
}

// List returns every donation, newest first.
func (s *DonationService) List(ctx context.Context) ([]model.Donation, error) {
	return s.store.ListDonations(ctx)
}

// Verify marks a donation verified. Repeated calls succeed.
func (s *DonationService) Verify(ctx context.Context, id string) (*model.Donation, error) {
	d, err := s.store.VerifyDonation(ctx, id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, ErrDonationNotFound
		}
		return nil, err
	}
	return d, nil
}

// Delete removes a donation.
func (s *DonationService) Delete(ctx context.Context, id string) error {
	if err := s.store.DeleteDonation(ctx, id); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return ErrDonationNotFound
		}
		return err
	}
	return nil
}

func parseExpiry(raw string) (time.Time, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return time.Time{}, invalid("expiryDate", "is required")
	}
	for _, layout := range expiryLayouts {
		if t, err := time.Parse(layout, raw); err == nil {
			return t.UTC(), nil
		}
	}
	return time.Time{}, invalid("expiryDate", "must be a date in YYYY-MM-DD or RFC 3339 format")
}
