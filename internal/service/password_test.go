package service

import (
	"errors"
	"strings"
	"testing"

	"golang.org/x/crypto/bcrypt"
)

func TestPasswordHasher(t *testing.T) {
	h := NewPasswordHasher(bcrypt.MinCost)

	hash, err := h.Hash("correct horse")
	if err != nil {
		t.Fatalf("Hash: %v", err)
	}
	if hash == "correct horse" {
		t.Fatal("hash must not equal the plaintext")
	}
	if !h.Compare(hash, "correct horse") {
		t.Error("Compare rejected the right password")
	}
	if h.Compare(hash, "wrong horse") {
		t.Error("Compare accepted a wrong password")
	}
	if h.Compare("not-a-hash", "correct horse") {
		t.Error("Compare accepted a malformed hash")
	}
}

func TestPasswordHasherCost(t *testing.T) {
	tests := []struct {
		in, want int
	}{
		{0, bcrypt.DefaultCost},
		{1, bcrypt.MinCost},
		{12, 12},
		{99, bcrypt.MaxCost},
	}
	for _, tt := range tests {
		if got := NewPasswordHasher(tt.in).cost; got != tt.want {
			t.Errorf("NewPasswordHasher(%d).cost = %d, want %d", tt.in, got, tt.want)
		}
	}
}

func TestPasswordHasherTooLong(t *testing.T) {
	_, err := NewPasswordHasher(bcrypt.MinCost).Hash(strings.Repeat("x", maxPasswordBytes+1))
	var ve *ValidationError
	if !errors.As(err, &ve) {
		t.Fatalf("got %v, want ValidationError", err)
	}
	if ve.Field != "password" {
		t.Errorf("Field = %q, want password", ve.Field)
	}
}
