package model

import "time"

// Donation is a publicly submitted tablet donation awaiting admin verification.
// Verified only ever moves from false to true.
type Donation struct {
	ID         string    `json:"id" db:"id"`
	DonorName  string    `json:"donorName" db:"donor_name"`
	Email      string    `json:"email" db:"email"`
	TabletName string    `json:"tabletName" db:"tablet_name"`
	ExpiryDate time.Time `json:"expiryDate" db:"expiry_date"`
	Unopened   bool      `json:"unopened" db:"unopened"`
	Verified   bool      `json:"verified" db:"verified"`
	CreatedAt  time.Time `json:"createdAt" db:"created_at"`
}
