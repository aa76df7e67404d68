package model

import "time"

// Admin represents a staff account able to manage donation records. Passwords
// are stored as bcrypt hashes.
type Admin struct {
	ID           string     `json:"id" db:"id"`
	Name         string     `json:"name" db:"name"`
	Email        string     `json:"email" db:"email"`
	PasswordHash string     `json:"-" db:"password_hash"` // bcrypt hash, never expose
	Role         Role       `json:"role" db:"role"`
	LastLogin    *time.Time `json:"lastLogin,omitempty" db:"last_login"`
	CreatedAt    time.Time  `json:"createdAt" db:"created_at"`
}

// AdminView is the password-free projection of an Admin returned to clients.
type AdminView struct {
	ID        string     `json:"id"`
	Name      string     `json:"name"`
	Email     string     `json:"email"`
	Role      Role       `json:"role"`
	LastLogin *time.Time `json:"lastLogin,omitempty"`
	CreatedAt time.Time  `json:"createdAt"`
}

// View returns the client-facing projection of a.
func (a *Admin) View() AdminView {
	return AdminView{
		ID:        a.ID,
		Name:      a.Name,
		Email:     a.Email,
		Role:      a.Role,
		LastLogin: a.LastLogin,
		CreatedAt: a.CreatedAt,
	}
}
