package models

import (
	"strings"
	"time"
)

// User is an authenticated identity. Holdings reference it by ID.
type User struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	Email     string `json:"email"`
	AvatarURL string `json:"avatar_url,omitempty"`
}

// UserAccount is the stored form of a user, including credentials.
// It is never returned to clients.
type UserAccount struct {
	UserID       string    `json:"user_id"`
	Name         string    `json:"name"`
	Email        string    `json:"email"`
	AvatarURL    string    `json:"avatar_url,omitempty"`
	PasswordHash string    `json:"password_hash"`
	CreatedAt    time.Time `json:"created_at"`
	ModifiedAt   time.Time `json:"modified_at"`
}

// Public strips credentials from the account, filling display defaults:
// name falls back to the email local part, then "Investor"; avatar falls
// back to a generated image seeded by the email.
func (a *UserAccount) Public() *User {
	name := a.Name
	if name == "" {
		if local, _, ok := strings.Cut(a.Email, "@"); ok && local != "" {
			name = local
		} else {
			name = "Investor"
		}
	}
	avatar := a.AvatarURL
	if avatar == "" {
		avatar = "https://api.dicebear.com/7.x/avataaars/svg?seed=" + a.Email
	}
	return &User{
		ID:        a.UserID,
		Name:      name,
		Email:     a.Email,
		AvatarURL: avatar,
	}
}

// SessionEvent announces a change of the current user. A nil User means
// the owner signed out.
type SessionEvent struct {
	UserID string `json:"user_id"`
	User   *User  `json:"user,omitempty"`
}

// SignedIn reports whether the event carries a present user.
func (e SessionEvent) SignedIn() bool {
	return e.User != nil
}
