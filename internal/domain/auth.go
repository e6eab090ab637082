package domain

import "time"

// VerificationToken proves ownership of a user's email address. It is
// short lived and at most one is live per user.
type VerificationToken struct {
	UserID    string
	Token     string
	ExpiresAt time.Time
}

// Session is a signed, time-limited credential issued after login.
type Session struct {
	Token     string
	UserID    string
	Role      Role
	ExpiresAt time.Time
}
