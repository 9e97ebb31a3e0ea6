package auth

import (
	"time"

	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

// User is the user model
type User struct {
	bun.BaseModel `bun:"table:users,alias:usr"`

	ID                         uuid.UUID  `bun:"id,pk,type:uuid" json:"id"`
	Email                      string     `bun:"email,notnull,unique" json:"email"`
	PasswordHash               string     `bun:"password_hash,notnull" json:"-"`
	FirstName                  string     `bun:"first_name,notnull" json:"first_name"`
	LastName                   string     `bun:"last_name,notnull" json:"last_name"`
	IsVerified                 bool       `bun:"is_verified,notnull" json:"is_verified"`
	VerificationToken          *string    `bun:"verification_token" json:"-"`
	VerificationTokenExpiresAt *time.Time `bun:"verification_token_expires_at" json:"-"`
	ResetPasswordCode          *string    `bun:"reset_password_code" json:"-"`
	ResetPasswordCodeExpiresAt *time.Time `bun:"reset_password_code_expires_at" json:"-"`
	RefreshToken               *string    `bun:"refresh_token" json:"-"`
	LastLogin                  *time.Time `bun:"last_login" json:"last_login,omitempty"`
	CreatedAt                  time.Time  `bun:"created_at,notnull" json:"created_at"`
	UpdatedAt                  time.Time  `bun:"updated_at,notnull" json:"updated_at"`
}

// HasVerificationCode reports whether code matches a live verification code
func (u *User) HasVerificationCode(code string, now time.Time) bool {
	return matchesLiveCode(u.VerificationToken, u.VerificationTokenExpiresAt, code, now)
}

// HasResetCode reports whether code matches a live password reset code
func (u *User) HasResetCode(code string, now time.Time) bool {
	return matchesLiveCode(u.ResetPasswordCode, u.ResetPasswordCodeExpiresAt, code, now)
}

func matchesLiveCode(stored *string, expiresAt *time.Time, code string, now time.Time) bool {
	if stored == nil || expiresAt == nil || code == "" {
		return false
	}
	return *stored == code && expiresAt.After(now)
}

func stringPtr(s string) *string {
	return &s
}

func timePtr(t time.Time) *time.Time {
	return &t
}
