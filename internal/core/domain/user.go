package domain

import (
	"strings"
	"time"
)

// UserRole identifies which side of the marketplace an account belongs to.
type UserRole string

const (
	RoleCustomer UserRole = "CUSTOMER"
	RoleArtisan  UserRole = "ARTISAN"
	RoleAdmin    UserRole = "ADMIN"
)

// UserStatus represents the lifecycle state of an account.
type UserStatus string

const (
	StatusPending   UserStatus = "PENDING"
	StatusActive    UserStatus = "ACTIVE"
	StatusSuspended UserStatus = "SUSPENDED"
	StatusBanned    UserStatus = "BANNED"
)

// validUserTransitions defines the allowed account state machine transitions.
// PENDING→ACTIVE happens only through email verification; everything else is
// an administrative action. BANNED is terminal for login purposes.
var validUserTransitions = map[UserStatus][]UserStatus{
	StatusPending:   {StatusActive},
	StatusActive:    {StatusSuspended, StatusBanned},
	StatusSuspended: {StatusActive, StatusBanned},
}

// CanTransitionTo reports whether a transition from the current status to next is valid.
func (s UserStatus) CanTransitionTo(next UserStatus) bool {
	for _, allowed := range validUserTransitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

// LoginEligible reports whether an account in this status may be issued
// credentials. SUSPENDED and BANNED render identically to the caller.
func (s UserStatus) LoginEligible() bool {
	return s != StatusSuspended && s != StatusBanned
}

// User is the aggregate root for an identity. The artisan record, verification
// tokens and refresh tokens are owned by their User and deleted with it.
type User struct {
	ID              string     `json:"id"`
	Email           string     `json:"email"`
	PasswordHash    string     `json:"-"`
	FirstName       string     `json:"first_name"`
	LastName        string     `json:"last_name"`
	PhoneNumber     string     `json:"phone_number,omitempty"`
	Role            UserRole   `json:"role"`
	Status          UserStatus `json:"status"`
	IsEmailVerified bool       `json:"is_email_verified"`
	ProfilePicture  string     `json:"profile_picture,omitempty"`
	Address         string     `json:"address,omitempty"`
	City            string     `json:"city,omitempty"`
	State           string     `json:"state,omitempty"`
	ZipCode         string     `json:"zip_code,omitempty"`
	Artisan         *Artisan   `json:"artisan,omitempty"`
	CreatedAt       time.Time  `json:"created_at"`
	UpdatedAt       time.Time  `json:"updated_at"`
}

// FullName joins first and last name for email salutations.
func (u *User) FullName() string {
	return strings.TrimSpace(u.FirstName + " " + u.LastName)
}

// NormalizeEmail lowercases an email address. All lookups and writes go through
// this so the unique index on email is effectively case-insensitive.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
